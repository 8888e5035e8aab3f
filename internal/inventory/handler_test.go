package inventory

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"inventory-backend/internal/auth"
	"inventory-backend/internal/catalog"
	"inventory-backend/internal/database/dbtest"
	"inventory-backend/internal/events"
	"inventory-backend/internal/ledger"
	"inventory-backend/internal/models"
	"inventory-backend/internal/registry"
)

type env struct {
	app     *fiber.App
	reason  models.TakeReason
	giftCat models.GiftCategory
	appCat  models.ApparelCategory
	size    models.ApparelSize
	color   models.ApparelColor
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{
		reason:  models.TakeReason{Name: "Event", AppliesTo: models.ReasonScopeBoth},
		giftCat: models.GiftCategory{Name: "Souvenir"},
		appCat:  models.ApparelCategory{Name: "Cap"},
		size:    models.ApparelSize{Value: "One Size", Type: models.SizeTypeAccessory},
		color:   models.ApparelColor{Name: "Blue", HexCode: "#027bb8"},
	}
	for _, v := range []any{&e.reason, &e.giftCat, &e.appCat, &e.size, &e.color} {
		require.NoError(t, db.Create(v).Error)
	}

	cat := catalog.NewGormStore(db)
	reg := registry.New(db, cat, zap.NewNop())
	l := ledger.New(db, cat, events.Nop{}, zap.NewNop())

	e.app = fiber.New()
	api := e.app.Group("/api", func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUserIDKey, uint(1))
		c.Locals(auth.CtxUserNameKey, "tester")
		return c.Next()
	})
	Routes(api, reg, l)
	return e
}

func (e *env) call(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (e *env) createGift(t *testing.T, qty int) GiftResponse {
	t.Helper()
	var g GiftResponse
	status := e.call(t, "POST", "/api/gifts", map[string]any{
		"name":        "Lanyard",
		"category_id": e.giftCat.ID,
		"unit_price":  "1.75",
		"quantity":    qty,
	}, &g)
	require.Equal(t, http.StatusCreated, status)
	return g
}

func TestGiftTakeAndReturn(t *testing.T) {
	e := newEnv(t)
	g := e.createGift(t, 12)
	assert.Equal(t, 12, g.Quantity)
	assert.Equal(t, models.DefaultGiftThreshold, g.MinimumThreshold)
	assert.False(t, g.IsLow)

	var res StockResultResponse
	status := e.call(t, "POST", "/api/gifts/"+itoa(g.ID)+"/take", TakeRequest{Quantity: 3, ReasonID: e.reason.ID, Notes: "expo"}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 9, res.NewQuantity)
	assert.True(t, res.IsLow)
	assert.Equal(t, "Event", res.Movement.ReasonName)
	assert.Equal(t, models.DirectionTake, res.Movement.Direction)

	status = e.call(t, "POST", "/api/gifts/"+itoa(g.ID)+"/return", ReturnRequest{Quantity: 1}, &res)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 10, res.NewQuantity)

	var moves []MovementResponse
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/gifts/"+itoa(g.ID)+"/movements", nil, &moves))
	require.Len(t, moves, 2)
	assert.Equal(t, models.DirectionReturn, moves[0].Direction)

	var got GiftResponse
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/gifts/"+itoa(g.ID), nil, &got))
	assert.Equal(t, 10, got.Quantity)
}

func TestStockErrorsMapToStatus(t *testing.T) {
	e := newEnv(t)
	g := e.createGift(t, 2)
	id := itoa(g.ID)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"insufficient", "POST", "/api/gifts/" + id + "/take", TakeRequest{Quantity: 3, ReasonID: e.reason.ID}, http.StatusConflict},
		{"zero quantity", "POST", "/api/gifts/" + id + "/take", TakeRequest{Quantity: 0, ReasonID: e.reason.ID}, http.StatusBadRequest},
		{"no reason", "POST", "/api/gifts/" + id + "/take", TakeRequest{Quantity: 1}, http.StatusBadRequest},
		{"unknown reason", "POST", "/api/gifts/" + id + "/take", TakeRequest{Quantity: 1, ReasonID: 999}, http.StatusUnprocessableEntity},
		{"missing gift", "POST", "/api/gifts/999/take", TakeRequest{Quantity: 1, ReasonID: e.reason.ID}, http.StatusNotFound},
		{"bad id", "POST", "/api/gifts/abc/take", TakeRequest{Quantity: 1, ReasonID: e.reason.ID}, http.StatusBadRequest},
		{"negative return", "POST", "/api/gifts/" + id + "/return", ReturnRequest{Quantity: -1}, http.StatusBadRequest},
		{"quantity patch", "PATCH", "/api/gifts/" + id, map[string]any{"quantity": 50}, http.StatusBadRequest},
		{"unknown category", "POST", "/api/gifts", map[string]any{"name": "x", "category_id": 999}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.call(t, tt.method, tt.path, tt.body, nil))
		})
	}

	var got GiftResponse
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/gifts/"+id, nil, &got))
	assert.Equal(t, 2, got.Quantity)
}

func TestVariantLifecycle(t *testing.T) {
	e := newEnv(t)

	var p ProductResponse
	require.Equal(t, http.StatusCreated, e.call(t, "POST", "/api/apparel/products", map[string]any{
		"name": "Bucket Hat", "category_id": e.appCat.ID, "gender": "U", "unit_price": 12,
	}, &p))

	body := map[string]any{"product_id": p.ID, "size_id": e.size.ID, "color_id": e.color.ID, "quantity": 6}
	var v VariantResponse
	require.Equal(t, http.StatusCreated, e.call(t, "POST", "/api/apparel/variants", body, &v))
	assert.Equal(t, "One Size", v.Size)
	assert.Equal(t, "Blue", v.Color)
	assert.Equal(t, models.GenderUnisex, v.Gender)
	assert.False(t, v.IsLow)

	assert.Equal(t, http.StatusConflict, e.call(t, "POST", "/api/apparel/variants", body, nil))

	var res StockResultResponse
	require.Equal(t, http.StatusOK, e.call(t, "POST", "/api/apparel/variants/"+itoa(v.ID)+"/take", TakeRequest{Quantity: 1, ReasonID: e.reason.ID}, &res))
	assert.Equal(t, 5, res.NewQuantity)
	assert.True(t, res.IsLow)

	var flag struct {
		IsLow bool `json:"is_low"`
	}
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/apparel/variants/"+itoa(v.ID)+"/low-stock", nil, &flag))
	assert.True(t, flag.IsLow)

	var report []registry.LowStockItem
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/low-stock?kind=variant", nil, &report))
	require.Len(t, report, 1)
	assert.Equal(t, v.ID, report[0].ID)

	var got ProductResponse
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/apparel/products/"+itoa(p.ID), nil, &got))
	assert.Equal(t, 5, got.TotalQuantity)
	require.Len(t, got.Variants, 1)

	var moves []MovementResponse
	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/movements?product_id="+itoa(p.ID), nil, &moves))
	assert.Len(t, moves, 1)

	require.Equal(t, http.StatusNoContent, e.call(t, "DELETE", "/api/apparel/products/"+itoa(p.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, e.call(t, "GET", "/api/apparel/variants/"+itoa(v.ID), nil, nil))
	assert.Equal(t, http.StatusNotFound, e.call(t, "POST", "/api/apparel/variants/"+itoa(v.ID)+"/return", ReturnRequest{Quantity: 1}, nil))

	require.Equal(t, http.StatusOK, e.call(t, "GET", "/api/movements?kind=variant", nil, &moves))
	assert.Len(t, moves, 1, "history survives deletion")
}

func TestMovementsQueryValidation(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusBadRequest, e.call(t, "GET", "/api/movements?date_from=yesterday", nil, nil))
	assert.Equal(t, http.StatusBadRequest, e.call(t, "GET", "/api/movements?kind=pallet", nil, nil))
	assert.Equal(t, http.StatusBadRequest, e.call(t, "GET", "/api/low-stock?kind=pallet", nil, nil))

	var moves []MovementResponse
	assert.Equal(t, http.StatusOK, e.call(t, "GET", "/api/movements?date_from=2026-01-01&date_to=2026-01-31", nil, &moves))
	assert.Empty(t, moves)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
