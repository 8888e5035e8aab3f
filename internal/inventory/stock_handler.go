package inventory

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/ledger"
	"inventory-backend/internal/models"
	"inventory-backend/internal/registry"
)

type TakeRequest struct {
	Quantity int    `json:"quantity"`
	ReasonID uint   `json:"reason_id"`
	Notes    string `json:"notes"`
}

type ReturnRequest struct {
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

type StockResultResponse struct {
	NewQuantity int              `json:"new_quantity"`
	IsLow       bool             `json:"is_low"`
	Movement    MovementResponse `json:"movement"`
}

func stockResult(res ledger.Result) StockResultResponse {
	return StockResultResponse{
		NewQuantity: res.NewQuantity,
		IsLow:       res.Low,
		Movement:    movementResponse(res.Movement),
	}
}

// POST /api/gifts/:id/take, /api/apparel/variants/:id/take
func TakeHandler(l *ledger.Ledger, kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body TakeRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		res, err := l.Take(c.UserContext(), ledger.TakeRequest{
			Kind:     kind,
			EntityID: id,
			Quantity: body.Quantity,
			ReasonID: body.ReasonID,
			Notes:    body.Notes,
			UserID:   auth.ActorFrom(c).UserID,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(stockResult(res))
	}
}

// POST /api/gifts/:id/return, /api/apparel/variants/:id/return
func ReturnHandler(l *ledger.Ledger, kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body ReturnRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		res, err := l.Return(c.UserContext(), ledger.ReturnRequest{
			Kind:     kind,
			EntityID: id,
			Quantity: body.Quantity,
			Notes:    body.Notes,
			UserID:   auth.ActorFrom(c).UserID,
		})
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(stockResult(res))
	}
}

// GET /api/gifts/:id/low-stock, /api/apparel/variants/:id/low-stock
func IsLowHandler(reg *registry.Registry, kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		low, err := reg.IsLow(c.UserContext(), kind, id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(fiber.Map{"kind": kind, "id": id, "is_low": low})
	}
}

// GET /api/low-stock?kind=gift|variant
func LowStockHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := reg.LowStock(c.UserContext(), models.EntityKind(c.Query("kind")))
		if err != nil {
			return apperr.ToFiber(err)
		}
		if items == nil {
			items = []registry.LowStockItem{}
		}
		return c.JSON(items)
	}
}

// GET /api/gifts/:id/movements, /api/apparel/variants/:id/movements
func EntityMovementsHandler(l *ledger.Ledger, kind models.EntityKind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		f, err := movementFilter(c)
		if err != nil {
			return err
		}
		f.Kind = kind
		f.EntityID = id
		return listMovements(c, l, f)
	}
}

// GET /api/movements?kind=&entity_id=&product_id=&direction=&date_from=&date_to=&limit=
func ListMovementsHandler(l *ledger.Ledger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := movementFilter(c)
		if err != nil {
			return err
		}
		f.Kind = models.EntityKind(c.Query("kind"))
		if f.EntityID, err = queryUint(c, "entity_id"); err != nil {
			return err
		}
		return listMovements(c, l, f)
	}
}

func listMovements(c *fiber.Ctx, l *ledger.Ledger, f ledger.MovementFilter) error {
	moves, err := l.Movements(c.UserContext(), f)
	if err != nil {
		return apperr.ToFiber(err)
	}
	res := make([]MovementResponse, 0, len(moves))
	for _, m := range moves {
		res = append(res, movementResponse(m))
	}
	return c.JSON(res)
}

// movementFilter reads the shared query parameters. date_to is inclusive.
func movementFilter(c *fiber.Ctx) (ledger.MovementFilter, error) {
	var f ledger.MovementFilter
	var err error

	if f.ProductID, err = queryUint(c, "product_id"); err != nil {
		return f, err
	}
	f.Direction = models.Direction(c.Query("direction"))
	f.Limit = c.QueryInt("limit", 0)

	if s := c.Query("date_from"); s != "" {
		if f.From, err = time.ParseInLocation("2006-01-02", s, time.Local); err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "date_from must be YYYY-MM-DD")
		}
	}
	if s := c.Query("date_to"); s != "" {
		to, err := time.ParseInLocation("2006-01-02", s, time.Local)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "date_to must be YYYY-MM-DD")
		}
		f.To = to.AddDate(0, 0, 1)
	}
	return f, nil
}
