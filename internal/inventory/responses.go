package inventory

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"inventory-backend/internal/lowstock"
	"inventory-backend/internal/models"
)

type GiftResponse struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	CategoryID       uint            `json:"category_id"`
	CategoryName     string          `json:"category_name"`
	Description      string          `json:"description"`
	Material         string          `json:"material"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	HSCode           string          `json:"hs_code"`
	CountryOfOrigin  string          `json:"country_of_origin"`
	SupplierName     string          `json:"supplier_name"`
	SupplierEmail    string          `json:"supplier_email"`
	SupplierAddress  string          `json:"supplier_address"`
	ImageRef         string          `json:"image_ref"`
	Notes            string          `json:"notes"`
	Quantity         int             `json:"quantity"`
	MinimumThreshold int             `json:"minimum_threshold"`
	IsLow            bool            `json:"is_low"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func giftResponse(g models.Gift) GiftResponse {
	return GiftResponse{
		ID:               g.ID,
		Name:             g.Name,
		CategoryID:       g.CategoryID,
		CategoryName:     g.Category.Name,
		Description:      g.Description,
		Material:         g.Material,
		UnitPrice:        g.UnitPrice,
		HSCode:           g.HSCode,
		CountryOfOrigin:  g.CountryOfOrigin,
		SupplierName:     g.SupplierName,
		SupplierEmail:    g.SupplierEmail,
		SupplierAddress:  g.SupplierAddress,
		ImageRef:         g.ImageRef,
		Notes:            g.Notes,
		Quantity:         g.Quantity,
		MinimumThreshold: g.MinimumThreshold,
		IsLow:            lowstock.IsLow(g),
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
}

type VariantResponse struct {
	ID               uint             `json:"id"`
	ProductID        uint             `json:"product_id"`
	SizeID           uint             `json:"size_id"`
	Size             string           `json:"size"`
	ColorID          uint             `json:"color_id"`
	Color            string           `json:"color"`
	ColorHex         string           `json:"color_hex"`
	Gender           models.Gender    `json:"gender"`
	SKU              string           `json:"sku"`
	WeightGrams      *decimal.Decimal `json:"weight_grams"`
	Quantity         int              `json:"quantity"`
	MinimumThreshold int              `json:"minimum_threshold"`
	IsLow            bool             `json:"is_low"`
}

func variantResponse(v models.ApparelVariant) VariantResponse {
	return VariantResponse{
		ID:               v.ID,
		ProductID:        v.ProductID,
		SizeID:           v.SizeID,
		Size:             v.Size.Value,
		ColorID:          v.ColorID,
		Color:            v.Color.Name,
		ColorHex:         v.Color.HexCode,
		Gender:           v.Gender,
		SKU:              v.SKU,
		WeightGrams:      v.WeightGrams,
		Quantity:         v.Quantity,
		MinimumThreshold: v.MinimumThreshold,
		IsLow:            lowstock.IsLow(v),
	}
}

type ProductResponse struct {
	ID              uint              `json:"id"`
	Name            string            `json:"name"`
	CategoryID      uint              `json:"category_id"`
	CategoryName    string            `json:"category_name"`
	ItemCode        string            `json:"item_code"`
	Gender          models.Gender     `json:"gender"`
	Material        string            `json:"material"`
	Description     string            `json:"description"`
	HSCode          string            `json:"hs_code"`
	UnitPrice       decimal.Decimal   `json:"unit_price"`
	CountryOfOrigin string            `json:"country_of_origin"`
	PrimaryColorID  *uint             `json:"primary_color_id"`
	ImageRef        string            `json:"image_ref"`
	Notes           string            `json:"notes"`
	TotalQuantity   int               `json:"total_quantity"`
	Variants        []VariantResponse `json:"variants"`
}

func productResponse(p models.ApparelProduct) ProductResponse {
	res := ProductResponse{
		ID:              p.ID,
		Name:            p.Name,
		CategoryID:      p.CategoryID,
		CategoryName:    p.Category.Name,
		ItemCode:        p.ItemCode,
		Gender:          p.Gender,
		Material:        p.Material,
		Description:     p.Description,
		HSCode:          p.HSCode,
		UnitPrice:       p.UnitPrice,
		CountryOfOrigin: p.CountryOfOrigin,
		PrimaryColorID:  p.PrimaryColorID,
		ImageRef:        p.ImageRef,
		Notes:           p.Notes,
		Variants:        make([]VariantResponse, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		res.TotalQuantity += v.Quantity
		res.Variants = append(res.Variants, variantResponse(v))
	}
	return res
}

type MovementResponse struct {
	ID                uint              `json:"id"`
	Kind              models.EntityKind `json:"kind"`
	EntityID          uint              `json:"entity_id"`
	ProductID         *uint             `json:"product_id,omitempty"`
	Direction         models.Direction  `json:"direction"`
	Quantity          int               `json:"quantity"`
	ReasonID          *uint             `json:"reason_id"`
	ReasonName        string            `json:"reason_name,omitempty"`
	Notes             string            `json:"notes"`
	QuantityBefore    int               `json:"quantity_before"`
	ResultingQuantity int               `json:"resulting_quantity"`
	UserID            *uint             `json:"user_id"`
	CreatedAt         time.Time         `json:"created_at"`
}

func movementResponse(m models.StockMovement) MovementResponse {
	res := MovementResponse{
		ID:                m.ID,
		Kind:              m.EntityKind,
		EntityID:          m.EntityID,
		ProductID:         m.ProductID,
		Direction:         m.Direction,
		Quantity:          m.QuantityDelta,
		ReasonID:          m.ReasonID,
		Notes:             m.Notes,
		QuantityBefore:    m.QuantityBefore,
		ResultingQuantity: m.ResultingQuantity,
		UserID:            m.UserID,
		CreatedAt:         m.CreatedAt,
	}
	if m.Reason != nil {
		res.ReasonName = m.Reason.Name
	}
	return res
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid id")
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, key string) (uint, error) {
	v := c.QueryInt(key, 0)
	if v < 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "Invalid "+key)
	}
	return uint(v), nil
}
