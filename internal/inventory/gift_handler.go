package inventory

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/registry"
)

type CreateGiftRequest struct {
	Name             string          `json:"name"`
	CategoryID       uint            `json:"category_id"`
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
	Quantity         int             `json:"quantity"` // initial stock only
	MinimumThreshold *int            `json:"minimum_threshold"`
}

type UpdateGiftRequest struct {
	Name             *string          `json:"name"`
	CategoryID       *uint            `json:"category_id"`
	Description      *string          `json:"description"`
	Material         *string          `json:"material"`
	UnitPrice        *decimal.Decimal `json:"unit_price"`
	HSCode           *string          `json:"hs_code"`
	CountryOfOrigin  *string          `json:"country_of_origin"`
	SupplierName     *string          `json:"supplier_name"`
	SupplierEmail    *string          `json:"supplier_email"`
	SupplierAddress  *string          `json:"supplier_address"`
	ImageRef         *string          `json:"image_ref"`
	Notes            *string          `json:"notes"`
	MinimumThreshold *int             `json:"minimum_threshold"`
	Quantity         *int             `json:"quantity"`
}

// GET /api/gifts?category_id=&search=&low=true
func ListGiftsHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := queryUint(c, "category_id")
		if err != nil {
			return err
		}

		gifts, err := reg.ListGifts(c.UserContext(), registry.GiftFilter{
			CategoryID: categoryID,
			Search:     c.Query("search"),
			LowOnly:    c.QueryBool("low", false),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		res := make([]GiftResponse, 0, len(gifts))
		for _, g := range gifts {
			res = append(res, giftResponse(g))
		}
		return c.JSON(res)
	}
}

// POST /api/gifts
func CreateGiftHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateGiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		g, err := reg.CreateGift(c.UserContext(), registry.GiftInput{
			Name:             body.Name,
			CategoryID:       body.CategoryID,
			Description:      body.Description,
			Material:         body.Material,
			UnitPrice:        body.UnitPrice,
			HSCode:           body.HSCode,
			CountryOfOrigin:  body.CountryOfOrigin,
			SupplierName:     body.SupplierName,
			SupplierEmail:    body.SupplierEmail,
			SupplierAddress:  body.SupplierAddress,
			ImageRef:         body.ImageRef,
			Notes:            body.Notes,
			InitialQuantity:  body.Quantity,
			MinimumThreshold: body.MinimumThreshold,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(giftResponse(g))
	}
}

// GET /api/gifts/:id
func GetGiftHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		g, err := reg.GetGift(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(giftResponse(g))
	}
}

// PATCH /api/gifts/:id
func UpdateGiftHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateGiftRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		g, err := reg.UpdateGift(c.UserContext(), id, registry.GiftPatch{
			Name:             body.Name,
			CategoryID:       body.CategoryID,
			Description:      body.Description,
			Material:         body.Material,
			UnitPrice:        body.UnitPrice,
			HSCode:           body.HSCode,
			CountryOfOrigin:  body.CountryOfOrigin,
			SupplierName:     body.SupplierName,
			SupplierEmail:    body.SupplierEmail,
			SupplierAddress:  body.SupplierAddress,
			ImageRef:         body.ImageRef,
			Notes:            body.Notes,
			MinimumThreshold: body.MinimumThreshold,
			Quantity:         body.Quantity,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(giftResponse(g))
	}
}

// DELETE /api/gifts/:id
func DeleteGiftHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := reg.DeleteGift(c.UserContext(), id, auth.ActorFrom(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
