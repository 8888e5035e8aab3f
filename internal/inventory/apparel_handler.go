package inventory

import (
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"inventory-backend/internal/apperr"
	"inventory-backend/internal/auth"
	"inventory-backend/internal/models"
	"inventory-backend/internal/registry"
)

type CreateProductRequest struct {
	Name            string          `json:"name"`
	CategoryID      uint            `json:"category_id"`
	ItemCode        string          `json:"item_code"`
	Gender          models.Gender   `json:"gender"`
	Material        string          `json:"material"`
	Description     string          `json:"description"`
	HSCode          string          `json:"hs_code"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CountryOfOrigin string          `json:"country_of_origin"`
	PrimaryColorID  *uint           `json:"primary_color_id"`
	ImageRef        string          `json:"image_ref"`
	Notes           string          `json:"notes"`
}

type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	CategoryID      *uint            `json:"category_id"`
	ItemCode        *string          `json:"item_code"`
	Gender          *models.Gender   `json:"gender"`
	Material        *string          `json:"material"`
	Description     *string          `json:"description"`
	HSCode          *string          `json:"hs_code"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	CountryOfOrigin *string          `json:"country_of_origin"`
	PrimaryColorID  *uint            `json:"primary_color_id"`
	ImageRef        *string          `json:"image_ref"`
	Notes           *string          `json:"notes"`
}

type CreateVariantRequest struct {
	ProductID        uint             `json:"product_id"`
	SizeID           uint             `json:"size_id"`
	ColorID          uint             `json:"color_id"`
	Gender           models.Gender    `json:"gender"`
	SKU              string           `json:"sku"`
	WeightGrams      *decimal.Decimal `json:"weight_grams"`
	Quantity         int              `json:"quantity"` // initial stock only
	MinimumThreshold *int             `json:"minimum_threshold"`
}

type UpdateVariantRequest struct {
	SizeID           *uint            `json:"size_id"`
	ColorID          *uint            `json:"color_id"`
	Gender           *models.Gender   `json:"gender"`
	SKU              *string          `json:"sku"`
	WeightGrams      *decimal.Decimal `json:"weight_grams"`
	MinimumThreshold *int             `json:"minimum_threshold"`
	Quantity         *int             `json:"quantity"`
}

// GET /api/apparel/products?category_id=&gender=&search=
func ListProductsHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		categoryID, err := queryUint(c, "category_id")
		if err != nil {
			return err
		}

		products, err := reg.ListProducts(c.UserContext(), registry.ProductFilter{
			CategoryID: categoryID,
			Gender:     models.Gender(c.Query("gender")),
			Search:     c.Query("search"),
		})
		if err != nil {
			return apperr.ToFiber(err)
		}

		res := make([]ProductResponse, 0, len(products))
		for _, p := range products {
			res = append(res, productResponse(p))
		}
		return c.JSON(res)
	}
}

// POST /api/apparel/products
func CreateProductHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		p, err := reg.CreateProduct(c.UserContext(), registry.ProductInput{
			Name:            body.Name,
			CategoryID:      body.CategoryID,
			ItemCode:        body.ItemCode,
			Gender:          body.Gender,
			Material:        body.Material,
			Description:     body.Description,
			HSCode:          body.HSCode,
			UnitPrice:       body.UnitPrice,
			CountryOfOrigin: body.CountryOfOrigin,
			PrimaryColorID:  body.PrimaryColorID,
			ImageRef:        body.ImageRef,
			Notes:           body.Notes,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(productResponse(p))
	}
}

// GET /api/apparel/products/:id
func GetProductHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		p, err := reg.GetProduct(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(productResponse(p))
	}
}

// PATCH /api/apparel/products/:id
func UpdateProductHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateProductRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		p, err := reg.UpdateProduct(c.UserContext(), id, registry.ProductPatch{
			Name:            body.Name,
			CategoryID:      body.CategoryID,
			ItemCode:        body.ItemCode,
			Gender:          body.Gender,
			Material:        body.Material,
			Description:     body.Description,
			HSCode:          body.HSCode,
			UnitPrice:       body.UnitPrice,
			CountryOfOrigin: body.CountryOfOrigin,
			PrimaryColorID:  body.PrimaryColorID,
			ImageRef:        body.ImageRef,
			Notes:           body.Notes,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(productResponse(p))
	}
}

// DELETE /api/apparel/products/:id
func DeleteProductHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := reg.DeleteProduct(c.UserContext(), id, auth.ActorFrom(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// GET /api/apparel/variants?product_id=
func ListVariantsHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		productID, err := queryUint(c, "product_id")
		if err != nil {
			return err
		}
		variants, err := reg.ListVariants(c.UserContext(), productID)
		if err != nil {
			return apperr.ToFiber(err)
		}

		res := make([]VariantResponse, 0, len(variants))
		for _, v := range variants {
			res = append(res, variantResponse(v))
		}
		return c.JSON(res)
	}
}

// POST /api/apparel/variants
func CreateVariantHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body CreateVariantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		v, err := reg.CreateVariant(c.UserContext(), registry.VariantInput{
			ProductID:        body.ProductID,
			SizeID:           body.SizeID,
			ColorID:          body.ColorID,
			Gender:           body.Gender,
			SKU:              body.SKU,
			WeightGrams:      body.WeightGrams,
			InitialQuantity:  body.Quantity,
			MinimumThreshold: body.MinimumThreshold,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.Status(fiber.StatusCreated).JSON(variantResponse(v))
	}
}

// GET /api/apparel/variants/:id
func GetVariantHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		v, err := reg.GetVariant(c.UserContext(), id)
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(variantResponse(v))
	}
}

// PATCH /api/apparel/variants/:id
func UpdateVariantHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		var body UpdateVariantRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		v, err := reg.UpdateVariant(c.UserContext(), id, registry.VariantPatch{
			SizeID:           body.SizeID,
			ColorID:          body.ColorID,
			Gender:           body.Gender,
			SKU:              body.SKU,
			WeightGrams:      body.WeightGrams,
			MinimumThreshold: body.MinimumThreshold,
			Quantity:         body.Quantity,
		}, auth.ActorFrom(c))
		if err != nil {
			return apperr.ToFiber(err)
		}
		return c.JSON(variantResponse(v))
	}
}

// DELETE /api/apparel/variants/:id
func DeleteVariantHandler(reg *registry.Registry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := reg.DeleteVariant(c.UserContext(), id, auth.ActorFrom(c)); err != nil {
			return apperr.ToFiber(err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
