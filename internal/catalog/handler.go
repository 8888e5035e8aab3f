package catalog

import (
	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/models"
)

type ReasonResponse struct {
	ID        uint               `json:"id"`
	Name      string             `json:"name"`
	AppliesTo models.ReasonScope `json:"applies_to"`
}

type CategoryResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type SizeResponse struct {
	ID           uint            `json:"id"`
	Value        string          `json:"value"`
	Type         models.SizeType `json:"size_type"`
	DisplayOrder int             `json:"display_order"`
}

type ColorResponse struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	HexCode string `json:"hex_code"`
}

// GET /api/reasons?applies_to=gifts|apparel
func ListReasonsHandler(s *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scope := models.ReasonScope(c.Query("applies_to"))
		if scope != "" && !scope.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "applies_to must be gifts, apparel or both")
		}

		reasons, err := s.ListReasons(c.UserContext(), scope)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list reasons")
		}

		res := make([]ReasonResponse, 0, len(reasons))
		for _, r := range reasons {
			res = append(res, ReasonResponse{ID: r.ID, Name: r.Name, AppliesTo: r.AppliesTo})
		}
		return c.JSON(res)
	}
}

// GET /api/gift-categories
func ListGiftCategoriesHandler(s *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := s.ListGiftCategories(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		res := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/apparel/categories
func ListApparelCategoriesHandler(s *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cats, err := s.ListApparelCategories(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		res := make([]CategoryResponse, 0, len(cats))
		for _, cat := range cats {
			res = append(res, CategoryResponse{ID: cat.ID, Name: cat.Name})
		}
		return c.JSON(res)
	}
}

// GET /api/apparel/sizes?size_type=clothing
func ListSizesHandler(s *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sizes, err := s.ListSizes(c.UserContext(), models.SizeType(c.Query("size_type")))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list sizes")
		}

		res := make([]SizeResponse, 0, len(sizes))
		for _, sz := range sizes {
			res = append(res, SizeResponse{ID: sz.ID, Value: sz.Value, Type: sz.Type, DisplayOrder: sz.DisplayOrder})
		}
		return c.JSON(res)
	}
}

// GET /api/apparel/colors
func ListColorsHandler(s *GormStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		colors, err := s.ListColors(c.UserContext())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list colors")
		}

		res := make([]ColorResponse, 0, len(colors))
		for _, col := range colors {
			res = append(res, ColorResponse{ID: col.ID, Name: col.Name, HexCode: col.HexCode})
		}
		return c.JSON(res)
	}
}
