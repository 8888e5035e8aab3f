package inventory

import (
	"github.com/gofiber/fiber/v2"

	"inventory-backend/internal/ledger"
	"inventory-backend/internal/models"
	"inventory-backend/internal/registry"
)

// Routes mounts the stock endpoints on an authenticated router.
func Routes(r fiber.Router, reg *registry.Registry, l *ledger.Ledger) {
	gifts := r.Group("/gifts")
	gifts.Get("/", ListGiftsHandler(reg))
	gifts.Post("/", CreateGiftHandler(reg))
	gifts.Get("/:id", GetGiftHandler(reg))
	gifts.Patch("/:id", UpdateGiftHandler(reg))
	gifts.Delete("/:id", DeleteGiftHandler(reg))
	gifts.Post("/:id/take", TakeHandler(l, models.KindGift))
	gifts.Post("/:id/return", ReturnHandler(l, models.KindGift))
	gifts.Get("/:id/low-stock", IsLowHandler(reg, models.KindGift))
	gifts.Get("/:id/movements", EntityMovementsHandler(l, models.KindGift))

	products := r.Group("/apparel/products")
	products.Get("/", ListProductsHandler(reg))
	products.Post("/", CreateProductHandler(reg))
	products.Get("/:id", GetProductHandler(reg))
	products.Patch("/:id", UpdateProductHandler(reg))
	products.Delete("/:id", DeleteProductHandler(reg))

	variants := r.Group("/apparel/variants")
	variants.Get("/", ListVariantsHandler(reg))
	variants.Post("/", CreateVariantHandler(reg))
	variants.Get("/:id", GetVariantHandler(reg))
	variants.Patch("/:id", UpdateVariantHandler(reg))
	variants.Delete("/:id", DeleteVariantHandler(reg))
	variants.Post("/:id/take", TakeHandler(l, models.KindVariant))
	variants.Post("/:id/return", ReturnHandler(l, models.KindVariant))
	variants.Get("/:id/low-stock", IsLowHandler(reg, models.KindVariant))
	variants.Get("/:id/movements", EntityMovementsHandler(l, models.KindVariant))

	r.Get("/movements", ListMovementsHandler(l))
	r.Get("/low-stock", LowStockHandler(reg))
}
