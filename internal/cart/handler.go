package cart

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/catalog"
)

// ProductSource resolves product snapshots for new cart lines.
// Satisfied by *catalog.Store.
type ProductSource interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
}

type Handler struct {
	store    *Store
	products ProductSource
}

func NewHandler(store *Store, products ProductSource) *Handler {
	return &Handler{store: store, products: products}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/cart", h.getCart)
	app.Post("/api/v1/cart", h.addToCart)
	app.Put("/api/v1/cart/:id", h.setQuantity)
	app.Delete("/api/v1/cart/:id", h.removeLine)
	app.Delete("/api/v1/cart", h.clearCart)
}

type addRequest struct {
	ProductID int64 `json:"productId"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) getCart(c *fiber.Ctx) error {
	lines, err := h.store.Items(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	if lines == nil {
		lines = []Line{}
	}
	return c.JSON(fiber.Map{
		"items":  lines,
		"totals": TotalsFor(lines),
	})
}

func (h *Handler) addToCart(c *fiber.Ctx) error {
	payload := new(addRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.ProductID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid productId"})
	}

	product, err := h.products.Get(c.Context(), payload.ProductID)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "product not found"})
	}

	snapshot := Line{
		ProductID: product.ID,
		Name:      product.Name,
		FarmName:  product.FarmName,
		Price:     product.Price,
		Unit:      product.Unit,
		Image:     product.Image,
		Category:  product.Category,
	}
	if err := h.store.Add(c.Context(), snapshot); err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.getCart(c)
}

func (h *Handler) setQuantity(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	payload := new(quantityRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if err := h.store.SetQuantity(c.Context(), id, payload.Quantity); err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.getCart(c)
}

func (h *Handler) removeLine(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	if err := h.store.Remove(c.Context(), id); err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return h.getCart(c)
}

func (h *Handler) clearCart(c *fiber.Ctx) error {
	if err := h.store.Clear(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
