package catalog

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
)

// IdentityProvider supplies the current signed-in identity. Satisfied
// by *session.Store.
type IdentityProvider interface {
	Current(ctx context.Context) (session.Identity, error)
}

type Handler struct {
	store    *Store
	sessions IdentityProvider
}

func NewHandler(store *Store, sessions IdentityProvider) *Handler {
	return &Handler{store: store, sessions: sessions}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Get("/api/v1/products", h.listProducts)
	app.Get("/api/v1/product/:id", h.getProduct)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/products", h.createProduct)
	app.Put("/api/v1/product/:id", h.updateProduct)
	app.Delete("/api/v1/product/:id", h.deleteProduct)
}

func (h *Handler) listProducts(c *fiber.Ctx) error {
	products, err := h.store.List(c.Context(), c.Query("q"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(products)
}

func (h *Handler) getProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	product, err := h.store.Get(c.Context(), id)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "product not found"})
	}
	return c.JSON(product)
}

func (h *Handler) createProduct(c *fiber.Ctx) error {
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	identity, err := h.sessions.Current(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "not signed in"})
	}

	product, err := h.store.Create(c.Context(), identity, *form)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

func (h *Handler) updateProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}
	form := new(Form)
	if err := c.BodyParser(form); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	identity, err := h.sessions.Current(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "not signed in"})
	}

	product, err := h.store.Update(c.Context(), identity, id, *form)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(product)
}

func (h *Handler) deleteProduct(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "invalid product id"})
	}

	identity, err := h.sessions.Current(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "not signed in"})
	}

	if err := h.store.Delete(c.Context(), identity, id); err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
