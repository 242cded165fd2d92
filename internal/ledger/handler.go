package ledger

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
)

type Handler struct {
	store    *Store
	sessions IdentityProvider
}

func NewHandler(store *Store, sessions IdentityProvider) *Handler {
	return &Handler{store: store, sessions: sessions}
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Post("/api/v1/checkout", h.checkout)
	app.Get("/api/v1/orders", h.getOrders)
	app.Put("/api/v1/orders/:id/status", h.updateStatus)
}

type checkoutRequest struct {
	Shipping ShippingInfo `json:"shippingInfo"`
	Payment  PaymentForm  `json:"payment"`
}

type statusRequest struct {
	Status Status `json:"status"`
}

// checkout resolves when the simulated processing finishes. Tearing the
// request down while it is in flight cancels the wait; nothing is
// written in that case.
func (h *Handler) checkout(c *fiber.Ctx) error {
	payload := new(checkoutRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	orderID, err := h.store.PlaceOrder(c.Context(), payload.Shipping, payload.Payment)
	if err != nil {
		var ve *apperr.ValidationError
		if errors.As(err, &ve) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": ve.Error(),
				"group":   ve.Group,
			})
		}
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"orderId": orderID})
}

// getOrders returns the view matching the signed-in identity: placed
// orders for buyers, order records for farmers.
func (h *Handler) getOrders(c *fiber.Ctx) error {
	identity, err := h.sessions.Current(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "not signed in"})
	}

	if identity.Kind == session.KindFarmer {
		records, err := h.store.FarmerOrders(c.Context())
		if err != nil {
			return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
		}
		return c.JSON(records)
	}

	orders, err := h.store.Orders(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	if orders == nil {
		orders = []Order{}
	}
	return c.JSON(orders)
}

func (h *Handler) updateStatus(c *fiber.Ctx) error {
	payload := new(statusRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	record, err := h.store.UpdateStatus(c.Context(), c.Params("id"), payload.Status)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(record)
}
