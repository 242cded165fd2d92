package session

import (
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
)

type Handler struct {
	store *Store
	creds *Credentials
}

func NewHandler(store *Store, creds *Credentials) *Handler {
	return &Handler{store: store, creds: creds}
}

func (h *Handler) RegisterPublicRoutes(app *fiber.App) {
	app.Post("/api/v1/sign-in", h.signIn)
	app.Post("/api/v1/sign-up", h.signUp)
}

func (h *Handler) RegisterProtectedRoutes(app *fiber.App) {
	app.Get("/api/v1/profile", h.getProfile)
	// accepts partial payloads, so PATCH behaviour is satisfied too
	app.Put("/api/v1/profile", h.updateProfile)
	app.Patch("/api/v1/profile", h.updateProfile)
	app.Post("/api/v1/sign-out", h.signOut)
}

type signInRequest struct {
	Kind     Kind   `json:"kind"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signUpRequest struct {
	Kind         Kind   `json:"kind"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	DisplayName  string `json:"displayName"`
	ContactPhone string `json:"contactPhone"`
	Location     string `json:"location"`
	FarmLocation string `json:"farmLocation"`
}

func (h *Handler) signIn(c *fiber.Ctx) error {
	payload := new(signInRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	if err := h.creds.Verify(payload.Email, payload.Password); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid email or password"})
	}

	id := Identity{Kind: payload.Kind, Email: payload.Email}
	if err := h.store.Login(c.Context(), id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	signed, err := issueToken(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.JSON(fiber.Map{
		"message":  "Login successful",
		"identity": id,
		"token":    signed,
	})
}

func (h *Handler) signUp(c *fiber.Ctx) error {
	payload := new(signUpRequest)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}
	if payload.Email == "" || payload.Password == "" || payload.DisplayName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Missing required fields"})
	}

	if err := h.creds.Register(payload.Email, payload.Password); err != nil {
		if err == ErrEmailExists {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"message": "Email already exists"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}

	// the storefront signs a fresh account straight in
	id := Identity{
		Kind:         payload.Kind,
		Email:        payload.Email,
		DisplayName:  payload.DisplayName,
		ContactPhone: payload.ContactPhone,
		Location:     payload.Location,
		FarmLocation: payload.FarmLocation,
	}
	if err := h.store.Login(c.Context(), id); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	signed, err := issueToken(id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "failed to generate token"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"identity": id,
		"token":    signed,
	})
}

func (h *Handler) getProfile(c *fiber.Ctx) error {
	id, err := h.store.Current(c.Context())
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": "not signed in"})
	}
	// a token issued for a previous login is treated as signed out
	if email, err := GetEmailFromCtx(c); err == nil && email != id.Email {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "not signed in"})
	}
	return c.JSON(id)
}

func (h *Handler) updateProfile(c *fiber.Ctx) error {
	payload := new(Identity)
	if err := c.BodyParser(payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
	}

	updated, err := h.store.UpdateProfile(c.Context(), *payload)
	if err != nil {
		return c.Status(apperr.Status(err)).JSON(fiber.Map{"message": err.Error()})
	}
	return c.JSON(updated)
}

func (h *Handler) signOut(c *fiber.Ctx) error {
	if err := h.store.Logout(c.Context()); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func issueToken(id Identity) (string, error) {
	claims := jwt.MapClaims{
		"email": id.Email,
		"kind":  string(id.Kind),
		"exp":   time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// GetEmailFromCtx extracts the email claim from the JWT token stored in
// `c.Locals("user")` by the auth middleware.
func GetEmailFromCtx(c *fiber.Ctx) (string, error) {
	u := c.Locals("user")
	if u == nil {
		return "", fiber.ErrUnauthorized
	}
	tok, ok := u.(*jwt.Token)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fiber.ErrUnauthorized
	}
	email, ok := claims["email"].(string)
	if !ok || email == "" {
		return "", fiber.ErrUnauthorized
	}
	return email, nil
}
