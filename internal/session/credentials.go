package session

import (
	"errors"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// demoPassword is the password every seeded demo account accepts.
const demoPassword = "demo123"

// Credentials is the fixed demo credential table. There is no real
// authentication anywhere in this system; callers verify against this
// table before invoking Store.Login.
type Credentials struct {
	mu       sync.RWMutex
	accounts map[string]string // email -> bcrypt hash
}

func NewDemoCredentials() *Credentials {
	c := &Credentials{accounts: make(map[string]string)}
	for _, email := range []string{"buyer@example.com", "farmer@example.com"} {
		// the demo accounts share a well-known password
		if err := c.register(email, demoPassword); err != nil {
			panic(err)
		}
	}
	return c
}

func (c *Credentials) register(email, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	c.accounts[email] = string(hashed)
	return nil
}

// Register adds a new account to the table.
func (c *Credentials) Register(email, password string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.accounts[email]; exists {
		return ErrEmailExists
	}
	return c.register(email, password)
}

// Verify checks an email/password pair against the table.
func (c *Credentials) Verify(email, password string) error {
	c.mu.RLock()
	hash, ok := c.accounts[email]
	c.mu.RUnlock()
	if !ok {
		return ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Known reports whether the table has an account for the email.
func (c *Credentials) Known(email string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.accounts[email]
	return ok
}
