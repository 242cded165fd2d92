package ledger

import (
	"github.com/bhavyasrideva22/produce-portal-hub/internal/cart"
)

// ShippingInfo is the checkout delivery form. Every field is required.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zipCode"`
}

// PaymentForm is the raw checkout payment form. It is validated and
// immediately reduced to a PaymentSummary; the full card number and
// CVV are never persisted.
type PaymentForm struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

type PaymentSummary struct {
	Method string `json:"method"`
	Last4  string `json:"last4"`
}

// Order is the buyer-facing record created exactly once at checkout and
// immutable afterwards.
type Order struct {
	ID          string         `json:"id"`
	Date        string         `json:"date"`
	Items       []cart.Line    `json:"items"`
	Shipping    ShippingInfo   `json:"shippingInfo"`
	Payment     PaymentSummary `json:"payment"`
	Subtotal    float64        `json:"subtotal"`
	ShippingFee float64        `json:"shipping"`
	Total       float64        `json:"total"`
	Status      string         `json:"status"`
}

// Status is the lifecycle state of a farmer order record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// transitions lists the allowed next states. The machine only moves
// forward; delivered and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped},
	StatusShipped:   {StatusDelivered},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// FarmerOrderRecord is the farmer-facing view of an incoming order. It
// is seeded per farmer email and is independent of the buyer Order
// ledger.
type FarmerOrderRecord struct {
	ID           string  `json:"id"`
	ProductName  string  `json:"productName"`
	ProductID    int64   `json:"productId"`
	BuyerName    string  `json:"buyerName"`
	BuyerEmail   string  `json:"buyerEmail"`
	Quantity     int     `json:"quantity"`
	Price        float64 `json:"price"`
	Total        float64 `json:"total"`
	Status       Status  `json:"status"`
	OrderDate    string  `json:"orderDate"`
	DeliveryDate string  `json:"deliveryDate,omitempty"`
	Address      string  `json:"address"`
}
