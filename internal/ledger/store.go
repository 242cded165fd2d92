package ledger

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/cart"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

const ordersKey = "orders"

func farmerOrdersKey(email string) string {
	return "farmerOrders:" + email
}

// IdentityProvider supplies the current signed-in identity. Satisfied
// by *session.Store.
type IdentityProvider interface {
	Current(ctx context.Context) (session.Identity, error)
}

// CartSource is the slice of the cart store checkout needs. Satisfied
// by *cart.Store.
type CartSource interface {
	Items(ctx context.Context) ([]cart.Line, error)
	Clear(ctx context.Context) error
}

// FulfillmentRecorder accumulates delivered quantities into the
// catalog. Satisfied by *catalog.Store.
type FulfillmentRecorder interface {
	RecordFulfillment(ctx context.Context, productID int64, units int) error
}

// defaultProcessingDelay models the payment-gateway round trip the
// storefront fakes at checkout.
const defaultProcessingDelay = 2 * time.Second

// Store owns the placed-order ledger: the global buyer order list under
// "orders" and one farmer record list per farmer email.
type Store struct {
	kv       storage.KeyValueStore
	bus      signal.Bus
	sessions IdentityProvider
	carts    CartSource
	recorder FulfillmentRecorder
	logger   *logrus.Logger

	processingDelay time.Duration

	mu     sync.Mutex
	lastID int64
}

func NewStore(kv storage.KeyValueStore, bus signal.Bus, sessions IdentityProvider, carts CartSource, recorder FulfillmentRecorder, logger *logrus.Logger) *Store {
	return &Store{
		kv:              kv,
		bus:             bus,
		sessions:        sessions,
		carts:           carts,
		recorder:        recorder,
		logger:          logger,
		processingDelay: defaultProcessingDelay,
	}
}

// SetProcessingDelay overrides the simulated payment delay (tests use
// zero).
func (s *Store) SetProcessingDelay(d time.Duration) {
	s.processingDelay = d
}

// nextOrderID returns "ORD-" plus a millisecond timestamp that always
// moves forward, so two checkouts in the same millisecond still get
// distinct ids.
func (s *Store) nextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return "ORD-" + strconv.FormatInt(id, 10)
}

// ValidateCheckout checks both form groups without saving anything.
// The returned error names the group that failed.
func (s *Store) ValidateCheckout(shipping ShippingInfo, payment PaymentForm) error {
	if shipping.FullName == "" || shipping.Email == "" || shipping.Phone == "" ||
		shipping.Address == "" || shipping.City == "" || shipping.State == "" ||
		shipping.ZipCode == "" {
		return apperr.Validation("shipping", "all shipping fields are required")
	}

	if payment.CardNumber == "" || payment.CardName == "" ||
		payment.ExpiryDate == "" || payment.CVV == "" {
		return apperr.Validation("payment", "all payment fields are required")
	}

	digits := strings.ReplaceAll(payment.CardNumber, " ", "")
	for _, r := range digits {
		if r < '0' || r > '9' {
			return apperr.Validation("payment", "card number must contain only digits")
		}
	}
	if len(digits) < 16 {
		return apperr.Validation("payment", "card number must have at least 16 digits")
	}
	if len(payment.CVV) < 3 {
		return apperr.Validation("payment", "CVV must have at least 3 characters")
	}
	return nil
}

func (s *Store) loadOrders(ctx context.Context) ([]Order, error) {
	raw, err := s.kv.Get(ctx, ordersKey)
	if err == storage.ErrKeyNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var orders []Order
	if err := json.Unmarshal([]byte(raw), &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Store) saveOrders(ctx context.Context, orders []Order) error {
	data, err := json.Marshal(orders)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, ordersKey, string(data))
}

// PlaceOrder runs the checkout state machine: guards, validation, the
// simulated processing wait, then a single append to the order list
// followed by clearing the cart. Nothing is written until the wait has
// completed, so cancelling ctx during the wait leaves every store
// untouched.
func (s *Store) PlaceOrder(ctx context.Context, shipping ShippingInfo, payment PaymentForm) (string, error) {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return "", err
	}
	if identity.IsFarmer() {
		return "", apperr.ErrForbidden
	}

	lines, err := s.carts.Items(ctx)
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", apperr.ErrEmptyCart
	}

	if err := s.ValidateCheckout(shipping, payment); err != nil {
		return "", err
	}

	// simulated payment-gateway round trip; the only suspension point
	// in the whole core
	timer := time.NewTimer(s.processingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	totals := cart.TotalsFor(lines)
	digits := strings.ReplaceAll(payment.CardNumber, " ", "")
	order := Order{
		ID:       s.nextOrderID(),
		Date:     time.Now().UTC().Format(time.RFC3339),
		Items:    lines,
		Shipping: shipping,
		Payment: PaymentSummary{
			Method: "Card",
			Last4:  digits[len(digits)-4:],
		},
		Subtotal:    totals.Subtotal,
		ShippingFee: totals.Shipping,
		Total:       totals.Total,
		Status:      "Confirmed",
	}

	s.mu.Lock()
	orders, err := s.loadOrders(ctx)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	if err := s.saveOrders(ctx, append(orders, order)); err != nil {
		s.mu.Unlock()
		return "", err
	}
	s.mu.Unlock()

	if err := s.carts.Clear(ctx); err != nil {
		return "", err
	}
	s.bus.Publish(signal.OrdersChanged)

	s.logger.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"buyer_email": identity.Email,
		"items_count": len(order.Items),
		"total":       order.Total,
	}).Info("Order placed")

	return order.ID, nil
}

// Orders returns the buyer's placed orders, newest last. Orders written
// before shipping emails were recorded are shown to everyone, matching
// the storefront.
func (s *Store) Orders(ctx context.Context) ([]Order, error) {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}

	orders, err := s.loadOrders(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Order, 0, len(orders))
	for _, o := range orders {
		if o.Shipping.Email == "" || o.Shipping.Email == identity.Email {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *Store) loadFarmerOrders(ctx context.Context, email string) ([]FarmerOrderRecord, bool, error) {
	raw, err := s.kv.Get(ctx, farmerOrdersKey(email))
	if err == storage.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var records []FarmerOrderRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, false, err
	}
	return records, true, nil
}

func (s *Store) saveFarmerOrders(ctx context.Context, email string, records []FarmerOrderRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, farmerOrdersKey(email), string(data))
}

// seedFarmerOrders builds the demo records written the first time a
// farmer opens their order view.
func seedFarmerOrders() []FarmerOrderRecord {
	now := time.Now()
	return []FarmerOrderRecord{
		{
			ID:          "ORD-001",
			ProductName: "Organic Tomatoes",
			ProductID:   1,
			BuyerName:   "John Buyer",
			BuyerEmail:  "buyer@example.com",
			Quantity:    5,
			Price:       3.99,
			Total:       19.95,
			Status:      StatusConfirmed,
			OrderDate:   now.Add(-2 * 24 * time.Hour).UTC().Format(time.RFC3339),
			Address:     "123 Main St, City, State 12345",
		},
		{
			ID:           "ORD-002",
			ProductName:  "Fresh Carrots",
			ProductID:    2,
			BuyerName:    "Jane Customer",
			BuyerEmail:   "jane@example.com",
			Quantity:     3,
			Price:        2.49,
			Total:        7.47,
			Status:       StatusShipped,
			OrderDate:    now.Add(-5 * 24 * time.Hour).UTC().Format(time.RFC3339),
			DeliveryDate: now.Add(2 * 24 * time.Hour).UTC().Format(time.RFC3339),
			Address:      "456 Oak Ave, City, State 12345",
		},
	}
}

// FarmerOrders returns the farmer's order records, seeding the demo
// set on first open.
func (s *Store) FarmerOrders(ctx context.Context) ([]FarmerOrderRecord, error) {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return nil, err
	}
	if !identity.IsFarmer() {
		return nil, apperr.ErrForbidden
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, found, err := s.loadFarmerOrders(ctx, identity.Email)
	if err != nil {
		return nil, err
	}
	if !found {
		records = seedFarmerOrders()
		if err := s.saveFarmerOrders(ctx, identity.Email, records); err != nil {
			return nil, err
		}
	}
	return records, nil
}

// UpdateStatus advances one of the farmer's records through the status
// machine. Backward or skipping moves are rejected and leave the record
// unchanged. Reaching delivered stamps the delivery date and feeds the
// quantity back into the catalog.
func (s *Store) UpdateStatus(ctx context.Context, orderID string, next Status) (FarmerOrderRecord, error) {
	identity, err := s.sessions.Current(ctx)
	if err != nil {
		return FarmerOrderRecord{}, err
	}
	if !identity.IsFarmer() {
		return FarmerOrderRecord{}, apperr.ErrForbidden
	}
	if !next.Valid() {
		return FarmerOrderRecord{}, apperr.ErrInvalidTransition
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, _, err := s.loadFarmerOrders(ctx, identity.Email)
	if err != nil {
		return FarmerOrderRecord{}, err
	}

	for i, rec := range records {
		if rec.ID != orderID {
			continue
		}
		if !rec.Status.CanTransitionTo(next) {
			return FarmerOrderRecord{}, apperr.ErrInvalidTransition
		}

		rec.Status = next
		if next == StatusDelivered {
			rec.DeliveryDate = time.Now().UTC().Format(time.RFC3339)
		}
		records[i] = rec
		if err := s.saveFarmerOrders(ctx, identity.Email, records); err != nil {
			return FarmerOrderRecord{}, err
		}

		if next == StatusDelivered {
			if err := s.recorder.RecordFulfillment(ctx, rec.ProductID, rec.Quantity); err != nil {
				return FarmerOrderRecord{}, err
			}
		}
		s.bus.Publish(signal.OrdersChanged)

		s.logger.WithFields(logrus.Fields{
			"order_id":     rec.ID,
			"farmer_email": identity.Email,
			"status":       string(next),
		}).Info("Order status updated")

		return rec, nil
	}
	return FarmerOrderRecord{}, apperr.ErrNotFound
}
