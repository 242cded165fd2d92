package ledger

import (
	"context"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bhavyasrideva22/produce-portal-hub/internal/apperr"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/cart"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/catalog"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/session"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/signal"
	"github.com/bhavyasrideva22/produce-portal-hub/internal/storage"
)

var (
	buyer  = session.Identity{Kind: session.KindBuyer, Email: "buyer@example.com"}
	farmer = session.Identity{Kind: session.KindFarmer, Email: "farmer@example.com"}
)

type fixture struct {
	store    *Store
	sessions *session.Store
	carts    *cart.Store
	catalog  *catalog.Store
	bus      *signal.MemoryBus
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	kv := storage.NewMemory()
	bus := signal.NewMemoryBus()
	sessions := session.NewStore(kv, bus)
	carts := cart.NewStore(kv, bus, sessions)
	products := catalog.NewStore(kv, bus)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := NewStore(kv, bus, sessions, carts, products, logger)
	store.SetProcessingDelay(0)
	return &fixture{store: store, sessions: sessions, carts: carts, catalog: products, bus: bus}
}

func (f *fixture) signIn(t *testing.T, id session.Identity) {
	t.Helper()
	if err := f.sessions.Login(context.Background(), id); err != nil {
		t.Fatalf("login failed: %v", err)
	}
}

func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	line := cart.Line{ProductID: 1, Name: "Organic Tomatoes", FarmName: "Green Valley Farm", Price: 3.99, Unit: "lb", Category: "Vegetables"}
	for i := 0; i < 5; i++ {
		if err := f.carts.Add(context.Background(), line); err != nil {
			t.Fatalf("add to cart failed: %v", err)
		}
	}
}

var validShipping = ShippingInfo{
	FullName: "John Buyer",
	Email:    "buyer@example.com",
	Phone:    "555-0100",
	Address:  "123 Main St",
	City:     "Springfield",
	State:    "IL",
	ZipCode:  "62701",
}

var validPayment = PaymentForm{
	CardNumber: "4111 1111 1111 1111",
	CardName:   "John Buyer",
	ExpiryDate: "12/27",
	CVV:        "123",
}

var orderIDPattern = regexp.MustCompile(`^ORD-\d+$`)

func TestPlaceOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, buyer)
	f.fillCart(t)

	changes := 0
	cancel := f.bus.Subscribe(signal.OrdersChanged, func() { changes++ })
	defer cancel()

	id, err := f.store.PlaceOrder(ctx, validShipping, validPayment)
	if err != nil {
		t.Fatalf("checkout failed: %v", err)
	}
	if !orderIDPattern.MatchString(id) {
		t.Fatalf("unexpected order id %q", id)
	}

	orders, err := f.store.Orders(ctx)
	if err != nil {
		t.Fatalf("listing orders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected one order, got %d", len(orders))
	}

	order := orders[0]
	if order.Subtotal != 19.95 {
		t.Fatalf("expected subtotal 19.95, got %v", order.Subtotal)
	}
	if order.Total != 25.94 {
		t.Fatalf("expected total 25.94, got %v", order.Total)
	}
	if order.Payment.Last4 != "1111" {
		t.Fatalf("expected last4 1111, got %q", order.Payment.Last4)
	}
	if order.Payment.Method != "Card" {
		t.Fatalf("expected method Card, got %q", order.Payment.Method)
	}
	if order.Status != "Confirmed" {
		t.Fatalf("expected status Confirmed, got %q", order.Status)
	}
	if len(order.Items) != 1 || order.Items[0].Quantity != 5 {
		t.Fatalf("order did not snapshot the cart: %+v", order.Items)
	}

	lines, _ := f.carts.Items(ctx)
	if len(lines) != 0 {
		t.Fatalf("cart must be empty after checkout, got %d lines", len(lines))
	}
	if changes != 1 {
		t.Fatalf("expected one orders-changed signal, got %d", changes)
	}
}

func TestPlaceOrderRejectsFarmer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, farmer)

	if _, err := f.store.PlaceOrder(ctx, validShipping, validPayment); err != apperr.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	orders, _ := f.store.loadOrders(ctx)
	if len(orders) != 0 {
		t.Fatalf("rejected checkout must not write orders, got %d", len(orders))
	}
}

func TestPlaceOrderRequiresSession(t *testing.T) {
	f := newFixture(t)
	if _, err := f.store.PlaceOrder(context.Background(), validShipping, validPayment); err != apperr.ErrUnauthenticated {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, buyer)

	if _, err := f.store.PlaceOrder(context.Background(), validShipping, validPayment); err != apperr.ErrEmptyCart {
		t.Fatalf("expected ErrEmptyCart, got %v", err)
	}
}

func TestValidateCheckout(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name     string
		shipping ShippingInfo
		payment  PaymentForm
		group    string
	}{
		{"valid", validShipping, validPayment, ""},
		{"missing shipping field", ShippingInfo{FullName: "John"}, validPayment, "shipping"},
		{"missing payment field", validShipping, PaymentForm{CardNumber: "4111111111111111"}, "payment"},
		{"card too short", validShipping, PaymentForm{CardNumber: "4111 1111", CardName: "J", ExpiryDate: "12/27", CVV: "123"}, "payment"},
		{"card not numeric", validShipping, PaymentForm{CardNumber: "4111-1111-1111-1111", CardName: "J", ExpiryDate: "12/27", CVV: "123"}, "payment"},
		{"cvv too short", validShipping, PaymentForm{CardNumber: "4111111111111111", CardName: "J", ExpiryDate: "12/27", CVV: "12"}, "payment"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.store.ValidateCheckout(tc.shipping, tc.payment)
			if tc.group == "" {
				if err != nil {
					t.Fatalf("expected valid forms, got %v", err)
				}
				return
			}
			ve, ok := err.(*apperr.ValidationError)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Group != tc.group {
				t.Fatalf("expected group %q, got %q", tc.group, ve.Group)
			}
		})
	}
}

func TestPlaceOrderCancelledDuringProcessing(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, buyer)
	f.fillCart(t)
	f.store.SetProcessingDelay(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := f.store.PlaceOrder(ctx, validShipping, validPayment)
		done <- err
	}()

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	orders, _ := f.store.loadOrders(context.Background())
	if len(orders) != 0 {
		t.Fatalf("cancelled checkout must not write orders, got %d", len(orders))
	}
	lines, _ := f.carts.Items(context.Background())
	if len(lines) == 0 {
		t.Fatal("cancelled checkout must not clear the cart")
	}
}

func TestOrdersScopedToBuyer(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, buyer)
	f.fillCart(t)

	if _, err := f.store.PlaceOrder(ctx, validShipping, validPayment); err != nil {
		t.Fatalf("checkout failed: %v", err)
	}

	other := session.Identity{Kind: session.KindBuyer, Email: "other@example.com"}
	f.signIn(t, other)
	orders, err := f.store.Orders(ctx)
	if err != nil {
		t.Fatalf("listing orders failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("another buyer must not see the order, got %d", len(orders))
	}
}

func TestFarmerOrdersSeedOnFirstOpen(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, farmer)

	records, err := f.store.FarmerOrders(ctx)
	if err != nil {
		t.Fatalf("first open failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected two seeded records, got %d", len(records))
	}
	if records[0].ID != "ORD-001" || records[0].Status != StatusConfirmed {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1].ID != "ORD-002" || records[1].Status != StatusShipped {
		t.Fatalf("unexpected second record: %+v", records[1])
	}

	// seeding happens once; a later open returns the stored set
	again, err := f.store.FarmerOrders(ctx)
	if err != nil {
		t.Fatalf("second open failed: %v", err)
	}
	if len(again) != 2 {
		t.Fatalf("expected same two records, got %d", len(again))
	}
}

func TestFarmerOrdersRequiresFarmer(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, buyer)
	if _, err := f.store.FarmerOrders(context.Background()); err != apperr.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	cases := []struct {
		name string
		from Status
		to   Status
		ok   bool
	}{
		{"pending to confirmed", StatusPending, StatusConfirmed, true},
		{"pending to cancelled", StatusPending, StatusCancelled, true},
		{"pending to shipped", StatusPending, StatusShipped, false},
		{"pending to delivered", StatusPending, StatusDelivered, false},
		{"confirmed to shipped", StatusConfirmed, StatusShipped, true},
		{"confirmed to cancelled", StatusConfirmed, StatusCancelled, false},
		{"shipped to delivered", StatusShipped, StatusDelivered, true},
		{"shipped to confirmed", StatusShipped, StatusConfirmed, false},
		{"delivered is terminal", StatusDelivered, StatusShipped, false},
		{"cancelled is terminal", StatusCancelled, StatusConfirmed, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.signIn(t, farmer)

			records := []FarmerOrderRecord{{
				ID:          "ORD-100",
				ProductName: "Fresh Carrots",
				ProductID:   2,
				Quantity:    3,
				Status:      tc.from,
			}}
			if err := f.store.saveFarmerOrders(ctx, farmer.Email, records); err != nil {
				t.Fatalf("seeding record failed: %v", err)
			}

			updated, err := f.store.UpdateStatus(ctx, "ORD-100", tc.to)
			if tc.ok {
				if err != nil {
					t.Fatalf("expected transition %s -> %s to succeed, got %v", tc.from, tc.to, err)
				}
				if updated.Status != tc.to {
					t.Fatalf("expected status %s, got %s", tc.to, updated.Status)
				}
				return
			}
			if err != apperr.ErrInvalidTransition {
				t.Fatalf("expected ErrInvalidTransition for %s -> %s, got %v", tc.from, tc.to, err)
			}

			stored, _, _ := f.store.loadFarmerOrders(ctx, farmer.Email)
			if stored[0].Status != tc.from {
				t.Fatalf("rejected transition must leave the record at %s, got %s", tc.from, stored[0].Status)
			}
		})
	}
}

func TestUpdateStatusUnknownOrder(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, farmer)
	if _, err := f.store.UpdateStatus(context.Background(), "ORD-999", StatusConfirmed); err != apperr.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateStatusUnknownValue(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, farmer)
	if _, err := f.store.UpdateStatus(context.Background(), "ORD-001", Status("archived")); err != apperr.ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestUpdateStatusRequiresFarmer(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, buyer)
	if _, err := f.store.UpdateStatus(context.Background(), "ORD-001", StatusConfirmed); err != apperr.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestDeliveredFeedsCatalog(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.signIn(t, farmer)

	stock := 20
	product, err := f.catalog.Create(ctx, farmer, catalog.Form{
		Name:     "Heirloom Squash",
		Price:    4.25,
		Unit:     "lb",
		Category: "Vegetables",
		Stock:    &stock,
	})
	if err != nil {
		t.Fatalf("creating product failed: %v", err)
	}

	records := []FarmerOrderRecord{{
		ID:          "ORD-200",
		ProductName: product.Name,
		ProductID:   product.ID,
		Quantity:    5,
		Status:      StatusShipped,
	}}
	if err := f.store.saveFarmerOrders(ctx, farmer.Email, records); err != nil {
		t.Fatalf("seeding record failed: %v", err)
	}

	updated, err := f.store.UpdateStatus(ctx, "ORD-200", StatusDelivered)
	if err != nil {
		t.Fatalf("delivering failed: %v", err)
	}
	if updated.DeliveryDate == "" {
		t.Fatal("delivered record must carry a delivery date")
	}

	after, err := f.catalog.Get(ctx, product.ID)
	if err != nil {
		t.Fatalf("reloading product failed: %v", err)
	}
	if after.Stock == nil || *after.Stock != 15 {
		t.Fatalf("expected stock 15 after delivery, got %v", after.Stock)
	}
	if after.Orders != 1 {
		t.Fatalf("expected orders 1, got %d", after.Orders)
	}
	if after.Sales != 5 {
		t.Fatalf("expected sales 5, got %d", after.Sales)
	}
}
