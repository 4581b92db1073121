package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Sowndhar-2005/canteen-go/internal/ledger"
)

// ItemInput is one requested line of an ad-hoc order.
type ItemInput struct {
	FoodID       string `json:"food_id"`
	Qty          int    `json:"qty"`
	Instructions string `json:"special_instructions,omitempty"`
}

// Source says where the order's lines come from: an explicit item list, or
// the caller's stored cart when the list is empty.
type Source struct {
	FromCart bool
	Items    []ItemInput
}

type Service struct {
	store   Store
	taxRate float64
	prep    time.Duration
	now     func() time.Time
}

func NewService(store Store, taxRate float64, prep time.Duration) *Service {
	return &Service{store: store, taxRate: taxRate, prep: prep, now: time.Now}
}

// PlaceOrder converts a cart or item list into a persisted order and settles
// payment for it. Everything runs in one storage transaction: validation,
// order insert, balance debit, audit record, stock decrement and cart
// cleanup all commit together or not at all.
func (s *Service) PlaceOrder(ctx context.Context, userID string, method PaymentMethod, src Source) (*Order, float64, error) {
	if !method.Valid() {
		return nil, 0, ErrInvalidPaymentMethod
	}

	var (
		placed    *Order
		remaining float64
	)
	err := s.store.RunTx(ctx, func(tx Tx) error {
		items, rawSubtotal, err := s.resolveItems(ctx, tx, userID, src)
		if err != nil {
			return err
		}

		totals := ledger.ComputeTotals(rawSubtotal, s.taxRate)

		acct, err := tx.Account(ctx, userID)
		if err != nil {
			return err
		}
		if acct == nil {
			return ErrUserNotFound
		}
		// Pre-check gives the caller a clean business error; the debit below
		// re-checks atomically so a racing order can still lose.
		switch method {
		case MethodWallet:
			if acct.WalletBalance < totals.Total {
				return fmt.Errorf("%w: wallet", ErrInsufficientBalance)
			}
		case MethodPoints:
			if acct.PointsBalance < totals.Total {
				return fmt.Errorf("%w: points", ErrInsufficientBalance)
			}
		}

		seq, err := tx.NextOrderSeq(ctx)
		if err != nil {
			return err
		}

		now := s.now()
		o := &Order{
			ID:             uuid.NewString(),
			DisplayID:      fmt.Sprintf("#ORD-%04d", seq),
			UserID:         userID,
			Items:          items,
			Subtotal:       totals.Subtotal,
			Tax:            totals.Tax,
			Total:          totals.Total,
			PaymentMethod:  method,
			PaymentStatus:  PaymentCompleted,
			Status:         StatusCooking,
			CookingStart:   now,
			EstimatedReady: now.Add(s.prep),
			CreatedAt:      now,
		}
		if err := tx.InsertOrder(ctx, o); err != nil {
			return err
		}

		remaining, err = tx.Debit(ctx, userID, method, totals.Total)
		if err != nil {
			return err
		}

		txn := &Transaction{
			ID:          uuid.NewString(),
			UserID:      userID,
			OrderID:     o.ID,
			Amount:      totals.Total,
			Type:        TxnDebit,
			Method:      method,
			Status:      PaymentCompleted,
			Description: "Order " + o.DisplayID,
			CreatedAt:   now,
		}
		if err := tx.InsertTransaction(ctx, txn); err != nil {
			return err
		}
		if err := tx.LinkTransaction(ctx, o.ID, txn.ID); err != nil {
			return err
		}
		o.TransactionID = txn.ID

		for _, it := range items {
			if err := tx.DecrementStock(ctx, it.FoodID, it.Qty); err != nil {
				return err
			}
		}

		// Drop consumed entries from the cart; explicit-item orders clear
		// only overlapping entries, unrelated ones stay.
		foodIDs := make([]string, 0, len(items))
		for _, it := range items {
			foodIDs = append(foodIDs, it.FoodID)
		}
		if err := tx.RemoveCartLines(ctx, userID, foodIDs); err != nil {
			return err
		}

		placed = o
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return placed, remaining, nil
}

// resolveItems builds the concrete line items, always from a fresh food read
// so stale cart prices or stock snapshots never leak into settlement.
func (s *Service) resolveItems(ctx context.Context, tx Tx, userID string, src Source) ([]OrderItem, float64, error) {
	requested := src.Items
	if src.FromCart || len(requested) == 0 {
		lines, err := tx.CartLines(ctx, userID)
		if err != nil {
			return nil, 0, err
		}
		if len(lines) == 0 {
			return nil, 0, fmt.Errorf("%w: cart is empty", ErrEmptySource)
		}
		requested = make([]ItemInput, 0, len(lines))
		for _, l := range lines {
			requested = append(requested, ItemInput{FoodID: l.FoodID, Qty: l.Qty, Instructions: l.Instructions})
		}
	}

	var (
		items []OrderItem
		raw   float64
	)
	for _, in := range requested {
		food, err := tx.Food(ctx, in.FoodID)
		if err != nil {
			return nil, 0, err
		}
		if food == nil {
			return nil, 0, fmt.Errorf("%w: %s", ErrItemNotFound, in.FoodID)
		}
		if !food.Available || food.Stock < in.Qty {
			return nil, 0, fmt.Errorf("%w: %s", ErrInsufficientStock, food.Name)
		}
		items = append(items, OrderItem{
			FoodID:       food.ID,
			Name:         food.Name,
			Qty:          in.Qty,
			Price:        food.Price,
			Instructions: in.Instructions,
		})
		raw += food.Price * float64(in.Qty)
	}
	return items, raw, nil
}

// Order returns one of the caller's orders, nil when absent.
func (s *Service) Order(ctx context.Context, userID, orderID string) (*Order, error) {
	return s.store.OrderByID(ctx, userID, orderID)
}

// Orders lists the caller's past orders, newest first.
func (s *Service) Orders(ctx context.Context, userID string, page, limit int) ([]Order, int, error) {
	return s.store.ListByUser(ctx, userID, page, limit)
}

// Current returns the caller's latest in-flight order, nil when none.
func (s *Service) Current(ctx context.Context, userID string) (*Order, error) {
	return s.store.CurrentOrder(ctx, userID)
}

// Menu lists the catalog.
func (s *Service) Menu(ctx context.Context) ([]Food, error) {
	return s.store.ListFoods(ctx)
}
