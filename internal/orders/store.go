package orders

import "context"

// Store is the persistence surface the order core runs on. Every mutation of
// shared state (balances, stock, the order itself) happens inside RunTx so
// placement is all-or-nothing.
type Store interface {
	// RunTx executes fn inside one storage transaction. A non-nil error from
	// fn rolls back everything fn did through the Tx.
	RunTx(ctx context.Context, fn func(tx Tx) error) error

	OrderByID(ctx context.Context, userID, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string, page, limit int) ([]Order, int, error)
	CurrentOrder(ctx context.Context, userID string) (*Order, error)
	ListFoods(ctx context.Context) ([]Food, error)
}

// Tx is the transaction-scoped half of the Store. Lookups return nil (not an
// error) when the row is absent; the conditional mutations return the
// matching business error when their guard fails.
type Tx interface {
	Food(ctx context.Context, foodID string) (*Food, error)
	Account(ctx context.Context, userID string) (*Account, error)
	CartLines(ctx context.Context, userID string) ([]CartLine, error)

	// NextOrderSeq atomically increments and returns the order sequence.
	// Two concurrent placements can never observe the same value.
	NextOrderSeq(ctx context.Context) (int64, error)

	InsertOrder(ctx context.Context, o *Order) error

	// Debit applies the combined settlement update in one conditional
	// statement: decrement the method's balance by amount, add amount to
	// total_spent, add 1 to total_orders, guarded by balance >= amount.
	// Returns the remaining balance, ErrInsufficientBalance when the guard
	// fails, or ErrUserNotFound. External methods skip the balance part and
	// return 0.
	Debit(ctx context.Context, userID string, method PaymentMethod, amount float64) (float64, error)

	InsertTransaction(ctx context.Context, t *Transaction) error
	LinkTransaction(ctx context.Context, orderID, txnID string) error

	// DecrementStock is decrement-if-sufficient: it fails with
	// ErrInsufficientStock instead of ever driving stock negative.
	DecrementStock(ctx context.Context, foodID string, qty int) error

	RemoveCartLines(ctx context.Context, userID string, foodIDs []string) error
}
