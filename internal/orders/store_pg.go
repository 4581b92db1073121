package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is the Postgres implementation of Store on a pgx pool.
type PgStore struct{ DB *pgxpool.Pool }

var _ Store = (*PgStore)(nil)

func (s *PgStore) RunTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&pgTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Food(ctx context.Context, foodID string) (*Food, error) {
	var f Food
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, price, category, vegetarian, available, stock
		FROM foods WHERE id = $1`, foodID).
		Scan(&f.ID, &f.Name, &f.Price, &f.Category, &f.Vegetarian, &f.Available, &f.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select food: %w", err)
	}
	return &f, nil
}

func (t *pgTx) Account(ctx context.Context, userID string) (*Account, error) {
	var a Account
	err := t.tx.QueryRow(ctx, `
		SELECT id, name, wallet_balance, points_balance, total_spent, total_orders
		FROM users WHERE id = $1`, userID).
		Scan(&a.ID, &a.Name, &a.WalletBalance, &a.PointsBalance, &a.TotalSpent, &a.TotalOrders)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &a, nil
}

func (t *pgTx) CartLines(ctx context.Context, userID string) ([]CartLine, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT food_id, qty, group_label, instructions
		FROM cart_items WHERE user_id = $1 ORDER BY added_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var l CartLine
		if err := rows.Scan(&l.FoodID, &l.Qty, &l.Group, &l.Instructions); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (t *pgTx) NextOrderSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := t.tx.QueryRow(ctx, `
		INSERT INTO order_sequence (id, last_seq) VALUES (1, 1)
		ON CONFLICT (id) DO UPDATE SET last_seq = order_sequence.last_seq + 1
		RETURNING last_seq`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next order seq: %w", err)
	}
	return seq, nil
}

func (t *pgTx) InsertOrder(ctx context.Context, o *Order) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (id, display_id, user_id, subtotal, tax, total,
			payment_method, payment_status, status, cooking_start, estimated_ready, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		o.ID, o.DisplayID, o.UserID, o.Subtotal, o.Tax, o.Total,
		o.PaymentMethod, o.PaymentStatus, o.Status, o.CookingStart, o.EstimatedReady, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	for _, it := range o.Items {
		if _, err := t.tx.Exec(ctx, `
			INSERT INTO order_items (order_id, food_id, name, qty, price, instructions)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			o.ID, it.FoodID, it.Name, it.Qty, it.Price, it.Instructions); err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}
	return nil
}

func (t *pgTx) Debit(ctx context.Context, userID string, method PaymentMethod, amount float64) (float64, error) {
	if method.External() {
		ct, err := t.tx.Exec(ctx, `
			UPDATE users SET total_spent = total_spent + $2, total_orders = total_orders + 1
			WHERE id = $1`, userID, amount)
		if err != nil {
			return 0, fmt.Errorf("update stats: %w", err)
		}
		if ct.RowsAffected() == 0 {
			return 0, ErrUserNotFound
		}
		return 0, nil
	}

	col := "wallet_balance"
	if method == MethodPoints {
		col = "points_balance"
	}
	// Single conditional statement: the balance guard lives in the WHERE
	// clause, so concurrent debits can never overdraw.
	q := fmt.Sprintf(`
		UPDATE users SET %[1]s = %[1]s - $2,
			total_spent = total_spent + $2, total_orders = total_orders + 1
		WHERE id = $1 AND %[1]s >= $2
		RETURNING %[1]s`, col)

	var remaining float64
	err := t.tx.QueryRow(ctx, q, userID, amount).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrInsufficientBalance
	}
	if err != nil {
		return 0, fmt.Errorf("debit %s: %w", col, err)
	}
	return remaining, nil
}

func (t *pgTx) InsertTransaction(ctx context.Context, txn *Transaction) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, order_id, amount, type, payment_method, status, description, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		txn.ID, txn.UserID, txn.OrderID, txn.Amount, txn.Type, txn.Method, txn.Status, txn.Description, txn.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (t *pgTx) LinkTransaction(ctx context.Context, orderID, txnID string) error {
	_, err := t.tx.Exec(ctx,
		`UPDATE orders SET transaction_id = $2 WHERE id = $1`, orderID, txnID)
	if err != nil {
		return fmt.Errorf("link transaction: %w", err)
	}
	return nil
}

func (t *pgTx) DecrementStock(ctx context.Context, foodID string, qty int) error {
	ct, err := t.tx.Exec(ctx, `
		UPDATE foods SET stock = stock - $2
		WHERE id = $1 AND available AND stock >= $2`, foodID, qty)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrInsufficientStock, foodID)
	}
	return nil
}

func (t *pgTx) RemoveCartLines(ctx context.Context, userID string, foodIDs []string) error {
	if len(foodIDs) == 0 {
		return nil
	}
	_, err := t.tx.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND food_id = ANY($2)`, userID, foodIDs)
	if err != nil {
		return fmt.Errorf("remove cart lines: %w", err)
	}
	return nil
}

const orderColumns = `id, display_id, user_id, subtotal, tax, total,
	payment_method, payment_status, status, cooking_start, estimated_ready,
	COALESCE(transaction_id, ''), created_at`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.DisplayID, &o.UserID, &o.Subtotal, &o.Tax, &o.Total,
		&o.PaymentMethod, &o.PaymentStatus, &o.Status, &o.CookingStart, &o.EstimatedReady,
		&o.TransactionID, &o.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return &o, nil
}

func (s *PgStore) loadItems(ctx context.Context, o *Order) error {
	rows, err := s.DB.Query(ctx, `
		SELECT food_id, name, qty, price, instructions
		FROM order_items WHERE order_id = $1`, o.ID)
	if err != nil {
		return fmt.Errorf("select order items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var it OrderItem
		if err := rows.Scan(&it.FoodID, &it.Name, &it.Qty, &it.Price, &it.Instructions); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func (s *PgStore) OrderByID(ctx context.Context, userID, orderID string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1 AND user_id = $2`, orderID, userID))
	if err != nil || o == nil {
		return o, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PgStore) ListByUser(ctx context.Context, userID string, page, limit int) ([]Order, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	var total int
	if err := s.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	rows, err := s.DB.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, (page-1)*limit)
	if err != nil {
		return nil, 0, fmt.Errorf("select orders: %w", err)
	}
	defer rows.Close()

	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	for i := range out {
		if err := s.loadItems(ctx, &out[i]); err != nil {
			return nil, 0, err
		}
	}
	return out, total, nil
}

func (s *PgStore) CurrentOrder(ctx context.Context, userID string) (*Order, error) {
	o, err := scanOrder(s.DB.QueryRow(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE user_id = $1 AND status IN ('pending','cooking')
		ORDER BY created_at DESC LIMIT 1`, userID))
	if err != nil || o == nil {
		return o, err
	}
	if err := s.loadItems(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *PgStore) ListFoods(ctx context.Context) ([]Food, error) {
	rows, err := s.DB.Query(ctx, `
		SELECT id, name, price, category, vegetarian, available, stock
		FROM foods ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("select foods: %w", err)
	}
	defer rows.Close()

	var out []Food
	for rows.Next() {
		var f Food
		if err := rows.Scan(&f.ID, &f.Name, &f.Price, &f.Category, &f.Vegetarian, &f.Available, &f.Stock); err != nil {
			return nil, fmt.Errorf("scan food: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
