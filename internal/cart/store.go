package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sowndhar-2005/canteen-go/internal/ledger"
)

var (
	ErrNotFound        = errors.New("cart not found")
	ErrFoodUnavailable = errors.New("food item not available in requested quantity")
	ErrFoodNotFound    = errors.New("food item not found")
	ErrEmpty           = errors.New("cart is empty")
)

type Store interface {
	Get(ctx context.Context, userID string) (*Cart, error)
	AddItem(ctx context.Context, userID, foodID string, qty int, group, instructions string) (*Cart, error)
	UpdateItem(ctx context.Context, userID, foodID string, qty int, group string) (*Cart, error)
	RemoveItem(ctx context.Context, userID, foodID string) (*Cart, error)
	Clear(ctx context.Context, userID string) error
	Share(ctx context.Context, userID string) (string, error)
	Join(ctx context.Context, link, userID string) (*Cart, error)
}

// PgStore keeps carts in Postgres: one carts row per user (created lazily on
// first add) plus a cart_items row per (user, food).
type PgStore struct{ DB *pgxpool.Pool }

var _ Store = (*PgStore)(nil)

func (s *PgStore) Get(ctx context.Context, userID string) (*Cart, error) {
	c := &Cart{UserID: userID}
	err := s.DB.QueryRow(ctx, `
		SELECT shared, COALESCE(share_link, ''), participants
		FROM carts WHERE user_id = $1`, userID).
		Scan(&c.Shared, &c.ShareLink, &c.Participants)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cart: %w", err)
	}
	if err := s.loadEntries(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PgStore) loadEntries(ctx context.Context, c *Cart) error {
	rows, err := s.DB.Query(ctx, `
		SELECT ci.food_id, f.name, ci.qty, ci.price, ci.group_label, ci.instructions, ci.added_at
		FROM cart_items ci JOIN foods f ON f.id = ci.food_id
		WHERE ci.user_id = $1 ORDER BY ci.added_at`, c.UserID)
	if err != nil {
		return fmt.Errorf("select cart items: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.FoodID, &e.Name, &e.Qty, &e.Price, &e.Group, &e.Instructions, &e.AddedAt); err != nil {
			return fmt.Errorf("scan cart item: %w", err)
		}
		c.Entries = append(c.Entries, e)
	}
	return rows.Err()
}

// AddItem validates the food against the live catalog, creates the cart row
// if missing, and merges quantity when the food is already in the cart.
func (s *PgStore) AddItem(ctx context.Context, userID, foodID string, qty int, group, instructions string) (*Cart, error) {
	var (
		price     float64
		available bool
		stock     int
	)
	err := s.DB.QueryRow(ctx,
		`SELECT price, available, stock FROM foods WHERE id = $1`, foodID).
		Scan(&price, &available, &stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrFoodNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select food: %w", err)
	}
	if !available || stock < qty {
		return nil, ErrFoodUnavailable
	}

	tx, err := s.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO carts (user_id) VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`, userID); err != nil {
		return nil, fmt.Errorf("ensure cart: %w", err)
	}
	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items (user_id, food_id, qty, price, group_label, instructions, added_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (user_id, food_id) DO UPDATE SET
			qty = cart_items.qty + EXCLUDED.qty,
			group_label = EXCLUDED.group_label,
			instructions = CASE WHEN EXCLUDED.instructions <> '' THEN EXCLUDED.instructions
				ELSE cart_items.instructions END`,
		userID, foodID, qty, price, group, instructions, time.Now()); err != nil {
		return nil, fmt.Errorf("upsert cart item: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// UpdateItem sets quantity and group label; qty <= 0 removes the entry.
func (s *PgStore) UpdateItem(ctx context.Context, userID, foodID string, qty int, group string) (*Cart, error) {
	if qty <= 0 {
		return s.RemoveItem(ctx, userID, foodID)
	}
	ct, err := s.DB.Exec(ctx, `
		UPDATE cart_items SET qty = $3, group_label = $4
		WHERE user_id = $1 AND food_id = $2`, userID, foodID, qty, group)
	if err != nil {
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, userID)
}

func (s *PgStore) RemoveItem(ctx context.Context, userID, foodID string) (*Cart, error) {
	if _, err := s.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND food_id = $2`, userID, foodID); err != nil {
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *PgStore) Clear(ctx context.Context, userID string) error {
	if _, err := s.DB.Exec(ctx,
		`DELETE FROM cart_items WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Share marks the cart shared and returns its invite link token. A cart with
// no entries cannot be shared.
func (s *PgStore) Share(ctx context.Context, userID string) (string, error) {
	var n int
	if err := s.DB.QueryRow(ctx,
		`SELECT COUNT(*) FROM cart_items WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return "", fmt.Errorf("count cart items: %w", err)
	}
	if n == 0 {
		return "", ErrEmpty
	}

	link := uuid.NewString()
	ct, err := s.DB.Exec(ctx, `
		UPDATE carts SET shared = true, share_link = $2 WHERE user_id = $1`, userID, link)
	if err != nil {
		return "", fmt.Errorf("share cart: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return "", ErrNotFound
	}
	return link, nil
}

// Join adds userID to the shared cart's participant list; joining twice is a
// no-op. Joining never transfers ownership.
func (s *PgStore) Join(ctx context.Context, link, userID string) (*Cart, error) {
	var (
		owner        string
		participants []string
	)
	err := s.DB.QueryRow(ctx, `
		SELECT user_id, participants FROM carts
		WHERE shared AND share_link = $1`, link).Scan(&owner, &participants)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select shared cart: %w", err)
	}

	if !ledger.IsParticipant(participants, userID) && userID != owner {
		if _, err := s.DB.Exec(ctx, `
			UPDATE carts SET participants = array_append(participants, $2)
			WHERE user_id = $1`, owner, userID); err != nil {
			return nil, fmt.Errorf("join cart: %w", err)
		}
	}
	return s.Get(ctx, owner)
}
