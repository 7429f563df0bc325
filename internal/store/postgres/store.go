package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ordervox/ordervox/internal/cart"
	"github.com/ordervox/ordervox/internal/order"
	"github.com/ordervox/ordervox/internal/store"
)

// Compile-time assertion that Store satisfies the store interface.
var _ store.Store = (*Store)(nil)

// Store is the PostgreSQL session and order store. All methods are safe for
// concurrent use.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the database at dsn, verifies the connection, and runs
// [Migrate].
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: parse dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres store: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres store: ping: %w", err)
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &Store{pool: pool}, nil
}

// Close releases all connections held by the underlying pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Create implements [store.Store.Create]. The insert is idempotent on the
// call ID: a webhook redelivery for an existing call returns the stored
// session unchanged.
func (s *Store) Create(ctx context.Context, sess order.Session) (order.Session, error) {
	cartJSON, err := json.Marshal(sess.Cart)
	if err != nil {
		return order.Session{}, fmt.Errorf("postgres store: encode cart: %w", err)
	}

	const q = `
		INSERT INTO sessions
		    (call_id, restaurant, state, cart, fulfillment, customer_name,
		     customer_phone, address, fail_count, lifecycle, version,
		     created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $11)
		ON CONFLICT (call_id) DO NOTHING`

	_, err = s.pool.Exec(ctx, q,
		sess.CallID,
		sess.Restaurant,
		string(sess.State),
		cartJSON,
		string(sess.Fulfillment),
		sess.CustomerName,
		sess.CustomerPhone,
		sess.Address,
		sess.FailCount,
		string(sess.Lifecycle),
		sess.CreatedAt,
	)
	if err != nil {
		return order.Session{}, fmt.Errorf("postgres store: create session: %w", err)
	}

	// Whether the insert landed or the call already existed, the stored row
	// is the truth.
	return s.Load(ctx, sess.CallID)
}

// Load implements [store.Store.Load]. A cart blob that no longer decodes
// falls back to an empty cart instead of failing the turn.
func (s *Store) Load(ctx context.Context, callID string) (order.Session, error) {
	const q = `
		SELECT call_id, restaurant, state, cart, fulfillment, customer_name,
		       customer_phone, address, fail_count, lifecycle, version,
		       created_at, updated_at
		FROM   sessions
		WHERE  call_id = $1`

	var (
		sess        order.Session
		cartJSON    []byte
		state       string
		fulfillment string
		lifecycle   string
	)
	err := s.pool.QueryRow(ctx, q, callID).Scan(
		&sess.CallID,
		&sess.Restaurant,
		&state,
		&cartJSON,
		&fulfillment,
		&sess.CustomerName,
		&sess.CustomerPhone,
		&sess.Address,
		&sess.FailCount,
		&lifecycle,
		&sess.Version,
		&sess.CreatedAt,
		&sess.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return order.Session{}, store.ErrNotFound
	}
	if err != nil {
		return order.Session{}, fmt.Errorf("postgres store: load session: %w", err)
	}

	sess.State = order.DialogueState(state)
	sess.Fulfillment = order.Fulfillment(fulfillment)
	sess.Lifecycle = order.Lifecycle(lifecycle)

	if err := json.Unmarshal(cartJSON, &sess.Cart); err != nil {
		slog.Warn("session cart blob undecodable, starting with empty cart",
			"call_id", callID, "err", err)
		sess.Cart = cart.Cart{}
	}
	return sess, nil
}

// Save implements [store.Store.Save] using compare-and-swap on the version
// column. A concurrent save for the same call wins or loses cleanly; nothing
// is ever silently overwritten.
func (s *Store) Save(ctx context.Context, sess order.Session) (order.Session, error) {
	cartJSON, err := json.Marshal(sess.Cart)
	if err != nil {
		return order.Session{}, fmt.Errorf("postgres store: encode cart: %w", err)
	}

	const q = `
		UPDATE sessions
		SET    restaurant = $2, state = $3, cart = $4, fulfillment = $5,
		       customer_name = $6, customer_phone = $7, address = $8,
		       fail_count = $9, lifecycle = $10,
		       version = version + 1, updated_at = now()
		WHERE  call_id = $1 AND version = $11`

	tag, err := s.pool.Exec(ctx, q,
		sess.CallID,
		sess.Restaurant,
		string(sess.State),
		cartJSON,
		string(sess.Fulfillment),
		sess.CustomerName,
		sess.CustomerPhone,
		sess.Address,
		sess.FailCount,
		string(sess.Lifecycle),
		sess.Version,
	)
	if err != nil {
		return order.Session{}, fmt.Errorf("postgres store: save session: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// Distinguish a lost race from a session that never existed.
		if _, loadErr := s.Load(ctx, sess.CallID); errors.Is(loadErr, store.ErrNotFound) {
			return order.Session{}, store.ErrNotFound
		}
		return order.Session{}, store.ErrConflict
	}

	sess.Version++
	return sess, nil
}

// SaveOrder implements [store.Store.SaveOrder].
func (s *Store) SaveOrder(ctx context.Context, fo order.FinalOrder) error {
	itemsJSON, err := json.Marshal(fo.Items)
	if err != nil {
		return fmt.Errorf("postgres store: encode order items: %w", err)
	}

	const q = `
		INSERT INTO final_orders
		    (id, call_id, restaurant, fulfillment, customer_name,
		     customer_phone, address, items, total_cents, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = s.pool.Exec(ctx, q,
		fo.ID,
		fo.CallID,
		fo.Restaurant,
		string(fo.Fulfillment),
		fo.CustomerName,
		fo.CustomerPhone,
		fo.Address,
		itemsJSON,
		int64(fo.Total),
		fo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres store: save order: %w", err)
	}
	return nil
}

// Ping implements [store.Store.Ping].
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres store: ping: %w", err)
	}
	return nil
}
