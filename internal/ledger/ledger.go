// Package ledger records every chip movement of a round in PostgreSQL.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/lib/pq"

	"github.com/emanna1/blackjack-game/internal/round"
)

const (
	readyAttempts = 30
	readyInterval = 2 * time.Second
	writeTimeout  = 2 * time.Second

	// DefaultHistoryLimit caps History when the caller passes 0.
	DefaultHistoryLimit = 50
)

// Store wraps the PostgreSQL connection pool.
type Store struct {
	pool *sql.DB
}

// Open connects to PostgreSQL and waits for it to accept connections.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger open: %w", err)
	}
	pool.SetMaxOpenConns(10)
	pool.SetMaxIdleConns(5)
	pool.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{pool: pool}
	if err := s.waitReady(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) waitReady(ctx context.Context) error {
	for i := 0; i < readyAttempts; i++ {
		if err := s.pool.PingContext(ctx); err == nil {
			log.Printf("[ledger] connected")
			return nil
		}
		log.Printf("[ledger] not ready (%d/%d), retrying...", i+1, readyAttempts)
		select {
		case <-ctx.Done():
			return fmt.Errorf("ledger wait: %w", ctx.Err())
		case <-time.After(readyInterval):
		}
	}
	return fmt.Errorf("ledger unavailable after %s", readyAttempts*readyInterval)
}

// Close releases the pool.
func (s *Store) Close() error { return s.pool.Close() }

// Migrate creates the schema if it does not exist. Idempotent.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.pool.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS round_transactions (
			id             UUID         PRIMARY KEY DEFAULT gen_random_uuid(),
			table_id       VARCHAR(100) NOT NULL,
			round_id       VARCHAR(100) NOT NULL,
			type           VARCHAR(30)  NOT NULL,
			amount         BIGINT       NOT NULL,
			balance_before BIGINT       NOT NULL,
			balance_after  BIGINT       NOT NULL,
			player_score   INT          NOT NULL,
			dealer_score   INT          NOT NULL,
			created_at     TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate round_transactions: %w", err)
	}
	_, err = s.pool.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_round_transactions_table
			ON round_transactions(table_id, created_at DESC)
	`)
	if err != nil {
		return fmt.Errorf("migrate index: %w", err)
	}
	log.Printf("[ledger] schema ready")
	return nil
}

// Record implements round.Recorder. Failures are logged, never returned:
// the ledger must not stall a hand in play.
func (s *Store) Record(ev round.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.Insert(ctx, ev); err != nil {
		log.Printf("[ledger] record %s round=%s (non-fatal): %v", ev.Kind, ev.RoundID, err)
	}
}

// Insert writes one event as a transaction row.
func (s *Store) Insert(ctx context.Context, ev round.Event) error {
	_, err := s.pool.ExecContext(ctx,
		`INSERT INTO round_transactions
			(table_id, round_id, type, amount, balance_before, balance_after, player_score, dealer_score, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		ev.TableID, ev.RoundID, TxType(ev), ev.Amount, BalanceBefore(ev), ev.Balance,
		ev.PlayerScore, ev.DealerScore, ev.At,
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// Transaction is one ledger row.
type Transaction struct {
	ID            string `json:"id"`
	RoundID       string `json:"roundId"`
	Type          string `json:"type"`
	Amount        int64  `json:"amount"`
	BalanceBefore int64  `json:"balanceBefore"`
	BalanceAfter  int64  `json:"balanceAfter"`
	PlayerScore   int    `json:"playerScore"`
	DealerScore   int    `json:"dealerScore"`
	CreatedAt     string `json:"createdAt"`
}

// History returns a table's transactions, newest first.
func (s *Store) History(ctx context.Context, tableID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := s.pool.QueryContext(ctx,
		`SELECT id, round_id, type, amount, balance_before, balance_after,
		        player_score, dealer_score, created_at
		 FROM round_transactions
		 WHERE table_id=$1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		tableID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history query: %w", err)
	}
	defer rows.Close()

	txns := []Transaction{}
	for rows.Next() {
		var t Transaction
		var createdAt time.Time
		if err := rows.Scan(
			&t.ID, &t.RoundID, &t.Type, &t.Amount,
			&t.BalanceBefore, &t.BalanceAfter,
			&t.PlayerScore, &t.DealerScore, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		t.CreatedAt = createdAt.UTC().Format(time.RFC3339)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// TxType names the ledger row for an event.
func TxType(ev round.Event) string {
	switch ev.Kind {
	case round.BetPlaced:
		return "bet"
	case round.DoubledDown:
		return "double_down"
	case round.RoundAborted:
		return "refund"
	default:
		return "payout_" + ev.Outcome.Result()
	}
}

// BalanceBefore reconstructs the balance prior to the event.
func BalanceBefore(ev round.Event) int {
	switch ev.Kind {
	case round.BetPlaced, round.DoubledDown:
		return ev.Balance + ev.Amount
	default:
		return ev.Balance - ev.Amount
	}
}
