// internal/history/history.go
//
// Wallet and game history.
// Responsibilities:
//   - Record wallet connections (first/last seen, connect count).
//   - Record each dealt game and how far it got (phase, turns, cards played).
//   - Serve a wallet's recent games and aggregate stats.
//
// Only summaries are stored. Hands, seeds' outputs and the battlefield stay in
// memory with the table.

package history

import (
	"context"
	"database/sql"
	"strconv"
	"time"
)

// GameRecord is one stored game summary.
type GameRecord struct {
	ID          string    `json:"id"`
	Wallet      string    `json:"wallet"`
	Phase       string    `json:"phase"`
	Turns       int       `json:"turns"`
	CardsPlayed int       `json:"cardsPlayed"`
	ManaSpent   int       `json:"manaSpent"`
	StartedAt   time.Time `json:"startedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// WalletStats aggregates a wallet's history.
type WalletStats struct {
	Address     string    `json:"address"`
	Connects    int       `json:"connects"`
	Games       int       `json:"games"`
	CardsPlayed int       `json:"cardsPlayed"`
	ManaSpent   int       `json:"manaSpent"`
	LongestGame int       `json:"longestGame"` // in turns
	FirstSeen   time.Time `json:"firstSeen"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Store reads and writes history rows.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New wraps an open, migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// TouchWallet upserts the wallet and counts one connection.
func (s *Store) TouchWallet(ctx context.Context, address string, chainID int64) error {
	now := s.now()
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO wallets (address, chain_id, first_seen, last_seen, connects)
        VALUES (?, ?, ?, ?, 1)
        ON CONFLICT(address) DO UPDATE SET
            chain_id = excluded.chain_id,
            last_seen = excluded.last_seen,
            connects = connects + 1`,
		address, chainID, now, now,
	)
	return err
}

// StartGame records a freshly dealt game. The wallet row is created if this
// is the first time the address is seen.
func (s *Store) StartGame(ctx context.Context, gameID, wallet string, seed uint64) error {
	now := s.now()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO wallets (address, chain_id, first_seen, last_seen, connects)
        VALUES (?, 0, ?, ?, 0)`, wallet, now, now); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT OR IGNORE INTO games (id, wallet, seed, started_at, updated_at)
        VALUES (?, ?, ?, ?, ?)`,
		gameID, wallet, strconv.FormatUint(seed, 10), now, now); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordPlay counts one card played at the given cost.
func (s *Store) RecordPlay(ctx context.Context, gameID string, cost int) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE games SET cards_played = cards_played + 1, mana_spent = mana_spent + ?, updated_at = ?
        WHERE id = ?`, cost, s.now(), gameID)
	return err
}

// RecordTurn stores the latest turn number. Turns only move forward.
func (s *Store) RecordTurn(ctx context.Context, gameID string, turn int) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE games SET turns = MAX(turns, ?), updated_at = ? WHERE id = ?`,
		turn, s.now(), gameID)
	return err
}

// SetPhase stores the game's current phase.
func (s *Store) SetPhase(ctx context.Context, gameID, phase string) error {
	_, err := s.db.ExecContext(ctx, `
        UPDATE games SET phase = ?, updated_at = ? WHERE id = ?`,
		phase, s.now(), gameID)
	return err
}

// ListGames returns a wallet's games, newest first. Default limit is 20.
func (s *Store) ListGames(ctx context.Context, wallet string, limit int) ([]GameRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, wallet, phase, turns, cards_played, mana_spent, started_at, updated_at
        FROM games
        WHERE wallet = ?
        ORDER BY started_at DESC, id DESC
        LIMIT ?`, wallet, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]GameRecord, 0, limit)
	for rows.Next() {
		var r GameRecord
		if err := rows.Scan(&r.ID, &r.Wallet, &r.Phase, &r.Turns, &r.CardsPlayed, &r.ManaSpent, &r.StartedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats aggregates a wallet's history. An unknown wallet yields zero stats
// with only Address set.
func (s *Store) Stats(ctx context.Context, wallet string) (WalletStats, error) {
	st := WalletStats{Address: wallet}
	err := s.db.QueryRowContext(ctx, `
        SELECT connects, first_seen, last_seen FROM wallets WHERE address = ?`, wallet,
	).Scan(&st.Connects, &st.FirstSeen, &st.LastSeen)
	if err == sql.ErrNoRows {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	err = s.db.QueryRowContext(ctx, `
        SELECT COUNT(1), COALESCE(SUM(cards_played), 0), COALESCE(SUM(mana_spent), 0), COALESCE(MAX(turns), 0)
        FROM games WHERE wallet = ?`, wallet,
	).Scan(&st.Games, &st.CardsPlayed, &st.ManaSpent, &st.LongestGame)
	return st, err
}
