package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/pathutil"
	"github.com/nvandessel/penney/internal/sequence"
	"github.com/nvandessel/penney/internal/simulation"

	_ "modernc.org/sqlite" // SQLite driver
)

// Counter names in the counters table.
const (
	counterTotalRounds = "total_rounds_played"
	counterPlayer1Wins = "player1_wins"
	counterPlayer2Wins = "player2_wins"
)

// SQLiteStateStore implements StateStore on a single SQLite database.
type SQLiteStateStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStateStore opens (creating if needed) the database at dbPath.
func NewSQLiteStateStore(ctx context.Context, dbPath string) (*SQLiteStateStore, error) {
	if dbPath == "" {
		dbPath = constants.DefaultSQLiteFile
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", pathutil.RedactPath(dbPath), err)
	}

	// SQLite works best with single writer
	db.SetMaxOpenConns(1)

	if err := InitSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStateStore{db: db, dbPath: dbPath}, nil
}

// Location implements StateStore.
func (s *SQLiteStateStore) Location() string {
	return "sqlite:" + s.dbPath
}

// Load implements StateStore.
func (s *SQLiteStateStore) Load(ctx context.Context) (simulation.State, error) {
	var state simulation.State

	winData := make(map[string]int, constants.PairingsPerRound)
	rows, err := s.db.QueryContext(ctx, `SELECT player1, player2, wins FROM win_matrix`)
	if err != nil {
		return state, fmt.Errorf("failed to query win matrix: %w", err)
	}
	for rows.Next() {
		var p1, p2 string
		var wins int
		if err := rows.Scan(&p1, &p2, &wins); err != nil {
			rows.Close()
			return state, fmt.Errorf("failed to scan win matrix row: %w", err)
		}
		winData[p1+constants.WinDataSeparator+p2] = wins
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return state, fmt.Errorf("failed to read win matrix: %w", err)
	}
	rows.Close()
	state.Wins = DecodeWinData(winData)

	counters := map[string]*int{
		counterTotalRounds: &state.TotalRounds,
		counterPlayer1Wins: &state.Player1Wins,
		counterPlayer2Wins: &state.Player2Wins,
	}
	rows, err = s.db.QueryContext(ctx, `SELECT name, value FROM counters`)
	if err != nil {
		return state, fmt.Errorf("failed to query counters: %w", err)
	}
	for rows.Next() {
		var name string
		var value int
		if err := rows.Scan(&name, &value); err != nil {
			rows.Close()
			return state, fmt.Errorf("failed to scan counter: %w", err)
		}
		if dst, ok := counters[name]; ok {
			*dst = value
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return state, fmt.Errorf("failed to read counters: %w", err)
	}
	rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT deck FROM deck_history ORDER BY seq`)
	if err != nil {
		return state, fmt.Errorf("failed to query deck history: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return state, fmt.Errorf("failed to scan deck: %w", err)
		}
		state.DeckHistory = append(state.DeckHistory, d)
	}
	if err := rows.Err(); err != nil {
		return state, fmt.Errorf("failed to read deck history: %w", err)
	}

	return state, nil
}

// Save implements StateStore. The whole state is replaced in one transaction.
func (s *SQLiteStateStore) Save(ctx context.Context, state simulation.State) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	winStmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO win_matrix (player1, player2, wins) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare win matrix insert: %w", err)
	}
	defer winStmt.Close()

	all := sequence.All()
	for i, p1 := range all {
		for j, p2 := range all {
			if _, err := winStmt.ExecContext(ctx, p1.Label(), p2.Label(), state.Wins[i][j]); err != nil {
				return fmt.Errorf("failed to save %s: %w", WinDataKey(p1, p2), err)
			}
		}
	}

	for name, value := range map[string]int{
		counterTotalRounds: state.TotalRounds,
		counterPlayer1Wins: state.Player1Wins,
		counterPlayer2Wins: state.Player2Wins,
	} {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO counters (name, value) VALUES (?, ?)`, name, value); err != nil {
			return fmt.Errorf("failed to save counter %s: %w", name, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM deck_history`); err != nil {
		return fmt.Errorf("failed to clear deck history: %w", err)
	}
	deckStmt, err := tx.PrepareContext(ctx, `INSERT INTO deck_history (seq, deck) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare deck insert: %w", err)
	}
	defer deckStmt.Close()
	for i, d := range state.DeckHistory {
		if _, err := deckStmt.ExecContext(ctx, i, d); err != nil {
			return fmt.Errorf("failed to save deck %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}

// Close implements StateStore.
func (s *SQLiteStateStore) Close() error {
	return s.db.Close()
}
