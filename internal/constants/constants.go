// Package constants provides named constants used throughout the penney codebase.
// This centralizes magic numbers for better maintainability and documentation.
package constants

// Deck composition constants
const (
	// DeckSize is the number of cards in a shuffled deck.
	DeckSize = 52

	// CardsPerColor is the number of red (and of black) cards in a deck.
	CardsPerColor = DeckSize / 2
)

// Sequence constants
const (
	// SequenceLength is the number of cards in a player's pattern.
	SequenceLength = 3

	// SequenceCount is the number of distinct patterns of SequenceLength binary cards.
	SequenceCount = 1 << SequenceLength

	// PairingsPerRound is the number of ordered pattern pairs adjudicated per deck.
	PairingsPerRound = SequenceCount * SequenceCount
)

// Simulation defaults
const (
	// DefaultRounds is the number of decks simulated when no count is given.
	DefaultRounds = 1000

	// DefaultMode is the scoring mode used when none is configured.
	DefaultMode = "points"
)

// Default persistence targets, relative to the working directory.
const (
	// DefaultDataFile holds the cumulative win matrix and round counter.
	DefaultDataFile = "game_data.json"

	// DefaultDeckFile holds the append-only deck history.
	DefaultDeckFile = "deck_history.json"

	// DefaultWinCountsFile holds the aggregate Player 1 / Player 2 win totals.
	DefaultWinCountsFile = "win_counts.json"

	// DefaultSQLiteFile is the database path used by the sqlite backend.
	DefaultSQLiteFile = "penney.db"

	// DefaultRedisPrefix namespaces every key written by the redis backend.
	DefaultRedisPrefix = "penney"
)

// WinDataSeparator joins the two sequence labels in a persisted win-data key,
// e.g. "RBB vs BRB".
const WinDataSeparator = " vs "
