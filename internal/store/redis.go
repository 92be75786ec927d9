package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/simulation"
)

// deckPushBatch bounds the number of decks sent in one RPUSH.
const deckPushBatch = 1000

// RedisOptions configures a RedisStateStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// RedisStateStore implements StateStore with three Redis keys:
//   - <prefix>:win_data      hash of "P1 vs P2" -> wins
//   - <prefix>:counters      hash of total_rounds_played, player1_wins, player2_wins
//   - <prefix>:deck_history  list of decks in simulation order
type RedisStateStore struct {
	client *redis.Client
	prefix string
	addr   string
}

// NewRedisStateStore connects to Redis and verifies the connection.
func NewRedisStateStore(ctx context.Context, opts RedisOptions) (*RedisStateStore, error) {
	if opts.Addr == "" {
		opts.Addr = "localhost:6379"
	}
	if opts.Prefix == "" {
		opts.Prefix = constants.DefaultRedisPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisStateStore{client: client, prefix: opts.Prefix, addr: opts.Addr}, nil
}

func (s *RedisStateStore) winDataKey() string  { return s.prefix + ":win_data" }
func (s *RedisStateStore) countersKey() string { return s.prefix + ":counters" }
func (s *RedisStateStore) historyKey() string  { return s.prefix + ":deck_history" }

// Location implements StateStore.
func (s *RedisStateStore) Location() string {
	return fmt.Sprintf("redis:%s/%s", s.addr, s.prefix)
}

// Load implements StateStore.
func (s *RedisStateStore) Load(ctx context.Context) (simulation.State, error) {
	var state simulation.State

	raw, err := s.client.HGetAll(ctx, s.winDataKey()).Result()
	if err != nil {
		return state, fmt.Errorf("failed to read win data: %w", err)
	}
	winData := make(map[string]int, len(raw))
	for key, value := range raw {
		n, err := strconv.Atoi(value)
		if err != nil {
			return state, fmt.Errorf("%w: %s field %q: %v", ErrMalformed, s.winDataKey(), key, err)
		}
		winData[key] = n
	}
	state.Wins = DecodeWinData(winData)

	counters, err := s.client.HGetAll(ctx, s.countersKey()).Result()
	if err != nil {
		return state, fmt.Errorf("failed to read counters: %w", err)
	}
	for name, dst := range map[string]*int{
		counterTotalRounds: &state.TotalRounds,
		counterPlayer1Wins: &state.Player1Wins,
		counterPlayer2Wins: &state.Player2Wins,
	} {
		value, ok := counters[name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return state, fmt.Errorf("%w: %s field %q: %v", ErrMalformed, s.countersKey(), name, err)
		}
		*dst = n
	}

	history, err := s.client.LRange(ctx, s.historyKey(), 0, -1).Result()
	if err != nil {
		return state, fmt.Errorf("failed to read deck history: %w", err)
	}
	if len(history) > 0 {
		state.DeckHistory = history
	}

	return state, nil
}

// Save implements StateStore. All keys are replaced inside one MULTI/EXEC.
func (s *RedisStateStore) Save(ctx context.Context, state simulation.State) error {
	winData := make(map[string]any, constants.PairingsPerRound)
	for key, n := range EncodeWinData(state.Wins) {
		winData[key] = n
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.winDataKey(), s.countersKey(), s.historyKey())
		pipe.HSet(ctx, s.winDataKey(), winData)
		pipe.HSet(ctx, s.countersKey(), map[string]any{
			counterTotalRounds: state.TotalRounds,
			counterPlayer1Wins: state.Player1Wins,
			counterPlayer2Wins: state.Player2Wins,
		})
		for start := 0; start < len(state.DeckHistory); start += deckPushBatch {
			end := min(start+deckPushBatch, len(state.DeckHistory))
			batch := make([]any, 0, end-start)
			for _, d := range state.DeckHistory[start:end] {
				batch = append(batch, d)
			}
			pipe.RPush(ctx, s.historyKey(), batch...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save state to redis: %w", err)
	}
	return nil
}

// Close implements StateStore.
func (s *RedisStateStore) Close() error {
	return s.client.Close()
}
