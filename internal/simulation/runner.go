package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/logging"
	"github.com/nvandessel/penney/internal/sequence"
)

// progressEvery controls how often Run reports progress at debug level.
const progressEvery = 1000

// RoundResult is the outcome of adjudicating every pairing on one deck.
type RoundResult struct {
	Wins        WinMatrix
	Player1Wins int
	Player2Wins int
	Ties        int
}

// PairVisitor observes each adjudication made by PlayDeck.
type PairVisitor func(p1, p2 sequence.Sequence, res adjudicate.Result)

// PlayDeck adjudicates all ordered sequence pairs, the diagonal included,
// against the same deck. visit may be nil.
func PlayDeck(d *deck.Deck, scorer adjudicate.Scorer, visit PairVisitor) RoundResult {
	var rr RoundResult
	all := sequence.All()
	for i, p1 := range all {
		for j, p2 := range all {
			res := adjudicate.Adjudicate(p1, p2, d, scorer)
			switch res.Outcome {
			case adjudicate.Player1:
				rr.Wins[i][j]++
				rr.Player1Wins++
			case adjudicate.Player2:
				rr.Player2Wins++
			default:
				rr.Ties++
			}
			if visit != nil {
				visit(p1, p2, res)
			}
		}
	}
	return rr
}

// Runner plays rounds with one shuffler and one scoring strategy.
// Runner is not safe for concurrent use.
type Runner struct {
	shuffler *deck.Shuffler
	scorer   adjudicate.Scorer
	logger   *slog.Logger
	trace    *logging.TraceLogger
}

// NewRunner creates a Runner. logger and trace may be nil.
func NewRunner(shuffler *deck.Shuffler, scorer adjudicate.Scorer, logger *slog.Logger, trace *logging.TraceLogger) *Runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Runner{
		shuffler: shuffler,
		scorer:   scorer,
		logger:   logger,
		trace:    trace,
	}
}

// Mode returns the scoring mode in use.
func (r *Runner) Mode() adjudicate.Mode {
	return r.scorer.Mode()
}

// Run plays rounds decks and returns state with their results folded in.
// The state passed in is left untouched. If ctx is cancelled between rounds
// the original state is returned with the context error.
func (r *Runner) Run(ctx context.Context, state State, rounds int) (State, error) {
	if rounds <= 0 {
		return state, fmt.Errorf("rounds must be positive, got %d", rounds)
	}

	start := time.Now()
	next := state.Clone()
	var played RoundResult

	for n := 0; n < rounds; n++ {
		if err := ctx.Err(); err != nil {
			return state, fmt.Errorf("simulation interrupted after %d of %d rounds: %w", n, rounds, err)
		}

		d := r.shuffler.Shuffle()
		encoded := d.String()
		roundNum := state.TotalRounds + n + 1

		var visit PairVisitor
		if r.trace.Verbose() {
			visit = func(p1, p2 sequence.Sequence, res adjudicate.Result) {
				r.trace.Log(map[string]any{
					"event":   "pairing",
					"round":   roundNum,
					"player1": p1.Label(),
					"player2": p2.Label(),
					"score1":  res.Player1,
					"score2":  res.Player2,
					"outcome": res.Outcome.String(),
				})
			}
		}

		rr := PlayDeck(&d, r.scorer, visit)
		next.Wins.Add(rr.Wins)
		next.Player1Wins += rr.Player1Wins
		next.Player2Wins += rr.Player2Wins
		next.DeckHistory = append(next.DeckHistory, encoded)

		played.Player1Wins += rr.Player1Wins
		played.Player2Wins += rr.Player2Wins
		played.Ties += rr.Ties

		r.trace.Log(map[string]any{
			"event":        "round",
			"round":        roundNum,
			"mode":         string(r.scorer.Mode()),
			"deck":         encoded,
			"player1_wins": rr.Player1Wins,
			"player2_wins": rr.Player2Wins,
			"ties":         rr.Ties,
		})

		if (n+1)%progressEvery == 0 {
			r.logger.Debug("simulation progress", "rounds", n+1, "of", rounds)
		}
	}

	next.TotalRounds += rounds

	r.logger.Info("simulation complete",
		"rounds", rounds,
		"mode", r.scorer.Mode(),
		"seed", r.shuffler.Seed(),
		"player1_wins", played.Player1Wins,
		"player2_wins", played.Player2Wins,
		"ties", played.Ties,
		"total_rounds", next.TotalRounds,
		"elapsed", time.Since(start).Round(time.Millisecond),
	)

	return next, nil
}
