// Package simulation drives repeated Penney's-game rounds and folds their
// results into a cumulative State.
//
// A round is one shuffled deck adjudicated for all 64 ordered pairs of
// 3-card sequences, the diagonal included. The same deck is reused for every
// pair. State is a plain value: Runner.Run takes the state loaded from a
// store and returns the updated state, leaving persistence to the caller.
//
// Usage:
//
//	runner := simulation.NewRunner(deck.NewShuffler(seed), adjudicate.Points{}, logger, nil)
//	next, err := runner.Run(ctx, loaded, 1000)
//	if err != nil {
//	    return err
//	}
//	probs := next.Probabilities()
package simulation
