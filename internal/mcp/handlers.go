package mcp

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/backup"
	"github.com/nvandessel/penney/internal/constants"
	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/pathutil"
	"github.com/nvandessel/penney/internal/report"
	"github.com/nvandessel/penney/internal/sequence"
	"github.com/nvandessel/penney/internal/simulation"
)

// defaultHistoryCount is the number of decks penney_history returns by default.
const defaultHistoryCount = 10

// probabilitiesURI is the resource holding the current probability table.
const probabilitiesURI = "penney://probabilities"

// registerTools registers all penney MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "penney_simulate",
		Description: "Shuffle decks, adjudicate all 64 sequence pairings per deck and add the results to the cumulative state",
	}, s.handlePenneySimulate)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "penney_probabilities",
		Description: "Estimated probability that Player 1 wins for each ordered sequence pairing",
	}, s.handlePenneyProbabilities)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "penney_history",
		Description: "Most recent decks in simulation order",
	}, s.handlePenneyHistory)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "penney_backup",
		Description: "Write a compressed snapshot of the cumulative state to the backup directory",
	}, s.handlePenneyBackup)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "penney_restore",
		Description: "Merge or replace the cumulative state from a backup file",
	}, s.handlePenneyRestore)
}

// registerResources registers MCP resources.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         probabilitiesURI,
		Name:        "penney-probabilities",
		Description: "Probability table for every ordered sequence pairing, with aggregate win totals.",
		MIMEType:    "text/plain",
	}, s.handleProbabilitiesResource)
}

// handleProbabilitiesResource renders the same table the CLI prints.
func (s *Server) handleProbabilitiesResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}

	var buf bytes.Buffer
	if err := report.WriteText(&buf, state, 0); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      probabilitiesURI,
				MIMEType: "text/plain",
				Text:     buf.String(),
			},
		},
	}, nil
}

// handlePenneySimulate implements the penney_simulate tool.
func (s *Server) handlePenneySimulate(ctx context.Context, req *sdk.CallToolRequest, args SimulateInput) (_ *sdk.CallToolResult, _ SimulateOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("penney_simulate", start, retErr, map[string]any{
			"rounds": args.Rounds, "total_cards": args.TotalCards, "seed": args.Seed,
		})
	}()

	if err := s.limiters.Check("penney_simulate"); err != nil {
		return nil, SimulateOutput{}, err
	}

	rounds := args.Rounds
	if rounds == 0 {
		rounds = constants.DefaultRounds
	}
	if rounds < 0 || rounds > s.maxRounds {
		return nil, SimulateOutput{}, fmt.Errorf("rounds must be between 1 and %d, got %d", s.maxRounds, rounds)
	}

	mode := s.mode
	if args.TotalCards {
		mode = adjudicate.ModeCards
	}
	scorer, err := adjudicate.ScorerFor(mode)
	if err != nil {
		return nil, SimulateOutput{}, err
	}
	shuffler := deck.NewShuffler(args.Seed)
	runner := simulation.NewRunner(shuffler, scorer, s.logger, nil)

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("failed to load state: %w", err)
	}

	next, err := runner.Run(ctx, state, rounds)
	if err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("simulation failed: %w", err)
	}

	if err := s.store.Save(ctx, next); err != nil {
		return nil, SimulateOutput{}, fmt.Errorf("failed to save state: %w", err)
	}

	return nil, SimulateOutput{
		RoundsPlayed: rounds,
		TotalRounds:  next.TotalRounds,
		Player1Wins:  next.Player1Wins,
		Player2Wins:  next.Player2Wins,
		Ties:         next.Ties(),
		Mode:         string(mode),
		Seed:         shuffler.Seed(),
		Message: fmt.Sprintf("Simulated %d rounds in %s mode (seed %d); %d rounds recorded in total",
			rounds, mode, shuffler.Seed(), next.TotalRounds),
	}, nil
}

// handlePenneyProbabilities implements the penney_probabilities tool.
func (s *Server) handlePenneyProbabilities(ctx context.Context, req *sdk.CallToolRequest, args ProbabilitiesInput) (_ *sdk.CallToolResult, _ ProbabilitiesOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("penney_probabilities", start, retErr, map[string]any{
			"player1": args.Player1, "player2": args.Player2,
		})
	}()

	if err := s.limiters.Check("penney_probabilities"); err != nil {
		return nil, ProbabilitiesOutput{}, err
	}

	p1, err := parseOptionalSequence(args.Player1)
	if err != nil {
		return nil, ProbabilitiesOutput{}, fmt.Errorf("invalid player1: %w", err)
	}
	p2, err := parseOptionalSequence(args.Player2)
	if err != nil {
		return nil, ProbabilitiesOutput{}, fmt.Errorf("invalid player2: %w", err)
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, ProbabilitiesOutput{}, fmt.Errorf("failed to load state: %w", err)
	}

	all := report.Build(state, 0).Pairings
	pairings := make([]report.Pairing, 0, len(all))
	for _, p := range all {
		if (p1 == "" || p.Player1 == p1) && (p2 == "" || p.Player2 == p2) {
			pairings = append(pairings, p)
		}
	}

	return nil, ProbabilitiesOutput{
		TotalRounds: state.TotalRounds,
		Pairings:    pairings,
		Count:       len(pairings),
	}, nil
}

// handlePenneyHistory implements the penney_history tool.
func (s *Server) handlePenneyHistory(ctx context.Context, req *sdk.CallToolRequest, args HistoryInput) (_ *sdk.CallToolResult, _ HistoryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("penney_history", start, retErr, map[string]any{"count": args.Count})
	}()

	if err := s.limiters.Check("penney_history"); err != nil {
		return nil, HistoryOutput{}, err
	}

	count := args.Count
	if count == 0 {
		count = defaultHistoryCount
	}
	if count < 0 {
		return nil, HistoryOutput{}, fmt.Errorf("count must be positive, got %d", count)
	}

	state, err := s.store.Load(ctx)
	if err != nil {
		return nil, HistoryOutput{}, fmt.Errorf("failed to load state: %w", err)
	}

	decks := state.RecentDecks(count)
	if decks == nil {
		decks = []string{}
	}
	return nil, HistoryOutput{
		Decks:       decks,
		FirstRound:  len(state.DeckHistory) - len(decks) + 1,
		TotalRounds: state.TotalRounds,
	}, nil
}

// handlePenneyBackup implements the penney_backup tool.
func (s *Server) handlePenneyBackup(ctx context.Context, req *sdk.CallToolRequest, args BackupInput) (_ *sdk.CallToolResult, _ BackupOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("penney_backup", start, retErr, map[string]any{"output_path": args.OutputPath})
	}()

	if err := s.limiters.Check("penney_backup"); err != nil {
		return nil, BackupOutput{}, err
	}

	outputPath := backup.GenerateBackupPath(s.backupDir)
	if args.OutputPath != "" {
		p, err := s.resolveBackupPath(args.OutputPath)
		if err != nil {
			return nil, BackupOutput{}, fmt.Errorf("backup path rejected: %w", err)
		}
		outputPath = p
	}

	s.mu.Lock()
	snap, err := backup.Backup(ctx, s.store, outputPath)
	s.mu.Unlock()
	if err != nil {
		return nil, BackupOutput{}, fmt.Errorf("backup failed: %w", err)
	}

	var sizeBytes int64
	if info, err := os.Stat(outputPath); err == nil {
		sizeBytes = info.Size()
	}

	return nil, BackupOutput{
		Path:        outputPath,
		TotalRounds: snap.TotalRounds,
		DeckCount:   len(snap.DeckHistory),
		SizeBytes:   sizeBytes,
		Message:     fmt.Sprintf("Backup created: %d rounds, %d decks → %s", snap.TotalRounds, len(snap.DeckHistory), outputPath),
	}, nil
}

// handlePenneyRestore implements the penney_restore tool.
func (s *Server) handlePenneyRestore(ctx context.Context, req *sdk.CallToolRequest, args RestoreInput) (_ *sdk.CallToolResult, _ RestoreOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("penney_restore", start, retErr, map[string]any{
			"input_path": args.InputPath, "mode": args.Mode,
		})
	}()

	if err := s.limiters.Check("penney_restore"); err != nil {
		return nil, RestoreOutput{}, err
	}

	if args.InputPath == "" {
		return nil, RestoreOutput{}, fmt.Errorf("'input_path' parameter is required")
	}
	inputPath, err := s.resolveBackupPath(args.InputPath)
	if err != nil {
		return nil, RestoreOutput{}, fmt.Errorf("restore path rejected: %w", err)
	}

	mode, err := backup.ParseRestoreMode(args.Mode)
	if err != nil {
		return nil, RestoreOutput{}, err
	}

	s.mu.Lock()
	result, err := backup.Restore(ctx, s.store, inputPath, mode)
	s.mu.Unlock()
	if err != nil {
		return nil, RestoreOutput{}, fmt.Errorf("restore failed: %w", err)
	}

	return nil, RestoreOutput{
		Mode:           string(result.Mode),
		RoundsRestored: result.RoundsRestored,
		DecksRestored:  result.DecksRestored,
		TotalRounds:    result.TotalRounds,
		Message: fmt.Sprintf("Restore complete (%s): %d rounds restored, %d rounds recorded in total",
			result.Mode, result.RoundsRestored, result.TotalRounds),
	}, nil
}

// resolveBackupPath confines name to the backup directory. Relative names
// are taken relative to it.
func (s *Server) resolveBackupPath(name string) (string, error) {
	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.backupDir, path)
	}
	path = filepath.Clean(path)

	rel, err := filepath.Rel(s.backupDir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%s is outside the backup directory", pathutil.RedactPath(name))
	}
	return path, nil
}

// parseOptionalSequence normalises a sequence label; empty stays empty.
func parseOptionalSequence(label string) (string, error) {
	if label == "" {
		return "", nil
	}
	seq, err := sequence.Parse(label)
	if err != nil {
		return "", err
	}
	return seq.Label(), nil
}
