package mcp

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/penney/internal/ratelimit"
	"github.com/nvandessel/penney/internal/store"
)

func setupTestServer(t *testing.T) (*Server, *store.MemoryStateStore, string) {
	t.Helper()
	tmpDir := t.TempDir()
	st := store.NewMemoryStateStore()

	server, err := NewServer(&Config{
		Name:      "test-server",
		Version:   "v1.0.0",
		Store:     st,
		BackupDir: filepath.Join(tmpDir, "backups"),
		AuditDir:  tmpDir,
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	t.Cleanup(func() { server.Close() })

	return server, st, tmpDir
}

func TestNewServer_RequiresStore(t *testing.T) {
	if _, err := NewServer(&Config{Name: "x", BackupDir: t.TempDir()}); err == nil {
		t.Error("expected error without a store")
	}
}

func TestHandlePenneySimulate(t *testing.T) {
	server, st, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 20, Seed: 7})
	if err != nil {
		t.Fatalf("handlePenneySimulate failed: %v", err)
	}

	if out.RoundsPlayed != 20 || out.TotalRounds != 20 {
		t.Errorf("rounds = %d/%d, want 20/20", out.RoundsPlayed, out.TotalRounds)
	}
	if out.Seed != 7 || out.Mode != "points" {
		t.Errorf("seed/mode = %d/%s, want 7/points", out.Seed, out.Mode)
	}
	if out.Player1Wins+out.Player2Wins+out.Ties != 20*64 {
		t.Errorf("wins and ties sum to %d, want %d", out.Player1Wins+out.Player2Wins+out.Ties, 20*64)
	}
	if st.Saves() != 1 {
		t.Errorf("store saved %d times, want 1", st.Saves())
	}

	state, _ := st.Load(ctx)
	if len(state.DeckHistory) != 20 {
		t.Errorf("persisted %d decks, want 20", len(state.DeckHistory))
	}
}

func TestHandlePenneySimulate_Accumulates(t *testing.T) {
	server, _, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 5, Seed: 1}); err != nil {
		t.Fatal(err)
	}
	_, out, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 3, Seed: 2, TotalCards: true})
	if err != nil {
		t.Fatal(err)
	}
	if out.TotalRounds != 8 {
		t.Errorf("TotalRounds = %d, want 8", out.TotalRounds)
	}
	if out.Mode != "cards" {
		t.Errorf("Mode = %s, want cards", out.Mode)
	}
}

func TestHandlePenneySimulate_RejectsRounds(t *testing.T) {
	server, st, _ := setupTestServer(t)
	server.maxRounds = 50

	for _, rounds := range []int{-1, 51} {
		if _, _, err := server.handlePenneySimulate(context.Background(), &sdk.CallToolRequest{}, SimulateInput{Rounds: rounds}); err == nil {
			t.Errorf("rounds=%d should be rejected", rounds)
		}
	}
	if st.Saves() != 0 {
		t.Error("rejected calls must not touch the store")
	}
}

func TestHandlePenneySimulate_RateLimited(t *testing.T) {
	server, _, _ := setupTestServer(t)
	ctx := context.Background()

	var limited bool
	for i := 0; i < 5; i++ {
		_, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 1, Seed: uint64(i + 1)})
		if err != nil && strings.Contains(err.Error(), "rate limit") {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected the simulate burst to be exhausted")
	}
}

func TestHandlePenneyProbabilities(t *testing.T) {
	server, _, _ := setupTestServer(t)
	ctx := context.Background()

	// Empty state still lists every pairing at zero
	_, out, err := server.handlePenneyProbabilities(ctx, &sdk.CallToolRequest{}, ProbabilitiesInput{})
	if err != nil {
		t.Fatalf("handlePenneyProbabilities failed: %v", err)
	}
	if out.Count != 64 || out.TotalRounds != 0 {
		t.Errorf("count/rounds = %d/%d, want 64/0", out.Count, out.TotalRounds)
	}

	if _, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 10, Seed: 3}); err != nil {
		t.Fatal(err)
	}

	_, out, err = server.handlePenneyProbabilities(ctx, &sdk.CallToolRequest{}, ProbabilitiesInput{Player1: "rbb"})
	if err != nil {
		t.Fatalf("handlePenneyProbabilities failed: %v", err)
	}
	if out.Count != 8 {
		t.Errorf("filtered count = %d, want 8", out.Count)
	}
	for _, p := range out.Pairings {
		if p.Player1 != "RBB" {
			t.Errorf("unexpected Player 1 sequence %s", p.Player1)
		}
		if p.Probability < 0 || p.Probability > 1 {
			t.Errorf("%s vs %s probability %f out of range", p.Player1, p.Player2, p.Probability)
		}
	}

	_, out, err = server.handlePenneyProbabilities(ctx, &sdk.CallToolRequest{}, ProbabilitiesInput{Player1: "RBB", Player2: "BRB"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Count != 1 {
		t.Errorf("single pairing count = %d, want 1", out.Count)
	}
}

func TestHandlePenneyProbabilities_InvalidSequence(t *testing.T) {
	server, _, _ := setupTestServer(t)
	_, _, err := server.handlePenneyProbabilities(context.Background(), &sdk.CallToolRequest{}, ProbabilitiesInput{Player2: "RXB"})
	if err == nil {
		t.Error("expected error for invalid sequence label")
	}
}

func TestHandlePenneyHistory(t *testing.T) {
	server, _, _ := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handlePenneyHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{})
	if err != nil {
		t.Fatalf("handlePenneyHistory failed: %v", err)
	}
	if len(out.Decks) != 0 {
		t.Errorf("expected no decks, got %d", len(out.Decks))
	}

	if _, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 12, Seed: 9}); err != nil {
		t.Fatal(err)
	}

	_, out, err = server.handlePenneyHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{Count: 4})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Decks) != 4 || out.FirstRound != 9 || out.TotalRounds != 12 {
		t.Errorf("history = %d decks from round %d of %d, want 4 from 9 of 12", len(out.Decks), out.FirstRound, out.TotalRounds)
	}
	for _, d := range out.Decks {
		if len(d) != 52 {
			t.Errorf("deck %q has %d cards", d, len(d))
		}
	}

	// Default count is capped by what exists
	_, out, _ = server.handlePenneyHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{})
	if len(out.Decks) != 10 || out.FirstRound != 3 {
		t.Errorf("default history = %d decks from %d, want 10 from 3", len(out.Decks), out.FirstRound)
	}
}

func TestHandlePenneyBackupRestore(t *testing.T) {
	server, st, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 6, Seed: 11}); err != nil {
		t.Fatal(err)
	}

	_, bout, err := server.handlePenneyBackup(ctx, &sdk.CallToolRequest{}, BackupInput{OutputPath: "snap.json.gz"})
	if err != nil {
		t.Fatalf("handlePenneyBackup failed: %v", err)
	}
	if bout.TotalRounds != 6 || bout.DeckCount != 6 || bout.SizeBytes == 0 {
		t.Errorf("backup output = %+v", bout)
	}
	if filepath.Dir(bout.Path) != server.backupDir {
		t.Errorf("backup written to %s, want inside %s", bout.Path, server.backupDir)
	}

	_, rout, err := server.handlePenneyRestore(ctx, &sdk.CallToolRequest{}, RestoreInput{InputPath: "snap.json.gz"})
	if err != nil {
		t.Fatalf("handlePenneyRestore failed: %v", err)
	}
	if rout.Mode != "merge" || rout.RoundsRestored != 6 || rout.TotalRounds != 12 {
		t.Errorf("restore output = %+v", rout)
	}

	state, _ := st.Load(ctx)
	if state.TotalRounds != 12 || len(state.DeckHistory) != 12 {
		t.Errorf("merged state has %d rounds and %d decks, want 12/12", state.TotalRounds, len(state.DeckHistory))
	}
}

func TestHandlePenneyBackup_DefaultPath(t *testing.T) {
	server, _, _ := setupTestServer(t)

	_, out, err := server.handlePenneyBackup(context.Background(), &sdk.CallToolRequest{}, BackupInput{})
	if err != nil {
		t.Fatalf("handlePenneyBackup failed: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(out.Path), "penney-backup-") {
		t.Errorf("default backup name = %s", filepath.Base(out.Path))
	}
	if _, err := os.Stat(out.Path); err != nil {
		t.Errorf("backup file missing: %v", err)
	}
}

func TestBackupPathConfinement(t *testing.T) {
	server, _, tmpDir := setupTestServer(t)
	server.limiters = ratelimit.NewToolLimiters(nil)
	ctx := context.Background()

	for _, p := range []string{"../escape.json.gz", filepath.Join(tmpDir, "outside.json.gz"), "/etc/passwd", "."} {
		_, _, err := server.handlePenneyBackup(ctx, &sdk.CallToolRequest{}, BackupInput{OutputPath: p})
		if err == nil || !strings.Contains(err.Error(), "rejected") {
			t.Errorf("backup to %q should be rejected, got %v", p, err)
		}
	}

	if _, _, err := server.handlePenneyRestore(ctx, &sdk.CallToolRequest{}, RestoreInput{InputPath: "../../x.json"}); err == nil {
		t.Error("restore from outside the backup directory should be rejected")
	}
	if _, _, err := server.handlePenneyRestore(ctx, &sdk.CallToolRequest{}, RestoreInput{}); err == nil {
		t.Error("restore without input_path should be rejected")
	}
}

func TestHandleProbabilitiesResource(t *testing.T) {
	server, _, _ := setupTestServer(t)
	ctx := context.Background()

	if _, _, err := server.handlePenneySimulate(ctx, &sdk.CallToolRequest{}, SimulateInput{Rounds: 2, Seed: 5}); err != nil {
		t.Fatal(err)
	}

	res, err := server.handleProbabilitiesResource(ctx, &sdk.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("handleProbabilitiesResource failed: %v", err)
	}
	if len(res.Contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(res.Contents))
	}
	text := res.Contents[0].Text
	if strings.Count(text, "--> Probability that Player 1 wins:") != 64 {
		t.Error("resource should list all 64 pairings")
	}
	if !strings.Contains(text, "Total Wins: Player 1:") {
		t.Error("resource should include total wins")
	}
}

func TestAuditLogWrittenForTools(t *testing.T) {
	server, _, tmpDir := setupTestServer(t)
	ctx := context.Background()

	server.handlePenneyHistory(ctx, &sdk.CallToolRequest{}, HistoryInput{Count: -1})
	server.handlePenneyBackup(ctx, &sdk.CallToolRequest{}, BackupInput{OutputPath: "secret-name.json.gz"})

	data, err := os.ReadFile(filepath.Join(tmpDir, AuditFile))
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}
	log := string(data)
	if strings.Count(log, "\n") != 2 {
		t.Errorf("expected 2 audit lines, got:\n%s", log)
	}
	if !strings.Contains(log, `"status":"error"`) {
		t.Error("failed history call should be audited as an error")
	}
	if strings.Contains(log, "secret-name") {
		t.Error("audit log must not contain path values")
	}
}
