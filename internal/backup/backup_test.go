package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/penney/internal/deck"
	"github.com/nvandessel/penney/internal/simulation"
	"github.com/nvandessel/penney/internal/store"
)

// testDecks returns n reproducible shuffled decks in their stored form.
func testDecks(n int) []string {
	shuffler := deck.NewShuffler(42)
	decks := make([]string, n)
	for i := range decks {
		decks[i] = shuffler.Shuffle().String()
	}
	return decks
}

func testState() simulation.State {
	s := simulation.State{
		TotalRounds: 3,
		Player1Wins: 90,
		Player2Wins: 80,
		DeckHistory: testDecks(3),
	}
	s.Wins[4][2] = 2 // RBB vs BRB
	s.Wins[0][7] = 3 // BBB vs RRR
	return s
}

func seededStore(t *testing.T, state simulation.State) *store.MemoryStateStore {
	t.Helper()
	st := store.NewMemoryStateStore()
	if err := st.Save(context.Background(), state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	return st
}

func TestBackupRestore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := seededStore(t, testState())
	backupPath := filepath.Join(t.TempDir(), "nested", "test-backup.json.gz")

	snap, err := Backup(ctx, src, backupPath)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if snap.TotalRounds != 3 || len(snap.DeckHistory) != 3 {
		t.Errorf("snapshot = %+v, want 3 rounds and 3 decks", snap)
	}
	if snap.WinData["RBB vs BRB"] != 2 {
		t.Errorf("snapshot win data RBB vs BRB = %d, want 2", snap.WinData["RBB vs BRB"])
	}
	if len(snap.WinData) != 64 {
		t.Errorf("snapshot has %d win data keys, want 64", len(snap.WinData))
	}

	dst := store.NewMemoryStateStore()
	result, err := Restore(ctx, dst, backupPath, RestoreReplace)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.RoundsRestored != 3 || result.DecksRestored != 3 || result.TotalRounds != 3 {
		t.Errorf("Restore() result = %+v", result)
	}

	got, _ := dst.Load(ctx)
	want := testState()
	if got.Wins != want.Wins || got.TotalRounds != want.TotalRounds ||
		got.Player1Wins != want.Player1Wins || got.Player2Wins != want.Player2Wins {
		t.Errorf("restored state = %+v, want %+v", got, want)
	}
	if strings.Join(got.DeckHistory, ",") != strings.Join(testDecks(3), ",") {
		t.Errorf("restored history = %v", got.DeckHistory)
	}
}

func TestRestore_Merge(t *testing.T) {
	ctx := context.Background()
	backupPath := filepath.Join(t.TempDir(), "b.json.gz")
	if _, err := Backup(ctx, seededStore(t, testState()), backupPath); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}

	dst := seededStore(t, testState())
	result, err := Restore(ctx, dst, backupPath, RestoreMerge)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if result.Mode != RestoreMerge || result.TotalRounds != 6 {
		t.Errorf("Restore() result = %+v, want merge with 6 total rounds", result)
	}

	got, _ := dst.Load(ctx)
	if got.TotalRounds != 6 || got.Player1Wins != 180 || got.Wins[4][2] != 4 {
		t.Errorf("merged state = %+v", got)
	}
	if len(got.DeckHistory) != 6 || got.DeckHistory[3] != testDecks(1)[0] {
		t.Errorf("merged history = %v, want restored decks appended", got.DeckHistory)
	}
}

func TestRestore_V1PlainJSON(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "plain.json")
	if err := WriteV1(path, NewSnapshot(testState(), "test")); err != nil {
		t.Fatalf("WriteV1() error = %v", err)
	}

	version, err := DetectFormat(path)
	if err != nil || version != FormatV1 {
		t.Fatalf("DetectFormat() = %d, %v; want V1", version, err)
	}

	dst := store.NewMemoryStateStore()
	if _, err := Restore(ctx, dst, path, RestoreReplace); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	got, _ := dst.Load(ctx)
	if got.TotalRounds != 3 {
		t.Errorf("TotalRounds = %d, want 3", got.TotalRounds)
	}
}

func TestRestore_RejectsInconsistentSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *simulation.State)
	}{
		{"more wins than rounds", func(s *simulation.State) { s.Wins[1][1] = 10 }},
		{"rounds without decks", func(s *simulation.State) {
			s.TotalRounds = 1000
			s.DeckHistory = []string{"not-a-deck"}
		}},
		{"history shorter than rounds", func(s *simulation.State) { s.DeckHistory = s.DeckHistory[:2] }},
		{"malformed deck", func(s *simulation.State) { s.DeckHistory[1] = strings.Repeat("R", 52) }},
	}

	for _, tt := range tests {
		for _, compress := range []bool{true, false} {
			t.Run(fmt.Sprintf("%s/compress=%v", tt.name, compress), func(t *testing.T) {
				ctx := context.Background()
				bad := testState()
				tt.mutate(&bad)

				path := filepath.Join(t.TempDir(), "bad.json")
				write := WriteV1
				if compress {
					write = WriteV2
				}
				if err := write(path, NewSnapshot(bad, "")); err != nil {
					t.Fatalf("writing snapshot: %v", err)
				}

				dst := seededStore(t, testState())
				if _, err := Restore(ctx, dst, path, RestoreReplace); err == nil {
					t.Fatal("Restore() should reject a snapshot that fails validation")
				}
				if dst.Saves() != 1 {
					t.Errorf("store was written %d times, want only the seed save", dst.Saves())
				}
				got, _ := dst.Load(ctx)
				if got.TotalRounds != 3 || len(got.DeckHistory) != 3 {
					t.Errorf("existing state changed: %d rounds, %d decks", got.TotalRounds, len(got.DeckHistory))
				}
			})
		}
	}
}

func TestRestore_MissingFile(t *testing.T) {
	_, err := Restore(context.Background(), store.NewMemoryStateStore(),
		filepath.Join(t.TempDir(), "absent.json.gz"), RestoreMerge)
	if err == nil {
		t.Fatal("Restore() should fail for a missing file")
	}
}

func TestBackup_FileStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	src := store.NewFileStateStore(
		filepath.Join(dir, "game_data.json"),
		filepath.Join(dir, "deck_history.json"),
		filepath.Join(dir, "win_counts.json"),
	)
	if err := src.Save(ctx, testState()); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	path := GenerateBackupPath(filepath.Join(dir, "backups"))
	snap, err := Backup(ctx, src, path)
	if err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	if snap.Source != src.Location() {
		t.Errorf("Source = %q, want %q", snap.Source, src.Location())
	}

	header, err := ReadV2Header(path)
	if err != nil {
		t.Fatalf("ReadV2Header() error = %v", err)
	}
	if header.TotalRounds != 3 || header.DeckCount != 3 || !header.Compressed {
		t.Errorf("header = %+v", header)
	}
	if header.Metadata["source"] != src.Location() {
		t.Errorf("header source = %q", header.Metadata["source"])
	}
}

func TestGenerateBackupPath(t *testing.T) {
	path := GenerateBackupPath("/tmp/backups")
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "penney-backup-") || !strings.HasSuffix(base, ".json.gz") {
		t.Errorf("GenerateBackupPath() = %s", path)
	}
	if !isBackupFile(base) {
		t.Errorf("generated name %s is not recognised as a backup", base)
	}
}

func TestParseRestoreMode(t *testing.T) {
	tests := []struct {
		input   string
		want    RestoreMode
		wantErr bool
	}{
		{"", RestoreMerge, false},
		{"merge", RestoreMerge, false},
		{"REPLACE", RestoreReplace, false},
		{"overwrite", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRestoreMode(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseRestoreMode(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseRestoreMode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestBackup_FilePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "perm.json.gz")
	if _, err := Backup(context.Background(), seededStore(t, testState()), path); err != nil {
		t.Fatalf("Backup() error = %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("backup mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestBackupWithOptions_Uncompressed(t *testing.T) {
	ctx := context.Background()
	path := GenerateBackupPathV1(t.TempDir())

	snap, err := BackupWithOptions(ctx, seededStore(t, testState()), path, false)
	if err != nil {
		t.Fatalf("BackupWithOptions() error = %v", err)
	}
	if snap.Version != FormatV1 {
		t.Errorf("Version = %d, want %d", snap.Version, FormatV1)
	}
	if version, err := DetectFormat(path); err != nil || version != FormatV1 {
		t.Errorf("DetectFormat() = %d, %v; want V1", version, err)
	}
	if !strings.HasSuffix(path, ".json") || !isBackupFile(filepath.Base(path)) {
		t.Errorf("unexpected V1 path %s", path)
	}
}
