package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/nvandessel/penney/internal/adjudicate"
	"github.com/nvandessel/penney/internal/logging"
	"github.com/nvandessel/penney/internal/ratelimit"
	"github.com/nvandessel/penney/internal/store"
)

// DefaultMaxRounds caps the rounds a single penney_simulate call may request.
const DefaultMaxRounds = 100_000

// Server wraps the MCP SDK server and provides penney-specific functionality.
type Server struct {
	server    *sdk.Server
	store     store.StateStore
	mode      adjudicate.Mode
	logger    *slog.Logger
	backupDir string
	maxRounds int
	limiters  ratelimit.ToolLimiters
	audit     *AuditLogger

	// mu serializes load-modify-save sequences against the store.
	mu sync.Mutex
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "penney")
	Version string // Server version

	// Store holds the cumulative state. The server takes ownership and
	// closes it in Close.
	Store store.StateStore

	// Mode is the scoring mode used when a call does not ask for cards mode.
	Mode adjudicate.Mode

	Logger    *slog.Logger
	BackupDir string // backups are confined to this directory
	AuditDir  string // empty disables the audit log
	MaxRounds int    // 0 means DefaultMaxRounds
}

// toolLimits bounds how often each tool may be called.
var toolLimits = map[string]ratelimit.Limit{
	"penney_simulate":      {PerMinute: 10, Burst: 3},
	"penney_probabilities": {PerMinute: 60, Burst: 10},
	"penney_history":       {PerMinute: 60, Burst: 10},
	"penney_backup":        {PerMinute: 5, Burst: 2},
	"penney_restore":       {PerMinute: 5, Burst: 2},
}

// NewServer creates a new MCP server with penney tools.
func NewServer(cfg *Config) (*Server, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("a state store is required")
	}

	backupDir, err := filepath.Abs(cfg.BackupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve backup directory: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	maxRounds := cfg.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	mode := cfg.Mode
	if mode == "" {
		mode = adjudicate.ModePoints
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{})

	s := &Server{
		server:    mcpServer,
		store:     cfg.Store,
		mode:      mode,
		logger:    logger,
		backupDir: backupDir,
		maxRounds: maxRounds,
		limiters:  ratelimit.NewToolLimiters(toolLimits),
	}
	if cfg.AuditDir != "" {
		s.audit = NewAuditLogger(cfg.AuditDir)
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves MCP over stdio. It blocks until the client disconnects or
// ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting", "store", s.store.Location(), "mode", string(s.mode))
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the store and the audit log.
func (s *Server) Close() error {
	auditErr := s.audit.Close()
	if err := s.store.Close(); err != nil {
		return err
	}
	return auditErr
}
