package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"

	"github.com/nvandessel/penney/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage penney configuration",
		Long: `View and modify penney configuration settings.

Configuration is stored in ~/.penney/config.yaml. Values from a .env file
and PENNEY_* environment variables override the file when commands run.

Examples:
  penney config list                          # Show all settings
  penney config get simulation.rounds         # Get a specific setting
  penney config set simulation.mode cards     # Set a setting
  penney config set store.backend sqlite`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path, _ := cmd.Flags().GetString("config")

			cfg, err := config.LoadWithPath(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				// Redact the password before JSON serialization
				redacted := *cfg
				redacted.Store.Redis.Password = cfg.Store.Redis.RedactedPassword()
				return json.NewEncoder(out).Encode(redacted)
			}

			fmt.Fprintln(out, "Configuration (~/.penney/config.yaml):")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Simulation Settings:")
			fmt.Fprintf(out, "  simulation.rounds:       %d\n", cfg.Simulation.Rounds)
			fmt.Fprintf(out, "  simulation.mode:         %s\n", cfg.Simulation.Mode)
			if cfg.Simulation.Seed != 0 {
				fmt.Fprintf(out, "  simulation.seed:         %d\n", cfg.Simulation.Seed)
			} else {
				fmt.Fprintf(out, "  simulation.seed:         (random)\n")
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Store Settings:")
			fmt.Fprintf(out, "  store.backend:           %s\n", valueOrDefault(cfg.Store.Backend, "file"))
			fmt.Fprintf(out, "  store.data_file:         %s\n", cfg.Store.DataFile)
			fmt.Fprintf(out, "  store.deck_file:         %s\n", cfg.Store.DeckFile)
			fmt.Fprintf(out, "  store.win_counts_file:   %s\n", cfg.Store.WinCountsFile)
			fmt.Fprintf(out, "  store.sqlite_path:       %s\n", cfg.Store.SQLitePath)
			fmt.Fprintf(out, "  store.redis.addr:        %s\n", cfg.Store.Redis.Addr)
			fmt.Fprintf(out, "  store.redis.password:    %s\n", valueOrDefault(cfg.Store.Redis.RedactedPassword(), "(not set)"))
			fmt.Fprintf(out, "  store.redis.db:          %d\n", cfg.Store.Redis.DB)
			fmt.Fprintf(out, "  store.redis.prefix:      %s\n", cfg.Store.Redis.Prefix)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:           %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			path, _ := cmd.Flags().GetString("config")
			key := args[0]

			cfg, err := config.LoadWithPath(path)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			value, found := getConfigValue(cfg, key)
			if !found {
				if jsonOut {
					json.NewEncoder(out).Encode(map[string]interface{}{
						"error": "key not found",
						"key":   key,
					})
				}
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(out, "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]
			value := args[1]

			path, err := configPath(cmd)
			if err != nil {
				return err
			}

			// Only the file is edited; env overrides must not leak into it.
			cfg, err := config.LoadFromFile(path)
			if errors.Is(err, fs.ErrNotExist) {
				cfg, err = config.Default(), nil
			}
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}

			if err := config.Save(cfg, path); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			out := cmd.OutOrStdout()
			shown, _ := getConfigValue(cfg, key)
			if jsonOut {
				return json.NewEncoder(out).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  shown,
				})
			}
			fmt.Fprintf(out, "Set %s = %v\n", key, shown)
			return nil
		},
	}
}

// configPath returns the file config set writes to: --config or the default.
func configPath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	path, err := config.DefaultPath()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path: %w", err)
	}
	return path, nil
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.PenneyConfig, key string) (interface{}, bool) {
	switch key {
	case "simulation.rounds":
		return cfg.Simulation.Rounds, true
	case "simulation.mode":
		return cfg.Simulation.Mode, true
	case "simulation.seed":
		return cfg.Simulation.Seed, true
	case "store.backend":
		return cfg.Store.Backend, true
	case "store.data_file":
		return cfg.Store.DataFile, true
	case "store.deck_file":
		return cfg.Store.DeckFile, true
	case "store.win_counts_file":
		return cfg.Store.WinCountsFile, true
	case "store.sqlite_path":
		return cfg.Store.SQLitePath, true
	case "store.redis.addr":
		return cfg.Store.Redis.Addr, true
	case "store.redis.password":
		return cfg.Store.Redis.RedactedPassword(), true
	case "store.redis.db":
		return cfg.Store.Redis.DB, true
	case "store.redis.prefix":
		return cfg.Store.Redis.Prefix, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.PenneyConfig, key, value string) error {
	switch key {
	case "simulation.rounds":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid number: %s", value)
		}
		cfg.Simulation.Rounds = n
	case "simulation.mode":
		cfg.Simulation.Mode = value
	case "simulation.seed":
		n, err := strconv.ParseUint(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid seed: %s", value)
		}
		cfg.Simulation.Seed = n
	case "store.backend":
		cfg.Store.Backend = value
	case "store.data_file":
		cfg.Store.DataFile = value
	case "store.deck_file":
		cfg.Store.DeckFile = value
	case "store.win_counts_file":
		cfg.Store.WinCountsFile = value
	case "store.sqlite_path":
		cfg.Store.SQLitePath = value
	case "store.redis.addr":
		cfg.Store.Redis.Addr = value
	case "store.redis.password":
		cfg.Store.Redis.Password = value
	case "store.redis.db":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid number: %s", value)
		}
		cfg.Store.Redis.DB = n
	case "store.redis.prefix":
		cfg.Store.Redis.Prefix = value
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}
