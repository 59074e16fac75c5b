// Package main provides the entry point for the chat-platform server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/txn2/chat-platform/internal/server"
	"github.com/txn2/chat-platform/pkg/database/migrate"
	"github.com/txn2/chat-platform/pkg/platform"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	envFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "chat-platform",
		Short:         "Conversational sessions with streamed answers",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return platform.LoadEnvFile(opts.envFile)
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Path to a .env file loaded before the config")

	root.AddCommand(newServeCmd(opts), newMigrateCmd(opts), newVersionCmd())
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := server.NewWithConfig(cmd.Context(), opts.configPath)
			if err != nil {
				return err
			}
			defer func() { _ = p.Close() }()
			return server.Run(cmd.Context(), p)
		},
	}
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	var steps int
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(db *sql.DB) error {
				if steps > 0 {
					return migrate.Steps(db, steps)
				}
				return migrate.Run(db)
			})
		},
	}
	up.Flags().IntVar(&steps, "steps", 0, "Apply at most n migrations (0 applies all)")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(db *sql.DB) error {
				if steps > 0 {
					return migrate.Steps(db, -steps)
				}
				return migrate.Down(db)
			})
		},
	}
	down.Flags().IntVar(&steps, "steps", 0, "Roll back n migrations (0 rolls back all)")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), opts, func(db *sql.DB) error {
				v, dirty, err := migrate.Version(db)
				if err != nil {
					return err
				}
				cmd.Printf("schema version %d (dirty: %t)\n", v, dirty)
				return nil
			})
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("chat-platform version %s\n", server.Version)
		},
	}
}

// withDB loads the config, opens the configured database and runs fn.
func withDB(ctx context.Context, opts *rootOptions, fn func(*sql.DB) error) error {
	cfg := platform.DefaultConfig()
	if opts.configPath != "" {
		loaded, err := platform.LoadConfig(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	db, err := platform.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return fn(db)
}
