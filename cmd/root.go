package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/bipkit/internal/assessment"
	"github.com/abhisek/bipkit/internal/llm"
	"github.com/abhisek/bipkit/internal/plan"
	"github.com/abhisek/bipkit/internal/rubric"
	"github.com/abhisek/bipkit/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "bipkit",
	Short: "Behavior intervention plan builder",
	Long:  "Bipkit — builds function-based behavior intervention plans from a structured functional assessment, with AI-drafted sections the educator reviews and revises.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides BIPKIT_DB env var)")

	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(assessCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(rebuildCmd)
	rootCmd.AddCommand(sectionCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveDBPath returns the database path using --db flag (highest
// priority), then BIPKIT_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the database for a command invocation.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// openService wires the full service: store-backed repos plus the
// configured model provider with call logging.
func openService(ctx context.Context, cmd *cobra.Command) (*plan.Service, *store.Store, error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	provider, err := llm.NewProviderFromEnv(ctx, s.CallRepo())
	if err != nil {
		s.Close()
		return nil, nil, err
	}

	svc := plan.NewService(s.PlanRepo(), s.RevisionRepo(), s.StudentRepo(), provider, rubric.Default(), assessment.DefaultConfig())
	return svc, s, nil
}

// openOfflineService wires the service without a model provider, for
// commands that never call the model.
func openOfflineService(cmd *cobra.Command) (*plan.Service, *store.Store, error) {
	s, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}
	svc := plan.NewService(s.PlanRepo(), s.RevisionRepo(), s.StudentRepo(), nil, rubric.Default(), assessment.DefaultConfig())
	return svc, s, nil
}
