package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/env0/claude-pr-reviewer/internal/config"
	"github.com/env0/claude-pr-reviewer/internal/dispatch"
	"github.com/env0/claude-pr-reviewer/internal/engine"
	"github.com/env0/claude-pr-reviewer/internal/githubapi"
	"github.com/env0/claude-pr-reviewer/internal/metrics"
	"github.com/env0/claude-pr-reviewer/internal/session"
	"github.com/env0/claude-pr-reviewer/internal/webhook"
)

var (
	version = "0.1.0"
	cfgFile string
	verbose bool

	owner    string
	repo     string
	prNumber int
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "reviewer",
		Short:   "AI pull-request reviewer",
		Long:    `Reviews pull requests with an external analysis engine, posting findings as review comments and reconciling them across repeated runs.`,
		Version: version,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (default: ~/.config/ai-reviewer/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		RunE:  runServe,
	}

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Run one review session synchronously",
		RunE:  runReview,
	}
	reviewCmd.Flags().StringVar(&owner, "owner", "", "Repository owner")
	reviewCmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	reviewCmd.Flags().IntVar(&prNumber, "pr", 0, "Pull request number")
	_ = reviewCmd.MarkFlagRequired("owner")
	_ = reviewCmd.MarkFlagRequired("repo")
	_ = reviewCmd.MarkFlagRequired("pr")

	rootCmd.AddCommand(serveCmd, reviewCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and wires the session pipeline shared by both
// commands
func setup() (*config.Config, *log.Logger, *session.Runner, *metrics.Recorder, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg.Verbose = verbose

	if err := cfg.Validate(); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := log.New(os.Stdout, "[reviewer] ", log.LstdFlags)

	client, err := githubapi.New(cfg.GitHub, logger)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("initializing GitHub client: %w", err)
	}

	recorder := metrics.NewRecorder()
	adapter := engine.NewAdapter(cfg.Engine, logger, nil)
	runner := session.NewRunner(cfg, logger, client, adapter, nil, recorder)

	return cfg, logger, runner, recorder, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, runner, recorder, err := setup()
	if err != nil {
		return err
	}
	if cfg.GitHub.WebhookSecret == "" {
		return fmt.Errorf("webhook_secret is required for serve")
	}

	dispatcher := dispatch.NewInProcess(runner, logger)
	handler := webhook.NewHandler(cfg, dispatcher, recorder, logger)
	server := webhook.NewServer(cfg.Server.Addr, handler)

	logger.Printf("listening on %s (trigger command %q)", cfg.Server.Addr, cfg.Review.TriggerCommand)
	return server.ListenAndServe()
}

func runReview(cmd *cobra.Command, args []string) error {
	_, _, runner, _, err := setup()
	if err != nil {
		return err
	}

	outcome := runner.Run(cmd.Context(), session.Params{Owner: owner, Repo: repo, Number: prNumber})
	switch outcome.Status {
	case session.StatusError:
		return fmt.Errorf("review failed: %s", outcome.Message)
	case session.StatusSkipped:
		fmt.Printf("review skipped: %s\n", outcome.Reason)
	default:
		fmt.Printf("review complete: %d findings\n", outcome.FindingsCount)
	}
	return nil
}
