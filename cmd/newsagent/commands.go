package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"NewsAgent/internal/app"
	"NewsAgent/internal/config"
	"NewsAgent/internal/domain"
	"NewsAgent/internal/logging"
	"NewsAgent/internal/transport/httpapi"
	"NewsAgent/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

type cli struct {
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "newsagent",
		Short: "Personal news intelligence agent",
		Long: `newsagent ingests RSS/Atom feeds, classifies every new article against your
interests and answers free-text questions about what it has saved.

Example usage:
  newsagent ingest                         # Fetch, classify and store new articles
  newsagent query "latest on postgres"     # Ask a question
  newsagent articles --relevance High      # List stored articles
  newsagent serve                          # Run the HTTP API`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.init(cmd)
		},
	}
	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is $NEWSAGENT_CONFIG or config.yaml)")

	root.AddCommand(
		c.ingestCmd(),
		c.queryCmd(),
		c.articlesCmd(),
		c.serveCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Path(c.cfgFile))
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	c.cfg = cfg

	// stdout carries command output only.
	c.logger = logging.NewWithWriter(cmd.ErrOrStderr(), cfg.Logging.Level)
	c.logger.Debug("configuration loaded", "feeds", len(cfg.Feeds), "driver", cfg.Database.Driver)
	return nil
}

func (c *cli) open(ctx context.Context) (*app.Application, error) {
	return app.Open(ctx, c.cfg, config.Path(c.cfgFile), c.logger)
}

func (c *cli) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Fetch, classify and store new articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			w := cmd.OutOrStdout()
			report, err := application.Ingest(ctx, func(i, total int, title string) {
				fmt.Fprintf(w, "[%d/%d] %s\n", i, total, title)
			})
			if err != nil {
				return err
			}

			for _, f := range report.FailedSources {
				fmt.Fprintf(w, "source %s failed: %v\n", f.Source, f.Err)
			}
			if report.Failed > 0 {
				fmt.Fprintf(w, "%d articles could not be stored.\n", report.Failed)
			}
			fmt.Fprintf(w, "Ingestion complete. %d new articles added.\n", report.Stored)
			return nil
		},
	}
}

func (c *cli) queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <text>",
		Short: "Ask a question about saved articles or the web",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			application, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			_, text, err := application.Query(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (c *cli) articlesCmd() *cobra.Command {
	var (
		limit     int
		relevance string
		category  string
	)

	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List stored articles, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := domain.ArticleFilter{Limit: limit, Category: category}
			if relevance != "" {
				parsed, ok := domain.ParseRelevance(relevance)
				if !ok {
					return fmt.Errorf("unknown relevance %q (want High, Medium or Low)", relevance)
				}
				filter.Relevance = parsed
			}

			ctx := cmd.Context()
			application, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			articles, err := application.ListArticles(ctx, filter)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), usecase.FormatArticles(articles))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of articles")
	cmd.Flags().StringVar(&relevance, "relevance", "", "only this relevance (High, Medium, Low)")
	cmd.Flags().StringVar(&category, "category", "", "only this category")
	return cmd
}

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and periodic ingestion",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := c.open(ctx)
			if err != nil {
				return err
			}
			defer application.Close()

			server, err := httpapi.NewServer(application, c.cfg.Server, c.logger.With("component", "http"))
			if err != nil {
				return err
			}

			sched := application.NewScheduler()
			if err := sched.Start(ctx); err != nil {
				return fmt.Errorf("start scheduler: %w", err)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- server.Start() }()

			select {
			case err := <-errCh:
				if err != nil {
					return err
				}
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			return errors.Join(server.Shutdown(shutdownCtx), sched.Stop(shutdownCtx))
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "newsagent version %s (%s %s/%s)\n",
				version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
