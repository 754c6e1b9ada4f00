package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/report"
	"github.com/oss-pulse/contrib-stats/internal/store"
)

// NewContributorsCommand creates the contributor-history command.
func NewContributorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "contributors",
		Short: "Build contributor history documents",
		Long: `Reads the cached pull request, issue, and discussion data for every
tracked repository and writes cumulative first-contribution histories for
the code, community, and combined contributor populations.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, buildContributors)
		},
	}
}

// NewRankingsCommand creates the leaderboard command.
func NewRankingsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rankings",
		Short: "Build monthly and yearly contribution leaderboards",
		Long: `Counts qualifying code, community, and review contributions per author
and month, then ranks them into monthly and yearly leaderboards with an
MVP composite ranking per period.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, buildRankings)
		},
	}
}

// NewStarsCommand creates the star-history command.
func NewStarsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stars",
		Short: "Build star history documents",
		Long: `Builds a cumulative star history per tracked repository and a combined
total in which each user counts once, at their earliest star across all
repositories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, buildStars)
		},
	}
}

// NewRunCommand creates the command that builds every document in one pass.
func NewRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Build all documents in one pass",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPipeline(cmd, buildAll)
		},
	}
}

type buildFunc func(ctx context.Context, a *app, stores []store.Store) error

func runPipeline(cmd *cobra.Command, build buildFunc) error {
	a, cleanup, err := setup(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	stores, closeStores, err := a.stores()
	if err != nil {
		return err
	}
	defer closeStores()

	start := time.Now()
	if err := build(cmd.Context(), a, stores); err != nil {
		return err
	}
	a.logger.Info("pipeline completed", zap.Duration("elapsed", time.Since(start)))
	return nil
}

func buildContributors(ctx context.Context, a *app, stores []store.Store) error {
	src, err := a.sources()
	if err != nil {
		return err
	}

	history := report.BuildContributorHistory(a.logger, a.normalizer(), src)
	doc := history.Document(a.cfg.Project.Prefix)
	if err := report.Publish(ctx, stores, report.ContributorsDocument, doc); err != nil {
		return fmt.Errorf("publish contributor history: %w", err)
	}
	return nil
}

func buildRankings(ctx context.Context, a *app, stores []store.Store) error {
	src, err := a.sources()
	if err != nil {
		return err
	}

	doc := report.BuildRankings(a.logger, a.normalizer(), src, a.cfg.Aggregation.RankingLimit, time.Now().UTC())
	if err := report.Publish(ctx, stores, report.RankingsDocument, doc); err != nil {
		return fmt.Errorf("publish rankings: %w", err)
	}
	return nil
}

func buildStars(ctx context.Context, a *app, stores []store.Store) error {
	src, err := a.sources()
	if err != nil {
		return err
	}

	doc := report.BuildStarsHistory(a.logger, a.normalizer(), src)
	if err := report.Publish(ctx, stores, report.StarsDocument, doc); err != nil {
		return fmt.Errorf("publish star history: %w", err)
	}
	return nil
}

func buildAll(ctx context.Context, a *app, stores []store.Store) error {
	for _, build := range []buildFunc{buildContributors, buildRankings, buildStars} {
		if err := build(ctx, a, stores); err != nil {
			return err
		}
	}
	return nil
}
