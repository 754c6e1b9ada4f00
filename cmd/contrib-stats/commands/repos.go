package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/google/go-github/v75/github"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/oss-pulse/contrib-stats/internal/githubapi"
	"github.com/oss-pulse/contrib-stats/internal/repolist"
)

// ReposCommand holds the flags for the repository-selection command.
type ReposCommand struct {
	token          string
	cutoffYears    int
	output         string
	appID          int64
	installationID int64
	privateKey     string
}

// NewReposCommand creates the command that refreshes the tracked-repository
// selection from the GitHub API.
func NewReposCommand() *cobra.Command {
	rc := &ReposCommand{}

	cobraCmd := &cobra.Command{
		Use:   "repos",
		Short: "Refresh the tracked-repository selection",
		Long: `Fetches every repository in the organization, keeps legacy-prefix
repositories unconditionally, drops archived and stale repositories, ranks
the remainder by stars plus forks, and writes the top selection to the
repository list file.

Authentication uses --token (or GITHUB_TOKEN) by default; pass --app-id,
--installation-id, and --private-key to authenticate as a GitHub App
installation instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, cleanup, err := setup(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			client, err := rc.client()
			if err != nil {
				return err
			}

			cutoff := rc.cutoffYears
			if !cmd.Flags().Changed("cutoff-years") {
				cutoff = a.cfg.Selection.CutoffYears
			}
			output := rc.output
			if !cmd.Flags().Changed("output") {
				output = a.cfg.Project.RepositoriesFile
			}

			ctx := cmd.Context()
			repos, err := repolist.Fetch(ctx, client, a.logger, a.cfg.Project.Org)
			if err != nil {
				return fmt.Errorf("fetch repositories: %w", err)
			}

			list := repolist.Select(repos, repolist.SelectionConfig{
				LegacyPrefix: a.cfg.Project.LegacyPrefix,
				CutoffYears:  cutoff,
				TopN:         a.cfg.Selection.TopCount,
			}, time.Now().UTC())

			if err := repolist.Save(output, list); err != nil {
				return err
			}

			a.logger.Info("repository selection written",
				zap.String("output", output),
				zap.Int("total_fetched", list.Metadata.TotalFetched),
				zap.Int("active", list.Metadata.ActiveCount),
				zap.Int("legacy", list.Metadata.LegacyCount),
			)
			return nil
		},
	}

	cobraCmd.Flags().StringVar(&rc.token, "token", "", "GitHub token (defaults to GITHUB_TOKEN)")
	cobraCmd.Flags().IntVar(&rc.cutoffYears, "cutoff-years", 2, "exclude repositories not updated within this many years")
	cobraCmd.Flags().StringVar(&rc.output, "output", "public/repositories.json", "repository list output file")
	cobraCmd.Flags().Int64Var(&rc.appID, "app-id", 0, "GitHub App ID")
	cobraCmd.Flags().Int64Var(&rc.installationID, "installation-id", 0, "GitHub App installation ID")
	cobraCmd.Flags().StringVar(&rc.privateKey, "private-key", "", "GitHub App private key file")

	return cobraCmd
}

func (rc *ReposCommand) client() (*github.Client, error) {
	if rc.appID != 0 || rc.installationID != 0 || rc.privateKey != "" {
		return githubapi.NewInstallationClient(githubapi.InstallationAuthConfig{
			AppID:          rc.appID,
			InstallationID: rc.installationID,
			PrivateKeyPath: rc.privateKey,
			Timeout:        30 * time.Second,
		})
	}

	token := rc.token
	if token == "" {
		token = os.Getenv("GITHUB_TOKEN")
	}
	if token == "" {
		return nil, fmt.Errorf("github token is required: pass --token or set GITHUB_TOKEN")
	}
	return githubapi.NewTokenClient(githubapi.TokenAuthConfig{
		Token:   token,
		Timeout: 30 * time.Second,
	})
}
