// Package githubapi builds authenticated go-github clients and paces calls
// against the GitHub rate limit.
package githubapi

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
)

// TokenAuthConfig configures personal-access-token authentication.
type TokenAuthConfig struct {
	Token      string
	APIBaseURL string
	Timeout    time.Duration
}

// InstallationAuthConfig configures GitHub App installation authentication,
// used when the fetch tool runs as an App instead of with a user token.
type InstallationAuthConfig struct {
	AppID          int64
	InstallationID int64
	PrivateKeyPath string
	APIBaseURL     string
	Timeout        time.Duration
}

// NewTokenClient creates a go-github client authenticated with a token.
func NewTokenClient(cfg TokenAuthConfig) (*github.Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, fmt.Errorf("github token is required")
	}

	client := github.NewClient(&http.Client{Timeout: cfg.Timeout}).WithAuthToken(cfg.Token)
	return withBaseURL(client, cfg.APIBaseURL)
}

// NewInstallationClient creates a go-github client authenticated as one
// GitHub App installation.
func NewInstallationClient(cfg InstallationAuthConfig) (*github.Client, error) {
	if cfg.AppID <= 0 {
		return nil, fmt.Errorf("app id must be > 0")
	}
	if cfg.InstallationID <= 0 {
		return nil, fmt.Errorf("installation id must be > 0")
	}
	if strings.TrimSpace(cfg.PrivateKeyPath) == "" {
		return nil, fmt.Errorf("private key path is required")
	}

	transport, err := ghinstallation.NewKeyFromFile(http.DefaultTransport, cfg.AppID, cfg.InstallationID, cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("create github app transport: %w", err)
	}

	client := github.NewClient(&http.Client{
		Transport: transport,
		Timeout:   cfg.Timeout,
	})
	return withBaseURL(client, cfg.APIBaseURL)
}

func withBaseURL(client *github.Client, apiBaseURL string) (*github.Client, error) {
	trimmed := strings.TrimSpace(apiBaseURL)
	if trimmed == "" {
		return client, nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse github api base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("parse github api base url: missing scheme or host")
	}
	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	client.BaseURL = parsed
	return client, nil
}
