package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/howtheytest/contribution-server/internal/config"
	"github.com/howtheytest/contribution-server/internal/github"
	"github.com/howtheytest/contribution-server/internal/logger"
	"github.com/howtheytest/contribution-server/internal/metadata/extract"
	"github.com/howtheytest/contribution-server/internal/verify"
)

// GitHubClientHandle wraps the GitHub client with Shutdownable.
type GitHubClientHandle struct {
	*github.Client
}

// Shutdown implements do.Shutdownable.
func (h *GitHubClientHandle) Shutdown() error {
	h.Close()
	return nil
}

// ProvideGitHubClient provides the repository client, preferring GitHub App
// credentials over a static token.
func ProvideGitHubClient(i do.Injector) (*GitHubClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var tokens github.TokenSource
	switch {
	case cfg.GitHub.AppID != "" && cfg.GitHub.InstallationID != "" && cfg.GitHub.PrivateKey != "":
		src, err := github.NewAppTokenSource(
			cfg.GitHub.AppID,
			cfg.GitHub.InstallationID,
			cfg.GitHub.PrivateKey,
			cfg.GitHub.APIBaseURL,
		)
		if err != nil {
			return nil, fmt.Errorf("github app auth: %w", err)
		}
		tokens = src
	case cfg.GitHub.Token != "":
		tokens = github.StaticTokenSource(cfg.GitHub.Token)
	default:
		// Development without credentials: requests will be rejected by
		// the API, but the server still starts for local form work.
		tokens = github.StaticTokenSource("")
	}

	client := github.New(github.Config{
		BaseURL: cfg.GitHub.APIBaseURL,
		Owner:   cfg.GitHub.Owner,
		Repo:    cfg.GitHub.Repo,
		Tokens:  tokens,
	}, log)

	return &GitHubClientHandle{Client: client}, nil
}

// ProvideVerifier provides the bot-verification client.
func ProvideVerifier(i do.Injector) (*verify.Verifier, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return verify.New(verify.Config{
		Secret: cfg.Verify.Secret,
		URL:    cfg.Verify.URL,
	}, log), nil
}

// ProvideExtractor provides the metadata extractor.
func ProvideExtractor(i do.Injector) (*extract.Extractor, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return extract.New(cfg.Extract.Timeout, log), nil
}
