// Package providers contains dependency injection providers for the
// contribution server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/howtheytest/contribution-server/internal/config"
	"github.com/howtheytest/contribution-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting contribution server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"repo", cfg.GitHub.Owner+"/"+cfg.GitHub.Repo,
		"base_branch", cfg.GitHub.BaseBranch,
	)

	return log, nil
}
