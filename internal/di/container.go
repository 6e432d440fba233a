// Package di provides dependency injection configuration for the
// contribution server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/howtheytest/contribution-server/internal/config"
	"github.com/howtheytest/contribution-server/internal/di/providers"
	"github.com/howtheytest/contribution-server/internal/logger"
	"github.com/howtheytest/contribution-server/internal/metadata/extract"
	"github.com/howtheytest/contribution-server/internal/service"
	"github.com/howtheytest/contribution-server/internal/store"
	"github.com/howtheytest/contribution-server/internal/verify"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Outbound clients
	do.Provide(injector, providers.ProvideGitHubClient)
	do.Provide(injector, providers.ProvideVerifier)
	do.Provide(injector, providers.ProvideExtractor)

	// Data snapshot
	do.Provide(injector, providers.ProvideDirSource)

	// Business services
	do.Provide(injector, providers.ProvideIntake)

	// Server
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle
// management. This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.GitHubClientHandle](injector)
	_ = do.MustInvoke[*verify.Verifier](injector)
	_ = do.MustInvoke[*extract.Extractor](injector)
	_ = do.MustInvoke[*store.DirSource](injector)
	_ = do.MustInvoke[*service.Intake](injector)
	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
