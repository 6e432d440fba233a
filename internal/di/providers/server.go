package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/howtheytest/contribution-server/internal/api"
	"github.com/howtheytest/contribution-server/internal/config"
	"github.com/howtheytest/contribution-server/internal/logger"
	"github.com/howtheytest/contribution-server/internal/metadata/extract"
	"github.com/howtheytest/contribution-server/internal/service"
	"github.com/howtheytest/contribution-server/internal/store"
	"github.com/howtheytest/contribution-server/internal/verify"
)

const shutdownTimeout = 10 * time.Second

// ProvideIntake provides the contribution intake service.
func ProvideIntake(i do.Injector) (*service.Intake, error) {
	cfg := do.MustInvoke[*config.Config](i)
	gh := do.MustInvoke[*GitHubClientHandle](i)
	verifier := do.MustInvoke[*verify.Verifier](i)
	log := do.MustInvoke[*logger.Logger](i)

	// Without a local snapshot the global duplicate rule has no URL set to
	// check against; the per-company check still applies.
	var index service.URLIndex
	if cfg.Store.DataDir != "" {
		index = do.MustInvoke[*store.DirSource](i)
	}

	return service.NewIntake(gh.Client, verifier, index, service.Config{
		BaseBranch: cfg.GitHub.BaseBranch,
		Reviewer:   cfg.GitHub.Reviewer,
	}, log), nil
}

// ProvideDirSource provides the local data snapshot.
func ProvideDirSource(i do.Injector) (*store.DirSource, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return store.NewDirSource(cfg.Store.DataDir), nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
	api *api.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := h.Server.Shutdown(ctx)
	h.api.Close()
	return err
}

// ProvideHTTPServer provides the HTTP server, already listening.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	intake := do.MustInvoke[*service.Intake](i)
	extractor := do.MustInvoke[*extract.Extractor](i)
	dirSource := do.MustInvoke[*store.DirSource](i)

	handler := api.NewServer(intake, extractor, dirSource, api.Config{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		ExtractPerMinute: cfg.Extract.PerMinute,
		ExtractBurst:     cfg.Extract.Burst,
	}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv, api: handler}, nil
}
