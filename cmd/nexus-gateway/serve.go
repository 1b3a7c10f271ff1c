package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/nexus-gateway/nexus/internal/config"
	"github.com/nexus-gateway/nexus/internal/failover"
	"github.com/nexus-gateway/nexus/internal/gateway"
	"github.com/nexus-gateway/nexus/internal/health"
	"github.com/nexus-gateway/nexus/internal/lifecycle"
	"github.com/nexus-gateway/nexus/internal/pool"
	gatewayro "github.com/nexus-gateway/nexus/internal/ro"
	"github.com/nexus-gateway/nexus/internal/router"
	"github.com/nexus-gateway/nexus/internal/upstream"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway server",
	Long: `Start the HTTP gateway that fronts the configured upstreams, routing and
failing over between them per the configured health/circuit-breaker tuning.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = findConfigFile()
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error().Err(err).Str("path", configPath).Msg("failed to load config")
		return err
	}

	if err := cfg.Validate(); err != nil {
		log.Error().Err(err).Msg("invalid config")
		return err
	}

	logger, err := gateway.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger

	runtime := config.NewRuntime(cfg)

	p := buildPool(cfg, &logger)
	for _, t := range p.All() {
		t.Breaker.SetConfigSource(runtime)
	}

	selector := router.New(p, cfg.Health.ScoreConfig())
	selector.SetScoreConfigSource(runtime)

	engine := failover.New(selector, p, &logger)
	engine.Tunables = runtime

	lc := lifecycle.New()
	handler := gateway.NewRouter(cfg, p, engine, lc)
	server := gateway.NewServer(cfg.Server.Listen, handler, cfg.Server.EnableHTTP2)

	watcher, err := config.NewWatcher(configPath)
	if err != nil {
		log.Warn().Err(err).Msg("config hot-reload disabled: failed to start watcher")
	} else {
		watcher.OnReload(func(newCfg *config.Config) error {
			if vErr := newCfg.Validate(); vErr != nil {
				return vErr
			}
			runtime.Store(newCfg)
			log.Info().Msg("config reloaded: breaker/score/failover tunables now live")
			return nil
		})
		watchCtx, cancelWatch := context.WithCancel(context.Background())
		defer cancelWatch()
		go func() { _ = watcher.Watch(watchCtx) }()
		defer watcher.Close()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("listen", cfg.Server.Listen).Int("upstreams", p.Len()).Msg("starting nexus-gateway")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sig, err := gatewayro.WaitForShutdown(context.Background())
	if err != nil {
		return <-errCh
	}
	log.Info().Msgf("received %v, draining in-flight requests", sig)

	timeout := cfg.Server.GetShutdownTimeoutOption().OrElse(lifecycle.DefaultShutdownTimeout)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	lc.Shutdown(shutdownCtx, timeout)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildPool constructs the tracked-upstream pool from config. Real network
// adapters are out of scope (§1): each tracked upstream is backed by a
// MockAdapter until a concrete adapter implementation is wired in from
// outside this module.
func buildPool(cfg *config.Config, logger *zerolog.Logger) *pool.Pool {
	tracked := make([]*pool.Tracked, 0, len(cfg.Upstreams))
	breakerCfg := cfg.Health.BreakerConfig()

	for _, u := range cfg.Upstreams {
		id := pool.Identity{Kind: health.ProviderKind(u.Kind), InstanceID: u.InstanceID}
		adapter := &upstream.MockAdapter{FailAfter: -1}
		t := pool.NewTracked(id, adapter, breakerCfg, logger)
		t.SetEnabled(u.Enabled)
		tracked = append(tracked, t)
	}

	return pool.New(tracked, cfg.Health.PriorityTable())
}

//nolint:goconst // config.yaml constant would be shared across subcommands
func findConfigFile() string {
	if _, err := os.Stat("config.yaml"); err == nil {
		return "config.yaml"
	}
	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		p := filepath.Join(home, ".config", "nexus-gateway", "config.yaml")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return "config.yaml"
}
