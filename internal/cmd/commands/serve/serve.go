package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/alm-forge/stanza/internal/api"
	"github.com/alm-forge/stanza/internal/cmd/base"
	"github.com/alm-forge/stanza/internal/config"
	"github.com/alm-forge/stanza/internal/parts"
	"github.com/alm-forge/stanza/internal/server"
	"github.com/alm-forge/stanza/internal/store"
	"github.com/alm-forge/stanza/pkg/auth"
)

type Command struct {
	*base.Command

	// FlagConfig is the path to an HCL configuration file.
	FlagConfig string

	// FlagAddr overrides the configured listen address.
	FlagAddr string

	// FlagSeed is the path to a YAML seed file. When empty the built-in
	// dataset is loaded.
	FlagSeed string

	// FlagDisableAuth turns the token check off.
	FlagDisableAuth bool
}

func (c *Command) Synopsis() string {
	return "Run the API server"
}

func (c *Command) Help() string {
	return `Usage: stanza serve [options]

  Run the API server. Without -config the server starts with built-in
  defaults and the bundled sample dataset on http://127.0.0.1:5001.

` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet("serve")

	f.StringVar(&c.FlagConfig, "config", "",
		"Path to an HCL configuration file")
	f.StringVar(&c.FlagAddr, "addr", "",
		"Listen address, overrides the configuration file")
	f.StringVar(&c.FlagSeed, "seed", "",
		"Path to a YAML seed file, overrides the configuration file")
	f.BoolVar(&c.FlagDisableAuth, "disable-auth", false,
		"Serve without requiring bearer tokens")

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.loadConfig()
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	log := hclog.New(&hclog.LoggerOptions{
		Name:  "stanza",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	st := store.New(log)
	if err := c.seed(st, cfg); err != nil {
		c.UI.Error(fmt.Sprintf("error seeding data: %v", err))
		return 1
	}

	srv := server.Server{
		Config: cfg,
		Store:  st,
		Parts:  parts.NewService(st, log),
		Logger: log,
	}
	if !cfg.DisableAuth {
		srv.Auth = auth.NewTokenIssuer(cfg.JWTSecret, 0)
	}

	httpServer := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: api.New(srv),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	if err := waitForServer("http://"+cfg.ListenAddr, 10*time.Second); err != nil {
		c.UI.Error(fmt.Sprintf("server did not become ready: %v", err))
		return 1
	}

	log.Info("server ready",
		"addr", cfg.ListenAddr,
		"base_path", cfg.BasePath,
		"auth", !cfg.DisableAuth)
	c.UI.Info(fmt.Sprintf("Listening on http://%s%s", cfg.ListenAddr, cfg.BasePath))

	ctx, stop := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.UI.Error(fmt.Sprintf("server error: %v", err))
			return 1
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			c.UI.Error(fmt.Sprintf("error during shutdown: %v", err))
			return 1
		}
	}

	return 0
}

func (c *Command) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	if c.FlagConfig != "" {
		loaded, err := config.Load(c.FlagConfig)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if c.FlagAddr != "" {
		cfg.ListenAddr = c.FlagAddr
	}
	if c.FlagSeed != "" {
		cfg.SeedFile = c.FlagSeed
	}
	if c.FlagDisableAuth {
		cfg.DisableAuth = true
	}

	return cfg, cfg.Validate()
}

func (c *Command) seed(st *store.Store, cfg *config.Config) error {
	if cfg.SeedFile == "" {
		return st.SeedDefaults()
	}

	sf, err := store.LoadSeedFile(afero.NewOsFs(), cfg.SeedFile)
	if err != nil {
		return err
	}
	return st.SeedFromFile(sf)
}
