package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	gamehost "github.com/veldt-labs/gamehost"
	"github.com/veldt-labs/gamehost/internal/gamefeed"
	"github.com/veldt-labs/gamehost/internal/logging"
	"github.com/veldt-labs/gamehost/internal/surface"
	"github.com/veldt-labs/gamehost/internal/version"
	"github.com/veldt-labs/gamehost/plugin/luaext"

	// Register built-in plugins so they can be loaded from config.
	_ "github.com/veldt-labs/gamehost/internal/plugins/chatfilter"
	_ "github.com/veldt-labs/gamehost/internal/plugins/sessionclock"
)

func main() {
	cfgPath := flag.String("config", os.Getenv("GAMEHOST_CONFIG"), "path to config file (JSON/YAML)")
	flag.Parse()

	if *cfgPath == "" {
		logging.Logger.Error("no config file; pass -config or set GAMEHOST_CONFIG")
		os.Exit(1)
	}

	cfg, err := gamehost.LoadConfig(*cfgPath)
	if err != nil {
		logging.Logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	log := logging.Logger

	st, err := gamehost.OpenStore(cfg.Store)
	if err != nil {
		log.Error("failed to open settings store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	host, err := gamehost.New(*cfg, st)
	if err != nil {
		log.Error("failed to create host", "error", err)
		os.Exit(1)
	}

	// Lua plugins load after the built-ins so they appear below them in the
	// settings surface.
	var scripts []*luaext.Plugin
	for _, path := range cfg.LuaPlugins {
		p, err := luaext.Load(path)
		if err != nil {
			log.Error("failed to load lua plugin", "path", path, "error", err)
			os.Exit(1)
		}
		if err := host.RegisterPlugin(p); err != nil {
			log.Error("failed to register lua plugin", "path", path, "error", err)
			os.Exit(1)
		}
		scripts = append(scripts, p)
	}
	defer func() {
		for _, p := range scripts {
			p.Close()
		}
	}()

	hub := surface.NewHub()
	host.Settings().SetSurface(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := host.Start(ctx); err != nil {
		log.Error("failed to start host", "error", err)
		os.Exit(1)
	}

	r := newRouter(host, hub)

	addr := cfg.Listen
	if addr == "" {
		addr = gamehost.DefaultListen
	}
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", "error", err)
		}
	}()

	log.Info("gamehost listening",
		"version", version.Short(),
		"addr", addr,
		"user", cfg.User,
		"plugins", host.Registry().Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stop()
		log.Error("server error", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	host.Stop(context.Background())
	host.Close()
	log.Info("server stopped")
}

// newRouter builds the HTTP router: the settings surface, the game event
// feed, and the operational endpoints.
func newRouter(host *gamehost.Host, hub *surface.Hub) http.Handler {
	r := chi.NewRouter()
	r.Use(logging.Middleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	feed := gamefeed.New(host)
	r.Get("/feed", feed.Handler())

	sh := &surface.Handlers{Settings: host.Settings(), Hub: hub}
	r.Mount("/api", sh.Routes())

	return r
}
