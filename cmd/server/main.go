package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ironpulse/clubsite/internal/api"
	"github.com/ironpulse/clubsite/internal/config"
	"github.com/ironpulse/clubsite/internal/crm"
	"github.com/ironpulse/clubsite/internal/logger"
	"github.com/ironpulse/clubsite/internal/middleware"
	"github.com/ironpulse/clubsite/internal/notify"
	"github.com/ironpulse/clubsite/internal/services"
	"github.com/ironpulse/clubsite/internal/sitecfg"
)

const maxBodyBytes = 1 << 20

func main() {
	cfg, err := config.Load()
	if err != nil {
		// the logger mode depends on config, so fall back to a production logger
		l, _ := logger.New("production")
		l.Fatal("invalid configuration", "error", err)
	}
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal("server stopped", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	store, closeStore, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		return err
	}
	defer closeStore()

	seed, err := sitecfg.LoadSeed(cfg.Storage.SiteSeedPath)
	if err != nil {
		return err
	}

	passHash := cfg.Admin.PasswordHash
	if passHash == "" {
		log.Warn("admin password given in plain text; set CLUBSITE_ADMIN_PASSWORD_HASH instead")
		if passHash, err = services.HashPassword(cfg.Admin.Password); err != nil {
			return err
		}
	}

	opts := api.Options{
		Log:          log,
		Auth:         middleware.NewAuth(cfg.Admin.JWTSecret),
		PasswordHash: passHash,
		SessionTTL:   cfg.Admin.SessionTTL,
		CookieSecure: cfg.Admin.CookieSecure,
		Holder:       sitecfg.NewHolder(seed),
		Seed:         seed,
		Version:      api.VersionInfo{Commit: cfg.Server.Commit, BuildTime: cfg.Server.BuildTime},
	}
	if cfg.CRM.URL != "" {
		client, err := crm.New(crm.Config{URL: cfg.CRM.URL, Token: cfg.CRM.Token, Timeout: cfg.CRM.Timeout}, nil, log)
		if err != nil {
			return err
		}
		opts.Sinks = append(opts.Sinks, client)
		opts.CRM = client
	}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, cfg.Telegram.Timeout)
		if err != nil {
			// a bad bot token should not keep the site down
			log.Error("telegram notifications disabled", "error", err)
		} else {
			opts.Sinks = append(opts.Sinks, tg)
		}
	}

	router := api.NewRouter(store, opts)
	if err := router.Init(ctx); err != nil {
		return err
	}

	mux := http.NewServeMux()
	router.Register(mux)
	if cfg.Server.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.Server.StaticDir)))
	}

	var handler http.Handler = mux
	handler = middleware.MaxBody(maxBodyBytes)(handler)
	handler = middleware.LocaleMiddleware(handler)
	handler = middleware.NoStore(handler)
	if cfg.Server.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, cfg.Server.RequestTimeout, `{"success":false,"error":"timeout"}`)
	}
	handler = middleware.CORS(cfg.Server.AllowedOrigins)(handler)
	handler = middleware.SecureHeaders(handler)
	handler = middleware.RequestLog(log)(handler)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.RequestTimeout + 5*time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("clubsite listening", "addr", cfg.Server.Addr, "env", cfg.Server.Env, "sinks", len(opts.Sinks))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
