package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"stocksim/accounts"
	"stocksim/config"
	"stocksim/database"
	"stocksim/handlers"
	"stocksim/portfolio"
	"stocksim/quote"
	"stocksim/session"
	"stocksim/trading"
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           app.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type app struct {
	db      *gorm.DB
	rdb     *redis.Client
	handler http.Handler
	log     zerolog.Logger
}

// newApp opens the stores and wires every service into the router.
func newApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	gin.SetMode(cfg.GinMode)

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	a := &app{db: db, log: log}

	var sessionStore session.Store = session.NewMemoryStore()
	if cfg.Redis.Addr != "" {
		a.rdb, err = database.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			a.close()
			return nil, err
		}
		sessionStore = session.NewRedisStore(a.rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR not set, sessions are kept in memory")
	}

	var quotes quote.Lookup = quote.NewAlphaVantage(cfg.Quote.BaseURL, cfg.APIKey, cfg.Quote.Timeout, log)
	if cfg.Quote.CacheTTL > 0 {
		if a.rdb == nil {
			log.Warn().Msg("QUOTE_CACHE_TTL set without REDIS_ADDR, quote cache disabled")
		} else {
			quotes = quote.NewCached(quotes, a.rdb, cfg.Quote.CacheTTL, log)
		}
	}

	store := database.NewStore(db)
	h := handlers.New(handlers.Deps{
		Accounts:     accounts.NewService(store, cfg.StartingBalance(), log),
		Trading:      trading.NewService(store, quotes, log),
		Portfolio:    portfolio.NewCalculator(store, quotes, log),
		Quotes:       quotes,
		Sessions:     session.NewManager(sessionStore, []byte(cfg.Session.Secret), cfg.Session.TTL),
		Store:        store,
		SecureCookie: cfg.Session.SecureCookie,
		Log:          log,
	})

	a.handler = h.Router()
	if len(cfg.CORSOrigins) > 0 {
		a.handler = cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		})(a.handler)
	}

	return a, nil
}

func (a *app) close() {
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.log.Warn().Err(err).Msg("Failed to close redis")
		}
	}
	if err := database.Close(a.db); err != nil {
		a.log.Warn().Err(err).Msg("Failed to close database")
	}
}
