// Package handlers is the HTTP surface of the simulator. Every route answers
// JSON; failures answer an apology body {"error": ..., "code": ...}.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stocksim/accounts"
	"stocksim/database"
	"stocksim/middleware"
	"stocksim/portfolio"
	"stocksim/quote"
	"stocksim/session"
	"stocksim/trading"
)

// Deps are the services the handlers act on.
type Deps struct {
	Accounts     *accounts.Service
	Trading      *trading.Service
	Portfolio    *portfolio.Calculator
	Quotes       quote.Lookup
	Sessions     *session.Manager
	Store        *database.Store
	SecureCookie bool
	Log          zerolog.Logger
}

type Handler struct {
	accounts     *accounts.Service
	trading      *trading.Service
	portfolio    *portfolio.Calculator
	quotes       quote.Lookup
	sessions     *session.Manager
	store        *database.Store
	secureCookie bool
	log          zerolog.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		accounts:     d.Accounts,
		trading:      d.Trading,
		portfolio:    d.Portfolio,
		quotes:       d.Quotes,
		sessions:     d.Sessions,
		store:        d.Store,
		secureCookie: d.SecureCookie,
		log:          d.Log.With().Str("component", "http").Logger(),
	}
}

// Router builds the gin engine with every route registered.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		middleware.RequestID(),
		middleware.Logger(h.log),
		gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
			h.log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
			Apology(c, http.StatusInternalServerError, "internal server error")
		}),
		middleware.NoCache(),
	)
	r.NoRoute(func(c *gin.Context) { Apology(c, http.StatusNotFound, "Not Found") })
	r.NoMethod(func(c *gin.Context) { Apology(c, http.StatusMethodNotAllowed, "Method Not Allowed") })

	// Public routes
	r.GET("/healthz", h.Health)
	r.GET("/register", h.RegisterForm)
	r.POST("/register", h.Register)
	r.GET("/login", h.LoginForm)
	r.POST("/login", h.Login)
	r.GET("/logout", h.Logout)

	// Protected routes
	auth := r.Group("/")
	auth.Use(middleware.RequireAuth(h.sessions, Apology))
	{
		auth.GET("/", middleware.WithIdentity(h.Index))
		auth.GET("/history", middleware.WithIdentity(h.History))
		auth.GET("/quote", middleware.WithIdentity(h.QuoteForm))
		auth.POST("/quote", middleware.WithIdentity(h.Quote))
		auth.GET("/buy", middleware.WithIdentity(h.BuyForm))
		auth.POST("/buy", middleware.WithIdentity(h.Buy))
		auth.GET("/sell", middleware.WithIdentity(h.SellForm))
		auth.POST("/sell", middleware.WithIdentity(h.Sell))
	}

	return r
}

// Apology answers with the error body used by every failed request.
func Apology(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg, "code": status})
}

type domainError struct {
	err     error
	status  int
	message string
}

var domainErrors = []domainError{
	{trading.ErrSymbolNotFound, http.StatusBadRequest, "Stock was not found."},
	{quote.ErrNotFound, http.StatusBadRequest, "Stock was not found."},
	{trading.ErrInvalidShares, http.StatusBadRequest, "Shares value must be a positive integer."},
	{trading.ErrInsufficientFunds, http.StatusBadRequest, "Insufficient balance."},
	{trading.ErrInsufficientShares, http.StatusBadRequest, "Shares entered are greater than what you actually have."},
	{accounts.ErrMissingUsername, http.StatusBadRequest, "You must enter a username."},
	{accounts.ErrMissingPassword, http.StatusBadRequest, "You must choose a password."},
	{accounts.ErrMissingConfirmation, http.StatusBadRequest, "Confirm your password by typing it again."},
	{accounts.ErrPasswordMismatch, http.StatusBadRequest, "Passwords do not match. Please try again!"},
	{accounts.ErrUsernameTaken, http.StatusBadRequest, "Username already exists."},
	{quote.ErrUnavailable, http.StatusBadGateway, "Quote service unavailable, please try again later."},
	{context.DeadlineExceeded, http.StatusGatewayTimeout, "Request timed out."},
}

// fail turns an error into an apology. Anything unrecognised is a 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		Apology(c, http.StatusBadRequest, ve.Message)
		return
	}
	for _, de := range domainErrors {
		if errors.Is(err, de.err) {
			if de.status >= http.StatusInternalServerError {
				c.Error(err)
			}
			Apology(c, de.status, de.message)
			return
		}
	}
	c.Error(err)
	Apology(c, http.StatusInternalServerError, "internal server error")
}

func (h *Handler) setSessionCookie(c *gin.Context, token string, ttl time.Duration) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(ttl.Seconds()), "/", "", h.secureCookie, true)
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
}

// Health reports liveness and database reachability.
func (h *Handler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.Error(err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
