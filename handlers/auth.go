package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksim/accounts"
	"stocksim/middleware"
	"stocksim/models"
)

type userView struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Cash     string `json:"cash"`
	CashUSD  string `json:"cash_usd"`
}

func newUserView(u *models.User) userView {
	return userView{ID: u.ID, Username: u.Username, Cash: u.Cash.String(), CashUSD: models.USD(u.Cash)}
}

func (h *Handler) RegisterForm(c *gin.Context) {
	c.JSON(http.StatusOK, formFields("register", "username", "password", "confirmation"))
}

// Register creates the account and logs the new user in.
func (h *Handler) Register(c *gin.Context) {
	var form registerForm
	if err := bind(c, &form); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.accounts.Register(c.Request.Context(), accounts.Registration{
		Username:     form.Username,
		Password:     form.Password,
		Confirmation: form.Confirmation,
	})
	if err != nil {
		h.fail(c, err)
		return
	}

	token, err := h.startSession(c, user)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registered!", "user": newUserView(user), "token": token})
}

// LoginForm forgets any current session before showing the form.
func (h *Handler) LoginForm(c *gin.Context) {
	h.endSession(c)
	c.JSON(http.StatusOK, formFields("login", "username", "password"))
}

// Login answers every credential failure with 403. An unknown username and
// a wrong password get the same message.
func (h *Handler) Login(c *gin.Context) {
	h.endSession(c)

	var form loginForm
	if err := bind(c, &form); err != nil {
		h.fail(c, err)
		return
	}

	user, err := h.accounts.Authenticate(c.Request.Context(), form.Username, form.Password)
	switch {
	case errors.Is(err, accounts.ErrMissingUsername):
		Apology(c, http.StatusForbidden, "must provide username")
		return
	case errors.Is(err, accounts.ErrMissingPassword):
		Apology(c, http.StatusForbidden, "must provide password")
		return
	case errors.Is(err, accounts.ErrInvalidCredentials):
		Apology(c, http.StatusForbidden, "invalid username and/or password")
		return
	case err != nil:
		h.fail(c, err)
		return
	}

	token, err := h.startSession(c, user)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged in!", "user": newUserView(user), "token": token})
}

func (h *Handler) Logout(c *gin.Context) {
	h.endSession(c)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) startSession(c *gin.Context, user *models.User) (string, error) {
	token, err := h.sessions.Create(c.Request.Context(), user.ID, user.Username)
	if err != nil {
		return "", err
	}
	h.setSessionCookie(c, token, h.sessions.TTL())
	return token, nil
}

func (h *Handler) endSession(c *gin.Context) {
	token := middleware.Token(c)
	if token == "" {
		return
	}
	if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
		h.log.Warn().Err(err).Msg("Failed to destroy session")
	}
	h.clearSessionCookie(c)
}
