package handlers

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ValidationError is the one error type request parsing produces. Message
// is shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Count is a form field holding a whole number. JSON clients may send it
// as a number or a string.
type Count string

func (n *Count) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = Count(s)
		return nil
	}
	*n = Count(strings.TrimSpace(string(b)))
	return nil
}

// Int parses the count, rejecting anything but a non-negative integer.
// An explicit plus sign is not a plain count.
func (n Count) Int(field string) (int64, error) {
	s := strings.TrimSpace(string(n))
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || strings.HasPrefix(s, "+") {
		return 0, &ValidationError{Field: field, Message: "The number of shares must be an integer."}
	}
	if v < 0 {
		return 0, &ValidationError{Field: field, Message: "Shares value must be a positive integer."}
	}
	return v, nil
}

type tradeForm struct {
	Symbol string `form:"symbol" json:"symbol"`
	Shares Count  `form:"shares" json:"shares"`
}

type tradeRequest struct {
	Symbol string
	Shares int64
}

func (f tradeForm) validate() (tradeRequest, error) {
	shares, err := f.Shares.Int("shares")
	if err != nil {
		return tradeRequest{}, err
	}
	return tradeRequest{Symbol: strings.TrimSpace(f.Symbol), Shares: shares}, nil
}

type quoteForm struct {
	Symbol string `form:"symbol" json:"symbol"`
	// Quote is the field name older forms submit.
	Quote string `form:"quote" json:"quote"`
}

func (f quoteForm) symbol() string {
	if s := strings.TrimSpace(f.Symbol); s != "" {
		return s
	}
	return strings.TrimSpace(f.Quote)
}

type registerForm struct {
	Username     string `form:"username" json:"username"`
	Password     string `form:"password" json:"password"`
	Confirmation string `form:"confirmation" json:"confirmation"`
}

type loginForm struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// bind parses the request body into form according to its content type.
func bind(c *gin.Context, form interface{}) error {
	if err := c.ShouldBind(form); err != nil {
		return &ValidationError{Field: "body", Message: "Malformed request."}
	}
	return nil
}

// formFields describes a form for clients rendering their own pages.
func formFields(name string, fields ...string) gin.H {
	return gin.H{"form": name, "fields": fields}
}
