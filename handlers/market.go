package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksim/models"
	"stocksim/quote"
)

type quoteView struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Price    string `json:"price"`
	PriceUSD string `json:"price_usd"`
}

func newQuoteView(q models.Quote) quoteView {
	return quoteView{Symbol: q.Symbol, Name: q.Name, Price: q.Price.String(), PriceUSD: models.USD(q.Price)}
}

func (h *Handler) QuoteForm(c *gin.Context, _ models.Identity) {
	c.JSON(http.StatusOK, formFields("quote", "symbol"))
}

// Quote looks up the current price of a symbol.
func (h *Handler) Quote(c *gin.Context, _ models.Identity) {
	var form quoteForm
	if err := bind(c, &form); err != nil {
		h.fail(c, err)
		return
	}

	symbol := form.symbol()
	if symbol == "" {
		h.fail(c, quote.ErrNotFound)
		return
	}

	q, err := h.quotes.Lookup(c.Request.Context(), symbol)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"quote": newQuoteView(*q)})
}
