package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stocksim/models"
)

type positionView struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Shares   int64  `json:"shares"`
	Price    string `json:"price"`
	PriceUSD string `json:"price_usd"`
	Total    string `json:"total"`
	TotalUSD string `json:"total_usd"`
	Priced   bool   `json:"priced"`
}

type transactionView struct {
	Symbol     string    `json:"symbol"`
	Shares     int64     `json:"shares"`
	Price      string    `json:"price"`
	PriceUSD   string    `json:"price_usd"`
	Transacted time.Time `json:"transacted"`
}

func newTransactionView(t models.Transaction) transactionView {
	return transactionView{
		Symbol:     t.Symbol,
		Shares:     t.Shares,
		Price:      t.Price.String(),
		PriceUSD:   models.USD(t.Price),
		Transacted: t.Transacted,
	}
}

// Index shows the user's holdings valued at current prices.
func (h *Handler) Index(c *gin.Context, id models.Identity) {
	p, err := h.portfolio.Portfolio(c.Request.Context(), id.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	holdings := make([]positionView, 0, len(p.Positions))
	for _, pos := range p.Positions {
		view := positionView{
			Symbol: pos.Symbol,
			Name:   pos.Name,
			Shares: pos.Shares,
			Priced: pos.Priced,
		}
		if pos.Priced {
			view.Price, view.PriceUSD = pos.Price.String(), models.USD(pos.Price)
			view.Total, view.TotalUSD = pos.Value.String(), models.USD(pos.Value)
		}
		holdings = append(holdings, view)
	}

	c.JSON(http.StatusOK, gin.H{
		"username":        id.Username,
		"holdings":        holdings,
		"cash":            p.Cash.String(),
		"cash_usd":        models.USD(p.Cash),
		"grand_total":     p.Total.String(),
		"grand_total_usd": models.USD(p.Total),
		"partial":         p.Partial,
	})
}

// History lists every transaction the user made.
func (h *Handler) History(c *gin.Context, id models.Identity) {
	txs, err := h.portfolio.History(c.Request.Context(), id.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	views := make([]transactionView, 0, len(txs))
	for _, t := range txs {
		views = append(views, newTransactionView(t))
	}
	c.JSON(http.StatusOK, gin.H{"transactions": views})
}
