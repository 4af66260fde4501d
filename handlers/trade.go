package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocksim/models"
	"stocksim/trading"
)

func (h *Handler) BuyForm(c *gin.Context, _ models.Identity) {
	c.JSON(http.StatusOK, formFields("buy", "symbol", "shares"))
}

// SellForm offers the symbols the user currently holds.
func (h *Handler) SellForm(c *gin.Context, id models.Identity) {
	holdings, err := h.portfolio.Holdings(c.Request.Context(), id.UserID)
	if err != nil {
		h.fail(c, err)
		return
	}

	symbols := make([]string, 0, len(holdings))
	for _, hd := range holdings {
		symbols = append(symbols, hd.Symbol)
	}
	form := formFields("sell", "symbol", "shares")
	form["symbols"] = symbols
	c.JSON(http.StatusOK, form)
}

func (h *Handler) Buy(c *gin.Context, id models.Identity) {
	h.trade(c, id, "Bought!", h.trading.Buy)
}

func (h *Handler) Sell(c *gin.Context, id models.Identity) {
	h.trade(c, id, "Sold!", h.trading.Sell)
}

type tradeFunc func(ctx context.Context, userID uint, symbol string, shares int64) (*trading.Receipt, error)

func (h *Handler) trade(c *gin.Context, id models.Identity, message string, execute tradeFunc) {
	var form tradeForm
	if err := bind(c, &form); err != nil {
		h.fail(c, err)
		return
	}
	req, err := form.validate()
	if err != nil {
		h.fail(c, err)
		return
	}

	receipt, err := execute(c.Request.Context(), id.UserID, req.Symbol, req.Shares)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"quote":       newQuoteView(receipt.Quote),
		"transaction": newTransactionView(receipt.Transaction),
		"amount":      receipt.Amount.String(),
		"amount_usd":  models.USD(receipt.Amount),
		"cash":        receipt.Cash.String(),
		"cash_usd":    models.USD(receipt.Cash),
	})
}
