package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atharvakonge/paper-trader/internal/ledger"
	"github.com/atharvakonge/paper-trader/internal/models"
	"github.com/atharvakonge/paper-trader/internal/quotes"
)

// TradeHandler exposes the trading and portfolio endpoints
type TradeHandler struct {
	processor *TradeProcessor
	reporter  *ledger.Reporter
	quoter    quotes.Quoter
}

func NewTradeHandler(processor *TradeProcessor, reporter *ledger.Reporter, quoter quotes.Quoter) *TradeHandler {
	return &TradeHandler{processor: processor, reporter: reporter, quoter: quoter}
}

// Buy handles POST /stocks/buy
func (h *TradeHandler) Buy(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.processor.SubmitBuy(c.Request.Context(), accountID(c), req.Symbol, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TradeResponse{
		Symbol:     req.Symbol,
		Quantity:   req.Quantity,
		NewBalance: newBalance,
	})
}

// Sell handles POST /stocks/sell
func (h *TradeHandler) Sell(c *gin.Context) {
	var req models.TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	newBalance, err := h.processor.SubmitSell(c.Request.Context(), accountID(c), req.Symbol, req.Quantity)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.TradeResponse{
		Symbol:     req.Symbol,
		Quantity:   req.Quantity,
		NewBalance: newBalance,
	})
}

// Quote handles GET /stocks/quote/:symbol
func (h *TradeHandler) Quote(c *gin.Context) {
	quote, err := h.quoter.Quote(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// Portfolio handles GET /stocks/portfolio
func (h *TradeHandler) Portfolio(c *gin.Context) {
	snapshot, err := h.reporter.Snapshot(c.Request.Context(), accountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// writeError maps error kinds to HTTP status codes. Anything unrecognized is
// a storage or internal failure and surfaces as 500.
func writeError(c *gin.Context, err error) {
	var status int
	switch {
	case errors.Is(err, ledger.ErrInvalidQuantity),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrInsufficientHoldings),
		errors.Is(err, quotes.ErrInvalidSymbol):
		status = http.StatusBadRequest
	case errors.Is(err, ledger.ErrAccountNotFound):
		status = http.StatusNotFound
	case errors.Is(err, quotes.ErrUnavailable):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
