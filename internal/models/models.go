package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account represents a trading account with a virtual cash balance
type Account struct {
	ID             int             `json:"id"`
	Username       string          `json:"username"`
	CredentialHash string          `json:"-"`
	Balance        decimal.Decimal `json:"balance"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Position represents one open holding: at most one row per (account, symbol)
type Position struct {
	ID          int             `json:"id"`
	AccountID   int             `json:"account_id"`
	Symbol      string          `json:"symbol"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Quantity    decimal.Decimal `json:"quantity"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Holding is one valued line of a portfolio snapshot
type Holding struct {
	Symbol      string          `json:"symbol"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Quantity    decimal.Decimal `json:"quantity"`
	MarketValue decimal.Decimal `json:"market_value"`
}

// PortfolioSnapshot is the derived valuation of an account. TotalValue sums
// the position values; cash is reported separately.
type PortfolioSnapshot struct {
	Username   string          `json:"username"`
	Balance    decimal.Decimal `json:"balance"`
	Positions  []Holding       `json:"positions"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// TradeRequest - what the client sends to buy or sell
type TradeRequest struct {
	Symbol   string          `json:"symbol" binding:"required"`
	Quantity decimal.Decimal `json:"quantity" binding:"required"`
}

// TradeResponse - result of an executed trade
type TradeResponse struct {
	Symbol     string          `json:"symbol"`
	Quantity   decimal.Decimal `json:"quantity"`
	NewBalance decimal.Decimal `json:"new_balance"`
}

// RegisterRequest - what the client sends to create an account
type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest - credentials for an existing account
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest - old and new credentials
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}
