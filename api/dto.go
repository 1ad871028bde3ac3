/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract.

AMOUNTS:
  Amounts travel as decimal values in major units. shopspring/decimal
  accepts both JSON numbers and numeric strings, so clients may send
  {"amount": 25.50} or {"amount": "25.50"}.

NAMING CONVENTION:
  - *Request: Request body types from clients
  - *Response: Response types returned to clients

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import "github.com/shopspring/decimal"

// LoginRequest is the credentials payload for POST /login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse carries an issued bearer token.
type TokenResponse struct {
	Token string `json:"token"`
}

// AmountRequest is the body for deposit and withdraw.
type AmountRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferRequest is the body for POST /transfer.
type TransferRequest struct {
	ToUsername string          `json:"to_username"`
	Amount     decimal.Decimal `json:"amount"`
}

// BalanceResponse reports an account's current balance.
type BalanceResponse struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// MutationResponse reports the outcome of a deposit or withdrawal.
type MutationResponse struct {
	Message string          `json:"message"`
	Balance decimal.Decimal `json:"balance"`
}

// TransferParty is one side of a completed transfer.
type TransferParty struct {
	Username     string          `json:"username"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
}

// TransferResponse reports a committed transfer.
type TransferResponse struct {
	Message string        `json:"message"`
	From    TransferParty `json:"from"`
	To      TransferParty `json:"to"`
}

// SeededAccount is one seeded account in the seed response.
type SeededAccount struct {
	Username string          `json:"username"`
	Balance  decimal.Decimal `json:"balance"`
}

// SeedResponse lists the accounts created by POST /seed.
type SeedResponse struct {
	Message  string          `json:"message"`
	Accounts []SeededAccount `json:"accounts"`
}

// ErrorResponse is the uniform error payload. Critical is set only for
// transfer failures that require manual reconciliation.
type ErrorResponse struct {
	Error    string `json:"error"`
	Details  string `json:"details,omitempty"`
	Critical bool   `json:"critical,omitempty"`
}
