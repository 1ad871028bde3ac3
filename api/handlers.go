/*
handlers.go - HTTP handlers for the bank API

PURPOSE:
  Maps wire requests to ledger engine calls and engine results back to
  wire responses. Owns HTTP status mapping; owns no ledger logic.

ENDPOINTS:
  POST /login      Issue a bearer token
  GET  /balance    Current balance (auth)
  POST /deposit    Credit own account (auth)
  POST /withdraw   Debit own account (auth)
  POST /transfer   Move funds to another user (auth)
  POST /seed       Reset and seed dev accounts
  GET  /health     Liveness probe

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient funds
  - 401: Missing/invalid credentials or token
  - 404: Account or recipient not found
  - 500: Store failures; critical transfer failures carry
         {"critical": true} so callers can alert an operator

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/raghav352/bankapp/auth"
	"github.com/raghav352/bankapp/ledger"
)

// Store is what the API needs from persistence: the ledger contract
// plus the out-of-band account lifecycle used by seeding.
type Store interface {
	ledger.AccountStore
	CreateAccount(ctx context.Context, acct ledger.Account) error
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  Store
	Engine *ledger.Engine
	Auth   *auth.Service
	Log    *logrus.Logger
}

// NewHandler creates a handler over the given store and token service.
func NewHandler(store Store, tokens *auth.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{
		Store:  store,
		Engine: ledger.NewEngine(store, log),
		Auth:   tokens,
		Log:    log,
	}
}

// =============================================================================
// AUTH
// =============================================================================

// Login verifies credentials and issues a token.
// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required", nil)
		return
	}

	acct, err := h.Store.GetByUsername(r.Context(), req.Username)
	if err != nil {
		// Unknown user and wrong password produce the same response.
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}
	if err := auth.CheckPassword(acct.Credential, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.Auth.Issue(acct.ID, acct.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token})
}

// =============================================================================
// LEDGER OPERATIONS
// =============================================================================

// GetBalance returns the authenticated account's balance.
// GET /balance
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity", nil)
		return
	}

	acct, err := h.Store.GetByID(r.Context(), identity.AccountID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			writeError(w, http.StatusNotFound, "Account not found", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load account", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceResponse{
		Username: acct.Username,
		Balance:  ledger.FromMinorUnits(acct.Balance),
	})
}

// Deposit credits the authenticated account.
// POST /deposit
func (h *Handler) Deposit(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity", nil)
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := ledger.ToMinorUnits(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	acct, err := h.Engine.Deposit(r.Context(), identity.AccountID, amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		Message: "Deposit successful",
		Balance: ledger.FromMinorUnits(acct.Balance),
	})
}

// Withdraw debits the authenticated account.
// POST /withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity", nil)
		return
	}

	var req AmountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	amount, err := ledger.ToMinorUnits(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	acct, err := h.Engine.Withdraw(r.Context(), identity.AccountID, amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, MutationResponse{
		Message: "Withdraw successful",
		Balance: ledger.FromMinorUnits(acct.Balance),
	})
}

// Transfer moves funds from the authenticated account to another user.
// POST /transfer
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Missing identity", nil)
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ToUsername == "" {
		writeError(w, http.StatusBadRequest, "to_username and positive amount required", nil)
		return
	}
	amount, err := ledger.ToMinorUnits(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid amount", err)
		return
	}

	result, err := h.Engine.Transfer(r.Context(), identity.AccountID, req.ToUsername, amount)
	if err != nil {
		h.writeLedgerError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransferResponse{
		Message: "Transfer successful",
		From: TransferParty{
			Username:     result.From.Username,
			BalanceAfter: ledger.FromMinorUnits(result.From.Balance),
		},
		To: TransferParty{
			Username:     result.To.Username,
			BalanceAfter: ledger.FromMinorUnits(result.To.Balance),
		},
	})
}

// =============================================================================
// DEV SEEDING
// =============================================================================

// seedUsers are the development fixtures, balances in minor units.
var seedUsers = []struct {
	Username string
	Password string
	Balance  int64
}{
	{Username: "alice", Password: "password123", Balance: 100000},
	{Username: "bob", Password: "password123", Balance: 50000},
}

// Seed resets the store and creates the development accounts.
// POST /seed
func (h *Handler) Seed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset accounts", err)
		return
	}

	resp := SeedResponse{Message: "Seeded users"}
	for _, u := range seedUsers {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
			return
		}
		acct := ledger.Account{
			ID:         uuid.NewString(),
			Username:   u.Username,
			Balance:    u.Balance,
			Credential: hash,
		}
		if err := h.Store.CreateAccount(ctx, acct); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create account", err)
			return
		}
		resp.Accounts = append(resp.Accounts, SeededAccount{
			Username: acct.Username,
			Balance:  ledger.FromMinorUnits(acct.Balance),
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

// Health is a liveness probe.
// GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

// writeLedgerError maps ledger error kinds to HTTP responses.
func (h *Handler) writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case ledger.IsCritical(err):
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:    "Transfer partially failed and could not be rolled back. Please contact support.",
			Critical: true,
		})
	default:
		writeError(w, http.StatusInternalServerError, "Operation failed", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
