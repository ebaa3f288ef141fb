package twin

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type balanceResponse struct {
	UserID   string      `json:"user_id"`
	Balance  json.Number `json:"balance"`
	Currency string      `json:"currency"`
}

type promocodeRequest struct {
	Code      string `json:"code"`
	Amount    int64  `json:"amount"`
	MaxUses   int64  `json:"max_uses"`
	ExpiresAt string `json:"expires_at"`
}

type promocodeResponse struct {
	Code          string      `json:"code"`
	Amount        json.Number `json:"amount"`
	MaxUses       int64       `json:"max_uses"`
	UsedCount     int64       `json:"used_count"`
	RemainingUses int64       `json:"remaining_uses"`
	IsActive      bool        `json:"is_active"`
	ExpiresAt     string      `json:"expires_at,omitempty"`
}

type codeRequest struct {
	Code string `json:"code"`
}

type amountRequest struct {
	Amount int64 `json:"amount"`
}

type transactionResponse struct {
	TransactionType string      `json:"transaction_type"`
	Amount          json.Number `json:"amount"`
	Status          string      `json:"status"`
}

func (s *Server) toPromocode(p *promocode) promocodeResponse {
	out := promocodeResponse{
		Code:          p.Code,
		Amount:        number(p.Amount),
		MaxUses:       p.MaxUses,
		UsedCount:     p.UsedCount,
		RemainingUses: p.MaxUses - p.UsedCount,
		IsActive:      p.active(s.now()),
	}
	if !p.ExpiresAt.IsZero() {
		out.ExpiresAt = p.ExpiresAt.Format(time.RFC3339)
	}
	return out
}

func newCode(prefix string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func (s *Server) balance(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	s.store.mu.Lock()
	bal := s.store.balances[u.ID]
	s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, balanceResponse{UserID: u.ID, Balance: number(bal), Currency: currency})
}

func (s *Server) createPromocode(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	if u.Role != "admin" {
		writeError(w, http.StatusForbidden, "only administrators can create promocodes")
		return
	}
	var req promocodeRequest
	if !decodeBody(r, &req) || req.Amount <= 0 || req.MaxUses <= 0 {
		writeError(w, http.StatusBadRequest, "amount and max_uses must be positive")
		return
	}
	var expires time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "expires_at must be RFC3339")
			return
		}
		expires = t
	}
	code := req.Code
	if code == "" {
		code = newCode("PROMO")
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	if _, taken := s.store.promos[code]; taken {
		writeError(w, http.StatusConflict, "promocode already exists")
		return
	}
	p := &promocode{
		Code:      code,
		Amount:    decimal.NewFromInt(req.Amount),
		MaxUses:   req.MaxUses,
		ExpiresAt: expires,
		CreatedBy: u.ID,
		UsedBy:    map[string]bool{},
	}
	s.store.promos[code] = p
	writeJSON(w, http.StatusOK, s.toPromocode(p))
}

func (s *Server) getPromocode(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	code := chi.URLParam(r, "code")

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	p, found := s.store.promos[code]
	if !found {
		writeError(w, http.StatusNotFound, "promocode not found")
		return
	}
	if u.Role != "admin" && p.CreatedBy != u.ID {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	writeJSON(w, http.StatusOK, s.toPromocode(p))
}

func (s *Server) activatePromocode(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	var req codeRequest
	if !decodeBody(r, &req) || req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	p, found := s.store.promos[req.Code]
	switch {
	case !found:
		writeError(w, http.StatusNotFound, "promocode not found")
		return
	case p.UsedBy[u.ID]:
		writeError(w, http.StatusBadRequest, "promocode already used")
		return
	case !p.active(s.now()):
		writeError(w, http.StatusBadRequest, "promocode expired or exhausted")
		return
	}
	p.UsedCount++
	p.UsedBy[u.ID] = true
	s.store.balances[u.ID] = s.store.balances[u.ID].Add(p.Amount)
	s.store.record(u.ID, "promocode_activate", p.Amount)

	writeJSON(w, http.StatusOK, balanceResponse{UserID: u.ID, Balance: number(s.store.balances[u.ID]), Currency: currency})
}

// generatePromocode turns part of the caller's balance into a single-use code.
func (s *Server) generatePromocode(w http.ResponseWriter, r *http.Request) {
	u := caller(r)
	var req amountRequest
	if !decodeBody(r, &req) || req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	amount := decimal.NewFromInt(req.Amount)

	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	bal := s.store.balances[u.ID]
	if bal.LessThan(amount) {
		writeError(w, http.StatusBadRequest, "insufficient funds")
		return
	}
	s.store.balances[u.ID] = bal.Sub(amount)
	p := &promocode{
		Code:      newCode("GEN"),
		Amount:    amount,
		MaxUses:   1,
		CreatedBy: u.ID,
		UsedBy:    map[string]bool{},
	}
	s.store.promos[p.Code] = p
	s.store.record(u.ID, "promocode_generate", amount)
	writeJSON(w, http.StatusOK, s.toPromocode(p))
}

func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	u := caller(r)

	s.store.mu.Lock()
	out := make([]transactionResponse, 0, len(s.store.txs))
	for _, tx := range s.store.txs {
		if tx.UserID != u.ID {
			continue
		}
		out = append(out, transactionResponse{
			TransactionType: tx.Type,
			Amount:          number(tx.Amount),
			Status:          "completed",
		})
	}
	s.store.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}
