package http

import (
	"fmt"
	"net/http"

	"finquest/internal/core"
	"finquest/internal/log"
	"finquest/internal/sources"
)

func (s *Server) handleLinkToken(w http.ResponseWriter, r *http.Request) {
	if s.credentials == nil {
		respondError(w, r, "link_token", sources.ErrNotConfigured)
		return
	}
	token, err := s.credentials.LinkToken(r.Context())
	if err != nil {
		respondError(w, r, "link_token", err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

type exchangeRequest struct {
	PublicToken string `json:"public_token"`
}

type exchangeResponse struct {
	ItemID  string `json:"item_id"`
	Message string `json:"message"`
}

func (s *Server) handleExchangeToken(w http.ResponseWriter, r *http.Request) {
	if s.credentials == nil {
		respondError(w, r, "exchange_token", sources.ErrNotConfigured)
		return
	}
	var req exchangeRequest
	if err := decodeJSONBody(w, r, &req); err != nil {
		respondError(w, r, "exchange_token", err)
		return
	}

	itemID, err := s.credentials.Exchange(r.Context(), req.PublicToken)
	if err != nil {
		respondError(w, r, "exchange_token", err)
		return
	}
	writeJSON(w, http.StatusOK, exchangeResponse{
		ItemID:  itemID,
		Message: "Access token stored",
	})
}

type rawTransactionsResponse struct {
	Transactions []core.RawTransaction `json:"transactions"`
}

func (s *Server) handlePlaidTransactions(w http.ResponseWriter, r *http.Request) {
	if s.forecast == nil {
		respondError(w, r, "plaid_transactions", sources.ErrNotConfigured)
		return
	}
	raws, err := s.forecast.LiveTransactions(r.Context())
	if err != nil {
		respondError(w, r, "plaid_transactions", err)
		return
	}
	if raws == nil {
		raws = []core.RawTransaction{}
	}
	writeJSON(w, http.StatusOK, rawTransactionsResponse{Transactions: raws})
}

type syncQueuedResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

type syncDoneResponse struct {
	Message           string `json:"message"`
	TransactionsCount int    `json:"transactions_count"`
	DroppedCount      int    `json:"dropped_count"`
}

func (s *Server) handleSyncTransactions(w http.ResponseWriter, r *http.Request) {
	if s.sync == nil {
		respondError(w, r, "sync_transactions", sources.ErrNotConfigured)
		return
	}
	result, err := s.sync.Request(r.Context())
	if err != nil {
		respondError(w, r, "sync_transactions", err)
		return
	}

	if result.Queued {
		log.FromContext(r.Context()).InfoContext(r.Context(), "Sync queued", log.FieldJobID, result.JobID)
		writeJSON(w, http.StatusAccepted, syncQueuedResponse{
			Message: "Sync queued",
			JobID:   result.JobID,
		})
		return
	}
	writeJSON(w, http.StatusOK, syncDoneResponse{
		Message:           fmt.Sprintf("Successfully synced %d transactions", result.Transactions),
		TransactionsCount: result.Transactions,
		DroppedCount:      result.Dropped,
	})
}
