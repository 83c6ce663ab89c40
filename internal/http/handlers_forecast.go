package http

import (
	"net/http"
	"strconv"

	"finquest/internal/core"
	"finquest/internal/services"
	"finquest/internal/sources"
)

// DroppedRecordsHeader reports how many raw records the normalizer skipped.
const DroppedRecordsHeader = "X-Dropped-Records"

func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if s.forecast == nil {
		respondError(w, r, "forecast", sources.ErrNotConfigured)
		return
	}
	query := r.URL.Query()
	today, err := ParseForecastDate(query)
	if err != nil {
		respondError(w, r, "forecast", err)
		return
	}

	report, err := s.forecast.Forecast(r.Context(), services.ForecastRequest{
		Today:   today,
		UseLive: ParseBool(query, "use_plaid"),
	})
	if err != nil {
		respondError(w, r, "forecast", err)
		return
	}

	w.Header().Set(DroppedRecordsHeader, strconv.Itoa(len(report.Dropped)))
	writeJSON(w, http.StatusOK, report)
}

type transactionsResponse struct {
	Transactions []core.Transaction `json:"transactions"`
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	if s.forecast == nil {
		respondError(w, r, "transactions", sources.ErrNotConfigured)
		return
	}
	batch, err := s.forecast.Transactions(r.Context(), ParseBool(r.URL.Query(), "use_plaid"))
	if err != nil {
		respondError(w, r, "transactions", err)
		return
	}

	txs := batch.Transactions
	if txs == nil {
		txs = []core.Transaction{}
	}
	w.Header().Set(DroppedRecordsHeader, strconv.Itoa(batch.DroppedCount()))
	writeJSON(w, http.StatusOK, transactionsResponse{Transactions: txs})
}
