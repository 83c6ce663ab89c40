package core

import "time"

// PipelineInput carries everything one forecast run depends on.
type PipelineInput struct {
	Transactions []RawTransaction
	Source       SourceKind
	Budgets      BudgetMap
	Taxonomy     Taxonomy
	Today        time.Time
	// MonthToDate drops transactions dated outside today's month.
	MonthToDate bool
}

// Report is the pipeline output.
type Report struct {
	Forecast        Forecast `json:"forecast"`
	Recommendations []string `json:"recommendations"`

	// Dropped lists the raw records skipped by the normalizer.
	Dropped []*InvalidRecordError `json:"-"`
}

// Run normalizes, aggregates, projects and recommends in one pass.
func Run(in PipelineInput) Report {
	batch := NormalizeAll(in.Transactions, in.Source, in.Taxonomy)
	txs := batch.Transactions
	if in.MonthToDate {
		txs = MonthToDate(txs, in.Today)
	}
	forecast := ProjectAt(Aggregate(txs), in.Budgets, in.Today)
	return Report{
		Forecast:        forecast,
		Recommendations: Recommend(forecast),
		Dropped:         batch.Dropped,
	}
}
