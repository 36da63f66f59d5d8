package models

import "time"

// AccountSummary aggregates the verdicts reached during one account pass.
type AccountSummary struct {
	Scanned int `json:"scanned"`
	Kept    int `json:"kept"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`

	// ReclaimedGB sums the source-volume size of committed deletions.
	ReclaimedGB int64 `json:"reclaimed_gb"`

	// Reasons counts verdicts by reason string.
	Reasons map[string]int `json:"reasons,omitempty"`
}

// Record folds v into the summary.
func (s *AccountSummary) Record(v Verdict) {
	s.Scanned++
	switch v.Kind {
	case VerdictKeep:
		s.Kept++
	case VerdictDelete:
		s.Deleted++
		if v.Committed {
			s.ReclaimedGB += int64(v.SizeGB)
		}
	case VerdictSkipError:
		s.Skipped++
	}
	if s.Reasons == nil {
		s.Reasons = make(map[string]int)
	}
	key := v.Reason
	if v.Kind == VerdictSkipError {
		// Error text is unbounded; group skips under a single key.
		key = string(VerdictSkipError)
	}
	s.Reasons[key]++
}

// Add merges other into s.
func (s *AccountSummary) Add(other AccountSummary) {
	s.Scanned += other.Scanned
	s.Kept += other.Kept
	s.Deleted += other.Deleted
	s.Skipped += other.Skipped
	s.ReclaimedGB += other.ReclaimedGB
	for k, n := range other.Reasons {
		if s.Reasons == nil {
			s.Reasons = make(map[string]int)
		}
		s.Reasons[k] += n
	}
}

// AccountResult is the explicit outcome of one account pass: either a
// summary (Err == nil) or the reason the pass was abandoned. A failed pass
// may still carry a partial summary for snapshots handled before the failure.
type AccountResult struct {
	Account    Account        `json:"account"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Summary    AccountSummary `json:"summary"`
	Err        error          `json:"-"`
}

// OK reports whether the account pass completed.
func (r AccountResult) OK() bool { return r.Err == nil }

// AuditReport is the result of one audit run across all accounts in scope.
type AuditReport struct {
	RunID      string          `json:"run_id"`
	Mode       string          `json:"mode"`
	Region     string          `json:"region"`
	ReportOnly bool            `json:"report_only"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Accounts   []AccountResult `json:"accounts"`
}

// Failed returns the number of accounts whose pass was abandoned.
func (r *AuditReport) Failed() int {
	n := 0
	for _, a := range r.Accounts {
		if !a.OK() {
			n++
		}
	}
	return n
}

// Totals sums the summaries of every account, including partial summaries of
// failed accounts.
func (r *AuditReport) Totals() AccountSummary {
	var t AccountSummary
	for _, a := range r.Accounts {
		t.Add(a.Summary)
	}
	return t
}
