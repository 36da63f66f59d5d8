package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/snapreaper/internal/models"
)

// ANSI color codes for status output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiYellow  = "\033[0;33m"
	ansiGreen   = "\033[0;32m"
)

// Account status labels.
const (
	StatusOK     = "OK"
	StatusFailed = "FAILED"
)

// TableOptions controls how RenderTable renders the account table.
type TableOptions struct {
	// Colored wraps status labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeName adds a NAME column (useful in organization mode).
	IncludeName bool

	// IncludeReasons appends a per-reason breakdown of the run totals.
	IncludeReasons bool
}

// ColorVerdict wraps a verdict kind with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorVerdict(kind models.VerdictKind, colored bool) string {
	s := string(kind)
	if !colored {
		return s
	}
	switch kind {
	case models.VerdictDelete:
		return ansiYellow + s + ansiReset
	case models.VerdictSkipError:
		return ansiBoldRed + s + ansiReset
	default:
		return s
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// statusCell returns the account status padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay visually aligned regardless of terminal ANSI support.
func statusCell(ok bool, width int, colored bool) string {
	text, code := StatusOK, ansiGreen
	if !ok {
		text, code = StatusFailed, ansiBoldRed
	}
	if !colored {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max runes for ID/label columns.
// A single-char ellipsis replaces the last rune when truncation occurs.
func truncateField(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// RenderTable writes the end-of-run account table to w, followed by a totals
// row. Failed accounts show their error in the last column.
//
// Column order:
//
//	ACCOUNT  [NAME]  STATUS  SCANNED  KEPT  DELETED  SKIPPED  RECLAIMED GB  ERROR
func RenderTable(w io.Writer, report *models.AuditReport, opts TableOptions) {
	if len(report.Accounts) == 0 {
		fmt.Fprintln(w, "No accounts audited.")
		return
	}

	// Fixed column display widths.
	const (
		wAccount = 14
		wName    = 20
		wStatus  = 8
		wCount   = 8
		wGB      = 12
		wError   = 50
	)

	var hb strings.Builder
	hb.WriteString(fmt.Sprintf("%-*s", wAccount, "ACCOUNT"))
	if opts.IncludeName {
		hb.WriteString(fmt.Sprintf("  %-*s", wName, "NAME"))
	}
	hb.WriteString(fmt.Sprintf("  %-*s", wStatus, "STATUS"))
	for _, col := range []string{"SCANNED", "KEPT", "DELETED", "SKIPPED"} {
		hb.WriteString(fmt.Sprintf("  %*s", wCount, col))
	}
	hb.WriteString(fmt.Sprintf("  %*s", wGB, "RECLAIMED GB"))
	hb.WriteString("  ERROR")
	header := hb.String()

	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, res := range report.Accounts {
		s := res.Summary
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wAccount, truncateField(res.Account.ID, wAccount)))
		if opts.IncludeName {
			rb.WriteString(fmt.Sprintf("  %-*s", wName, truncateField(res.Account.Name, wName)))
		}
		rb.WriteString("  " + statusCell(res.OK(), wStatus, opts.Colored))
		for _, n := range []int{s.Scanned, s.Kept, s.Deleted, s.Skipped} {
			rb.WriteString(fmt.Sprintf("  %*d", wCount, n))
		}
		rb.WriteString(fmt.Sprintf("  %*d", wGB, s.ReclaimedGB))
		if res.Err != nil {
			rb.WriteString("  " + ShortenMessage(res.Err.Error(), wError))
		}
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}

	t := report.Totals()
	fmt.Fprintln(w, strings.Repeat("-", len(header)))
	fmt.Fprintf(w, "Accounts: %d  Failed: %d  Scanned: %d  Kept: %d  Deleted: %d  Skipped: %d  Reclaimed: %d GB\n",
		len(report.Accounts), report.Failed(), t.Scanned, t.Kept, t.Deleted, t.Skipped, t.ReclaimedGB)
	if report.ReportOnly {
		fmt.Fprintln(w, "Report-only run: deletions were probed but not issued.")
	}

	if opts.IncludeReasons && len(t.Reasons) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Verdicts by Reason")
		for _, reason := range reasonOrder(t.Reasons) {
			fmt.Fprintf(w, "  %-36s  %6d  %s\n", reason, t.Reasons[reason], ColorVerdict(reasonKind(reason), opts.Colored))
		}
	}
}

// reasonKind returns the verdict kind a reason belongs to.
func reasonKind(reason string) models.VerdictKind {
	switch reason {
	case models.ReasonTooYoung, models.ReasonInActiveUse, models.ReasonAttachedNotRunning:
		return models.VerdictKeep
	case models.ReasonNoSourceVolume, models.ReasonSourceVolumeGone, models.ReasonVolumeDetached:
		return models.VerdictDelete
	default:
		return models.VerdictSkipError
	}
}

// reasonOrder lists the known reasons in decision order, then any other keys.
func reasonOrder(counts map[string]int) []string {
	known := []string{
		models.ReasonTooYoung,
		models.ReasonNoSourceVolume,
		models.ReasonSourceVolumeGone,
		models.ReasonVolumeDetached,
		models.ReasonInActiveUse,
		models.ReasonAttachedNotRunning,
		string(models.VerdictSkipError),
	}
	var out []string
	seen := make(map[string]struct{}, len(known))
	for _, r := range known {
		seen[r] = struct{}{}
		if counts[r] > 0 {
			out = append(out, r)
		}
	}
	for r := range counts {
		if _, ok := seen[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}
