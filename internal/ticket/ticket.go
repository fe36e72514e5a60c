// Package ticket derives the human-facing codes printed on receipts from an
// order's (day, sequence) pair. Both derivations are pure; the codes are never
// stored and can always be recomputed.
package ticket

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Code returns the short ticket code shown on the cashier dashboard, a
// zero-padded daily counter such as "#001". Counters restart every day.
func Code(seq int) string {
	return fmt.Sprintf("#%03d", seq)
}

// InvoiceCode returns the long identifier stamped on invoices, combining the
// creation date with the daily sequence, e.g. "INV-20260829-0001".
func InvoiceCode(day time.Time, seq int) string {
	return fmt.Sprintf("INV-%s-%04d", day.Format("20060102"), seq)
}

// Day truncates t to its calendar day in loc. All sequence allocation is
// scoped to this value, so the deployment must pin a single timezone for it.
func Day(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}

// ParseInvoiceCode recognizes an invoice code and returns its day and
// sequence. ok is false for anything that does not match the exact layout.
func ParseInvoiceCode(s string) (day time.Time, seq int, ok bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "INV-") {
		return time.Time{}, 0, false
	}
	rest := strings.TrimPrefix(s, "INV-")
	parts := strings.SplitN(rest, "-", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, false
	}
	day, err := time.Parse("20060102", parts[0])
	if err != nil {
		return time.Time{}, 0, false
	}
	seq, err = strconv.Atoi(parts[1])
	if err != nil || seq < 1 {
		return time.Time{}, 0, false
	}
	return day, seq, true
}

// ParseTicketCode recognizes a ticket code, with or without the leading '#'.
func ParseTicketCode(s string) (seq int, ok bool) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "#"))
	seq, err := strconv.Atoi(s)
	if err != nil || seq < 1 {
		return 0, false
	}
	return seq, true
}
