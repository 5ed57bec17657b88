package models

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/store"
	"github.com/rskenterprises/billing_backend/utils"
)

var numericToken = regexp.MustCompile(`^\d+$`)

// InvoiceRef is the slice of an invoice the sequencer looks at.
type InvoiceRef struct {
	InvoiceNumber string `json:"invoiceNumber"`
	Date          string `json:"date"`
}

// Suggestion is the financial-year scoped next number, with the last one seen.
type Suggestion struct {
	FinancialYear utils.FinancialYear `json:"financialYear"`
	Last          string              `json:"lastInvoice"`
	Next          string              `json:"nextInvoice"`
}

// ParseInvoiceNumber reads a purely numeric token. Anything else is 0.
func ParseInvoiceNumber(token string) int {
	if !numericToken.MatchString(token) {
		return 0
	}
	n, err := strconv.Atoi(token)
	if err != nil {
		return 0
	}
	return n
}

func FormatInvoiceNumber(n int) string {
	return fmt.Sprintf("%03d", n)
}

// SuggestInvoiceNumber takes the highest numeric token among invoices dated
// inside fy and suggests the one after it. Tokens carrying a /YY suffix parse
// as 0 and so never raise the maximum.
func SuggestInvoiceNumber(invoices []InvoiceRef, fy utils.FinancialYear) Suggestion {
	max := 0
	for _, inv := range invoices {
		if !utils.IsDateInFinancialYear(inv.Date, fy) {
			continue
		}
		if n := ParseInvoiceNumber(inv.InvoiceNumber); n > max {
			max = n
		}
	}
	s := Suggestion{FinancialYear: fy, Next: FormatInvoiceNumber(max + 1)}
	if max > 0 {
		s.Last = FormatInvoiceNumber(max)
	}
	return s
}

func defaultNumberBounds(yy string) (string, string) {
	return "001/" + yy, "999/" + yy
}

// NextDefaultInvoiceNumber is the NNN/YY scheme: the lexically greatest token
// between 001/yy and 999/yy, its prefix plus one, with /yy re-appended.
func NextDefaultInvoiceNumber(tokens []string, yy string) string {
	lo, hi := defaultNumberBounds(yy)
	last := ""
	for _, t := range tokens {
		if t < lo || t > hi {
			continue
		}
		if t > last {
			last = t
		}
	}
	if last == "" {
		return lo
	}
	prefix, _, _ := strings.Cut(last, "/")
	n, err := strconv.Atoi(prefix)
	if err != nil {
		n = 0
	}
	return FormatInvoiceNumber(n+1) + "/" + yy
}

// SuggestNextNumber runs the financial-year suggestion over every stored invoice.
func (s *InvoiceService) SuggestNextNumber(ctx context.Context) (Suggestion, error) {
	fy := utils.CurrentFinancialYear(s.deps.now())
	recs, err := s.deps.collection(CollectionInvoices).Query(ctx, store.Query{
		Filters: []store.Filter{store.Gte("date", fy.Start), store.Lte("date", fy.End)},
	})
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "SuggestNextNumber", "query invoices", fy, err)
		return Suggestion{}, err
	}
	refs, err := fromRecords[InvoiceRef](recs)
	if err != nil {
		return Suggestion{}, err
	}
	return SuggestInvoiceNumber(refs, fy), nil
}

// DefaultNextNumber is the number prefilled on a fresh invoice form. A failed
// lookup falls back to 001/YY rather than blocking invoice entry.
func (s *InvoiceService) DefaultNextNumber(ctx context.Context) string {
	yy := utils.CalendarYearSuffix(s.deps.now())
	lo, hi := defaultNumberBounds(yy)
	recs, err := s.deps.collection(CollectionInvoices).Query(ctx, store.Query{
		Filters: []store.Filter{store.Gte("invoiceNumber", lo), store.Lte("invoiceNumber", hi)},
		OrderBy: "invoiceNumber",
		Desc:    true,
		Limit:   1,
	})
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "DefaultNextNumber", "query invoices", yy, err)
		return lo
	}
	tokens := make([]string, 0, len(recs))
	for _, rec := range recs {
		tokens = append(tokens, rec.String("invoiceNumber"))
	}
	return NextDefaultInvoiceNumber(tokens, yy)
}
