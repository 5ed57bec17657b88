package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ones = []string{"", "One ", "Two ", "Three ", "Four ", "Five ", "Six ", "Seven ", "Eight ", "Nine ", "Ten ",
		"Eleven ", "Twelve ", "Thirteen ", "Fourteen ", "Fifteen ", "Sixteen ", "Seventeen ", "Eighteen ", "Nineteen "}
	tens = []string{"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety"}
)

// FormatCurrency renders amount with exactly two decimals and no symbol.
func FormatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatINR renders amount with Indian digit grouping, e.g. 12,34,567.00.
func FormatINR(amount decimal.Decimal) string {
	s := amount.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped string
	if len(intPart) <= 3 {
		grouped = intPart
	} else {
		head, last3 := intPart[:len(intPart)-3], intPart[len(intPart)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(parts, ",") + "," + last3
	}
	if amount.IsNegative() && !amount.Round(2).IsZero() {
		grouped = "-" + grouped
	}
	return grouped + "." + frac
}

// NumberToWords spells the rupee part of amount in Indian numbering
// (crore, lakh, thousand, hundred) followed by "Rupees Only".
// Paise are not spelled. More than nine integer digits yields "overflow".
func NumberToWords(amount decimal.Decimal) string {
	digits := amount.Abs().Truncate(0).String()
	if len(digits) > 9 {
		return "overflow"
	}
	n := strings.Repeat("0", 9-len(digits)) + digits

	var b strings.Builder
	groups := []struct {
		digits string
		suffix string
	}{
		{n[0:2], "Crore "},
		{n[2:4], "Lakh "},
		{n[4:6], "Thousand "},
		{n[6:7], "Hundred "},
	}
	for _, g := range groups {
		if w := groupWords(g.digits); w != "" {
			b.WriteString(w + g.suffix)
		}
	}

	last := groupWords(n[7:9])
	if last != "" {
		if b.Len() > 0 {
			b.WriteString("and ")
		}
		b.WriteString(last)
	}
	b.WriteString("Rupees ")
	return b.String() + "Only"
}

// groupWords renders a one or two digit group. Tens names carry no trailing
// space, so "Twenty" + " " + "One " reads "Twenty One ".
func groupWords(g string) string {
	v := 0
	for _, r := range g {
		v = v*10 + int(r-'0')
	}
	if v == 0 {
		return ""
	}
	if v < 20 {
		return ones[v]
	}
	return tens[v/10] + " " + ones[v%10]
}

// ParseAmount coerces user text into a decimal, falling back to zero.
// It tolerates thousands separators and a leading Rs, INR or ₹ marker.
func ParseAmount(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}
	for _, marker := range []string{"₹", "INR", "inr", "Rs.", "rs.", "Rs", "rs"} {
		s = strings.ReplaceAll(s, marker, "")
	}
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
	}
	if s == "" {
		return decimal.Zero
	}
	val, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	if neg {
		return val.Neg()
	}
	return val
}
