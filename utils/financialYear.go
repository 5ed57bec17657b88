package utils

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// FinancialYear is the April to March window, with dates as YYYY-MM-DD.
type FinancialYear struct {
	Start   string `json:"start"`
	End     string `json:"end"`
	Display string `json:"display"`
}

func CurrentFinancialYear(now time.Time) FinancialYear {
	startYear := now.Year()
	if now.Month() < time.April {
		startYear--
	}
	return FinancialYear{
		Start:   fmt.Sprintf("%04d-04-01", startYear),
		End:     fmt.Sprintf("%04d-03-31", startYear+1),
		Display: fmt.Sprintf("%04d-%02d", startYear, (startYear+1)%100),
	}
}

// FinancialYearLabel is the long form, e.g. 2024-2025.
func FinancialYearLabel(now time.Time) string {
	fy := CurrentFinancialYear(now)
	return fy.Start[:4] + "-" + fy.End[:4]
}

// IsDateInFinancialYear reports inclusive membership. Unparseable dates are outside.
func IsDateInFinancialYear(date string, fy FinancialYear) bool {
	if !IsValidDate(date) {
		return false
	}
	return date >= fy.Start && date <= fy.End
}

func IsValidDate(date string) bool {
	_, err := time.Parse(DateLayout, date)
	return err == nil
}

// CalendarYearSuffix is the two digit year used by NNN/YY invoice numbers.
func CalendarYearSuffix(now time.Time) string {
	return fmt.Sprintf("%02d", now.Year()%100)
}
