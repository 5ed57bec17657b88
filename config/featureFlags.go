package config

import (
	"os"
	"strings"
)

// StrictInvoiceNumbers turns the advisory duplicate-number warning on invoice
// create into a hard DuplicateError.
//
// Set via env:
// - STRICT_INVOICE_NUMBERS=true
func StrictInvoiceNumbers() bool {
	return envFlag("STRICT_INVOICE_NUMBERS")
}

// RateLimitEnabled guards the Redis backed request limiter in front of the API.
//
// Set via env:
// - RATE_LIMIT_ENABLED=true
// - RATE_LIMIT_MAX_REQUESTS=600 (per minute, per client IP)
func RateLimitEnabled() bool {
	return envFlag("RATE_LIMIT_ENABLED")
}

func RateLimitMaxRequests() int64 {
	n := intFromEnv("RATE_LIMIT_MAX_REQUESTS", 600)
	if n <= 0 {
		return 600
	}
	return int64(n)
}

func envFlag(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}
