package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
)

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

// Money columns are stored as exact decimal text, never as floats.
func encodeDecimal(d decimal.Decimal) string {
	return d.String()
}

func decodeDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %q: %w", s, err)
	}
	return d, nil
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
