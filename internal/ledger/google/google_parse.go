package google

import (
	"fmt"
	"strconv"
	"strings"

	"smartspend/internal/core"
)

// parseTransactions converts a values matrix (as returned by the Sheets API)
// with columns Year | Month | Day | Amount | Description into transactions.
// Only rows whose cells are not numbers (headers, notes) are skipped and
// counted; numeric rows are returned even when they fail validation, so the
// caller sees them.
func parseTransactions(values [][]interface{}) ([]core.Transaction, int) {
	out := make([]core.Transaction, 0, len(values))
	skipped := 0
	for _, raw := range values {
		row := toStrings(raw)
		if isBlank(row) {
			continue
		}
		tx, ok := parseRow(row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, tx)
	}
	return out, skipped
}

func parseRow(row []string) (core.Transaction, bool) {
	if len(row) < 4 {
		return core.Transaction{}, false
	}
	year, err := strconv.Atoi(row[0])
	if err != nil {
		return core.Transaction{}, false
	}
	month, err := strconv.Atoi(row[1])
	if err != nil {
		return core.Transaction{}, false
	}
	day := 0
	if row[2] != "" {
		if day, err = strconv.Atoi(row[2]); err != nil {
			return core.Transaction{}, false
		}
	}
	amount, ok := parseSignedAmount(row[3])
	if !ok {
		return core.Transaction{}, false
	}
	tx := core.Transaction{
		Year:        year,
		Month:       month,
		Day:         day,
		Amount:      amount,
		Description: safeGet(row, 4),
	}
	return tx, true
}

// parseSignedAmount accepts a leading minus on top of core.ParseAmount so
// that negative cells reach validation instead of looking like text.
func parseSignedAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	negative := strings.HasPrefix(s, "-")
	if negative {
		s = s[1:]
	}
	amount, err := core.ParseAmount(s)
	if err != nil {
		return 0, false
	}
	if negative {
		amount = -amount
	}
	return amount, true
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
