package core

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// NowFunc is mockable in tests.
	NowFunc = time.Now

	hundred = decimal.NewFromInt(100)
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ProjectRoot walks up from the working directory to the first directory holding a go.mod.
// go test runs from the package directory, hence the walk. Falls back to the working directory.
func ProjectRoot() string {
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	for dir := wd; ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return wd
		}
		dir = parent
	}
}

// Percentage returns part/whole*100 rounded to 2 decimals, or 0 when whole is 0.
func Percentage(part, whole int) decimal.Decimal {
	if whole == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(2)
}

// Ratio returns num/den*100 unrounded, or 0 when den is 0.
func Ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.IsZero() {
		return decimal.Zero
	}
	return num.Mul(hundred).Div(den)
}

// MoneyPlaces is the scale of every amount column.
const MoneyPlaces int32 = 2

// IsMoney reports whether amount is stored without rounding, ie. has at most MoneyPlaces decimals.
func IsMoney(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(MoneyPlaces))
}
