package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/afero"

	"tickeravg/internal/results"
)

// FormatLine renders an entry as "SYMBOL:VALUE" with exactly two decimals
func FormatLine(e results.Entry) string {
	return e.Symbol + ":" + decimal.NewFromFloat(e.Value).StringFixed(2)
}

// Lines formats entries in the order given
func Lines(entries []results.Entry) []string {
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = FormatLine(e)
	}
	return lines
}

// Write replaces path with one newline-terminated line per entry
func Write(fs afero.Fs, path string, entries []results.Entry) error {
	var b strings.Builder
	for _, line := range Lines(entries) {
		b.WriteString(line)
		b.WriteByte('\n')
	}

	if err := afero.WriteFile(fs, path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
