// Package pricing normalizes the free-form price strings scraped from
// marketplace pages into comparable numeric values.
package pricing

import (
	"math"
	"strconv"
	"strings"
)

// Normalized is the canonical form of a scraped price. Value is +Inf when
// the text could not be parsed, which makes unparsable prices sort last.
type Normalized struct {
	Value   float64
	Display string
}

// Normalize converts a price string such as "R$ 1.234,56" into a numeric
// amount. The display string preserves the original text so the record
// stays readable even when parsing fails; an empty input yields an empty
// display and the +Inf sentinel.
func Normalize(text string) Normalized {
	text = strings.TrimSpace(text)
	if text == "" {
		return Normalized{Value: math.Inf(1)}
	}

	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' {
			b.WriteRune(r)
		}
	}
	cleaned := strings.ReplaceAll(b.String(), ",", ".")

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return Normalized{Value: math.Inf(1), Display: text}
	}
	return Normalized{Value: value, Display: text}
}
