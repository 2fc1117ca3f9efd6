package invoice

import (
	"math"
	"strconv"
	"strings"
)

// FormatAccounting formats v per Norwegian accounting conventions: space separated thousands,
// comma decimal separator, always two decimals and a leading minus for negatives. For example
// -1234567.5 renders as "-1 234 567,50".
func FormatAccounting(v float64) string {
	cents := int64(math.Round(v * 100))

	negative := cents < 0
	if negative {
		cents = -cents
	}

	integer := strconv.FormatInt(cents/100, 10)

	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}

	// Insert a space before every remaining group of 3 digits.
	lead := len(integer) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(integer[:lead])
	for i := lead; i < len(integer); i += 3 {
		b.WriteByte(' ')
		b.WriteString(integer[i : i+3])
	}

	b.WriteByte(',')

	decimals := cents % 100
	if decimals < 10 {
		b.WriteByte('0')
	}
	b.WriteString(strconv.FormatInt(decimals, 10))

	return b.String()
}
