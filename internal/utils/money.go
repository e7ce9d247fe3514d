package utils

import (
	"strconv"
	"strings"

	"travelfinance/internal/domain"
)

// FormatBRL renders an amount the way invoices show it, e.g. "R$ 1.234,56".
func FormatBRL(m domain.Money) string {
	sign := ""
	cents := int64(m)
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	frac := strconv.FormatInt(cents%100, 10)
	if len(frac) == 1 {
		frac = "0" + frac
	}
	return sign + "R$ " + formatThousand(cents/100) + "," + frac
}

func formatThousand(n int64) string {
	if n == 0 {
		return "0"
	}
	str := strconv.FormatInt(n, 10)
	var out strings.Builder
	for i, c := range str {
		if i != 0 && (len(str)-i)%3 == 0 {
			out.WriteByte('.')
		}
		out.WriteRune(c)
	}
	return out.String()
}
