// Package digits normalizes numeric input typed in Latin, Persian or
// Arabic-Indic digits and renders digit strings back in the Persian script.
package digits

import "strings"

const (
	persianZero     = '۰'
	arabicIndicZero = '٠'
)

// Normalize maps every supported digit to ASCII and drops everything else,
// so "۰۹۱۲ ۳۸۲-۳۸۸۶" and "09123823886" yield the same value.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= persianZero && r <= persianZero+9:
			b.WriteRune('0' + (r - persianZero))
		case r >= arabicIndicZero && r <= arabicIndicZero+9:
			b.WriteRune('0' + (r - arabicIndicZero))
		}
	}
	return b.String()
}

// ToPersian renders ASCII digits in the Persian script. Other runes pass through.
func ToPersian(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(persianZero + (r - '0'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsDigits reports whether s is a non-empty ASCII digit string
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
