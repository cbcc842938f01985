package web

import (
	"bytes"
	"math"
	"net/url"
	"strconv"
	"strings"
)

type formField struct {
	Key   string
	Value string
}

// parseForm splits an application/x-www-form-urlencoded body into key/value
// pairs. Pairs are split on '&' and then on the first '='; fragments without
// '=' are skipped. Keys and values are unescaped, falling back to the raw text
// when the escaping is invalid.
func parseForm(body []byte) []formField {
	var fields []formField
	for _, frag := range bytes.Split(body, []byte("&")) {
		k, v, ok := bytes.Cut(frag, []byte("="))
		if !ok {
			continue
		}
		fields = append(fields, formField{Key: unescape(string(k)), Value: unescape(string(v))})
	}
	return fields
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// parseFloatPrefix converts the longest numeric prefix of s, after leading
// whitespace, to a float. Text with no numeric prefix, and values that
// overflow to infinity, yield 0.
func parseFloatPrefix(s string) float64 {
	s = strings.TrimLeft(s, " \t\n\v\f\r")
	end := numericPrefix(s)
	if end == 0 {
		return 0
	}
	v, err := strconv.ParseFloat(s[:end], 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// numericPrefix returns the length of the decimal number at the start of s:
// optional sign, digits with an optional fraction, then an exponent only when
// at least one exponent digit follows.
func numericPrefix(s string) int {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
