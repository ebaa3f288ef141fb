package report

import (
	"regexp"
	"strings"
)

const maskValue = "****"

// pairRE matches key/value pairs written as "key":"value", key=value or
// key: value.
var pairRE = regexp.MustCompile(`("?)([A-Za-z0-9_\-]+)("?\s*[:=]\s*)("[^"]*"|[^\s,}\]]+)`)

// Mask replaces the values of sensitive keys in s.
func Mask(s string) string {
	return pairRE.ReplaceAllStringFunc(s, func(m string) string {
		g := pairRE.FindStringSubmatch(m)
		if !isSensitiveKey(g[2]) {
			return m
		}
		val := maskValue
		if strings.HasPrefix(g[4], `"`) {
			val = `"` + maskValue + `"`
		}
		return g[1] + g[2] + g[3] + val
	})
}

func isSensitiveKey(k string) bool {
	kk := strings.ToLower(k)
	return strings.Contains(kk, "token") ||
		strings.Contains(kk, "secret") ||
		strings.Contains(kk, "password") ||
		strings.Contains(kk, "authorization") ||
		strings.Contains(kk, "api_key") ||
		strings.Contains(kk, "api-key") ||
		strings.Contains(kk, "apikey")
}
