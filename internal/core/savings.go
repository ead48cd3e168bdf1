package core

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// SavingsExtractor finds a potential-overcharge figure in free response
// text. A miss is not an error.
type SavingsExtractor interface {
	Extract(text string) (int64, bool)
}

// amountPattern matches a currency symbol followed by digit groups
// (western or Indian grouping) and a two-digit decimal part.
const amountPattern = `[₹$€£]\s?(\d+(?:,\d+)*)\.\d{2}`

var (
	amountRe       = regexp.MustCompile(amountPattern)
	totalOverRe    = regexp.MustCompile(`(?i)\btotal\b[^\n]{0,40}?overcharge[^\n\d₹$€£]{0,20}` + amountPattern)
	overchargeWord = "overcharge"
)

// TotalOverchargeExtractor reads the summary line of an audit report, such
// as "Total Potential Overcharge: ₹5,025.00".
type TotalOverchargeExtractor struct{}

func (TotalOverchargeExtractor) Extract(text string) (int64, bool) {
	for _, m := range totalOverRe.FindAllStringSubmatchIndex(text, -1) {
		if followedByDigit(text, m[1]) {
			continue
		}
		return parseAmount(text[m[2]:m[3]])
	}
	return 0, false
}

// ProximityExtractor takes the first amount that is followed, on the same
// line and within Window characters, by the word "overcharge".
type ProximityExtractor struct {
	Window int
}

func (p ProximityExtractor) Extract(text string) (int64, bool) {
	window := p.Window
	if window <= 0 {
		window = 120
	}
	for _, m := range amountRe.FindAllStringSubmatchIndex(text, -1) {
		if followedByDigit(text, m[1]) {
			continue
		}
		rest := text[m[1]:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		if r := []rune(rest); len(r) > window {
			rest = string(r[:window])
		}
		if strings.Contains(strings.ToLower(rest), overchargeWord) {
			return parseAmount(text[m[2]:m[3]])
		}
	}
	return 0, false
}

// ChainExtractor returns the first match of its extractors, in order.
type ChainExtractor []SavingsExtractor

func (c ChainExtractor) Extract(text string) (int64, bool) {
	for _, e := range c {
		if amount, ok := e.Extract(text); ok {
			return amount, true
		}
	}
	return 0, false
}

// DefaultSavingsExtractor prefers the audit's total line and falls back to
// the first amount flagged as an overcharge.
func DefaultSavingsExtractor() SavingsExtractor {
	return ChainExtractor{TotalOverchargeExtractor{}, ProximityExtractor{Window: 120}}
}

func followedByDigit(text string, end int) bool {
	r, _ := utf8.DecodeRuneInString(text[end:])
	return unicode.IsDigit(r)
}

// parseAmount keeps the integer part, dropping group separators.
func parseAmount(digits string) (int64, bool) {
	n, err := strconv.ParseInt(strings.ReplaceAll(digits, ",", ""), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
