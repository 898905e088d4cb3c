package operation

import (
	"regexp"
	"strconv"
)

var punct = regexp.MustCompile(`[[:punct:]]`)

// ParseIndex reads text as a menu index. ASCII punctuation is dropped first
// so "2.", "(3)" and "#4" all read as numbers; a leading sign is kept so a
// negative number stays negative. The result is limited to 32 bits. Text that
// is empty once punctuation is removed is not an index.
func ParseIndex(text string) (int, bool) {
	sign := ""
	if len(text) > 0 && (text[0] == '-' || text[0] == '+') {
		sign, text = text[:1], text[1:]
	}
	digits := punct.ReplaceAllString(text, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(sign+digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(n), true
}
