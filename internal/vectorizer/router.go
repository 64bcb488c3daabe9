package vectorizer

import "unicode"

// koreanRatioThreshold is the minimum share of Hangul syllables among
// non-whitespace runes for text to be routed to the Korean path. Empirical
// constant carried over from production tuning.
const koreanRatioThreshold = 0.3

// IsKorean reports whether text is primarily Korean: at least 30% of its
// non-whitespace runes fall in the Hangul-syllable block (U+AC00..U+D7A3).
// Text below the threshold may still contain Korean; it is simply served by
// the fallback path.
func IsKorean(text string) bool {
	var hangul, total int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if r >= 0xAC00 && r <= 0xD7A3 {
			hangul++
		}
	}
	if total == 0 {
		return false
	}
	return float64(hangul)/float64(total) >= koreanRatioThreshold
}
