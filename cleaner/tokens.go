package cleaner

import "unicode/utf8"

// runesPerToken is the heuristic used by EstimateTokens: English averages
// ~4 chars/token, CJK ~1.5; 3 sits between them.
const runesPerToken = 3

// EstimateTokens provides a fast token count estimate without a tokenizer.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := n / runesPerToken
	if est < 1 {
		return 1
	}
	return est
}

// TruncateTokens cuts text so that EstimateTokens(result) <= maxTokens,
// never splitting a rune. maxTokens <= 0 returns text unchanged.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 || EstimateTokens(text) <= maxTokens {
		return text
	}
	limit := maxTokens*runesPerToken + runesPerToken - 1
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
