// Package korean implements regex-based Korean tokenization for sparse
// retrieval. A morphological analyzer can be plugged in behind the same
// contract; the regex rules here need no external dependency.
package korean

import "regexp"

var (
	placeholderPattern = regexp.MustCompile(`#\{[^}]+\}`)
	nonWordPattern     = regexp.MustCompile(`[^\w\s가-힣]`)
	whitespacePattern  = regexp.MustCompile(`\s+`)

	hangulPattern = regexp.MustCompile(`[가-힣]{2,}`)
	latinPattern  = regexp.MustCompile(`[a-zA-Z]{2,}`)
	digitPattern  = regexp.MustCompile(`\d+`)

	variablePattern = regexp.MustCompile(`#\{([^}]+)\}`)
)

// Tokenizer produces ordered token lists from Korean text. It holds no
// mutable state and is safe for concurrent use.
type Tokenizer struct{}

// New returns a ready-to-use Tokenizer.
func New() *Tokenizer {
	return &Tokenizer{}
}

// Tokenize strips variable placeholders, collapses non-word runs, then
// extracts Hangul, Latin and digit runs in that fixed order with no forced
// deduplication.
func (t *Tokenizer) Tokenize(text string) []string {
	if len(text) == 0 {
		return nil
	}

	cleaned := t.clean(text)
	if cleaned == "" {
		return nil
	}

	hangul := hangulPattern.FindAllString(cleaned, -1)
	latin := latinPattern.FindAllString(cleaned, -1)
	digits := digitPattern.FindAllString(cleaned, -1)

	tokens := make([]string, 0, len(hangul)+len(latin)+len(digits))
	tokens = append(tokens, hangul...)
	tokens = append(tokens, latin...)
	tokens = append(tokens, digits...)
	return tokens
}

func (t *Tokenizer) clean(text string) string {
	cleaned := placeholderPattern.ReplaceAllString(text, "")
	cleaned = nonWordPattern.ReplaceAllString(cleaned, " ")
	cleaned = whitespacePattern.ReplaceAllString(cleaned, " ")
	return trimSpace(cleaned)
}

func trimSpace(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}

// ExtractVariables returns the `#{name}` placeholder names found in text, in
// first-occurrence order, with duplicates kept (callers that need a
// deduplicated ordered list should use DedupOrdered).
func ExtractVariables(text string) []string {
	matches := variablePattern.FindAllStringSubmatch(text, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// WordFrequency counts token occurrences.
func WordFrequency(tokens []string) map[string]int {
	freq := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		freq[tok]++
	}
	return freq
}

// DedupOrdered removes duplicate strings while preserving
// first-occurrence order, the shared helper used throughout the analyzer
// and generator.
func DedupOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
