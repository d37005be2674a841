// Package prompt builds, parses and trims the text prompts exchanged with the
// generation models, and provides the deterministic fallbacks used when a
// model cannot answer.
package prompt

import (
	"strings"
)

// CLIPTokenLimit is the context size of the CLIP text encoder.
const CLIPTokenLimit = 77

// tokensPerWord approximates CLIP BPE tokens per whitespace-separated word.
const tokensPerWord = 1.3

// OptimizeForCLIP trims p to fit maxTokens CLIP tokens.
// Prompts whose estimate fits are returned unchanged; longer prompts keep
// their first int(maxTokens/1.3) words. Applying it twice gives the same result.
func OptimizeForCLIP(p string, maxTokens int) string {
	words := strings.Fields(p)
	if float64(len(words))*tokensPerWord <= float64(maxTokens) {
		return p
	}
	maxWords := max(int(float64(maxTokens)/tokensPerWord), 0)
	return strings.Join(words[:maxWords], " ")
}
