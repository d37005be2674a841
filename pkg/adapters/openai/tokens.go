package openai

import (
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TokenBudget trims text to a token count. It uses the cl100k_base encoding
// when it can be loaded and falls back to counting words otherwise.
type TokenBudget struct {
	once sync.Once
	enc  *tiktoken.Tiktoken
}

func (b *TokenBudget) encoding() *tiktoken.Tiktoken {
	b.once.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			b.enc = enc
		}
	})
	return b.enc
}

// Count returns the number of tokens in text.
func (b *TokenBudget) Count(text string) int {
	if enc := b.encoding(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return len(strings.Fields(text))
}

// Truncate returns text cut to at most limit tokens.
func (b *TokenBudget) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if enc := b.encoding(); enc != nil {
		tokens := enc.Encode(text, nil, nil)
		if len(tokens) <= limit {
			return text
		}
		return enc.Decode(tokens[:limit])
	}
	words := strings.Fields(text)
	if len(words) <= limit {
		return text
	}
	return strings.Join(words[:limit], " ")
}
