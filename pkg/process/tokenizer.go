package process

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// TokenCounter counts tokens for reading statistics and chunk sizing.
// The zero value, or a nil *TokenCounter, estimates at four bytes per token.
type TokenCounter struct {
	codec tokenizer.Codec
}

var encodings = map[string]tokenizer.Encoding{
	"cl100k_base": tokenizer.Cl100kBase,
	"p50k_base":   tokenizer.P50kBase,
	"p50k_edit":   tokenizer.P50kEdit,
	"r50k_base":   tokenizer.R50kBase,
	"o200k_base":  tokenizer.O200kBase,
}

// NewTokenCounter loads the named encoding; an empty name means cl100k_base
func NewTokenCounter(encoding string) (*TokenCounter, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	enc, ok := encodings[encoding]
	if !ok {
		return nil, fmt.Errorf("unknown tokenizer encoding '%s'", encoding)
	}
	codec, err := tokenizer.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer '%s': %w", encoding, err)
	}
	return &TokenCounter{codec: codec}, nil
}

// Count returns the number of tokens in text
func (tc *TokenCounter) Count(text string) int {
	if tc == nil || tc.codec == nil {
		return estimateTokens(text)
	}
	ids, _, err := tc.codec.Encode(text)
	if err != nil {
		return estimateTokens(text)
	}
	return len(ids)
}

func estimateTokens(text string) int {
	return len(text) / 4
}
