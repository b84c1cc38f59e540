package smartrouter

import (
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// tokenCodec returns the shared cl100k_base codec, or nil if it failed to
// load. A nil codec switches token counting to character estimation.
func tokenCodec() tokenizer.Codec {
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	return codec
}

// CountTokens returns the token count for the given text using the
// cl100k_base encoding, falling back to character-based estimation.
// Deterministic for a fixed input.
func CountTokens(text string) int64 {
	if enc := tokenCodec(); enc != nil {
		ids, _, err := enc.Encode(text)
		if err == nil {
			return int64(len(ids))
		}
	}
	return estimateTokens(text)
}

// estimateTokens uses character-based estimation (~4 chars per token).
func estimateTokens(text string) int64 {
	text = strings.TrimSpace(text)
	if len(text) == 0 {
		return 0
	}
	return int64((len(text) + 3) / 4)
}

// CountMessageTokens returns the token count for a chat request.
// Each message adds ~4 tokens of overhead for role and formatting, plus a
// base overhead for the request.
func CountMessageTokens(messages []Message) int64 {
	var total int64
	for _, m := range messages {
		total += CountTokens(m.Content)
		total += 4
	}
	total += 3
	return total
}
