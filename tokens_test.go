package smartrouter_test

import (
	"strings"
	"testing"

	sr "github.com/smartllm/smartrouter"
	"github.com/stretchr/testify/assert"
)

func TestCountTokens(t *testing.T) {
	assert.Equal(t, int64(0), sr.CountTokens(""))

	short := sr.CountTokens("Hello, world!")
	assert.Greater(t, short, int64(0))
	assert.Less(t, short, int64(10))

	long := sr.CountTokens(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 50))
	assert.Greater(t, long, short)
}

func TestCountTokens_Deterministic(t *testing.T) {
	const text = "Routing decisions must be reproducible across calls."
	assert.Equal(t, sr.CountTokens(text), sr.CountTokens(text))
}

func TestCountMessageTokens_Overhead(t *testing.T) {
	// 3 tokens of base request overhead.
	assert.Equal(t, int64(3), sr.CountMessageTokens(nil))

	// Each message adds 4 tokens on top of its content.
	content := sr.CountTokens("Hello")
	got := sr.CountMessageTokens([]sr.Message{{Role: "user", Content: "Hello"}})
	assert.Equal(t, content+4+3, got)

	two := sr.CountMessageTokens([]sr.Message{
		{Role: "system", Content: "You are a helpful assistant."},
		{Role: "user", Content: "Hello"},
	})
	system := sr.CountTokens("You are a helpful assistant.")
	assert.Equal(t, system+content+2*4+3, two)
}
