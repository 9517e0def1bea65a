package tokens_test

import (
	"testing"

	"github.com/fabfab/shop-agent/tokens"
)

func TestCountFallbackEstimate(t *testing.T) {
	var c tokens.Counter
	if got := c.Count("12345678"); got != 2 {
		t.Fatalf("expected 4-chars-per-token estimate of 2, got %d", got)
	}
	if got := c.Count(""); got != 0 {
		t.Fatalf("expected 0 for empty text, got %d", got)
	}
}

func TestCountNilCounter(t *testing.T) {
	var c *tokens.Counter
	if got := c.Count("12345678"); got != 2 {
		t.Fatalf("nil counter must fall back to estimate, got %d", got)
	}
}

func TestNewCounterUsable(t *testing.T) {
	c := tokens.NewCounter()
	if got := c.Count("hello world"); got <= 0 {
		t.Fatalf("expected a positive count, got %d", got)
	}
}
