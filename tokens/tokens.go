// Package tokens counts tokens for observability. Counts are reported to
// the user, never used for truncation decisions.
package tokens

import "github.com/pkoukk/tiktoken-go"

type Counter struct {
	enc *tiktoken.Tiktoken
}

// NewCounter returns a Counter backed by the cl100k_base encoding. When the
// encoding cannot be loaded the counter stays usable and falls back to a
// rough 4-characters-per-token estimate.
func NewCounter() *Counter {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return &Counter{}
	}
	return &Counter{enc: enc}
}

func (c *Counter) Count(text string) int {
	if c == nil || c.enc == nil {
		return len(text) / 4
	}
	return len(c.enc.Encode(text, nil, nil))
}
