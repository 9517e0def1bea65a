package chat

import (
	"time"

	"github.com/fabfab/shop-agent/intent"
)

// Turn is one completed exchange in a session transcript. The transcript is
// append-only; turns are never mutated after being recorded.
type Turn struct {
	User       string
	Bot        string
	Intent     intent.Intent
	Confidence float64
	At         time.Time
}

// Reply is the routed outcome of a query. Degraded marks answers produced
// through a fallback path (service outage) so callers can avoid treating
// them as authoritative. Evidence carries the chunks supplied to the
// generator so provenance can be shown without re-querying the index.
type Reply struct {
	Intent     intent.Intent
	Confidence float64
	Answer     string
	Evidence   []string
	Degraded   bool
	Tokens     int
}
