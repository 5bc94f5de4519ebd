package trellis

import (
	"log/slog"
	"time"
)

// frameStats holds per-frame timing and message counts.
// Only populated when the Hub is in debug mode.
type frameStats struct {
	process time.Duration
	graph   time.Duration
	applied uint64
	dropped uint64
	live    int
}

// debugLog writes timing and message stats at Debug level.
func (h *Hub) debugLog(stats frameStats) {
	if !h.debug {
		return
	}
	h.log.Debug("frame",
		slog.Uint64("pass", h.pass),
		slog.Duration("process", stats.process),
		slog.Duration("graph", stats.graph),
		slog.Duration("total", stats.process+stats.graph),
		slog.Uint64("applied", stats.applied),
		slog.Uint64("dropped", stats.dropped),
		slog.Int("live", stats.live),
	)
}

// debugMaxTreeDepth is the depth past which propagation logs a warning.
const debugMaxTreeDepth = 32

// debugMaxChildCount is the chain length past which propagation logs a warning.
const debugMaxChildCount = 1000

// debugCheckDepth warns if a node sits deeper than debugMaxTreeDepth, and if
// it is a group, whether its child chain is unusually long.
func (h *Hub) debugCheckDepth(ptr NodePointer, depth int) {
	if depth > debugMaxTreeDepth {
		h.log.Warn("tree depth exceeds threshold", "node", ptr, "depth", depth, "threshold", debugMaxTreeDepth)
	}
	n, ok := h.nodes.get(ptr)
	if !ok || !n.kind.hasChildren() {
		return
	}
	count := 0
	for c := n.firstChild; !c.IsNil() && count <= debugMaxChildCount; count++ {
		cn, ok := h.nodes.linked(c)
		if !ok {
			break
		}
		c = cn.nextSibling
	}
	if count > debugMaxChildCount {
		h.log.Warn("child count exceeds threshold", "node", ptr, "threshold", debugMaxChildCount)
	}
}
