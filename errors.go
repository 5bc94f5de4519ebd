package trellis

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNodeNotFound is returned when a handle's node has been destroyed.
	ErrNodeNotFound = errors.New("trellis: node not found")
	// ErrForeignNode is returned when a node is resolved through a scene it
	// does not belong to.
	ErrForeignNode = errors.New("trellis: node belongs to another scene")
	// ErrHubClosed is returned by sends after the Hub has been closed.
	ErrHubClosed = errors.New("trellis: hub closed")
	// ErrNoCamera is returned by Render when the camera cannot be resolved.
	ErrNoCamera = errors.New("trellis: camera not resolvable")
)

// contractViolation reports a bug in the code that produced a message, such
// as an operation whose payload kind does not match its target. In debug mode
// it panics; otherwise it logs at Error and the operation is skipped.
func (h *Hub) contractViolation(ptr NodePointer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if h.debug {
		panic(fmt.Sprintf("trellis debug: %s (%v)", msg, ptr))
	}
	h.stats.ContractViolations++
	h.log.Error("contract violation", "node", ptr, "detail", msg)
}
