package daemon

import (
	"io"

	"github.com/gin-gonic/gin"
)

// getEvents streams daemon events to the client as server-sent events. The
// stream stays open until the client disconnects or the hub shuts down.
func getEvents(c *gin.Context) {
	ch := sseHub.Subscribe()
	defer sseHub.Unsubscribe(ch)

	c.Header("Cache-Control", "no-store")

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			// ev.Data is pre-marshaled JSON. Pass it as a string so SSEvent
			// writes it verbatim instead of rendering a byte slice.
			c.SSEvent(ev.Name, string(ev.Data))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
