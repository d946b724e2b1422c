package realtime

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// newUpgrader accepts any origin when allowed is empty. Otherwise the Origin
// header must match one entry; requests without one are not from browsers.
func newUpgrader(allowed []string) *websocket.Upgrader {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(set) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := set[origin]
			return ok
		},
	}
}
