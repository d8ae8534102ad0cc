package websocket

import (
	"runtime/debug"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// HubRef provides an atomic indirection to the currently-active Hub.
// This allows the server to swap in a fresh hub instance after a panic without
// restarting the HTTP server (handlers call Get() for each new connection).
type HubRef struct {
	v atomic.Value // stores *Hub
}

func NewHubRef(initial *Hub) *HubRef {
	r := &HubRef{}
	r.v.Store(initial)
	return r
}

func (r *HubRef) Get() (*Hub, bool) {
	h, ok := r.v.Load().(*Hub)
	return h, ok && h != nil
}

func (r *HubRef) Set(h *Hub) {
	r.v.Store(h)
}

// Supervise runs the referenced hub and replaces it with a fresh one whenever
// Run panics. It returns once a hub stops normally.
func Supervise(ref *HubRef, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	for {
		current, ok := ref.Get()
		if !ok {
			ref.Set(NewHub(log))
			continue
		}
		panicked := false
		func() {
			defer func() {
				if r := recover(); r != nil {
					panicked = true
					log.Error("hub.Run panic", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				}
			}()
			current.Run()
		}()
		if !panicked {
			return
		}
		// Clients still holding the dead hub must not block on it.
		current.Stop()
		ref.Set(NewHub(log))
		time.Sleep(time.Second)
	}
}
