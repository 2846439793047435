package ws

import (
	"context"
	"time"
)

// RunBroadcaster drives the fixed broadcast tick until ctx is cancelled.
// Each tick walks the rooms that hold state and fans their snapshot out to
// every connection in the room. Inbound updates between two ticks coalesce
// in the store, so the outbound rate stays bounded regardless of how fast
// clients submit.
func (m *Manager) RunBroadcaster(ctx context.Context) {
	ticker := time.NewTicker(m.config.BroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.broadcastSnapshots()
		}
	}
}

func (m *Manager) broadcastSnapshots() {
	for _, code := range m.store.ActiveRooms() {
		snapshot := m.store.Snapshot(code)
		if snapshot == nil {
			continue
		}
		m.EmitBinaryToRoom(code, snapshot)
	}
}
