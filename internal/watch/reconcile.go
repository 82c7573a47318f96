package watch

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/player"
)

// Owner side: a periodic snapshot broadcast, plus out-of-cadence
// broadcasts on pause, paused-seek and volume transitions so followers
// do not wait a full period to see them.

func (m *Manager) startBroadcastLocked() {
	ctx, cancel := context.WithCancel(context.Background())
	m.sess.cancelBroadcast = cancel
	go m.broadcastLoop(ctx, m.sess.gen)
	log.Info().Str("module", "watch").Dur("interval", m.updateInterval).Msg("broadcast timer armed")
}

func (m *Manager) broadcastLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			if m.sess != nil && m.sess.gen == gen && m.sess.state == ActiveLocalOwner {
				m.publishSnapshotLocked(false)
			}
			m.mu.Unlock()
		}
	}
}

// publishSnapshotLocked samples the player and broadcasts the snapshot.
// While paused, snapshots go out only for explicit pause events; the
// periodic tick stays quiet to avoid redundant traffic.
func (m *Manager) publishSnapshotLocked(pauseEvent bool) {
	sess := m.sess
	p := sess.player

	state := StatePlaying
	if p.State() == player.StatePaused {
		if !pauseEvent {
			return
		}
		state = StatePaused
	}

	a := NewAttributes(state, p.Position(), p.IsMuted(), p.Volume(), p.PlaylistIndex())
	cmd := Command{Kind: CommandUpdate, SenderID: m.localID, URL: sess.url, Attributes: &a}
	if err := m.ch.Publish(cmd); err != nil {
		log.Warn().Err(err).Str("module", "watch").Msg("snapshot publish failed")
	}
}

// Follower side: a paused position is authoritative and applied
// exactly; a playing position tolerates drift up to the threshold so
// normal network jitter does not cause seek storms.

func (m *Manager) applyAttributesLocked(a Attributes) {
	p := m.sess.player

	switch a.State {
	case StatePlaying:
		if a.PlaylistIndex >= 0 {
			if idx := p.PlaylistIndex(); idx >= 0 && idx != a.PlaylistIndex {
				p.PlayAt(a.PlaylistIndex)
			}
		}
		wasPaused := p.State() == player.StatePaused
		m.reconcileTime(p, a.Time, wasPaused)
		if wasPaused {
			p.Play()
		}
	case StatePaused:
		p.Pause()
		m.reconcileTime(p, a.Time, true)
	}
}

func (m *Manager) reconcileTime(p player.Controller, target float64, forceSeek bool) {
	if forceSeek {
		log.Info().Str("module", "watch").Float64("to", target).Msg("seek forced")
		p.SeekTo(target)
		return
	}

	current := p.Position()
	diff := math.Abs(target - current)
	if diff > m.driftThreshold {
		log.Info().Str("module", "watch").Float64("to", target).Float64("current", current).Float64("drift", diff).Msg("seek on drift")
		p.SeekTo(target)
	}
}
