package channel

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// LocalRoster is a headless participant list. Synthetic entries for
// shared media are tracked so the agent can report who occupies the
// stage.
type LocalRoster struct {
	mu      sync.Mutex
	entries map[string]string
	pinned  string
}

func NewLocalRoster() *LocalRoster {
	return &LocalRoster{entries: make(map[string]string)}
}

func (r *LocalRoster) AddSyntheticParticipant(id, displayName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[id] = displayName
	log.Info().Str("module", "channel.roster").Str("id", id).Str("name", displayName).Msg("synthetic participant added")
}

func (r *LocalRoster) RemoveSyntheticParticipant(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
	if r.pinned == id {
		r.pinned = ""
	}
	log.Info().Str("module", "channel.roster").Str("id", id).Msg("synthetic participant removed")
}

func (r *LocalRoster) Pin(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pinned = id
	log.Info().Str("module", "channel.roster").Str("id", id).Msg("participant pinned")
}

// Pinned reports the currently pinned participant id, empty when none.
func (r *LocalRoster) Pinned() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pinned
}

// ConsoleDock satisfies the dock collaborator for a headless agent.
type ConsoleDock struct{}

func (ConsoleDock) SetDocked(docked bool) {
	log.Info().Str("module", "channel.dock").Bool("docked", docked).Msg("shared media dock")
}
