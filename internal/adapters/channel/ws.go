// Package channel contains the agent-side adapters: a websocket client
// for the conference signal endpoint plus the roster, dock and mic
// collaborators the sync core needs.
package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dverner/matinee/internal/domain"
	"github.com/dverner/matinee/internal/watch"
)

const (
	writeWait  = 5 * time.Second
	pingPeriod = 30 * time.Second
)

// mediaEnvelope mirrors the server's shared-media wire format.
type mediaEnvelope struct {
	Type       string            `json:"type"`
	Kind       watch.CommandKind `json:"kind"`
	SenderID   domain.UserID     `json:"senderId"`
	URL        string            `json:"url,omitempty"`
	Attributes *watch.Attributes `json:"attributes,omitempty"`
}

// WSChannel is a conference connection implementing watch.Channel. The
// client token doubles as the user id, matching the server's session
// registry.
type WSChannel struct {
	token string

	mu   sync.Mutex
	conn *websocket.Conn

	handler func(watch.Command)

	closeOnce sync.Once
	done      chan struct{}
}

// Dial connects to the signal endpoint and joins a room. serverURL is
// the ws:// or wss:// base, without the endpoint path.
func Dial(ctx context.Context, serverURL, room, name string) (*WSChannel, error) {
	token := uuid.NewString()
	header := http.Header{}
	header.Set("Cookie", "ct="+token)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, serverURL+"/api/ws/signal", header)
	if err != nil {
		return nil, err
	}

	c := &WSChannel{
		token: token,
		conn:  conn,
		done:  make(chan struct{}),
	}

	join := struct {
		Type string `json:"type"`
		Room string `json:"room"`
		Name string `json:"name,omitempty"`
	}{Type: "join", Room: room, Name: name}
	if err := c.writeJSON(join); err != nil {
		conn.Close()
		return nil, err
	}

	log.Info().Str("module", "channel").Str("room", room).Str("name", name).Msg("joined conference")
	return c, nil
}

// LocalID is the user id the server derives from the client token.
func (c *WSChannel) LocalID() domain.UserID {
	return domain.UserID(c.token)
}

// OnCommand registers the shared-media command handler. Must be set
// before Run.
func (c *WSChannel) OnCommand(h func(watch.Command)) {
	c.handler = h
}

// Publish sends a shared-media command to the conference.
func (c *WSChannel) Publish(cmd watch.Command) error {
	return c.writeJSON(mediaEnvelope{
		Type:       "media",
		Kind:       cmd.Kind,
		SenderID:   cmd.SenderID,
		URL:        cmd.URL,
		Attributes: cmd.Attributes,
	})
}

// SendMute reports a local microphone transition to the conference.
func (c *WSChannel) SendMute(muted, auto bool) error {
	return c.writeJSON(struct {
		Type  string `json:"type"`
		Muted bool   `json:"muted"`
		Auto  bool   `json:"auto,omitempty"`
	}{Type: "mute", Muted: muted, Auto: auto})
}

func (c *WSChannel) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("channel closed")
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Run reads conference messages until the context ends or the
// connection drops. Shared-media commands go to the registered
// handler; everything else is logged and ignored.
func (c *WSChannel) Run(ctx context.Context) error {
	go c.pingLoop(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		_, data, err := c.conn.ReadMessage()
		if err != nil {
			log.Error().Err(err).Str("module", "channel").Msg("read error")
			return err
		}
		c.dispatch(data)
	}
}

func (c *WSChannel) dispatch(data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "channel").Msg("bad json")
		return
	}

	switch env.Type {
	case "media":
		var m mediaEnvelope
		if err := json.Unmarshal(data, &m); err != nil {
			log.Error().Err(err).Str("module", "channel").Msg("bad media payload")
			return
		}
		if c.handler != nil {
			c.handler(watch.Command{
				Kind:       m.Kind,
				SenderID:   m.SenderID,
				URL:        m.URL,
				Attributes: m.Attributes,
			})
		}
	case "pong", "room_state", "whoami":
		// Control replies, nothing to do.
	case "member_joined", "member_left", "member_updated", "member_muted":
		log.Debug().Str("module", "channel").Str("type", env.Type).Msg("roster event")
	case "error":
		log.Warn().Str("module", "channel").RawJSON("payload", data).Msg("server error")
	default:
		log.Debug().Str("module", "channel").Str("type", env.Type).Msg("ignored message")
	}
}

func (c *WSChannel) pingLoop(ctx context.Context) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		case <-t.C:
			if err := c.writeJSON(map[string]string{"type": "ping"}); err != nil {
				return
			}
		}
	}
}

// Close tears the connection down. Safe to call more than once.
func (c *WSChannel) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.mu.Lock()
		if c.conn != nil {
			c.conn.Close()
			c.conn = nil
		}
		c.mu.Unlock()
	})
}
