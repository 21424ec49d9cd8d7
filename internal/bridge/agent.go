package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"
)

// Agent delivers commands to the counterpart running inside the target page
// and returns its replies
type Agent interface {
	Do(ctx context.Context, op Op, payload interface{}) (Reply, error)
	Close() error
}

// WSAgent speaks the command/reply protocol over a websocket to the relay's
// per-tab agent channel
type WSAgent struct {
	conn    *websocket.Conn
	timeout time.Duration
}

// DialAgent connects to a tab's agent channel
func DialAgent(agentURL, origin string, timeout time.Duration) (*WSAgent, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	conn, err := websocket.Dial(agentURL, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial agent: %w", err)
	}
	return &WSAgent{conn: conn, timeout: timeout}, nil
}

// Do sends one command and waits for the matching reply
func (a *WSAgent) Do(ctx context.Context, op Op, payload interface{}) (Reply, error) {
	cmd := Command{ID: uuid.NewString(), Op: op}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return Reply{}, fmt.Errorf("encode payload: %w", err)
		}
		cmd.Payload = raw
	}

	deadline := time.Now().Add(a.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := a.conn.SetDeadline(deadline); err != nil {
		return Reply{}, fmt.Errorf("set deadline: %w", err)
	}

	if err := websocket.JSON.Send(a.conn, &cmd); err != nil {
		return Reply{}, fmt.Errorf("send %s: %w", op, err)
	}
	// Replies arrive in order but skip any that do not match the command id,
	// in case a late reply from a timed-out command is still in flight.
	for {
		var reply Reply
		if err := websocket.JSON.Receive(a.conn, &reply); err != nil {
			return Reply{}, fmt.Errorf("receive %s: %w", op, err)
		}
		if reply.ID == cmd.ID {
			return reply, nil
		}
	}
}

// Close closes the websocket
func (a *WSAgent) Close() error {
	if a == nil || a.conn == nil {
		return nil
	}
	return a.conn.Close()
}
