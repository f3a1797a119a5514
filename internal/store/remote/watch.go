package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"doodleduel/internal/domain"
	"doodleduel/internal/transport/ws"
)

// Watch follows the room's snapshot stream. The channel closes when ctx ends,
// the host closes the room or the connection drops; callers fall back to polling.
func (c *Client) Watch(ctx context.Context, code string) (<-chan *domain.Room, error) {
	endpoint, err := c.streamURL(code)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("remote: dial stream: %w", err)
	}

	out := make(chan *domain.Room, 1)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go c.readStream(ctx, conn, code, out)
	return out, nil
}

func (c *Client) readStream(ctx context.Context, conn *websocket.Conn, code string, out chan *domain.Room) {
	defer close(out)
	defer conn.Close()

	for {
		_, r, err := conn.NextReader()
		if err != nil {
			if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.logger.Debug("remote: stream ended", "roomCode", code, "error", err)
			}
			return
		}

		// One frame may batch several newline separated messages
		dec := json.NewDecoder(r)
		for {
			var msg ws.ServerMessage
			if err := dec.Decode(&msg); err != nil {
				break
			}
			switch msg.Type {
			case ws.MsgSnapshot:
				var room domain.Room
				if err := json.Unmarshal(msg.Payload, &room); err != nil {
					c.logger.Warn("remote: bad snapshot", "roomCode", code, "error", err)
					continue
				}
				room.Normalize()
				if !deliver(ctx, out, &room) {
					return
				}
			case ws.MsgRoomClosed:
				return
			}
		}
	}
}

// deliver replaces an unread snapshot with the newer one
func deliver(ctx context.Context, out chan *domain.Room, room *domain.Room) bool {
	select {
	case <-out:
	default:
	}
	select {
	case out <- room:
		return true
	case <-ctx.Done():
		return false
	}
}

func (c *Client) streamURL(code string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("remote: parse base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", errors.New("remote: base url must be http or https")
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	u.RawQuery = url.Values{"roomCode": {code}}.Encode()
	return u.String(), nil
}
