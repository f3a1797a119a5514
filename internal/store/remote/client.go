// Package remote talks to a store host over HTTP and follows a room's
// snapshot stream over a websocket.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"doodleduel/internal/domain"
	"doodleduel/internal/store"
)

// DefaultTimeout bounds each HTTP request
const DefaultTimeout = 5 * time.Second

// ErrUnexpectedResponse is returned when the host answers outside its API
var ErrUnexpectedResponse = errors.New("remote: unexpected response")

// Client is a store.Store backed by a store host
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the host at baseURL, e.g. http://localhost:8080
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type createResponse struct {
	RoomCode string `json:"roomCode"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

// Get fetches the room
func (c *Client) Get(ctx context.Context, code string) (*domain.Room, error) {
	var room domain.Room
	if err := c.do(ctx, http.MethodGet, roomPath(code), nil, nil, &room); err != nil {
		return nil, err
	}
	room.Normalize()
	return &room, nil
}

// Update reads the room, applies fn and writes it back conditioned on the
// version read. A conflict rereads and reapplies fn.
func (c *Client) Update(ctx context.Context, code string, fn domain.Transform) (*domain.Room, error) {
	for attempt := 0; attempt < store.MaxUpdateRetries; attempt++ {
		room, err := c.Get(ctx, code)
		if err != nil {
			return nil, err
		}
		version := room.Version
		if err := fn(room); err != nil {
			return nil, err
		}

		body, err := json.Marshal(room)
		if err != nil {
			return nil, fmt.Errorf("remote: encode room: %w", err)
		}
		headers := map[string]string{"If-Match": `"` + strconv.FormatInt(version, 10) + `"`}

		var updated domain.Room
		err = c.do(ctx, http.MethodPut, roomPath(code), bytes.NewReader(body), headers, &updated)
		if errors.Is(err, store.ErrVersionConflict) {
			c.logger.Debug("remote: room write conflict, retrying", "roomCode", code, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		updated.Normalize()
		return &updated, nil
	}
	return nil, store.ErrVersionConflict
}

// Heartbeat reports the player as connected
func (c *Client) Heartbeat(ctx context.Context, code, playerID string) error {
	body, err := json.Marshal(map[string]string{"playerId": playerID})
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodPost, roomPath(code)+"/heartbeat", bytes.NewReader(body), nil, nil)
}

// Create stores a new room and returns its code
func (c *Client) Create(ctx context.Context, room *domain.Room) (string, error) {
	body, err := json.Marshal(room)
	if err != nil {
		return "", fmt.Errorf("remote: encode room: %w", err)
	}
	var resp createResponse
	if err := c.do(ctx, http.MethodPost, "/api/rooms", bytes.NewReader(body), nil, &resp); err != nil {
		return "", err
	}
	if resp.RoomCode == "" {
		return "", ErrUnexpectedResponse
	}
	return resp.RoomCode, nil
}

// Delete removes the room for everyone
func (c *Client) Delete(ctx context.Context, code string) error {
	return c.do(ctx, http.MethodDelete, roomPath(code), nil, nil, nil)
}

// ProcessAndStoreImage uploads an image to the host and returns its URL
func (c *Client) ProcessAndStoreImage(ctx context.Context, name string, r io.Reader) (string, error) {
	path := "/api/uploads?name=" + url.QueryEscape(name)
	var resp uploadResponse
	if err := c.do(ctx, http.MethodPost, path, r, map[string]string{"Content-Type": "application/octet-stream"}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("remote: build request: %w", err)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("remote: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return store.ErrRoomNotFound
	case http.StatusConflict:
		return store.ErrVersionConflict
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	if !env.Success || resp.StatusCode >= 400 {
		if env.Error != nil {
			return fmt.Errorf("remote: %s %s: %s: %s", method, path, env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("remote: decode response: %w", err)
	}
	return nil
}

func roomPath(code string) string {
	return "/api/rooms/" + url.PathEscape(code)
}
