// Package directory is a stateless client for the room-directory REST API:
// room and user listings, room creation, joins, and room details. Calls are
// best-effort request/response with a bounded timeout and no retry policy.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/collectiveminds/chatkit/internal/domain"
)

// requestTimeout bounds every directory call, the house convention for
// this backend's REST surface.
const requestTimeout = 10 * time.Second

// ErrNotFound is returned when the backend reports a missing room.
var ErrNotFound = errors.New("directory: not found")

// Client talks to the room-directory REST API.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Client for the given base URL, e.g. "http://localhost:8080".
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// ListRooms fetches all rooms.
func (c *Client) ListRooms(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	if err := c.do(ctx, http.MethodGet, "/rooms", nil, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListUsers fetches all known users.
func (c *Client) ListUsers(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateRoom registers a new room and returns it.
func (c *Client) CreateRoom(ctx context.Context, name, topic, createdBy string) (domain.Room, error) {
	body := map[string]string{
		"room_name":  name,
		"topic":      topic,
		"created_by": createdBy,
	}
	var room domain.Room
	if err := c.do(ctx, http.MethodPost, "/rooms", body, &room); err != nil {
		return domain.Room{}, err
	}
	return room, nil
}

// JoinRoom registers userID in a room. A successful response may carry the
// room's message history.
func (c *Client) JoinRoom(ctx context.Context, roomID, userID string) (domain.JoinResponse, error) {
	body := map[string]string{
		"room_id": roomID,
		"userId":  userID,
	}
	var resp domain.JoinResponse
	if err := c.do(ctx, http.MethodPost, "/rooms/join", body, &resp); err != nil {
		return domain.JoinResponse{}, err
	}
	return resp, nil
}

// RoomDetails fetches one room, including its optional documentation.
func (c *Client) RoomDetails(ctx context.Context, roomID string) (domain.RoomDetails, error) {
	var details domain.RoomDetails
	err := c.do(ctx, http.MethodGet, "/rooms/"+url.PathEscape(roomID), nil, &details)
	if err != nil {
		return domain.RoomDetails{}, err
	}
	return details, nil
}

// Health reports whether the backend answers its health endpoint.
func (c *Client) Health(ctx context.Context) bool {
	return c.do(ctx, http.MethodGet, "/health", nil, nil) == nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("directory: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("directory: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s %s", ErrNotFound, method, path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("directory: %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("directory: decode %s %s: %w", method, path, err)
	}
	return nil
}
