// Package client talks to the blockpush HTTP API. It is the level supplier
// and result sink of locally played sessions: fields are fetched from the
// server and cleared levels are posted back as results.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/wricardo/blockpush/game/level"
	"github.com/wricardo/blockpush/game/results"
	"github.com/wricardo/blockpush/game/service"
	"github.com/wricardo/blockpush/game/session"
	"github.com/wricardo/blockpush/identity"
)

var (
	// ErrConflict is returned when the server answers 409, e.g. when a
	// username is already taken
	ErrConflict = errors.New("conflict")
	// ErrUnauthorized is returned on 401
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound is returned on 404
	ErrNotFound = errors.New("not found")
)

// DefaultBaseURL is where the server listens by default
const DefaultBaseURL = "http://localhost:8085"

// APIError is a non-2xx response
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error: %d", e.Status)
	}
	return fmt.Sprintf("API error %d: %s", e.Status, e.Message)
}

// Unwrap maps well-known statuses to sentinel errors
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusConflict:
		return ErrConflict
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// Client is an API client holding the bearer token of the logged in user
type Client struct {
	baseURL    string
	httpClient *http.Client

	token string
	mu    sync.RWMutex
}

var (
	_ level.Supplier     = (*Client)(nil)
	_ session.ResultSink = (*Client)(nil)
)

// New creates a client for baseURL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Token returns the current bearer token, empty when logged out
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// LoggedIn reports whether a token is held
func (c *Client) LoggedIn() bool {
	return c.Token() != ""
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return &APIError{Status: resp.StatusCode, Message: errResp.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates an account; it does not log in
func (c *Client) Register(ctx context.Context, username, password string) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, "POST", "/api/auth/register", credentials{username, password}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login obtains and stores a token
func (c *Client) Login(ctx context.Context, username, password string) error {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, "POST", "/api/auth/login", credentials{username, password}, &out); err != nil {
		return err
	}
	if out.Token == "" {
		return errors.New("login response carried no token")
	}
	c.SetToken(out.Token)
	return nil
}

// Logout revokes the token on the server and forgets it locally. The local
// token is dropped even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	return c.do(ctx, "POST", "/api/auth/logout", nil, nil)
}

// Profile returns the logged in user's profile with results
func (c *Client) Profile(ctx context.Context) (*identity.Profile, error) {
	var profile identity.Profile
	if err := c.do(ctx, "GET", "/api/users/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// UpdateProfile changes username and nickname. A taken username yields an
// error matching ErrConflict.
func (c *Client) UpdateProfile(ctx context.Context, update identity.ProfileUpdate) (*identity.User, error) {
	var user identity.User
	if err := c.do(ctx, "PUT", "/api/users/profile", update, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Field fetches the level payload for a level id
func (c *Client) Field(ctx context.Context, levelID int) (*level.Level, error) {
	var lvl level.Level
	if err := c.do(ctx, "GET", "/api/fields?level="+strconv.Itoa(levelID), nil, &lvl); err != nil {
		return nil, err
	}
	return &lvl, nil
}

// Supply implements level.Supplier
func (c *Client) Supply(ctx context.Context, difficulty level.Difficulty) (*level.Level, error) {
	lvl, err := c.Field(ctx, difficulty.LevelID())
	if err != nil {
		return nil, err
	}
	if lvl.ID == 0 {
		lvl.ID = difficulty.LevelID()
	}
	return lvl, nil
}

// Results lists the results for a level, fastest first
func (c *Client) Results(ctx context.Context, levelID int) ([]results.Result, error) {
	var list []results.Result
	if err := c.do(ctx, "GET", "/api/results?level="+strconv.Itoa(levelID), nil, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// PostResult records a clear time for the logged in user
func (c *Client) PostResult(ctx context.Context, levelID, seconds int) (*results.Result, error) {
	var r results.Result
	body := map[string]int{"level": levelID, "time": seconds}
	if err := c.do(ctx, "POST", "/api/results", body, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Rankings returns the ranked top entries for a level
func (c *Client) Rankings(ctx context.Context, levelID, limit int) ([]results.Entry, error) {
	params := url.Values{}
	params.Set("level", strconv.Itoa(levelID))
	params.Set("limit", strconv.Itoa(limit))

	var entries []results.Entry
	if err := c.do(ctx, "GET", "/api/rankings?"+params.Encode(), nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// CreateSession starts a server-side play of the level for difficulty
func (c *Client) CreateSession(ctx context.Context, difficulty level.Difficulty) (*service.SessionInfo, error) {
	var info service.SessionInfo
	req := service.CreateSessionRequest{Difficulty: string(difficulty)}
	if err := c.do(ctx, "POST", "/api/sessions", req, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// BulkMove sends a sequence of moves to a server-side session
func (c *Client) BulkMove(ctx context.Context, sessionID string, moves []string) (*service.BulkMoveResult, error) {
	var result service.BulkMoveResult
	body := map[string][]string{"moves": moves}
	if err := c.do(ctx, "POST", "/api/sessions/"+url.PathEscape(sessionID)+"/bulk-move", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Report implements session.ResultSink by posting the clear time
func (c *Client) Report(ctx context.Context, outcome session.Outcome) error {
	_, err := c.PostResult(ctx, outcome.LevelID, outcome.Elapsed)
	return err
}
