package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"mindbloom/internal/kv"
)

// SessionKey is where the client keeps its session in the medium.
const SessionKey = "mindbloom_session"

const DefaultTimeout = 15 * time.Second

// Client implements Provider against the /auth/v1 endpoints and keeps the
// session in a kv.Medium.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   kv.Medium
	logger     *zap.Logger
	now        func() time.Time

	mu        sync.Mutex
	listeners map[int]func(*User)
	nextID    int
}

type ClientConfig struct {
	BaseURL    string
	HTTPClient *http.Client
	Sessions   kv.Medium
	Logger     *zap.Logger
	Now        func() time.Time
}

func NewClient(cfg ClientConfig) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: DefaultTimeout}
	}
	sessions := cfg.Sessions
	if sessions == nil {
		sessions = kv.NewMemoryMedium()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		httpClient: hc,
		sessions:   sessions,
		logger:     logger,
		now:        now,
		listeners:  make(map[int]func(*User)),
	}
}

var _ Provider = (*Client)(nil)

type authResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	User      User   `json:"user"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/auth/v1/signup", email, password)
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/auth/v1/token", email, password)
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) (*User, error) {
	var out authResponse
	status, err := c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		switch status {
		case http.StatusUnauthorized:
			return nil, ErrInvalidCredentials
		case http.StatusConflict:
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	sess := Session{Token: out.Token, User: out.User}
	if out.ExpiresAt != "" {
		if t, perr := time.Parse(time.RFC3339, out.ExpiresAt); perr == nil {
			sess.ExpiresAt = t
		}
	}
	if err := c.saveSession(&sess); err != nil {
		return nil, err
	}
	c.emit(&sess.User)
	return &sess.User, nil
}

// SignOut revokes the token remotely when possible and always forgets it
// locally.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.Session()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	if _, err := c.do(ctx, http.MethodPost, "/auth/v1/logout", sess.Token, nil, nil); err != nil {
		c.logger.Warn("remote sign out failed", zap.Error(err))
	}
	if err := c.sessions.Remove(SessionKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	c.emit(nil)
	return nil
}

func (c *Client) ResetPassword(ctx context.Context, email string) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/v1/recover", "", map[string]string{"email": email}, nil)
	return err
}

func (c *Client) UpdatePassword(ctx context.Context, token, password string) error {
	status, err := c.do(ctx, http.MethodPost, "/auth/v1/reset", "", map[string]string{"token": token, "password": password}, nil)
	if err != nil && status == http.StatusBadRequest && strings.Contains(err.Error(), "token") {
		return ErrResetInvalid
	}
	return err
}

// CurrentUser returns the signed-in user, or nil when there is none. A token
// the server rejects ends the session. When the server cannot be reached the
// cached user is returned.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	sess, err := c.Session()
	if err != nil || sess == nil {
		return nil, err
	}
	if sess.Expired(c.now()) {
		c.forget()
		return nil, nil
	}

	var u User
	status, err := c.do(ctx, http.MethodGet, "/auth/v1/user", sess.Token, nil, &u)
	switch {
	case err == nil:
		return &u, nil
	case status == http.StatusUnauthorized:
		c.forget()
		return nil, nil
	case status == 0:
		c.logger.Debug("auth service unreachable, using cached session", zap.Error(err))
		return &sess.User, nil
	}
	return nil, err
}

// OnAuthStateChange registers fn for sign-in and sign-out events.
func (c *Client) OnAuthStateChange(fn func(*User)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Session returns the stored session, or nil when signed out. An unreadable
// session counts as signed out.
func (c *Client) Session() (*Session, error) {
	raw, ok, err := c.sessions.Get(SessionKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Token == "" {
		c.logger.Warn("discarding unreadable session")
		return nil, nil
	}
	return &sess, nil
}

func (c *Client) saveSession(sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := c.sessions.Set(SessionKey, string(b)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (c *Client) forget() {
	if err := c.sessions.Remove(SessionKey); err != nil {
		c.logger.Warn("clear session", zap.Error(err))
	}
	c.emit(nil)
}

func (c *Client) emit(u *User) {
	c.mu.Lock()
	fns := make([]func(*User), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()
	for _, fn := range fns {
		fn(u)
	}
}

// do sends a JSON request. The returned status is 0 when no response arrived.
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) (int, error) {
	if c.baseURL == "" {
		return 0, errors.New("auth service URL not configured")
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
			msg = eb.Error
		}
		return resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode auth response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
