// Package auth talks to the authentication service. The session lives in a
// cookie jar shared with the REST client and is mirrored into the durable
// store so that it survives between runs.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/domain/user"
	"github.com/xenking/foodhub-client/internal/storage"
)

const (
	// DefaultBaseURL is the backend root; auth routes live under /api/auth.
	DefaultBaseURL = "http://localhost:5000"
	// SessionKey is where session cookies are kept in the durable store.
	SessionKey = "foodhub-session"
)

// ErrNoSession is returned by operations that need a signed-in user.
var ErrNoSession = errors.New("not signed in")

// NewJar returns a cookie jar that scopes cookies by registrable domain.
func NewJar() (http.CookieJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, errors.Wrap(err, "cookie jar")
	}
	return jar, nil
}

// Options configures a Client.
type Options struct {
	BaseURL string
	// HTTPClient must carry the jar shared with the REST client. When nil, a
	// client with a fresh jar is created.
	HTTPClient *http.Client
	// Store persists session cookies. Optional.
	Store  storage.KV
	Logger *zap.Logger
}

// Client signs users in and out.
type Client struct {
	base *url.URL
	http *http.Client
	kv   storage.KV
	lg   *zap.Logger

	mu    sync.Mutex
	names map[string]struct{}
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parse base url")
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.Errorf("base url %q must be absolute", opts.BaseURL)
	}
	if opts.HTTPClient == nil {
		jar, err := NewJar()
		if err != nil {
			return nil, err
		}
		opts.HTTPClient = &http.Client{Jar: jar}
	}
	if opts.HTTPClient.Jar == nil {
		return nil, errors.New("http client has no cookie jar")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		base:  base,
		http:  opts.HTTPClient,
		kv:    opts.Store,
		lg:    opts.Logger,
		names: map[string]struct{}{},
	}, nil
}

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Restore loads persisted session cookies into the jar. A missing or
// unreadable record leaves the client signed out.
func (c *Client) Restore(ctx context.Context) {
	if c.kv == nil {
		return
	}
	data, err := c.kv.Get(ctx, SessionKey)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			c.lg.Warn("Failed to load session", zap.Error(err))
		}
		return
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		c.lg.Warn("Ignoring malformed session record", zap.Error(err))
		return
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	c.mu.Lock()
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
		c.names[s.Name] = struct{}{}
	}
	c.mu.Unlock()
	c.http.Jar.SetCookies(c.base, cookies)
}

// persist mirrors the jar's cookies for the backend into the store.
func (c *Client) persist(ctx context.Context) {
	cookies := c.http.Jar.Cookies(c.base)
	stored := make([]storedCookie, 0, len(cookies))
	c.mu.Lock()
	for _, ck := range cookies {
		stored = append(stored, storedCookie{Name: ck.Name, Value: ck.Value})
		c.names[ck.Name] = struct{}{}
	}
	c.mu.Unlock()
	if c.kv == nil {
		return
	}
	data, err := json.Marshal(stored)
	if err != nil {
		c.lg.Warn("Failed to encode session", zap.Error(err))
		return
	}
	if err := c.kv.Set(ctx, SessionKey, data); err != nil {
		c.lg.Warn("Failed to save session", zap.Error(err))
	}
}

// forget expires every known session cookie and clears the stored record.
func (c *Client) forget(ctx context.Context) {
	c.mu.Lock()
	expired := make([]*http.Cookie, 0, len(c.names))
	for name := range c.names {
		expired = append(expired, &http.Cookie{Name: name, Path: "/", MaxAge: -1})
	}
	c.names = map[string]struct{}{}
	c.mu.Unlock()
	for _, ck := range c.http.Jar.Cookies(c.base) {
		expired = append(expired, &http.Cookie{Name: ck.Name, Path: "/", MaxAge: -1})
	}
	c.http.Jar.SetCookies(c.base, expired)
	c.persist(ctx)
}

// SignIn signs in with email and password.
func (c *Client) SignIn(ctx context.Context, f user.LoginForm) (*user.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out struct {
		User user.User `json:"user"`
	}
	err := c.call(ctx, http.MethodPost, "/sign-in/email", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("email")
		e.Str(f.Email)
		e.FieldStart("password")
		e.Str(f.Password)
		e.ObjEnd()
	}, &out)
	if err != nil {
		return nil, err
	}
	c.persist(ctx)
	c.lg.Info("Signed in", zap.String("user_id", out.User.ID), zap.String("role", string(out.User.Role)))
	return &out.User, nil
}

// SignUp creates an account and signs it in.
func (c *Client) SignUp(ctx context.Context, f user.RegisterForm) (*user.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var out struct {
		User user.User `json:"user"`
	}
	err := c.call(ctx, http.MethodPost, "/sign-up/email", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("email")
		e.Str(f.Email)
		e.FieldStart("password")
		e.Str(f.Password)
		e.FieldStart("name")
		e.Str(f.Name)
		e.FieldStart("role")
		e.Str(string(f.Role))
		if f.Image != "" {
			e.FieldStart("image")
			e.Str(f.Image)
		}
		e.ObjEnd()
	}, &out)
	if err != nil {
		return nil, err
	}
	c.persist(ctx)
	c.lg.Info("Signed up", zap.String("user_id", out.User.ID), zap.String("role", string(out.User.Role)))
	return &out.User, nil
}

// SignOut ends the session. Local cookies are dropped even when the
// service cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/sign-out", emptyObject, nil)
	c.forget(ctx)
	return err
}

// ChangePassword replaces the password and revokes every other session.
func (c *Client) ChangePassword(ctx context.Context, f user.ChangePasswordForm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	err := c.call(ctx, http.MethodPost, "/change-password", func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("currentPassword")
		e.Str(f.CurrentPassword)
		e.FieldStart("newPassword")
		e.Str(f.NewPassword)
		e.FieldStart("revokeOtherSessions")
		e.Bool(true)
		e.ObjEnd()
	}, nil)
	if err != nil {
		return err
	}
	// The service rotates the session token.
	c.persist(ctx)
	return nil
}

// UpdateUser changes the name and image held by the auth service.
func (c *Client) UpdateUser(ctx context.Context, name, image string) error {
	return c.call(ctx, http.MethodPost, "/update-user", func(e *jx.Encoder) {
		e.ObjStart()
		if name != "" {
			e.FieldStart("name")
			e.Str(name)
		}
		if image != "" {
			e.FieldStart("image")
			e.Str(image)
		}
		e.ObjEnd()
	}, nil)
}

// Session returns the signed-in user, or nil when there is none.
func (c *Client) Session(ctx context.Context) (*user.Session, error) {
	var out *struct {
		User    user.User `json:"user"`
		Session struct {
			ExpiresAt time.Time `json:"expiresAt"`
		} `json:"session"`
	}
	if err := c.call(ctx, http.MethodGet, "/get-session", nil, &out); err != nil {
		return nil, err
	}
	if out == nil || out.User.ID == "" {
		return nil, nil
	}
	return &user.Session{User: out.User, ExpiresAt: out.Session.ExpiresAt}, nil
}

// RequireSession is Session that reports ErrNoSession instead of nil.
func (c *Client) RequireSession(ctx context.Context) (*user.Session, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, ErrNoSession
	}
	return s, nil
}

// Ping checks that the auth service answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Session(ctx)
	return err
}

func emptyObject(e *jx.Encoder) {
	e.ObjStart()
	e.ObjEnd()
}

func (c *Client) call(ctx context.Context, method, path string, body func(e *jx.Encoder), out any) error {
	u := c.base.JoinPath("api", "auth", path)

	var r io.Reader = http.NoBody
	if body != nil {
		e := &jx.Encoder{}
		body(e)
		r = bytes.NewReader(e.Bytes())
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), r)
	if err != nil {
		return errors.Wrap(err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	// The service checks the origin of state-changing requests.
	req.Header.Set("Origin", c.base.Scheme+"://"+c.base.Host)

	resp, err := c.http.Do(req)
	if err != nil {
		return &api.NetworkError{Method: method, Path: "/auth" + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &api.NetworkError{Method: method, Path: "/auth" + path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg struct {
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &msg)
		c.lg.Debug("Auth error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg.Message),
		)
		return &api.Error{Status: resp.StatusCode, Method: method, Path: "/auth" + path, Message: msg.Message}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "decode %s", path)
	}
	return nil
}
