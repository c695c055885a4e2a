// Package session implements cookie sessions backed by Redis.  The cookie
// carries only an opaque id; the payload (logged-in user id plus pending
// flash notices) lives server side under a 7-day TTL.  Flash notices are
// one-shot: they are removed from the payload when read.
package session

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// CookieName is the name of the session cookie.
const CookieName = "session"

// TTL is how long a session (and its cookie) stays valid.
const TTL = 7 * 24 * time.Hour

const opTimeout = 3 * time.Second

// payload is the server-side session state stored as JSON in Redis.
type payload struct {
	UserID  uint64   `json:"user_id,omitempty"`
	Success []string `json:"success,omitempty"`
	Error   []string `json:"error,omitempty"`
}

// Manager reads and writes sessions for Echo requests.
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager { return &Manager{client: client} }

func key(id string) string { return "session:" + id }

// ctxKey tracks the active session id within one request, so a Flash
// issued right after Login (or after Logout) sees the rotated session
// even though the request cookie still carries the old id.
const ctxKey = "_session_id"

// currentID resolves the session id for the request: the id written
// earlier in this request wins over the request cookie.
func currentID(c echo.Context) (string, bool) {
	if v, ok := c.Get(ctxKey).(string); ok {
		return v, v != ""
	}
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// load returns the session id and payload for the request, or ok=false
// when the request carries no valid session.
func (m *Manager) load(c echo.Context) (string, payload, bool) {
	id, ok := currentID(c)
	if !ok {
		return "", payload{}, false
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), opTimeout)
	defer cancel()
	raw, err := m.client.Get(ctx, key(id)).Result()
	if err == redis.Nil {
		return "", payload{}, false
	}
	if err != nil {
		log.Printf("session: load failed: %v", err)
		return "", payload{}, false
	}
	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return "", payload{}, false
	}
	return id, p, true
}

// save writes the payload under id and refreshes the TTL and cookie.
func (m *Manager) save(c echo.Context, id string, p payload) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), opTimeout)
	defer cancel()
	if err := m.client.Set(ctx, key(id), raw, TTL).Err(); err != nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Expires:  time.Now().Add(TTL),
		MaxAge:   int(TTL / time.Second),
	})
	c.Set(ctxKey, id)
	return nil
}

// UserID reports the logged-in user id for the request, if any.
func (m *Manager) UserID(c echo.Context) (uint64, bool) {
	_, p, ok := m.load(c)
	if !ok || p.UserID == 0 {
		return 0, false
	}
	return p.UserID, true
}

// Login establishes a logged-in session for userID.  The session id is
// rotated so a pre-login cookie can never be replayed into an
// authenticated one; pending flash notices carry over.
func (m *Manager) Login(c echo.Context, userID uint64) error {
	oldID, p, ok := m.load(c)
	if ok {
		ctx, cancel := context.WithTimeout(c.Request().Context(), opTimeout)
		defer cancel()
		if err := m.client.Del(ctx, key(oldID)).Err(); err != nil && err != redis.Nil {
			log.Printf("session: drop old session failed: %v", err)
		}
	}
	p.UserID = userID
	return m.save(c, uuid.NewString(), p)
}

// Logout terminates the session and expires the cookie.  Flash notices
// added afterwards start a fresh anonymous session.
func (m *Manager) Logout(c echo.Context) error {
	id, _, ok := m.load(c)
	if !ok {
		return nil
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), opTimeout)
	defer cancel()
	if err := m.client.Del(ctx, key(id)).Err(); err != nil && err != redis.Nil {
		return err
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	c.Set(ctxKey, "")
	return nil
}

// Flash queues a one-shot notice for the next rendered page.  kind is
// "success" or "error".  A session is created on the fly for anonymous
// visitors so redirects can still carry a notice.  Failures are logged and
// swallowed; a lost notice must not fail the request.
func (m *Manager) Flash(c echo.Context, kind, message string) {
	id, p, ok := m.load(c)
	if !ok {
		id = uuid.NewString()
	}
	switch kind {
	case "success":
		p.Success = append(p.Success, message)
	default:
		p.Error = append(p.Error, message)
	}
	if err := m.save(c, id, p); err != nil {
		log.Printf("session: flash write failed: %v", err)
	}
}

// PopFlashes returns and clears the pending notices for the request.
func (m *Manager) PopFlashes(c echo.Context) (success, errs []string) {
	id, p, ok := m.load(c)
	if !ok || (len(p.Success) == 0 && len(p.Error) == 0) {
		return nil, nil
	}
	success, errs = p.Success, p.Error
	p.Success, p.Error = nil, nil
	if err := m.save(c, id, p); err != nil {
		log.Printf("session: flash clear failed: %v", err)
	}
	return success, errs
}
