package shared

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "peerchamps:sess:"

// SessionManager issues cookie sessions whose state lives server-side in
// Redis. The cookie carries an opaque id signed with the session secret, so
// a forged id is rejected before Redis is consulted.
type SessionManager struct {
	client *redis.Client
	cookie string
	ttl    time.Duration
	secure bool
	secret []byte
}

// Session is the per-request view of one browser session: the bound user,
// the CSRF token, and write-back bookkeeping.
type Session struct {
	ID      string
	userID  int64
	csrf    string
	fresh   bool
	dirty   bool
	revoked bool
	staleID string
}

type sessionRecord struct {
	UserID int64  `json:"uid,omitempty"`
	CSRF   string `json:"csrf,omitempty"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName string, secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client: client,
		cookie: cookieName,
		ttl:    ttl,
		secure: secure,
		secret: []byte(secret),
	}
}

// Load resolves the request's session. Absent, tampered or expired cookies
// all yield a fresh anonymous session.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(sm.cookie)
	if err != nil {
		return sm.anonymous(), nil
	}
	id, ok := sm.verify(cookie.Value)
	if !ok {
		return sm.anonymous(), nil
	}
	data, err := sm.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return sm.anonymous(), nil
	}
	if err != nil {
		return nil, err
	}
	var rec sessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return sm.anonymous(), nil
	}
	return &Session{ID: id, userID: rec.UserID, csrf: rec.CSRF}, nil
}

// Commit writes session state back to Redis and refreshes the cookie.
// Untouched anonymous sessions never earn a cookie; revoked sessions are
// deleted and their cookie cleared. Unmodified live sessions slide their
// expiry forward instead of rewriting the record.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, r *http.Request, sess *Session) error {
	if sess == nil {
		return nil
	}
	key := sessionKeyPrefix + sess.ID

	if sess.revoked {
		if err := sm.client.Del(ctx, key).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		http.SetCookie(w, sm.cookieFor("", -1))
		return nil
	}

	if sess.fresh && !sess.dirty {
		return nil
	}

	if sess.staleID != "" {
		if err := sm.client.Del(ctx, sessionKeyPrefix+sess.staleID).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sess.staleID = ""
	}

	if sess.dirty {
		data, err := json.Marshal(sessionRecord{UserID: sess.userID, CSRF: sess.csrf})
		if err != nil {
			return err
		}
		if err := sm.client.Set(ctx, key, data, sm.ttl).Err(); err != nil {
			return err
		}
		sess.dirty = false
		sess.fresh = false
	} else {
		sm.client.Expire(ctx, key, sm.ttl)
	}

	http.SetCookie(w, sm.cookieFor(sm.sign(sess.ID), int(sm.ttl/time.Second)))
	return nil
}

// Rotate issues a new session id while keeping bound state, deleting the
// old record on the next commit. Called after login so a pre-auth cookie
// cannot be replayed into an authenticated session.
func (sm *SessionManager) Rotate(sess *Session) {
	if sess == nil || sess.fresh {
		return
	}
	sess.staleID = sess.ID
	sess.ID = uuid.NewString()
	sess.dirty = true
}

// Destroy marks the session for deletion on commit.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.revoked = true
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// CookieName returns the cookie identifier used for sessions.
func (sm *SessionManager) CookieName() string {
	return sm.cookie
}

// BindUser attaches a signed-in user to the session.
func (s *Session) BindUser(id int64) {
	s.userID = id
	s.dirty = true
}

// Unbind detaches the user, keeping the session itself alive.
func (s *Session) Unbind() {
	s.userID = 0
	s.dirty = true
}

// UserID returns the bound user id, zero when anonymous.
func (s *Session) UserID() int64 {
	return s.userID
}

// CSRFToken returns the token minted for this session, empty when none.
func (s *Session) CSRFToken() string {
	return s.csrf
}

// SetCSRFToken stores the per-session CSRF token.
func (s *Session) SetCSRFToken(token string) {
	s.csrf = token
	s.dirty = true
}

func (sm *SessionManager) anonymous() *Session {
	return &Session{ID: uuid.NewString(), fresh: true}
}

func (sm *SessionManager) cookieFor(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     sm.cookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (sm *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return id + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

func (sm *SessionManager) verify(value string) (string, bool) {
	id, sig, found := strings.Cut(value, ".")
	if !found || id == "" {
		return "", false
	}
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	want := base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(sig), []byte(want)) {
		return "", false
	}
	return id, true
}
