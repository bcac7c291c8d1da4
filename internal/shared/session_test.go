package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewSessionManager(client, "test_session", "secret", time.Hour, false), mr
}

func commit(t *testing.T, sm *SessionManager, sess *Session) *http.Cookie {
	t.Helper()
	res := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	require.NoError(t, sm.Commit(context.Background(), res, req, sess))
	cookies := res.Result().Cookies()
	if len(cookies) == 0 {
		return nil
	}
	return cookies[0]
}

func TestSessionRoundTrip(t *testing.T) {
	sm, _ := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	require.Zero(t, sess.UserID())

	sess.BindUser(7)
	cookie := commit(t, sm, sess)
	require.NotNil(t, cookie)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookie)
	loaded, err := sm.Load(context.Background(), again)
	require.NoError(t, err)
	require.Equal(t, int64(7), loaded.UserID())
	require.Equal(t, sess.ID, loaded.ID)
}

func TestSessionTamperedCookieIsAnonymous(t *testing.T) {
	sm, _ := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.BindUser(7)
	cookie := commit(t, sm, sess)

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value + "x"})
	loaded, err := sm.Load(context.Background(), forged)
	require.NoError(t, err)
	require.Zero(t, loaded.UserID())
	require.NotEqual(t, sess.ID, loaded.ID)
}

func TestUntouchedAnonymousSessionGetsNoCookie(t *testing.T) {
	sm, mr := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	require.Nil(t, commit(t, sm, sess))
	require.Empty(t, mr.Keys())
}

func TestDestroyRemovesRecordAndExpiresCookie(t *testing.T) {
	sm, mr := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.BindUser(7)
	commit(t, sm, sess)
	require.Len(t, mr.Keys(), 1)

	sm.Destroy(sess)
	cookie := commit(t, sm, sess)
	require.NotNil(t, cookie)
	require.Negative(t, cookie.MaxAge)
	require.Empty(t, mr.Keys())
}

func TestRotateDropsOldRecord(t *testing.T) {
	sm, mr := newManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	sess.BindUser(7)
	cookie := commit(t, sm, sess)

	again := httptest.NewRequest(http.MethodGet, "/", nil)
	again.AddCookie(cookie)
	loaded, err := sm.Load(context.Background(), again)
	require.NoError(t, err)

	oldID := loaded.ID
	sm.Rotate(loaded)
	require.NotEqual(t, oldID, loaded.ID)
	commit(t, sm, loaded)

	require.Equal(t, []string{sessionKeyPrefix + loaded.ID}, mr.Keys())
	require.Equal(t, int64(7), loaded.UserID())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm, _ := newManager(t)
	cm := NewCSRFManager("csrfsecret")

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)

	token, err := cm.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	repeat, err := cm.EnsureToken(context.Background(), sess)
	require.NoError(t, err)
	require.Equal(t, token, repeat)

	require.NoError(t, cm.VerifyToken(context.Background(), sess, token))
	require.ErrorIs(t, cm.VerifyToken(context.Background(), sess, "bogus"), ErrCSRFTokenMismatch)
	require.ErrorIs(t, cm.VerifyToken(context.Background(), sess, ""), ErrCSRFTokenMissing)
	require.ErrorIs(t, cm.VerifyToken(context.Background(), nil, token), ErrCSRFTokenMissing)
}
