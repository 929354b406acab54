package session

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BruksfildServices01/clientflow/internal/events"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
	"github.com/BruksfildServices01/clientflow/internal/storage"
)

type fakeAuth struct {
	result    *models.LoginResult
	err       error
	logouts   int
	lastEmail string
}

func (f *fakeAuth) Login(_ context.Context, email, _ string) (*models.LoginResult, error) {
	f.lastEmail = email
	return f.result, f.err
}

func (f *fakeAuth) Logout(context.Context) error {
	f.logouts++
	return nil
}

func newTestService(t *testing.T, st storage.Storage, auth Authenticator) (*Service, *Store, *events.Bus) {
	t.Helper()
	log := zaptest.NewLogger(t)
	bus := events.NewBus(log)
	store := NewStore(st, bus, log)
	return NewService(store, auth, log), store, bus
}

func TestLoginPersistsAndRestores(t *testing.T) {
	st := storage.NewMemoryStorage()
	auth := &fakeAuth{result: &models.LoginResult{
		AccessToken:  "access-1",
		RefreshToken: "refresh-1",
		Company:      models.Company{ID: 9, Name: "Oficina Zé", Email: "ze@oficina.com", PlanTier: "pro"},
	}}
	svc, store, _ := newTestService(t, st, auth)

	company, err := svc.Login(context.Background(), Credentials{Email: "  ZE@Oficina.com ", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), company.ID)
	assert.Equal(t, "ze@oficina.com", auth.lastEmail)
	assert.Equal(t, "access-1", store.Token())

	restored, err := NewStore(st, nil, nil).Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, restored.Authenticated())
	assert.Equal(t, "access-1", restored.Token)
	assert.Equal(t, "refresh-1", restored.RefreshToken)
	require.NotNil(t, restored.Company)
	assert.Equal(t, "Oficina Zé", restored.Company.Name)
}

func TestLoginFailureNeverWritesToken(t *testing.T) {
	st := storage.NewMemoryStorage()
	apiErr := httperr.NewAPIError(http.MethodPost, "/empresas/login", http.StatusUnauthorized,
		[]byte(`{"status":"error","detail":"Email ou senha incorretos"}`))
	svc, store, _ := newTestService(t, st, &fakeAuth{err: apiErr})

	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	require.Error(t, err)

	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Equal(t, "Email ou senha incorretos", loginErr.Message)
	assert.Equal(t, 0, st.Len())
	assert.False(t, store.Current().Authenticated())
}

func TestLoginErrorMessageFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{name: "message field", err: httperr.NewAPIError("POST", "/empresas/login", 400, []byte(`{"message":"Empresa inativa"}`)), expected: "Empresa inativa"},
		{name: "no message", err: httperr.NewAPIError("POST", "/empresas/login", 500, []byte(`{}`)), expected: "Erro ao fazer login"},
		{name: "network", err: errors.New("connection refused"), expected: "Erro ao fazer login"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t, storage.NewMemoryStorage(), &fakeAuth{err: tt.err})
			_, err := svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
			assert.EqualError(t, err, tt.expected)
		})
	}
}

func TestLoginRejectsInvalidCredentialsLocally(t *testing.T) {
	auth := &fakeAuth{}
	svc, _, _ := newTestService(t, storage.NewMemoryStorage(), auth)

	_, err := svc.Login(context.Background(), Credentials{Email: "not-an-email", Password: ""})
	require.Error(t, err)
	assert.Empty(t, auth.lastEmail)
}

func TestLoginEmailDomainCheck(t *testing.T) {
	auth := &fakeAuth{result: &models.LoginResult{AccessToken: "t", Company: models.Company{ID: 1}}}
	log := zaptest.NewLogger(t)
	store := NewStore(storage.NewMemoryStorage(), events.NewBus(log), log)

	var checked string
	svc := NewService(store, auth, log, WithEmailDomainCheck(func(email string) bool {
		checked = email
		return false
	}))

	_, err := svc.Login(context.Background(), Credentials{Email: "Ana@Nowhere.test", Password: "x"})
	var loginErr *LoginError
	require.ErrorAs(t, err, &loginErr)
	assert.Contains(t, loginErr.Message, "domínio")
	assert.Equal(t, "ana@nowhere.test", checked)
	assert.Empty(t, auth.lastEmail)
}

func TestLoginRejectsEmptyToken(t *testing.T) {
	st := storage.NewMemoryStorage()
	svc, _, _ := newTestService(t, st, &fakeAuth{result: &models.LoginResult{}})

	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.com", Password: "x"})
	assert.EqualError(t, err, "Resposta inválida do servidor")
	assert.Equal(t, 0, st.Len())
}

func TestUnauthorizedClearsSessionIdempotently(t *testing.T) {
	st := storage.NewMemoryStorage()
	_, store, bus := newTestService(t, st, &fakeAuth{})
	ctx := context.Background()

	require.NoError(t, store.MarkOnboardingSeen(ctx))
	require.NoError(t, store.Save(ctx, Session{Token: "t", RefreshToken: "r", Company: &models.Company{ID: 1}}))

	ch, cancel := bus.Subscribe(4)
	defer cancel()

	store.HandleUnauthorized(ctx)
	store.HandleUnauthorized(ctx)

	for _, key := range storage.SessionKeys {
		_, ok, err := st.Get(ctx, key)
		require.NoError(t, err)
		assert.False(t, ok, key)
	}
	seen, err := store.OnboardingSeen(ctx)
	require.NoError(t, err)
	assert.True(t, seen)
	assert.Equal(t, "", store.Token())

	assert.Equal(t, events.KindLogout, (<-ch).Kind)
	assert.Equal(t, events.KindLogout, (<-ch).Kind)
	assert.Len(t, ch, 0)
}

func TestLogoutIsIdempotent(t *testing.T) {
	auth := &fakeAuth{}
	svc, store, _ := newTestService(t, storage.NewMemoryStorage(), auth)
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 0, auth.logouts)

	require.NoError(t, store.Save(ctx, Session{Token: "t", Company: &models.Company{ID: 1}}))
	require.NoError(t, svc.Logout(ctx))
	require.NoError(t, svc.Logout(ctx))
	assert.Equal(t, 1, auth.logouts)

	sess, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestRestoreRequiresTokenAndUser(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.SetMany(ctx, map[string]string{storage.KeyToken: "orphan"}))

	sess, err := NewStore(st, nil, nil).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}

func TestRestoreDropsExpiredJWT(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken: expired,
		storage.KeyUser:  `{"id":1,"nome_empresa":"X"}`,
	}))

	sess, err := NewStore(st, nil, nil).Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	_, ok, _ := st.Get(ctx, storage.KeyToken)
	assert.False(t, ok)
}

func TestRestoreKeepsValidJWT(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()

	valid, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken: valid,
		storage.KeyUser:  `{"id":1,"nome_empresa":"X"}`,
	}))

	sess, err := NewStore(st, nil, nil).Restore(ctx)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
}

type fakeRefresher struct {
	access, refresh string
	err             error
	got             []string
}

func (f *fakeRefresher) Refresh(_ context.Context, refreshToken string) (string, string, error) {
	f.got = append(f.got, refreshToken)
	return f.access, f.refresh, f.err
}

func expiredToken(t *testing.T) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func TestRestoreRenewsExpiredJWTWithRefreshToken(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken:        expiredToken(t),
		storage.KeyRefreshToken: "ref-1",
		storage.KeyUser:         `{"id":1,"nome_empresa":"X"}`,
	}))

	ref := &fakeRefresher{access: "acc-2", refresh: "ref-2"}
	store := NewStore(st, nil, zaptest.NewLogger(t))
	store.UseRefresher(ref)

	sess, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ref-1"}, ref.got)
	assert.True(t, sess.Authenticated())
	assert.Equal(t, "acc-2", sess.Token)
	assert.Equal(t, "X", sess.Company.Name)
	assert.Equal(t, "acc-2", store.Token())

	tok, _, _ := st.Get(ctx, storage.KeyToken)
	assert.Equal(t, "acc-2", tok)
	rt, _, _ := st.Get(ctx, storage.KeyRefreshToken)
	assert.Equal(t, "ref-2", rt)
}

func TestRestoreKeepsRefreshTokenWhenNotRotated(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken:        expiredToken(t),
		storage.KeyRefreshToken: "ref-1",
		storage.KeyUser:         `{"id":1,"nome_empresa":"X"}`,
	}))

	store := NewStore(st, nil, nil)
	store.UseRefresher(&fakeRefresher{access: "acc-2"})

	sess, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ref-1", sess.RefreshToken)
}

func TestRestoreClearsWhenRefreshFails(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken:        expiredToken(t),
		storage.KeyRefreshToken: "ref-1",
		storage.KeyUser:         `{"id":1,"nome_empresa":"X"}`,
	}))

	store := NewStore(st, nil, zaptest.NewLogger(t))
	store.UseRefresher(&fakeRefresher{err: httperr.NewAPIError(http.MethodPost, "/empresas/refresh", 401, nil)})

	sess, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	_, ok, _ := st.Get(ctx, storage.KeyToken)
	assert.False(t, ok)
	_, ok, _ = st.Get(ctx, storage.KeyRefreshToken)
	assert.False(t, ok)
}

func TestRestoreWithoutRefreshTokenSkipsRefresher(t *testing.T) {
	st := storage.NewMemoryStorage()
	ctx := context.Background()
	require.NoError(t, st.SetMany(ctx, map[string]string{
		storage.KeyToken: expiredToken(t),
		storage.KeyUser:  `{"id":1,"nome_empresa":"X"}`,
	}))

	ref := &fakeRefresher{access: "acc-2"}
	store := NewStore(st, nil, nil)
	store.UseRefresher(ref)

	sess, err := store.Restore(ctx)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Empty(t, ref.got)
}
