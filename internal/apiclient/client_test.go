package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BruksfildServices01/clientflow/internal/config"
	"github.com/BruksfildServices01/clientflow/internal/httperr"
	"github.com/BruksfildServices01/clientflow/internal/models"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

type countingHandler struct {
	calls atomic.Int32
}

func (h *countingHandler) HandleUnauthorized(context.Context) { h.calls.Add(1) }

func newTestClient(t *testing.T, srv *httptest.Server, opts ...Option) *Client {
	t.Helper()
	base := []Option{WithHTTPClient(srv.Client()), WithLogger(zaptest.NewLogger(t))}
	return New(srv.URL+"/api/", append(base, opts...)...)
}

func TestBearerHeaderAttachedWhenTokenPresent(t *testing.T) {
	var gotAuth, gotQueryToken, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQueryToken = r.URL.Query().Get("token")
		gotRequestID = r.Header.Get("X-Request-ID")
		_, _ = io.WriteString(w, `{"status":"success","data":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithTokenSource(staticToken("abc")))
	_, err := c.Clients().List(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", gotAuth)
	assert.Empty(t, gotQueryToken)
	assert.NotEmpty(t, gotRequestID)
}

func TestNoTokenDoesNotBlockRequest(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, WithTokenSource(staticToken("")))
	items, err := c.Appointments().List(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, 1, hits)
}

func TestAuthModes(t *testing.T) {
	tests := []struct {
		mode       string
		wantHeader string
		wantQuery  string
	}{
		{mode: config.AuthModeHeader, wantHeader: "Bearer tk", wantQuery: ""},
		{mode: config.AuthModeQuery, wantHeader: "", wantQuery: "tk"},
		{mode: config.AuthModeBoth, wantHeader: "Bearer tk", wantQuery: "tk"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, tt.wantHeader, r.Header.Get("Authorization"))
				assert.Equal(t, tt.wantQuery, r.URL.Query().Get("token"))
				assert.Equal(t, "30d", r.URL.Query().Get("period"))
				_, _ = io.WriteString(w, `{"status":"success","data":{"total":1}}`)
			}))
			defer srv.Close()

			c := newTestClient(t, srv, WithTokenSource(staticToken("tk")), WithAuthMode(tt.mode))
			out, err := c.Dashboard().Analytics(context.Background(), "30d")
			require.NoError(t, err)
			assert.Equal(t, float64(1), out["total"])
		})
	}
}

func TestUnauthorizedTriggersHandlerOncePerResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"detail":"Token inválido"}`)
	}))
	defer srv.Close()

	h := &countingHandler{}
	c := newTestClient(t, srv, WithTokenSource(staticToken("old")), WithUnauthorizedHandler(h))

	_, err := c.Company().Me(context.Background())
	require.Error(t, err)
	assert.True(t, httperr.IsUnauthorized(err))
	assert.Equal(t, "Token inválido", httperr.Message(err, ""))
	assert.Equal(t, int32(1), h.calls.Load())

	_, err = c.Clients().Get(context.Background(), 7)
	require.Error(t, err)
	assert.Equal(t, int32(2), h.calls.Load())
}

func TestWithoutInterceptionSkipsHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	h := &countingHandler{}
	c := newTestClient(t, srv, WithTokenSource(staticToken("old")), WithUnauthorizedHandler(h))

	err := c.Auth().Logout(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(0), h.calls.Load())
}

func TestValidationErrorKeepsStatusAndMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, `{"detail":[{"msg":"nome obrigatório"},{"msg":"telefone inválido"}]}`)
	}))
	defer srv.Close()

	h := &countingHandler{}
	c := newTestClient(t, srv, WithUnauthorizedHandler(h))

	_, err := c.Clients().Create(context.Background(), map[string]any{"nome": ""})
	require.Error(t, err)
	assert.True(t, httperr.IsStatus(err, http.StatusUnprocessableEntity))
	assert.Equal(t, "nome obrigatório; telefone inválido", httperr.Message(err, ""))
	assert.Equal(t, int32(0), h.calls.Load())
}

func TestLoginParsesEnvelopeAndCompany(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/empresas/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ana@loja.com", body["email_login"])
		assert.Equal(t, "s3nha", body["senha"])

		_, _ = io.WriteString(w, `{
			"status":"success",
			"message":"Login realizado com sucesso",
			"data":{
				"access_token":"acc","refresh_token":"ref","token_type":"bearer","token":"acc",
				"empresa":{"id":4,"nome_empresa":"Loja da Ana","nicho":"moda","email_login":"ana@loja.com","plano_empresa":"pro"}
			}
		}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv).Auth().Login(context.Background(), "ana@loja.com", "s3nha")
	require.NoError(t, err)
	assert.Equal(t, "acc", res.AccessToken)
	assert.Equal(t, "ref", res.RefreshToken)
	assert.Equal(t, int64(4), res.Company.ID)
	assert.Equal(t, "Loja da Ana", res.Company.Name)
	assert.Equal(t, "pro", res.Company.Plan())
}

func TestLoginCompanyFromPayloadItself(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token":"only-token","id":2,"nome_empresa":"Studio"}`)
	}))
	defer srv.Close()

	res, err := newTestClient(t, srv).Auth().Login(context.Background(), "a@b.com", "x")
	require.NoError(t, err)
	assert.Equal(t, "only-token", res.AccessToken)
	assert.Equal(t, int64(2), res.Company.ID)
	assert.Equal(t, "Studio", res.Company.Name)
}

func TestAppointmentDateFieldIsNotMistakenForEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"id":3,"status":"agendado","data":"2026-10-17T10:00:00"}`)
	}))
	defer srv.Close()

	apt, err := newTestClient(t, srv).Appointments().Get(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-17T10:00:00", apt.Date)
	assert.Equal(t, "agendado", apt.Status)
}

func TestUploadLogoSendsMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/empresas/logo", r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "logo.webp", hdr.Filename)
		assert.Equal(t, "img-bytes", string(data))
		_, _ = io.WriteString(w, `{"status":"success","data":{"logo_url":"/uploads/logos/4.webp","filename":"logo.webp"}}`)
	}))
	defer srv.Close()

	u, err := newTestClient(t, srv).Company().UploadLogo(context.Background(), "logo.webp", strings.NewReader("img-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/logos/4.webp", u)
}

func TestRecordsRoundTripRawFields(t *testing.T) {
	var put map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			_, _ = io.WriteString(w, `{"status":"success","data":{"id":5,"nome":"Rita","valor":120}}`)
		case http.MethodPut:
			require.NoError(t, json.NewDecoder(r.Body).Decode(&put))
			_, _ = io.WriteString(w, `{"status":"success","data":null}`)
		}
	}))
	defer srv.Close()

	records := newTestClient(t, srv).Records()
	rec, err := records.Get(context.Background(), KindClient, 5)
	require.NoError(t, err)
	assert.Equal(t, "Rita", rec["nome"])

	require.NoError(t, records.Put(context.Background(), KindClient, 5, map[string]any{"nome": "Rita S.", "valor": 150}))
	assert.Equal(t, "Rita S.", put["nome"])
	assert.Equal(t, float64(150), put["valor"])
}

func TestPlansUnwrapsCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status":"success","data":{"plans":[{"tier":"free","name":"Free","price_monthly":0},{"tier":"pro","name":"Pro","price_monthly":99}]}}`)
	}))
	defer srv.Close()

	plans, err := newTestClient(t, srv).Subscriptions().Plans(context.Background())
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, models.Plan{Tier: "pro", Name: "Pro", PriceMonthly: 99}, plans[1])
}

func TestRefreshIsNotIntercepted(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/empresas/refresh", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["refresh_token"] != "ref-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"status":"success","data":{"access_token":"acc-2","refresh_token":"ref-2","token_type":"bearer"}}`)
	}))
	defer srv.Close()

	h := &countingHandler{}
	auth := newTestClient(t, srv, WithUnauthorizedHandler(h)).Auth()

	access, refresh, err := auth.Refresh(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, "acc-2", access)
	assert.Equal(t, "ref-2", refresh)

	_, _, err = auth.Refresh(context.Background(), "stale")
	assert.True(t, httperr.IsUnauthorized(err))
	assert.Equal(t, int32(0), h.calls.Load())
}
