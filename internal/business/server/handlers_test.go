package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawskey/ceremony-manager/internal/broker"
	brokermock "github.com/pawskey/ceremony-manager/internal/broker/mock"
	"github.com/pawskey/ceremony-manager/internal/ceremony"
	"github.com/pawskey/ceremony-manager/internal/config"
	"github.com/pawskey/ceremony-manager/internal/session"
	sessionmock "github.com/pawskey/ceremony-manager/internal/session/mock"
)

const testRegistrationTemplate = `{
	"rp": {"id": "pawskey.example", "name": "Pawskey"},
	"user": {"id": "<userId>", "name": "<userName>", "displayName": "<userDisplayName>"},
	"challenge": "<challenge>",
	"pubKeyCredParams": [{"type": "public-key", "alg": -7}]
}`

const testAssertionTemplate = `{"challenge": "fixed", "rpId": "pawskey.example"}`

type staticTemplates struct{}

func (staticTemplates) Registration(context.Context) (string, error) {
	return testRegistrationTemplate, nil
}

func (staticTemplates) Authentication(context.Context) (string, error) {
	return testAssertionTemplate, nil
}

type testEnv struct {
	handler http.Handler
	session *session.State
}

func newTestEnv(t *testing.T, b broker.Broker) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	require.NoError(t, initMeters(context.Background(), cfg))

	sess := session.NewState(sessionmock.NewInMemRepository())
	require.NoError(t, sess.Load(context.Background()))

	manager := ceremony.NewManager(staticTemplates{}, b, sess,
		ceremony.WithObserver(NewCookieObserver(sess)))

	return &testEnv{
		handler: createHTTPServer(context.Background(), cfg, manager, sess, []byte("test-csrf-key")).Handler,
		session: sess,
	}
}

func (e *testEnv) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	for key, vals := range header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func decodeCeremonyResponse(t *testing.T, rec *httptest.ResponseRecorder) ceremonyResponse {
	t.Helper()

	var resp ceremonyResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	return resp
}

func TestRegistrationEndpoint(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	rec := env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeCeremonyResponse(t, rec)
	assert.Equal(t, "succeeded", resp.Outcome)
	assert.NotEmpty(t, resp.Credential)
	assert.NotEmpty(t, resp.CSRFToken)

	assert.True(t, env.session.IsSignedIn())
	assert.Equal(t, session.MethodPasskey, env.session.CurrentMethod())

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.Equal(t, env.session.Snapshot().SessionID, cookies[0].Value)
}

func TestRegistrationEndpoint_EmptyUserName(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	rec := env.do(http.MethodPost, "/v1/registration", registrationRequest{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.session.IsSignedIn())
}

func TestRegistrationEndpoint_InvalidBody(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	req := httptest.NewRequest(http.MethodPost, "/v1/registration", bytes.NewBufferString("not-json"))
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationEndpoint_Cancelled(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker(brokermock.WithCreateError(
		broker.NewError(broker.CategoryCancelled, "user backed out"),
	)))

	rec := env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeCeremonyResponse(t, rec)
	assert.Equal(t, "cancelled", resp.Outcome)
	assert.Empty(t, resp.Message)
	assert.False(t, env.session.IsSignedIn())
}

func TestRegistrationEndpoint_Interrupted(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker(brokermock.WithCreateError(
		broker.NewError(broker.CategoryInterrupted, "provider restarted"),
	)))

	rec := env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeCeremonyResponse(t, rec)
	assert.Equal(t, "failed", resp.Outcome)
	assert.Equal(t, string(ceremony.KindProviderInterrupted), resp.Kind)
	assert.True(t, resp.Retryable)
	assert.NotEmpty(t, resp.Message)
}

func TestAuthenticationEndpoint(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	rec := env.do(http.MethodPost, "/v1/authentication", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decodeCeremonyResponse(t, rec)
	assert.Equal(t, "succeeded", resp.Outcome)
	assert.True(t, env.session.IsSignedIn())
}

func TestSessionEndpoint(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	rec := env.do(http.MethodGet, "/v1/session", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.SignedIn)
	assert.Equal(t, string(session.MethodNone), resp.Method)

	env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil)

	rec = env.do(http.MethodGet, "/v1/session", nil, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.SignedIn)
	assert.Equal(t, string(session.MethodPasskey), resp.Method)
}

func TestLogoutEndpoint(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	reg := decodeCeremonyResponse(t, env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil))
	require.True(t, env.session.IsSignedIn())

	rec := env.do(http.MethodPost, "/v1/logout", nil, http.Header{"X-Csrf-Token": []string{reg.CSRFToken}})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, env.session.IsSignedIn())
}

func TestLogoutEndpoint_InvalidToken(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	env.do(http.MethodPost, "/v1/registration", registrationRequest{UserName: "ada"}, nil)
	require.True(t, env.session.IsSignedIn())

	rec := env.do(http.MethodPost, "/v1/logout", nil, http.Header{"X-Csrf-Token": []string{"forged"}})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.True(t, env.session.IsSignedIn())
}

func TestPingEndpoint(t *testing.T) {
	env := newTestEnv(t, brokermock.NewBroker())

	rec := env.do(http.MethodGet, "/ping", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": "ping"}`, rec.Body.String())
}
