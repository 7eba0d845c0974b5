package server_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/tiny-orders-web/internal/config"
	"github.com/jrsteele09/tiny-orders-web/server"
	"github.com/jrsteele09/tiny-orders-web/server/websession"
)

const (
	testClientID      = "test-client-1"
	testClientSecret  = "test-secret-1"
	testRedirectURI   = "http://localhost:8000/callback"
	testAuthURL       = "https://erp.tiny.com.br/authorize"
	testSessionSecret = "test-session-secret"
)

// tokenServer is a fake Tiny token endpoint with a settable response
type tokenServer struct {
	*httptest.Server
	status int
	body   string
	calls  int
}

// ordersAPI is a fake Tiny orders endpoint that records what it was sent
type ordersAPI struct {
	*httptest.Server
	body        string
	calls       int
	lastAuth    string
	lastRequest *http.Request
}

type testFixture struct {
	srv    *server.Server
	repo   *websession.InMemorySessionRepo
	tokens *tokenServer
	orders *ordersAPI
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	tokens := &tokenServer{
		status: http.StatusOK,
		body:   `{"access_token":"T1","token_type":"Bearer"}`,
	}
	tokens.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokens.calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(tokens.status)
		_, _ = w.Write([]byte(tokens.body))
	}))
	t.Cleanup(tokens.Close)

	api := &ordersAPI{
		body: `{"paginacao":{"total":2},"itens":[{"id":1},{"id":2}]}`,
	}
	api.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.calls++
		api.lastAuth = r.Header.Get("Authorization")
		api.lastRequest = r.Clone(r.Context())
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(api.body))
	}))
	t.Cleanup(api.Close)

	t.Setenv("CLIENT_ID", testClientID)
	t.Setenv("CLIENT_SECRET", testClientSecret)
	t.Setenv("REDIRECT_URI", testRedirectURI)
	t.Setenv("AUTHORIZATION_URL", testAuthURL)
	t.Setenv("TOKEN_URL", tokens.URL)
	t.Setenv("SESSION_SECRET", testSessionSecret)
	t.Setenv("API_BASE_URL", api.URL)
	t.Setenv("ENV", "TEST")

	repo := websession.NewInMemorySessionRepo()
	return &testFixture{
		srv:    server.New(config.New(), repo),
		repo:   repo,
		tokens: tokens,
		orders: api,
	}
}

// get performs a request against the server under test, carrying cookies
func (f *testFixture) get(t *testing.T, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)
	return rec
}

// login drives GET /login and returns the session cookie plus the state
// nonce embedded in the authorization redirect
func (f *testFixture) login(t *testing.T) (*http.Cookie, string) {
	t.Helper()

	rec := f.get(t, "/login")
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := location.Query().Get("state")
	require.NotEmpty(t, state)

	var sessionCookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "tinySessionId" {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie, "login must set the session cookie")
	return sessionCookie, state
}

// authenticate runs login plus a successful callback
func (f *testFixture) authenticate(t *testing.T) *http.Cookie {
	t.Helper()
	cookie, state := f.login(t)
	rec := f.get(t, "/callback?state="+url.QueryEscape(state)+"&code=auth-code-1", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	return cookie
}

func TestIndexAnonymous(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "not logged in")
	assert.Contains(t, rec.Body.String(), "/login")
}

func TestLoginRedirectsToAuthorizationServer(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.get(t, "/login")
	require.Equal(t, http.StatusFound, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "erp.tiny.com.br", location.Host)
	assert.Equal(t, "/authorize", location.Path)

	q := location.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, testClientID, q.Get("client_id"))
	assert.Equal(t, testRedirectURI, q.Get("redirect_uri"))
	assert.NotEmpty(t, q.Get("state"))
}

func TestLoginGeneratesFreshStatePerAttempt(t *testing.T) {
	f := setupTestFixture(t)

	_, state1 := f.login(t)
	_, state2 := f.login(t)
	assert.NotEqual(t, state1, state2)
}

func TestCallbackStateMismatch(t *testing.T) {
	f := setupTestFixture(t)

	cookie, _ := f.login(t)
	rec := f.get(t, "/callback?state=wrong&code=auth-code-1", cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.tokens.calls, "mismatched state must not reach the token endpoint")

	// no token was stored: fetch_orders still redirects to login
	rec = f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestCallbackWithoutSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.get(t, "/callback?state=anything&code=auth-code-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.tokens.calls)
}

func TestCallbackWithoutStateParam(t *testing.T) {
	f := setupTestFixture(t)

	cookie, _ := f.login(t)
	rec := f.get(t, "/callback?code=auth-code-1", cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.tokens.calls)
}

func TestCallbackSuccessStoresToken(t *testing.T) {
	f := setupTestFixture(t)

	cookie := f.authenticate(t)
	assert.Equal(t, 1, f.tokens.calls)

	// the stored token is now used against the orders API
	rec := f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer T1", f.orders.lastAuth)

	// home page reflects the authenticated session
	rec = f.get(t, "/", cookie)
	assert.Contains(t, rec.Body.String(), "logged in to Tiny ERP")
}

func TestCallbackConsumesState(t *testing.T) {
	f := setupTestFixture(t)

	cookie, state := f.login(t)
	rec := f.get(t, "/callback?state="+url.QueryEscape(state)+"&code=auth-code-1", cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	// the state was cleared on success, so replaying the callback fails
	rec = f.get(t, "/callback?state="+url.QueryEscape(state)+"&code=auth-code-1", cookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, f.tokens.calls)
}

func TestCallbackExchangeFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.tokens.status = http.StatusBadRequest
	f.tokens.body = `{"error":"invalid_grant"}`

	cookie, state := f.login(t)
	callback := "/callback?state=" + url.QueryEscape(state) + "&code=expired-code"

	rec := f.get(t, callback, cookie)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Error fetching token")

	// no token was stored
	rec = f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusFound, rec.Code)

	// the state survives a failed exchange, so the callback can be retried
	f.tokens.status = http.StatusOK
	f.tokens.body = `{"access_token":"T1","token_type":"Bearer"}`
	rec = f.get(t, callback, cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestFetchOrdersRequiresLogin(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.get(t, "/fetch_orders")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, f.orders.calls, "unauthenticated request must not call the API")
}

func TestFetchOrdersIgnoresForgedCookie(t *testing.T) {
	f := setupTestFixture(t)

	forged := &http.Cookie{Name: "tinySessionId", Value: "eyJhbGciOiJIUzI1NiJ9.forged.sig"}
	rec := f.get(t, "/fetch_orders", forged)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, f.orders.calls)
}

func TestFetchOrdersRendersOrders(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)

	rec := f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `&#34;id&#34;: 1`)
	assert.Contains(t, rec.Body.String(), `&#34;id&#34;: 2`)
}

func TestFetchOrdersDateFilter(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)

	rec := f.get(t, "/fetch_orders?date=2025-04-16", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.orders.lastRequest)
	assert.Equal(t, "2025-04-16", f.orders.lastRequest.URL.Query().Get("dataAtualizacao"))
	assert.Equal(t, "json", f.orders.lastRequest.URL.Query().Get("formato"))
}

func TestFetchOrdersDefaultsToToday(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)

	rec := f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.orders.lastRequest)
	today := time.Now().Format("2006-01-02")
	assert.Equal(t, today, f.orders.lastRequest.URL.Query().Get("dataAtualizacao"))
}

func TestFetchOrdersRendersAPIErrorInline(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)
	f.orders.body = `{"paginacao":{"total":0},"status":"Erro","erros":["bad date"]}`

	rec := f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusOK, rec.Code, "API errors render inline, not as HTTP failures")
	assert.Contains(t, rec.Body.String(), "API Error: bad date")
}

func TestFetchOrdersRendersUnexpectedShapeInline(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)
	f.orders.body = `{"paginacao":{"total":0},"status":"OK"}`

	rec := f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unexpected API status: OK")
}

func TestLogoutClearsSession(t *testing.T) {
	f := setupTestFixture(t)
	cookie := f.authenticate(t)

	rec := f.get(t, "/logout", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// the session is gone server-side even if the browser kept the cookie
	rec = f.get(t, "/fetch_orders", cookie)
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Zero(t, f.orders.calls, "no residual token may reach the API")
}

func TestLogoutWithoutSession(t *testing.T) {
	f := setupTestFixture(t)

	rec := f.get(t, "/logout")
	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}
