package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/blackjack-go/internal/api"
	"github.com/mcoot/blackjack-go/internal/api/apierr"
	"github.com/mcoot/blackjack-go/internal/api/response"
	"github.com/mcoot/blackjack-go/internal/factory"
	"github.com/mcoot/blackjack-go/internal/testutil"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.TestApp
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	// The test app deals from an unshuffled shoe: hearts A, 2, 3, 4, ...
	app := factory.NewTestApp()

	router := api.NewRouter(api.RouterConfig{
		Logger:          testutil.NopLogger(),
		AuthService:     app.AuthService,
		RoundController: app.RoundController,
		AdminService:    app.AdminService,
		Profiles:        app.Storage,
	})

	return &testServer{handler: router, app: app}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func registerPlayer(t *testing.T, ts *testServer, username string) string {
	t.Helper()
	body := map[string]string{"username": username, "password": "secret", "confirm_password": "secret"}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.AuthResponse](t, rr).SessionToken
}

func operatorLogin(t *testing.T, ts *testServer) string {
	t.Helper()
	body := map[string]string{"operator": "carol", "password": factory.TestOperatorPassword}
	rr := ts.request(http.MethodPost, "/api/v1/admin/login", body, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	return decode[response.AuthResponse](t, rr).SessionToken
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRegisterAndLogin(t *testing.T) {
	ts := newTestServer(t)

	body := map[string]string{"username": "alice", "password": "secret", "confirm_password": "secret"}
	rr := ts.request(http.MethodPost, "/api/v1/players/register", body, "")
	require.Equal(t, http.StatusCreated, rr.Code)

	registered := decode[response.AuthResponse](t, rr)
	require.NotNil(t, registered.Profile)
	assert.Equal(t, int64(1000), registered.Profile.Balance)
	assert.False(t, registered.IsAdmin)
	assert.NotContains(t, rr.Body.String(), "password_hash")

	rr = ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{"username": "alice", "password": "secret"}, "")
	require.Equal(t, http.StatusOK, rr.Code)
	loggedIn := decode[response.AuthResponse](t, rr)
	assert.Equal(t, "alice", loggedIn.Username)
	assert.NotEqual(t, registered.SessionToken, loggedIn.SessionToken)
}

func TestRegisterValidation(t *testing.T) {
	ts := newTestServer(t)
	registerPlayer(t, ts, "alice")

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"duplicate", map[string]string{"username": "alice", "password": "secret"}, http.StatusConflict, apierr.CodeUsernameExists},
		{"blank username", map[string]string{"username": "  ", "password": "secret"}, http.StatusBadRequest, apierr.CodeInvalidUsername},
		{"short password", map[string]string{"username": "bob", "password": "abc"}, http.StatusBadRequest, apierr.CodePasswordTooShort},
		{"mismatch", map[string]string{"username": "bob", "password": "secret", "confirm_password": "secrets"}, http.StatusBadRequest, apierr.CodePasswordMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, "/api/v1/players/register", tt.body, "")
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}
}

func TestLoginFailures(t *testing.T) {
	ts := newTestServer(t)
	registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{"username": "nobody", "password": "secret"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeProfileNotFound, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/players/login", map[string]string{"username": "alice", "password": "wrong"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, apierr.CodeInvalidCredentials, errorCode(t, rr))
}

func TestUnauthorizedWithoutToken(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/api/v1/players/me", "/api/v1/table", "/api/v1/admin/stats"} {
		rr := ts.request(http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}

	rr := ts.request(http.MethodGet, "/api/v1/table", nil, "sess_bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/players/logout", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestTableRoundFlow(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/table", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	table := decode[response.Table](t, rr)
	assert.Equal(t, "betting", table.Phase)
	assert.Nil(t, table.Round)

	// Player A,2 against dealer 3 with the 4 face down
	rr = ts.request(http.MethodPost, "/api/v1/table/bet", map[string]int64{"amount": 100}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	table = decode[response.Table](t, rr)
	require.NotNil(t, table.Round)
	assert.Equal(t, "player_turn", table.Phase)
	assert.Equal(t, 13, table.Round.Player.Value)
	assert.True(t, table.Round.Player.Soft)
	require.Len(t, table.Round.Dealer.Cards, 1)
	assert.Equal(t, 3, table.Round.Dealer.Value)
	assert.Equal(t, 1, table.Round.Dealer.Hidden)
	assert.Equal(t, int64(1000), table.Balance)

	// A second bet mid-round is rejected
	rr = ts.request(http.MethodPost, "/api/v1/table/bet", map[string]int64{"amount": 100}, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPhase, errorCode(t, rr))

	// Dealer draws 5 and 6 to 18
	rr = ts.request(http.MethodPost, "/api/v1/table/stand", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	table = decode[response.Table](t, rr)
	assert.Equal(t, "settled", table.Phase)
	assert.Equal(t, "lose", table.Round.Outcome)
	assert.True(t, table.Round.Settled)
	assert.Len(t, table.Round.Dealer.Cards, 4)
	assert.Equal(t, 18, table.Round.Dealer.Value)
	assert.Zero(t, table.Round.Dealer.Hidden)
	assert.Equal(t, int64(900), table.Balance)

	rr = ts.request(http.MethodPost, "/api/v1/table/hit", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/table/new-round", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	table = decode[response.Table](t, rr)
	assert.Equal(t, "betting", table.Phase)

	rr = ts.request(http.MethodGet, "/api/v1/players/me", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	me := decode[response.AuthResponse](t, rr)
	assert.Equal(t, 1, me.Profile.GamesPlayed)
	assert.Equal(t, int64(900), me.Profile.Balance)
}

func TestTableActionErrors(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/table/hit", nil, token)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeNoActiveRound, errorCode(t, rr))

	for _, amount := range []int64{0, -5, 1001} {
		rr = ts.request(http.MethodPost, "/api/v1/table/bet", map[string]int64{"amount": amount}, token)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, apierr.CodeInvalidBet, errorCode(t, rr))
	}

	rr = ts.request(http.MethodPost, "/api/v1/table/bet", "not an object", token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, apierr.CodeInvalidRequest, errorCode(t, rr))
}

func TestDoubleDown(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	// A,2 doubles into the 5 for 18; dealer 3,4 draws 6 and 7 to 20
	rr := ts.request(http.MethodPost, "/api/v1/table/bet", map[string]int64{"amount": 100}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	rr = ts.request(http.MethodPost, "/api/v1/table/double", nil, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	table := decode[response.Table](t, rr)
	assert.True(t, table.Round.DoubledDown)
	assert.Equal(t, int64(200), table.Round.Bet)
	assert.Len(t, table.Round.Player.Cards, 3)
	assert.Equal(t, 18, table.Round.Player.Value)
	assert.Equal(t, 20, table.Round.Dealer.Value)
	assert.Equal(t, "lose", table.Round.Outcome)
	assert.Equal(t, int64(800), table.Balance)
}

func TestDoubleDownNeedsBalance(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodPost, "/api/v1/table/bet", map[string]int64{"amount": 600}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	_, err := ts.app.AdminService.SetBalance(t.Context(), "carol", "alice", 500)
	require.NoError(t, err)

	rr = ts.request(http.MethodPost, "/api/v1/table/double", nil, token)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, apierr.CodeInsufficientBalance, errorCode(t, rr))
}

func TestOperatorSessionCannotPlay(t *testing.T) {
	ts := newTestServer(t)
	token := operatorLogin(t, ts)

	rr := ts.request(http.MethodGet, "/api/v1/table", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	ts := newTestServer(t)
	token := registerPlayer(t, ts, "alice")

	rr := ts.request(http.MethodGet, "/api/v1/admin/stats", nil, token)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/admin/login", map[string]string{"operator": "carol", "password": "nope"}, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCashierFlow(t *testing.T) {
	ts := newTestServer(t)
	registerPlayer(t, ts, "alice")
	registerPlayer(t, ts, "bob")
	token := operatorLogin(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/admin/credits", map[string]any{
		"username": "alice", "amount": 250, "payment_method": "Venmo",
	}, token)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	credit := decode[response.CreditResponse](t, rr)
	assert.Equal(t, int64(1250), credit.Profile.Balance)
	assert.Equal(t, int64(1), credit.Transaction.ID)
	assert.Equal(t, "carol", credit.Transaction.Admin)
	assert.Equal(t, "credit_purchase", credit.Transaction.Type)

	rr = ts.request(http.MethodPost, "/api/v1/admin/credits", map[string]any{
		"username": "alice", "amount": 1001, "payment_method": "Cash",
	}, token)
	assert.Equal(t, apierr.CodeInvalidAmount, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/admin/credits", map[string]any{
		"username": "alice", "amount": 10, "payment_method": "Bitcoin",
	}, token)
	assert.Equal(t, apierr.CodeInvalidPaymentMethod, errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/admin/quick-credit", map[string]any{"username": "bob", "amount": 50}, token)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodPut, "/api/v1/admin/players/bob/balance", map[string]any{"balance": 2000}, token)
	require.Equal(t, http.StatusOK, rr.Code)
	adjusted := decode[response.CreditResponse](t, rr)
	assert.Equal(t, int64(950), adjusted.Transaction.Amount)

	rr = ts.request(http.MethodPut, "/api/v1/admin/players/bob/balance", map[string]any{}, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/admin/transactions?username=alice", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	history := decode[response.History](t, rr)
	assert.Equal(t, 1, history.Matched)
	assert.Equal(t, int64(250), history.TotalCreditsSold)

	rr = ts.request(http.MethodGet, "/api/v1/admin/transactions?window=fortnight", nil, token)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/admin/payment-methods", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	totals := decode[[]response.MethodTotal](t, rr)
	assert.Len(t, totals, 3)

	rr = ts.request(http.MethodGet, "/api/v1/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	stats := decode[response.Stats](t, rr)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, int64(3250), stats.TotalBalance)
	assert.Equal(t, 3, stats.TotalTransactions)

	rr = ts.request(http.MethodGet, "/api/v1/admin/export", nil, token)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")
	assert.NotContains(t, rr.Body.String(), "password")
	export := decode[response.Export](t, rr)
	assert.Len(t, export.Profiles, 2)
	assert.Len(t, export.Transactions, 3)

	rr = ts.request(http.MethodDelete, "/api/v1/admin/transactions", nil, token)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = ts.request(http.MethodGet, "/api/v1/admin/transactions", nil, token)
	assert.Zero(t, decode[response.History](t, rr).Matched)
}

func TestAdminFlagTakesEffectOnLiveSession(t *testing.T) {
	ts := newTestServer(t)
	aliceToken := registerPlayer(t, ts, "alice")
	registerPlayer(t, ts, "bob")
	operator := operatorLogin(t, ts)

	rr := ts.request(http.MethodPut, "/api/v1/admin/players/alice/admin", map[string]bool{"is_admin": true}, operator)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[response.Profile](t, rr).IsAdmin)

	// Alice can use admin routes without logging in again
	rr = ts.request(http.MethodGet, "/api/v1/admin/players", nil, aliceToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.Profile](t, rr), 2)

	rr = ts.request(http.MethodPut, "/api/v1/admin/players/alice/admin", map[string]bool{"is_admin": false}, aliceToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeCannotChangeOwnAdmin, errorCode(t, rr))

	rr = ts.request(http.MethodPut, "/api/v1/admin/players/nobody/admin", map[string]bool{"is_admin": true}, aliceToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLeaderboard(t *testing.T) {
	ts := newTestServer(t)
	registerPlayer(t, ts, "alice")
	registerPlayer(t, ts, "bob")
	operator := operatorLogin(t, ts)

	rr := ts.request(http.MethodPost, "/api/v1/admin/quick-credit", map[string]any{"username": "bob", "amount": 5}, operator)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	entries := decode[[]response.LeaderboardEntry](t, rr)
	require.Len(t, entries, 2)
	assert.Equal(t, "bob", entries[0].Username)
	assert.Equal(t, 1, entries[0].Rank)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=1", nil, "")
	assert.Len(t, decode[[]response.LeaderboardEntry](t, rr), 1)

	rr = ts.request(http.MethodGet, "/api/v1/leaderboard?limit=zero", nil, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
