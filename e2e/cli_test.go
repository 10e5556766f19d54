package e2e_test

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/blackjack-go/internal/api"
	"github.com/mcoot/blackjack-go/internal/config"
	"github.com/mcoot/blackjack-go/internal/factory"
	"github.com/mcoot/blackjack-go/internal/testutil"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
	tokenFile  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	// Find project root (where go.mod is)
	projectRoot := findProjectRoot(t)

	// Build the CLI binary
	binaryPath := filepath.Join(t.TempDir(), "bjgame-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/bjgame")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
		tokenFile:  filepath.Join(t.TempDir(), "token"),
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token-file", r.tokenFile,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	cmd.Env = append(os.Environ(), "BJGAME_TOKEN=")
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func (r *cliRunner) runWithToken(token string, args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--token", token,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// startTestServer runs the API on a free port. The TestApp shoe is never
// shuffled, so every deal is predictable.
func startTestServer(t *testing.T) string {
	t.Helper()

	// Find a free port
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	_, port, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	require.NoError(t, listener.Close())

	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	app := factory.NewTestApp()
	logger := testutil.NopLogger()

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		RoundController: app.RoundController,
		AdminService:    app.AdminService,
		Profiles:        app.Storage,
	})
	server := api.NewServer(router, config.ServerConfig{
		Host:            "127.0.0.1",
		Port:            portNum,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}, logger)

	go func() {
		if err := server.Start(); err != nil {
			t.Logf("server error: %v", err)
		}
	}()
	t.Cleanup(func() {
		_ = server.Shutdown(context.Background())
	})

	serverURL := "http://" + server.Addr()
	waitForServer(t, serverURL+"/api/v1/health")
	return serverURL
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type profileResponse struct {
	Username    string `json:"username"`
	Balance     int64  `json:"balance"`
	GamesPlayed int    `json:"games_played"`
	GamesWon    int    `json:"games_won"`
	IsAdmin     bool   `json:"is_admin"`
}

type authResponse struct {
	Username     string           `json:"username"`
	Operator     bool             `json:"operator"`
	SessionToken string           `json:"session_token"`
	Profile      *profileResponse `json:"profile"`
}

type handResponse struct {
	Value  int  `json:"value"`
	Soft   bool `json:"soft"`
	Hidden int  `json:"hidden"`
	Cards  []struct {
		Rank string `json:"rank"`
		Suit string `json:"suit"`
	} `json:"cards"`
}

type tableResponse struct {
	Phase   string `json:"phase"`
	Balance int64  `json:"balance"`
	Round   *struct {
		Bet     int64        `json:"bet"`
		Phase   string       `json:"phase"`
		Outcome string       `json:"outcome"`
		Settled bool         `json:"settled"`
		Player  handResponse `json:"player"`
		Dealer  handResponse `json:"dealer"`
	} `json:"round"`
}

type creditResponse struct {
	Profile     profileResponse `json:"profile"`
	Transaction struct {
		Amount        int64  `json:"amount"`
		PaymentMethod string `json:"payment_method"`
		Admin         string `json:"admin"`
	} `json:"transaction"`
}

func decode[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(output), &v), "output: %s", output)
	return v
}

// Tests

func TestCLI_HealthCheck(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	resp := decode[struct {
		Status string `json:"status"`
	}](t, output)
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayerCommands(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("player", "register", "--user", "alice", "--pass", "secret", "--confirm", "secret")
	require.NoError(t, err, "output: %s", output)

	registered := decode[authResponse](t, output)
	assert.Equal(t, "alice", registered.Username)
	assert.NotEmpty(t, registered.SessionToken)
	require.NotNil(t, registered.Profile)
	assert.Equal(t, int64(1000), registered.Profile.Balance)

	// Token should be saved in the token file
	output, err = cli.run("player", "me")
	require.NoError(t, err, "output: %s", output)
	me := decode[profileResponse](t, output)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, int64(1000), me.Balance)

	// A fresh login issues a second, independent session
	output, err = cli.run("player", "login", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, "output: %s", output)
	login := decode[authResponse](t, output)
	assert.NotEqual(t, registered.SessionToken, login.SessionToken)

	output, err = cli.runWithToken(registered.SessionToken, "player", "me")
	require.NoError(t, err, "output: %s", output)

	_, err = cli.run("player", "logout")
	require.NoError(t, err)
	_, err = cli.run("player", "me")
	assert.Error(t, err)
}

func TestCLI_FullRoundFlow(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	output, err := cli.run("player", "register", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, "output: %s", output)

	output, err = cli.run("table", "show")
	require.NoError(t, err, "output: %s", output)
	table := decode[tableResponse](t, output)
	assert.Nil(t, table.Round)
	assert.Equal(t, int64(1000), table.Balance)

	// Player A,2 against dealer 3 with the 4 face down
	output, err = cli.run("table", "bet", "100")
	require.NoError(t, err, "output: %s", output)
	table = decode[tableResponse](t, output)
	require.NotNil(t, table.Round)
	assert.Equal(t, "player_turn", table.Round.Phase)
	assert.Equal(t, 13, table.Round.Player.Value)
	assert.True(t, table.Round.Player.Soft)
	assert.Len(t, table.Round.Dealer.Cards, 1)
	assert.Equal(t, 1, table.Round.Dealer.Hidden)

	// Hit draws the 5: soft 18
	output, err = cli.run("table", "hit")
	require.NoError(t, err, "output: %s", output)
	table = decode[tableResponse](t, output)
	assert.Equal(t, 18, table.Round.Player.Value)

	// Dealer draws 6 to reach 13, then 7 to reach 20
	output, err = cli.run("table", "stand")
	require.NoError(t, err, "output: %s", output)
	table = decode[tableResponse](t, output)
	assert.True(t, table.Round.Settled)
	assert.Equal(t, "lose", table.Round.Outcome)
	assert.Equal(t, 20, table.Round.Dealer.Value)
	assert.Zero(t, table.Round.Dealer.Hidden)
	assert.Equal(t, int64(900), table.Balance)

	output, err = cli.run("table", "new-round")
	require.NoError(t, err, "output: %s", output)
	table = decode[tableResponse](t, output)
	assert.Nil(t, table.Round)

	output, err = cli.run("leaderboard")
	require.NoError(t, err, "output: %s", output)
	board := decode[[]struct {
		Username    string `json:"username"`
		Balance     int64  `json:"balance"`
		GamesPlayed int    `json:"games_played"`
	}](t, output)
	require.Len(t, board, 1)
	assert.Equal(t, int64(900), board[0].Balance)
	assert.Equal(t, 1, board[0].GamesPlayed)
}

func TestCLI_CashierFlow(t *testing.T) {
	serverURL := startTestServer(t)
	player := newCLIRunner(t, serverURL)
	operator := newCLIRunner(t, serverURL)

	output, err := player.run("player", "register", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, "output: %s", output)

	output, err = operator.run("admin", "login", "--operator", "carol", "--pass", factory.TestOperatorPassword)
	require.NoError(t, err, "output: %s", output)
	login := decode[authResponse](t, output)
	assert.True(t, login.Operator)

	output, err = operator.run("admin", "credit", "--user", "alice", "--amount", "250", "--method", "Venmo")
	require.NoError(t, err, "output: %s", output)
	credit := decode[creditResponse](t, output)
	assert.Equal(t, int64(1250), credit.Profile.Balance)
	assert.Equal(t, "Venmo", credit.Transaction.PaymentMethod)
	assert.Equal(t, "carol", credit.Transaction.Admin)

	output, err = operator.run("admin", "quick-credit", "--user", "alice", "--amount", "50")
	require.NoError(t, err, "output: %s", output)

	output, err = player.run("player", "me")
	require.NoError(t, err, "output: %s", output)
	me := decode[profileResponse](t, output)
	assert.Equal(t, int64(1300), me.Balance)

	// The operator session has no table
	_, err = operator.run("table", "show")
	assert.Error(t, err)

	// Players cannot reach the cashier
	_, err = player.run("admin", "players")
	assert.Error(t, err)
}

func TestCLI_ErrorHandling(t *testing.T) {
	cli := newCLIRunner(t, startTestServer(t))

	// Table commands without a session
	output, err := cli.run("table", "show")
	assert.Error(t, err)
	assert.Contains(t, output, "UNAUTHORIZED")

	output, err = cli.run("player", "register", "--user", "alice", "--pass", "secret")
	require.NoError(t, err, "output: %s", output)

	// Acting before betting
	output, err = cli.run("table", "hit")
	assert.Error(t, err)
	assert.Contains(t, output, "NO_ACTIVE_ROUND")

	// A bet above the balance
	output, err = cli.run("table", "bet", "5000")
	assert.Error(t, err)
	assert.Contains(t, output, "INVALID_BET")

	// Duplicate registration
	output, err = cli.run("player", "register", "--user", "alice", "--pass", "secret")
	assert.Error(t, err)
	assert.Contains(t, output, "USERNAME_EXISTS")
}
