package root

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/go-chi/chi/v5"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mindbloom/internal/auth"
	"mindbloom/internal/chat"
	"mindbloom/internal/config"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func useEnv(t *testing.T, env map[string]string) string {
	t.Helper()
	home := t.TempDir()
	if _, ok := env["MINDBLOOM_HOME"]; !ok {
		env["MINDBLOOM_HOME"] = home
	}
	env["CHAT_MODE"] = config.ChatLocal
	prev := loadConfig
	loadConfig = func() (*config.Config, error) {
		return config.FromEnv(func(k string) string { return env[k] })
	}
	t.Cleanup(func() { loadConfig = prev })
	return env["MINDBLOOM_HOME"]
}

func useDay(t *testing.T, day string) {
	t.Helper()
	d, err := time.ParseInLocation("2006-01-02 15:04", day+" 09:30", time.Local)
	require.NoError(t, err)
	prev := now
	now = func() time.Time { return d }
	t.Cleanup(func() { now = prev })
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheckInAndStatus(t *testing.T) {
	useEnv(t, map[string]string{})

	for _, day := range []string{"2024-05-01", "2024-05-02", "2024-05-03"} {
		useDay(t, day)
		out, err := run(t, "", "checkin", "--mood", "7", "--stress", "3", "--thoughts", "walked the dog", "--sleep", "7.5")
		require.NoError(t, err, out)
		assert.Contains(t, out, "Check-in saved")
		assert.Contains(t, out, "Streak:")
	}

	_, err := run(t, "", "checkin", "--mood", "7", "--stress", "3")
	assert.ErrorContains(t, err, "already checked in")

	out, err := run(t, "", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Seedling")
	assert.Contains(t, out, "Total check-ins: 3")
	assert.Contains(t, out, "Current streak: 🔥 3")
	assert.Contains(t, out, "Great momentum!")
	assert.Contains(t, out, "unlocks at 7 check-ins")

	out, err = run(t, "", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-05-03")
	assert.Contains(t, out, "walked the dog")
	assert.Contains(t, out, "7.5 h")
}

func TestCheckInRejectsBadScores(t *testing.T) {
	useEnv(t, map[string]string{})
	useDay(t, "2024-05-01")

	_, err := run(t, "", "checkin", "--mood", "11", "--stress", "3")
	assert.Error(t, err)
	_, err = run(t, "", "checkin", "--stress", "3")
	assert.Error(t, err)

	out, err := run(t, "", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "No check-in yet today")
}

func TestWeekWarriorAndLevelUp(t *testing.T) {
	useEnv(t, map[string]string{"MINDBLOOM_STORAGE": config.StorageSQLite})

	var out string
	for d := 1; d <= 7; d++ {
		useDay(t, time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC).Format("2006-01-02"))
		var err error
		out, err = run(t, "", "checkin", "-m", "6", "-s", "4")
		require.NoError(t, err, out)
	}
	assert.Contains(t, out, "LEVEL UP! You grew into a 🌿 Sprout")
	assert.Contains(t, out, "New badge: 🏅 Week Warrior")
	assert.Contains(t, out, "New badge: 🔥 Streak Master")

	out, err := run(t, "", "history", "-n", "2")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2024-06-07"))
	assert.True(t, strings.HasPrefix(lines[2], "2024-06-06"))
}

func TestSealedStorage(t *testing.T) {
	home := useEnv(t, map[string]string{
		"MINDBLOOM_STORAGE":   config.StorageFile,
		"MINDBLOOM_LOCAL_KEY": strings.Repeat("ab", 32),
	})
	useDay(t, "2024-05-01")

	_, err := run(t, "", "checkin", "-m", "5", "-s", "5", "-t", "a very private thought")
	require.NoError(t, err)

	raw, err := os.ReadFile(filepath.Join(home, "local_storage.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "private thought")

	out, err := run(t, "", "today")
	require.NoError(t, err)
	assert.Contains(t, out, "a very private thought")
}

func TestAssess(t *testing.T) {
	useEnv(t, map[string]string{})

	out, err := run(t, "", "assess")
	require.NoError(t, err)
	assert.Contains(t, out, "phq9")

	out, err = run(t, "", "assess", "phq9", "--answers", "0,0,0,0,0,0,0,0,0")
	require.NoError(t, err)
	assert.Contains(t, out, "Score: 0/27")

	_, err = run(t, "", "assess", "phq9", "--answers", "1,2")
	assert.ErrorContains(t, err, "9 questions")

	_, err = run(t, "", "assess", "nope")
	assert.Error(t, err)

	out, err = run(t, "7\n1\n1\n1\n1\n1\n1\n1\n1\n1\n", "assess", "phq9")
	require.NoError(t, err)
	assert.Contains(t, out, "Please answer with a number from 0 to 3.")
	assert.Contains(t, out, "Score: 9/27")

	_, err = run(t, "1\n1\n", "assess", "phq9")
	assert.ErrorContains(t, err, "cancelled")
}

func TestChatOffline(t *testing.T) {
	useEnv(t, map[string]string{})

	out, err := run(t, "", "chat", "I", "feel", "so", "anxious")
	require.NoError(t, err)
	var anxious []string
	for _, r := range chat.DefaultRules {
		if r.Category == "anxious" {
			anxious = r.Replies
		}
	}
	found := false
	for _, reply := range anxious {
		found = found || strings.Contains(out, reply)
	}
	assert.True(t, found, out)

	out, err = run(t, "hello there\n/quit\n", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, "you: I feel so anxious")
	assert.Contains(t, out, "bloom: ")

	_, err = run(t, "", "chat", "clear")
	require.NoError(t, err)

	out, err = run(t, "", "chat")
	require.NoError(t, err)
	assert.Contains(t, out, chat.WelcomeMessage)
	assert.NotContains(t, out, "anxious")
}

func fakeIdentity(t *testing.T) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Post("/auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var c map[string]string
		_ = json.NewDecoder(r.Body).Decode(&c)
		if c["password"] != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "good", "user": auth.User{ID: 1, Email: c["email"]}})
	})
	r.Get("/auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(auth.User{ID: 1, Email: "ada@example.com"})
	})
	r.Post("/auth/v1/logout", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestSessionGate(t *testing.T) {
	srv := fakeIdentity(t)
	useEnv(t, map[string]string{"MINDBLOOM_AUTH_URL": srv.URL})
	useDay(t, "2024-05-01")

	_, err := run(t, "", "checkin", "-m", "5", "-s", "5")
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)

	out, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in")

	_, err = run(t, "wrong\n", "login", "ada@example.com")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	out, err = run(t, "correct horse\n", "login", "ada@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in, ada@example.com")

	_, err = run(t, "", "checkin", "-m", "5", "-s", "5")
	require.NoError(t, err)

	out, err = run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as: ada@example.com")

	_, err = run(t, "", "logout")
	require.NoError(t, err)
	_, err = run(t, "", "status")
	assert.ErrorIs(t, err, auth.ErrNotSignedIn)
}

func TestAccountCommandsNeedEndpoint(t *testing.T) {
	useEnv(t, map[string]string{})
	_, err := run(t, "", "login", "ada@example.com", "-p", "x")
	assert.ErrorContains(t, err, "MINDBLOOM_AUTH_URL")

	out, err := run(t, "", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Local mode")
}
