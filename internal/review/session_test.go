package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aireviewer/internal/logger"
	"aireviewer/internal/testutils"
	"aireviewer/pkg/reviewtypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticCredentials struct {
	key   string
	err   error
	calls int
}

func (s *staticCredentials) Credential() (string, error) {
	s.calls++
	return s.key, s.err
}

type reviewerFunc func(ctx context.Context, credential, targetPath, originalContent string) (string, error)

func (f reviewerFunc) RunReview(ctx context.Context, credential, targetPath, originalContent string) (string, error) {
	return f(ctx, credential, targetPath, originalContent)
}

type sessionFixture struct {
	session *Session
	host    *testutils.FakeHost
	output  *testutils.MemoryOutput
	client  *testutils.ScriptedModelClient
	creds   *staticCredentials
}

func newSessionFixture(t *testing.T, creds *staticCredentials, answers []string, steps ...testutils.Step) *sessionFixture {
	t.Helper()
	host := testutils.NewFakeHost(answers...)
	output := testutils.NewMemoryOutput()
	client := testutils.NewScriptedModelClient(steps...)

	prompter := NewPrompter(host, output)
	prompter.SetTempDir(t.TempDir())
	driver := newTestDriver(client, prompter, DriverConfig{})

	return &sessionFixture{
		session: NewSession(host, output, creds, driver),
		host:    host,
		output:  output,
		client:  client,
		creds:   creds,
	}
}

func TestSession_AcceptedReview(t *testing.T) {
	target := writeTarget(t, "print('x'")
	f := newSessionFixture(t, &staticCredentials{key: "key"}, []string{OptionAccept},
		testutils.ProposeFixStep("call-1", "print('x')", "Added missing closing parenthesis"),
		testutils.TextStep("SUMMARY: fixed a syntax error"),
	)

	err := f.session.Start(context.Background(), target)

	require.NoError(t, err)
	assert.False(t, f.session.InProgress())
	assert.Equal(t, []string{ProgressTitle}, f.host.Progress)
	assert.Equal(t, 1, f.output.Cleared)
	assert.Equal(t, 1, f.output.Shown)

	rule := strings.Repeat("=", 30)
	assert.Equal(t, []string{
		"🚀 Starting review for: app.py",
		"\n💡 AI Suggestion: Added missing closing parenthesis",
		"   Asking user for permission...",
		"   ✅ User ACCEPTED the fix.",
		"\n" + rule,
		"SUMMARY: fixed a syntax error",
		rule,
	}, f.output.Lines())

	require.Len(t, f.host.Notifications, 2)
	assert.Equal(t, "Fix applied!", f.host.Notifications[0].Message)
	assert.Equal(t, testutils.Notification{Level: reviewtypes.NotifyInfo, Message: CompletionMessage}, f.host.Notifications[1])
}

func TestSession_EmptySummaryAfterAcceptedFix(t *testing.T) {
	target := writeTarget(t, "print('x'")
	f := newSessionFixture(t, &staticCredentials{key: "key"}, []string{OptionAccept},
		testutils.ProposeFixStep("call-1", "print('x')", "Added paren"),
		testutils.TextStep(""),
	)

	require.NoError(t, f.session.Start(context.Background(), target))

	rule := strings.Repeat("=", 30)
	lines := f.output.Lines()
	require.GreaterOrEqual(t, len(lines), 3)
	assert.Equal(t, []string{"\n" + rule, "", rule}, lines[len(lines)-3:])
	assert.NotContains(t, f.output.Text(), "Error:")
	assert.Equal(t, CompletionMessage, f.host.Notifications[len(f.host.Notifications)-1].Message)
	assert.Empty(t, f.session.LastSummary())
}

func TestSession_RejectedReview(t *testing.T) {
	target := writeTarget(t, "print('x'")
	f := newSessionFixture(t, &staticCredentials{key: "key"}, []string{OptionReject},
		testutils.ProposeFixStep("call-1", "print('x')", "Added paren"),
		testutils.TextStep("SUMMARY: no changes applied"),
	)

	require.NoError(t, f.session.Start(context.Background(), target))

	assert.Contains(t, f.output.Text(), "REJECTED")
	assert.Contains(t, f.output.Text(), "SUMMARY: no changes applied")
	result, ok := lastTurn(f.client.Requests()[1]).ToolResult()
	require.True(t, ok)
	assert.Equal(t, RejectedResult, result.Result)
}

func TestSession_CredentialFailures(t *testing.T) {
	tests := []struct {
		name    string
		creds   *staticCredentials
		wantKey string
	}{
		{name: "empty credential", creds: &staticCredentials{}, wantKey: "api_key"},
		{name: "blank credential", creds: &staticCredentials{key: "  "}, wantKey: "api_key"},
		{
			name:    "configuration error passes through",
			creds:   &staticCredentials{err: &reviewtypes.ConfigError{Key: "provider", Message: "unknown provider"}},
			wantKey: "provider",
		},
		{name: "keyring failure", creds: &staticCredentials{err: errors.New("keyring locked")}, wantKey: "api_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs strings.Builder
			logger.SetOutput(&logs)
			t.Cleanup(func() { logger.SetOutput(os.Stderr) })

			target := writeTarget(t, "print('x'")
			f := newSessionFixture(t, tt.creds, nil, testutils.TextStep("unused"))

			err := f.session.Start(context.Background(), target)

			assert.Contains(t, logs.String(), "Review not started")
			var cfgErr *reviewtypes.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantKey, cfgErr.Key)
			assert.Equal(t, 0, f.client.RequestCount())
			assert.Empty(t, f.host.Progress)
			assert.Empty(t, f.output.Lines())
			assert.Equal(t, 0, f.output.Cleared)
			require.Len(t, f.host.Notifications, 1)
			assert.Equal(t, reviewtypes.NotifyError, f.host.Notifications[0].Level)
			assert.False(t, f.session.InProgress())
		})
	}
}

func TestSession_UnreadableFile(t *testing.T) {
	creds := &staticCredentials{key: "key"}
	f := newSessionFixture(t, creds, nil)

	err := f.session.Start(context.Background(), filepath.Join(t.TempDir(), "missing.py"))

	var storageErr *reviewtypes.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, "read", storageErr.Op)
	assert.Equal(t, 0, creds.calls)
	assert.Equal(t, 0, f.client.RequestCount())
	require.Len(t, f.host.Notifications, 1)
}

func TestSession_ReviewFailureIsReported(t *testing.T) {
	target := writeTarget(t, "print('x'")
	f := newSessionFixture(t, &staticCredentials{key: "key"}, nil, testutils.Step{Err: errors.New("connection reset")})

	err := f.session.Start(context.Background(), target)

	var serviceErr *reviewtypes.ServiceError
	require.ErrorAs(t, err, &serviceErr)

	message := "Error: " + err.Error()
	assert.Equal(t, []testutils.Notification{{Level: reviewtypes.NotifyError, Message: message}}, f.host.Notifications)
	lines := f.output.Lines()
	assert.Equal(t, message, lines[len(lines)-1])
	assert.NotContains(t, f.output.Text(), strings.Repeat("=", 30))
	assert.False(t, f.session.InProgress())
}

func TestSession_RejectsConcurrentStart(t *testing.T) {
	target := writeTarget(t, "print('x')")
	host := testutils.NewFakeHost()
	output := testutils.NewMemoryOutput()

	var session *Session
	var nestedErr error
	session = NewSession(host, output, &staticCredentials{key: "key"}, reviewerFunc(
		func(ctx context.Context, _, targetPath, _ string) (string, error) {
			assert.True(t, session.InProgress())
			nestedErr = session.Start(ctx, targetPath)
			return "done", nil
		},
	))

	require.NoError(t, session.Start(context.Background(), target))

	var sessionErr *reviewtypes.SessionError
	require.ErrorAs(t, nestedErr, &sessionErr)
	assert.False(t, session.InProgress())
	assert.Equal(t, reviewtypes.NotifyError, host.Notifications[0].Level)
	assert.Equal(t, CompletionMessage, host.Notifications[len(host.Notifications)-1].Message)
	assert.Equal(t, 1, output.Cleared)
}

func TestSession_PassesFileContentAndCredential(t *testing.T) {
	target := writeTarget(t, "package main\n")
	var gotCredential, gotPath, gotContent string

	session := NewSession(testutils.NewFakeHost(), testutils.NewMemoryOutput(), &staticCredentials{key: "sk-test"}, reviewerFunc(
		func(_ context.Context, credential, targetPath, originalContent string) (string, error) {
			gotCredential, gotPath, gotContent = credential, targetPath, originalContent
			return "ok", nil
		},
	))

	require.NoError(t, session.Start(context.Background(), target))
	assert.Equal(t, "sk-test", gotCredential)
	assert.Equal(t, target, gotPath)
	assert.Equal(t, "package main\n", gotContent)
}

func TestSession_SummaryRenderer(t *testing.T) {
	target := writeTarget(t, "x")
	output := testutils.NewMemoryOutput()
	session := NewSession(testutils.NewFakeHost(), output, &staticCredentials{key: "k"}, reviewerFunc(
		func(context.Context, string, string, string) (string, error) { return "**done**", nil },
	))
	session.SetSummaryRenderer(strings.ToUpper)

	require.NoError(t, session.Start(context.Background(), target))
	assert.Contains(t, output.Lines(), "**DONE**")
	assert.Equal(t, "**done**", session.LastSummary())
}
