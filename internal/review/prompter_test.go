package review

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aireviewer/internal/testutils"
	"aireviewer/pkg/reviewtypes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prompterFixture struct {
	prompter *Prompter
	host     *testutils.FakeHost
	output   *testutils.MemoryOutput
	target   string
	tempDir  string
}

func newPrompterFixture(t *testing.T, content string, answers ...string) *prompterFixture {
	t.Helper()
	target := filepath.Join(t.TempDir(), "app.py")
	require.NoError(t, os.WriteFile(target, []byte(content), 0644))

	host := testutils.NewFakeHost(answers...)
	output := testutils.NewMemoryOutput()
	tempDir := t.TempDir()

	prompter := NewPrompter(host, output)
	prompter.SetTempDir(tempDir)

	return &prompterFixture{prompter: prompter, host: host, output: output, target: target, tempDir: tempDir}
}

func (f *prompterFixture) targetContent(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile(f.target)
	require.NoError(t, err)
	return string(data)
}

func (f *prompterFixture) assertNoStagedFiles(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(f.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestPrompter_Accept(t *testing.T) {
	f := newPrompterFixture(t, "print('x'", OptionAccept)

	var stagedDuringPrompt bool
	f.host.OnConfirm = func(testutils.ConfirmCall) {
		_, err := os.Stat(f.host.Comparisons[0].ProposedPath)
		stagedDuringPrompt = err == nil
	}

	decision, err := f.prompter.Propose(context.Background(), f.target, "print('x'", reviewtypes.FixProposal{
		FixedContent: "print('x')",
		Explanation:  "Added missing closing parenthesis",
	})

	require.NoError(t, err)
	assert.Equal(t, reviewtypes.DecisionAccepted, decision)
	assert.Equal(t, "print('x')", f.targetContent(t))

	require.Len(t, f.host.Comparisons, 1)
	comparison := f.host.Comparisons[0]
	assert.Equal(t, f.target, comparison.OriginalPath)
	assert.Equal(t, ComparisonTitle, comparison.Title)
	assert.Equal(t, "print('x')", comparison.ProposedContent)
	assert.True(t, strings.HasPrefix(filepath.Base(comparison.ProposedPath), "FIX_"))
	assert.True(t, strings.HasSuffix(comparison.ProposedPath, "_app.py"))
	assert.Equal(t, f.tempDir, filepath.Dir(comparison.ProposedPath))
	assert.True(t, stagedDuringPrompt)

	require.Len(t, f.host.Confirms, 1)
	assert.Equal(t, "AI Suggestion: Added missing closing parenthesis", f.host.Confirms[0].Message)
	assert.Equal(t, []string{OptionAccept, OptionReject}, f.host.Confirms[0].Options)

	assert.Equal(t, 1, f.host.ClosedCount())
	f.assertNoStagedFiles(t)

	assert.Contains(t, f.host.Notifications, testutils.Notification{Level: reviewtypes.NotifyInfo, Message: "Fix applied!"})
	assert.Equal(t, []string{
		"\n💡 AI Suggestion: Added missing closing parenthesis",
		"   Asking user for permission...",
		"   ✅ User ACCEPTED the fix.",
	}, f.output.Lines())
}

func TestPrompter_ComparesAgainstCurrentFile(t *testing.T) {
	f := newPrompterFixture(t, "print('x')", OptionReject)

	decision, err := f.prompter.Propose(context.Background(), f.target, "print('x'", reviewtypes.FixProposal{
		FixedContent: "print('x')",
		Explanation:  "Added paren",
	})

	require.NoError(t, err)
	assert.Equal(t, reviewtypes.DecisionRejected, decision)
	require.Len(t, f.host.Comparisons, 1)
	assert.Equal(t, f.target, f.host.Comparisons[0].OriginalPath)
	require.Len(t, f.host.Confirms, 1)
	f.assertNoStagedFiles(t)
}

func TestPrompter_NotAccepted(t *testing.T) {
	tests := []struct {
		name   string
		answer []string
	}{
		{name: "rejected", answer: []string{OptionReject}},
		{name: "dismissed", answer: nil},
		{name: "unexpected answer", answer: []string{"maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newPrompterFixture(t, "print('x'", tt.answer...)

			decision, err := f.prompter.Propose(context.Background(), f.target, "print('x'", reviewtypes.FixProposal{
				FixedContent: "print('x')",
				Explanation:  "Added paren",
			})

			require.NoError(t, err)
			assert.Equal(t, reviewtypes.DecisionRejected, decision)
			assert.Equal(t, "print('x'", f.targetContent(t))
			assert.Equal(t, 1, f.host.ClosedCount())
			assert.Empty(t, f.host.Notifications)
			f.assertNoStagedFiles(t)
			assert.Contains(t, f.output.Text(), "   ❌ User REJECTED the fix.")
			assert.NotContains(t, f.output.Text(), "ACCEPTED")
		})
	}
}

func TestPrompter_ConfirmFailureReleasesResources(t *testing.T) {
	f := newPrompterFixture(t, "a")
	f.host.ConfirmErr = errors.New("stdin closed")

	_, err := f.prompter.Propose(context.Background(), f.target, "a", reviewtypes.FixProposal{FixedContent: "b", Explanation: "c"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "stdin closed")
	assert.Equal(t, "a", f.targetContent(t))
	assert.Equal(t, 1, f.host.ClosedCount())
	f.assertNoStagedFiles(t)
}

func TestPrompter_OpenComparisonFailure(t *testing.T) {
	f := newPrompterFixture(t, "a", OptionAccept)
	f.host.OpenErr = errors.New("no diff tool")

	_, err := f.prompter.Propose(context.Background(), f.target, "a", reviewtypes.FixProposal{FixedContent: "b", Explanation: "c"})

	require.Error(t, err)
	assert.Empty(t, f.host.Confirms)
	assert.Equal(t, "a", f.targetContent(t))
	f.assertNoStagedFiles(t)
}

func TestPrompter_CloseFailureDoesNotChangeDecision(t *testing.T) {
	f := newPrompterFixture(t, "a", OptionAccept)
	f.host.CloseErr = errors.New("already gone")

	decision, err := f.prompter.Propose(context.Background(), f.target, "a", reviewtypes.FixProposal{FixedContent: "b", Explanation: "c"})

	require.NoError(t, err)
	assert.Equal(t, reviewtypes.DecisionAccepted, decision)
	assert.Equal(t, "b", f.targetContent(t))
}

func TestPrompter_StorageFailures(t *testing.T) {
	t.Run("temp dir missing", func(t *testing.T) {
		f := newPrompterFixture(t, "a", OptionAccept)
		f.prompter.SetTempDir(filepath.Join(f.tempDir, "missing"))

		_, err := f.prompter.Propose(context.Background(), f.target, "a", reviewtypes.FixProposal{FixedContent: "b", Explanation: "c"})

		var storageErr *reviewtypes.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "create temp file", storageErr.Op)
		assert.Empty(t, f.host.Comparisons)
	})

	t.Run("target cannot be written", func(t *testing.T) {
		f := newPrompterFixture(t, "a", OptionAccept)
		missingTarget := filepath.Join(f.tempDir, "gone", "app.py")

		_, err := f.prompter.Propose(context.Background(), missingTarget, "a", reviewtypes.FixProposal{FixedContent: "b", Explanation: "c"})

		var storageErr *reviewtypes.StorageError
		require.ErrorAs(t, err, &storageErr)
		assert.Equal(t, "overwrite", storageErr.Op)
		assert.Equal(t, missingTarget, storageErr.Path)
		assert.Equal(t, 1, f.host.ClosedCount())
		assert.Empty(t, f.host.Notifications)
		f.assertNoStagedFiles(t)
	})
}
