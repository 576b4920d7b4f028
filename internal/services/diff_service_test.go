package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiffService(t *testing.T) *DiffService {
	t.Helper()
	lipgloss.SetColorProfile(termenv.Ascii)
	service := NewDiffService()
	require.NoError(t, service.Initialize())
	return service
}

func TestDiffService_Name(t *testing.T) {
	assert.Equal(t, "diff", NewDiffService().Name())
}

func TestDiffService_NotInitialized(t *testing.T) {
	_, err := NewDiffService().LineDiff("a", "b")
	assert.EqualError(t, err, "diff service not initialized")
}

func TestDiffService_LineDiff(t *testing.T) {
	service := newTestDiffService(t)

	tests := []struct {
		name     string
		original string
		proposed string
		expected []DiffLine
	}{
		{
			name:     "single line fix",
			original: "print('x'",
			proposed: "print('x')",
			expected: []DiffLine{
				{Kind: DiffRemoved, Text: "print('x'"},
				{Kind: DiffAdded, Text: "print('x')"},
			},
		},
		{
			name:     "line inserted",
			original: "a\nc\n",
			proposed: "a\nb\nc\n",
			expected: []DiffLine{
				{Kind: DiffContext, Text: "a"},
				{Kind: DiffAdded, Text: "b"},
				{Kind: DiffContext, Text: "c"},
			},
		},
		{
			name:     "identical",
			original: "same\n",
			proposed: "same\n",
			expected: []DiffLine{{Kind: DiffContext, Text: "same"}},
		},
		{
			name:     "empty proposal",
			original: "gone\n",
			proposed: "",
			expected: []DiffLine{{Kind: DiffRemoved, Text: "gone"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, err := service.LineDiff(tt.original, tt.proposed)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, lines)
		})
	}
}

func TestDiffService_Stats(t *testing.T) {
	service := newTestDiffService(t)
	added, removed := service.Stats([]DiffLine{
		{Kind: DiffAdded}, {Kind: DiffAdded}, {Kind: DiffRemoved}, {Kind: DiffContext},
	})
	assert.Equal(t, 2, added)
	assert.Equal(t, 1, removed)
}

func TestDiffService_Render(t *testing.T) {
	service := newTestDiffService(t)

	out, err := service.Render("main.py", "print('x'", "print('x')")
	require.NoError(t, err)
	assert.Equal(t, "main.py (+1 -1)\n- print('x'\n+ print('x')\n", out)
}

func TestDiffService_Render_NoChanges(t *testing.T) {
	service := newTestDiffService(t)

	out, err := service.Render("main.py", "x\n", "x\n")
	require.NoError(t, err)
	assert.Equal(t, "main.py (+0 -0)\n  no changes\n", out)
}

func TestDiffService_Render_CollapsesContext(t *testing.T) {
	service := newTestDiffService(t)

	var original, proposed strings.Builder
	for i := 1; i <= 10; i++ {
		original.WriteString(fmt.Sprintf("line %d\n", i))
		if i == 10 {
			proposed.WriteString("LINE 10\n")
		} else {
			proposed.WriteString(fmt.Sprintf("line %d\n", i))
		}
	}

	out, err := service.Render("file.txt", original.String(), proposed.String())
	require.NoError(t, err)

	expected := "file.txt (+1 -1)\n" +
		"  ... 6 unchanged lines\n" +
		"  line 7\n" +
		"  line 8\n" +
		"  line 9\n" +
		"- line 10\n" +
		"+ LINE 10\n"
	assert.Equal(t, expected, out)
}

func TestVisibleLines(t *testing.T) {
	lines := []DiffLine{
		{Kind: DiffContext}, {Kind: DiffContext}, {Kind: DiffAdded}, {Kind: DiffContext}, {Kind: DiffContext},
	}
	assert.Equal(t, []bool{false, true, true, true, false}, visibleLines(lines, 1))
}

func TestSplitDiffText(t *testing.T) {
	assert.Nil(t, splitDiffText(""))
	assert.Equal(t, []string{""}, splitDiffText("\n"))
	assert.Equal(t, []string{"a", "b"}, splitDiffText("a\nb\n"))
	assert.Equal(t, []string{"a", "b"}, splitDiffText("a\nb"))
}
