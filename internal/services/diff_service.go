package services

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// diffContextLines is the number of unchanged lines kept around each change.
const diffContextLines = 3

// DiffLineKind classifies a line of a line-level diff.
type DiffLineKind int

const (
	// DiffContext is a line present in both versions.
	DiffContext DiffLineKind = iota
	// DiffAdded is a line present only in the proposed version.
	DiffAdded
	// DiffRemoved is a line present only in the original version.
	DiffRemoved
)

// DiffLine is one line of a line-level diff.
type DiffLine struct {
	Kind DiffLineKind
	Text string
}

// DiffService renders the inline comparison between a file and a proposed fix.
type DiffService struct {
	initialized bool
	dmp         *diffmatchpatch.DiffMatchPatch

	titleStyle   lipgloss.Style
	addedStyle   lipgloss.Style
	removedStyle lipgloss.Style
	contextStyle lipgloss.Style
	elidedStyle  lipgloss.Style
}

// NewDiffService creates a new DiffService instance.
func NewDiffService() *DiffService {
	return &DiffService{}
}

// Name returns the service name "diff" for registration.
func (d *DiffService) Name() string {
	return "diff"
}

// Initialize sets up the diff engine and styles.
func (d *DiffService) Initialize() error {
	d.dmp = diffmatchpatch.New()
	d.titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	d.addedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	d.removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	d.contextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	d.elidedStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	d.initialized = true
	return nil
}

// LineDiff computes a line-level diff of original against proposed.
func (d *DiffService) LineDiff(original, proposed string) ([]DiffLine, error) {
	if !d.initialized {
		return nil, fmt.Errorf("diff service not initialized")
	}

	a, b, lineArray := d.dmp.DiffLinesToChars(original, proposed)
	diffs := d.dmp.DiffMain(a, b, false)
	diffs = d.dmp.DiffCharsToLines(diffs, lineArray)

	var lines []DiffLine
	for _, diff := range diffs {
		kind := DiffContext
		switch diff.Type {
		case diffmatchpatch.DiffInsert:
			kind = DiffAdded
		case diffmatchpatch.DiffDelete:
			kind = DiffRemoved
		}
		for _, text := range splitDiffText(diff.Text) {
			lines = append(lines, DiffLine{Kind: kind, Text: text})
		}
	}
	return lines, nil
}

// Stats counts added and removed lines.
func (d *DiffService) Stats(lines []DiffLine) (added, removed int) {
	for _, l := range lines {
		switch l.Kind {
		case DiffAdded:
			added++
		case DiffRemoved:
			removed++
		}
	}
	return added, removed
}

// Render returns a unified-style rendering of the diff under title. Long unchanged
// stretches are collapsed. Colours are omitted on terminals without colour support.
func (d *DiffService) Render(title, original, proposed string) (string, error) {
	lines, err := d.LineDiff(original, proposed)
	if err != nil {
		return "", err
	}

	plain := lipgloss.ColorProfile() == termenv.Ascii
	style := func(s lipgloss.Style, text string) string {
		if plain {
			return text
		}
		return s.Render(text)
	}

	added, removed := d.Stats(lines)
	var out strings.Builder
	out.WriteString(style(d.titleStyle, title))
	out.WriteString(fmt.Sprintf(" (+%d -%d)\n", added, removed))

	if added == 0 && removed == 0 {
		out.WriteString(style(d.elidedStyle, "  no changes"))
		out.WriteString("\n")
		return out.String(), nil
	}

	visible := visibleLines(lines, diffContextLines)
	for i := 0; i < len(lines); {
		if !visible[i] {
			j := i
			for j < len(lines) && !visible[j] {
				j++
			}
			out.WriteString(style(d.elidedStyle, fmt.Sprintf("  ... %d unchanged lines", j-i)))
			out.WriteString("\n")
			i = j
			continue
		}

		line := lines[i]
		switch line.Kind {
		case DiffAdded:
			out.WriteString(style(d.addedStyle, "+ "+line.Text))
		case DiffRemoved:
			out.WriteString(style(d.removedStyle, "- "+line.Text))
		default:
			out.WriteString(style(d.contextStyle, "  "+line.Text))
		}
		out.WriteString("\n")
		i++
	}

	return out.String(), nil
}

// visibleLines marks the changed lines and up to context unchanged lines on each side.
func visibleLines(lines []DiffLine, context int) []bool {
	visible := make([]bool, len(lines))
	for i, l := range lines {
		if l.Kind == DiffContext {
			continue
		}
		lo := max(0, i-context)
		hi := min(len(lines)-1, i+context)
		for j := lo; j <= hi; j++ {
			visible[j] = true
		}
	}
	return visible
}

// splitDiffText splits a diff chunk into lines without their terminators.
func splitDiffText(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

// GetGlobalDiffService returns the registered DiffService.
func GetGlobalDiffService() (*DiffService, error) {
	return getTypedService[*DiffService]("diff")
}
