package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/thotsl4yer69/sentient-core/pkg/recall"
)

// Theme holds the accent colors used by the renderers.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
}

// DefaultTheme is the default green-on-dark theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles are derived from a Theme once and reused per render.
type Styles struct {
	Score lipgloss.Style
	Text  lipgloss.Style
	Meta  lipgloss.Style
	Tag   lipgloss.Style
}

// NewStyles builds styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Score: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Text:  lipgloss.NewStyle(),
		Meta:  lipgloss.NewStyle().Foreground(t.Dim),
		Tag:   lipgloss.NewStyle().Foreground(t.Primary),
	}
}

// RenderMemories renders ranked recall results for the terminal, one
// block per hit.
func RenderMemories(s Styles, hits []recall.ScoredMemory) string {
	if len(hits) == 0 {
		return s.Meta.Render("no matching memories")
	}
	var b strings.Builder
	for i, hit := range hits {
		inter := hit.Memory.Interaction
		fmt.Fprintf(&b, "%s %s\n",
			s.Score.Render(FormatSimilarity(hit.Similarity)),
			s.Meta.Render(fmt.Sprintf("%s  importance %s",
				FormatTimestamp(hit.Memory.StoredAt),
				FormatImportance(inter.Importance))))
		fmt.Fprintf(&b, "  %s\n", s.Text.Render(oneLine(inter.UserText)))
		fmt.Fprintf(&b, "  %s\n", s.Meta.Render(oneLine(inter.AssistantText)))
		if len(hit.Memory.Tags) > 0 {
			fmt.Fprintf(&b, "  %s\n", s.Tag.Render(strings.Join(hit.Memory.Tags, " ")))
		}
		if i < len(hits)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// RenderContext renders the working tier, newest first.
func RenderContext(s Styles, list []recall.Interaction) string {
	if len(list) == 0 {
		return s.Meta.Render("working tier is empty")
	}
	var b strings.Builder
	for _, inter := range list {
		fmt.Fprintf(&b, "%s %s\n",
			s.Meta.Render(FormatTimestamp(inter.Timestamp)),
			s.Text.Render(oneLine(inter.UserText)))
	}
	return b.String()
}

func oneLine(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " ")
	if len(text) > 120 {
		text = text[:117] + "..."
	}
	return text
}
