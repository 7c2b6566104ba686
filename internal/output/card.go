package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/insightwatch/internal/insight"
	"github.com/charmbracelet/lipgloss"
)

// severityStyle picks the style for a severity.
func severityStyle(s insight.Severity) lipgloss.Style {
	switch s {
	case insight.SeverityCritical:
		return StyleCritical
	case insight.SeverityWarning:
		return StyleWarning
	case insight.SeverityPositive:
		return StylePositive
	default:
		return StyleInfo
	}
}

// SeverityBadge renders a fixed-width severity tag, e.g. "[CRITICAL]".
func SeverityBadge(s insight.Severity) string {
	label := strings.ToUpper(string(s))
	if label == "" {
		label = "INFO"
	}
	return severityStyle(s).Render(fmt.Sprintf("[%-8s]", label))
}

// Card renders one insight as a block of text.
//
//	[WARNING ] Title
//	           Description
//	           Context (muted)
//	           → Action hint
//	           actions: Label (filter category=Cemento)
func Card(in insight.Insight, width int) string {
	indent := strings.Repeat(" ", 11)
	body := lipgloss.NewStyle()
	if width > len(indent)+20 {
		body = body.Width(width - len(indent))
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, " %s %s\n", SeverityBadge(in.Severity), StyleBold.Render(in.Title))
	writeIndented(&sb, indent, body.Render(in.Description))
	if in.Context != "" {
		writeIndented(&sb, indent, StyleMuted.Render(body.Render(in.Context)))
	}
	if in.ActionHint != "" {
		writeIndented(&sb, indent, body.Render("→ "+in.ActionHint))
	}
	for _, a := range in.Actions {
		writeIndented(&sb, indent, StyleMuted.Render(fmt.Sprintf("%s (%s%s)", a.Label, a.Type, payloadString(a.Payload))))
	}
	return sb.String()
}

// Cards renders a list of insights separated by blank lines.
func Cards(insights []insight.Insight, width int) string {
	if len(insights) == 0 {
		return StyleMuted.Render(" Sin hallazgos para este período.") + "\n"
	}
	parts := make([]string, len(insights))
	for i, in := range insights {
		parts[i] = Card(in, width)
	}
	return strings.Join(parts, "\n")
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}

func writeIndented(sb *strings.Builder, indent, text string) {
	for _, line := range strings.Split(text, "\n") {
		sb.WriteString(indent)
		sb.WriteString(strings.TrimRight(line, " "))
		sb.WriteString("\n")
	}
}

// payloadString renders a payload as " k=v k=v" with sorted keys.
func payloadString(payload map[string]any) string {
	if len(payload) == 0 {
		return ""
	}
	keys := make([]string, 0, len(payload))
	for k := range payload {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, payload[k])
	}
	return sb.String()
}
