package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/bubblechart/pkg/pipeline"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/layout"
	"github.com/matzehuels/bubblechart/pkg/render/bubble/styles"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	// StyleTitle for headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warnings.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCached      = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed    = lipgloss.NewStyle().Foreground(colorGray)
	styleCommand     = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey         = lipgloss.NewStyle().Foreground(colorGray).Width(12)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
	iconBubble  = "●"
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// maxLegend caps the legend; domains past it are summarized.
const maxLegend = 8

// stdout is where status output goes.
var stdout io.Writer = os.Stdout

// =============================================================================
// Status Output
// =============================================================================

func printStatus(icon string, iconStyle, msgStyle lipgloss.Style, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(stdout, iconStyle.Render(icon)+" "+msgStyle.Render(msg))
}

func printSuccess(format string, args ...any) {
	printStatus(iconSuccess, StyleSuccess, lipgloss.NewStyle(), format, args...)
}

func printError(format string, args ...any) {
	printStatus(iconError, lipgloss.NewStyle().Foreground(colorRed), lipgloss.NewStyle(), format, args...)
}

func printWarning(format string, args ...any) {
	printStatus(iconWarning, StyleWarning, lipgloss.NewStyle(), format, args...)
}

func printInfo(format string, args ...any) {
	printStatus(iconInfo, styleComputed, lipgloss.NewStyle(), format, args...)
}

// printDetail prints an indented, dimmed line.
func printDetail(format string, args ...any) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(fmt.Sprintf(format, args...)))
}

// printFile prints an output file line.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}

// =============================================================================
// Chart Summaries
// =============================================================================

// printStats prints pipeline statistics on a single line.
func printStats(stats pipeline.Stats, cached bool) {
	var parts []string
	if stats.IntentCount > 0 {
		parts = append(parts, fmt.Sprintf("%d intents", stats.IntentCount))
	}
	parts = append(parts, fmt.Sprintf("%d bubbles", stats.BubbleCount))
	if stats.DomainCount > 0 {
		parts = append(parts, fmt.Sprintf("%d domains", stats.DomainCount))
	}
	for i, p := range parts {
		parts[i] = StyleDim.Render(p)
	}

	status := styleComputed.Render(iconFresh)
	if cached {
		status = styleCached.Render(iconCached)
	}
	parts = append(parts, status)

	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

// printLegend prints one swatch per domain in the colours the sinks use.
func printLegend(l layout.Layout) {
	entries := legend(l, styles.NewPalette())
	if len(entries) == 0 {
		return
	}
	var sb strings.Builder
	sb.WriteString("  ")
	for i, e := range entries {
		if i == maxLegend {
			sb.WriteString(StyleDim.Render(fmt.Sprintf("+%d more", len(entries)-maxLegend)))
			break
		}
		sb.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(e.color)).Render(iconBubble))
		sb.WriteString(" " + StyleDim.Render(e.domain) + "  ")
	}
	fmt.Fprintln(stdout, strings.TrimRight(sb.String(), " "))
}

type legendEntry struct {
	domain string
	color  string
}

// legend assigns colours in the order the SVG sink does: clusters first,
// then bubbles.
func legend(l layout.Layout, p *styles.Palette) []legendEntry {
	seen := make(map[string]bool)
	var out []legendEntry
	add := func(domain string) {
		if seen[domain] {
			return
		}
		seen[domain] = true
		out = append(out, legendEntry{domain: domain, color: p.Color(domain)})
	}
	for _, c := range l.Clusters {
		add(c.Domain)
	}
	for _, b := range l.Bubbles {
		add(b.ColorKey)
	}
	return out
}
