package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/updatecheck/pkg/deps"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleHeader = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// Outcomes
// =============================================================================

// Outcome statuses shown in the table.
const (
	statusUpToDate = "up to date"
	statusUpdate   = "update"
	statusFailed   = "failed"
	statusBlocked  = "blocked"
)

// outcomeStatus classifies an outcome for display.
func outcomeStatus(o deps.Outcome) string {
	switch {
	case o.Diagnostic != nil:
		return statusFailed
	case o.Update.CanUpdate:
		return statusUpdate
	case o.Update.UpToDate:
		return statusUpToDate
	}
	return statusBlocked
}

// outcomeRows renders one table row per outcome.
func outcomeRows(outcomes []deps.Outcome) [][]string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		status := outcomeStatus(o)
		current, latest, resolvable := o.Dependency.Version, "", ""
		if o.Update != nil {
			latest, resolvable = o.Update.LatestVersion, o.Update.LatestResolvableVersion
		}
		if status == statusFailed {
			latest = string(o.Diagnostic.Code)
		}
		rows = append(rows, []string{o.Dependency.Name, dash(current), dash(latest), dash(resolvable), status})
	}
	return rows
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// printOutcomes prints a table of outcomes followed by the manifest
// replacements of each update and the messages of failed checks.
func printOutcomes(ecosystem string, outcomes []deps.Outcome) {
	fmt.Println(StyleTitle.Render(ecosystem))
	if len(outcomes) == 0 {
		printInfo("No dependencies found")
		return
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Dependency", "Current", "Latest", "Resolvable", "Status").
		Rows(outcomeRows(outcomes)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col != 4 || row < 0 || row >= len(outcomes) {
				return base
			}
			switch outcomeStatus(outcomes[row]) {
			case statusUpdate:
				return base.Foreground(colorCyan)
			case statusUpToDate:
				return base.Foreground(colorGreen)
			case statusFailed:
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorYellow)
		})
	fmt.Println(t.Render())

	for _, o := range outcomes {
		switch {
		case o.Diagnostic != nil:
			printError("%s: %s", o.Dependency.Name, o.Diagnostic.Message)
		case len(o.Update.Replacements) > 0:
			printSuccess("%s %s %s", o.Dependency.Name, iconArrow, StyleValue.Render(o.Update.LatestResolvableVersion))
			for _, r := range o.Update.Replacements {
				printDetail("%s: %s %s %s", fileLabel(r.File), r.Old, iconArrow, r.New)
			}
		}
	}
	fmt.Println()
}

func fileLabel(file string) string {
	if strings.TrimSpace(file) == "" {
		return "requirement"
	}
	return file
}
