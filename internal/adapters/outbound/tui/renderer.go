package tui

import (
	"fmt"
	"strings"

	"github.com/bambumate/bambumate/internal/domain"
	"github.com/bambumate/bambumate/internal/domain/recommend"
	"github.com/charmbracelet/lipgloss"
)

// ── Filament palette ──
var (
	accent  = lipgloss.Color("#00AE42") // Bambu green
	fg      = lipgloss.Color("#E8E6E3") // warm light gray
	dim     = lipgloss.Color("#6B7280") // muted gray
	faint   = lipgloss.Color("#3F3F46") // very dim
	success = lipgloss.Color("#22C55E") // green
	danger  = lipgloss.Color("#EF4444") // red
	warning = lipgloss.Color("#F59E0B") // amber-yellow
	cool    = lipgloss.Color("#38BDF8") // sky
	hot     = lipgloss.Color("#FB923C") // orange
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Align(lipgloss.Center)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(1, 4).
			Align(lipgloss.Center).
			Width(68)

	dimStyle      = lipgloss.NewStyle().Foreground(dim)
	faintStyle    = lipgloss.NewStyle().Foreground(faint)
	passStyle     = lipgloss.NewStyle().Foreground(success)
	warnStyle     = lipgloss.NewStyle().Foreground(warning)
	errorTagStyle = lipgloss.NewStyle().Foreground(danger).Bold(true)
	warnTagStyle  = lipgloss.NewStyle().Foreground(warning).Bold(true)
	upStyle       = lipgloss.NewStyle().Foreground(hot).Bold(true)
	downStyle     = lipgloss.NewStyle().Foreground(cool).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	paramStyle    = lipgloss.NewStyle().Bold(true).Foreground(fg)
	separatorLine = faintStyle.Render(strings.Repeat("─", 64))
)

// RenderAnalysis renders an evaluation for the terminal.
func RenderAnalysis(profileName string, material domain.MaterialType, result domain.EvaluationResult) string {
	var b strings.Builder

	// ── Header ──
	title := headerStyle.Render("bambumate")
	subtitle := dimStyle.Render(profileName)
	summary := titleStyle.Render(fmt.Sprintf("%s · %d recommendations", material.String(), len(result.Recommendations)))
	b.WriteString(boxStyle.Render(title + "\n" + subtitle + "\n\n" + summary))
	b.WriteString("\n\n")

	// ── Recommendations ──
	if len(result.Recommendations) == 0 {
		b.WriteString("  " + passStyle.Render("No changes recommended.") + "\n")
	} else {
		b.WriteString("  " + titleStyle.Render("Recommendations") + "\n\n")
		for _, r := range result.Recommendations {
			renderRecommendation(&b, r)
		}
	}

	// ── Conflicts ──
	if len(result.Conflicts) > 0 {
		b.WriteString("\n  " + separatorLine + "\n\n")
		b.WriteString("  " + titleStyle.Render("Conflicts") + "  ")
		b.WriteString(errorTagStyle.Render(fmt.Sprintf("%d", len(result.Conflicts))))
		b.WriteString("\n\n")
		for _, c := range result.Conflicts {
			fmt.Fprintf(&b, "    %s %s\n", errorTagStyle.Render("!"), paramStyle.Render(c.Parameter))
			fmt.Fprintf(&b, "      %s\n", dimStyle.Render(strings.Join(c.ConflictingDefects, " vs ")))
			if c.Description != "" {
				fmt.Fprintf(&b, "      %s\n", faintStyle.Render(c.Description))
			}
		}
	}

	// ── Missing parameters ──
	if len(result.Warnings) > 0 {
		b.WriteString("\n  " + separatorLine + "\n\n")
		b.WriteString("  " + titleStyle.Render("Missing from profile") + "\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "    %s %s %s\n",
				warnTagStyle.Render("warn "),
				paramStyle.Render(w.Parameter),
				dimStyle.Render("(evaluated from 0 for "+w.Defect+")"),
			)
		}
	}

	b.WriteString("\n")
	return b.String()
}

func renderRecommendation(b *strings.Builder, r domain.Recommendation) {
	arrow := faintStyle.Render("=")
	switch {
	case r.Delta() > 0:
		arrow = upStyle.Render("↑")
	case r.Delta() < 0:
		arrow = downStyle.Render("↓")
	}

	from := formatWithUnit(r.CurrentValue, r.Unit)
	to := formatWithUnit(r.RecommendedValue, r.Unit)
	clamp := ""
	if r.WasClamped {
		clamp = "  " + warnStyle.Render("clamped")
	}

	fmt.Fprintf(b, "    %s %s %s  %s → %s%s\n",
		dimStyle.Render(fmt.Sprintf("P%d", r.Priority)),
		arrow,
		paramStyle.Render(padRight(r.Parameter, 30)),
		dimStyle.Render(from),
		titleStyle.Render(to),
		clamp,
	)
	detail := r.Defect
	if r.Rationale != "" {
		detail += ": " + r.Rationale
	}
	fmt.Fprintf(b, "         %s\n", faintStyle.Render(detail))
}

// RenderChanges lists the edits written to a tuned profile.
func RenderChanges(changes []recommend.AppliedChange, path string) string {
	var b strings.Builder
	if len(changes) == 0 {
		b.WriteString("  " + dimStyle.Render("Profile unchanged.") + "\n")
		return b.String()
	}
	fmt.Fprintf(&b, "  %s %s\n\n", titleStyle.Render("Applied to"), paramStyle.Render(path))
	for _, c := range changes {
		from := c.From
		if from == "" {
			from = "unset"
		}
		fmt.Fprintf(&b, "    %s %s  %s → %s\n",
			passStyle.Render("✓"),
			paramStyle.Render(padRight(c.Parameter, 30)),
			dimStyle.Render(from),
			titleStyle.Render(c.To),
		)
	}
	return b.String()
}

// RenderChain shows an inheritance chain from the leaf to its root.
func RenderChain(names []string) string {
	var b strings.Builder
	for i, n := range names {
		if i == 0 {
			fmt.Fprintf(&b, "  %s\n", paramStyle.Render(n))
			continue
		}
		fmt.Fprintf(&b, "  %s%s %s\n", strings.Repeat("  ", i-1), faintStyle.Render("└─"), dimStyle.Render(n))
	}
	return b.String()
}

func formatWithUnit(v float64, unit string) string {
	s := domain.FormatNumber(v)
	switch unit {
	case "":
		return s
	case "%":
		return s + "%"
	default:
		return s + " " + unit
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
