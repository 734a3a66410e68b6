package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"nutriplan/internal/mealplan"
	"nutriplan/internal/nutrition"
)

var (
	accent = lipgloss.Color("#8BC34A")
	muted  = lipgloss.Color("#8a94a6")
	warn   = lipgloss.Color("#E5A50A")

	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle = lipgloss.NewStyle().Width(10)
	mutedStyle = lipgloss.NewStyle().Foreground(muted)
	warnStyle  = lipgloss.NewStyle().Foreground(warn)
	barFill    = lipgloss.NewStyle().Foreground(accent)
	barEmpty   = lipgloss.NewStyle().Foreground(muted)
)

const barWidth = 24

// progressBar draws pct (0-100) as a fixed-width bar.
func progressBar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return barFill.Render(strings.Repeat("█", filled)) + barEmpty.Render(strings.Repeat("░", barWidth-filled))
}

func writeMeals(w io.Writer, meals []mealplan.Meal) {
	fmt.Fprintln(w, titleStyle.Render("Today's meals"))
	for _, m := range meals {
		label := labelStyle.Render(m.Title)
		if m.Food == nil {
			fmt.Fprintf(w, "  %s %s  %s\n", label, mutedStyle.Render(m.Time), mutedStyle.Render("(empty)"))
			continue
		}
		f := m.Food
		fmt.Fprintf(w, "  %s %s  %s  %d kcal  P %dg  C %dg  F %dg\n",
			label, mutedStyle.Render(m.Time), f.Name, f.Calories, f.Protein, f.Carbs, f.Fat)
	}
}

func writeProgressLine(w io.Writer, name string, consumed, target int, unit string, pct float64) {
	fmt.Fprintf(w, "  %s %s %5d / %-5d %-4s %3.0f%%\n",
		labelStyle.Render(name), progressBar(pct), consumed, target, unit, pct)
}

func writeStatus(w io.Writer, consumed, target, remaining nutrition.NutritionalData, progress nutrition.ProgressReport) {
	fmt.Fprintln(w, titleStyle.Render("Nutrition"))
	writeProgressLine(w, "Calories", consumed.Calories, target.Calories, "kcal", progress.Calories)
	writeProgressLine(w, "Protein", consumed.Protein, target.Protein, "g", progress.Protein)
	writeProgressLine(w, "Carbs", consumed.Carbs, target.Carbs, "g", progress.Carbs)
	writeProgressLine(w, "Fat", consumed.Fat, target.Fat, "g", progress.Fat)

	if remaining.Calories >= 0 {
		fmt.Fprintf(w, "  %d kcal remaining today\n", remaining.Calories)
	} else {
		fmt.Fprintln(w, "  "+warnStyle.Render(fmt.Sprintf("%d kcal over target", -remaining.Calories)))
	}
}

func writeProfile(w io.Writer, info nutrition.PersonalInfo) {
	targets := nutrition.TargetNutrition(info)
	fmt.Fprintln(w, titleStyle.Render("Profile"))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Name"), info.Name)
	fmt.Fprintf(w, "  %s %d, %s\n", labelStyle.Render("Age"), info.Age, info.Gender)
	fmt.Fprintf(w, "  %s %g kg, %g cm\n", labelStyle.Render("Body"), info.Weight, info.Height)
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Activity"), info.ActivityLevel.Label())
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Goal"), info.Goal.Label())
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Diet"), joinOrDash(info.DietaryRestrictions))
	fmt.Fprintf(w, "  %s %s\n", labelStyle.Render("Allergies"), joinOrDash(info.Allergies))
	fmt.Fprintf(w, "  %s %d kcal/day (P %dg, C %dg, F %dg)\n", labelStyle.Render("Target"),
		targets.Calories, targets.Protein, targets.Carbs, targets.Fat)
	if bmi, err := nutrition.BMI(info.Height, info.Weight); err == nil {
		fmt.Fprintf(w, "  %s %.1f (%s)\n", labelStyle.Render("BMI"), bmi, nutrition.BMICategory(bmi))
	}
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// recommendationsMarkdown renders items as a numbered markdown table.
func recommendationsMarkdown(slot mealplan.Slot, items []mealplan.FoodItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s suggestions\n\n", strings.ToUpper(string(slot[:1]))+string(slot[1:]))
	sb.WriteString("| # | Meal | kcal | Protein | Carbs | Fat |\n")
	sb.WriteString("|---|------|-----:|--------:|------:|----:|\n")
	for i, it := range items {
		name := strings.ReplaceAll(it.Name, "|", "/")
		fmt.Fprintf(&sb, "| %d | %s | %d | %dg | %dg | %dg |\n", i+1, name, it.Calories, it.Protein, it.Carbs, it.Fat)
	}
	return sb.String()
}

// renderMarkdown renders md for the terminal, falling back to the raw text
// when the renderer cannot be built.
func renderMarkdown(md string) string {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return md
	}
	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
