// internal/render/render.go
//
// Read-only presentation of resolved artifacts. Nothing here mutates its
// input or touches the network.

package render

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/careerpath/internal/career"
)

// PreviewDays and PreviewTopics bound the daily schedule preview.
const (
	PreviewDays   = 7
	PreviewTopics = 3
	barWidth      = 20
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).MarginTop(1)
	scoreStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#4CAF50"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	cardStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	selectedCardStyle = cardStyle.Copy().BorderForeground(lipgloss.Color("#F7B801"))

	milestoneStyles = map[career.MilestoneType]lipgloss.Style{
		career.MilestoneExam:       lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		career.MilestoneAssessment: lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true),
		career.MilestoneFinalPrep:  lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true),
		career.MilestoneOther:      lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
	}
)

// OLQCategory labels an OLQ score.
func OLQCategory(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 65:
		return "Very Good"
	case score >= 50:
		return "Good"
	case score >= 35:
		return "Average"
	default:
		return "Below Average"
	}
}

// Recommendation renders the score header, the explanation, and one card per
// role. selected highlights a card; pass -1 for none.
func Recommendation(rec career.Recommendation, width, selected int) string {
	width = clampWidth(width)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Career Recommendation"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s  %s\n",
		detailStyle.Render("OLQ score"),
		scoreStyle.Render(fmt.Sprintf("%.1f", rec.OLQScore)),
		textStyle.Render(OLQCategory(rec.OLQScore))))
	if rec.PrimaryCategory != "" {
		b.WriteString(detailStyle.Render("Primary category: "+humanize(string(rec.PrimaryCategory))) + "\n")
	}
	if strings.TrimSpace(rec.Explanation) != "" {
		b.WriteString(textStyle.Width(width).Render(rec.Explanation))
		b.WriteString("\n")
	}
	if len(rec.Recommendations) == 0 {
		b.WriteString(mutedStyle.Render("No roles matched this assessment."))
		return b.String()
	}
	b.WriteString(sectionStyle.Render("Recommended roles"))
	for i, role := range rec.Recommendations {
		b.WriteString("\n")
		b.WriteString(roleCard(i+1, role, width, i == selected))
	}
	return b.String()
}

func roleCard(rank int, role career.RoleRecommendation, width int, selected bool) string {
	inner := width - 4
	var lines []string
	lines = append(lines, fmt.Sprintf("%s  %s",
		titleStyle.Render(fmt.Sprintf("#%d %s", rank, role.RoleName)),
		scoreStyle.Render(fmt.Sprintf("%.0f%% match", role.MatchScore))))
	var facts []string
	if role.EntryScheme != "" {
		facts = append(facts, "Entry: "+role.EntryScheme)
	}
	if role.RoleCategory != "" {
		facts = append(facts, humanize(string(role.RoleCategory)))
	}
	if role.MaxAge > 0 {
		facts = append(facts, fmt.Sprintf("Age %g-%g", role.MinAge, role.MaxAge))
	}
	if len(facts) > 0 {
		lines = append(lines, detailStyle.Render(strings.Join(facts, " · ")))
	}
	if role.EducationRequirement != "" {
		lines = append(lines, detailStyle.Render("Education: "+role.EducationRequirement))
	}
	if len(role.SelectionProcess) > 0 {
		lines = append(lines, detailStyle.Render("Selection: "+strings.Join(role.SelectionProcess, " → ")))
	}
	if role.Reasoning != "" {
		lines = append(lines, textStyle.Width(inner).Render(role.Reasoning))
	}
	if len(role.FeatureImportance) > 0 {
		lines = append(lines, mutedStyle.Render("Why this role"))
		lines = append(lines, FeatureBars(role.FeatureImportance)...)
	}
	style := cardStyle
	if selected {
		style = selectedCardStyle
	}
	return style.Width(width).Render(strings.Join(lines, "\n"))
}

// FeatureBars renders one bar per weight, in the order the weights were received.
func FeatureBars(weights career.FeatureWeights) []string {
	labelWidth := 0
	for _, fw := range weights {
		labelWidth = max(labelWidth, len(humanize(fw.Feature)))
	}
	out := make([]string, 0, len(weights))
	for _, fw := range weights {
		weight := math.Max(0, math.Min(1, fw.Weight))
		filled := int(math.Round(weight * barWidth))
		bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
		label := humanize(fw.Feature)
		out = append(out, fmt.Sprintf("%s%s %s %s",
			detailStyle.Render(label),
			strings.Repeat(" ", labelWidth-len(label)),
			scoreStyle.Render(bar),
			textStyle.Render(fmt.Sprintf("%.0f%%", weight*100))))
	}
	return out
}

// StudyPlan renders the plan summary, its modules, milestones, and a preview
// of the first days of the schedule.
func StudyPlan(plan career.StudyPlan, width int) string {
	width = clampWidth(width)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Study Plan " + plan.PlanID))
	b.WriteString("\n")
	summary := []string{
		fmt.Sprintf("%d days", plan.TotalDays),
		fmt.Sprintf("%g h/day", plan.HoursPerDay),
		fmt.Sprintf("%g total hours", plan.TotalHours),
	}
	if !plan.TargetDate.IsZero() {
		summary = append([]string{"Target " + plan.TargetDate.String()}, summary...)
	}
	b.WriteString(detailStyle.Render(strings.Join(summary, " · ")))

	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Modules"))
	if len(plan.Modules) == 0 {
		b.WriteString("\n" + mutedStyle.Render("No modules."))
	}
	for _, m := range plan.Modules {
		b.WriteString("\n")
		head := fmt.Sprintf("Week %d · %s", m.WeekNumber, m.ModuleName)
		b.WriteString(textStyle.Render(head))
		b.WriteString(" " + mutedStyle.Render(fmt.Sprintf("(%g h, priority %d)", m.EstimatedHours, m.Priority)))
		if len(m.Topics) > 0 {
			b.WriteString("\n  " + detailStyle.Width(width-2).Render(strings.Join(m.Topics, ", ")))
		}
	}

	if len(plan.Milestones) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Milestones"))
		for _, ms := range plan.Milestones {
			kind := ms.Kind()
			b.WriteString("\n")
			b.WriteString(milestoneStyles[kind].Render(fmt.Sprintf("%s  %s", ms.Date.String(), ms.Title)))
			if ms.Description != "" {
				b.WriteString(" " + detailStyle.Render(ms.Description))
			}
		}
	}

	if len(plan.DailySchedule) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(fmt.Sprintf("First %d days", min(PreviewDays, len(plan.DailySchedule)))))
		for _, day := range SchedulePreview(plan.DailySchedule) {
			b.WriteString("\n")
			b.WriteString(day)
		}
	}
	return b.String()
}

// SchedulePreview renders at most PreviewDays days with at most PreviewTopics
// topics each.
func SchedulePreview(days []career.DailySchedule) []string {
	var out []string
	for i, day := range days {
		if i == PreviewDays {
			break
		}
		out = append(out, textStyle.Render(fmt.Sprintf("%s · %g h", day.Date.String(), day.HoursAllocated)))
		for j, topic := range day.TopicsCovered {
			if j == PreviewTopics {
				out = append(out, mutedStyle.Render(fmt.Sprintf("    ... and %d more", len(day.TopicsCovered)-PreviewTopics)))
				break
			}
			out = append(out, detailStyle.Render("  • "+topic))
		}
	}
	return out
}

// Resources renders preparation material for a role.
func Resources(res career.RoleResources, width int) string {
	width = clampWidth(width)
	var b strings.Builder
	b.WriteString(titleStyle.Render("Resources · " + res.Role))
	if len(res.Resources) == 0 {
		b.WriteString("\n" + mutedStyle.Render("No resources listed for this role."))
	}
	for _, r := range res.Resources {
		b.WriteString("\n")
		price := "paid"
		if r.IsFree {
			price = "free"
		}
		b.WriteString(textStyle.Render(r.Title))
		b.WriteString(" " + mutedStyle.Render(fmt.Sprintf("[%s, %s]", r.Type, price)))
		if r.Description != "" {
			b.WriteString("\n  " + detailStyle.Width(width-2).Render(r.Description))
		}
		if r.URL != "" {
			b.WriteString("\n  " + mutedStyle.Render(r.URL))
		}
	}
	if len(res.StudyTips) > 0 {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render("Study tips"))
		for _, tip := range res.StudyTips {
			b.WriteString("\n" + detailStyle.Render("• "+tip))
		}
	}
	return b.String()
}

// Assessment summarizes an assessment record.
func Assessment(record career.AssessmentRecord) string {
	lines := []string{titleStyle.Render("Assessment " + record.AssessmentID)}
	if record.OLQScore != nil {
		lines = append(lines, fmt.Sprintf("%s %s  %s",
			detailStyle.Render("OLQ score"),
			scoreStyle.Render(fmt.Sprintf("%.1f", *record.OLQScore)),
			textStyle.Render(OLQCategory(*record.OLQScore))))
	}
	status := "in progress"
	if record.Completed {
		status = "completed"
	}
	lines = append(lines, detailStyle.Render("Status: "+status))
	return strings.Join(lines, "\n")
}

var acronyms = map[string]string{"olq": "OLQ", "ncc": "NCC", "upsc": "UPSC", "ssb": "SSB"}

func humanize(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		if acronym, ok := acronyms[w]; ok {
			words[i] = acronym
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func clampWidth(width int) int {
	if width < 40 {
		return 40
	}
	return width
}
