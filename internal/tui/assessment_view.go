package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/render"
	"github.com/kingrea/careerpath/internal/route"
	"github.com/kingrea/careerpath/internal/workflow"
)

var (
	labelStyleReady   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	labelStyleBlocked = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	labelStyleRunning = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	labelStyleGate    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801")).Bold(true)
	labelStyleSkipped = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	labelStyleDefault = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC"))
	detailTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

type stageLabelText struct {
	text  string
	style lipgloss.Style
}

// stageLabel marks acknowledged stages done, the shown stage current, and the
// rest pending or locked.
func stageLabel(stage, reached, current workflow.Stage) stageLabelText {
	switch {
	case stage == current && stage < reached:
		return stageLabelText{text: "↺", style: labelStyleGate}
	case stage == current:
		return stageLabelText{text: "▶", style: labelStyleRunning}
	case stage < reached:
		return stageLabelText{text: "✓", style: labelStyleReady}
	case stage == reached:
		return stageLabelText{text: "○", style: labelStyleDefault}
	default:
		return stageLabelText{text: "·", style: labelStyleSkipped}
	}
}

type stageSubmittedMsg struct {
	stage        workflow.Stage
	assessmentID string
	err          error
}

type questionsLoadedMsg struct {
	set career.QuestionSet
	err error
}

type olqSubmittedMsg struct {
	err error
}

type assessmentLoadedMsg struct {
	record career.AssessmentRecord
	err    error
}

type recommendationGeneratedMsg struct {
	id  string
	err error
}

// assessmentView is the intake screen. Forms live as long as the app so typed
// input survives Back and leaving the screen.
type assessmentView struct {
	app      *App
	forms    map[workflow.Stage]*form
	question int
	cursor   int
	record   *career.AssessmentRecord
}

func newAssessmentView(app *App) *assessmentView {
	return &assessmentView{app: app, forms: map[workflow.Stage]*form{}}
}

func (v *assessmentView) machine() *workflow.Machine { return v.app.machine }

// enter starts the fetch the shown stage needs, if any.
func (v *assessmentView) enter() tea.Cmd {
	switch v.machine().Stage() {
	case workflow.StageOLQ:
		if len(v.machine().Questions()) == 0 {
			return v.loadQuestions()
		}
	case workflow.StageCompleted:
		if v.record == nil {
			return v.loadSummary()
		}
	}
	return nil
}

func (v *assessmentView) formFor(stage workflow.Stage) *form {
	if f, ok := v.forms[stage]; ok {
		return f
	}
	drafts := v.machine().Drafts()
	var f *form
	switch stage {
	case workflow.StagePersonal:
		f = newForm(stage.FriendlyName(), personalFields, personalValues(drafts.Personal))
	case workflow.StagePhysical:
		f = newForm(stage.FriendlyName(), physicalFields, physicalValues(drafts.Physical))
	case workflow.StageEducation:
		f = newForm(stage.FriendlyName(), educationFields, educationValues(drafts.Education))
	default:
		return nil
	}
	v.forms[stage] = f
	return f
}

func (v *assessmentView) Update(msg tea.Msg) tea.Cmd {
	key, isKey := msg.(tea.KeyMsg)
	if isKey && key.String() == "ctrl+b" {
		if err := v.machine().Back(); err != nil {
			v.app.err = err
			return nil
		}
		return v.enter()
	}
	stage := v.machine().Stage()
	switch stage {
	case workflow.StagePersonal, workflow.StagePhysical, workflow.StageEducation:
		f := v.formFor(stage)
		if isKey {
			switch key.String() {
			case "ctrl+s":
				return v.submitForm(stage, f)
			case "enter":
				if f.onLast() {
					return v.submitForm(stage, f)
				}
				f.next()
				return nil
			}
		}
		return f.Update(msg)
	case workflow.StageOLQ:
		if isKey {
			return v.updateOLQ(key)
		}
	case workflow.StageCompleted:
		if isKey && key.String() == "enter" {
			return v.generateRecommendation()
		}
	}
	return nil
}

func (v *assessmentView) refuseWhileBusy() bool {
	if v.app.busy() {
		v.app.statusMsg = "Please wait for the current request to finish"
		return true
	}
	return false
}

func (v *assessmentView) submitForm(stage workflow.Stage, f *form) tea.Cmd {
	if v.refuseWhileBusy() {
		return nil
	}
	values := f.Values()
	machine := v.machine()
	var run func(ctx context.Context) (string, error)
	switch stage {
	case workflow.StagePersonal:
		details, err := parsePersonal(values)
		if err != nil {
			v.app.err = err
			return nil
		}
		run = func(ctx context.Context) (string, error) { return machine.SubmitPersonal(ctx, details) }
	case workflow.StagePhysical:
		details, err := parsePhysical(values)
		if err != nil {
			v.app.err = err
			return nil
		}
		run = func(ctx context.Context) (string, error) { return "", machine.SubmitPhysical(ctx, details) }
	case workflow.StageEducation:
		details, err := parseEducation(values)
		if err != nil {
			v.app.err = err
			return nil
		}
		run = func(ctx context.Context) (string, error) { return "", machine.SubmitEducation(ctx, details) }
	default:
		return nil
	}
	return v.app.startRequest(func() tea.Msg {
		id, err := run(context.Background())
		return stageSubmittedMsg{stage: stage, assessmentID: id, err: err}
	})
}

func (v *assessmentView) loadQuestions() tea.Cmd {
	machine := v.machine()
	return v.app.startRequest(func() tea.Msg {
		set, err := machine.LoadQuestions(context.Background())
		return questionsLoadedMsg{set: set, err: err}
	})
}

func (v *assessmentView) loadSummary() tea.Cmd {
	client := v.app.client
	id := v.machine().AssessmentID()
	return v.app.startRequest(func() tea.Msg {
		record, err := client.Assessment(context.Background(), id)
		return assessmentLoadedMsg{record: record, err: err}
	})
}

func (v *assessmentView) generateRecommendation() tea.Cmd {
	if v.refuseWhileBusy() {
		return nil
	}
	machine := v.machine()
	return v.app.startRequest(func() tea.Msg {
		id, err := machine.GenerateRecommendation(context.Background())
		return recommendationGeneratedMsg{id: id, err: err}
	})
}

func (v *assessmentView) updateOLQ(key tea.KeyMsg) tea.Cmd {
	questions := v.machine().Questions()
	switch key.String() {
	case "ctrl+r":
		if v.refuseWhileBusy() {
			return nil
		}
		return v.loadQuestions()
	case "ctrl+s", "s":
		if v.refuseWhileBusy() {
			return nil
		}
		machine := v.machine()
		return v.app.startRequest(func() tea.Msg {
			return olqSubmittedMsg{err: machine.SubmitOLQ(context.Background())}
		})
	}
	if len(questions) == 0 {
		return nil
	}
	if v.question >= len(questions) {
		v.question = len(questions) - 1
	}
	q := questions[v.question]
	switch key.String() {
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(q.Options)-1 {
			v.cursor++
		}
	case "left", "h":
		v.showQuestion(questions, v.question-1)
	case "right", "l":
		v.showQuestion(questions, v.question+1)
	case "enter", " ":
		v.machine().Select(q.QuestionID, v.cursor)
		v.showQuestion(questions, v.question+1)
	}
	return nil
}

// showQuestion moves to question i and puts the cursor on its recorded answer.
func (v *assessmentView) showQuestion(questions []career.Question, i int) {
	if i < 0 || i >= len(questions) {
		return
	}
	v.question = i
	v.cursor = 0
	if opt, ok := v.machine().Drafts().Responses[questions[i].QuestionID]; ok {
		v.cursor = opt
	}
}

// handleResult applies a finished request. Results are applied even when the
// screen is no longer shown; the machine already holds the outcome.
func (v *assessmentView) handleResult(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case stageSubmittedMsg:
		if msg.err != nil {
			v.app.failed(msg.err)
			return nil
		}
		if msg.stage == workflow.StagePersonal {
			v.record = nil
			v.app.statusMsg = fmt.Sprintf("%s saved · assessment %s", msg.stage.FriendlyName(), msg.assessmentID)
		} else {
			v.app.statusMsg = msg.stage.FriendlyName() + " saved"
		}
		if v.app.state != stateAssessment {
			return nil
		}
		return v.enter()
	case questionsLoadedMsg:
		if msg.err != nil {
			v.app.failed(msg.err)
			return nil
		}
		v.question = 0
		v.cursor = 0
		v.app.statusMsg = fmt.Sprintf("Loaded %d questions", msg.set.Len())
		return nil
	case olqSubmittedMsg:
		if msg.err != nil {
			v.app.failed(msg.err)
			return nil
		}
		v.app.statusMsg = "OLQ assessment submitted"
		return v.loadSummary()
	case assessmentLoadedMsg:
		if msg.err != nil {
			v.app.logger.Warn("assessment summary unavailable", zap.Error(msg.err))
			return nil
		}
		record := msg.record
		v.record = &record
		return nil
	case recommendationGeneratedMsg:
		if msg.err != nil {
			v.app.failed(msg.err)
			return nil
		}
		v.app.mainMenu.SetItems(v.app.menuItems())
		if v.app.state != stateAssessment {
			v.app.statusMsg = "Recommendation " + msg.id + " ready"
			return nil
		}
		return v.app.navigate(route.ToRecommendation(msg.id))
	}
	return nil
}

func (v *assessmentView) View(width int) string {
	stage := v.machine().Stage()
	switch stage {
	case workflow.StagePersonal, workflow.StagePhysical, workflow.StageEducation:
		hint := "Tab/↑↓ → move    ←→ → change choice    Enter on last field or Ctrl+S → submit"
		if stage.CanGoBack() {
			hint += "    Ctrl+B → back"
		}
		return lipgloss.JoinVertical(lipgloss.Left, v.formFor(stage).View(), hintStyle.Render(hint+"    Esc → home"))
	case workflow.StageOLQ:
		return v.viewOLQ(width)
	default:
		lines := []string{labelStyleReady.Render("Assessment complete")}
		if v.record != nil {
			lines = append(lines, "", render.Assessment(*v.record))
		}
		action := "Enter → generate recommendation"
		if id := v.machine().RecommendationID(); id != "" {
			action = "Enter → open recommendation " + id
		}
		lines = append(lines, hintStyle.Render(action+"    Esc → home"))
		return strings.Join(lines, "\n")
	}
}

func (v *assessmentView) viewOLQ(width int) string {
	questions := v.machine().Questions()
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).Render(workflow.StageOLQ.FriendlyName())
	if len(questions) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", "Loading questions...",
			hintStyle.Render("Ctrl+R → reload    Esc → home"))
	}
	idx := min(v.question, len(questions)-1)
	q := questions[idx]
	responses := v.machine().Drafts().Responses
	answered := responses.Answered(questions)
	progress := detailTextStyle.Render(fmt.Sprintf("Question %d of %d · %d answered", idx+1, len(questions), answered))
	lines := []string{title, progress, ""}
	if q.Category != "" {
		lines = append(lines, labelStyleSkipped.Render(strings.ToUpper(q.Category)))
	}
	lines = append(lines, lipgloss.NewStyle().Width(max(20, width)).Render(q.Question), "")
	selected, hasAnswer := responses[q.QuestionID]
	for i, option := range q.Options {
		marker := "  "
		style := labelStyleDefault
		if hasAnswer && selected == i {
			marker = "● "
			style = labelStyleReady
		}
		if i == v.cursor {
			marker = "▶ " + strings.TrimSpace(marker)
			style = style.Bold(true)
		}
		lines = append(lines, style.Render(fmt.Sprintf("%s%c. %s", marker, 'A'+rune(i), option)))
	}
	if answered < len(questions) {
		lines = append(lines, "", labelStyleBlocked.Render(fmt.Sprintf("%d question(s) unanswered", len(questions)-answered)))
	}
	lines = append(lines, hintStyle.Render("↑↓ → choose    Enter → answer    ←→ → previous/next    S → submit    Ctrl+R → new questions    Ctrl+B → back"))
	return strings.Join(lines, "\n")
}
