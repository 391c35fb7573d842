// internal/tui/app.go
//
// Terminal client for the career guidance service. Every client-side route is
// a screen; network calls run as tea.Cmds and report back as messages, so the
// model itself never blocks.

package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/api"
	"github.com/kingrea/careerpath/internal/artifact"
	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/config"
	"github.com/kingrea/careerpath/internal/export"
	"github.com/kingrea/careerpath/internal/logging"
	"github.com/kingrea/careerpath/internal/route"
	"github.com/kingrea/careerpath/internal/workflow"
)

// appState represents which screen we're on
type appState int

const (
	stateHome appState = iota
	stateGoto
	stateAssessment
	stateRecommendation
	statePlan
	stateNotFound
)

const logPanelLines = 6

// AppOption customizes App construction.
type AppOption func(*App)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) AppOption {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithJournal renders the journal tail in the log panel.
func WithJournal(j *logging.Journal) AppOption {
	return func(a *App) {
		a.journal = j
	}
}

// WithClock overrides "today" for plan date checks.
func WithClock(clock func() time.Time) AppOption {
	return func(a *App) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithStartRoute opens a route instead of the home screen.
func WithStartRoute(r route.Route) AppOption {
	return func(a *App) {
		a.startRoute = r
	}
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state   appState
	config  *config.Config
	client  *api.Client
	logger  *zap.Logger
	journal *logging.Journal
	clock   func() time.Time

	machine  *workflow.Machine
	resolver *artifact.Resolver
	exporter *export.Exporter

	route      route.Route
	startRoute route.Route

	// UI components
	mainMenu  list.Model
	gotoInput textinput.Model
	spinner   spinner.Model
	statusMsg string // Footer notification
	err       error  // Inline error, cleared by the next key press

	// pending counts outstanding requests; submissions are refused while > 0.
	pending int

	assessment     *assessmentView
	recommendation *recommendationView
	plan           *planView
	notFound       error

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// menuItem implements list.Item interface for our menu items
type menuItem struct {
	title string
	desc  string
	to    route.Route
}

func (i menuItem) Title() string       { return i.title }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.title }

// NewApp wires the workflow machine, resolver, and exporter over client.
func NewApp(cfg *config.Config, client *api.Client, opts ...AppOption) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("tui: config is required")
	}
	if client == nil {
		return nil, fmt.Errorf("tui: api client is required")
	}
	app := &App{
		state:  stateHome,
		config: cfg,
		client: client,
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	machine, err := workflow.New(client, workflow.WithLogger(app.logger.Named("workflow")))
	if err != nil {
		return nil, err
	}
	resolver, err := artifact.New(client,
		artifact.WithLogger(app.logger.Named("artifact")),
		artifact.WithClock(app.clock))
	if err != nil {
		return nil, err
	}
	store, err := export.NewFSStore(cfg.DownloadDir())
	if err != nil {
		return nil, err
	}
	exporter, err := export.New(client, store, export.WithLogger(app.logger.Named("export")))
	if err != nil {
		return nil, err
	}
	app.machine = machine
	app.resolver = resolver
	app.exporter = exporter

	mainMenu := list.New(app.menuItems(), list.NewDefaultDelegate(), 0, 0)
	mainMenu.Title = "⬡ CAREER PATH"
	mainMenu.SetShowStatusBar(false)
	mainMenu.SetFilteringEnabled(false)
	app.mainMenu = mainMenu

	gotoInput := textinput.New()
	gotoInput.Placeholder = "/recommendation/<id> or /study-plan/<id>"
	gotoInput.CharLimit = 200
	gotoInput.Width = 50
	app.gotoInput = gotoInput

	app.spinner = spinner.New(spinner.WithSpinner(spinner.Dot))
	return app, nil
}

func (a *App) menuItems() []list.Item {
	assessment := menuItem{title: "Start Assessment", desc: "Personal, physical, education, and OLQ steps", to: route.Route{Kind: route.Assessment}}
	if a.machine != nil && a.machine.AssessmentID() != "" {
		assessment.title = "Resume Assessment"
		assessment.desc = fmt.Sprintf("Assessment %s · %s", a.machine.AssessmentID(), a.machine.Stage().FriendlyName())
	}
	items := []list.Item{assessment}
	if a.machine != nil {
		if id := a.machine.RecommendationID(); id != "" {
			items = append(items,
				menuItem{title: "View Recommendation", desc: "Recommendation " + id, to: route.ToRecommendation(id)},
				menuItem{title: "Create Study Plan", desc: "Plan preparation for a target exam", to: route.ToNewPlan(id)})
		}
	}
	items = append(items,
		menuItem{title: "Open Path", desc: "Jump to a recommendation or study plan by path"},
		menuItem{title: "Quit", desc: "Exit careerpath"})
	return items
}

func (a *App) Init() tea.Cmd {
	return a.navigate(a.startRoute)
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.mainMenu.SetSize(max(0, msg.Width-6), max(0, msg.Height-10))
		a.resizeViewports()
		return a, nil

	case spinner.TickMsg:
		if a.pending == 0 {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case stageSubmittedMsg, questionsLoadedMsg, olqSubmittedMsg, assessmentLoadedMsg, recommendationGeneratedMsg:
		a.finishRequest()
		return a, a.assessmentView().handleResult(msg)

	case recommendationLoadedMsg, resourcesLoadedMsg, exportedMsg:
		a.finishRequest()
		return a, a.handleRecommendationResult(msg)

	case planOpenedMsg, planGeneratedMsg:
		a.finishRequest()
		return a, a.handlePlanResult(msg)

	case tea.KeyMsg:
		a.err = nil
		switch msg.String() {
		case "ctrl+c":
			return a, tea.Quit
		case "q":
			if a.state == stateHome {
				return a, tea.Quit
			}
		case "esc":
			if a.state != stateHome {
				return a.returnHome()
			}
		}
	}

	switch a.state {
	case stateHome:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			return a.handleMenuSelection()
		}
		var cmd tea.Cmd
		a.mainMenu, cmd = a.mainMenu.Update(msg)
		return a, cmd
	case stateGoto:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			path := strings.TrimSpace(a.gotoInput.Value())
			a.gotoInput.SetValue("")
			a.gotoInput.Blur()
			return a, a.navigate(route.Parse(path))
		}
		var cmd tea.Cmd
		a.gotoInput, cmd = a.gotoInput.Update(msg)
		return a, cmd
	case stateAssessment:
		return a, a.assessmentView().Update(msg)
	case stateRecommendation:
		return a, a.updateRecommendation(msg)
	case statePlan:
		return a, a.updatePlan(msg)
	case stateNotFound:
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" {
			return a.returnHome()
		}
	}
	return a, nil
}

func (a *App) handleMenuSelection() (tea.Model, tea.Cmd) {
	item, ok := a.mainMenu.SelectedItem().(menuItem)
	if !ok {
		return a, nil
	}
	switch item.title {
	case "Quit":
		return a, tea.Quit
	case "Open Path":
		a.state = stateGoto
		a.gotoInput.SetValue("")
		a.gotoInput.Focus()
		return a, textinput.Blink
	}
	return a, a.navigate(item.to)
}

func (a *App) returnHome() (tea.Model, tea.Cmd) {
	return a, a.navigate(route.Route{Kind: route.Home})
}

// navigate switches to the screen for r and starts whatever fetch it needs.
func (a *App) navigate(r route.Route) tea.Cmd {
	a.route = r
	a.err = nil
	a.notFound = nil
	a.logger.Info("navigate", zap.String("path", r.Path()), zap.Stringer("screen", r.Kind))
	switch r.Kind {
	case route.Assessment:
		a.state = stateAssessment
		return a.assessmentView().enter()
	case route.Recommendation:
		a.state = stateRecommendation
		a.recommendation = newRecommendationView(r.ID, a.width, a.height)
		return a.startRequest(a.loadRecommendation(r.ID))
	case route.PlanNew, route.PlanExisting:
		intent, _ := r.PlanIntent()
		a.state = statePlan
		a.plan = newPlanView(intent, a.width, a.height)
		return a.startRequest(a.openPlan(intent))
	default:
		a.state = stateHome
		a.mainMenu.SetItems(a.menuItems())
		return nil
	}
}

func (a *App) assessmentView() *assessmentView {
	if a.assessment == nil {
		a.assessment = newAssessmentView(a)
	}
	return a.assessment
}

// startRequest marks a request outstanding and starts the spinner with it.
func (a *App) startRequest(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	a.pending++
	if a.pending == 1 {
		return tea.Batch(cmd, a.spinner.Tick)
	}
	return cmd
}

func (a *App) finishRequest() {
	if a.pending > 0 {
		a.pending--
	}
}

func (a *App) busy() bool {
	return a.pending > 0 || a.machine.Busy()
}

// failed records err inline, or switches to the not-found screen when the
// route's artifact does not exist.
func (a *App) failed(err error) {
	var notFound *career.NotFoundError
	if errors.As(err, &notFound) {
		a.state = stateNotFound
		a.notFound = err
		a.logger.Warn("artifact not found", zap.String("path", a.route.Path()), zap.Error(err))
		return
	}
	a.err = err
	a.logger.Warn("request failed", zap.String("path", a.route.Path()), zap.Error(err))
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}
	var content string
	switch a.state {
	case stateHome:
		a.mainMenu.SetSize(max(20, leftWidth-4), max(10, a.height-12))
		content = a.mainMenu.View()
	case stateGoto:
		content = lipgloss.JoinVertical(lipgloss.Left,
			"Open path",
			"",
			a.gotoInput.View(),
			hintStyle.Render("Enter → open    Esc → cancel"))
	case stateAssessment:
		content = a.assessmentView().View(leftWidth - 4)
	case stateRecommendation:
		content = a.viewRecommendation()
	case statePlan:
		content = a.viewPlan()
	case stateNotFound:
		content = lipgloss.JoinVertical(lipgloss.Left,
			errorStyle.Render(career.UserMessage(a.notFound)),
			hintStyle.Render("Enter → return home"))
	}
	if a.err != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", errorStyle.Render("⚠ "+career.UserMessage(a.err)))
	}
	return a.renderStatusBoard(content, leftWidth, rightWidth)
}

func (a *App) renderLogPanel() string {
	if a.journal == nil {
		return ""
	}
	lines, _ := a.journal.Tail(logPanelLines)
	if len(lines) == 0 {
		return ""
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", logging.FileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
	return box
}

func (a *App) renderStatusBoard(mainContent string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ CAREERPATH  " + lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(a.route.Path()))
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(mainContent)
	var body string
	if rightWidth > 0 {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderProgressPanel(rightWidth - 4))
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	status := a.statusMsg
	if a.pending > 0 {
		status = strings.TrimSpace(a.spinner.View() + " Working... " + status)
	}
	footer := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(status)
	sections = append(sections, footer)
	return strings.Join(sections, "\n")
}

// renderProgressPanel lists the intake stages and the identifiers issued so far.
func (a *App) renderProgressPanel(width int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Progress")
	lines := []string{title}
	reached := a.machine.Reached()
	current := a.machine.Stage()
	for _, stage := range workflow.Stages() {
		label := stageLabel(stage, reached, current)
		lines = append(lines, label.style.Render(fmt.Sprintf("%s %s", label.text, stage.FriendlyName())))
	}
	if reached == workflow.StageCompleted {
		lines = append(lines, labelStyleReady.Render("✓ Completed"))
	}
	lines = append(lines, "")
	if id := a.machine.AssessmentID(); id != "" {
		lines = append(lines, detailTextStyle.Render("Assessment "+id))
	}
	if id, ok := a.machine.SessionID(); ok {
		lines = append(lines, detailTextStyle.Render("OLQ session "+id))
	}
	if id := a.machine.RecommendationID(); id != "" {
		lines = append(lines, detailTextStyle.Render("Recommendation "+id))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}
