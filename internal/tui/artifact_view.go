package tui

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/artifact"
	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/render"
	"github.com/kingrea/careerpath/internal/route"
)

type recommendationLoadedMsg struct {
	id  string
	rec career.Recommendation
	err error
}

type resourcesLoadedMsg struct {
	id   string
	role string
	res  career.RoleResources
	err  error
}

type exportedMsg struct {
	id   string
	path string
	err  error
}

type planOpenedMsg struct {
	intent artifact.PlanIntent
	view   artifact.PlanView
	err    error
}

type planGeneratedMsg struct {
	draft *artifact.PlanDraft
	plan  career.StudyPlan
	err   error
}

type recommendationView struct {
	id        string
	rec       *career.Recommendation
	selected  int
	resources *career.RoleResources
	exporting bool
	viewport  viewport.Model
}

func newRecommendationView(id string, width, height int) *recommendationView {
	w, h := viewportSize(width, height)
	return &recommendationView{id: id, viewport: viewport.New(w, h)}
}

type planView struct {
	intent     artifact.PlanIntent
	draft      *artifact.PlanDraft
	form       *form
	plan       *career.StudyPlan
	generating bool
	openFailed bool
	viewport   viewport.Model
}

func newPlanView(intent artifact.PlanIntent, width, height int) *planView {
	w, h := viewportSize(width, height)
	return &planView{intent: intent, viewport: viewport.New(w, h)}
}

func viewportSize(width, height int) (int, int) {
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 30
	}
	w := width - max(32, width/3) - 8
	if w < 36 {
		w = width - 8
	}
	return max(20, w), max(5, height-16)
}

func (a *App) resizeViewports() {
	w, h := viewportSize(a.width, a.height)
	if a.recommendation != nil {
		a.recommendation.viewport.Width = w
		a.recommendation.viewport.Height = h
		a.refreshRecommendation()
	}
	if a.plan != nil {
		a.plan.viewport.Width = w
		a.plan.viewport.Height = h
		a.refreshPlan()
	}
}

func (a *App) loadRecommendation(id string) tea.Cmd {
	resolver := a.resolver
	return func() tea.Msg {
		rec, err := resolver.ResolveRecommendation(context.Background(), id)
		return recommendationLoadedMsg{id: id, rec: rec, err: err}
	}
}

func (a *App) loadResources(id, role string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		res, err := client.Resources(context.Background(), role)
		return resourcesLoadedMsg{id: id, role: role, res: res, err: err}
	}
}

// selectedRole is the resource key of the highlighted role, or "" when the
// recommendation has no roles.
func (v *recommendationView) selectedRole() string {
	if v.rec == nil || v.selected >= len(v.rec.Recommendations) {
		return ""
	}
	role := v.rec.Recommendations[v.selected]
	if role.EntryScheme != "" {
		return role.EntryScheme
	}
	return role.RoleName
}

func (a *App) exportRecommendation(id string) tea.Cmd {
	exporter := a.exporter
	return func() tea.Msg {
		path, err := exporter.Export(context.Background(), id)
		return exportedMsg{id: id, path: path, err: err}
	}
}

func (a *App) openPlan(intent artifact.PlanIntent) tea.Cmd {
	resolver := a.resolver
	return func() tea.Msg {
		view, err := resolver.OpenPlan(context.Background(), intent)
		return planOpenedMsg{intent: intent, view: view, err: err}
	}
}

// handleRecommendationResult drops results for a recommendation or role that
// is no longer on screen. Export notifications are shown regardless.
func (a *App) handleRecommendationResult(msg tea.Msg) tea.Cmd {
	view := a.recommendation
	switch msg := msg.(type) {
	case recommendationLoadedMsg:
		if view == nil || a.state != stateRecommendation || view.id != msg.id {
			return nil
		}
		if msg.err != nil {
			a.failed(msg.err)
			return nil
		}
		rec := msg.rec
		view.rec = &rec
		a.refreshRecommendation()
	case resourcesLoadedMsg:
		if view == nil || view.rec == nil || view.id != msg.id || view.selectedRole() != msg.role {
			return nil
		}
		if msg.err != nil {
			a.err = msg.err
			return nil
		}
		res := msg.res
		view.resources = &res
		a.refreshRecommendation()
	case exportedMsg:
		if view != nil && view.id == msg.id {
			view.exporting = false
		}
		if msg.err != nil {
			a.statusMsg = career.UserMessage(msg.err)
			return nil
		}
		a.statusMsg = fmt.Sprintf("Saved %s to %s", filepath.Base(msg.path), filepath.Dir(msg.path))
	}
	return nil
}

func (a *App) refreshRecommendation() {
	view := a.recommendation
	if view == nil || view.rec == nil {
		return
	}
	content := render.Recommendation(*view.rec, view.viewport.Width, view.selected)
	if view.resources != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, content, "", render.Resources(*view.resources, view.viewport.Width))
	}
	view.viewport.SetContent(content)
}

func (a *App) updateRecommendation(msg tea.Msg) tea.Cmd {
	view := a.recommendation
	if view == nil || view.rec == nil {
		return nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		view.viewport, cmd = view.viewport.Update(msg)
		return cmd
	}
	roles := view.rec.Recommendations
	switch key.String() {
	case "tab":
		if len(roles) > 0 {
			view.selected = (view.selected + 1) % len(roles)
			view.resources = nil
			a.refreshRecommendation()
		}
		return nil
	case "shift+tab":
		if len(roles) > 0 {
			view.selected = (view.selected + len(roles) - 1) % len(roles)
			view.resources = nil
			a.refreshRecommendation()
		}
		return nil
	case "p":
		return a.navigate(route.ToNewPlan(view.id))
	case "d":
		if view.exporting {
			return nil
		}
		view.exporting = true
		a.statusMsg = "Exporting PDF..."
		return a.startRequest(a.exportRecommendation(view.id))
	case "r":
		if view.resources != nil {
			view.resources = nil
			a.refreshRecommendation()
			return nil
		}
		name := view.selectedRole()
		if name == "" {
			return nil
		}
		return a.startRequest(a.loadResources(view.id, name))
	}
	var cmd tea.Cmd
	view.viewport, cmd = view.viewport.Update(msg)
	return cmd
}

func (a *App) viewRecommendation() string {
	view := a.recommendation
	if view == nil || view.rec == nil {
		return "Loading recommendation..."
	}
	hint := "↑↓ → scroll    Tab → next role    P → study plan    D → export PDF    R → resources    Esc → home"
	return lipgloss.JoinVertical(lipgloss.Left, view.viewport.View(), hintStyle.Render(hint))
}

// handlePlanResult applies plan results to the view that requested them. A
// generated plan is shown directly from the generation response and the route
// switches to its id.
func (a *App) handlePlanResult(msg tea.Msg) tea.Cmd {
	view := a.plan
	switch msg := msg.(type) {
	case planOpenedMsg:
		if view == nil || a.state != statePlan || view.intent != msg.intent {
			return nil
		}
		if msg.err != nil {
			view.openFailed = true
			a.failed(msg.err)
			return nil
		}
		view.openFailed = false
		if msg.view.Draft != nil {
			view.draft = msg.view.Draft
			view.form = newForm("New Study Plan", planFields(view.draft), nil)
			return nil
		}
		view.plan = msg.view.Plan
		a.refreshPlan()
	case planGeneratedMsg:
		if view == nil || view.draft != msg.draft {
			if msg.err == nil {
				a.logger.Info("dropped result for a closed plan form", zap.String("plan_id", msg.plan.PlanID))
			}
			return nil
		}
		view.generating = false
		if msg.err != nil {
			if a.state == statePlan {
				a.failed(msg.err)
			}
			return nil
		}
		plan := msg.plan
		view.plan = &plan
		view.draft = nil
		view.form = nil
		a.statusMsg = "Study plan " + plan.PlanID + " created"
		if a.state == statePlan {
			a.route = route.ToPlan(plan.PlanID)
			view.intent = artifact.ExistingPlan{PlanID: plan.PlanID}
		}
		a.refreshPlan()
	}
	return nil
}

func (a *App) refreshPlan() {
	view := a.plan
	if view == nil || view.plan == nil {
		return
	}
	view.viewport.SetContent(render.StudyPlan(*view.plan, view.viewport.Width))
}

func (a *App) updatePlan(msg tea.Msg) tea.Cmd {
	view := a.plan
	if view == nil {
		return nil
	}
	key, isKey := msg.(tea.KeyMsg)
	if view.form != nil {
		if isKey {
			switch key.String() {
			case "ctrl+s":
				return a.generatePlan()
			case "enter":
				if view.form.onLast() {
					return a.generatePlan()
				}
				view.form.next()
				return nil
			}
		}
		return view.form.Update(msg)
	}
	if view.plan == nil {
		if isKey && key.String() == "ctrl+r" && view.openFailed && !a.busy() {
			view.openFailed = false
			return a.startRequest(a.openPlan(view.intent))
		}
		return nil
	}
	if isKey && key.String() == "b" && view.plan.RecommendationID != "" {
		return a.navigate(route.ToRecommendation(view.plan.RecommendationID))
	}
	var cmd tea.Cmd
	view.viewport, cmd = view.viewport.Update(msg)
	return cmd
}

func (a *App) generatePlan() tea.Cmd {
	view := a.plan
	if view == nil || view.draft == nil || view.form == nil {
		return nil
	}
	if view.generating || a.busy() {
		a.statusMsg = "Please wait for the current request to finish"
		return nil
	}
	form, err := parsePlanForm(view.form.Values())
	if err != nil {
		a.err = err
		return nil
	}
	if _, err := view.draft.Request(form); err != nil {
		a.err = err
		return nil
	}
	view.generating = true
	draft := view.draft
	return a.startRequest(func() tea.Msg {
		plan, err := draft.Generate(context.Background(), form)
		return planGeneratedMsg{draft: draft, plan: plan, err: err}
	})
}

func (a *App) viewPlan() string {
	view := a.plan
	switch {
	case view == nil:
		return ""
	case view.form != nil:
		hint := fmt.Sprintf("Recommendation %s · earliest target %s", view.draft.RecommendationID(), view.draft.MinTargetDate())
		return lipgloss.JoinVertical(lipgloss.Left,
			view.form.View(),
			hintStyle.Render(hint),
			hintStyle.Render("Tab/↑↓ → move    ←→ → change exam    Enter on last field or Ctrl+S → generate    Esc → home"))
	case view.plan != nil:
		hint := "↑↓ → scroll    B → recommendation    Esc → home"
		return lipgloss.JoinVertical(lipgloss.Left, view.viewport.View(), hintStyle.Render(hint))
	case view.openFailed:
		return "Could not open the study plan. Ctrl+R → retry"
	default:
		return "Loading study plan..."
	}
}
