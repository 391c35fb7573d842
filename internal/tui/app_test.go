package tui

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/careerpath/internal/api"
	"github.com/kingrea/careerpath/internal/artifact"
	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/config"
	"github.com/kingrea/careerpath/internal/fakeapi"
	"github.com/kingrea/careerpath/internal/logging"
	"github.com/kingrea/careerpath/internal/route"
	"github.com/kingrea/careerpath/internal/workflow"
)

type harness struct {
	app    *App
	fake   *fakeapi.Server
	client *api.Client
	cfg    *config.Config
}

func newHarness(t *testing.T, fakeOpts []fakeapi.Option, opts ...AppOption) harness {
	t.Helper()
	fake := fakeapi.New(fakeapi.DefaultSettings(), fakeOpts...)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	for _, key := range []string{"CAREERPATH_API_URL", "CAREERPATH_DOWNLOAD_DIR", "CAREERPATH_LOG_LEVEL"} {
		t.Setenv(key, "")
	}
	projectDir := t.TempDir()
	if err := config.InitAppDir(projectDir); err != nil {
		t.Fatalf("init app dir: %v", err)
	}
	cfg, err := config.NewConfig(projectDir)
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	app, err := NewApp(cfg, client, opts...)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	return harness{app: app, fake: fake, client: client, cfg: cfg}
}

func (h harness) press(t *testing.T, key string) *App {
	t.Helper()
	model, cmd := h.app.Update(keyMsg(key))
	return runCommands(t, model, cmd)
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+b":
		return tea.KeyMsg{Type: tea.KeyCtrlB}
	case "ctrl+r":
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

// runCommands executes cmd and feeds request results back into Update until
// nothing is left. Timer-driven messages (spinner, cursor blink) are dropped.
func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		msg := next()
		if batch, ok := msg.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		if !isResultMsg(msg) {
			continue
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		queue = append(queue, nextCmd)
	}
	return app
}

func isResultMsg(msg tea.Msg) bool {
	switch msg.(type) {
	case stageSubmittedMsg, questionsLoadedMsg, olqSubmittedMsg, assessmentLoadedMsg, recommendationGeneratedMsg,
		recommendationLoadedMsg, resourcesLoadedMsg, exportedMsg, planOpenedMsg, planGeneratedMsg:
		return true
	}
	return false
}

func (h harness) open(t *testing.T, r route.Route) *App {
	t.Helper()
	return runCommands(t, h.app, h.app.navigate(r))
}

func (h harness) fill(t *testing.T, stage workflow.Stage, values map[string]string) {
	t.Helper()
	f := h.app.assessmentView().formFor(stage)
	if f == nil {
		t.Fatalf("no form for %s", stage)
	}
	for k, v := range values {
		f.SetValue(k, v)
	}
}

var (
	personalInput = map[string]string{
		"full_name": "Arjun Mehta", "email": "arjun@example.com", "phone": "9876543210",
		"date_of_birth": "2001-05-14", "gender": "male", "state": "Maharashtra", "city": "Pune",
	}
	physicalInput = map[string]string{
		"height_cm": "175", "weight_kg": "68", "eyesight_left": "6", "eyesight_right": "6",
	}
	educationInput = map[string]string{
		"highest_education": "Graduate", "stream": "Science", "university": "Pune University",
		"graduation_year": "2023", "percentage_or_cgpa": "72.5", "additional_qualifications": "NCC C, Diploma",
	}
)

// completeIntake drives the intake screens up to the completed stage.
func (h harness) completeIntake(t *testing.T) {
	t.Helper()
	h.open(t, route.Route{Kind: route.Assessment})
	h.fill(t, workflow.StagePersonal, personalInput)
	h.press(t, "ctrl+s")
	h.fill(t, workflow.StagePhysical, physicalInput)
	h.press(t, "ctrl+s")
	h.fill(t, workflow.StageEducation, educationInput)
	h.press(t, "ctrl+s")
	if got := h.app.machine.Stage(); got != workflow.StageOLQ {
		t.Fatalf("stage = %s, err = %v", got, h.app.err)
	}
	for range h.app.machine.Questions() {
		h.press(t, "enter")
	}
	h.press(t, "s")
	if got := h.app.machine.Stage(); got != workflow.StageCompleted {
		t.Fatalf("stage after olq = %s, err = %v", got, h.app.err)
	}
}

func TestAssessmentToStudyPlan(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(2)})
	h.fake.NextSessionID("S9")
	h.completeIntake(t)

	if id := h.app.machine.AssessmentID(); id != "A1" {
		t.Fatalf("assessment id = %q", id)
	}
	subs := h.fake.Submissions()
	if len(subs) != 1 || subs[0].SessionID != "S9" || len(subs[0].Body.Responses) != 2 {
		t.Fatalf("submissions = %+v", subs)
	}
	if h.app.assessment.record == nil || !h.app.assessment.record.Completed {
		t.Fatalf("assessment summary not loaded")
	}

	app := h.press(t, "enter")
	if app.state != stateRecommendation || app.route != route.ToRecommendation("R1") {
		t.Fatalf("state = %d route = %+v", app.state, app.route)
	}
	if app.recommendation.rec == nil || app.recommendation.rec.OLQScore != fakeapi.FixedOLQScore {
		t.Fatalf("recommendation not resolved: %+v", app.recommendation)
	}
	if !strings.Contains(app.View(), "Indian Army Officer") {
		t.Fatalf("recommendation not rendered")
	}

	app = h.press(t, "p")
	if app.state != statePlan || app.plan.form == nil {
		t.Fatalf("plan form not shown, err = %v", app.err)
	}
	target := career.NewDate(time.Now().AddDate(0, 0, 60)).String()
	app.plan.form.SetValue("target_date", target)
	app.plan.form.SetValue("hours_per_day", "4")
	app.plan.form.SetValue("exam_type", "CDS")
	app = h.press(t, "ctrl+s")
	if app.plan.plan == nil {
		t.Fatalf("plan not generated, err = %v", app.err)
	}
	plan := app.plan.plan
	if plan.PlanID != "P1" || plan.TotalDays < 59 || plan.TotalDays > 61 || plan.HoursPerDay != 4 {
		t.Fatalf("plan = %s, %d days, %v h", plan.PlanID, plan.TotalDays, plan.HoursPerDay)
	}
	if app.route != route.ToPlan("P1") {
		t.Fatalf("route = %s", app.route.Path())
	}
	if h.fake.Calls(fakeapi.RoutePlan) != 0 {
		t.Fatalf("generated plan was re-fetched")
	}
	if !strings.Contains(app.View(), "Study Plan P1") {
		t.Fatalf("plan not rendered")
	}
}

func TestValidationErrorSendsNothing(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, route.Route{Kind: route.Assessment})
	h.fill(t, workflow.StagePersonal, map[string]string{"full_name": "Arjun Mehta"})
	app := h.press(t, "ctrl+s")
	var validation *career.ValidationError
	if !errors.As(app.err, &validation) || validation.Field != "email" {
		t.Fatalf("err = %v", app.err)
	}
	if h.fake.Calls(fakeapi.RouteStart) != 0 {
		t.Fatalf("invalid form reached the server")
	}
	if got := app.assessment.formFor(workflow.StagePersonal).Values()["full_name"]; got != "Arjun Mehta" {
		t.Fatalf("form lost input: %q", got)
	}
	if !strings.Contains(app.View(), "Email is required") {
		t.Fatalf("inline error not rendered")
	}
}

func TestUpstreamFailureKeepsStageAndInput(t *testing.T) {
	h := newHarness(t, nil)
	h.fake.FailNext(fakeapi.RouteStart, http.StatusServiceUnavailable, "Service unavailable")
	h.open(t, route.Route{Kind: route.Assessment})
	h.fill(t, workflow.StagePersonal, personalInput)
	app := h.press(t, "ctrl+s")
	if career.UserMessage(app.err) != "Service unavailable" {
		t.Fatalf("err = %v", app.err)
	}
	if app.machine.Stage() != workflow.StagePersonal || app.machine.AssessmentID() != "" {
		t.Fatalf("stage advanced on failure")
	}
	app = h.press(t, "ctrl+s")
	if app.machine.AssessmentID() != "A1" || app.machine.Stage() != workflow.StagePhysical {
		t.Fatalf("retry failed: %v", app.err)
	}
}

func TestBackKeepsDraftsAndSkipsUnchangedResubmit(t *testing.T) {
	h := newHarness(t, nil)
	h.open(t, route.Route{Kind: route.Assessment})
	h.fill(t, workflow.StagePersonal, personalInput)
	h.press(t, "ctrl+s")
	h.fill(t, workflow.StagePhysical, map[string]string{"height_cm": "175"})
	app := h.press(t, "ctrl+b")
	if app.machine.Stage() != workflow.StagePersonal {
		t.Fatalf("stage = %s", app.machine.Stage())
	}
	app = h.press(t, "ctrl+s")
	if app.machine.Stage() != workflow.StagePhysical || h.fake.Calls(fakeapi.RouteStart) != 1 {
		t.Fatalf("unchanged resubmit issued %d starts", h.fake.Calls(fakeapi.RouteStart))
	}
	if got := app.assessment.formFor(workflow.StagePhysical).Values()["height_cm"]; got != "175" {
		t.Fatalf("physical input lost: %q", got)
	}
}

func TestIncompleteOLQIsRejectedLocally(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(2)})
	h.open(t, route.Route{Kind: route.Assessment})
	h.fill(t, workflow.StagePersonal, personalInput)
	h.press(t, "ctrl+s")
	h.fill(t, workflow.StagePhysical, physicalInput)
	h.press(t, "ctrl+s")
	h.fill(t, workflow.StageEducation, educationInput)
	h.press(t, "ctrl+s")
	h.press(t, "enter")
	app := h.press(t, "s")
	var incomplete *career.IncompleteResponseError
	if !errors.As(app.err, &incomplete) || incomplete.Answered != 1 || incomplete.Required != 2 {
		t.Fatalf("err = %v", app.err)
	}
	if h.fake.Calls(fakeapi.RouteSubmitOLQ) != 0 {
		t.Fatalf("incomplete responses reached the server")
	}
}

func TestUnknownRecommendationShowsNotFound(t *testing.T) {
	h := newHarness(t, nil)
	app := h.open(t, route.ToRecommendation("R404"))
	if app.state != stateNotFound {
		t.Fatalf("state = %d, err = %v", app.state, app.err)
	}
	if !strings.Contains(app.View(), "Recommendation not found") {
		t.Fatalf("not-found message missing")
	}
	app = h.press(t, "enter")
	if app.state != stateHome {
		t.Fatalf("enter should return home, state = %d", app.state)
	}
}

// seedRecommendation runs an intake directly against the fake service.
func seedRecommendation(t *testing.T, client *api.Client) string {
	t.Helper()
	ctx := context.Background()
	dob, _ := career.ParseDate("2000-01-01")
	record, err := client.StartAssessment(ctx, career.PersonalDetails{
		FullName: "Meera Iyer", Email: "meera@example.com", Phone: "9000000001",
		DateOfBirth: dob, Gender: career.GenderFemale, State: "Tamil Nadu", City: "Chennai",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var responses []career.OLQResponse
	set, err := client.OLQQuestions(ctx)
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	for _, q := range set.Questions() {
		responses = append(responses, career.OLQResponse{QuestionID: q.QuestionID})
	}
	sessionID, _ := set.SessionID()
	if _, err := client.SubmitOLQ(ctx, career.OLQSubmission{AssessmentID: record.AssessmentID, Responses: responses}, sessionID); err != nil {
		t.Fatalf("olq: %v", err)
	}
	rec, err := client.GenerateRecommendation(ctx, record.AssessmentID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	return rec.RecommendationID
}

func TestStartRouteOpensExistingPlan(t *testing.T) {
	fake := []fakeapi.Option{fakeapi.WithQuestionCount(1)}
	seed := newHarness(t, fake)
	recID := seedRecommendation(t, seed.client)
	plan, err := seed.client.GenerateStudyPlan(context.Background(), career.StudyPlanRequest{
		RecommendationID: recID,
		TargetDate:       career.NewDate(time.Now().AddDate(0, 0, 30)),
		HoursPerDay:      3,
		ExamType:         "NDA",
	})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	app, err := NewApp(seed.cfg, seed.client, WithStartRoute(route.Parse("/study-plan/"+plan.PlanID)))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	exams := seed.fake.Calls(fakeapi.RouteExams)
	app = runCommands(t, app, app.Init())
	if app.state != statePlan || app.plan.plan == nil || app.plan.plan.PlanID != plan.PlanID {
		t.Fatalf("plan not shown: state=%d err=%v", app.state, app.err)
	}
	if app.plan.form != nil || seed.fake.Calls(fakeapi.RouteExams) != exams {
		t.Fatalf("existing-plan route opened the new-plan form")
	}
}

func TestExportWritesPDFWithoutChangingScreen(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	recID := seedRecommendation(t, h.client)
	h.open(t, route.ToRecommendation(recID))
	app := h.press(t, "d")
	path := filepath.Join(h.cfg.DownloadDir(), "career_recommendation_"+recID+".pdf")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("export missing: %v (status %q)", err, app.statusMsg)
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("unexpected export contents")
	}
	if app.state != stateRecommendation || !strings.Contains(app.statusMsg, "Saved") {
		t.Fatalf("state = %d status = %q", app.state, app.statusMsg)
	}

	h.fake.FailNext(fakeapi.RouteExport, http.StatusInternalServerError, "")
	app = h.press(t, "d")
	if app.statusMsg != "Failed to export PDF" || app.state != stateRecommendation || app.err != nil {
		t.Fatalf("failure not reported as notification: status=%q err=%v", app.statusMsg, app.err)
	}
}

func TestResourcesForSelectedRole(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	recID := seedRecommendation(t, h.client)
	h.open(t, route.ToRecommendation(recID))
	app := h.press(t, "r")
	if app.recommendation.resources == nil || app.recommendation.resources.Role != "CDS" {
		t.Fatalf("resources not loaded: %v", app.err)
	}
	app = h.press(t, "r")
	if app.recommendation.resources != nil {
		t.Fatalf("second press should hide resources")
	}
}

func TestResourcesForDeselectedRoleAreDropped(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	recID := seedRecommendation(t, h.client)
	app := h.open(t, route.ToRecommendation(recID))
	app.recommendation.rec.Recommendations = append(app.recommendation.rec.Recommendations,
		career.RoleRecommendation{RoleName: "Indian Navy Officer", EntryScheme: "NDA"})
	_, held := app.Update(keyMsg("r"))
	app = h.press(t, "tab")
	app = runCommands(t, app, held)
	if app.recommendation.selected != 1 || app.recommendation.resources != nil {
		t.Fatalf("resources for the first role shown under the second: %+v", app.recommendation.resources)
	}
}

func TestResourcesForClosedRecommendationAreDropped(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	first := seedRecommendation(t, h.client)
	second := seedRecommendation(t, h.client)
	app := h.open(t, route.ToRecommendation(first))
	_, held := app.Update(keyMsg("r"))
	app = h.open(t, route.ToRecommendation(second))
	app = runCommands(t, app, held)
	if app.recommendation.id != second || app.recommendation.resources != nil {
		t.Fatalf("resources from %s shown on %s", first, app.recommendation.id)
	}
}

func TestLateGeneratedPlanDoesNotReplaceOpenedPlan(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	recID := seedRecommendation(t, h.client)
	stored, err := h.client.GenerateStudyPlan(context.Background(), career.StudyPlanRequest{
		RecommendationID: recID,
		TargetDate:       career.NewDate(time.Now().AddDate(0, 0, 30)),
		HoursPerDay:      2,
		ExamType:         "CDS",
	})
	if err != nil {
		t.Fatalf("seed plan: %v", err)
	}
	app := h.open(t, route.ToNewPlan(recID))
	if app.plan.form == nil {
		t.Fatalf("plan form not shown, err = %v", app.err)
	}
	app.plan.form.SetValue("target_date", career.NewDate(time.Now().AddDate(0, 0, 45)).String())
	app.plan.form.SetValue("hours_per_day", "4")
	app.plan.form.SetValue("exam_type", "CDS")
	_, held := app.Update(keyMsg("ctrl+s"))

	h.press(t, "esc")
	app = h.open(t, route.ToPlan(stored.PlanID))
	app = runCommands(t, app, held)

	if h.fake.Calls(fakeapi.RouteGeneratePlan) != 2 {
		t.Fatalf("held generation did not run: %d calls", h.fake.Calls(fakeapi.RouteGeneratePlan))
	}
	if app.route != route.ToPlan(stored.PlanID) {
		t.Fatalf("route = %s, want %s", app.route.Path(), route.ToPlan(stored.PlanID).Path())
	}
	if app.plan.plan == nil || app.plan.plan.PlanID != stored.PlanID {
		t.Fatalf("shown plan replaced by a late generation result: %+v", app.plan.plan)
	}
	if app.plan.intent != (artifact.ExistingPlan{PlanID: stored.PlanID}) {
		t.Fatalf("intent = %#v", app.plan.intent)
	}
}

func TestOpenPathFromHome(t *testing.T) {
	h := newHarness(t, []fakeapi.Option{fakeapi.WithQuestionCount(1)})
	recID := seedRecommendation(t, h.client)
	h.app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	h.app.mainMenu.Select(1)
	app := h.press(t, "enter")
	if app.state != stateGoto {
		t.Fatalf("state = %d", app.state)
	}
	app.gotoInput.SetValue("/study-plan/new/" + recID)
	app = h.press(t, "enter")
	if app.state != statePlan || app.plan.form == nil {
		t.Fatalf("new plan form not opened: state=%d err=%v", app.state, app.err)
	}
	if intent, isNew := app.plan.intent.(artifact.NewPlan); !isNew || intent.RecommendationID != recID {
		t.Fatalf("intent = %#v", app.plan.intent)
	}
	app = h.press(t, "esc")
	if app.state != stateHome {
		t.Fatalf("esc should return home")
	}
}

func TestLogPanelShowsJournal(t *testing.T) {
	journal := logging.NewJournal(20)
	logger, err := logging.New(logging.Options{Level: "info", Journal: journal})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	h := newHarness(t, nil, WithLogger(logger), WithJournal(journal))
	h.open(t, route.Route{Kind: route.Assessment})
	if view := h.app.View(); !strings.Contains(view, "LOG · "+logging.FileName) || !strings.Contains(view, "navigate") {
		t.Fatalf("log panel missing:\n%s", view)
	}
}
