package artifact

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kingrea/careerpath/internal/api"
	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/fakeapi"
)

type fixture struct {
	resolver *Resolver
	fake     *fakeapi.Server
	client   *api.Client
	recID    string
}

// newFixture runs a full intake against the fake service so a recommendation exists.
func newFixture(t *testing.T) fixture {
	t.Helper()
	fake := fakeapi.New(fakeapi.DefaultSettings(), fakeapi.WithQuestionCount(1))
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client, err := api.New(srv.URL)
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	ctx := context.Background()
	dob, _ := career.ParseDate("2000-01-01")
	record, err := client.StartAssessment(ctx, career.PersonalDetails{
		FullName: "Priya Nair", Email: "priya@example.com", Phone: "9000000000",
		DateOfBirth: dob, Gender: career.GenderFemale, State: "Kerala", City: "Kochi",
	})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	submission := career.OLQSubmission{AssessmentID: record.AssessmentID, Responses: []career.OLQResponse{{QuestionID: career.NumericQuestionID(1)}}}
	if _, err := client.SubmitOLQ(ctx, submission, ""); err != nil {
		t.Fatalf("olq: %v", err)
	}
	rec, err := client.GenerateRecommendation(ctx, record.AssessmentID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	resolver, err := New(client)
	if err != nil {
		t.Fatalf("resolver: %v", err)
	}
	return fixture{resolver: resolver, fake: fake, client: client, recID: rec.RecommendationID}
}

func daysOut(n int) career.Date {
	return career.NewDate(time.Now().AddDate(0, 0, n))
}

func TestResolveRecommendation(t *testing.T) {
	f := newFixture(t)
	rec, err := f.resolver.ResolveRecommendation(context.Background(), f.recID)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rec.OLQScore != 72.3 || len(rec.Recommendations) != 1 || rec.Recommendations[0].MatchScore != 88 {
		t.Fatalf("unexpected recommendation: %+v", rec)
	}
}

func TestUnknownRecommendationIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.ResolveRecommendation(context.Background(), "R404")
	var notFound *career.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "R404" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if career.UserMessage(err) != "Recommendation not found" {
		t.Fatalf("message = %q", career.UserMessage(err))
	}
}

func TestMalformedPlanIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"plan_id":"","total_days":-3}`)
	}))
	t.Cleanup(srv.Close)
	client, _ := api.New(srv.URL)
	resolver, _ := New(client)
	_, err := resolver.OpenPlan(context.Background(), ExistingPlan{PlanID: "P1"})
	var notFound *career.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError for malformed plan, got %v", err)
	}
}

func TestMalformedGeneratedPlanIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.Method == http.MethodGet {
			_, _ = io.WriteString(w, `{"exams":[{"exam_code":"CDS","exam_name":"Combined Defence Services","conducting_body":"UPSC"}]}`)
			return
		}
		_, _ = io.WriteString(w, `{"plan_id":"P7","total_days":-3}`)
	}))
	t.Cleanup(srv.Close)
	client, _ := api.New(srv.URL)
	resolver, _ := New(client)
	ctx := context.Background()
	view, err := resolver.OpenPlan(ctx, NewPlan{RecommendationID: "R1"})
	if err != nil || view.Draft == nil {
		t.Fatalf("open: %+v, %v", view, err)
	}
	_, err = view.Draft.Generate(ctx, PlanForm{TargetDate: daysOut(30), HoursPerDay: 3, ExamType: "CDS"})
	var notFound *career.NotFoundError
	if !errors.As(err, &notFound) || notFound.ID != "P7" {
		t.Fatalf("expected NotFoundError for malformed generated plan, got %v", err)
	}
}

func TestPlanModesAreExclusive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.resolver.OpenPlan(ctx, NewPlan{RecommendationID: f.recID})
	if err != nil {
		t.Fatalf("open new: %v", err)
	}
	if view.Draft == nil || view.Plan != nil {
		t.Fatalf("new mode returned %+v", view)
	}
	plan, err := view.Draft.Generate(ctx, PlanForm{TargetDate: daysOut(60), HoursPerDay: 4, ExamType: "CDS"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if f.fake.Calls(fakeapi.RoutePlan) != 0 {
		t.Fatalf("new-plan mode fetched an existing plan")
	}
	if plan.PlanID != "P1" || len(plan.Modules) == 0 {
		t.Fatalf("plan = %q with %d modules", plan.PlanID, len(plan.Modules))
	}
	if plan.TotalDays < 59 || plan.TotalDays > 61 {
		t.Fatalf("total_days = %d, want about 60", plan.TotalDays)
	}

	existing, err := f.resolver.OpenPlan(ctx, ExistingPlan{PlanID: plan.PlanID})
	if err != nil {
		t.Fatalf("open existing: %v", err)
	}
	if existing.Plan == nil || existing.Draft != nil || existing.Plan.PlanID != "P1" {
		t.Fatalf("existing mode returned %+v", existing)
	}
	if f.fake.Calls(fakeapi.RouteGeneratePlan) != 1 || f.fake.Calls(fakeapi.RouteExams) != 1 {
		t.Fatalf("existing-plan mode issued generate=%d exams=%d",
			f.fake.Calls(fakeapi.RouteGeneratePlan), f.fake.Calls(fakeapi.RouteExams))
	}
}

func TestGenerateTwiceYieldsDistinctPlans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.resolver.OpenPlan(ctx, NewPlan{RecommendationID: f.recID})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	first, err := view.Draft.Generate(ctx, PlanForm{TargetDate: daysOut(30), HoursPerDay: 3, ExamType: "NDA"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := view.Draft.Generate(ctx, PlanForm{TargetDate: daysOut(90), HoursPerDay: 3, ExamType: "NDA"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.PlanID == second.PlanID {
		t.Fatalf("plans share id %q", first.PlanID)
	}
}

func TestHoursPerDayBoundaries(t *testing.T) {
	f := newFixture(t)
	view, err := f.resolver.OpenPlan(context.Background(), NewPlan{RecommendationID: f.recID})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	for hours, ok := range map[float64]bool{0.999: false, 1.0: true, 16.0: true, 16.001: false} {
		_, err := view.Draft.Request(PlanForm{TargetDate: daysOut(10), HoursPerDay: hours, ExamType: "CDS"})
		if ok && err != nil {
			t.Fatalf("hours %v rejected: %v", hours, err)
		}
		var validation *career.ValidationError
		if !ok && (!errors.As(err, &validation) || validation.Field != "hours_per_day") {
			t.Fatalf("hours %v accepted or wrong error: %v", hours, err)
		}
	}
}

func TestTargetDateMustBeFuture(t *testing.T) {
	f := newFixture(t)
	fixed := time.Date(2025, 3, 10, 18, 0, 0, 0, time.Local)
	resolver, _ := New(f.client, WithClock(func() time.Time { return fixed }))
	view, err := resolver.OpenPlan(context.Background(), NewPlan{RecommendationID: f.recID})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if got := view.Draft.MinTargetDate().String(); got != "2025-03-11" {
		t.Fatalf("min target date = %s", got)
	}
	for _, date := range []string{"2025-03-09", "2025-03-10"} {
		d, _ := career.ParseDate(date)
		_, err := view.Draft.Request(PlanForm{TargetDate: d, HoursPerDay: 2, ExamType: "CDS"})
		var validation *career.ValidationError
		if !errors.As(err, &validation) || validation.Field != "target_date" {
			t.Fatalf("target %s: expected target_date ValidationError, got %v", date, err)
		}
	}
	tomorrow, _ := career.ParseDate("2025-03-11")
	if _, err := view.Draft.Request(PlanForm{TargetDate: tomorrow, HoursPerDay: 2, ExamType: "CDS"}); err != nil {
		t.Fatalf("tomorrow rejected: %v", err)
	}
}

func TestExamMustComeFromCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	view, err := f.resolver.OpenPlan(ctx, NewPlan{RecommendationID: f.recID})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	_, err = view.Draft.Generate(ctx, PlanForm{TargetDate: daysOut(10), HoursPerDay: 2, ExamType: "GATE"})
	var validation *career.ValidationError
	if !errors.As(err, &validation) || validation.Field != "exam_type" {
		t.Fatalf("expected exam_type ValidationError, got %v", err)
	}
	if f.fake.Calls(fakeapi.RouteGeneratePlan) != 0 {
		t.Fatalf("invalid form reached the server")
	}
}

func TestUnknownPlanIsNotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.resolver.OpenPlan(context.Background(), ExistingPlan{PlanID: "P77"})
	if career.UserMessage(err) != "Study plan not found" {
		t.Fatalf("message = %q (%v)", career.UserMessage(err), err)
	}
}
