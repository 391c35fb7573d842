package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/fakeapi"
)

func newTestClient(t *testing.T, opts ...fakeapi.Option) (*Client, *fakeapi.Server) {
	t.Helper()
	fake := fakeapi.New(fakeapi.DefaultSettings(), opts...)
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)
	client, err := New(srv.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return client, fake
}

func personal() career.PersonalDetails {
	dob, _ := career.ParseDate("2001-06-15")
	return career.PersonalDetails{
		FullName:    "Arjun Mehta",
		Email:       "arjun@example.com",
		Phone:       "9876543210",
		DateOfBirth: dob,
		Gender:      career.GenderMale,
		State:       "Maharashtra",
		City:        "Pune",
	}
}

func TestNewRejectsRelativeBaseURL(t *testing.T) {
	if _, err := New("localhost:8000"); err == nil {
		t.Fatalf("expected error for base url without scheme")
	}
	if _, err := New(""); err == nil {
		t.Fatalf("expected error for empty base url")
	}
}

func TestStartAssessmentReturnsServerID(t *testing.T) {
	client, fake := newTestClient(t)
	record, err := client.StartAssessment(context.Background(), personal())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if record.AssessmentID != "A1" {
		t.Fatalf("assessment id = %q, want A1", record.AssessmentID)
	}
	if fake.Calls(fakeapi.RouteStart) != 1 {
		t.Fatalf("start calls = %d", fake.Calls(fakeapi.RouteStart))
	}
}

func TestUpstreamDetailIsDecoded(t *testing.T) {
	client, _ := newTestClient(t)
	_, err := client.UpdatePhysical(context.Background(), "A404", career.PhysicalDetails{HeightCM: 170, WeightKG: 65})
	var upstream *career.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusNotFound || upstream.Detail != "Assessment not found" {
		t.Fatalf("unexpected upstream error: %+v", upstream)
	}
	if !IsNotFound(err) {
		t.Fatalf("IsNotFound(%v) = false", err)
	}
}

func TestValidationListDetailIsDecoded(t *testing.T) {
	client, _ := newTestClient(t)
	details := personal()
	details.City = ""
	_, err := client.StartAssessment(context.Background(), details)
	var upstream *career.UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstream.Status != http.StatusUnprocessableEntity || upstream.Detail != "city: is required" {
		t.Fatalf("unexpected detail %q (status %d)", upstream.Detail, upstream.Status)
	}
}

func TestOLQQuestionsDecodesSessionVariant(t *testing.T) {
	client, fake := newTestClient(t, fakeapi.WithQuestionCount(3))
	set, err := client.OLQQuestions(context.Background())
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if id, ok := set.SessionID(); !ok || id != "S1" {
		t.Fatalf("session = %q,%v want S1", id, ok)
	}
	if set.Len() != 3 {
		t.Fatalf("questions = %d, want 3", set.Len())
	}

	fake.UseLegacyQuestions(true)
	legacy, err := client.OLQQuestions(context.Background())
	if err != nil {
		t.Fatalf("legacy questions: %v", err)
	}
	if _, ok := legacy.SessionID(); ok {
		t.Fatalf("legacy response should decode as sessionless")
	}
}

func TestDecodeQuestionSetShapes(t *testing.T) {
	set, err := DecodeQuestionSet([]byte(`{"questions":[{"question_id":1,"question":"q","options":["a"]}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := set.SessionID(); ok {
		t.Fatalf("object without session_id should be sessionless")
	}
	for name, payload := range map[string]string{
		"no questions": `{"session_id":"S1"}`,
		"scalar":       `"nope"`,
		"no options":   `[{"question_id":1,"question":"q","options":[]}]`,
		"duplicate":    `[{"question_id":1,"options":["a"]},{"question_id":1,"options":["b"]}]`,
		"missing id":   `[{"question":"q","options":["a"]}]`,
	} {
		if _, err := DecodeQuestionSet([]byte(payload)); err == nil {
			t.Fatalf("%s: expected decode error", name)
		}
	}
}

func TestSubmitOLQOmitsSessionWhenEmpty(t *testing.T) {
	client, fake := newTestClient(t, fakeapi.WithQuestionCount(1))
	ctx := context.Background()
	record, err := client.StartAssessment(ctx, personal())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	submission := career.OLQSubmission{
		AssessmentID: record.AssessmentID,
		Responses:    []career.OLQResponse{{QuestionID: career.NumericQuestionID(1), SelectedOption: 1}},
	}
	if _, err := client.SubmitOLQ(ctx, submission, ""); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := client.SubmitOLQ(ctx, submission, "S5"); err != nil {
		t.Fatalf("submit with session: %v", err)
	}
	subs := fake.Submissions()
	if len(subs) != 2 {
		t.Fatalf("submissions = %d", len(subs))
	}
	if subs[0].HasSession {
		t.Fatalf("empty session id must not be sent, got %q", subs[0].SessionID)
	}
	if !subs[1].HasSession || subs[1].SessionID != "S5" {
		t.Fatalf("session param = %+v", subs[1])
	}
}

func TestExportStreamsPDF(t *testing.T) {
	client, fake := newTestClient(t, fakeapi.WithQuestionCount(1))
	ctx := context.Background()
	record, _ := client.StartAssessment(ctx, personal())
	_, _ = client.SubmitOLQ(ctx, career.OLQSubmission{AssessmentID: record.AssessmentID, Responses: []career.OLQResponse{{QuestionID: career.NumericQuestionID(1)}}}, "")
	rec, err := client.GenerateRecommendation(ctx, record.AssessmentID)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	body, err := client.ExportRecommendation(ctx, rec.RecommendationID)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if !strings.HasPrefix(string(data), "%PDF") {
		t.Fatalf("export body is not a pdf: %q", data)
	}
	if fake.Calls(fakeapi.RouteExport) != 1 {
		t.Fatalf("export calls = %d", fake.Calls(fakeapi.RouteExport))
	}
}

func TestRequestsCarryHeaders(t *testing.T) {
	var seen http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Header.Clone()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"exams":[{"exam_code":"CDS","exam_name":"Combined Defence Services","conducting_body":"UPSC"}]}`)
	}))
	t.Cleanup(srv.Close)
	client, err := New(srv.URL+"/", WithHeaders(map[string]string{"X-Client": "careerpath"}), WithRequestIDs(func() string { return "req-1" }))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	catalog, err := client.Exams(context.Background())
	if err != nil {
		t.Fatalf("exams: %v", err)
	}
	if _, ok := catalog.Lookup("CDS"); !ok {
		t.Fatalf("catalog = %+v", catalog)
	}
	if seen.Get(RequestIDHeader) != "req-1" || seen.Get("X-Client") != "careerpath" {
		t.Fatalf("headers = %v", seen)
	}
}

func TestMalformedBodyIsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"plan_id":`)
	}))
	t.Cleanup(srv.Close)
	client, _ := New(srv.URL)
	_, err := client.StudyPlan(context.Background(), "P1")
	var upstream *career.UpstreamError
	if !errors.As(err, &upstream) || upstream.Err == nil {
		t.Fatalf("expected malformed UpstreamError, got %v", err)
	}
}

func TestCancelledContextIsNotUpstream(t *testing.T) {
	client, fake := newTestClient(t)
	release := fake.Hold(fakeapi.RouteExams)
	defer release()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.Exams(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestAssessmentLookup(t *testing.T) {
	client, _ := newTestClient(t)
	started, err := client.StartAssessment(context.Background(), personal())
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	record, err := client.Assessment(context.Background(), started.AssessmentID)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if record.AssessmentID != started.AssessmentID || record.Completed || record.OLQScore != nil {
		t.Fatalf("unexpected record: %+v", record)
	}
	if _, err := client.Assessment(context.Background(), "A404"); !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestResourcesForRole(t *testing.T) {
	client, fake := newTestClient(t)
	res, err := client.Resources(context.Background(), "cds")
	if err != nil {
		t.Fatalf("resources: %v", err)
	}
	if res.Role != "CDS" || len(res.Resources) == 0 || len(res.StudyTips) == 0 {
		t.Fatalf("unexpected resources: %+v", res)
	}
	if _, err := client.Resources(context.Background(), "Coast Guard"); !IsNotFound(err) {
		t.Fatalf("expected not found for unknown role, got %v", err)
	}
	if fake.Calls(fakeapi.RouteResources) != 2 {
		t.Fatalf("resources calls = %d", fake.Calls(fakeapi.RouteResources))
	}
}
