package career

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestQuestionIDKeepsWireForm(t *testing.T) {
	var qs []Question
	payload := `[{"question_id":7,"question":"q","options":["a","b"]},{"question_id":"x-2","question":"r","options":["a"]}]`
	if err := json.Unmarshal([]byte(payload), &qs); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if qs[0].QuestionID != NumericQuestionID(7) {
		t.Fatalf("numeric id = %#v", qs[0].QuestionID)
	}
	if qs[1].QuestionID != TextQuestionID("x-2") {
		t.Fatalf("text id = %#v", qs[1].QuestionID)
	}
	out, err := json.Marshal([]OLQResponse{{QuestionID: qs[0].QuestionID, SelectedOption: 1}, {QuestionID: qs[1].QuestionID}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `[{"question_id":7,"selected_option":1},{"question_id":"x-2","selected_option":0}]`
	if string(out) != want {
		t.Fatalf("encoded = %s, want %s", out, want)
	}
}

func TestQuestionIDRejectsNull(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(`{"question_id":null}`), &q); err == nil {
		t.Fatalf("expected error for null question_id")
	}
}

func TestResponseSetRequiresFullCoverage(t *testing.T) {
	questions := []Question{
		{QuestionID: NumericQuestionID(1), Options: []string{"a", "b"}},
		{QuestionID: NumericQuestionID(2), Options: []string{"a", "b"}},
		{QuestionID: NumericQuestionID(3), Options: []string{"a", "b"}},
	}
	set := ResponseSet{}
	set.Select(NumericQuestionID(1), 0)
	set.Select(NumericQuestionID(99), 1)
	set.Select(NumericQuestionID(3), 1)
	_, err := set.Responses(questions)
	var incomplete *IncompleteResponseError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected IncompleteResponseError, got %v", err)
	}
	if incomplete.Answered != 2 || incomplete.Required != 3 {
		t.Fatalf("unexpected counts: %+v", incomplete)
	}
	set.Select(NumericQuestionID(2), 1)
	responses, err := set.Responses(questions)
	if err != nil {
		t.Fatalf("responses: %v", err)
	}
	for i, r := range responses {
		if r.QuestionID != questions[i].QuestionID {
			t.Fatalf("responses[%d] out of question order: %v", i, r.QuestionID)
		}
	}
}

func TestResponseSetRejectsOutOfRangeOption(t *testing.T) {
	questions := []Question{{QuestionID: NumericQuestionID(1), Options: []string{"a", "b"}}}
	set := ResponseSet{NumericQuestionID(1): 2}
	_, err := set.Responses(questions)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestFeatureWeightsPreserveOrder(t *testing.T) {
	var role RoleRecommendation
	payload := `{"match_score":88,"feature_importance":{"olq_score":0.4,"age":0.1,"education":0.35}}`
	if err := json.Unmarshal([]byte(payload), &role); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	got := make([]string, 0, len(role.FeatureImportance))
	for _, fw := range role.FeatureImportance {
		got = append(got, fw.Feature)
	}
	if strings.Join(got, ",") != "olq_score,age,education" {
		t.Fatalf("order lost: %v", got)
	}
	encoded, err := json.Marshal(role.FeatureImportance)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != `{"olq_score":0.4,"age":0.1,"education":0.35}` {
		t.Fatalf("encoded = %s", encoded)
	}
}

func TestRecommendationValidateFlagsMalformedPayloads(t *testing.T) {
	good := Recommendation{RecommendationID: "R1", OLQScore: 72.3, Recommendations: []RoleRecommendation{{MatchScore: 88}}}
	if err := good.Validate(); err != nil {
		t.Fatalf("valid recommendation rejected: %v", err)
	}
	for name, rec := range map[string]Recommendation{
		"missing id":   {OLQScore: 10},
		"score":        {RecommendationID: "R1", OLQScore: 120},
		"match score":  {RecommendationID: "R1", Recommendations: []RoleRecommendation{{MatchScore: -1}}},
		"weight range": {RecommendationID: "R1", Recommendations: []RoleRecommendation{{FeatureImportance: FeatureWeights{{Feature: "x", Weight: 1.5}}}}},
	} {
		if err := rec.Validate(); err == nil {
			t.Fatalf("%s: expected validation failure", name)
		}
	}
}

func TestDateAcceptsDatetimeStrings(t *testing.T) {
	var m Milestone
	if err := json.Unmarshal([]byte(`{"date":"2025-03-04T10:00:00","type":"module_completion"}`), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m.Date.String() != "2025-03-04" {
		t.Fatalf("date = %s", m.Date)
	}
	if m.Kind() != MilestoneOther {
		t.Fatalf("kind = %s, want other", m.Kind())
	}
}

func TestTimestampAcceptsNaiveDatetimes(t *testing.T) {
	var rec Recommendation
	if err := json.Unmarshal([]byte(`{"generated_at":"2024-05-01T08:30:00.123456"}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.GeneratedAt.Year() != 2024 || rec.GeneratedAt.Minute() != 30 {
		t.Fatalf("parsed %v", rec.GeneratedAt)
	}
}

func TestUserMessageClassifiesErrors(t *testing.T) {
	cases := map[string]error{
		"Please answer all questions before submitting": &IncompleteResponseError{Answered: 1, Required: 2},
		"Hours per day must be between 1 and 16":        &ValidationError{Field: "hours_per_day", Reason: "must be between 1 and 16"},
		"Assessment not found":                          &UpstreamError{Op: "update physical", Status: 404, Detail: "Assessment not found"},
		"Recommendation not found":                      &NotFoundError{Kind: "recommendation", ID: "R9"},
		"Failed to export PDF":                          &ExportError{RecommendationID: "R1", Err: errors.New("boom")},
		"Request failed (502 Bad Gateway)":              &UpstreamError{Op: "generate", Status: 502},
	}
	for want, err := range cases {
		if got := UserMessage(err); got != want {
			t.Fatalf("UserMessage(%v) = %q, want %q", err, got, want)
		}
	}
}
