package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kingrea/careerpath/internal/career"
)

// StartAssessment creates an assessment from the personal fragment.
func (c *Client) StartAssessment(ctx context.Context, details career.PersonalDetails) (career.AssessmentRecord, error) {
	const op = "start assessment"
	if strings.TrimSpace(details.Nationality) == "" {
		details.Nationality = career.DefaultNationality
	}
	var record career.AssessmentRecord
	if err := c.do(ctx, op, http.MethodPost, "/api/assessment/start", nil, details, &record); err != nil {
		return career.AssessmentRecord{}, err
	}
	if strings.TrimSpace(record.AssessmentID) == "" {
		return career.AssessmentRecord{}, malformed(op, http.StatusOK, fmt.Errorf("assessment_id missing"))
	}
	return record, nil
}

// UpdatePhysical attaches the physical fragment to an existing assessment.
func (c *Client) UpdatePhysical(ctx context.Context, assessmentID string, details career.PhysicalDetails) (career.AssessmentRecord, error) {
	var record career.AssessmentRecord
	err := c.do(ctx, "update physical", http.MethodPut, "/api/assessment/"+url.PathEscape(assessmentID)+"/physical", nil, details, &record)
	return record, err
}

// UpdateEducation attaches the education fragment to an existing assessment.
func (c *Client) UpdateEducation(ctx context.Context, assessmentID string, details career.EducationDetails) (career.AssessmentRecord, error) {
	if details.AdditionalQualifications == nil {
		details.AdditionalQualifications = []string{}
	}
	var record career.AssessmentRecord
	err := c.do(ctx, "update education", http.MethodPut, "/api/assessment/"+url.PathEscape(assessmentID)+"/education", nil, details, &record)
	return record, err
}

// Assessment fetches the server view of an assessment.
func (c *Client) Assessment(ctx context.Context, assessmentID string) (career.AssessmentRecord, error) {
	var record career.AssessmentRecord
	err := c.do(ctx, "get assessment", http.MethodGet, "/api/assessment/"+url.PathEscape(assessmentID), nil, nil, &record)
	return record, err
}

// OLQQuestions fetches a fresh question set. A bare JSON array, or an object
// without a session_id, decodes as a sessionless set.
func (c *Client) OLQQuestions(ctx context.Context) (career.QuestionSet, error) {
	const op = "load olq questions"
	resp, err := c.send(ctx, op, http.MethodGet, "/api/assessment/olq-questions", nil, nil)
	if err != nil {
		return career.QuestionSet{}, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return career.QuestionSet{}, malformed(op, resp.StatusCode, fmt.Errorf("read response: %w", err))
	}
	set, err := DecodeQuestionSet(raw)
	if err != nil {
		return career.QuestionSet{}, malformed(op, resp.StatusCode, err)
	}
	return set, nil
}

// DecodeQuestionSet decodes either response shape of the questions endpoint.
func DecodeQuestionSet(raw []byte) (career.QuestionSet, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return career.QuestionSet{}, fmt.Errorf("empty questions payload")
	}
	switch raw[0] {
	case '[':
		var questions []career.Question
		if err := json.Unmarshal(raw, &questions); err != nil {
			return career.QuestionSet{}, fmt.Errorf("decode question list: %w", err)
		}
		if err := checkQuestions(questions); err != nil {
			return career.QuestionSet{}, err
		}
		return career.Sessionless(questions), nil
	case '{':
		var envelope struct {
			SessionID *string            `json:"session_id"`
			Questions *[]career.Question `json:"questions"`
		}
		if err := json.Unmarshal(raw, &envelope); err != nil {
			return career.QuestionSet{}, fmt.Errorf("decode question envelope: %w", err)
		}
		if envelope.Questions == nil {
			return career.QuestionSet{}, fmt.Errorf("questions missing")
		}
		if err := checkQuestions(*envelope.Questions); err != nil {
			return career.QuestionSet{}, err
		}
		if envelope.SessionID == nil {
			return career.Sessionless(*envelope.Questions), nil
		}
		return career.WithSession(*envelope.SessionID, *envelope.Questions), nil
	default:
		return career.QuestionSet{}, fmt.Errorf("unexpected questions payload")
	}
}

func checkQuestions(questions []career.Question) error {
	seen := make(map[career.QuestionID]struct{}, len(questions))
	for i, q := range questions {
		if q.QuestionID.IsZero() {
			return fmt.Errorf("questions[%d]: question_id missing", i)
		}
		if len(q.Options) == 0 {
			return fmt.Errorf("questions[%d]: no options", i)
		}
		if _, dup := seen[q.QuestionID]; dup {
			return fmt.Errorf("questions[%d]: duplicate question_id %s", i, q.QuestionID)
		}
		seen[q.QuestionID] = struct{}{}
	}
	return nil
}

// SubmitOLQ posts the responses. The session_id query parameter is sent only
// when sessionID is non-empty.
func (c *Client) SubmitOLQ(ctx context.Context, submission career.OLQSubmission, sessionID string) (career.AssessmentRecord, error) {
	var query url.Values
	if sessionID != "" {
		query = url.Values{"session_id": {sessionID}}
	}
	var record career.AssessmentRecord
	err := c.do(ctx, "submit olq", http.MethodPost, "/api/assessment/olq", query, submission, &record)
	return record, err
}

// GenerateRecommendation asks the service to compute a recommendation.
func (c *Client) GenerateRecommendation(ctx context.Context, assessmentID string) (career.Recommendation, error) {
	const op = "generate recommendation"
	body := map[string]string{"assessment_id": assessmentID}
	var rec career.Recommendation
	if err := c.do(ctx, op, http.MethodPost, "/api/recommendations/generate", nil, body, &rec); err != nil {
		return career.Recommendation{}, err
	}
	if strings.TrimSpace(rec.RecommendationID) == "" {
		return career.Recommendation{}, malformed(op, http.StatusCreated, fmt.Errorf("recommendation_id missing"))
	}
	return rec, nil
}

// Recommendation fetches a stored recommendation.
func (c *Client) Recommendation(ctx context.Context, recommendationID string) (career.Recommendation, error) {
	var rec career.Recommendation
	err := c.do(ctx, "get recommendation", http.MethodGet, "/api/recommendations/"+url.PathEscape(recommendationID), nil, nil, &rec)
	return rec, err
}

// ExportRecommendation streams the PDF rendering of a recommendation. The
// caller closes the returned reader.
func (c *Client) ExportRecommendation(ctx context.Context, recommendationID string) (io.ReadCloser, error) {
	resp, err := c.send(ctx, "export recommendation", http.MethodGet, "/api/recommendations/"+url.PathEscape(recommendationID)+"/export", nil, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Exams fetches the exam catalog.
func (c *Client) Exams(ctx context.Context) (career.ExamCatalog, error) {
	var payload struct {
		Exams career.ExamCatalog `json:"exams"`
	}
	if err := c.do(ctx, "list exams", http.MethodGet, "/api/study-plan/exams", nil, nil, &payload); err != nil {
		return nil, err
	}
	return payload.Exams, nil
}

// GenerateStudyPlan asks the service to compute a new plan.
func (c *Client) GenerateStudyPlan(ctx context.Context, req career.StudyPlanRequest) (career.StudyPlan, error) {
	const op = "generate study plan"
	if req.PreferredStudyTimes == nil {
		req.PreferredStudyTimes = []string{}
	}
	var plan career.StudyPlan
	if err := c.do(ctx, op, http.MethodPost, "/api/study-plan/generate", nil, req, &plan); err != nil {
		return career.StudyPlan{}, err
	}
	if strings.TrimSpace(plan.PlanID) == "" {
		return career.StudyPlan{}, malformed(op, http.StatusCreated, fmt.Errorf("plan_id missing"))
	}
	return plan, nil
}

// StudyPlan fetches a stored plan.
func (c *Client) StudyPlan(ctx context.Context, planID string) (career.StudyPlan, error) {
	var plan career.StudyPlan
	err := c.do(ctx, "get study plan", http.MethodGet, "/api/study-plan/"+url.PathEscape(planID), nil, nil, &plan)
	return plan, err
}

// Resources fetches preparation material for a recommended role.
func (c *Client) Resources(ctx context.Context, role string) (career.RoleResources, error) {
	var res career.RoleResources
	err := c.do(ctx, "get resources", http.MethodGet, "/api/resources/"+url.PathEscape(role), nil, nil, &res)
	return res, err
}
