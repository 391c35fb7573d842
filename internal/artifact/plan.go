package artifact

import (
	"context"
	"math"
	"strings"

	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
)

// Limits on the daily study budget, inclusive.
const (
	MinHoursPerDay = 1.0
	MaxHoursPerDay = 16.0
)

// PlanIntent is how a plan route was entered. It is resolved once, from the
// route, and never re-derived.
type PlanIntent interface {
	planIntent()
}

// NewPlan asks for a plan to be generated from a recommendation.
type NewPlan struct {
	RecommendationID string
}

// ExistingPlan asks for a stored plan.
type ExistingPlan struct {
	PlanID string
}

func (NewPlan) planIntent()      {}
func (ExistingPlan) planIntent() {}

// PlanForm is the candidate's input for a new plan.
type PlanForm struct {
	TargetDate          career.Date
	HoursPerDay         float64
	ExamType            string
	PreferredStudyTimes []string
}

// PlanDraft is the new-plan form bound to a recommendation and the exam
// catalog fetched when the route was opened.
type PlanDraft struct {
	resolver         *Resolver
	recommendationID string
	catalog          career.ExamCatalog
}

// RecommendationID is the recommendation the plan will be generated from.
func (d *PlanDraft) RecommendationID() string { return d.recommendationID }

// Catalog returns the exams a plan may target.
func (d *PlanDraft) Catalog() career.ExamCatalog {
	return append(career.ExamCatalog(nil), d.catalog...)
}

// MinTargetDate is the earliest acceptable target date: tomorrow.
func (d *PlanDraft) MinTargetDate() career.Date {
	return career.NewDate(d.resolver.today().AddDate(0, 0, 1))
}

// Request validates form and builds the generation body.
func (d *PlanDraft) Request(form PlanForm) (career.StudyPlanRequest, error) {
	if form.TargetDate.IsZero() {
		return career.StudyPlanRequest{}, &career.ValidationError{Field: "target_date", Reason: "is required"}
	}
	if form.TargetDate.String() <= d.resolver.today().String() {
		return career.StudyPlanRequest{}, &career.ValidationError{Field: "target_date", Reason: "must be in the future"}
	}
	hours := form.HoursPerDay
	if math.IsNaN(hours) || hours < MinHoursPerDay || hours > MaxHoursPerDay {
		return career.StudyPlanRequest{}, &career.ValidationError{Field: "hours_per_day", Reason: "must be between 1 and 16"}
	}
	exam, ok := d.catalog.Lookup(form.ExamType)
	if !ok {
		return career.StudyPlanRequest{}, &career.ValidationError{Field: "exam_type", Reason: "must be one of " + strings.Join(d.catalog.Codes(), ", ")}
	}
	times := append([]string{}, form.PreferredStudyTimes...)
	return career.StudyPlanRequest{
		RecommendationID:    d.recommendationID,
		TargetDate:          form.TargetDate,
		HoursPerDay:         hours,
		PreferredStudyTimes: times,
		ExamType:            exam.ExamCode,
	}, nil
}

// Generate validates form and requests a new plan. Each call issues a fresh
// generation request; the returned plan is displayed without a further read.
func (d *PlanDraft) Generate(ctx context.Context, form PlanForm) (career.StudyPlan, error) {
	req, err := d.Request(form)
	if err != nil {
		return career.StudyPlan{}, err
	}
	plan, err := d.resolver.api.GenerateStudyPlan(ctx, req)
	if err != nil {
		return career.StudyPlan{}, err
	}
	if err := plan.Validate(); err != nil {
		d.resolver.logger.Warn("malformed generated study plan", zap.String("recommendation_id", d.recommendationID), zap.Error(err))
		return career.StudyPlan{}, &career.NotFoundError{Kind: kindStudyPlan, ID: plan.PlanID, Err: err}
	}
	d.resolver.logger.Info("study plan generated",
		zap.String("recommendation_id", d.recommendationID),
		zap.String("plan_id", plan.PlanID),
		zap.String("exam_type", req.ExamType),
		zap.Int("total_days", plan.TotalDays))
	return plan, nil
}
