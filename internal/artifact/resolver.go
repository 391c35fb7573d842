// internal/artifact/resolver.go
//
// Resolver turns a route identifier into a displayable artifact. Every call
// fetches; nothing is cached between routes. Unknown identifiers and payloads
// too malformed to display both surface as NotFoundError.

package artifact

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
)

// Fetcher is the slice of the resource client the resolver needs.
type Fetcher interface {
	Recommendation(ctx context.Context, recommendationID string) (career.Recommendation, error)
	StudyPlan(ctx context.Context, planID string) (career.StudyPlan, error)
	Exams(ctx context.Context) (career.ExamCatalog, error)
	GenerateStudyPlan(ctx context.Context, req career.StudyPlanRequest) (career.StudyPlan, error)
}

const (
	kindRecommendation = "recommendation"
	kindStudyPlan      = "study plan"
)

// Resolver fetches recommendations and study plans.
type Resolver struct {
	api    Fetcher
	clock  func() time.Time
	logger *zap.Logger
}

// Option customizes resolver construction.
type Option func(*Resolver)

// WithClock allows tests to control what "today" is.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New builds a resolver over api.
func New(api Fetcher, opts ...Option) (*Resolver, error) {
	if api == nil {
		return nil, fmt.Errorf("artifact: api client is required")
	}
	r := &Resolver{api: api, clock: time.Now, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// ResolveRecommendation fetches the recommendation for display.
func (r *Resolver) ResolveRecommendation(ctx context.Context, recommendationID string) (career.Recommendation, error) {
	id := strings.TrimSpace(recommendationID)
	if id == "" {
		return career.Recommendation{}, &career.NotFoundError{Kind: kindRecommendation}
	}
	rec, err := r.api.Recommendation(ctx, id)
	if err != nil {
		return career.Recommendation{}, r.classify(kindRecommendation, id, err)
	}
	if err := rec.Validate(); err != nil {
		r.logger.Warn("malformed recommendation", zap.String("recommendation_id", id), zap.Error(err))
		return career.Recommendation{}, &career.NotFoundError{Kind: kindRecommendation, ID: id, Err: err}
	}
	return rec, nil
}

// PlanView is the outcome of opening a plan route: a draft form for a new
// plan, or the stored plan. Exactly one field is set.
type PlanView struct {
	Draft *PlanDraft
	Plan  *career.StudyPlan
}

// OpenPlan resolves a plan route. NewPlan fetches only the exam catalog;
// ExistingPlan fetches only the plan.
func (r *Resolver) OpenPlan(ctx context.Context, intent PlanIntent) (PlanView, error) {
	switch in := intent.(type) {
	case NewPlan:
		draft, err := r.newDraft(ctx, in.RecommendationID)
		if err != nil {
			return PlanView{}, err
		}
		return PlanView{Draft: draft}, nil
	case ExistingPlan:
		plan, err := r.ResolvePlan(ctx, in.PlanID)
		if err != nil {
			return PlanView{}, err
		}
		return PlanView{Plan: &plan}, nil
	default:
		return PlanView{}, fmt.Errorf("artifact: unknown plan intent %T", intent)
	}
}

// ResolvePlan fetches a stored plan.
func (r *Resolver) ResolvePlan(ctx context.Context, planID string) (career.StudyPlan, error) {
	id := strings.TrimSpace(planID)
	if id == "" {
		return career.StudyPlan{}, &career.NotFoundError{Kind: kindStudyPlan}
	}
	plan, err := r.api.StudyPlan(ctx, id)
	if err != nil {
		return career.StudyPlan{}, r.classify(kindStudyPlan, id, err)
	}
	if err := plan.Validate(); err != nil {
		r.logger.Warn("malformed study plan", zap.String("plan_id", id), zap.Error(err))
		return career.StudyPlan{}, &career.NotFoundError{Kind: kindStudyPlan, ID: id, Err: err}
	}
	return plan, nil
}

func (r *Resolver) newDraft(ctx context.Context, recommendationID string) (*PlanDraft, error) {
	id := strings.TrimSpace(recommendationID)
	if id == "" {
		return nil, &career.NotFoundError{Kind: kindRecommendation}
	}
	catalog, err := r.api.Exams(ctx)
	if err != nil {
		return nil, fmt.Errorf("artifact: load exam catalog: %w", err)
	}
	return &PlanDraft{resolver: r, recommendationID: id, catalog: catalog}, nil
}

// classify maps a 404, or a 2xx body that could not be decoded, to NotFoundError.
func (r *Resolver) classify(kind, id string, err error) error {
	var upstream *career.UpstreamError
	if !errors.As(err, &upstream) {
		return err
	}
	malformed := upstream.Err != nil && upstream.Status >= 200 && upstream.Status < 300
	if upstream.IsNotFound() || malformed {
		return &career.NotFoundError{Kind: kind, ID: id, Err: err}
	}
	return err
}

func (r *Resolver) today() career.Date {
	return career.NewDate(r.clock().In(time.Local))
}
