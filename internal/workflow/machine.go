// internal/workflow/machine.go
//
// Machine drives the four intake stages. A stage is acknowledged only when its
// request succeeds; the view advances with the acknowledgment and never ahead
// of it. Back moves the view without touching server state. Entered form data
// is kept per stage whether or not the submission succeeded.

package workflow

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/kingrea/careerpath/internal/career"
	"github.com/kingrea/careerpath/internal/session"
)

// AssessmentAPI is the slice of the resource client the machine drives.
type AssessmentAPI interface {
	StartAssessment(ctx context.Context, details career.PersonalDetails) (career.AssessmentRecord, error)
	UpdatePhysical(ctx context.Context, assessmentID string, details career.PhysicalDetails) (career.AssessmentRecord, error)
	UpdateEducation(ctx context.Context, assessmentID string, details career.EducationDetails) (career.AssessmentRecord, error)
	OLQQuestions(ctx context.Context) (career.QuestionSet, error)
	SubmitOLQ(ctx context.Context, submission career.OLQSubmission, sessionID string) (career.AssessmentRecord, error)
	GenerateRecommendation(ctx context.Context, assessmentID string) (career.Recommendation, error)
}

// Drafts holds what the candidate last entered for each stage.
type Drafts struct {
	Personal  *career.PersonalDetails
	Physical  *career.PhysicalDetails
	Education *career.EducationDetails
	Responses career.ResponseSet
}

// Machine is the assessment workflow. The zero value is not usable; call New.
type Machine struct {
	api    AssessmentAPI
	logger *zap.Logger
	group  singleflight.Group
	olq    session.Correlator

	mu               sync.Mutex
	view             Stage
	reached          Stage
	assessmentID     string
	ackPersonal      *career.PersonalDetails
	ackPhysical      *career.PhysicalDetails
	ackEducation     *career.EducationDetails
	drafts           Drafts
	recommendationID string
	inflight         map[string]int
}

// Option customizes machine construction.
type Option func(*Machine)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Machine) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a machine in PersonalPending with no assessment.
func New(api AssessmentAPI, opts ...Option) (*Machine, error) {
	if api == nil {
		return nil, fmt.Errorf("workflow: api client is required")
	}
	m := &Machine{
		api:      api,
		logger:   zap.NewNop(),
		view:     StagePersonal,
		reached:  StagePersonal,
		inflight: map[string]int{},
		drafts:   Drafts{Responses: career.ResponseSet{}},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m, nil
}

// Stage returns the stage currently shown.
func (m *Machine) Stage() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.view
}

// Reached returns the first stage the server has not yet acknowledged.
func (m *Machine) Reached() Stage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reached
}

// AssessmentID returns the server-issued id, or "" before the first acknowledgment.
func (m *Machine) AssessmentID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assessmentID
}

// RecommendationID returns the id generated for this assessment, if any.
func (m *Machine) RecommendationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recommendationID
}

// Drafts returns copies of the entered form data.
func (m *Machine) Drafts() Drafts {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := Drafts{Responses: career.ResponseSet{}}
	if m.drafts.Personal != nil {
		p := *m.drafts.Personal
		out.Personal = &p
	}
	if m.drafts.Physical != nil {
		p := *m.drafts.Physical
		out.Physical = &p
	}
	if m.drafts.Education != nil {
		e := *m.drafts.Education
		e.AdditionalQualifications = append([]string(nil), e.AdditionalQualifications...)
		out.Education = &e
	}
	for id, opt := range m.drafts.Responses {
		out.Responses[id] = opt
	}
	return out
}

// Questions returns the held OLQ questions.
func (m *Machine) Questions() []career.Question {
	return m.olq.Questions()
}

// SessionID returns the correlation token of the held questions.
func (m *Machine) SessionID() (string, bool) {
	return m.olq.SessionID()
}

// Busy reports whether any submission is outstanding.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.inflight {
		if n > 0 {
			return true
		}
	}
	return false
}

// Back moves the view to the preceding stage. Nothing is sent or discarded.
func (m *Machine) Back() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.view.CanGoBack() {
		return fmt.Errorf("workflow: back from %s: %w", m.view, career.ErrStageOrder)
	}
	m.view--
	m.logger.Debug("workflow back", zap.Stringer("stage", m.view))
	return nil
}

// SubmitPersonal creates the assessment. Resubmitting unchanged data after
// Back advances without a request; changed data starts a fresh assessment
// and the later stages must be acknowledged again against the new id.
func (m *Machine) SubmitPersonal(ctx context.Context, details career.PersonalDetails) (string, error) {
	m.mu.Lock()
	if m.view != StagePersonal {
		m.mu.Unlock()
		return "", fmt.Errorf("workflow: submit personal from %s: %w", m.view, career.ErrStageOrder)
	}
	d := details
	m.drafts.Personal = &d
	if err := details.Validate(); err != nil {
		m.mu.Unlock()
		return "", err
	}
	if m.ackPersonal != nil && reflect.DeepEqual(*m.ackPersonal, details) {
		m.view = StagePhysical
		id := m.assessmentID
		m.mu.Unlock()
		return id, nil
	}
	m.mu.Unlock()

	v, err := m.submit(ctx, "personal", func(ctx context.Context) (any, error) {
		record, err := m.api.StartAssessment(ctx, details)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		replaced := m.assessmentID != ""
		m.assessmentID = record.AssessmentID
		ack := details
		m.ackPersonal = &ack
		m.ackPhysical = nil
		m.ackEducation = nil
		m.reached = StagePhysical
		if m.view == StagePersonal {
			m.view = StagePhysical
		}
		m.logger.Info("assessment started", zap.String("assessment_id", record.AssessmentID), zap.Bool("replaced", replaced))
		return record.AssessmentID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// SubmitPhysical attaches the physical fragment to the live assessment.
func (m *Machine) SubmitPhysical(ctx context.Context, details career.PhysicalDetails) error {
	m.mu.Lock()
	if m.view != StagePhysical {
		m.mu.Unlock()
		return fmt.Errorf("workflow: submit physical from %s: %w", m.view, career.ErrStageOrder)
	}
	d := details
	m.drafts.Physical = &d
	if err := details.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.ackPhysical != nil && reflect.DeepEqual(*m.ackPhysical, details) {
		m.view = StageEducation
		m.mu.Unlock()
		return nil
	}
	assessmentID := m.assessmentID
	m.mu.Unlock()

	_, err := m.submit(ctx, "physical", func(ctx context.Context) (any, error) {
		if _, err := m.api.UpdatePhysical(ctx, assessmentID, details); err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.assessmentID != assessmentID {
			return nil, fmt.Errorf("workflow: assessment changed during physical submission: %w", career.ErrStageOrder)
		}
		ack := details
		m.ackPhysical = &ack
		if m.reached < StageEducation {
			m.reached = StageEducation
		}
		if m.view == StagePhysical {
			m.view = StageEducation
		}
		m.logger.Info("physical details acknowledged", zap.String("assessment_id", assessmentID))
		return nil, nil
	})
	return err
}

// SubmitEducation attaches the education fragment to the live assessment.
func (m *Machine) SubmitEducation(ctx context.Context, details career.EducationDetails) error {
	m.mu.Lock()
	if m.view != StageEducation {
		m.mu.Unlock()
		return fmt.Errorf("workflow: submit education from %s: %w", m.view, career.ErrStageOrder)
	}
	if m.ackPhysical == nil {
		m.mu.Unlock()
		return fmt.Errorf("workflow: physical details not acknowledged: %w", career.ErrStageOrder)
	}
	d := details
	d.AdditionalQualifications = append([]string(nil), details.AdditionalQualifications...)
	m.drafts.Education = &d
	if err := details.Validate(); err != nil {
		m.mu.Unlock()
		return err
	}
	if m.ackEducation != nil && reflect.DeepEqual(*m.ackEducation, details) {
		m.view = StageOLQ
		m.mu.Unlock()
		return nil
	}
	assessmentID := m.assessmentID
	m.mu.Unlock()

	_, err := m.submit(ctx, "education", func(ctx context.Context) (any, error) {
		if _, err := m.api.UpdateEducation(ctx, assessmentID, details); err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.assessmentID != assessmentID {
			return nil, fmt.Errorf("workflow: assessment changed during education submission: %w", career.ErrStageOrder)
		}
		ack := details
		ack.AdditionalQualifications = append([]string(nil), details.AdditionalQualifications...)
		m.ackEducation = &ack
		if m.reached < StageOLQ {
			m.reached = StageOLQ
		}
		if m.view == StageEducation {
			m.view = StageOLQ
		}
		m.logger.Info("education details acknowledged", zap.String("assessment_id", assessmentID))
		return nil, nil
	})
	return err
}

// LoadQuestions fetches a fresh question set. The previous set and any
// answers recorded against it are dropped.
func (m *Machine) LoadQuestions(ctx context.Context) (career.QuestionSet, error) {
	m.mu.Lock()
	if m.view != StageOLQ {
		m.mu.Unlock()
		return career.QuestionSet{}, fmt.Errorf("workflow: load questions from %s: %w", m.view, career.ErrStageOrder)
	}
	m.mu.Unlock()

	v, err := m.submit(ctx, "questions", func(ctx context.Context) (any, error) {
		set, err := m.api.OLQQuestions(ctx)
		if err != nil {
			return nil, err
		}
		m.olq.Bind(set)
		m.mu.Lock()
		m.drafts.Responses = career.ResponseSet{}
		m.mu.Unlock()
		sessionID, correlated := set.SessionID()
		m.logger.Info("olq questions loaded",
			zap.Int("questions", set.Len()),
			zap.String("session_id", sessionID),
			zap.Bool("correlated", correlated))
		return set, nil
	})
	if err != nil {
		return career.QuestionSet{}, err
	}
	return v.(career.QuestionSet), nil
}

// Select records an answer in the response draft.
func (m *Machine) Select(id career.QuestionID, option int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts.Responses.Select(id, option)
}

// SubmitOLQ posts the response draft with the held session id, if any. It
// fails with IncompleteResponseError, before any request, unless every held
// question is answered.
func (m *Machine) SubmitOLQ(ctx context.Context) error {
	m.mu.Lock()
	if m.view != StageOLQ || m.reached != StageOLQ {
		m.mu.Unlock()
		return fmt.Errorf("workflow: submit olq from %s: %w", m.view, career.ErrStageOrder)
	}
	set, held := m.olq.Snapshot()
	var questions []career.Question
	if held {
		questions = set.Questions()
	}
	responses, err := m.drafts.Responses.Responses(questions)
	assessmentID := m.assessmentID
	m.mu.Unlock()
	if err != nil {
		return err
	}
	sessionID, _ := set.SessionID()

	_, err = m.submit(ctx, "olq", func(ctx context.Context) (any, error) {
		submission := career.OLQSubmission{AssessmentID: assessmentID, Responses: responses}
		record, err := m.api.SubmitOLQ(ctx, submission, sessionID)
		if err != nil {
			return nil, err
		}
		m.olq.Release()
		m.mu.Lock()
		defer m.mu.Unlock()
		m.reached = StageCompleted
		m.view = StageCompleted
		fields := []zap.Field{zap.String("assessment_id", assessmentID), zap.String("session_id", sessionID)}
		if record.OLQScore != nil {
			fields = append(fields, zap.Float64("olq_score", *record.OLQScore))
		}
		m.logger.Info("olq submitted", fields...)
		return nil, nil
	})
	return err
}

// GenerateRecommendation requests the recommendation for the completed
// assessment. Once it has succeeded the stored id is returned without a
// further request.
func (m *Machine) GenerateRecommendation(ctx context.Context) (string, error) {
	m.mu.Lock()
	if m.reached != StageCompleted {
		m.mu.Unlock()
		return "", fmt.Errorf("workflow: generate recommendation from %s: %w", m.view, career.ErrStageOrder)
	}
	if m.recommendationID != "" {
		id := m.recommendationID
		m.mu.Unlock()
		return id, nil
	}
	assessmentID := m.assessmentID
	m.mu.Unlock()

	v, err := m.submit(ctx, "recommendation", func(ctx context.Context) (any, error) {
		rec, err := m.api.GenerateRecommendation(ctx, assessmentID)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		m.recommendationID = rec.RecommendationID
		m.logger.Info("recommendation generated",
			zap.String("assessment_id", assessmentID),
			zap.String("recommendation_id", rec.RecommendationID))
		return rec.RecommendationID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// submit runs fn at most once at a time per key; callers arriving while it is
// outstanding share its result. The request is detached from ctx cancellation
// so a submission already sent always resolves.
func (m *Machine) submit(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	v, err, shared := m.group.Do(key, func() (any, error) {
		m.mu.Lock()
		m.inflight[key]++
		m.mu.Unlock()
		defer func() {
			m.mu.Lock()
			m.inflight[key]--
			m.mu.Unlock()
		}()
		return fn(detached)
	})
	if shared {
		m.logger.Debug("workflow submission coalesced", zap.String("stage", key))
	}
	if err != nil {
		m.logger.Warn("workflow submission failed", zap.String("stage", key), zap.Error(err))
		return nil, err
	}
	return v, nil
}
