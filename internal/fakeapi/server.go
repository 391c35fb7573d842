// internal/fakeapi/server.go
//
// Server is an in-memory stand-in for the career guidance service. It serves
// the same REST surface with deterministic identifiers (A1, S1, R1, P1, ...)
// and fixed artifacts, counts every request per route, and lets callers inject
// failures or hold requests in flight. The sandbox binary and the client tests
// both run against it.

package fakeapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kingrea/careerpath/internal/career"
)

// Route names one endpoint of the service.
type Route string

const (
	RouteStart                  Route = "POST /api/assessment/start"
	RoutePhysical               Route = "PUT /api/assessment/{id}/physical"
	RouteEducation              Route = "PUT /api/assessment/{id}/education"
	RouteAssessment             Route = "GET /api/assessment/{id}"
	RouteQuestions              Route = "GET /api/assessment/olq-questions"
	RouteSubmitOLQ              Route = "POST /api/assessment/olq"
	RouteGenerateRecommendation Route = "POST /api/recommendations/generate"
	RouteRecommendation         Route = "GET /api/recommendations/{id}"
	RouteExport                 Route = "GET /api/recommendations/{id}/export"
	RouteExams                  Route = "GET /api/study-plan/exams"
	RouteGeneratePlan           Route = "POST /api/study-plan/generate"
	RoutePlan                   Route = "GET /api/study-plan/{id}"
	RouteResources              Route = "GET /api/resources/{role}"
)

// Submission records one OLQ post as the server received it.
type Submission struct {
	SessionID  string
	HasSession bool
	Body       career.OLQSubmission
}

type injectedFailure struct {
	status int
	detail string
}

type assessmentState struct {
	record    career.AssessmentRecord
	personal  career.PersonalDetails
	physical  *career.PhysicalDetails
	education *career.EducationDetails
}

// Server wraps the HTTP listener and the in-memory service state.
type Server struct {
	settings      Settings
	logger        *zap.Logger
	clock         func() time.Time
	questionCount int

	mu              sync.Mutex
	calls           map[Route]int
	failures        map[Route][]injectedFailure
	gates           map[Route]chan struct{}
	legacyQuestions bool
	nextSessionID   string
	seq             map[string]int
	assessments     map[string]*assessmentState
	sessions        map[string][]career.Question
	recommendations map[string]career.Recommendation
	plans           map[string]career.StudyPlan
	submissions     []Submission

	server   *http.Server
	listener net.Listener
}

// Option customizes server construction.
type Option func(*Server)

// WithLogger attaches a structured logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock allows tests to control dates.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithQuestionCount sets how many questions each session carries.
func WithQuestionCount(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.questionCount = n
		}
	}
}

// New prepares a server using the provided settings.
func New(settings Settings, opts ...Option) *Server {
	s := &Server{
		settings:        settings,
		logger:          zap.NewNop(),
		clock:           time.Now,
		questionCount:   len(questionBank),
		calls:           map[Route]int{},
		failures:        map[Route][]injectedFailure{},
		gates:           map[Route]chan struct{}{},
		seq:             map[string]int{},
		assessments:     map[string]*assessmentState{},
		sessions:        map[string][]career.Question{},
		recommendations: map[string]career.Recommendation{},
		plans:           map[string]career.StudyPlan{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.questionCount > len(questionBank) {
		s.questionCount = len(questionBank)
	}
	return s
}

// Handler returns the routed HTTP handler without binding a listener.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Route("/assessment", func(r chi.Router) {
			r.Post("/start", s.track(RouteStart, s.handleStart))
			r.Get("/olq-questions", s.track(RouteQuestions, s.handleQuestions))
			r.Post("/olq", s.track(RouteSubmitOLQ, s.handleSubmitOLQ))
			r.Get("/{id}", s.track(RouteAssessment, s.handleAssessment))
			r.Put("/{id}/physical", s.track(RoutePhysical, s.handlePhysical))
			r.Put("/{id}/education", s.track(RouteEducation, s.handleEducation))
		})
		r.Route("/recommendations", func(r chi.Router) {
			r.Post("/generate", s.track(RouteGenerateRecommendation, s.handleGenerateRecommendation))
			r.Get("/{id}", s.track(RouteRecommendation, s.handleRecommendation))
			r.Get("/{id}/export", s.track(RouteExport, s.handleExport))
		})
		r.Route("/study-plan", func(r chi.Router) {
			r.Get("/exams", s.track(RouteExams, s.handleExams))
			r.Post("/generate", s.track(RouteGeneratePlan, s.handleGeneratePlan))
			r.Get("/{id}", s.track(RoutePlan, s.handlePlan))
		})
		r.Get("/resources/{role}", s.track(RouteResources, s.handleResources))
	})
	return r
}

// Start binds the TCP listener and begins serving HTTP traffic.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("fakeapi: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("fakeapi: listen %s: %w", addr, err)
	}
	s.listener = listener
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.settings.ReadTimeout,
		WriteTimeout: s.settings.WriteTimeout,
		IdleTimeout:  s.settings.IdleTimeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("fakeapi: serve error", zap.Error(err))
		}
	}()
	s.logger.Info("fakeapi: listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Shutdown stops accepting new connections and waits for in-flight requests to exit.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for route, gate := range s.gates {
		close(gate)
		delete(s.gates, route)
	}
	server := s.server
	if s.listener == nil || server == nil {
		s.mu.Unlock()
		return nil
	}
	s.listener = nil
	s.server = nil
	s.mu.Unlock()
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
	}
	return server.Shutdown(ctx)
}

// BaseURL returns the HTTP base URL for the running server.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.settings.URL()
	}
	return "http://" + s.listener.Addr().String()
}

// Calls reports how many requests reached route.
func (s *Server) Calls(route Route) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// WaitCalls polls until route has seen at least n requests or timeout elapses.
func (s *Server) WaitCalls(route Route, n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.Calls(route) >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// FailNext makes the next request to route fail with status and a FastAPI
// style detail body. Calls queue.
func (s *Server) FailNext(route Route, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[route] = append(s.failures[route], injectedFailure{status: status, detail: detail})
}

// Hold blocks requests to route until the returned release func is called.
func (s *Server) Hold(route Route) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	if previous, ok := s.gates[route]; ok {
		close(previous)
	}
	s.gates[route] = gate
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.gates[route] == gate {
			delete(s.gates, route)
			close(gate)
		}
	}
}

// UseLegacyQuestions switches the questions endpoint to the bare-array shape
// that carries no session id.
func (s *Server) UseLegacyQuestions(legacy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.legacyQuestions = legacy
}

// NextSessionID fixes the id issued by the next questions fetch.
func (s *Server) NextSessionID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSessionID = id
}

// Submissions returns every OLQ post received so far.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// track counts the request, then applies any injected failure or hold.
func (s *Server) track(route Route, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[route]++
		var failure *injectedFailure
		if queue := s.failures[route]; len(queue) > 0 {
			failure = &queue[0]
			s.failures[route] = queue[1:]
		}
		gate := s.gates[route]
		s.mu.Unlock()

		if gate != nil {
			select {
			case <-gate:
			case <-r.Context().Done():
				return
			}
		}
		if failure != nil {
			writeDetail(w, failure.status, failure.detail)
			return
		}
		next(w, r)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("fakeapi request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("duration", time.Since(started)),
		)
	})
}

// nextID issues sequential identifiers: A1, A2, S1, R1, P1, ...
func (s *Server) nextID(prefix string) string {
	s.seq[prefix]++
	return fmt.Sprintf("%s%d", prefix, s.seq[prefix])
}

func (s *Server) today() time.Time {
	return career.NewDate(s.clock()).Time
}
