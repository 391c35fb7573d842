package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kingrea/careerpath/internal/career"
)

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var details career.PersonalDetails
	if !s.decode(w, r, &details) {
		return
	}
	if err := details.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	s.mu.Lock()
	id := s.nextID("A")
	state := &assessmentState{
		record: career.AssessmentRecord{
			AssessmentID: id,
			UserID:       "U-" + strings.ToLower(strings.TrimSpace(details.Email)),
			CreatedAt:    career.Timestamp{Time: s.clock().UTC()},
		},
		personal: details,
	}
	s.assessments[id] = state
	record := state.record
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handlePhysical(w http.ResponseWriter, r *http.Request) {
	var details career.PhysicalDetails
	if !s.decode(w, r, &details) {
		return
	}
	if err := details.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	s.updateAssessment(w, chi.URLParam(r, "id"), func(state *assessmentState) {
		state.physical = &details
	})
}

func (s *Server) handleEducation(w http.ResponseWriter, r *http.Request) {
	var details career.EducationDetails
	if !s.decode(w, r, &details) {
		return
	}
	if err := details.Validate(); err != nil {
		writeValidation(w, err)
		return
	}
	s.updateAssessment(w, chi.URLParam(r, "id"), func(state *assessmentState) {
		state.education = &details
	})
}

func (s *Server) updateAssessment(w http.ResponseWriter, id string, apply func(*assessmentState)) {
	s.mu.Lock()
	state, ok := s.assessments[id]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Assessment not found")
		return
	}
	apply(state)
	now := career.Timestamp{Time: s.clock().UTC()}
	state.record.UpdatedAt = &now
	record := state.record
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state, ok := s.assessments[chi.URLParam(r, "id")]
	var record career.AssessmentRecord
	if ok {
		record = state.record
	}
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Assessment not found")
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleQuestions(w http.ResponseWriter, r *http.Request) {
	questions := append([]career.Question(nil), questionBank[:s.questionCount]...)
	s.mu.Lock()
	legacy := s.legacyQuestions
	var sessionID string
	if !legacy {
		sessionID = s.nextSessionID
		s.nextSessionID = ""
		if sessionID == "" {
			sessionID = s.nextID("S")
		}
		s.sessions[sessionID] = questions
	}
	s.mu.Unlock()
	if legacy {
		writeJSON(w, http.StatusOK, questions)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":      sessionID,
		"questions":       questions,
		"total_questions": len(questions),
		"note":            "Questions are randomized. Options are shuffled. Answer index varies per question.",
	})
}

func (s *Server) handleSubmitOLQ(w http.ResponseWriter, r *http.Request) {
	var body career.OLQSubmission
	if !s.decode(w, r, &body) {
		return
	}
	query := r.URL.Query()
	sessionID := query.Get("session_id")
	_, hasSession := query["session_id"]

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, Submission{SessionID: sessionID, HasSession: hasSession, Body: body})
	state, ok := s.assessments[body.AssessmentID]
	if !ok {
		writeDetail(w, http.StatusNotFound, "Assessment not found")
		return
	}
	if questions, known := s.sessions[sessionID]; hasSession && known {
		if len(body.Responses) != len(questions) {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("Expected %d responses, got %d", len(questions), len(body.Responses)))
			return
		}
		delete(s.sessions, sessionID)
	}
	score := FixedOLQScore
	state.record.OLQScore = &score
	state.record.Completed = true
	now := career.Timestamp{Time: s.clock().UTC()}
	state.record.UpdatedAt = &now
	writeJSON(w, http.StatusOK, state.record)
}

func (s *Server) handleGenerateRecommendation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AssessmentID string `json:"assessment_id"`
	}
	if !s.decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	state, ok := s.assessments[body.AssessmentID]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Assessment not found")
		return
	}
	if !state.record.Completed {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Assessment not completed")
		return
	}
	rec := recommendationFor(s.nextID("R"), state.record.AssessmentID, state.record.UserID)
	rec.GeneratedAt = career.Timestamp{Time: s.clock().UTC()}
	s.recommendations[rec.RecommendationID] = rec
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.recommendation(chi.URLParam(r, "id"))
	if !ok {
		writeDetail(w, http.StatusNotFound, "Recommendation not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, ok := s.recommendation(id); !ok {
		writeDetail(w, http.StatusNotFound, "Recommendation not found")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="career_recommendation_%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(pdfStub))
}

func (s *Server) recommendation(id string) (career.Recommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recommendations[id]
	return rec, ok
}

func (s *Server) handleExams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"exams": examCatalog})
}

func (s *Server) handleGeneratePlan(w http.ResponseWriter, r *http.Request) {
	var req career.StudyPlanRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.HoursPerDay < 1 || req.HoursPerDay > 16 {
		writeValidation(w, &career.ValidationError{Field: "hours_per_day", Reason: "must be between 1 and 16"})
		return
	}
	if _, ok := s.recommendation(req.RecommendationID); !ok {
		writeDetail(w, http.StatusNotFound, "Recommendation not found")
		return
	}
	today := s.today()
	totalDays := int(math.Round(req.TargetDate.Sub(today).Hours() / 24))
	if req.TargetDate.IsZero() || totalDays <= 0 {
		writeDetail(w, http.StatusBadRequest, "Target date must be in the future")
		return
	}
	plan := buildPlan(req, today, totalDays)
	s.mu.Lock()
	plan.PlanID = s.nextID("P")
	plan.CreatedAt = career.Timestamp{Time: s.clock().UTC()}
	s.plans[plan.PlanID] = plan
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, plan)
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	plan, ok := s.plans[chi.URLParam(r, "id")]
	s.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "Study plan not found")
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	role := chi.URLParam(r, "role")
	res, ok := resourcesFor(role)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Resources not found for role: "+role)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// buildPlan spreads the syllabus over the available days. Modules are taken
// in order, each receiving days in proportion to its weight.
func buildPlan(req career.StudyPlanRequest, today time.Time, totalDays int) career.StudyPlan {
	syllabus := syllabusFor(req.ExamType)
	totalHours := float64(totalDays) * req.HoursPerDay
	plan := career.StudyPlan{
		RecommendationID: req.RecommendationID,
		TargetDate:       req.TargetDate,
		TotalDays:        totalDays,
		HoursPerDay:      req.HoursPerDay,
		TotalHours:       totalHours,
	}
	day := 0
	for i, module := range syllabus {
		span := int(math.Round(module.weight * float64(totalDays)))
		if span < 1 {
			span = 1
		}
		if i == len(syllabus)-1 || day+span > totalDays {
			span = totalDays - day
		}
		plan.Modules = append(plan.Modules, career.StudyModule{
			ModuleName:     module.name,
			Topics:         append([]string(nil), module.topics...),
			EstimatedHours: math.Round(module.weight*totalHours*10) / 10,
			Priority:       i + 1,
			WeekNumber:     day/7 + 1,
		})
		for d := 0; d < span; d++ {
			topics := []string{
				module.topics[(d*2)%len(module.topics)],
				module.topics[(d*2+1)%len(module.topics)],
			}
			plan.DailySchedule = append(plan.DailySchedule, career.DailySchedule{
				Date:           career.NewDate(today.AddDate(0, 0, day+d+1)),
				Modules:        []string{module.name},
				HoursAllocated: req.HoursPerDay,
				TopicsCovered:  topics,
			})
		}
		day += span
		if span > 0 {
			plan.Milestones = append(plan.Milestones, career.Milestone{
				Title:       "Complete " + module.name,
				Date:        career.NewDate(today.AddDate(0, 0, day)),
				Description: fmt.Sprintf("Finish all %d topics of %s", len(module.topics), module.name),
				Type:        "module_completion",
			})
		}
	}
	if totalDays > 28 {
		plan.Milestones = append(plan.Milestones, career.Milestone{
			Title:       "Mid-term mock test",
			Date:        career.NewDate(today.AddDate(0, 0, totalDays/2)),
			Description: "Full-length mock test under exam conditions",
			Type:        career.MilestoneAssessment,
		})
	}
	if totalDays > 14 {
		plan.Milestones = append(plan.Milestones, career.Milestone{
			Title:       "Final revision",
			Date:        career.NewDate(today.AddDate(0, 0, totalDays-14)),
			Description: "Revise weak areas and attempt previous papers",
			Type:        career.MilestoneFinalPrep,
		})
	}
	plan.Milestones = append(plan.Milestones, career.Milestone{
		Title:       req.ExamType + " examination",
		Date:        req.TargetDate,
		Description: "Exam day",
		Type:        career.MilestoneExam,
	})
	sortMilestones(plan.Milestones)
	return plan
}

func sortMilestones(ms []career.Milestone) {
	for i := 1; i < len(ms); i++ {
		for j := i; j > 0 && ms[j].Date.Before(ms[j-1].Date.Time); j-- {
			ms[j], ms[j-1] = ms[j-1], ms[j]
		}
	}
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, out any) bool {
	reader := http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes)
	defer reader.Close()
	if err := json.NewDecoder(reader).Decode(out); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "payload exceeds limit")
			return false
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": err.Error(), "type": "value_error.jsondecode"}},
		})
		return false
	}
	return true
}

func writeValidation(w http.ResponseWriter, err error) {
	var validation *career.ValidationError
	if !errors.As(err, &validation) {
		writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"detail": []map[string]any{{"loc": []string{"body", validation.Field}, "msg": validation.Reason, "type": "value_error"}},
	})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
