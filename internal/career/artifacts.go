package career

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// RoleCategory groups recommended roles.
type RoleCategory string

const (
	CategoryOfficer       RoleCategory = "officer"
	CategoryEnlisted      RoleCategory = "enlisted"
	CategoryCivilServices RoleCategory = "civil_services"
)

// FeatureWeight is one named importance weight in the range 0.0-1.0.
type FeatureWeight struct {
	Feature string
	Weight  float64
}

// FeatureWeights keeps the server's key order, which is also the display order.
type FeatureWeights []FeatureWeight

// UnmarshalJSON walks the object token by token so insertion order survives.
func (w *FeatureWeights) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("career: feature_importance: %w", err)
	}
	if tok == nil {
		*w = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("career: feature_importance must be an object")
	}
	var out FeatureWeights
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("career: feature_importance: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("career: feature_importance key is not a string")
		}
		var weight float64
		if err := dec.Decode(&weight); err != nil {
			return fmt.Errorf("career: feature_importance[%s]: %w", key, err)
		}
		out = append(out, FeatureWeight{Feature: key, Weight: weight})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("career: feature_importance: %w", err)
	}
	*w = out
	return nil
}

// MarshalJSON writes the weights back as an object in their stored order.
func (w FeatureWeights) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fw := range w {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fw.Feature)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(fw.Weight)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// RoleRecommendation is one ranked role match.
type RoleRecommendation struct {
	RoleName             string         `json:"role_name"`
	RoleCategory         RoleCategory   `json:"role_category"`
	EntryScheme          string         `json:"entry_scheme"`
	MatchScore           float64        `json:"match_score"`
	MinAge               float64        `json:"min_age"`
	MaxAge               float64        `json:"max_age"`
	EducationRequirement string         `json:"education_requirement"`
	PhysicalStandards    map[string]any `json:"physical_standards,omitempty"`
	SelectionProcess     []string       `json:"selection_process"`
	Reasoning            string         `json:"reasoning"`
	FeatureImportance    FeatureWeights `json:"feature_importance,omitempty"`
}

// Recommendation is produced once per assessment and never mutated by the client.
type Recommendation struct {
	RecommendationID string               `json:"recommendation_id"`
	AssessmentID     string               `json:"assessment_id"`
	UserID           string               `json:"user_id"`
	OLQScore         float64              `json:"olq_score"`
	PrimaryCategory  RoleCategory         `json:"primary_category"`
	Recommendations  []RoleRecommendation `json:"recommendations"`
	Explanation      string               `json:"explanation"`
	GeneratedAt      Timestamp            `json:"generated_at"`
}

// Validate reports whether the payload is well formed enough to display.
func (r Recommendation) Validate() error {
	if strings.TrimSpace(r.RecommendationID) == "" {
		return fmt.Errorf("recommendation_id missing")
	}
	if !inPercentRange(r.OLQScore) {
		return fmt.Errorf("olq_score %.2f outside 0-100", r.OLQScore)
	}
	for i, role := range r.Recommendations {
		if !inPercentRange(role.MatchScore) {
			return fmt.Errorf("recommendations[%d].match_score %.2f outside 0-100", i, role.MatchScore)
		}
		for _, fw := range role.FeatureImportance {
			if fw.Weight < 0 || fw.Weight > 1 {
				return fmt.Errorf("recommendations[%d].feature_importance[%s] %.3f outside 0-1", i, fw.Feature, fw.Weight)
			}
		}
	}
	return nil
}

func inPercentRange(v float64) bool {
	return v >= 0 && v <= 100
}

// MilestoneType classifies plan milestones.
type MilestoneType string

const (
	MilestoneExam       MilestoneType = "exam"
	MilestoneAssessment MilestoneType = "assessment"
	MilestoneFinalPrep  MilestoneType = "final_prep"
	MilestoneOther      MilestoneType = "other"
)

// StudyModule is one block of the plan syllabus.
type StudyModule struct {
	ModuleName     string   `json:"module_name"`
	Topics         []string `json:"topics"`
	EstimatedHours float64  `json:"estimated_hours"`
	Priority       int      `json:"priority"`
	WeekNumber     int      `json:"week_number"`
}

// Milestone is a dated checkpoint inside a plan.
type Milestone struct {
	Title       string        `json:"title"`
	Date        Date          `json:"date"`
	Description string        `json:"description"`
	Type        MilestoneType `json:"type"`
}

// Kind folds unrecognised milestone types into MilestoneOther.
func (m Milestone) Kind() MilestoneType {
	switch m.Type {
	case MilestoneExam, MilestoneAssessment, MilestoneFinalPrep:
		return m.Type
	default:
		return MilestoneOther
	}
}

// DailySchedule is the allocation for a single calendar day.
type DailySchedule struct {
	Date           Date     `json:"date"`
	Modules        []string `json:"modules"`
	HoursAllocated float64  `json:"hours_allocated"`
	TopicsCovered  []string `json:"topics_covered"`
}

// StudyPlan is produced once per recommendation, target date, and budget.
type StudyPlan struct {
	PlanID           string          `json:"plan_id"`
	RecommendationID string          `json:"recommendation_id"`
	TargetDate       Date            `json:"target_date"`
	TotalDays        int             `json:"total_days"`
	HoursPerDay      float64         `json:"hours_per_day"`
	TotalHours       float64         `json:"total_hours"`
	Modules          []StudyModule   `json:"modules"`
	DailySchedule    []DailySchedule `json:"daily_schedule"`
	Milestones       []Milestone     `json:"milestones"`
	CreatedAt        Timestamp       `json:"created_at"`
}

// Validate reports whether the payload is well formed enough to display.
func (p StudyPlan) Validate() error {
	if strings.TrimSpace(p.PlanID) == "" {
		return fmt.Errorf("plan_id missing")
	}
	if p.TotalDays < 0 {
		return fmt.Errorf("total_days %d is negative", p.TotalDays)
	}
	if p.HoursPerDay < 0 || p.TotalHours < 0 {
		return fmt.Errorf("hour totals are negative")
	}
	return nil
}

// StudyPlanRequest is the generation body for a new plan.
type StudyPlanRequest struct {
	RecommendationID    string   `json:"recommendation_id"`
	TargetDate          Date     `json:"target_date"`
	HoursPerDay         float64  `json:"hours_per_day"`
	PreferredStudyTimes []string `json:"preferred_study_times"`
	ExamType            string   `json:"exam_type"`
}
