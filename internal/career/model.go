// Package career defines the value objects exchanged with the career
// guidance service: intake fragments, the OLQ question set, recommendations,
// study plans, and the exam catalog. Identifiers are always issued by the
// server; nothing in this package generates one.
package career

import (
	"strings"
)

// Gender values accepted by the intake service.
type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

// DefaultNationality is applied when the personal fragment leaves it blank.
const DefaultNationality = "Indian"

// PersonalDetails is the first intake fragment. Submitting it creates the assessment.
type PersonalDetails struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth Date   `json:"date_of_birth"`
	Gender      Gender `json:"gender"`
	Nationality string `json:"nationality"`
	State       string `json:"state"`
	City        string `json:"city"`
}

// Validate checks that every required field is present.
func (p PersonalDetails) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"full_name", p.FullName},
		{"email", p.Email},
		{"phone", p.Phone},
		{"state", p.State},
		{"city", p.City},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return &ValidationError{Field: r.field, Reason: "is required"}
		}
	}
	if p.DateOfBirth.IsZero() {
		return &ValidationError{Field: "date_of_birth", Reason: "is required"}
	}
	switch p.Gender {
	case GenderMale, GenderFemale, GenderOther:
	default:
		return &ValidationError{Field: "gender", Reason: "must be male, female, or other"}
	}
	return nil
}

// PhysicalDetails is the second intake fragment.
type PhysicalDetails struct {
	HeightCM                     float64 `json:"height_cm"`
	WeightKG                     float64 `json:"weight_kg"`
	EyesightLeft                 float64 `json:"eyesight_left"`
	EyesightRight                float64 `json:"eyesight_right"`
	HasMedicalConditions         bool    `json:"has_medical_conditions"`
	MedicalConditionsDescription string  `json:"medical_conditions_description,omitempty"`
	Tattoos                      bool    `json:"tattoos"`
	PreviousInjuries             bool    `json:"previous_injuries"`
}

// Validate checks that the measurements were provided.
func (p PhysicalDetails) Validate() error {
	if p.HeightCM <= 0 {
		return &ValidationError{Field: "height_cm", Reason: "is required"}
	}
	if p.WeightKG <= 0 {
		return &ValidationError{Field: "weight_kg", Reason: "is required"}
	}
	if p.HasMedicalConditions && strings.TrimSpace(p.MedicalConditionsDescription) == "" {
		return &ValidationError{Field: "medical_conditions_description", Reason: "is required when medical conditions are declared"}
	}
	return nil
}

// EducationDetails is the third intake fragment.
type EducationDetails struct {
	HighestEducation         string   `json:"highest_education"`
	Stream                   string   `json:"stream"`
	University               string   `json:"university"`
	GraduationYear           int      `json:"graduation_year"`
	PercentageOrCGPA         float64  `json:"percentage_or_cgpa"`
	AdditionalQualifications []string `json:"additional_qualifications"`
	HasNCC                   bool     `json:"has_ncc"`
	NCCCertificate           string   `json:"ncc_certificate,omitempty"`
}

// Validate checks that the required education fields are present.
func (e EducationDetails) Validate() error {
	if strings.TrimSpace(e.HighestEducation) == "" {
		return &ValidationError{Field: "highest_education", Reason: "is required"}
	}
	if strings.TrimSpace(e.Stream) == "" {
		return &ValidationError{Field: "stream", Reason: "is required"}
	}
	if strings.TrimSpace(e.University) == "" {
		return &ValidationError{Field: "university", Reason: "is required"}
	}
	if e.GraduationYear == 0 {
		return &ValidationError{Field: "graduation_year", Reason: "is required"}
	}
	return nil
}

// AssessmentRecord is the server view of an assessment.
type AssessmentRecord struct {
	AssessmentID string     `json:"assessment_id"`
	UserID       string     `json:"user_id"`
	OLQScore     *float64   `json:"olq_score,omitempty"`
	Completed    bool       `json:"completed"`
	CreatedAt    Timestamp  `json:"created_at"`
	UpdatedAt    *Timestamp `json:"updated_at,omitempty"`
}

// Exam is one entry of the static exam catalog.
type Exam struct {
	ExamCode       string `json:"exam_code"`
	ExamName       string `json:"exam_name"`
	ConductingBody string `json:"conducting_body"`
	ExamFrequency  string `json:"exam_frequency,omitempty"`
	Difficulty     string `json:"difficulty,omitempty"`
}

// ExamCatalog is the list of exams a study plan can target.
type ExamCatalog []Exam

// Lookup finds an exam by its code.
func (c ExamCatalog) Lookup(code string) (Exam, bool) {
	code = strings.TrimSpace(code)
	for _, exam := range c {
		if exam.ExamCode == code {
			return exam, true
		}
	}
	return Exam{}, false
}

// Codes returns the exam codes in catalog order.
func (c ExamCatalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for _, exam := range c {
		codes = append(codes, exam.ExamCode)
	}
	return codes
}

// Resource is a single preparation resource for a role.
type Resource struct {
	Title          string  `json:"title"`
	Type           string  `json:"type"`
	URL            string  `json:"url,omitempty"`
	Description    string  `json:"description"`
	RelevanceScore float64 `json:"relevance_score"`
	IsFree         bool    `json:"is_free"`
}

// RoleResources bundles preparation material for a recommended role.
type RoleResources struct {
	Role           string              `json:"role"`
	Resources      []Resource          `json:"resources"`
	StudyTips      []string            `json:"study_tips"`
	ExamPattern    map[string]any      `json:"exam_pattern"`
	PreviousPapers []map[string]string `json:"previous_papers"`
}
