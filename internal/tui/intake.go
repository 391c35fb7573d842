package tui

import (
	"strconv"
	"strings"

	"github.com/kingrea/careerpath/internal/artifact"
	"github.com/kingrea/careerpath/internal/career"
)

var yesNo = []string{"no", "yes"}

var personalFields = []fieldSpec{
	{key: "full_name", label: "Full name"},
	{key: "email", label: "Email"},
	{key: "phone", label: "Phone"},
	{key: "date_of_birth", label: "Date of birth", placeholder: "YYYY-MM-DD"},
	{key: "gender", label: "Gender", choices: []string{string(career.GenderMale), string(career.GenderFemale), string(career.GenderOther)}},
	{key: "nationality", label: "Nationality", placeholder: career.DefaultNationality},
	{key: "state", label: "State"},
	{key: "city", label: "City"},
}

var physicalFields = []fieldSpec{
	{key: "height_cm", label: "Height (cm)"},
	{key: "weight_kg", label: "Weight (kg)"},
	{key: "eyesight_left", label: "Eyesight left", placeholder: "e.g. 6"},
	{key: "eyesight_right", label: "Eyesight right", placeholder: "e.g. 6"},
	{key: "has_medical_conditions", label: "Medical conditions", choices: yesNo},
	{key: "medical_conditions_description", label: "Describe conditions"},
	{key: "tattoos", label: "Tattoos", choices: yesNo},
	{key: "previous_injuries", label: "Previous injuries", choices: yesNo},
}

var educationFields = []fieldSpec{
	{key: "highest_education", label: "Highest education", placeholder: "e.g. Graduate"},
	{key: "stream", label: "Stream", placeholder: "e.g. Science"},
	{key: "university", label: "University"},
	{key: "graduation_year", label: "Graduation year"},
	{key: "percentage_or_cgpa", label: "Percentage / CGPA"},
	{key: "additional_qualifications", label: "Other qualifications", placeholder: "comma separated"},
	{key: "has_ncc", label: "NCC", choices: yesNo},
	{key: "ncc_certificate", label: "NCC certificate", placeholder: "A, B or C"},
}

func parsePersonal(v map[string]string) (career.PersonalDetails, error) {
	details := career.PersonalDetails{
		FullName:    v["full_name"],
		Email:       v["email"],
		Phone:       v["phone"],
		Gender:      career.Gender(v["gender"]),
		Nationality: v["nationality"],
		State:       v["state"],
		City:        v["city"],
	}
	if raw := v["date_of_birth"]; raw != "" {
		dob, err := career.ParseDate(raw)
		if err != nil {
			return career.PersonalDetails{}, &career.ValidationError{Field: "date_of_birth", Reason: "must be a date (YYYY-MM-DD)"}
		}
		details.DateOfBirth = dob
	}
	return details, nil
}

func personalValues(p *career.PersonalDetails) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return map[string]string{
		"full_name":     p.FullName,
		"email":         p.Email,
		"phone":         p.Phone,
		"date_of_birth": p.DateOfBirth.String(),
		"gender":        string(p.Gender),
		"nationality":   p.Nationality,
		"state":         p.State,
		"city":          p.City,
	}
}

func parsePhysical(v map[string]string) (career.PhysicalDetails, error) {
	var details career.PhysicalDetails
	var err error
	if details.HeightCM, err = parseNumber(v, "height_cm"); err != nil {
		return career.PhysicalDetails{}, err
	}
	if details.WeightKG, err = parseNumber(v, "weight_kg"); err != nil {
		return career.PhysicalDetails{}, err
	}
	if details.EyesightLeft, err = parseNumber(v, "eyesight_left"); err != nil {
		return career.PhysicalDetails{}, err
	}
	if details.EyesightRight, err = parseNumber(v, "eyesight_right"); err != nil {
		return career.PhysicalDetails{}, err
	}
	details.HasMedicalConditions = v["has_medical_conditions"] == "yes"
	details.MedicalConditionsDescription = v["medical_conditions_description"]
	details.Tattoos = v["tattoos"] == "yes"
	details.PreviousInjuries = v["previous_injuries"] == "yes"
	return details, nil
}

func physicalValues(p *career.PhysicalDetails) map[string]string {
	if p == nil {
		return map[string]string{}
	}
	return map[string]string{
		"height_cm":                      formatNumber(p.HeightCM),
		"weight_kg":                      formatNumber(p.WeightKG),
		"eyesight_left":                  formatNumber(p.EyesightLeft),
		"eyesight_right":                 formatNumber(p.EyesightRight),
		"has_medical_conditions":         yesNoValue(p.HasMedicalConditions),
		"medical_conditions_description": p.MedicalConditionsDescription,
		"tattoos":                        yesNoValue(p.Tattoos),
		"previous_injuries":              yesNoValue(p.PreviousInjuries),
	}
}

func parseEducation(v map[string]string) (career.EducationDetails, error) {
	details := career.EducationDetails{
		HighestEducation: v["highest_education"],
		Stream:           v["stream"],
		University:       v["university"],
		HasNCC:           v["has_ncc"] == "yes",
		NCCCertificate:   v["ncc_certificate"],
	}
	if raw := v["graduation_year"]; raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return career.EducationDetails{}, &career.ValidationError{Field: "graduation_year", Reason: "must be a year"}
		}
		details.GraduationYear = year
	}
	score, err := parseNumber(v, "percentage_or_cgpa")
	if err != nil {
		return career.EducationDetails{}, err
	}
	details.PercentageOrCGPA = score
	details.AdditionalQualifications = splitList(v["additional_qualifications"])
	return details, nil
}

func educationValues(e *career.EducationDetails) map[string]string {
	if e == nil {
		return map[string]string{}
	}
	year := ""
	if e.GraduationYear != 0 {
		year = strconv.Itoa(e.GraduationYear)
	}
	return map[string]string{
		"highest_education":         e.HighestEducation,
		"stream":                    e.Stream,
		"university":                e.University,
		"graduation_year":           year,
		"percentage_or_cgpa":        formatNumber(e.PercentageOrCGPA),
		"additional_qualifications": strings.Join(e.AdditionalQualifications, ", "),
		"has_ncc":                   yesNoValue(e.HasNCC),
		"ncc_certificate":           e.NCCCertificate,
	}
}

func planFields(draft *artifact.PlanDraft) []fieldSpec {
	return []fieldSpec{
		{key: "target_date", label: "Target date", placeholder: "on or after " + draft.MinTargetDate().String()},
		{key: "hours_per_day", label: "Hours per day", placeholder: "1-16"},
		{key: "exam_type", label: "Exam", choices: draft.Catalog().Codes()},
		{key: "preferred_study_times", label: "Preferred times", placeholder: "morning, evening"},
	}
}

func parsePlanForm(v map[string]string) (artifact.PlanForm, error) {
	form := artifact.PlanForm{
		ExamType:            v["exam_type"],
		PreferredStudyTimes: splitList(v["preferred_study_times"]),
	}
	if raw := v["target_date"]; raw != "" {
		date, err := career.ParseDate(raw)
		if err != nil {
			return artifact.PlanForm{}, &career.ValidationError{Field: "target_date", Reason: "must be a date (YYYY-MM-DD)"}
		}
		form.TargetDate = date
	}
	hours, err := parseNumber(v, "hours_per_day")
	if err != nil {
		return artifact.PlanForm{}, err
	}
	form.HoursPerDay = hours
	return form, nil
}

// parseNumber reads an optional decimal. Blank reads as zero so the fragment's
// own required-field check reports it.
func parseNumber(v map[string]string, key string) (float64, error) {
	raw := v[key]
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &career.ValidationError{Field: key, Reason: "must be a number"}
	}
	return n, nil
}

func formatNumber(n float64) string {
	if n == 0 {
		return ""
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func yesNoValue(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
