package fakeapi

import (
	"strings"

	"github.com/kingrea/careerpath/internal/career"
)

// FixedOLQScore is the score every completed sandbox assessment receives.
const FixedOLQScore = 72.3

var questionBank = []career.Question{
	{QuestionID: career.NumericQuestionID(1), Category: "Effective Intelligence", Question: "Your convoy is stopped by a washed-out bridge an hour before a scheduled rendezvous. What do you do first?", Options: []string{"Wait for orders", "Scout an alternate route and report", "Turn back to base", "Attempt to cross anyway"}},
	{QuestionID: career.NumericQuestionID(2), Category: "Social Adaptability", Question: "You join a new team whose members already know each other well. How do you settle in?", Options: []string{"Keep to yourself until asked", "Introduce yourself and ask about their routines", "Suggest changes to how they work", "Ask to be moved to another team"}},
	{QuestionID: career.NumericQuestionID(3), Category: "Sense of Responsibility", Question: "A junior makes a mistake that will reflect on your section during an inspection. You:", Options: []string{"Report the junior", "Own the mistake and fix it with the junior", "Hide the issue", "Let the inspector find it"}},
	{QuestionID: career.NumericQuestionID(4), Category: "Initiative", Question: "Nobody has been assigned to organise the unit's sports day. You:", Options: []string{"Wait for an assignment", "Volunteer and draft a plan", "Complain that it is disorganised", "Skip the event"}},
	{QuestionID: career.NumericQuestionID(5), Category: "Courage", Question: "During a trek a teammate slips near a ledge in bad weather. You:", Options: []string{"Call for help and wait", "Secure yourself and help them back", "Continue ahead", "Panic"}},
	{QuestionID: career.NumericQuestionID(6), Category: "Determination", Question: "You fail the first attempt of a fitness test by a narrow margin. You:", Options: []string{"Give up on the goal", "Train on the weak area and retest", "Blame the conditions", "Ask for an exemption"}},
	{QuestionID: career.NumericQuestionID(7), Category: "Cooperation", Question: "Two friends in your group disagree on the plan for a project. You:", Options: []string{"Pick a side", "Help them find common ground", "Ignore it", "Do the project alone"}},
	{QuestionID: career.NumericQuestionID(8), Category: "Power of Expression", Question: "You must brief senior officers with five minutes' notice. You:", Options: []string{"Read your notes verbatim", "Outline three key points and speak to them", "Ask someone else to brief", "Decline"}},
}

var examCatalog = career.ExamCatalog{
	{ExamCode: "NDA", ExamName: "National Defence Academy & Naval Academy Examination", ConductingBody: "UPSC", ExamFrequency: "Twice a year (April & September)", Difficulty: "Medium"},
	{ExamCode: "CDS", ExamName: "Combined Defence Services Examination", ConductingBody: "UPSC", ExamFrequency: "Twice a year (February & November)", Difficulty: "Medium"},
	{ExamCode: "AFCAT", ExamName: "Air Force Common Admission Test", ConductingBody: "Indian Air Force", ExamFrequency: "Twice a year (February & August)", Difficulty: "Medium"},
	{ExamCode: "UPSC_CSE", ExamName: "Union Public Service Commission - Civil Services Examination", ConductingBody: "UPSC", ExamFrequency: "Once a year (Prelims in June, Mains in September)", Difficulty: "Hard"},
	{ExamCode: "SSC_CGL", ExamName: "Staff Selection Commission - Combined Graduate Level", ConductingBody: "Staff Selection Commission", ExamFrequency: "Once a year", Difficulty: "Medium"},
	{ExamCode: "State_PSC", ExamName: "State Public Service Commission Examinations", ConductingBody: "Respective State PSCs", ExamFrequency: "Varies by state (Usually annually)", Difficulty: "Medium"},
}

type syllabusModule struct {
	name   string
	topics []string
	weight float64
}

var defaultSyllabus = []syllabusModule{
	{name: "English", topics: []string{"Grammar", "Vocabulary", "Comprehension", "Sentence Improvement"}, weight: 0.3},
	{name: "General Knowledge", topics: []string{"History", "Geography", "Polity", "Current Affairs", "Science"}, weight: 0.4},
	{name: "Elementary Mathematics", topics: []string{"Arithmetic", "Algebra", "Trigonometry", "Geometry", "Statistics"}, weight: 0.3},
}

var syllabi = map[string][]syllabusModule{
	"NDA": {
		{name: "Mathematics", topics: []string{"Algebra", "Matrices", "Trigonometry", "Calculus", "Vectors", "Statistics"}, weight: 0.45},
		{name: "General Ability - English", topics: []string{"Grammar", "Vocabulary", "Comprehension"}, weight: 0.2},
		{name: "General Ability - GK", topics: []string{"Physics", "Chemistry", "History", "Geography", "Current Events"}, weight: 0.35},
	},
	"AFCAT": {
		{name: "Verbal Ability", topics: []string{"Comprehension", "Error Detection", "Synonyms"}, weight: 0.25},
		{name: "Numerical Ability", topics: []string{"Ratio", "Percentage", "Time and Work"}, weight: 0.25},
		{name: "Reasoning and Military Aptitude", topics: []string{"Spatial Ability", "Verbal Reasoning"}, weight: 0.25},
		{name: "General Awareness", topics: []string{"Defence", "Sports", "Current Affairs"}, weight: 0.25},
	},
}

func syllabusFor(examType string) []syllabusModule {
	if modules, ok := syllabi[strings.TrimSpace(examType)]; ok {
		return modules
	}
	return defaultSyllabus
}

func recommendationFor(id, assessmentID, userID string) career.Recommendation {
	return career.Recommendation{
		RecommendationID: id,
		AssessmentID:     assessmentID,
		UserID:           userID,
		OLQScore:         FixedOLQScore,
		PrimaryCategory:  career.CategoryOfficer,
		Recommendations: []career.RoleRecommendation{{
			RoleName:             "Indian Army Officer",
			RoleCategory:         career.CategoryOfficer,
			EntryScheme:          "CDS",
			MatchScore:           88,
			MinAge:               19,
			MaxAge:               24,
			EducationRequirement: "Graduate from a recognised university",
			PhysicalStandards:    map[string]any{"min_height_cm": 157, "eyesight": "6/6"},
			SelectionProcess:     []string{"CDS written examination", "SSB interview", "Medical examination"},
			Reasoning:            "Strong officer-like qualities and a completed graduate degree fit the CDS entry.",
			FeatureImportance: career.FeatureWeights{
				{Feature: "olq_score", Weight: 0.4},
				{Feature: "education", Weight: 0.35},
				{Feature: "age", Weight: 0.15},
				{Feature: "physical_fitness", Weight: 0.1},
			},
		}},
		Explanation: "Your OLQ profile and education qualify you for officer entry through CDS.",
	}
}

var roleResources = map[string]career.RoleResources{
	"CDS": {
		Role: "CDS",
		Resources: []career.Resource{
			{Title: "Pathfinder CDS Examination", Type: "book", Description: "Complete guide with previous papers", RelevanceScore: 0.95},
			{Title: "UPSC Official Website", Type: "website", URL: "https://www.upsc.gov.in", Description: "Notifications, syllabus, and previous papers", RelevanceScore: 1, IsFree: true},
			{Title: "SSBCrack", Type: "website", URL: "https://www.ssbcrack.com", Description: "SSB interview guidance", RelevanceScore: 0.9, IsFree: true},
		},
		StudyTips:   []string{"Solve the last ten years of papers", "Read a newspaper daily", "Keep up physical training"},
		ExamPattern: map[string]any{"total_papers": 3, "total_marks": 300},
	},
}

func resourcesFor(role string) (career.RoleResources, bool) {
	key := strings.ToUpper(strings.TrimSpace(role))
	for name, res := range roleResources {
		if strings.ToUpper(name) == key {
			return res, true
		}
	}
	return career.RoleResources{}, false
}

// pdfStub is a minimal well-formed PDF document.
const pdfStub = "%PDF-1.4\n1 0 obj<</Type/Catalog/Pages 2 0 R>>endobj\n2 0 obj<</Type/Pages/Kids[]/Count 0>>endobj\ntrailer<</Root 1 0 R>>\n%%EOF\n"
