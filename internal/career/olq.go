package career

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// QuestionID identifies a question inside an OLQ session. The engine issues
// integers today; the id is kept opaque and re-encoded in the form it arrived in.
type QuestionID struct {
	raw     string
	numeric bool
}

// NumericQuestionID builds an id that encodes as a JSON number.
func NumericQuestionID(n int) QuestionID {
	return QuestionID{raw: strconv.Itoa(n), numeric: true}
}

// TextQuestionID builds an id that encodes as a JSON string.
func TextQuestionID(s string) QuestionID {
	return QuestionID{raw: s}
}

func (id QuestionID) String() string { return id.raw }

// IsZero reports whether the id was never set.
func (id QuestionID) IsZero() bool { return id.raw == "" }

// MarshalJSON emits the id as a number or a string, matching its origin.
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if id.numeric {
		return []byte(id.raw), nil
	}
	return json.Marshal(id.raw)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return fmt.Errorf("career: question_id is required")
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*id = QuestionID{raw: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("career: question_id: %w", err)
	}
	*id = QuestionID{raw: n.String(), numeric: true}
	return nil
}

// Question is one situational-judgment scenario. Options are referenced by
// zero-based index, so their order is significant.
type Question struct {
	QuestionID QuestionID `json:"question_id"`
	Question   string     `json:"question"`
	Options    []string   `json:"options"`
	Category   string     `json:"category,omitempty"`
}

// QuestionSet is either WithSession (questions bound to a server-issued
// session id) or Sessionless (the legacy bare-array shape).
type QuestionSet struct {
	sessionID string
	questions []Question
}

// WithSession binds questions to the session id they were issued with.
// A blank id yields a sessionless set.
func WithSession(sessionID string, questions []Question) QuestionSet {
	return QuestionSet{sessionID: sessionID, questions: cloneQuestions(questions)}
}

// Sessionless wraps questions that arrived without a session id.
func Sessionless(questions []Question) QuestionSet {
	return QuestionSet{questions: cloneQuestions(questions)}
}

// SessionID returns the correlation token when the set has one.
func (s QuestionSet) SessionID() (string, bool) {
	return s.sessionID, s.sessionID != ""
}

// Questions returns a copy of the ordered question sequence.
func (s QuestionSet) Questions() []Question {
	return cloneQuestions(s.questions)
}

// Len is the number of questions in the set.
func (s QuestionSet) Len() int { return len(s.questions) }

func cloneQuestions(in []Question) []Question {
	if in == nil {
		return nil
	}
	out := make([]Question, len(in))
	for i, q := range in {
		q.Options = append([]string(nil), q.Options...)
		out[i] = q
	}
	return out
}

// OLQResponse is one answered question in wire form.
type OLQResponse struct {
	QuestionID     QuestionID `json:"question_id"`
	SelectedOption int        `json:"selected_option"`
}

// OLQSubmission is the body posted when the OLQ stage completes.
type OLQSubmission struct {
	AssessmentID string        `json:"assessment_id"`
	Responses    []OLQResponse `json:"responses"`
}

// ResponseSet maps question ids to the selected option index. Key order is
// irrelevant; coverage of every question is mandatory before submission.
type ResponseSet map[QuestionID]int

// Select records an answer, replacing any earlier choice for the question.
func (r ResponseSet) Select(id QuestionID, option int) {
	r[id] = option
}

// Answered reports how many of the given questions have a response.
func (r ResponseSet) Answered(questions []Question) int {
	count := 0
	for _, q := range questions {
		if _, ok := r[q.QuestionID]; ok {
			count++
		}
	}
	return count
}

// Responses orders the set by question sequence. It fails with
// IncompleteResponseError unless every question is covered, and with
// ValidationError when a selected index is outside the option list.
func (r ResponseSet) Responses(questions []Question) ([]OLQResponse, error) {
	if len(questions) == 0 {
		return nil, &ValidationError{Field: "questions", Reason: "no questions loaded"}
	}
	answered := r.Answered(questions)
	if answered < len(questions) {
		return nil, &IncompleteResponseError{Answered: answered, Required: len(questions)}
	}
	out := make([]OLQResponse, 0, len(questions))
	for _, q := range questions {
		option := r[q.QuestionID]
		if option < 0 || option >= len(q.Options) {
			return nil, &ValidationError{
				Field:  fmt.Sprintf("responses[%s]", q.QuestionID),
				Reason: fmt.Sprintf("option %d is out of range", option),
			}
		}
		out = append(out, OLQResponse{QuestionID: q.QuestionID, SelectedOption: option})
	}
	return out, nil
}
