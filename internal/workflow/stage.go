// internal/workflow/stage.go
//
// Stages of the assessment intake, in the only order they may be acknowledged.

package workflow

// Stage enumerates the intake states.
type Stage int

const (
	StagePersonal Stage = iota
	StagePhysical
	StageEducation
	StageOLQ
	StageCompleted
)

// String returns the state name used in logs.
func (s Stage) String() string {
	switch s {
	case StagePersonal:
		return "personal_pending"
	case StagePhysical:
		return "physical_pending"
	case StageEducation:
		return "education_pending"
	case StageOLQ:
		return "olq_pending"
	case StageCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// FriendlyName returns a human-readable label.
func (s Stage) FriendlyName() string {
	switch s {
	case StagePersonal:
		return "Personal Details"
	case StagePhysical:
		return "Physical Details"
	case StageEducation:
		return "Education"
	case StageOLQ:
		return "OLQ Assessment"
	case StageCompleted:
		return "Completed"
	default:
		return "Unknown"
	}
}

// Stages lists the intake stages in order, excluding Completed.
func Stages() []Stage {
	return []Stage{StagePersonal, StagePhysical, StageEducation, StageOLQ}
}

// CanGoBack reports whether Back is permitted from s.
func (s Stage) CanGoBack() bool {
	return s == StagePhysical || s == StageEducation || s == StageOLQ
}
