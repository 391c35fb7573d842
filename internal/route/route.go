// Package route maps client-side paths onto screens. Unmatched paths resolve
// to Home.
package route

import (
	"net/url"
	"strings"

	"github.com/kingrea/careerpath/internal/artifact"
)

// Kind identifies a screen.
type Kind int

const (
	Home Kind = iota
	Assessment
	Recommendation
	PlanNew
	PlanExisting
)

// Route is a parsed path. ID carries the recommendation id for
// Recommendation and PlanNew, and the plan id for PlanExisting.
type Route struct {
	Kind Kind
	ID   string
}

// Parse resolves path. Trailing slashes and query strings are ignored.
func Parse(path string) Route {
	p := strings.TrimSpace(path)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	var segments []string
	for _, seg := range strings.Split(p, "/") {
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		segments = append(segments, seg)
	}
	switch {
	case len(segments) == 1 && segments[0] == "assessment":
		return Route{Kind: Assessment}
	case len(segments) == 2 && segments[0] == "recommendation":
		return Route{Kind: Recommendation, ID: segments[1]}
	case len(segments) == 3 && segments[0] == "study-plan" && segments[1] == "new":
		return Route{Kind: PlanNew, ID: segments[2]}
	case len(segments) == 2 && segments[0] == "study-plan" && segments[1] != "new":
		return Route{Kind: PlanExisting, ID: segments[1]}
	default:
		return Route{Kind: Home}
	}
}

// ToRecommendation is the route for a recommendation.
func ToRecommendation(id string) Route { return Route{Kind: Recommendation, ID: id} }

// ToNewPlan is the plan-creation route for a recommendation.
func ToNewPlan(recommendationID string) Route { return Route{Kind: PlanNew, ID: recommendationID} }

// ToPlan is the route for a stored plan.
func ToPlan(planID string) Route { return Route{Kind: PlanExisting, ID: planID} }

// Path renders the route back to its client-side path.
func (r Route) Path() string {
	switch r.Kind {
	case Assessment:
		return "/assessment"
	case Recommendation:
		return "/recommendation/" + url.PathEscape(r.ID)
	case PlanNew:
		return "/study-plan/new/" + url.PathEscape(r.ID)
	case PlanExisting:
		return "/study-plan/" + url.PathEscape(r.ID)
	default:
		return "/"
	}
}

// PlanIntent returns the plan mode for plan routes.
func (r Route) PlanIntent() (artifact.PlanIntent, bool) {
	switch r.Kind {
	case PlanNew:
		return artifact.NewPlan{RecommendationID: r.ID}, true
	case PlanExisting:
		return artifact.ExistingPlan{PlanID: r.ID}, true
	default:
		return nil, false
	}
}

func (k Kind) String() string {
	switch k {
	case Assessment:
		return "assessment"
	case Recommendation:
		return "recommendation"
	case PlanNew:
		return "plan_new"
	case PlanExisting:
		return "plan"
	default:
		return "home"
	}
}
