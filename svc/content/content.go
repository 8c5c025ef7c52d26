package content

import (
	"time"

	"github.com/google/uuid"
)

// Grade bands the curriculum is leveled for.
const (
	BandK2  = "K-2"
	Band35  = "3-5"
	Band68  = "6-8"
	Band912 = "9-12"
)

// GradeBands lists the valid bands in school order.
var GradeBands = []string{BandK2, Band35, Band68, Band912}

// ValidGradeBand reports whether band is one of GradeBands.
func ValidGradeBand(band string) bool {
	for _, b := range GradeBands {
		if b == band {
			return true
		}
	}
	return false
}

// Lesson kinds, the shapes curriculum material ships in.
const (
	KindReader     = "reader"
	KindActivity   = "activity"
	KindAssessment = "assessment"
)

// ValidKind reports whether kind is a known lesson kind.
func ValidKind(kind string) bool {
	return kind == KindReader || kind == KindActivity || kind == KindAssessment
}

// Topic is one systems-thinking concept, e.g. feedback loops or stocks and
// flows. Lessons hang off it per grade band.
type Topic struct {
	ID        uuid.UUID
	Slug      string
	Title     string
	Summary   string
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lesson is a topic's rendering for one grade band. Body is markdown.
// Standards holds the NGSS tags the material maps to.
type Lesson struct {
	ID               uuid.UUID
	TopicID          uuid.UUID
	GradeBand        string
	Kind             string
	Title            string
	Body             string
	EstimatedMinutes int
	Standards        []string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
