package session

import (
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
)

// State is the view a session currently shows. Exactly one of Upload,
// Loading, or Results is active.
type State interface {
	isState()
}

// Upload shows the form. Err is the message from the last failed submission;
// JobDescription keeps the text the user typed so a retry does not lose it.
type Upload struct {
	Err            string
	JobDescription string
}

// Loading shows progress while an analysis is outstanding.
type Loading struct {
	Started  time.Time
	FileName string
	Pages    int // 0 when the file could not be inspected
}

// Results shows a completed analysis.
type Results struct {
	Result   *model.MatchResult
	FileName string
	Pages    int
}

func (Upload) isState()  {}
func (Loading) isState() {}
func (Results) isState() {}

// Name returns a short label for logs.
func Name(s State) string {
	switch s.(type) {
	case Upload:
		return "upload"
	case Loading:
		return "loading"
	case Results:
		return "results"
	}
	return "unknown"
}
