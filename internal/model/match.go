package model

import (
	"encoding/json"
	"math"
)

// MatchResult is the scoring service's verdict on a resume against a job description.
type MatchResult struct {
	MatchScore      Score    `json:"match_score"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Gaps            []string `json:"gaps"`
	Recommendations []string `json:"recommendations"`
}

// Score is a match score from 0 to 100. Fractional JSON numbers are rounded.
type Score int

// UnmarshalJSON accepts integer and fractional numbers; null decodes to 0.
func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Score(math.Round(f))
	return nil
}

// Percent returns the score clamped to 0-100 for gauges.
func (s Score) Percent() int {
	return min(max(int(s), 0), 100)
}

// Band is the qualitative label shown next to a score.
type Band struct {
	Label string
	Color string
}

var (
	BandExcellent = Band{Label: "Excellent Match", Color: "#10b981"}
	BandGood      = Band{Label: "Good Match", Color: "#f59e0b"}
	BandFair      = Band{Label: "Fair Match", Color: "#ef4444"}
	BandWeak      = Band{Label: "Weak Match", Color: "#ef4444"}
)

// Band classifies the score: 80+ excellent, 60+ good, 40+ fair, else weak.
func (s Score) Band() Band {
	switch {
	case s >= 80:
		return BandExcellent
	case s >= 60:
		return BandGood
	case s >= 40:
		return BandFair
	default:
		return BandWeak
	}
}
