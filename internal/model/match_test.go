package model

import (
	"encoding/json"
	"testing"
)

func TestMatchResult_Decode(t *testing.T) {
	tests := []struct {
		name string
		body string
		want Score
	}{
		{name: "integer", body: `{"match_score": 82}`, want: 82},
		{name: "fraction rounds up", body: `{"match_score": 74.6}`, want: 75},
		{name: "fraction rounds down", body: `{"match_score": 74.4}`, want: 74},
		{name: "null", body: `{"match_score": null}`, want: 0},
		{name: "absent", body: `{}`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r MatchResult
			if err := json.Unmarshal([]byte(tt.body), &r); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if r.MatchScore != tt.want {
				t.Errorf("MatchScore = %d, want %d", r.MatchScore, tt.want)
			}
		})
	}
}

func TestMatchResult_DecodeStringScore(t *testing.T) {
	var r MatchResult
	if err := json.Unmarshal([]byte(`{"match_score": "high"}`), &r); err == nil {
		t.Fatal("expected error for non-numeric score, got nil")
	}
}

func TestScore_Band(t *testing.T) {
	tests := []struct {
		score Score
		want  string
	}{
		{100, "Excellent Match"},
		{80, "Excellent Match"},
		{79, "Good Match"},
		{60, "Good Match"},
		{59, "Fair Match"},
		{40, "Fair Match"},
		{39, "Weak Match"},
		{0, "Weak Match"},
	}

	for _, tt := range tests {
		if got := tt.score.Band().Label; got != tt.want {
			t.Errorf("Score(%d).Band() = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestScore_Percent(t *testing.T) {
	if got := Score(140).Percent(); got != 100 {
		t.Errorf("Percent() = %d, want 100", got)
	}
	if got := Score(-3).Percent(); got != 0 {
		t.Errorf("Percent() = %d, want 0", got)
	}
	if got := Score(64).Percent(); got != 64 {
		t.Errorf("Percent() = %d, want 64", got)
	}
}
