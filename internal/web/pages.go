package web

import (
	"embed"
	"html/template"
	"time"

	"github.com/leiDanielAguila/recruiter-first/internal/model"
	"github.com/leiDanielAguila/recruiter-first/internal/session"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

var printer = message.NewPrinter(language.English)

func parsePages() *template.Template {
	return template.Must(template.New("pages").Funcs(template.FuncMap{
		"thousands": func(n int) string { return printer.Sprintf("%d", n) },
	}).ParseFS(templateFS, "templates/*.html"))
}

// page carries what the shared layout needs.
type page struct {
	Title   string
	Refresh int // seconds; zero disables the self-refresh
}

type landingView struct {
	page
	VisitCount int
}

type uploadView struct {
	page
	Error          string
	JobDescription string
}

type loadingView struct {
	page
	FileName    string
	Pages       int
	Progress    int
	CurrentStep string
	Steps       []stepView
}

type stepView struct {
	Label string
	Class string
}

type resultsView struct {
	page
	Result   *model.MatchResult
	FileName string
	Score    int
	Percent  int
	Band     model.Band
}

var loadingSteps = []string{
	"Analyzing resume",
	"Matching requirements",
	"Evaluating fit",
	"Generating insights",
}

// progressTick is how long one percent of the loading bar takes.
const progressTick = 30 * time.Millisecond

// loadingProgress maps elapsed time to a percentage and the active step index.
// The bar is cosmetic; it stops at 100 and waits for the real result.
func loadingProgress(elapsed time.Duration) (percent, step int) {
	percent = min(int(max(elapsed, 0)/progressTick), 100)
	step = min(percent*len(loadingSteps)/100, len(loadingSteps)-1)
	return percent, step
}

func newLoadingView(s session.Loading, now time.Time) loadingView {
	percent, current := loadingProgress(now.Sub(s.Started))

	steps := make([]stepView, len(loadingSteps))
	for i, label := range loadingSteps {
		class := ""
		switch {
		case i < current:
			class = "step-done"
		case i == current:
			class = "step-active"
		}
		steps[i] = stepView{Label: label, Class: class}
	}

	return loadingView{
		page:        page{Title: "Analyzing", Refresh: 1},
		FileName:    s.FileName,
		Pages:       s.Pages,
		Progress:    percent,
		CurrentStep: loadingSteps[current],
		Steps:       steps,
	}
}

func newResultsView(s session.Results) resultsView {
	score := s.Result.MatchScore
	return resultsView{
		page:     page{Title: "Results"},
		Result:   s.Result,
		FileName: s.FileName,
		Score:    int(score),
		Percent:  score.Percent(),
		Band:     score.Band(),
	}
}
