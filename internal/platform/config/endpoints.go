package config

import "strings"

// Endpoints holds the fully resolved URLs of the remote services.
type Endpoints struct {
	Analyze string
	Visit   string
	Visits  string
}

// NewEndpoints builds the fixed endpoint paths under base. A trailing slash
// on base is ignored.
func NewEndpoints(base string) Endpoints {
	base = strings.TrimRight(base, "/")
	return Endpoints{
		Analyze: base + "/api/v1/resume/analyze",
		Visit:   base + "/api/analytics/visit",
		Visits:  base + "/api/analytics/visits",
	}
}
