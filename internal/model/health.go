package model

// HealthStatus is the JSON shape returned by the local health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON shape the local UI returns on API-style failures.
type ErrorResponse struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}
