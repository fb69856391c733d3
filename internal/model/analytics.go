package model

// Visit is the body posted to the analytics visit endpoint.
type Visit struct {
	VisitorID string `json:"visitorId"`
	Timestamp string `json:"timestamp"`
	UserAgent string `json:"userAgent"`
	Referrer  string `json:"referrer"`
}

// VisitCount is the analytics visits endpoint response.
type VisitCount struct {
	Count int `json:"count"`
}
