package types

type SuccessEnvelope struct {
	Data any `json:"data"`
}

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// Link is a navigable query-string target handed to the view layer.
type Link struct {
	Label    string `json:"label"`
	Href     string `json:"href"`
	Selected bool   `json:"selected"`
}
