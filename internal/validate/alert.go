package validate

// Alert is a structured warning produced by a validator. Alerts are pure
// values; the invoking layer assigns persistence identity (invoice
// association, timestamps).
type Alert struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Severity string         `json:"severity"` // low | medium | high
	Details  map[string]any `json:"details,omitempty"`
}
