package domain

// CustomerEmail is a composed customer-service email and the intermediate
// artifacts it was built from.
type CustomerEmail struct {
	Comment    string `json:"comment"`
	Subject    string `json:"subject"`
	Summary    string `json:"summary"`
	Sentiment  string `json:"sentiment"`
	Body       string `json:"body"`
	Translated string `json:"translated,omitempty"`
}
