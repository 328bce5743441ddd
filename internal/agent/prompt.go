package agent

import (
	"fmt"
	"time"
)

// contextPayload is the structured user turn handed to the model. The
// raw query goes into history separately so past turns stay readable.
type contextPayload struct {
	LocalContext []string `json:"local_context"`
	WebContext   []string `json:"web_context"`
	Query        string   `json:"query"`
}

// systemPrompt pins the current date, the persona, and the answer
// format rules.
func systemPrompt(now time.Time) string {
	return fmt.Sprintf("Current Date: %s\n", now.Format("January 02, 2006")) +
		"You are Saturday, a threat-intel assistant.\n" +
		"Use the provided context to answer the query.\n" +
		"Use local_context first if relevant.\n" +
		"Use web_context when available.\n" +
		"If both are empty, answer from general knowledge.\n" +
		"For threat intel, format with: Overview, Affected, Indicators, Mitigation, Sources.\n" +
		"For normal questions, answer simply.\n" +
		"Never discuss tools or reasoning."
}
