package agent

import "strings"

// Intent is the routing classification of one message.
type Intent struct {
	// Confirm reports that the message affirms a pending request to
	// search the web.
	Confirm bool
	// Trigger reports that the message explicitly asks for live web
	// data.
	Trigger bool
}

// Classifier decides how a message steers the router. The default is
// phrase matching; a model-backed classifier can be swapped in without
// touching the routing control flow.
type Classifier interface {
	Classify(message string) Intent
}

// confirmationPhrases affirm a pending web-search request.
var confirmationPhrases = []string{
	"yes", "sure", "search", "ok", "do it",
	"check web", "check online", "find it online",
}

// triggerPhrases explicitly ask for live web data.
var triggerPhrases = []string{
	"search web", "check internet", "look up", "google",
	"online", "latest", "news", "today",
}

// PhraseClassifier matches fixed phrase lists as case-insensitive
// substrings.
type PhraseClassifier struct{}

func (PhraseClassifier) Classify(message string) Intent {
	lower := strings.ToLower(message)
	return Intent{
		Confirm: containsAny(lower, confirmationPhrases),
		Trigger: containsAny(lower, triggerPhrases),
	}
}

func containsAny(s string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
