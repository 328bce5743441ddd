package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhraseClassifier(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Intent
	}{
		{"bare affirmative", "yes", Intent{Confirm: true}},
		{"affirmative in sentence", "Sure, go ahead", Intent{Confirm: true}},
		{"affirmative uppercase", "OK do it", Intent{Confirm: true}},
		{"find it online", "find it online please", Intent{Confirm: true, Trigger: true}},
		{"trigger latest", "what is the latest ransomware campaign", Intent{Trigger: true}},
		{"trigger news", "any news on the botnet takedown", Intent{Trigger: true}},
		{"trigger search web", "search web for the advisory", Intent{Confirm: true, Trigger: true}},
		{"trigger check internet", "check internet for IOCs", Intent{Trigger: true}},
		{"neutral question", "what is a buffer overflow", Intent{}},
		{"empty", "", Intent{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PhraseClassifier{}.Classify(tt.message))
		})
	}
}
