package detect

import (
	"strings"

	"github.com/sqlscout/sqlscout/pkg/payloads"
)

// tutorialPhrases mark pages that legitimately discuss SQL errors. A phrase
// present in both baseline and test response means the match came from page
// content, not from the database.
var tutorialPhrases = []string{
	"sql tutorial",
	"sql course",
	"learn sql",
	"sql reference",
	"sql examples",
	"syntax error example",
	"common sql errors",
	"how to fix",
}

// echoedPayload reports whether the match is just the injected payload (or
// the parameter's original value) reflected back at us.
func echoedPayload(evidence, payload, original string) bool {
	// Single-char breakers appear in legitimate error text ("near ''' at
	// line 1"); only a substantial payload counts as an echo.
	if len(payload) >= 4 && strings.Contains(evidence, payload) {
		return true
	}
	if len(original) >= 4 && strings.Contains(evidence, original) {
		return true
	}
	return false
}

// tutorialContent reports whether a tutorial phrase appears in both the
// baseline and the test response.
func tutorialContent(baseBody, testBody string) bool {
	baseLower := strings.ToLower(baseBody)
	testLower := strings.ToLower(testBody)
	for _, phrase := range tutorialPhrases {
		if strings.Contains(baseLower, phrase) && strings.Contains(testLower, phrase) {
			return true
		}
	}
	return false
}

// bareErrorStatus reports whether a response is a plain 404/500 with no
// database detail in the body. Status flips like that happen on any broken
// input and prove nothing on their own.
func bareErrorStatus(status int, body string) bool {
	if status != 404 && status != 500 {
		return false
	}
	_, _, matched := payloads.MatchError(body)
	return !matched
}
