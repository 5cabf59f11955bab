package report

import "strings"

// Hint is a fixed remediation suggestion attached to a backend error
// message.
type Hint struct {
	Title  string
	Advice string
}

// remediationRules map backend error substrings to hints. Ordered,
// first match wins.
var remediationRules = []struct {
	pattern string
	hint    Hint
}{
	{
		pattern: "Not enough samples per class",
		hint: Hint{
			Title:  "Classification Error",
			Advice: "Try a different target column with more unique values, or use linear regression for numeric predictions.",
		},
	},
	{
		pattern: "cannot access local variable",
		hint: Hint{
			Title:  "System Error",
			Advice: "Please try again or contact support.",
		},
	},
}

var genericHint = Hint{
	Title:  "Request Failed",
	Advice: "Check the error message, adjust your data or options, and retry.",
}

// Remediate classifies a backend error message into a remediation hint.
// Unmatched messages get the generic hint.
func Remediate(message string) Hint {
	for _, r := range remediationRules {
		if strings.Contains(message, r.pattern) {
			return r.hint
		}
	}
	return genericHint
}
