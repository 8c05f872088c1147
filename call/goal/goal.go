// Package goal decides whether a scenario's stated goal appears satisfied
// in accumulated conversation text. Pure substring heuristics: false
// negatives keep the call going, which is the safe direction; the evaluator
// never declares success on a goal it cannot classify.
package goal

import "strings"

// category pairs the keyword that classifies a goal with the phrases that
// indicate the agent completed it.
type category struct {
	keyword    string
	indicators []string
}

// Classification is by substring match on the goal text, first match wins.
var categories = []category{
	{
		keyword:    "appointment",
		indicators: []string{"scheduled", "appointment is", "booked", "see you on", "confirmation"},
	},
	{
		keyword:    "refill",
		indicators: []string{"prescription", "refill", "pharmacy", "sent to", "filled"},
	},
	{
		keyword:    "reschedule",
		indicators: []string{"rescheduled", "moved", "changed", "new time"},
	},
	{
		keyword:    "cancel",
		indicators: []string{"cancelled", "canceled", "removed from"},
	},
}

// Satisfied reports whether the conversation text contains a completion
// indicator for the goal's category. Unrecognized goals return false.
func Satisfied(goalText, conversationText string) bool {
	goalLower := strings.ToLower(goalText)
	textLower := strings.ToLower(conversationText)

	for _, cat := range categories {
		if !strings.Contains(goalLower, cat.keyword) {
			continue
		}
		for _, indicator := range cat.indicators {
			if strings.Contains(textLower, indicator) {
				return true
			}
		}
		// Matched a category without indicators: do not fall through to a
		// broader category (e.g. "reschedule" also contains no "cancel").
		return false
	}
	return false
}
