package session

import "strings"

// fallbackReply is the rule table used when no scenario could be loaded.
// Canned answers keep the call alive at the cost of persona fidelity.
func fallbackReply(agentLower string) string {
	switch {
	case strings.Contains(agentLower, "date of birth"), strings.Contains(agentLower, "birthday"):
		return "February 17th, 2026"
	case strings.Contains(agentLower, "phone"), strings.Contains(agentLower, "callback"), strings.Contains(agentLower, "number"):
		return "Yes, that's correct."
	case strings.Contains(agentLower, "name"):
		return "Lucas"
	default:
		return "Okay, thank you."
	}
}
