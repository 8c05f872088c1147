package goal

import "testing"

func TestSatisfied(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name         string
		goal         string
		conversation string
		want         bool
	}{
		{
			name:         "appointment scheduled",
			goal:         "Schedule an appointment with Dr. Smith",
			conversation: "Great, your appointment is scheduled for Tuesday at 2 PM.",
			want:         true,
		},
		{
			name:         "appointment booked keyword",
			goal:         "schedule a new patient appointment",
			conversation: "You're booked, see you then.",
			want:         true,
		},
		{
			name:         "appointment not yet done",
			goal:         "Schedule an appointment",
			conversation: "What day works best for you?",
			want:         false,
		},
		{
			name:         "refill sent to pharmacy",
			goal:         "Request a medication refill for Lisinopril",
			conversation: "I've sent the refill to your pharmacy.",
			want:         true,
		},
		{
			name:         "reschedule moved",
			goal:         "Reschedule my visit to next week",
			conversation: "No problem, I've moved it to Thursday.",
			want:         true,
		},
		{
			name:         "reschedule goal matches appointment category first",
			goal:         "Reschedule my appointment",
			conversation: "Okay, it's been rescheduled.",
			want:         true,
		},
		{
			name:         "cancellation confirmed",
			goal:         "Cancel my upcoming visit",
			conversation: "You've been removed from the schedule.",
			want:         true,
		},
		{
			name:         "unknown goal never succeeds",
			goal:         "Ask about parking validation",
			conversation: "All set, confirmation sent, scheduled, booked.",
			want:         false,
		},
		{
			name:         "case insensitive",
			goal:         "SCHEDULE AN APPOINTMENT",
			conversation: "Your APPOINTMENT IS confirmed.",
			want:         true,
		},
		{
			name:         "empty conversation",
			goal:         "schedule an appointment",
			conversation: "",
			want:         false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Satisfied(tc.goal, tc.conversation); got != tc.want {
				t.Fatalf("Satisfied(%q, %q) = %v, want %v", tc.goal, tc.conversation, got, tc.want)
			}
		})
	}
}

func TestSatisfiedDoesNotFallThroughCategories(t *testing.T) {
	t.Parallel()

	// "reschedule" contains "schedule" but classifies as appointment first;
	// appointment indicators decide, not reschedule ones.
	if Satisfied("reschedule my appointment", "we changed it to a new time") {
		t.Fatal("matched indicators from a category the goal did not classify into")
	}
}
