package scenario

import "testing"

func TestSpokenDOB(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		dob  string
		want string
	}{
		{"iso date", "2026-02-17", "February 17th, 2026."},
		{"us slashes", "02/17/2026", "February 17th, 2026."},
		{"us slashes no padding", "3/1/1985", "March 1st, 1985."},
		{"long form", "January 2, 1990", "January 2nd, 1990."},
		{"third", "1993-07-03", "July 3rd, 1993."},
		{"teens keep th", "2000-05-12", "May 12th, 2000."},
		{"eleventh keeps th", "2000-05-11", "May 11th, 2000."},
		{"twenty first", "2000-05-21", "May 21st, 2000."},
		{"surrounding whitespace", "  1970-01-01 ", "January 1st, 1970."},
		{"unparseable falls back", "sometime in spring", "February 17th, 2026."},
		{"empty falls back", "", "February 17th, 2026."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := SpokenDOB(tc.dob); got != tc.want {
				t.Fatalf("SpokenDOB(%q) = %q, want %q", tc.dob, got, tc.want)
			}
		})
	}
}

func TestScenarioInfo(t *testing.T) {
	t.Parallel()

	s := Scenario{
		Name:        "prescription_refill",
		Description: "Patient calls for a refill",
		TestType:    TestTypeStandard,
	}
	info := s.Info(7)

	if info.Name != "prescription_refill" || info.TurnCount != 7 {
		t.Fatalf("info = %+v", info)
	}
	if info.TestType != TestTypeStandard {
		t.Fatalf("test type = %q", info.TestType)
	}
}
