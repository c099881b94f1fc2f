package memory

import (
	"slices"
	"strings"
	"testing"
)

func TestImportanceDeterministic(t *testing.T) {
	u := "My name is Jack and I love synthesizers"
	a := "Nice to meet you, Jack"
	first := Importance(u, a)
	for i := 0; i < 5; i++ {
		if got := Importance(u, a); got != first {
			t.Fatalf("Importance not deterministic: %f != %f", got, first)
		}
	}
}

func TestImportanceBounds(t *testing.T) {
	cases := []struct {
		name  string
		user  string
		asst  string
	}{
		{"empty", "", ""},
		{"trivial", "ok", "sure"},
		{"personal", "My name is Jack and I love synthesizers", "noted"},
		{"loaded", strings.Repeat("I love my family and I feel so happy and proud? ", 30), "wonderful"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Importance(tc.user, tc.asst)
			if got < 0 || got > 1 {
				t.Errorf("Importance(%q) = %f; want within [0,1]", tc.user, got)
			}
		})
	}
}

func TestImportanceTrivialBelowThreshold(t *testing.T) {
	if got := Importance("ok", "sure"); got >= DefaultMinImportance {
		t.Errorf("trivial exchange scored %f; want below %f", got, DefaultMinImportance)
	}
}

func TestImportancePersonalClearsThreshold(t *testing.T) {
	got := Importance("My name is Jack and I love synthesizers", "Nice to meet you, Jack")
	if got < DefaultMinImportance {
		t.Errorf("personal statement scored %f; want >= %f", got, DefaultMinImportance)
	}
}

func TestImportanceMonotonic(t *testing.T) {
	base := "let's talk"
	score := Importance(base, "")
	// Each added keyword may only raise the score.
	for _, extra := range []string{
		" my name is Jack",
		" and I love synthesizers",
		" I feel so happy",
		" we decided on a deadline",
		" right?",
	} {
		base += extra
		next := Importance(base, "")
		if next < score {
			t.Errorf("score decreased after adding %q: %f -> %f", extra, score, next)
		}
		score = next
	}
}

func TestImportanceQuestionSignalCapped(t *testing.T) {
	few := Importance("why? how?", "")
	many := Importance("why? how? when? where? who? what?", "")
	// Both past the cap of two marks should score the question signal
	// identically; length still differs slightly.
	if many-few > 0.05 {
		t.Errorf("question signal not capped: %f vs %f", few, many)
	}
}

func TestTags(t *testing.T) {
	cases := []struct {
		name string
		user string
		asst string
		want []string
		none []string
	}{
		{
			name: "personal",
			user: "My name is Jack and I love synthesizers",
			asst: "Nice to meet you",
			want: []string{"about-user"},
		},
		{
			name: "work_planning",
			user: "the project deadline is tomorrow, let's schedule a meeting",
			asst: "added to your calendar",
			want: []string{"planning", "work"},
		},
		{
			name: "question",
			user: "do you remember what I said?",
			asst: "of course",
			want: []string{"about-assistant", "meta-memory", "question"},
		},
		{
			name: "neutral",
			user: "the sky is blue",
			asst: "indeed",
			none: []string{"work", "emotional", "about-user"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Tags(tc.user, tc.asst)
			if !slices.IsSorted(got) {
				t.Errorf("Tags not sorted: %v", got)
			}
			for _, w := range tc.want {
				if !slices.Contains(got, w) {
					t.Errorf("Tags = %v; missing %q", got, w)
				}
			}
			for _, n := range tc.none {
				if slices.Contains(got, n) {
					t.Errorf("Tags = %v; must not contain %q", got, n)
				}
			}
		})
	}
}

func TestTagsDeterministic(t *testing.T) {
	u, a := "I feel great about the project?", "glad to hear"
	first := Tags(u, a)
	for i := 0; i < 5; i++ {
		if got := Tags(u, a); !slices.Equal(got, first) {
			t.Fatalf("Tags not deterministic: %v != %v", got, first)
		}
	}
}
