package assessment

import (
	"testing"

	"github.com/dukerupert/neurocalm/internal/dass"
)

func TestQuestionCounts(t *testing.T) {
	cases := []struct {
		form Form
		want int
	}{
		{Short, 7},
		{Long, 14},
	}
	for _, c := range cases {
		for _, scale := range dass.Scales {
			if got := len(c.form.Questions(scale)); got != c.want {
				t.Errorf("%s %s: %d questions, want %d", c.form.Name, scale, got, c.want)
			}
		}
	}
}

func TestQuestionNumbersUnique(t *testing.T) {
	for _, form := range []Form{Short, Long} {
		seen := make(map[string]bool)
		for _, scale := range dass.Scales {
			for _, q := range form.Questions(scale) {
				if seen[q.Field()] {
					t.Errorf("%s: duplicate field %s", form.Name, q.Field())
				}
				seen[q.Field()] = true
			}
		}
	}
}

func TestOptionsWeighted(t *testing.T) {
	short := Short.Options()
	if len(short) != 4 || short[3].Value != 6 {
		t.Errorf("short options = %+v", short)
	}
	long := Long.Options()
	if long[3].Value != 3 {
		t.Errorf("long options = %+v", long)
	}
}

func TestMaximumScoresReachTopBand(t *testing.T) {
	for _, form := range []Form{Short, Long} {
		top := form.Options()[len(form.Options())-1].Value
		if top != form.MaxAnswer() {
			t.Errorf("%s top option %d, MaxAnswer %d", form.Name, top, form.MaxAnswer())
		}
		for _, scale := range dass.Scales {
			highest := top * len(form.Questions(scale))
			if got := dass.Classify(scale, highest); got != dass.ExtremelySevere {
				t.Errorf("%s %s max %d = %q", form.Name, scale, highest, got)
			}
		}
	}
}

func TestPageAndAfter(t *testing.T) {
	if got := Short.Page(dass.Anxiety); got != "/dass21-anx.html" {
		t.Errorf("Page = %q", got)
	}
	if got := Short.After(dass.Depression); got != "/dass21-anx.html" {
		t.Errorf("After(depression) = %q", got)
	}
	if got := Long.After(dass.Stress); got != ResultsPath {
		t.Errorf("After(stress) = %q", got)
	}
}
