package assessment

import (
	"fmt"

	"github.com/dukerupert/neurocalm/internal/dass"
)

type Question struct {
	Number int
	Text   string
	Scale  dass.Scale
}

// Field is the form field name a question is answered under.
func (q Question) Field() string {
	return fmt.Sprintf("q%d", q.Number)
}

type Option struct {
	Value int
	Label string
}

var ratings = []string{
	"Did not apply to me at all",
	"Applied to me to some degree, or some of the time",
	"Applied to me to a considerable degree, or a good part of the time",
	"Applied to me very much, or most of the time",
}

// Options lists the answer choices for a form. Short-form answers are doubled
// so both forms share the same severity thresholds.
func (f Form) Options() []Option {
	weight := f.weight()
	opts := make([]Option, len(ratings))
	for i, label := range ratings {
		opts[i] = Option{Value: i * weight, Label: label}
	}
	return opts
}

// MaxAnswer is the highest value a single answer may carry.
func (f Form) MaxAnswer() int {
	return (len(ratings) - 1) * f.weight()
}

func (f Form) weight() int {
	if f.Weight <= 0 {
		return 1
	}
	return f.Weight
}

// Questions returns the form's items for one scale, in questionnaire order.
func (f Form) Questions(scale dass.Scale) []Question {
	var qs []Question
	for _, q := range f.items {
		if q.Scale == scale {
			qs = append(qs, q)
		}
	}
	return qs
}

// Page returns the URL path serving a scale's questions.
func (f Form) Page(scale dass.Scale) string {
	return f.Pages[step(scale)]
}

// After returns where the run continues once scale has been recorded.
func (f Form) After(scale dass.Scale) string {
	return f.Next(step(scale) + 1)
}

var shortItems = []Question{
	{1, "I found it hard to wind down", dass.Stress},
	{2, "I was aware of dryness of my mouth", dass.Anxiety},
	{3, "I couldn't seem to experience any positive feeling at all", dass.Depression},
	{4, "I experienced breathing difficulty (e.g. excessively rapid breathing, breathlessness in the absence of physical exertion)", dass.Anxiety},
	{5, "I found it difficult to work up the initiative to do things", dass.Depression},
	{6, "I tended to over-react to situations", dass.Stress},
	{7, "I experienced trembling (e.g. in the hands)", dass.Anxiety},
	{8, "I felt that I was using a lot of nervous energy", dass.Stress},
	{9, "I was worried about situations in which I might panic and make a fool of myself", dass.Anxiety},
	{10, "I felt that I had nothing to look forward to", dass.Depression},
	{11, "I found myself getting agitated", dass.Stress},
	{12, "I found it difficult to relax", dass.Stress},
	{13, "I felt down-hearted and blue", dass.Depression},
	{14, "I was intolerant of anything that kept me from getting on with what I was doing", dass.Stress},
	{15, "I felt I was close to panic", dass.Anxiety},
	{16, "I was unable to become enthusiastic about anything", dass.Depression},
	{17, "I felt I wasn't worth much as a person", dass.Depression},
	{18, "I felt that I was rather touchy", dass.Stress},
	{19, "I was aware of the action of my heart in the absence of physical exertion (e.g. sense of heart rate increase, heart missing a beat)", dass.Anxiety},
	{20, "I felt scared without any good reason", dass.Anxiety},
	{21, "I felt that life was meaningless", dass.Depression},
}

var longItems = []Question{
	{1, "I found myself getting upset by quite trivial things", dass.Stress},
	{2, "I was aware of dryness of my mouth", dass.Anxiety},
	{3, "I couldn't seem to experience any positive feeling at all", dass.Depression},
	{4, "I experienced breathing difficulty (e.g. excessively rapid breathing, breathlessness in the absence of physical exertion)", dass.Anxiety},
	{5, "I just couldn't seem to get going", dass.Depression},
	{6, "I tended to over-react to situations", dass.Stress},
	{7, "I had a feeling of shakiness (e.g. legs going to give way)", dass.Anxiety},
	{8, "I found it difficult to relax", dass.Stress},
	{9, "I found myself in situations that made me so anxious I was most relieved when they ended", dass.Anxiety},
	{10, "I felt that I had nothing to look forward to", dass.Depression},
	{11, "I found myself getting upset rather easily", dass.Stress},
	{12, "I felt that I was using a lot of nervous energy", dass.Stress},
	{13, "I felt sad and depressed", dass.Depression},
	{14, "I found myself getting impatient when I was delayed in any way (e.g. lifts, traffic lights, being kept waiting)", dass.Stress},
	{15, "I had a feeling of faintness", dass.Anxiety},
	{16, "I felt that I had lost interest in just about everything", dass.Depression},
	{17, "I felt I wasn't worth much as a person", dass.Depression},
	{18, "I felt that I was rather touchy", dass.Stress},
	{19, "I perspired noticeably (e.g. hands sweaty) in the absence of high temperatures or physical exertion", dass.Anxiety},
	{20, "I felt scared without any good reason", dass.Anxiety},
	{21, "I felt that life wasn't worthwhile", dass.Depression},
	{22, "I found it hard to wind down", dass.Stress},
	{23, "I had difficulty in swallowing", dass.Anxiety},
	{24, "I couldn't seem to get any enjoyment out of the things I did", dass.Depression},
	{25, "I was aware of the action of my heart in the absence of physical exertion (e.g. sense of heart rate increase, heart missing a beat)", dass.Anxiety},
	{26, "I felt down-hearted and blue", dass.Depression},
	{27, "I found that I was very irritable", dass.Stress},
	{28, "I felt I was close to panic", dass.Anxiety},
	{29, "I found it hard to calm down after something upset me", dass.Stress},
	{30, "I feared that I would be \"thrown\" by some trivial but unfamiliar task", dass.Anxiety},
	{31, "I was unable to become enthusiastic about anything", dass.Depression},
	{32, "I found it difficult to tolerate interruptions to what I was doing", dass.Stress},
	{33, "I was in a state of nervous tension", dass.Stress},
	{34, "I felt I was pretty worthless", dass.Depression},
	{35, "I was intolerant of anything that kept me from getting on with what I was doing", dass.Stress},
	{36, "I felt terrified", dass.Anxiety},
	{37, "I could see nothing in the future to be hopeful about", dass.Depression},
	{38, "I felt that life was meaningless", dass.Depression},
	{39, "I found myself getting agitated", dass.Stress},
	{40, "I was worried about situations in which I might panic and make a fool of myself", dass.Anxiety},
	{41, "I experienced trembling (e.g. in the hands)", dass.Anxiety},
	{42, "I found it difficult to work up the initiative to do things", dass.Depression},
}
