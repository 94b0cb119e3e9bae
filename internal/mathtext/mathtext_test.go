package mathtext

import (
	"testing"

	"github.com/prepnest/satdiag-backend/internal/model"
)

func TestReplace(t *testing.T) {
	exprs := map[string]model.MathExpression{
		"frac": {Unicode: "1/2", LaTeX: `\frac{1}{2}`},
		"sqrt": {Unicode: "√2", LaTeX: `\sqrt{2}`},
	}

	tests := []struct {
		name string
		in   string
		mode Mode
		want string
	}{
		{"no placeholders", "plain text", ModeLaTeX, "plain text"},
		{"latex", "value of {{frac}} is", ModeLaTeX, `value of ** \frac{1}{2} ** is`},
		{"unicode", "value of {{frac}} is", ModeUnicode, "value of 1/2 is"},
		{"padded token", "{{ sqrt }}", ModeUnicode, "√2"},
		{"unknown token", "see {{missing}} here", ModeLaTeX, "see  here"},
		{"multiple", "{{frac}} and {{sqrt}}", ModeUnicode, "1/2 and √2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Replace(tt.in, exprs, tt.mode); got != tt.want {
				t.Errorf("Replace(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestResolveQuestionWithholdsAnswer(t *testing.T) {
	q := &model.SatQuestion{
		Subtopic:      "algebra",
		Section:       model.SectionMath,
		CorrectAnswer: "B",
		Question:      model.QuestionContent{Text: "Solve {{eq}}"},
		Choices: []model.Choice{
			{Value: "A", Display: "{{eq}}"},
			{Value: "B", Display: "4"},
		},
		MathExpressions: map[string]model.MathExpression{
			"eq": {Unicode: "x+2=6", LaTeX: "x+2=6"},
		},
	}

	out := ResolveQuestion(q, ModeUnicode)
	if out.Question.Text != "Solve x+2=6" {
		t.Errorf("text not resolved: %q", out.Question.Text)
	}
	if out.Choices[0].Display != "x+2=6" {
		t.Errorf("choice not resolved: %q", out.Choices[0].Display)
	}
	// Mutating the copy must not touch the source question.
	out.Choices[1].Display = "changed"
	if q.Choices[1].Display != "4" {
		t.Error("source question mutated")
	}
}
