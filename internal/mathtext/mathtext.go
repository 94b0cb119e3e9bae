// Package mathtext resolves {{token}} placeholders in question text against
// a question's math expression side-table.
package mathtext

import (
	"regexp"
	"strings"

	"github.com/prepnest/satdiag-backend/internal/model"
)

// Mode selects the rendering target for resolved expressions.
type Mode string

const (
	// ModeLaTeX wraps expressions in ** ... ** markers, which the client
	// configures as inline math delimiters.
	ModeLaTeX Mode = "latex"
	// ModeUnicode substitutes the plain-text unicode form.
	ModeUnicode Mode = "unicode"
)

var placeholderRe = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Replace substitutes every {{token}} in s with the matching expression.
// Unknown tokens resolve to the empty string, mirroring how a missing
// side-table entry renders as nothing rather than a broken placeholder.
func Replace(s string, exprs map[string]model.MathExpression, mode Mode) string {
	if len(exprs) == 0 && !placeholderRe.MatchString(s) {
		return s
	}
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		key := strings.TrimSpace(m[2 : len(m)-2])
		expr, ok := exprs[key]
		if !ok {
			return ""
		}
		if mode == ModeUnicode {
			return expr.Unicode
		}
		return "** " + expr.LaTeX + " **"
	})
}

// ResolveQuestion returns a copy of q with display text and choice
// displays resolved for the student payload.
func ResolveQuestion(q *model.SatQuestion, mode Mode) model.QuestionForStudent {
	out := model.QuestionForStudent{
		ID:       q.ID,
		Section:  q.Section,
		Subtopic: q.Subtopic,
		Question: q.Question,
		Choices:  make([]model.Choice, len(q.Choices)),
	}
	out.Question.Text = Replace(q.Question.Text, q.MathExpressions, mode)
	for i, c := range q.Choices {
		out.Choices[i] = model.Choice{
			Value:   c.Value,
			Display: Replace(c.Display, q.MathExpressions, mode),
		}
	}
	return out
}
