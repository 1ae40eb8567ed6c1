package bucket

import "strings"

// Rule is a compiled keyword filter: a keyword set combined by an operator.
type Rule struct {
	keywords      []Keyword
	operator      Operator
	caseSensitive bool
}

func NewRule(keywords []string, operator Operator, useRegex, caseSensitive bool) *Rule {
	return &Rule{
		keywords:      CompileKeywords(keywords, useRegex, caseSensitive),
		operator:      operator,
		caseSensitive: caseSensitive,
	}
}

// Empty reports whether no usable keyword is left once blank entries and
// patterns that failed to compile are set aside.
func (r *Rule) Empty() bool {
	for _, k := range r.keywords {
		if k.Kind != KeywordInvalid {
			return false
		}
	}
	return true
}

// Invalid returns the keywords whose pattern failed to compile.
func (r *Rule) Invalid() []Keyword {
	var out []Keyword
	for _, k := range r.keywords {
		if k.Kind == KeywordInvalid {
			out = append(out, k)
		}
	}
	return out
}

// Match evaluates the rule against text. AND needs every keyword, OR at least
// one, NOT none. A rule without usable keywords never matches, and a NOT rule
// holding an invalid pattern never matches either.
func (r *Rule) Match(text string) bool {
	if r.Empty() {
		return false
	}

	folded := text
	if !r.caseSensitive {
		folded = strings.ToLower(text)
	}

	switch r.operator {
	case OperatorAnd:
		for _, k := range r.keywords {
			if !k.Match(text, folded) {
				return false
			}
		}
		return true
	case OperatorOr:
		for _, k := range r.keywords {
			if k.Match(text, folded) {
				return true
			}
		}
		return false
	case OperatorNot:
		for _, k := range r.keywords {
			if k.Kind == KeywordInvalid || k.Match(text, folded) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// MatchText compiles and evaluates a rule in one go.
func MatchText(text string, keywords []string, operator Operator, useRegex, caseSensitive bool) bool {
	return NewRule(keywords, operator, useRegex, caseSensitive).Match(text)
}
