package bucket

import (
	"regexp"
	"strings"
)

type KeywordKind int

const (
	KeywordLiteral KeywordKind = iota
	KeywordPattern
	KeywordInvalid // a pattern that failed to compile; never matches
)

func (k KeywordKind) String() string {
	switch k {
	case KeywordLiteral:
		return "literal"
	case KeywordPattern:
		return "pattern"
	default:
		return "invalid"
	}
}

// Keyword is one compiled keyword of a rule.
type Keyword struct {
	Kind    KeywordKind
	Source  string
	Literal string         // set for KeywordLiteral, lower-cased unless case sensitive
	Pattern *regexp.Regexp // set for KeywordPattern
	Err     error          // set for KeywordInvalid
}

// CompileKeywords drops blank entries and compiles the rest. In plain mode
// every keyword becomes a literal; in regex mode every keyword is compiled
// as a pattern. Unless caseSensitive is set, keywords are lower-cased first
// and patterns get the case-insensitive flag.
func CompileKeywords(keywords []string, useRegex, caseSensitive bool) []Keyword {
	out := make([]Keyword, 0, len(keywords))
	for _, source := range keywords {
		if strings.TrimSpace(source) == "" {
			continue
		}
		out = append(out, compileKeyword(source, useRegex, caseSensitive))
	}
	return out
}

func compileKeyword(source string, useRegex, caseSensitive bool) Keyword {
	if !useRegex {
		literal := source
		if !caseSensitive {
			literal = strings.ToLower(literal)
		}
		return Keyword{Kind: KeywordLiteral, Source: source, Literal: literal}
	}

	expr := source
	if !caseSensitive {
		expr = "(?i)" + strings.ToLower(expr)
	}
	pattern, err := regexp.Compile(expr)
	if err != nil {
		return Keyword{Kind: KeywordInvalid, Source: source, Err: err}
	}
	return Keyword{Kind: KeywordPattern, Source: source, Pattern: pattern}
}

// Match reports whether the keyword occurs in text. folded is text
// lower-cased when the rule is case-insensitive, and text itself otherwise.
func (k Keyword) Match(text, folded string) bool {
	switch k.Kind {
	case KeywordLiteral:
		return strings.Contains(folded, k.Literal)
	case KeywordPattern:
		return k.Pattern.MatchString(text)
	default:
		return false
	}
}
