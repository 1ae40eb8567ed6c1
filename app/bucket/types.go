package bucket

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var ErrInvalidBucket = errors.New("invalid bucket")

const DefaultColor = "#BB86FC"

type Operator string

const (
	OperatorAnd Operator = "AND"
	OperatorOr  Operator = "OR"
	OperatorNot Operator = "NOT"
)

func ParseOperator(value string) (Operator, error) {
	switch op := Operator(strings.ToUpper(strings.TrimSpace(value))); op {
	case OperatorAnd, OperatorOr, OperatorNot:
		return op, nil
	case "":
		return OperatorAnd, nil
	default:
		return "", fmt.Errorf("%w: unknown operator %q", ErrInvalidBucket, value)
	}
}

type Bucket struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Color         string   `json:"color"`
	Keywords      []string `json:"keywords"`
	Operator      Operator `json:"operator"`
	CaseSensitive bool     `json:"caseSensitive"`
	UseRegex      bool     `json:"useRegex"`
	SearchInTitle bool     `json:"searchInTitle"`
	SearchInBody  bool     `json:"searchInBody"`
}

// Validate checks the fields a bucket cannot be saved without and fills in
// presentation defaults. It does not reject invalid regular expressions;
// those are reported by the compiled rule and never match.
func (b *Bucket) Validate() error {
	b.Name = strings.TrimSpace(b.Name)
	if b.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidBucket)
	}

	op, err := ParseOperator(string(b.Operator))
	if err != nil {
		return err
	}
	b.Operator = op

	if b.Color == "" {
		b.Color = DefaultColor
	}
	if b.Keywords == nil {
		b.Keywords = []string{}
	}
	return nil
}

// Equal reports whether two buckets carry the same definition.
func (b *Bucket) Equal(other *Bucket) bool {
	return b.ID == other.ID &&
		b.Name == other.Name &&
		b.Color == other.Color &&
		slices.Equal(b.Keywords, other.Keywords) &&
		b.Operator == other.Operator &&
		b.CaseSensitive == other.CaseSensitive &&
		b.UseRegex == other.UseRegex &&
		b.SearchInTitle == other.SearchInTitle &&
		b.SearchInBody == other.SearchInBody
}
