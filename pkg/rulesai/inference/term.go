package inference

import "strings"

// Term is a rule or fact argument. Whether it is a constant or a variable is
// derived from its first character, so the parser and the engine share one
// classification rule: a leading lowercase ASCII letter marks a constant,
// anything else a variable.
type Term string

// Const folds s to a lowercase constant token.
func Const(s string) Term { return Term(strings.ToLower(s)) }

// Var folds s to an uppercase variable token.
func Var(s string) Term { return Term(strings.ToUpper(s)) }

// IsConstant reports whether t classifies as a constant.
func (t Term) IsConstant() bool {
	return len(t) > 0 && t[0] >= 'a' && t[0] <= 'z'
}

// IsVariable reports whether t classifies as a variable.
func (t Term) IsVariable() bool { return !t.IsConstant() }

// String renders constants quoted, as they appear in rule text.
func (t Term) String() string {
	if t.IsConstant() {
		return `"` + string(t) + `"`
	}
	return string(t)
}
