package pattern

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoQuery is returned when neither the caller nor the model supplies a
// query.
var ErrNoQuery = errors.New("no query to enumerate")

// UnsupportedQueryError reports a query that is neither E<> nor A[].
type UnsupportedQueryError struct {
	Query string
}

func (e *UnsupportedQueryError) Error() string {
	return fmt.Sprintf("unsupported query %q: only E<> and A[] queries can be enumerated", e.Query)
}

var atom = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\[\]]*$`)

// NormalizeQuery turns q into the reachability query whose witnesses are
// the patterns. E<> queries are kept; A[] φ becomes E<> ¬φ, stripping a
// leading negation where that is exact.
func NormalizeQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	switch {
	case strings.HasPrefix(q, "E<>"):
		return "E<> " + strings.TrimSpace(q[len("E<>"):]), nil
	case strings.HasPrefix(q, "A[]"):
		return "E<> " + negate(strings.TrimSpace(q[len("A[]"):])), nil
	default:
		return "", &UnsupportedQueryError{Query: q}
	}
}

func negate(phi string) string {
	for _, not := range []string{"!", "not "} {
		if rest, ok := strings.CutPrefix(phi, not); ok {
			rest = strings.TrimSpace(rest)
			if atom.MatchString(rest) || enclosed(rest) {
				return rest
			}
		}
	}
	if atom.MatchString(phi) || enclosed(phi) {
		return "!" + phi
	}
	return "!(" + phi + ")"
}

// enclosed reports whether s is one parenthesised group.
func enclosed(s string) bool {
	if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
		return false
	}
	depth := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return false
			}
		}
	}
	return depth == 0
}

// Strengthen conjoins query with the negated pass locations of monitors.
func Strengthen(query string, monitors []string) string {
	if len(monitors) == 0 {
		return query
	}
	body := strings.TrimSpace(strings.TrimPrefix(query, "E<>"))
	if !atom.MatchString(body) && !enclosed(body) {
		body = "(" + body + ")"
	}
	parts := []string{body}
	for _, m := range monitors {
		parts = append(parts, "!"+m+".pass")
	}
	return "E<> " + strings.Join(parts, " && ")
}
