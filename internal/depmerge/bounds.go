package depmerge

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// UpperBound returns the exclusive upper bound of an npm range in normalized
// form, the way npm's validRange writes it: "^1.2.3" is ">=1.2.3 <2.0.0-0", so
// its bound is "2.0.0-0". Ranges without an upper bound (exact versions, "*",
// ">=x") yield "". An inclusive "<=X" bound is reported as "=X". Alternatives
// joined with "||" have their bounds joined the same way.
//
// ok is false when the range cannot be normalized; callers then compare the
// raw strings.
func UpperBound(r string) (bound string, ok bool) {
	r = strings.TrimSpace(r)
	if r == "" || r == "*" || r == "latest" {
		return "", true
	}
	if _, err := semver.NewConstraint(r); err != nil {
		return "", false
	}

	alternatives := strings.Split(r, "||")
	bounds := make([]string, 0, len(alternatives))
	hasBound := false
	for _, alt := range alternatives {
		b, ok := alternativeBound(strings.TrimSpace(alt))
		if !ok {
			return "", false
		}
		if b != "" {
			hasBound = true
		}
		bounds = append(bounds, b)
	}
	if !hasBound {
		return "", true
	}
	return strings.Join(bounds, "||"), true
}

// alternativeBound returns the first upper bound found in one comparator set.
func alternativeBound(set string) (string, bool) {
	tokens := strings.Fields(set)

	// Hyphen ranges: "1.2.3 - 2.3.4" is ">=1.2.3 <=2.3.4".
	if len(tokens) == 3 && tokens[1] == "-" {
		v, ok := parsePartial(tokens[2])
		if !ok {
			return "", false
		}
		return inclusiveBound(v), true
	}

	for i := 0; i < len(tokens); i++ {
		tok := tokens[i]
		op, rest := splitOperator(tok)
		if rest == "" && i+1 < len(tokens) {
			// "< 2.0.0" with a space after the operator.
			i++
			rest = tokens[i]
		}
		v, ok := parsePartial(rest)
		if !ok {
			return "", false
		}

		var b string
		switch op {
		case "^":
			b = caretBound(v)
		case "~", "~>":
			b = tildeBound(v)
		case "<":
			b = v.exclusive()
		case "<=":
			b = inclusiveBound(v)
		case ">", ">=":
			continue
		case "", "=":
			b = xRangeBound(v)
		default:
			return "", false
		}
		if b != "" {
			return b, true
		}
	}
	return "", true
}

func splitOperator(tok string) (op, rest string) {
	for _, candidate := range []string{"<=", ">=", "~>", "<", ">", "^", "~", "="} {
		if strings.HasPrefix(tok, candidate) {
			return candidate, strings.TrimPrefix(tok, candidate)
		}
	}
	return "", tok
}

// partial is a possibly incomplete version; -1 marks a wildcard or missing part.
type partial struct {
	major, minor, patch int
	pre                 string
}

func parsePartial(s string) (partial, bool) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "="), "v")
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	var pre string
	if i := strings.IndexByte(s, '-'); i >= 0 {
		s, pre = s[:i], s[i+1:]
	}

	p := partial{major: -1, minor: -1, patch: -1, pre: pre}
	if s == "" || s == "*" || s == "x" || s == "X" {
		return p, true
	}
	parts := strings.Split(s, ".")
	if len(parts) > 3 {
		return p, false
	}
	fields := []*int{&p.major, &p.minor, &p.patch}
	for i, part := range parts {
		if part == "x" || part == "X" || part == "*" {
			break
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return p, false
		}
		*fields[i] = n
	}
	return p, true
}

func (p partial) full() bool {
	return p.major >= 0 && p.minor >= 0 && p.patch >= 0
}

func (p partial) String() string {
	s := strconv.Itoa(max(p.major, 0)) + "." + strconv.Itoa(max(p.minor, 0)) + "." + strconv.Itoa(max(p.patch, 0))
	if p.pre != "" {
		s += "-" + p.pre
	}
	return s
}

// exclusive renders the bound of "<p".
func (p partial) exclusive() string {
	if p.major < 0 {
		return "0.0.0-0"
	}
	if p.full() {
		return p.String()
	}
	return version(p.major, max(p.minor, 0), 0) + "-0"
}

func caretBound(p partial) string {
	switch {
	case p.major < 0:
		return ""
	case p.major > 0:
		return version(p.major+1, 0, 0) + "-0"
	case p.minor < 0:
		return version(1, 0, 0) + "-0"
	case p.minor > 0:
		return version(0, p.minor+1, 0) + "-0"
	case p.patch < 0:
		return version(0, 1, 0) + "-0"
	default:
		return version(0, 0, p.patch+1) + "-0"
	}
}

func tildeBound(p partial) string {
	switch {
	case p.major < 0:
		return ""
	case p.minor < 0:
		return version(p.major+1, 0, 0) + "-0"
	default:
		return version(p.major, p.minor+1, 0) + "-0"
	}
}

func xRangeBound(p partial) string {
	switch {
	case p.major < 0, p.full():
		return ""
	case p.minor < 0:
		return version(p.major+1, 0, 0) + "-0"
	default:
		return version(p.major, p.minor+1, 0) + "-0"
	}
}

// inclusiveBound renders the bound of "<=p": "=p" for a full version, the
// next excluded release for a partial one.
func inclusiveBound(p partial) string {
	if p.full() {
		return "=" + p.String()
	}
	return xRangeBound(p)
}

func version(major, minor, patch int) string {
	return strconv.Itoa(major) + "." + strconv.Itoa(minor) + "." + strconv.Itoa(patch)
}
