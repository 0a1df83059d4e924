package local_kv

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/horockey/nskv/internal/model"
)

// CompilePattern compiles a redis KEYS pattern:
// * ? [abc] [^abc] [a-z] and \ escapes. Everything else is literal.
//
// Redis patterns are translated into gobwas syntax first, because gobwas
// gives {} and [! their own meaning. Negated classes mixing ranges and
// chars have no gobwas counterpart and are rejected.
func CompilePattern(pattern string) (glob.Glob, error) {
	translated, matchable, err := translatePattern(pattern)
	if err != nil {
		return nil, patternErr(pattern, err)
	}
	if !matchable {
		return matchNothing{}, nil
	}

	g, err := glob.Compile(translated)
	if err != nil {
		return nil, patternErr(pattern, err)
	}
	return g, nil
}

// LiteralPrefix returns the unescaped part of pattern before the first
// * ? or [.
func LiteralPrefix(pattern string) string {
	var sb strings.Builder

	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '*', '?', '[':
			return sb.String()
		case '\\':
			if i+1 < len(rs) {
				i++
			}
		}
		sb.WriteRune(rs[i])
	}
	return sb.String()
}

func patternErr(pattern string, err error) error {
	return model.ProtocolError{
		Cmd: "KEYS",
		Err: fmt.Errorf("compiling pattern %q: %w", pattern, err),
	}
}

type matchNothing struct{}

func (matchNothing) Match(string) bool {
	return false
}

// translatePattern returns matchable == false for patterns containing
// an empty class, which redis treats as matching nothing.
func translatePattern(pattern string) (res string, matchable bool, resErr error) {
	var sb strings.Builder

	rs := []rune(pattern)
	for i := 0; i < len(rs); i++ {
		switch rs[i] {
		case '*', '?':
			sb.WriteRune(rs[i])
		case '\\':
			// trailing backslash is literal
			if i+1 < len(rs) {
				i++
			}
			writeLiteral(&sb, rs[i])
		case '[':
			cls, next := parseClass(rs, i+1)
			i = next - 1

			if cls.empty() {
				if !cls.negated {
					return "", false, nil
				}
				sb.WriteRune('?')
				continue
			}

			translated, err := cls.glob()
			if err != nil {
				return "", false, err
			}
			sb.WriteString(translated)
		default:
			writeLiteral(&sb, rs[i])
		}
	}

	return sb.String(), true, nil
}

func writeLiteral(sb *strings.Builder, r rune) {
	sb.WriteByte('\\')
	sb.WriteRune(r)
}

type charRange struct {
	lo, hi rune
}

type charClass struct {
	negated bool
	chars   []rune
	ranges  []charRange
}

func (cls charClass) empty() bool {
	return len(cls.chars) == 0 && len(cls.ranges) == 0
}

// parseClass parses a class body starting right after '['.
// An unterminated class spans the rest of the pattern.
// Returns the index following the closing ']'.
func parseClass(rs []rune, start int) (charClass, int) {
	cls := charClass{}

	i := start
	if i < len(rs) && rs[i] == '^' {
		cls.negated = true
		i++
	}

	for i < len(rs) {
		switch {
		case rs[i] == '\\' && i+1 < len(rs):
			cls.chars = append(cls.chars, rs[i+1])
			i += 2
		case rs[i] == ']':
			return cls, i + 1
		case i+2 < len(rs) && rs[i+1] == '-':
			lo, hi := rs[i], rs[i+2]
			if lo > hi {
				lo, hi = hi, lo
			}
			cls.ranges = append(cls.ranges, charRange{lo: lo, hi: hi})
			i += 3
		default:
			cls.chars = append(cls.chars, rs[i])
			i++
		}
	}

	return cls, len(rs)
}

// gobwas ranges hold either one lo-hi span or a char list, so positive
// classes become alternatives of single-element ranges.
func (cls charClass) glob() (string, error) {
	if cls.negated {
		return cls.negatedGlob()
	}

	var alts []string
	for _, r := range cls.ranges {
		if r.lo == '!' {
			// [!-x] would read as negation
			alts = append(alts, `\!`)
			if r.hi == '!' {
				continue
			}
			r.lo++
		}
		alts = append(alts, "["+string(r.lo)+"-"+string(r.hi)+"]")
	}
	for _, c := range cls.chars {
		alts = append(alts, `\`+string(c))
	}

	if len(alts) == 1 {
		return alts[0], nil
	}
	return "{" + strings.Join(alts, ",") + "}", nil
}

func (cls charClass) negatedGlob() (string, error) {
	switch {
	case len(cls.ranges) == 1 && len(cls.chars) == 0:
		r := cls.ranges[0]
		return "[!" + string(r.lo) + "-" + string(r.hi) + "]", nil
	case len(cls.ranges) == 0:
		chars := slices.Clone(cls.chars)
		slices.Sort(chars)
		chars = slices.Compact(chars)

		// a leading escaped '-' would read as a range start
		if chars[0] == '-' {
			if len(chars) == 1 {
				return "[!---]", nil
			}
			chars = append(chars[1:], '-')
		}

		var sb strings.Builder
		sb.WriteString("[!")
		for _, c := range chars {
			sb.WriteByte('\\')
			sb.WriteRune(c)
		}
		sb.WriteByte(']')
		return sb.String(), nil
	default:
		return "", errors.New("negated class mixing ranges and chars is not supported")
	}
}
