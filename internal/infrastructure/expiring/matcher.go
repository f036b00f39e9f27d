package expiring

import (
	"regexp"
	"strings"

	"github.com/avatarctic/newsletter-saas/internal/core/ports"
)

// Prefix matches keys that start with the given string, e.g. "subscribers:<id>:".
type Prefix string

func (p Prefix) Match(key string) bool { return strings.HasPrefix(key, string(p)) }

// Exact matches a single key.
type Exact string

func (e Exact) Match(key string) bool { return key == string(e) }

// Regexp matches keys with a compiled regular expression.
type Regexp struct{ re *regexp.Regexp }

func (r Regexp) Match(key string) bool { return r.re != nil && r.re.MatchString(key) }

func (r Regexp) String() string {
	if r.re == nil {
		return ""
	}
	return r.re.String()
}

// Pattern compiles a regular-expression matcher.
func Pattern(pattern string) (Regexp, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Regexp{}, err
	}
	return Regexp{re: re}, nil
}

// MustPattern is Pattern for static patterns; it panics on a malformed pattern.
func MustPattern(pattern string) Regexp {
	return Regexp{re: regexp.MustCompile(pattern)}
}

var (
	_ ports.KeyMatcher = Prefix("")
	_ ports.KeyMatcher = Exact("")
	_ ports.KeyMatcher = Regexp{}
)
