package pattern

import (
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/ryanuber/go-glob"
)

const (
	globPrefix      = "glob:"
	semverPrefix    = "semver:"
	regexpPrefix    = "regexp:"
	regexpAltPrefix = "regex:"
)

var (
	// All matches everything.
	All = New(globPrefix + "*")
)

// Pattern matches names: service (entity) names, or git tags.
type Pattern interface {
	// Matches returns true if the given name matches the pattern.
	Matches(name string) bool
	// String returns the prefixed string representation.
	String() string
	// Valid returns true if the pattern is considered valid.
	Valid() bool
}

type GlobPattern string

// SemverPattern matches names that are semantic versions satisfying
// a constraint. See https://semver.org/
type SemverPattern struct {
	pattern     string // pattern without prefix
	constraints *semver.Constraints
}

// RegexpPattern matches by regular expression.
type RegexpPattern struct {
	pattern string // pattern without prefix
	regexp  *regexp.Regexp
}

// New instantiates a Pattern according to the prefix it finds. The
// prefix can be either `glob:` (default if omitted), `semver:` or
// `regexp:`.
func New(pattern string) Pattern {
	switch {
	case strings.HasPrefix(pattern, semverPrefix):
		pattern = strings.TrimPrefix(pattern, semverPrefix)
		c, _ := semver.NewConstraint(pattern)
		return SemverPattern{pattern, c}
	case strings.HasPrefix(pattern, regexpPrefix):
		pattern = strings.TrimPrefix(pattern, regexpPrefix)
		r, _ := regexp.Compile(pattern)
		return RegexpPattern{pattern, r}
	case strings.HasPrefix(pattern, regexpAltPrefix):
		pattern = strings.TrimPrefix(pattern, regexpAltPrefix)
		r, _ := regexp.Compile(pattern)
		return RegexpPattern{pattern, r}
	default:
		return GlobPattern(strings.TrimPrefix(pattern, globPrefix))
	}
}

func (g GlobPattern) Matches(name string) bool {
	return glob.Glob(string(g), name)
}

func (g GlobPattern) String() string {
	return globPrefix + string(g)
}

func (g GlobPattern) Valid() bool {
	return true
}

func (s SemverPattern) Matches(name string) bool {
	v, err := semver.NewVersion(name)
	if err != nil {
		return false
	}
	if s.constraints == nil {
		// Invalid constraints match anything
		return true
	}
	return s.constraints.Check(v)
}

func (s SemverPattern) String() string {
	return semverPrefix + s.pattern
}

func (s SemverPattern) Valid() bool {
	return s.constraints != nil
}

// Latest returns the greatest version among names that match, and
// false if none does.
func (s SemverPattern) Latest(names []string) (string, bool) {
	var (
		best     string
		bestVers *semver.Version
	)
	for _, name := range names {
		if !s.Matches(name) {
			continue
		}
		v, _ := semver.NewVersion(name)
		if bestVers == nil || v.GreaterThan(bestVers) {
			best, bestVers = name, v
		}
	}
	return best, bestVers != nil
}

func (r RegexpPattern) Matches(name string) bool {
	if r.regexp == nil {
		// Invalid regexp match anything
		return true
	}
	return r.regexp.MatchString(name)
}

func (r RegexpPattern) String() string {
	return regexpPrefix + r.pattern
}

func (r RegexpPattern) Valid() bool {
	return r.regexp != nil
}
