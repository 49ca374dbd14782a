// Package pattern extracts version keys from artifact filenames.
//
// A pattern is a regular expression with exactly one capture group; the
// group's text becomes the artifact's version key. Extraction is purely
// syntactic and never touches the filesystem.
package pattern

import (
	"fmt"
	"regexp"

	"versync/internal/domain"
)

// Pattern is a compiled filename pattern.
type Pattern struct {
	re *regexp.Regexp
}

// Compile compiles expr and checks it captures exactly one group.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compiling pattern %q: %w", expr, err)
	}
	if re.NumSubexp() != 1 {
		return nil, fmt.Errorf("pattern %q must capture exactly one version group, has %d", expr, re.NumSubexp())
	}
	return &Pattern{re: re}, nil
}

// MustCompile is Compile for patterns known good at compile time; it panics
// on error. Intended for tests.
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the source expression.
func (p *Pattern) String() string { return p.re.String() }

// Extract returns the version key embedded in name, or domain.ErrNoMatch
// when name does not conform. Non-matching names are dropped from
// inventories, never treated as failures.
func (p *Pattern) Extract(name string) (domain.VersionKey, error) {
	m := p.re.FindStringSubmatch(name)
	if m == nil {
		return "", domain.ErrNoMatch
	}
	return domain.VersionKey(m[1]), nil
}

// Alias derives the stable alias name for name by replacing the version
// component with the literal "current": WA-MARC-krimdok-240101.tar.gz
// becomes WA-MARC-krimdok-current.tar.gz.
func (p *Pattern) Alias(name string) (string, error) {
	idx := p.re.FindStringSubmatchIndex(name)
	if idx == nil {
		return "", domain.ErrNoMatch
	}
	// idx[2]:idx[3] is the span of the single capture group.
	return name[:idx[2]] + "current" + name[idx[3]:], nil
}
