package changeset

import (
	"strconv"
	"strings"

	"github.com/fluxcd/promote/pkg/errors"
)

// DefaultSeparator joins the key segments of a rendered path.
const DefaultSeparator = "//"

// Segment is one step of a path: a map key or a list index.
type Segment struct {
	Key     string
	Index   int
	IsIndex bool
}

func Key(k string) Segment {
	return Segment{Key: k}
}

func Index(i int) Segment {
	return Segment{Index: i, IsIndex: true}
}

func (s Segment) String() string {
	if s.IsIndex {
		return "[" + strconv.Itoa(s.Index) + "]"
	}
	return s.Key
}

// Path addresses a node within a root entity.
type Path []Segment

// Append returns a new path with segs added; p is not modified.
func (p Path) Append(segs ...Segment) Path {
	np := make(Path, len(p), len(p)+len(segs))
	copy(np, p)
	return append(np, segs...)
}

func (p Path) String() string {
	return p.Render(DefaultSeparator)
}

// Render writes the path with key segments joined by sep, and each
// index segment attached in brackets to the segment before it.
func (p Path) Render(sep string) string {
	var b strings.Builder
	for i, s := range p {
		if !s.IsIndex && i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s.String())
	}
	return b.String()
}

// RenderExact is Render for paths that are to be read back. A key
// containing sep, or one ParsePath would split into a key and
// indices, can't be rendered faithfully and is a ValidationError.
func (p Path) RenderExact(sep string) (string, error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	s := p.Render(sep)
	if !p.Equal(ParsePath(s, sep)) {
		return "", errors.ValidationError("key %q can't be written with separator %q", s, sep)
	}
	return s, nil
}

func (p Path) Equal(other Path) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ParsePath is the inverse of Render. Trailing bracketed integers on
// a key, as in `ports[1]`, become index segments. The empty string is
// the empty path.
func ParsePath(s, sep string) Path {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if sep == "" {
		sep = DefaultSeparator
	}
	var p Path
	for _, part := range strings.Split(s, sep) {
		key, indices := splitIndices(part)
		if key != "" || len(indices) == 0 {
			p = append(p, Key(key))
		}
		for _, i := range indices {
			p = append(p, Index(i))
		}
	}
	return p
}

func splitIndices(part string) (string, []int) {
	var indices []int
	for strings.HasSuffix(part, "]") {
		open := strings.LastIndex(part, "[")
		if open < 0 {
			break
		}
		i, err := strconv.Atoi(part[open+1 : len(part)-1])
		if err != nil || i < 0 {
			break
		}
		indices = append([]int{i}, indices...)
		part = part[:open]
	}
	return part, indices
}
