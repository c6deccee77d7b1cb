package changeset

import (
	"strings"

	"github.com/fluxcd/promote/pkg/tree"
)

// ValueIndent is the per-level indent of encoded values.
const ValueIndent = "    "

// EncodeValue renders a node as it is written to a release note.
func EncodeValue(n tree.Node) (string, error) {
	b, err := tree.EncodeJSON(n, ValueIndent)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeValue reads a value written by EncodeValue, or typed in by
// hand. Anything that doesn't decode as JSON is a string.
func DecodeValue(s string) tree.Node {
	if n, err := tree.DecodeJSON([]byte(strings.TrimSpace(s))); err == nil {
		return n
	}
	return s
}
