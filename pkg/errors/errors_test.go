package errors

import (
	"io"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestTypeOf_FollowsCauses(t *testing.T) {
	for _, tt := range []struct {
		name string
		err  error
		typ  Type
	}{
		{"parse", ParseError("svc.yaml", io.ErrUnexpectedEOF), Parse},
		{"validation", ValidationError("row %d: no value", 3), Validation},
		{"not found", PathNotFoundError("svc", "a//b"), NotFound},
		{"duplicate", DuplicateKeyError("svc", "a"), Duplicate},
		{"io", IOError(io.EOF, "reading %s", "notes.xlsx"), IO},
		{"wrapped", errors.Wrap(PathNotFoundError("svc", "x"), "applying"), NotFound},
		{"plain", io.EOF, ""},
		{"nil", nil, ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.typ, TypeOf(tt.err))
		})
	}
}

func TestPredicates(t *testing.T) {
	err := errors.Wrap(DuplicateKeyError("svc", "env"), "record 4")
	assert.True(t, IsDuplicate(err))
	assert.False(t, IsNotFound(err))
	assert.True(t, IsIO(IOError(io.EOF, "x")))
	assert.True(t, IsParse(ParseError("a.json", io.EOF)))
	assert.True(t, IsValidation(ValidationError("bad")))
}

func TestError_Messages(t *testing.T) {
	err := ParseError("svc.yaml", io.ErrUnexpectedEOF)
	assert.Equal(t, "parsing svc.yaml: unexpected EOF", err.Error())
	assert.Contains(t, err.Help, "svc.yaml")
	assert.Equal(t, io.ErrUnexpectedEOF, errors.Cause(err))
}
