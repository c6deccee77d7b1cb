package main

import (
	"errors"
	"fmt"

	promoteerrors "github.com/fluxcd/promote/pkg/errors"
)

type usageError struct {
	error
}

func newUsageError(msg string) usageError {
	return usageError{error: errors.New(msg)}
}

func checkExactlyOne(optsDescription string, supplied ...bool) error {
	found := false
	for _, s := range supplied {
		if found && s {
			return newUsageError("please supply only one of " + optsDescription)
		}
		found = found || s
	}

	if !found {
		return newUsageError("please supply exactly one of " + optsDescription)
	}

	return nil
}

// helpful returns the explanation carried by err, if it has one.
func helpful(err error) string {
	if e, ok := err.(*promoteerrors.Error); ok && e.Help != "" {
		return e.Help
	}
	return ""
}

func wantArgs(n int, args []string, what string) error {
	if len(args) != n {
		return newUsageError(fmt.Sprintf("expected %d argument(s): %s", n, what))
	}
	return nil
}

var errorWantedNoArgs = newUsageError("expected no (non-flag) arguments")
