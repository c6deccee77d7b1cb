package promote

import (
	"github.com/go-kit/kit/log"

	"github.com/fluxcd/promote/pkg/changeset"
	"github.com/fluxcd/promote/pkg/diff"
)

func orNop(logger log.Logger) log.Logger {
	if logger == nil {
		return log.NewNopLogger()
	}
	return logger
}

func identityKey(key string) string {
	if key == "" {
		return diff.DefaultIdentityKey
	}
	return key
}

func separator(sep string) string {
	if sep == "" {
		return changeset.DefaultSeparator
	}
	return sep
}
