package git

import (
	"errors"

	promoteerrors "github.com/fluxcd/promote/pkg/errors"
)

var (
	errInvalidPattern = errors.New("invalid semver pattern")
	errNoMatchingTag  = errors.New("no tag matches the pattern")
)

func CloningError(url string, actual error) error {
	return &promoteerrors.Error{
		Type: promoteerrors.IO,
		Err:  actual,
		Help: `Could not clone the git repository

There was a problem cloning your git repository,

    ` + url + `

This may be because the credentials (SSH key or token) are not
available to git, or because the repository has been moved, deleted,
or never existed. git is run non-interactively, so it cannot prompt
for a password.
`,
	}
}

func CheckoutError(url, ref string, actual error) error {
	return &promoteerrors.Error{
		Type: promoteerrors.IO,
		Err:  actual,
		Help: `Could not check out "` + ref + `" from

    ` + url + `

Check that the branch, tag or revision exists. A ref starting with
"semver:" selects the highest tag that satisfies the version
constraint that follows it.
`,
	}
}
