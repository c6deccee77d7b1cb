package git

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/fluxcd/promote/pkg/pattern"
)

// Export is a throwaway working clone of a repo, checked out at some
// ref. Several refs can be looked at in turn with Checkout.
type Export struct {
	dir    string
	remote Remote
}

func (e *Export) Dir() string {
	return e.dir
}

func (e *Export) Clean() error {
	if e.dir != "" {
		return os.RemoveAll(e.dir)
	}
	return nil
}

// NewExport clones the remote into a temporary directory and checks
// out the ref given. If anything fails, the directory is removed.
func NewExport(ctx context.Context, remote Remote, ref string) (*Export, error) {
	dir, err := ioutil.TempDir(os.TempDir(), "promote-working")
	if err != nil {
		return nil, err
	}
	if _, err := clone(ctx, dir, remote.URL); err != nil {
		os.RemoveAll(dir)
		return nil, CloningError(remote.SafeURL(), err)
	}
	e := &Export{dir: dir, remote: remote}
	if err := e.Checkout(ctx, ref); err != nil {
		e.Clean()
		return nil, err
	}
	return e, nil
}

// Checkout switches the working clone to ref. The ref may be a
// branch, tag or revision, or a `semver:` pattern, which selects the
// highest tag satisfying it.
func (e *Export) Checkout(ctx context.Context, ref string) error {
	resolved, err := e.Resolve(ctx, ref)
	if err != nil {
		return err
	}
	if err := checkout(ctx, e.dir, resolved); err != nil {
		return CheckoutError(e.remote.SafeURL(), ref, err)
	}
	return nil
}

// Resolve turns a `semver:` pattern into the tag it selects; any
// other ref is returned as is. Branch names are taken relative to
// origin, since the clone has no local branches of its own.
func (e *Export) Resolve(ctx context.Context, ref string) (string, error) {
	p, ok := pattern.New(ref).(pattern.SemverPattern)
	if !ok {
		if exists, _ := refExists(ctx, e.dir, "origin/"+ref); exists {
			return "origin/" + ref, nil
		}
		return ref, nil
	}
	if !p.Valid() {
		return "", CheckoutError(e.remote.SafeURL(), ref, errInvalidPattern)
	}
	list, err := tags(ctx, e.dir)
	if err != nil {
		return "", err
	}
	tag, ok := p.Latest(list)
	if !ok {
		return "", CheckoutError(e.remote.SafeURL(), ref, errNoMatchingTag)
	}
	return tag, nil
}

// Revision returns the commit the ref points at.
func (e *Export) Revision(ctx context.Context, ref string) (string, error) {
	return refRevision(ctx, e.dir, ref)
}

// ChangedFiles does a git diff listing changed files
func (e *Export) ChangedFiles(ctx context.Context, sinceRef string, paths []string) ([]string, error) {
	list, err := changed(ctx, e.Dir(), sinceRef, paths)
	if err == nil {
		for i, file := range list {
			list[i] = filepath.Join(e.Dir(), file)
		}
	}
	return list, err
}
