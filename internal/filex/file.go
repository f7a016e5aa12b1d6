// Package filex places uploads on disk. Allocator partitions them by calendar
// day and owner so that no separate index is needed to find or expire them.
package filex

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/sentivault/internal/common"
)

const dateLayout = "20060102"

// Location is an allocated storage directory.
type Location struct {
	// Dir is the directory on local disk, Base joined with Prefix. It is
	// absolute only when Base is.
	Dir string
	// Prefix is Dir relative to the allocator base, slash separated
	// ("20250102/alice"). Storage keys are built from it.
	Prefix string
}

// Key returns the storage key of name inside the location.
func (l Location) Key(name string) string {
	return path.Join(l.Prefix, name)
}

// Path returns the local path of name inside the location.
func (l Location) Path(name string) string {
	return filepath.Join(l.Dir, name)
}

// Allocator derives <base>/<YYYYMMDD>/<owner> directories.
type Allocator struct {
	Base string
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewAllocator returns an Allocator rooted at base.
func NewAllocator(base string) *Allocator {
	return &Allocator{Base: base, Now: time.Now}
}

// Allocate resolves and creates the directory for owner on the current day.
// Creating an existing directory is not an error.
func (a *Allocator) Allocate(owner string) (Location, error) {
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}

	prefix := path.Join(now().Format(dateLayout), SanitizeOwner(owner))
	dir := filepath.Join(a.Base, filepath.FromSlash(prefix))

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return Location{}, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return Location{Dir: dir, Prefix: prefix}, nil
}

// SanitizeOwner maps an owner identifier to a single safe path segment.
// Empty owners become common.UnknownOwner.
func SanitizeOwner(owner string) string {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return common.UnknownOwner
	}

	owner = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, owner)

	if owner == "." || owner == ".." {
		return strings.Repeat("_", len(owner))
	}
	return owner
}

// EnsureSubdDir creates dirName under the working directory and returns its
// absolute path.
func EnsureSubdDir(dirName string) (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getwd: %w", err)
	}

	dir := filepath.Join(cwd, dirName)

	if err := os.MkdirAll(dir, 0o770); err != nil {
		return "", fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return dir, nil
}
