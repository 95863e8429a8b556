package resource

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	beanerrors "github.com/xraph/beans/errors"
)

// FileLocator opens files from the local filesystem. Relative paths are
// tried against each root in order.
type FileLocator struct {
	roots []string
}

// NewFileLocator creates a file locator. With no roots the working
// directory is used.
func NewFileLocator(roots ...string) *FileLocator {
	if len(roots) == 0 {
		roots = []string{"."}
	}
	return &FileLocator{roots: roots}
}

// Open opens descriptor, stripping a "file:" prefix.
func (l *FileLocator) Open(_ context.Context, descriptor string) (io.ReadCloser, error) {
	name := descriptor
	if scheme, rest := Scheme(descriptor); scheme == "file" {
		name = rest
	}
	if name == "" {
		return nil, beanerrors.ErrResourceNotFound(descriptor, errors.New("empty path"))
	}

	if filepath.IsAbs(name) {
		f, err := os.Open(name)
		if err != nil {
			return nil, beanerrors.ErrResourceNotFound(descriptor, err)
		}
		return f, nil
	}

	var lastErr error
	for _, root := range l.roots {
		f, err := os.Open(filepath.Join(root, name))
		if err == nil {
			return f, nil
		}
		lastErr = err
		if !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	return nil, beanerrors.ErrResourceNotFound(descriptor, lastErr)
}

// FSLocator opens resources from an fs.FS, such as an embed.FS bundled
// with the binary. A "classpath:" prefix is accepted.
type FSLocator struct {
	fsys fs.FS
}

// NewFSLocator creates a locator over fsys.
func NewFSLocator(fsys fs.FS) *FSLocator {
	return &FSLocator{fsys: fsys}
}

// Open opens descriptor inside the filesystem.
func (l *FSLocator) Open(_ context.Context, descriptor string) (io.ReadCloser, error) {
	name := descriptor
	if scheme, rest := Scheme(descriptor); scheme == "classpath" {
		name = rest
	}
	name = path.Clean(strings.TrimPrefix(name, "/"))

	f, err := l.fsys.Open(name)
	if err != nil {
		return nil, beanerrors.ErrResourceNotFound(descriptor, err)
	}
	return f, nil
}
