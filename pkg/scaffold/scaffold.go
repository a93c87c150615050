package scaffold

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/olimci/bijou/pkg/utils/fileutils"
)

var ErrExists = errors.New("file already exists")

// Scaffold is a starter site stored under Base in FS.
type Scaffold struct {
	FS   fs.FS
	Base string
}

func New(fsys fs.FS, base string) *Scaffold {
	return &Scaffold{FS: fsys, Base: base}
}

// BuildResult contains information about what was created.
type BuildResult struct {
	FilesCreated []string
	DirsCreated  []string
}

type entry struct {
	src, dest string
	dir       bool
	template  bool
}

// Build writes the scaffold into targetPath. Without WithForce nothing is
// written when any destination file already exists.
func (s *Scaffold) Build(ctx context.Context, targetPath string, opts ...Option) (*BuildResult, error) {
	o := defaultOptions().apply(opts...)

	entries, err := s.plan(o)
	if err != nil {
		return nil, err
	}

	if !o.force {
		var conflicts []string
		for _, e := range entries {
			if e.dir {
				continue
			}
			if _, err := os.Stat(filepath.Join(targetPath, e.dest)); err == nil {
				conflicts = append(conflicts, e.dest)
			}
		}
		if len(conflicts) > 0 {
			return nil, fmt.Errorf("%w: %s (use force to overwrite)", ErrExists, strings.Join(conflicts, ", "))
		}
	}

	if err := os.MkdirAll(targetPath, 0o755); err != nil {
		return nil, fmt.Errorf("creating target directory: %w", err)
	}

	result := &BuildResult{
		FilesCreated: make([]string, 0, len(entries)),
		DirsCreated:  make([]string, 0),
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		destPath := filepath.Join(targetPath, e.dest)
		if e.dir {
			if err := os.MkdirAll(destPath, 0o755); err != nil {
				return result, fmt.Errorf("creating directory %s: %w", e.dest, err)
			}
			result.DirsCreated = append(result.DirsCreated, e.dest)
			continue
		}

		if err := s.write(e, destPath, o.variables); err != nil {
			return result, err
		}
		result.FilesCreated = append(result.FilesCreated, e.dest)
	}

	return result, nil
}

func (s *Scaffold) plan(o *options) ([]entry, error) {
	var entries []entry

	err := fs.WalkDir(s.FS, s.Base, func(src string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(s.Base, src)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		if d.IsDir() {
			entries = append(entries, entry{src: src, dest: rel, dir: true})
			return nil
		}

		// placeholder keeping an otherwise empty directory in the embed
		if d.Name() == ".keep" {
			return nil
		}

		isTemplate := matchesGlobs(rel, o.templates)
		entries = append(entries, entry{
			src:      src,
			dest:     destinationPath(rel, isTemplate),
			template: isTemplate,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading scaffold: %w", err)
	}
	return entries, nil
}

func (s *Scaffold) write(e entry, destPath string, vars map[string]any) error {
	source, err := s.FS.Open(e.src)
	if err != nil {
		return fmt.Errorf("opening %s: %w", e.src, err)
	}
	defer source.Close()

	err = fileutils.AtomicWrite(destPath, func(w io.Writer) error {
		if e.template {
			return processTemplate(source, w, vars)
		}
		_, err := io.Copy(w, source)
		return err
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", e.dest, err)
	}
	return nil
}
