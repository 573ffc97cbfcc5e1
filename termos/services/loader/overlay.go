package loader

import (
	"os"
	"path/filepath"
	"sort"
	"unicode/utf8"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"webterm/termos/vfs"
)

// MaxOverlayFileBytes bounds a single overlaid file.
const MaxOverlayFileBytes = 512 * 1024

// Overlay copies the tree under dir on afs into fs at "/", so dir/etc/motd
// replaces /etc/motd. Symlinks, files over MaxOverlayFileBytes and files that
// are not UTF-8 text are skipped.
func Overlay(afs afero.Fs, dir string, fs *vfs.FS) error {
	dir = filepath.Clean(dir)
	st, err := afs.Stat(dir)
	if err != nil {
		return errors.WithMessagef(err, "stat overlay %q", dir)
	}
	if !st.IsDir() {
		return errors.Errorf("overlay %q is not a directory", dir)
	}

	var dirs, files []string
	walkErr := afero.Walk(afs, dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == dir || info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		vpath := "/" + filepath.ToSlash(rel)
		switch {
		case info.IsDir():
			dirs = append(dirs, vpath)
		case !info.Mode().IsRegular():
		case info.Size() > MaxOverlayFileBytes:
			log.WithFields(log.Fields{"path": path, "size": info.Size()}).Warn("skipping large overlay file")
		default:
			files = append(files, vpath)
		}
		return nil
	})
	if walkErr != nil {
		return errors.WithMessagef(walkErr, "walk overlay %q", dir)
	}

	sort.Strings(dirs)
	sort.Strings(files)

	for _, d := range dirs {
		if err := fs.CreateDirectory(d); err != nil {
			return err
		}
	}
	for _, f := range files {
		b, err := afero.ReadFile(afs, filepath.Join(dir, filepath.FromSlash(f)))
		if err != nil {
			return errors.WithMessagef(err, "read overlay %q", f)
		}
		if !utf8.Valid(b) {
			log.WithField("path", f).Warn("skipping binary overlay file")
			continue
		}
		if err := fs.WriteFile(f, string(b)); err != nil {
			return err
		}
	}
	return nil
}
