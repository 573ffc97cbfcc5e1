//go:build linux

// Package vfsmount exports a termos VFS as a read-only FUSE filesystem.
package vfsmount

import (
	"context"
	"os"
	"syscall"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"webterm/termos/vfs"
)

// FS adapts a *vfs.FS to bazil.org/fuse.
type FS struct {
	src      *vfs.FS
	uid, gid uint32
}

var _ fusefs.FS = (*FS)(nil)

func New(src *vfs.FS) *FS {
	return &FS{src: src, uid: uint32(os.Getuid()), gid: uint32(os.Getgid())}
}

func (f *FS) Root() (fusefs.Node, error) {
	return &Dir{fs: f, path: "/"}, nil
}

// Dir is a directory node.
type Dir struct {
	fs   *FS
	path string
}

var (
	_ fusefs.NodeStringLookuper = (*Dir)(nil)
	_ fusefs.HandleReadDirAller = (*Dir)(nil)
)

func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	info, ok := d.fs.src.Stat(d.path)
	if !ok {
		return syscall.ENOENT
	}
	a.Mode = os.ModeDir | 0o555
	a.Mtime = info.ModTime
	a.Uid = d.fs.uid
	a.Gid = d.fs.gid
	return nil
}

func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	p := vfs.Clean(d.path + "/" + name)
	info, ok := d.fs.src.Stat(p)
	if !ok {
		return nil, syscall.ENOENT
	}
	if info.IsDir() {
		return &Dir{fs: d.fs, path: p}, nil
	}
	return &File{fs: d.fs, path: p}, nil
}

func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	entries, ok := d.fs.src.List(d.path)
	if !ok {
		return nil, syscall.ENOENT
	}
	out := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		de := fuse.Dirent{Name: e.Name, Type: fuse.DT_File}
		if e.Type == vfs.TypeDir {
			de.Type = fuse.DT_Dir
		}
		out = append(out, de)
	}
	return out, nil
}

// File is a regular file node. Content is read whole on open.
type File struct {
	fs   *FS
	path string
}

var _ fusefs.HandleReadAller = (*File)(nil)

func (f *File) Attr(_ context.Context, a *fuse.Attr) error {
	info, ok := f.fs.src.Stat(f.path)
	if !ok {
		return syscall.ENOENT
	}
	a.Mode = 0o444
	a.Size = uint64(info.Size)
	a.Mtime = info.ModTime
	a.Uid = f.fs.uid
	a.Gid = f.fs.gid
	return nil
}

func (f *File) ReadAll(_ context.Context) ([]byte, error) {
	content, ok := f.fs.src.ReadFile(f.path)
	if !ok {
		return nil, syscall.ENOENT
	}
	return []byte(content), nil
}

// Mount serves src read-only at mountpoint until ctx is done.
func Mount(ctx context.Context, src *vfs.FS, mountpoint string) error {
	c, err := fuse.Mount(mountpoint,
		fuse.FSName("termos"),
		fuse.Subtype("termosfs"),
		fuse.ReadOnly(),
	)
	if err != nil {
		return errors.WithMessage(err, "mount")
	}
	defer c.Close()

	go func() {
		<-ctx.Done()
		if err := fuse.Unmount(mountpoint); err != nil {
			log.WithError(err).Warn("unmount failed")
		}
	}()

	log.WithField("mountpoint", mountpoint).Info("serving vfs")
	if err := fusefs.Serve(c, New(src)); err != nil {
		return errors.WithMessage(err, "serve")
	}
	return ctx.Err()
}
