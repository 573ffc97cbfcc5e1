//go:build linux

package vfsmount

import (
	"context"
	"os"
	"syscall"
	"testing"

	"bazil.org/fuse"
	"github.com/stretchr/testify/require"

	"webterm/termos/vfs"
)

func TestNodesMirrorVFS(t *testing.T) {
	src := vfs.NewStandard()
	require.NoError(t, src.WriteFile("/home/user/about.txt", "hello\n"))
	ctx := context.Background()

	root, err := New(src).Root()
	require.NoError(t, err)
	dir := root.(*Dir)

	var a fuse.Attr
	require.NoError(t, dir.Attr(ctx, &a))
	require.True(t, a.Mode.IsDir())

	ents, err := dir.ReadDirAll(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		require.Equal(t, fuse.DT_Dir, e.Type)
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"bin", "etc", "home", "root", "tmp", "var"}, names)

	home, err := dir.Lookup(ctx, "home")
	require.NoError(t, err)
	user, err := home.(*Dir).Lookup(ctx, "user")
	require.NoError(t, err)

	node, err := user.(*Dir).Lookup(ctx, "about.txt")
	require.NoError(t, err)
	file := node.(*File)

	a = fuse.Attr{}
	require.NoError(t, file.Attr(ctx, &a))
	require.Equal(t, uint64(6), a.Size)
	require.Equal(t, os.FileMode(0o444), a.Mode)

	b, err := file.ReadAll(ctx)
	require.NoError(t, err)
	require.Equal(t, "hello\n", string(b))

	_, err = user.(*Dir).Lookup(ctx, "missing")
	require.ErrorIs(t, err, syscall.ENOENT)
}
