//go:build !linux

// Package vfsmount exports a termos VFS as a read-only FUSE filesystem.
package vfsmount

import (
	"context"

	"webterm/hal"
	"webterm/termos/vfs"
)

// Mount is only available on Linux.
func Mount(context.Context, *vfs.FS, string) error {
	return hal.ErrNotImplemented
}
