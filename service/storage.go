package service

import (
	"context"
	"io"
	"os"
	"path"
	"sync"

	"taskboard/config"
	"taskboard/logutils"

	"github.com/google/uuid"
	"golang.org/x/net/webdav"
)

var (
	blobOnce sync.Once
	blobfs   webdav.FileSystem
)

// blobFS is the attachment blob store rooted at the configured
// storage directory.
func blobFS() webdav.FileSystem {
	blobOnce.Do(func() {
		root := config.GetConfig().Storage.Root
		if err := os.MkdirAll(root, 0o755); err != nil {
			logutils.Log.Fatalf("create storage root %s: %v", root, err)
		}
		blobfs = webdav.Dir(root)
	})
	return blobfs
}

// storedName generates a collision-resistant on-disk filename,
// preserving the original extension for content-type sniffing.
func storedName(originalFilename string) string {
	return uuid.NewString() + path.Ext(originalFilename)
}

// saveBlob writes the upload under the given name and returns the
// number of bytes written.
func saveBlob(ctx context.Context, fsys webdav.FileSystem, name string, src io.Reader) (int64, error) {
	dst, err := fsys.OpenFile(ctx, name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, err
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		// Half-written blobs are garbage, remove eagerly.
		if rerr := fsys.RemoveAll(ctx, name); rerr != nil {
			logutils.Log.Error(rerr)
		}
		return 0, err
	}
	return written, nil
}

// removeBlob deletes the stored file backing an attachment record.
func removeBlob(ctx context.Context, fsys webdav.FileSystem, name string) error {
	if _, err := fsys.Stat(ctx, name); os.IsNotExist(err) {
		return nil
	}
	return fsys.RemoveAll(ctx, name)
}
