package storage

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Open resolves location into a store and the path of the file within it.
// "s3://bucket/dir/file" yields an [S3Store] for bucket and "dir/file";
// anything else is a local path served by [Filesystem].
func Open(location string, opts S3Options) (FileStore, string, error) {
	if !strings.HasPrefix(location, "s3://") {
		return Filesystem(), filepath.ToSlash(location), nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return nil, "", fmt.Errorf("storage: parse %q: %w", location, err)
	}
	if u.Host == "" {
		return nil, "", fmt.Errorf("storage: %q has no bucket", location)
	}
	key := strings.TrimPrefix(u.Path, "/")
	return NewS3(NewS3Client(opts), u.Host, ""), key, nil
}

// IsRemote reports whether location names an object store.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "s3://")
}
