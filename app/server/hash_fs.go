package server

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"log/slog"
	"net/http"
)

// HashFS serves embedded static assets. Asset URLs carry a content hash,
// and requests with the current hash may be cached forever.
type HashFS struct {
	serv   http.Handler
	hashes map[string]string
}

func NewHashFS(fsys fs.FS) (*HashFS, error) {
	h := &HashFS{
		serv:   http.FileServer(http.FS(fsys)),
		hashes: map[string]string{},
	}
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		h.hashes[path] = hex.EncodeToString(sum[:8])
		slog.Debug("computed static asset hash", "path", path, "hash", h.hashes[path])
		return nil
	})
	return h, err
}

func (h *HashFS) GetHash(path string) string {
	return h.hashes[path]
}

// FormatWithHash appends the content hash of path as a query parameter.
func (h *HashFS) FormatWithHash(path string) string {
	if hash := h.GetHash(path); hash != "" {
		return path + "?hash=" + hash
	}
	return path
}

func (h *HashFS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	hash := h.GetHash(r.URL.Path)
	if hash != "" {
		w.Header().Set("ETag", `"`+hash+`"`)
		if r.URL.Query().Get("hash") == hash {
			w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		}
	}
	h.serv.ServeHTTP(w, r)
}
