// Package session materializes downloaded documents into per-session scratch directories.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/Winder2006/COBALT/internal/fetch"
	"github.com/Winder2006/COBALT/internal/keyword"
	"github.com/Winder2006/COBALT/internal/models"
	"github.com/Winder2006/COBALT/internal/siteid"
	"github.com/Winder2006/COBALT/internal/storage"
	"go.uber.org/zap"
)

// ErrInvalidSessionID is returned for ids that cannot name a directory.
var ErrInvalidSessionID = errors.New("invalid session id")

// ErrNotMaterialized is returned by Fetch when a document could not be downloaded.
var ErrNotMaterialized = errors.New("document not materialized")

// Downloader fetches one document. fetch.Client implements it.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (*fetch.Response, error)
}

// Session owns a scratch directory and the identity to path mapping of its documents.
// Calls on one session must not overlap.
type Session struct {
	id         string
	dir        string
	downloader Downloader
	logger     *zap.Logger

	mu    sync.Mutex
	paths map[string]string // document key -> local path
	index *keyword.BleveIndex
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Dir returns the scratch directory. It may not exist until the first Materialize.
func (s *Session) Dir() string { return s.dir }

// Materialize returns the local path of doc, downloading it on first use. A document is
// identified by its download URL. Failures are logged and reported as ok == false.
func (s *Session) Materialize(ctx context.Context, doc models.DocumentRef) (string, bool) {
	if doc.DownloadURL == "" {
		return "", false
	}
	key := siteid.DocumentKey(doc.DownloadURL)

	s.mu.Lock()
	if p, ok := s.paths[key]; ok {
		s.mu.Unlock()
		return p, true
	}
	s.mu.Unlock()

	resp, err := s.downloader.Download(ctx, doc.DownloadURL)
	if err != nil {
		s.logger.Info("document download failed", zap.String("session", s.id), zap.String("url", doc.DownloadURL), zap.Error(err))
		return "", false
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		s.logger.Warn("create session dir", zap.String("dir", s.dir), zap.Error(err))
		return "", false
	}
	path := uniquePath(s.dir, siteid.SafeFilename(filenameFor(resp, doc), "document.pdf"))
	if err := os.WriteFile(path, resp.Body, 0o644); err != nil {
		s.logger.Warn("write document", zap.String("path", path), zap.Error(err))
		return "", false
	}

	s.mu.Lock()
	s.paths[key] = path
	s.mu.Unlock()
	s.logger.Debug("document materialized", zap.String("session", s.id), zap.String("path", path), zap.Int("bytes", len(resp.Body)))
	return path, true
}

// Fetch lets a session back an extractor: the document is materialized and read from disk.
func (s *Session) Fetch(ctx context.Context, doc models.DocumentRef) ([]byte, error) {
	path, ok := s.Materialize(ctx, doc)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotMaterialized, doc.DownloadURL)
	}
	return os.ReadFile(path)
}

// Paths returns a copy of the identity to path mapping.
func (s *Session) Paths() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.paths))
	for k, v := range s.paths {
		out[k] = v
	}
	return out
}

// DiskUsage returns the bytes held in the scratch directory.
func (s *Session) DiskUsage() (int64, error) {
	return storage.DiskUsageBytes(s.dir)
}

// Index returns the session's search index, creating it on first use.
func (s *Session) Index() (*keyword.BleveIndex, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index != nil {
		return s.index, nil
	}
	idx, err := keyword.NewMemIndex()
	if err != nil {
		return nil, err
	}
	s.index = idx
	return idx, nil
}

// IndexedCount returns how many documents the session index holds. A session that has
// not indexed anything reports zero without creating an index.
func (s *Session) IndexedCount() (uint64, error) {
	s.mu.Lock()
	idx := s.index
	s.mu.Unlock()
	if idx == nil {
		return 0, nil
	}
	return idx.DocCount()
}

// Cleanup removes the scratch directory and forgets every materialized document and
// indexed text. Cleaning an already clean session is not an error.
func (s *Session) Cleanup() error {
	s.mu.Lock()
	s.paths = make(map[string]string)
	idx := s.index
	s.index = nil
	s.mu.Unlock()

	if idx != nil {
		_ = idx.Close()
	}
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// filenameFor prefers the server-provided name, then the document name with a .pdf suffix.
func filenameFor(resp *fetch.Response, doc models.DocumentRef) string {
	if resp.Filename != "" {
		return resp.Filename
	}
	name := doc.Name
	if name == "" {
		name = "document"
		if doc.DocSeqNo != "" {
			name += "_" + doc.DocSeqNo
		}
	}
	if filepath.Ext(name) == "" {
		name += ".pdf"
	}
	return name
}

// uniquePath appends _1, _2, ... before the extension until the name is free.
func uniquePath(dir, name string) string {
	p := filepath.Join(dir, name)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		return p
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		p = filepath.Join(dir, stem+"_"+strconv.Itoa(i)+ext)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return p
		}
	}
}
