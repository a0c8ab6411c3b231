package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultDirName is the directory under the system temp dir holding all sessions.
const DefaultDirName = "brrts_documents"

// Registry maps session ids to sessions. Sessions live until Cleanup; there is no expiry.
type Registry struct {
	root       string
	downloader Downloader
	logger     *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithLogger sets a logger for sessions created by the registry.
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = l }
}

// NewRegistry returns a registry rooted at root (empty means <tmp>/brrts_documents).
func NewRegistry(root string, d Downloader, opts ...RegistryOption) *Registry {
	if root == "" {
		root = filepath.Join(os.TempDir(), DefaultDirName)
	}
	r := &Registry{
		root:       root,
		downloader: d,
		logger:     zap.NewNop(),
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the directory containing all session directories.
func (r *Registry) Root() string { return r.root }

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// ValidateID rejects ids that are empty, contain path separators or are dot names.
func ValidateID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.ContainsRune(id, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

// GetOrCreate returns the session for id, creating it on first use.
func (r *Registry) GetOrCreate(id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[id]; ok {
		return s, nil
	}
	s := &Session{
		id:         id,
		dir:        filepath.Join(r.root, id),
		downloader: r.downloader,
		logger:     r.logger,
		paths:      make(map[string]string),
	}
	r.sessions[id] = s
	r.logger.Debug("session created", zap.String("session", id), zap.String("dir", s.dir))
	return s, nil
}

// Get returns the session for id if it exists.
func (r *Registry) Get(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Cleanup removes the session's scratch data and forgets the session. Unknown ids are
// cleaned on disk too, so a directory left by an earlier process is removed.
func (r *Registry) Cleanup(id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()

	if ok {
		return s.Cleanup()
	}
	if err := os.RemoveAll(filepath.Join(r.root, id)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	return nil
}

// IDs returns the registered session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// CleanupAll removes every registered session. The first error is returned.
func (r *Registry) CleanupAll() error {
	var first error
	for _, id := range r.IDs() {
		if err := r.Cleanup(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}
