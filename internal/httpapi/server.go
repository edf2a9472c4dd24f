package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencaption/subedit/internal/config"
	"github.com/opencaption/subedit/internal/correction"
	"github.com/opencaption/subedit/internal/session"
	"github.com/opencaption/subedit/internal/subtitle"
	"github.com/opencaption/subedit/internal/tabs"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type recentFilesStore interface {
	TouchRecentFile(ctx context.Context, file session.RecentFile) error
	RecentFiles(ctx context.Context, limit int) ([]session.RecentFile, error)
}

type correctionQueue interface {
	Enqueue(req correction.Request) (*correction.Job, bool)
	List() []*correction.Job
}

// Server exposes the edit engine to an embedding UI over HTTP.
type Server struct {
	registry *tabs.Registry
	reader   subtitle.Reader
	writer   subtitle.Writer

	corrections correctionQueue
	recents     recentFilesStore
	settings    runtimeSettingsStore
	apply       runtimeSettingsApplier

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithCorrectionQueue(queue correctionQueue) Option {
	return func(s *Server) {
		s.corrections = queue
	}
}

func WithRecentFilesStore(store recentFilesStore) Option {
	return func(s *Server) {
		s.recents = store
	}
}

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

func NewServer(registry *tabs.Registry, reader subtitle.Reader, writer subtitle.Writer, opts ...Option) *Server {
	s := &Server{
		registry:  registry,
		reader:    reader,
		writer:    writer,
		uiEnabled: false,
		mux:       http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/tabs", s.handleTabs)
	s.mux.HandleFunc("/api/tabs/stream", s.handleTabStream)
	s.mux.HandleFunc("/api/tabs/", s.handleTabByID)
	s.mux.HandleFunc("/api/entries", s.handleEntries)
	s.mux.HandleFunc("/api/entries/text", s.handleEntryText)
	s.mux.HandleFunc("/api/entries/time", s.handleEntryTime)
	s.mux.HandleFunc("/api/entries/add", s.handleEntryAdd)
	s.mux.HandleFunc("/api/entries/delete", s.handleEntryDelete)
	s.mux.HandleFunc("/api/entries/split", s.handleEntrySplit)
	s.mux.HandleFunc("/api/entries/merge", s.handleEntryMerge)
	s.mux.HandleFunc("/api/entries/drag/start", s.handleDragStart)
	s.mux.HandleFunc("/api/entries/drag/end", s.handleDragEnd)
	s.mux.HandleFunc("/api/entries/transform", s.handleTransform)
	s.mux.HandleFunc("/api/undo", s.handleUndo)
	s.mux.HandleFunc("/api/redo", s.handleRedo)
	s.mux.HandleFunc("/api/search", s.handleSearch)
	s.mux.HandleFunc("/api/corrections", s.handleCorrections)
	s.mux.HandleFunc("/api/corrections/apply", s.handleCorrectionApply)
	s.mux.HandleFunc("/api/corrections/dismiss", s.handleCorrectionDismiss)
	s.mux.HandleFunc("/api/export", s.handleExport)
	s.mux.HandleFunc("/api/recent", s.handleRecentFiles)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// SPA fallback: non-existing static file path returns index
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
