package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencaption/subedit/internal/config"
	"github.com/opencaption/subedit/internal/subtitle"
	"github.com/opencaption/subedit/internal/tabs"
)

type fakeReader struct {
	files map[string][]subtitle.Entry
}

func (r *fakeReader) Read(path string) (*subtitle.File, error) {
	entries, ok := r.files[path]
	if !ok {
		return nil, fmt.Errorf("open %s: no such file", path)
	}
	return &subtitle.File{
		Name:    filepath.Base(path),
		Path:    path,
		Entries: entries,
		Format:  "SRT",
	}, nil
}

type fakeWriter struct {
	mu     sync.Mutex
	writes map[string][]subtitle.Entry
}

func (w *fakeWriter) Write(path string, entries []subtitle.Entry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.writes == nil {
		w.writes = make(map[string][]subtitle.Entry)
	}
	w.writes[path] = entries
	return nil
}

func sampleEntries() []subtitle.Entry {
	return []subtitle.Entry{
		{
			ID:        1,
			StartTime: subtitle.TimeCodeFromMillis(0),
			EndTime:   subtitle.TimeCodeFromMillis(2000),
			Text:      "first line",
		},
		{
			ID:        2,
			StartTime: subtitle.TimeCodeFromMillis(3000),
			EndTime:   subtitle.TimeCodeFromMillis(5000),
			Text:      "second line",
		},
	}
}

func newTestServer(t *testing.T, opts ...Option) (*Server, *fakeWriter) {
	t.Helper()
	reader := &fakeReader{files: map[string][]subtitle.Entry{
		"/movies/a.srt": sampleEntries(),
		"/movies/b.srt": sampleEntries(),
	}}
	writer := &fakeWriter{}
	server := NewServer(tabs.NewRegistry(), reader, writer, opts...)
	return server, writer
}

func doJSON(t *testing.T, server *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(payload)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, target, reqBody)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_OpenTabAndDeduplicate(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Created bool `json:"created"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Created)

	rec = doJSON(t, server, http.MethodGet, "/api/tabs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var tabList []tabs.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tabList))
	assert.Len(t, tabList, 1)
}

func TestServer_OpenTabMissingFile(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/missing.srt"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestServer_EditTextThenUndo(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	rec := doJSON(t, server, http.MethodPut, "/api/entries/text", updateTextRequest{ID: 1, Text: "edited"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/entries", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state struct {
		Entries []subtitle.Entry `json:"entries"`
		CanUndo bool             `json:"canUndo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.Len(t, state.Entries, 2)
	assert.Equal(t, "edited", state.Entries[0].Text)
	assert.True(t, state.CanUndo)

	rec = doJSON(t, server, http.MethodPost, "/api/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var undoResp struct {
		Undone  bool `json:"undone"`
		CanRedo bool `json:"canRedo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &undoResp))
	assert.True(t, undoResp.Undone)
	assert.True(t, undoResp.CanRedo)
}

func TestServer_SplitRejectsOutOfRangePoint(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	rec := doJSON(t, server, http.MethodPost, "/api/entries/split", splitEntryRequest{ID: 1, SplitTimeMs: 2000})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/entries/split", splitEntryRequest{ID: 1, SplitTimeMs: 1000})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_SaveTabWritesFileAndClearsDirty(t *testing.T) {
	server, writer := newTestServer(t)
	rec := doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp struct {
		Tab tabs.Snapshot `json:"tab"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))

	require.Equal(t, http.StatusOK,
		doJSON(t, server, http.MethodPut, "/api/entries/text", updateTextRequest{ID: 1, Text: "edited"}).Code)

	rec = doJSON(t, server, http.MethodPost, fmt.Sprintf("/api/tabs/%d/save", createResp.Tab.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	written, ok := writer.writes["/movies/a.srt"]
	require.True(t, ok)
	assert.Equal(t, "edited", written[0].Text)

	rec = doJSON(t, server, http.MethodGet, "/api/tabs", nil)
	var tabList []tabs.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tabList))
	require.Len(t, tabList, 1)
	assert.False(t, tabList[0].Dirty)
}

// hookedWriter runs a callback on its first write, before delegating.
type hookedWriter struct {
	inner *fakeWriter
	hook  func()
	once  sync.Once
}

func (w *hookedWriter) Write(path string, entries []subtitle.Entry) error {
	w.once.Do(w.hook)
	return w.inner.Write(path, entries)
}

func TestServer_SaveTabEditDuringWriteStaysDirty(t *testing.T) {
	registry := tabs.NewRegistry()
	reader := &fakeReader{files: map[string][]subtitle.Entry{
		"/movies/a.srt": sampleEntries(),
	}}
	writer := &fakeWriter{}
	hooked := &hookedWriter{inner: writer, hook: func() {
		registry.UpdateText(1, "edited during write")
	}}
	server := NewServer(registry, reader, hooked)

	rec := doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp struct {
		Tab tabs.Snapshot `json:"tab"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))

	require.Equal(t, http.StatusOK,
		doJSON(t, server, http.MethodPut, "/api/entries/text", updateTextRequest{ID: 1, Text: "first edit"}).Code)

	// The save wrote the pre-edit snapshot, so the tab must stay dirty.
	saveURL := fmt.Sprintf("/api/tabs/%d/save", createResp.Tab.ID)
	require.Equal(t, http.StatusOK, doJSON(t, server, http.MethodPost, saveURL, nil).Code)
	assert.Equal(t, "first edit", writer.writes["/movies/a.srt"][0].Text)

	rec = doJSON(t, server, http.MethodGet, "/api/tabs", nil)
	var tabList []tabs.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tabList))
	require.Len(t, tabList, 1)
	assert.True(t, tabList[0].Dirty)

	// Saving again persists the late edit and the tab goes clean.
	require.Equal(t, http.StatusOK, doJSON(t, server, http.MethodPost, saveURL, nil).Code)
	assert.Equal(t, "edited during write", writer.writes["/movies/a.srt"][0].Text)

	rec = doJSON(t, server, http.MethodGet, "/api/tabs", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tabList))
	assert.False(t, tabList[0].Dirty)
}

func TestServer_CloseTabReportsNewActive(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	rec := doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/b.srt"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var createResp struct {
		Tab tabs.Snapshot `json:"tab"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createResp))

	rec = doJSON(t, server, http.MethodDelete, fmt.Sprintf("/api/tabs/%d", createResp.Tab.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var closeResp struct {
		Empty bool `json:"empty"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &closeResp))
	assert.False(t, closeResp.Empty)
}

func TestServer_TransformUnknownName(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	rec := doJSON(t, server, http.MethodPost, "/api/entries/transform", transformRequest{Name: "reverse_text"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/entries/transform", transformRequest{Name: "to_upper_case"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_DragGestureUndoesAsOneStep(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	require.Equal(t, http.StatusOK,
		doJSON(t, server, http.MethodPost, "/api/entries/drag/start", dragStartRequest{IDs: []int{1}}).Code)
	for _, ms := range []int{100, 200, 300} {
		start := ms
		require.Equal(t, http.StatusOK,
			doJSON(t, server, http.MethodPut, "/api/entries/time", updateTimeRequest{ID: 1, StartMs: &start}).Code)
	}
	require.Equal(t, http.StatusOK,
		doJSON(t, server, http.MethodPost, "/api/entries/drag/end", nil).Code)

	rec := doJSON(t, server, http.MethodPost, "/api/undo", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/entries", nil)
	var state struct {
		Entries []subtitle.Entry `json:"entries"`
		CanUndo bool             `json:"canUndo"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	assert.Equal(t, 0, state.Entries[0].StartTime.Millis())
	assert.False(t, state.CanUndo)
}

func TestServer_CorrectionsNotConfigured(t *testing.T) {
	server, _ := newTestServer(t)

	rec := doJSON(t, server, http.MethodGet, "/api/corrections", nil)
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestServer_SearchStepsThroughResults(t *testing.T) {
	server, _ := newTestServer(t)
	require.Equal(t, http.StatusCreated,
		doJSON(t, server, http.MethodPost, "/api/tabs", openTabRequest{Path: "/movies/a.srt"}).Code)

	rec := doJSON(t, server, http.MethodGet, "/api/search?q=line", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var searchResp struct {
		IDs []int `json:"ids"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &searchResp))
	assert.Equal(t, []int{1, 2}, searchResp.IDs)

	rec = doJSON(t, server, http.MethodGet, "/api/search?step=next", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var stepResp struct {
		ID    int  `json:"id"`
		Found bool `json:"found"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stepResp))
	assert.True(t, stepResp.Found)
	assert.Equal(t, 1, stepResp.ID)
}

func TestServer_SettingsRoundTrip(t *testing.T) {
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	initial := config.RuntimeSettings{
		AutosaveCronExpr: "@every 2m",
		EntryDurationMs:  3000,
	}
	store, err := config.NewRuntimeSettingsStore(settingsPath, initial)
	require.NoError(t, err)

	server, _ := newTestServer(t, WithRuntimeSettingsStore(store))

	rec := doJSON(t, server, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	next := initial
	next.EntryDurationMs = 4000
	rec = doJSON(t, server, http.MethodPut, "/api/settings", next)
	require.Equal(t, http.StatusOK, rec.Code)

	current, err := store.GetRuntimeSettings()
	require.NoError(t, err)
	assert.Equal(t, 4000, current.EntryDurationMs)
}

func TestServer_ServesSPAFromStaticDir(t *testing.T) {
	tmp := t.TempDir()
	staticDir := filepath.Join(tmp, "web")
	require.NoError(t, os.MkdirAll(staticDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>spa</html>"), 0o644))

	server, _ := newTestServer(t, WithUI(staticDir, true))

	for _, url := range []string{"/", "/editor/abc"} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		rec := httptest.NewRecorder()

		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "spa")
	}
}
