package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opencaption/subedit/internal/config"
	"github.com/opencaption/subedit/internal/correction"
	"github.com/opencaption/subedit/internal/session"
	"github.com/opencaption/subedit/internal/subtitle"
)

type openTabRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleTabs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.registry.Tabs())
	case http.MethodPost:
		var req openTabRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.Path == "" {
			writeError(w, http.StatusBadRequest, "path is required")
			return
		}

		file, err := s.reader.Read(req.Path)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}

		snapshot, created := s.registry.CreateTab(req.Path, file.Entries)
		if s.recents != nil {
			_ = s.recents.TouchRecentFile(r.Context(), session.RecentFile{
				Path:       req.Path,
				Name:       filepath.Base(req.Path),
				EntryCount: len(file.Entries),
			})
		}

		code := http.StatusCreated
		if !created {
			code = http.StatusOK
		}
		writeJSON(w, code, map[string]any{
			"created": created,
			"tab":     snapshot,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleTabByID dispatches /api/tabs/{id} and its sub-resources.
func (s *Server) handleTabByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/tabs/")
	idPart, action, _ := strings.Cut(rest, "/")
	id, err := strconv.Atoi(idPart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid tab id")
		return
	}

	switch {
	case action == "" && r.Method == http.MethodDelete:
		empty, closed := s.registry.CloseTab(id)
		if !closed {
			writeError(w, http.StatusNotFound, "tab not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"empty":       empty,
			"activeTabId": s.registry.ActiveTabID(),
		})
	case action == "activate" && r.Method == http.MethodPost:
		s.registry.SetActiveTab(id)
		writeJSON(w, http.StatusOK, map[string]any{
			"activeTabId": s.registry.ActiveTabID(),
		})
	case action == "entries" && r.Method == http.MethodGet:
		entries, path, ok := s.registry.TabEntries(id)
		if !ok {
			writeError(w, http.StatusNotFound, "tab not found")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"path":    path,
			"entries": entries,
		})
	case action == "save" && r.Method == http.MethodPost:
		s.saveTab(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) saveTab(w http.ResponseWriter, r *http.Request, id int) {
	content, ok := s.registry.TabContent(id)
	if !ok {
		writeError(w, http.StatusNotFound, "tab not found")
		return
	}
	if content.FilePath == "" {
		writeError(w, http.StatusBadRequest, "tab has no file path")
		return
	}
	if err := s.writer.Write(content.FilePath, content.Entries); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	// Confirm against the snapshot revision; an edit that landed while
	// the write ran keeps the tab dirty for the autosave sweep.
	s.registry.MarkSavedAt(id, content.Revision)
	if s.recents != nil {
		_ = s.recents.TouchRecentFile(r.Context(), session.RecentFile{
			Path:       content.FilePath,
			Name:       filepath.Base(content.FilePath),
			EntryCount: len(content.Entries),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"saved": true})
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":   s.registry.Entries(),
		"conflicts": s.registry.Conflicts(),
		"canUndo":   s.registry.CanUndo(),
		"canRedo":   s.registry.CanRedo(),
	})
}

type updateTextRequest struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

func (s *Server) handleEntryText(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req updateTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": s.registry.UpdateText(req.ID, req.Text),
	})
}

type updateTimeRequest struct {
	ID            int  `json:"id"`
	StartMs       *int `json:"startMs"`
	EndMs         *int `json:"endMs"`
	RecordHistory bool `json:"recordHistory"`
}

func (s *Server) handleEntryTime(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req updateTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	var start, end *subtitle.TimeCode
	if req.StartMs != nil {
		tc := subtitle.TimeCodeFromMillis(*req.StartMs)
		start = &tc
	}
	if req.EndMs != nil {
		tc := subtitle.TimeCodeFromMillis(*req.EndMs)
		end = &tc
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"changed": s.registry.UpdateTime(req.ID, start, end, req.RecordHistory),
	})
}

type addEntryRequest struct {
	AfterID int `json:"afterId"`
}

func (s *Server) handleEntryAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	entry, ok := s.registry.AddEntry(req.AfterID)
	if !ok {
		writeError(w, http.StatusConflict, "no open tab")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

type deleteEntriesRequest struct {
	IDs []int `json:"ids"`
}

func (s *Server) handleEntryDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req deleteEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, http.StatusBadRequest, "ids is required")
		return
	}
	// A single id goes through the undoable path.
	if len(req.IDs) == 1 {
		writeJSON(w, http.StatusOK, map[string]any{
			"deleted": boolToCount(s.registry.DeleteEntry(req.IDs[0])),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted": s.registry.DeleteEntries(req.IDs),
	})
}

func boolToCount(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

type splitEntryRequest struct {
	ID          int `json:"id"`
	SplitTimeMs int `json:"splitTimeMs"`
}

func (s *Server) handleEntrySplit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req splitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	entry, ok := s.registry.SplitEntry(req.ID, req.SplitTimeMs)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "split point outside entry interval")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type mergeEntriesRequest struct {
	IDs []int `json:"ids"`
}

func (s *Server) handleEntryMerge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req mergeEntriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	entry, ok := s.registry.MergeEntries(req.IDs)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "entries must be at least two consecutive ids")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

type dragStartRequest struct {
	IDs []int `json:"ids"`
}

// handleDragStart opens a drag gesture: time updates until drag/end
// stay out of the history so the whole gesture undoes as one step.
func (s *Server) handleDragStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req dragStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	s.registry.StartDragging(req.IDs)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDragEnd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.registry.EndDragging()
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type transformRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if !s.registry.ApplyBatchTransform(req.Name) {
		writeError(w, http.StatusBadRequest, "unknown transform: "+req.Name)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"undone":  s.registry.Undo(),
		"canUndo": s.registry.CanUndo(),
		"canRedo": s.registry.CanRedo(),
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"redone":  s.registry.Redo(),
		"canUndo": s.registry.CanUndo(),
		"canRedo": s.registry.CanRedo(),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	switch r.URL.Query().Get("step") {
	case "next":
		id, ok := s.registry.NextSearchResult()
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "found": ok})
	case "prev":
		id, ok := s.registry.PrevSearchResult()
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "found": ok})
	default:
		ids := s.registry.Search(r.URL.Query().Get("q"))
		writeJSON(w, http.StatusOK, map[string]any{"ids": ids})
	}
}

type enqueueCorrectionRequest struct {
	EntryID int `json:"entryId"`
}

func (s *Server) handleCorrections(w http.ResponseWriter, r *http.Request) {
	if s.corrections == nil {
		writeError(w, http.StatusNotImplemented, "correction service is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.corrections.List())
	case http.MethodPost:
		var req enqueueCorrectionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		tabID := s.registry.ActiveTabID()
		entry, ok := findEntry(s.registry.Entries(), req.EntryID)
		if !ok {
			writeError(w, http.StatusNotFound, "entry not found")
			return
		}
		job, created := s.corrections.Enqueue(correction.Request{
			TabID:   tabID,
			EntryID: entry.ID,
			StartMs: entry.StartTime.Millis(),
			EndMs:   entry.EndTime.Millis(),
			Text:    entry.Text,
		})
		code := http.StatusCreated
		if !created {
			code = http.StatusOK
		}
		writeJSON(w, code, map[string]any{
			"created": created,
			"job":     job,
		})
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func findEntry(entries []subtitle.Entry, id int) (subtitle.Entry, bool) {
	for _, entry := range entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return subtitle.Entry{}, false
}

type correctionDecisionRequest struct {
	EntryID int `json:"entryId"`
}

func (s *Server) handleCorrectionApply(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req correctionDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"applied": s.registry.ApplyCorrectionSuggestion(req.EntryID),
	})
}

func (s *Server) handleCorrectionDismiss(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req correctionDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	s.registry.DismissCorrectionSuggestion(req.EntryID)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleRecentFiles(w http.ResponseWriter, r *http.Request) {
	if s.recents == nil {
		writeError(w, http.StatusNotImplemented, "session store is not configured")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	files, err := s.recents.RecentFiles(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, files)
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.apply != nil {
			if err := s.apply(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}
