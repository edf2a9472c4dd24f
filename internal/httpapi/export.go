package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/opencaption/subedit/internal/subtitle"
	"github.com/opencaption/subedit/pkg/file"
)

type exportRequest struct {
	TabID      int     `json:"tabId"`
	Format     string  `json:"format"`
	OutputPath string  `json:"outputPath"`
	FPS        float64 `json:"fps"`
	PositionX  int     `json:"positionX"`
	PositionY  int     `json:"positionY"`
}

var exportExts = map[string]string{
	"txt":      ".txt",
	"vtt":      ".vtt",
	"markdown": ".md",
	"fcpxml":   ".fcpxml",
}

// handleExport writes the tab's entries to a sidecar file in the
// requested format. The output path defaults to the subtitle path with
// the format's extension.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	ext, ok := exportExts[req.Format]
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown format: "+req.Format)
		return
	}

	tabID := req.TabID
	if tabID == 0 {
		tabID = s.registry.ActiveTabID()
	}
	entries, path, ok := s.registry.TabEntries(tabID)
	if !ok {
		writeError(w, http.StatusNotFound, "tab not found")
		return
	}

	outputPath := req.OutputPath
	if outputPath == "" {
		if path == "" {
			writeError(w, http.StatusBadRequest, "tab has no file path, outputPath is required")
			return
		}
		outputPath = file.ReplaceExt(path, ext)
	}

	var err error
	switch req.Format {
	case "txt":
		err = subtitle.ExportTXT(outputPath, entries)
	case "vtt":
		err = subtitle.ExportVTT(outputPath, entries)
	case "markdown":
		err = subtitle.ExportMarkdown(outputPath, entries)
	case "fcpxml":
		opts := subtitle.DefaultFCPXMLOptions()
		if req.FPS > 0 {
			opts.FPS = req.FPS
		}
		if req.PositionX != 0 {
			opts.PositionX = req.PositionX
		}
		if req.PositionY != 0 {
			opts.PositionY = req.PositionY
		}
		err = subtitle.ExportFCPXML(outputPath, entries, opts)
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"outputPath": outputPath,
	})
}
