package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
)

// DataHandler serves the simplifier's JSON outputs from the data directory.
type DataHandler struct {
	root string
}

// NewDataHandler creates a handler rooted at the data directory.
func NewDataHandler(root string) *DataHandler {
	return &DataHandler{root: root}
}

// safeName validates that name is a plain .json file name and returns its
// absolute path under the data dir.
func (h *DataHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	if !strings.EqualFold(filepath.Ext(cleaned), ".json") {
		return "", fmt.Errorf("only .json files are served")
	}
	return filepath.Join(h.root, cleaned), nil
}

// ServeFile handles GET /data/{filename}.
//
//	@Summary		Download a simplifier output file
//	@Tags			data
//	@Produce		json
//	@Param			filename	path	string	true	"File name"	Enums(content.json, simple_blocks.json)
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/data/{filename} [get]
func (h *DataHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	abs, err := h.safeName(chi.URLParam(r, "filename"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, statErr := os.Stat(abs)
	if errors.Is(statErr, os.ErrNotExist) || (statErr == nil && info.IsDir()) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	http.ServeFile(w, r, abs)
}
