package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"saturday/internal/ingest"
	"saturday/internal/log"
)

// maxUploadBytes caps an uploaded document.
const maxUploadBytes = 50 << 20

// DocumentHandler manages the local document set: uploads into the
// data directory, on-demand ingestion, and an index status view.
type DocumentHandler struct {
	ingester Ingester
	dataDir  string
	logger   log.Logger
}

// NewDocumentHandler creates the document handler.
func NewDocumentHandler(ingester Ingester, dataDir string, logger log.Logger) *DocumentHandler {
	return &DocumentHandler{ingester: ingester, dataDir: dataDir, logger: logger}
}

// RegisterRoutes registers the document endpoints.
func (h *DocumentHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.handleUpload)
	mux.HandleFunc("POST /api/ingest", h.handleIngest)
	mux.HandleFunc("GET /api/status", h.handleStatus)
}

func (h *DocumentHandler) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid upload", err.Error())
		return
	}
	defer func() { _ = file.Close() }()

	// Strip any path components a hostile client might send. Base
	// returns "." for an empty name and leaves ".." untouched, which
	// would climb out of the data directory when joined.
	name := filepath.Base(header.Filename)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		writeError(w, http.StatusBadRequest, "invalid upload", "missing filename")
		return
	}

	if err := os.MkdirAll(h.dataDir, 0o750); err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed", err.Error())
		return
	}

	dst, err := os.Create(filepath.Join(h.dataDir, name))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed", err.Error())
		return
	}
	defer func() { _ = dst.Close() }()

	if _, err := io.Copy(dst, file); err != nil {
		writeError(w, http.StatusInternalServerError, "upload failed", err.Error())
		return
	}

	h.logger.Info("document uploaded", "file", name)
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "success",
		"filename": name,
		"message":  fmt.Sprintf("Uploaded %s", name),
	})
}

func (h *DocumentHandler) handleIngest(w http.ResponseWriter, r *http.Request) {
	result, err := h.ingester.Run(r.Context(), h.dataDir)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ingestion failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": result,
	})
}

func (h *DocumentHandler) handleStatus(w http.ResponseWriter, _ *http.Request) {
	files := ingest.ListSupported(h.dataDir)
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "online",
		"files_count": len(files),
		"files":       files,
	})
}
