package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/Lllllllleong/fanzineflow/internal/app"
	"github.com/Lllllllleong/fanzineflow/internal/config"
	"github.com/Lllllllleong/fanzineflow/internal/models"
	"github.com/Lllllllleong/fanzineflow/internal/pipeline"
	"github.com/Lllllllleong/fanzineflow/internal/store"
)

var (
	control *pipeline.Control
	once    sync.Once
	initErr error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP("TriggerBatchOCR", triggerBatchOCR)
	functions.HTTP("FinalizeFanzineData", finalizeFanzineData)
	functions.HTTP("RescanFanzine", rescanFanzine)
	functions.HTTP("DeleteFanzine", deleteFanzine)
}

// main is required by the Go Functions Framework.
func main() {}

// decodeRequest initializes the service, parses the common callable payload
// and writes the error response itself on failure.
func decodeRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	once.Do(func() {
		var cfg *config.Config
		if cfg, initErr = config.Load(); initErr != nil {
			return
		}
		control, initErr = app.NewControl(context.Background(), cfg)
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "service unavailable"})
		return "", false
	}

	var req models.CallableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "invalid JSON payload"})
		return "", false
	}
	if req.FanzineID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "fanzineId is required"})
		return "", false
	}
	return req.FanzineID, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, fanzineID, action string, err error) {
	slog.Error("Callable failed.", "action", action, "fanzineId", fanzineID, "error", err)
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
}

func triggerBatchOCR(w http.ResponseWriter, r *http.Request) {
	fanzineID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	queued, err := control.TriggerBatchOCR(r.Context(), fanzineID)
	if err != nil {
		writeError(w, fanzineID, "trigger_batch_ocr", err)
		return
	}
	writeJSON(w, http.StatusOK, models.BatchOCRResponse{Success: true, QueuedCount: queued})
}

func finalizeFanzineData(w http.ResponseWriter, r *http.Request) {
	fanzineID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	count, err := control.Finalize(r.Context(), fanzineID)
	if err != nil {
		writeError(w, fanzineID, "finalize_fanzine_data", err)
		return
	}
	writeJSON(w, http.StatusOK, models.FinalizeResponse{Success: true, EntityCount: count})
}

func rescanFanzine(w http.ResponseWriter, r *http.Request) {
	fanzineID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := control.Rescan(r.Context(), fanzineID); err != nil {
		writeError(w, fanzineID, "rescan_fanzine", err)
		return
	}
	writeJSON(w, http.StatusOK, models.AckResponse{Success: true})
}

func deleteFanzine(w http.ResponseWriter, r *http.Request) {
	fanzineID, ok := decodeRequest(w, r)
	if !ok {
		return
	}
	if err := control.Delete(r.Context(), fanzineID); err != nil {
		writeError(w, fanzineID, "delete_fanzine", err)
		return
	}
	writeJSON(w, http.StatusOK, models.AckResponse{Success: true})
}
