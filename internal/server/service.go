package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ThiagoRGoveia/dock-operations/internal/database"
	"github.com/ThiagoRGoveia/dock-operations/internal/export"
	"github.com/ThiagoRGoveia/dock-operations/internal/logging"
	"github.com/ThiagoRGoveia/dock-operations/internal/models"
	"github.com/ThiagoRGoveia/dock-operations/internal/normalize"
)

var timeNow = time.Now

type OperationService struct {
	DBManager   database.DBManager
	DefaultSide string
	logger      logrus.FieldLogger
}

func NewOperationService(dbManager database.DBManager, defaultSide string, logger logrus.FieldLogger) *OperationService {
	if strings.TrimSpace(defaultSide) == "" {
		defaultSide = models.DefaultSideLabel
	}
	return &OperationService{
		DBManager:   dbManager,
		DefaultSide: defaultSide,
		logger:      logging.OrDiscard(logger),
	}
}

// GetOperations lists the operations of one day and side as JSON.
func (h *OperationService) GetOperations(w http.ResponseWriter, r *http.Request) {
	date, side, ok := h.dayQuery(w, r)
	if !ok {
		return
	}

	ops, err := h.DBManager.GetByDate(r.Context(), date, side)
	if err != nil {
		h.logger.WithError(err).Error("Failed to retrieve operations")
		http.Error(w, "Failed to retrieve operations", http.StatusInternalServerError)
		return
	}
	if ops == nil {
		ops = []models.Operation{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(ops); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ExportOperations serves the same listing as a semicolon separated CSV download.
func (h *OperationService) ExportOperations(w http.ResponseWriter, r *http.Request) {
	date, side, ok := h.dayQuery(w, r)
	if !ok {
		return
	}

	ops, err := h.DBManager.GetByDate(r.Context(), date, side)
	if err != nil {
		h.logger.WithError(err).Error("Failed to retrieve operations")
		http.Error(w, "Failed to retrieve operations", http.StatusInternalServerError)
		return
	}

	filename := fmt.Sprintf("operations-%s-%s.csv", date.Format(models.DateLayout), strings.ReplaceAll(side, " ", "_"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := export.WriteCSV(w, ops); err != nil {
		h.logger.WithError(err).Error("Failed to write export")
	}
}

// PutOperation inserts an operation without id or updates the one it names.
func (h *OperationService) PutOperation(w http.ResponseWriter, r *http.Request) {
	var op models.Operation
	if err := json.NewDecoder(r.Body).Decode(&op); err != nil {
		http.Error(w, "Invalid operation body", http.StatusBadRequest)
		return
	}
	if op.IsEmpty() {
		http.Error(w, "Operation needs a carrier, plate or destination", http.StatusBadRequest)
		return
	}
	if op.Date.IsZero() {
		op.Date = normalize.Day(timeNow())
	} else {
		op.Date = normalize.Day(op.Date)
	}
	op.SideLabel = normalize.Display(op.SideLabel)
	if op.SideLabel == "" {
		op.SideLabel = h.DefaultSide
	}

	err := h.DBManager.Upsert(r.Context(), &op)
	if errors.Is(err, database.ErrOperationNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to save operation")
		http.Error(w, "Failed to save operation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(op); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

func (h *OperationService) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// dayQuery reads date and side from the query string. It writes the 400 itself.
func (h *OperationService) dayQuery(w http.ResponseWriter, r *http.Request) (time.Time, string, bool) {
	query := r.URL.Query()

	date := normalize.Day(timeNow())
	if dateStr := strings.TrimSpace(query.Get("date")); dateStr != "" {
		parsed, err := time.Parse(models.DateLayout, dateStr)
		if err != nil {
			http.Error(w, "Invalid 'date' format. Use YYYY-MM-DD.", http.StatusBadRequest)
			return time.Time{}, "", false
		}
		date = parsed
	}

	side := normalize.Display(query.Get("side"))
	if side == "" {
		side = h.DefaultSide
	}
	return date, side, true
}
