package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/williamn/expense-assistant/pkg/agent"
	"github.com/williamn/expense-assistant/pkg/artifacts"
	"github.com/williamn/expense-assistant/pkg/logging"
	"github.com/williamn/expense-assistant/pkg/metrics"
	"github.com/williamn/expense-assistant/pkg/models"
	"github.com/williamn/expense-assistant/pkg/store"
)

// Engine sends one user turn to the agent engine and returns its raw
// markdown reply
type Engine interface {
	Send(ctx context.Context, userID, sessionID string, content agent.Content) (string, error)
}

// Handler handles backend API requests
type Handler struct {
	appName   string
	store     store.Store
	artifacts artifacts.Service
	engine    Engine
	metrics   *metrics.Metrics
	log       *logging.Logger
	startTime time.Time
}

// NewHandler creates a new backend handler
func NewHandler(appName string, s store.Store, arts artifacts.Service, engine Engine, m *metrics.Metrics, log *logging.Logger) *Handler {
	return &Handler{
		appName:   appName,
		store:     s,
		artifacts: arts,
		engine:    engine,
		metrics:   m,
		log:       log,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.Chat).Methods("POST")
	r.HandleFunc("/receipts", h.ListReceipts).Methods("GET")
	r.HandleFunc("/receipts/{id}", h.GetReceipt).Methods("GET")
	r.HandleFunc("/receipts/{id}", h.DeleteReceipt).Methods("DELETE")
	r.HandleFunc("/receipts/{id}/image", h.GetReceiptImage).Methods("GET")
	r.HandleFunc("/health", h.Health).Methods("GET")
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler()).Methods("GET")
	}
}

// Chat handles one conversation turn: store uploaded receipt images, relay
// the turn to the agent engine and return its parsed reply
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	requestID := uuid.New().String()

	var req models.ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.chatOutcome("bad_request", started)
		writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: "Invalid request body"})
		return
	}
	req.ApplyDefaults()

	log := h.log.WithField("request_id", requestID).
		WithField("user_id", req.UserID).
		WithField("session_id", req.SessionID)

	scope := artifacts.Scope{AppName: h.appName, UserID: req.UserID, SessionID: req.SessionID}

	stored := make([]agent.StoredImage, 0, len(req.Files))
	for _, file := range req.Files {
		id, data, err := artifacts.StoreImage(r.Context(), h.artifacts, scope, file)
		if err != nil {
			log.Error("Failed to store uploaded image", map[string]interface{}{"error": err.Error()})
			h.chatOutcome("bad_request", started)
			writeJSON(w, http.StatusBadRequest, models.ChatResponse{Error: "Invalid image upload"})
			return
		}
		stored = append(stored, agent.StoredImage{ID: id, Data: data, MIMEType: file.MIMEType})

		receipt := &models.Receipt{
			ID:        id,
			UserID:    req.UserID,
			SessionID: req.SessionID,
			MIMEType:  file.MIMEType,
			SizeBytes: int64(len(data)),
			StoredAt:  time.Now().UTC(),
		}
		if err := h.store.PutReceipt(r.Context(), receipt); err != nil {
			log.Error("Failed to record receipt", map[string]interface{}{
				"receipt_id": id,
				"error":      err.Error(),
			})
			h.chatOutcome("store_error", started)
			writeJSON(w, http.StatusInternalServerError, models.ChatResponse{Error: "Failed to record receipt"})
			return
		}
		if h.metrics != nil {
			h.metrics.ImagesStored.Inc()
		}
		log.Info("Stored receipt image", map[string]interface{}{
			"receipt_id": id,
			"size_bytes": len(data),
		})
	}

	content := agent.BuildContent(req.Text, stored)

	raw, err := h.engine.Send(r.Context(), req.UserID, req.SessionID, content)
	if err != nil {
		log.Error("Engine call failed", map[string]interface{}{"error": err.Error()})
		h.chatOutcome("engine_error", started)
		writeJSON(w, http.StatusBadGateway, models.ChatResponse{Error: "Agent engine unavailable"})
		return
	}

	reply := agent.ParseReply(raw)

	attachments := make([]models.ImageData, 0, len(reply.AttachmentIDs))
	for _, id := range reply.AttachmentIDs {
		img, fetchErr := artifacts.FetchImage(r.Context(), h.artifacts, scope, agent.SanitizeImageID(id))
		if fetchErr != nil {
			// A hallucinated or expired ID should not sink the reply
			log.Warn("Attachment not found", map[string]interface{}{
				"attachment_id": id,
				"error":         fetchErr.Error(),
			})
			continue
		}
		attachments = append(attachments, *img)
	}

	h.chatOutcome("success", started)
	log.Info("Chat turn complete", map[string]interface{}{
		"images_in":       len(req.Files),
		"attachments_out": len(attachments),
		"duration_ms":     time.Since(started).Milliseconds(),
	})

	writeJSON(w, http.StatusOK, models.ChatResponse{
		Response:        reply.Answer,
		ThinkingProcess: reply.Thinking,
		Attachments:     attachments,
	})
}

// ListReceipts returns receipt records for a user, optionally narrowed to
// one session
func (h *Handler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}

	var (
		receipts []*models.Receipt
		err      error
	)
	if sessionID := r.URL.Query().Get("session_id"); sessionID != "" {
		receipts, err = h.store.ListReceiptsBySession(r.Context(), userID, sessionID)
	} else {
		receipts, err = h.store.ListReceiptsByUser(r.Context(), userID)
	}
	if err != nil {
		h.log.Error("Failed to list receipts", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to list receipts", http.StatusInternalServerError)
		return
	}

	if h.metrics != nil {
		h.metrics.ReceiptRecords.Set(float64(len(receipts)))
	}
	writeJSON(w, http.StatusOK, receipts)
}

// GetReceipt returns a single receipt record
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	receipt, err := h.store.GetReceipt(r.Context(), id)
	if errors.Is(err, store.ErrReceiptNotFound) {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to fetch receipt", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to fetch receipt", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, receipt)
}

// GetReceiptImage returns the stored image for a receipt in wire form
func (h *Handler) GetReceiptImage(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	receipt, err := h.store.GetReceipt(r.Context(), id)
	if errors.Is(err, store.ErrReceiptNotFound) {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch receipt", http.StatusInternalServerError)
		return
	}

	scope := artifacts.Scope{AppName: h.appName, UserID: receipt.UserID, SessionID: receipt.SessionID}
	img, err := artifacts.FetchImage(r.Context(), h.artifacts, scope, id)
	if errors.Is(err, artifacts.ErrNotFound) {
		http.Error(w, "Image not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error("Failed to load artifact", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to load image", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, img)
}

// DeleteReceipt removes the receipt record and its stored image
func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	receipt, err := h.store.GetReceipt(r.Context(), id)
	if errors.Is(err, store.ErrReceiptNotFound) {
		http.Error(w, "Receipt not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to fetch receipt", http.StatusInternalServerError)
		return
	}

	scope := artifacts.Scope{AppName: h.appName, UserID: receipt.UserID, SessionID: receipt.SessionID}
	if err := h.artifacts.Delete(r.Context(), scope, id); err != nil {
		h.log.Error("Failed to delete artifact", map[string]interface{}{"error": err.Error()})
		http.Error(w, "Failed to delete image", http.StatusInternalServerError)
		return
	}
	if err := h.store.DeleteReceipt(r.Context(), id); err != nil && !errors.Is(err, store.ErrReceiptNotFound) {
		http.Error(w, "Failed to delete receipt", http.StatusInternalServerError)
		return
	}

	h.log.Info("Deleted receipt", map[string]interface{}{"receipt_id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) chatOutcome(outcome string, started time.Time) {
	if h.metrics == nil {
		return
	}
	h.metrics.ChatRequests.WithLabelValues(outcome).Inc()
	h.metrics.ChatDuration.Observe(time.Since(started).Seconds())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
