// Package api provides HTTP handlers for the broker server REST API.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/coregx/mongomq"
	"github.com/coregx/mongomq/model"
)

// Handler holds dependencies for API handlers.
type Handler struct {
	channel *mongomq.Channel
	logger  mongomq.Logger
}

// NewHandler creates a new API handler.
func NewHandler(channel *mongomq.Channel, logger mongomq.Logger) *Handler {
	return &Handler{
		channel: channel,
		logger:  logger,
	}
}

// PublishRequest represents a publish message request. An empty exchange
// addresses the queue named by routingKey directly.
type PublishRequest struct {
	Exchange   string          `json:"exchange"`
	RoutingKey string          `json:"routingKey"`
	Payload    json.RawMessage `json:"payload"`
}

// BindRequest represents a queue binding request. Type declares the exchange
// on this channel; "fanout" binds the queue to the broadcast stream.
type BindRequest struct {
	Exchange   string `json:"exchange"`
	Type       string `json:"type"` // direct, fanout, topic (default: direct)
	Queue      string `json:"queue"`
	RoutingKey string `json:"routingKey"`
	Pattern    string `json:"pattern"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response.
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}

// HandlePublish handles POST /api/v1/publish
func (h *Handler) HandlePublish(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if req.Exchange == "" && req.RoutingKey == "" {
		h.respondError(w, http.StatusBadRequest, "exchange or routingKey is required", "VALIDATION_ERROR")
		return
	}
	if len(req.Payload) == 0 {
		h.respondError(w, http.StatusBadRequest, "payload is required", "VALIDATION_ERROR")
		return
	}

	if err := h.channel.Publish(r.Context(), req.Exchange, req.RoutingKey, req.Payload); err != nil {
		h.logger.Errorf("Failed to publish message: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to publish message", "PUBLISH_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusCreated, nil, "Message published successfully")
}

// HandleBind handles POST /api/v1/bind
func (h *Handler) HandleBind(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	var req BindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid JSON", "INVALID_JSON")
		return
	}

	if req.Exchange == "" || req.Queue == "" {
		h.respondError(w, http.StatusBadRequest, "exchange and queue are required", "VALIDATION_ERROR")
		return
	}

	exchangeType := model.ExchangeType(req.Type)
	if req.Type == "" {
		exchangeType = model.ExchangeDirect
	}
	if err := h.channel.ExchangeDeclare(model.Exchange{Name: req.Exchange, Type: exchangeType}); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid exchange declaration", "VALIDATION_ERROR")
		return
	}

	if err := h.channel.QueueBind(r.Context(), req.Exchange, req.RoutingKey, req.Pattern, req.Queue); err != nil {
		h.logger.Errorf("Failed to bind queue: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to bind queue", "BIND_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusCreated, nil, "Queue bound successfully")
}

// HandleQueue dispatches requests under /api/v1/queues/:name:
//
//	GET    /api/v1/queues/:name/size
//	POST   /api/v1/queues/:name/purge
//	DELETE /api/v1/queues/:name
func (h *Handler) HandleQueue(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path)
	// Expected: ["api", "v1", "queues", name] or [..., name, action]
	if len(parts) < 4 {
		h.respondError(w, http.StatusBadRequest, "Queue name is required", "VALIDATION_ERROR")
		return
	}
	queue := parts[3]
	action := ""
	if len(parts) >= 5 {
		action = parts[4]
	}

	switch {
	case r.Method == http.MethodGet && action == "size":
		h.handleQueueSize(w, r, queue)
	case r.Method == http.MethodPost && action == "purge":
		h.handleQueuePurge(w, r, queue)
	case r.Method == http.MethodDelete && action == "":
		h.handleQueueDelete(w, r, queue)
	default:
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
	}
}

func (h *Handler) handleQueueSize(w http.ResponseWriter, r *http.Request, queue string) {
	size, err := h.channel.Size(r.Context(), queue)
	if err != nil {
		h.logger.Errorf("Failed to read queue size: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to read queue size", "SIZE_ERROR")
		return
	}
	h.respondSuccess(w, http.StatusOK, map[string]interface{}{"queue": queue, "size": size}, "")
}

func (h *Handler) handleQueuePurge(w http.ResponseWriter, r *http.Request, queue string) {
	purged, err := h.channel.Purge(r.Context(), queue)
	if err != nil {
		h.logger.Errorf("Failed to purge queue: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to purge queue", "PURGE_ERROR")
		return
	}
	h.respondSuccess(w, http.StatusOK, map[string]interface{}{"queue": queue, "purged": purged}, "Queue purged successfully")
}

func (h *Handler) handleQueueDelete(w http.ResponseWriter, r *http.Request, queue string) {
	if err := h.channel.QueueDelete(r.Context(), queue); err != nil {
		h.logger.Errorf("Failed to delete queue: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to delete queue", "DELETE_ERROR")
		return
	}
	h.respondSuccess(w, http.StatusOK, nil, "Queue deleted successfully")
}

// HandleTable handles GET /api/v1/table?exchange=name
func (h *Handler) HandleTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	exchange := r.URL.Query().Get("exchange")
	if exchange == "" {
		h.respondError(w, http.StatusBadRequest, "exchange query parameter is required", "VALIDATION_ERROR")
		return
	}

	entries, err := h.channel.GetTable(r.Context(), exchange)
	if err != nil {
		h.logger.Errorf("Failed to load routing table: %v", err)
		h.respondError(w, http.StatusInternalServerError, "Failed to load routing table", "TABLE_ERROR")
		return
	}

	h.respondSuccess(w, http.StatusOK, entries, "")
}

// HandleHealth handles GET /api/v1/health
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.respondError(w, http.StatusMethodNotAllowed, "Method not allowed", "")
		return
	}

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"driver":    mongomq.DriverName,
		"version":   "0.1.0",
	}

	h.respondSuccess(w, http.StatusOK, health, "")
}

// respondError sends an error response.
func (h *Handler) respondError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   message,
		Code:    code,
		Message: message,
	})
}

// respondSuccess sends a success response.
func (h *Handler) respondSuccess(w http.ResponseWriter, status int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// splitPath splits a URL path into its non-empty segments.
func splitPath(path string) []string {
	parts := []string{}
	for _, part := range strings.Split(path, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}
