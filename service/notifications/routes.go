package notifications

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type NotificationHandler struct {
	dispatcher *Dispatcher
	inbox      *Inbox
}

func NewNotificationHandler(dispatcher *Dispatcher, inbox *Inbox) *NotificationHandler {
	return &NotificationHandler{
		dispatcher: dispatcher,
		inbox:      inbox,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/notifications/dispatch", h.DispatchNotification).Methods("POST")
	router.HandleFunc("/notifications", utils.AuthMiddleware(h.ListNotifications)).Methods("GET")
	router.HandleFunc("/notifications/read-all", utils.AuthMiddleware(h.MarkAllRead)).Methods("PUT")
	router.HandleFunc("/notifications/settings", utils.AuthMiddleware(h.UpdateSettings)).Methods("PUT")
	router.HandleFunc("/notifications/{id}/read", utils.AuthMiddleware(h.MarkRead)).Methods("PUT")
	router.HandleFunc("/notifications/{id}", utils.AuthMiddleware(h.DeleteNotification)).Methods("DELETE")
}

// DispatchNotification is the remote entry point for comment notification
// fan-out. The request has exactly one accepted shape; there is no payload
// sniffing.
func (h *NotificationHandler) DispatchNotification(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CommentID      uint   `json:"commentId"`
		PostID         uint   `json:"postId"`
		CollectionName string `json:"collectionName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.CommentID == 0 {
		http.Error(w, "commentId is required", http.StatusBadRequest)
		return
	}
	if req.PostID == 0 {
		http.Error(w, "postId is required", http.StatusBadRequest)
		return
	}
	if req.CollectionName == "" {
		http.Error(w, "collectionName is required", http.StatusBadRequest)
		return
	}
	if !models.ValidCollection(req.CollectionName) {
		http.Error(w, "Unknown collection name", http.StatusBadRequest)
		return
	}

	result, err := h.dispatcher.Dispatch(req.CommentID, req.PostID, req.CollectionName)
	if err != nil {
		switch {
		case errors.Is(err, ErrCommentNotFound), errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUserNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, "Error dispatching notification", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// ListNotifications returns a page of the caller's notifications.
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	notifications, next, err := h.inbox.List(callerID, r.URL.Query().Get("cursor"), pageSizeParam(r))
	if err != nil {
		if errors.Is(err, ErrBadCursor) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Error retrieving notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"notifications": notifications,
		"nextCursor":    next,
	})
}

// MarkRead marks one of the caller's notifications as read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if err := h.inbox.MarkRead(vars["id"], callerID); err != nil {
		writeInboxError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// MarkAllRead marks every unread notification for the caller.
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	count, err := h.inbox.MarkAllRead(callerID)
	if err != nil {
		http.Error(w, "Error updating notifications", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"count":   count,
	})
}

// DeleteNotification removes one of the caller's notifications.
func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	if err := h.inbox.Delete(vars["id"], callerID); err != nil {
		writeInboxError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

// UpdateSettings toggles the caller's email notification preference.
func (h *NotificationHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		EmailNotifications *bool `json:"emailNotifications"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.EmailNotifications == nil {
		http.Error(w, "emailNotifications is required", http.StatusBadRequest)
		return
	}

	if err := h.inbox.UpdateSettings(callerID, *req.EmailNotifications); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error updating settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true})
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

func pageSizeParam(r *http.Request) int {
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		if parsed, err := strconv.Atoi(limitParam); err == nil && parsed > 0 {
			if parsed > maxPageSize {
				return maxPageSize
			}
			return parsed
		}
	}
	return defaultPageSize
}

func writeInboxError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotificationNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Notification not found", http.StatusNotFound)
	case errors.Is(err, ErrNotOwner):
		http.Error(w, "Permission denied", http.StatusForbidden)
	default:
		http.Error(w, "Error processing notification", http.StatusInternalServerError)
	}
}
