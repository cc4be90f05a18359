package comments

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nowijnah/aimajou-server/cmd/utils"
	"github.com/nowijnah/aimajou-server/service/moderation"
	"github.com/gorilla/mux"
)

type CommentHandler struct {
	store *Store
}

func NewCommentHandler(store *Store) *CommentHandler {
	return &CommentHandler{store: store}
}

func (h *CommentHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts/{id}/comments", utils.AuthMiddleware(h.AddComment)).Methods("POST")
	router.HandleFunc("/posts/{id}/comments", h.GetComments).Methods("GET")
	router.HandleFunc("/comments/{commentId}/replies", utils.AuthMiddleware(h.AddReply)).Methods("POST")
	router.HandleFunc("/comments/{commentId}/replies", h.GetReplies).Methods("GET")
	router.HandleFunc("/comments/{commentId}", utils.AuthMiddleware(h.UpdateComment)).Methods("PUT")
	router.HandleFunc("/comments/{commentId}", utils.AuthMiddleware(h.DeleteComment)).Methods("DELETE")
}

// AddComment adds a top-level comment to a post
func (h *CommentHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	authorID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Content   string `json:"content"`
		IsPrivate bool   `json:"is_private"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.store.AddTopLevel(uint(postID), authorID, req.Content, req.IsPrivate)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comment)
}

// GetComments retrieves top-level comments for a post with cursor pagination
func (h *CommentHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	comments, next, err := h.store.List(uint(postID), r.URL.Query().Get("cursor"), pageSizeParam(r))
	if err != nil {
		if errors.Is(err, ErrBadCursor) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Error retrieving comments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"comments":    comments,
		"next_cursor": next,
	})
}

// AddReply adds a reply under a top-level comment
func (h *CommentHandler) AddReply(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	parentID, err := strconv.ParseUint(vars["commentId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	authorID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		PostID  uint   `json:"post_id"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.store.AddReply(uint(parentID), req.PostID, authorID, req.Content)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(reply)
}

// GetReplies retrieves replies for a comment with cursor pagination
func (h *CommentHandler) GetReplies(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	parentID, err := strconv.ParseUint(vars["commentId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	replies, next, err := h.store.ListReplies(uint(parentID), r.URL.Query().Get("cursor"), pageSizeParam(r))
	if err != nil {
		if errors.Is(err, ErrBadCursor) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, "Error retrieving replies", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"replies":     replies,
		"next_cursor": next,
	})
}

// UpdateComment edits the caller's own comment
func (h *CommentHandler) UpdateComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	commentID, err := strconv.ParseUint(vars["commentId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.store.Edit(uint(commentID), callerID, req.Content)
	if err != nil {
		writeCommentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(comment)
}

// DeleteComment deletes the caller's own comment, cascading over replies for
// a top-level comment
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	commentID, err := strconv.ParseUint(vars["commentId"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid comment ID", http.StatusBadRequest)
		return
	}

	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.store.Delete(uint(commentID), callerID); err != nil {
		writeCommentError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"message": "Comment deleted successfully",
	})
}

const maxPageSize = 100

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

func writeCommentError(w http.ResponseWriter, err error) {
	switch {
	case moderation.IsDenial(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, ErrContentRequired), errors.Is(err, ErrReplyDepth), errors.Is(err, ErrParentMismatch):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrCommentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrNotAuthor):
		http.Error(w, "Permission denied", http.StatusForbidden)
	default:
		http.Error(w, "Error processing comment", http.StatusInternalServerError)
	}
}
