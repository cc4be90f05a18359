package likes

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/nowijnah/aimajou-server/cmd/utils"
	"github.com/gorilla/mux"
)

type LikeHandler struct {
	ledger *Ledger
}

func NewLikeHandler(ledger *Ledger) *LikeHandler {
	return &LikeHandler{ledger: ledger}
}

func (h *LikeHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/posts/{id}/like", utils.AuthMiddleware(h.ToggleLike)).Methods("POST")
	// Status works without a token: the caller just gets the count with
	// is_liked false.
	router.HandleFunc("/posts/{id}/like", h.LikeStatus).Methods("GET")
}

// ToggleLike flips the caller's like on a post
func (h *LikeHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	userID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	isLiked, likeCount, err := h.ledger.Toggle(uint(postID), userID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error processing like, please try again", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"is_liked":   isLiked,
		"like_count": likeCount,
	})
}

// LikeStatus returns the caller's like state and the post's like count
func (h *LikeHandler) LikeStatus(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	postID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid post ID", http.StatusBadRequest)
		return
	}

	userID, _ := utils.GetUserIDFromContext(r.Context())

	isLiked, likeCount, err := h.ledger.Status(uint(postID), userID)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			http.Error(w, "Post not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Error retrieving like status", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"is_liked":   isLiked,
		"like_count": likeCount,
	})
}
