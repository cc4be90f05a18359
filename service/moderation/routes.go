package moderation

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/nowijnah/aimajou-server/cmd/models"
	"github.com/nowijnah/aimajou-server/cmd/utils"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

// AdminHandler exposes the moderation flags the gate reads: blocking,
// comment bans and account approval. All routes are admin-only.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/users/{id}/block", utils.AuthMiddleware(h.ToggleBlock)).Methods("PUT")
	router.HandleFunc("/admin/users/{id}/comment-ban", utils.AuthMiddleware(h.ToggleCommentBan)).Methods("PUT")
	router.HandleFunc("/admin/users/{id}/approve", utils.AuthMiddleware(h.ApproveUser)).Methods("PUT")
}

func (h *AdminHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	callerID, err := utils.GetUserIDFromContext(r.Context())
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}

	var caller models.User
	if err := h.db.First(&caller, callerID).Error; err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return false
	}

	if caller.Role != models.RoleAdmin {
		http.Error(w, "Admin access required", http.StatusForbidden)
		return false
	}
	return true
}

func (h *AdminHandler) targetUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	vars := mux.Vars(r)
	userID, err := strconv.ParseUint(vars["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return nil, false
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return nil, false
	}
	return &user, true
}

// ToggleBlock flips the target user's blocked flag.
func (h *AdminHandler) ToggleBlock(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	user, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	user.IsBlocked = !user.IsBlocked
	if err := h.db.Save(user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id":    user.ID,
		"is_blocked": user.IsBlocked,
	})
}

// ToggleCommentBan flips the target user's comment ban flag.
func (h *AdminHandler) ToggleCommentBan(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	user, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	user.IsCommentBanned = !user.IsCommentBanned
	if err := h.db.Save(user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id":           user.ID,
		"is_comment_banned": user.IsCommentBanned,
	})
}

// ApproveUser promotes a GUEST account to the requested role.
func (h *AdminHandler) ApproveUser(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	user, ok := h.targetUser(w, r)
	if !ok {
		return
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Role == "" {
		req.Role = models.RoleStudent
	}

	switch req.Role {
	case models.RoleStudent, models.RoleCompany, models.RoleProfessor, models.RoleAdmin:
	default:
		http.Error(w, "Invalid role", http.StatusBadRequest)
		return
	}

	user.Role = req.Role
	if err := h.db.Save(user).Error; err != nil {
		http.Error(w, "Error updating user", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
}
