package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pulseid/internal/api/middleware"
	"pulseid/internal/app/service"
	"pulseid/internal/common"
	"pulseid/internal/domain/model"
	"pulseid/internal/domain/repository"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService *service.UserService
	userRepo    repository.UserRepository // for the auth middleware's user load
}

func NewUserHandler(userService *service.UserService, userRepo repository.UserRepository) *UserHandler {
	return &UserHandler{userService: userService, userRepo: userRepo}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listUsers) // public directory, open by design

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.Authenticator(h.userRepo))
		protected.Get("/me", h.getMe)
		protected.Post("/logout", h.logout)
		protected.Put("/{userID}", h.updateUser)
		protected.Delete("/{userID}", h.deleteUser)
	})
}

func (h *UserHandler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page <= 0 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	users, total, err := h.userService.ListUsers(r.Context(), page, pageSize)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}

	// The SPA reads the list from the "data" field.
	type DirectoryResponse struct {
		Data     []model.User `json:"data"`
		Count    int          `json:"count"`
		Total    int          `json:"total"`
		Page     int          `json:"page"`
		PageSize int          `json:"page_size"`
	}
	common.RespondWithJSON(w, http.StatusOK, DirectoryResponse{
		Data:     users,
		Count:    len(users),
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

// logout is stateless: tokens stay valid until expiry and the client simply
// discards its copy. Known limitation of the bearer-token scheme.
func (h *UserHandler) logout(w http.ResponseWriter, r *http.Request) {
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (h *UserHandler) updateUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	targetID := chi.URLParam(r, "userID")

	var req service.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	user, err := h.userService.UpdateUser(r.Context(), requesterID, targetID, req)
	if err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteUser(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}
	targetID := chi.URLParam(r, "userID")

	if err := h.userService.DeleteUser(r.Context(), requesterID, targetID); err != nil {
		common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
