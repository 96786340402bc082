package handlers

import (
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/profiles"
	"net/http"
)

// GetUserInfo accepts userID=self for the caller's own profile.
func (h *Handler) GetUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	var profile models.Profile
	var err error

	if r.URL.Query().Get("userID") == "self" {
		profile, err = h.profiles.GetOrCreate(ctx, userID)
	} else {
		var requestedUserID int64
		requestedUserID, err = parseID(r, "userID")
		if err == nil {
			profile, err = h.profiles.Get(ctx, requestedUserID)
		}
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, profile)
}

func (h *Handler) UpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	var request profiles.UpdateRequest
	if err := decodeJSON(r, &request); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.profiles.Update(ctx, userID, request); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *Handler) SearchUser(w http.ResponseWriter, r *http.Request) {
	profile, err := h.profiles.SearchByDisplayName(r.Context(), r.URL.Query().Get("displayName"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, profile)
}
