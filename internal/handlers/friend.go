package handlers

import "net/http"

func (h *Handler) AddFriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	friendID, err := parseID(r, "friendID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.friends.SendRequest(ctx, userIDFrom(ctx), friendID); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *Handler) GetFriendList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	friendList, err := h.friends.List(ctx, userIDFrom(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, friendList)
}
