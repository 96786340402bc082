package handlers

import "net/http"

func (h *Handler) GetMemberList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	members, err := h.servers.ListMembers(ctx, serverID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, members)
}
