package handlers

import "net/http"

func (h *Handler) OpenDMRoom(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	otherID, err := parseID(r, "userID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	room, err := h.dms.GetOrCreate(ctx, userIDFrom(ctx), otherID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.DMRoomsOpened.Inc()
	h.respond(w, r, room)
}

func (h *Handler) GetDMRoomList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rooms, err := h.dms.ListRooms(ctx, userIDFrom(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, rooms)
}
