package handlers

import (
	"chatcord-backend/internal/servers"
	"net/http"
)

func (h *Handler) CreateChannel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request servers.CreateChannelRequest
	if err := decodeJSON(r, &request); err != nil {
		h.fail(w, r, err)
		return
	}

	channel, err := h.servers.CreateChannel(ctx, userIDFrom(ctx), request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, channel)
}

func (h *Handler) GetChannelList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	channels, err := h.servers.ListChannels(ctx, serverID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, channels)
}
