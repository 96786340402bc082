package handlers

import (
	"chatcord-backend/internal/servers"
	"net/http"
)

func (h *Handler) CreateServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userIDFrom(ctx)

	var request servers.CreateServerRequest
	if err := decodeJSON(r, &request); err != nil {
		h.fail(w, r, err)
		return
	}

	server, err := h.servers.CreateServer(ctx, userID, request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.ServersCreated.Inc()
	h.respond(w, r, server)
}

func (h *Handler) GetServerList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverList, err := h.servers.ListMine(ctx, userIDFrom(ctx))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, serverList)
}

func (h *Handler) JoinServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.servers.Join(ctx, serverID, userIDFrom(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *Handler) LeaveServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.servers.Leave(ctx, serverID, userIDFrom(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *Handler) DeleteServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.servers.Delete(ctx, serverID, userIDFrom(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}

	h.metrics.ServersDeleted.Inc()
}

func (h *Handler) RenameServer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	request := servers.RenameServerRequest{Name: r.URL.Query().Get("name")}
	if err := h.servers.Rename(ctx, serverID, userIDFrom(ctx), request); err != nil {
		h.fail(w, r, err)
		return
	}
}

func (h *Handler) KickMember(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	targetID, err := parseID(r, "userID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.servers.Kick(ctx, serverID, targetID, userIDFrom(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
}
