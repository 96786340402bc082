package handlers

import (
	"chatcord-backend/internal/apperr"
	"chatcord-backend/internal/messages"
	"net/http"
	"strconv"
)

func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var request messages.SendMessageRequest
	if err := decodeJSON(r, &request); err != nil {
		h.fail(w, r, err)
		return
	}

	message, err := h.messages.Send(ctx, userIDFrom(ctx), request)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	kind := messages.TargetChannel
	if message.DMRoomID != nil {
		kind = messages.TargetDM
	}
	h.metrics.MessagesSent.WithLabelValues(string(kind)).Inc()

	h.respond(w, r, message)
}

// GetMessageList reads kind, targetID and the optional before and limit
// pagination parameters.
func (h *Handler) GetMessageList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	var page messages.Page
	var err error

	if before := query.Get("before"); before != "" {
		page.Before, err = strconv.ParseInt(before, 10, 64)
		if err != nil {
			h.fail(w, r, apperr.New(apperr.Validation, "Invalid before"))
			return
		}
	}
	if limit := query.Get("limit"); limit != "" {
		page.Limit, err = strconv.Atoi(limit)
		if err != nil {
			h.fail(w, r, apperr.New(apperr.Validation, "Invalid limit"))
			return
		}
	}

	kind := messages.TargetKind(query.Get("kind"))
	if kind == "" {
		kind = messages.TargetChannel
	}

	messageList, err := h.messages.List(ctx, userIDFrom(ctx), kind, query.Get("targetID"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.respond(w, r, messageList)
}

func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	messageID, err := parseID(r, "messageID")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	serverID, err := parseID(r, "serverID")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.messages.Delete(ctx, messageID, serverID, userIDFrom(ctx)); err != nil {
		h.fail(w, r, err)
		return
	}
}
