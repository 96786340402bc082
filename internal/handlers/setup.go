package handlers

import (
	"chatcord-backend/internal/dm"
	"chatcord-backend/internal/friends"
	"chatcord-backend/internal/jwt"
	"chatcord-backend/internal/keyValue"
	"chatcord-backend/internal/messages"
	"chatcord-backend/internal/metrics"
	"chatcord-backend/internal/models"
	"chatcord-backend/internal/profiles"
	"chatcord-backend/internal/servers"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Handler holds every service the routes call into.
type Handler struct {
	sugar    *zap.SugaredLogger
	verifier *jwt.Verifier
	kv       *keyValue.Store
	metrics  *metrics.Metrics

	profiles *profiles.Service
	friends  *friends.Service
	servers  *servers.Service
	dms      *dm.Service
	messages *messages.Service
}

type Services struct {
	Profiles *profiles.Service
	Friends  *friends.Service
	Servers  *servers.Service
	DMs      *dm.Service
	Messages *messages.Service
}

func New(sugar *zap.SugaredLogger, verifier *jwt.Verifier, kv *keyValue.Store, m *metrics.Metrics, services Services) *Handler {
	return &Handler{
		sugar:    sugar,
		verifier: verifier,
		kv:       kv,
		metrics:  m,
		profiles: services.Profiles,
		friends:  services.Friends,
		servers:  services.Servers,
		dms:      services.DMs,
		messages: services.Messages,
	}
}

func NewRouter(cfg *models.ConfigFile, h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID)
	if cfg.Cors {
		r.Use(AllowCors)
	}
	if cfg.PrintHttpRequests {
		r.Use(middleware.Logger)
	}

	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(h.metrics.Instrument)

	if cfg.MetricsEnabled {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/test", h.Test)

		api.Group(func(api chi.Router) {
			api.Use(h.UserVerifier)

			api.Route("/user", func(r chi.Router) {
				r.Get("/fetch", h.GetUserInfo)
				r.Post("/update", h.UpdateUserInfo)
				r.Get("/search", h.SearchUser)
			})

			api.Route("/server", func(r chi.Router) {
				r.Post("/create", h.CreateServer)
				r.Get("/fetch", h.GetServerList)
				r.Post("/join", h.JoinServer)
				r.Post("/leave", h.LeaveServer)
				r.Post("/delete", h.DeleteServer)
				r.Post("/rename", h.RenameServer)
				r.Post("/kick", h.KickMember)
			})

			api.Route("/channel", func(r chi.Router) {
				r.Post("/create", h.CreateChannel)
				r.Get("/fetch", h.GetChannelList)
			})

			api.Route("/members", func(r chi.Router) {
				r.Get("/fetch", h.GetMemberList)
			})

			api.Route("/friend", func(r chi.Router) {
				r.Post("/add", h.AddFriend)
				r.Get("/fetch", h.GetFriendList)
			})

			api.Route("/dm", func(r chi.Router) {
				r.Post("/open", h.OpenDMRoom)
				r.Get("/fetch", h.GetDMRoomList)
			})

			api.Route("/message", func(r chi.Router) {
				r.Post("/create", h.CreateMessage)
				r.Get("/fetch", h.GetMessageList)
				r.Post("/delete", h.DeleteMessage)
			})
		})
	})

	return r
}
