package main

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gobwas/ws"
	"github.com/google/uuid"

	"roomchat/chat"
)

type HTTPHandler struct {
	Hub     *chat.Hub
	Config  *Config
	Admin   *AdminJWT
	clients *sync.WaitGroup
}

// NewHTTPServer routes the websocket endpoint, the metrics endpoint and the
// admin API. clients tracks running websocket handlers for shutdown.
func NewHTTPServer(hub *chat.Hub, cfg *Config, clients *sync.WaitGroup, metrics http.Handler) http.Handler {
	httpHandler := HTTPHandler{Hub: hub, Config: cfg, clients: clients}
	if cfg.AdminJWTSecret != "" {
		httpHandler.Admin = NewAdminJWT(cfg.AdminJWTSecret)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/"))

	r.With(httprate.Limit(cfg.ConnectRateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint))).
		Get("/ws", httpHandler.websocket())

	r.Group(func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET"},
			AllowedHeaders:   []string{"Authorization"},
			AllowCredentials: false,
		}))
		r.Handle("/metrics", metrics)
		r.Route("/admin", func(r chi.Router) {
			r.Use(httpHandler.requireAdmin)
			r.Get("/rooms", httpHandler.listRooms())
		})
	})
	return r
}

func (h HTTPHandler) websocket() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); !originAllowed(origin, h.Config.AllowedOrigins) {
			LogBlockedOrigin(origin)
			w.WriteHeader(http.StatusForbidden)
			return
		}
		h.clients.Add(1)
		defer h.clients.Done()
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			LogErrorWhileUpgradingHTTP(err)
			return
		}

		id := chat.ConnID(uuid.NewString())
		logger := GetConnIPLogger(r.RemoteAddr, id)
		client := NewClientWebsocket(id, conn, h.Config.MaxPayloadBytes, h.Config.PongTimeout, logger)
		if err := h.Hub.Connect(id, client); err != nil {
			logger.Refused(err)
			conn.Close()
			return
		}
		logger.Connected()

		written := make(chan struct{})
		go func() {
			defer close(written)
			client.WritePump()
		}()

		for {
			msg, err := client.ReadMessage()
			if err != nil {
				if errors.Is(err, ErrUndefinedEvent) || errors.Is(err, ErrMalformedMessage) {
					logger.InvalidMessage(err)
					continue
				}
				var netErr net.Error
				if errors.Is(err, ErrPayloadTooLarge) {
					logger.PayloadTooLarge()
				} else if errors.As(err, &netErr) && netErr.Timeout() {
					logger.TimedOut()
				}
				break
			}
			if err := dispatch(h.Hub, id, msg); err != nil {
				logger.Ignored(err)
			}
		}

		h.Hub.Disconnect(id)
		client.Close()
		<-written
		logger.Disconnected()
	}
}

func (h HTTPHandler) listRooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(h.Hub.Rooms())
	}
}

func (h HTTPHandler) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Admin == nil {
			http.NotFound(w, r)
			return
		}
		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := h.Admin.Verify(token); err != nil {
			LogRejectedAdminToken(r.RemoteAddr, err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// originAllowed accepts requests without an Origin header; only browsers
// send one.
func originAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return false
	}
	normalized := strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host)
	for _, candidate := range allowed {
		if candidate == "*" || strings.EqualFold(strings.TrimSuffix(candidate, "/"), normalized) {
			return true
		}
	}
	return false
}
