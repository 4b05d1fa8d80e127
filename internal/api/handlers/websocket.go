package handlers

import (
	"log"
	"net/http"

	ws "github.com/gorilla/websocket"
	"github.com/neuraforge/collab-gateway/internal/api/middleware"
	"github.com/neuraforge/collab-gateway/internal/config"
	"github.com/neuraforge/collab-gateway/internal/domain"
	"github.com/neuraforge/collab-gateway/internal/service"
	"github.com/neuraforge/collab-gateway/internal/websocket"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	upgrader    ws.Upgrader
	sendBuffer  int
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, cfg *config.Config) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		sendBuffer:  cfg.ClientSendBuffer,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || cfg.OriginAllowed(origin)
			},
		},
	}
}

// Handle upgrades the connection and authenticates it with the token from
// the "token" query parameter or the Authorization header. A connection that
// fails authentication receives connect_error and is closed without being
// registered.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token, _ = middleware.BearerToken(r)
	}

	user, authErr := h.authService.Authenticate(r.Context(), token)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	if authErr != nil {
		log.Printf("ERROR [WebSocketHandler.Handle] %v: %v", domain.ErrAuthentication, authErr)
		websocket.Reject(conn, "Authentication error")
		return
	}

	client := websocket.NewClient(h.hub, conn, user.ID, user.Name, h.sendBuffer)
	h.hub.Register(client)
	log.Printf("[WebSocketHandler] client %s connected as user %s", client.ID(), user.ID)

	go client.WritePump()
	go client.ReadPump()
}
