package websocket

import (
	"encoding/json"
	"log"
	"sync"
)

// Hub owns every connection and the room membership table. All membership
// changes and fan-out happen on the Run goroutine, so a broadcast always sees
// a settled membership and a disconnected client is gone from every room
// before any later broadcast is handled.
type Hub struct {
	rooms      map[string]map[*Client]bool
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	joinRoom   chan *RoomRequest
	leaveRoom  chan *RoomRequest
	broadcast  chan *BroadcastRequest
	query      chan func()
	stop       chan struct{}
	done       chan struct{} // closed when Run() exits
	stopOnce   sync.Once
}

type RoomRequest struct {
	Client     *Client
	ResearchID string
}

// BroadcastRequest relays Data to every member of ResearchID except Sender.
type BroadcastRequest struct {
	Sender     *Client
	ResearchID string
	Data       []byte
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joinRoom:   make(chan *RoomRequest),
		leaveRoom:  make(chan *RoomRequest),
		broadcast:  make(chan *BroadcastRequest),
		query:      make(chan func()),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done) // Signal that Run() has exited

	for {
		select {
		case <-h.stop:
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.rooms = make(map[string]map[*Client]bool)
			return

		case client := <-h.register:
			h.clients[client] = true

		case client := <-h.unregister:
			h.handleUnregister(client)

		case req := <-h.joinRoom:
			h.handleJoin(req)

		case req := <-h.leaveRoom:
			h.handleLeave(req)

		case req := <-h.broadcast:
			h.handleBroadcast(req)

		case fn := <-h.query:
			fn()
		}
	}
}

// Stop closes every connection and blocks until Run has exited.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
	<-h.done
}

func (h *Hub) handleUnregister(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)

	for researchID := range client.rooms {
		h.removeMember(client, researchID)
	}
	client.Close()
	log.Printf("[Hub] client %s (user %s) disconnected", client.id, client.userID)
}

func (h *Hub) handleJoin(req *RoomRequest) {
	client := req.Client
	if _, ok := h.clients[client]; !ok {
		return
	}
	if client.rooms[req.ResearchID] {
		return
	}

	members, ok := h.rooms[req.ResearchID]
	if !ok {
		members = make(map[*Client]bool)
		h.rooms[req.ResearchID] = members
	}
	members[client] = true
	client.rooms[req.ResearchID] = true

	h.notifyPresence(client, req.ResearchID, MessageTypeUserJoined)
}

func (h *Hub) handleLeave(req *RoomRequest) {
	if !req.Client.rooms[req.ResearchID] {
		return
	}
	h.removeMember(req.Client, req.ResearchID)
}

func (h *Hub) removeMember(client *Client, researchID string) {
	delete(client.rooms, researchID)

	members := h.rooms[researchID]
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, researchID)
		return
	}

	h.notifyPresence(client, researchID, MessageTypeUserLeft)
}

func (h *Hub) notifyPresence(client *Client, researchID string, msgType MessageType) {
	data, err := encode(msgType, UserPresencePayload{
		UserID:     client.userID,
		UserName:   client.userName,
		ResearchID: researchID,
	})
	if err != nil {
		log.Printf("ERROR [Hub.notifyPresence] %v", err)
		return
	}
	h.fanOut(client, researchID, data)
}

// handleBroadcast drops events for rooms the sender has not joined.
func (h *Hub) handleBroadcast(req *BroadcastRequest) {
	if !req.Sender.rooms[req.ResearchID] {
		return
	}
	h.fanOut(req.Sender, req.ResearchID, req.Data)
}

func (h *Hub) fanOut(sender *Client, researchID string, data []byte) {
	for member := range h.rooms[researchID] {
		if member == sender {
			continue
		}
		if !member.trySend(data) {
			log.Printf("ERROR [Hub.fanOut] dropped message for client %s in %s: send buffer full", member.id, researchID)
		}
	}
}

func encode(msgType MessageType, payload interface{}) ([]byte, error) {
	msg, err := NewMessage(msgType, payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

// Register adds an authenticated client to the hub.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister removes the client from every room and closes its send queue.
// Unknown or already removed clients are ignored.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join is idempotent: joining a room twice leaves one membership and
// notifies peers once.
func (h *Hub) Join(client *Client, researchID string) {
	select {
	case h.joinRoom <- &RoomRequest{Client: client, ResearchID: researchID}:
	case <-h.done:
	}
}

// Leave is a no-op when the client is not in the room.
func (h *Hub) Leave(client *Client, researchID string) {
	select {
	case h.leaveRoom <- &RoomRequest{Client: client, ResearchID: researchID}:
	case <-h.done:
	}
}

func (h *Hub) Broadcast(sender *Client, researchID string, data []byte) {
	select {
	case h.broadcast <- &BroadcastRequest{Sender: sender, ResearchID: researchID, Data: data}:
	case <-h.done:
	}
}

// inspect runs fn on the hub goroutine and waits for it.
func (h *Hub) inspect(fn func()) bool {
	finished := make(chan struct{})
	select {
	case h.query <- func() { fn(); close(finished) }:
	case <-h.done:
		return false
	}
	<-finished
	return true
}

// RoomSize returns the number of connections currently in the room.
func (h *Hub) RoomSize(researchID string) int {
	var n int
	h.inspect(func() { n = len(h.rooms[researchID]) })
	return n
}

func (h *Hub) RoomCount() int {
	var n int
	h.inspect(func() { n = len(h.rooms) })
	return n
}

func (h *Hub) ClientCount() int {
	var n int
	h.inspect(func() { n = len(h.clients) })
	return n
}
