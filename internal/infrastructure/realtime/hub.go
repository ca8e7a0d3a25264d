package realtime

import (
	"sync"
)

// Hub coordinates sessions and logical rooms, one room per conversation.
// Membership is process-local and rebuilt empty after a restart; clients
// re-join on reconnect. Delivery is best effort: durability belongs to the
// message log, not here.
type Hub struct {
	mu           sync.RWMutex
	sessions     map[string]Session             // sessionID -> session
	rooms        map[string]map[string]Session  // conversationID -> sessionID -> session
	sessionRooms map[string]map[string]struct{} // sessionID -> set of conversationIDs
}

// NewHub constructs an initialized Hub.
func NewHub() *Hub {
	return &Hub{
		sessions:     make(map[string]Session),
		rooms:        make(map[string]map[string]Session),
		sessionRooms: make(map[string]map[string]struct{}),
	}
}

// Attach registers a session with the hub. A user may hold several live
// sessions (multiple tabs); each joins rooms independently.
func (h *Hub) Attach(s Session) {
	h.mu.Lock()
	h.sessions[s.SessionID()] = s
	h.sessionRooms[s.SessionID()] = make(map[string]struct{})
	h.mu.Unlock()
}

// Detach removes a session and its room memberships.
func (h *Hub) Detach(s Session) {
	h.mu.Lock()
	h.detachLocked(s.SessionID())
	h.mu.Unlock()
}

// Join adds the session to the conversation's room. Joining twice is a no-op.
func (h *Hub) Join(conversationID string, s Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.sessions[s.SessionID()]; !ok {
		return
	}

	room := h.rooms[conversationID]
	if room == nil {
		room = make(map[string]Session)
		h.rooms[conversationID] = room
	}
	room[s.SessionID()] = s
	h.sessionRooms[s.SessionID()][conversationID] = struct{}{}
}

// Leave removes the session from the conversation's room. Leaving a room the
// session never joined is a no-op.
func (h *Hub) Leave(conversationID string, s Session) {
	h.mu.Lock()
	h.leaveLocked(conversationID, s.SessionID())
	h.mu.Unlock()
}

// Broadcast writes payload to every member of the conversation's room except
// the session identified by excludeSessionID (empty means deliver to all).
// Sessions whose Send fails are dropped from the hub; a dead or slow client
// never stalls delivery to the rest of the room.
func (h *Hub) Broadcast(conversationID string, payload []byte, excludeSessionID string) int {
	h.mu.RLock()
	room := h.rooms[conversationID]
	members := make([]Session, 0, len(room))
	for _, s := range room {
		if s.SessionID() == excludeSessionID {
			continue
		}
		members = append(members, s)
	}
	h.mu.RUnlock()

	delivered := 0
	var failed []Session
	for _, s := range members {
		if err := s.Send(payload); err != nil {
			failed = append(failed, s)
			continue
		}
		delivered++
	}

	if len(failed) > 0 {
		h.mu.Lock()
		for _, s := range failed {
			h.detachLocked(s.SessionID())
		}
		h.mu.Unlock()
	}
	return delivered
}

// RoomSize reports the current member count of a conversation's room.
func (h *Hub) RoomSize(conversationID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[conversationID])
}

// Close clears all hub state. Connections are closed by their own teardown.
func (h *Hub) Close() {
	h.mu.Lock()
	h.sessions = make(map[string]Session)
	h.rooms = make(map[string]map[string]Session)
	h.sessionRooms = make(map[string]map[string]struct{})
	h.mu.Unlock()
}

func (h *Hub) detachLocked(sessionID string) {
	if _, ok := h.sessions[sessionID]; !ok {
		return
	}
	delete(h.sessions, sessionID)
	for roomID := range h.sessionRooms[sessionID] {
		h.leaveLocked(roomID, sessionID)
	}
	delete(h.sessionRooms, sessionID)
}

func (h *Hub) leaveLocked(conversationID, sessionID string) {
	room := h.rooms[conversationID]
	if room == nil {
		return
	}
	delete(room, sessionID)
	if len(room) == 0 {
		delete(h.rooms, conversationID)
	}
	if memberships, ok := h.sessionRooms[sessionID]; ok {
		delete(memberships, conversationID)
	}
}
