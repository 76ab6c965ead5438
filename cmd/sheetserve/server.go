// Command sheetserve exposes a single engine.Engine over HTTP and
// WebSocket: viewers connect, receive the current sheet state, then a
// "cell_updated" frame for every populated cell each time an edit, undo or
// redo changes something. Edits serialize through one mutex so concurrent
// viewers never race the engine, keeping real-time collaboration limited to "everyone
// sees the same serialized edits" rather than true concurrent editing.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mvogt/gridcalc/address"
	"github.com/mvogt/gridcalc/cellval"
	"github.com/mvogt/gridcalc/engine"
	"github.com/mvogt/gridcalc/sheet"
	"github.com/mvogt/gridcalc/undo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // local dev only
}

// updateRequest is a viewer's edit, decoded off the WebSocket connection.
type updateRequest struct {
	Type  string `json:"type"`
	Addr  string `json:"addr"`
	Value string `json:"value"`
}

// updateResponse is one cell's new state, broadcast to every viewer.
type updateResponse struct {
	Type    string `json:"type"`
	Addr    string `json:"addr"`
	Raw     string `json:"raw"`
	Display string `json:"display"`
	Error   string `json:"error,omitempty"`
}

// Server owns the engine and the set of connected viewers. Every request
// that touches the engine runs on the goroutine handling that viewer's
// connection, serialized by mu — there is exactly one writer at a time.
type Server struct {
	mu      sync.Mutex
	engine  *engine.Engine
	history *undo.History
	clients map[*websocket.Conn]bool
}

// NewServer builds a server over a fresh, empty sheet.
func NewServer() *Server {
	return &Server{
		engine:  engine.New(sheet.New()),
		history: undo.NewHistory(undo.DefaultCapacity),
		clients: make(map[*websocket.Conn]bool),
	}
}

// HandleWebSocket upgrades the connection, sends the current sheet state,
// and then services edits until the connection closes.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("sheetserve: upgrade:", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.sendInitialState(conn)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var req updateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Println("sheetserve: bad request:", err)
			continue
		}
		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req updateRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Type {
	case "update_cell":
		a, err := address.Parse(req.Addr)
		if err != nil {
			log.Println("sheetserve: bad address:", req.Addr)
			return
		}
		s.history.Do(s.engine, undo.NewSetCell(s.engine, a, req.Value))
		s.broadcastAll()
	case "undo":
		if s.history.Undo(s.engine) {
			s.broadcastAll()
		}
	case "redo":
		if s.history.Redo(s.engine) {
			s.broadcastAll()
		}
	}
}

func (s *Server) sendInitialState(conn *websocket.Conn) {
	for _, a := range s.engine.Sheet().UsedRange() {
		c, ok := s.engine.Sheet().Get(a)
		if !ok {
			continue
		}
		if err := conn.WriteJSON(cellResponse(a, c)); err != nil {
			log.Println("sheetserve: initial state write:", err)
			return
		}
	}
}

// broadcastAll re-sends every populated cell. The engine has already
// recalculated its full dependent closure by the time this runs, so a
// full resync is simple and correct; a production server would instead
// track exactly which addresses the last edit touched and send only those.
func (s *Server) broadcastAll() {
	for _, a := range s.engine.Sheet().UsedRange() {
		c, ok := s.engine.Sheet().Get(a)
		if !ok {
			continue
		}
		s.broadcast(cellResponse(a, c))
	}
}

func (s *Server) broadcast(resp updateResponse) {
	for client := range s.clients {
		if err := client.WriteJSON(resp); err != nil {
			log.Println("sheetserve: broadcast write:", err)
			client.Close()
			delete(s.clients, client)
		}
	}
}

func cellResponse(a address.Addr, c sheet.Cell) updateResponse {
	resp := updateResponse{Type: "cell_updated", Addr: a.String(), Raw: c.Raw, Display: cellval.ToDisplayString(c.Value)}
	if e, ok := cellval.AsError(c.Value); ok {
		resp.Error = string(e.Code)
	}
	return resp
}
