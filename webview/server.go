// Package webview serves a live browser view of a tabula sheet: an
// initial snapshot over a WebSocket connection, followed by one
// cell_updated message per edit as the sheet changes.
package webview

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/websocket"

	"tabula/position"
	"tabula/spreadsheet"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server bridges a Sheet to any number of connected browser clients over
// WebSocket, broadcasting every committed edit.
type Server struct {
	Sheet   *spreadsheet.Sheet
	assets  string
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
}

// NewServer wraps sheet for live viewing; assetsDir is served at "/" (a
// directory holding the static viewer page and its scripts), and may be
// "" to disable static serving (API-only use, e.g. in tests).
func NewServer(sheet *spreadsheet.Sheet, assetsDir string) *Server {
	s := &Server{
		Sheet:   sheet,
		assets:  assetsDir,
		clients: make(map[*websocket.Conn]bool),
	}
	sheet.OnChange(s.broadcastChange)
	return s
}

// UpdateRequest is a client -> server message: set or clear a cell.
type UpdateRequest struct {
	Type  string `json:"type"`
	Pos   string `json:"pos"`
	Value string `json:"value"`
}

// UpdateResponse is a server -> client message describing one cell's
// current state, or an error for a rejected request.
type UpdateResponse struct {
	Type  string `json:"type"`
	Pos   string `json:"pos"`
	Value string `json:"value"`
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// HandleWebSocket upgrades the connection, streams the current sheet
// state, then keeps the connection open for both inbound edit requests
// and outbound change broadcasts.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("webview: upgrade error:", err)
		return
	}

	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	s.sendSnapshot(conn)

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var req UpdateRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			log.Println("webview: bad request:", err)
			continue
		}

		pos, ok := position.FromString(req.Pos)
		if !ok {
			s.sendError(conn, req.Pos, "invalid position")
			continue
		}

		switch req.Type {
		case "set_cell":
			if err := s.Sheet.SetCell(pos, req.Value); err != nil {
				s.sendError(conn, req.Pos, err.Error())
			}
		case "clear_cell":
			if err := s.Sheet.ClearCell(pos); err != nil {
				s.sendError(conn, req.Pos, err.Error())
			}
		default:
			log.Printf("webview: unknown request type %q", req.Type)
		}
	}
}

func (s *Server) sendSnapshot(conn *websocket.Conn) {
	rows, cols := s.Sheet.PrintableSize()
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			p := position.Position{Row: row, Col: col}
			cell, err := s.Sheet.GetCell(p)
			if err != nil || cell == nil {
				continue
			}
			if err := conn.WriteJSON(s.responseFor(p)); err != nil {
				log.Printf("webview: snapshot write failed: %v", err)
				return
			}
		}
	}
}

func (s *Server) sendError(conn *websocket.Conn, posText, message string) {
	_ = conn.WriteJSON(UpdateResponse{Type: "cell_updated", Pos: posText, Error: message})
}

func (s *Server) responseFor(pos position.Position) UpdateResponse {
	cell, _ := s.Sheet.GetCell(pos)
	if cell == nil {
		return UpdateResponse{Type: "cell_updated", Pos: pos.String()}
	}
	return UpdateResponse{
		Type:  "cell_updated",
		Pos:   pos.String(),
		Value: cell.Value().String(),
		Text:  cell.Text(),
	}
}

// broadcastChange is the Sheet.OnChange hook: it pushes the edited
// position's current state to every connected client.
func (s *Server) broadcastChange(pos position.Position) {
	resp := s.responseFor(pos)

	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		if err := client.WriteJSON(resp); err != nil {
			log.Printf("webview: broadcast write failed: %v", err)
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

// Start serves the static viewer (if an assets directory was configured)
// and the WebSocket endpoint at /ws, blocking until the HTTP server
// stops.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	if s.assets != "" {
		if _, err := os.Stat(s.assets); os.IsNotExist(err) {
			log.Printf("webview: static directory %s not found", s.assets)
		} else {
			log.Printf("webview: serving static files from %s", s.assets)
		}
		mux.Handle("/", http.FileServer(http.Dir(s.assets)))
	}

	mux.HandleFunc("/ws", s.HandleWebSocket)

	log.Printf("webview: listening at http://%s", addr)
	return http.ListenAndServe(addr, mux)
}
