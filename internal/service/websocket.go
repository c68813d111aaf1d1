package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"wikirace/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 512
)

// Client 代表一個訂閱房間變更的 WebSocket 連接
type Client struct {
	Conn     *websocket.Conn
	PlayerID string
	RoomID   int
	SendChan chan *models.RoomEvent // 消息發送通道，用於異步傳送房間快照
}

// WebSocketService 管理所有的 WebSocket 連接，並在房間變更時推送快照
type WebSocketService struct {
	clients    map[int]map[*Client]bool // 兩層 map: roomID -> client -> bool
	clientsMux sync.RWMutex
	logger     *slog.Logger
}

func NewWebSocketService(logger *slog.Logger) *WebSocketService {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketService{
		clients: make(map[int]map[*Client]bool),
		logger:  logger,
	}
}

// HandleConnection 註冊連接並先送出目前的房間快照，阻塞直到連接關閉
func (s *WebSocketService) HandleConnection(conn *websocket.Conn, roomID int, playerID string, snapshot *models.Room) {
	client := &Client{
		Conn:     conn,
		PlayerID: playerID,
		RoomID:   roomID,
		SendChan: make(chan *models.RoomEvent, 16),
	}
	if snapshot != nil {
		event := models.NewRoomUpdatedEvent(roomID, snapshot)
		client.SendChan <- &event
	}

	s.addClient(client)
	go s.writePump(client)
	s.readPump(client)

	s.removeClient(client)
	conn.Close()
}

// readPump 只用來維持心跳與偵測斷線，客戶端送來的內容會被忽略
func (s *WebSocketService) readPump(client *Client) {
	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Warn("websocket unexpected close", "room_id", client.RoomID, "player_id", client.PlayerID, "error", err)
			}
			return
		}
	}
}

func (s *WebSocketService) writePump(client *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.SendChan:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteJSON(event); err != nil {
				s.logger.Debug("websocket write failed", "room_id", client.RoomID, "error", err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// BroadcastToRoom 向房間內的所有客戶端廣播事件，隊列已滿的客戶端會被斷線
func (s *WebSocketService) BroadcastToRoom(roomID int, event *models.RoomEvent) {
	var slow []*Client

	s.clientsMux.RLock()
	for client := range s.clients[roomID] {
		select {
		case client.SendChan <- event:
		default:
			slow = append(slow, client)
		}
	}
	s.clientsMux.RUnlock()

	for _, client := range slow {
		s.removeClient(client)
		client.Conn.Close()
	}
}

func (s *WebSocketService) RoomChanged(roomID int, room *models.Room) {
	event := models.NewRoomUpdatedEvent(roomID, room)
	s.BroadcastToRoom(roomID, &event)
}

func (s *WebSocketService) RoomDeleted(roomID int) {
	event := models.NewRoomDeletedEvent(roomID)
	s.BroadcastToRoom(roomID, &event)
}

func (s *WebSocketService) addClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	if s.clients[client.RoomID] == nil {
		s.clients[client.RoomID] = make(map[*Client]bool)
	}
	s.clients[client.RoomID][client] = true
}

// removeClient 移除客戶端並關閉其發送通道，重複呼叫是安全的
func (s *WebSocketService) removeClient(client *Client) {
	s.clientsMux.Lock()
	defer s.clientsMux.Unlock()

	clients, ok := s.clients[client.RoomID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.SendChan)
	if len(clients) == 0 {
		delete(s.clients, client.RoomID)
	}
}

// GetRoomClients 獲取指定房間的在線客戶端數量
func (s *WebSocketService) GetRoomClients(roomID int) int {
	s.clientsMux.RLock()
	defer s.clientsMux.RUnlock()

	return len(s.clients[roomID])
}
