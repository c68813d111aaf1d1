package service

import (
	"log/slog"

	"wikirace/internal/repository"
)

type Services struct {
	Room      *RoomService
	Progress  *ProgressService
	Validator *PathValidator
	Game      *GameService
	WebSocket *WebSocketService
}

func NewServices(repos *repository.Repositories, validator *PathValidator, opts RoomOptions, logger *slog.Logger) *Services {
	wsService := NewWebSocketService(logger)

	roomService := NewRoomService(repos.Room, wsService, logger, opts)
	progressService := NewProgressService(repos.Progress, repos.Result, roomService, logger)
	return &Services{
		Room:      roomService,
		Progress:  progressService,
		Validator: validator,
		Game:      NewGameService(roomService, progressService, validator, logger),
		WebSocket: wsService,
	}
}
