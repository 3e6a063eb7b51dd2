package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Acciones soportadas por el socket
const (
	ActionPing   = "ping"
	ActionAdd    = "add"
	ActionStatus = "status"
	ActionWait   = "wait"
	ActionList   = "list"
	ActionStats  = "stats"
)

// Server es el servidor Unix socket
type Server struct {
	socketPath string
	listener   net.Listener
	handlers   *Handlers
	logger     zerolog.Logger
	conns      sync.WaitGroup
}

// Request representa una petición al daemon
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// Response representa una respuesta del daemon
type Response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// NewServer crea un nuevo servidor
func NewServer(socketPath string, handlers *Handlers, logger zerolog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		handlers:   handlers,
		logger:     logger.With().Str("component", "server").Logger(),
	}
}

// Start inicia el servidor
func (s *Server) Start(ctx context.Context) error {
	dir := filepath.Dir(s.socketPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create socket dir: %w", err)
	}

	// Limpiar socket anterior si existe
	os.Remove(s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("chmod socket: %w", err)
	}

	s.logger.Info().Str("socket", s.socketPath).Msg("server listening")

	go s.acceptLoop(ctx)

	return nil
}

// acceptLoop acepta conexiones entrantes
func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn().Err(err).Msg("accept error")
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConnection(ctx, conn)
		}()
	}
}

// handleConnection atiende una petición por conexión
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var req Request
	if err := json.NewDecoder(conn).Decode(&req); err != nil {
		s.writeResponse(conn, errorResponse(fmt.Errorf("decode request: %w", err)))
		return
	}

	s.logger.Debug().Str("action", req.Action).Msg("request received")

	s.writeResponse(conn, s.route(ctx, req))
}

// route despacha la acción al handler correspondiente
func (s *Server) route(ctx context.Context, req Request) Response {
	switch req.Action {
	case ActionAdd:
		return s.handlers.HandleAdd(ctx, req.Payload)
	case ActionStatus:
		return s.handlers.HandleStatus(ctx, req.Payload)
	case ActionWait:
		return s.handlers.HandleWait(ctx, req.Payload)
	case ActionList:
		return s.handlers.HandleList(ctx, req.Payload)
	case ActionStats:
		return s.handlers.HandleStats(ctx)
	case ActionPing:
		return Response{Success: true, Data: json.RawMessage(`{"message":"pong"}`)}
	default:
		return Response{Success: false, Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}
}

func (s *Server) writeResponse(conn net.Conn, resp Response) {
	if err := json.NewEncoder(conn).Encode(resp); err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode response")
	}
}

func errorResponse(err error) Response {
	return Response{Success: false, Error: err.Error()}
}

// Stop cierra el listener, espera las conexiones abiertas y borra el socket
func (s *Server) Stop() error {
	s.logger.Info().Msg("server stopping")
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	s.conns.Wait()
	os.Remove(s.socketPath)
	return err
}
