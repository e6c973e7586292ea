// Package server runs simulations for remote clients over WebSocket.
package server

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/racesim/internal/config"
	"github.com/lawnchairsociety/racesim/internal/database"
	"github.com/lawnchairsociety/racesim/internal/logger"
	"github.com/lawnchairsociety/racesim/internal/race"
)

// RunStore persists completed runs. *database.Database implements it.
type RunStore interface {
	SaveRun(ctx context.Context, rec database.RunRecord) (int64, error)
}

// Server serves the /ws simulation endpoint and /healthz.
type Server struct {
	cfg         config.WebSocketConfig
	store       RunStore
	connLimiter *ConnLimiter
	mux         *http.ServeMux
	shutdown    chan struct{}
}

// New creates a server. store may be nil, in which case results are not saved.
func New(cfg config.WebSocketConfig, store RunStore) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		connLimiter: NewConnLimiter(cfg.MaxConnectionsPerIP, cfg.MaxConnections),
		mux:         http.NewServeMux(),
		shutdown:    make(chan struct{}),
	}
	s.mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	s.mux.HandleFunc("/healthz", handleHealth)
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe serves on address until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, address string) error {
	httpServer := &http.Server{
		Addr:              address,
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("WebSocket server listening", "address", address)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("WebSocket server shutting down")
	close(s.shutdown)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	clientIP := getRealIP(r)

	if !s.connLimiter.TryAcquire(clientIP) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", clientIP)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(clientIP)
		return
	}

	go s.handleWebSocketConnection(wsConn, clientIP)
}

// handleWebSocketConnection serves run requests until the client disconnects.
func (s *Server) handleWebSocketConnection(wsConn *websocket.Conn, clientIP string) {
	defer func() {
		s.connLimiter.Release(clientIP)
		wsConn.Close()
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	client := NewWebSocketClient(wsConn, s.cfg.MaxMessageSize)
	logger.Debug("WebSocket client connected", "client_ip", clientIP)

	for {
		req, decodeErr, err := client.ReadRequest()
		if err != nil {
			logger.Debug("WebSocket client disconnected", "client_ip", clientIP, "reason", err)
			return
		}
		if decodeErr != nil {
			if err := client.Send(requestError("invalid request: " + decodeErr.Error())); err != nil {
				return
			}
			continue
		}
		if err := s.handleRun(ctx, client, req); err != nil {
			logger.Debug("WebSocket write failed", "client_ip", clientIP, "error", err)
			return
		}
	}
}

// handleRun executes one request. The returned error is a write failure;
// simulation failures are reported to the client instead.
func (s *Server) handleRun(ctx context.Context, client *WebSocketClient, req RunRequest) error {
	if req.Type != TypeRun {
		return client.Send(requestError("unsupported message type " + strconv.Quote(req.Type)))
	}
	if s.cfg.MaxTrials > 0 && req.Simulation.Trials > s.cfg.MaxTrials {
		return client.Send(requestError("trials exceeds the server limit"))
	}
	if limit := s.workerLimit(); req.Simulation.Workers > limit {
		logger.Debug("Clamping requested workers",
			"remote_addr", client.RemoteAddr(),
			"requested", req.Simulation.Workers,
			"limit", limit)
		req.Simulation.Workers = limit
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	relay := &progressRelay{send: client.Send, cancel: cancel}

	result, err := race.Run(runCtx, req.AgentA, req.AgentB, req.Simulation,
		race.WithProgress(progressInterval(req), relay.report))
	if relay.err != nil {
		return relay.err
	}
	if err != nil {
		logger.Info("Remote run failed", "remote_addr", client.RemoteAddr(), "error", err)
		return client.Send(errorMessage(err))
	}

	var runID int64
	if s.store != nil {
		runID, err = s.store.SaveRun(ctx, database.NewRunRecord(result))
		if err != nil {
			logger.Error("Failed to save remote run", "error", err)
		}
	}

	logger.Info("Remote run complete",
		"remote_addr", client.RemoteAddr(),
		"trials", result.Trials,
		"wins_a", result.WinsA,
		"wins_b", result.WinsB,
		"run_id", runID)

	return client.Send(resultMessage(result, runID))
}

// workerLimit is the most workers one remote request may use.
func (s *Server) workerLimit() int {
	if s.cfg.MaxWorkers > 0 {
		return s.cfg.MaxWorkers
	}
	return runtime.NumCPU()
}

// progressRelay forwards progress to the client. The first failed send
// cancels the run and stops further sends.
type progressRelay struct {
	send   func(Message) error
	cancel context.CancelFunc
	err    error
}

func (p *progressRelay) report(completed, total int) {
	if p.err != nil {
		return
	}
	if err := p.send(progressMessage(completed, total)); err != nil {
		p.err = err
		p.cancel()
	}
}

// getRealIP extracts the real client IP from an HTTP request.
// It checks X-Forwarded-For header first (for reverse proxy setups),
// then falls back to the direct remote address.
func getRealIP(r *http.Request) string {
	// X-Forwarded-For can contain multiple IPs: "client, proxy1, proxy2"
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if clientIP := strings.TrimSpace(ips[0]); clientIP != "" {
			return clientIP
		}
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	return extractIP(r.RemoteAddr)
}
