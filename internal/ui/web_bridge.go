package ui

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quantum-social/internal/signals"
)

//go:embed webui/static
var webFS embed.FS

// WebBridge serves a read-only star list in the browser over loopback. It
// pushes every snapshot over WebSocket and SSE and accepts read and command
// requests back.
type WebBridge struct {
	addr     string
	srv      *http.Server
	handler  http.Handler
	upgrader websocket.Upgrader
	submit   func(string)
	onRead   func(string)
	opts     RenderOptions
	logger   *zap.Logger

	stateMu sync.RWMutex
	latest  []signals.Signal

	clientsMu  sync.Mutex
	clients    map[*websocket.Conn]*sync.Mutex
	sseMu      sync.Mutex
	sseClients map[chan webEvent]struct{}
}

func NewWebBridge(addr string, submit func(string), onRead func(string), opts RenderOptions, logger *zap.Logger) (*WebBridge, error) {
	sub, err := fs.Sub(webFS, "webui/static")
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	wb := &WebBridge{
		addr:       addr,
		submit:     submit,
		onRead:     onRead,
		opts:       opts.withDefaults(),
		logger:     logger,
		clients:    make(map[*websocket.Conn]*sync.Mutex),
		sseClients: make(map[chan webEvent]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: sameHostOrigin,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", wb.handleIndex)
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(sub))))
	mux.HandleFunc("/ws", wb.handleWS)
	mux.HandleFunc("/events", wb.handleSSE)
	mux.HandleFunc("/api/signals", wb.handleSignals)
	mux.HandleFunc("/api/signals/", wb.handleRead)
	wb.handler = mux
	wb.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return wb, nil
}

// Handler exposes the routes without binding a listener.
func (wb *WebBridge) Handler() http.Handler {
	return wb.handler
}

func (wb *WebBridge) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		wb.Close()
	}()
	wb.logger.Info("web view listening", zap.String("url", "http://"+wb.addr))
	if err := wb.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("web view: %w", err)
	}
	return nil
}

func (wb *WebBridge) Close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = wb.srv.Shutdown(shutdownCtx)
	wb.clientsMu.Lock()
	for conn := range wb.clients {
		_ = conn.Close()
		delete(wb.clients, conn)
	}
	wb.clientsMu.Unlock()
}

// Addr exposes the configured listen address.
func (wb *WebBridge) Addr() string {
	return wb.addr
}

func (wb *WebBridge) ShowSignals(snapshot []signals.Signal) {
	wb.stateMu.Lock()
	wb.latest = snapshot
	wb.stateMu.Unlock()
	wb.sendEvent(webEvent{Kind: "snapshot", Signals: wb.views(snapshot)})
}

func (wb *WebBridge) ShowSystem(text string) {
	wb.sendEvent(webEvent{Kind: "system", Text: text})
}

func (wb *WebBridge) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	data, err := webFS.ReadFile("webui/static/index.html")
	if err != nil {
		http.Error(w, "missing assets", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func (wb *WebBridge) handleSignals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	wb.writeJSON(w, http.StatusOK, wb.views(wb.snapshot()))
}

// handleRead accepts POST /api/signals/{id}/read.
func (wb *WebBridge) handleRead(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/signals/")
	id, ok := strings.CutSuffix(rest, "/read")
	if !ok || id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	if wb.onRead != nil {
		wb.onRead(id)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (wb *WebBridge) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wb.upgrader.Upgrade(w, r, nil)
	if err != nil {
		wb.logger.Warn("ws upgrade", zap.Error(err))
		return
	}
	wb.join(conn)
	go wb.readLoop(conn)
}

func (wb *WebBridge) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "stream unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	ch := make(chan webEvent, 16)
	wb.addSSEClient(ch)
	defer wb.removeSSEClient(ch)

	writeEvent := func(evt webEvent) bool {
		data, err := json.Marshal(evt)
		if err != nil {
			return true
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Kind, data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !writeEvent(webEvent{Kind: "snapshot", Signals: wb.views(wb.snapshot())}) {
		return
	}
	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt := <-ch:
			if !writeEvent(evt) {
				return
			}
		}
	}
}

// clientCommand is what the page sends over the socket.
type clientCommand struct {
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
	Line   string `json:"line,omitempty"`
}

func (wb *WebBridge) readLoop(conn *websocket.Conn) {
	defer wb.unregister(conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var cmd clientCommand
		if err := json.Unmarshal(data, &cmd); err != nil {
			wb.logger.Debug("ws command decode", zap.Error(err))
			continue
		}
		switch cmd.Action {
		case "read":
			if cmd.ID != "" && wb.onRead != nil {
				wb.onRead(cmd.ID)
			}
		case "command":
			line := strings.TrimSpace(cmd.Line)
			if line != "" && wb.submit != nil {
				go wb.submit(line)
			}
		}
	}
}

// join makes conn visible to broadcasts with its write lock already held, so
// the replay of the latest snapshot is always the first frame it receives.
func (wb *WebBridge) join(conn *websocket.Conn) {
	writeMu := &sync.Mutex{}
	writeMu.Lock()
	defer writeMu.Unlock()

	wb.clientsMu.Lock()
	wb.clients[conn] = writeMu
	wb.clientsMu.Unlock()

	data, err := json.Marshal(webEvent{Kind: "snapshot", Signals: wb.views(wb.snapshot())})
	if err != nil {
		wb.logger.Warn("web replay encode", zap.Error(err))
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		wb.logger.Debug("web replay", zap.Error(err))
	}
}

func (wb *WebBridge) unregister(conn *websocket.Conn) {
	wb.clientsMu.Lock()
	delete(wb.clients, conn)
	wb.clientsMu.Unlock()
	_ = conn.Close()
}

func (wb *WebBridge) sendEvent(evt webEvent) {
	data, err := json.Marshal(evt)
	if err != nil {
		wb.logger.Warn("web event encode", zap.Error(err))
		return
	}
	wb.clientsMu.Lock()
	for conn, writeMu := range wb.clients {
		writeMu.Lock()
		err := conn.WriteMessage(websocket.TextMessage, data)
		writeMu.Unlock()
		if err != nil {
			wb.logger.Debug("web send", zap.Error(err))
			delete(wb.clients, conn)
			_ = conn.Close()
		}
	}
	wb.clientsMu.Unlock()
	wb.emitSSE(evt)
}

func (wb *WebBridge) addSSEClient(ch chan webEvent) {
	wb.sseMu.Lock()
	wb.sseClients[ch] = struct{}{}
	wb.sseMu.Unlock()
}

func (wb *WebBridge) removeSSEClient(ch chan webEvent) {
	wb.sseMu.Lock()
	delete(wb.sseClients, ch)
	wb.sseMu.Unlock()
}

// emitSSE drops events for stream clients that fall behind; the next
// snapshot supersedes what they missed.
func (wb *WebBridge) emitSSE(evt webEvent) {
	wb.sseMu.Lock()
	for ch := range wb.sseClients {
		select {
		case ch <- evt:
		default:
		}
	}
	wb.sseMu.Unlock()
}

func (wb *WebBridge) snapshot() []signals.Signal {
	wb.stateMu.RLock()
	defer wb.stateMu.RUnlock()
	return wb.latest
}

func (wb *WebBridge) views(snapshot []signals.Signal) []signalView {
	now := wb.opts.Now()
	out := make([]signalView, 0, len(snapshot))
	for _, sig := range snapshot {
		view := signalView{
			Signal:  sig,
			Badge:   signals.Badge(sig, now, wb.opts.ExpiringWindow),
			Summary: signals.Summary(sig),
		}
		if remaining, ok := sig.Remaining(now); ok {
			ms := remaining.Milliseconds()
			if ms < 0 {
				ms = 0
			}
			view.RemainingMS = &ms
		}
		out = append(out, view)
	}
	return out
}

func (wb *WebBridge) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		wb.logger.Warn("json write", zap.Error(err))
	}
}

// sameHostOrigin only lets pages served by this bridge open the socket.
func sameHostOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return strings.EqualFold(strings.TrimPrefix(strings.TrimPrefix(origin, "http://"), "https://"), r.Host)
}

type signalView struct {
	Signal      signals.Signal `json:"signal"`
	RemainingMS *int64         `json:"remaining_ms,omitempty"`
	Badge       string         `json:"badge"`
	Summary     string         `json:"summary"`
}

type webEvent struct {
	Kind    string       `json:"kind"`
	Text    string       `json:"text,omitempty"`
	Signals []signalView `json:"signals,omitempty"`
}
