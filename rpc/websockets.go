package rpc

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"cosmossdk.io/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/hashgraph/json-rpc-relay-go/server/config"
)

// wsReadLimit caps a single inbound frame; oversized frames close the
// connection.
const wsReadLimit = 1 << 20

// WebsocketsServer defines a server that handles Ethereum websockets.
type WebsocketsServer interface {
	Start()
}

// websocketsServer accepts JSON-RPC frames over a websocket and relays
// each one to the HTTP JSON-RPC endpoint. Subscriptions are not served.
type websocketsServer struct {
	rpcAddr string
	wsAddr  string
	logger  log.Logger
}

// NewWebsocketsServer creates a new websocket server instance relaying to
// the configured JSON-RPC address.
func NewWebsocketsServer(logger log.Logger, cfg *config.Config) WebsocketsServer {
	return &websocketsServer{
		rpcAddr: cfg.JSONRPCAddress,
		wsAddr:  cfg.WSAddress,
		logger:  logger.With(log.ModuleKey, "websocket-server"),
	}
}

// Start runs the websocket server in its own goroutine.
func (s *websocketsServer) Start() {
	ws := mux.NewRouter()
	ws.Handle("/", s)

	go func() {
		err := http.ListenAndServe(s.wsAddr, ws) // #nosec G114 -- timeouts are enforced per-frame
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error("failed to start websockets server", "error", err.Error())
		}
	}()
}

func (s *websocketsServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err.Error())
		return
	}

	s.readLoop(&wsConn{conn: conn})
}

type jsonRPCRequest struct {
	ID     interface{} `json:"id"`
	Method string      `json:"method"`
}

func (s *websocketsServer) readLoop(wsConn *wsConn) {
	defer wsConn.Close()
	wsConn.conn.SetReadLimit(wsReadLimit)

	for {
		_, mb, err := wsConn.ReadMessage()
		if err != nil {
			s.logger.Debug("read failed, closing websocket connection", "error", err.Error())
			return
		}

		var req jsonRPCRequest
		if err := json.Unmarshal(mb, &req); err != nil {
			s.sendErrResponse(wsConn, nil, -32600, "Invalid Request")
			continue
		}

		// Subscriptions need server-push state the relay does not keep.
		if strings.HasPrefix(req.Method, "eth_subscribe") || strings.HasPrefix(req.Method, "eth_unsubscribe") {
			s.sendErrResponse(wsConn, req.ID, -32601, "Unsupported JSON-RPC method")
			continue
		}

		response, err := s.relayToHTTP(mb)
		if err != nil {
			s.logger.Error("failed to relay websocket request", "method", req.Method, "error", err.Error())
			s.sendErrResponse(wsConn, req.ID, -32603, "Unknown error invoking RPC")
			continue
		}
		if err := wsConn.WriteMessage(websocket.TextMessage, response); err != nil {
			s.logger.Debug("write failed, closing websocket connection", "error", err.Error())
			return
		}
	}
}

// relayToHTTP forwards one raw frame to the JSON-RPC HTTP endpoint and
// returns the raw response body.
func (s *websocketsServer) relayToHTTP(frame []byte) ([]byte, error) {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post("http://"+s.rpcAddr, "application/json", bytes.NewReader(frame))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (s *websocketsServer) sendErrResponse(wsConn *wsConn, id interface{}, code int, msg string) {
	response := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]interface{}{
			"code":    code,
			"message": msg,
		},
	}
	_ = wsConn.WriteJSON(response)
}

// wsConn serializes writes to a websocket connection; gorilla connections
// support one concurrent writer only.
type wsConn struct {
	conn *websocket.Conn
	mux  sync.Mutex
}

func (w *wsConn) WriteJSON(v interface{}) error {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.conn.WriteJSON(v)
}

func (w *wsConn) WriteMessage(messageType int, data []byte) error {
	w.mux.Lock()
	defer w.mux.Unlock()
	return w.conn.WriteMessage(messageType, data)
}

func (w *wsConn) ReadMessage() (int, []byte, error) {
	return w.conn.ReadMessage()
}

func (w *wsConn) Close() error {
	return w.conn.Close()
}
