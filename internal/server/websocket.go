package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/MeKo-Tech/omrscore/internal/loader"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketDecodeRequest represents a decode request via WebSocket. Sheet
// carries the document bytes base64-encoded by the JSON layer.
type WebSocketDecodeRequest struct {
	Sheet    []byte                 `json:"sheet,omitempty"`
	Filename string                 `json:"filename,omitempty"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketDecodeResponse represents a decode response via WebSocket.
type WebSocketDecodeResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Progress  float64     `json:"progress,omitempty"`
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// syncConn serializes writes to a WebSocket connection so progress updates
// from worker goroutines cannot interleave.
type syncConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *syncConn) WriteMessage(messageType int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(messageType, data)
}

// decodeWebSocketHandler handles WebSocket connections for real-time decoding.
func (s *Server) decodeWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "client", getClientIP(r))

	s.handleWebSocketConnection(conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				return
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(conn, data)
		}
	}
}

// handleWebSocketMessage processes a WebSocket message.
func (s *Server) handleWebSocketMessage(conn *websocket.Conn, data []byte) {
	sc := &syncConn{conn: conn}

	var req WebSocketDecodeRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(sc, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	// Generate a request ID for tracking
	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	// Send processing start message
	s.sendWebSocketResponse(sc, WebSocketDecodeResponse{
		Type:      "decode_response",
		Status:    "processing",
		Progress:  0.0,
		RequestID: requestID,
	})

	s.processWebSocketDecode(sc, req, requestID)
}

// processWebSocketDecode runs the pipeline over an uploaded sheet, streaming
// per-page progress back to the client.
func (s *Server) processWebSocketDecode(conn WebSocketConnWriter, req WebSocketDecodeRequest, requestID string) {
	if len(req.Sheet) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No sheet data provided")
		return
	}

	reqConfig := s.extractWebSocketConfig(req.Options)

	pl, err := s.getPipelineForRequest(reqConfig)
	if err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to create pipeline: %v", err))
		return
	}

	// Stream per-page completion. Page progress holds the 0.1..0.9 range;
	// the bounds are the start and completion messages.
	progress := func(done, total int) {
		if total <= 0 {
			return
		}
		s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
			Type:      "decode_response",
			Status:    "processing",
			Progress:  0.1 + 0.8*float64(done)/float64(total),
			RequestID: requestID,
		})
	}

	start := time.Now()
	res, err := pl.WithProgress(progress).ProcessBytes(req.Sheet, loader.KindAuto)
	duration := time.Since(start)

	if err != nil {
		decodeRequestsTotal.WithLabelValues("websocket", "error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Decoding failed: %v", err))
		return
	}

	decodeRequestsTotal.WithLabelValues("websocket", "success").Inc()
	decodeProcessingDuration.WithLabelValues("websocket").Observe(duration.Seconds())
	decodePagesProcessed.WithLabelValues("websocket").Observe(float64(res.Pages))

	s.sendWebSocketResponse(conn, WebSocketDecodeResponse{
		Type:      "decode_response",
		Status:    "completed",
		Progress:  1.0,
		Result:    res,
		RequestID: requestID,
	})
}

// extractWebSocketConfig extracts RequestConfig from WebSocket options.
func (s *Server) extractWebSocketConfig(options map[string]interface{}) *RequestConfig {
	config := &RequestConfig{}

	if options == nil {
		return config
	}

	if val, ok := options["phase"].(string); ok {
		config.Phase = val
	}

	// Extract subjects as comma-separated string or []string
	if val, ok := options["subjects"].(string); ok {
		for _, sub := range strings.Split(val, ",") {
			if sub = strings.TrimSpace(sub); sub != "" {
				config.Subjects = append(config.Subjects, sub)
			}
		}
	} else if val, ok := options["subjects"].([]interface{}); ok {
		for _, sub := range val {
			if subStr, ok := sub.(string); ok {
				if subStr = strings.TrimSpace(subStr); subStr != "" {
					config.Subjects = append(config.Subjects, subStr)
				}
			}
		}
	}

	// Numeric options arrive as float64 from the JSON layer
	if val, ok := options["expected_questions"].(float64); ok {
		config.ExpectedQuestions = int(val)
	}
	if val, ok := options["responses"].(float64); ok {
		config.Respondents = int(val)
	}
	if val, ok := options["forms_per_page"].(float64); ok {
		config.FormsPerPage = int(val)
	}

	return config
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketDecodeResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, errorType, message string) {
	response := WebSocketDecodeResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	}

	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket error response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket error message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}
