package handler

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"compliance-rag/database"
	"compliance-rag/service"
	"compliance-rag/types"
)

// WebsocketHandler streams generated answers over a websocket connection so
// clients can render tokens as they arrive.
type WebsocketHandler struct {
	vectorDB    database.VectorDatabase
	ai          *service.OpenAIService
	defaultTopK int
	upgrader    websocket.Upgrader
}

func NewWebsocketHandler(vectorDB database.VectorDatabase, ai *service.OpenAIService, defaultTopK int) *WebsocketHandler {
	return &WebsocketHandler{
		vectorDB:    vectorDB,
		ai:          ai,
		defaultTopK: defaultTopK,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins (adjust for production)
			},
		},
	}
}

func (h *WebsocketHandler) HandleAsk(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Println("Upgrade error:", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(512 * 1024)
	conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	for {
		messageType, p, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		var req types.WebsocketRequest
		if err := json.Unmarshal(p, &req); err != nil {
			conn.WriteMessage(messageType, []byte("Error processing message"))
			log.Println("Unmarshal error:", err)
			continue
		}

		switch req.Type {
		case types.TypeWebsocketAsk:
			h.handleAskMessage(ctx, conn, req)
		case types.TypeWebsocketPing:
			if err := conn.WriteJSON(types.WebsocketResponse{Type: types.TypeWebsocketPong}); err != nil {
				log.Println("Write error:", err)
			}
		default:
			log.Println("Invalid message type:", req.Type)
		}
	}
}

func (h *WebsocketHandler) handleAskMessage(ctx context.Context, conn *websocket.Conn, req types.WebsocketRequest) {
	payloadBytes, err := json.Marshal(req.Payload)
	if err != nil {
		h.writeError(conn, "Error processing message")
		return
	}
	var payload types.WebsocketAskPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		h.writeError(conn, "Error processing message")
		return
	}

	topK := payload.TopK
	if topK == 0 {
		topK = h.defaultTopK
	}

	chunks, err := h.vectorDB.SearchSimilar(ctx, payload.Question, topK)
	if err != nil {
		log.Println("Search error:", err)
		h.writeError(conn, "Search failed")
		return
	}

	// Ship the retrieved chunks first so the client can show citations
	// while the answer streams in.
	if err := conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeWebsocketChunk,
		Payload: types.SearchResponse{Chunks: chunks},
	}); err != nil {
		log.Println("Write error:", err)
		return
	}

	_, err = h.ai.GenerateStream(ctx, payload.Question, chunks, func(delta string) {
		if delta == "" {
			return
		}
		if err := conn.WriteJSON(types.WebsocketResponse{
			Type:    types.TypeWebsocketAnswer,
			Payload: types.WebsocketAnswerPayload{Delta: delta},
		}); err != nil {
			log.Println("Write error:", err)
		}
	})
	if err != nil {
		log.Println("Generation error:", err)
		h.writeError(conn, "Generation failed")
		return
	}

	if err := conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeWebsocketAnswer,
		Payload: types.WebsocketAnswerPayload{Done: true},
	}); err != nil {
		log.Println("Write error:", err)
	}
}

func (h *WebsocketHandler) writeError(conn *websocket.Conn, message string) {
	if err := conn.WriteJSON(types.WebsocketResponse{
		Type:    types.TypeWebsocketError,
		Payload: message,
	}); err != nil {
		log.Println("Write error:", err)
	}
}
