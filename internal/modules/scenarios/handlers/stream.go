package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aristath/minesim/internal/modules/scenarios/progress"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

const (
	streamWriteWait = 10 * time.Second
	// streamBuffer bounds queued progress messages; extra updates are dropped
	streamBuffer = 64
)

// streamMessage is one server message on the sweep stream
type streamMessage struct {
	Type      string         `json:"type"` // "progress", "result" or "error"
	Current   int            `json:"current,omitempty"`
	Total     int            `json:"total,omitempty"`
	ElapsedMS int64          `json:"elapsed_ms,omitempty"`
	Result    *sweepResponse `json:"result,omitempty"`
	Status    int            `json:"status,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// HandleSweepStream handles GET /api/v1/simulate/sweep/stream. The client sends one
// sweep request as a text message; the server answers with progress messages and
// a final result or error, then closes the connection.
func (h *Handler) HandleSweepStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS is handled by the router
	})
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to accept sweep stream")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected exit")
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()

	var request sweepRequest
	_, data, err := conn.Read(ctx)
	if err != nil {
		h.log.Debug().Err(err).Msg("Sweep stream closed before a request arrived")
		return
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&request); err != nil {
		h.send(ctx, conn, streamMessage{Type: "error", Status: http.StatusBadRequest, Error: "Invalid request: " + err.Error()})
		conn.Close(websocket.StatusNormalClosure, "")
		return
	}

	updates := make(chan streamMessage, streamBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range updates {
			h.send(ctx, conn, msg)
		}
	}()

	response, err := h.sweep(ctx, request, func(u progress.Update) {
		select {
		case updates <- streamMessage{
			Type:      "progress",
			Current:   u.Current,
			Total:     u.Total,
			ElapsedMS: u.Elapsed.Milliseconds(),
		}:
		default:
		}
	})
	close(updates)
	<-done

	if err != nil {
		status, msg := h.errorMessage("Scenario sweep failed", err)
		h.send(ctx, conn, streamMessage{Type: "error", Status: status, Error: msg})
	} else {
		h.send(ctx, conn, streamMessage{Type: "result", Result: response})
	}
	conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Handler) send(ctx context.Context, conn *websocket.Conn, msg streamMessage) {
	writeCtx, cancel := context.WithTimeout(ctx, streamWriteWait)
	defer cancel()
	if err := wsjson.Write(writeCtx, conn, msg); err != nil {
		h.log.Debug().Err(err).Str("type", msg.Type).Msg("Failed to write sweep stream message")
	}
}
