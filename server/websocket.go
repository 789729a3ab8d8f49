package server

import (
	"encoding/json"

	"mnistnet/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SessionMessage is the first frame of every canvas session.
type SessionMessage struct {
	Session string `json:"session"`
}

// ErrorMessage answers a frame that could not be used. The session continues.
type ErrorMessage struct {
	Error string `json:"error"`
}

// canvasHandler upgrades to a websocket and answers every canvas frame with a
// Prediction.
func (hs *HTTPServer) canvasHandler(ctx *gin.Context) {
	conn, err := hs.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		utils.Logf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := uuid.New().String()
	if err := conn.WriteJSON(SessionMessage{Session: session}); err != nil {
		return
	}
	utils.Logf("canvas session %s opened", session)

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				utils.Logf("canvas session %s: %v", session, err)
			}
			break
		}
		if kind != websocket.TextMessage {
			continue
		}

		var req PredictRequest
		var reply interface{}
		if err := json.Unmarshal(data, &req); err != nil {
			reply = ErrorMessage{Error: "invalid message: " + err.Error()}
		} else if p, err := hs.predict(req.Pixels); err != nil {
			reply = ErrorMessage{Error: err.Error()}
		} else {
			reply = p
		}
		if err := conn.WriteJSON(reply); err != nil {
			break
		}
	}
	utils.Logf("canvas session %s closed", session)
}
