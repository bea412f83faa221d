package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The REST API already allows any origin; the websocket follows suit.
	CheckOrigin: func(*http.Request) bool { return true },
}

const wsWriteTimeout = 5 * time.Second

// watchJob streams job snapshots over a websocket until the job reaches a
// terminal state or the client disconnects.
func (s *Server) watchJob(c *gin.Context) {
	ch, cancel, ok := s.deps.Jobs.Watch(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, errorBody("job not found"))
		return
	}
	defer cancel()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		s.deps.Log.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for snapshot := range ch {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(snapshot); err != nil {
			return
		}
	}

	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "job finished"))
}
