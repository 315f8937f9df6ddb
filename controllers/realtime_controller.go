package controllers

import (
	"net/http"
	"time"

	"backend/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

type RealtimeController struct {
	Hub  *services.RealtimeHub
	Meds *services.MedicationService
}

func NewRealtimeController(hub *services.RealtimeHub, ms *services.MedicationService) *RealtimeController {
	return &RealtimeController{Hub: hub, Meds: ms}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true }, // tighten behind a proxy if needed
}

// EventsWS streams medication snapshots and notices to the client. The
// subscription is cancelled when the socket closes, and the hub guarantees
// no deliveries after that.
func (rc *RealtimeController) EventsWS(c *gin.Context) {
	uid := c.GetString("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}

	ch, cancel := rc.Hub.Subscribe(uid)

	// initial snapshot so the client doesn't wait for the first mutation
	if meds, err := rc.Meds.List(c.Request.Context(), uid); err == nil {
		_ = conn.WriteJSON(services.Event{Kind: services.EventMedicationSnapshot, Payload: meds})
	}

	// read loop ends on client close/error → cancel the subscription
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		}
	}()

	// keep connections alive through proxies
	ticker := time.NewTicker(25 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				_ = conn.Close()
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		case <-ticker.C:
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				cancel()
				_ = conn.Close()
				return
			}
		}
	}
}
