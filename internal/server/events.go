package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"dropsense/internal/log"
	"dropsense/internal/protocol"

	"github.com/gorilla/websocket"
)

const (
	eventsWriteWait = 10 * time.Second
	eventsPongWait  = 60 * time.Second
	eventsPingEvery = (eventsPongWait * 9) / 10
)

var eventsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// errorMessage is sent when an inbound message cannot be handled
type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// events streams file and exit events. Inbound messages are gesture
// commands forwarded to the helper, or {"type":"ping"}.
func (h *handler) events(w http.ResponseWriter, r *http.Request) {
	conn, err := eventsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(eventsPongWait)); err != nil {
		log.LogWithError(err).Warn("events ws set read deadline failed")
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(eventsPongWait))
	})

	writeCh := make(chan []byte, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(eventsPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(eventsWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	subCh, unsubscribe := h.host.Subscribe()
	defer unsubscribe()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-subCh:
				if !ok {
					return
				}
				switch ev.(type) {
				case protocol.FileDetected, protocol.Exit:
				default:
					continue
				}
				data, err := protocol.Encode(ev)
				if err != nil {
					log.LogError(err, "failed to encode event")
					continue
				}
				push(writeCh, data)
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			cancel()
			<-writerDone
			return
		}

		cmd, err := protocol.DecodeCommand(data)
		if err != nil {
			pushError(writeCh, err.Error())
			continue
		}
		if cmd.Type == "ping" {
			push(writeCh, []byte(`{"type":"pong"}`))
			continue
		}
		if err := h.host.Send(cmd); err != nil {
			pushError(writeCh, err.Error())
		}
	}
}

func pushError(writeCh chan []byte, msg string) {
	data, err := json.Marshal(errorMessage{Type: "error", Message: msg})
	if err != nil {
		return
	}
	push(writeCh, data)
}

// push never blocks. When the queue is full the oldest message is dropped.
func push(writeCh chan []byte, msg []byte) {
	select {
	case writeCh <- msg:
		return
	default:
	}
	select {
	case <-writeCh:
	default:
	}
	select {
	case writeCh <- msg:
	default:
	}
}
