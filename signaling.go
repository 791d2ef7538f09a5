package main

import (
	"net/http"

	"github.com/CodedInternet/motorlink/comms"
	"github.com/CodedInternet/motorlink/logger"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ConsoleHandler upgrades to a websocket and hands it to the conductor.
func ConsoleHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("upgrade: %v", err)
		return
	}
	defer conn.Close()

	ENV.Conductor.Serve(conn)
}

// StateHandler returns a snapshot of the device.
func StateHandler(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, comms.NewStatePayload(ENV.Device.State()))
}
