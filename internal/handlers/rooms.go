// internal/handlers/rooms.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/rummy/internal/room"
)

// RoomHandler serves GET /rooms/{code} with the room's roster, so clients can
// check a code before joining over the socket.
func RoomHandler(reg *room.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := reg.Get(r.PathValue("code"))
		if !ok {
			writeJSON(w, http.StatusNotFound, room.NewErrorMessage(room.ErrRoomNotFound, ""))
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

// Routes mounts the HTTP surface of the server on a new mux.
func Routes(hub *Hub, coord *room.Coordinator, opts WSOptions) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /ws", GameWSHandler(hub.logger, hub, coord, opts))
	mux.Handle("GET /rooms/{code}", RoomHandler(coord.Registry))
	mux.Handle("GET /healthz", HealthHandler(hub, coord.Registry))
	return mux
}
