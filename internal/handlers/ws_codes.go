// internal/handlers/ws_codes.go
package handlers

import "github.com/coder/websocket"

// Custom WebSocket close codes used by the game handler.
// These provide more specific reasons for closure than standard codes.
const (
	BadSubprotocolError websocket.StatusCode = 3000 // Client connected without the rummy subprotocol.
	SlowConsumerError   websocket.StatusCode = 3001 // Outbound writes timed out.
)
