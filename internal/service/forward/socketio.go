package forward

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// Engine.IO v4 / Socket.IO packet framing, the subset the forwarder speaks:
// the server opens with "0{...}", the client joins the default namespace with
// "40", the server acks with "40{...}", and events go out as
// 42["<name>",<data>]. Pings ("2") are answered with pongs ("3").
const (
	packetOpen    = "0"
	packetPing    = "2"
	packetPong    = "3"
	packetConnect = "40"
	packetEvent   = "42"
)

// SendLocationEvent is the event name the realtime backend listens for.
const SendLocationEvent = "send_location"

// encodeEvent renders a Socket.IO event packet for the default namespace.
func encodeEvent(name string, data any) (string, error) {
	body, err := json.Marshal([]any{name, data})
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", name, err)
	}
	return packetEvent + string(body), nil
}

// websocketURL converts the configured backend address into the Engine.IO
// websocket endpoint. http/https schemes map onto ws/wss; a bare host gets
// ws.
func websocketURL(serverURL string) (string, error) {
	raw := strings.TrimSpace(serverURL)
	if raw == "" {
		return "", fmt.Errorf("backend address is empty")
	}
	if !strings.Contains(raw, "://") {
		raw = "ws://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse backend address %q: %w", serverURL, err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported backend scheme %q", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/socket.io/"
	u.RawQuery = "EIO=4&transport=websocket"
	return u.String(), nil
}
