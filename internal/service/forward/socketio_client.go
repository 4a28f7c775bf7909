package forward

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/questworld/questbot/internal/model/quest"
)

// SocketIO forwards payloads over a Socket.IO websocket connection. Each
// Forward opens its own channel to the backend, performs the handshake,
// emits one send_location event and closes — mirroring the one-emit clients
// the backend was built against.
type SocketIO struct {
	url          string
	displayField string
	dialer       *websocket.Dialer
}

// NewSocketIO prepares a forwarder against serverURL. displayField selects
// which display-name key the event carries (username or first_name);
// handshakeTimeout bounds the dial.
func NewSocketIO(serverURL, displayField string, handshakeTimeout time.Duration) (*SocketIO, error) {
	wsURL, err := websocketURL(serverURL)
	if err != nil {
		return nil, err
	}

	return &SocketIO{
		url:          wsURL,
		displayField: displayField,
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}, nil
}

// Forward dials the backend, completes the Socket.IO handshake and emits the
// send_location event. ctx bounds the whole exchange.
func (f *SocketIO) Forward(ctx context.Context, payload quest.ForwardPayload) error {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return fmt.Errorf("dial realtime backend: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	// Server opens with "0{...}".
	if _, err := f.readPacket(conn, packetOpen); err != nil {
		return fmt.Errorf("await open packet: %w", err)
	}

	// Join the default namespace and wait for the ack.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(packetConnect)); err != nil {
		return fmt.Errorf("send namespace connect: %w", err)
	}
	if _, err := f.readPacket(conn, packetConnect); err != nil {
		return fmt.Errorf("await namespace ack: %w", err)
	}

	event, err := encodeEvent(SendLocationEvent, payload.EventData(f.displayField))
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
		return fmt.Errorf("emit %s: %w", SendLocationEvent, err)
	}

	// Best effort: let the backend see a clean close instead of an abort.
	deadline := time.Now().Add(time.Second)
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	return nil
}

// readPacket reads text frames until one starts with want, answering any
// interleaved pings on the way.
func (f *SocketIO) readPacket(conn *websocket.Conn, want string) (string, error) {
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return "", err
		}
		if msgType != websocket.TextMessage {
			continue
		}

		packet := string(data)
		if strings.HasPrefix(packet, want) {
			return packet, nil
		}
		if strings.HasPrefix(packet, packetPing) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(packetPong)); err != nil {
				return "", err
			}
			continue
		}
	}
}
