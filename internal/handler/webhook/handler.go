package webhook

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/questworld/questbot/internal/model/quest"
	"github.com/questworld/questbot/internal/service/tracker"
	"github.com/questworld/questbot/pkg/utils"
)

// Handler decodes inbound chat transport updates and dispatches them to the
// tracker. It always acks with 200: the transport redelivers anything else,
// and a malformed update would just come back forever.
type Handler struct {
	tracker      *tracker.Service
	displayField string
}

// New creates the webhook handler. displayField picks whether the username
// or the first name travels with forwarded locations.
func New(svc *tracker.Service, displayField string) *Handler {
	return &Handler{tracker: svc, displayField: displayField}
}

// RegisterRoutes mounts the webhook endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/webhook", h.handleUpdate)
}

// Wire shapes of the chat transport's update envelope, trimmed to the fields
// the bot reads.
type update struct {
	UpdateID      int64    `json:"update_id"`
	Message       *message `json:"message"`
	EditedMessage *message `json:"edited_message"`
}

type message struct {
	MessageID int       `json:"message_id"`
	From      *user     `json:"from"`
	Chat      chatRef   `json:"chat"`
	Text      string    `json:"text"`
	Location  *location `json:"location"`
}

type user struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type chatRef struct {
	ID int64 `json:"id"`
}

type location struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	LivePeriod int     `json:"live_period"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var u update
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid update body")
		return
	}

	// Position updates of an ongoing live share arrive as edited messages;
	// everything else comes in as a fresh message.
	msg := u.Message
	if msg == nil {
		msg = u.EditedMessage
	}
	if msg == nil || msg.From == nil {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
		return
	}

	ctx := r.Context()
	identity := msg.From.ID

	var err error
	switch {
	case msg.Location != nil:
		loc := quest.LocationUpdate{
			Latitude:    msg.Location.Latitude,
			Longitude:   msg.Location.Longitude,
			LivePeriod:  msg.Location.LivePeriod,
			Identity:    identity,
			DisplayName: h.displayName(msg.From),
		}
		err = h.tracker.HandleLocation(ctx, loc, msg.Chat.ID)
	case command(msg.Text) == "/start":
		err = h.tracker.HandleStart(ctx, identity, msg.Chat.ID, msg.MessageID)
	case command(msg.Text) == "/edit":
		err = h.tracker.HandleEdit(ctx, identity, msg.Chat.ID, msg.MessageID)
	case msg.Text != "":
		err = h.tracker.HandleText(ctx, identity, msg.Chat.ID, msg.Text)
	}

	if err != nil {
		// Reply delivery failed; log and move on so other chats keep working.
		h.tracker.HandleError(identity, err)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// command extracts a leading bot command from text, tolerating the
// @botname suffix used in group chats. Empty when text is not a command.
func command(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return ""
	}
	cmd := strings.Fields(trimmed)[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

// displayName resolves the configured display field, falling back to the
// other one when the preferred field is empty.
func (h *Handler) displayName(from *user) string {
	if h.displayField == quest.DisplayFieldFirstName {
		if from.FirstName != "" {
			return from.FirstName
		}
		return from.Username
	}
	if from.Username != "" {
		return from.Username
	}
	return from.FirstName
}
