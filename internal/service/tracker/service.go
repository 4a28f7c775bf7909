package tracker

import (
	"context"
	"log"
	"sync"

	"github.com/questworld/questbot/internal/model/quest"
	"github.com/questworld/questbot/internal/service/forward"
)

// Chat is the outbound side of the chat transport: plain replies, one reply
// carrying a single labeled link, and removal of a prior message.
type Chat interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendMessageWithLink(ctx context.Context, chatID int64, text, label, url string) error
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
}

// Reply wording shown to travellers.
const (
	replyGreeting = "Stop! Who would cross into World of Quest must answer me one question only, but first share your live location for me and other travellers to see."
	replyAskQuest = "Great! With location known, to the main point we go - name your challenge. The more fun you offer, the more people will join your quest. Offering a reward? Write it out. \U0001F4DC"
	replyQuestSet = "Your quest has been shared to the world. Good luck on your journey."
	replyLiveOnly = "Please share your live location."
	replyEditAsk  = "A new challenge, then. Name it, and your quest shall be rewritten."
	replyEditNone = "You have no quest to rewrite. Share your live location to begin one."

	mapLinkLabel = "View the quest map"
)

// Service advances each traveller's conversation and hands completed
// location+quest tuples to the forwarder. One event per identity is handled
// at a time; cross-identity handling is free to interleave.
type Service struct {
	store     quest.Store
	forwarder forward.Forwarder
	chat      Chat
	mapURL    string

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewService wires the tracker. mapURL may be empty, in which case the quest
// confirmation is sent without a link.
func NewService(store quest.Store, forwarder forward.Forwarder, chat Chat, mapURL string) *Service {
	return &Service{
		store:     store,
		forwarder: forwarder,
		chat:      chat,
		mapURL:    mapURL,
		locks:     make(map[int64]*sync.Mutex),
	}
}

// lockIdentity serializes handling per identity. The host HTTP server may run
// handlers in parallel; sessions must still see one event at a time.
func (s *Service) lockIdentity(identity int64) func() {
	s.mu.Lock()
	l, ok := s.locks[identity]
	if !ok {
		l = &sync.Mutex{}
		s.locks[identity] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// HandleStart resets the traveller's session and greets them. The triggering
// command message is removed from the chat afterwards.
func (s *Service) HandleStart(ctx context.Context, identity, chatID int64, messageID int) error {
	defer s.lockIdentity(identity)()

	s.store.Reset(identity)
	if err := s.chat.SendMessage(ctx, chatID, replyGreeting); err != nil {
		return err
	}
	return s.chat.DeleteMessage(ctx, chatID, messageID)
}

// HandleLocation processes one position report. Static pins get a corrective
// reply and change nothing. A live share either advances INIT to
// LOCATION_SHARED with a quest prompt, idles in LOCATION_SHARED, or — in
// QUEST_SHARED — triggers a forward with the stored quest.
func (s *Service) HandleLocation(ctx context.Context, loc quest.LocationUpdate, chatID int64) error {
	defer s.lockIdentity(loc.Identity)()

	if !loc.Live() {
		return s.chat.SendMessage(ctx, chatID, replyLiveOnly)
	}

	session := s.store.Get(loc.Identity)
	next, ok := quest.Next(session.State, quest.EventLiveLocation)
	if !ok {
		return nil
	}

	if session.State == quest.StateInit {
		session.State = next
		s.store.Put(session)
		return s.chat.SendMessage(ctx, chatID, replyAskQuest)
	}

	if session.State == quest.StateQuestShared {
		payload := quest.ForwardPayload{
			Latitude:    loc.Latitude,
			Longitude:   loc.Longitude,
			LivePeriod:  loc.LivePeriod,
			Identity:    loc.Identity,
			Quest:       session.Quest,
			DisplayName: loc.DisplayName,
		}
		// Fire and forget: a backend failure is logged by the forwarder and
		// never reaches the traveller.
		if err := s.forwarder.Forward(ctx, payload); err != nil {
			log.Printf("[tracker] forward failed for user=%d: %v", loc.Identity, err)
		}
	}

	return nil
}

// HandleText collects quest text. It only acts while the session is in
// LOCATION_SHARED; in particular text received in QUEST_SHARED never
// overwrites the stored quest — rewriting goes through HandleEdit.
func (s *Service) HandleText(ctx context.Context, identity, chatID int64, text string) error {
	defer s.lockIdentity(identity)()

	session := s.store.Get(identity)
	next, ok := quest.Next(session.State, quest.EventQuestText)
	if !ok || text == "" {
		return nil
	}

	session.State = next
	session.Quest = text
	s.store.Put(session)

	if s.mapURL != "" {
		return s.chat.SendMessageWithLink(ctx, chatID, replyQuestSet, mapLinkLabel, s.mapURL)
	}
	return s.chat.SendMessage(ctx, chatID, replyQuestSet)
}

// HandleEdit rewinds a quest-bearing session to LOCATION_SHARED so a new
// quest can be supplied; forwarding pauses until it is. With no quest to
// rewrite the session is left untouched. The triggering command message is
// removed either way.
func (s *Service) HandleEdit(ctx context.Context, identity, chatID int64, messageID int) error {
	defer s.lockIdentity(identity)()

	session := s.store.Get(identity)
	next, ok := quest.Next(session.State, quest.EventEdit)
	if !ok || session.Quest == "" {
		if err := s.chat.SendMessage(ctx, chatID, replyEditNone); err != nil {
			return err
		}
		return s.chat.DeleteMessage(ctx, chatID, messageID)
	}

	session.State = next
	session.Quest = ""
	s.store.Put(session)

	if err := s.chat.SendMessage(ctx, chatID, replyEditAsk); err != nil {
		return err
	}
	return s.chat.DeleteMessage(ctx, chatID, messageID)
}

// HandleError records a failure for operators. It never raises further and
// leaves session state alone.
func (s *Service) HandleError(identity int64, err error) {
	if err == nil {
		return
	}
	if identity != 0 {
		log.Printf("[tracker] error handling update for user=%d: %v", identity, err)
		return
	}
	log.Printf("[tracker] error handling update: %v", err)
}
