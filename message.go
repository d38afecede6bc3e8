package campfire

import (
	"context"
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Message types as they appear in transcript XML. The set is closed;
// anything else renders as nothing and gets a warning at parse time.
const (
	TypeEnter             = "EnterMessage"
	TypeKick              = "KickMessage"
	TypeLeave             = "LeaveMessage"
	TypeText              = "TextMessage"
	TypeUpload            = "UploadMessage"
	TypePaste             = "PasteMessage"
	TypeTopicChange       = "TopicChangeMessage"
	TypeConferenceCreated = "ConferenceCreatedMessage"
	TypeAllowGuests       = "AllowGuestsMessage"
	TypeDisallowGuests    = "DisallowGuestsMessage"
	TypeLock              = "LockMessage"
	TypeUnlock            = "UnlockMessage"
	TypeIdle              = "IdleMessage"
	TypeUnidle            = "UnidleMessage"
	TypeTweet             = "TweetMessage"
	TypeSound             = "SoundMessage"
	TypeTimestamp         = "TimestampMessage"
	TypeSystem            = "SystemMessage"
	TypeAdvertisement     = "AdvertisementMessage"
)

type messageListXML struct {
	Messages []messageXML `xml:"message"`
}

type messageXML struct {
	ID        string `xml:"id"`
	Type      string `xml:"type"`
	UserID    string `xml:"user-id"`
	Body      string `xml:"body"`
	CreatedAt string `xml:"created-at"`
}

type Message struct {
	ID        string
	Type      string
	Body      string
	User      string // resolved display name, empty for system types
	Timestamp string // local wall clock, e.g. "02:15 PM"
}

func parseTranscript(ctx context.Context, r *Room, date time.Time, raw []byte) (*Transcript, error) {
	var list messageListXML
	if err := xml.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("parse transcript: %w", err)
	}
	t := &Transcript{Room: r, Date: date}
	for _, mx := range list.Messages {
		t.Messages = append(t.Messages, newMessage(ctx, r.account, mx))
	}
	return t, nil
}

func newMessage(ctx context.Context, a *Account, mx messageXML) *Message {
	m := &Message{ID: mx.ID, Type: mx.Type, Body: mx.Body}
	if ts, err := parseAPITime(mx.CreatedAt, a.location); err == nil {
		m.Timestamp = ts.Format("03:04 PM")
	}
	switch mx.Type {
	case TypeTimestamp, TypeSystem, TypeAdvertisement:
		// no author
	default:
		m.User = a.users.Resolve(ctx, mx.UserID)
	}
	if !knownType(mx.Type) {
		a.logger.Warn("unknown message type", "type", mx.Type, "body", mx.Body)
	}
	return m
}

func knownType(t string) bool {
	switch t {
	case TypeEnter, TypeKick, TypeLeave, TypeText, TypeUpload, TypePaste,
		TypeTopicChange, TypeConferenceCreated, TypeAllowGuests,
		TypeDisallowGuests, TypeLock, TypeUnlock, TypeIdle, TypeUnidle,
		TypeTweet, TypeSound, TypeTimestamp, TypeSystem, TypeAdvertisement:
		return true
	}
	return false
}

// Render maps a message to its transcript line. It is total over
// (type, user, body, timestamp): unknown and silent types come back as
// the empty string, never an error.
func (m *Message) Render() string {
	switch m.Type {
	case TypeEnter:
		return fmt.Sprintf("[%s has entered the room]\n", m.User)
	case TypeKick, TypeLeave:
		return fmt.Sprintf("[%s has left the room]\n", m.User)
	case TypeText:
		return fmt.Sprintf("[%s:] %s\n", m.User, m.Body)
	case TypeUpload:
		return fmt.Sprintf("[%s uploaded: %s]\n", m.User, m.Body)
	case TypePaste:
		return fmt.Sprintf("[%s pasted:]\n%s\n", m.User, indent(m.Body, 2))
	case TypeTopicChange:
		return fmt.Sprintf("[%s changed the topic to: %s]\n", m.User, m.Body)
	case TypeConferenceCreated:
		return fmt.Sprintf("[%s created conference: %s]\n", m.User, m.Body)
	case TypeAllowGuests:
		return fmt.Sprintf("[%s opened the room to guests]\n", m.User)
	case TypeDisallowGuests:
		return fmt.Sprintf("[%s closed the room to guests]\n", m.User)
	case TypeLock:
		return fmt.Sprintf("[%s locked the room]\n", m.User)
	case TypeUnlock:
		return fmt.Sprintf("[%s unlocked the room]\n", m.User)
	case TypeIdle:
		return fmt.Sprintf("[%s became idle]\n", m.User)
	case TypeUnidle:
		return fmt.Sprintf("[%s became active]\n", m.User)
	case TypeTweet:
		return fmt.Sprintf("[%s tweeted:] %s\n", m.User, m.Body)
	case TypeSound:
		return fmt.Sprintf("[%s played a sound:] %s\n", m.User, m.Body)
	case TypeTimestamp:
		return fmt.Sprintf("--- %s ---\n", m.Timestamp)
	default:
		return ""
	}
}

// indent prefixes every line of s, preserving internal newlines.
func indent(s string, width int) string {
	pad := strings.Repeat(" ", width)
	return pad + strings.ReplaceAll(s, "\n", "\n"+pad)
}

const unknownUser = "[unknown user]"

// userCache memoizes user-id lookups for one run: at most one remote
// call per distinct id. Failed lookups are cached as the placeholder
// too, so a broken user endpoint costs one request instead of one per
// message.
type userCache struct {
	client *Client
	logger *slog.Logger
	names  map[string]string
}

func newUserCache(client *Client, logger *slog.Logger) *userCache {
	return &userCache{
		client: client,
		logger: logger,
		names:  map[string]string{},
	}
}

type userXML struct {
	Name string `xml:"name"`
}

func (c *userCache) Resolve(ctx context.Context, userID string) string {
	if userID == "" {
		return unknownUser
	}
	if name, ok := c.names[userID]; ok {
		return name
	}

	name := unknownUser
	body, err := c.client.Get(ctx, fmt.Sprintf("/users/%s.xml", userID))
	if err != nil {
		c.logger.Warn("could not resolve user", "user_id", userID, "error", err)
	} else {
		var ux userXML
		if err := xml.Unmarshal(body, &ux); err != nil || ux.Name == "" {
			c.logger.Warn("could not parse user record", "user_id", userID)
		} else {
			name = ux.Name
		}
	}
	c.names[userID] = name
	return name
}
