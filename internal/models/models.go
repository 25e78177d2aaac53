package models

import "time"

// EntityType identifies the kind of board object clients collaborate on.
type EntityType string

const (
	EntityProject EntityType = "project"
	EntitySprint  EntityType = "sprint"
	EntityStory   EntityType = "story"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityProject, EntitySprint, EntityStory:
		return true
	}
	return false
}

// EntityRef identifies a single project, sprint or story.
type EntityRef struct {
	Type EntityType `json:"entityType"`
	ID   string     `json:"entityId"`
}

// Channel derives the broadcast channel name for an entity. Every component
// (presence store keys, room names, broadcast targets) goes through this one
// derivation.
func (r EntityRef) Channel() string {
	return string(r.Type) + ":" + r.ID
}

// UserPresence is one viewer entry in an entity's presence set.
type UserPresence struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
}

/*** WebSocket protocol ***/

// Inbound event names.
const (
	EventViewing        = "user:viewing"
	EventStoppedViewing = "user:stopped-viewing"
	EventTyping         = "user:typing"
	EventStoppedTyping  = "user:stopped-typing"
)

// Outbound event names.
const (
	EventError          = "error"
	EventPresenceUpdate = "presence:update"
	EventNotification   = "notification"
)

type WSFrame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// EntityPayload is the inbound payload shared by all four collaboration
// events.
type EntityPayload struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
}

func (p EntityPayload) Valid() bool {
	return p.EntityID != "" && p.EntityType.Valid()
}

func (p EntityPayload) Ref() EntityRef {
	return EntityRef{Type: p.EntityType, ID: p.EntityID}
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// PresenceUpdate carries the full current viewer list for an entity. It is
// broadcast to the whole channel, sender included, on every change.
type PresenceUpdate struct {
	EntityType EntityType     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Viewers    []UserPresence `json:"viewers"`
}

// TypingPayload is broadcast to every channel member except the typist.
// UserName is omitted on user:stopped-typing.
type TypingPayload struct {
	UserID     string     `json:"userId"`
	UserName   string     `json:"userName,omitempty"`
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
}

/*** Cross-service notifications ***/

// NotificationEvent is the envelope published on the redis notification
// channel by this service and its siblings (board CRUD, sprint scheduler)
// and fanned out to everyone viewing the entity.
type NotificationEvent struct {
	InstanceID string      `json:"instanceId"`
	EntityType EntityType  `json:"entityType"`
	EntityID   string      `json:"entityId"`
	Event      string      `json:"event"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (e NotificationEvent) Ref() EntityRef {
	return EntityRef{Type: e.EntityType, ID: e.EntityID}
}

// NotifyRequest is the body of the internal notify endpoint.
type NotifyRequest struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// PresenceResponse is returned by the REST presence read endpoint.
type PresenceResponse struct {
	EntityType EntityType     `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Viewers    []UserPresence `json:"viewers"`
}
