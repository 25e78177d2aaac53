package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"realtime/internal/metrics"
	"realtime/internal/models"
	"realtime/internal/presence"
	"realtime/internal/session"
	"realtime/internal/utils"
)

type notifier interface {
	Publish(ctx context.Context, event models.NotificationEvent) error
}

type Handlers struct {
	log      *utils.Logger
	store    *presence.Store
	hub      *session.Hub
	notifier notifier
}

func NewHandlers(log *utils.Logger, n notifier) *Handlers {
	return NewHandlersWithDeps(log, presence.NewStore(), session.NewHub(), n)
}

func NewHandlersWithDeps(log *utils.Logger, store *presence.Store, hub *session.Hub, n notifier) *Handlers {
	return &Handlers{
		log:      log,
		store:    store,
		hub:      hub,
		notifier: n,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

// GetEntityPresence returns the current viewer list for an entity. Clients
// call this to render presence before their websocket is up.
func (h *Handlers) GetEntityPresence(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromURL(r)
	if !ok {
		http.Error(w, "invalid entity type or id", http.StatusBadRequest)
		return
	}

	token, err := utils.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if _, err := utils.ValidateAccessToken(token); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	writeJSON(w, models.PresenceResponse{
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Viewers:    h.store.GetUsers(ref),
	})
}

// NotifyEntity lets sibling services push an event to everyone viewing an
// entity. The event goes through redis so every instance delivers it.
// Callers authenticate with the same access tokens as every other endpoint.
func (h *Handlers) NotifyEntity(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromURL(r)
	if !ok {
		http.Error(w, "invalid entity type or id", http.StatusBadRequest)
		return
	}

	token, err := utils.ExtractTokenFromHeader(r.Header.Get("Authorization"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	if _, err := utils.ValidateAccessToken(token); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	var req models.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.Event == "" {
		http.Error(w, "event is required", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	event := models.NotificationEvent{
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Event:      req.Event,
		Data:       req.Data,
	}
	if err := h.notifier.Publish(ctx, event); err != nil {
		h.log.Error("failed to publish notification", "channel", ref.Channel(), "error", err.Error())
		http.Error(w, "failed to publish notification", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusAccepted)
	writeJSON(w, map[string]string{"status": "published"})
}

// DeliverNotification fans a notification out to the entity's room on this
// instance. Wired as the Notifier's subscription callback.
func (h *Handlers) DeliverNotification(event models.NotificationEvent) {
	ref := event.Ref()
	h.hub.Broadcast(ref.Channel(), models.WSFrame{Type: models.EventNotification, Data: event})
	metrics.NotificationDelivered()
}

/*** Collaboration WebSocket: presence + typing + notifications ***/
var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token is required", http.StatusUnauthorized)
		return
	}
	claims, err := utils.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(conn, claims.UserID, claims.Name)
	metrics.ConnOpened()
	defer metrics.ConnClosed()
	defer h.disconnect(client)

	h.log.Info("collab connection opened", "user", client.UserID)

	// Event loop
	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			return
		}
		h.HandleFrame(client, frame)
	}
}

// HandleFrame routes one inbound event. Exposed so tests can drive the state
// machine without a live socket.
func (h *Handlers) HandleFrame(client *session.Client, frame models.WSFrame) {
	metrics.CollabEvent(frame.Type)

	switch frame.Type {
	case models.EventViewing:
		h.handleViewing(client, frame.Data)
	case models.EventStoppedViewing:
		h.handleStoppedViewing(client, frame.Data)
	case models.EventTyping:
		h.handleTyping(client, frame.Data, true)
	case models.EventStoppedTyping:
		h.handleTyping(client, frame.Data, false)
	default:
		client.Send(errFrame("Unknown event type"))
	}
}

func (h *Handlers) handleViewing(client *session.Client, data interface{}) {
	var p models.EntityPayload
	marshal(data, &p)
	if !p.Valid() {
		client.Send(errFrame("Entity type and ID are required"))
		return
	}

	ref := p.Ref()
	h.store.AddUser(ref, models.UserPresence{UserID: client.UserID, UserName: client.UserName})
	h.hub.Join(ref.Channel(), client)
	h.broadcastPresence(ref)
}

// Stop-viewing is a best-effort cleanup signal: incomplete payloads are
// tolerated silently instead of answered with an error.
func (h *Handlers) handleStoppedViewing(client *session.Client, data interface{}) {
	var p models.EntityPayload
	marshal(data, &p)
	if !p.Valid() {
		return
	}

	ref := p.Ref()
	h.store.RemoveUser(ref, client.UserID)
	h.hub.Leave(ref.Channel(), client)
	h.broadcastPresence(ref)
}

func (h *Handlers) handleTyping(client *session.Client, data interface{}, started bool) {
	var p models.EntityPayload
	marshal(data, &p)
	if !p.Valid() {
		client.Send(errFrame("Entity type and ID are required"))
		return
	}

	payload := models.TypingPayload{
		UserID:     client.UserID,
		EntityType: p.EntityType,
		EntityID:   p.EntityID,
	}
	name := models.EventStoppedTyping
	if started {
		name = models.EventTyping
		payload.UserName = client.UserName
	}
	h.hub.BroadcastExcept(p.Ref().Channel(), client, models.WSFrame{Type: name, Data: payload})
}

// disconnect purges the user from every viewer set, tells each affected
// channel, then releases the connection's room memberships. Guarantees no
// ghost presence entries survive an ungraceful drop.
func (h *Handlers) disconnect(client *session.Client) {
	affected := h.store.RemoveUserFromAll(client.UserID)
	for _, ref := range affected {
		h.broadcastPresence(ref)
	}
	h.hub.LeaveAll(client)
	h.log.Info("collab connection closed", "user", client.UserID, "entities", len(affected))
}

func (h *Handlers) broadcastPresence(ref models.EntityRef) {
	update := models.PresenceUpdate{
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Viewers:    h.store.GetUsers(ref),
	}
	h.hub.Broadcast(ref.Channel(), models.WSFrame{Type: models.EventPresenceUpdate, Data: update})
	metrics.PresenceBroadcast()
}

func refFromURL(r *http.Request) (models.EntityRef, bool) {
	ref := models.EntityRef{
		Type: models.EntityType(chi.URLParam(r, "entityType")),
		ID:   chi.URLParam(r, "entityId"),
	}
	return ref, ref.ID != "" && ref.Type.Valid()
}

func marshal(in any, out any) { b, _ := json.Marshal(in); _ = json.Unmarshal(b, out) }

func errFrame(msg string) models.WSFrame {
	return models.WSFrame{Type: models.EventError, Data: models.ErrorPayload{Message: msg}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
