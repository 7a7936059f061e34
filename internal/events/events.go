package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fleetops/config"
	"fleetops/internal/logger"

	"github.com/google/uuid"
	"github.com/valkey-io/valkey-go"
)

type Channel string

func (c Channel) String() string {
	return string(c)
}

const (
	BROADCAST_CHANNEL Channel = "broadcast"
	SEND_CHANNEL      Channel = "send"
)

type MessageType string

const (
	PING      MessageType = "ping"
	PONG      MessageType = "pong"
	MESSAGE   MessageType = "message"
	BROADCAST MessageType = "broadcast"
	SEND      MessageType = "send"
	ERROR     MessageType = "error"

	// Fleet lifecycle notifications fanned out to connected clients.
	CASE_SCHEDULED    MessageType = "case_scheduled"
	CASE_CHECKED_IN   MessageType = "case_checked_in"
	CASE_VALIDATED    MessageType = "case_validated"
	CASE_REJECTED     MessageType = "case_rejected"
	CASE_FINALIZED    MessageType = "case_finalized"
	BACKUP_REQUESTED  MessageType = "backup_requested"
	BACKUP_ASSIGNED   MessageType = "backup_assigned"
	SUPPLY_DECIDED    MessageType = "supply_decided"
	DOCUMENT_EXPIRING MessageType = "document_expiring"
	SLOTS_RECLAIMABLE MessageType = "slots_reclaimable"
)

type Event struct {
	ID        string         `json:"id"`
	Type      MessageType    `json:"type"`
	Channel   Channel        `json:"channel"`
	UserID    *uuid.UUID     `json:"userId,omitempty"`
	Data      map[string]any `json:"data"`
	Timestamp time.Time      `json:"timestamp"`
}

type EventHandler func(event Event) error

// Notifier is the outbound half of the bus. Controllers and jobs publish
// through it; subscription stays on the concrete EventBus.
type Notifier interface {
	NotifyUser(userID uuid.UUID, msgType MessageType, data map[string]any) error
	NotifyAll(msgType MessageType, data map[string]any) error
}

type EventBus struct {
	client   valkey.Client
	logger   logger.Logger
	config   config.Config
	handlers map[Channel][]EventHandler
	mutex    sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
}

func New(client valkey.Client, config config.Config) *EventBus {
	ctx, cancel := context.WithCancel(context.Background())

	return &EventBus{
		client:   client,
		logger:   logger.New("EventBus"),
		config:   config,
		handlers: make(map[Channel][]EventHandler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (eb *EventBus) Publish(channel Channel, event Event) error {
	log := eb.logger.Function("Publish")

	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.Channel == "" {
		event.Channel = channel
	}

	eventData, err := json.Marshal(event)
	if err != nil {
		return log.Err("failed to marshal event", err, "eventID", event.ID)
	}

	ctx, cancel := context.WithTimeout(eb.ctx, 5*time.Second)
	defer cancel()

	err = eb.client.Do(ctx, eb.client.B().Publish().Channel(channel.String()).Message(string(eventData)).Build()).
		Error()
	if err != nil {
		return log.Err(
			"failed to publish event to valkey",
			err,
			"channel",
			channel,
			"eventID",
			event.ID,
		)
	}

	log.Info("Event published", "channel", channel, "eventID", event.ID, "eventType", event.Type)

	// Also notify local handlers
	eb.notifyLocalHandlers(channel, event)

	return nil
}

func (eb *EventBus) Subscribe(channel Channel, handler EventHandler) error {
	log := eb.logger.Function("Subscribe")

	eb.mutex.Lock()
	eb.handlers[channel] = append(eb.handlers[channel], handler)
	eb.mutex.Unlock()

	log.Info("Handler subscribed to channel", "channel", channel)

	// Start listening to this channel if it's the first handler
	go eb.listenToChannel(channel)

	return nil
}

func (eb *EventBus) notifyLocalHandlers(channel Channel, event Event) {
	log := eb.logger.Function("notifyLocalHandlers")

	eb.mutex.RLock()
	handlers, exists := eb.handlers[channel]
	eb.mutex.RUnlock()

	if !exists || len(handlers) == 0 {
		return
	}

	for i, handler := range handlers {
		go func(h EventHandler, handlerIndex int) {
			if err := h(event); err != nil {
				log.Er(
					"handler failed",
					err,
					"channel",
					channel,
					"eventID",
					event.ID,
					"handlerIndex",
					handlerIndex,
				)
			}
		}(handler, i)
	}
}

func (eb *EventBus) listenToChannel(channel Channel) {
	log := eb.logger.Function("listenToChannel")

	ctx, cancel := context.WithCancel(eb.ctx)
	defer cancel()

	log.Info("Starting to listen to channel", "channel", channel)

	err := eb.client.Receive(
		ctx,
		eb.client.B().Subscribe().Channel(channel.String()).Build(),
		func(msg valkey.PubSubMessage) {
			var event Event
			if err := json.Unmarshal([]byte(msg.Message), &event); err != nil {
				log.Er("failed to unmarshal event", err, "channel", channel, "message", msg.Message)
				return
			}

			log.Info(
				"Received event from valkey",
				"channel",
				channel,
				"eventID",
				event.ID,
				"eventType",
				event.Type,
			)
			eb.notifyLocalHandlers(channel, event)
		},
	)
	if err != nil {
		log.Er("failed to listen to channel", err, "channel", channel)
	}
}

func (eb *EventBus) Close() error {
	log := eb.logger.Function("Close")

	eb.cancel()

	log.Info("EventBus closed")
	return nil
}

// NotifyUser publishes a targeted event for one user's open connections.
func (eb *EventBus) NotifyUser(userID uuid.UUID, msgType MessageType, data map[string]any) error {
	return eb.Publish(SEND_CHANNEL, Event{
		Type:   msgType,
		UserID: &userID,
		Data:   data,
	})
}

// NotifyAll publishes a broadcast event for every connected client.
func (eb *EventBus) NotifyAll(msgType MessageType, data map[string]any) error {
	return eb.Publish(BROADCAST_CHANNEL, Event{
		Type: msgType,
		Data: data,
	})
}
