package service

import (
	"context"
	"sync"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/session"
	"github.com/google/uuid"
)

type recordedEvent struct {
	topic string
	key   string
	event any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
	err    error
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, topic, key string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{topic: topic, key: key, event: event})
	return p.err
}

func (p *recordingPublisher) all() []recordedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedEvent(nil), p.events...)
}

func userSession(id uuid.UUID) session.Session {
	return session.Session{UserID: id, Role: models.RoleUser}
}

func adminSession(id uuid.UUID) session.Session {
	return session.Session{UserID: id, Role: models.RoleAdmin}
}
