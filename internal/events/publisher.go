package events

import (
	"context"
	"log"
)

type Publisher interface {
	PublishEmailRequest(ctx context.Context, template, recipient string, args map[string]string) error
	PublishAuditEvent(ctx context.Context, eventName string, fields map[string]string) error

	// Close closes the publisher and releases resources
	Close() error
}

type EventPublisher struct {
	rabbitMQ *RabbitMQClient
	enabled  bool
}

func NewEventPublisher(rabbitURI string) (*EventPublisher, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event publishing is disabled")
		return &EventPublisher{
			rabbitMQ: nil,
			enabled:  false,
		}, nil
	}

	client, err := NewRabbitMQClient(rabbitURI)
	if err != nil {
		return nil, err
	}

	err = client.setupExchangesAndQueues()
	if err != nil {
		client.Close()
		return nil, err
	}

	return &EventPublisher{
		rabbitMQ: client,
		enabled:  true,
	}, nil
}

func (p *EventPublisher) PublishEmailRequest(ctx context.Context, template, recipient string, args map[string]string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping EmailRequestEvent")
		return nil
	}

	event := NewEmailRequestEvent(template, recipient, args)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("notification-events", string(EmailRequested), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published EmailRequest event, template: %s", template)
	return nil
}

func (p *EventPublisher) PublishAuditEvent(ctx context.Context, eventName string, fields map[string]string) error {
	if !p.enabled {
		log.Println("Event publishing is disabled, skipping AuditEvent")
		return nil
	}

	event := NewAuditEvent(eventName, fields)

	eventData, err := event.ToJSON()
	if err != nil {
		return err
	}

	err = p.rabbitMQ.PublishEvent("audit-events", string(AuditLogged), eventData)
	if err != nil {
		return err
	}

	log.Printf("Published Audit event: %s", eventName)
	return nil
}

// Close releases resources
func (p *EventPublisher) Close() error {
	if !p.enabled || p.rabbitMQ == nil {
		return nil
	}

	return p.rabbitMQ.Close()
}
