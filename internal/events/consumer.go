package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Consumer defines the interface for event consumption
type Consumer interface {
	Start() error
	Close() error
}

// CacheInvalidator drops cached entries by key. Satisfied by the Redis
// repository.
type CacheInvalidator interface {
	DeleteCached(ctx context.Context, keys ...string) error
}

// CatalogEventConsumer drops cached app listings whenever the study builder
// publishes a catalog change. Permission rows are untouched: super-admin
// coverage is a snapshot taken at create/update time, not kept in sync here.
type CatalogEventConsumer struct {
	conn      *amqp091.Connection
	channel   *amqp091.Channel
	queueName string
	cache     CacheInvalidator
	shutdown  chan struct{}
	wg        sync.WaitGroup
	enabled   bool
}

func NewCatalogEventConsumer(rabbitURI string, cache CacheInvalidator) (*CatalogEventConsumer, error) {
	if rabbitURI == "" {
		log.Println("Warning: RabbitMQ URI is empty, event consumption is disabled")
		return &CatalogEventConsumer{
			cache:    cache,
			shutdown: make(chan struct{}),
			enabled:  false,
		}, nil
	}

	conn, err := amqp091.Dial(rabbitURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		"catalog-events", // name
		"topic",          // type
		true,             // durable
		false,            // auto-deleted
		false,            // internal
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare catalog-events exchange: %w", err)
	}

	queue, err := channel.QueueDeclare(
		"catalog.changed.studyadmin", // name
		true,                         // durable
		false,                        // delete when unused
		false,                        // exclusive
		false,                        // no-wait
		nil,                          // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	err = channel.QueueBind(
		queue.Name,
		"catalog.#",
		"catalog-events",
		false,
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to bind queue: %w", err)
	}

	return &CatalogEventConsumer{
		conn:      conn,
		channel:   channel,
		queueName: queue.Name,
		cache:     cache,
		shutdown:  make(chan struct{}),
		enabled:   true,
	}, nil
}

func (c *CatalogEventConsumer) Start() error {
	if !c.enabled {
		log.Println("Event consumption is disabled, consumer not started")
		return nil
	}

	deliveries, err := c.channel.Consume(
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.shutdown:
				return
			case delivery, ok := <-deliveries:
				if !ok {
					log.Println("Catalog event delivery channel closed")
					return
				}
				c.handleDelivery(delivery)
			}
		}
	}()

	log.Println("Catalog event consumer started")
	return nil
}

func (c *CatalogEventConsumer) handleDelivery(delivery amqp091.Delivery) {
	var event CatalogChangedEvent
	if err := json.Unmarshal(delivery.Body, &event); err != nil {
		log.Printf("Failed to decode catalog event: %v", err)
		delivery.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.cache.DeleteCached(ctx, "study-admin-apps"); err != nil {
		log.Printf("Failed to invalidate app listing cache: %v", err)
	} else {
		log.Printf("Invalidated app listing cache after catalog change: %s %s", event.ResourceType, event.ResourceID)
	}

	delivery.Ack(false)
}

func (c *CatalogEventConsumer) Close() error {
	if !c.enabled {
		return nil
	}

	close(c.shutdown)
	c.wg.Wait()

	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	if c.conn != nil {
		err = c.conn.Close()
	}
	return err
}
