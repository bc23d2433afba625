// Package mongomq provides an AMQP-style message-queue channel backed by
// MongoDB, with point-to-point queues, fanout broadcast, and a durable
// routing table.
//
// Works both as a library for embedding in your application AND as a
// standalone broker service with REST API.
//
// # Features
//
//   - Atomic point-to-point dequeue via findAndModify (oldest message wins,
//     each message delivered to exactly one consumer)
//   - Fanout broadcast through a capped collection: every bound queue gets
//     its own tailing cursor and sees every message published after it bound
//   - Durable routing table with idempotent bindings (exchange, queue,
//     routing key, pattern)
//   - Non-blocking consumption: an empty queue is a normal outcome, not an
//     error; consumers poll on an interval with exponential backoff on
//     store failures
//   - Server version gate at connect time: unsupported servers are rejected
//     before any schema side effect
//   - Options Pattern for modern Go API design
//   - Pluggable architecture: bring your own Logger, Codec, Notification
//     system, or store adapter
//   - In-memory adapter for tests, including capped-collection eviction
//     semantics
//   - Cloud Native: 12-factor app, ENV config, health checks
//
// # Quick Start
//
// # Option 1: As Embedded Library
//
// Connect and create a transport:
//
//	import (
//	    "github.com/coregx/mongomq"
//	    "github.com/coregx/mongomq/adapters/mongo"
//	)
//
//	conn, err := mongo.Open(ctx, mongo.Config{
//	    Host:     "localhost",
//	    Database: "broker",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer conn.Close(ctx)
//
//	transport, _ := mongomq.NewTransport(
//	    mongomq.WithConnector(conn),
//	    mongomq.WithTransportLogger(logger),
//	)
//
// Open a channel and move messages:
//
//	channel, _ := transport.Channel(ctx)
//
//	// Point-to-point
//	channel.QueueDeclare("orders")
//	channel.Put(ctx, "orders", order)
//
//	var got Order
//	err = channel.Get(ctx, "orders", &got) // mongomq.IsNoMessage(err) when empty
//
//	// Fanout
//	channel.ExchangeDeclare(model.Exchange{Name: "events", Type: model.ExchangeFanout})
//	channel.QueueBind(ctx, "events", "", "", "audit")
//	channel.Publish(ctx, "events", "", event)
//
// Run a polling consumer:
//
//	consumer, _ := mongomq.NewConsumer(
//	    mongomq.WithConsumerChannel(channel, "orders"),
//	    mongomq.WithHandler(handler),
//	)
//	go consumer.Run(ctx, transport.PollingInterval())
//
// # Option 2: As Standalone Service
//
// Run the broker server:
//
//	cd cmd/mongomq-server
//	go run . # configured via MONGO_HOST, MONGO_DB, SERVER_PORT, ...
//
// Access REST API at http://localhost:8080:
//
//	# Publish message
//	curl -X POST http://localhost:8080/api/v1/publish \
//	  -H "Content-Type: application/json" \
//	  -d '{"exchange":"events","routingKey":"","payload":{"userId":123}}'
//
//	# Health check
//	curl http://localhost:8080/api/v1/health
//
// # Architecture
//
// The library separates channel semantics from storage:
//
//	┌─────────────────────────────────────┐
//	│         Application Layer           │
//	│  (Transport, Channel, Consumer,     │
//	│   REST API)                         │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│         Domain Layer                │
//	│  (QueueMessage, BroadcastMessage,   │
//	│   Binding, Exchange)                │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│          Store Adapters             │
//	│  (adapters/mongo, adapters/memory)  │
//	└─────────────┬───────────────────────┘
//	              │
//	┌─────────────▼───────────────────────┐
//	│      MongoDB (3 collections)        │
//	└─────────────────────────────────────┘
//
// Key principles:
//   - Channel owns the in-memory routing state (declared exchanges, fanout
//     registrations, tailing cursors); the stores own the durable state
//   - Store interfaces (QueueStore, BroadcastStore, RoutingStore) abstract
//     the database driver
//   - Dependency Inversion via interfaces (Logger, Codec, Notification)
//   - Options Pattern for service configuration
//
// # Message Flow
//
//  1. PUBLISH
//     Channel.Publish → direct queue (empty exchange)
//     → or capped broadcast collection (fanout exchange)
//     → or routing-table lookup, one copy per matching queue
//
//  2. CONSUME
//     Consumer → drain pass: Channel.Get until empty
//     → fanout queues read their tailing cursor (history skipped at bind)
//     → point-to-point queues remove the oldest document atomically
//     → store failures widen the poll interval with exponential backoff
//
//  3. MANAGE
//     QueueDelete removes bindings, drains the queue, drops the cursor
//     Purge empties a queue and reports how many messages it held
//
// # Collections
//
// The transport uses three collections, created on first connect:
//
//	messages            - point-to-point queue documents
//	messages.broadcast  - capped collection acting as the fanout ring buffer
//	messages.routing    - durable (exchange, queue, routing key, pattern) rows
//
// The broadcast collection's byte size is configurable; when full, MongoDB
// evicts the oldest documents automatically.
//
// # Examples
//
// See the examples/ directory for complete working examples.
//
// For detailed documentation, see README.md and pkg.go.dev.
package mongomq
