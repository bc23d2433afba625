package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ExchangeType categorizes how an exchange routes published messages.
type ExchangeType string

const (
	// ExchangeDirect routes a message to queues bound with a matching
	// routing key. Direct messages land in the plain messages collection.
	ExchangeDirect ExchangeType = "direct"

	// ExchangeFanout broadcasts a message to every bound queue via the
	// capped broadcast collection.
	ExchangeFanout ExchangeType = "fanout"

	// ExchangeTopic routes by pattern match on the routing key.
	ExchangeTopic ExchangeType = "topic"
)

// Exchange represents a declared exchange. Declarations are channel-local:
// the durable routing collection stores bindings, not exchange metadata.
type Exchange struct {
	Name string       `json:"name"`
	Type ExchangeType `json:"type"`
}

// NewExchange creates an exchange declaration.
func NewExchange(name string, typ ExchangeType) Exchange {
	return Exchange{Name: name, Type: typ}
}

// IsFanout reports whether the exchange broadcasts to all bound queues.
func (e Exchange) IsFanout() bool {
	return e.Type == ExchangeFanout
}

// Validate checks the declaration.
func (e Exchange) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Name, validation.Required, validation.Length(1, 255)),
		validation.Field(&e.Type, validation.Required, validation.In(
			ExchangeDirect, ExchangeFanout, ExchangeTopic,
		)),
	)
}
