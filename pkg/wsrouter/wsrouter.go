package wsrouter

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/sharetube/watchparty/pkg/validator"
)

var (
	ErrUnknownMessageType = errors.New("unknown message type")
	ErrInvalidMessage     = errors.New("invalid message")
)

// PayloadError is returned when a payload cannot be decoded or fails validation.
type PayloadError struct {
	MessageType string
	Fields      []validator.ValidationError
	Err         error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s payload: %s", e.MessageType, e.Err)
	}

	return fmt.Sprintf("invalid %s payload", e.MessageType)
}

func (e *PayloadError) Unwrap() error {
	return e.Err
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type HandlerFunc[T any] func(ctx context.Context, input T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

type route func(ctx context.Context, payload json.RawMessage) error

type WSRouter struct {
	routes      map[string]route
	middlewares []Middleware
	validate    *validator.Validator
}

func New(validate *validator.Validator) *WSRouter {
	return &WSRouter{
		routes:   make(map[string]route),
		validate: validate,
	}
}

// Use appends middlewares. They only apply to handlers registered afterwards.
func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// Handle registers a typed handler. The payload is decoded into T and
// validated with `validate` struct tags before the handler runs.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	var next HandlerFunc[any] = func(ctx context.Context, input any) error {
		return handler(ctx, input.(T))
	}
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		next = r.middlewares[i](next)
	}

	r.routes[messageType] = func(ctx context.Context, payload json.RawMessage) error {
		var input T
		if len(payload) > 0 && string(payload) != "null" {
			if err := json.Unmarshal(payload, &input); err != nil {
				return &PayloadError{MessageType: messageType, Err: err}
			}
		}

		if fields, ok := r.validate.Validate(input); !ok {
			return &PayloadError{MessageType: messageType, Fields: fields}
		}

		return next(ctx, input)
	}
}

// Dispatch decodes an envelope and routes its payload to the registered handler.
func (r *WSRouter) Dispatch(ctx context.Context, data []byte) error {
	var msg message
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidMessage, err)
	}

	handler, ok := r.routes[msg.Type]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMessageType, msg.Type)
	}

	ctx = context.WithValue(ctx, messageTypeKey, msg.Type)

	return handler(ctx, msg.Payload)
}
