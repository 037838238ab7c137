package command

import (
	"fmt"

	"github.com/yndnr/memkv/pkg/resp"
)

// Fixed replies.
const (
	ReplyOK          = "OK"
	ReplyQuit        = "Connection closing shortly"
	ReplyUnknown     = "ERR unknown command or malformed command arguments"
	ReplyNotArray    = "ERR Protocol error: expected array"
	ReplyParsePrefix = "ERR Protocol parsing error: "
)

// Store is the shared mapping commands operate on. Errors are returned only
// when the store itself is unusable, never because of key or value content.
type Store interface {
	Set(key string, value []byte) error
	Get(key string) ([]byte, bool, error)
	Delete(key string) (bool, error)
}

// Executor applies commands to a Store.
type Executor struct {
	store Store
}

// NewExecutor creates an executor for store.
func NewExecutor(store Store) *Executor {
	return &Executor{store: store}
}

// Execute runs cmd and returns the reply to send. A non-nil error means the
// store could not be accessed; the caller must not send a reply and should
// end the session.
func (e *Executor) Execute(cmd Command) (resp.Value, error) {
	switch cmd.Kind {
	case KindSet:
		if err := e.store.Set(cmd.Key, cmd.Value); err != nil {
			return resp.Value{}, fmt.Errorf("execute SET: %w", err)
		}
		return resp.SimpleString(ReplyOK), nil
	case KindGet:
		value, ok, err := e.store.Get(cmd.Key)
		if err != nil {
			return resp.Value{}, fmt.Errorf("execute GET: %w", err)
		}
		if !ok {
			return resp.Null(), nil
		}
		return resp.BulkString(value), nil
	case KindDel:
		found, err := e.store.Delete(cmd.Key)
		if err != nil {
			return resp.Value{}, fmt.Errorf("execute DEL: %w", err)
		}
		if found {
			return resp.Integer(1), nil
		}
		return resp.Integer(0), nil
	case KindQuit:
		return resp.SimpleString(ReplyQuit), nil
	default:
		return resp.Error(ReplyUnknown), nil
	}
}
