package wrapper

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/config"
)

// ErrUnsuportedConversion indicates the wrapper does not implement conversion from the source type
var ErrUnsuportedConversion = errors.New("config: wrapper conversion from source type not implemented")

// ParseFunc converts a raw override value into T.
type ParseFunc[T any] func(raw interface{}) (T, error)

type typedConfig[T any] struct {
	override     config.Config
	defaultValue T
	parse        ParseFunc[T]

	stateMu   sync.RWMutex
	lastValue T
}

// NewConfig wraps override with a conversion to T. Values that fail to parse
// leave the last known value in place.
func NewConfig[T any](override config.Config, defaultValue T, parse ParseFunc[T]) config.Typed[T] {
	return &typedConfig[T]{
		override:     override,
		defaultValue: defaultValue,
		parse:        parse,
		lastValue:    defaultValue,
	}
}

// GetSafe gets a config value and propagates any errors that arise. A best-effort
// attempt is made to return the last known value
func (c *typedConfig[T]) GetSafe(ctx context.Context) (T, error) {
	raw, err := c.override.Get(ctx)

	c.stateMu.RLock()
	lastValue := c.lastValue
	c.stateMu.RUnlock()

	if errors.Is(err, config.ErrNoValue) {
		c.setLast(c.defaultValue)
		return c.defaultValue, nil
	} else if err != nil {
		return lastValue, err
	}

	newValue, err := c.parse(raw)
	if err != nil {
		return lastValue, err
	}
	c.setLast(newValue)
	return newValue, nil
}

func (c *typedConfig[T]) setLast(v T) {
	c.stateMu.Lock()
	c.lastValue = v
	c.stateMu.Unlock()
}

// Get is a wrapper for GetSafe that ignores the returned error
func (c *typedConfig[T]) Get(ctx context.Context) T {
	val, _ := c.GetSafe(ctx)
	return val
}

// Shutdown signals the config to stop all underlying resources
func (c *typedConfig[T]) Shutdown() {
	c.override.Shutdown()
}

func NewBoolConfig(override config.Config, defaultValue bool) config.Bool {
	return NewConfig(override, defaultValue, ParseBool)
}

func NewUint64Config(override config.Config, defaultValue uint64) config.Uint64 {
	return NewConfig(override, defaultValue, ParseUint64)
}

func NewStringConfig(override config.Config, defaultValue string) config.String {
	return NewConfig(override, defaultValue, ParseString)
}

func NewDurationConfig(override config.Config, defaultValue time.Duration) config.Duration {
	return NewConfig(override, defaultValue, ParseDuration)
}

func ParseBool(raw interface{}) (bool, error) {
	switch v := raw.(type) {
	case []byte:
		return strconv.ParseBool(string(v))
	case bool:
		return v, nil
	default:
		return false, ErrUnsuportedConversion
	}
}

func ParseUint64(raw interface{}) (uint64, error) {
	switch v := raw.(type) {
	case []byte:
		return strconv.ParseUint(string(v), 10, 64)
	case uint64:
		return v, nil
	case int:
		if v < 0 {
			return 0, errors.Errorf("config: negative value %d for uint64", v)
		}
		return uint64(v), nil
	default:
		return 0, ErrUnsuportedConversion
	}
}

func ParseString(raw interface{}) (string, error) {
	switch v := raw.(type) {
	case []byte:
		return string(v), nil
	case string:
		return v, nil
	default:
		return "", ErrUnsuportedConversion
	}
}

// ParseDuration accepts Go duration strings ("1m30s") or a bare integer
// number of seconds.
func ParseDuration(raw interface{}) (time.Duration, error) {
	switch v := raw.(type) {
	case []byte:
		if d, err := time.ParseDuration(string(v)); err == nil {
			return d, nil
		}
		secs, err := strconv.ParseUint(string(v), 10, 32)
		if err != nil {
			return 0, errors.Wrapf(err, "config: invalid duration %q", string(v))
		}
		return time.Duration(secs) * time.Second, nil
	case time.Duration:
		return v, nil
	default:
		return 0, ErrUnsuportedConversion
	}
}
