package env

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/code-payments/code-stakepool/pkg/config"
	"github.com/code-payments/code-stakepool/pkg/config/wrapper"
)

type conf struct {
	val string
}

// NewConfig reads key from the environment once. Keys are upper-cased.
func NewConfig(key string) config.Config {
	return &conf{
		val: os.Getenv(strings.ToUpper(key)),
	}
}

// Get implements Config.Get
func (c *conf) Get(ctx context.Context) (interface{}, error) {
	if len(c.val) == 0 {
		return nil, config.ErrNoValue
	}

	return []byte(c.val), nil
}

// Shutdown implements Config.Shutdown
func (c *conf) Shutdown() {
}

// Prefixed builds env configs whose keys share a common prefix, e.g.
// "STAKE_POOL_CLIENT_".
type Prefixed string

func (p Prefixed) key(name string) string {
	return string(p) + name
}

func (p Prefixed) Uint64(name string, defaultValue uint64) config.Uint64 {
	return NewUint64Config(p.key(name), defaultValue)
}

func (p Prefixed) String(name string, defaultValue string) config.String {
	return NewStringConfig(p.key(name), defaultValue)
}

func (p Prefixed) Bool(name string, defaultValue bool) config.Bool {
	return NewBoolConfig(p.key(name), defaultValue)
}

func (p Prefixed) Duration(name string, defaultValue time.Duration) config.Duration {
	return NewDurationConfig(p.key(name), defaultValue)
}

// NewUint64Config creates a env-based uint64 config
func NewUint64Config(key string, defaultValue uint64) config.Uint64 {
	return wrapper.NewUint64Config(NewConfig(key), defaultValue)
}

// NewStringConfig creates a env-based string config
func NewStringConfig(key string, defaultValue string) config.String {
	return wrapper.NewStringConfig(NewConfig(key), defaultValue)
}

// NewBoolConfig creates a env-based bool config
func NewBoolConfig(key string, defaultValue bool) config.Bool {
	return wrapper.NewBoolConfig(NewConfig(key), defaultValue)
}

// NewDurationConfig creates a env-based duration config
func NewDurationConfig(key string, defaultValue time.Duration) config.Duration {
	return wrapper.NewDurationConfig(NewConfig(key), defaultValue)
}
