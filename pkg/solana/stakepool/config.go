package stakepool

import (
	"time"

	"github.com/code-payments/code-stakepool/pkg/config"
	"github.com/code-payments/code-stakepool/pkg/config/env"
	"github.com/code-payments/code-stakepool/pkg/config/memory"
	"github.com/code-payments/code-stakepool/pkg/config/wrapper"
)

const (
	envConfigPrefix = env.Prefixed("STAKE_POOL_CLIENT_")

	CommitmentConfigEnvName = "COMMITMENT"
	defaultCommitment       = "confirmed"

	ProgramIdConfigEnvName = "PROGRAM_ID"
	defaultProgramId       = ""

	RentCacheBudgetConfigEnvName = "RENT_CACHE_BUDGET"
	defaultRentCacheBudget       = 64

	FetchTimeoutConfigEnvName = "FETCH_TIMEOUT"
	defaultFetchTimeout       = 30 * time.Second
)

type conf struct {
	commitment      config.String
	programId       config.String
	rentCacheBudget config.Uint64
	fetchTimeout    config.Duration
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
// prefixed with STAKE_POOL_CLIENT_.
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:      envConfigPrefix.String(CommitmentConfigEnvName, defaultCommitment),
			programId:       envConfigPrefix.String(ProgramIdConfigEnvName, defaultProgramId),
			rentCacheBudget: envConfigPrefix.Uint64(RentCacheBudgetConfigEnvName, defaultRentCacheBudget),
			fetchTimeout:    envConfigPrefix.Duration(FetchTimeoutConfigEnvName, defaultFetchTimeout),
		}
	}
}

// Overrides are fixed values, used by the CLI and tests. Zero values fall
// back to the defaults.
type Overrides struct {
	Commitment      string
	ProgramId       string
	RentCacheBudget uint64
	FetchTimeout    time.Duration
}

// WithOverrides returns configuration backed by in-memory values.
func WithOverrides(overrides *Overrides) ConfigProvider {
	return func() *conf {
		return &conf{
			commitment:      wrapper.NewStringConfig(memoryOrUnset(overrides.Commitment), defaultCommitment),
			programId:       wrapper.NewStringConfig(memoryOrUnset(overrides.ProgramId), defaultProgramId),
			rentCacheBudget: wrapper.NewUint64Config(memoryOrUnset(overrides.RentCacheBudget), defaultRentCacheBudget),
			fetchTimeout:    wrapper.NewDurationConfig(memoryOrUnset(overrides.FetchTimeout), defaultFetchTimeout),
		}
	}
}

func memoryOrUnset[T comparable](v T) config.Config {
	var zero T
	if v == zero {
		return memory.NewConfig(nil)
	}
	return memory.NewConfig(v)
}
