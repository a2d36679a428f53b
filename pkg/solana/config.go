package solana

import (
	"strings"
)

type Environment string

const (
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
)

// ParseEnvironment maps a cluster moniker to its public RPC endpoint. Any
// other value is assumed to already be an endpoint URL.
func ParseEnvironment(value string) Environment {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "devnet", "d":
		return EnvironmentDev
	case "testnet", "t":
		return EnvironmentTest
	case "mainnet", "mainnet-beta", "m":
		return EnvironmentProd
	case "localnet", "localhost", "l":
		return EnvironmentLocal
	default:
		return Environment(value)
	}
}
