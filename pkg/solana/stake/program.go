package stake

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	ProgramKey = mustBase58Decode("Stake11111111111111111111111111111111111111")

	// ConfigKey is the deprecated stake config account the stake pool program
	// still expects on delegation.
	ConfigKey = mustBase58Decode("StakeConfig11111111111111111111111111111111")
)

// StateSize is the space allocated for a stake account.
//
// Reference: https://github.com/solana-labs/solana/blob/v1.18.0/sdk/program/src/stake/state.rs#L40
const StateSize = 200

func mustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
