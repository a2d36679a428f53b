package stakepool

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("SPoo1Ku8WFXoNDMHPsrGSTSG1Y47rzgn41SLUNakuHy")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	METADATA_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s"))
)

const (
	// MinimumActiveStake is the smallest delegation a validator stake account
	// may be left with, on top of its rent-exempt reserve.
	MinimumActiveStake = 1_000_000

	// MinimumReserveLamports is kept in the reserve stake account on top of
	// its rent-exempt reserve.
	MinimumReserveLamports = 1
)

const (
	MaxNameLength   = 32
	MaxSymbolLength = 10
	MaxUriLength    = 200
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}

// programOrDefault lets callers target a non-canonical deployment of the
// stake pool program.
func programOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return PROGRAM_ID
	}
	return program
}
