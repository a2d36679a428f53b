package system

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

var (
	// https://explorer.solana.com/address/11111111111111111111111111111111
	ProgramKey = mustBase58Decode("11111111111111111111111111111111")

	// Source: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/sysvar/rent.rs#L11
	RentSysVar = mustBase58Decode("SysvarRent111111111111111111111111111111111")

	ClockSysVar        = mustBase58Decode("SysvarC1ock11111111111111111111111111111111")
	StakeHistorySysVar = mustBase58Decode("SysvarStakeHistory1111111111111111111111111")
)

func mustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
