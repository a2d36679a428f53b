package stakepool

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/code-stakepool/pkg/solana"
)

var (
	withdrawAuthoritySeed = []byte("withdraw")
	depositAuthoritySeed  = []byte("deposit")
	transientStakeSeed    = []byte("transient")
	ephemeralStakeSeed    = []byte("ephemeral")
	metadataSeed          = []byte("metadata")
)

type GetWithdrawAuthorityAddressArgs struct {
	Program   ed25519.PublicKey
	StakePool ed25519.PublicKey
}

// GetWithdrawAuthorityAddress returns the pool's stake and mint authority.
func GetWithdrawAuthorityAddress(args *GetWithdrawAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		args.StakePool,
		withdrawAuthoritySeed,
	)
}

type GetDepositAuthorityAddressArgs struct {
	Program   ed25519.PublicKey
	StakePool ed25519.PublicKey
}

// GetDepositAuthorityAddress returns the default stake deposit authority,
// used when the pool has no custom one.
func GetDepositAuthorityAddress(args *GetDepositAuthorityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		args.StakePool,
		depositAuthoritySeed,
	)
}

type GetValidatorStakeAddressArgs struct {
	Program     ed25519.PublicKey
	VoteAccount ed25519.PublicKey
	StakePool   ed25519.PublicKey
	// Seed is appended only when nonzero.
	Seed uint32
}

func GetValidatorStakeAddress(args *GetValidatorStakeAddressArgs) (ed25519.PublicKey, uint8, error) {
	seeds := [][]byte{args.VoteAccount, args.StakePool}
	if args.Seed != 0 {
		seed := make([]byte, 4)
		binary.LittleEndian.PutUint32(seed, args.Seed)
		seeds = append(seeds, seed)
	}

	return solana.FindProgramAddressAndBump(programOrDefault(args.Program), seeds...)
}

type GetTransientStakeAddressArgs struct {
	Program     ed25519.PublicKey
	VoteAccount ed25519.PublicKey
	StakePool   ed25519.PublicKey
	Seed        uint64
}

func GetTransientStakeAddress(args *GetTransientStakeAddressArgs) (ed25519.PublicKey, uint8, error) {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, args.Seed)

	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		transientStakeSeed,
		args.VoteAccount,
		args.StakePool,
		seed,
	)
}

type GetEphemeralStakeAddressArgs struct {
	Program   ed25519.PublicKey
	StakePool ed25519.PublicKey
	Seed      uint64
}

func GetEphemeralStakeAddress(args *GetEphemeralStakeAddressArgs) (ed25519.PublicKey, uint8, error) {
	seed := make([]byte, 8)
	binary.LittleEndian.PutUint64(seed, args.Seed)

	return solana.FindProgramAddressAndBump(
		programOrDefault(args.Program),
		ephemeralStakeSeed,
		args.StakePool,
		seed,
	)
}

type GetTokenMetadataAddressArgs struct {
	Mint ed25519.PublicKey
}

// GetTokenMetadataAddress returns the metadata account of a pool mint, owned
// by the token metadata program.
func GetTokenMetadataAddress(args *GetTokenMetadataAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		METADATA_PROGRAM_ID,
		metadataSeed,
		METADATA_PROGRAM_ID,
		args.Mint,
	)
}
