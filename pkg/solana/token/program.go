package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var (
	// ProgramKey is the SPL token program.
	//
	// Current key: TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA
	ProgramKey = mustBase58Decode("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")

	// Program2022Key is the token extensions program. Pools may mint with
	// either program, recorded in the pool's token program id.
	Program2022Key = mustBase58Decode("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")
)

var (
	// ErrAccountNotFound indicates there is no account for the given address.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidTokenAccount indicates that an account exists at the given
	// address, but it is not an initialized account of the expected mint.
	ErrInvalidTokenAccount = errors.New("invalid token account")
	ErrInvalidMint         = errors.New("invalid mint")
)

// IsTokenProgram reports whether program is one of the token programs.
func IsTokenProgram(program ed25519.PublicKey) bool {
	return bytes.Equal(program, ProgramKey) || bytes.Equal(program, Program2022Key)
}

func mustBase58Decode(value string) ed25519.PublicKey {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
