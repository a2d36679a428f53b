package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/token"
)

func tokenProgramOrDefault(program ed25519.PublicKey) ed25519.PublicKey {
	if len(program) == 0 {
		return token.ProgramKey
	}
	return program
}

func writable(pub ed25519.PublicKey) solana.AccountMeta {
	return solana.NewAccountMeta(pub, false)
}

func readonly(pub ed25519.PublicKey) solana.AccountMeta {
	return solana.NewReadonlyAccountMeta(pub, false)
}

func signer(pub ed25519.PublicKey) solana.AccountMeta {
	return solana.NewReadonlyAccountMeta(pub, true)
}

func writableSigner(pub ed25519.PublicKey) solana.AccountMeta {
	return solana.NewAccountMeta(pub, true)
}
