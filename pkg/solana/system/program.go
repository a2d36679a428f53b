package system

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

const (
	commandCreateAccount uint32 = 0
	commandTransfer      uint32 = 2
)

var (
	createAccountLayout = layout.Struct([]*layout.Layout{
		layout.U32("instruction"),
		layout.U64("lamports"),
		layout.U64("space"),
		layout.PublicKey("owner"),
	}, "")

	transferLayout = layout.Struct([]*layout.Layout{
		layout.U32("instruction"),
		layout.U64("lamports"),
	}, "")
)

// CreateAccount funds and allocates a new account owned by owner.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) (solana.Instruction, error) {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	data, err := layout.Marshal(createAccountLayout, layout.Record{
		"instruction": commandCreateAccount,
		"lamports":    lamports,
		"space":       size,
		"owner":       owner,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode create account instruction")
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	), nil
}

// Transfer moves lamports between two system accounts.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L79-L83
func Transfer(from, to ed25519.PublicKey, lamports uint64) (solana.Instruction, error) {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data, err := layout.Marshal(transferLayout, layout.Record{
		"instruction": commandTransfer,
		"lamports":    lamports,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode transfer instruction")
	}

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	), nil
}
