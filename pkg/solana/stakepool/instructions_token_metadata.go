package stakepool

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type TokenMetadataInstructionArgs struct {
	Name   string
	Symbol string
	Uri    string
}

func (args *TokenMetadataInstructionArgs) validate() error {
	if len(args.Name) > MaxNameLength {
		return errors.Wrapf(ErrMetadataFieldTooLong, "name is %d bytes, max %d", len(args.Name), MaxNameLength)
	}
	if len(args.Symbol) > MaxSymbolLength {
		return errors.Wrapf(ErrMetadataFieldTooLong, "symbol is %d bytes, max %d", len(args.Symbol), MaxSymbolLength)
	}
	if len(args.Uri) > MaxUriLength {
		return errors.Wrapf(ErrMetadataFieldTooLong, "uri is %d bytes, max %d", len(args.Uri), MaxUriLength)
	}
	return nil
}

func (args *TokenMetadataInstructionArgs) toRecord() layout.Record {
	return layout.Record{
		"name":   args.Name,
		"symbol": args.Symbol,
		"uri":    args.Uri,
	}
}

type CreateTokenMetadataInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	Manager           ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	PoolMint          ed25519.PublicKey
	Payer             ed25519.PublicKey
	TokenMetadata     ed25519.PublicKey
}

func NewCreateTokenMetadataInstruction(
	accounts *CreateTokenMetadataInstructionAccounts,
	args *TokenMetadataInstructionArgs,
) (solana.Instruction, error) {
	if err := args.validate(); err != nil {
		return solana.Instruction{}, err
	}

	data, err := encodeInstructionData(InstructionTypeCreateTokenMetadata, args.toRecord())
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Manager),
		readonly(accounts.WithdrawAuthority),
		readonly(accounts.PoolMint),
		writableSigner(accounts.Payer),
		writable(accounts.TokenMetadata),
		readonly(METADATA_PROGRAM_ID),
		readonly(system.ProgramKey),
	), nil
}

type UpdateTokenMetadataInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	Manager           ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	TokenMetadata     ed25519.PublicKey
}

func NewUpdateTokenMetadataInstruction(
	accounts *UpdateTokenMetadataInstructionAccounts,
	args *TokenMetadataInstructionArgs,
) (solana.Instruction, error) {
	if err := args.validate(); err != nil {
		return solana.Instruction{}, err
	}

	data, err := encodeInstructionData(InstructionTypeUpdateTokenMetadata, args.toRecord())
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Manager),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.TokenMetadata),
		readonly(METADATA_PROGRAM_ID),
	), nil
}
