package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type WithdrawStakeInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	ValidatorList     ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	// StakeToSplit is the validator, transient or reserve stake account
	// chosen by PrepareWithdrawAccounts.
	StakeToSplit ed25519.PublicKey
	// StakeToReceive is an uninitialized account sized for stake state.
	StakeToReceive        ed25519.PublicKey
	UserStakeAuthority    ed25519.PublicKey
	UserTransferAuthority ed25519.PublicKey
	UserPoolTokenAccount  ed25519.PublicKey
	ManagerFeeAccount     ed25519.PublicKey
	PoolMint              ed25519.PublicKey
	TokenProgram          ed25519.PublicKey
}

type WithdrawStakeInstructionArgs struct {
	PoolTokens uint64
}

type WithdrawStakeWithSlippageInstructionArgs struct {
	PoolTokensIn       uint64
	MinimumLamportsOut uint64
}

// NewWithdrawStakeInstruction burns pool tokens in exchange for a stake
// account split off one of the pool's stake accounts.
func NewWithdrawStakeInstruction(
	accounts *WithdrawStakeInstructionAccounts,
	args *WithdrawStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeWithdrawStake, layout.Record{
		"poolTokens": args.PoolTokens,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, withdrawStakeAccounts(accounts)...), nil
}

func NewWithdrawStakeWithSlippageInstruction(
	accounts *WithdrawStakeInstructionAccounts,
	args *WithdrawStakeWithSlippageInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeWithdrawStakeWithSlippage, layout.Record{
		"poolTokensIn":       args.PoolTokensIn,
		"minimumLamportsOut": args.MinimumLamportsOut,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, withdrawStakeAccounts(accounts)...), nil
}

func withdrawStakeAccounts(accounts *WithdrawStakeInstructionAccounts) []solana.AccountMeta {
	return []solana.AccountMeta{
		writable(accounts.StakePool),
		writable(accounts.ValidatorList),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.StakeToSplit),
		writable(accounts.StakeToReceive),
		readonly(accounts.UserStakeAuthority),
		signer(accounts.UserTransferAuthority),
		writable(accounts.UserPoolTokenAccount),
		writable(accounts.ManagerFeeAccount),
		writable(accounts.PoolMint),
		readonly(system.ClockSysVar),
		readonly(tokenProgramOrDefault(accounts.TokenProgram)),
		readonly(stake.ProgramKey),
	}
}
