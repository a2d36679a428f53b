package stakepool

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type UpdateValidatorListBalanceInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	ValidatorList     ed25519.PublicKey
	ReserveStake      ed25519.PublicKey
	// ValidatorAndTransientStakePairs alternates validator stake and
	// transient stake addresses for each validator being updated.
	ValidatorAndTransientStakePairs []ed25519.PublicKey
}

type UpdateValidatorListBalanceInstructionArgs struct {
	StartIndex uint32
	NoMerge    bool
}

// NewUpdateValidatorListBalanceInstruction refreshes the balances of a run of
// validators starting at StartIndex.
func NewUpdateValidatorListBalanceInstruction(
	accounts *UpdateValidatorListBalanceInstructionAccounts,
	args *UpdateValidatorListBalanceInstructionArgs,
) (solana.Instruction, error) {
	if len(accounts.ValidatorAndTransientStakePairs)%2 != 0 {
		return solana.Instruction{}, errors.New("validator and transient stake accounts must be paired")
	}

	data, err := encodeInstructionData(InstructionTypeUpdateValidatorListBalance, layout.Record{
		"startIndex": args.StartIndex,
		"noMerge":    args.NoMerge,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	metas := []solana.AccountMeta{
		readonly(accounts.StakePool),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ReserveStake),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(stake.ProgramKey),
	}
	for _, pub := range accounts.ValidatorAndTransientStakePairs {
		metas = append(metas, writable(pub))
	}

	return solana.NewInstruction(programOrDefault(accounts.Program), data, metas...), nil
}

type UpdateStakePoolBalanceInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	ValidatorList     ed25519.PublicKey
	ReserveStake      ed25519.PublicKey
	ManagerFeeAccount ed25519.PublicKey
	PoolMint          ed25519.PublicKey
	TokenProgram      ed25519.PublicKey
}

// NewUpdateStakePoolBalanceInstruction folds the validator list totals into
// the pool and mints epoch fees.
func NewUpdateStakePoolBalanceInstruction(accounts *UpdateStakePoolBalanceInstructionAccounts) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeUpdateStakePoolBalance, nil)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		writable(accounts.StakePool),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		readonly(accounts.ReserveStake),
		writable(accounts.ManagerFeeAccount),
		writable(accounts.PoolMint),
		readonly(tokenProgramOrDefault(accounts.TokenProgram)),
	), nil
}

type CleanupRemovedValidatorEntriesInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool     ed25519.PublicKey
	ValidatorList ed25519.PublicKey
}

// NewCleanupRemovedValidatorEntriesInstruction drops validator list entries
// that are ready for removal.
func NewCleanupRemovedValidatorEntriesInstruction(accounts *CleanupRemovedValidatorEntriesInstructionAccounts) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeCleanupRemovedValidatorEntries, nil)
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		writable(accounts.ValidatorList),
	), nil
}
