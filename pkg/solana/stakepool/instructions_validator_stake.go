package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

// ValidatorStakeInstructionAccounts covers the accounts shared by every
// instruction that moves stake between the reserve and a validator.
// EphemeralStake is only used by the additional variants, ValidatorVote only
// by increases.
type ValidatorStakeInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool         ed25519.PublicKey
	Staker            ed25519.PublicKey
	WithdrawAuthority ed25519.PublicKey
	ValidatorList     ed25519.PublicKey
	ReserveStake      ed25519.PublicKey
	ValidatorStake    ed25519.PublicKey
	TransientStake    ed25519.PublicKey
	EphemeralStake    ed25519.PublicKey
	ValidatorVote     ed25519.PublicKey
}

type ValidatorStakeInstructionArgs struct {
	Lamports           uint64
	TransientStakeSeed uint64
}

type AdditionalValidatorStakeInstructionArgs struct {
	Lamports           uint64
	TransientStakeSeed uint64
	EphemeralStakeSeed uint64
}

// NextTransientStakeSeed returns the transient seed for a plain increase or
// decrease. The plain instructions create a fresh transient account, so they
// fail while a transient stake is still in flight for the validator.
func NextTransientStakeSeed(validator *ValidatorStakeInfo) (uint64, error) {
	if validator.TransientStakeLamports != 0 {
		return 0, ErrTransientStakeInFlight
	}
	return validator.TransientSeedSuffixStart + 1, nil
}

// CurrentTransientStakeSeed returns the transient seed for the additional
// variants, which top up the validator's existing transient account.
func CurrentTransientStakeSeed(validator *ValidatorStakeInfo) uint64 {
	return validator.TransientSeedSuffixStart
}

func NewIncreaseValidatorStakeInstruction(
	accounts *ValidatorStakeInstructionAccounts,
	args *ValidatorStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeIncreaseValidatorStake, layout.Record{
		"lamports":           args.Lamports,
		"transientStakeSeed": args.TransientStakeSeed,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Staker),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ReserveStake),
		writable(accounts.TransientStake),
		readonly(accounts.ValidatorStake),
		readonly(accounts.ValidatorVote),
		readonly(system.ClockSysVar),
		readonly(system.RentSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(stake.ConfigKey),
		readonly(system.ProgramKey),
		readonly(stake.ProgramKey),
	), nil
}

func NewDecreaseValidatorStakeInstruction(
	accounts *ValidatorStakeInstructionAccounts,
	args *ValidatorStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDecreaseValidatorStake, layout.Record{
		"lamports":           args.Lamports,
		"transientStakeSeed": args.TransientStakeSeed,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Staker),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ValidatorStake),
		writable(accounts.TransientStake),
		readonly(system.ClockSysVar),
		readonly(system.RentSysVar),
		readonly(system.ProgramKey),
		readonly(stake.ProgramKey),
	), nil
}

// NewDecreaseValidatorStakeWithReserveInstruction is a decrease that funds
// the transient account's rent from the reserve instead of the validator
// stake.
func NewDecreaseValidatorStakeWithReserveInstruction(
	accounts *ValidatorStakeInstructionAccounts,
	args *ValidatorStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDecreaseValidatorStakeWithReserve, layout.Record{
		"lamports":           args.Lamports,
		"transientStakeSeed": args.TransientStakeSeed,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Staker),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ReserveStake),
		writable(accounts.ValidatorStake),
		writable(accounts.TransientStake),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(system.ProgramKey),
		readonly(stake.ProgramKey),
	), nil
}

func NewIncreaseAdditionalValidatorStakeInstruction(
	accounts *ValidatorStakeInstructionAccounts,
	args *AdditionalValidatorStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeIncreaseAdditionalValidatorStake, layout.Record{
		"lamports":           args.Lamports,
		"transientStakeSeed": args.TransientStakeSeed,
		"ephemeralStakeSeed": args.EphemeralStakeSeed,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Staker),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ReserveStake),
		writable(accounts.EphemeralStake),
		writable(accounts.TransientStake),
		readonly(accounts.ValidatorStake),
		readonly(accounts.ValidatorVote),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(stake.ConfigKey),
		readonly(system.ProgramKey),
		readonly(stake.ProgramKey),
	), nil
}

func NewDecreaseAdditionalValidatorStakeInstruction(
	accounts *ValidatorStakeInstructionAccounts,
	args *AdditionalValidatorStakeInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDecreaseAdditionalValidatorStake, layout.Record{
		"lamports":           args.Lamports,
		"transientStakeSeed": args.TransientStakeSeed,
		"ephemeralStakeSeed": args.EphemeralStakeSeed,
	})
	if err != nil {
		return solana.Instruction{}, err
	}

	return solana.NewInstruction(
		programOrDefault(accounts.Program),
		data,
		readonly(accounts.StakePool),
		signer(accounts.Staker),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ValidatorList),
		writable(accounts.ReserveStake),
		writable(accounts.ValidatorStake),
		writable(accounts.EphemeralStake),
		writable(accounts.TransientStake),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(system.ProgramKey),
		readonly(stake.ProgramKey),
	), nil
}
