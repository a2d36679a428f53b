package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type DepositStakeInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool             ed25519.PublicKey
	ValidatorList         ed25519.PublicKey
	StakeDepositAuthority ed25519.PublicKey
	// Set when the pool has a custom deposit authority that must sign.
	StakeDepositAuthoritySigner bool
	WithdrawAuthority           ed25519.PublicKey
	DepositStake                ed25519.PublicKey
	ValidatorStake              ed25519.PublicKey
	ReserveStake                ed25519.PublicKey
	DestinationPoolAccount      ed25519.PublicKey
	ManagerFeeAccount           ed25519.PublicKey
	ReferralPoolAccount         ed25519.PublicKey
	PoolMint                    ed25519.PublicKey
	TokenProgram                ed25519.PublicKey
}

type DepositStakeWithSlippageInstructionArgs struct {
	MinimumPoolTokensOut uint64
}

// NewDepositStakeInstruction deposits a stake account delegated to one of the
// pool's validators in exchange for pool tokens. The deposited account's
// authorities must already be the pool's deposit authority.
func NewDepositStakeInstruction(accounts *DepositStakeInstructionAccounts) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDepositStake, nil)
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, depositStakeAccounts(accounts)...), nil
}

func NewDepositStakeWithSlippageInstruction(
	accounts *DepositStakeInstructionAccounts,
	args *DepositStakeWithSlippageInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDepositStakeWithSlippage, layout.Record{
		"minimumPoolTokensOut": args.MinimumPoolTokensOut,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, depositStakeAccounts(accounts)...), nil
}

func depositStakeAccounts(accounts *DepositStakeInstructionAccounts) []solana.AccountMeta {
	return []solana.AccountMeta{
		writable(accounts.StakePool),
		writable(accounts.ValidatorList),
		solana.NewReadonlyAccountMeta(accounts.StakeDepositAuthority, accounts.StakeDepositAuthoritySigner),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.DepositStake),
		writable(accounts.ValidatorStake),
		writable(accounts.ReserveStake),
		writable(accounts.DestinationPoolAccount),
		writable(accounts.ManagerFeeAccount),
		writable(accounts.ReferralPoolAccount),
		writable(accounts.PoolMint),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(tokenProgramOrDefault(accounts.TokenProgram)),
		readonly(stake.ProgramKey),
	}
}
