package stakepool

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/computebudget"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type WithdrawStakeFlowArgs struct {
	Program          ed25519.PublicKey
	StakePoolAddress ed25519.PublicKey
	StakePool        *StakePool

	// Allocations are typically the output of PrepareWithdrawAccounts.
	Allocations []*WithdrawAllocation
	// NewStakeAccounts receive the split stake, one per allocation. Each must
	// sign the transaction as it is created here.
	NewStakeAccounts   []ed25519.PublicKey
	StakeRentExemption uint64

	Payer                 ed25519.PublicKey
	UserStakeAuthority    ed25519.PublicKey
	UserTransferAuthority ed25519.PublicKey
	UserPoolTokenAccount  ed25519.PublicKey

	// MinimumLamportsOut, if nonzero, is the least the allocations may pay
	// out together. It is split across them by SplitMinimumLamportsOut and
	// each withdrawal uses the slippage-checked instruction.
	MinimumLamportsOut uint64

	// ComputeUnitLimit and ComputeUnitPrice, if nonzero, prefix the
	// instructions with the matching compute budget instruction.
	ComputeUnitLimit uint32
	ComputeUnitPrice uint64
}

// NewWithdrawStakeInstructions returns, for every allocation, a create
// account instruction for the receiving stake account followed by the
// withdraw stake instruction that fills it.
func NewWithdrawStakeInstructions(args *WithdrawStakeFlowArgs) ([]solana.Instruction, error) {
	if len(args.Allocations) != len(args.NewStakeAccounts) {
		return nil, errors.Errorf(
			"got %d receiving stake accounts for %d allocations",
			len(args.NewStakeAccounts),
			len(args.Allocations),
		)
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityAddress(&GetWithdrawAuthorityAddressArgs{
		Program:   args.Program,
		StakePool: args.StakePoolAddress,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving withdraw authority")
	}

	minimums := SplitMinimumLamportsOut(args.MinimumLamportsOut, args.Allocations)

	instructions := make([]solana.Instruction, 0, 2+2*len(args.Allocations))
	if args.ComputeUnitLimit > 0 {
		ixn, err := computebudget.SetComputeUnitLimit(args.ComputeUnitLimit)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ixn)
	}
	if args.ComputeUnitPrice > 0 {
		ixn, err := computebudget.SetComputeUnitPrice(args.ComputeUnitPrice)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ixn)
	}

	for i, allocation := range args.Allocations {
		createIxn, err := system.CreateAccount(
			args.Payer,
			args.NewStakeAccounts[i],
			stake.ProgramKey,
			args.StakeRentExemption,
			stake.StateSize,
		)
		if err != nil {
			return nil, errors.Wrapf(err, "error creating stake account for allocation %d", i)
		}

		accounts := &WithdrawStakeInstructionAccounts{
			Program:               args.Program,
			StakePool:             args.StakePoolAddress,
			ValidatorList:         args.StakePool.ValidatorList,
			WithdrawAuthority:     withdrawAuthority,
			StakeToSplit:          allocation.StakeAddress,
			StakeToReceive:        args.NewStakeAccounts[i],
			UserStakeAuthority:    args.UserStakeAuthority,
			UserTransferAuthority: args.UserTransferAuthority,
			UserPoolTokenAccount:  args.UserPoolTokenAccount,
			ManagerFeeAccount:     args.StakePool.ManagerFeeAccount,
			PoolMint:              args.StakePool.PoolMint,
			TokenProgram:          args.StakePool.TokenProgramId,
		}

		var withdrawIxn solana.Instruction
		if args.MinimumLamportsOut > 0 {
			withdrawIxn, err = NewWithdrawStakeWithSlippageInstruction(accounts, &WithdrawStakeWithSlippageInstructionArgs{
				PoolTokensIn:       allocation.PoolAmount,
				MinimumLamportsOut: minimums[i],
			})
		} else {
			withdrawIxn, err = NewWithdrawStakeInstruction(accounts, &WithdrawStakeInstructionArgs{
				PoolTokens: allocation.PoolAmount,
			})
		}
		if err != nil {
			return nil, errors.Wrapf(err, "error building withdraw for allocation %d", i)
		}

		instructions = append(instructions, createIxn, withdrawIxn)
	}

	return instructions, nil
}
