package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type DepositSolInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool              ed25519.PublicKey
	WithdrawAuthority      ed25519.PublicKey
	ReserveStake           ed25519.PublicKey
	FundingAccount         ed25519.PublicKey
	DestinationPoolAccount ed25519.PublicKey
	ManagerFeeAccount      ed25519.PublicKey
	ReferralPoolAccount    ed25519.PublicKey
	PoolMint               ed25519.PublicKey
	TokenProgram           ed25519.PublicKey
	// Required only when the pool restricts SOL deposits.
	SolDepositAuthority ed25519.PublicKey
}

type DepositSolInstructionArgs struct {
	Lamports uint64
}

type DepositSolWithSlippageInstructionArgs struct {
	LamportsIn           uint64
	MinimumPoolTokensOut uint64
}

// NewDepositSolInstruction deposits lamports into the reserve in exchange
// for pool tokens.
func NewDepositSolInstruction(
	accounts *DepositSolInstructionAccounts,
	args *DepositSolInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDepositSol, layout.Record{
		"lamports": args.Lamports,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, depositSolAccounts(accounts)...), nil
}

func NewDepositSolWithSlippageInstruction(
	accounts *DepositSolInstructionAccounts,
	args *DepositSolWithSlippageInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeDepositSolWithSlippage, layout.Record{
		"lamportsIn":           args.LamportsIn,
		"minimumPoolTokensOut": args.MinimumPoolTokensOut,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, depositSolAccounts(accounts)...), nil
}

func depositSolAccounts(accounts *DepositSolInstructionAccounts) []solana.AccountMeta {
	metas := []solana.AccountMeta{
		writable(accounts.StakePool),
		readonly(accounts.WithdrawAuthority),
		writable(accounts.ReserveStake),
		writableSigner(accounts.FundingAccount),
		writable(accounts.DestinationPoolAccount),
		writable(accounts.ManagerFeeAccount),
		writable(accounts.ReferralPoolAccount),
		writable(accounts.PoolMint),
		readonly(system.ProgramKey),
		readonly(tokenProgramOrDefault(accounts.TokenProgram)),
	}
	if len(accounts.SolDepositAuthority) > 0 {
		metas = append(metas, signer(accounts.SolDepositAuthority))
	}
	return metas
}
