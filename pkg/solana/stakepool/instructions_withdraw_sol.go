package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/system"
)

type WithdrawSolInstructionAccounts struct {
	Program ed25519.PublicKey

	StakePool             ed25519.PublicKey
	WithdrawAuthority     ed25519.PublicKey
	UserTransferAuthority ed25519.PublicKey
	UserPoolTokenAccount  ed25519.PublicKey
	ReserveStake          ed25519.PublicKey
	LamportsTo            ed25519.PublicKey
	ManagerFeeAccount     ed25519.PublicKey
	PoolMint              ed25519.PublicKey
	TokenProgram          ed25519.PublicKey
	// Required only when the pool restricts SOL withdrawals.
	SolWithdrawAuthority ed25519.PublicKey
}

type WithdrawSolInstructionArgs struct {
	PoolTokens uint64
}

type WithdrawSolWithSlippageInstructionArgs struct {
	PoolTokensIn       uint64
	MinimumLamportsOut uint64
}

// NewWithdrawSolInstruction burns pool tokens in exchange for lamports from
// the reserve.
func NewWithdrawSolInstruction(
	accounts *WithdrawSolInstructionAccounts,
	args *WithdrawSolInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeWithdrawSol, layout.Record{
		"poolTokens": args.PoolTokens,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, withdrawSolAccounts(accounts)...), nil
}

func NewWithdrawSolWithSlippageInstruction(
	accounts *WithdrawSolInstructionAccounts,
	args *WithdrawSolWithSlippageInstructionArgs,
) (solana.Instruction, error) {
	data, err := encodeInstructionData(InstructionTypeWithdrawSolWithSlippage, layout.Record{
		"poolTokensIn":       args.PoolTokensIn,
		"minimumLamportsOut": args.MinimumLamportsOut,
	})
	if err != nil {
		return solana.Instruction{}, err
	}
	return solana.NewInstruction(programOrDefault(accounts.Program), data, withdrawSolAccounts(accounts)...), nil
}

func withdrawSolAccounts(accounts *WithdrawSolInstructionAccounts) []solana.AccountMeta {
	metas := []solana.AccountMeta{
		writable(accounts.StakePool),
		readonly(accounts.WithdrawAuthority),
		signer(accounts.UserTransferAuthority),
		writable(accounts.UserPoolTokenAccount),
		writable(accounts.ReserveStake),
		writable(accounts.LamportsTo),
		writable(accounts.ManagerFeeAccount),
		writable(accounts.PoolMint),
		readonly(system.ClockSysVar),
		readonly(system.StakeHistorySysVar),
		readonly(stake.ProgramKey),
		readonly(tokenProgramOrDefault(accounts.TokenProgram)),
	}
	if len(accounts.SolWithdrawAuthority) > 0 {
		metas = append(metas, signer(accounts.SolWithdrawAuthority))
	}
	return metas
}
