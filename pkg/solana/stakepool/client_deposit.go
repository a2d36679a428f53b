package stakepool

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/computebudget"
	"github.com/code-payments/code-stakepool/pkg/solana/token"
)

type DepositSolRequest struct {
	StakePoolAddress ed25519.PublicKey
	Lamports         uint64

	// Funder pays the deposit and the transaction fees.
	Funder ed25519.PrivateKey
	// Recipient owns the minted pool tokens and defaults to the funder. Its
	// associated token account is created if it does not exist yet.
	Recipient ed25519.PublicKey
	// PoolTokenAccount overrides the recipient's associated token account and
	// must already exist.
	PoolTokenAccount ed25519.PublicKey
	// ReferralPoolAccount receives the referral share of the deposit fee and
	// defaults to the destination account.
	ReferralPoolAccount ed25519.PublicKey

	MinimumPoolTokensOut uint64
	ComputeUnitPrice     uint64
	WaitForConfirmation  bool
}

type DepositSolReceipt struct {
	PoolTokenAccount ed25519.PublicKey
	// ExpectedPoolTokens is the amount minted to the recipient at the pool's
	// exchange rate when the deposit was built, net of the SOL deposit fee.
	ExpectedPoolTokens uint64
	Signature          solana.Signature
	Confirmed          bool
}

// DepositSol deposits lamports into the pool reserve in exchange for pool
// tokens.
func (c *Client) DepositSol(ctx context.Context, req *DepositSolRequest) (*DepositSolReceipt, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":     "DepositSol",
		"stake_pool": base58.Encode(req.StakePoolAddress),
		"lamports":   req.Lamports,
	})

	if len(req.Funder) != ed25519.PrivateKeySize {
		return nil, errors.New("funder key is required")
	}
	if req.Lamports == 0 {
		return nil, errors.New("deposit amount must be positive")
	}
	funder := req.Funder.Public().(ed25519.PublicKey)
	recipient := req.Recipient
	if len(recipient) == 0 {
		recipient = funder
	}

	program, err := c.Program(ctx)
	if err != nil {
		return nil, err
	}
	commitment, err := c.commitment(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := c.GetStakePool(ctx, req.StakePoolAddress)
	if err != nil {
		return nil, err
	}
	if len(pool.SolDepositAuthority) > 0 {
		return nil, errors.Errorf("stake pool restricts sol deposits to %s", base58.Encode(pool.SolDepositAuthority))
	}
	if err := c.checkUpToDate(ctx, pool, commitment); err != nil {
		return nil, err
	}

	minted, err := pool.PoolTokensForDeposit(req.Lamports)
	if err != nil {
		return nil, err
	}
	expected := ApplyFee(minted, pool.SolDepositFee)
	if expected < req.MinimumPoolTokensOut {
		return nil, errors.Errorf(
			"deposit would mint %d pool tokens, below the minimum of %d",
			expected,
			req.MinimumPoolTokensOut,
		)
	}

	var instructions []solana.Instruction
	if req.ComputeUnitPrice > 0 {
		ixn, err := computebudget.SetComputeUnitPrice(req.ComputeUnitPrice)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ixn)
	}

	destination := req.PoolTokenAccount
	if len(destination) == 0 {
		var createIxn solana.Instruction
		createIxn, destination, err = token.CreateAssociatedTokenAccountIdempotent(funder, recipient, pool.PoolMint, pool.TokenProgramId)
		if err != nil {
			return nil, errors.Wrap(err, "error deriving pool token account")
		}
		instructions = append(instructions, createIxn)
	}

	withdrawAuthority, _, err := GetWithdrawAuthorityAddress(&GetWithdrawAuthorityAddressArgs{
		Program:   program,
		StakePool: req.StakePoolAddress,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving withdraw authority")
	}

	referral := req.ReferralPoolAccount
	if len(referral) == 0 {
		referral = destination
	}

	accounts := &DepositSolInstructionAccounts{
		Program:                program,
		StakePool:              req.StakePoolAddress,
		WithdrawAuthority:      withdrawAuthority,
		ReserveStake:           pool.ReserveStake,
		FundingAccount:         funder,
		DestinationPoolAccount: destination,
		ManagerFeeAccount:      pool.ManagerFeeAccount,
		ReferralPoolAccount:    referral,
		PoolMint:               pool.PoolMint,
		TokenProgram:           pool.TokenProgramId,
	}

	var depositIxn solana.Instruction
	if req.MinimumPoolTokensOut > 0 {
		depositIxn, err = NewDepositSolWithSlippageInstruction(accounts, &DepositSolWithSlippageInstructionArgs{
			LamportsIn:           req.Lamports,
			MinimumPoolTokensOut: req.MinimumPoolTokensOut,
		})
	} else {
		depositIxn, err = NewDepositSolInstruction(accounts, &DepositSolInstructionArgs{
			Lamports: req.Lamports,
		})
	}
	if err != nil {
		return nil, err
	}
	instructions = append(instructions, depositIxn)

	sig, confirmed, err := c.submit(
		log.WithField("pool_token_account", base58.Encode(destination)),
		&submission{
			payer:        req.Funder,
			instructions: instructions,
			commitment:   commitment,
			wait:         req.WaitForConfirmation,
		},
	)

	var receipt *DepositSolReceipt
	if sig != (solana.Signature{}) {
		receipt = &DepositSolReceipt{
			PoolTokenAccount:   destination,
			ExpectedPoolTokens: expected,
			Signature:          sig,
			Confirmed:          confirmed,
		}
	}
	if err != nil {
		return receipt, errors.Wrap(err, "error submitting deposit")
	}
	return receipt, nil
}
