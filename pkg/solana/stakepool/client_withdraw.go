package stakepool

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/token"
)

type WithdrawStakeRequest struct {
	StakePoolAddress ed25519.PublicKey
	PoolTokens       uint64

	// Payer funds the receiving stake accounts and the transaction fees.
	Payer ed25519.PrivateKey
	// Owner holds the pool tokens and becomes the authority of the
	// receiving stake accounts.
	Owner ed25519.PrivateKey
	// PoolTokenAccount defaults to the owner's associated token account for
	// the pool mint.
	PoolTokenAccount ed25519.PublicKey

	// MinimumLamportsOut bounds the lamports received across all of the
	// withdrawal's transactions. Each transaction checks its share.
	MinimumLamportsOut uint64
	ComputeUnitPrice   uint64
	Less               WithdrawCandidateLess

	// WaitForConfirmation polls each signature until it reaches the client's
	// commitment before submitting the next withdrawal.
	WaitForConfirmation bool
}

// WithdrawStakeReceipt is one submitted withdrawal transaction.
type WithdrawStakeReceipt struct {
	Allocation   *WithdrawAllocation
	StakeAccount ed25519.PublicKey
	Signature    solana.Signature
	Confirmed    bool
}

// WithdrawStake allocates a withdrawal across the pool and submits one
// transaction per allocation, each splitting into a freshly generated stake
// account. Receipts for transactions submitted before a failure are
// returned alongside the error.
func (c *Client) WithdrawStake(ctx context.Context, req *WithdrawStakeRequest) ([]*WithdrawStakeReceipt, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":      "WithdrawStake",
		"stake_pool":  base58.Encode(req.StakePoolAddress),
		"pool_tokens": req.PoolTokens,
	})

	if len(req.Payer) != ed25519.PrivateKeySize || len(req.Owner) != ed25519.PrivateKeySize {
		return nil, errors.New("payer and owner keys are required")
	}
	payer := req.Payer.Public().(ed25519.PublicKey)
	owner := req.Owner.Public().(ed25519.PublicKey)

	program, err := c.Program(ctx)
	if err != nil {
		return nil, err
	}
	commitment, err := c.commitment(ctx)
	if err != nil {
		return nil, err
	}

	accounts, err := c.GetStakePoolAccounts(ctx, req.StakePoolAddress)
	if err != nil {
		return nil, err
	}

	if err := c.checkUpToDate(ctx, accounts.StakePool, commitment); err != nil {
		return nil, err
	}

	poolTokenAccount := req.PoolTokenAccount
	if len(poolTokenAccount) == 0 {
		poolTokenAccount, err = token.GetAssociatedAccountForProgram(owner, accounts.StakePool.PoolMint, accounts.StakePool.TokenProgramId)
		if err != nil {
			return nil, errors.Wrap(err, "error deriving pool token account")
		}
	}

	allocations, err := PrepareWithdrawAccounts(&PrepareWithdrawAccountsArgs{
		Program:            program,
		StakePoolAddress:   req.StakePoolAddress,
		StakePool:          accounts.StakePool,
		ValidatorList:      accounts.ValidatorList,
		ReserveLamports:    accounts.ReserveLamports,
		StakeRentExemption: accounts.StakeRentExemption,
		PoolTokens:         req.PoolTokens,
		PoolTokenAccount:   poolTokenAccount,
		Less:               req.Less,
	})
	if err != nil {
		return nil, err
	}

	minimums := SplitMinimumLamportsOut(req.MinimumLamportsOut, allocations)

	var receipts []*WithdrawStakeReceipt
	for i, allocation := range allocations {
		if err := ctx.Err(); err != nil {
			return receipts, err
		}

		stakePub, stakeKey, err := ed25519.GenerateKey(nil)
		if err != nil {
			return receipts, errors.Wrap(err, "error generating stake account")
		}

		instructions, err := NewWithdrawStakeInstructions(&WithdrawStakeFlowArgs{
			Program:               program,
			StakePoolAddress:      req.StakePoolAddress,
			StakePool:             accounts.StakePool,
			Allocations:           []*WithdrawAllocation{allocation},
			NewStakeAccounts:      []ed25519.PublicKey{stakePub},
			StakeRentExemption:    accounts.StakeRentExemption,
			Payer:                 payer,
			UserStakeAuthority:    owner,
			UserTransferAuthority: owner,
			UserPoolTokenAccount:  poolTokenAccount,
			MinimumLamportsOut:    minimums[i],
			ComputeUnitPrice:      req.ComputeUnitPrice,
		})
		if err != nil {
			return receipts, err
		}

		sig, confirmed, err := c.submit(
			log.WithFields(logrus.Fields{
				"stake_account": base58.Encode(stakePub),
				"pool_amount":   allocation.PoolAmount,
			}),
			&submission{
				payer:        req.Payer,
				signers:      []ed25519.PrivateKey{stakeKey, req.Owner},
				instructions: instructions,
				commitment:   commitment,
				wait:         req.WaitForConfirmation,
			},
		)
		if sig != (solana.Signature{}) {
			receipts = append(receipts, &WithdrawStakeReceipt{
				Allocation:   allocation,
				StakeAccount: stakePub,
				Signature:    sig,
				Confirmed:    confirmed,
			})
		}
		if err != nil {
			return receipts, errors.Wrapf(err, "error submitting withdrawal %d", i)
		}
	}

	return receipts, nil
}
