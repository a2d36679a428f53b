package stakepool

import (
	"context"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-stakepool/pkg/solana/token"
)

type PoolTokenBalance struct {
	TokenAccount ed25519.PublicKey
	Amount       uint64

	// Lamports is the balance's share of the pool's total lamports.
	Lamports uint64
	// StakeWithdrawalLamports and SolWithdrawalLamports estimate the payout
	// of withdrawing the whole balance, net of the pool's fees.
	StakeWithdrawalLamports uint64
	SolWithdrawalLamports   uint64

	// MintSupply drifts from the pool's recorded token supply until the pool
	// is next updated.
	MintSupply uint64
}

// GetPoolTokenBalance reads a pool token account and values it against the
// pool's current exchange rate. tokenAccount defaults to owner's associated
// token account for the pool mint.
func (c *Client) GetPoolTokenBalance(ctx context.Context, poolAddress, owner, tokenAccount ed25519.PublicKey) (*PoolTokenBalance, error) {
	commitment, err := c.commitment(ctx)
	if err != nil {
		return nil, err
	}

	pool, err := c.GetStakePool(ctx, poolAddress)
	if err != nil {
		return nil, err
	}

	if len(tokenAccount) == 0 {
		if len(owner) == 0 {
			return nil, errors.New("owner or token account is required")
		}
		tokenAccount, err = token.GetAssociatedAccountForProgram(owner, pool.PoolMint, pool.TokenProgramId)
		if err != nil {
			return nil, errors.Wrap(err, "error deriving pool token account")
		}
	}

	tc := token.NewClient(c.sc, pool.PoolMint)
	account, err := tc.GetAccount(tokenAccount, commitment)
	if err != nil {
		return nil, errors.Wrapf(err, "error getting pool token account %s", base58.Encode(tokenAccount))
	}
	mint, err := tc.GetMint(commitment)
	if err != nil {
		return nil, errors.Wrap(err, "error getting pool mint")
	}

	if mint.Supply != pool.PoolTokenSupply {
		c.log.WithFields(logrus.Fields{
			"method":      "GetPoolTokenBalance",
			"stake_pool":  base58.Encode(poolAddress),
			"mint_supply": mint.Supply,
			"pool_supply": pool.PoolTokenSupply,
		}).Debug("pool mint supply differs from recorded supply")
	}

	balance := &PoolTokenBalance{
		TokenAccount: tokenAccount,
		Amount:       account.Amount,
		MintSupply:   mint.Supply,
	}
	if balance.Lamports, err = pool.LamportsForWithdrawal(account.Amount); err != nil {
		return nil, err
	}
	if balance.StakeWithdrawalLamports, err = pool.LamportsForWithdrawal(ApplyFee(account.Amount, pool.StakeWithdrawalFee)); err != nil {
		return nil, err
	}
	if balance.SolWithdrawalLamports, err = pool.EstimateWithdrawSol(account.Amount); err != nil {
		return nil, err
	}
	return balance, nil
}
