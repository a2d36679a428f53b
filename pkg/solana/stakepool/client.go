package stakepool

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/code-payments/code-stakepool/pkg/cache"
	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
)

var (
	ErrAccountNotFound = errors.New("stake pool account not found")
	ErrInvalidOwner    = errors.New("account not owned by the expected program")
)

// Client reads stake pool state over RPC and feeds it to the pure helpers in
// this package.
type Client struct {
	log       *logrus.Entry
	conf      *conf
	sc        solana.Client
	rentCache cache.Cache[uint64]
}

func NewClient(sc solana.Client, configProvider ConfigProvider) *Client {
	conf := configProvider()
	return &Client{
		log:       logrus.StandardLogger().WithField("type", "stakepool/client"),
		conf:      conf,
		sc:        sc,
		rentCache: cache.NewCache[uint64](int(conf.rentCacheBudget.Get(context.Background()))),
	}
}

// Program is the stake pool program the client targets.
func (c *Client) Program(ctx context.Context) (ed25519.PublicKey, error) {
	configured := c.conf.programId.Get(ctx)
	if len(configured) == 0 {
		return PROGRAM_ID, nil
	}

	program, err := solana.ParsePublicKey(configured)
	if err != nil {
		return nil, errors.Wrap(err, "invalid configured program id")
	}
	return program, nil
}

func (c *Client) commitment(ctx context.Context) (solana.Commitment, error) {
	switch value := c.conf.commitment.Get(ctx); value {
	case "processed":
		return solana.CommitmentProcessed, nil
	case "confirmed":
		return solana.CommitmentConfirmed, nil
	case "finalized":
		return solana.CommitmentFinalized, nil
	default:
		return solana.Commitment{}, errors.Errorf("invalid commitment %q", value)
	}
}

type rpcResult[T any] struct {
	value T
	err   error
}

// withContext runs a blocking RPC call and returns early once ctx is done.
// An abandoned call finishes in the background, bounded by the RPC client's
// own HTTP timeout.
func withContext[T any](ctx context.Context, call func() (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	done := make(chan rpcResult[T], 1)
	go func() {
		value, err := call()
		done <- rpcResult[T]{value: value, err: err}
	}()

	select {
	case result := <-done:
		return result.value, result.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Client) getProgramAccount(ctx context.Context, address, owner ed25519.PublicKey) ([]byte, error) {
	commitment, err := c.commitment(ctx)
	if err != nil {
		return nil, err
	}

	info, err := withContext(ctx, func() (solana.AccountInfo, error) {
		return c.sc.GetAccountInfo(address, commitment)
	})
	if errors.Is(err, solana.ErrNoAccountInfo) {
		return nil, errors.Wrapf(ErrAccountNotFound, "account %s", base58.Encode(address))
	} else if err != nil {
		return nil, errors.Wrapf(err, "error getting account info for %s", base58.Encode(address))
	}

	if owner != nil && !info.Owner.Equal(owner) {
		return nil, errors.Wrapf(ErrInvalidOwner, "account %s is owned by %s", base58.Encode(address), base58.Encode(info.Owner))
	}
	return info.Data, nil
}

// GetStakePool fetches and decodes the pool account at address.
func (c *Client) GetStakePool(ctx context.Context, address ed25519.PublicKey) (*StakePool, error) {
	program, err := c.Program(ctx)
	if err != nil {
		return nil, err
	}

	data, err := c.getProgramAccount(ctx, address, program)
	if err != nil {
		return nil, err
	}

	var pool StakePool
	if err := pool.Unmarshal(data); err != nil {
		return nil, errors.Wrapf(err, "error decoding stake pool %s", base58.Encode(address))
	}
	return &pool, nil
}

// GetValidatorList fetches and decodes the validator list at address.
func (c *Client) GetValidatorList(ctx context.Context, address ed25519.PublicKey) (*ValidatorList, error) {
	program, err := c.Program(ctx)
	if err != nil {
		return nil, err
	}

	data, err := c.getProgramAccount(ctx, address, program)
	if err != nil {
		return nil, err
	}

	var list ValidatorList
	if err := list.Unmarshal(data); err != nil {
		return nil, errors.Wrapf(err, "error decoding validator list %s", base58.Encode(address))
	}
	return &list, nil
}

// GetStakeAccount fetches and decodes a native stake account.
func (c *Client) GetStakeAccount(ctx context.Context, address ed25519.PublicKey) (*stake.State, error) {
	data, err := c.getProgramAccount(ctx, address, stake.ProgramKey)
	if err != nil {
		return nil, err
	}

	var state stake.State
	if err := state.Unmarshal(data); err != nil {
		return nil, errors.Wrapf(err, "error decoding stake account %s", base58.Encode(address))
	}
	return &state, nil
}

// GetStakeRentExemption returns the rent-exempt minimum of a stake account.
// The value is cached for the life of the client.
func (c *Client) GetStakeRentExemption(ctx context.Context) (uint64, error) {
	return c.getRentExemption(ctx, stake.StateSize)
}

func (c *Client) getRentExemption(ctx context.Context, size uint64) (uint64, error) {
	key := fmt.Sprintf("rent:%d", size)
	if cached, ok := c.rentCache.Retrieve(key); ok {
		return cached, nil
	}

	lamports, err := withContext(ctx, func() (uint64, error) {
		return c.sc.GetMinimumBalanceForRentExemption(size)
	})
	if err != nil {
		return 0, errors.Wrapf(err, "error getting rent exemption for %d bytes", size)
	}

	if err := c.rentCache.Insert(key, lamports, 1); err != nil && !errors.Is(err, cache.ErrKeyExists) {
		c.log.WithError(err).WithField("method", "getRentExemption").Warn("failed to cache rent exemption")
	}
	return lamports, nil
}

// StakePoolAccounts is a consistent-enough snapshot of everything the
// withdrawal selector needs.
type StakePoolAccounts struct {
	Address            ed25519.PublicKey
	StakePool          *StakePool
	ValidatorList      *ValidatorList
	ReserveLamports    uint64
	StakeRentExemption uint64
}

// GetStakePoolAccounts fetches the pool, then its validator list, reserve
// balance and stake rent exemption concurrently.
func (c *Client) GetStakePoolAccounts(ctx context.Context, address ed25519.PublicKey) (*StakePoolAccounts, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":     "GetStakePoolAccounts",
		"stake_pool": base58.Encode(address),
	})

	ctx, cancel := context.WithTimeout(ctx, c.conf.fetchTimeout.Get(ctx))
	defer cancel()

	pool, err := c.GetStakePool(ctx, address)
	if err != nil {
		return nil, err
	}

	accounts := &StakePoolAccounts{
		Address:   address,
		StakePool: pool,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := c.GetValidatorList(gctx, pool.ValidatorList)
		if err != nil {
			return err
		}
		accounts.ValidatorList = list
		return nil
	})
	g.Go(func() error {
		balance, err := withContext(gctx, func() (uint64, error) {
			return c.sc.GetBalance(pool.ReserveStake)
		})
		if err != nil {
			return errors.Wrap(err, "error getting reserve stake balance")
		}
		accounts.ReserveLamports = balance
		return nil
	})
	g.Go(func() error {
		rent, err := c.GetStakeRentExemption(gctx)
		if err != nil {
			return err
		}
		accounts.StakeRentExemption = rent
		return nil
	})
	if err := g.Wait(); err != nil {
		log.WithError(err).Warn("failed to fetch stake pool accounts")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"validators":       len(accounts.ValidatorList.Validators),
		"reserve_lamports": accounts.ReserveLamports,
	}).Debug("fetched stake pool accounts")

	return accounts, nil
}

type PrepareWithdrawRequest struct {
	StakePoolAddress ed25519.PublicKey
	PoolTokens       uint64
	PoolTokenAccount ed25519.PublicKey
	Less             WithdrawCandidateLess
}

// PrepareWithdrawAccounts fetches current pool state and splits the request
// across the pool's stake accounts.
func (c *Client) PrepareWithdrawAccounts(ctx context.Context, req *PrepareWithdrawRequest) ([]*WithdrawAllocation, *StakePoolAccounts, error) {
	log := c.log.WithFields(logrus.Fields{
		"method":      "PrepareWithdrawAccounts",
		"stake_pool":  base58.Encode(req.StakePoolAddress),
		"pool_tokens": req.PoolTokens,
	})

	program, err := c.Program(ctx)
	if err != nil {
		return nil, nil, err
	}

	accounts, err := c.GetStakePoolAccounts(ctx, req.StakePoolAddress)
	if err != nil {
		return nil, nil, err
	}

	allocations, err := PrepareWithdrawAccounts(&PrepareWithdrawAccountsArgs{
		Program:            program,
		StakePoolAddress:   req.StakePoolAddress,
		StakePool:          accounts.StakePool,
		ValidatorList:      accounts.ValidatorList,
		ReserveLamports:    accounts.ReserveLamports,
		StakeRentExemption: accounts.StakeRentExemption,
		PoolTokens:         req.PoolTokens,
		PoolTokenAccount:   req.PoolTokenAccount,
		Less:               req.Less,
	})
	if err != nil {
		log.WithError(err).Info("unable to allocate withdrawal")
		return nil, accounts, err
	}

	log.WithField("allocations", len(allocations)).Debug("allocated withdrawal")
	return allocations, accounts, nil
}
