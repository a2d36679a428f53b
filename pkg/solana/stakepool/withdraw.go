package stakepool

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"sort"

	"github.com/holiman/uint256"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

type WithdrawCandidateKind uint8

const (
	WithdrawCandidatePreferred WithdrawCandidateKind = iota
	WithdrawCandidateActive
	WithdrawCandidateTransient
	WithdrawCandidateReserve
)

// withdrawTiers is the order candidates are drained in.
var withdrawTiers = []WithdrawCandidateKind{
	WithdrawCandidatePreferred,
	WithdrawCandidateActive,
	WithdrawCandidateTransient,
	WithdrawCandidateReserve,
}

func (k WithdrawCandidateKind) String() string {
	switch k {
	case WithdrawCandidatePreferred:
		return "preferred"
	case WithdrawCandidateActive:
		return "active"
	case WithdrawCandidateTransient:
		return "transient"
	case WithdrawCandidateReserve:
		return "reserve"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// WithdrawCandidate is a stake account lamports could be withdrawn from.
type WithdrawCandidate struct {
	Kind         WithdrawCandidateKind
	StakeAddress ed25519.PublicKey
	// VoteAddress is nil for the reserve.
	VoteAddress ed25519.PublicKey
	Lamports    uint64
}

func (c WithdrawCandidate) String() string {
	return fmt.Sprintf(
		"WithdrawCandidate{kind=%s,stake=%s,vote=%s,lamports=%d}",
		c.Kind,
		base58.Encode(c.StakeAddress),
		optionalKeyString(c.VoteAddress),
		c.Lamports,
	)
}

// WithdrawAllocation is the part of a withdrawal, in pool tokens, to take
// from a single stake account.
type WithdrawAllocation struct {
	StakeAddress ed25519.PublicKey
	VoteAddress  ed25519.PublicKey
	PoolAmount   uint64
}

func (a WithdrawAllocation) String() string {
	return fmt.Sprintf(
		"WithdrawAllocation{stake=%s,vote=%s,pool_amount=%d}",
		base58.Encode(a.StakeAddress),
		optionalKeyString(a.VoteAddress),
		a.PoolAmount,
	)
}

// WithdrawCandidateLess orders candidates within a tier. It replaces the
// default largest-first ordering entirely.
type WithdrawCandidateLess func(a, b *WithdrawCandidate) bool

type BuildWithdrawCandidatesArgs struct {
	Program            ed25519.PublicKey
	StakePoolAddress   ed25519.PublicKey
	StakePool          *StakePool
	ValidatorList      *ValidatorList
	ReserveLamports    uint64
	StakeRentExemption uint64
}

// MinimumStakeBalance is the least a validator stake account can hold.
func MinimumStakeBalance(stakeRentExemption uint64) uint64 {
	return stakeRentExemption + MinimumActiveStake
}

// BuildWithdrawCandidates lists every stake account of the pool that has
// lamports available for withdrawal, unsorted.
func BuildWithdrawCandidates(args *BuildWithdrawCandidatesArgs) ([]*WithdrawCandidate, error) {
	minBalance := MinimumStakeBalance(args.StakeRentExemption)

	var candidates []*WithdrawCandidate
	for i := range args.ValidatorList.Validators {
		validator := &args.ValidatorList.Validators[i]
		if validator.Status != StakeStatusActive {
			continue
		}

		stakeAddress, _, err := GetValidatorStakeAddress(&GetValidatorStakeAddressArgs{
			Program:     args.Program,
			VoteAccount: validator.VoteAccountAddress,
			StakePool:   args.StakePoolAddress,
		})
		if err != nil {
			return nil, errors.Wrap(err, "error deriving validator stake address")
		}

		if validator.ActiveStakeLamports != 0 {
			kind := WithdrawCandidateActive
			if bytes.Equal(validator.VoteAccountAddress, args.StakePool.PreferredWithdrawValidatorVoteAddress) {
				kind = WithdrawCandidatePreferred
			}

			candidates = append(candidates, &WithdrawCandidate{
				Kind:         kind,
				StakeAddress: stakeAddress,
				VoteAddress:  validator.VoteAccountAddress,
				Lamports:     validator.ActiveStakeLamports,
			})
		}

		if validator.TransientStakeLamports > minBalance {
			transientAddress, _, err := GetTransientStakeAddress(&GetTransientStakeAddressArgs{
				Program:     args.Program,
				VoteAccount: validator.VoteAccountAddress,
				StakePool:   args.StakePoolAddress,
				Seed:        validator.TransientSeedSuffixStart,
			})
			if err != nil {
				return nil, errors.Wrap(err, "error deriving transient stake address")
			}

			candidates = append(candidates, &WithdrawCandidate{
				Kind:         WithdrawCandidateTransient,
				StakeAddress: transientAddress,
				VoteAddress:  validator.VoteAccountAddress,
				Lamports:     validator.TransientStakeLamports - minBalance,
			})
		}
	}

	reserveFloor := args.StakeRentExemption + MinimumReserveLamports
	if args.ReserveLamports > reserveFloor {
		candidates = append(candidates, &WithdrawCandidate{
			Kind:         WithdrawCandidateReserve,
			StakeAddress: args.StakePool.ReserveStake,
			Lamports:     args.ReserveLamports - reserveFloor,
		})
	}

	return candidates, nil
}

type PrepareWithdrawAccountsArgs struct {
	Program            ed25519.PublicKey
	StakePoolAddress   ed25519.PublicKey
	StakePool          *StakePool
	ValidatorList      *ValidatorList
	ReserveLamports    uint64
	StakeRentExemption uint64

	// PoolTokens is the amount requested for withdrawal.
	PoolTokens uint64
	// PoolTokenAccount is the account the pool tokens are withdrawn from. The
	// withdrawal fee is waived when it is the manager fee account.
	PoolTokenAccount ed25519.PublicKey

	// Less, if set, replaces the default largest-first ordering.
	Less WithdrawCandidateLess
}

// PrepareWithdrawAccounts splits a pool token withdrawal across the pool's
// stake accounts, draining the preferred validator first, then other active
// validators, then transient stake, and the reserve last.
func PrepareWithdrawAccounts(args *PrepareWithdrawAccountsArgs) ([]*WithdrawAllocation, error) {
	candidates, err := BuildWithdrawCandidates(&BuildWithdrawCandidatesArgs{
		Program:            args.Program,
		StakePoolAddress:   args.StakePoolAddress,
		StakePool:          args.StakePool,
		ValidatorList:      args.ValidatorList,
		ReserveLamports:    args.ReserveLamports,
		StakeRentExemption: args.StakeRentExemption,
	})
	if err != nil {
		return nil, err
	}

	less := args.Less
	if less == nil {
		less = func(a, b *WithdrawCandidate) bool {
			return a.Lamports > b.Lamports
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return less(candidates[i], candidates[j])
	})

	minBalance := MinimumStakeBalance(args.StakeRentExemption)
	inverseFee := InvertFee(args.StakePool.StakeWithdrawalFee)
	skipFee := len(args.PoolTokenAccount) > 0 && bytes.Equal(args.PoolTokenAccount, args.StakePool.ManagerFeeAccount)

	var allocations []*WithdrawAllocation
	remaining := args.PoolTokens
	for _, tier := range withdrawTiers {
		if remaining == 0 {
			break
		}

		tierCandidates := lo.Filter(candidates, func(c *WithdrawCandidate, _ int) bool {
			return c.Kind == tier
		})

		for _, candidate := range tierCandidates {
			if candidate.Kind == WithdrawCandidateTransient && candidate.Lamports <= minBalance {
				continue
			}

			available, err := args.StakePool.PoolTokensForDeposit(candidate.Lamports)
			if err != nil {
				return nil, errors.Wrapf(err, "error converting %d lamports to pool tokens", candidate.Lamports)
			}

			if !skipFee {
				available, err = GrossUp(available, inverseFee)
				if err != nil {
					return nil, errors.Wrap(err, "error applying inverse withdrawal fee")
				}
			}

			amount := available
			if remaining < amount {
				amount = remaining
			}
			if amount == 0 {
				continue
			}

			allocations = append(allocations, &WithdrawAllocation{
				StakeAddress: candidate.StakeAddress,
				VoteAddress:  candidate.VoteAddress,
				PoolAmount:   amount,
			})

			remaining -= amount
			if remaining == 0 {
				break
			}
		}
	}

	if remaining > 0 {
		return nil, &InsufficientBalanceError{
			Requested: args.PoolTokens,
			Remaining: remaining,
		}
	}

	return allocations, nil
}

// TotalPoolTokens sums the pool tokens of a set of allocations.
func TotalPoolTokens(allocations []*WithdrawAllocation) uint64 {
	return lo.SumBy(allocations, func(a *WithdrawAllocation) uint64 {
		return a.PoolAmount
	})
}

// SplitMinimumLamportsOut divides a slippage bound for a whole withdrawal
// across its allocations in proportion to their pool tokens. Shares round
// down, so they never sum to more than minimum.
func SplitMinimumLamportsOut(minimum uint64, allocations []*WithdrawAllocation) []uint64 {
	shares := make([]uint64, len(allocations))
	total := TotalPoolTokens(allocations)
	if minimum == 0 || total == 0 {
		return shares
	}

	for i, allocation := range allocations {
		share := new(uint256.Int).Mul(uint256.NewInt(minimum), uint256.NewInt(allocation.PoolAmount))
		share.Div(share, uint256.NewInt(total))
		// PoolAmount <= total, so the share fits in a uint64.
		shares[i] = share.Uint64()
	}
	return shares
}
