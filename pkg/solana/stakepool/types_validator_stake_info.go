package stakepool

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

type StakeStatus uint8

const (
	// Stake account is active, there may be a transient stake as well.
	StakeStatusActive StakeStatus = iota
	// Only transient stake account exists, when a transient stake is
	// deactivating during validator removal.
	StakeStatusDeactivatingTransient
	// No more validator stake accounts exist, entry ready for removal.
	StakeStatusReadyForRemoval
	// Only the validator stake account is deactivating, no transient stake
	// account exists.
	StakeStatusDeactivatingValidator
	// Both the transient and validator stake account are deactivating.
	StakeStatusDeactivatingAll
)

func (s StakeStatus) String() string {
	switch s {
	case StakeStatusActive:
		return "active"
	case StakeStatusDeactivatingTransient:
		return "deactivating_transient"
	case StakeStatusReadyForRemoval:
		return "ready_for_removal"
	case StakeStatusDeactivatingValidator:
		return "deactivating_validator"
	case StakeStatusDeactivatingAll:
		return "deactivating_all"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

const ValidatorStakeInfoSize = (8 + // active_stake_lamports
	8 + // transient_stake_lamports
	8 + // last_update_epoch
	8 + // transient_seed_suffix_start
	8 + // transient_seed_suffix_end
	1 + // status
	32) // vote_account_address

// ValidatorStakeInfo is a validator's entry in the pool's validator list.
type ValidatorStakeInfo struct {
	ActiveStakeLamports      uint64
	TransientStakeLamports   uint64
	LastUpdateEpoch          uint64
	TransientSeedSuffixStart uint64
	TransientSeedSuffixEnd   uint64
	Status                   StakeStatus
	VoteAccountAddress       ed25519.PublicKey
}

var validatorStakeInfoLayout = layout.Struct([]*layout.Layout{
	layout.U64("activeStakeLamports"),
	layout.U64("transientStakeLamports"),
	layout.U64("lastUpdateEpoch"),
	layout.U64("transientSeedSuffixStart"),
	layout.U64("transientSeedSuffixEnd"),
	layout.U8("status"),
	layout.PublicKey("voteAccountAddress"),
}, "")

func (obj *ValidatorStakeInfo) toRecord() layout.Record {
	return layout.Record{
		"activeStakeLamports":      obj.ActiveStakeLamports,
		"transientStakeLamports":   obj.TransientStakeLamports,
		"lastUpdateEpoch":          obj.LastUpdateEpoch,
		"transientSeedSuffixStart": obj.TransientSeedSuffixStart,
		"transientSeedSuffixEnd":   obj.TransientSeedSuffixEnd,
		"status":                   uint8(obj.Status),
		"voteAccountAddress":       keyOrZero(obj.VoteAccountAddress),
	}
}

func validatorStakeInfoFromRecord(r layout.Record) ValidatorStakeInfo {
	return ValidatorStakeInfo{
		ActiveStakeLamports:      r.Uint64("activeStakeLamports"),
		TransientStakeLamports:   r.Uint64("transientStakeLamports"),
		LastUpdateEpoch:          r.Uint64("lastUpdateEpoch"),
		TransientSeedSuffixStart: r.Uint64("transientSeedSuffixStart"),
		TransientSeedSuffixEnd:   r.Uint64("transientSeedSuffixEnd"),
		Status:                   StakeStatus(r.Uint64("status")),
		VoteAccountAddress:       r.Bytes("voteAccountAddress"),
	}
}

// StakeLamports is the validator's total stake, active plus transient.
func (obj *ValidatorStakeInfo) StakeLamports() uint64 {
	return obj.ActiveStakeLamports + obj.TransientStakeLamports
}

func (obj *ValidatorStakeInfo) String() string {
	return fmt.Sprintf(
		"ValidatorStakeInfo{vote=%s,status=%s,active=%d,transient=%d,last_update_epoch=%d,transient_seed=[%d,%d)}",
		base58.Encode(obj.VoteAccountAddress),
		obj.Status,
		obj.ActiveStakeLamports,
		obj.TransientStakeLamports,
		obj.LastUpdateEpoch,
		obj.TransientSeedSuffixStart,
		obj.TransientSeedSuffixEnd,
	)
}
