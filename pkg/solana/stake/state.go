package stake

import (
	"crypto/ed25519"
	"fmt"
	"math"

	bin "github.com/gagliardetto/binary"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

var ErrInvalidStakeState = errors.New("invalid stake account state")

type Status uint32

const (
	StatusUninitialized Status = iota
	StatusInitialized
	StatusStake
	StatusRewardsPool
)

func (s Status) String() string {
	switch s {
	case StatusUninitialized:
		return "uninitialized"
	case StatusInitialized:
		return "initialized"
	case StatusStake:
		return "stake"
	case StatusRewardsPool:
		return "rewards_pool"
	default:
		return fmt.Sprintf("unknown(%d)", uint32(s))
	}
}

type Authorized struct {
	Staker     ed25519.PublicKey
	Withdrawer ed25519.PublicKey
}

type Lockup struct {
	UnixTimestamp uint64
	Epoch         uint64
	Custodian     ed25519.PublicKey
}

type Meta struct {
	RentExemptReserve uint64
	Authorized        Authorized
	Lockup            Lockup
}

type Delegation struct {
	VoterPubkey        ed25519.PublicKey
	Stake              uint64
	ActivationEpoch    uint64
	DeactivationEpoch  uint64
	WarmupCooldownRate float64
}

// State is a decoded native stake account. Meta is set for initialized and
// delegated accounts, Delegation only for delegated ones.
type State struct {
	Status          Status
	Meta            *Meta
	Delegation      *Delegation
	CreditsObserved uint64
	Flags           uint8
}

func readKey(decoder *bin.Decoder) (ed25519.PublicKey, error) {
	b, err := decoder.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, b)
	return key, nil
}

func (a *Authorized) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if a.Staker, err = readKey(decoder); err != nil {
		return err
	}
	a.Withdrawer, err = readKey(decoder)
	return err
}

func (l *Lockup) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if l.UnixTimestamp, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if l.Epoch, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	l.Custodian, err = readKey(decoder)
	return err
}

func (m *Meta) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if m.RentExemptReserve, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if err = m.Authorized.UnmarshalWithDecoder(decoder); err != nil {
		return err
	}
	return m.Lockup.UnmarshalWithDecoder(decoder)
}

func (d *Delegation) UnmarshalWithDecoder(decoder *bin.Decoder) (err error) {
	if d.VoterPubkey, err = readKey(decoder); err != nil {
		return err
	}
	if d.Stake, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if d.ActivationEpoch, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	if d.DeactivationEpoch, err = decoder.ReadUint64(bin.LE); err != nil {
		return err
	}
	d.WarmupCooldownRate, err = decoder.ReadFloat64(bin.LE)
	return err
}

func (s *State) UnmarshalWithDecoder(decoder *bin.Decoder) error {
	status, err := decoder.ReadUint32(bin.LE)
	if err != nil {
		return err
	}

	*s = State{Status: Status(status)}
	switch s.Status {
	case StatusUninitialized, StatusRewardsPool:
		return nil
	case StatusInitialized:
		s.Meta = &Meta{}
		return s.Meta.UnmarshalWithDecoder(decoder)
	case StatusStake:
		s.Meta = &Meta{}
		if err := s.Meta.UnmarshalWithDecoder(decoder); err != nil {
			return err
		}
		s.Delegation = &Delegation{}
		if err := s.Delegation.UnmarshalWithDecoder(decoder); err != nil {
			return err
		}
		if s.CreditsObserved, err = decoder.ReadUint64(bin.LE); err != nil {
			return err
		}
		s.Flags, err = decoder.ReadByte()
		return err
	default:
		return errors.Wrapf(ErrInvalidStakeState, "unknown status %d", status)
	}
}

// Unmarshal decodes stake account data.
func (s *State) Unmarshal(data []byte) error {
	if err := s.UnmarshalWithDecoder(bin.NewBinDecoder(data)); err != nil {
		if errors.Is(err, ErrInvalidStakeState) {
			return err
		}
		return errors.Wrap(ErrInvalidStakeState, err.Error())
	}
	return nil
}

// IsDeactivating reports whether a delegated account has been deactivated.
func (s *State) IsDeactivating() bool {
	return s.Delegation != nil && s.Delegation.DeactivationEpoch != math.MaxUint64
}

// DelegatedVote returns the vote account the stake is delegated to, if any.
func (s *State) DelegatedVote() ed25519.PublicKey {
	if s.Delegation == nil {
		return nil
	}
	return s.Delegation.VoterPubkey
}

func (s *State) String() string {
	if s.Delegation == nil {
		return fmt.Sprintf("StakeState{status=%s}", s.Status)
	}
	return fmt.Sprintf(
		"StakeState{status=%s,voter=%s,stake=%d,activation_epoch=%d,deactivation_epoch=%d}",
		s.Status,
		base58.Encode(s.Delegation.VoterPubkey),
		s.Delegation.Stake,
		s.Delegation.ActivationEpoch,
		s.Delegation.DeactivationEpoch,
	)
}
