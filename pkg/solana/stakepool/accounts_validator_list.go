package stakepool

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

const ValidatorListHeaderSize = (1 + // account_type
	4 + // max_validators
	4) // validators length prefix

// GetValidatorListAccountSize is the space required to hold maxValidators
// entries.
func GetValidatorListAccountSize(maxValidators uint32) int {
	return ValidatorListHeaderSize + int(maxValidators)*ValidatorStakeInfoSize
}

// ValidatorList holds the stake info of every validator in a pool.
type ValidatorList struct {
	AccountType   AccountType
	MaxValidators uint32
	Validators    []ValidatorStakeInfo
}

var validatorListLayout = layout.Struct([]*layout.Layout{
	layout.U8("accountType"),
	layout.U32("maxValidators"),
	layout.Vec(validatorStakeInfoLayout, "validators"),
}, "")

func (obj *ValidatorList) Marshal() ([]byte, error) {
	validators := make([]interface{}, len(obj.Validators))
	for i := range obj.Validators {
		validators[i] = obj.Validators[i].toRecord()
	}

	accountType := obj.AccountType
	if accountType == AccountTypeUninitialized {
		accountType = AccountTypeValidatorList
	}

	return layout.Marshal(validatorListLayout, layout.Record{
		"accountType":   uint8(accountType),
		"maxValidators": obj.MaxValidators,
		"validators":    validators,
	})
}

func (obj *ValidatorList) Unmarshal(data []byte) error {
	if err := checkAccountType(data, AccountTypeValidatorList); err != nil {
		return err
	}

	decoded, err := layout.Unmarshal(validatorListLayout, data)
	if err != nil {
		return errors.Wrap(err, "invalid validator list data")
	}

	r := decoded.(layout.Record)
	obj.AccountType = AccountType(r.Uint64("accountType"))
	obj.MaxValidators = uint32(r.Uint64("maxValidators"))

	raw := r.Slice("validators")
	obj.Validators = make([]ValidatorStakeInfo, len(raw))
	for i, v := range raw {
		obj.Validators[i] = validatorStakeInfoFromRecord(v.(layout.Record))
	}
	return nil
}

// Find returns the entry for a vote account.
func (obj *ValidatorList) Find(voteAccount ed25519.PublicKey) (*ValidatorStakeInfo, error) {
	for i := range obj.Validators {
		if bytes.Equal(obj.Validators[i].VoteAccountAddress, voteAccount) {
			return &obj.Validators[i], nil
		}
	}
	return nil, ErrValidatorNotFound
}

// TotalStakeLamports sums active and transient stake across all entries.
func (obj *ValidatorList) TotalStakeLamports() uint64 {
	var total uint64
	for i := range obj.Validators {
		total += obj.Validators[i].StakeLamports()
	}
	return total
}

func (obj *ValidatorList) String() string {
	return fmt.Sprintf(
		"ValidatorList{max_validators=%d,validators=%d}",
		obj.MaxValidators,
		len(obj.Validators),
	)
}
