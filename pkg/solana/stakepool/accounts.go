package stakepool

import (
	"github.com/pkg/errors"
)

type AccountType uint8

const (
	AccountTypeUninitialized AccountType = iota
	AccountTypeStakePool
	AccountTypeValidatorList
)

func (t AccountType) String() string {
	switch t {
	case AccountTypeUninitialized:
		return "uninitialized"
	case AccountTypeStakePool:
		return "stake_pool"
	case AccountTypeValidatorList:
		return "validator_list"
	default:
		return "unknown"
	}
}

// GetAccountType reads the leading type byte of stake pool program account
// data.
func GetAccountType(data []byte) (AccountType, error) {
	if len(data) == 0 {
		return AccountTypeUninitialized, errors.Wrap(ErrInvalidAccountData, "empty account data")
	}

	accountType := AccountType(data[0])
	switch accountType {
	case AccountTypeStakePool, AccountTypeValidatorList:
		return accountType, nil
	default:
		return accountType, errors.Wrapf(ErrInvalidAccountType, "account type byte %d", data[0])
	}
}

// DecodeAccount decodes stake pool program account data into a *StakePool or
// *ValidatorList depending on its leading type byte.
func DecodeAccount(data []byte) (interface{}, error) {
	accountType, err := GetAccountType(data)
	if err != nil {
		return nil, err
	}

	switch accountType {
	case AccountTypeStakePool:
		var pool StakePool
		if err := pool.Unmarshal(data); err != nil {
			return nil, err
		}
		return &pool, nil
	case AccountTypeValidatorList:
		var list ValidatorList
		if err := list.Unmarshal(data); err != nil {
			return nil, err
		}
		return &list, nil
	default:
		return nil, errors.Wrapf(ErrInvalidAccountType, "account type byte %d", data[0])
	}
}

func checkAccountType(data []byte, expected AccountType) error {
	if len(data) == 0 {
		return errors.Wrap(ErrInvalidAccountData, "empty account data")
	}
	if AccountType(data[0]) != expected {
		return errors.Wrapf(ErrInvalidAccountType, "expected %s, got type byte %d", expected, data[0])
	}
	return nil
}
