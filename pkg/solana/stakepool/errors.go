package stakepool

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
)

var (
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")

	// ErrInvalidAccountType indicates account data whose leading type byte is
	// not the one expected (or not a known stake pool account at all).
	ErrInvalidAccountType = errors.New("invalid stake pool account type")

	ErrValidatorNotFound      = errors.New("validator not found in validator list")
	ErrTransientStakeInFlight = errors.New("transient stake account already in flight")
	ErrMetadataFieldTooLong   = errors.New("token metadata field too long")
	ErrArithmeticOverflow     = errors.New("arithmetic overflow")
	ErrInsufficientBalance    = errors.New("insufficient balance")

	// ErrStakePoolOutOfDate is returned before submitting a withdrawal the
	// program would reject because the pool has not been updated this epoch.
	ErrStakePoolOutOfDate = errors.New("stake pool not updated for the current epoch")
)

// InsufficientBalanceError is returned when no combination of the pool's
// stake accounts can cover a withdrawal request.
type InsufficientBalanceError struct {
	// Requested is the pool token amount originally asked for.
	Requested uint64
	// Remaining is the part of Requested that could not be allocated.
	Remaining uint64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"no stake accounts found in this pool with enough balance to withdraw %d pool tokens (%d allocated, %d unmet)",
		e.Requested,
		e.Requested-e.Remaining,
		e.Remaining,
	)
}

func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}

// StakePoolError is a custom program error returned by the on-chain program.
type StakePoolError uint32

const (
	ErrAlreadyInUse StakePoolError = iota
	ErrInvalidProgramAddress
	ErrInvalidState
	ErrCalculationFailure
	ErrFeeTooHigh
	ErrWrongAccountMint
	ErrWrongManager
	ErrSignatureMissing
	ErrInvalidValidatorStakeList
	ErrInvalidFeeAccount
	ErrWrongPoolMint
	ErrWrongStakeStake
	ErrUserStakeNotActive
	ErrValidatorAlreadyAdded
	ErrValidatorNotFoundOnChain
	ErrInvalidStakeAccountAddress
	ErrStakeListOutOfDate
	ErrStakeListAndPoolOutOfDate
	ErrUnknownValidatorStakeAccount
	ErrWrongMintingAuthority
	ErrUnexpectedValidatorListAccountSize
	ErrWrongStaker
	ErrNonZeroPoolTokenSupply
	ErrStakeLamportsNotEqualToMinimum
	ErrIncorrectDepositVoteAddress
	ErrIncorrectWithdrawVoteAddress
	ErrInvalidMintFreezeAuthority
	ErrFeeIncreaseTooHigh
	ErrWithdrawalTooSmall
	ErrDepositTooSmall
	ErrInvalidStakeDepositAuthority
	ErrInvalidSolDepositAuthority
	ErrInvalidPreferredValidator
	ErrTransientAccountInUse
	ErrInvalidSolWithdrawAuthority
	ErrSolWithdrawalTooLarge
	ErrInvalidMetadataAccount
	ErrUnsupportedMintExtension
	ErrUnsupportedFeeAccountExtension
	ErrExceededSlippage
	ErrIncorrectMintDecimals
	ErrReserveDepleted
	ErrMissingRequiredSysvar
)

var stakePoolErrorNames = []string{
	"AlreadyInUse",
	"InvalidProgramAddress",
	"InvalidState",
	"CalculationFailure",
	"FeeTooHigh",
	"WrongAccountMint",
	"WrongManager",
	"SignatureMissing",
	"InvalidValidatorStakeList",
	"InvalidFeeAccount",
	"WrongPoolMint",
	"WrongStakeStake",
	"UserStakeNotActive",
	"ValidatorAlreadyAdded",
	"ValidatorNotFound",
	"InvalidStakeAccountAddress",
	"StakeListOutOfDate",
	"StakeListAndPoolOutOfDate",
	"UnknownValidatorStakeAccount",
	"WrongMintingAuthority",
	"UnexpectedValidatorListAccountSize",
	"WrongStaker",
	"NonZeroPoolTokenSupply",
	"StakeLamportsNotEqualToMinimum",
	"IncorrectDepositVoteAddress",
	"IncorrectWithdrawVoteAddress",
	"InvalidMintFreezeAuthority",
	"FeeIncreaseTooHigh",
	"WithdrawalTooSmall",
	"DepositTooSmall",
	"InvalidStakeDepositAuthority",
	"InvalidSolDepositAuthority",
	"InvalidPreferredValidator",
	"TransientAccountInUse",
	"InvalidSolWithdrawAuthority",
	"SolWithdrawalTooLarge",
	"InvalidMetadataAccount",
	"UnsupportedMintExtension",
	"UnsupportedFeeAccountExtension",
	"ExceededSlippage",
	"IncorrectMintDecimals",
	"ReserveDepleted",
	"MissingRequiredSysvar",
}

func (e StakePoolError) Error() string {
	if int(e) < len(stakePoolErrorNames) {
		return fmt.Sprintf("stake pool program error: %s (%d)", stakePoolErrorNames[e], uint32(e))
	}
	return fmt.Sprintf("stake pool program error: custom error %d", uint32(e))
}

// ProgramError extracts the stake pool custom error from a failed
// transaction, as returned by solana.Client.
func ProgramError(err error) (StakePoolError, bool) {
	var txErr *solana.TransactionError
	if !errors.As(err, &txErr) {
		return 0, false
	}

	code, ok := txErr.CustomError()
	if !ok {
		return 0, false
	}
	return StakePoolError(code), true
}
