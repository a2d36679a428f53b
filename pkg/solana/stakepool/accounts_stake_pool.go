package stakepool

import (
	"crypto/ed25519"
	"fmt"
	"math/big"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

// StakePool is the top-level pool account.
type StakePool struct {
	AccountType           AccountType
	Manager               ed25519.PublicKey
	Staker                ed25519.PublicKey
	StakeDepositAuthority ed25519.PublicKey
	StakeWithdrawBumpSeed uint8
	ValidatorList         ed25519.PublicKey
	ReserveStake          ed25519.PublicKey
	PoolMint              ed25519.PublicKey
	ManagerFeeAccount     ed25519.PublicKey
	TokenProgramId        ed25519.PublicKey

	TotalLamports   uint64
	PoolTokenSupply uint64
	LastUpdateEpoch uint64

	Lockup Lockup

	EpochFee     Fee
	NextEpochFee *Fee

	PreferredDepositValidatorVoteAddress  ed25519.PublicKey
	PreferredWithdrawValidatorVoteAddress ed25519.PublicKey

	StakeDepositFee        Fee
	StakeWithdrawalFee     Fee
	NextStakeWithdrawalFee *Fee
	StakeReferralFee       uint8

	SolDepositAuthority ed25519.PublicKey
	SolDepositFee       Fee
	SolReferralFee      uint8

	SolWithdrawAuthority ed25519.PublicKey
	SolWithdrawalFee     Fee
	NextSolWithdrawalFee *Fee

	LastEpochPoolTokenSupply uint64
	LastEpochTotalLamports   uint64
}

var stakePoolLayout = layout.Struct([]*layout.Layout{
	layout.U8("accountType"),
	layout.PublicKey("manager"),
	layout.PublicKey("staker"),
	layout.PublicKey("stakeDepositAuthority"),
	layout.U8("stakeWithdrawBumpSeed"),
	layout.PublicKey("validatorList"),
	layout.PublicKey("reserveStake"),
	layout.PublicKey("poolMint"),
	layout.PublicKey("managerFeeAccount"),
	layout.PublicKey("tokenProgramId"),
	layout.U64("totalLamports"),
	layout.U64("poolTokenSupply"),
	layout.U64("lastUpdateEpoch"),
	lockupLayout("lockup"),
	feeLayout("epochFee"),
	futureEpochLayout(feeLayout(""), "nextEpochFee"),
	layout.Option(layout.PublicKey(""), "preferredDepositValidatorVoteAddress"),
	layout.Option(layout.PublicKey(""), "preferredWithdrawValidatorVoteAddress"),
	feeLayout("stakeDepositFee"),
	feeLayout("stakeWithdrawalFee"),
	futureEpochLayout(feeLayout(""), "nextStakeWithdrawalFee"),
	layout.U8("stakeReferralFee"),
	layout.Option(layout.PublicKey(""), "solDepositAuthority"),
	feeLayout("solDepositFee"),
	layout.U8("solReferralFee"),
	layout.Option(layout.PublicKey(""), "solWithdrawAuthority"),
	feeLayout("solWithdrawalFee"),
	futureEpochLayout(feeLayout(""), "nextSolWithdrawalFee"),
	layout.U64("lastEpochPoolTokenSupply"),
	layout.U64("lastEpochTotalLamports"),
}, "")

func (obj *StakePool) toRecord() layout.Record {
	accountType := obj.AccountType
	if accountType == AccountTypeUninitialized {
		accountType = AccountTypeStakePool
	}

	return layout.Record{
		"accountType":                           uint8(accountType),
		"manager":                               keyOrZero(obj.Manager),
		"staker":                                keyOrZero(obj.Staker),
		"stakeDepositAuthority":                 keyOrZero(obj.StakeDepositAuthority),
		"stakeWithdrawBumpSeed":                 obj.StakeWithdrawBumpSeed,
		"validatorList":                         keyOrZero(obj.ValidatorList),
		"reserveStake":                          keyOrZero(obj.ReserveStake),
		"poolMint":                              keyOrZero(obj.PoolMint),
		"managerFeeAccount":                     keyOrZero(obj.ManagerFeeAccount),
		"tokenProgramId":                        keyOrZero(obj.TokenProgramId),
		"totalLamports":                         obj.TotalLamports,
		"poolTokenSupply":                       obj.PoolTokenSupply,
		"lastUpdateEpoch":                       obj.LastUpdateEpoch,
		"lockup":                                obj.Lockup.toRecord(),
		"epochFee":                              obj.EpochFee.toRecord(),
		"nextEpochFee":                          optionalFeeToValue(obj.NextEpochFee),
		"preferredDepositValidatorVoteAddress":  optionalKeyToValue(obj.PreferredDepositValidatorVoteAddress),
		"preferredWithdrawValidatorVoteAddress": optionalKeyToValue(obj.PreferredWithdrawValidatorVoteAddress),
		"stakeDepositFee":                       obj.StakeDepositFee.toRecord(),
		"stakeWithdrawalFee":                    obj.StakeWithdrawalFee.toRecord(),
		"nextStakeWithdrawalFee":                optionalFeeToValue(obj.NextStakeWithdrawalFee),
		"stakeReferralFee":                      obj.StakeReferralFee,
		"solDepositAuthority":                   optionalKeyToValue(obj.SolDepositAuthority),
		"solDepositFee":                         obj.SolDepositFee.toRecord(),
		"solReferralFee":                        obj.SolReferralFee,
		"solWithdrawAuthority":                  optionalKeyToValue(obj.SolWithdrawAuthority),
		"solWithdrawalFee":                      obj.SolWithdrawalFee.toRecord(),
		"nextSolWithdrawalFee":                  optionalFeeToValue(obj.NextSolWithdrawalFee),
		"lastEpochPoolTokenSupply":              obj.LastEpochPoolTokenSupply,
		"lastEpochTotalLamports":                obj.LastEpochTotalLamports,
	}
}

func (obj *StakePool) Marshal() ([]byte, error) {
	return layout.Marshal(stakePoolLayout, obj.toRecord())
}

func (obj *StakePool) Unmarshal(data []byte) error {
	if err := checkAccountType(data, AccountTypeStakePool); err != nil {
		return err
	}

	decoded, err := layout.Unmarshal(stakePoolLayout, data)
	if err != nil {
		return errors.Wrap(err, "invalid stake pool data")
	}

	r := decoded.(layout.Record)

	obj.AccountType = AccountType(r.Uint64("accountType"))
	obj.Manager = r.Bytes("manager")
	obj.Staker = r.Bytes("staker")
	obj.StakeDepositAuthority = r.Bytes("stakeDepositAuthority")
	obj.StakeWithdrawBumpSeed = uint8(r.Uint64("stakeWithdrawBumpSeed"))
	obj.ValidatorList = r.Bytes("validatorList")
	obj.ReserveStake = r.Bytes("reserveStake")
	obj.PoolMint = r.Bytes("poolMint")
	obj.ManagerFeeAccount = r.Bytes("managerFeeAccount")
	obj.TokenProgramId = r.Bytes("tokenProgramId")

	obj.TotalLamports = r.Uint64("totalLamports")
	obj.PoolTokenSupply = r.Uint64("poolTokenSupply")
	obj.LastUpdateEpoch = r.Uint64("lastUpdateEpoch")

	obj.Lockup = lockupFromRecord(r.Record("lockup"))

	obj.EpochFee = feeFromRecord(r.Record("epochFee"))
	obj.NextEpochFee = optionalFeeFromValue(r["nextEpochFee"])

	obj.PreferredDepositValidatorVoteAddress = optionalKeyFromValue(r["preferredDepositValidatorVoteAddress"])
	obj.PreferredWithdrawValidatorVoteAddress = optionalKeyFromValue(r["preferredWithdrawValidatorVoteAddress"])

	obj.StakeDepositFee = feeFromRecord(r.Record("stakeDepositFee"))
	obj.StakeWithdrawalFee = feeFromRecord(r.Record("stakeWithdrawalFee"))
	obj.NextStakeWithdrawalFee = optionalFeeFromValue(r["nextStakeWithdrawalFee"])
	obj.StakeReferralFee = uint8(r.Uint64("stakeReferralFee"))

	obj.SolDepositAuthority = optionalKeyFromValue(r["solDepositAuthority"])
	obj.SolDepositFee = feeFromRecord(r.Record("solDepositFee"))
	obj.SolReferralFee = uint8(r.Uint64("solReferralFee"))

	obj.SolWithdrawAuthority = optionalKeyFromValue(r["solWithdrawAuthority"])
	obj.SolWithdrawalFee = feeFromRecord(r.Record("solWithdrawalFee"))
	obj.NextSolWithdrawalFee = optionalFeeFromValue(r["nextSolWithdrawalFee"])

	obj.LastEpochPoolTokenSupply = r.Uint64("lastEpochPoolTokenSupply")
	obj.LastEpochTotalLamports = r.Uint64("lastEpochTotalLamports")

	return nil
}

// PoolTokensForDeposit converts lamports to pool tokens at the pool's
// current rate.
func (obj *StakePool) PoolTokensForDeposit(lamports uint64) (uint64, error) {
	return PoolTokensForDeposit(obj.TotalLamports, obj.PoolTokenSupply, lamports)
}

// LamportsForWithdrawal converts pool tokens to lamports at the pool's
// current rate, before fees.
func (obj *StakePool) LamportsForWithdrawal(poolTokens uint64) (uint64, error) {
	return LamportsForWithdrawal(obj.TotalLamports, obj.PoolTokenSupply, poolTokens)
}

// ExchangeRate is the number of lamports backing one pool token. An empty
// pool trades 1:1.
func (obj *StakePool) ExchangeRate() float64 {
	if obj.TotalLamports == 0 || obj.PoolTokenSupply == 0 {
		return 1
	}
	return DivideExact(
		new(big.Int).SetUint64(obj.TotalLamports),
		new(big.Int).SetUint64(obj.PoolTokenSupply),
	)
}

// EstimateWithdrawSol returns the lamports a WithdrawSol of poolTokens would
// pay out after the SOL withdrawal fee is taken in pool tokens.
func (obj *StakePool) EstimateWithdrawSol(poolTokens uint64) (uint64, error) {
	return obj.LamportsForWithdrawal(ApplyFee(poolTokens, obj.SolWithdrawalFee))
}

func (obj *StakePool) String() string {
	return fmt.Sprintf(
		"StakePool{manager=%s,staker=%s,validator_list=%s,reserve_stake=%s,pool_mint=%s,manager_fee_account=%s,total_lamports=%d,pool_token_supply=%d,last_update_epoch=%d,epoch_fee=%s,stake_withdrawal_fee=%s,sol_withdrawal_fee=%s,preferred_withdraw_validator=%s}",
		base58.Encode(obj.Manager),
		base58.Encode(obj.Staker),
		base58.Encode(obj.ValidatorList),
		base58.Encode(obj.ReserveStake),
		base58.Encode(obj.PoolMint),
		base58.Encode(obj.ManagerFeeAccount),
		obj.TotalLamports,
		obj.PoolTokenSupply,
		obj.LastUpdateEpoch,
		obj.EpochFee,
		obj.StakeWithdrawalFee,
		obj.SolWithdrawalFee,
		optionalKeyString(obj.PreferredWithdrawValidatorVoteAddress),
	)
}

func optionalKeyString(key ed25519.PublicKey) string {
	if len(key) == 0 {
		return "<nil>"
	}
	return base58.Encode(key)
}
