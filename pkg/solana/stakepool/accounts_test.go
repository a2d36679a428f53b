package stakepool

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

func generateKey(t *testing.T) ed25519.PublicKey {
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return pub
}

func generateKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := range keys {
		keys[i] = generateKey(t)
	}
	return keys
}

func newTestStakePool(t *testing.T) *StakePool {
	keys := generateKeys(t, 10)
	return &StakePool{
		AccountType:           AccountTypeStakePool,
		Manager:               keys[0],
		Staker:                keys[1],
		StakeDepositAuthority: keys[2],
		StakeWithdrawBumpSeed: 254,
		ValidatorList:         keys[3],
		ReserveStake:          keys[4],
		PoolMint:              keys[5],
		ManagerFeeAccount:     keys[6],
		TokenProgramId:        keys[7],
		TotalLamports:         4_000_000_000,
		PoolTokenSupply:       4_000_000_000,
		LastUpdateEpoch:       512,
		Lockup: Lockup{
			UnixTimestamp: 1,
			Epoch:         2,
			Custodian:     keys[8],
		},
		EpochFee:                              Fee{Denominator: 100, Numerator: 5},
		NextEpochFee:                          &Fee{Denominator: 100, Numerator: 4},
		PreferredWithdrawValidatorVoteAddress: keys[9],
		StakeDepositFee:                       Fee{Denominator: 1000, Numerator: 1},
		StakeWithdrawalFee:                    Fee{Denominator: 2000, Numerator: 3},
		StakeReferralFee:                      50,
		SolDepositFee:                         Fee{Denominator: 1000, Numerator: 2},
		SolReferralFee:                        25,
		SolWithdrawalFee:                      Fee{Denominator: 1000, Numerator: 3},
		NextSolWithdrawalFee:                  &Fee{Denominator: 1000, Numerator: 1},
		LastEpochPoolTokenSupply:              3_900_000_000,
		LastEpochTotalLamports:                3_950_000_000,
	}
}

func TestStakePool_RoundTrip(t *testing.T) {
	expected := newTestStakePool(t)

	data, err := expected.Marshal()
	require.NoError(t, err)
	assert.EqualValues(t, AccountTypeStakePool, data[0])

	var actual StakePool
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, &actual)

	// Trailing account space is ignored
	padded := append(data, make([]byte, 64)...)
	require.NoError(t, actual.Unmarshal(padded))
	assert.Equal(t, expected, &actual)

	_, err = layout.Unmarshal(stakePoolLayout, data[:len(data)-1])
	assert.True(t, errors.Is(err, layout.ErrRange))
}

func TestStakePool_OptionalFieldsShrinkEncoding(t *testing.T) {
	full := newTestStakePool(t)
	fullData, err := full.Marshal()
	require.NoError(t, err)

	sparse := *full
	sparse.NextEpochFee = nil
	sparse.PreferredWithdrawValidatorVoteAddress = nil
	sparse.NextSolWithdrawalFee = nil
	sparseData, err := sparse.Marshal()
	require.NoError(t, err)

	// Each absent option drops its payload and keeps the 1-byte tag
	assert.Equal(t, len(fullData)-16-32-16, len(sparseData))

	var decoded StakePool
	require.NoError(t, decoded.Unmarshal(sparseData))
	assert.Nil(t, decoded.NextEpochFee)
	assert.Nil(t, decoded.PreferredWithdrawValidatorVoteAddress)
	assert.Nil(t, decoded.SolWithdrawAuthority)
	assert.Equal(t, full.StakeWithdrawalFee, decoded.StakeWithdrawalFee)
}

func TestFutureEpochFee_Bytes(t *testing.T) {
	l := futureEpochLayout(feeLayout(""), "fee")

	none, err := layout.Marshal(l, optionalFeeToValue(nil))
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, none)

	some, err := layout.Marshal(l, optionalFeeToValue(&Fee{Denominator: 2000, Numerator: 3}))
	require.NoError(t, err)
	assert.Equal(t, []byte{
		1,
		0xd0, 0x07, 0, 0, 0, 0, 0, 0,
		3, 0, 0, 0, 0, 0, 0, 0,
	}, some)
}

func TestStakePool_Rates(t *testing.T) {
	pool := &StakePool{}
	assert.Equal(t, 1.0, pool.ExchangeRate())

	pool.TotalLamports = 3_000
	pool.PoolTokenSupply = 2_000
	assert.Equal(t, 1.5, pool.ExchangeRate())

	tokens, err := pool.PoolTokensForDeposit(300)
	require.NoError(t, err)
	assert.EqualValues(t, 200, tokens)

	lamports, err := pool.LamportsForWithdrawal(200)
	require.NoError(t, err)
	assert.EqualValues(t, 300, lamports)

	pool.SolWithdrawalFee = Fee{Denominator: 100, Numerator: 10}
	lamports, err = pool.EstimateWithdrawSol(200)
	require.NoError(t, err)
	assert.EqualValues(t, 270, lamports)
}

func TestValidatorList_RoundTrip(t *testing.T) {
	votes := generateKeys(t, 3)
	expected := &ValidatorList{
		AccountType:   AccountTypeValidatorList,
		MaxValidators: 10,
		Validators: []ValidatorStakeInfo{
			{ActiveStakeLamports: 1, TransientStakeLamports: 2, LastUpdateEpoch: 3, TransientSeedSuffixStart: 4, TransientSeedSuffixEnd: 5, Status: StakeStatusActive, VoteAccountAddress: votes[0]},
			{ActiveStakeLamports: 10, Status: StakeStatusDeactivatingTransient, VoteAccountAddress: votes[1]},
			{Status: StakeStatusReadyForRemoval, VoteAccountAddress: votes[2]},
		},
	}

	data, err := expected.Marshal()
	require.NoError(t, err)
	require.Len(t, data, GetValidatorListAccountSize(3))

	var actual ValidatorList
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, &actual)

	// Allocated but unused entries are not decoded
	padded := append(data, make([]byte, 7*ValidatorStakeInfoSize)...)
	require.Len(t, padded, GetValidatorListAccountSize(10))
	require.NoError(t, actual.Unmarshal(padded))
	assert.Len(t, actual.Validators, 3)

	found, err := actual.Find(votes[1])
	require.NoError(t, err)
	assert.EqualValues(t, 10, found.ActiveStakeLamports)

	_, err = actual.Find(generateKey(t))
	assert.Equal(t, ErrValidatorNotFound, err)

	assert.EqualValues(t, 13, actual.TotalStakeLamports())
}

func TestValidatorList_CountPastEnd(t *testing.T) {
	list := &ValidatorList{MaxValidators: 2}
	data, err := list.Marshal()
	require.NoError(t, err)

	// Claim 2 entries with none present
	data[5] = 2
	var actual ValidatorList
	err = actual.Unmarshal(data)
	assert.True(t, errors.Is(err, layout.ErrRange))
}

func TestDecodeAccount(t *testing.T) {
	pool := newTestStakePool(t)
	poolData, err := pool.Marshal()
	require.NoError(t, err)

	list := &ValidatorList{MaxValidators: 1}
	listData, err := list.Marshal()
	require.NoError(t, err)

	decoded, err := DecodeAccount(poolData)
	require.NoError(t, err)
	assert.IsType(t, &StakePool{}, decoded)

	decoded, err = DecodeAccount(listData)
	require.NoError(t, err)
	require.IsType(t, &ValidatorList{}, decoded)
	assert.EqualValues(t, 1, decoded.(*ValidatorList).MaxValidators)

	for _, typeByte := range []byte{0, 3, 255} {
		data := append([]byte{typeByte}, poolData[1:]...)
		_, err = DecodeAccount(data)
		assert.True(t, errors.Is(err, ErrInvalidAccountType), "type byte %d", typeByte)
	}

	_, err = DecodeAccount(nil)
	assert.True(t, errors.Is(err, ErrInvalidAccountData))

	var wrongType StakePool
	err = wrongType.Unmarshal(listData)
	assert.True(t, errors.Is(err, ErrInvalidAccountType))

	var wrongList ValidatorList
	err = wrongList.Unmarshal(poolData)
	assert.True(t, errors.Is(err, ErrInvalidAccountType))

	assert.True(t, bytes.HasPrefix(poolData, []byte{1}))
	assert.True(t, bytes.HasPrefix(listData, []byte{2}))
}
