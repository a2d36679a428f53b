package stake

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeDelegatedState(t *testing.T, voter []byte, amount, deactivationEpoch uint64) []byte {
	var buf bytes.Buffer
	write := func(v interface{}) {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	write(uint32(StatusStake))
	write(uint64(2_282_880))           // rent exempt reserve
	write(bytes.Repeat([]byte{1}, 32)) // staker
	write(bytes.Repeat([]byte{2}, 32)) // withdrawer
	write(uint64(0))                   // lockup unix timestamp
	write(uint64(0))                   // lockup epoch
	write(make([]byte, 32))            // custodian
	write(voter)
	write(amount)
	write(uint64(500))
	write(deactivationEpoch)
	write(float64(0.25))
	write(uint64(1234)) // credits observed
	write(uint8(0))

	b := buf.Bytes()
	return append(b, make([]byte, StateSize-len(b))...)
}

func TestState_Delegated(t *testing.T) {
	voter := bytes.Repeat([]byte{9}, 32)
	data := encodeDelegatedState(t, voter, 5_000_000_000, math.MaxUint64)
	require.Len(t, data, StateSize)

	var s State
	require.NoError(t, s.Unmarshal(data))
	assert.Equal(t, StatusStake, s.Status)
	require.NotNil(t, s.Meta)
	assert.EqualValues(t, 2_282_880, s.Meta.RentExemptReserve)
	assert.EqualValues(t, bytes.Repeat([]byte{2}, 32), s.Meta.Authorized.Withdrawer)
	require.NotNil(t, s.Delegation)
	assert.EqualValues(t, voter, s.DelegatedVote())
	assert.EqualValues(t, 5_000_000_000, s.Delegation.Stake)
	assert.EqualValues(t, 500, s.Delegation.ActivationEpoch)
	assert.Equal(t, 0.25, s.Delegation.WarmupCooldownRate)
	assert.EqualValues(t, 1234, s.CreditsObserved)
	assert.False(t, s.IsDeactivating())

	data = encodeDelegatedState(t, voter, 5_000_000_000, 612)
	require.NoError(t, s.Unmarshal(data))
	assert.True(t, s.IsDeactivating())
}

func TestState_Initialized(t *testing.T) {
	data := make([]byte, StateSize)
	binary.LittleEndian.PutUint32(data, uint32(StatusInitialized))
	binary.LittleEndian.PutUint64(data[4:], 42)

	var s State
	require.NoError(t, s.Unmarshal(data))
	assert.Equal(t, StatusInitialized, s.Status)
	require.NotNil(t, s.Meta)
	assert.EqualValues(t, 42, s.Meta.RentExemptReserve)
	assert.Nil(t, s.Delegation)
	assert.Nil(t, s.DelegatedVote())
}

func TestState_Invalid(t *testing.T) {
	var s State

	data := make([]byte, StateSize)
	binary.LittleEndian.PutUint32(data, 7)
	assert.True(t, errors.Is(s.Unmarshal(data), ErrInvalidStakeState))

	assert.True(t, errors.Is(s.Unmarshal([]byte{2, 0, 0, 0, 1}), ErrInvalidStakeState))
	assert.True(t, errors.Is(s.Unmarshal(nil), ErrInvalidStakeState))
}
