package solana

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"
)

func TestParseTransactionError(t *testing.T) {
	e, err := ParseTransactionError(json.RawMessage(`{"InstructionError":[2,{"Custom":3}]}`))
	require.NoError(t, err)
	require.NotNil(t, e.Instruction)
	assert.Equal(t, TransactionErrorInstructionError, e.Key)
	assert.Equal(t, 2, e.Instruction.Index)
	assert.Equal(t, InstructionErrorCustom, e.Instruction.Key)
	code, ok := e.CustomError()
	assert.True(t, ok)
	assert.EqualValues(t, 3, code)
	assert.Contains(t, e.Error(), "0x3")

	e, err = ParseTransactionError(json.RawMessage(`{"InstructionError":[0,"InvalidArgument"]}`))
	require.NoError(t, err)
	require.NotNil(t, e.Instruction)
	assert.Equal(t, 0, e.Instruction.Index)
	assert.Equal(t, "InvalidArgument", e.Instruction.Key)
	_, ok = e.CustomError()
	assert.False(t, ok)

	e, err = ParseTransactionError(json.RawMessage(`"BlockhashNotFound"`))
	require.NoError(t, err)
	assert.Equal(t, TransactionErrorBlockhashNotFound, e.Key)
	assert.Nil(t, e.Instruction)
	assert.True(t, errors.Is(e, ErrTransactionFailed))

	e, err = ParseTransactionError(json.RawMessage(`{"InsufficientFundsForRent":{"account_index":1}}`))
	require.NoError(t, err)
	assert.Equal(t, "InsufficientFundsForRent", e.Key)

	for _, empty := range []string{"", "null", "  "} {
		e, err = ParseTransactionError(json.RawMessage(empty))
		assert.NoError(t, err)
		assert.Nil(t, e)
	}

	for _, invalid := range []string{`[1,2]`, `{"a":1,"b":2}`, `{"InstructionError":[0]}`, `{"InstructionError":["x","y"]}`} {
		_, err = ParseTransactionError(json.RawMessage(invalid))
		assert.Error(t, err, invalid)
	}
}

func TestParseRPCError(t *testing.T) {
	e, err := ParseRPCError(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	e, err = ParseRPCError(&jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]interface{}{
			"err": map[string]interface{}{
				"InstructionError": []interface{}{1.0, map[string]interface{}{"Custom": 16.0}},
			},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, e)
	code, ok := e.CustomError()
	assert.True(t, ok)
	assert.EqualValues(t, 16, code)
	assert.Equal(t, 1, e.Instruction.Index)

	e, err = ParseRPCError(&jsonrpc.RPCError{Data: map[string]interface{}{"logs": []interface{}{}}})
	assert.NoError(t, err)
	assert.Nil(t, e)

	_, err = ParseRPCError(&jsonrpc.RPCError{Data: "unexpected"})
	assert.Error(t, err)
}
