package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-stakepool/pkg/rate"
)

type rpcRequest struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
	ID     int               `json:"id"`
}

type rpcTestServer struct {
	sync.Mutex
	handlers map[string]func(params []json.RawMessage) (result interface{}, rpcErr interface{})
	calls    map[string]int
}

func newRPCTestServer(t *testing.T) (*rpcTestServer, string) {
	s := &rpcTestServer{
		handlers: make(map[string]func([]json.RawMessage) (interface{}, interface{})),
		calls:    make(map[string]int),
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		s.Lock()
		s.calls[req.Method]++
		handler, ok := s.handlers[req.Method]
		s.Unlock()

		resp := map[string]interface{}{"jsonrpc": "2.0", "id": req.ID}
		if !ok {
			resp["error"] = map[string]interface{}{"code": -32601, "message": "Method not found"}
		} else if result, rpcErr := handler(req.Params); rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(server.Close)

	return s, server.URL
}

func (s *rpcTestServer) handle(method string, handler func(params []json.RawMessage) (interface{}, interface{})) {
	s.Lock()
	defer s.Unlock()
	s.handlers[method] = handler
}

func (s *rpcTestServer) callCount(method string) int {
	s.Lock()
	defer s.Unlock()
	return s.calls[method]
}

func TestClient_GetAccountInfo(t *testing.T) {
	server, url := newRPCTestServer(t)
	c := New(url)

	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server.handle("getAccountInfo", func(params []json.RawMessage) (interface{}, interface{}) {
		assert.Len(t, params, 2)

		var address string
		assert.NoError(t, json.Unmarshal(params[0], &address))
		if address != base58.Encode(account) {
			return map[string]interface{}{"context": map[string]int{"slot": 1}, "value": nil}, nil
		}

		var config map[string]string
		assert.NoError(t, json.Unmarshal(params[1], &config))
		assert.Equal(t, "base64", config["encoding"])
		assert.Equal(t, "confirmed", config["commitment"])

		return map[string]interface{}{
			"context": map[string]int{"slot": 1},
			"value": map[string]interface{}{
				"lamports":   1_000,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
				"executable": false,
			},
		}, nil
	})

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, info.Lamports)
	assert.EqualValues(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	_, err = c.GetAccountInfo(owner, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_SingleStructParam(t *testing.T) {
	server, url := newRPCTestServer(t)
	c := New(url)

	var expected Blockhash
	expected[0] = 7

	server.handle("getLatestBlockhash", func(params []json.RawMessage) (interface{}, interface{}) {
		assert.Len(t, params, 1)
		var commitment Commitment
		assert.NoError(t, json.Unmarshal(params[0], &commitment))
		assert.Equal(t, CommitmentFinalized, commitment)

		return map[string]interface{}{
			"context": map[string]int{"slot": 1},
			"value": map[string]interface{}{
				"blockhash":            expected.String(),
				"lastValidBlockHeight": 100,
			},
		}, nil
	})
	server.handle("getEpochInfo", func(params []json.RawMessage) (interface{}, interface{}) {
		assert.Len(t, params, 1)
		return EpochInfo{Epoch: 600, SlotIndex: 12, SlotsInEpoch: 432_000}, nil
	})

	blockhash, err := c.GetLatestBlockhash(CommitmentFinalized)
	require.NoError(t, err)
	assert.Equal(t, expected, blockhash)

	epoch, err := c.GetEpochInfo(CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 600, epoch.Epoch)
	assert.EqualValues(t, 432_000, epoch.SlotsInEpoch)
}

func TestClient_SubmitTransaction_PreflightFailure(t *testing.T) {
	server, url := newRPCTestServer(t)
	c := New(url)

	server.handle("sendTransaction", func(params []json.RawMessage) (interface{}, interface{}) {
		return nil, map[string]interface{}{
			"code":    -32002,
			"message": "Transaction simulation failed",
			"data": map[string]interface{}{
				"err": json.RawMessage(`{"InstructionError":[2,{"Custom":16}]}`),
			},
		}
	})

	signed := make([]byte, 1+ed25519.SignatureSize+10)
	signed[0] = 1
	signed[1] = 9

	sig, err := c.SubmitTransaction(signed, CommitmentConfirmed)
	require.Error(t, err)
	assert.EqualValues(t, 9, sig[0])
	assert.True(t, errors.Is(err, ErrTransactionFailed))

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	require.NotNil(t, txErr.Instruction)
	assert.Equal(t, 2, txErr.Instruction.Index)
	code, ok := txErr.CustomError()
	require.True(t, ok)
	assert.EqualValues(t, 16, code)
}

func TestClient_GetSignatureStatus(t *testing.T) {
	server, url := newRPCTestServer(t)
	c := New(url)

	var sig Signature
	sig[0] = 3

	server.handle("getSignatureStatuses", func(params []json.RawMessage) (interface{}, interface{}) {
		var sigs []string
		assert.NoError(t, json.Unmarshal(params[0], &sigs))
		assert.Equal(t, []string{sig.String()}, sigs)

		return map[string]interface{}{
			"context": map[string]int{"slot": 1},
			"value": []interface{}{
				map[string]interface{}{
					"slot":               10,
					"confirmations":      nil,
					"confirmationStatus": "finalized",
					"err":                map[string]interface{}{"InstructionError": []interface{}{0, map[string]int{"Custom": 6}}},
				},
			},
		}, nil
	})

	status, err := c.GetSignatureStatus(sig, CommitmentFinalized)
	require.Error(t, err)
	require.NotNil(t, status)
	assert.True(t, status.Failed())

	var txErr *TransactionError
	require.True(t, errors.As(err, &txErr))
	code, ok := txErr.CustomError()
	require.True(t, ok)
	assert.EqualValues(t, 6, code)
}

func TestClient_Limiter(t *testing.T) {
	server, url := newRPCTestServer(t)
	c := NewWithLimiter(url, nil, &rejectingLimiter{})

	server.handle("getMinimumBalanceForRentExemption", func([]json.RawMessage) (interface{}, interface{}) {
		return 2_282_880, nil
	})

	_, err := c.GetMinimumBalanceForRentExemption(200)
	assert.Error(t, err)
	assert.Equal(t, 0, server.callCount("getMinimumBalanceForRentExemption"))

	c = NewWithLimiter(url, nil, &rate.NoLimiter{})
	lamports, err := c.GetMinimumBalanceForRentExemption(200)
	require.NoError(t, err)
	assert.EqualValues(t, 2_282_880, lamports)
	assert.Equal(t, 1, server.callCount("getMinimumBalanceForRentExemption"))
}

type rejectingLimiter struct{}

func (l *rejectingLimiter) Allow(string) (bool, error) {
	return false, nil
}

func (l *rejectingLimiter) Wait(context.Context, string) error {
	return errors.New("rate limit exceeded")
}
