package solana

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
	"github.com/ybbus/jsonrpc"
)

// Transaction error keys the client inspects.
//
// Source: https://github.com/solana-labs/solana/blob/fc2bf2d3b669d1c6655ae48b0a05f470938f3676/sdk/src/transaction/mod.rs#L37
const (
	TransactionErrorAccountNotFound         = "AccountNotFound"
	TransactionErrorInsufficientFundsForFee = "InsufficientFundsForFee"
	TransactionErrorBlockhashNotFound       = "BlockhashNotFound"
	TransactionErrorInstructionError        = "InstructionError"
	TransactionErrorSignatureFailure        = "SignatureFailure"
	TransactionErrorAlreadyProcessed        = "AlreadyProcessed"

	InstructionErrorCustom = "Custom"
)

// InstructionError is the failure of a single instruction within a
// transaction.
type InstructionError struct {
	Index int
	Key   string
	// Custom is set when Key is "Custom".
	Custom *uint32
}

func (e *InstructionError) Error() string {
	if e.Custom != nil {
		return fmt.Sprintf("error processing instruction %d: custom program error: 0x%x", e.Index, *e.Custom)
	}
	return fmt.Sprintf("error processing instruction %d: %s", e.Index, e.Key)
}

// TransactionError is a transaction failure reported by a node, either from
// preflight simulation or from a confirmed transaction's status.
type TransactionError struct {
	Key         string
	Instruction *InstructionError
	Raw         json.RawMessage
}

func (e *TransactionError) Error() string {
	if e.Instruction != nil {
		return e.Instruction.Error()
	}
	return e.Key
}

// Is reports every TransactionError as ErrTransactionFailed.
func (e *TransactionError) Is(target error) bool {
	return target == ErrTransactionFailed
}

// CustomError returns the custom program error code, if the failure was one.
func (e *TransactionError) CustomError() (uint32, bool) {
	if e.Instruction == nil || e.Instruction.Custom == nil {
		return 0, false
	}
	return *e.Instruction.Custom, true
}

// ParseTransactionError parses the "err" value of a signature status or
// simulation result. A null or empty value yields nil.
//
// The value is either a bare key ("AccountNotFound") or a single-entry object
// ({"InstructionError":[0,{"Custom":6}]}).
func ParseTransactionError(raw json.RawMessage) (*TransactionError, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	txErr := &TransactionError{Raw: raw}

	var key string
	if err := json.Unmarshal(raw, &key); err == nil {
		txErr.Key = key
		return txErr, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, errors.Wrap(err, "unexpected transaction error format")
	}
	if len(obj) != 1 {
		return nil, errors.Errorf("invalid transaction error size: %d", len(obj))
	}

	var value json.RawMessage
	for txErr.Key, value = range obj {
	}
	if txErr.Key != TransactionErrorInstructionError {
		return txErr, nil
	}

	instructionErr, err := parseInstructionError(value)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse instruction error")
	}
	txErr.Instruction = instructionErr

	return txErr, nil
}

func parseInstructionError(raw json.RawMessage) (*InstructionError, error) {
	var tuple []json.RawMessage
	if err := json.Unmarshal(raw, &tuple); err != nil {
		return nil, errors.Wrap(err, "unexpected instruction error format")
	}
	if len(tuple) != 2 {
		return nil, errors.Errorf("invalid instruction error tuple size: %d", len(tuple))
	}

	e := &InstructionError{}
	if err := json.Unmarshal(tuple[0], &e.Index); err != nil {
		return nil, errors.Wrap(err, "non numeric instruction index")
	}

	if err := json.Unmarshal(tuple[1], &e.Key); err == nil {
		return e, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(tuple[1], &obj); err != nil || len(obj) != 1 {
		return nil, errors.New("unexpected instruction error value")
	}

	var value json.RawMessage
	for e.Key, value = range obj {
	}
	if e.Key == InstructionErrorCustom {
		var code uint32
		if err := json.Unmarshal(value, &code); err != nil {
			return nil, errors.Wrap(err, "non numeric custom error code")
		}
		e.Custom = &code
	}

	return e, nil
}

// ParseRPCError extracts the transaction error from a failed preflight
// simulation. It returns nil if err carries none.
func ParseRPCError(err *jsonrpc.RPCError) (*TransactionError, error) {
	if err == nil || err.Data == nil {
		return nil, nil
	}

	data, ok := err.Data.(map[string]interface{})
	if !ok {
		return nil, errors.New("expected map type")
	}

	txErr, ok := data["err"]
	if !ok || txErr == nil {
		return nil, nil
	}

	raw, marshalErr := json.Marshal(txErr)
	if marshalErr != nil {
		return nil, errors.Wrap(marshalErr, "failed to re-encode transaction error")
	}
	return ParseTransactionError(raw)
}
