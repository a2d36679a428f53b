package computebudget

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

const (
	commandRequestUnits uint8 = iota
	commandRequestHeapFrame
	commandSetComputeUnitLimit
	commandSetComputeUnitPrice
)

var (
	setComputeUnitLimitLayout = layout.Struct([]*layout.Layout{
		layout.U8("instruction"),
		layout.U32("units"),
	}, "")

	setComputeUnitPriceLayout = layout.Struct([]*layout.Layout{
		layout.U8("instruction"),
		layout.U64("microLamports"),
	}, "")
)

// SetComputeUnitLimit caps the compute units the transaction may consume.
func SetComputeUnitLimit(units uint32) (solana.Instruction, error) {
	data, err := layout.Marshal(setComputeUnitLimitLayout, layout.Record{
		"instruction": commandSetComputeUnitLimit,
		"units":       units,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode set compute unit limit instruction")
	}
	return solana.NewInstruction(ProgramKey, data), nil
}

// SetComputeUnitPrice sets the priority fee, in micro-lamports per compute
// unit.
func SetComputeUnitPrice(microLamports uint64) (solana.Instruction, error) {
	data, err := layout.Marshal(setComputeUnitPriceLayout, layout.Record{
		"instruction":   commandSetComputeUnitPrice,
		"microLamports": microLamports,
	})
	if err != nil {
		return solana.Instruction{}, errors.Wrap(err, "failed to encode set compute unit price instruction")
	}
	return solana.NewInstruction(ProgramKey, data), nil
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	record, err := parse(setComputeUnitLimitLayout, commandSetComputeUnitLimit, data)
	if err != nil {
		return 0, err
	}
	return uint32(record["units"].(uint64)), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	record, err := parse(setComputeUnitPriceLayout, commandSetComputeUnitPrice, data)
	if err != nil {
		return 0, err
	}
	return record["microLamports"].(uint64), nil
}

func parse(l *layout.Layout, command uint8, data []byte) (layout.Record, error) {
	if len(data) != l.Span() {
		return nil, errors.New("invalid length")
	}

	decoded, err := layout.Unmarshal(l, data)
	if err != nil {
		return nil, err
	}

	record := decoded.(layout.Record)
	if uint8(record["instruction"].(uint64)) != command {
		return nil, errors.New("invalid instruction")
	}
	return record, nil
}
