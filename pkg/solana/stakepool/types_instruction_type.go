package stakepool

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

type InstructionType uint8

const (
	InstructionTypeInitialize InstructionType = iota
	InstructionTypeAddValidatorToPool
	InstructionTypeRemoveValidatorFromPool
	InstructionTypeDecreaseValidatorStake
	InstructionTypeIncreaseValidatorStake
	InstructionTypeSetPreferredValidator
	InstructionTypeUpdateValidatorListBalance
	InstructionTypeUpdateStakePoolBalance
	InstructionTypeCleanupRemovedValidatorEntries
	InstructionTypeDepositStake
	InstructionTypeWithdrawStake
	InstructionTypeSetManager
	InstructionTypeSetFee
	InstructionTypeSetStaker
	InstructionTypeDepositSol
	InstructionTypeSetFundingAuthority
	InstructionTypeWithdrawSol
	InstructionTypeCreateTokenMetadata
	InstructionTypeUpdateTokenMetadata
	InstructionTypeIncreaseAdditionalValidatorStake
	InstructionTypeDecreaseAdditionalValidatorStake
	InstructionTypeDecreaseValidatorStakeWithReserve
	InstructionTypeRedelegate
	InstructionTypeDepositStakeWithSlippage
	InstructionTypeWithdrawStakeWithSlippage
	InstructionTypeDepositSolWithSlippage
	InstructionTypeWithdrawSolWithSlippage
)

var instructionTypeNames = map[InstructionType]string{
	InstructionTypeInitialize:                        "Initialize",
	InstructionTypeAddValidatorToPool:                "AddValidatorToPool",
	InstructionTypeRemoveValidatorFromPool:           "RemoveValidatorFromPool",
	InstructionTypeDecreaseValidatorStake:            "DecreaseValidatorStake",
	InstructionTypeIncreaseValidatorStake:            "IncreaseValidatorStake",
	InstructionTypeSetPreferredValidator:             "SetPreferredValidator",
	InstructionTypeUpdateValidatorListBalance:        "UpdateValidatorListBalance",
	InstructionTypeUpdateStakePoolBalance:            "UpdateStakePoolBalance",
	InstructionTypeCleanupRemovedValidatorEntries:    "CleanupRemovedValidatorEntries",
	InstructionTypeDepositStake:                      "DepositStake",
	InstructionTypeWithdrawStake:                     "WithdrawStake",
	InstructionTypeSetManager:                        "SetManager",
	InstructionTypeSetFee:                            "SetFee",
	InstructionTypeSetStaker:                         "SetStaker",
	InstructionTypeDepositSol:                        "DepositSol",
	InstructionTypeSetFundingAuthority:               "SetFundingAuthority",
	InstructionTypeWithdrawSol:                       "WithdrawSol",
	InstructionTypeCreateTokenMetadata:               "CreateTokenMetadata",
	InstructionTypeUpdateTokenMetadata:               "UpdateTokenMetadata",
	InstructionTypeIncreaseAdditionalValidatorStake:  "IncreaseAdditionalValidatorStake",
	InstructionTypeDecreaseAdditionalValidatorStake:  "DecreaseAdditionalValidatorStake",
	InstructionTypeDecreaseValidatorStakeWithReserve: "DecreaseValidatorStakeWithReserve",
	InstructionTypeRedelegate:                        "Redelegate",
	InstructionTypeDepositStakeWithSlippage:          "DepositStakeWithSlippage",
	InstructionTypeWithdrawStakeWithSlippage:         "WithdrawStakeWithSlippage",
	InstructionTypeDepositSolWithSlippage:            "DepositSolWithSlippage",
	InstructionTypeWithdrawSolWithSlippage:           "WithdrawSolWithSlippage",
}

func (t InstructionType) String() string {
	if name, ok := instructionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", uint8(t))
}

func instructionLayout(fields ...*layout.Layout) *layout.Layout {
	return layout.Struct(append([]*layout.Layout{layout.U8("instruction")}, fields...), "")
}

func metadataFieldLayouts() []*layout.Layout {
	return []*layout.Layout{
		layout.BlobWithLength(layout.U32(""), "name"),
		layout.BlobWithLength(layout.U32(""), "symbol"),
		layout.BlobWithLength(layout.U32(""), "uri"),
	}
}

// instructionLayouts holds the data layout of every instruction this package
// can build.
var instructionLayouts = map[InstructionType]*layout.Layout{
	InstructionTypeDecreaseValidatorStake: instructionLayout(
		layout.U64("lamports"),
		layout.U64("transientStakeSeed"),
	),
	InstructionTypeIncreaseValidatorStake: instructionLayout(
		layout.U64("lamports"),
		layout.U64("transientStakeSeed"),
	),
	InstructionTypeUpdateValidatorListBalance: instructionLayout(
		layout.U32("startIndex"),
		layout.U8("noMerge"),
	),
	InstructionTypeUpdateStakePoolBalance:         instructionLayout(),
	InstructionTypeCleanupRemovedValidatorEntries: instructionLayout(),
	InstructionTypeDepositStake:                   instructionLayout(),
	InstructionTypeWithdrawStake: instructionLayout(
		layout.U64("poolTokens"),
	),
	InstructionTypeDepositSol: instructionLayout(
		layout.U64("lamports"),
	),
	InstructionTypeWithdrawSol: instructionLayout(
		layout.U64("poolTokens"),
	),
	InstructionTypeCreateTokenMetadata: instructionLayout(metadataFieldLayouts()...),
	InstructionTypeUpdateTokenMetadata: instructionLayout(metadataFieldLayouts()...),
	InstructionTypeIncreaseAdditionalValidatorStake: instructionLayout(
		layout.U64("lamports"),
		layout.U64("transientStakeSeed"),
		layout.U64("ephemeralStakeSeed"),
	),
	InstructionTypeDecreaseAdditionalValidatorStake: instructionLayout(
		layout.U64("lamports"),
		layout.U64("transientStakeSeed"),
		layout.U64("ephemeralStakeSeed"),
	),
	InstructionTypeDecreaseValidatorStakeWithReserve: instructionLayout(
		layout.U64("lamports"),
		layout.U64("transientStakeSeed"),
	),
	InstructionTypeDepositStakeWithSlippage: instructionLayout(
		layout.U64("minimumPoolTokensOut"),
	),
	InstructionTypeWithdrawStakeWithSlippage: instructionLayout(
		layout.U64("poolTokensIn"),
		layout.U64("minimumLamportsOut"),
	),
	InstructionTypeDepositSolWithSlippage: instructionLayout(
		layout.U64("lamportsIn"),
		layout.U64("minimumPoolTokensOut"),
	),
	InstructionTypeWithdrawSolWithSlippage: instructionLayout(
		layout.U64("poolTokensIn"),
		layout.U64("minimumLamportsOut"),
	),
}

// encodeInstructionData encodes fields behind the instruction's index byte.
func encodeInstructionData(instructionType InstructionType, fields layout.Record) ([]byte, error) {
	l, ok := instructionLayouts[instructionType]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidInstructionData, "no layout for instruction %s", instructionType)
	}

	record := layout.Record{"instruction": uint8(instructionType)}
	for k, v := range fields {
		record[k] = v
	}

	data, err := layout.Marshal(l, record)
	if err != nil {
		return nil, errors.Wrapf(err, "error encoding %s instruction", instructionType)
	}
	return data, nil
}

// DecodeInstructionData decodes instruction data built by this package,
// returning its type and fields keyed by name.
func DecodeInstructionData(data []byte) (InstructionType, layout.Record, error) {
	if len(data) == 0 {
		return 0, nil, errors.Wrap(ErrInvalidInstructionData, "empty instruction data")
	}

	instructionType := InstructionType(data[0])
	l, ok := instructionLayouts[instructionType]
	if !ok {
		return instructionType, nil, errors.Wrapf(ErrInvalidInstructionData, "unsupported instruction %s", instructionType)
	}

	decoded, n, err := l.Decode(data, 0)
	if err != nil {
		return instructionType, nil, errors.Wrapf(err, "error decoding %s instruction", instructionType)
	}
	if n != len(data) {
		return instructionType, nil, errors.Wrapf(ErrInvalidInstructionData, "%d trailing bytes after %s instruction", len(data)-n, instructionType)
	}

	record := decoded.(layout.Record)
	delete(record, "instruction")
	return instructionType, record, nil
}
