package stakepool

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

// Fee is a proportional rate numerator/denominator. A zero denominator
// means no fee has been configured and is treated as 0/1.
type Fee struct {
	Denominator uint64
	Numerator   uint64
}

func feeLayout(property string) *layout.Layout {
	return layout.Struct([]*layout.Layout{
		layout.U64("denominator"),
		layout.U64("numerator"),
	}, property)
}

// futureEpochLayout wraps a fee that only takes effect in a later epoch. It
// shares its encoding with layout.Option.
func futureEpochLayout(inner *layout.Layout, property string) *layout.Layout {
	return layout.Option(inner, property)
}

func (f Fee) toRecord() layout.Record {
	return layout.Record{
		"denominator": f.Denominator,
		"numerator":   f.Numerator,
	}
}

func feeFromRecord(r layout.Record) Fee {
	return Fee{
		Denominator: r.Uint64("denominator"),
		Numerator:   r.Uint64("numerator"),
	}
}

func optionalFeeToValue(f *Fee) interface{} {
	if f == nil {
		return nil
	}
	return f.toRecord()
}

func optionalFeeFromValue(v interface{}) *Fee {
	r, ok := v.(layout.Record)
	if !ok {
		return nil
	}
	fee := feeFromRecord(r)
	return &fee
}

// IsZero reports whether the fee has no effect on amounts.
func (f Fee) IsZero() bool {
	return f.Denominator == 0 || f.Numerator == 0
}

// Normalized returns 0/1 for unconfigured fees, and the fee unchanged
// otherwise.
func (f Fee) Normalized() Fee {
	if f.Denominator == 0 {
		return Fee{Denominator: 1, Numerator: 0}
	}
	return f
}

func (f Fee) String() string {
	if f.Denominator == 0 {
		return "0/0"
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// ApplyFee returns amount net of the fee, amount - floor(amount * fee).
func ApplyFee(amount uint64, fee Fee) uint64 {
	if fee.Denominator == 0 {
		return amount
	}

	charged := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(fee.Numerator))
	charged.Div(charged, uint256.NewInt(fee.Denominator))
	if !charged.IsUint64() || charged.Uint64() > amount {
		return 0
	}
	return amount - charged.Uint64()
}

// InvertFee returns the complementary multiplier (denominator - numerator) /
// denominator, such that gross = net * denominator / numerator of the result
// recovers a pre-fee amount.
func InvertFee(fee Fee) Fee {
	fee = fee.Normalized()
	if fee.Numerator > fee.Denominator {
		return Fee{Denominator: fee.Denominator, Numerator: 0}
	}
	return Fee{
		Denominator: fee.Denominator,
		Numerator:   fee.Denominator - fee.Numerator,
	}
}

// GrossUp converts a post-fee amount back to its pre-fee amount using an
// inverted fee. An inverted fee with a zero numerator leaves net unchanged.
func GrossUp(net uint64, inverse Fee) (uint64, error) {
	if inverse.Numerator == 0 || inverse.Denominator == 0 {
		return net, nil
	}

	gross := new(uint256.Int).Mul(uint256.NewInt(net), uint256.NewInt(inverse.Denominator))
	gross.Div(gross, uint256.NewInt(inverse.Numerator))
	if !gross.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return gross.Uint64(), nil
}
