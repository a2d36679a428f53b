package stakepool

import (
	"math/big"

	"github.com/holiman/uint256"
)

// DivideExact converts numerator/denominator to a float64, reducing the
// remainder fraction by its gcd with the denominator before converting.
// A zero denominator yields 0.
func DivideExact(numerator, denominator *big.Int) float64 {
	if denominator.Sign() == 0 {
		return 0
	}

	quotient, remainder := new(big.Int).QuoRem(numerator, denominator, new(big.Int))
	if remainder.Sign() == 0 {
		f, _ := new(big.Float).SetInt(quotient).Float64()
		return f
	}

	gcd := new(big.Int).GCD(nil, nil, new(big.Int).Abs(remainder), new(big.Int).Abs(denominator))
	reducedRemainder := new(big.Int).Quo(remainder, gcd)
	reducedDenominator := new(big.Int).Quo(denominator, gcd)

	q, _ := new(big.Float).SetInt(quotient).Float64()
	r, _ := new(big.Float).SetInt(reducedRemainder).Float64()
	d, _ := new(big.Float).SetInt(reducedDenominator).Float64()
	return q + r/d
}

// PoolTokensForDeposit returns the pool tokens minted for depositLamports. An
// empty pool mints 1:1.
func PoolTokensForDeposit(totalLamports, poolTokenSupply, depositLamports uint64) (uint64, error) {
	if totalLamports == 0 || poolTokenSupply == 0 {
		return depositLamports, nil
	}

	// floor(DivideExact(n, d)) is the integer quotient, which is computed
	// directly to avoid float rounding on large amounts.
	numerator := new(uint256.Int).Mul(uint256.NewInt(depositLamports), uint256.NewInt(poolTokenSupply))
	quotient := new(uint256.Int).Div(numerator, uint256.NewInt(totalLamports))
	if !quotient.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return quotient.Uint64(), nil
}

// LamportsForWithdrawal returns the lamports backing poolTokens. Amounts
// worth less than one lamport round down to 0.
func LamportsForWithdrawal(totalLamports, poolTokenSupply, poolTokens uint64) (uint64, error) {
	numerator := new(uint256.Int).Mul(uint256.NewInt(poolTokens), uint256.NewInt(totalLamports))
	denominator := uint256.NewInt(poolTokenSupply)
	if numerator.Lt(denominator) || denominator.IsZero() {
		return 0, nil
	}

	quotient := new(uint256.Int).Div(numerator, denominator)
	if !quotient.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return quotient.Uint64(), nil
}
