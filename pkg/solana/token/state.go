package token

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L38
const MintSize = 82

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, DelegatedAmount tokens may be moved by the delegate.
	Delegate ed25519.PublicKey
	State    AccountState
	// If set, this is a wrapped SOL account and the value is its rent-exempt
	// reserve.
	IsNative        *uint64
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

type Mint struct {
	MintAuthority   ed25519.PublicKey
	Supply          uint64
	Decimals        uint8
	IsInitialized   bool
	FreezeAuthority ed25519.PublicKey
}

// The token program encodes optional fields with a 4-byte tag and always
// reserves room for the value.
func cOption(inner *layout.Layout, property string) []*layout.Layout {
	return []*layout.Layout{
		layout.U32(property + "Option"),
		inner.Replicate(property),
	}
}

func fields(groups ...[]*layout.Layout) []*layout.Layout {
	var out []*layout.Layout
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func one(l *layout.Layout) []*layout.Layout {
	return []*layout.Layout{l}
}

var accountLayout = layout.Struct(fields(
	one(layout.PublicKey("mint")),
	one(layout.PublicKey("owner")),
	one(layout.U64("amount")),
	cOption(layout.PublicKey(""), "delegate"),
	one(layout.U8("state")),
	cOption(layout.U64(""), "isNative"),
	one(layout.U64("delegatedAmount")),
	cOption(layout.PublicKey(""), "closeAuthority"),
), "")

var mintLayout = layout.Struct(fields(
	cOption(layout.PublicKey(""), "mintAuthority"),
	one(layout.U64("supply")),
	one(layout.U8("decimals")),
	one(layout.U8("isInitialized")),
	cOption(layout.PublicKey(""), "freezeAuthority"),
), "")

func keyOrZero(key ed25519.PublicKey) []byte {
	if len(key) == 0 {
		return make([]byte, ed25519.PublicKeySize)
	}
	return key
}

func putOptionalKey(r layout.Record, property string, key ed25519.PublicKey) {
	if len(key) == 0 {
		r[property+"Option"] = uint32(0)
		r[property] = make([]byte, ed25519.PublicKeySize)
		return
	}
	r[property+"Option"] = uint32(1)
	r[property] = []byte(key)
}

func getOptionalKey(r layout.Record, property string) ed25519.PublicKey {
	if r.Uint64(property+"Option") == 0 {
		return nil
	}
	return r.Bytes(property)
}

func (a *Account) Marshal() ([]byte, error) {
	r := layout.Record{
		"mint":            keyOrZero(a.Mint),
		"owner":           keyOrZero(a.Owner),
		"amount":          a.Amount,
		"state":           uint8(a.State),
		"delegatedAmount": a.DelegatedAmount,
	}
	putOptionalKey(r, "delegate", a.Delegate)
	putOptionalKey(r, "closeAuthority", a.CloseAuthority)
	if a.IsNative == nil {
		r["isNativeOption"] = uint32(0)
		r["isNative"] = uint64(0)
	} else {
		r["isNativeOption"] = uint32(1)
		r["isNative"] = *a.IsNative
	}

	return layout.Marshal(accountLayout, r)
}

// Unmarshal decodes token account state. Token extension accounts carry
// trailing extension data, which is ignored.
func (a *Account) Unmarshal(b []byte) error {
	if len(b) < AccountSize {
		return errors.Wrapf(ErrInvalidTokenAccount, "account data is %d bytes", len(b))
	}

	decoded, err := layout.Unmarshal(accountLayout, b[:AccountSize])
	if err != nil {
		return errors.Wrap(err, "invalid token account data")
	}
	r := decoded.(layout.Record)

	a.Mint = r.Bytes("mint")
	a.Owner = r.Bytes("owner")
	a.Amount = r.Uint64("amount")
	a.Delegate = getOptionalKey(r, "delegate")
	a.State = AccountState(r.Uint64("state"))
	a.IsNative = nil
	if r.Uint64("isNativeOption") != 0 {
		v := r.Uint64("isNative")
		a.IsNative = &v
	}
	a.DelegatedAmount = r.Uint64("delegatedAmount")
	a.CloseAuthority = getOptionalKey(r, "closeAuthority")

	return nil
}

func (m *Mint) Marshal() ([]byte, error) {
	r := layout.Record{
		"supply":        m.Supply,
		"decimals":      m.Decimals,
		"isInitialized": m.IsInitialized,
	}
	putOptionalKey(r, "mintAuthority", m.MintAuthority)
	putOptionalKey(r, "freezeAuthority", m.FreezeAuthority)

	return layout.Marshal(mintLayout, r)
}

func (m *Mint) Unmarshal(b []byte) error {
	if len(b) < MintSize {
		return errors.Wrapf(ErrInvalidMint, "mint data is %d bytes", len(b))
	}

	decoded, err := layout.Unmarshal(mintLayout, b[:MintSize])
	if err != nil {
		return errors.Wrap(err, "invalid mint data")
	}
	r := decoded.(layout.Record)

	m.MintAuthority = getOptionalKey(r, "mintAuthority")
	m.Supply = r.Uint64("supply")
	m.Decimals = uint8(r.Uint64("decimals"))
	m.IsInitialized = r.Uint64("isInitialized") != 0
	m.FreezeAuthority = getOptionalKey(r, "freezeAuthority")

	return nil
}
