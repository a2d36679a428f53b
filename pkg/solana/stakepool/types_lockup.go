package stakepool

import (
	"crypto/ed25519"

	"github.com/code-payments/code-stakepool/pkg/solana/layout"
)

// Lockup mirrors the native stake program lockup applied to stake accounts
// the pool creates.
type Lockup struct {
	UnixTimestamp uint64
	Epoch         uint64
	Custodian     ed25519.PublicKey
}

func lockupLayout(property string) *layout.Layout {
	return layout.Struct([]*layout.Layout{
		layout.U64("unixTimestamp"),
		layout.U64("epoch"),
		layout.PublicKey("custodian"),
	}, property)
}

func (l Lockup) toRecord() layout.Record {
	return layout.Record{
		"unixTimestamp": l.UnixTimestamp,
		"epoch":         l.Epoch,
		"custodian":     keyOrZero(l.Custodian),
	}
}

func lockupFromRecord(r layout.Record) Lockup {
	return Lockup{
		UnixTimestamp: r.Uint64("unixTimestamp"),
		Epoch:         r.Uint64("epoch"),
		Custodian:     r.Bytes("custodian"),
	}
}

func keyOrZero(key ed25519.PublicKey) []byte {
	if len(key) == 0 {
		return make([]byte, ed25519.PublicKeySize)
	}
	return key
}

func optionalKeyToValue(key ed25519.PublicKey) interface{} {
	if len(key) == 0 {
		return nil
	}
	return []byte(key)
}

func optionalKeyFromValue(v interface{}) ed25519.PublicKey {
	b, ok := v.([]byte)
	if !ok {
		return nil
	}
	return b
}
