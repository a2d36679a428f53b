package solana

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"
)

// AccountMeta is an account referenced by an instruction, with the access
// the instruction requires of it.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a writable AccountMeta.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a readonly AccountMeta.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

func (m AccountMeta) String() string {
	var flags string
	if m.IsSigner {
		flags += "s"
	}
	if m.IsWritable {
		flags += "w"
	}
	if len(flags) == 0 {
		flags = "r"
	}
	return fmt.Sprintf("%s(%s)", base58.Encode(m.PublicKey), flags)
}

// Instruction is a single program invocation ready to be placed in a
// transaction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

func (i Instruction) String() string {
	accounts := make([]string, len(i.Accounts))
	for j, a := range i.Accounts {
		accounts[j] = a.String()
	}
	return fmt.Sprintf(
		"Instruction{program=%s,accounts=[%s],data=%x}",
		base58.Encode(i.Program),
		strings.Join(accounts, ","),
		i.Data,
	)
}
