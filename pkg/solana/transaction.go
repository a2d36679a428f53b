package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana/shortvec"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Blockhash [sha256.Size]byte

// ParseBlockhash decodes a base58 blockhash as returned by the RPC API.
func ParseBlockhash(encoded string) (Blockhash, error) {
	var bh Blockhash
	decoded, err := base58.Decode(encoded)
	if err != nil {
		return bh, errors.Wrap(err, "invalid base58 blockhash")
	}
	if len(decoded) != len(bh) {
		return bh, errors.Errorf("invalid blockhash length: %d", len(decoded))
	}
	copy(bh[:], decoded)
	return bh, nil
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// CompiledInstruction is an Instruction with its program and accounts
// replaced by indexes into the message account list.
type CompiledInstruction struct {
	ProgramIndex byte
	Accounts     []byte
	Data         []byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

type compiledAccount struct {
	AccountMeta
	isPayer   bool
	isProgram bool
}

// byMessageOrder orders accounts the way the runtime expects them: the payer
// first, then signers before non-signers and writable before readonly
// within each group. Programs that are only invoked sort to the end.
type byMessageOrder []compiledAccount

func (s byMessageOrder) Len() int      { return len(s) }
func (s byMessageOrder) Swap(i, j int) { s[i], s[j] = s[j], s[i] }
func (s byMessageOrder) Less(i, j int) bool {
	if s[i].isPayer != s[j].isPayer {
		return s[i].isPayer
	}
	if s[i].isProgram != s[j].isProgram {
		return !s[i].isProgram
	}
	if s[i].IsSigner != s[j].IsSigner {
		return s[i].IsSigner
	}
	if s[i].IsWritable != s[j].IsWritable {
		return s[i].IsWritable
	}

	return bytes.Compare(s[i].PublicKey, s[j].PublicKey) < 0
}

// NewTransaction compiles instructions into an unsigned legacy transaction
// paid for by payer. The blockhash must be set before signing.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []compiledAccount{
		{
			AccountMeta: AccountMeta{PublicKey: payer, IsSigner: true, IsWritable: true},
			isPayer:     true,
		},
	}
	for _, i := range instructions {
		accounts = append(accounts, compiledAccount{
			AccountMeta: AccountMeta{PublicKey: i.Program},
			isProgram:   true,
		})
		for _, a := range i.Accounts {
			accounts = append(accounts, compiledAccount{AccountMeta: a})
		}
	}

	accounts = filterUnique(accounts)
	sort.Sort(byMessageOrder(accounts))

	var m Message
	for _, account := range accounts {
		key := account.PublicKey
		if len(key) == 0 {
			key = make([]byte, ed25519.PublicKeySize)
		}
		m.Accounts = append(m.Accounts, key)

		if account.IsSigner {
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, i.Program)),
			Data:         i.Data,
		}
		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(m.Accounts, a.PublicKey)))
		}
		m.Instructions = append(m.Instructions, c)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// filterUnique merges repeated accounts, promoting to the strongest access
// any reference asked for.
func filterUnique(accounts []compiledAccount) []compiledAccount {
	filtered := make([]compiledAccount, 0, len(accounts))

outer:
	for _, a := range accounts {
		for j := range filtered {
			if !keysEqual(a.PublicKey, filtered[j].PublicKey) {
				continue
			}

			filtered[j].IsSigner = filtered[j].IsSigner || a.IsSigner
			filtered[j].IsWritable = filtered[j].IsWritable || a.IsWritable
			filtered[j].isPayer = filtered[j].isPayer || a.isPayer
			// Programs that are also passed as accounts are ordered as accounts.
			filtered[j].isProgram = filtered[j].isProgram && a.isProgram
			continue outer
		}

		filtered = append(filtered, a)
	}

	return filtered
}

// keysEqual treats an empty key as the zero key.
func keysEqual(a, b ed25519.PublicKey) bool {
	if len(a) == 0 {
		a = zeroKey
	}
	if len(b) == 0 {
		b = zeroKey
	}
	return bytes.Equal(a, b)
}

var zeroKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if keysEqual(val, item) {
			return i
		}
	}

	return -1
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Signature returns the transaction id, the payer's signature.
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

// Sign signs the message with every provided key. Each key must belong to
// one of the message's signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// IsSigned reports whether every required signature is present.
func (t *Transaction) IsSigned() bool {
	for _, s := range t.Signatures {
		if s == (Signature{}) {
			return false
		}
	}
	return len(t.Signatures) > 0
}

func (t Transaction) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_, _ = shortvec.EncodeLen(b, len(t.Signatures))
	for _, s := range t.Signatures {
		_, _ = b.Write(s[:])
	}

	_, _ = b.Write(t.Message.Marshal())

	return b.Bytes()
}

func (t *Transaction) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	sigLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read signature length")
	}

	t.Signatures = make([]Signature, sigLen)
	for i := 0; i < sigLen; i++ {
		if _, err = io.ReadFull(buf, t.Signatures[i][:]); err != nil {
			return errors.Wrapf(err, "failed to read signature at %d", i)
		}
	}

	return t.Message.Unmarshal(buf.Bytes())
}

func (m Message) Marshal() []byte {
	b := bytes.NewBuffer(nil)

	_ = b.WriteByte(m.Header.NumSignatures)
	_ = b.WriteByte(m.Header.NumReadonlySigned)
	_ = b.WriteByte(m.Header.NumReadOnly)

	_, _ = shortvec.EncodeLen(b, len(m.Accounts))
	for _, a := range m.Accounts {
		_, _ = b.Write(a)
	}

	_, _ = b.Write(m.RecentBlockhash[:])

	_, _ = shortvec.EncodeLen(b, len(m.Instructions))
	for _, i := range m.Instructions {
		_ = b.WriteByte(i.ProgramIndex)

		_, _ = shortvec.EncodeLen(b, len(i.Accounts))
		_, _ = b.Write(i.Accounts)

		_, _ = shortvec.EncodeLen(b, len(i.Data))
		_, _ = b.Write(i.Data)
	}

	return b.Bytes()
}

func (m *Message) Unmarshal(b []byte) error {
	buf := bytes.NewBuffer(b)

	var header [3]byte
	if _, err := io.ReadFull(buf, header[:]); err != nil {
		return errors.Wrap(err, "failed to read header")
	}
	if header[0]&0x80 != 0 {
		return errors.New("versioned messages are not supported")
	}
	m.Header = Header{
		NumSignatures:     header[0],
		NumReadonlySigned: header[1],
		NumReadOnly:       header[2],
	}

	accountLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read account length")
	}
	m.Accounts = make([]ed25519.PublicKey, accountLen)
	for i := range m.Accounts {
		m.Accounts[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
		if _, err := io.ReadFull(buf, m.Accounts[i]); err != nil {
			return errors.Wrapf(err, "failed to read account at %d", i)
		}
	}

	if _, err := io.ReadFull(buf, m.RecentBlockhash[:]); err != nil {
		return errors.Wrap(err, "failed to read blockhash")
	}

	instructionLen, err := shortvec.DecodeLen(buf)
	if err != nil {
		return errors.Wrap(err, "failed to read instruction length")
	}
	m.Instructions = make([]CompiledInstruction, instructionLen)
	for i := range m.Instructions {
		c := &m.Instructions[i]

		if c.ProgramIndex, err = buf.ReadByte(); err != nil {
			return errors.Wrapf(err, "failed to read program index of instruction %d", i)
		}

		if c.Accounts, err = readShortVecBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read accounts of instruction %d", i)
		}
		if c.Data, err = readShortVecBytes(buf); err != nil {
			return errors.Wrapf(err, "failed to read data of instruction %d", i)
		}
	}

	return nil
}

func readShortVecBytes(buf *bytes.Buffer) ([]byte, error) {
	n, err := shortvec.DecodeLen(buf)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(buf, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, s))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Header: %d signed (%d readonly), %d readonly unsigned\n",
		t.Message.Header.NumSignatures, t.Message.Header.NumReadonlySigned, t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("  Blockhash: %s\n", t.Message.RecentBlockhash))
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i, c := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d: program=%d accounts=%v data=%x\n", i, c.ProgramIndex, c.Accounts, c.Data))
	}
	return sb.String()
}
