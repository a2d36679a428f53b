package token

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-stakepool/pkg/solana"
)

// Client reads token accounts of a single mint.
type Client struct {
	sc   solana.Client
	mint ed25519.PublicKey
}

// NewClient creates a new Client.
func NewClient(sc solana.Client, mint ed25519.PublicKey) *Client {
	return &Client{
		sc:   sc,
		mint: mint,
	}
}

// GetAccount returns the token account state for accountID.
//
// If the account is not initialized, is not owned by a token program, or
// belongs to a different mint, then ErrInvalidTokenAccount is returned.
func (c *Client) GetAccount(accountID ed25519.PublicKey, commitment solana.Commitment) (*Account, error) {
	accountInfo, err := c.sc.GetAccountInfo(accountID, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get account info")
	}

	if !IsTokenProgram(accountInfo.Owner) {
		return nil, ErrInvalidTokenAccount
	}

	var account Account
	if err := account.Unmarshal(accountInfo.Data); err != nil {
		return nil, err
	}

	if account.State == AccountStateUninitialized || !bytes.Equal(c.mint, account.Mint) {
		return nil, ErrInvalidTokenAccount
	}

	return &account, nil
}

// GetMint returns the mint state.
func (c *Client) GetMint(commitment solana.Commitment) (*Mint, error) {
	accountInfo, err := c.sc.GetAccountInfo(c.mint, commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "failed to get mint info")
	}

	if !IsTokenProgram(accountInfo.Owner) {
		return nil, ErrInvalidMint
	}

	var mint Mint
	if err := mint.Unmarshal(accountInfo.Data); err != nil {
		return nil, err
	}
	if !mint.IsInitialized {
		return nil, ErrInvalidMint
	}
	return &mint, nil
}
