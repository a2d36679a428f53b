package stakepool

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-stakepool/pkg/solana"
)

// checkUpToDate fails when the program would reject deposits and
// withdrawals because the pool has not been updated for the current epoch.
func (c *Client) checkUpToDate(ctx context.Context, pool *StakePool, commitment solana.Commitment) error {
	epoch, err := withContext(ctx, func() (*solana.EpochInfo, error) {
		return c.sc.GetEpochInfo(commitment)
	})
	if err != nil {
		return errors.Wrap(err, "error getting epoch info")
	}
	if pool.LastUpdateEpoch < epoch.Epoch {
		return errors.Wrapf(
			ErrStakePoolOutOfDate,
			"last updated in epoch %d, current epoch is %d",
			pool.LastUpdateEpoch,
			epoch.Epoch,
		)
	}
	return nil
}

type submission struct {
	payer        ed25519.PrivateKey
	signers      []ed25519.PrivateKey
	instructions []solana.Instruction
	commitment   solana.Commitment
	wait         bool
}

// submit signs and sends a single transaction. The signature is returned
// whenever the transaction reached the node, even if confirming it failed.
func (c *Client) submit(log *logrus.Entry, s *submission) (sig solana.Signature, confirmed bool, err error) {
	blockhash, err := c.sc.GetLatestBlockhash(s.commitment)
	if err != nil {
		return sig, false, errors.Wrap(err, "error getting latest blockhash")
	}

	payer := s.payer.Public().(ed25519.PublicKey)
	txn := solana.NewTransaction(payer, s.instructions...)
	txn.SetBlockhash(blockhash)

	signers := []ed25519.PrivateKey{s.payer}
	for _, signer := range s.signers {
		if !signer.Public().(ed25519.PublicKey).Equal(payer) {
			signers = append(signers, signer)
		}
	}
	if err := txn.Sign(signers...); err != nil {
		return sig, false, errors.Wrap(err, "error signing transaction")
	}
	if size := len(txn.Marshal()); size > solana.MaxTransactionSize {
		return sig, false, errors.Errorf("transaction is %d bytes, limit is %d", size, solana.MaxTransactionSize)
	}

	sig, err = c.sc.SubmitTransaction(txn.Marshal(), s.commitment)
	if err != nil {
		if code, ok := ProgramError(err); ok {
			log.WithField("program_error", code.Error()).Info("transaction rejected by program")
		}
		return solana.Signature{}, false, err
	}

	log = log.WithField("signature", sig.String())
	log.Info("submitted transaction")

	if !s.wait {
		return sig, false, nil
	}
	if _, err := c.sc.GetSignatureStatus(sig, s.commitment); err != nil {
		if code, ok := ProgramError(err); ok {
			log.WithField("program_error", code.Error()).Info("transaction failed on chain")
		}
		return sig, false, err
	}
	log.Debug("transaction confirmed")
	return sig, true, nil
}
