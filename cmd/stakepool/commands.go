package main

import (
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/stakepool"
)

const lamportsPerSol = 1_000_000_000

func (c *cli) poolCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pool <stake-pool>",
		Short: "Show a stake pool's state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			accounts, err := c.client.GetStakePoolAccounts(cmd.Context(), address)
			if err != nil {
				return err
			}

			printPool(cmd.OutOrStdout(), accounts)
			return nil
		},
	}
}

func (c *cli) validatorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validators <stake-pool>",
		Short: "List the validators of a stake pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			accounts, err := c.client.GetStakePoolAccounts(cmd.Context(), address)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d of %d validators\n", len(accounts.ValidatorList.Validators), accounts.ValidatorList.MaxValidators)
			for _, v := range accounts.ValidatorList.Validators {
				fmt.Fprintf(
					out,
					"%s  status=%s  active=%s  transient=%s  last_update_epoch=%d\n",
					base58.Encode(v.VoteAccountAddress),
					v.Status,
					formatSol(v.ActiveStakeLamports),
					formatSol(v.TransientStakeLamports),
					v.LastUpdateEpoch,
				)
			}
			return nil
		},
	}
}

func (c *cli) candidatesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "candidates <stake-pool>",
		Short: "List the stake accounts a withdrawal could draw from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			program, err := c.client.Program(cmd.Context())
			if err != nil {
				return err
			}
			accounts, err := c.client.GetStakePoolAccounts(cmd.Context(), address)
			if err != nil {
				return err
			}

			candidates, err := stakepool.BuildWithdrawCandidates(&stakepool.BuildWithdrawCandidatesArgs{
				Program:            program,
				StakePoolAddress:   address,
				StakePool:          accounts.StakePool,
				ValidatorList:      accounts.ValidatorList,
				ReserveLamports:    accounts.ReserveLamports,
				StakeRentExemption: accounts.StakeRentExemption,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, candidate := range candidates {
				fmt.Fprintf(
					out,
					"%-9s  %s  available=%s\n",
					candidate.Kind,
					base58.Encode(candidate.StakeAddress),
					formatSol(candidate.Lamports),
				)
			}
			return nil
		},
	}
}

func (c *cli) balanceCommand() *cobra.Command {
	var tokenAccount string

	cmd := &cobra.Command{
		Use:   "balance <stake-pool> [owner]",
		Short: "Show a pool token balance and what it withdraws for",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			var owner, account ed25519.PublicKey
			if len(args) > 1 {
				if owner, err = solana.ParsePublicKey(args[1]); err != nil {
					return err
				}
			}
			if len(tokenAccount) > 0 {
				if account, err = solana.ParsePublicKey(tokenAccount); err != nil {
					return err
				}
			}

			balance, err := c.client.GetPoolTokenBalance(cmd.Context(), address, owner, account)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "token account:        %s\n", base58.Encode(balance.TokenAccount))
			fmt.Fprintf(out, "pool tokens:          %d\n", balance.Amount)
			fmt.Fprintf(out, "value:                %s SOL\n", formatSol(balance.Lamports))
			fmt.Fprintf(out, "withdraw as stake:    %s SOL\n", formatSol(balance.StakeWithdrawalLamports))
			fmt.Fprintf(out, "withdraw as sol:      %s SOL\n", formatSol(balance.SolWithdrawalLamports))
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenAccount, "token-account", "", "pool token account, if not the owner's associated account")
	return cmd
}

func (c *cli) stakeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stake <stake-account>",
		Short: "Show a native stake account, such as one received from a withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}

			state, err := c.client.GetStakeAccount(cmd.Context(), address)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "status:               %s\n", state.Status)
			if state.Meta != nil {
				fmt.Fprintf(out, "staker:               %s\n", base58.Encode(state.Meta.Authorized.Staker))
				fmt.Fprintf(out, "withdrawer:           %s\n", base58.Encode(state.Meta.Authorized.Withdrawer))
				fmt.Fprintf(out, "rent exempt reserve:  %s SOL\n", formatSol(state.Meta.RentExemptReserve))
			}
			if state.Delegation != nil {
				fmt.Fprintf(out, "vote account:         %s\n", base58.Encode(state.Delegation.VoterPubkey))
				fmt.Fprintf(out, "delegated stake:      %s SOL\n", formatSol(state.Delegation.Stake))
				fmt.Fprintf(out, "activation epoch:     %d\n", state.Delegation.ActivationEpoch)
				if state.IsDeactivating() {
					fmt.Fprintf(out, "deactivation epoch:   %d\n", state.Delegation.DeactivationEpoch)
				}
			}
			return nil
		},
	}
}

func (c *cli) depositSolCommand() *cobra.Command {
	var (
		funderPath, recipient, tokenAccount, referral string
		minPoolTokensOut, priorityFee                 uint64
		wait                                          bool
	)

	cmd := &cobra.Command{
		Use:   "deposit-sol <stake-pool> <lamports>",
		Short: "Deposit SOL into a stake pool's reserve for pool tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			lamports, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid lamport amount")
			}

			funder, err := loadKeypair(funderPath)
			if err != nil {
				return err
			}

			req := &stakepool.DepositSolRequest{
				StakePoolAddress:     address,
				Lamports:             lamports,
				Funder:               funder,
				MinimumPoolTokensOut: minPoolTokensOut,
				ComputeUnitPrice:     priorityFee,
				WaitForConfirmation:  wait,
			}
			for _, opt := range []struct {
				value  string
				target *ed25519.PublicKey
			}{
				{recipient, &req.Recipient},
				{tokenAccount, &req.PoolTokenAccount},
				{referral, &req.ReferralPoolAccount},
			} {
				if len(opt.value) == 0 {
					continue
				}
				if *opt.target, err = solana.ParsePublicKey(opt.value); err != nil {
					return err
				}
			}

			receipt, err := c.client.DepositSol(cmd.Context(), req)
			if receipt != nil {
				fmt.Fprintf(
					cmd.OutOrStdout(),
					"%s  token_account=%s  expected_pool_tokens=%d  confirmed=%t\n",
					receipt.Signature,
					base58.Encode(receipt.PoolTokenAccount),
					receipt.ExpectedPoolTokens,
					receipt.Confirmed,
				)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&funderPath, "keypair", "", "funding keypair file")
	flags.StringVar(&recipient, "recipient", "", "owner of the minted pool tokens, if not the funder")
	flags.StringVar(&tokenAccount, "token-account", "", "existing pool token account to mint into")
	flags.StringVar(&referral, "referral", "", "pool token account receiving the referral fee")
	flags.Uint64Var(&minPoolTokensOut, "min-pool-tokens-out", 0, "fail the deposit if it mints fewer pool tokens")
	flags.Uint64Var(&priorityFee, "priority-fee", 0, "compute unit price in micro-lamports")
	flags.BoolVar(&wait, "wait", false, "wait for the deposit to confirm")
	_ = cmd.MarkFlagRequired("keypair")
	return cmd
}

func (c *cli) planWithdrawCommand() *cobra.Command {
	var tokenAccount, order string

	cmd := &cobra.Command{
		Use:   "plan-withdraw <stake-pool> <pool-tokens>",
		Short: "Show how a withdrawal would be split across the pool's stake accounts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			poolTokens, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid pool token amount")
			}
			less, err := parseOrder(order)
			if err != nil {
				return err
			}

			req := &stakepool.PrepareWithdrawRequest{
				StakePoolAddress: address,
				PoolTokens:       poolTokens,
				Less:             less,
			}
			if len(tokenAccount) > 0 {
				if req.PoolTokenAccount, err = solana.ParsePublicKey(tokenAccount); err != nil {
					return err
				}
			}

			allocations, accounts, err := c.client.PrepareWithdrawAccounts(cmd.Context(), req)
			if err != nil {
				return err
			}

			printPlan(cmd.OutOrStdout(), accounts.StakePool, allocations)
			return nil
		},
	}

	cmd.Flags().StringVar(&tokenAccount, "token-account", "", "pool token account the withdrawal is taken from")
	cmd.Flags().StringVar(&order, "order", "largest", "order within each tier: largest or smallest")
	return cmd
}

func (c *cli) withdrawCommand() *cobra.Command {
	var (
		payerPath, ownerPath, tokenAccount, order string
		minLamportsOut, priorityFee               uint64
		wait                                      bool
	)

	cmd := &cobra.Command{
		Use:   "withdraw <stake-pool> <pool-tokens>",
		Short: "Withdraw pool tokens as stake accounts",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			address, err := solana.ParsePublicKey(args[0])
			if err != nil {
				return err
			}
			poolTokens, err := strconv.ParseUint(args[1], 10, 64)
			if err != nil {
				return errors.Wrap(err, "invalid pool token amount")
			}
			less, err := parseOrder(order)
			if err != nil {
				return err
			}

			payer, err := loadKeypair(payerPath)
			if err != nil {
				return err
			}
			owner := payer
			if len(ownerPath) > 0 {
				if owner, err = loadKeypair(ownerPath); err != nil {
					return err
				}
			}

			req := &stakepool.WithdrawStakeRequest{
				StakePoolAddress:    address,
				PoolTokens:          poolTokens,
				Payer:               payer,
				Owner:               owner,
				MinimumLamportsOut:  minLamportsOut,
				ComputeUnitPrice:    priorityFee,
				Less:                less,
				WaitForConfirmation: wait,
			}
			if len(tokenAccount) > 0 {
				if req.PoolTokenAccount, err = solana.ParsePublicKey(tokenAccount); err != nil {
					return err
				}
			}

			receipts, err := c.client.WithdrawStake(cmd.Context(), req)

			out := cmd.OutOrStdout()
			for _, r := range receipts {
				fmt.Fprintf(
					out,
					"%s  stake_account=%s  pool_tokens=%d  confirmed=%t\n",
					r.Signature,
					base58.Encode(r.StakeAccount),
					r.Allocation.PoolAmount,
					r.Confirmed,
				)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&payerPath, "keypair", "", "fee payer keypair file")
	flags.StringVar(&ownerPath, "owner", "", "pool token owner keypair file, if not the fee payer")
	flags.StringVar(&tokenAccount, "token-account", "", "pool token account, if not the owner's associated account")
	flags.StringVar(&order, "order", "largest", "order within each tier: largest or smallest")
	flags.Uint64Var(&minLamportsOut, "min-lamports-out", 0, "fail if the withdrawal pays out fewer lamports in total, checked per transaction by pool token share")
	flags.Uint64Var(&priorityFee, "priority-fee", 0, "compute unit price in micro-lamports")
	flags.BoolVar(&wait, "wait", false, "wait for each withdrawal to confirm before sending the next")
	_ = cmd.MarkFlagRequired("keypair")
	return cmd
}

func parseOrder(order string) (stakepool.WithdrawCandidateLess, error) {
	switch order {
	case "", "largest":
		return nil, nil
	case "smallest":
		return func(a, b *stakepool.WithdrawCandidate) bool {
			return a.Lamports < b.Lamports
		}, nil
	default:
		return nil, errors.Errorf("unknown order %q", order)
	}
}

// loadKeypair reads a keypair file in the Solana CLI format, a JSON array of
// the 64 private key bytes.
func loadKeypair(path string) (ed25519.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read keypair")
	}

	// A []byte target would expect base64.
	var values []int
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.Wrapf(err, "invalid keypair file %s", path)
	}
	if len(values) != ed25519.PrivateKeySize {
		return nil, errors.Errorf("invalid keypair length %d in %s", len(values), path)
	}

	raw := make([]byte, len(values))
	for i, v := range values {
		if v < 0 || v > 255 {
			return nil, errors.Errorf("invalid keypair byte %d in %s", v, path)
		}
		raw[i] = byte(v)
	}

	key := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !key.Public().(ed25519.PublicKey).Equal(ed25519.PublicKey(raw[ed25519.SeedSize:])) {
		return nil, errors.Errorf("keypair %s has a mismatched public key", path)
	}
	return key, nil
}

func formatSol(lamports uint64) string {
	return fmt.Sprintf("%d.%09d", lamports/lamportsPerSol, lamports%lamportsPerSol)
}

func printPool(out io.Writer, accounts *stakepool.StakePoolAccounts) {
	pool := accounts.StakePool
	fmt.Fprintf(out, "address:              %s\n", base58.Encode(accounts.Address))
	fmt.Fprintf(out, "manager:              %s\n", base58.Encode(pool.Manager))
	fmt.Fprintf(out, "staker:               %s\n", base58.Encode(pool.Staker))
	fmt.Fprintf(out, "pool mint:            %s\n", base58.Encode(pool.PoolMint))
	fmt.Fprintf(out, "validator list:       %s\n", base58.Encode(pool.ValidatorList))
	fmt.Fprintf(out, "reserve stake:        %s (%s SOL)\n", base58.Encode(pool.ReserveStake), formatSol(accounts.ReserveLamports))
	fmt.Fprintf(out, "total stake:          %s SOL\n", formatSol(pool.TotalLamports))
	fmt.Fprintf(out, "pool token supply:    %d\n", pool.PoolTokenSupply)
	fmt.Fprintf(out, "exchange rate:        %.9f SOL per token\n", pool.ExchangeRate())
	fmt.Fprintf(out, "last update epoch:    %d\n", pool.LastUpdateEpoch)
	fmt.Fprintf(out, "epoch fee:            %s\n", pool.EpochFee)
	fmt.Fprintf(out, "stake withdrawal fee: %s\n", pool.StakeWithdrawalFee)
	fmt.Fprintf(out, "sol withdrawal fee:   %s\n", pool.SolWithdrawalFee)
	fmt.Fprintf(out, "validators:           %d\n", len(accounts.ValidatorList.Validators))
}

func printPlan(out io.Writer, pool *stakepool.StakePool, allocations []*stakepool.WithdrawAllocation) {
	for _, a := range allocations {
		lamports, err := pool.LamportsForWithdrawal(stakepool.ApplyFee(a.PoolAmount, pool.StakeWithdrawalFee))
		estimate := formatSol(lamports)
		if err != nil {
			estimate = "?"
		}

		fmt.Fprintf(
			out,
			"%s  pool_tokens=%d  est_sol=%s\n",
			base58.Encode(a.StakeAddress),
			a.PoolAmount,
			estimate,
		)
	}
	fmt.Fprintf(out, "total pool tokens: %d across %d stake accounts\n", stakepool.TotalPoolTokens(allocations), len(allocations))
}
