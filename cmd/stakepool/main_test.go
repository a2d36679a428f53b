package main

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/code-stakepool/pkg/rate"
	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/stake"
	"github.com/code-payments/code-stakepool/pkg/solana/stakepool"
	"github.com/code-payments/code-stakepool/pkg/solana/token"
)

type stubSolanaClient struct {
	solana.Client

	accounts map[string]solana.AccountInfo
}

func (c *stubSolanaClient) GetAccountInfo(address ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	info, ok := c.accounts[base58.Encode(address)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *stubSolanaClient) GetBalance(address ed25519.PublicKey) (uint64, error) {
	info, ok := c.accounts[base58.Encode(address)]
	if !ok {
		return 0, solana.ErrNoBalance
	}
	return info.Lamports, nil
}

func (c *stubSolanaClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return 2_282_880, nil
}

type cliTestEnv struct {
	sc          *stubSolanaClient
	pool        *stakepool.StakePool
	poolAddress ed25519.PublicKey
	vote        ed25519.PublicKey
	endpoint    string
	limiter     rate.Limiter
	rpcOpts     *jsonrpc.RPCClientOpts
	run         func(args ...string) (string, error)
}

func setupCLITest(t *testing.T) *cliTestEnv {
	keys := make([]ed25519.PublicKey, 9)
	for i := range keys {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	pool := &stakepool.StakePool{
		AccountType:       stakepool.AccountTypeStakePool,
		Manager:           keys[0],
		Staker:            keys[1],
		ValidatorList:     keys[2],
		ReserveStake:      keys[3],
		PoolMint:          keys[4],
		ManagerFeeAccount: keys[5],
		TokenProgramId:    keys[6],
		TotalLamports:     5_000_000_000,
		PoolTokenSupply:   5_000_000_000,
	}
	list := &stakepool.ValidatorList{
		MaxValidators: 2,
		Validators: []stakepool.ValidatorStakeInfo{
			{ActiveStakeLamports: 3_000_000_000, Status: stakepool.StakeStatusActive, VoteAccountAddress: keys[7]},
		},
	}

	poolData, err := pool.Marshal()
	require.NoError(t, err)
	listData, err := list.Marshal()
	require.NoError(t, err)

	sc := &stubSolanaClient{accounts: map[string]solana.AccountInfo{
		base58.Encode(keys[8]):            {Owner: stakepool.PROGRAM_ID, Lamports: 1, Data: poolData},
		base58.Encode(pool.ValidatorList): {Owner: stakepool.PROGRAM_ID, Lamports: 1, Data: listData},
		base58.Encode(pool.ReserveStake):  {Owner: stake.ProgramKey, Lamports: 1_002_282_880, Data: make([]byte, stake.StateSize)},
	}}

	env := &cliTestEnv{
		sc:          sc,
		pool:        pool,
		poolAddress: keys[8],
		vote:        keys[7],
	}
	env.run = func(args ...string) (string, error) {
		c := newCLI()
		c.newSolanaClient = func(endpoint string, opts *jsonrpc.RPCClientOpts, limiter rate.Limiter) solana.Client {
			env.endpoint = endpoint
			env.rpcOpts = opts
			env.limiter = limiter
			return sc
		}

		root := c.rootCommand()
		out := &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(args)
		err := root.Execute()
		return out.String(), err
	}
	return env
}

func TestPoolCommand(t *testing.T) {
	env := setupCLITest(t)

	out, err := env.run("pool", base58.Encode(env.poolAddress), "--rpc", "devnet")
	require.NoError(t, err)
	assert.Equal(t, string(solana.EnvironmentDev), env.endpoint)
	assert.Contains(t, out, "total stake:          5.000000000 SOL")
	assert.Contains(t, out, "exchange rate:        1.000000000")
	assert.Contains(t, out, "validators:           1")
}

func TestValidatorsAndCandidatesCommands(t *testing.T) {
	env := setupCLITest(t)

	out, err := env.run("validators", base58.Encode(env.poolAddress))
	require.NoError(t, err)
	assert.Contains(t, out, "1 of 2 validators")
	assert.Contains(t, out, base58.Encode(env.vote))
	assert.Contains(t, out, "active=3.000000000")

	out, err = env.run("candidates", base58.Encode(env.poolAddress))
	require.NoError(t, err)
	assert.Contains(t, out, "active")
	assert.Contains(t, out, "available=3.000000000")
	assert.Contains(t, out, "reserve")
	assert.Contains(t, out, "available=0.999999999")
}

func TestPlanWithdrawCommand(t *testing.T) {
	env := setupCLITest(t)

	out, err := env.run("plan-withdraw", base58.Encode(env.poolAddress), "3500000000")
	require.NoError(t, err)
	assert.Contains(t, out, "pool_tokens=3000000000")
	assert.Contains(t, out, "pool_tokens=500000000")
	assert.Contains(t, out, "total pool tokens: 3500000000 across 2 stake accounts")

	_, err = env.run("plan-withdraw", base58.Encode(env.poolAddress), "5000000000")
	assert.True(t, errors.Is(err, stakepool.ErrInsufficientBalance))

	_, err = env.run("plan-withdraw", base58.Encode(env.poolAddress), "1", "--order", "random")
	assert.Error(t, err)

	_, err = env.run("plan-withdraw", "not-an-address", "1")
	assert.Error(t, err)
}

func TestBalanceCommand(t *testing.T) {
	env := setupCLITest(t)

	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	ata, err := token.GetAssociatedAccountForProgram(owner, env.pool.PoolMint, env.pool.TokenProgramId)
	require.NoError(t, err)

	accountData, err := (&token.Account{
		Mint:   env.pool.PoolMint,
		Owner:  owner,
		Amount: 2_000_000_000,
		State:  token.AccountStateInitialized,
	}).Marshal()
	require.NoError(t, err)
	mintData, err := (&token.Mint{Supply: env.pool.PoolTokenSupply, Decimals: 9, IsInitialized: true}).Marshal()
	require.NoError(t, err)

	env.sc.accounts[base58.Encode(ata)] = solana.AccountInfo{Owner: token.ProgramKey, Lamports: 1, Data: accountData}
	env.sc.accounts[base58.Encode(env.pool.PoolMint)] = solana.AccountInfo{Owner: token.ProgramKey, Lamports: 1, Data: mintData}

	out, err := env.run("balance", base58.Encode(env.poolAddress), base58.Encode(owner))
	require.NoError(t, err)
	assert.Contains(t, out, base58.Encode(ata))
	assert.Contains(t, out, "pool tokens:          2000000000")
	assert.Contains(t, out, "value:                2.000000000 SOL")

	out, err = env.run("balance", base58.Encode(env.poolAddress), "--token-account", base58.Encode(ata))
	require.NoError(t, err)
	assert.Contains(t, out, "pool tokens:          2000000000")

	_, err = env.run("balance", base58.Encode(env.poolAddress))
	assert.Error(t, err)
}

func TestStakeCommand(t *testing.T) {
	env := setupCLITest(t)

	out, err := env.run("stake", base58.Encode(env.pool.ReserveStake))
	require.NoError(t, err)
	assert.Contains(t, out, "status:               uninitialized")
	assert.NotContains(t, out, "vote account")

	_, err = env.run("stake", base58.Encode(env.poolAddress))
	assert.True(t, errors.Is(err, stakepool.ErrInvalidOwner))
}

func TestDepositSolCommand_RequiresKeypair(t *testing.T) {
	env := setupCLITest(t)

	_, err := env.run("deposit-sol", base58.Encode(env.poolAddress), "1000")
	assert.Error(t, err)

	_, err = env.run("deposit-sol", base58.Encode(env.poolAddress), "lots", "--keypair", "id.json")
	assert.Error(t, err)
}

func TestRPCRate(t *testing.T) {
	env := setupCLITest(t)

	_, err := env.run("pool", base58.Encode(env.poolAddress))
	require.NoError(t, err)
	assert.IsType(t, &rate.NoLimiter{}, env.limiter)

	_, err = env.run("pool", base58.Encode(env.poolAddress), "--rpc-rate", "1")
	require.NoError(t, err)
	allowed, err := env.limiter.Allow("getAccountInfo")
	require.NoError(t, err)
	assert.True(t, allowed)
	allowed, err = env.limiter.Allow("getAccountInfo")
	require.NoError(t, err)
	assert.False(t, allowed)

	_, err = env.run("pool", base58.Encode(env.poolAddress), "--rpc-rate", "-1")
	assert.Error(t, err)
}

func TestRPCTimeout(t *testing.T) {
	env := setupCLITest(t)

	_, err := env.run("pool", base58.Encode(env.poolAddress))
	require.NoError(t, err)
	require.NotNil(t, env.rpcOpts)
	require.NotNil(t, env.rpcOpts.HTTPClient)
	assert.Equal(t, 30*time.Second, env.rpcOpts.HTTPClient.Timeout)

	_, err = env.run("pool", base58.Encode(env.poolAddress), "--rpc-timeout", "5s")
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, env.rpcOpts.HTTPClient.Timeout)

	_, err = env.run("pool", base58.Encode(env.poolAddress), "--rpc-timeout", "-1s")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	env := setupCLITest(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rpc: testnet\nlog_level: debug\n"), 0o600))

	_, err := env.run("pool", base58.Encode(env.poolAddress), "--config", path)
	require.NoError(t, err)
	assert.Equal(t, string(solana.EnvironmentTest), env.endpoint)

	t.Setenv("STAKEPOOL_RPC", "http://rpc.example.com")
	_, err = env.run("pool", base58.Encode(env.poolAddress))
	require.NoError(t, err)
	assert.Equal(t, "http://rpc.example.com", env.endpoint)

	_, err = env.run("pool", base58.Encode(env.poolAddress), "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadKeypair(t *testing.T) {
	dir := t.TempDir()
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	values := make([]int, len(priv))
	for i, b := range priv {
		values[i] = int(b)
	}
	encoded, err := json.Marshal(values)
	require.NoError(t, err)

	path := filepath.Join(dir, "id.json")
	require.NoError(t, os.WriteFile(path, encoded, 0o600))

	loaded, err := loadKeypair(path)
	require.NoError(t, err)
	assert.Equal(t, priv, loaded)
	assert.Equal(t, pub, loaded.Public())

	values[40] ^= 1
	encoded, err = json.Marshal(values)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, encoded, 0o600))
	_, err = loadKeypair(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("[1,2,3]"), 0o600))
	_, err = loadKeypair(path)
	assert.Error(t, err)

	_, err = loadKeypair(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestFormatSol(t *testing.T) {
	assert.Equal(t, "0.000000001", formatSol(1))
	assert.Equal(t, "1.500000000", formatSol(1_500_000_000))
}
