package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/ybbus/jsonrpc"
	xrate "golang.org/x/time/rate"

	"github.com/code-payments/code-stakepool/pkg/rate"
	"github.com/code-payments/code-stakepool/pkg/solana"
	"github.com/code-payments/code-stakepool/pkg/solana/stakepool"
)

const (
	rpcConfigKey        = "rpc"
	logLevelConfigKey   = "log_level"
	programIdConfigKey  = "program_id"
	commitmentConfigKey = "commitment"
	fetchTimeoutKey     = "fetch_timeout"
	rpcRateConfigKey    = "rpc_rate"
	rpcTimeoutConfigKey = "rpc_timeout"

	envPrefix = "STAKEPOOL"
)

// cli holds state shared by every subcommand once the root command has
// initialized.
type cli struct {
	v      *viper.Viper
	log    *logrus.Entry
	client *stakepool.Client

	// newSolanaClient is replaced in tests.
	newSolanaClient func(endpoint string, opts *jsonrpc.RPCClientOpts, limiter rate.Limiter) solana.Client
}

func newCLI() *cli {
	return &cli{
		v:               viper.New(),
		log:             logrus.StandardLogger().WithField("type", "cmd/stakepool"),
		newSolanaClient: solana.NewWithLimiter,
	}
}

func (c *cli) rootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "stakepool",
		Short:         "Inspect SPL stake pools and withdraw stake from them",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(configPath)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "configuration file path")
	flags.String("rpc", "mainnet-beta", "RPC endpoint URL or cluster moniker (devnet, testnet, mainnet-beta, localnet)")
	flags.String("log-level", "warn", "log level")
	flags.String("program-id", "", "stake pool program id, if not the canonical deployment")
	flags.String("commitment", "confirmed", "commitment used for reads and preflight")
	flags.Duration("fetch-timeout", 0, "timeout for fetching pool state")
	flags.Float64("rpc-rate", 0, "maximum requests per second for each RPC method, 0 for unlimited")
	flags.Duration("rpc-timeout", 30*time.Second, "HTTP timeout for a single RPC request, 0 for none")

	for key, flag := range map[string]string{
		rpcConfigKey:        "rpc",
		logLevelConfigKey:   "log-level",
		programIdConfigKey:  "program-id",
		commitmentConfigKey: "commitment",
		fetchTimeoutKey:     "fetch-timeout",
		rpcRateConfigKey:    "rpc-rate",
		rpcTimeoutConfigKey: "rpc-timeout",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	c.v.SetEnvPrefix(envPrefix)
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	root.AddCommand(
		c.poolCommand(),
		c.validatorsCommand(),
		c.candidatesCommand(),
		c.balanceCommand(),
		c.planWithdrawCommand(),
		c.withdrawCommand(),
		c.depositSolCommand(),
		c.stakeCommand(),
	)

	return root
}

func (c *cli) init(configPath string) error {
	if len(configPath) > 0 {
		// viper only reports a missing file when it searched for one itself.
		if _, err := os.Stat(configPath); err != nil {
			return errors.Wrap(err, "failed to load config")
		}
		c.v.SetConfigFile(configPath)
		if err := c.v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "failed to load config")
		}
	}

	configureLogger(c.v.GetString(logLevelConfigKey))

	endpoint := string(solana.ParseEnvironment(c.v.GetString(rpcConfigKey)))
	c.log.WithField("endpoint", endpoint).Debug("using rpc endpoint")

	var limiter rate.Limiter = &rate.NoLimiter{}
	if perSecond := c.v.GetFloat64(rpcRateConfigKey); perSecond > 0 {
		limiter = rate.NewLocalRateLimiter(xrate.Limit(perSecond))
	} else if perSecond < 0 {
		return errors.Errorf("invalid rpc rate %v", perSecond)
	}

	timeout := c.v.GetDuration(rpcTimeoutConfigKey)
	if timeout < 0 {
		return errors.Errorf("invalid rpc timeout %v", timeout)
	}
	opts := &jsonrpc.RPCClientOpts{
		HTTPClient: &http.Client{Timeout: timeout},
	}

	c.client = stakepool.NewClient(
		c.newSolanaClient(endpoint, opts, limiter),
		stakepool.WithOverrides(&stakepool.Overrides{
			Commitment:   c.v.GetString(commitmentConfigKey),
			ProgramId:    c.v.GetString(programIdConfigKey),
			FetchTimeout: c.v.GetDuration(fetchTimeoutKey),
		}),
	)
	return nil
}

func configureLogger(logLevel string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", logLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	// Logs go to stderr so command output stays machine readable.
	logrus.SetOutput(os.Stderr)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cobra.CheckErr(newCLI().rootCommand().ExecuteContext(ctx))
}
