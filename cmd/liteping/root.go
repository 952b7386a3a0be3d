package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/opd-ai/liteclient"
	"github.com/opd-ai/liteclient/directory"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

type pingFlags struct {
	configURL        string
	mainnet          bool
	attempts         int
	dialTimeout      time.Duration
	handshakeTimeout time.Duration
	count            int
	interval         time.Duration
	verbose          bool
}

func newRootCmd() *cobra.Command {
	var flags pingFlags

	cmd := &cobra.Command{
		Use:   "liteping",
		Short: "Connect to a TON liteserver and ping it over ADNL",
		Long: `liteping fetches a TON global config, connects to its liteservers in
order, rotating past unreachable ones, and sends tcp.ping over the
established ADNL session.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runPing(ctx, cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configURL, "config-url", directory.TestnetConfigURL, "global config URL")
	f.BoolVar(&flags.mainnet, "mainnet", false, "use the mainnet global config")
	f.IntVar(&flags.attempts, "attempts", 0, "connection attempts before giving up (default three passes over the directory)")
	f.DurationVar(&flags.dialTimeout, "dial-timeout", 5*time.Second, "TCP connect timeout per attempt")
	f.DurationVar(&flags.handshakeTimeout, "handshake-timeout", 5*time.Second, "handshake confirmation timeout per attempt")
	f.IntVarP(&flags.count, "count", "c", 3, "number of pings to send")
	f.DurationVarP(&flags.interval, "interval", "i", time.Second, "wait between pings")
	f.BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")
	cmd.MarkFlagsMutuallyExclusive("config-url", "mainnet")

	return cmd
}

func runPing(ctx context.Context, cmd *cobra.Command, flags pingFlags) error {
	url := flags.configURL
	if flags.mainnet {
		url = directory.MainnetConfigURL
	}

	options := liteclient.NewOptions()
	options.MaxAttempts = flags.attempts
	options.DialTimeout = flags.dialTimeout
	options.HandshakeTimeout = flags.handshakeTimeout

	manager, session, err := liteclient.Dial(ctx, url, options)
	if err != nil {
		return err
	}
	defer session.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "connected to %s after %d attempt(s)\n", manager.Current(), manager.Attempts())

	for i := 0; i < flags.count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(flags.interval):
			}
		}

		pingCtx, cancel := context.WithTimeout(ctx, flags.handshakeTimeout)
		rtt, err := session.Ping(pingCtx)
		cancel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "runPing",
				"seq":      i,
				"error":    err.Error(),
			}).Error("Ping failed")
			return fmt.Errorf("ping %d: %w", i, err)
		}
		fmt.Fprintf(out, "pong seq=%d time=%s\n", i, rtt.Round(time.Microsecond))
	}
	return nil
}
