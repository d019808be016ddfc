package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mineloop99/new-token/publish"
	"github.com/mineloop99/new-token/publish/artifacts"
	"github.com/mineloop99/new-token/publish/network"
)

type globals struct {
	Network        string
	Config         string
	BuildDir       string
	LogLevel       string
	LogFile        string
	MetricsFile    string
	TimeoutSeconds int64

	// env only
	RPCURL         string
	PrivateKey     string
	ExplorerAPIKey string
	GasFeeCap      int64
	GasTipCap      int64

	// backend, when set, replaces the network's own node
	backend publish.Backend
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		exitErr(err)
	}
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	return newRootCmdWith(stdout, nil)
}

func newRootCmdWith(stdout io.Writer, backend publish.Backend) *cobra.Command {
	g := &globals{
		RPCURL:         envOr("RPC_URL", ""),
		PrivateKey:     envOr("PRIVATE_KEY", ""),
		ExplorerAPIKey: envOr("EXPLORER_API_KEY", ""),
		GasFeeCap:      envInt64("GAS_FEE_CAP", 0),
		GasTipCap:      envInt64("GAS_TIP_CAP", 0),
		backend:        backend,
	}

	root := &cobra.Command{
		Use:           "ani-publish",
		Short:         "Deploy and check the Aniwar contracts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)

	pf := root.PersistentFlags()
	pf.StringVar(&g.Network, "network", envOr("NETWORK", ""), "network to use (default from config, else development)")
	pf.StringVar(&g.Config, "config", envOr("CONFIG", network.DefaultConfig), "brownie-style config file")
	pf.StringVar(&g.BuildDir, "build-dir", envOr("BUILD_DIR", artifacts.DefaultBuildDir), "compiled contract build directory")
	pf.StringVar(&g.LogLevel, "log-level", envOr("LOG_LEVEL", "info"), "log level: debug|info|warn|error")
	pf.StringVar(&g.LogFile, "log-file", "", "also write logs to this file, rotated")
	pf.StringVar(&g.MetricsFile, "metrics-file", "", "write prometheus metrics to this file on exit")
	pf.Int64Var(&g.TimeoutSeconds, "timeout-seconds", envInt64("TIMEOUT_SECONDS", 600), "overall command timeout")

	root.AddCommand(
		newDeployCmd(g),
		newCheckCmd(g),
		newCopyArtifactsCmd(),
		newOpenSeaURLCmd(),
		newAccountCmd(g),
		newBalanceCmd(g),
	)
	return root
}

func printJSON(w io.Writer, v any) error {
	blob, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(blob))
	return err
}

func envOr(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func envInt64(key string, fallback int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func exitErr(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
