// Command boot takes a freshly started producer node to a working chain:
// system accounts, core contracts, token supply, and protocol features
// cloned from a reference network.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guilledk/go-leap/chain"
	"github.com/guilledk/go-leap/internal/version"
	"github.com/guilledk/go-leap/leap"
)

func main() {
	var (
		nodeURL    = flag.String("node", "http://127.0.0.1:8888", "chain API endpoint of the node to boot")
		remoteURL  = flag.String("remote", "https://mainnet.telos.net", "reference node for feature activations and hash checks")
		contracts  = flag.String("contracts", "tests/contracts", "directory with compiled contract artifacts")
		download   = flag.Bool("download", false, "download token/msig/wrap contracts from the remote first")
		eosioKey   = flag.String("key", "", "WIF private key for the eosio account (required)")
		ramAmount  = flag.Uint64("ram", 16_000_000_000, "initial system RAM bytes")
		verifyHash = flag.Bool("verify-hash", false, "verify deployed contracts against the remote chain")
		extras     = flag.String("extras", "", "comma separated extras (telos)")
		timeout    = flag.Duration("timeout", 10*time.Minute, "overall boot timeout")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	if *eosioKey == "" {
		logger.Error("missing -key, the eosio private key is required")
		os.Exit(1)
	}

	logger.Info("booting chain",
		"version", version.Version,
		"node", *nodeURL,
		"remote", *remoteURL,
		"contracts", *contracts,
	)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	client := leap.NewClient(*nodeURL,
		leap.WithRemote(*remoteURL),
		leap.WithLogger(logger),
	)

	if err := client.ImportKey("eosio", *eosioKey); err != nil {
		logger.Error("import eosio key", "error", err)
		os.Exit(1)
	}

	info, err := client.GetInfo(ctx)
	if err != nil {
		logger.Error("node unreachable", "error", err)
		os.Exit(1)
	}
	logger.Info("node online",
		"chain_id", info.ChainID,
		"head_block", info.HeadBlockNum,
		"producer", info.HeadBlockProducer,
	)

	if *download {
		names := []string{"eosio.token", "eosio.msig", "eosio.wrap"}
		if strings.Contains(*extras, "telos") {
			names = append(names, "telos.decide")
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, name := range names {
			name := name
			g.Go(func() error {
				logger.Info("downloading contract", "account", name, "from", *remoteURL)
				return client.DownloadContract(gctx, chain.MustName(name), *remoteURL, filepath.Join(*contracts, name))
			})
		}
		if err := g.Wait(); err != nil {
			logger.Error("contract download failed", "error", err)
			os.Exit(1)
		}
	}

	if err := client.WaitBlocks(ctx, 1); err != nil {
		logger.Error("wait for block production", "error", err)
		os.Exit(1)
	}

	err = client.BootSequence(ctx, leap.BootConfig{
		ContractsDir:    *contracts,
		RAMAmount:       *ramAmount,
		ActivationsNode: *remoteURL,
		VerifyHash:      *verifyHash,
		Telos:           strings.Contains(*extras, "telos"),
	})
	if err != nil {
		logger.Error("boot sequence failed", "error", err)
		os.Exit(1)
	}

	logger.Info("chain booted")
}
