// shipstream connects to a node's state_history_plugin and streams block
// summaries to the console. Useful for checking SHIP connectivity and
// stream health before pointing the indexer at a node.
// Usage: go run ./cmd/shipstream -url ws://127.0.0.1:29999 -start 1000 -count 100
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/guilledk/go-leap/ship"
)

func main() {
	var (
		url     = flag.String("url", "ws://127.0.0.1:29999", "state history WebSocket endpoint")
		start   = flag.Uint("start", 0, "first block to stream, 0 starts at the last irreversible block")
		count   = flag.Uint("count", 0, "number of blocks to stream, 0 streams forever")
		traces  = flag.Bool("traces", false, "also fetch transaction traces")
		deltas  = flag.Bool("deltas", false, "also fetch state deltas")
		verbose = flag.Bool("verbose", false, "log at debug level")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	client := ship.NewClient(ship.Config{URL: *url}, logger)
	if err := client.Connect(ctx); err != nil {
		logger.Error("connect failed", "error", err)
		os.Exit(1)
	}
	defer client.Close()

	status, err := client.GetStatus(ctx)
	if err != nil {
		logger.Error("status failed", "error", err)
		os.Exit(1)
	}
	logger.Info("connected",
		"head", status.Head.BlockNum,
		"lib", status.LastIrreversible.BlockNum,
		"trace_range", fmt.Sprintf("%d-%d", status.TraceBeginBlock, status.TraceEndBlock),
	)

	startBlock := uint32(*start)
	if startBlock == 0 {
		startBlock = status.LastIrreversible.BlockNum
	}
	var endBlock uint32
	if *count > 0 {
		endBlock = startBlock + uint32(*count)
	}

	blocks, err := client.StreamBlocks(ctx, ship.BlocksRequest{
		StartBlockNum: startBlock,
		EndBlockNum:   endBlock,
		FetchBlock:    true,
		FetchTraces:   *traces,
		FetchDeltas:   *deltas,
	})
	if err != nil {
		logger.Error("stream failed", "error", err)
		os.Exit(1)
	}

	var total int
	began := time.Now()
	for b := range blocks {
		total++
		logger.Info("block",
			"num", b.ThisBlock.BlockNum,
			"id", b.ThisBlock.BlockID,
			"head", b.Head.BlockNum,
			"block_bytes", len(b.Block),
			"trace_bytes", len(b.Traces),
			"delta_bytes", len(b.Deltas),
		)
	}

	if err := client.CauseErr(); err != nil && ctx.Err() == nil {
		logger.Error("stream ended", "error", err)
		os.Exit(1)
	}

	elapsed := time.Since(began)
	logger.Info("done",
		"blocks", total,
		"elapsed", elapsed,
		"blocks_per_sec", fmt.Sprintf("%.1f", float64(total)/elapsed.Seconds()),
	)
}
