package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/guilledk/go-leap/internal/config"
	"github.com/guilledk/go-leap/leap"
	"github.com/guilledk/go-leap/ship"
)

// errStreamDone unwinds the errgroup once the requested range finishes.
var errStreamDone = errors.New("stream done")

// Indexer streams blocks from a node's state history into Postgres.
type Indexer struct {
	cfg    *config.IndexerConfig
	logger *slog.Logger
	runID  string

	chain *leap.Client
	db    *pgxpool.Pool
}

// New creates an indexer over an existing database pool.
func New(cfg *config.IndexerConfig, db *pgxpool.Pool, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = slog.Default()
	}
	runID := uuid.NewString()

	return &Indexer{
		cfg:    cfg,
		logger: logger.With("run_id", runID, "instance", cfg.Instance.ID),
		runID:  runID,
		chain: leap.NewClient(cfg.Node.HTTPURL,
			leap.WithTimeout(cfg.Node.Timeout),
			leap.WithRetries(cfg.Node.MaxRetries, cfg.Node.RetryBackoff),
			leap.WithLogger(logger),
		),
		db: db,
	}
}

// RunID returns the UUID tagged onto every row this run writes.
func (ix *Indexer) RunID() string { return ix.runID }

// resolveStartBlock picks where the stream begins: just past the highest
// indexed block, else the configured start, else the chain's last
// irreversible block.
func (ix *Indexer) resolveStartBlock(ctx context.Context) (uint32, error) {
	var maxIndexed *uint32
	err := ix.db.QueryRow(ctx, `SELECT MAX(block_num) FROM blocks`).Scan(&maxIndexed)
	if err != nil {
		return 0, fmt.Errorf("query max indexed block: %w", err)
	}
	if maxIndexed != nil && *maxIndexed > 0 {
		return *maxIndexed + 1, nil
	}

	if ix.cfg.Stream.StartBlock > 0 {
		return ix.cfg.Stream.StartBlock, nil
	}

	info, err := ix.chain.GetInfo(ctx)
	if err != nil {
		return 0, fmt.Errorf("get chain info: %w", err)
	}
	return info.LastIrreversibleBlockNum, nil
}

// Run streams blocks until the configured end block, a stream failure,
// or context cancellation.
func (ix *Indexer) Run(ctx context.Context) error {
	startBlock, err := ix.resolveStartBlock(ctx)
	if err != nil {
		return err
	}

	shipClient := ship.NewClient(ship.Config{
		URL:          ix.cfg.Node.SHIPURL,
		BufferSize:   ix.cfg.Writer.BufferSize,
		StaleTimeout: ix.cfg.Stream.StaleTimeout,
	}, ix.logger)

	if err := shipClient.Connect(ctx); err != nil {
		return err
	}
	defer shipClient.Close()

	status, err := shipClient.GetStatus(ctx)
	if err != nil {
		return fmt.Errorf("ship status: %w", err)
	}
	ix.logger.Info("indexing",
		"start_block", startBlock,
		"end_block", ix.cfg.Stream.EndBlock,
		"head", status.Head.BlockNum,
		"lib", status.LastIrreversible.BlockNum,
	)

	blocks, err := shipClient.StreamBlocks(ctx, ship.BlocksRequest{
		StartBlockNum:       startBlock,
		EndBlockNum:         ix.cfg.Stream.EndBlock,
		MaxMessagesInFlight: ix.cfg.Stream.Window,
		IrreversibleOnly:    ix.cfg.Stream.IrreversibleOnly,
		FetchBlock:          true,
		FetchTraces:         ix.cfg.Stream.FetchTraces,
		FetchDeltas:         ix.cfg.Stream.FetchDeltas,
	})
	if err != nil {
		return fmt.Errorf("start block stream: %w", err)
	}

	writer := NewBlockWriter(ix.cfg.Writer, ix.runID, blocks, ix.db, ix.logger)
	if err := writer.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				stats := writer.Stats()
				ix.logger.Info("indexer health",
					"inserts", stats.Inserts,
					"conflicts", stats.Conflicts,
					"flushes", stats.Flushes,
					"errors", stats.Errors,
				)
			}
		}
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			return nil
		case <-writer.Drained():
		}
		if cause := shipClient.CauseErr(); cause != nil {
			return fmt.Errorf("block stream failed: %w", cause)
		}
		ix.logger.Info("block stream complete")
		return errStreamDone
	})

	err = g.Wait()
	if errors.Is(err, errStreamDone) {
		err = nil
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if stopErr := writer.Stop(stopCtx); stopErr != nil && err == nil {
		err = stopErr
	}
	return err
}
