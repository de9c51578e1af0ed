package indexer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guilledk/go-leap/internal/config"
	"github.com/guilledk/go-leap/ship"
)

// blockRow is one indexed block.
type blockRow struct {
	BlockNum   uint32
	BlockID    string
	PrevID     string
	HeadNum    uint32
	LibNum     uint32
	ReceivedAt int64
	RunID      string
	Block      []byte
	Traces     []byte
	Deltas     []byte
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts   int64
	Conflicts int64
	Flushes   int64
	Errors    int64
}

// BlockWriter consumes decoded block results and batches them into the
// blocks table.
type BlockWriter struct {
	cfg    config.WriterConfig
	logger *slog.Logger
	runID  string

	input <-chan *ship.BlockResult
	db    *pgxpool.Pool

	batch       []blockRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	drained chan struct{}

	metrics WriterMetrics
}

// NewBlockWriter creates a writer draining input into db.
func NewBlockWriter(
	cfg config.WriterConfig,
	runID string,
	input <-chan *ship.BlockResult,
	db *pgxpool.Pool,
	logger *slog.Logger,
) *BlockWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &BlockWriter{
		cfg:     cfg,
		runID:   runID,
		input:   input,
		db:      db,
		logger:  logger,
		batch:   make([]blockRow, 0, cfg.BatchSize),
		drained: make(chan struct{}),
	}
}

// Start begins consuming blocks and writing to the database.
func (w *BlockWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("block writer started",
		"run_id", w.runID,
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains goroutines and performs a final flush.
func (w *BlockWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping block writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("block writer stopped")
	case <-ctx.Done():
		w.logger.Warn("block writer stop timed out")
	}

	w.flush(context.Background())
	return nil
}

// Stats returns current metrics.
func (w *BlockWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// Drained is closed once the input channel ends.
func (w *BlockWriter) Drained() <-chan struct{} {
	return w.drained
}

func (w *BlockWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case result, ok := <-w.input:
			if !ok {
				close(w.drained)
				return
			}
			w.handleBlock(result)
		}
	}
}

func (w *BlockWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

func (w *BlockWriter) handleBlock(result *ship.BlockResult) {
	row := w.transform(result)

	w.batchMu.Lock()
	w.batch = append(w.batch, row)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(w.ctx)
	}
}

func (w *BlockWriter) transform(result *ship.BlockResult) blockRow {
	row := blockRow{
		HeadNum:    result.Head.BlockNum,
		LibNum:     result.LastIrreversible.BlockNum,
		ReceivedAt: time.Now().UnixMicro(),
		RunID:      w.runID,
		Block:      result.Block,
		Traces:     result.Traces,
		Deltas:     result.Deltas,
	}
	if result.ThisBlock != nil {
		row.BlockNum = result.ThisBlock.BlockNum
		row.BlockID = result.ThisBlock.BlockID
	}
	if result.PrevBlock != nil {
		row.PrevID = result.PrevBlock.BlockID
	}
	return row
}

// flush writes the current batch to the database.
func (w *BlockWriter) flush(ctx context.Context) {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	batch := w.batch
	w.batch = make([]blockRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	conflicts, err := w.batchInsert(ctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed blocks",
		"count", len(batch),
		"conflicts", conflicts,
		"first", batch[0].BlockNum,
		"last", batch[len(batch)-1].BlockNum,
		"duration", time.Since(start),
	)
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *BlockWriter) batchInsert(ctx context.Context, rows []blockRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(`
			INSERT INTO blocks (block_num, block_id, prev_id, head_num, lib_num, received_at, run_id, block, traces, deltas)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (block_num) DO NOTHING
		`, r.BlockNum, r.BlockID, r.PrevID, r.HeadNum, r.LibNum, r.ReceivedAt, r.RunID, r.Block, r.Traces, r.Deltas)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
