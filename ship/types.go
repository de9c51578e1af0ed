// Package ship streams blocks from a Leap node's state_history_plugin
// over WebSocket: status queries, block range requests with flow
// control acks, and decoding of the binary result envelope.
package ship

import "errors"

var (
	ErrNotConnected    = errors.New("ship: not connected")
	ErrAlreadyClosed   = errors.New("ship: client already closed")
	ErrStaleConnection = errors.New("ship: stale connection, no data received")
)

// BlockPosition identifies a block by number and id.
type BlockPosition struct {
	BlockNum uint32
	BlockID  string
}

// Status is the response to a status request.
type Status struct {
	Head                 BlockPosition
	LastIrreversible     BlockPosition
	TraceBeginBlock      uint32
	TraceEndBlock        uint32
	ChainStateBeginBlock uint32
	ChainStateEndBlock   uint32
}

// BlocksRequest asks the node to stream a block range. EndBlockNum is
// exclusive; 0 streams without an upper bound.
type BlocksRequest struct {
	StartBlockNum       uint32
	EndBlockNum         uint32
	MaxMessagesInFlight uint32
	HavePositions       []BlockPosition
	IrreversibleOnly    bool
	FetchBlock          bool
	FetchTraces         bool
	FetchDeltas         bool
}

// BlockResult is one streamed block. This/Prev are nil when the node
// sends an empty result (start of stream, forks). Block, Traces, and
// Deltas are the raw serialized payloads and are nil when not fetched.
type BlockResult struct {
	Head             BlockPosition
	LastIrreversible BlockPosition
	ThisBlock        *BlockPosition
	PrevBlock        *BlockPosition
	Block            []byte
	Traces           []byte
	Deltas           []byte
}
