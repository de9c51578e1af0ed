package ship

import (
	"fmt"

	"github.com/guilledk/go-leap/abi"
)

// state_history request and result variant indices
const (
	reqGetStatus uint32 = 0
	reqGetBlocks uint32 = 1
	reqBlocksAck uint32 = 2

	resStatus uint32 = 0
	resBlocks uint32 = 1
)

// encodeStatusRequest serializes get_status_request_v0.
func encodeStatusRequest() []byte {
	e := abi.NewEncoder()
	e.WriteVarUint32(reqGetStatus)
	return e.Bytes()
}

// encodeBlocksRequest serializes get_blocks_request_v0.
func encodeBlocksRequest(req BlocksRequest) ([]byte, error) {
	e := abi.NewEncoder()
	e.WriteVarUint32(reqGetBlocks)
	e.WriteUint32(req.StartBlockNum)
	e.WriteUint32(req.EndBlockNum)
	e.WriteUint32(req.MaxMessagesInFlight)
	e.WriteVarUint32(uint32(len(req.HavePositions)))
	for _, pos := range req.HavePositions {
		e.WriteUint32(pos.BlockNum)
		if err := e.WriteChecksum(pos.BlockID, 32); err != nil {
			return nil, fmt.Errorf("have position %d: %w", pos.BlockNum, err)
		}
	}
	e.WriteBool(req.IrreversibleOnly)
	e.WriteBool(req.FetchBlock)
	e.WriteBool(req.FetchTraces)
	e.WriteBool(req.FetchDeltas)
	return e.Bytes(), nil
}

// encodeBlocksAck serializes get_blocks_ack_request_v0.
func encodeBlocksAck(numMessages uint32) []byte {
	e := abi.NewEncoder()
	e.WriteVarUint32(reqBlocksAck)
	e.WriteUint32(numMessages)
	return e.Bytes()
}

func decodePosition(d *abi.Decoder) (BlockPosition, error) {
	num, err := d.ReadUint32()
	if err != nil {
		return BlockPosition{}, err
	}
	id, err := d.ReadChecksum256()
	if err != nil {
		return BlockPosition{}, err
	}
	return BlockPosition{BlockNum: num, BlockID: id}, nil
}

func decodeOptionalPosition(d *abi.Decoder) (*BlockPosition, error) {
	present, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	pos, err := decodePosition(d)
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

func decodeOptionalBytes(d *abi.Decoder) ([]byte, error) {
	present, err := d.ReadBool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	return d.ReadBytes()
}

// decodeStatusResult parses get_status_result_v0 from a result envelope.
func decodeStatusResult(data []byte) (*Status, error) {
	d := abi.NewDecoder(data)
	idx, err := d.ReadVarUint32()
	if err != nil {
		return nil, err
	}
	if idx != resStatus {
		return nil, fmt.Errorf("ship: want status result, got variant %d", idx)
	}

	var s Status
	if s.Head, err = decodePosition(d); err != nil {
		return nil, err
	}
	if s.LastIrreversible, err = decodePosition(d); err != nil {
		return nil, err
	}
	if s.TraceBeginBlock, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if s.TraceEndBlock, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if s.ChainStateBeginBlock, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	if s.ChainStateEndBlock, err = d.ReadUint32(); err != nil {
		return nil, err
	}
	return &s, nil
}

// decodeBlocksResult parses get_blocks_result_v0 from a result envelope.
func decodeBlocksResult(data []byte) (*BlockResult, error) {
	d := abi.NewDecoder(data)
	idx, err := d.ReadVarUint32()
	if err != nil {
		return nil, err
	}
	if idx != resBlocks {
		return nil, fmt.Errorf("ship: want blocks result, got variant %d", idx)
	}

	var r BlockResult
	if r.Head, err = decodePosition(d); err != nil {
		return nil, err
	}
	if r.LastIrreversible, err = decodePosition(d); err != nil {
		return nil, err
	}
	if r.ThisBlock, err = decodeOptionalPosition(d); err != nil {
		return nil, err
	}
	if r.PrevBlock, err = decodeOptionalPosition(d); err != nil {
		return nil, err
	}
	if r.Block, err = decodeOptionalBytes(d); err != nil {
		return nil, err
	}
	if r.Traces, err = decodeOptionalBytes(d); err != nil {
		return nil, err
	}
	if r.Deltas, err = decodeOptionalBytes(d); err != nil {
		return nil, err
	}
	return &r, nil
}
