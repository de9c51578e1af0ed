package ship

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guilledk/go-leap/abi"
)

// fakeSHIPNode upgrades connections, sends the ABI greeting, then
// serves status and block requests for a fixed range.
func fakeSHIPNode(t *testing.T, headBlock uint32) *httptest.Server {
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"version": "eosio::abi/1.1"}`)); err != nil {
			return
		}

		var streaming bool
		var nextBlock, endBlock uint32
		var window int

		sendBlock := func() bool {
			if !streaming || window == 0 || nextBlock >= endBlock {
				return false
			}
			e := abi.NewEncoder()
			e.WriteVarUint32(resBlocks)
			e.WriteUint32(headBlock)
			e.WriteChecksum(testBlockID, 32)
			e.WriteUint32(headBlock - 20)
			e.WriteChecksum(testBlockID, 32)
			e.WriteBool(true)
			e.WriteUint32(nextBlock)
			e.WriteChecksum(testBlockID, 32)
			e.WriteBool(true)
			e.WriteUint32(nextBlock - 1)
			e.WriteChecksum(testBlockID, 32)
			e.WriteBool(true)
			e.WriteBytes([]byte{0x01})
			e.WriteBool(false)
			e.WriteBool(false)
			if err := conn.WriteMessage(websocket.BinaryMessage, e.Bytes()); err != nil {
				return false
			}
			nextBlock++
			window--
			return true
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}

			d := abi.NewDecoder(data)
			idx, err := d.ReadVarUint32()
			if err != nil {
				t.Errorf("bad request frame: %v", err)
				return
			}

			switch idx {
			case reqGetStatus:
				e := abi.NewEncoder()
				e.WriteVarUint32(resStatus)
				e.WriteUint32(headBlock)
				e.WriteChecksum(testBlockID, 32)
				e.WriteUint32(headBlock - 20)
				e.WriteChecksum(testBlockID, 32)
				e.WriteUint32(1)
				e.WriteUint32(headBlock)
				e.WriteUint32(1)
				e.WriteUint32(headBlock)
				if err := conn.WriteMessage(websocket.BinaryMessage, e.Bytes()); err != nil {
					return
				}

			case reqGetBlocks:
				start, _ := d.ReadUint32()
				end, _ := d.ReadUint32()
				maxInFlight, _ := d.ReadUint32()
				streaming = true
				nextBlock = start
				endBlock = end
				window = int(maxInFlight)
				for sendBlock() {
				}

			case reqBlocksAck:
				acked, _ := d.ReadUint32()
				window += int(acked)
				for sendBlock() {
				}

			default:
				t.Errorf("unexpected request variant %d", idx)
				return
			}
		}
	}))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientGetStatus(t *testing.T) {
	srv := fakeSHIPNode(t, 1000)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	if len(c.ABI()) == 0 {
		t.Error("abi frame not captured")
	}

	status, err := c.GetStatus(context.Background())
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if status.Head.BlockNum != 1000 {
		t.Errorf("head = %d, want 1000", status.Head.BlockNum)
	}
	if status.LastIrreversible.BlockNum != 980 {
		t.Errorf("lib = %d, want 980", status.LastIrreversible.BlockNum)
	}
}

func TestClientStreamBlocks(t *testing.T) {
	srv := fakeSHIPNode(t, 1000)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// window of 2 forces the ack flow to refill the server's budget
	blocks, err := c.StreamBlocks(ctx, BlocksRequest{
		StartBlockNum:       100,
		EndBlockNum:         110,
		MaxMessagesInFlight: 2,
		FetchBlock:          true,
	})
	if err != nil {
		t.Fatalf("StreamBlocks: %v", err)
	}

	var got []uint32
	for b := range blocks {
		got = append(got, b.ThisBlock.BlockNum)
	}
	if err := c.CauseErr(); err != nil {
		t.Fatalf("stream ended with error: %v", err)
	}

	if len(got) != 10 {
		t.Fatalf("got %d blocks, want 10: %v", len(got), got)
	}
	for i, num := range got {
		if num != uint32(100+i) {
			t.Errorf("block %d = %d, want %d", i, num, 100+i)
		}
	}
}

func TestClientStreamBlocksUnbounded(t *testing.T) {
	srv := fakeSHIPNode(t, 1000)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// end block zero means no upper bound; the server keeps sending as
	// long as the ack window refills
	blocks, err := c.StreamBlocks(ctx, BlocksRequest{
		StartBlockNum:       100,
		MaxMessagesInFlight: 2,
		FetchBlock:          true,
	})
	if err != nil {
		t.Fatalf("StreamBlocks: %v", err)
	}

	var got []uint32
	timeout := time.After(10 * time.Second)
	for len(got) < 25 {
		select {
		case b, ok := <-blocks:
			if !ok {
				t.Fatalf("stream closed after %d blocks (cause: %v)", len(got), c.CauseErr())
			}
			got = append(got, b.ThisBlock.BlockNum)
		case <-timeout:
			t.Fatalf("stream stalled after %d blocks (cause: %v)", len(got), c.CauseErr())
		}
	}
	cancel()

	for i, num := range got {
		if num != uint32(100+i) {
			t.Errorf("block %d = %d, want %d", i, num, 100+i)
		}
	}
}

func TestClientConnectAfterClose(t *testing.T) {
	srv := fakeSHIPNode(t, 1000)
	defer srv.Close()

	c := NewClient(Config{URL: wsURL(srv)}, nil)
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Connect(context.Background()); err != ErrAlreadyClosed {
		t.Errorf("Connect after close = %v, want ErrAlreadyClosed", err)
	}
}
