package leap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/guilledk/go-leap/abi"
	"github.com/guilledk/go-leap/chain"
)

// well known secp256k1 test key
const (
	testWIF = "5KQwrPbwdL6PhXujxW37FSSQZ1JiwsST4cqQzDeyXtP79zkvFD3"
	testPub = "EOS6MRyAjQq8ud7hVNYcfnVPJqcVpscN5So8BhtHuGYqET5GDW5CV"
)

func mustName(t *testing.T, s string) chain.Name {
	t.Helper()
	n, err := chain.NewName(s)
	if err != nil {
		t.Fatalf("name %q: %v", s, err)
	}
	return n
}

type pushedTx struct {
	Signatures []string `json:"signatures"`
	PackedTrx  string   `json:"packed_trx"`
}

// fakeNode answers get_info and captures pushed transactions.
func fakeNode(t *testing.T, pushed *[]pushedTx, rejectFirst int) *httptest.Server {
	var rejects atomic.Int32
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/chain/get_info":
			json.NewEncoder(w).Encode(testInfo())
		case "/v1/chain/push_transaction":
			if int(rejects.Add(1)) <= rejectFirst {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"code": 500, "error": {
					"code": 3080006,
					"name": "deadline_exception",
					"what": "transaction took too long"
				}}`)
				return
			}
			var tx pushedTx
			if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
				t.Errorf("decode pushed tx: %v", err)
			}
			*pushed = append(*pushed, tx)
			fmt.Fprint(w, `{"transaction_id": "deadbeef", "processed": {}}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestPushActionSignsAndPushes(t *testing.T) {
	var pushed []pushedTx
	srv := fakeNode(t, &pushed, 0)
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.ImportKey("alice", testWIF); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}

	res, err := c.PushAction(context.Background(),
		mustName(t, "eosio"), mustName(t, "buyrambytes"),
		[]any{"alice", "alice", 8192}, mustName(t, "alice"))
	if err != nil {
		t.Fatalf("PushAction: %v", err)
	}
	if res.TransactionID != "deadbeef" {
		t.Errorf("transaction id = %s", res.TransactionID)
	}

	if len(pushed) != 1 {
		t.Fatalf("pushed %d transactions, want 1", len(pushed))
	}
	if len(pushed[0].Signatures) != 1 {
		t.Fatalf("got %d signatures, want 1", len(pushed[0].Signatures))
	}
	if sig := pushed[0].Signatures[0]; len(sig) < 7 || sig[:7] != "SIG_K1_" {
		t.Errorf("signature %q lacks SIG_K1_ prefix", pushed[0].Signatures[0])
	}

	// the packed tx must decode back to our action with correct tapos
	packed, err := hex.DecodeString(pushed[0].PackedTrx)
	if err != nil {
		t.Fatalf("decode packed trx: %v", err)
	}
	d := abi.NewDecoder(packed)
	d.ReadUint32() // expiration
	refBlockNum, _ := d.ReadUint16()
	refBlockPrefix, _ := d.ReadUint32()

	wantNum, wantPrefix, err := chain.TaposFromBlockID(testInfo()["last_irreversible_block_id"].(string))
	if err != nil {
		t.Fatalf("tapos: %v", err)
	}
	if refBlockNum != wantNum {
		t.Errorf("ref_block_num = %d, want %d", refBlockNum, wantNum)
	}
	if refBlockPrefix != wantPrefix {
		t.Errorf("ref_block_prefix = %d, want %d", refBlockPrefix, wantPrefix)
	}
}

func TestPushActionRetriesRejection(t *testing.T) {
	var pushed []pushedTx
	srv := fakeNode(t, &pushed, 1)
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.ImportKey("alice", testWIF); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}

	_, err := c.PushAction(context.Background(),
		mustName(t, "eosio"), mustName(t, "claimrewards"),
		[]any{"alice"}, mustName(t, "alice"))
	if err != nil {
		t.Fatalf("PushAction after rejection: %v", err)
	}
	if len(pushed) != 1 {
		t.Errorf("pushed %d transactions, want 1", len(pushed))
	}
}

func TestPushActionExhaustsRetries(t *testing.T) {
	var pushed []pushedTx
	srv := fakeNode(t, &pushed, 100)
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.ImportKey("alice", testWIF); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}

	_, err := c.PushAction(context.Background(),
		mustName(t, "eosio"), mustName(t, "claimrewards"),
		[]any{"alice"}, mustName(t, "alice"),
		WithTxRetries(1))
	if err == nil {
		t.Fatal("want error after exhausting retries")
	}
	if len(pushed) != 0 {
		t.Errorf("pushed %d transactions, want 0", len(pushed))
	}
}

func TestPushActionRerollsNonCanonicalSignatures(t *testing.T) {
	var pushed []pushedTx
	srv := fakeNode(t, &pushed, 0)
	defer srv.Close()

	c := NewClient(srv.URL)
	if err := c.ImportKey("alice", testWIF); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}

	// Roughly half of all signing attempts come out non-canonical and
	// must be re-signed over a fresh digest. With zero rejection retries
	// any push that charges a re-sign against the retry budget fails, so
	// 40 pushes make a regression effectively certain to surface.
	const pushes = 40
	for i := 0; i < pushes; i++ {
		_, err := c.PushAction(context.Background(),
			mustName(t, "eosio"), mustName(t, "claimrewards"),
			[]any{"alice"}, mustName(t, "alice"),
			WithTxRetries(0))
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if len(pushed) != pushes {
		t.Errorf("pushed %d transactions, want %d", len(pushed), pushes)
	}
}

func TestPushActionUnknownActor(t *testing.T) {
	c := NewClient("http://localhost:1")
	_, err := c.PushAction(context.Background(),
		mustName(t, "eosio"), mustName(t, "claimrewards"),
		[]any{"ghost"}, mustName(t, "ghost"))
	if err == nil {
		t.Fatal("want error for actor with no imported key")
	}
}

func TestWalletImportAndAssign(t *testing.T) {
	c := NewClient("http://localhost:1")

	if err := c.ImportKey("alice", testWIF); err != nil {
		t.Fatalf("ImportKey: %v", err)
	}

	pub, err := c.PublicKeyFor("alice")
	if err != nil {
		t.Fatalf("PublicKeyFor: %v", err)
	}
	if pub != testPub {
		t.Errorf("public key = %s, want %s", pub, testPub)
	}

	if err := c.AssignKey("bob", pub); err != nil {
		t.Fatalf("AssignKey: %v", err)
	}
	bobPub, err := c.PublicKeyFor("bob")
	if err != nil {
		t.Fatalf("PublicKeyFor bob: %v", err)
	}
	if bobPub != pub {
		t.Errorf("bob key = %s, want %s", bobPub, pub)
	}

	if err := c.AssignKey("carol", "EOS_unknown_key"); err == nil {
		t.Error("want error assigning unknown public key")
	}
}
