package rpc

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/yourorg/webstudio-go/internal/logging"
	"github.com/yourorg/webstudio-go/internal/search"
	"github.com/yourorg/webstudio-go/internal/session"
	"github.com/yourorg/webstudio-go/internal/storage"
	"github.com/yourorg/webstudio-go/internal/tree"
)

func TestDispatchMethodNotFound(t *testing.T) {
	s := New("127.0.0.1:0", logging.NewNop())
	resp := s.dispatch(Request{JSONRPC: "2.0", Method: "Nope", ID: 1})
	if resp.Error == nil || resp.Error.Code != CodeMethodNotFound {
		t.Fatalf("got %+v, want method-not-found", resp.Error)
	}
}

func TestDispatchRejectsWrongVersion(t *testing.T) {
	s := New("127.0.0.1:0", logging.NewNop())
	resp := s.dispatch(Request{JSONRPC: "1.0", Method: "GetStatus", ID: 1})
	if resp.Error == nil || resp.Error.Code != CodeInvalidRequest {
		t.Fatalf("got %+v, want invalid-request", resp.Error)
	}
}

func TestDispatchSafeRecoversPanic(t *testing.T) {
	s := New("127.0.0.1:0", logging.NewNop())
	s.Register("Boom", func(params json.RawMessage) (any, *Error) {
		panic("handler bug")
	})
	resp := s.dispatchSafe(Request{JSONRPC: "2.0", Method: "Boom", ID: 7})
	if resp.Error == nil || resp.Error.Code != CodeInternal {
		t.Fatalf("got %+v, want internal error", resp.Error)
	}
	if resp.ID != 7 {
		t.Fatalf("response id = %v, want 7", resp.ID)
	}
}

func TestErrToRPCMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{session.ErrProtectedPath, CodeRejected},
		{session.ErrBatchInFlight, CodeRejected},
		{session.ErrNotAFile, CodeRejected},
		{tree.ErrDuplicateName, CodeRejected},
		{tree.ErrCyclicMove, CodeRejected},
		{search.ErrInvalidPattern, CodeRejected},
		{fmt.Errorf("wrapped: %w", tree.ErrInvalidName), CodeRejected},
		{session.ErrNoProject, CodeInvalidParams},
		{storage.ErrNotFound, CodeInvalidParams},
		{fmt.Errorf("network down"), CodeFailed},
	}
	for _, c := range cases {
		if got := errToRPC(c.err); got.Code != c.code {
			t.Errorf("errToRPC(%v) = %d, want %d", c.err, got.Code, c.code)
		}
	}
	if errToRPC(nil) != nil {
		t.Error("errToRPC(nil) should be nil")
	}
}
