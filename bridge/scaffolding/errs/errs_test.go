package errs_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/jrazmi/taskdeck/bridge/scaffolding/errs"
)

func TestError_Encode(t *testing.T) {
	e := errs.Newf(errs.DuplicateAccount, "account %s exists", "a@b.co")

	data, ct, err := e.Encode()
	if err != nil || ct != "application/json" {
		t.Fatalf("encode: %v %s", err, ct)
	}

	var body map[string]string
	if err := json.Unmarshal(data, &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body["code"] != "duplicate_account" || body["message"] != "account a@b.co exists" {
		t.Fatalf("body: %v", body)
	}
	if len(body) != 2 {
		t.Errorf("internal fields leaked: %v", body)
	}
	if e.HTTPStatus() != http.StatusConflict {
		t.Errorf("status: got %d", e.HTTPStatus())
	}
	if !strings.Contains(e.FuncName, "TestError_Encode") {
		t.Errorf("func name: got %s", e.FuncName)
	}
}

func TestGetError_Wrapped(t *testing.T) {
	base := errs.New(errs.NotFound, errors.New("task not found"))
	wrapped := fmt.Errorf("handler: %w", base)

	if !errs.IsError(wrapped) {
		t.Fatal("expected wrapped error to be detected")
	}
	if got := errs.GetError(wrapped); got != base {
		t.Fatalf("got %v", got)
	}
	if errs.GetError(errors.New("plain")) != nil {
		t.Fatal("plain error should not match")
	}
}

func TestErrCode_UnmarshalText(t *testing.T) {
	var c errs.ErrCode
	if err := c.UnmarshalText([]byte("rate_limited")); err != nil || !c.Equal(errs.RateLimited) {
		t.Fatalf("got %v %v", c, err)
	}
	if err := c.UnmarshalText([]byte("nope")); err == nil {
		t.Fatal("expected error")
	}
}
