package web_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrazmi/taskdeck/infrastructure/web"
)

func TestNewServerFromEnv(t *testing.T) {
	t.Setenv("SRVTEST_PORT", "127.0.0.1:0")
	t.Setenv("SRVTEST_WRITE_TIMEOUT", "3s")

	srv, err := web.NewServerFromEnv("SRVTEST", web.WithHandler(http.NotFoundHandler()))
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	if srv.Addr != "127.0.0.1:0" || srv.WriteTimeout != 3*time.Second {
		t.Errorf("config not applied: addr %q write %v", srv.Addr, srv.WriteTimeout)
	}
	if srv.Config.ShutdownTimeout != 20*time.Second {
		t.Errorf("default shutdown timeout: got %v", srv.Config.ShutdownTimeout)
	}

	done := make(chan error, 1)
	go func() { done <- srv.Serve() }()

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve after stop: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
}
