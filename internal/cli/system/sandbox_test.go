package system

import (
	"context"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/antaqor/yuki/internal/cli/clitest"
	"github.com/antaqor/yuki/internal/sandbox"
)

func TestSandboxCmd_ServesAndCleansUp(t *testing.T) {
	env := clitest.New(t)
	dir := env.Ctx.Config.ConfigDir
	env.Ctx.Config.Debug = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- (&SandboxCmd{Addr: "127.0.0.1:0"}).serve(ctx, env.Ctx)
	}()

	lockfile := sandbox.LockfilePath(dir)
	var addr string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		content, err := os.ReadFile(lockfile)
		if err == nil {
			addr, _, _ = strings.Cut(string(content), "|")
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if addr == "" {
		t.Fatal("sandbox never wrote its lockfile")
	}

	resp, err := http.Get("http://" + addr + "/healthz")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 from /healthz, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("sandbox returned error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("sandbox did not stop")
	}

	if _, err := os.Stat(lockfile); !os.IsNotExist(err) {
		t.Errorf("expected lockfile to be removed, stat returned %v", err)
	}
	assert.Contains(t, env.Out.String(), "Sandbox listening on http://127.0.0.1:")
}

func TestSandboxCmd_AddressInUse(t *testing.T) {
	env := clitest.New(t)
	// the test sandbox already holds this address
	addr := strings.TrimPrefix(env.Server.URL, "http://")

	err := (&SandboxCmd{Addr: addr}).serve(context.Background(), env.Ctx)
	if err == nil {
		t.Fatal("expected listen to fail on a busy address")
	}
	if _, statErr := os.Stat(sandbox.LockfilePath(env.Ctx.Config.ConfigDir)); !os.IsNotExist(statErr) {
		t.Error("no lockfile should be written when listening fails")
	}
}
