package sandbox

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-ps"
)

type mockProcess struct {
	pid        int
	executable string
}

func (m *mockProcess) Pid() int {
	return m.pid
}

func (m *mockProcess) PPid() int {
	return 0
}

func (m *mockProcess) Executable() string {
	return m.executable
}

func withProcess(t *testing.T, executable string) {
	t.Helper()
	old := findProcessFunc
	t.Cleanup(func() { findProcessFunc = old })
	findProcessFunc = func(pid int) (ps.Process, error) {
		if executable == "" {
			return nil, nil
		}
		return &mockProcess{pid: pid, executable: executable}, nil
	}
}

func TestDiscover(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		executable string
		want       string
		notRunning bool
		wantErr    bool
	}{
		{name: "running", content: "127.0.0.1:4780|42", executable: "yuki", want: "http://127.0.0.1:4780"},
		{name: "wildcard host", content: "0.0.0.0:4780|42", executable: "yuki", want: "http://127.0.0.1:4780"},
		{name: "stale pid", content: "127.0.0.1:4780|42", executable: "", notRunning: true},
		{name: "other process", content: "127.0.0.1:4780|42", executable: "postgres", notRunning: true},
		{name: "malformed", content: "127.0.0.1:4780", executable: "yuki", wantErr: true},
		{name: "bad port", content: "127.0.0.1:99999|42", executable: "yuki", wantErr: true},
		{name: "bad pid", content: "127.0.0.1:4780|abc", executable: "yuki", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withProcess(t, tt.executable)
			dir := t.TempDir()
			if err := os.WriteFile(LockfilePath(dir), []byte(tt.content), 0600); err != nil {
				t.Fatal(err)
			}

			got, err := Discover(dir)
			switch {
			case tt.notRunning:
				if !errors.Is(err, ErrNotRunning) {
					t.Errorf("err = %v, want ErrNotRunning", err)
				}
			case tt.wantErr:
				if err == nil {
					t.Errorf("expected error, got %q", got)
				}
			default:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if got != tt.want {
					t.Errorf("Discover = %q, want %q", got, tt.want)
				}
			}
		})
	}
}

func TestDiscoverWithoutLockfile(t *testing.T) {
	if _, err := Discover(t.TempDir()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}

func TestServeAdvertisesAndStops(t *testing.T) {
	withProcess(t, "yuki")
	dir := filepath.Join(t.TempDir(), "state")

	srv, err := New(Options{Secret: []byte("s")})
	if err != nil {
		t.Fatal(err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	path, err := WriteLockfile(dir, ln.Addr().String())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	base, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	resp, err := http.Get(base + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("healthz status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not stop")
	}

	if err := RemoveLockfile(path); err != nil {
		t.Fatal(err)
	}
	if err := RemoveLockfile(path); err != nil {
		t.Errorf("second remove should be a no-op, got %v", err)
	}
	if _, err := Discover(dir); !errors.Is(err, ErrNotRunning) {
		t.Errorf("err = %v, want ErrNotRunning", err)
	}
}
