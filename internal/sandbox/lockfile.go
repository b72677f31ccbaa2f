package sandbox

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/antaqor/yuki/internal/constants"
)

var findProcessFunc = ps.FindProcess

// ErrNotRunning means no live sandbox was found through the lockfile
var ErrNotRunning = errors.New("sandbox is not running")

// LockfilePath returns where a running sandbox advertises itself
func LockfilePath(dir string) string {
	return filepath.Join(dir, constants.SandboxLockfileName)
}

// WriteLockfile advertises addr as "host:port|pid" for this process
func WriteLockfile(dir, addr string) (string, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create lockfile directory: %w", err)
	}
	path := LockfilePath(dir)
	content := fmt.Sprintf("%s|%d", addr, os.Getpid())
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write lockfile: %w", err)
	}
	return path, nil
}

// RemoveLockfile deletes the lockfile; a missing file is not an error
func RemoveLockfile(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Discover reads the lockfile in dir, checks that the advertised process is a
// live yuki process and returns the sandbox base URL.
func Discover(dir string) (string, error) {
	content, err := os.ReadFile(LockfilePath(dir))
	if err != nil {
		return "", ErrNotRunning
	}

	addr, pidText, ok := strings.Cut(strings.TrimSpace(string(content)), "|")
	if !ok {
		return "", errors.New("sandbox lockfile is malformed")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "", fmt.Errorf("invalid address in sandbox lockfile: %w", err)
	}
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return "", errors.New("invalid port number in sandbox lockfile")
	}
	if portNum < 1 || portNum > 65535 {
		return "", fmt.Errorf("port number %d is outside valid range (1-65535)", portNum)
	}

	pid, err := strconv.Atoi(pidText)
	if err != nil {
		return "", errors.New("invalid process ID in sandbox lockfile")
	}
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return "", fmt.Errorf("%w: stale lockfile for PID %d", ErrNotRunning, pid)
	}
	if !strings.HasPrefix(process.Executable(), constants.SandboxExecutablePref) {
		return "", fmt.Errorf("%w: process with PID %d is not yuki (is %s)", ErrNotRunning, pid, process.Executable())
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port), nil
}
