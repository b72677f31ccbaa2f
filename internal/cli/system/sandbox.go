package system

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/constants"
	"github.com/antaqor/yuki/internal/logger"
	"github.com/antaqor/yuki/internal/sandbox"
)

// SandboxCmd runs the in-memory booking backend in the foreground
type SandboxCmd struct {
	Addr string `help:"Address to listen on." default:"${sandbox_addr}"`
}

func (c *SandboxCmd) Run(ctx *cli.Context) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return c.serve(runCtx, ctx)
}

func (c *SandboxCmd) serve(runCtx context.Context, ctx *cli.Context) error {
	if !ctx.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := c.Addr
	if addr == "" {
		addr = constants.SandboxDefaultAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv, err := sandbox.New(sandbox.Options{})
	if err != nil {
		_ = ln.Close()
		return err
	}

	lockfile, err := sandbox.WriteLockfile(ctx.Config.ConfigDir, ln.Addr().String())
	if err != nil {
		_ = ln.Close()
		return err
	}
	defer func() {
		if err := sandbox.RemoveLockfile(lockfile); err != nil {
			logger.Warn("Failed to remove sandbox lockfile", "path", lockfile, "error", err)
		}
	}()

	ctx.Printf("Sandbox listening on http://%s\n", ln.Addr().String())
	ctx.Printf("Demo account: %s / %s\n", constants.SandboxDemoEmail, constants.SandboxDemoPassword)
	ctx.Println("Press Ctrl+C to stop.")

	if err := srv.Serve(runCtx, ln); err != nil {
		return fmt.Errorf("sandbox stopped: %w", err)
	}
	ctx.Println("Sandbox stopped.")
	return nil
}
