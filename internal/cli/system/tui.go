package system

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/tui"
	"github.com/antaqor/yuki/internal/wizard"
)

type TuiCmd struct{}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	activity := tui.NewActivity()
	w, err := ctx.NewWizard(wizard.WithOnChange(activity.Notify))
	if err != nil {
		return err
	}
	defer w.Close()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	login := func(lctx context.Context, email, password string) error {
		_, err := ctx.Login(lctx, email, password)
		return err
	}

	p := tea.NewProgram(tui.New(runCtx, w, activity, login), tea.WithAltScreen(), tea.WithContext(runCtx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui exited with error: %w", err)
	}
	return nil
}
