package system

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaqor/yuki/internal/cli/clitest"
	"github.com/antaqor/yuki/internal/storage"
)

func TestDoctorCmd_Healthy(t *testing.T) {
	env := clitest.New(t)
	env.SignIn(t)

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx), env.Out.String())
	out := env.Out.String()
	assert.Contains(t, out, "✓ Booking service: OK")
	assert.Contains(t, out, "✓ Token accepted: OK")
	assert.Contains(t, out, "⊘ Booking journal: SKIPPED")
	assert.Contains(t, out, "All diagnostics passed!")
}

func TestDoctorCmd_NotSignedInIsWarning(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "⚠ Session token: WARNING")
	assert.Contains(t, env.Out.String(), "⊘ Token accepted: SKIPPED")
}

func TestDoctorCmd_RejectedToken(t *testing.T) {
	env := clitest.New(t)
	require.NoError(t, env.Ctx.Session.Login("not-a-real-token"))

	require.Error(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "❌ Token accepted: FAIL")
}

func TestDoctorCmd_UnreachableService(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.APIURL = "http://127.0.0.1:1"
	env.Ctx.Config.Timeout = time.Second

	require.Error(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "❌ Booking service: FAIL")
	assert.Contains(t, env.Out.String(), "Diagnostics completed with errors.")
}

func TestDoctorCmd_Journal(t *testing.T) {
	env := clitest.New(t)
	path := filepath.Join(t.TempDir(), "journal.db")
	env.Ctx.Config.Journal = path

	// not created yet
	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "⚠ Booking journal: WARNING")

	p, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	env.Out.Reset()
	require.NoError(t, (&DoctorCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "✓ Booking journal: OK")
}
