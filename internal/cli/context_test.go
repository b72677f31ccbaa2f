package cli_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaqor/yuki/internal/cli"
	"github.com/antaqor/yuki/internal/cli/clitest"
	"github.com/antaqor/yuki/internal/config"
	clierrors "github.com/antaqor/yuki/internal/errors"
	"github.com/antaqor/yuki/internal/keyring"
	"github.com/antaqor/yuki/internal/models"
	"github.com/antaqor/yuki/internal/sandbox"
	"github.com/antaqor/yuki/internal/session"
)

func TestAPIURLExplicit(t *testing.T) {
	ctx := &cli.Context{Config: &config.Config{APIURL: "https://book.example.com"}}
	url, err := ctx.APIURL()
	require.NoError(t, err)
	assert.Equal(t, "https://book.example.com", url)
}

func TestAPIURLSandboxNotRunning(t *testing.T) {
	ctx := &cli.Context{Config: &config.Config{APIURL: "sandbox", ConfigDir: t.TempDir()}}

	_, err := ctx.APIURL()
	require.ErrorIs(t, err, sandbox.ErrNotRunning)
	assert.Contains(t, clierrors.Format(err), "yuki sandbox")

	_, err = ctx.API()
	assert.ErrorIs(t, err, sandbox.ErrNotRunning)
}

func TestTokenRequiresLogin(t *testing.T) {
	env := clitest.New(t)

	_, err := env.Ctx.Token()
	require.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Contains(t, clierrors.Format(err), "yuki login")
}

func TestLoginStoresToken(t *testing.T) {
	env := clitest.New(t)

	user, err := env.Ctx.Login(context.Background(), "demo@yuki.local", "yuki-demo")
	require.NoError(t, err)
	assert.Equal(t, "usr-demo", user.ID)

	token, err := env.Ctx.Token()
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "usr-demo", env.Ctx.Session.Subject())

	// a fresh session reads the token back from the keyring
	again := session.New(keyring.Store{})
	require.NoError(t, again.Init())
	restored, ok := again.Token()
	require.True(t, ok)
	assert.Equal(t, token, restored)
}

func TestLoginWrongPassword(t *testing.T) {
	env := clitest.New(t)

	_, err := env.Ctx.Login(context.Background(), "demo@yuki.local", "nope")
	require.Error(t, err)
	_, ok := env.Ctx.Session.Token()
	assert.False(t, ok)
}

func TestJournalDisabled(t *testing.T) {
	env := clitest.New(t)

	j, err := env.Ctx.Journal()
	require.NoError(t, err)
	assert.Nil(t, j)

	// recording without a journal is a no-op
	env.Ctx.RecordBooking(models.BookingSummary{ID: "bk-1"})
}

func TestWizardBookingsAreJournaled(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.Journal = filepath.Join(t.TempDir(), "journal.db")
	env.SignIn(t)
	date, slot := env.OpenSlot(t, "loc-harbor", "art-kaito")

	w, err := env.Ctx.NewWizard()
	require.NoError(t, err)
	defer w.Close()

	ctx := context.Background()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.SelectLocation(ctx, "loc-harbor"))
	require.NoError(t, w.SelectArtist(ctx, "art-kaito"))
	require.NoError(t, w.SelectSlot(date, slot))
	booked, err := w.Submit(ctx)
	require.NoError(t, err)

	j, err := env.Ctx.Journal()
	require.NoError(t, err)
	require.NotNil(t, j)
	entries, err := j.ListBookings(0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, booked.ID, entries[0].Booking.ID)
	assert.Equal(t, env.Server.URL, entries[0].APIURL)
}

func TestRecordBookingConcurrently(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.Journal = filepath.Join(t.TempDir(), "journal.db")
	_, err := env.Ctx.API()
	require.NoError(t, err)

	const n = 8
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			env.Ctx.RecordBooking(models.BookingSummary{
				ID:       fmt.Sprintf("bk-%d", i),
				Status:   "confirmed",
				Date:     "2026-03-03",
				Time:     "11:00",
				Location: models.Ref{ID: "loc-central", Name: "Yuki Central"},
				Artist:   models.Ref{ID: "art-mina", Name: "Mina"},
			})
		}(i)
	}
	wg.Wait()

	j, err := env.Ctx.Journal()
	require.NoError(t, err)
	require.NotNil(t, j)
	entries, err := j.ListBookings(0)
	require.NoError(t, err)
	assert.Len(t, entries, n)
}
