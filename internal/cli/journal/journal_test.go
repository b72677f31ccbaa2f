package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaqor/yuki/internal/cli/clitest"
	clierrors "github.com/antaqor/yuki/internal/errors"
	"github.com/antaqor/yuki/internal/models"
)

func TestJournalListDisabled(t *testing.T) {
	env := clitest.New(t)

	err := (&JournalListCmd{}).Run(env.Ctx)
	require.ErrorIs(t, err, ErrJournalDisabled)
	assert.Contains(t, clierrors.Format(err), "YUKI_JOURNAL")
}

func TestJournalList(t *testing.T) {
	env := clitest.New(t)
	env.Ctx.Config.Journal = filepath.Join(t.TempDir(), "journal.db")

	require.NoError(t, (&JournalListCmd{Limit: 20}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "No bookings recorded.")

	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	env.Ctx.RecordBooking(models.BookingSummary{
		ID:        "bk-older",
		Status:    "confirmed",
		Date:      "2026-03-03",
		Time:      "11:00",
		Location:  models.Ref{ID: "loc-central", Name: "Yuki Central"},
		Artist:    models.Ref{ID: "art-mina", Name: "Mina"},
		CreatedAt: &created,
	})
	time.Sleep(time.Millisecond)
	env.Ctx.RecordBooking(models.BookingSummary{
		ID:       "bk-newer",
		Status:   "pending",
		Date:     "2026-03-04",
		Time:     "15:00",
		Location: models.Ref{ID: "loc-harbor", Name: "Yuki Harbor"},
		Artist:   models.Ref{ID: "art-kaito", Name: "Kaito"},
	})

	env.Out.Reset()
	require.NoError(t, (&JournalListCmd{Limit: 1}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "bk-newer")
	assert.NotContains(t, out, "bk-older")

	env.Out.Reset()
	require.NoError(t, (&JournalListCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "bk-older")
}
