package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/antaqor/yuki/internal/api"
	"github.com/antaqor/yuki/internal/cli/clitest"
	"github.com/antaqor/yuki/internal/constants"
)

func TestLoginWithCredentials(t *testing.T) {
	env := clitest.New(t)

	cmd := &LoginCmd{Email: constants.SandboxDemoEmail, Password: constants.SandboxDemoPassword}
	require.NoError(t, cmd.Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Signed in as Demo Client")

	_, ok := env.Ctx.Session.Token()
	assert.True(t, ok)
}

func TestLoginWrongPassword(t *testing.T) {
	env := clitest.New(t)

	err := (&LoginCmd{Email: constants.SandboxDemoEmail, Password: "wrong"}).Run(env.Ctx)
	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.True(t, api.IsUnauthorized(err))

	_, ok := env.Ctx.Session.Token()
	assert.False(t, ok)
}

func TestLoginWithToken(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&LoginCmd{Token: "  opaque-token  "}).Run(env.Ctx))
	token, ok := env.Ctx.Session.Token()
	require.True(t, ok)
	assert.Equal(t, "opaque-token", token)

	env.Out.Reset()
	require.NoError(t, (&WhoamiCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "(opaque token)")
}

func TestWhoamiAndLogout(t *testing.T) {
	env := clitest.New(t)

	require.NoError(t, (&WhoamiCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Not signed in.")

	env.SignIn(t)
	require.NoError(t, (&WhoamiCmd{}).Run(env.Ctx))
	out := env.Out.String()
	assert.Contains(t, out, "Signed in: usr-demo")
	assert.Contains(t, out, "Expires:")

	env.Out.Reset()
	require.NoError(t, (&LogoutCmd{}).Run(env.Ctx))
	assert.Contains(t, env.Out.String(), "Signed out")
	_, ok := env.Ctx.Session.Token()
	assert.False(t, ok)

	// logging out twice is fine
	require.NoError(t, (&LogoutCmd{}).Run(env.Ctx))
}
