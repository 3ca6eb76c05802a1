package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorLifecycle(t *testing.T) {
	_, _, users := setupAuth(t)
	ctx := context.Background()
	tf := NewTwoFactor(users, "Panelkit")

	user, err := users.CreateUser(ctx, NewUser{Name: "Ann", Email: "ann@example.com", Password: "password"})
	require.NoError(t, err)

	require.ErrorIs(t, tf.Verify(ctx, user, "123456", ""), ErrTwoFactorNotEnabled)

	setup, err := tf.Enable(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, setup.Secret)
	assert.True(t, strings.HasPrefix(setup.URL, "otpauth://totp/"))
	assert.Len(t, setup.RecoveryCodes, RecoveryCodeCount)
	assert.False(t, user.HasTwoFactorEnabled())

	again, err := tf.Setup(user)
	require.NoError(t, err)
	assert.Equal(t, setup.Secret, again.Secret)
	assert.Contains(t, again.URL, "secret="+setup.Secret)

	require.ErrorIs(t, tf.Confirm(ctx, user, "000000x"), ErrInvalidTwoFactorCode)

	code, err := totp.GenerateCode(setup.Secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, tf.Confirm(ctx, user, code))

	reloaded, err := users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, reloaded.HasTwoFactorEnabled())

	require.NoError(t, tf.Verify(ctx, reloaded, code, ""))
	require.ErrorIs(t, tf.Verify(ctx, reloaded, "999999x", ""), ErrInvalidTwoFactorCode)

	recovery := setup.RecoveryCodes[3]
	require.NoError(t, tf.Verify(ctx, reloaded, "", recovery))
	require.ErrorIs(t, tf.Verify(ctx, reloaded, "", recovery), ErrInvalidTwoFactorCode)

	reloaded, err = users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, reloaded.RecoveryCodes(), RecoveryCodeCount-1)
	assert.NotContains(t, reloaded.RecoveryCodes(), recovery)

	fresh, err := tf.RegenerateRecoveryCodes(ctx, reloaded)
	require.NoError(t, err)
	assert.Len(t, fresh, RecoveryCodeCount)

	require.NoError(t, tf.Disable(ctx, reloaded))

	reloaded, err = users.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.HasTwoFactorEnabled())
	assert.Empty(t, reloaded.RecoveryCodes())
}
