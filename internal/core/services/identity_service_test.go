package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityService_SealProducesEnvelopesAndIndexes(t *testing.T) {
	env := newTestEnv(t)

	sealed, err := env.identity.Seal("8001015009087", "1000000001")
	require.NoError(t, err)
	assert.NotContains(t, sealed.IDNumber, "8001015009087")
	assert.Len(t, sealed.IDNumberIndex, 64)
	assert.NotEqual(t, sealed.IDNumberIndex, sealed.AccountNumberIndex)

	plain, err := env.cipher.Decrypt(sealed.IDNumber)
	require.NoError(t, err)
	assert.Equal(t, "8001015009087", plain)
}

func TestIdentityService_LegacyScan(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.insertLegacyUser(t, "legacy01", env.seal(t, "8001015009087"), env.seal(t, "1000000001"))

	assert.ErrorIs(t, env.identity.EnsureUnique(ctx, "8001015009087", "2222222222"), ErrIDNumberInUse)
	assert.ErrorIs(t, env.identity.EnsureUnique(ctx, "9001015009087", "1000000001"), ErrAccountNumberInUse)
	assert.NoError(t, env.identity.EnsureUnique(ctx, "9001015009087", "2222222222"))
}

func TestIdentityService_UndecryptableLegacyRowFailsClosed(t *testing.T) {
	env := newTestEnv(t)
	env.insertLegacyUser(t, "legacy02", "not.an.envelope", env.seal(t, "1000000001"))

	err := env.identity.EnsureUnique(context.Background(), "9001015009087", "2222222222")
	assert.ErrorIs(t, err, ErrUniquenessUnverifiable)
}

func TestIdentityService_BackfillIndexes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	good := env.insertLegacyUser(t, "legacy03", env.seal(t, "8001015009087"), env.seal(t, "1000000001"))
	bad := env.insertLegacyUser(t, "legacy04", "garbage", "garbage")

	res, err := env.identity.BackfillIndexes(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []uint{bad.ID}, res.Failed)

	u, err := env.userRepo.GetByID(ctx, good.ID)
	require.NoError(t, err)
	require.NotNil(t, u.IDNumberIndex)

	// now found by index rather than by scan
	exists, err := env.userRepo.ExistsByIDNumberIndex(ctx, *u.IDNumberIndex)
	require.NoError(t, err)
	assert.True(t, exists)
}
