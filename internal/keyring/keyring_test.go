package keyring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestConnectionStringRoundTrip(t *testing.T) {
	keyring.MockInit()

	_, err := GetConnectionString()
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, SetConnectionString("postgres://huddle@localhost/huddle"))
	got, err := GetConnectionString()
	require.NoError(t, err)
	assert.Equal(t, "postgres://huddle@localhost/huddle", got)

	require.NoError(t, DeleteConnectionString())
	assert.ErrorIs(t, DeleteConnectionString(), ErrNotFound)
}

func TestSetRejectsEmpty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetConnectionString(""))
	assert.Error(t, SetTokenSecret(""))
}

func TestTokenSecret(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SetTokenSecret("s3cret"))
	got, err := GetTokenSecret()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", got)
	assert.True(t, IsAvailable())
}
