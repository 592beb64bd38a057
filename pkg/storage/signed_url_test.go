package storage

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerGenerateAndParse(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("exp-1", "day-0/pairings.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	grant, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "exp-1", grant.ExportID)
	require.Equal(t, "day-0/pairings.csv", grant.Path)
	require.True(t, expiresAt.Equal(grant.ExpiresAt))
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Minute)
	issued := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return issued }
	token, _, err := signer.Generate("exp-1", "pairings.csv")
	require.NoError(t, err)

	signer.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = signer.Parse(token, false)
	require.True(t, errors.Is(err, ErrExpiredToken))

	grant, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "pairings.csv", grant.Path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("exp-1", "pairings.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "exp-2"
	_, err = signer.Parse(strings.Join(parts, "."), false)
	require.True(t, errors.Is(err, ErrInvalidToken))

	_, err = NewSignedURLSigner("other", time.Hour).Parse(token, false)
	require.True(t, errors.Is(err, ErrInvalidToken))

	_, err = signer.Parse("garbage", false)
	require.True(t, errors.Is(err, ErrInvalidToken))

	_, _, err = NewSignedURLSigner("", time.Hour).Generate("exp-1", "pairings.csv")
	require.Error(t, err)
}
