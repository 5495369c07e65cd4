package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/tourdesk/internal/middleware"
)

func TestTokenCommand_MintsVerifiableToken(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "cli-secret")
	user, org1, org2 := uuid.New(), uuid.New(), uuid.New()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--user", user.String(), "--org", org1.String(), "--org", org2.String(), "--ttl", "1h"})

	require.NoError(t, cmd.Execute())

	actor, err := middleware.ParseToken([]byte("cli-secret"), strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, user, actor.UserID)
	assert.Equal(t, []uuid.UUID{org1, org2}, actor.OrgIDs)
}

func TestTokenCommand_RejectsBadUser(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tourdesk")
	t.Setenv("JWT_SECRET", "cli-secret")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"token", "--user", "nobody"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "--user")
}

func TestMigrateCommand_DoesNotNeedJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"migrate", "status"})

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
	assert.NotContains(t, err.Error(), "JWT_SECRET")
}

func TestRootCommand_RegistersSubcommands(t *testing.T) {
	cmd := newRootCommand()

	for _, name := range []string{"serve", "migrate", "token"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
	migrate, _, err := cmd.Find([]string{"migrate", "status"})
	require.NoError(t, err)
	assert.Equal(t, "status", migrate.Name())
}
