package main

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/mcdev12/oscarnight/go/internal/models"
	"github.com/mcdev12/oscarnight/go/internal/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSnapshot_EmptyDirectoryUsesDefaults(t *testing.T) {
	repo, err := persistence.NewFileRepository(t.TempDir())
	require.NoError(t, err)

	snapshot, err := loadSnapshot(context.Background(), repo)
	require.NoError(t, err)

	assert.Equal(t, models.DefaultCategories(), snapshot.Categories)
	assert.Empty(t, snapshot.Users)
	assert.Empty(t, snapshot.Buzzes)
	assert.Empty(t, snapshot.Trivia)
}

func TestLoadSnapshot_ReadsDefaultFilesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("categories.default.json", `[{"name":"Best Score","nominees":[{"title":"Her"}]}]`)
	write("users.json", `[{"name":"alice","uuid":"u-1"}]`)
	write("triviaQuestions.json", `[{"question":"Who hosted?"}]`)

	repo, err := persistence.NewFileRepository(dir)
	require.NoError(t, err)

	snapshot, err := loadSnapshot(context.Background(), repo)
	require.NoError(t, err)

	require.Len(t, snapshot.Categories, 1)
	assert.Equal(t, models.DefaultCategoryValue, snapshot.Categories[0].Value)
	assert.False(t, snapshot.Categories[0].Nominees[0].Winner)

	require.Len(t, snapshot.Users, 1)
	assert.NotNil(t, snapshot.Users[0].Picks)
	require.Len(t, snapshot.Trivia, 1)
	assert.JSONEq(t, `{"question":"Who hosted?"}`, string(snapshot.Trivia[0]))
}

func TestLoadSnapshot_CorruptDocumentIsFatal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "users.json"), []byte("{oops"), 0o644))

	repo, err := persistence.NewFileRepository(dir)
	require.NoError(t, err)

	_, err = loadSnapshot(context.Background(), repo)
	assert.ErrorContains(t, err, "load users")
}

func TestIPv4URLs(t *testing.T) {
	addrs := []net.Addr{
		&net.IPNet{IP: net.ParseIP("127.0.0.1"), Mask: net.CIDRMask(8, 32)},
		&net.IPNet{IP: net.ParseIP("192.168.1.20"), Mask: net.CIDRMask(24, 32)},
		&net.IPNet{IP: net.ParseIP("fe80::1"), Mask: net.CIDRMask(64, 128)},
	}

	assert.Equal(t, []string{
		"http://127.0.0.1:3000",
		"http://192.168.1.20:3000",
	}, ipv4URLs(addrs, 3000))
	assert.Equal(t, "http://localhost:3000", networkURLs(3000)[0])
}
