package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryUnmarshal_AppliesDefaults(t *testing.T) {
	var c Category
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Best Score","nominees":[{"title":"Her"}]}`), &c))

	assert.Equal(t, DefaultCategoryValue, c.Value)
	assert.False(t, c.Locked)
	assert.False(t, c.VotingActive)
	assert.False(t, c.Distinguished)
	require.Len(t, c.Nominees, 1)
	assert.False(t, c.Nominees[0].Winner)
}

func TestCategoryUnmarshal_KeepsExplicitValues(t *testing.T) {
	var c Category
	require.NoError(t, json.Unmarshal([]byte(`{"name":"X","value":0,"locked":true}`), &c))

	assert.Equal(t, 0, c.Value)
	assert.True(t, c.Locked)
	assert.NotNil(t, c.Nominees)
}

func TestUserUnmarshal_EmptyPicks(t *testing.T) {
	var u User
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Alice","uuid":"u-1","braggingRights":5}`), &u))

	assert.NotNil(t, u.Picks)
	assert.Equal(t, 5, u.BraggingRights)
}

func TestDefaultCategories(t *testing.T) {
	cats := DefaultCategories()
	require.Len(t, cats, 3)
	for _, c := range cats {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Nominees)
	}
}
