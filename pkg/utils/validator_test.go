package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bocado-ai/gate/pkg/errors"
)

type sample struct {
	UserID string   `json:"userId" validate:"required,max=8"`
	Type   string   `json:"type" validate:"recommendationtype"`
	Items  []string `json:"items" validate:"max=2,dive,max=3"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(&sample{UserID: "u1", Type: "En casa"}))

	err := ValidateStruct(&sample{UserID: "", Type: "Dentro", Items: []string{"ok", "toolong"}})
	require.NotNil(t, err)
	assert.Equal(t, errors.CodeValidation, err.Code())

	details, ok := err.Metadata()[errors.MetaDetails].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["userId"])
	assert.Contains(t, details["type"], "En casa")
	assert.Equal(t, "must be at most 3", details["items[1]"])
}

func TestValidateVar(t *testing.T) {
	assert.Nil(t, ValidateVar("query", "Madrid", "min=2,max=100"))
	err := ValidateVar("query", "M", "min=2,max=100")
	require.NotNil(t, err)
	details := err.Metadata()[errors.MetaDetails].(map[string]string)
	assert.Equal(t, "must be at least 2", details["query"])
}

func TestTruncateAndMask(t *testing.T) {
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "a", Truncate("añ", 2))
	assert.Equal(t, "abcdefgh...", MaskID("abcdefghijkl"))
	assert.Equal(t, "abc...", MaskID("abc"))
}
