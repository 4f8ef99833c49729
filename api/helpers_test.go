package api

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/tierguard"
	"github.com/xraph/tierguard/permission"
)

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))

	other := errors.New("disk on fire")
	assert.Equal(t, other, mapError(other))

	for _, err := range []error{
		fmt.Errorf("%w: page-x", tierguard.ErrEntityNotFound),
		fmt.Errorf("%w: page-x", tierguard.ErrInvalidOperation),
		&tierguard.ValidationError{},
		tierguard.ErrUnauthorizedActor,
	} {
		mapped := mapError(err)
		require.Error(t, mapped)
		assert.NotEqual(t, err, mapped)
	}
}

func TestParseRef(t *testing.T) {
	ref, err := parseRef("section", "sect-1")
	require.NoError(t, err)
	assert.Equal(t, permission.SectionRef("sect-1"), ref)

	_, err = parseRef("widget", "w-1")
	assert.Error(t, err)

	_, err = parseRef("page", "")
	assert.Error(t, err)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, 0, clampLimit(-5))
	assert.Equal(t, 25, clampLimit(25))
	assert.Equal(t, 1000, clampLimit(5000))
}
