package typeid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndValidate(t *testing.T) {
	id := NewCanvasID()
	assert.True(t, strings.HasPrefix(id, PrefixCanvas+"_"))
	require.NoError(t, Validate(id, PrefixCanvas))
	assert.Error(t, Validate(id, PrefixObject))
	assert.Error(t, Validate("not-an-id", PrefixCanvas))
	assert.NotEqual(t, NewObjectID(), NewObjectID())
}
