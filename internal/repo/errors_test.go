package repo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, "bob", Normalize("Bob "))
	assert.Equal(t, "bob", Normalize("  BOB"))
	assert.Equal(t, "alice", Normalize("alice"))
	assert.Equal(t, "", Normalize("   "))
}
