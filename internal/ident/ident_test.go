package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValid_Valid(t *testing.T) {
	for _, name := range []string{"Position", "order_items", "MyTable", "_hidden", "table123"} {
		assert.True(t, IsValid(name), name)
	}
}

func TestIsValid_Invalid(t *testing.T) {
	for _, name := range []string{"", "my table", "my-table", "db.table", "123table", "table@123"} {
		assert.False(t, IsValid(name), name)
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("Position"))

	err := Validate("bad name")
	assert.Error(t, err)
	assert.IsType(t, &InvalidIdentifierError{}, err)
	assert.Contains(t, err.Error(), "bad name")
}
