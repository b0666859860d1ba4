package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTableScope(t *testing.T) {
	products := Table{Name: "products", Alias: "p", SoftDelete: true}
	assert.Equal(t, "products p", products.From())
	assert.Equal(t, "p.organization_id = $1 AND p.deleted_at IS NULL", products.Scope(1))

	movements := Table{Name: "inventory_movements", Alias: "m"}
	assert.Equal(t, "m.organization_id = $3", movements.Scope(3))
}
