package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Tech-Craft-Resources/orbit-engine/internal/shared"
)

// Table describes a tenant-owned table. Every repository query renders its
// WHERE clause through Scope so tenant and soft-delete filters cannot be
// forgotten on any path.
type Table struct {
	Name       string
	Alias      string
	SoftDelete bool
}

// From renders the table reference with its alias.
func (t Table) From() string {
	return t.Name + " " + t.Alias
}

// Scope returns the tenant predicate bound to placeholder $orgParam. Soft
// deletable tables additionally hide deleted rows.
func (t Table) Scope(orgParam int) string {
	pred := fmt.Sprintf("%s.organization_id = $%d", t.Alias, orgParam)
	if t.SoftDelete {
		pred += " AND " + t.Alias + ".deleted_at IS NULL"
	}
	return pred
}

// SoftDelete stamps deleted_at on a live row and deactivates it.
func SoftDelete(ctx context.Context, q Querier, t Table, orgID, id uuid.UUID, at time.Time) error {
	if !t.SoftDelete {
		return errors.New("platform/db: table " + t.Name + " does not support soft delete")
	}
	tag, err := q.Exec(ctx, `UPDATE `+t.Name+` SET deleted_at = $3, is_active = FALSE, updated_at = $3
WHERE organization_id = $1 AND id = $2 AND deleted_at IS NULL`, orgID, id, at)
	if err != nil {
		return MapError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, t.Name, id)
	}
	return nil
}
