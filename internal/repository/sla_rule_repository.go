package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/resolva-io/resolva-ce/internal/database"
	"github.com/resolva-io/resolva-ce/internal/models"
)

// SlaRuleRepository reads the configured SLA rule set. Rules are managed
// by the admin surface and are read-only to the accounting core; rules
// are deactivated rather than deleted.
type SlaRuleRepository struct {
	db     *sql.DB
	driver string
}

// NewSlaRuleRepository creates an SLA rule repository.
func NewSlaRuleRepository(db *sql.DB, driver string) *SlaRuleRepository {
	return &SlaRuleRepository{db: db, driver: driver}
}

// ActiveRules returns every active rule, ordered by id so resolution
// tie-breaks see a stable sequence.
func (r *SlaRuleRepository) ActiveRules(ctx context.Context) ([]models.SlaRule, error) {
	query := database.ConvertPlaceholders(r.driver, `
		SELECT id, name, department_id, category, priority,
		       resolution_hours, is_active, created_at, updated_at
		FROM sla_rule
		WHERE is_active = ?
		ORDER BY id
	`)
	rows, err := r.db.QueryContext(ctx, query, true)
	if err != nil {
		return nil, fmt.Errorf("failed to list active SLA rules: %w", err)
	}
	defer rows.Close()

	var rules []models.SlaRule
	for rows.Next() {
		var (
			rule       models.SlaRule
			department sql.NullInt64
			category   sql.NullString
			priority   sql.NullString
		)
		if err := rows.Scan(
			&rule.ID, &rule.Name, &department, &category, &priority,
			&rule.ResolutionHours, &rule.IsActive, &rule.CreatedAt, &rule.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan SLA rule row: %w", err)
		}
		if department.Valid {
			d := int(department.Int64)
			rule.DepartmentID = &d
		}
		if category.Valid {
			c := category.String
			rule.Category = &c
		}
		if priority.Valid {
			p := priority.String
			rule.Priority = &p
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}
