package scores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type calculationRepoPG struct{ conn queryable }

func NewCalculationRepoPG(pool *pgxpool.Pool) CalculationRepository {
	return &calculationRepoPG{conn: pool}
}

const calculationCols = `id, COALESCE(request_id, ''), user_id, action, patient_id, kind, status,
	risk_level, status_code, created_at`

func (r *calculationRepoPG) scan(row pgx.Row) (*CalculationRecord, error) {
	var c CalculationRecord
	err := row.Scan(&c.ID, &c.RequestID, &c.UserID, &c.Action, &c.PatientID, &c.Kind,
		&c.Status, &c.RiskLevel, &c.StatusCode, &c.CreatedAt)
	return &c, err
}

func (r *calculationRepoPG) Create(ctx context.Context, c *CalculationRecord) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn.Exec(ctx, `
		INSERT INTO score_calculation (id, request_id, user_id, action, patient_id, kind,
			status, risk_level, status_code, created_at)
		VALUES ($1,NULLIF($2,''),$3,$4,$5,$6,$7,$8,$9,$10)`,
		c.ID, c.RequestID, c.UserID, c.Action, c.PatientID, c.Kind,
		c.Status, c.RiskLevel, c.StatusCode, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert score_calculation: %w", err)
	}
	return nil
}

func (r *calculationRepoPG) List(ctx context.Context, filter ListFilter, limit, offset int) ([]*CalculationRecord, int, error) {
	where, args := listWhere(filter)

	var total int
	if err := r.conn.QueryRow(ctx, `SELECT COUNT(*) FROM score_calculation`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count score_calculation: %w", err)
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM score_calculation%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		calculationCols, where, len(args)-1, len(args))
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list score_calculation: %w", err)
	}
	defer rows.Close()

	items := []*CalculationRecord{}
	for rows.Next() {
		c, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func listWhere(f ListFilter) (string, []any) {
	var clauses []string
	var args []any
	if f.PatientID != "" {
		args = append(args, f.PatientID)
		clauses = append(clauses, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if f.Kind != "" {
		args = append(args, f.Kind)
		clauses = append(clauses, fmt.Sprintf("kind = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
