package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository consulta a trilha de auditoria.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository cria um novo repositório de auditoria.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Query devolve página de entradas mais recentes primeiro e o total filtrado.
// O escopo de tenant chega como parte do filtro e entra no próprio SQL.
func (r *Repository) Query(ctx context.Context, f Filter, page, pageSize int) ([]Log, int64, error) {
	where := []string{"1=1"}
	args := []any{}

	add := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.EntityType != "" {
		add("entity_type = $%d", f.EntityType)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.ActorUserID != nil {
		add("actor_user_id = $%d", *f.ActorUserID)
	}
	if f.TenantID != nil {
		add("tenant_id = $%d", *f.TenantID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}

	query := fmt.Sprintf(`
        SELECT id, action, entity_type, entity_id, descricao, old_state, new_state,
               actor_user_id, target_user_id, tenant_id, ip_address, user_agent, created_at,
               COUNT(*) OVER() AS total
        FROM audit_logs
        WHERE %s
        ORDER BY created_at DESC
        LIMIT $%d OFFSET $%d
    `, strings.Join(where, " AND "), len(args)+1, len(args)+2)

	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		logs  []Log
		total int64
	)
	for rows.Next() {
		var (
			l       Log
			oldRaw  []byte
			newRaw  []byte
			target  *uuid.UUID
			tenant  *uuid.UUID
			rowsTot int64
		)
		if err := rows.Scan(&l.ID, &l.Action, &l.EntityType, &l.EntityID, &l.Descricao, &oldRaw, &newRaw,
			&l.ActorUserID, &target, &tenant, &l.IPAddress, &l.UserAgent, &l.CreatedAt, &rowsTot); err != nil {
			return nil, 0, err
		}
		l.TargetUserID = target
		l.TenantID = tenant
		if l.OldState, err = decodeState(oldRaw); err != nil {
			return nil, 0, err
		}
		if l.NewState, err = decodeState(newRaw); err != nil {
			return nil, 0, err
		}
		total = rowsTot
		logs = append(logs, l)
	}

	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return logs, total, nil
}

func decodeState(raw []byte) (map[string]any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
