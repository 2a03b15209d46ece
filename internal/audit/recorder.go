package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer é satisfeito por pgx.Tx e *pgxpool.Pool, permitindo gravar a trilha
// dentro da mesma transação da mutação que ela descreve.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertLogQuery = `
        INSERT INTO audit_logs (action, entity_type, entity_id, descricao, old_state, new_state, actor_user_id, target_user_id, tenant_id, ip_address, user_agent)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
    `

// Recorder grava entradas da trilha de auditoria. A trilha é append-only:
// não existe update nem delete.
type Recorder struct {
	pool *pgxpool.Pool
}

// NewRecorder cria um gravador ligado ao pool.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{pool: pool}
}

// Record grava uma entrada fora de transação (login/logout e leituras).
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	return r.RecordTx(ctx, r.pool, e)
}

// RecordTx grava uma entrada usando o executor informado. Chamado de dentro
// da transação da mutação correspondente; um erro aqui aborta a transação
// inteira em vez de perder a linha de auditoria.
func (r *Recorder) RecordTx(ctx context.Context, tx Execer, e Entry) error {
	oldJSON, err := marshalState(e.OldState)
	if err != nil {
		return err
	}
	newJSON, err := marshalState(e.NewState)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, insertLogQuery,
		e.Action,
		e.EntityType,
		e.EntityID,
		e.Descricao,
		oldJSON,
		newJSON,
		e.ActorUserID,
		e.TargetUserID,
		e.TenantID,
		e.IPAddress,
		e.UserAgent,
	)
	return err
}

func marshalState(state map[string]any) ([]byte, error) {
	if state == nil {
		return nil, nil
	}
	return json.Marshal(state)
}
