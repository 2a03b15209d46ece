package status

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/db"
)

const statusColumns = "id, imobiliaria_id, nome, cor, descricao, ativo, criado_em, atualizado_em"

// Repository provê acesso ao catálogo de status.
type Repository struct {
	pool     *pgxpool.Pool
	recorder *audit.Recorder
}

// NewRepository cria um novo repositório de status.
func NewRepository(pool *pgxpool.Pool, recorder *audit.Recorder) *Repository {
	return &Repository{pool: pool, recorder: recorder}
}

// GetByID busca status pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*StatusCustom, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+statusColumns+" FROM status_custom WHERE id = $1", id)
	return scanStatus(row)
}

// List devolve status, opcionalmente filtrados por imobiliária.
func (r *Repository) List(ctx context.Context, tenantID *uuid.UUID) ([]StatusCustom, error) {
	query := "SELECT " + statusColumns + " FROM status_custom"
	var args []any
	if tenantID != nil {
		query += " WHERE imobiliaria_id = $1"
		args = append(args, *tenantID)
	}
	query += " ORDER BY nome ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []StatusCustom
	for rows.Next() {
		s, err := scanStatus(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *s)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return result, nil
}

// ExistsByNome verifica duplicidade de nome na imobiliária, ignorando caixa.
// exclude permite desconsiderar o próprio registro em atualizações.
func (r *Repository) ExistsByNome(ctx context.Context, tenantID uuid.UUID, nome string, exclude *uuid.UUID) (bool, error) {
	query := `
        SELECT EXISTS(
            SELECT 1 FROM status_custom
            WHERE imobiliaria_id = $1 AND lower(nome) = lower($2)
    `
	args := []any{tenantID, strings.TrimSpace(nome)}
	if exclude != nil {
		query += " AND id <> $3"
		args = append(args, *exclude)
	}
	query += ")"

	var exists bool
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// CountLeads devolve quantos leads referenciam o status.
func (r *Repository) CountLeads(ctx context.Context, statusID uuid.UUID) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE status_id = $1", statusID).Scan(&count)
	return count, err
}

// Insert grava o status junto da sua linha de auditoria. O índice único de
// (imobiliaria_id, lower(nome)) cobre a corrida entre verificação e insert.
func (r *Repository) Insert(ctx context.Context, tenantID uuid.UUID, nome, cor, descricao string, entry audit.Entry) (*StatusCustom, error) {
	const query = `
        INSERT INTO status_custom (imobiliaria_id, nome, cor, descricao)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + statusColumns

	var created *StatusCustom
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, tenantID, strings.TrimSpace(nome), cor, descricao)

		var scanErr error
		created, scanErr = scanStatus(row)
		if scanErr != nil {
			return scanErr
		}

		entry.EntityID = created.ID
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, translateConstraint(err)
	}
	return created, nil
}

// Update aplica somente os campos informados, auditando na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*StatusCustom, error) {
	const query = `
        UPDATE status_custom
        SET nome = COALESCE($2, nome),
            cor = COALESCE($3, cor),
            descricao = COALESCE($4, descricao),
            ativo = COALESCE($5, ativo),
            atualizado_em = now()
        WHERE id = $1
        RETURNING ` + statusColumns

	var updated *StatusCustom
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, id, input.Nome, input.Cor, input.Descricao, input.Ativo)

		var scanErr error
		updated, scanErr = scanStatus(row)
		if scanErr != nil {
			return scanErr
		}

		entry.NewState = map[string]any{"nome": updated.Nome, "cor": updated.Cor, "ativo": updated.Ativo}
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, translateConstraint(err)
	}
	return updated, nil
}

// Delete remove o status, recusando enquanto houver lead referenciando. A
// contagem roda dentro da transação para não correr contra novas atribuições.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID, entry audit.Entry) error {
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		var count int64
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM leads WHERE status_id = $1", id).Scan(&count); err != nil {
			return err
		}
		if count > 0 {
			return ErrEmUso
		}

		tag, err := tx.Exec(ctx, "DELETE FROM status_custom WHERE id = $1", id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		return r.recorder.RecordTx(ctx, tx, entry)
	})
	return translateConstraint(err)
}

func translateConstraint(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrNomeDuplicado
		case "23503":
			return ErrEmUso
		}
	}
	return err
}

func scanStatus(row pgx.Row) (*StatusCustom, error) {
	var s StatusCustom
	if err := row.Scan(&s.ID, &s.TenantID, &s.Nome, &s.Cor, &s.Descricao, &s.Ativo, &s.CriadoEm, &s.AtualizadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}
