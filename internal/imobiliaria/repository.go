package imobiliaria

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/db"
)

// Repository provê acesso ao armazenamento de imobiliárias. Toda mutação
// grava sua entrada de auditoria na mesma transação.
type Repository struct {
	pool     *pgxpool.Pool
	recorder *audit.Recorder
}

// NewRepository cria um novo repositório de imobiliárias.
func NewRepository(pool *pgxpool.Pool, recorder *audit.Recorder) *Repository {
	return &Repository{pool: pool, recorder: recorder}
}

// GetByID busca imobiliária pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Imobiliaria, error) {
	const query = `
        SELECT id, nome, email, telefone, endereco, ativa, criada_em, atualizada_em
        FROM imobiliarias
        WHERE id = $1
    `

	row := r.pool.QueryRow(ctx, query, id)
	return scanImobiliaria(row)
}

// List devolve todas as imobiliárias; onlyActive restringe às ativas.
func (r *Repository) List(ctx context.Context, onlyActive bool) ([]Imobiliaria, error) {
	query := `
        SELECT id, nome, email, telefone, endereco, ativa, criada_em, atualizada_em
        FROM imobiliarias
    `
	if onlyActive {
		query += " WHERE ativa"
	}
	query += " ORDER BY criada_em DESC"

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Imobiliaria
	for rows.Next() {
		item, err := scanImobiliaria(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *item)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return result, nil
}

// Create insere uma nova imobiliária junto da sua linha de auditoria.
func (r *Repository) Create(ctx context.Context, input CreateInput, entry audit.Entry) (*Imobiliaria, error) {
	const query = `
        INSERT INTO imobiliarias (nome, email, telefone, endereco)
        VALUES ($1, $2, $3, $4)
        RETURNING id, nome, email, telefone, endereco, ativa, criada_em, atualizada_em
    `

	var created *Imobiliaria
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Nome),
			input.Email,
			input.Telefone,
			input.Endereco,
		)

		var scanErr error
		created, scanErr = scanImobiliaria(row)
		if scanErr != nil {
			return scanErr
		}

		entry.EntityID = created.ID
		entry.TenantID = &created.ID
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Update aplica somente os campos informados, auditando na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*Imobiliaria, error) {
	const query = `
        UPDATE imobiliarias
        SET nome = COALESCE($2, nome),
            email = COALESCE($3, email),
            telefone = COALESCE($4, telefone),
            endereco = COALESCE($5, endereco),
            atualizada_em = now()
        WHERE id = $1
        RETURNING id, nome, email, telefone, endereco, ativa, criada_em, atualizada_em
    `

	var updated *Imobiliaria
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, id, input.Nome, input.Email, input.Telefone, input.Endereco)

		var scanErr error
		updated, scanErr = scanImobiliaria(row)
		if scanErr != nil {
			return scanErr
		}

		entry.NewState = map[string]any{"nome": updated.Nome}
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// SetAtiva liga/desliga a imobiliária (soft delete), com auditoria atômica.
func (r *Repository) SetAtiva(ctx context.Context, id uuid.UUID, ativa bool, entry audit.Entry) error {
	const query = `
        UPDATE imobiliarias
        SET ativa = $2, atualizada_em = now()
        WHERE id = $1
    `

	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query, id, ativa)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return r.recorder.RecordTx(ctx, tx, entry)
	})
}

func scanImobiliaria(row pgx.Row) (*Imobiliaria, error) {
	var i Imobiliaria
	if err := row.Scan(&i.ID, &i.Nome, &i.Email, &i.Telefone, &i.Endereco, &i.Ativa, &i.CriadaEm, &i.AtualizadaEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &i, nil
}
