package usuario

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

const userColumns = "id, nome, email, telefone, senha_hash, role, status, imobiliaria_id, equipe_id, criado_em, atualizado_em"

// Repository provê acesso ao armazenamento de usuários.
type Repository struct {
	pool     *pgxpool.Pool
	recorder *audit.Recorder
}

// NewRepository cria um novo repositório de usuários.
func NewRepository(pool *pgxpool.Pool, recorder *audit.Recorder) *Repository {
	return &Repository{pool: pool, recorder: recorder}
}

// GetByID busca usuário pelo identificador.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Usuario, error) {
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM usuarios WHERE id = $1", id)
	return scanUsuario(row)
}

// GetByEmail busca usuário pelo e-mail normalizado.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Usuario, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	row := r.pool.QueryRow(ctx, "SELECT "+userColumns+" FROM usuarios WHERE lower(email) = $1", email)
	return scanUsuario(row)
}

// List devolve usuários, opcionalmente filtrados por imobiliária.
func (r *Repository) List(ctx context.Context, tenantID *uuid.UUID) ([]Usuario, error) {
	query := "SELECT " + userColumns + " FROM usuarios"
	var args []any
	if tenantID != nil {
		query += " WHERE imobiliaria_id = $1"
		args = append(args, *tenantID)
	}
	query += " ORDER BY criado_em DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Usuario
	for rows.Next() {
		u, err := scanUsuario(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *u)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return result, nil
}

// FindCorretorDisponivel escolhe o corretor ATIVO da imobiliária com menos
// leads atribuídos, para distribuição automática de captura.
func (r *Repository) FindCorretorDisponivel(ctx context.Context, tenantID uuid.UUID) (*Usuario, error) {
	const query = `
        SELECT u.id, u.nome, u.email, u.telefone, u.senha_hash, u.role, u.status, u.imobiliaria_id, u.equipe_id, u.criado_em, u.atualizado_em
        FROM usuarios u
        LEFT JOIN leads l ON l.owner_user_id = u.id
        WHERE u.imobiliaria_id = $1
          AND u.role = 'CORRETOR'
          AND u.status = 'ATIVO'
        GROUP BY u.id
        ORDER BY COUNT(l.id) ASC, u.criado_em ASC
        LIMIT 1
    `

	row := r.pool.QueryRow(ctx, query, tenantID)
	return scanUsuario(row)
}

// Create insere usuário junto da sua linha de auditoria.
func (r *Repository) Create(ctx context.Context, input CreateInput, senhaHash string, entry audit.Entry) (*Usuario, error) {
	const query = `
        INSERT INTO usuarios (nome, email, telefone, senha_hash, role, status, imobiliaria_id, equipe_id)
        VALUES ($1, $2, $3, $4, $5, 'ATIVO', $6, $7)
        RETURNING ` + userColumns

	var created *Usuario
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query,
			strings.TrimSpace(input.Nome),
			strings.TrimSpace(strings.ToLower(input.Email)),
			input.Telefone,
			senhaHash,
			input.Role,
			input.TenantID,
			input.TeamID,
		)

		var scanErr error
		created, scanErr = scanUsuario(row)
		if scanErr != nil {
			return scanErr
		}

		entry.EntityID = created.ID
		entry.TargetUserID = &created.ID
		entry.TenantID = created.TenantID
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return created, nil
}

// Update aplica somente os campos informados, auditando na mesma transação.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, input UpdateInput, entry audit.Entry) (*Usuario, error) {
	const query = `
        UPDATE usuarios
        SET nome = COALESCE($2, nome),
            email = COALESCE($3, email),
            telefone = COALESCE($4, telefone),
            status = COALESCE($5, status),
            equipe_id = COALESCE($6, equipe_id),
            atualizado_em = now()
        WHERE id = $1
        RETURNING ` + userColumns

	var email *string
	if input.Email != nil {
		normalized := strings.TrimSpace(strings.ToLower(*input.Email))
		email = &normalized
	}

	var updated *Usuario
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, query, id, input.Nome, email, input.Telefone, input.Status, input.TeamID)

		var scanErr error
		updated, scanErr = scanUsuario(row)
		if scanErr != nil {
			return scanErr
		}

		entry.NewState = map[string]any{"nome": updated.Nome, "email": updated.Email, "status": updated.Status}
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, translateUniqueViolation(err)
	}
	return updated, nil
}

func translateUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrEmailEmUso
	}
	return err
}

func scanUsuario(row pgx.Row) (*Usuario, error) {
	var u Usuario
	if err := row.Scan(&u.ID, &u.Nome, &u.Email, &u.Telefone, &u.SenhaHash, &u.Role, &u.Status, &u.TenantID, &u.TeamID, &u.CriadoEm, &u.AtualizadoEm); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}
