package lead

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/db"
)

const leadColumns = `
    l.id, l.imobiliaria_id, l.owner_user_id, u.nome, l.nome, l.email, l.telefone,
    l.origem, l.interesse, l.status_id, s.nome,
    (SELECT COUNT(*) FROM lead_observacoes o WHERE o.lead_id = l.id),
    l.criado_em, l.atualizado_em`

const leadFrom = `
    FROM leads l
    JOIN usuarios u ON u.id = l.owner_user_id
    LEFT JOIN status_custom s ON s.id = l.status_id`

// querier cobre o subconjunto de *pgxpool.Pool que o repositório usa.
type querier interface {
	db.Beginner
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// auditRecorder grava a linha de auditoria dentro da transação corrente.
type auditRecorder interface {
	RecordTx(ctx context.Context, tx audit.Execer, e audit.Entry) error
}

// Repository provê acesso ao armazenamento de leads e ao seu histórico.
type Repository struct {
	pool     querier
	recorder auditRecorder
}

func NewRepository(pool *pgxpool.Pool, recorder *audit.Recorder) *Repository {
	return &Repository{pool: pool, recorder: recorder}
}

// GetByID carrega o lead com nomes de corretor e etapa resolvidos.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := r.pool.QueryRow(ctx, "SELECT"+leadColumns+leadFrom+" WHERE l.id = $1", id)
	return scanLead(row)
}

// List pagina leads conforme o filtro já escopado pelo serviço. O escopo
// entra como predicado SQL para não vazar existência de leads alheios.
func (r *Repository) List(ctx context.Context, f Filter, page, pageSize int) ([]Lead, int64, error) {
	var (
		clauses []string
		args    []any
	)
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if f.TenantID != nil {
		add("l.imobiliaria_id = $%d", *f.TenantID)
	}
	if f.OwnerUserID != nil {
		add("l.owner_user_id = $%d", *f.OwnerUserID)
	}
	if f.StatusID != nil {
		add("l.status_id = $%d", *f.StatusID)
	}
	if f.Origem != "" {
		add("l.origem = $%d", f.Origem)
	}
	if f.Busca != "" {
		add("(l.nome ILIKE $%d OR l.email ILIKE $%[1]d OR l.telefone ILIKE $%[1]d)", "%"+f.Busca+"%")
	}

	query := "SELECT" + leadColumns + ", COUNT(*) OVER() AS total" + leadFrom
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY l.atualizado_em DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		result []Lead
		total  int64
	)
	for rows.Next() {
		var l Lead
		if err := rows.Scan(
			&l.ID, &l.TenantID, &l.OwnerUserID, &l.OwnerNome, &l.Nome, &l.Email, &l.Telefone,
			&l.Origem, &l.Interesse, &l.StatusID, &l.StatusNome, &l.ObservacoesTotal,
			&l.CriadoEm, &l.AtualizadoEm,
			&total,
		); err != nil {
			return nil, 0, err
		}
		result = append(result, l)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}

	return result, total, nil
}

// Create insere o lead e sua linha de auditoria na mesma transação.
func (r *Repository) Create(ctx context.Context, tenantID, ownerID uuid.UUID, input CreateInput, entry audit.Entry) (*Lead, error) {
	const query = `
        INSERT INTO leads (imobiliaria_id, owner_user_id, nome, email, telefone, origem, interesse, status_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	var leadID uuid.UUID
	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			tenantID,
			ownerID,
			strings.TrimSpace(input.Nome),
			input.Email,
			input.Telefone,
			input.Origem,
			input.Interesse,
			input.StatusID,
		).Scan(&leadID); err != nil {
			return err
		}

		entry.EntityID = leadID
		entry.TenantID = &tenantID
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	return r.GetByID(ctx, leadID)
}

// ChangeSet é o resultado da validação do serviço, pronto para aplicar.
type ChangeSet struct {
	NewStatusID *uuid.UUID
	Observacao  string
	AutorID     uuid.UUID
}

// ChangeResult informa o que a transação efetivamente gravou.
type ChangeResult struct {
	Lead           *Lead
	StatusAlterado bool
	NoOp           bool
}

// ApplyChange aplica etapa nova e/ou observação sobre o lead em uma única
// transação. O status corrente é relido com FOR UPDATE para que mudanças
// concorrentes serializem; mudança sem efeito (mesma etapa, sem nota) não
// grava nada, nem auditoria.
func (r *Repository) ApplyChange(ctx context.Context, leadID uuid.UUID, change ChangeSet, entry audit.Entry) (*ChangeResult, error) {
	result := &ChangeResult{}

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		const lockQuery = `
            SELECT l.imobiliaria_id, l.status_id, s.nome
            FROM leads l
            LEFT JOIN status_custom s ON s.id = l.status_id
            WHERE l.id = $1
            FOR UPDATE OF l`

		var (
			tenantID      uuid.UUID
			currentStatus *uuid.UUID
			currentNome   *string
		)
		if err := tx.QueryRow(ctx, lockQuery, leadID).Scan(&tenantID, &currentStatus, &currentNome); err != nil {
			if err == pgx.ErrNoRows {
				return ErrNotFound
			}
			return err
		}

		statusMudou := change.NewStatusID != nil &&
			(currentStatus == nil || *change.NewStatusID != *currentStatus)
		texto := strings.TrimSpace(change.Observacao)

		if !statusMudou && texto == "" {
			result.NoOp = true
			return nil
		}

		oldState := map[string]any{"status_id": currentStatus, "status_nome": currentNome}
		newState := map[string]any{}

		if statusMudou {
			var novoNome string
			if err := tx.QueryRow(ctx,
				"UPDATE leads SET status_id = $2, atualizado_em = now() WHERE id = $1 RETURNING (SELECT nome FROM status_custom WHERE id = $2)",
				leadID, *change.NewStatusID,
			).Scan(&novoNome); err != nil {
				return err
			}

			const obsQuery = `
                INSERT INTO lead_observacoes
                    (lead_id, autor_id, tipo, texto, status_anterior_id, status_anterior_nome, status_novo_id, status_novo_nome)
                VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
			if _, err := tx.Exec(ctx, obsQuery,
				leadID, change.AutorID, TipoMudancaStatus, texto,
				currentStatus, currentNome, *change.NewStatusID, novoNome,
			); err != nil {
				return err
			}

			newState["status_id"] = *change.NewStatusID
			newState["status_nome"] = novoNome
			result.StatusAlterado = true
		} else {
			// nota sem mudança de etapa vira lançamento avulso
			const obsQuery = `
                INSERT INTO lead_observacoes (lead_id, autor_id, tipo, texto)
                VALUES ($1, $2, $3, $4)`
			if _, err := tx.Exec(ctx, obsQuery, leadID, change.AutorID, TipoObservacao, texto); err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, "UPDATE leads SET atualizado_em = now() WHERE id = $1", leadID); err != nil {
				return err
			}
		}

		if texto != "" {
			newState["observacao"] = texto
		}

		entry.EntityID = leadID
		entry.TenantID = &tenantID
		entry.OldState = oldState
		entry.NewState = newState
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}

	full, err := r.GetByID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	result.Lead = full
	return result, nil
}

// ListObservacoes devolve o histórico do lead, mais recente primeiro.
func (r *Repository) ListObservacoes(ctx context.Context, leadID uuid.UUID) ([]Observacao, error) {
	const query = `
        SELECT o.id, o.lead_id, o.autor_id, u.nome, o.tipo, o.texto,
               o.status_anterior_id, o.status_anterior_nome, o.status_novo_id, o.status_novo_nome,
               o.criado_em
        FROM lead_observacoes o
        JOIN usuarios u ON u.id = o.autor_id
        WHERE o.lead_id = $1
        ORDER BY o.criado_em DESC, o.id DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Observacao
	for rows.Next() {
		var o Observacao
		if err := rows.Scan(
			&o.ID, &o.LeadID, &o.AutorID, &o.AutorNome, &o.Tipo, &o.Texto,
			&o.StatusAnteriorID, &o.StatusAnteriorNome, &o.StatusNovoID, &o.StatusNovoNome,
			&o.CriadoEm,
		); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return result, nil
}

// InsertDocumento grava os metadados do documento junto da auditoria.
func (r *Repository) InsertDocumento(ctx context.Context, doc Documento, entry audit.Entry) (*Documento, error) {
	const query = `
        INSERT INTO lead_documentos (lead_id, nome, content_type, tamanho, url, chave_objeto, enviado_por)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id, criado_em`

	err := db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, query,
			doc.LeadID, doc.Nome, doc.ContentType, doc.Tamanho, doc.URL, doc.ChaveObjeto, doc.EnviadoPor,
		).Scan(&doc.ID, &doc.CriadoEm); err != nil {
			return err
		}

		entry.EntityID = doc.ID
		return r.recorder.RecordTx(ctx, tx, entry)
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// ListDocumentos devolve os anexos do lead, mais recente primeiro.
func (r *Repository) ListDocumentos(ctx context.Context, leadID uuid.UUID) ([]Documento, error) {
	const query = `
        SELECT id, lead_id, nome, content_type, tamanho, url, chave_objeto, enviado_por, criado_em
        FROM lead_documentos
        WHERE lead_id = $1
        ORDER BY criado_em DESC`

	rows, err := r.pool.Query(ctx, query, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Documento
	for rows.Next() {
		var d Documento
		if err := rows.Scan(&d.ID, &d.LeadID, &d.Nome, &d.ContentType, &d.Tamanho, &d.URL, &d.ChaveObjeto, &d.EnviadoPor, &d.CriadoEm); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return result, nil
}

func scanLead(row pgx.Row) (*Lead, error) {
	var l Lead
	if err := row.Scan(
		&l.ID, &l.TenantID, &l.OwnerUserID, &l.OwnerNome, &l.Nome, &l.Email, &l.Telefone,
		&l.Origem, &l.Interesse, &l.StatusID, &l.StatusNome, &l.ObservacoesTotal,
		&l.CriadoEm, &l.AtualizadoEm,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}
