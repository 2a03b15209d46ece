package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/auth"
	"github.com/imobilead/api/internal/usuario"
)

var (
	// ErrInvalidCredentials indica falha na autenticação.
	ErrInvalidCredentials = errors.New("credenciais inválidas")
	// ErrAccountDisabled indica conta desativada.
	ErrAccountDisabled = errors.New("conta desativada")
	// ErrRefreshInvalid indica refresh token inválido ou expirado.
	ErrRefreshInvalid = errors.New("refresh token inválido")
)

type userDirectory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*usuario.Usuario, error)
	GetByEmail(ctx context.Context, email string) (*usuario.Usuario, error)
}

type redisCommander interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// AuthService concentra regras de autenticação e sessões.
type AuthService struct {
	usuarios   userDirectory
	pool       *pgxpool.Pool
	redis      redisCommander
	jwt        *auth.JWTManager
	recorder   *audit.Recorder
	refreshTTL time.Duration
}

func NewAuthService(usuarios userDirectory, pool *pgxpool.Pool, redisClient *redis.Client, jwtMgr *auth.JWTManager, recorder *audit.Recorder, refreshTTL time.Duration) *AuthService {
	return &AuthService{
		usuarios:   usuarios,
		pool:       pool,
		redis:      redisClient,
		jwt:        jwtMgr,
		recorder:   recorder,
		refreshTTL: refreshTTL,
	}
}

// JWT expõe o gerenciador de tokens (útil em middlewares).
func (s *AuthService) JWT() *auth.JWTManager {
	return s.jwt
}

// LoginResult representa o retorno padrão de autenticações.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	Usuario      *usuario.Usuario
}

// Login autentica por e-mail e senha e abre uma sessão com refresh token.
func (s *AuthService) Login(ctx context.Context, email, senha string, meta audit.Meta) (*LoginResult, error) {
	user, err := s.usuarios.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, usuario.ErrNotFound) {
			log.Warn().Msg("login: usuário não encontrado")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := auth.Verify(senha, user.SenhaHash)
	if err != nil {
		log.Warn().Err(err).Msg("login: verificação de senha falhou")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if user.Status != usuario.StatusAtivo {
		return nil, ErrAccountDisabled
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionLogin,
		EntityType:  "Usuario",
		EntityID:    user.ID,
		Descricao:   "sessão iniciada",
		ActorUserID: user.ID,
		TenantID:    user.TenantID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	}); err != nil {
		log.Warn().Err(err).Msg("login: falha ao auditar")
	}

	return result, nil
}

// Refresh troca um refresh token válido por uma sessão nova, revogando o
// anterior (rotação de token).
func (s *AuthService) Refresh(ctx context.Context, rawToken string) (*LoginResult, error) {
	if rawToken == "" {
		return nil, ErrRefreshInvalid
	}

	hash := auth.HashRefreshToken(rawToken)

	var (
		subject   uuid.UUID
		expiracao time.Time
		revogado  bool
	)
	err := s.pool.QueryRow(ctx,
		"SELECT usuario_id, expiracao, revogado FROM refresh_tokens WHERE token_hash = $1",
		hash,
	).Scan(&subject, &expiracao, &revogado)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRefreshInvalid
		}
		return nil, err
	}

	if revogado || time.Now().UTC().After(expiracao) {
		return nil, ErrRefreshInvalid
	}

	redisKey := auth.RefreshRedisKey(hash)
	status, err := s.redis.Get(ctx, redisKey).Result()
	if err == redis.Nil {
		return nil, ErrRefreshInvalid
	}
	if err != nil {
		return nil, err
	}
	if status != "active" {
		return nil, ErrRefreshInvalid
	}

	user, err := s.usuarios.GetByID(ctx, subject)
	if err != nil {
		return nil, err
	}
	if user.Status != usuario.StatusAtivo {
		return nil, ErrAccountDisabled
	}

	result, err := s.openSession(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.revokeToken(ctx, hash); err != nil {
		return nil, err
	}

	return result, nil
}

// Logout revoga o refresh token atual e audita o encerramento.
func (s *AuthService) Logout(ctx context.Context, actorID uuid.UUID, rawToken string, meta audit.Meta) error {
	if rawToken != "" {
		if err := s.revokeToken(ctx, auth.HashRefreshToken(rawToken)); err != nil {
			return err
		}
	}

	if err := s.recorder.Record(ctx, audit.Entry{
		Action:      audit.ActionLogout,
		EntityType:  "Usuario",
		EntityID:    actorID,
		Descricao:   "sessão encerrada",
		ActorUserID: actorID,
		IPAddress:   meta.IP,
		UserAgent:   meta.UserAgent,
	}); err != nil {
		log.Warn().Err(err).Msg("logout: falha ao auditar")
	}
	return nil
}

// Me devolve o perfil do usuário autenticado.
func (s *AuthService) Me(ctx context.Context, subject uuid.UUID) (*usuario.Usuario, error) {
	return s.usuarios.GetByID(ctx, subject)
}

func (s *AuthService) openSession(ctx context.Context, user *usuario.Usuario) (*LoginResult, error) {
	token, _, err := s.jwt.GenerateAccessToken(user.ID, user.Role, user.TenantID, user.TeamID)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	expires := time.Now().UTC().Add(s.refreshTTL)
	if err := s.persistRefresh(ctx, user.ID, refreshHash, expires); err != nil {
		return nil, err
	}

	return &LoginResult{
		AccessToken:  token,
		RefreshToken: rawRefresh,
		ExpiresIn:    s.jwt.AccessTTL(),
		Usuario:      user,
	}, nil
}

func (s *AuthService) persistRefresh(ctx context.Context, subject uuid.UUID, hash string, expires time.Time) error {
	_, err := s.pool.Exec(ctx,
		"INSERT INTO refresh_tokens (usuario_id, token_hash, expiracao) VALUES ($1, $2, $3)",
		subject, hash, expires,
	)
	if err != nil {
		return err
	}

	// uma sessão viva por usuário: tokens antigos são revogados
	_, err = s.pool.Exec(ctx,
		"UPDATE refresh_tokens SET revogado = true WHERE usuario_id = $1 AND token_hash <> $2 AND NOT revogado",
		subject, hash,
	)
	if err != nil {
		return err
	}

	return s.redis.Set(ctx, auth.RefreshRedisKey(hash), "active", time.Until(expires)).Err()
}

func (s *AuthService) revokeToken(ctx context.Context, hash string) error {
	if _, err := s.pool.Exec(ctx, "UPDATE refresh_tokens SET revogado = true WHERE token_hash = $1", hash); err != nil {
		return err
	}
	if err := s.redis.Del(ctx, auth.RefreshRedisKey(hash)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}
