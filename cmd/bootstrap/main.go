package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/imobilead/api/internal/audit"
	"github.com/imobilead/api/internal/authz"
	"github.com/imobilead/api/internal/db"
	"github.com/imobilead/api/internal/imobiliaria"
	"github.com/imobilead/api/internal/status"
	"github.com/imobilead/api/internal/usuario"
)

// etapas criadas por padrão para uma imobiliária nova; o catálogo fica
// livre para o admin renomear ou apagar depois.
var etapasPadrao = []struct {
	nome string
	cor  string
}{
	{"Novo", "#3b82f6"},
	{"Em atendimento", "#eab308"},
	{"Visita agendada", "#8b5cf6"},
	{"Proposta", "#f97316"},
	{"Fechado", "#22c55e"},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	var (
		nome       = flag.String("nome", "", "nome da imobiliária")
		email      = flag.String("email", "", "e-mail administrativo da imobiliária")
		adminNome  = flag.String("admin-nome", "", "nome do primeiro administrador")
		adminEmail = flag.String("admin-email", "", "e-mail do primeiro administrador")
		adminSenha = flag.String("admin-senha", "", "senha do primeiro administrador")
		semEtapas  = flag.Bool("sem-etapas", false, "não criar o funil padrão")
	)
	flag.Parse()

	if *nome == "" || *adminNome == "" || *adminEmail == "" || *adminSenha == "" {
		flag.Usage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		log.Fatal().Msg("defina DB_DSN ou DATABASE_URL")
	}

	ctx := context.Background()

	pool, err := db.NewPool(ctx, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("não foi possível conectar ao banco")
	}
	defer pool.Close()

	recorder := audit.NewRecorder(pool)
	imobService := imobiliaria.NewService(imobiliaria.NewRepository(pool, recorder))
	userService := usuario.NewService(usuario.NewRepository(pool, recorder))
	statusService := status.NewService(status.NewRepository(pool, recorder))

	// operador de bootstrap age como SUPER_ADMIN sem vínculo
	principal := authz.Principal{Role: authz.RoleSuperAdmin}
	meta := audit.Meta{IP: "127.0.0.1", UserAgent: "bootstrap"}

	imob, err := imobService.Create(ctx, principal, imobiliaria.CreateInput{
		Nome:  *nome,
		Email: emptyToNil(*email),
	}, meta)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar imobiliária")
	}
	log.Info().Str("id", imob.ID.String()).Msg("imobiliária criada")

	admin, err := userService.Create(ctx, principal, usuario.CreateInput{
		Nome:     *adminNome,
		Email:    *adminEmail,
		Senha:    *adminSenha,
		Role:     authz.RoleAdmin,
		TenantID: &imob.ID,
	}, meta)
	if err != nil {
		log.Fatal().Err(err).Msg("falha ao criar administrador")
	}
	log.Info().Str("id", admin.ID.String()).Msg("administrador criado")

	if !*semEtapas {
		for _, etapa := range etapasPadrao {
			if _, err := statusService.Create(ctx, principal, status.CreateInput{
				TenantID: &imob.ID,
				Nome:     etapa.nome,
				Cor:      etapa.cor,
			}, meta); err != nil {
				log.Fatal().Err(err).Str("etapa", etapa.nome).Msg("falha ao criar etapa")
			}
		}
		log.Info().Int("etapas", len(etapasPadrao)).Msg("funil padrão criado")
	}

	fmt.Printf("\nimobiliária: %s\nadmin: %s\n", imob.ID, admin.ID)
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
