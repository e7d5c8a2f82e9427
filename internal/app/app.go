// Package app assembles repositories, storage, LLM providers and services
// from configuration. Both the HTTP server and the CLI build on it.
package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"facturaia/internal/config"
	"facturaia/internal/llm"
	"facturaia/internal/llm/providers"
	"facturaia/internal/logger"
	"facturaia/internal/pdftext"
	"facturaia/internal/port"
	"facturaia/internal/repository/postgres"
	"facturaia/internal/service"
	"facturaia/internal/storage/local"
	s3storage "facturaia/internal/storage/s3"
)

// Repositories holds the persistence layer.
type Repositories struct {
	Users     port.UserRepository
	Companies port.CompanyRepository
	Contacts  port.ContactRepository
	Invoices  port.InvoiceRepository
	Payments  port.PaymentRepository
	Reports   port.ReportRepository
}

// Services holds the business layer.
type Services struct {
	Auth      service.AuthService
	Users     service.UserService
	Companies service.CompanyService
	Contacts  service.ContactService
	Invoices  service.InvoiceService
	Ingestion service.IngestionService
	Assistant service.AssistantService
	Reports   service.ReportService
}

// App is a fully wired application.
type App struct {
	Config   *config.Config
	DB       *sqlx.DB
	Repos    Repositories
	Storage  port.ObjectStorage
	LLM      *llm.Chain
	Services Services

	log zerolog.Logger
}

// New connects to the database and object storage and builds every service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	log := logger.WithComponent("app")

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	storage, err := NewStorage(ctx, cfg)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	chain, err := providers.NewChain(cfg.LLM)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize llm providers: %w", err)
	}

	repos := Repositories{
		Users:     postgres.NewUserRepo(db),
		Companies: postgres.NewCompanyRepo(db),
		Contacts:  postgres.NewContactRepo(db),
		Invoices:  postgres.NewInvoiceRepo(db),
		Payments:  postgres.NewPaymentRepo(db),
		Reports:   postgres.NewReportRepo(db),
	}

	a := &App{
		Config:  cfg,
		DB:      db,
		Repos:   repos,
		Storage: storage,
		LLM:     chain,
		log:     log,
	}
	a.Services = buildServices(cfg, repos, storage, chain)

	log.Info().
		Str("storage", cfg.Storage.Backend).
		Strs("llm_order", cfg.LLM.Order).
		Msg("app: initialized")
	return a, nil
}

func buildServices(cfg *config.Config, repos Repositories, storage port.ObjectStorage, chain port.LLMClient) Services {
	return Services{
		Auth:      service.NewAuthService(repos.Users, repos.Companies, cfg.JWT),
		Users:     service.NewUserService(repos.Users),
		Companies: service.NewCompanyService(repos.Companies),
		Contacts:  service.NewContactService(repos.Contacts),
		Invoices: service.NewInvoiceService(
			repos.Invoices, repos.Contacts, repos.Companies, repos.Payments, storage, &cfg.Storage.S3,
		),
		Ingestion: service.NewIngestionService(
			pdftext.NewExtractor(), chain, repos.Companies, repos.Contacts, repos.Invoices, storage, &cfg.Storage.S3,
		),
		Assistant: service.NewAssistantService(chain, repos.Companies, repos.Contacts, repos.Invoices, repos.Reports),
		Reports:   service.NewReportService(repos.Reports, repos.Invoices, repos.Companies),
	}
}

// NewStorage returns the configured object storage backend. The "none"
// backend disables file retention and yields a nil storage.
func NewStorage(ctx context.Context, cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return local.NewStore(cfg.Storage.LocalRoot)
	case "s3":
		return s3storage.NewStore(ctx, &cfg.Storage.S3)
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// Close releases the database pool.
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		a.log.Error().Err(err).Msg("app: closing database")
	}
}
