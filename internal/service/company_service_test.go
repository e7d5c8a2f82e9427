package service_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturaia/internal/domain"
	"facturaia/internal/service"
	"facturaia/mocks"
)

func strPtr(s string) *string { return &s }

func superAdmin() domain.Actor {
	return domain.Actor{UserID: uuid.New(), Role: domain.RoleSuperAdmin}
}

func TestCompanyService_Create_SuperAdminOnly(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	companyID := uuid.New()

	_, err := svc.Create(context.Background(),
		domain.Actor{UserID: uuid.New(), CompanyID: &companyID, Role: domain.RoleAdmin},
		service.CreateCompanyInput{Name: "X", TaxID: "XAXX010101000"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCompanyService_Create_Defaults(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	c, err := svc.Create(context.Background(), superAdmin(),
		service.CreateCompanyInput{Name: " Nueva ", TaxID: "xaxx010101000"})
	require.NoError(t, err)
	assert.Equal(t, "Nueva", c.Name)
	assert.Equal(t, "XAXX010101000", c.TaxID)
	assert.Equal(t, domain.DefaultCurrency, c.DefaultCurrency)
	assert.Equal(t, "16", c.DefaultTaxRate.String())
	assert.Equal(t, "F", c.InvoicePrefix)
	assert.True(t, c.IsActive)
}

func TestCompanyService_Get_ForeignCompanyIsNotFound(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	own := uuid.New()

	_, err := svc.Get(context.Background(),
		domain.Actor{UserID: uuid.New(), CompanyID: &own, Role: domain.RoleUser}, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)
	repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestCompanyService_Get_MasksKeys(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&domain.Company{
		ID: id, AIConfig: domain.AIConfig{GroqKey: "gsk-abcdef123456"},
	}, nil)

	c, err := svc.Get(context.Background(), superAdmin(), id)
	require.NoError(t, err)
	assert.Equal(t, "****3456", c.AIConfig.GroqKey)
}

func TestCompanyService_UpdateConfig(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&domain.Company{
		ID: id,
		AIConfig: domain.AIConfig{
			GroqKey:   "gsk-original-9999",
			GeminiKey: "gem-original-8888",
		},
	}, nil)

	var saved *domain.Company
	repo.On("Update", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		c := *args.Get(1).(*domain.Company)
		saved = &c
	}).Return(nil)

	admin := domain.Actor{UserID: uuid.New(), CompanyID: &id, Role: domain.RoleAdmin}
	resp, err := svc.UpdateConfig(context.Background(), admin, id, service.UpdateConfigInput{
		SelectedProvider: strPtr("gemini"),
		GroqKey:          strPtr("****9999"),
		GeminiKey:        strPtr(""),
		OpenAIKey:        strPtr("sk-new-key-7777"),
	})
	require.NoError(t, err)

	require.NotNil(t, saved)
	assert.Equal(t, "gemini", saved.AIConfig.SelectedProvider)
	assert.Equal(t, "gsk-original-9999", saved.AIConfig.GroqKey)
	assert.Empty(t, saved.AIConfig.GeminiKey)
	assert.Equal(t, "sk-new-key-7777", saved.AIConfig.OpenAIKey)

	assert.Equal(t, "****9999", resp.AIConfig.GroqKey)
	assert.Equal(t, "****7777", resp.AIConfig.OpenAIKey)
}

func TestCompanyService_UpdateConfig_UnknownProvider(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&domain.Company{ID: id}, nil)

	_, err := svc.UpdateConfig(context.Background(), superAdmin(), id,
		service.UpdateConfigInput{SelectedProvider: strPtr("skynet")})
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestCompanyService_Update_RequiresManager(t *testing.T) {
	repo := new(mocks.MockCompanyRepo)
	svc := service.NewCompanyService(repo)
	id := uuid.New()

	_, err := svc.Update(context.Background(),
		domain.Actor{UserID: uuid.New(), CompanyID: &id, Role: domain.RoleUser}, id,
		service.UpdateCompanyInput{Name: strPtr("Otro")})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}
