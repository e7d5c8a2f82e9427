package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"facturaia/internal/domain"
	"facturaia/internal/port"
	"facturaia/internal/service"
	"facturaia/mocks"
)

func TestIngestFiles(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "a.pdf")
	dup := filepath.Join(dir, "b.pdf")
	require.NoError(t, os.WriteFile(good, []byte("%PDF a"), 0o644))
	require.NoError(t, os.WriteFile(dup, []byte("%PDF b"), 0o644))
	missing := filepath.Join(dir, "missing.pdf")

	companyID := uuid.New()
	svc := new(mocks.MockIngestionService)
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(in service.IngestInput) bool {
		return in.Filename == "a.pdf" && in.CompanyID != nil && *in.CompanyID == companyID && in.Actor == nil
	})).Return(&service.IngestResult{Invoice: &domain.Invoice{ID: uuid.New(), Number: "A-1"}, Provider: "groq"}, nil)
	svc.On("Ingest", mock.Anything, mock.MatchedBy(func(in service.IngestInput) bool {
		return in.Filename == "b.pdf"
	})).Return(&service.IngestResult{Invoice: &domain.Invoice{ID: uuid.New(), Number: "A-1"}, IsDuplicate: true}, nil)

	var out bytes.Buffer
	err := ingestFiles(context.Background(), svc, &companyID, []string{good, dup, missing}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 3 files failed")

	var lines []ingestLine
	sc := bufio.NewScanner(&out)
	for sc.Scan() {
		var l ingestLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &l))
		lines = append(lines, l)
	}
	require.Len(t, lines, 3)
	assert.Equal(t, "processed", lines[0].Status)
	assert.Equal(t, "groq", lines[0].Provider)
	assert.Equal(t, "duplicate", lines[1].Status)
	assert.Equal(t, "error", lines[2].Status)
	assert.NotEmpty(t, lines[2].Error)
}

func TestPrintStatus(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printStatus(&out, []port.ProviderStatus{
		{Name: "groq", Model: "llama-3.3-70b-versatile", Configured: true, Available: true},
		{Name: "gemini", Model: "gemini-2.0-flash", Error: "missing api key"},
	}))

	rows := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, rows, 3)
	assert.True(t, strings.HasPrefix(rows[0], "PROVIDER"))
	assert.Contains(t, rows[1], "groq")
	assert.Contains(t, rows[1], "yes")
	assert.Contains(t, rows[2], "missing api key")
}

func TestSeed(t *testing.T) {
	seedOpts.companyName = "Mi Empresa"
	seedOpts.taxID = "XAXX010101000"
	seedOpts.superEmail = "root@facturaia.mx"
	seedOpts.superPassword = "password123"
	seedOpts.adminEmail = "admin@miempresa.mx"
	seedOpts.adminPassword = "password123"
	t.Cleanup(func() { seedOpts.adminEmail = "" })

	system := domain.Actor{Role: domain.RoleSuperAdmin}
	company := &domain.Company{ID: uuid.New(), Name: "Mi Empresa"}

	companies := new(mocks.MockCompanyService)
	users := new(mocks.MockUserService)
	companies.On("Create", mock.Anything, system, service.CreateCompanyInput{Name: "Mi Empresa", TaxID: "XAXX010101000"}).
		Return(company, nil)
	users.On("Create", mock.Anything, system, mock.MatchedBy(func(in service.CreateUserInput) bool {
		return in.Role == domain.RoleSuperAdmin && in.CompanyID == nil
	})).Return(nil, domain.ErrDuplicateEmail)
	users.On("Create", mock.Anything, system, mock.MatchedBy(func(in service.CreateUserInput) bool {
		return in.Role == domain.RoleAdmin && in.CompanyID != nil && *in.CompanyID == company.ID
	})).Return(&domain.User{Email: "admin@miempresa.mx", Role: domain.RoleAdmin}, nil)

	var out bytes.Buffer
	require.NoError(t, seed(context.Background(), companies, users, &out))

	assert.Contains(t, out.String(), "company Mi Empresa")
	assert.Contains(t, out.String(), "user root@facturaia.mx already exists")
	assert.Contains(t, out.String(), "admin admin@miempresa.mx created")
	companies.AssertExpectations(t)
	users.AssertExpectations(t)
}
