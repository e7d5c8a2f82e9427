package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"facturaia/internal/app"
	"facturaia/internal/domain"
	"facturaia/internal/service"
)

var seedOpts struct {
	companyName   string
	taxID         string
	adminEmail    string
	adminPassword string
	superEmail    string
	superPassword string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a company, its admin and a super admin",
	Example: `  facturactl seed --company "Mi Empresa" --tax-id XAXX010101000 \
    --super-email root@facturaia.mx --super-password s3cret-pass`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.New(cmd.Context(), loaded)
		if err != nil {
			return err
		}
		defer a.Close()
		return seed(cmd.Context(), a.Services.Companies, a.Services.Users, cmd.OutOrStdout())
	},
}

func init() {
	f := seedCmd.Flags()
	f.StringVar(&seedOpts.companyName, "company", "Mi Empresa", "company name")
	f.StringVar(&seedOpts.taxID, "tax-id", "XAXX010101000", "company tax id (RFC)")
	f.StringVar(&seedOpts.adminEmail, "admin-email", "", "company admin email (skipped when empty)")
	f.StringVar(&seedOpts.adminPassword, "admin-password", "", "company admin password")
	f.StringVar(&seedOpts.superEmail, "super-email", "admin@facturaia.mx", "super admin email")
	f.StringVar(&seedOpts.superPassword, "super-password", "", "super admin password (required)")
	_ = seedCmd.MarkFlagRequired("super-password")
}

// seed is idempotent on the super admin and company admin emails. The
// company is created on every run that does not hit a tax id conflict.
func seed(ctx context.Context, companies service.CompanyService, users service.UserService, out io.Writer) error {
	system := domain.Actor{Role: domain.RoleSuperAdmin}

	company, err := companies.Create(ctx, system, service.CreateCompanyInput{
		Name:  seedOpts.companyName,
		TaxID: seedOpts.taxID,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicateTaxID):
		fmt.Fprintf(out, "company %s already exists\n", seedOpts.taxID)
	case err != nil:
		return fmt.Errorf("creating company: %w", err)
	default:
		fmt.Fprintf(out, "company %s (%s) created\n", company.Name, company.ID)
	}

	if err := seedUser(ctx, users, system, out, service.CreateUserInput{
		Email:     seedOpts.superEmail,
		Password:  seedOpts.superPassword,
		FirstName: "Super",
		LastName:  "Admin",
		Role:      domain.RoleSuperAdmin,
	}); err != nil {
		return err
	}

	if seedOpts.adminEmail == "" || company == nil {
		return nil
	}
	return seedUser(ctx, users, system, out, service.CreateUserInput{
		Email:     seedOpts.adminEmail,
		Password:  seedOpts.adminPassword,
		FirstName: "Admin",
		Role:      domain.RoleAdmin,
		CompanyID: &company.ID,
	})
}

func seedUser(ctx context.Context, users service.UserService, actor domain.Actor, out io.Writer, input service.CreateUserInput) error {
	user, err := users.Create(ctx, actor, input)
	if errors.Is(err, domain.ErrDuplicateEmail) {
		fmt.Fprintf(out, "user %s already exists\n", input.Email)
		return nil
	}
	if err != nil {
		return fmt.Errorf("creating %s %s: %w", input.Role, input.Email, err)
	}
	fmt.Fprintf(out, "%s %s created\n", user.Role, user.Email)
	return nil
}
