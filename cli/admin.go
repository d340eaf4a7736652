package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"storefront/models"
	"storefront/services"
)

func createAdminCmd(configPath *string) *cobra.Command {
	var in services.RegisterInput

	c := &cobra.Command{
		Use:   "create-admin",
		Short: "Create a user with the admin role",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			users := services.NewUserService(a.db, nil)
			user, err := users.Register(cmd.Context(), in, models.RoleAdmin)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}

	c.Flags().StringVarP(&in.Username, "username", "u", "", "admin username (required)")
	c.Flags().StringVarP(&in.Email, "email", "e", "", "admin email (required)")
	c.Flags().StringVarP(&in.Password, "password", "p", "", "admin password (required)")
	c.Flags().StringVar(&in.Name, "name", "", "display name")

	_ = c.MarkFlagRequired("username")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}

func createTenantCmd(configPath *string) *cobra.Command {
	var slug, name, currency string

	c := &cobra.Command{
		Use:   "create-tenant",
		Short: "Create a storefront tenant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(*configPath, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if name == "" {
				name = slug
			}
			if currency == "" {
				currency = a.cfg.Payment.Currency
			}

			tenant, err := services.NewTenantService(a.db).Create(cmd.Context(), slug, name, currency)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "tenant %s (id %d, %s)\n", tenant.Slug, tenant.ID, tenant.Currency)
			return nil
		},
	}

	c.Flags().StringVarP(&slug, "slug", "s", "", "tenant slug used in the X-Tenant header or host (required)")
	c.Flags().StringVarP(&name, "name", "n", "", "display name")
	c.Flags().StringVar(&currency, "currency", "", "ISO 4217 currency code (defaults to payment.currency)")

	_ = c.MarkFlagRequired("slug")
	return c
}
