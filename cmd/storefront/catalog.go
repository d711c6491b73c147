package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	appcatalog "github.com/abarrotes/storefront/internal/application/catalog"
	"github.com/abarrotes/storefront/internal/domain/catalog"
	"github.com/abarrotes/storefront/internal/domain/shared"
)

// storeOrSession resolves --store, defaulting to the session's store
func (a *app) storeOrSession(ctx context.Context, store string) (catalog.TenantID, error) {
	if store != "" {
		return catalog.ParseTenant(store)
	}
	session, err := a.sessions.Require(ctx)
	if err != nil {
		return "", err
	}
	return session.TenantID, nil
}

// loadPages loads the first page of tenant's catalog and up to pages-1 more.
// pages <= 0 loads everything.
func (a *app) loadPages(ctx context.Context, tenant catalog.TenantID, pages int) error {
	if err := a.catalog.Load(ctx, tenant); err != nil {
		return err
	}
	for n := 1; a.catalog.HasMore() && (pages <= 0 || n < pages); n++ {
		if err := a.catalog.LoadMore(ctx); err != nil {
			return err
		}
	}
	return nil
}

func newShopsCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "shops",
		Short:   "List the stores",
		GroupID: "shop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			newPrinter(env, cmd.OutOrStdout()).shops(catalog.Tenants())
			return nil
		},
	}
}

func newProductsCommand(env *environment) *cobra.Command {
	var (
		store string
		pages int
	)
	cmd := &cobra.Command{
		Use:     "products",
		Short:   "List a store's products",
		GroupID: "shop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tenant, err := a.storeOrSession(ctx, store)
			if err != nil {
				return err
			}
			if err := a.loadPages(ctx, tenant, pages); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			newPrinter(env, out).products(a.catalog.Products(), a.catalog.DisplayStock)
			if a.catalog.HasMore() {
				fmt.Fprintln(out, "More products are available; use --pages to load them")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&store, "store", "s", "", "store id (defaults to the session's store)")
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load; 0 loads all")
	return cmd
}

func newSearchCommand(env *environment) *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:     "search <text>",
		Short:   "Search a store's whole catalog",
		GroupID: "shop",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tenant, err := a.storeOrSession(ctx, store)
			if err != nil {
				return err
			}
			if err := a.loadPages(ctx, tenant, env.cfg.Catalog.MaxStockPages); err != nil {
				return err
			}
			found := a.catalog.Search(strings.Join(args, " "))
			newPrinter(env, cmd.OutOrStdout()).products(found, a.catalog.DisplayStock)
			return nil
		},
	}
	cmd.Flags().StringVarP(&store, "store", "s", "", "store id (defaults to the session's store)")
	return cmd
}

func newAdminCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "admin",
		Short:   "Manage the products of your store (administrators only)",
		GroupID: "admin",
	}
	cmd.AddCommand(newAdminCreateCommand(env), newAdminDeleteCommand(env), newAdminStockCommand(env))
	return cmd
}

// adminTenant is the store an administrator manages: their own
func (a *app) adminTenant(ctx context.Context) (catalog.TenantID, error) {
	return a.storeOrSession(ctx, "")
}

func newAdminCreateCommand(env *environment) *cobra.Command {
	var (
		input appcatalog.CreateProductInput
		price string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := decimal.NewFromString(price)
			if err != nil {
				return shared.ErrInvalidInput.WithMessage("precio: must be a number")
			}
			input.Price = p
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tenant, err := a.adminTenant(ctx)
			if err != nil {
				return err
			}
			if err := a.catalog.CreateProduct(ctx, tenant, input); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s created at %s\n", input.Name, tenant.DisplayName())
			return nil
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&input.Name, "name", "", "product name")
	flags.StringVar(&price, "price", "", "unit price in soles, e.g. 4.50")
	flags.IntVar(&input.Stock, "stock", 0, "initial stock")
	flags.StringVar(&input.Category, "category", "", "category")
	flags.StringVar(&input.Description, "description", "", "description")
	flags.StringVar(&input.Image, "image", "", "image URL")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newAdminDeleteCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tenant, err := a.adminTenant(ctx)
			if err != nil {
				return err
			}
			if err := a.catalog.DeleteProduct(ctx, tenant, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Product %s deleted\n", args[0])
			return nil
		},
	}
}

func newAdminStockCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "stock <product-id> <stock>",
		Short: "Set a product's stock",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			stock, err := strconv.Atoi(args[1])
			if err != nil {
				return shared.ErrInvalidInput.WithMessage("stock: must be a whole number")
			}
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			tenant, err := a.adminTenant(ctx)
			if err != nil {
				return err
			}
			if err := a.catalog.UpdateStock(ctx, tenant, appcatalog.UpdateStockInput{ProductID: args[0], Stock: stock}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stock of %s set to %d\n", args[0], stock)
			return nil
		},
	}
}
