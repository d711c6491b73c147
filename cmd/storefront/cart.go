package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abarrotes/storefront/internal/domain/shared"
)

func newCartCommand(env *environment) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cart",
		Short:   "Show and change the cart",
		GroupID: "shop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return showCart(env, cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the cart",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return showCart(env, cmd)
			},
		},
		newCartAddCommand(env),
		newCartSetCommand(env),
		newCartRemoveCommand(env),
		newCartVerifyCommand(env),
		newCartClearCommand(env),
	)
	return cmd
}

func showCart(env *environment, cmd *cobra.Command) error {
	a, err := env.open(cmd)
	if err != nil {
		return err
	}
	newPrinter(env, cmd.OutOrStdout()).cart(a.cart.Snapshot())
	return nil
}

func newCartAddCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id> [times]",
		Short: "Put one unit (or several) of a product of your store in the cart",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			times := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return shared.ErrInvalidInput.WithMessage("times: must be a positive whole number")
				}
				times = n
			}
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			session, err := a.sessions.Require(ctx)
			if err != nil {
				return err
			}
			product, err := a.catalog.LiveStock(ctx, session.TenantID, args[0])
			if err != nil {
				return err
			}
			added := 0
			for range times {
				if _, err := a.cart.Add(ctx, product); err != nil {
					if added > 0 {
						fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s\n", added, product.Name)
					}
					return err
				}
				added++
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %d x %s; %d in the cart\n", added, product.Name, a.cart.Reserved(product.ID))
			return nil
		},
	}
}

func newCartSetCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "set <product-id> <quantity>",
		Short: "Set the quantity of a cart line; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return shared.ErrInvalidInput.WithMessage("quantity: must be a whole number")
			}
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			if _, err := a.cart.UpdateQuantity(cmd.Context(), args[0], qty); err != nil {
				return err
			}
			newPrinter(env, cmd.OutOrStdout()).cart(a.cart.Snapshot())
			return nil
		},
	}
}

func newCartRemoveCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "remove <product-id>",
		Aliases: []string{"rm"},
		Short:   "Remove a cart line",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			if err := a.cart.Remove(cmd.Context(), args[0]); err != nil {
				return err
			}
			newPrinter(env, cmd.OutOrStdout()).cart(a.cart.Snapshot())
			return nil
		},
	}
}

func newCartVerifyCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the cart against live stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			report, err := a.cart.VerifyStock(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(env, cmd.OutOrStdout())
			p.stockReport(report)
			p.cart(a.cart.Snapshot())
			return nil
		},
	}
}

func newCartClearCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the local cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			a.cart.Clear(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "The cart is empty")
			return nil
		},
	}
}

func newCheckoutCommand(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:     "checkout",
		Short:   "Buy the cart",
		GroupID: "shop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			receipt, err := a.checkout.Confirm(cmd.Context())
			if err != nil {
				return err
			}
			newPrinter(env, cmd.OutOrStdout()).receipt(receipt)
			return nil
		},
	}
}

func newHistoryCommand(env *environment) *cobra.Command {
	var pages int
	cmd := &cobra.Command{
		Use:     "history",
		Short:   "List past purchases",
		GroupID: "shop",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := env.open(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if err := a.history.Load(ctx); err != nil {
				return err
			}
			for n := 1; a.history.HasMore() && (pages <= 0 || n < pages); n++ {
				if err := a.history.LoadMore(ctx); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			newPrinter(env, out).purchases(a.history.Records())
			if a.history.HasMore() {
				fmt.Fprintln(out, "Older purchases are available; use --pages to load them")
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "number of pages to load; 0 loads all")
	return cmd
}
