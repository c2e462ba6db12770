package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Skotchmaster/rocketshoes/internal/cart"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the products in the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(_ context.Context, s *cart.Store) error {
				printCart(opts, s)
				return nil
			})
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add one unit of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, s *cart.Store) error {
				if err := s.AddProduct(ctx, id); err != nil {
					return err
				}
				printCart(opts, s)
				return nil
			})
		},
	}
}

func newRemoveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return opts.withStore(cmd, func(ctx context.Context, s *cart.Store) error {
				if err := s.RemoveProduct(ctx, id); err != nil {
					return err
				}
				printCart(opts, s)
				return nil
			})
		},
	}
}

func newUpdateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <amount>",
		Short: "Set the amount of a product already in the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			amount, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("amount %q is not an integer", args[1])
			}
			return opts.withStore(cmd, func(ctx context.Context, s *cart.Store) error {
				if err := s.UpdateProductAmount(ctx, id, amount); err != nil {
					return err
				}
				printCart(opts, s)
				return nil
			})
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Print item count, units and total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withStore(cmd, func(_ context.Context, s *cart.Store) error {
				sum := s.Summary()
				fmt.Fprintf(opts.out, "items: %d\nunits: %d\ntotal: %.2f\n", sum.Items, sum.Units, sum.Total)
				return nil
			})
		},
	}
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("product id %q is not an integer", arg)
	}
	return id, nil
}

func printCart(opts *options, s *cart.Store) {
	items := s.Cart()
	if len(items) == 0 {
		fmt.Fprintln(opts.out, "cart is empty")
		return
	}

	tw := tabwriter.NewWriter(opts.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tAMOUNT\tPRICE")
	for _, p := range items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\n", p.ID, p.Title, p.Amount, p.Price)
	}
	tw.Flush()
}
