package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/storefront-backend/internal/catalog"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/env"
	"github.com/angelmondragon/storefront-backend/pkg/fakestore"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

type cliOptions struct {
	baseURL  string
	timeout  time.Duration
	logLevel string
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Browse the storefront catalog from the terminal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetOut(out)
	root.SetErr(errOut)

	root.PersistentFlags().StringVar(&opts.baseURL, "catalog-url",
		env.Get(config.EnvCatalogBaseURL, fakestore.DefaultBaseURL), "catalog service base url")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout",
		env.Duration(config.EnvCatalogTimeout, 10*time.Second), "catalog request timeout")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level",
		env.Get(config.EnvLogLevel, "warn"), "log level written to stderr")

	root.AddCommand(
		newCategoriesCmd(opts),
		newProductsCmd(opts),
		newProductCmd(opts),
	)
	return root
}

func newCategoriesCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List catalog categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			categories, err := engine.LoadCategories(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), categories)
		},
	}
}

func newProductsCmd(opts *cliOptions) *cobra.Command {
	var (
		categories []string
		sort       string
	)
	cmd := &cobra.Command{
		Use:   "products",
		Short: "List products, optionally filtered by category and sorted by price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			filter := catalog.ParseFilterSort(url.Values{
				catalog.QueryCategory: categories,
				catalog.QuerySort:     {sort},
			})
			products, err := engine.LoadProducts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), products)
		},
	}
	cmd.Flags().StringArrayVar(&categories, "category", nil, "category to include (repeatable, order is kept)")
	cmd.Flags().StringVar(&sort, "sort", string(catalog.SortAscending), "price order: asc or desc")
	return cmd
}

func newProductCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "product <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("product id must be numeric: %w", catalog.ErrProductNotFound)
			}
			engine, err := opts.engine(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			product, err := engine.LoadProduct(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), product)
		},
	}
}

func (o *cliOptions) engine(errOut io.Writer) (*catalog.Engine, error) {
	client, err := fakestore.NewClient(o.baseURL, fakestore.WithTimeout(o.timeout))
	if err != nil {
		return nil, err
	}
	logg := logger.New(logger.Options{
		ServiceName: "storefront-cli",
		Level:       logger.ParseLevel(o.logLevel),
		Format:      "console",
		Output:      errOut,
	})
	return catalog.NewEngine(client, logg, nil)
}

func printJSON(out io.Writer, value any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
