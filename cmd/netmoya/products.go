package main

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/five82/netmoya/internal/app"
	"github.com/five82/netmoya/internal/catalog"
)

func newProductsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "Manage catalogue products",
	}
	cmd.AddCommand(
		newProductsListCmd(c),
		newProductsGetCmd(c),
		newProductsCreateCmd(c),
		newProductsUpdateCmd(c),
		newProductsDeleteCmd(c),
		newProductsUploadCmd(c),
	)
	return cmd
}

func newProductsListCmd(c *cli) *cobra.Command {
	var query catalog.ListProducts
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List one page of products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				page, err := a.Products.List(ctx, query)
				if err != nil {
					return err
				}
				return c.render(page, func(w io.Writer) error { return writeProductList(w, page) })
			})
		},
	}
	cmd.Flags().IntVar(&query.Page, "page", catalog.DefaultPage, "page number, starting at 1")
	cmd.Flags().IntVar(&query.Limit, "limit", catalog.DefaultLimit, "products per page")
	cmd.Flags().StringVar(&query.Category, "category", "", "filter by category")
	cmd.Flags().StringVar(&query.Search, "search", "", "free-text search")
	return cmd
}

func newProductsGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				product, err := a.Products.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return c.render(product, func(w io.Writer) error { return writeProduct(w, product) })
			})
		},
	}
}

type productFlags struct {
	name, description, currency, category, sku string
	price                                      float64
	stock                                      int
}

func (f *productFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "product name")
	cmd.Flags().StringVar(&f.description, "description", "", "description")
	cmd.Flags().Float64Var(&f.price, "price", 0, "unit price")
	cmd.Flags().StringVar(&f.currency, "currency", "USD", "ISO currency code")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().IntVar(&f.stock, "stock", 0, "stock quantity")
	cmd.Flags().StringVar(&f.sku, "sku", "", "stock keeping unit")
}

func newProductsCreateCmd(c *cli) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := catalog.CreateProductRequest{
				Name:          f.name,
				Price:         f.price,
				Currency:      f.currency,
				Category:      f.category,
				StockQuantity: f.stock,
			}
			if cmd.Flags().Changed("description") {
				req.Description = &f.description
			}
			if cmd.Flags().Changed("sku") {
				req.SKU = &f.sku
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				product, err := a.Products.Create(ctx, req)
				if err != nil {
					return err
				}
				return c.render(product, func(w io.Writer) error { return writeProduct(w, product) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newProductsUpdateCmd(c *cli) *cobra.Command {
	var f productFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update the given fields of a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := cmd.Flags().Changed
			var req catalog.UpdateProductRequest
			if changed("name") {
				req.Name = &f.name
			}
			if changed("description") {
				req.Description = &f.description
			}
			if changed("price") {
				req.Price = &f.price
			}
			if changed("currency") {
				req.Currency = &f.currency
			}
			if changed("category") {
				req.Category = &f.category
			}
			if changed("stock") {
				req.StockQuantity = &f.stock
			}
			if changed("sku") {
				req.SKU = &f.sku
			}
			if req.Empty() {
				return errNothingToUpdate
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				product, err := a.Products.Update(ctx, args[0], req)
				if err != nil {
					return err
				}
				return c.render(product, func(w io.Writer) error { return writeProduct(w, product) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

type deleteResult struct {
	Deleted []string `json:"deleted" yaml:"deleted"`
}

func newProductsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id> [id...]",
		Short: "Delete one or more products",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				var err error
				if len(args) == 1 {
					err = a.Products.Delete(ctx, args[0])
				} else {
					err = a.Products.DeleteMany(ctx, args)
				}
				if err != nil {
					return err
				}
				result := deleteResult{Deleted: args}
				return c.render(result, func(w io.Writer) error {
					for _, id := range args {
						if _, err := fmt.Fprintf(w, "deleted %s\n", id); err != nil {
							return err
						}
					}
					return nil
				})
			})
		},
	}
}

func newProductsUploadCmd(c *cli) *cobra.Command {
	var mimeType string
	cmd := &cobra.Command{
		Use:   "upload-image <id> <file>",
		Short: "Upload a product image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			upload := catalog.UploadProductImage{
				ID:       args[0],
				Data:     data,
				FileName: filepath.Base(args[1]),
				MimeType: detectMimeType(mimeType, args[1], data),
			}
			return c.withApp(cmd, func(ctx context.Context, a *app.App) error {
				product, err := a.Products.UploadImage(ctx, upload)
				if err != nil {
					return err
				}
				return c.render(product, func(w io.Writer) error { return writeProduct(w, product) })
			})
		},
	}
	cmd.Flags().StringVar(&mimeType, "mime-type", "", "content type of the file (detected when empty)")
	return cmd
}

func detectMimeType(explicit, path string, data []byte) string {
	if explicit != "" {
		return explicit
	}
	if byExt := mime.TypeByExtension(filepath.Ext(path)); byExt != "" {
		return byExt
	}
	return http.DetectContentType(data)
}
