package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewProductsCmd создаёт группу команд для стандартизированных товаров.
func NewProductsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Query standardized products",
	}

	cmd.AddCommand(newProductsFindCmd(clientFn, outputFn))

	return cmd
}

func newProductsFindCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		name  string
		value string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Find products by standardized attribute",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			result, err := client.FindProducts(name, value, limit)
			if err != nil {
				return err
			}

			headers := []string{"OLD_ID", "COLLECTION", "TITLE", "OKPD2", "ATTRS"}
			rows := make([][]string, len(result.Products))
			for i, p := range result.Products {
				rows[i] = []string{
					p.OldMongoID,
					p.CollectionName,
					p.Title,
					p.OKPD2Code,
					strconv.Itoa(len(p.StandardizedAttributes)),
				}
			}

			out.Print(headers, rows, result)
			out.Success(fmt.Sprintf("%d products found", result.Count))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Standardized attribute name (required)")
	cmd.Flags().StringVar(&value, "value", "", "Standardized attribute value")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of products")
	cmd.MarkFlagRequired("name")

	return cmd
}
