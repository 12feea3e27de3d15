package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"google.golang.org/protobuf/types/known/structpb"
)

type queryFlags struct {
	page          int
	size          int
	sort          string
	direction     string
	search        string
	categoryID    int64
	clothing      string
	minPrice      string
	maxPrice      string
	favoritesOnly bool
}

var query queryFlags

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "List products with filters, sorting and pagination",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		req, err := query.request()
		if err != nil {
			return err
		}
		client, _, closeFn, err := dial()
		if err != nil {
			return err
		}
		defer closeFn()
		resp, err := client.QueryProducts(withUser(cmd.Context(), userFlag), req)
		if err != nil {
			return err
		}
		return printStruct(cmd.OutOrStdout(), resp)
	},
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a product",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := idRequest("id", args[0])
		if err != nil {
			return err
		}
		client, _, closeFn, err := dial()
		if err != nil {
			return err
		}
		defer closeFn()
		resp, err := client.GetProduct(withUser(cmd.Context(), userFlag), req)
		if err != nil {
			return err
		}
		return printStruct(cmd.OutOrStdout(), resp)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <id>",
	Short: "Add a product to the favorites of --user, or remove it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := idRequest("productId", args[0])
		if err != nil {
			return err
		}
		client, _, closeFn, err := dial()
		if err != nil {
			return err
		}
		defer closeFn()
		resp, err := client.ToggleFavorite(withUser(cmd.Context(), userFlag), req)
		if err != nil {
			return err
		}
		return printStruct(cmd.OutOrStdout(), resp)
	},
}

func init() {
	f := queryCmd.Flags()
	f.IntVar(&query.page, "page", 0, "Zero based page number")
	f.IntVar(&query.size, "size", 0, "Page size, server default when 0")
	f.StringVar(&query.sort, "sort", "", "Sort field: id, name, price or stock")
	f.StringVar(&query.direction, "direction", "", "Sort direction: asc or desc")
	f.StringVar(&query.search, "q", "", "Case-insensitive name search")
	f.Int64Var(&query.categoryID, "category", 0, "Category id")
	f.StringVar(&query.clothing, "clothing", "", "true or false to filter by clothing")
	f.StringVar(&query.minPrice, "min-price", "", "Lower price bound")
	f.StringVar(&query.maxPrice, "max-price", "", "Upper price bound")
	f.BoolVar(&query.favoritesOnly, "favorites", false, "Only favorites of --user")

	rootCmd.AddCommand(queryCmd, getCmd, toggleCmd)
}

// request builds the QueryProducts message. Unset flags are omitted.
func (q queryFlags) request() (*structpb.Struct, error) {
	fields := map[string]any{
		"page":          q.page,
		"size":          q.size,
		"favoritesOnly": q.favoritesOnly,
	}
	setIf := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	setIf("sort", q.sort)
	setIf("direction", q.direction)
	setIf("q", q.search)
	setIf("minPrice", q.minPrice)
	setIf("maxPrice", q.maxPrice)
	if q.categoryID != 0 {
		fields["categoryId"] = q.categoryID
	}
	if q.clothing != "" {
		clothing, err := strconv.ParseBool(q.clothing)
		if err != nil {
			return nil, fmt.Errorf("invalid --clothing value %q", q.clothing)
		}
		fields["clothing"] = clothing
	}
	return structpb.NewStruct(fields)
}

func idRequest(key, arg string) (*structpb.Struct, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("invalid product id %q", arg)
	}
	return structpb.NewStruct(map[string]any{key: id})
}
