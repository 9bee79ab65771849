package main

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "adlist",
	Short: "ADList CLI",
	Long:  "A CLI for the ADList pharmacy inventory service.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		loadConfig()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", "table", "Output format: table, json, raw")
	rootCmd.PersistentFlags().StringVar(&outputField, "field", "", "Print only this field (use with -format=raw)")

	rootCmd.AddCommand(authCommand())
	rootCmd.AddCommand(pharmacyCommand())
	rootCmd.AddCommand(inventoryCommand())
	rootCmd.AddCommand(businessUnitCommand())
	rootCmd.AddCommand(formularyCommand())
}

// --- auth ---

func authCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Authentication commands"}

	loginCmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store the access token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			client := newClient()
			result, err := client.post("/v1/auth/login", map[string]any{
				"email": args[0], "password": password,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			if data, ok := result["data"].(map[string]any); ok {
				if tok, ok := data["access_token"].(string); ok {
					cfg.Token = tok
					if err := saveConfig(); err == nil {
						fmt.Fprintln(os.Stderr, "Token saved to config.")
					}
				}
				printResult(data)
				return nil
			}
			printResult(result)
			return nil
		},
	}
	loginCmd.Flags().String("password", "", "Account password")

	registerCmd := &cobra.Command{
		Use:   "register <email>",
		Short: "Register an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, _ := cmd.Flags().GetString("password")
			role, _ := cmd.Flags().GetString("role")
			client := newClient()
			result, err := client.post("/v1/auth/register", map[string]any{
				"email": args[0], "password": password, "role": role,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	registerCmd.Flags().String("password", "", "Account password")
	registerCmd.Flags().String("role", "admin", "Account role: admin, agent, pharmacist")

	cmd.AddCommand(loginCmd, registerCmd)
	return cmd
}

// --- pharmacy ---

func pharmacyCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "pharmacy", Short: "Pharmacy commands"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List pharmacies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/pharmacies")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	getCmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show one pharmacy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/pharmacies/" + args[0])
			if err != nil {
				printError(err.Error())
				return nil
			}
			if data, ok := result["data"].(map[string]any); ok {
				printResult(data)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Register a pharmacy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			email, _ := cmd.Flags().GetString("email")
			phone, _ := cmd.Flags().GetString("phone")
			location, _ := cmd.Flags().GetString("location")
			client := newClient()
			result, err := client.post("/v1/pharmacies", map[string]any{
				"name": args[0], "email_address": email,
				"phone_number": phone, "location": location,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	createCmd.Flags().String("email", "", "Pharmacist contact email (required)")
	createCmd.Flags().String("phone", "", "Phone number")
	createCmd.Flags().String("location", "", "Location")

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search pharmacies by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/search/pharmacies?query=" + url.QueryEscape(args[0]))
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	assignedCmd := &cobra.Command{
		Use:   "assigned",
		Short: "Show the pharmacy assigned to the logged-in pharmacist",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/pharmacies/assigned")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if data, ok := result["data"].(map[string]any); ok {
				printResult(data)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	cmd.AddCommand(listCmd, getCmd, createCmd, searchCmd, assignedCmd)
	return cmd
}

// --- inventory ---

func inventoryCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "inventory", Short: "Inventory commands"}

	fetchCmd := &cobra.Command{
		Use:   "fetch <pharmacy-id>",
		Short: "Fetch a pharmacy's inventory view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lapse, _ := cmd.Flags().GetString("time-lapse")
			start, _ := cmd.Flags().GetString("start-date")
			end, _ := cmd.Flags().GetString("end-date")
			onlyNew, _ := cmd.Flags().GetBool("only-new")
			query, _ := cmd.Flags().GetString("query")

			params := url.Values{}
			if lapse != "" {
				params.Set("time_lapse", lapse)
			}
			if start != "" {
				params.Set("start_date", start)
			}
			if end != "" {
				params.Set("end_date", end)
			}
			if onlyNew {
				params.Set("only_new", "true")
			}
			if query != "" {
				params.Set("query", query)
			}

			path := "/v1/pharmacies/" + args[0] + "/inventory"
			if encoded := params.Encode(); encoded != "" {
				path += "?" + encoded
			}

			client := newClient()
			result, err := client.get(path)
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}
	fetchCmd.Flags().String("time-lapse", "", "Time bucket: today, this_week, this_month, last_3_months, custom")
	fetchCmd.Flags().String("start-date", "", "Custom window start (YYYY-MM-DD)")
	fetchCmd.Flags().String("end-date", "", "Custom window end (YYYY-MM-DD)")
	fetchCmd.Flags().Bool("only-new", false, "Admin-only: restrict to products not in the reference list")
	fetchCmd.Flags().String("query", "", "Search query")

	stockCmd := &cobra.Command{
		Use:   "stock <pharmacy-id> <code>",
		Short: "Take stock of a product by NAFDAC number or bar code",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, _ := cmd.Flags().GetInt("quantity")
			quantityType, _ := cmd.Flags().GetString("quantity-type")
			sellingPrice, _ := cmd.Flags().GetFloat64("selling-price")
			costPrice, _ := cmd.Flags().GetFloat64("cost-price")

			client := newClient()
			result, err := client.post("/v1/pharmacies/"+args[0]+"/inventory/stock", map[string]any{
				"code": args[1], "quantity": quantity, "quantity_type": quantityType,
				"selling_price": sellingPrice, "cost_price": costPrice,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	stockCmd.Flags().Int("quantity", 0, "Counted quantity")
	stockCmd.Flags().String("quantity-type", "", "Unit: tablets, packs, bottles, vials, tubes")
	stockCmd.Flags().Float64("selling-price", 0, "Selling price")
	stockCmd.Flags().Float64("cost-price", 0, "Cost price")

	checkCmd := &cobra.Command{
		Use:   "check <pharmacy-id> <code>",
		Short: "Check whether a code is in the reference list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/pharmacies/" + args[0] + "/inventory/check/" + url.PathEscape(args[1]))
			if err != nil {
				printError(err.Error())
				return nil
			}
			if data, ok := result["data"].(map[string]any); ok {
				printResult(data)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	editCmd := &cobra.Command{
		Use:   "edit <pharmacy-id> <entry-id>",
		Short: "Edit a self-registered product entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{}
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				body["product_name"] = name
			}
			if cmd.Flags().Changed("manufacturer") {
				manufacturer, _ := cmd.Flags().GetString("manufacturer")
				body["manufacturer"] = manufacturer
			}
			if cmd.Flags().Changed("strength") {
				strength, _ := cmd.Flags().GetString("strength")
				body["strength"] = strength
			}
			client := newClient()
			result, err := client.patch("/v1/pharmacies/"+args[0]+"/inventory/new-products/"+args[1], body)
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	editCmd.Flags().String("name", "", "Product name")
	editCmd.Flags().String("manufacturer", "", "Manufacturer")
	editCmd.Flags().String("strength", "", "Strength, e.g. 500mg")

	deleteCmd := &cobra.Command{
		Use:   "delete <pharmacy-id> <entry-id>",
		Short: "Delete an inventory entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			if err := client.delete("/v1/pharmacies/" + args[0] + "/inventory/" + args[1]); err != nil {
				printError(err.Error())
				return nil
			}
			printSuccess("Success! Entry deleted.")
			return nil
		},
	}

	cmd.AddCommand(fetchCmd, stockCmd, checkCmd, editCmd, deleteCmd)
	return cmd
}

// --- business units ---

func businessUnitCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "bu", Short: "Business unit commands"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List business units",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/business-units")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a business unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			location, _ := cmd.Flags().GetString("location")
			client := newClient()
			result, err := client.post("/v1/business-units", map[string]any{
				"name": args[0], "location": location,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	createCmd.Flags().String("location", "", "Unit location")

	productsCmd := &cobra.Command{
		Use:   "products <unit-id>",
		Short: "List products linked to a business unit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/business-units/" + args[0] + "/products")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	assignCmd := &cobra.Command{
		Use:   "assign <unit-id> <product-id>",
		Short: "Link a product to a business unit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			quantity, _ := cmd.Flags().GetInt("quantity")
			productID, err := parseInt64(args[1])
			if err != nil {
				printError("invalid product id")
				return nil
			}
			client := newClient()
			result, err := client.post("/v1/business-units/"+args[0]+"/products", map[string]any{
				"product_id": productID, "quantity": quantity,
			})
			if err != nil {
				printError(err.Error())
				return nil
			}
			printResult(result)
			return nil
		},
	}
	assignCmd.Flags().Int("quantity", 0, "Quantity held by the unit")

	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Show the per-unit stock report",
		RunE: func(cmd *cobra.Command, args []string) error {
			byDosage, _ := cmd.Flags().GetBool("dosage-forms")
			path := "/v1/reports/business-units/stock"
			if byDosage {
				path = "/v1/reports/business-units/dosage-forms"
			}
			client := newClient()
			result, err := client.get(path)
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}
	reportCmd.Flags().Bool("dosage-forms", false, "Group by dosage form instead of stock totals")

	cmd.AddCommand(listCmd, createCmd, productsCmd, assignCmd, reportCmd)
	return cmd
}

// --- formularies ---

func formularyCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "formulary", Short: "Formulary commands"}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List formularies",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := newClient()
			result, err := client.get("/v1/formularies")
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printList(items)
				return nil
			}
			printResult(result)
			return nil
		},
	}

	importCmd := &cobra.Command{
		Use:   "import <unit-id> <csv-file>",
		Short: "Bulk-create formularies from a CSV file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[1])
			if err != nil {
				printError(err.Error())
				return nil
			}
			defer f.Close()

			client := newClient()
			result, err := client.postRaw("/v1/formularies/import?business_unit_id="+url.QueryEscape(args[0]), f)
			if err != nil {
				printError(err.Error())
				return nil
			}
			if items, ok := result["data"].([]any); ok {
				printSuccess(fmt.Sprintf("Success! Imported %d formularies.", len(items)))
				return nil
			}
			printResult(result)
			return nil
		},
	}

	cmd.AddCommand(listCmd, importCmd)
	return cmd
}

func parseInt64(s string) (int64, error) {
	var n int64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &n)
	return n, err
}
