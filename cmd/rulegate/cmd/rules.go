package cmd

import (
	"fmt"

	"github.com/solatis/rulegate/internal/core/db"
	"github.com/solatis/rulegate/internal/rules"
	"github.com/solatis/rulegate/internal/schema"
	"github.com/solatis/rulegate/internal/store"
	"github.com/solatis/rulegate/internal/types"
	"github.com/spf13/cobra"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Manage the rule catalog",
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <name> <expression>",
	Short: "Store a named rule",
	Args:  cobra.ExactArgs(2),
	RunE:  runRulesAdd,
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored rules",
	Args:  cobra.NoArgs,
	RunE:  runRulesList,
}

var rulesShowCmd = &cobra.Command{
	Use:   "show <rule-id>",
	Short: "Show one rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesShow,
}

var rulesRmCmd = &cobra.Command{
	Use:   "rm <rule-id>",
	Short: "Delete a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRulesRm,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
	rulesCmd.AddCommand(rulesAddCmd, rulesListCmd, rulesShowCmd, rulesRmCmd)

	rulesCmd.PersistentFlags().String("dataset", "", "dataset the rule belongs to")
	rulesAddCmd.Flags().String("schema", "", "schema file to validate the expression against")
	rulesListCmd.Flags().Bool("all", false, "list rules across all datasets")
}

// openStore connects to the rule store named by --db-url.
func openStore() (*store.Store, func(), error) {
	if dbURL == "" {
		return nil, nil, fmt.Errorf("--db-url required")
	}
	database, err := db.Open(dbURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return store.New(queries), func() { database.Close() }, nil
}

func runRulesAdd(cmd *cobra.Command, args []string) error {
	name, expression := args[0], args[1]
	dataset, _ := cmd.Flags().GetString("dataset")

	// With a schema at hand, reject expressions that will never compile
	// instead of storing them for workers to trip over.
	if schemaPath, _ := cmd.Flags().GetString("schema"); schemaPath != "" {
		sch, err := schema.LoadYAML(schemaPath)
		if err != nil {
			return fmt.Errorf("failed to load schema: %w", err)
		}
		if _, err := rules.Compile(expression, sch); err != nil {
			return fmt.Errorf("expression rejected (%s): %w", types.CodeOf(err), err)
		}
	}

	s, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	id, err := s.Create(name, dataset, expression)
	if err != nil {
		return err
	}
	fmt.Println(id)
	return nil
}

func runRulesList(cmd *cobra.Command, args []string) error {
	s, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	var list []store.Rule
	if all, _ := cmd.Flags().GetBool("all"); all {
		list, err = s.ListAll()
	} else {
		dataset, _ := cmd.Flags().GetString("dataset")
		list, err = s.List(dataset)
	}
	if err != nil {
		return err
	}

	for _, r := range list {
		fmt.Printf("%s  %-12s %-24s %s\n", r.ID, r.Dataset, r.Name, r.Expression)
	}
	return nil
}

func runRulesShow(cmd *cobra.Command, args []string) error {
	id, err := types.ParseRuleID(args[0])
	if err != nil {
		return fmt.Errorf("invalid rule id: %w", err)
	}

	s, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	r, err := s.Get(id)
	if err != nil {
		return err
	}
	fmt.Printf("id:         %s\n", r.ID)
	fmt.Printf("name:       %s\n", r.Name)
	fmt.Printf("dataset:    %s\n", r.Dataset)
	fmt.Printf("created:    %s\n", r.CreatedAt)
	fmt.Printf("expression: %s\n", r.Expression)
	return nil
}

func runRulesRm(cmd *cobra.Command, args []string) error {
	id, err := types.ParseRuleID(args[0])
	if err != nil {
		return fmt.Errorf("invalid rule id: %w", err)
	}

	s, closeDB, err := openStore()
	if err != nil {
		return err
	}
	defer closeDB()

	return s.Delete(id)
}
