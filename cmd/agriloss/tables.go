package main

import (
	"errors"
	"fmt"

	"github.com/eugenekravchuk/agriculture-losses/internal/flows"
	"github.com/eugenekravchuk/agriculture-losses/internal/items"
	"github.com/eugenekravchuk/agriculture-losses/pkg/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (a *app) formatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <date|amount> <value>",
		Short: "Apply an input mask to a value and validate it",
		Long: `Reshape raw input the way the form does while typing: digits become
DD.MM.YYYY for dates, and amounts keep only digits and one decimal point.
The command fails when the masked value is not valid.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var field flows.Field
			switch args[0] {
			case "date":
				field = flows.FieldDate
			case "amount":
				field = flows.FieldCashFlow
			default:
				return fmt.Errorf("unknown kind %q, expected date or amount", args[0])
			}

			table := flows.NewTable(a.conf.FlowPolicy(), flows.WithLogger(a.logger))
			value, err := table.UpdateField(0, field, args[1])
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), value); err != nil {
				return err
			}
			if errs := table.Errors(); len(errs) > 0 {
				return errors.New(errs[0].Message(a.tag))
			}
			return nil
		},
	}
}

func (a *app) tablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "Print the loss table schemas as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			encoder := yaml.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent(2)
			if err := encoder.Encode(map[string][]items.Schema{"tables": a.conf.Tables}); err != nil {
				return err
			}
			return encoder.Close()
		},
	}
}

func (a *app) itemsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "items <table> <file>",
		Short: "Load a loss table file and print its items",
		Long: `Load a CSV or XLSX file into one of the loss tables, validate every row and
print the items with their loss estimates. Run "agriloss tables" for the
table names and columns.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := items.NewSet(a.conf.Tables)
			if err != nil {
				return err
			}
			table, err := set.Table(args[0])
			if err != nil {
				return a.userError(err, "main.items")
			}
			records, err := a.readRecords(args[1], table.Schema().Columns)
			if err != nil {
				return a.userError(err, "main.items")
			}
			if err := table.ReplaceRecords(records); err != nil {
				return a.userError(err, "main.items")
			}
			return output.Tables(cmd.OutOrStdout(), []*items.Table{table}, a.conf.Output.Format)
		},
	}
}
