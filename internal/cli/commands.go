package cli

import (
	"fmt"
	"strings"

	"expenses/internal/core"
	"expenses/internal/services"

	"github.com/spf13/cobra"
)

func (a *app) reportCmd() *cobra.Command {
	kinds := make([]string, 0, len(services.ReportKinds()))
	for _, k := range services.ReportKinds() {
		kinds = append(kinds, string(k))
	}
	return &cobra.Command{
		Use:       "report KIND",
		Short:     "Print a report",
		Long:      "Print one of the reports: " + strings.Join(kinds, ", "),
		Args:      cobra.ExactArgs(1),
		ValidArgs: kinds,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := services.ParseReportKind(args[0])
			if err != nil {
				return err
			}
			return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
				table, err := t.Report(cmd.Context(), kind)
				if err != nil {
					return err
				}
				return RenderTable(cmd.OutOrStdout(), table)
			})
		},
	}
}

func (a *app) undoCmd() *cobra.Command {
	var income bool
	cmd := &cobra.Command{
		Use:   "undo",
		Short: "Remove the most recently inserted expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
				out := cmd.OutOrStdout()
				if income {
					removed, err := t.UndoLastIncome(cmd.Context())
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "Removed income %s %s on %s\n",
						removed.Description, removed.Amount.StringFixed(core.PriceScale), removed.Date)
					return nil
				}
				removed, err := t.UndoLastExpense(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed expense %s %s on %s\n",
					removed.Category, removed.Price.StringFixed(core.PriceScale), removed.Date)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&income, "income", false, "remove the most recent income instead")
	return cmd
}

func (a *app) adminCmd() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Maintain reference tables and fix dates",
	}

	fixedCmd := &cobra.Command{Use: "fixed-price", Short: "Manage fixed-price categories"}
	fixedCmd.AddCommand(
		&cobra.Command{
			Use:   "set CATEGORY PRICE",
			Short: "Set the fixed price of a category",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
					price, err := t.SetFixedPrice(cmd.Context(), args[0], args[1])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", strings.TrimSpace(args[0]), price.StringFixed(core.PriceScale))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "remove CATEGORY",
			Short: "Stop treating a category as fixed-price",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
					return t.RemoveFixedPrice(cmd.Context(), args[0])
				})
			},
		},
		&cobra.Command{
			Use:   "get CATEGORY",
			Short: "Show the fixed price of a category",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
					price, ok, err := t.FixedPrice(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if !ok {
						return fmt.Errorf("fixed price for %q: %w", args[0], core.ErrNotFound)
					}
					fmt.Fprintln(cmd.OutOrStdout(), price.StringFixed(core.PriceScale))
					return nil
				})
			},
		},
	)

	groupCmd := &cobra.Command{Use: "group", Short: "Manage major category groupings"}
	groupCmd.AddCommand(&cobra.Command{
		Use:   "set CATEGORY MAJOR",
		Short: "Report CATEGORY under MAJOR in the major category summary",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
				return t.SetMajorCategory(cmd.Context(), args[0], args[1])
			})
		},
	})

	outdatedCmd := &cobra.Command{Use: "outdated", Short: "Manage outdated categories"}
	outdatedCmd.AddCommand(&cobra.Command{
		Use:   "add CATEGORY",
		Short: "Hide a category from the entry menu",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
				return t.MarkOutdated(cmd.Context(), args[0])
			})
		},
	})

	redateCmd := &cobra.Command{
		Use:   "redate FROM TO",
		Short: "Move every expense dated FROM (YYYY-MM-DD) to TO",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := core.ParseDate(args[0])
			if err != nil {
				return err
			}
			to, err := core.ParseDate(args[1])
			if err != nil {
				return err
			}
			return a.withTracker(cmd.Context(), func(t *services.Tracker) error {
				n, err := t.RedateExpenses(cmd.Context(), from, to)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d expenses moved to %s\n", n, to)
				return nil
			})
		},
	}

	adminCmd.AddCommand(fixedCmd, groupCmd, outdatedCmd, redateCmd)
	return adminCmd
}
