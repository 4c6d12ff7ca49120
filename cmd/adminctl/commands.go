package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/simp-lee/catalogadmin/internal/domain"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/pkg"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

func newResourceCmd[T resource.Entity](opts *rootOptions, def resource.Definition[T]) *cobra.Command {
	flags := &viewFlags{}
	cmd := &cobra.Command{
		Use:   def.Name,
		Short: "Work with the " + strings.ToLower(def.Title) + " list",
	}
	flags.register(cmd, def.HasCategory())

	cmd.AddCommand(
		newListCmd(opts, def, flags),
		newBulkCmd(opts, def, flags),
		newToggleCmd(opts, def, flags),
		newExportCmd(opts, def, flags),
	)
	return cmd
}

func newListCmd[T resource.Entity](opts *rootOptions, def resource.Definition[T], flags *viewFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List " + def.Name,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), opts, def, flags, opts.mode())
			if err != nil {
				return err
			}

			state := s.vm.State()
			header, records := s.vm.ExportColumns().DisplayTable(state.Rows)
			out := cmd.OutOrStdout()
			renderTable(out, header, records)
			fmt.Fprintln(out)
			fmt.Fprintln(out, pageSummary(def.Name, state.Pagination, state.Mode))
			return nil
		},
	}
}

func newBulkCmd[T resource.Entity](opts *rootOptions, def resource.Definition[T], flags *viewFlags) *cobra.Command {
	var (
		ids       []uint
		setStatus string
		confirm   bool
	)

	cmd := &cobra.Command{
		Use:   "bulk <status|delete>",
		Short: "Apply a bulk action to " + def.Name,
		Long: fmt.Sprintf(`Apply a bulk action to the %[1]s named by --ids.

Ids are matched against every %[2]s that passes the filter flags.

Examples:
  adminctl %[1]s bulk status --ids 1,2,3 --set-status active
  adminctl %[1]s bulk delete --ids 4 --confirm`, def.Name, def.Singular),
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"status", "delete"},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := listview.ActionFromFilters(args[0], setStatus)
			if err != nil {
				return err
			}
			switch action.Kind() {
			case listview.ActionNone:
				return fmt.Errorf("unknown bulk action %q: use status or delete", args[0])
			case listview.ActionDelete:
				if !confirm {
					return fmt.Errorf("refusing to delete %s without --confirm", def.Name)
				}
			case listview.ActionStatus:
				if !action.Ready() {
					return fmt.Errorf("choose the new status with --set-status active or --set-status inactive")
				}
			}

			s, err := openSession(cmd.Context(), opts, def, flags, listview.ClientDriven)
			if err != nil {
				return err
			}
			if s.selectIDs(opts, def.Name, ids) == 0 {
				return fmt.Errorf("none of the given ids match a %s", def.Singular)
			}
			s.vm.SetAction(action)
			return s.vm.BulkApply(cmd.Context())
		},
	}

	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Row ids (comma-separated)")
	cmd.Flags().StringVar(&setStatus, "set-status", "", "Target status for the status action: active, inactive")
	cmd.Flags().BoolVar(&confirm, "confirm", false, "Confirm a delete")
	_ = cmd.MarkFlagRequired("ids")
	return cmd
}

func newToggleCmd[T resource.Entity](opts *rootOptions, def resource.Definition[T], flags *viewFlags) *cobra.Command {
	var setStatus string

	cmd := &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the status of one " + def.Singular,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 0)
			if err != nil || id == 0 {
				return fmt.Errorf("invalid id %q", args[0])
			}

			s, err := openSession(cmd.Context(), opts, def, flags, listview.ClientDriven)
			if err != nil {
				return err
			}
			row, ok := s.vm.Store().Find(uint(id))
			if !ok {
				return domain.NewAppError(domain.CodeNotFound, fmt.Sprintf("%s %d not found", def.Singular, id), nil)
			}

			next := !def.Status.Get(row)
			if setStatus != "" {
				target, err := listview.ParseStatusFilter(setStatus)
				if err != nil {
					return err
				}
				status, ok := target.Target()
				if !ok {
					return fmt.Errorf("--set-status must be active or inactive")
				}
				next = status
			}
			return s.vm.ToggleStatus(cmd.Context(), row, next)
		},
	}

	cmd.Flags().StringVar(&setStatus, "set-status", "", "Set this status instead of flipping: active, inactive")
	return cmd
}

func newExportCmd[T resource.Entity](opts *rootOptions, def resource.Definition[T], flags *viewFlags) *cobra.Command {
	var (
		scope  string
		ids    []uint
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export " + def.Name + " as CSV or a table",
		Long: fmt.Sprintf(`Export %[1]s.

Scopes:
  loaded    the rows of the current page (every matching row with --client-side)
  selected  the rows named by --ids, fetched from the server
  all       every row matching the filters`, def.Name),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			exportScope, err := listview.ParseExportScope(scope)
			if err != nil {
				return err
			}
			if format != "csv" && format != "table" {
				return fmt.Errorf("invalid format %q: must be csv or table", format)
			}

			mode := opts.mode()
			if exportScope == listview.ExportSelected {
				mode = listview.ClientDriven
			}
			s, err := openSession(cmd.Context(), opts, def, flags, mode)
			if err != nil {
				return err
			}
			if exportScope == listview.ExportSelected {
				s.selectIDs(opts, def.Name, ids)
			}

			rows, err := s.vm.ExportRows(cmd.Context(), exportScope)
			if err != nil {
				return err
			}

			cols := s.vm.ExportColumns()
			write := func(w io.Writer) error {
				if format == "table" {
					header, records := cols.DisplayTable(rows)
					renderTable(w, header, records)
					return nil
				}
				return pkg.WriteCSV(w, cols, rows)
			}

			if output == "" {
				return write(cmd.OutOrStdout())
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			if err := writeAndClose(f, write); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			opts.notify(listview.NotifySuccess, fmt.Sprintf("Exported %d %s to %s", len(rows), def.Name, output))
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", "loaded", "Rows to export: loaded, selected, all")
	cmd.Flags().UintSliceVar(&ids, "ids", nil, "Row ids for --scope selected (comma-separated)")
	cmd.Flags().StringVarP(&format, "format", "f", "csv", "Output format: csv, table")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}

// writeAndClose runs write against wc and closes it. The Close error is
// returned when write itself succeeded.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) (err error) {
	defer func() {
		if cerr := wc.Close(); err == nil {
			err = cerr
		}
	}()
	return write(wc)
}
