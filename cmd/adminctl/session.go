package main

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/simp-lee/catalogadmin/internal/client"
	"github.com/simp-lee/catalogadmin/internal/listview"
	"github.com/simp-lee/catalogadmin/internal/resource"
)

// viewFlags are the filter and paging flags shared by a resource's commands.
type viewFlags struct {
	search   string
	status   string
	category string
	sort     string
	page     int
}

func (f *viewFlags) register(cmd *cobra.Command, withCategory bool) {
	flags := cmd.PersistentFlags()
	flags.StringVarP(&f.search, "search", "s", "", "Search term")
	flags.StringVar(&f.status, "status", "", "Status filter: all, active, inactive")
	if withCategory {
		flags.StringVar(&f.category, "category", "", "Category name filter")
	}
	flags.StringVar(&f.sort, "sort", "", `Sort order, e.g. "name:asc"`)
	flags.IntVar(&f.page, "page", 1, "Page to show")
}

func (f *viewFlags) filters() (listview.FilterState, error) {
	status, err := listview.ParseStatusFilter(f.status)
	if err != nil {
		return listview.FilterState{}, err
	}
	return listview.FilterState{SearchTerm: f.search, Status: status, Category: f.category}, nil
}

// session is one list screen opened against the API.
type session[T resource.Entity] struct {
	vm  *listview.ViewModel[T, uint]
	res *client.Resource[T]
}

// openSession builds a ViewModel for def and loads the requested page.
//
// In server-driven mode a page past the first is reached through the
// navigator, which fetches it directly; client-driven mode loads every
// matching row and slices locally.
func openSession[T resource.Entity](ctx context.Context, opts *rootOptions, def resource.Definition[T], flags *viewFlags, mode listview.PaginationMode) (*session[T], error) {
	filters, err := flags.filters()
	if err != nil {
		return nil, err
	}

	s := &session[T]{res: client.NewResource[T](opts.client, def.Name)}
	s.res.Sort = flags.sort

	cfg := def.ViewConfig()
	cfg.Mode = mode
	cfg.PerPage = opts.cfg.PageSize
	cfg.Filters = filters
	cfg.Sort = flags.sort
	cfg.Bulk = s.res
	cfg.Exporter = s.res
	cfg.Notifier = listview.NotifierFunc(opts.notify)
	cfg.Logger = opts.logger.Logger
	if mode == listview.ServerDriven {
		cfg.Source = s.res
		cfg.Navigator = listview.NavigatorFunc(s.navigate)
	} else {
		cfg.Source = s.res.AllSource()
	}

	s.vm, err = listview.New(cfg)
	if err != nil {
		return nil, err
	}
	listview.EnableStatusToggle[T, uint, client.StatusPayload](s.vm, client.PrepareStatus[T], s.res.UpdateStatus)

	if mode == listview.ServerDriven && flags.page > 1 {
		if err := s.vm.OnChangePage(ctx, flags.page); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := s.vm.Load(ctx); err != nil {
		return nil, err
	}
	if flags.page > 1 {
		if err := s.vm.OnChangePage(ctx, flags.page); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// navigate fetches the page named by params and resyncs the view with it.
func (s *session[T]) navigate(ctx context.Context, params url.Values) error {
	page, err := strconv.Atoi(params.Get(listview.ParamPage))
	if err != nil {
		return fmt.Errorf("invalid page %q", params.Get(listview.ParamPage))
	}
	perPage, err := strconv.Atoi(params.Get(listview.ParamPageSize))
	if err != nil {
		return fmt.Errorf("invalid page size %q", params.Get(listview.ParamPageSize))
	}

	result, err := s.res.FetchPage(ctx, listview.Query{
		Filters:    s.vm.Filters(),
		Sort:       params.Get(listview.ParamSort),
		Pagination: listview.Pagination{CurrentPage: page, ItemsPerPage: perPage},
	})
	if err != nil {
		return err
	}
	s.vm.Resync(result)
	return nil
}

// selectIDs selects ids and warns about the ones that matched no row.
func (s *session[T]) selectIDs(opts *rootOptions, name string, ids []uint) int {
	unique := slices.Compact(slices.Sorted(slices.Values(ids)))
	n := s.vm.Select(unique)
	if missing := len(unique) - n; missing > 0 {
		opts.notify(listview.NotifyWarning, fmt.Sprintf("%d of the given ids match no %s", missing, name))
	}
	return n
}
