// Package pagination walks cursor-paginated search results.
//
// The service returns at most one page per request. Every result carries a
// cursor; the cursor of the last result of a page is sent back to get the
// next page. A page shorter than the requested limit, or a last result
// without a cursor, ends the walk.
//
// Two drivers are provided:
//
//	fetch := pagination.FetchFunc[model.Match](svc.Page)
//
//	// lazy: one request per Next call
//	p := pagination.NewPager[model.Match](fetch, filter, 100, pagination.DefaultConfig())
//	for page, err := range p.Pages(ctx) {
//		if err != nil {
//			return err
//		}
//		handle(page)
//	}
//
//	// eager, bounded
//	matches, err := pagination.All[model.Match](ctx, fetch, filter, 1000, pagination.DefaultConfig())
//
// search.Service wraps both as Paginate and All.
//
// Pages are requested one after another since each request needs the cursor
// returned by the previous one. Errors end the walk immediately; All returns
// the results gathered so far together with the error.
package pagination
