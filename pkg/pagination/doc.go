// Package pagination walks paginated EPİAŞ endpoints.
//
// Paginated endpoints accept a page cursor {number, size, sort} in the
// request body and report {number, size, total} under body.page. The driver
// requests page 1, reads the reported total, and fetches the remaining pages
// with at most MaxConcurrency requests in flight.
//
// Example usage:
//
//	driver := pagination.NewDriver(epiasClient, pagination.DefaultConfig())
//	q, _ := epias.NewQuery(epias.DayRange(start, end), epias.Filters{})
//	records, err := driver.FetchContent(ctx, epias.DAMMCP, q)
//
// The driver:
//   - Fetches the first page and reads its page metadata
//   - Treats a response without metadata as the complete result
//   - Fetches pages 2..N concurrently, returning them in page order
//   - Stops at the first page reporting no content
//   - Returns an error and no pages if any page fails
package pagination
