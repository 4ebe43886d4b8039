// Package pagestream adapts a cursor-paged fetch capability into a lazy
// pull sequence of result pages and rows.
//
// The continuation position is an explicit three-state cursor
// (not started, continue-with-token, exhausted), so an exhausted listing
// is never confused with one that has not been fetched yet.
//
// Example usage:
//
//	stream := pagestream.New(fetcher, jobID, logger)
//	rows := pagestream.NewRows(stream)
//	for {
//		row, ok, err := rows.Next(ctx)
//		if err != nil || !ok {
//			break
//		}
//		// consume row
//	}
//
// A stream drives its cursor forward only:
//   - an exhausted stream ends without further remote calls
//   - each page pull performs exactly one fetch
//   - a fetch or parse failure yields one error element and ends the stream
package pagestream
