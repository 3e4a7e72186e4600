package directory

// HasMoreContent reports whether pages after page exist, given how many
// results page returned. Pages are numbered from 1. An unknown total is
// treated as "more may exist".
func HasMoreContent(page, pageSize, count int, total *int) bool {
	if total == nil {
		return true
	}
	return (page-1)*pageSize+count < *total
}
