package jsonapi

import "fmt"

// Page identifies one page of a collection. Numbers are 1-based.
type Page struct {
	Number int
	Size   int
}

// Slice returns the half-open index range [start, end) of the page within
// a collection of total elements.
func (p Page) Slice(total int) (int, int) {
	start := (p.Number - 1) * p.Size
	if start > total {
		start = total
	}
	end := start + p.Size
	if end > total {
		end = total
	}
	return start, end
}

// NewCollection builds a paginated collection document. resources is the
// already-sliced page; totalCount is the size of the collection before
// pagination. Link URLs substitute page parameters onto baseURL using the
// percent-encoded bracket form the real service emits.
func NewCollection(resources []Resource, totalCount int, page Page, baseURL string) *Document {
	if resources == nil {
		resources = []Resource{}
	}

	totalPages := 0
	if page.Size > 0 {
		totalPages = (totalCount + page.Size - 1) / page.Size
	}

	doc := &Document{
		Data: resources,
		Meta: map[string]any{
			"totalCount":  totalCount,
			"pageCount":   len(resources),
			"currentPage": page.Number,
			"pageSize":    page.Size,
			"totalPages":  totalPages,
		},
		Links: paginationLinks(baseURL, page.Number, page.Size, totalPages),
	}
	return doc
}

func paginationLinks(baseURL string, pageNumber, pageSize, totalPages int) map[string]string {
	links := map[string]string{
		"self":  pageURL(baseURL, pageNumber, pageSize),
		"first": pageURL(baseURL, 1, pageSize),
		"last":  pageURL(baseURL, totalPages, pageSize),
	}
	if pageNumber > 1 {
		links["prev"] = pageURL(baseURL, pageNumber-1, pageSize)
	}
	if pageNumber < totalPages {
		links["next"] = pageURL(baseURL, pageNumber+1, pageSize)
	}
	return links
}

// pageURL renders page parameters with %5B/%5D escapes to match the
// emulated service byte-for-byte.
func pageURL(baseURL string, number, size int) string {
	return fmt.Sprintf("%s?page%%5Bnumber%%5D=%d&page%%5Bsize%%5D=%d", baseURL, number, size)
}
