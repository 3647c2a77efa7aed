package index

// PageIndex defines the interface for rendered-page indexing operations.
// Consumers depend on this interface rather than the concrete *DB type.
type PageIndex interface {
	UpsertPage(p PageRow, body string) error
	DeletePage(path string) error
	GetChecksum(path string) (string, error)
	GetPage(path string) (*PageRow, error)
	ListPages(limit, offset int, keyword, sort string) ([]PageRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

var _ PageIndex = (*DB)(nil)
