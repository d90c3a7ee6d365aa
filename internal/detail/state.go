package detail

// State is where a summary row ended up after one visit
type State string

const (
	Pending          State = "PENDING"
	Fetching         State = "FETCHING"
	Stored           State = "STORED"
	SkippedDuplicate State = "SKIPPED_DUPLICATE"
	SkippedNotFound  State = "SKIPPED_NOTFOUND"
	SkippedEmpty     State = "SKIPPED_EMPTY"
	FailedTransient  State = "FAILED_TRANSIENT"
	FailedLayout     State = "FAILED_LAYOUT"
)

// Final reports whether the row is done for good and gets scraped=true.
// Failed rows stay pending for the next run.
func (s State) Final() bool {
	switch s {
	case Stored, SkippedDuplicate, SkippedNotFound, SkippedEmpty:
		return true
	}
	return false
}

// Stats counts row outcomes over a crawl
type Stats struct {
	Visited   int
	Stored    int
	Duplicate int
	NotFound  int
	Empty     int
	Transient int
	Layout    int
}

func (s *Stats) record(st State) {
	s.Visited++
	switch st {
	case Stored:
		s.Stored++
	case SkippedDuplicate:
		s.Duplicate++
	case SkippedNotFound:
		s.NotFound++
	case SkippedEmpty:
		s.Empty++
	case FailedTransient:
		s.Transient++
	case FailedLayout:
		s.Layout++
	}
}

// Scraped is the number of rows marked done during the crawl
func (s Stats) Scraped() int {
	return s.Stored + s.Duplicate + s.NotFound + s.Empty
}
