package index

import (
	"strings"
	"time"

	"github.com/fernwehlabs/discovery/internal/corpus"
	"github.com/fernwehlabs/discovery/pkg/errors"
)

// Filters narrows the candidate set before scoring. All supplied filters are
// intersective: a post must satisfy every one of them.
type Filters struct {
	Category       string
	Tags           []string
	Location       string
	Language       corpus.Language
	DateFrom       *time.Time
	DateTo         *time.Time
	MinReadingTime int
	MaxReadingTime int
}

// Validate rejects filter combinations the index cannot honour.
func (f *Filters) Validate() error {
	if f.Language != "" && !f.Language.Valid() {
		return errors.Newf(errors.ErrInvalidFilter, 400, "unknown language %q", f.Language)
	}
	if f.DateFrom != nil && f.DateTo != nil && f.DateTo.Before(*f.DateFrom) {
		return errors.New(errors.ErrInvalidFilter, 400, "date range end precedes start")
	}
	if f.MinReadingTime < 0 || f.MaxReadingTime < 0 {
		return errors.New(errors.ErrInvalidFilter, 400, "reading time bounds must be non-negative")
	}
	if f.MaxReadingTime > 0 && f.MinReadingTime > f.MaxReadingTime {
		return errors.New(errors.ErrInvalidFilter, 400, "reading time range is empty")
	}
	return nil
}

// Empty reports whether no filter is set.
func (f *Filters) Empty() bool {
	return f.Category == "" && len(f.Tags) == 0 && f.Location == "" &&
		f.Language == "" && f.DateFrom == nil && f.DateTo == nil &&
		f.MinReadingTime == 0 && f.MaxReadingTime == 0
}

// Match reports whether the post satisfies every supplied filter.
func (f *Filters) Match(p *corpus.Post) bool {
	if f.Category != "" && !strings.EqualFold(p.Category, f.Category) {
		return false
	}
	if f.Location != "" && !strings.EqualFold(p.Location, f.Location) {
		return false
	}
	if f.Language != "" && p.Language != f.Language {
		return false
	}
	if len(f.Tags) > 0 {
		tagSet := make(map[string]struct{}, len(p.Tags))
		for _, t := range p.Tags {
			tagSet[strings.ToLower(t)] = struct{}{}
		}
		for _, want := range f.Tags {
			if _, ok := tagSet[strings.ToLower(want)]; !ok {
				return false
			}
		}
	}
	if f.DateFrom != nil && p.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && p.Date.After(*f.DateTo) {
		return false
	}
	if f.MinReadingTime > 0 && p.ReadingTimeMinutes < f.MinReadingTime {
		return false
	}
	if f.MaxReadingTime > 0 && p.ReadingTimeMinutes > f.MaxReadingTime {
		return false
	}
	return true
}
