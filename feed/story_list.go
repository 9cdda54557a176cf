package feed

import (
	"github.com/SirZenith/hnfeed/hn"
)

const DefaultBatchSize = 15

type Status int

const (
	StatusLoading Status = iota
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// StoryList is the state of one story page: its ID list, stories loaded so
// far and the batch currently being loaded.
type StoryList struct {
	Page    hn.Page
	IDs     []hn.ItemID
	Stories []*hn.Item
	Status  Status
	Err     error

	Batch     []hn.ItemID // IDs of batch in flight, nil when idle
	BatchErr  error       // error of last failed batch
	BatchSize int

	// Gen changes on every Reset, results of requests made for an older
	// generation should be dropped.
	Gen int
}

func NewStoryList(page hn.Page, batchSize int) *StoryList {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	list := &StoryList{BatchSize: batchSize}
	list.Reset(page)

	return list
}

// Reset clears all loaded data and enters loading state for given page.
func (l *StoryList) Reset(page hn.Page) {
	l.Page = page
	l.IDs = nil
	l.Stories = nil
	l.Status = StatusLoading
	l.Err = nil
	l.Batch = nil
	l.BatchErr = nil
	l.Gen++
}

func (l *StoryList) SetIDs(ids []hn.ItemID) {
	l.IDs = ids
	l.Status = StatusDone
	l.Err = nil
}

func (l *StoryList) SetError(err error) {
	l.Status = StatusError
	l.Err = err
}

func (l *StoryList) Loading() bool {
	return l.Status == StatusLoading
}

func (l *StoryList) BatchInFlight() bool {
	return l.Batch != nil
}

// CanLoadMore reports whether a new batch may be started now.
func (l *StoryList) CanLoadMore() bool {
	return l.Status == StatusDone && l.Batch == nil && len(l.Stories) < len(l.IDs)
}

// NeedsInitialBatch reports whether ID list is ready but no story has been
// requested yet.
func (l *StoryList) NeedsInitialBatch() bool {
	return l.Status == StatusDone && l.Batch == nil && len(l.Stories) == 0 && len(l.IDs) > 0 && l.BatchErr == nil
}

// NextBatch marks next BatchSize IDs after loaded stories as in flight and
// returns them. Nil is returned when a batch is already running or nothing is
// left to load.
func (l *StoryList) NextBatch() []hn.ItemID {
	if !l.CanLoadMore() {
		return nil
	}

	start := len(l.Stories)
	end := min(start+l.BatchSize, len(l.IDs))

	l.Batch = append([]hn.ItemID(nil), l.IDs[start:end]...)
	l.BatchErr = nil

	return l.Batch
}

// CompleteBatch finishes batch in flight. A failed batch appends nothing.
func (l *StoryList) CompleteBatch(items []*hn.Item, err error) {
	l.Batch = nil

	if err != nil {
		l.BatchErr = err
		return
	}

	l.BatchErr = nil
	l.Stories = append(l.Stories, items...)
}

// Story returns loaded story with given ID.
func (l *StoryList) Story(id hn.ItemID) *hn.Item {
	for _, story := range l.Stories {
		if story.ID == id {
			return story
		}
	}
	return nil
}
