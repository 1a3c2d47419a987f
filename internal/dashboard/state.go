// Package dashboard holds the per-session dashboard view: its state
// container, the directory and aggregate loaders, and the session registry.
package dashboard

import (
	"errors"
	"slices"

	"github.com/odyssey-erp/sales-dashboard/internal/salesapi"
)

// MsgDirectoryFailed is shown when the company directory cannot be loaded.
const MsgDirectoryFailed = "Failed to fetch companies."

// ErrUnknownCompany rejects a selection naming a company the directory does
// not list.
var ErrUnknownCompany = errors.New("dashboard: company not in directory")

// Default date range applied to a fresh view.
const (
	DefaultStart = "2024-01-01"
	DefaultEnd   = "2024-03-31"
)

// ErrorKind mirrors salesapi.ErrorKind plus the directory failure.
type ErrorKind string

const (
	ErrorNone      ErrorKind = ""
	ErrorDirectory ErrorKind = "directory"
	ErrorTransport ErrorKind = ErrorKind(salesapi.KindTransport)
	ErrorStatus    ErrorKind = ErrorKind(salesapi.KindStatus)
	ErrorDecode    ErrorKind = ErrorKind(salesapi.KindDecode)
	ErrorCanceled  ErrorKind = ErrorKind(salesapi.KindCanceled)
)

// Selection is the tuple whose changes trigger an aggregate load.
type Selection struct {
	Company string `json:"company"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// Ready reports whether every member of the tuple is set.
func (s Selection) Ready() bool {
	return s.Company != "" && s.Start != "" && s.End != ""
}

// Range returns the date half of the selection.
func (s Selection) Range() salesapi.DateRange {
	return salesapi.DateRange{Start: s.Start, End: s.End}
}

// State is the complete view state. Transition functions never mutate their
// input; they return a new value.
type State struct {
	Companies       []string            `json:"companies"`
	DirectoryLoaded bool                `json:"directory_loaded"`
	Selected        string              `json:"selected_company"`
	Range           salesapi.DateRange  `json:"date_range"`
	Aggregate       *salesapi.Aggregate `json:"aggregate"`
	Loading         bool                `json:"loading"`
	Error           string              `json:"error"`
	ErrorKind       ErrorKind           `json:"error_kind,omitempty"`
	Generation      uint64              `json:"generation"`
}

// Initial returns the state of a freshly created view.
func Initial(defaults salesapi.DateRange) State {
	if defaults.Start == "" {
		defaults.Start = DefaultStart
	}
	if defaults.End == "" {
		defaults.End = DefaultEnd
	}
	return State{Companies: []string{}, Range: defaults}
}

// Selection returns the current trigger tuple.
func (s State) Selection() Selection {
	return Selection{Company: s.Selected, Start: s.Range.Start, End: s.Range.End}
}

// Pending reports whether the view has nothing settled to show yet.
func (s State) Pending() bool {
	return s.Loading || !s.DirectoryLoaded
}

// Clone deep-copies the state for readers outside the view lock.
func (s State) Clone() State {
	out := s
	out.Companies = append([]string{}, s.Companies...)
	out.Aggregate = s.Aggregate.Clone()
	return out
}

// CompaniesLoaded stores the directory and seeds the selection with its first
// entry.
func CompaniesLoaded(s State, companies []string) State {
	next := s.Clone()
	next.Companies = append([]string{}, companies...)
	next.DirectoryLoaded = true
	if len(next.Companies) > 0 {
		next.Selected = next.Companies[0]
	}
	return next
}

// CompaniesFailed records a directory failure and leaves the list empty.
func CompaniesFailed(s State) State {
	next := s.Clone()
	next.Companies = []string{}
	next.DirectoryLoaded = true
	next.Error = MsgDirectoryFailed
	next.ErrorKind = ErrorDirectory
	return next
}

// ChangeSelection replaces the tuple with user input. A non-empty company must
// be listed in the directory, so nothing is selectable before it loads or
// after it failed. Start after End is accepted; the API decides what that
// means. On error s is returned unchanged.
func ChangeSelection(s State, sel Selection) (State, error) {
	if sel.Company != "" && !slices.Contains(s.Companies, sel.Company) {
		return s, ErrUnknownCompany
	}
	next := s.Clone()
	next.Selected = sel.Company
	next.Range = sel.Range()
	return next, nil
}

// DashboardRequested marks a new aggregate request and returns its generation.
func DashboardRequested(s State) (State, uint64) {
	next := s.Clone()
	next.Generation++
	next.Loading = true
	return next, next.Generation
}

// DashboardLoaded applies a successful response. Responses from superseded
// generations are dropped.
func DashboardLoaded(s State, gen uint64, agg *salesapi.Aggregate) State {
	if gen != s.Generation {
		return s
	}
	next := s.Clone()
	next.Aggregate = agg.Clone()
	next.Error = ""
	next.ErrorKind = ErrorNone
	next.Loading = false
	return next
}

// DashboardFailed applies a failed response. Responses from superseded
// generations are dropped.
func DashboardFailed(s State, gen uint64, err error) State {
	if gen != s.Generation {
		return s
	}
	next := s.Clone()
	next.Aggregate = nil
	next.Error = err.Error()
	next.ErrorKind = ErrorKind(salesapi.Kind(err))
	next.Loading = false
	return next
}
