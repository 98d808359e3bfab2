package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Kind classifies a scrape failure
type Kind string

const (
	// KindFetch represents network, timeout, or HTTP status failures on the static path
	KindFetch Kind = "fetch"
	// KindRenderTimeout represents a ready-condition or overall render timeout on the interactive path
	KindRenderTimeout Kind = "render_timeout"
	// KindExtraction represents non-fatal field extraction problems (logged, never aborts a cycle)
	KindExtraction Kind = "extraction"
	// KindUnknownSite represents an on-demand scrape requested for an unconfigured site
	KindUnknownSite Kind = "unknown_site"
	// KindStore represents a reconcile that failed to commit; the prior snapshot stays intact
	KindStore Kind = "store"
	// KindConfiguration represents invalid configuration rejected at load time
	KindConfiguration Kind = "configuration"
)

// ScrapeError is a per-site failure tagged with the site name and error kind,
// suitable for direct relay to the operator.
type ScrapeError struct {
	Kind    Kind
	Site    string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Kind, e.Site, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Site, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is expected to self-heal on the next
// scheduled run. The pipeline never retries within a cycle either way.
func (e *ScrapeError) Transient() bool {
	switch e.Kind {
	case KindFetch, KindRenderTimeout:
		return true
	default:
		return false
	}
}

// New creates a new ScrapeError
func New(kind Kind, site, message string, err error) *ScrapeError {
	return &ScrapeError{
		Kind:    kind,
		Site:    site,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewFetch creates a new fetch error
func NewFetch(site, message string, err error) *ScrapeError {
	return New(KindFetch, site, message, err)
}

// NewRenderTimeout creates a new render timeout error
func NewRenderTimeout(site, message string, err error) *ScrapeError {
	return New(KindRenderTimeout, site, message, err)
}

// NewExtraction creates a new extraction warning
func NewExtraction(site, message string, err error) *ScrapeError {
	return New(KindExtraction, site, message, err)
}

// NewUnknownSite creates a new unknown site error
func NewUnknownSite(site string) *ScrapeError {
	return New(KindUnknownSite, site, "no configured site with that name", nil)
}

// NewStore creates a new store transaction error
func NewStore(site, message string, err error) *ScrapeError {
	return New(KindStore, site, message, err)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *ScrapeError {
	return New(KindConfiguration, "", message, err)
}

// KindOf returns the Kind of err if it is (or wraps) a ScrapeError,
// and an empty Kind otherwise.
func KindOf(err error) Kind {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// AsScrape coerces err into a ScrapeError, wrapping foreign errors with the
// given kind and site so callers always see a tagged failure.
func AsScrape(err error, kind Kind, site string) *ScrapeError {
	var se *ScrapeError
	if stderrors.As(err, &se) {
		return se
	}
	return New(kind, site, "unexpected failure", err)
}
