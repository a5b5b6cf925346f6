package domain

import "fmt"

// SourceFailure records a feed source that could not be fetched or parsed.
type SourceFailure struct {
	Source string
	Err    error
}

func (e SourceFailure) Error() string {
	return fmt.Sprintf("source %s: %v", e.Source, e.Err)
}

func (e SourceFailure) Unwrap() error {
	return e.Err
}

// FetchBatch carries the drafts of one fetch run and the sources that failed during it.
type FetchBatch struct {
	Articles []RawArticle
	Failures []SourceFailure
}
