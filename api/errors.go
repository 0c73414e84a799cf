package api

import "errors"

// ErrNotFound reports that the API has no object behind an id, commonly
// because the content is region locked. Callers decide whether the gap is
// fatal or merely a skipped version.
var ErrNotFound = errors.New("not found")
