package buffer

import "errors"

// ErrPoolExhausted is returned by FetchPage and NewPage when every frame
// in the pool is pinned: an ordinary, expected condition, not a bug.
var ErrPoolExhausted = errors.New("buffer: pool exhausted, every frame is pinned")

// ErrUnknownPage is returned when an operation requires a page to be
// resident and it is not.
var ErrUnknownPage = errors.New("buffer: page is not resident in the pool")

// ErrPageInUse is returned by DeletePage when the page is still pinned.
var ErrPageInUse = errors.New("buffer: page is pinned and cannot be deleted")
