package catalog

import "errors"

var (
	ErrContentNotFound = errors.New("content not found")
	ErrEpisodeNotFound = errors.New("episode not found")
)
