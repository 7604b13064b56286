package errs

import "errors"

var (
	ErrRecordNotFound        = errors.New("record not found")
	ErrMixedBatch            = errors.New("batch contains more than one identity")
	ErrUnexpectedCardinality = errors.New("unexpected number of partial results")
	ErrBadCallbackURL        = errors.New("callback url is not a valid absolute url")
	ErrUnsupportedFormat     = errors.New("unsupported image format")
)
