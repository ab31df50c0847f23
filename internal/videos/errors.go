package videos

import (
	"errors"
	"fmt"
)

var (
	// ErrNoFile indicates the upload carried no file or an empty filename.
	ErrNoFile = errors.New("no video file selected")
	// ErrInvalidFileType indicates the file extension is not in the allowed set.
	ErrInvalidFileType = errors.New("invalid file type, allowed formats: MP4, AVI, MOV, WMV, FLV, MKV")
	// ErrNoThumbnailOutput indicates the extractor reported success but wrote no image.
	ErrNoThumbnailOutput = errors.New("thumbnail extractor produced no output")
)

// UploadError describes a failed ingestion attempt with a user-presentable
// reason. Err carries the underlying cause when one exists.
type UploadError struct {
	Reason string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *UploadError) Unwrap() error { return e.Err }
