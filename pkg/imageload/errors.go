// errors.go — Load and upload validation errors.
package imageload

import "fmt"

// ImageLoadError reports a failed fetch or decode. Prior editor state must be kept.
type ImageLoadError struct {
	Source string
	Err    error
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("load image from %s: %v", e.Source, e.Err)
}

func (e *ImageLoadError) Unwrap() error { return e.Err }

// UploadError reports an upload rejected before any decode was attempted.
type UploadError struct {
	Name   string
	Reason string
}

func (e *UploadError) Error() string {
	if e.Name == "" {
		return "upload rejected: " + e.Reason
	}
	return fmt.Sprintf("upload %q rejected: %s", e.Name, e.Reason)
}
