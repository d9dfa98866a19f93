package domain

import "errors"

// Outbound transport failures. Callers wrap the underlying cause with %w.
var ErrNotificationFailed = errors.New("notification could not be sent")
var ErrStorageFailed = errors.New("file storage failed")
