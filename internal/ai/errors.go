package ai

import "errors"

var ErrUnavailable = errors.New("ai provider unavailable")
