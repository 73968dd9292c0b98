package notification

import "errors"

// ErrQueueFull wraps a failed inline delivery attempted because the queue had no room.
var ErrQueueFull = errors.New("notification queue is full")
