package engine

import (
	"errors"
	"fmt"
)

// DeliveryError wraps the error a subscriber returned for one delivery.
//
// It keeps the delivery's position in the stream so callers can report
// exactly which event was rejected. Use errors.As to reach the underlying
// list.SyncError.
type DeliveryError struct {
	Seq     int64
	Channel Channel
	Key     string
	Err     error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	if e.Channel == ChannelLoaded {
		return fmt.Sprintf("delivery #%d (loaded): %v", e.Seq, e.Err)
	}
	return fmt.Sprintf("delivery #%d (%s %s): %v", e.Seq, e.Channel, e.Key, e.Err)
}

// Unwrap returns the subscriber error.
func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AsDeliveryError extracts a DeliveryError from err.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
