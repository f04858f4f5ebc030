// Package kafka carries revocation changes between replicas. Each process
// keeps its own in-memory banned set; the feed is how a ban issued on one
// replica reaches the others. Delivery is at-least-once and events are
// idempotent to apply.
package kafka

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/quillboard/quillboard/internal/revocation"
)

func encodeEvent(ev revocation.Event) ([]byte, []byte, error) {
	value, err := json.Marshal(ev)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal revocation event: %w", err)
	}
	// Key by user id so all events for one identity land in one partition
	// and replay in order.
	key := []byte(strconv.FormatInt(ev.UserID, 10))
	return key, value, nil
}

func decodeEvent(value []byte) (revocation.Event, error) {
	var ev revocation.Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return revocation.Event{}, fmt.Errorf("unmarshal revocation event: %w", err)
	}
	if ev.Action != revocation.ActionBan && ev.Action != revocation.ActionUnban {
		return revocation.Event{}, fmt.Errorf("unknown revocation action %q", ev.Action)
	}
	return ev, nil
}
