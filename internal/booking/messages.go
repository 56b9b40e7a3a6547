package booking

import (
	"strconv"
	"strings"
)

// Booking outcome messages.
const (
	MessageBooked       = "trips booked successfully"
	MessageBookFailed   = "the following launches couldn't be booked: "
	MessageCancelled    = "trip cancelled"
	MessageCancelFailed = "failed to cancel trip"
)

// FailedIDs returns the requested ids that were not booked, in request
// order and without repeats.
func FailedIDs(requested, booked []int) []int {
	ok := make(map[int]struct{}, len(booked))
	for _, id := range booked {
		ok[id] = struct{}{}
	}

	failed := []int{}
	seen := make(map[int]struct{})
	for _, id := range requested {
		if _, done := ok[id]; done {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		failed = append(failed, id)
	}
	return failed
}

// BookMessage describes the outcome of a BookTrips call.
func BookMessage(requested, booked []int) string {
	failed := FailedIDs(requested, booked)
	if len(failed) == 0 {
		return MessageBooked
	}

	parts := make([]string, len(failed))
	for i, id := range failed {
		parts[i] = strconv.Itoa(id)
	}
	return MessageBookFailed + strings.Join(parts, ", ")
}
