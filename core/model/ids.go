package model

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// IDGenerator returns a candidate id for a node of the given type. The
// document retries until the candidate is unused.
type IDGenerator func(typeName string) string

// UUIDs generates ids of the form "<type>-<8 hex digits>" from random UUIDs.
func UUIDs() IDGenerator {
	return func(typeName string) string {
		suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
		return typeName + "-" + suffix
	}
}

// SequentialIDs generates "<type>-1", "<type>-2", ... with one counter per
// type, for reproducible documents.
func SequentialIDs() IDGenerator {
	counters := make(map[string]int)
	return func(typeName string) string {
		counters[typeName]++
		return typeName + "-" + strconv.Itoa(counters[typeName])
	}
}
