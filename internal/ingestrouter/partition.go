// Package ingestrouter deterministically shards the raw measurement stream
// across the monitoring replicas, so all samples for one device land on the
// same replica and per-device state stays replica-local.
package ingestrouter

import (
	"hash/fnv"
	"math"
)

// Partition maps a device id to a partition in [0, replicaCount). The
// mapping is pure: the same device id always lands on the same partition
// for a given replica count. replicaCount must be positive; config
// validation rejects anything else before the router starts.
func Partition(deviceID string, replicaCount int) int32 {
	h := fnv.New32a()
	h.Write([]byte(deviceID)) //nolint:errcheck
	positive := int32(h.Sum32()) & math.MaxInt32
	return positive % int32(replicaCount)
}
