package pixel

import (
	"fmt"
	"strings"
	"time"
)

// MetaKeyPrefix is the namespace holding one metadata document per pixel.
const MetaKeyPrefix = "meta:"

const eventKeyNamespace = "events:"

// MetaKey returns the store key of the pixel's metadata document.
func MetaKey(id string) string {
	return MetaKeyPrefix + id
}

// EventKeyPrefix returns the per-pixel namespace under which every open
// event of the pixel lives.
func EventKeyPrefix(id string) string {
	return eventKeyNamespace + id + ":"
}

// EventKey builds the store key of a single open event. The suffix is the
// zero-padded unix-millisecond timestamp followed by a random tie-breaker,
// so keys within one pixel's namespace sort lexicographically in
// chronological order and near-simultaneous opens never collide.
func EventKey(id string, ts time.Time, tieBreaker string) string {
	return fmt.Sprintf("%s%013d-%s", EventKeyPrefix(id), ts.UnixMilli(), tieBreaker)
}

// IDFromMetaKey extracts the pixel id from a metadata key. It returns ""
// for keys outside the metadata namespace.
func IDFromMetaKey(key string) string {
	if !strings.HasPrefix(key, MetaKeyPrefix) {
		return ""
	}
	return strings.TrimPrefix(key, MetaKeyPrefix)
}
