package metrics

import "strconv"

// Status bucket keys.
const (
	Bucket2xx   = "2xx"
	Bucket3xx   = "3xx"
	Bucket4xx   = "4xx"
	Bucket5xx   = "5xx"
	BucketOther = "other"
)

// BucketOrder is the display order of status buckets.
var BucketOrder = []string{Bucket2xx, Bucket3xx, Bucket4xx, Bucket5xx, BucketOther}

// StatusBucket maps a status code to its class bucket. Codes outside 200..599
// land in BucketOther.
func StatusBucket(code int) string {
	if code < 200 || code > 599 {
		return BucketOther
	}
	return strconv.Itoa(code/100) + "xx"
}

// StatusRow is a single row of a status distribution.
type StatusRow struct {
	Bucket string
	Count  int
}

// FlattenStatusBuckets converts a bucket map into rows in BucketOrder.
// The other bucket is omitted when it is empty.
func FlattenStatusBuckets(buckets map[string]int) []StatusRow {
	rows := make([]StatusRow, 0, len(BucketOrder))
	for _, bucket := range BucketOrder {
		count := buckets[bucket]
		if bucket == BucketOther && count == 0 {
			continue
		}
		rows = append(rows, StatusRow{Bucket: bucket, Count: count})
	}
	return rows
}

func newStatusBuckets() map[string]int {
	buckets := make(map[string]int, len(BucketOrder))
	for _, bucket := range BucketOrder {
		buckets[bucket] = 0
	}
	return buckets
}
