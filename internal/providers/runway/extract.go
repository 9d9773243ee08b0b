package runway

import "strings"

// Bucket is the local meaning of a remote task status.
type Bucket int

const (
	BucketPending Bucket = iota
	BucketSucceeded
	BucketFailed
)

var (
	successStatuses = map[string]struct{}{
		"SUCCEEDED": {}, "COMPLETED": {}, "SUCCESS": {}, "DONE": {},
	}
	failureStatuses = map[string]struct{}{
		"FAILED": {}, "CANCELLED": {}, "CANCELED": {}, "ERROR": {}, "ABORTED": {},
	}
)

// Classify folds a remote status onto a bucket. Unknown values keep polling.
func Classify(status string) Bucket {
	s := strings.ToUpper(strings.TrimSpace(status))
	if _, ok := successStatuses[s]; ok {
		return BucketSucceeded
	}
	if _, ok := failureStatuses[s]; ok {
		return BucketFailed
	}
	return BucketPending
}

type urlShape func(doc map[string]any) string

// Order matters: the first shape yielding a non-empty string wins.
var urlShapes = []urlShape{
	func(doc map[string]any) string { return str(index(doc["output"], 0)) },
	func(doc map[string]any) string { return str(field(index(doc["output"], 0), "url")) },
	func(doc map[string]any) string { return str(field(doc["output"], "url")) },
	func(doc map[string]any) string { return str(field(doc["result"], "url")) },
	func(doc map[string]any) string { return str(field(index(doc["artifacts"], 0), "url")) },
	func(doc map[string]any) string { return str(doc["videoUrl"]) },
	func(doc map[string]any) string { return str(doc["video_url"]) },
	func(doc map[string]any) string { return str(doc["url"]) },
}

// ExtractVideoURL returns the first video URL found in a task document, or "".
func ExtractVideoURL(doc map[string]any) string {
	if doc == nil {
		return ""
	}
	for _, shape := range urlShapes {
		if u := shape(doc); u != "" {
			return u
		}
	}
	return ""
}

func index(v any, i int) any {
	list, ok := v.([]any)
	if !ok || i >= len(list) {
		return nil
	}
	return list[i]
}

func field(v any, key string) any {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func str(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
