package jsonapi

import (
	"encoding/json"
	"strings"
)

// The real service returns empty collections at a near-constant wire size.
// Empty responses below the target get a meta "_padding" member of spaces
// sized to reach target minus a fixed slack for the structural punctuation
// added by final serialization.
const (
	// EmptyResponseTargetSize is the observed byte size of empty
	// collection responses from the emulated service.
	EmptyResponseTargetSize = 2472

	paddingSlack = 20
)

// PadEmptyCollection injects the size-normalization padding into an empty
// collection document. Non-empty collections, single-resource documents and
// error documents are never touched.
func PadEmptyCollection(doc *Document) {
	if doc == nil || len(doc.Errors) > 0 {
		return
	}

	resources, ok := doc.Data.([]Resource)
	if !ok || len(resources) != 0 {
		return
	}
	if total, ok := metaInt(doc.Meta, "totalCount"); !ok || total != 0 {
		return
	}

	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	size := len(raw)
	if size >= EmptyResponseTargetSize {
		return
	}

	// A response already inside the slack window gets an empty padding
	// member rather than a negative repeat count.
	count := EmptyResponseTargetSize - size - paddingSlack
	if count < 0 {
		count = 0
	}

	if doc.Meta == nil {
		doc.Meta = map[string]any{}
	}
	doc.Meta["_padding"] = strings.Repeat(" ", count)
}

func metaInt(meta map[string]any, key string) (int, bool) {
	if meta == nil {
		return 0, false
	}
	switch v := meta[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
