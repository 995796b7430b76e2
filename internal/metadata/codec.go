// Package metadata normalizes document metadata between the flat key/value
// maps held by a document store and the structured form exposed to callers.
//
// The knowledge base recognizes a small set of known fields (source, topic,
// created_at); everything else is carried in an open extra-field bag. The two
// namespaces are kept disjoint, and Normalize/Flatten round-trip losslessly
// for any map whose keys do not collide between them.
package metadata

import "maps"

// Known field keys recognized by the codec.
const (
	KeySource    = "source"
	KeyTopic     = "topic"
	KeyCreatedAt = "created_at"
)

// DocumentMetadata is the structured metadata of a stored document.
//
// Known fields are optional; an empty string means unset. Extra holds every
// key that is not a known field.
type DocumentMetadata struct {
	Source    string         `json:"source,omitempty"`
	Topic     string         `json:"topic,omitempty"`
	CreatedAt string         `json:"created_at,omitempty"`
	Extra     map[string]any `json:"extra_fields,omitempty"`
}

// Normalize partitions a flat metadata map into known fields and the extra
// bag. Keys with nil values are dropped before partitioning. Known fields
// whose value is not a string are treated as extra fields rather than
// silently coerced. Normalize never fails; missing known fields stay unset.
func Normalize(raw map[string]any) DocumentMetadata {
	var meta DocumentMetadata

	for k, v := range raw {
		if v == nil {
			continue
		}

		switch k {
		case KeySource:
			if s, ok := v.(string); ok {
				meta.Source = s
				continue
			}
		case KeyTopic:
			if s, ok := v.(string); ok {
				meta.Topic = s
				continue
			}
		case KeyCreatedAt:
			if s, ok := v.(string); ok {
				meta.CreatedAt = s
				continue
			}
		case "extra_fields":
			// A pre-flattened extra bag merges into Extra so that
			// Normalize(Flatten(m)) is idempotent.
			if bag, ok := v.(map[string]any); ok {
				for bk, bv := range bag {
					if bv == nil {
						continue
					}
					meta.setExtra(bk, bv)
				}
				continue
			}
		}

		meta.setExtra(k, v)
	}

	return meta
}

// Flatten converts the structured metadata back into a flat map suitable for
// storage. Extra fields are merged at the top level; known fields take
// precedence on key collision. The result is a valid Normalize input.
func (m DocumentMetadata) Flatten() map[string]any {
	flat := make(map[string]any, len(m.Extra)+3)
	maps.Copy(flat, m.Extra)

	if m.Source != "" {
		flat[KeySource] = m.Source
	}
	if m.Topic != "" {
		flat[KeyTopic] = m.Topic
	}
	if m.CreatedAt != "" {
		flat[KeyCreatedAt] = m.CreatedAt
	}

	return flat
}

// IsZero reports whether no field, known or extra, is set.
func (m DocumentMetadata) IsZero() bool {
	return m.Source == "" && m.Topic == "" && m.CreatedAt == "" && len(m.Extra) == 0
}

func (m *DocumentMetadata) setExtra(k string, v any) {
	if m.Extra == nil {
		m.Extra = make(map[string]any)
	}
	m.Extra[k] = v
}
