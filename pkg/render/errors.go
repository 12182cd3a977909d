package render

import (
	"strings"

	"github.com/goliatone/go-blockform/pkg/blocks"
)

// ErrorMapping splits a flat error payload into the aggregated block error the
// render pipeline consumes and the form-level messages that could not be
// attached to any field.
type ErrorMapping struct {
	Block error
	Form  []string
}

// MergeFormErrors concatenates and normalises multiple form-level error
// slices, trimming whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

// MapErrorPayload normalises a server error payload keyed by namespaced input
// names ("{prefix}-{name}", nested as "{prefix}-{name}-{child}") into the
// aggregated per-child error shape blocks distribute during rendering. Keys
// that match no child are treated as form-level errors so messages are not
// lost.
func MapErrorPayload(block *blocks.StructBlock, prefix string, payload map[string][]string) ErrorMapping {
	var mapping ErrorMapping
	if len(payload) == 0 {
		return mapping
	}

	blockErrs := make(map[string]error)
	for rawKey, messages := range payload {
		normalized := normalizeMessages(messages)
		if len(normalized) == 0 {
			continue
		}

		name, rest, ok := matchChildKey(block, prefix, rawKey)
		if !ok {
			mapping.Form = append(mapping.Form, normalized...)
			continue
		}

		child, _ := block.Child(name)
		if nested, isStruct := child.(*blocks.StructBlock); isStruct && rest != "" {
			inner := MapErrorPayload(nested, prefix+"-"+name, map[string][]string{rawKey: messages})
			if inner.Block != nil {
				blockErrs[name] = mergeChildError(blockErrs[name], inner.Block)
				continue
			}
			mapping.Form = append(mapping.Form, inner.Form...)
			continue
		}

		blockErrs[name] = mergeChildError(blockErrs[name], blocks.NewValidationError(normalized...))
	}

	if len(blockErrs) > 0 {
		mapping.Block = &blocks.StructBlockError{BlockErrors: blockErrs}
	}
	mapping.Form = normalizeMessages(mapping.Form)
	return mapping
}

// FlattenError renders an aggregated block error into a flat payload keyed by
// namespaced input names, the inverse of MapErrorPayload. Non-aggregated
// errors land under the prefix itself.
func FlattenError(block *blocks.StructBlock, prefix string, err error) map[string][]string {
	if err == nil {
		return nil
	}
	out := make(map[string][]string)
	flattenInto(out, block, prefix, err)
	if len(out) == 0 {
		return nil
	}
	return out
}

func flattenInto(out map[string][]string, block *blocks.StructBlock, prefix string, err error) {
	structErr, ok := err.(*blocks.StructBlockError)
	if !ok {
		out[prefix] = append(out[prefix], blocks.ErrorMessages(err)...)
		return
	}
	for name, childErr := range structErr.BlockErrors {
		key := prefix + "-" + name
		if block != nil {
			if child, found := block.Child(name); found {
				if nested, isStruct := child.(*blocks.StructBlock); isStruct {
					flattenInto(out, nested, key, childErr)
					continue
				}
			}
		}
		out[key] = append(out[key], blocks.ErrorMessages(childErr)...)
	}
}

// matchChildKey resolves a payload key against the block's children under the
// given prefix. It reports the child name, any remaining nested suffix, and
// whether a child matched. Longest names win so "social-link" is not shadowed
// by "social".
func matchChildKey(block *blocks.StructBlock, prefix, key string) (name, rest string, ok bool) {
	if !strings.HasPrefix(key, prefix+"-") {
		return "", "", false
	}
	tail := strings.TrimPrefix(key, prefix+"-")

	var matched string
	for _, child := range block.Children() {
		if tail == child.Name || strings.HasPrefix(tail, child.Name+"-") {
			if len(child.Name) > len(matched) {
				matched = child.Name
			}
		}
	}
	if matched == "" {
		return "", "", false
	}
	return matched, strings.TrimPrefix(strings.TrimPrefix(tail, matched), "-"), true
}

func mergeChildError(existing error, next error) error {
	if existing == nil {
		return next
	}
	messages := append(blocks.ErrorMessages(existing), blocks.ErrorMessages(next)...)
	return blocks.NewValidationError(normalizeMessages(messages)...)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
