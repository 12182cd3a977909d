package blocks

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// RichTextBlockPath is the construct path rich text blocks report.
const RichTextBlockPath = "blockform.blocks.RichTextBlock"

var (
	richTextPolicyOnce sync.Once
	richTextClean      *bluemonday.Policy
	richTextStrip      *bluemonday.Policy
)

func richTextPolicies() (*bluemonday.Policy, *bluemonday.Policy) {
	richTextPolicyOnce.Do(func() {
		richTextClean = bluemonday.UGCPolicy()
		richTextStrip = bluemonday.StrictPolicy()
	})
	return richTextClean, richTextStrip
}

// RichTextBlock is a formatted text field. Submitted markup is sanitised to a
// user-generated-content whitelist during Clean; search indexing sees the
// plain text with all tags stripped.
type RichTextBlock struct {
	BaseBlock
}

func NewRichTextBlock(options ...Option) *RichTextBlock {
	return &RichTextBlock{BaseBlock: newBaseBlock(options)}
}

func (b *RichTextBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *RichTextBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	control := fmt.Sprintf(`<textarea%s data-richtext>%s</textarea>`,
		inputAttrs(prefix, b.meta), html.EscapeString(stringOf(value)))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *RichTextBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *RichTextBlock) Clean(value any) (any, error) {
	clean, strip := richTextPolicies()
	sanitized := clean.Sanitize(stringOf(value))
	text := strings.TrimSpace(strip.Sanitize(sanitized))
	if text == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	return sanitized, nil
}

func (b *RichTextBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *RichTextBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *RichTextBlock) SearchableContent(value any) []string {
	_, strip := richTextPolicies()
	text := strings.TrimSpace(strip.Sanitize(stringOf(value)))
	if text == "" {
		return nil
	}
	return []string{text}
}

func (b *RichTextBlock) JSInitializer() string {
	return "RichTextEditor()"
}

func (b *RichTextBlock) Deconstruct() Definition {
	return Definition{Path: RichTextBlockPath, Config: b.meta.configMap()}
}
