package blocks

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	CharBlockPath    = "blockform.blocks.CharBlock"
	TextBlockPath    = "blockform.blocks.TextBlock"
	IntegerBlockPath = "blockform.blocks.IntegerBlock"
	DecimalBlockPath = "blockform.blocks.DecimalBlock"
	BooleanBlockPath = "blockform.blocks.BooleanBlock"
	ChoiceBlockPath  = "blockform.blocks.ChoiceBlock"
	DateBlockPath    = "blockform.blocks.DateBlock"
	EmailBlockPath   = "blockform.blocks.EmailBlock"
	URLBlockPath     = "blockform.blocks.URLBlock"
)

const dateFormat = "2006-01-02"

var fieldValidator = validator.New()

func stringOf(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func requiredError() error {
	return NewValidationError("This field is required.")
}

func checkLength(s string, meta Meta) error {
	length := len([]rune(s))
	if meta.MinLength > 0 && length < meta.MinLength {
		return NewValidationError(fmt.Sprintf(
			"Ensure this value has at least %d characters (it has %d).", meta.MinLength, length))
	}
	if meta.MaxLength > 0 && length > meta.MaxLength {
		return NewValidationError(fmt.Sprintf(
			"Ensure this value has at most %d characters (it has %d).", meta.MaxLength, length))
	}
	return nil
}

func checkBounds(v float64, meta Meta) error {
	if meta.Min != nil && v < *meta.Min {
		return NewValidationError(fmt.Sprintf(
			"Ensure this value is greater than or equal to %v.", *meta.Min))
	}
	if meta.Max != nil && v > *meta.Max {
		return NewValidationError(fmt.Sprintf(
			"Ensure this value is less than or equal to %v.", *meta.Max))
	}
	return nil
}

// renderField wraps a form control with the shared label, error list and help
// text chrome every field block renders.
func renderField(b *BaseBlock, prefix, control string, errs []error) string {
	var out strings.Builder
	out.WriteString(`<div class="field">`)
	if label := b.Label(); label != "" {
		out.WriteString(`<label for="`)
		out.WriteString(html.EscapeString(prefix))
		out.WriteString(`">`)
		out.WriteString(html.EscapeString(label))
		out.WriteString("</label>")
	}
	var messages []string
	for _, err := range errs {
		messages = append(messages, ErrorMessages(err)...)
	}
	if len(messages) > 0 {
		out.WriteString(`<ul class="errors">`)
		for _, msg := range messages {
			out.WriteString("<li>")
			out.WriteString(html.EscapeString(msg))
			out.WriteString("</li>")
		}
		out.WriteString("</ul>")
	}
	out.WriteString(control)
	if b.meta.HelpText != "" {
		out.WriteString(`<p class="help">`)
		out.WriteString(html.EscapeString(b.meta.HelpText))
		out.WriteString("</p>")
	}
	out.WriteString("</div>")
	return out.String()
}

func inputAttrs(prefix string, meta Meta) string {
	var out strings.Builder
	fmt.Fprintf(&out, ` name=%q id=%q`, html.EscapeString(prefix), html.EscapeString(prefix))
	if meta.Required {
		out.WriteString(" required")
	}
	if meta.MaxLength > 0 {
		fmt.Fprintf(&out, ` maxlength="%d"`, meta.MaxLength)
	}
	return out.String()
}

// CharBlock is a single-line text field.
type CharBlock struct {
	BaseBlock
}

func NewCharBlock(options ...Option) *CharBlock {
	return &CharBlock{BaseBlock: newBaseBlock(options)}
}

func (b *CharBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *CharBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	control := fmt.Sprintf(`<input type="text"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(stringOf(value)))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *CharBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *CharBlock) Clean(value any) (any, error) {
	s := strings.TrimSpace(stringOf(value))
	if s == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	if err := checkLength(s, b.meta); err != nil {
		return nil, err
	}
	return s, nil
}

func (b *CharBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *CharBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *CharBlock) SearchableContent(value any) []string {
	if s := stringOf(value); s != "" {
		return []string{s}
	}
	return nil
}

func (b *CharBlock) Deconstruct() Definition {
	return Definition{Path: CharBlockPath, Config: b.meta.configMap()}
}

// TextBlock is a multi-line text field.
type TextBlock struct {
	BaseBlock
}

func NewTextBlock(options ...Option) *TextBlock {
	return &TextBlock{BaseBlock: newBaseBlock(options)}
}

func (b *TextBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *TextBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	control := fmt.Sprintf(`<textarea%s>%s</textarea>`,
		inputAttrs(prefix, b.meta), html.EscapeString(stringOf(value)))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *TextBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *TextBlock) Clean(value any) (any, error) {
	s := strings.TrimSpace(stringOf(value))
	if s == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	if err := checkLength(s, b.meta); err != nil {
		return nil, err
	}
	return s, nil
}

func (b *TextBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *TextBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *TextBlock) SearchableContent(value any) []string {
	if s := stringOf(value); s != "" {
		return []string{s}
	}
	return nil
}

func (b *TextBlock) Deconstruct() Definition {
	return Definition{Path: TextBlockPath, Config: b.meta.configMap()}
}

// IntegerBlock is a whole-number field. Native values are int64.
type IntegerBlock struct {
	BaseBlock
}

func NewIntegerBlock(options ...Option) *IntegerBlock {
	return &IntegerBlock{BaseBlock: newBaseBlock(options)}
}

func coerceInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
		return 0, false
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

func (b *IntegerBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	display := ""
	if value != nil {
		display = stringOf(value)
	}
	control := fmt.Sprintf(`<input type="number"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(display))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *IntegerBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *IntegerBlock) Clean(value any) (any, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return nil, nil
	}
	if value == nil {
		if b.meta.Required {
			return nil, requiredError()
		}
		return nil, nil
	}
	n, ok := coerceInt(value)
	if !ok {
		return nil, NewValidationError("Enter a whole number.")
	}
	if err := checkBounds(float64(n), b.meta); err != nil {
		return nil, err
	}
	return n, nil
}

func (b *IntegerBlock) ToNative(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	n, ok := coerceInt(raw)
	if !ok {
		return nil, fmt.Errorf("blocks: %v is not a whole number", raw)
	}
	return n, nil
}

func (b *IntegerBlock) PrepValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	n, ok := coerceInt(value)
	if !ok {
		return nil, fmt.Errorf("blocks: %v is not a whole number", value)
	}
	return n, nil
}

func (b *IntegerBlock) SearchableContent(value any) []string {
	return nil
}

func (b *IntegerBlock) Deconstruct() Definition {
	return Definition{Path: IntegerBlockPath, Config: b.meta.configMap()}
}

// DecimalBlock is a numeric field. Native values are float64.
type DecimalBlock struct {
	BaseBlock
}

func NewDecimalBlock(options ...Option) *DecimalBlock {
	return &DecimalBlock{BaseBlock: newBaseBlock(options)}
}

func coerceFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func (b *DecimalBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	display := ""
	if value != nil {
		display = stringOf(value)
	}
	control := fmt.Sprintf(`<input type="number" step="any"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(display))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *DecimalBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *DecimalBlock) Clean(value any) (any, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return nil, nil
	}
	if value == nil {
		if b.meta.Required {
			return nil, requiredError()
		}
		return nil, nil
	}
	f, ok := coerceFloat(value)
	if !ok {
		return nil, NewValidationError("Enter a number.")
	}
	if err := checkBounds(f, b.meta); err != nil {
		return nil, err
	}
	return f, nil
}

func (b *DecimalBlock) ToNative(raw any) (any, error) {
	if raw == nil {
		return nil, nil
	}
	f, ok := coerceFloat(raw)
	if !ok {
		return nil, fmt.Errorf("blocks: %v is not a number", raw)
	}
	return f, nil
}

func (b *DecimalBlock) PrepValue(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	f, ok := coerceFloat(value)
	if !ok {
		return nil, fmt.Errorf("blocks: %v is not a number", value)
	}
	return f, nil
}

func (b *DecimalBlock) SearchableContent(value any) []string {
	return nil
}

func (b *DecimalBlock) Deconstruct() Definition {
	return Definition{Path: DecimalBlockPath, Config: b.meta.configMap()}
}

// BooleanBlock is a checkbox field. Browsers omit unchecked checkboxes from
// submissions, so presence of the key is the signal.
type BooleanBlock struct {
	BaseBlock
}

func NewBooleanBlock(options ...Option) *BooleanBlock {
	return &BooleanBlock{BaseBlock: newBaseBlock(options)}
}

func (b *BooleanBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return false
}

func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "on", "yes":
			return true
		}
		return false
	default:
		return false
	}
}

func (b *BooleanBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	checked := ""
	if coerceBool(value) {
		checked = " checked"
	}
	control := fmt.Sprintf(`<input type="checkbox"%s value="1"%s>`,
		inputAttrs(prefix, b.meta), checked)
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *BooleanBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	_, present := data[prefix]
	return present
}

func (b *BooleanBlock) Clean(value any) (any, error) {
	checked := coerceBool(value)
	if b.meta.Required && !checked {
		return nil, requiredError()
	}
	return checked, nil
}

func (b *BooleanBlock) ToNative(raw any) (any, error) {
	return coerceBool(raw), nil
}

func (b *BooleanBlock) PrepValue(value any) (any, error) {
	return coerceBool(value), nil
}

func (b *BooleanBlock) SearchableContent(value any) []string {
	return nil
}

func (b *BooleanBlock) Deconstruct() Definition {
	return Definition{Path: BooleanBlockPath, Config: b.meta.configMap()}
}

// ChoiceBlock is a select field over a fixed option list. Native values are
// the option values; labels surface in rendering and search.
type ChoiceBlock struct {
	BaseBlock
}

func NewChoiceBlock(options ...Option) *ChoiceBlock {
	return &ChoiceBlock{BaseBlock: newBaseBlock(options)}
}

func (b *ChoiceBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *ChoiceBlock) choice(value string) (Choice, bool) {
	for _, choice := range b.meta.Choices {
		if choice.Value == value {
			return choice, true
		}
	}
	return Choice{}, false
}

func (b *ChoiceBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	current := stringOf(value)
	var control strings.Builder
	fmt.Fprintf(&control, "<select%s>", inputAttrs(prefix, b.meta))
	if !b.meta.Required {
		control.WriteString(`<option value="">---------</option>`)
	}
	for _, choice := range b.meta.Choices {
		selected := ""
		if choice.Value == current {
			selected = " selected"
		}
		fmt.Fprintf(&control, `<option value="%s"%s>%s</option>`,
			html.EscapeString(choice.Value), selected, html.EscapeString(choice.Label))
	}
	control.WriteString("</select>")
	return renderField(&b.BaseBlock, prefix, control.String(), errs), nil
}

func (b *ChoiceBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *ChoiceBlock) Clean(value any) (any, error) {
	s := stringOf(value)
	if s == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	if _, ok := b.choice(s); !ok {
		return nil, NewValidationError(fmt.Sprintf(
			"Select a valid choice. %q is not one of the available choices.", s))
	}
	return s, nil
}

func (b *ChoiceBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *ChoiceBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *ChoiceBlock) SearchableContent(value any) []string {
	if choice, ok := b.choice(stringOf(value)); ok {
		return []string{choice.Label}
	}
	return nil
}

func (b *ChoiceBlock) Deconstruct() Definition {
	return Definition{Path: ChoiceBlockPath, Config: b.meta.configMap()}
}

// DateBlock is a calendar date field. Native values are time.Time at midnight
// UTC; the stored form is "YYYY-MM-DD".
type DateBlock struct {
	BaseBlock
}

func NewDateBlock(options ...Option) *DateBlock {
	return &DateBlock{BaseBlock: newBaseBlock(options)}
}

func coerceDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(dateFormat, strings.TrimSpace(v))
		return t, err == nil
	default:
		return time.Time{}, false
	}
}

func (b *DateBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	display := ""
	if t, ok := coerceDate(value); ok && !t.IsZero() {
		display = t.Format(dateFormat)
	}
	control := fmt.Sprintf(`<input type="date"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(display))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *DateBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *DateBlock) Clean(value any) (any, error) {
	if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return time.Time{}, nil
	}
	if value == nil {
		if b.meta.Required {
			return nil, requiredError()
		}
		return time.Time{}, nil
	}
	t, ok := coerceDate(value)
	if !ok {
		return nil, NewValidationError("Enter a valid date (YYYY-MM-DD).")
	}
	return t, nil
}

func (b *DateBlock) ToNative(raw any) (any, error) {
	if raw == nil {
		return time.Time{}, nil
	}
	if s, ok := raw.(string); ok && s == "" {
		return time.Time{}, nil
	}
	t, ok := coerceDate(raw)
	if !ok {
		return nil, fmt.Errorf("blocks: %v is not a valid date", raw)
	}
	return t, nil
}

func (b *DateBlock) PrepValue(value any) (any, error) {
	t, ok := coerceDate(value)
	if !ok || t.IsZero() {
		return "", nil
	}
	return t.Format(dateFormat), nil
}

func (b *DateBlock) SearchableContent(value any) []string {
	return nil
}

func (b *DateBlock) JSInitializer() string {
	return "DateChooser()"
}

func (b *DateBlock) Deconstruct() Definition {
	return Definition{Path: DateBlockPath, Config: b.meta.configMap()}
}

// EmailBlock is a single-line field that validates as an email address.
type EmailBlock struct {
	BaseBlock
}

func NewEmailBlock(options ...Option) *EmailBlock {
	return &EmailBlock{BaseBlock: newBaseBlock(options)}
}

func (b *EmailBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *EmailBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	control := fmt.Sprintf(`<input type="email"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(stringOf(value)))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *EmailBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *EmailBlock) Clean(value any) (any, error) {
	s := strings.TrimSpace(stringOf(value))
	if s == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	if err := fieldValidator.Var(s, "email"); err != nil {
		return nil, NewValidationError("Enter a valid email address.")
	}
	return s, nil
}

func (b *EmailBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *EmailBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *EmailBlock) SearchableContent(value any) []string {
	if s := stringOf(value); s != "" {
		return []string{s}
	}
	return nil
}

func (b *EmailBlock) Deconstruct() Definition {
	return Definition{Path: EmailBlockPath, Config: b.meta.configMap()}
}

// URLBlock is a single-line field that validates as an absolute URL.
type URLBlock struct {
	BaseBlock
}

func NewURLBlock(options ...Option) *URLBlock {
	return &URLBlock{BaseBlock: newBaseBlock(options)}
}

func (b *URLBlock) Default() any {
	if b.meta.Default != nil {
		return b.meta.Default
	}
	return ""
}

func (b *URLBlock) RenderForm(ctx context.Context, value any, prefix string, errs []error) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	control := fmt.Sprintf(`<input type="url"%s value="%s">`,
		inputAttrs(prefix, b.meta), html.EscapeString(stringOf(value)))
	return renderField(&b.BaseBlock, prefix, control, errs), nil
}

func (b *URLBlock) ValueFromDataDict(data url.Values, files FileMap, prefix string) any {
	return data.Get(prefix)
}

func (b *URLBlock) Clean(value any) (any, error) {
	s := strings.TrimSpace(stringOf(value))
	if s == "" {
		if b.meta.Required {
			return nil, requiredError()
		}
		return "", nil
	}
	if err := fieldValidator.Var(s, "url"); err != nil {
		return nil, NewValidationError("Enter a valid URL.")
	}
	return s, nil
}

func (b *URLBlock) ToNative(raw any) (any, error) {
	return stringOf(raw), nil
}

func (b *URLBlock) PrepValue(value any) (any, error) {
	return stringOf(value), nil
}

func (b *URLBlock) SearchableContent(value any) []string {
	if s := stringOf(value); s != "" {
		return []string{s}
	}
	return nil
}

func (b *URLBlock) Deconstruct() Definition {
	return Definition{Path: URLBlockPath, Config: b.meta.configMap()}
}
