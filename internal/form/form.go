// Package form turns browser-style multi-value form submissions into
// domain.ExperienceInput.
//
// Coercion never rejects a submission: malformed numbers fall back to a
// default, malformed JSON fields are emptied, and every substitution is
// reported as a domain.FieldWarning so the caller can surface it.
package form

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/url"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/pkordes/tourdesk/internal/domain"
)

// Integer fields and the value used when a submitted value does not parse.
var intDefaults = map[string]int{
	"booking_notice_hours": 24,
	"duration_minutes":     60,
	"min_group_size":       1,
	"max_group_size":       10,
}

var stringFields = []string{
	"name", "description", "category", "location", "meeting_point",
	"currency", "cancellation_policy",
}

var arrayFields = []string{
	"included", "excluded", "requirements", "highlights", "languages", "tags",
}

var boolFields = []string{"is_active", "is_bookable_online", "is_shareable"}

// ImageField is the multipart key holding attached image files.
const ImageField = "images"

// Parser converts submissions; it logs every fallback it applies.
type Parser struct {
	log *slog.Logger
}

// NewParser returns a Parser that logs through log.
func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}
	return &Parser{log: log}
}

// ParseValues maps form values to an input. Only keys present in values are
// set, so the result doubles as a partial update.
func (p *Parser) ParseValues(values url.Values) (domain.ExperienceInput, []domain.FieldWarning) {
	var (
		in       domain.ExperienceInput
		warnings []domain.FieldWarning
	)
	warn := func(field, msg string) {
		warnings = append(warnings, domain.FieldWarning{Field: field, Message: msg})
		p.log.Warn("form field coerced", "field", field, "reason", msg)
	}

	if raw, ok := single(values, "org_id"); ok && raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			warn("org_id", "not a valid id; ignored")
		} else {
			in.OrgID = &id
		}
	}

	strs := make(map[string]*string)
	for _, key := range stringFields {
		if raw, ok := single(values, key); ok {
			v := strings.TrimSpace(raw)
			strs[key] = &v
		}
	}
	in.Name = strs["name"]
	in.Description = strs["description"]
	in.Category = strs["category"]
	in.Location = strs["location"]
	in.MeetingPoint = strs["meeting_point"]
	in.Currency = strs["currency"]
	in.CancellationPolicy = strs["cancellation_policy"]

	ints := make(map[string]*int)
	for key, def := range intDefaults {
		raw, ok := single(values, key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			n = def
			warn(key, fmt.Sprintf("%q is not a whole number; using %d", raw, def))
		}
		ints[key] = &n
	}
	in.BookingNoticeHours = ints["booking_notice_hours"]
	in.DurationMinutes = ints["duration_minutes"]
	in.MinGroupSize = ints["min_group_size"]
	in.MaxGroupSize = ints["max_group_size"]

	if raw, ok := single(values, "price"); ok {
		price, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			price = 0
			warn("price", fmt.Sprintf("%q is not a number; using 0", raw))
		}
		in.Price = &price
	}

	arrays := make(map[string]*[]string)
	for _, key := range arrayFields {
		if list, ok := multi(values, key); ok {
			arrays[key] = &list
		}
	}
	in.Included = arrays["included"]
	in.Excluded = arrays["excluded"]
	in.Requirements = arrays["requirements"]
	in.Highlights = arrays["highlights"]
	in.Languages = arrays["languages"]
	in.Tags = arrays["tags"]

	bools := make(map[string]*bool)
	for _, key := range boolFields {
		if raw, ok := single(values, key); ok {
			b := parseBool(raw)
			bools[key] = &b
		}
	}
	in.IsActive = bools["is_active"]
	in.IsBookableOnline = bools["is_bookable_online"]
	in.IsShareable = bools["is_shareable"]

	if raw, ok := single(values, "categories"); ok {
		cats := []string{}
		if strings.TrimSpace(raw) != "" {
			var parsed []string
			if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
				warn("categories", "not a JSON array of strings; cleared")
			} else {
				cats = compact(parsed)
			}
		}
		in.Categories = &cats
	}

	if raw, ok := single(values, "available_dates"); ok {
		dates := json.RawMessage("null")
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			if json.Valid([]byte(trimmed)) {
				dates = json.RawMessage(trimmed)
			} else {
				warn("available_dates", "not valid JSON; cleared")
			}
		}
		in.AvailableDates = &dates
	}

	if list, ok := multi(values, "remove_images"); ok {
		in.RemoveImages = list
	}

	Normalize(&in)
	return in, warnings
}

// Normalize applies the text rules every submission shares, whatever its
// encoding: strings trimmed, currency upper-cased, list entries trimmed with
// blanks dropped. Absent fields stay absent.
func Normalize(in *domain.ExperienceInput) {
	for _, s := range []*string{
		in.Name, in.Description, in.Category, in.Location,
		in.MeetingPoint, in.Currency, in.CancellationPolicy,
	} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	if in.Currency != nil {
		*in.Currency = strings.ToUpper(*in.Currency)
	}

	for _, list := range []*[]string{
		in.Categories, in.Included, in.Excluded, in.Requirements,
		in.Highlights, in.Languages, in.Tags,
	} {
		if list != nil {
			*list = compact(*list)
		}
	}
	if in.RemoveImages != nil {
		in.RemoveImages = compact(in.RemoveImages)
	}
}

// ParseMultipart maps a multipart form, reading attached image files
// sequentially. A file that cannot be read is skipped with a warning.
func (p *Parser) ParseMultipart(mf *multipart.Form) (domain.ExperienceInput, []domain.FieldWarning) {
	in, warnings := p.ParseValues(url.Values(mf.Value))

	for _, fh := range mf.File[ImageField] {
		up, err := readUpload(fh)
		if err != nil {
			warnings = append(warnings, domain.FieldWarning{Field: ImageField, Message: fmt.Sprintf("%s: %v; skipped", fh.Filename, err)})
			p.log.Warn("image part unreadable", "filename", fh.Filename, "error", err)
			continue
		}
		in.Uploads = append(in.Uploads, up)
	}
	return in, warnings
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Upload{}, err
	}
	if len(data) == 0 {
		return domain.Upload{}, fmt.Errorf("empty file")
	}

	ct := fh.Header.Get("Content-Type")
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(data).String()
	}
	return domain.Upload{Filename: fh.Filename, ContentType: ct, Data: data}, nil
}

// single returns the first value for key.
func single(values url.Values, key string) (string, bool) {
	vs, ok := values[key]
	if !ok || len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// multi collects repeated key and key[] values, dropping blank entries.
// ok is true when either key was submitted, even if every entry was blank.
func multi(values url.Values, key string) ([]string, bool) {
	a, okA := values[key]
	b, okB := values[key+"[]"]
	if !okA && !okB {
		return nil, false
	}
	return compact(append(append([]string{}, a...), b...)), true
}

// compact trims entries and drops empty ones. Never returns nil.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}
