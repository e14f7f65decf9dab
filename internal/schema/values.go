package schema

import (
	"encoding/json"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"cs-go/internal/model"
)

// e164 covers the international phone number format: a plus sign followed
// by up to fifteen digits, no leading zero.
var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValueValidator checks one Entry Value against the FieldDefinition it
// satisfies. Content is translatable: it maps supported language codes to
// per-language values, every key optional.
type ValueValidator struct {
	def       model.FieldDefinition
	languages map[string]bool
}

// ForFieldDefinition builds the validator for one field. languages is the
// project's supported language set; content keyed by any other language is
// rejected. Self-referencing entry fields (a Collection targeting its own
// id) are supported without recursion: target ids are checked against the
// pointer itself, never by expanding the target's schema.
func ForFieldDefinition(def model.FieldDefinition, languages []string) (*ValueValidator, error) {
	if !def.ValueType.Valid() {
		return nil, fmt.Errorf("unknown value type %q", def.ValueType)
	}
	if len(languages) == 0 {
		return nil, fmt.Errorf("at least one supported language is required")
	}
	langs := make(map[string]bool, len(languages))
	for _, l := range languages {
		langs[l] = true
	}
	return &ValueValidator{def: def, languages: langs}, nil
}

// Validate checks val against the field definition.
func (vv *ValueValidator) Validate(val model.Value) error {
	if val.FieldDefinitionID != vv.def.ID {
		return failf("fieldDefinitionId", "expected %q, got %q", vv.def.ID, val.FieldDefinitionID)
	}
	if val.ValueType != vv.def.ValueType {
		return failf("valueType", "expected %q, got %q", vv.def.ValueType, val.ValueType)
	}
	if vv.def.ValueType == model.ValueTypeReference {
		return vv.validateReferences(val.References)
	}
	return vv.validateContent(val.Content)
}

func (vv *ValueValidator) validateContent(content map[string]any) error {
	populated := 0
	for lang, v := range content {
		if !vv.languages[lang] {
			return failf("content", "unsupported language %q", lang)
		}
		if v == nil {
			if vv.def.IsRequired {
				return failf("content."+lang, "required field must not be null")
			}
			continue
		}
		if err := vv.checkScalar(lang, v); err != nil {
			return err
		}
		populated++
	}
	if vv.def.IsRequired && populated == 0 {
		return failf("content", "required field has no content")
	}
	return nil
}

func (vv *ValueValidator) checkScalar(lang string, v any) error {
	path := "content." + lang
	switch vv.def.ValueType {
	case model.ValueTypeBoolean:
		if _, ok := v.(bool); !ok {
			return failf(path, "expected a boolean, got %T", v)
		}
	case model.ValueTypeNumber:
		n, ok := toFloat(v)
		if !ok {
			return failf(path, "expected a number, got %T", v)
		}
		if vv.def.Min != nil && n < *vv.def.Min {
			return failf(path, "must be at least %v", *vv.def.Min)
		}
		if vv.def.Max != nil && n > *vv.def.Max {
			return failf(path, "must be at most %v", *vv.def.Max)
		}
	case model.ValueTypeString:
		s, ok := v.(string)
		if !ok {
			return failf(path, "expected a string, got %T", v)
		}
		return vv.checkString(path, s)
	}
	return nil
}

func (vv *ValueValidator) checkString(path, s string) error {
	trimmed := strings.TrimSpace(s)
	if vv.def.IsRequired && trimmed == "" {
		return failf(path, "required field must not be empty")
	}
	switch vv.def.FieldType {
	case model.FieldTypeEmail:
		if _, err := mail.ParseAddress(trimmed); err != nil {
			return failf(path, "not a valid email address")
		}
	case model.FieldTypeURL:
		u, err := url.Parse(trimmed)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return failf(path, "not a valid URL")
		}
	case model.FieldTypeIP:
		ip := net.ParseIP(trimmed)
		if ip == nil || ip.To4() == nil {
			return failf(path, "not a valid IPv4 address")
		}
	case model.FieldTypeDate:
		if _, err := time.Parse("2006-01-02", trimmed); err != nil {
			return failf(path, "not a valid ISO date")
		}
	case model.FieldTypeTime:
		if _, err := time.Parse("15:04:05", trimmed); err != nil {
			return failf(path, "not a valid ISO time")
		}
	case model.FieldTypeDatetime:
		if _, err := time.Parse(time.RFC3339, trimmed); err != nil {
			return failf(path, "not a valid ISO date-time")
		}
	case model.FieldTypeTelephone:
		if !e164.MatchString(trimmed) {
			return failf(path, "not a valid E.164 phone number")
		}
	default:
		// Plain text: bounds apply to the trimmed length.
		n := float64(len(trimmed))
		if vv.def.Min != nil && n < *vv.def.Min {
			return failf(path, "must be at least %v characters", *vv.def.Min)
		}
		if vv.def.Max != nil && n > *vv.def.Max {
			return failf(path, "must be at most %v characters", *vv.def.Max)
		}
	}
	return nil
}

func (vv *ValueValidator) validateReferences(refs map[string][]model.Reference) error {
	allowed := make(map[string]bool, len(vv.def.OfCollections))
	for _, id := range vv.def.OfCollections {
		allowed[id] = true
	}
	populated := 0
	for lang, list := range refs {
		if !vv.languages[lang] {
			return failf("references", "unsupported language %q", lang)
		}
		path := "references." + lang
		n := float64(len(list))
		if vv.def.Min != nil && n < *vv.def.Min {
			return failf(path, "must reference at least %v objects", *vv.def.Min)
		}
		if vv.def.Max != nil && n > *vv.def.Max {
			return failf(path, "must reference at most %v objects", *vv.def.Max)
		}
		for i, ref := range list {
			if err := vv.checkReference(fmt.Sprintf("%s[%d]", path, i), ref, allowed); err != nil {
				return err
			}
		}
		if len(list) > 0 {
			populated++
		}
	}
	if vv.def.IsRequired && populated == 0 {
		return failf("references", "required field must reference at least one object")
	}
	return nil
}

func (vv *ValueValidator) checkReference(path string, ref model.Reference, allowed map[string]bool) error {
	if _, err := uuid.Parse(ref.ID); err != nil {
		return failf(path+".id", "not a valid UUID: %q", ref.ID)
	}
	switch vv.def.FieldType {
	case model.FieldTypeAssetReference:
		if ref.ObjectType != model.ReferenceToAsset {
			return failf(path+".objectType", "expected an asset reference, got %q", ref.ObjectType)
		}
	case model.FieldTypeEntryReference:
		if ref.ObjectType != model.ReferenceToEntry {
			return failf(path+".objectType", "expected an entry reference, got %q", ref.ObjectType)
		}
		if ref.CollectionID == "" {
			return failf(path+".collectionId", "entry references must carry their collection id")
		}
		if len(allowed) > 0 && !allowed[ref.CollectionID] {
			return failf(path+".collectionId", "collection %q is not an allowed target", ref.CollectionID)
		}
	default:
		return failf(path, "field type %q does not hold references", vv.def.FieldType)
	}
	return nil
}

// ForCollection builds one validator per FieldDefinition, keyed by id.
func ForCollection(col *model.Collection, languages []string) (map[string]*ValueValidator, error) {
	validators := make(map[string]*ValueValidator, len(col.FieldDefinitions))
	for _, def := range col.FieldDefinitions {
		vv, err := ForFieldDefinition(def, languages)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", def.ID, err)
		}
		validators[def.ID] = vv
	}
	return validators, nil
}

// ValidateEntryValues checks an Entry's values against its parent
// Collection: every value's fieldDefinitionId must exist on the Collection,
// every value must satisfy its generated validator, and required fields
// must be present.
func ValidateEntryValues(col *model.Collection, languages []string, values []model.Value) error {
	validators, err := ForCollection(col, languages)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(values))
	for i, val := range values {
		vv, ok := validators[val.FieldDefinitionID]
		if !ok {
			return failf(fmt.Sprintf("values[%d].fieldDefinitionId", i), "no field definition %q on collection %s", val.FieldDefinitionID, col.ID)
		}
		if seen[val.FieldDefinitionID] {
			return failf(fmt.Sprintf("values[%d].fieldDefinitionId", i), "duplicate value for field %q", val.FieldDefinitionID)
		}
		seen[val.FieldDefinitionID] = true
		if err := vv.Validate(val); err != nil {
			return err
		}
	}
	for _, def := range col.FieldDefinitions {
		if def.IsRequired && !seen[def.ID] {
			return failf("values", "missing value for required field %q", def.ID)
		}
	}
	return nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
