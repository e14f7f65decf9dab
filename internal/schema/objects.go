package schema

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/google/uuid"

	"cs-go/internal/model"
)

// validateRecord checks the base shape shared by every stored object.
func validateRecord(rec model.ObjectRecord, want model.ObjectType) error {
	if _, err := uuid.Parse(rec.ID); err != nil {
		return failf("id", "not a valid UUID: %q", rec.ID)
	}
	if rec.ObjectType != want {
		return failf("objectType", "expected %q, got %q", want, rec.ObjectType)
	}
	if rec.Created.IsZero() {
		return failf("created", "must be set")
	}
	if rec.Updated != nil && rec.Updated.Before(rec.Created) {
		return failf("updated", "precedes created")
	}
	return nil
}

// Project validates a decoded project.json.
func Project() Validator {
	return ValidatorFunc(func(v any) error {
		p, ok := v.(*model.Project)
		if !ok {
			return failf("", "expected project, got %T", v)
		}
		if err := validateRecord(p.ObjectRecord, model.ObjectTypeProject); err != nil {
			return err
		}
		if p.Name == "" {
			return failf("name", "must not be empty")
		}
		switch p.Status {
		case model.ProjectStatusTodo, model.ProjectStatusProgress, model.ProjectStatusDone:
		default:
			return failf("status", "unknown status %q", p.Status)
		}
		if _, err := semver.NewVersion(p.Version); err != nil {
			return failf("version", "not a semantic version: %q", p.Version)
		}
		if _, err := semver.NewVersion(p.EngineVersion); err != nil {
			return failf("engineVersion", "not a semantic version: %q", p.EngineVersion)
		}
		if p.Settings.Language.Default == "" {
			return failf("settings.language.default", "must not be empty")
		}
		supported := false
		for _, lang := range p.Settings.Language.Supported {
			if lang == p.Settings.Language.Default {
				supported = true
				break
			}
		}
		if !supported {
			return failf("settings.language.supported", "must include the default language %q", p.Settings.Language.Default)
		}
		return nil
	})
}

// Collection validates a decoded collection.json, including every
// FieldDefinition it declares.
func Collection() Validator {
	return ValidatorFunc(func(v any) error {
		c, ok := v.(*model.Collection)
		if !ok {
			return failf("", "expected collection, got %T", v)
		}
		if err := validateRecord(c.ObjectRecord, model.ObjectTypeCollection); err != nil {
			return err
		}
		if len(c.Name.Singular) == 0 || len(c.Name.Plural) == 0 {
			return failf("name", "singular and plural names must have at least one translation")
		}
		if c.Slug.Singular == "" || c.Slug.Plural == "" {
			return failf("slug", "singular and plural slugs must not be empty")
		}
		for i, def := range c.FieldDefinitions {
			if err := fieldDefinition(def); err != nil {
				return failf(fmt.Sprintf("fieldDefinitions[%d]", i), "%s", err)
			}
		}
		return nil
	})
}

func fieldDefinition(def model.FieldDefinition) error {
	if _, err := uuid.Parse(def.ID); err != nil {
		return failf("id", "not a valid UUID: %q", def.ID)
	}
	if !def.ValueType.Valid() {
		return failf("valueType", "unknown value type %q", def.ValueType)
	}
	if !fieldTypeMatches(def.ValueType, def.FieldType) {
		return failf("fieldType", "%q does not produce %q values", def.FieldType, def.ValueType)
	}
	if def.Min != nil && def.Max != nil && *def.Min > *def.Max {
		return failf("min", "exceeds max")
	}
	if def.ValueType == model.ValueTypeReference {
		if def.FieldType == model.FieldTypeEntryReference && len(def.OfCollections) == 0 {
			return failf("ofCollections", "entry references must declare at least one target collection")
		}
		for i, id := range def.OfCollections {
			if _, err := uuid.Parse(id); err != nil {
				return failf(fmt.Sprintf("ofCollections[%d]", i), "not a valid UUID: %q", id)
			}
		}
	} else if len(def.OfCollections) != 0 {
		return failf("ofCollections", "only valid on reference fields")
	}
	return nil
}

// fieldTypeMatches reports whether the input subtype can produce values of
// the declared value type.
func fieldTypeMatches(vt model.ValueType, ft model.FieldType) bool {
	switch vt {
	case model.ValueTypeString:
		switch ft {
		case model.FieldTypeText, model.FieldTypeTextarea, model.FieldTypeEmail,
			model.FieldTypeURL, model.FieldTypeIP, model.FieldTypeDate,
			model.FieldTypeTime, model.FieldTypeDatetime, model.FieldTypeTelephone:
			return true
		}
	case model.ValueTypeNumber:
		return ft == model.FieldTypeNumber || ft == model.FieldTypeRange
	case model.ValueTypeBoolean:
		return ft == model.FieldTypeToggle
	case model.ValueTypeReference:
		return ft == model.FieldTypeAssetReference || ft == model.FieldTypeEntryReference
	}
	return false
}

// Entry validates a decoded entry file's structure. Field-level content
// checks need the parent Collection and happen in the lifecycle service
// through the value validators.
func Entry() Validator {
	return ValidatorFunc(func(v any) error {
		e, ok := v.(*model.Entry)
		if !ok {
			return failf("", "expected entry, got %T", v)
		}
		if err := validateRecord(e.ObjectRecord, model.ObjectTypeEntry); err != nil {
			return err
		}
		for i, val := range e.Values {
			if _, err := uuid.Parse(val.FieldDefinitionID); err != nil {
				return failf(fmt.Sprintf("values[%d].fieldDefinitionId", i), "not a valid UUID: %q", val.FieldDefinitionID)
			}
			if !val.ValueType.Valid() {
				return failf(fmt.Sprintf("values[%d].valueType", i), "unknown value type %q", val.ValueType)
			}
		}
		return nil
	})
}

// Asset validates a decoded asset metadata file.
func Asset() Validator {
	return ValidatorFunc(func(v any) error {
		a, ok := v.(*model.Asset)
		if !ok {
			return failf("", "expected asset, got %T", v)
		}
		if err := validateRecord(a.ObjectRecord, model.ObjectTypeAsset); err != nil {
			return err
		}
		if a.Name == "" {
			return failf("name", "must not be empty")
		}
		if a.Extension == "" {
			return failf("extension", "must not be empty")
		}
		if a.MimeType == "" {
			return failf("mimeType", "must not be empty")
		}
		if a.Size < 0 {
			return failf("size", "must not be negative")
		}
		return nil
	})
}
