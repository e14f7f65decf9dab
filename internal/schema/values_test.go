package schema_test

import (
	"strings"
	"testing"

	"cs-go/internal/model"
	"cs-go/internal/schema"
)

const fieldID = "0a8a6c4e-9a3a-4d2b-8f4a-111111111111"

func ptr(f float64) *float64 { return &f }

func stringField(ft model.FieldType) model.FieldDefinition {
	return model.FieldDefinition{ID: fieldID, ValueType: model.ValueTypeString, FieldType: ft}
}

func stringValue(lang, s string) model.Value {
	return model.Value{
		FieldDefinitionID: fieldID,
		ValueType:         model.ValueTypeString,
		Content:           map[string]any{lang: s},
	}
}

func TestValueValidator_Strings(t *testing.T) {
	cases := []struct {
		name      string
		fieldType model.FieldType
		value     string
		ok        bool
	}{
		{"valid email", model.FieldTypeEmail, "ada@example.com", true},
		{"invalid email", model.FieldTypeEmail, "not-an-email", false},
		{"valid url", model.FieldTypeURL, "https://example.com/docs", true},
		{"url without scheme", model.FieldTypeURL, "example.com/docs", false},
		{"valid ipv4", model.FieldTypeIP, "192.168.1.10", true},
		{"ipv6 rejected", model.FieldTypeIP, "2001:db8::1", false},
		{"valid date", model.FieldTypeDate, "2024-03-09", true},
		{"invalid date", model.FieldTypeDate, "09.03.2024", false},
		{"valid time", model.FieldTypeTime, "13:45:00", true},
		{"invalid time", model.FieldTypeTime, "1:45 pm", false},
		{"valid datetime", model.FieldTypeDatetime, "2024-03-09T13:45:00Z", true},
		{"invalid datetime", model.FieldTypeDatetime, "2024-03-09 13:45", false},
		{"valid telephone", model.FieldTypeTelephone, "+4915123456789", true},
		{"telephone without plus", model.FieldTypeTelephone, "015123456789", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			vv, err := schema.ForFieldDefinition(stringField(tc.fieldType), []string{"en"})
			if err != nil {
				t.Fatalf("ForFieldDefinition() error = %v", err)
			}
			err = vv.Validate(stringValue("en", tc.value))
			if tc.ok && err != nil {
				t.Errorf("Validate(%q) error = %v", tc.value, err)
			}
			if !tc.ok && err == nil {
				t.Errorf("Validate(%q) expected error", tc.value)
			}
		})
	}
}

func TestValueValidator_TextBounds(t *testing.T) {
	def := stringField(model.FieldTypeText)
	def.Min = ptr(5)
	def.Max = ptr(70)
	vv, err := schema.ForFieldDefinition(def, []string{"en"})
	if err != nil {
		t.Fatalf("ForFieldDefinition() error = %v", err)
	}

	t.Run("accepts text within bounds", func(t *testing.T) {
		if err := vv.Validate(stringValue("en", "Hello")); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects text below the minimum length", func(t *testing.T) {
		if err := vv.Validate(stringValue("en", "Hi")); err == nil {
			t.Error("Validate() expected error for too-short text")
		}
	})

	t.Run("rejects text above the maximum length", func(t *testing.T) {
		if err := vv.Validate(stringValue("en", strings.Repeat("x", 71))); err == nil {
			t.Error("Validate() expected error for too-long text")
		}
	})

	t.Run("bounds apply to the trimmed length", func(t *testing.T) {
		if err := vv.Validate(stringValue("en", "  Hi  ")); err == nil {
			t.Error("Validate() expected error, padding must not count")
		}
	})
}

func TestValueValidator_Numbers(t *testing.T) {
	def := model.FieldDefinition{
		ID:        fieldID,
		ValueType: model.ValueTypeNumber,
		FieldType: model.FieldTypeNumber,
		Min:       ptr(0),
		Max:       ptr(100),
	}
	vv, err := schema.ForFieldDefinition(def, []string{"en"})
	if err != nil {
		t.Fatalf("ForFieldDefinition() error = %v", err)
	}

	numberValue := func(v any) model.Value {
		return model.Value{
			FieldDefinitionID: fieldID,
			ValueType:         model.ValueTypeNumber,
			Content:           map[string]any{"en": v},
		}
	}

	t.Run("accepts a number within bounds", func(t *testing.T) {
		if err := vv.Validate(numberValue(42.5)); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects a number above max", func(t *testing.T) {
		if err := vv.Validate(numberValue(100.5)); err == nil {
			t.Error("Validate() expected error for out-of-range number")
		}
	})

	t.Run("rejects a non-number", func(t *testing.T) {
		if err := vv.Validate(numberValue("42")); err == nil {
			t.Error("Validate() expected error for string content")
		}
	})
}

func TestValueValidator_Languages(t *testing.T) {
	def := stringField(model.FieldTypeText)
	def.IsRequired = true
	vv, err := schema.ForFieldDefinition(def, []string{"en", "de"})
	if err != nil {
		t.Fatalf("ForFieldDefinition() error = %v", err)
	}

	t.Run("rejects content in an unsupported language", func(t *testing.T) {
		if err := vv.Validate(stringValue("fr", "bonjour")); err == nil {
			t.Error("Validate() expected error for unsupported language")
		}
	})

	t.Run("required fields accept a single populated language", func(t *testing.T) {
		if err := vv.Validate(stringValue("de", "hallo")); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("required fields reject empty content", func(t *testing.T) {
		v := model.Value{
			FieldDefinitionID: fieldID,
			ValueType:         model.ValueTypeString,
			Content:           map[string]any{},
		}
		if err := vv.Validate(v); err == nil {
			t.Error("Validate() expected error for required field without content")
		}
	})

	t.Run("optional fields accept null content", func(t *testing.T) {
		optional := stringField(model.FieldTypeText)
		ovv, err := schema.ForFieldDefinition(optional, []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		v := model.Value{
			FieldDefinitionID: fieldID,
			ValueType:         model.ValueTypeString,
			Content:           map[string]any{"en": nil},
		}
		if err := ovv.Validate(v); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

func TestValueValidator_References(t *testing.T) {
	const (
		targetCollection = "0a8a6c4e-9a3a-4d2b-8f4a-222222222222"
		entryID          = "0a8a6c4e-9a3a-4d2b-8f4a-333333333333"
	)

	entryRefField := func() model.FieldDefinition {
		return model.FieldDefinition{
			ID:            fieldID,
			ValueType:     model.ValueTypeReference,
			FieldType:     model.FieldTypeEntryReference,
			OfCollections: []string{targetCollection},
		}
	}

	refValue := func(refs ...model.Reference) model.Value {
		return model.Value{
			FieldDefinitionID: fieldID,
			ValueType:         model.ValueTypeReference,
			References:        map[string][]model.Reference{"en": refs},
		}
	}

	t.Run("accepts an entry reference into an allowed collection", func(t *testing.T) {
		vv, err := schema.ForFieldDefinition(entryRefField(), []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		ref := model.Reference{ID: entryID, ObjectType: model.ReferenceToEntry, CollectionID: targetCollection}
		if err := vv.Validate(refValue(ref)); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})

	t.Run("rejects references into other collections", func(t *testing.T) {
		vv, err := schema.ForFieldDefinition(entryRefField(), []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		ref := model.Reference{ID: entryID, ObjectType: model.ReferenceToEntry, CollectionID: entryID}
		if err := vv.Validate(refValue(ref)); err == nil {
			t.Error("Validate() expected error for disallowed target collection")
		}
	})

	t.Run("rejects asset pointers on entry reference fields", func(t *testing.T) {
		vv, err := schema.ForFieldDefinition(entryRefField(), []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		ref := model.Reference{ID: entryID, ObjectType: model.ReferenceToAsset}
		if err := vv.Validate(refValue(ref)); err == nil {
			t.Error("Validate() expected error for asset pointer")
		}
	})

	t.Run("enforces list length bounds", func(t *testing.T) {
		def := entryRefField()
		def.Max = ptr(1)
		vv, err := schema.ForFieldDefinition(def, []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		ref := model.Reference{ID: entryID, ObjectType: model.ReferenceToEntry, CollectionID: targetCollection}
		if err := vv.Validate(refValue(ref, ref)); err == nil {
			t.Error("Validate() expected error for too many references")
		}
	})

	t.Run("a collection may reference itself", func(t *testing.T) {
		// The target set check works on ids alone, so a field whose
		// ofCollections names its own collection never recurses.
		def := entryRefField()
		def.OfCollections = []string{targetCollection}
		vv, err := schema.ForFieldDefinition(def, []string{"en"})
		if err != nil {
			t.Fatalf("ForFieldDefinition() error = %v", err)
		}
		ref := model.Reference{ID: entryID, ObjectType: model.ReferenceToEntry, CollectionID: targetCollection}
		if err := vv.Validate(refValue(ref)); err != nil {
			t.Errorf("Validate() error = %v", err)
		}
	})
}

func TestValidateEntryValues(t *testing.T) {
	const requiredID = "0a8a6c4e-9a3a-4d2b-8f4a-444444444444"

	col := &model.Collection{
		FieldDefinitions: []model.FieldDefinition{
			{ID: fieldID, ValueType: model.ValueTypeString, FieldType: model.FieldTypeText},
			{ID: requiredID, ValueType: model.ValueTypeBoolean, FieldType: model.FieldTypeToggle, IsRequired: true},
		},
	}
	languages := []string{"en"}

	toggle := model.Value{
		FieldDefinitionID: requiredID,
		ValueType:         model.ValueTypeBoolean,
		Content:           map[string]any{"en": true},
	}

	t.Run("accepts a complete value set", func(t *testing.T) {
		values := []model.Value{stringValue("en", "hello"), toggle}
		if err := schema.ValidateEntryValues(col, languages, values); err != nil {
			t.Errorf("ValidateEntryValues() error = %v", err)
		}
	})

	t.Run("rejects values for unknown field definitions", func(t *testing.T) {
		stray := model.Value{
			FieldDefinitionID: "0a8a6c4e-9a3a-4d2b-8f4a-999999999999",
			ValueType:         model.ValueTypeString,
			Content:           map[string]any{"en": "stray"},
		}
		if err := schema.ValidateEntryValues(col, languages, []model.Value{stray, toggle}); err == nil {
			t.Error("ValidateEntryValues() expected error for unknown fieldDefinitionId")
		}
	})

	t.Run("rejects duplicate values for one field", func(t *testing.T) {
		values := []model.Value{toggle, toggle}
		if err := schema.ValidateEntryValues(col, languages, values); err == nil {
			t.Error("ValidateEntryValues() expected error for duplicate field")
		}
	})

	t.Run("rejects a missing required field", func(t *testing.T) {
		values := []model.Value{stringValue("en", "hello")}
		if err := schema.ValidateEntryValues(col, languages, values); err == nil {
			t.Error("ValidateEntryValues() expected error for missing required value")
		}
	})
}
