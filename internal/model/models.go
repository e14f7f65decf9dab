package model

import "time"

// ObjectType identifies the kind of stored object.
type ObjectType string

const (
	ObjectTypeProject    ObjectType = "project"
	ObjectTypeAsset      ObjectType = "asset"
	ObjectTypeCollection ObjectType = "collection"
	ObjectTypeEntry      ObjectType = "entry"
)

// Valid reports whether t is a known object type.
func (t ObjectType) Valid() bool {
	switch t {
	case ObjectTypeProject, ObjectTypeAsset, ObjectTypeCollection, ObjectTypeEntry:
		return true
	}
	return false
}

// ObjectRecord is the base shape shared by every stored object.
// ID and ObjectType never change after creation; Created is written once.
// Updated is nil until the first mutation and refreshed on every one after.
type ObjectRecord struct {
	ID         string     `json:"id"` // UUIDv4
	ObjectType ObjectType `json:"objectType"`
	Created    time.Time  `json:"created"`
	Updated    *time.Time `json:"updated"`
}

// FileReference is the identity recovered from a stored object's file or
// folder name, without reading its content. Naming convention:
// "<id>.<language>.<extension>", "<id>.<extension>", or a bare "<id>" folder.
type FileReference struct {
	ID        string
	Language  string
	Extension string
}

// Commit is one version-control commit, derived from the gateway's log.
// Tag is set when a snapshot tag points at this commit.
type Commit struct {
	Hash        string    `json:"hash"`
	Message     string    `json:"message"`
	AuthorName  string    `json:"authorName"`
	AuthorEmail string    `json:"authorEmail"`
	Timestamp   time.Time `json:"timestamp"`
	Tag         string    `json:"tag,omitempty"`
}

// ProjectStatus is the lifecycle status of a Project.
type ProjectStatus string

const (
	ProjectStatusTodo     ProjectStatus = "todo"
	ProjectStatusProgress ProjectStatus = "progress"
	ProjectStatusDone     ProjectStatus = "done"
)

// ProjectSettings holds per-project content language configuration.
type ProjectSettings struct {
	Language LanguageSettings `json:"language"`
}

// LanguageSettings declares the default and supported content languages.
type LanguageSettings struct {
	Default   string   `json:"default"`
	Supported []string `json:"supported"`
}

// Project is the root object. It owns a version-control repository rooted
// at its own directory, with the standing branches "work" and "production".
type Project struct {
	ObjectRecord
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	Settings      ProjectSettings `json:"settings"`
	Status        ProjectStatus   `json:"status"`
	Version       string          `json:"version"`       // semantic content version
	EngineVersion string          `json:"engineVersion"` // engine version last written with
	History       []Commit        `json:"history,omitempty"`
	FullHistory   []Commit        `json:"fullHistory,omitempty"`
}

// TranslatableString maps a language code to its translation.
type TranslatableString map[string]string

// ValueType is the closed set of Entry value kinds.
type ValueType string

const (
	ValueTypeString    ValueType = "string"
	ValueTypeNumber    ValueType = "number"
	ValueTypeBoolean   ValueType = "boolean"
	ValueTypeReference ValueType = "reference"
)

// Valid reports whether t is a known value type.
func (t ValueType) Valid() bool {
	switch t {
	case ValueTypeString, ValueTypeNumber, ValueTypeBoolean, ValueTypeReference:
		return true
	}
	return false
}

// FieldType is the input subtype of a FieldDefinition, refining its ValueType.
type FieldType string

const (
	FieldTypeText           FieldType = "text"
	FieldTypeTextarea       FieldType = "textarea"
	FieldTypeEmail          FieldType = "email"
	FieldTypeURL            FieldType = "url"
	FieldTypeIP             FieldType = "ip"
	FieldTypeDate           FieldType = "date"
	FieldTypeTime           FieldType = "time"
	FieldTypeDatetime       FieldType = "datetime"
	FieldTypeTelephone      FieldType = "telephone"
	FieldTypeNumber         FieldType = "number"
	FieldTypeRange          FieldType = "range"
	FieldTypeToggle         FieldType = "toggle"
	FieldTypeAssetReference FieldType = "asset"
	FieldTypeEntryReference FieldType = "entry"
)

// FieldDefinition declares one Entry field on a Collection: its type,
// constraints, and (for entry references) the set of Collection ids it may
// point to, which may include the defining Collection's own id.
type FieldDefinition struct {
	ID          string             `json:"id"` // UUIDv4, stable across updates
	Label       TranslatableString `json:"label"`
	Description TranslatableString `json:"description"`
	ValueType   ValueType          `json:"valueType"`
	FieldType   FieldType          `json:"fieldType"`
	IsRequired  bool               `json:"isRequired"`
	IsUnique    bool               `json:"isUnique"`
	IsDisabled  bool               `json:"isDisabled"`
	Min         *float64           `json:"min,omitempty"` // numeric bound, length or list size
	Max         *float64           `json:"max,omitempty"`
	// OfCollections restricts entry references to these Collection ids.
	OfCollections []string `json:"ofCollections,omitempty"`
}

// Collection is a schema for a family of Entries.
type Collection struct {
	ObjectRecord
	Name             TranslatableNames  `json:"name"`
	Slug             Slugs              `json:"slug"`
	Description      TranslatableString `json:"description"`
	Icon             string             `json:"icon"`
	FieldDefinitions []FieldDefinition  `json:"fieldDefinitions"`
	History          []Commit           `json:"history,omitempty"`
}

// TranslatableNames holds the singular and plural translatable names.
type TranslatableNames struct {
	Singular TranslatableString `json:"singular"`
	Plural   TranslatableString `json:"plural"`
}

// Slugs holds the singular and plural URL slugs.
type Slugs struct {
	Singular string `json:"singular"`
	Plural   string `json:"plural"`
}

// ReferenceObjectType is the kind of object a referenced value points at.
type ReferenceObjectType string

const (
	ReferenceToAsset      ReferenceObjectType = "asset"
	ReferenceToEntry      ReferenceObjectType = "entry"
	ReferenceToCollection ReferenceObjectType = "collection"
)

// Reference is one typed pointer inside a referenced value.
type Reference struct {
	ID         string              `json:"id"`
	ObjectType ReferenceObjectType `json:"objectType"`
	// CollectionID scopes entry references to their Collection.
	CollectionID string `json:"collectionId,omitempty"`
}

// Value is an Entry's content for one FieldDefinition. Exactly one of
// Content (direct, per-language scalar) or References (per-language pointer
// list) is used, depending on ValueType.
type Value struct {
	FieldDefinitionID string                 `json:"fieldDefinitionId"`
	ValueType         ValueType              `json:"valueType"`
	Content           map[string]any         `json:"content,omitempty"`
	References        map[string][]Reference `json:"references,omitempty"`
}

// Entry belongs to exactly one Collection and holds one Value per
// FieldDefinition it satisfies.
type Entry struct {
	ObjectRecord
	Values  []Value  `json:"values"`
	History []Commit `json:"history,omitempty"`
}

// Asset is binary content plus metadata. The payload lives at a content
// path derived from id and extension; this record is the metadata file.
type Asset struct {
	ObjectRecord
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Extension   string   `json:"extension"`
	MimeType    string   `json:"mimeType"`
	Size        int64    `json:"size"`
	History     []Commit `json:"history,omitempty"`
	// AbsolutePath points at the payload on disk. Derived, never persisted.
	AbsolutePath string `json:"absolutePath,omitempty"`
}
