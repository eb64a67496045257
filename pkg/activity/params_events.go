package activity

import (
	"strings"
	"time"
)

// ConstraintEventInput describes a diagnostic produced by a constraint check.
type ConstraintEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Program    string
	Binding    string
	Constraint string
	Params     []string
	Message    string
	Fatal      bool
	Metadata   map[string]any
	OccurredAt time.Time
}

// SettingsEventInput describes a settings snapshot lifecycle change.
type SettingsEventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Channel    string
	Program    string
	Binding    string
	SnapshotID string
	Params     []string
	Restores   int
	Metadata   map[string]any
	OccurredAt time.Time
}

// BuildConstraintViolatedEvent constructs an event for a constraint
// diagnostic. Fatal diagnostics use VerbConstraintViolated, warnings
// VerbConstraintWarned. The object id is "<program>:<constraint>".
func BuildConstraintViolatedEvent(input ConstraintEventInput) Event {
	verb := VerbConstraintWarned
	if input.Fatal {
		verb = VerbConstraintViolated
	}
	objectID := strings.TrimSpace(input.Constraint)
	if program := strings.TrimSpace(input.Program); program != "" && objectID != "" {
		objectID = program + ":" + objectID
	}
	return constraintEvent(verb, ObjectConstraint, objectID, input)
}

// BuildParamIgnoredEvent constructs an event for a parameter that was passed
// but will be ignored. The ignored parameter is the last entry of Params.
func BuildParamIgnoredEvent(input ConstraintEventInput) Event {
	objectID := ""
	if len(input.Params) > 0 {
		objectID = strings.TrimSpace(input.Params[len(input.Params)-1])
	}
	return constraintEvent(VerbParamIgnored, ObjectParam, objectID, input)
}

// BuildSettingsCachedEvent constructs an event for a cached snapshot.
func BuildSettingsCachedEvent(input SettingsEventInput) Event {
	return settingsEvent(VerbSettingsCached, input)
}

// BuildSettingsRestoredEvent constructs an event for a restored snapshot.
func BuildSettingsRestoredEvent(input SettingsEventInput) Event {
	return settingsEvent(VerbSettingsRestored, input)
}

// BuildSettingsClearedEvent constructs an event for a dropped snapshot.
func BuildSettingsClearedEvent(input SettingsEventInput) Event {
	return settingsEvent(VerbSettingsCleared, input)
}

func constraintEvent(verb, objectType, objectID string, input ConstraintEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.Constraint != "" {
		metadata = ensureMetadata(metadata)
		metadata["constraint"] = input.Constraint
	}
	if objectID == "" {
		objectID = objectType
	}
	return Event{
		Verb:       verb,
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Program:    strings.TrimSpace(input.Program),
		Binding:    input.Binding,
		Params:     cloneParams(input.Params),
		Message:    input.Message,
		Fatal:      input.Fatal,
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func settingsEvent(verb string, input SettingsEventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	if input.Restores > 0 {
		metadata = ensureMetadata(metadata)
		metadata["restores"] = input.Restores
	}

	objectID := strings.TrimSpace(input.Program)
	if objectID == "" {
		objectID = strings.TrimSpace(input.SnapshotID)
	}
	if objectID == "" {
		objectID = ObjectSettings
	}
	return Event{
		Verb:       verb,
		ObjectType: ObjectSettings,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(input.Channel),
		Program:    strings.TrimSpace(input.Program),
		Binding:    input.Binding,
		Params:     cloneParams(input.Params),
		ActorID:    strings.TrimSpace(input.ActorID),
		UserID:     strings.TrimSpace(input.UserID),
		TenantID:   strings.TrimSpace(input.TenantID),
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	}
}

func ensureMetadata(meta map[string]any) map[string]any {
	if meta == nil {
		return map[string]any{}
	}
	return meta
}
