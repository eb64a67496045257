package activity

import (
	"slices"
	"strings"
	"time"
)

// DefaultChannel is stamped on events that do not name a channel.
const DefaultChannel = "params"

// Verbs emitted for parameter activity.
const (
	VerbConstraintViolated = "params.constraint.violated"
	VerbConstraintWarned   = "params.constraint.warned"
	VerbParamIgnored       = "params.param.ignored"
	VerbSettingsCached     = "params.settings.cached"
	VerbSettingsRestored   = "params.settings.restored"
	VerbSettingsCleared    = "params.settings.cleared"
)

// Object types used by parameter events.
const (
	ObjectConstraint = "params.constraint"
	ObjectParam      = "params.param"
	ObjectSettings   = "params.settings"
)

// Event describes something that happened to a program's parameters: a
// constraint diagnostic, an ignored parameter, or a settings snapshot change.
// Identity fields are plain strings so callers are not tied to a UUID type.
type Event struct {
	Verb       string
	ObjectType string
	ObjectID   string
	Channel    string

	// Program is the id of the program the event belongs to.
	Program string
	// Binding is the binding style of the store, e.g. "flag" or "keyword".
	Binding string
	// Params lists the parameters involved, in the order the check named them.
	Params  []string
	Message string
	Fatal   bool

	ActorID  string
	UserID   string
	TenantID string

	// Metadata carries kind specific extras such as the constraint kind or
	// the snapshot id.
	Metadata   map[string]any
	OccurredAt time.Time
}

// Valid reports whether the event carries a verb and an object reference.
func (e Event) Valid() bool {
	return e.Verb != "" && e.ObjectType != "" && e.ObjectID != ""
}

// Warning reports whether the event is advisory: a non-fatal constraint
// diagnostic or an ignored parameter notice.
func (e Event) Warning() bool {
	switch e.ObjectType {
	case ObjectParam:
		return true
	case ObjectConstraint:
		return !e.Fatal
	default:
		return false
	}
}

// NormalizeEvent trims string fields, copies Params and Metadata so hooks
// cannot alter the caller's event, and stamps OccurredAt when missing.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = strings.TrimSpace(event.Verb)
	normalized.ObjectType = strings.TrimSpace(event.ObjectType)
	normalized.ObjectID = strings.TrimSpace(event.ObjectID)
	normalized.Channel = strings.TrimSpace(event.Channel)
	normalized.Program = strings.TrimSpace(event.Program)
	normalized.Binding = strings.TrimSpace(event.Binding)
	normalized.ActorID = strings.TrimSpace(event.ActorID)
	normalized.UserID = strings.TrimSpace(event.UserID)
	normalized.TenantID = strings.TrimSpace(event.TenantID)
	normalized.Params = cloneParams(event.Params)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneParams(params []string) []string {
	if len(params) == 0 {
		return nil
	}
	out := make([]string, 0, len(params))
	for _, name := range params {
		out = append(out, strings.TrimSpace(name))
	}
	return slices.Clip(out)
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
