package usersink

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

// Hook adapts parameter activity events to a go-users ActivitySink.
type Hook struct {
	Sink usertypes.ActivitySink
	// SkipWarnings drops constraint warnings and ignored-parameter notices so
	// only fatal violations and settings changes reach the sink.
	SkipWarnings bool
}

// Notify maps the event into an ActivityRecord and forwards it to the sink.
func (h Hook) Notify(ctx context.Context, event activity.Event) error {
	if h.Sink == nil {
		return nil
	}

	normalized := activity.NormalizeEvent(event)
	if !normalized.Valid() {
		return nil
	}
	if h.SkipWarnings && normalized.Warning() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	record := usertypes.ActivityRecord{
		ActorID:    parseUUID(normalized.ActorID),
		UserID:     parseUUID(normalized.UserID),
		TenantID:   parseUUID(normalized.TenantID),
		Verb:       normalized.Verb,
		ObjectType: normalized.ObjectType,
		ObjectID:   normalized.ObjectID,
		Channel:    normalized.Channel,
		Data:       recordData(normalized),
		OccurredAt: normalized.OccurredAt,
	}
	if record.OccurredAt.IsZero() {
		record.OccurredAt = time.Now()
	}

	return h.Sink.Log(ctx, record)
}

// recordData flattens the program context of an event into record data.
// Metadata keys never override the typed fields.
func recordData(event activity.Event) map[string]any {
	data := make(map[string]any, len(event.Metadata)+5)
	for key, value := range event.Metadata {
		data[key] = value
	}
	if event.Program != "" {
		data["program"] = event.Program
	}
	if event.Binding != "" {
		data["binding"] = event.Binding
	}
	if len(event.Params) > 0 {
		data["params"] = append([]string{}, event.Params...)
	}
	if event.Message != "" {
		data["message"] = event.Message
	}
	if event.ObjectType == activity.ObjectConstraint {
		data["fatal"] = event.Fatal
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

func parseUUID(input string) uuid.UUID {
	id, err := uuid.Parse(strings.TrimSpace(input))
	if err != nil {
		return uuid.Nil
	}
	return id
}
