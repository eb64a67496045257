package usersink_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/activity/usersink"
	usertypes "github.com/goliatone/go-users/pkg/types"
	"github.com/google/uuid"
)

type recordingSink struct {
	records []usertypes.ActivityRecord
	err     error
}

func (s *recordingSink) Log(_ context.Context, record usertypes.ActivityRecord) error {
	s.records = append(s.records, record)
	return s.err
}

func TestHookNotifyMapsConstraintEvent(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	actorID := uuid.New()
	userID := uuid.New()
	tenantID := uuid.New()

	event := activity.BuildConstraintViolatedEvent(activity.ConstraintEventInput{
		ActorID:    actorID.String(),
		UserID:     userID.String(),
		TenantID:   tenantID.String(),
		Channel:    "params",
		Program:    "nbc",
		Binding:    "flag",
		Constraint: "only_one",
		Params:     []string{"training", "input_model"},
		Message:    "Must specify one of '--training (-t)' or '--input_model (-m)'!",
		Fatal:      true,
		OccurredAt: now,
	})

	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}

	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	record := sink.records[0]
	if record.ActorID != actorID || record.UserID != userID || record.TenantID != tenantID {
		t.Fatalf("unexpected identity fields: %+v", record)
	}
	if record.Verb != activity.VerbConstraintViolated || record.ObjectType != activity.ObjectConstraint || record.ObjectID != "nbc:only_one" {
		t.Fatalf("unexpected record payload: %+v", record)
	}
	if record.Channel != "params" {
		t.Fatalf("expected channel params got %q", record.Channel)
	}
	if record.OccurredAt != now {
		t.Fatalf("expected occurred_at %v got %v", now, record.OccurredAt)
	}
	if record.Data["program"] != "nbc" || record.Data["binding"] != "flag" || record.Data["constraint"] != "only_one" {
		t.Fatalf("expected program context in data got %v", record.Data)
	}
	if record.Data["fatal"] != true {
		t.Fatalf("expected fatal flag in data got %v", record.Data["fatal"])
	}
	params, ok := record.Data["params"].([]string)
	if !ok || len(params) != 2 || params[1] != "input_model" {
		t.Fatalf("expected params in data got %v", record.Data["params"])
	}
	if _, ok := record.Data["message"].(string); !ok {
		t.Fatalf("expected message in data got %v", record.Data)
	}
}

func TestHookNotifySettingsEventOmitsFatal(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	event := activity.BuildSettingsRestoredEvent(activity.SettingsEventInput{
		Program:    "kmeans",
		SnapshotID: "snap-1",
		Restores:   2,
	})
	if err := hook.Notify(context.Background(), event); err != nil {
		t.Fatalf("notify: %v", err)
	}
	data := sink.records[0].Data
	if _, ok := data["fatal"]; ok {
		t.Fatalf("settings records must not carry a fatal flag: %v", data)
	}
	if data["snapshot_id"] != "snap-1" || data["restores"] != 2 || data["program"] != "kmeans" {
		t.Fatalf("unexpected settings data %v", data)
	}
}

func TestHookNotifySkipsMissingVerb(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	_ = hook.Notify(context.Background(), activity.Event{})

	if len(sink.records) != 0 {
		t.Fatalf("expected no records for empty event, got %d", len(sink.records))
	}
}

func TestHookNotifySkipWarnings(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink, SkipWarnings: true}

	events := []activity.Event{
		activity.BuildConstraintViolatedEvent(activity.ConstraintEventInput{Constraint: "in_set", Params: []string{"kernel"}}),
		activity.BuildParamIgnoredEvent(activity.ConstraintEventInput{Constraint: "ignored", Params: []string{"input_model", "labels"}}),
		activity.BuildConstraintViolatedEvent(activity.ConstraintEventInput{Constraint: "only_one", Fatal: true}),
		activity.BuildSettingsRestoredEvent(activity.SettingsEventInput{Program: "nbc"}),
	}
	for _, event := range events {
		if err := hook.Notify(context.Background(), event); err != nil {
			t.Fatalf("notify: %v", err)
		}
	}
	if len(sink.records) != 2 {
		t.Fatalf("expected fatal and settings records only, got %d", len(sink.records))
	}
	if sink.records[0].Verb != activity.VerbConstraintViolated || sink.records[1].Verb != activity.VerbSettingsRestored {
		t.Fatalf("unexpected forwarded verbs: %s, %s", sink.records[0].Verb, sink.records[1].Verb)
	}
}

func TestHookNotifyDefaultsTimestamp(t *testing.T) {
	sink := &recordingSink{}
	hook := usersink.Hook{Sink: sink}

	err := hook.Notify(context.Background(), activity.Event{
		Verb:       activity.VerbSettingsCleared,
		ObjectType: activity.ObjectSettings,
		ObjectID:   "kmeans",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sink.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(sink.records))
	}
	if sink.records[0].OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be defaulted")
	}
}
