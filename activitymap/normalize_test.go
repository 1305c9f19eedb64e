package activitymap_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	moments "github.com/momentkit/go-moments"
	"github.com/momentkit/go-moments/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := moments.ActivityEvent{
		EventType: moments.ActivityEventSignUpCreated,
		Actor:     moments.ActorRef{ID: "user-100", Type: "user"},
		UserID:    "user-100",
		Metadata: map[string]any{
			"status": "pending",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "user-100" {
		t.Fatalf("expected actor_id user-100, got %q", out.ActorID)
	}
	if out.Verb != string(moments.ActivityEventSignUpCreated) {
		t.Fatalf("expected verb %q, got %q", moments.ActivityEventSignUpCreated, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "user-100" {
		t.Fatalf("expected object_id user-100, got %q", out.ObjectID)
	}
	if out.Channel != "moments" {
		t.Fatalf("expected channel moments, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}
	if out.Metadata["status"] != "pending" {
		t.Fatalf("expected status metadata to be preserved")
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "user" {
		t.Fatalf("expected actor_type user, got %v", out.Metadata[activitymap.MetadataKeyActorType])
	}
}

func TestNormalizeVerificationFailureWithoutUser(t *testing.T) {
	t.Parallel()

	event := moments.ActivityEvent{
		EventType: moments.ActivityEventVerificationFailed,
		Actor:     moments.ActorRef{Type: "unknown"},
		Metadata: map[string]any{
			activitymap.MetadataKeyVerificationID: "ver-7",
			"error":                               "incorrect code",
		},
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "system" {
		t.Fatalf("expected fallback actor system, got %q", out.ActorID)
	}
	if out.ObjectType != "verification" || out.ObjectID != "ver-7" {
		t.Fatalf("expected verification:ver-7, got %s:%s", out.ObjectType, out.ObjectID)
	}
	if out.OccurredAt.IsZero() {
		t.Fatalf("expected occurred_at to be filled")
	}
}

func TestNormalizeVerificationSuccessUsesUser(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(moments.ActivityEvent{
		EventType: moments.ActivityEventVerificationSucceeded,
		UserID:    "user-9",
	})

	if out.ObjectType != "user" || out.ObjectID != "user-9" {
		t.Fatalf("expected user:user-9, got %s:%s", out.ObjectType, out.ObjectID)
	}
	if out.Metadata != nil {
		t.Fatalf("expected nil metadata, got %v", out.Metadata)
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	event := moments.ActivityEvent{
		EventType: moments.ActivityEventSignInFailure,
		Metadata:  map[string]any{"identifier": "ana@example.com"},
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel("audit"),
		activitymap.WithDefaultObjectType("account"),
		activitymap.WithActorFallback("anonymous"),
		activitymap.WithObjectIDResolver(func(e moments.ActivityEvent) string {
			return fmt.Sprint(e.Metadata["identifier"])
		}),
	)

	if out.Channel != "audit" {
		t.Fatalf("expected channel audit, got %q", out.Channel)
	}
	if out.ActorID != "anonymous" {
		t.Fatalf("expected actor anonymous, got %q", out.ActorID)
	}
	if out.ObjectType != "account" || out.ObjectID != "ana@example.com" {
		t.Fatalf("expected account:ana@example.com, got %s:%s", out.ObjectType, out.ObjectID)
	}
}

func TestNormalizeDoesNotMutateEventMetadata(t *testing.T) {
	t.Parallel()

	meta := map[string]any{"status": "complete"}
	activitymap.Normalize(moments.ActivityEvent{
		EventType: moments.ActivityEventSignInSuccess,
		Actor:     moments.ActorRef{Type: "user"},
		Metadata:  meta,
	})

	if _, ok := meta[activitymap.MetadataKeyActorType]; ok {
		t.Fatalf("expected source metadata to stay untouched")
	}
}

type recordingLogger struct {
	infos [][]any
}

func (l *recordingLogger) Debug(string, ...any) {}
func (l *recordingLogger) Warn(string, ...any)  {}
func (l *recordingLogger) Error(string, ...any) {}
func (l *recordingLogger) Info(format string, args ...any) {
	l.infos = append(l.infos, append([]any{format}, args...))
}

func TestLogSink(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	sink := activitymap.LogSink(logger)

	err := sink.Record(context.Background(), moments.ActivityEvent{
		EventType: moments.ActivityEventSessionIssued,
		UserID:    "user-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logger.infos) != 1 {
		t.Fatalf("expected one log line, got %d", len(logger.infos))
	}

	line := logger.infos[0]
	if line[0] != "activity" {
		t.Fatalf("expected activity message, got %v", line[0])
	}
	fields := map[string]any{}
	for i := 1; i+1 < len(line); i += 2 {
		fields[fmt.Sprint(line[i])] = line[i+1]
	}
	if fields["verb"] != string(moments.ActivityEventSessionIssued) {
		t.Fatalf("unexpected verb %v", fields["verb"])
	}
	if fields["object"] != "user:user-1" {
		t.Fatalf("unexpected object %v", fields["object"])
	}
}

func TestLogSinkNilLogger(t *testing.T) {
	t.Parallel()

	if err := activitymap.LogSink(nil).Record(context.Background(), moments.ActivityEvent{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
