package activitymap

import (
	"context"
	"strings"
	"time"

	moments "github.com/momentkit/go-moments"
)

const (
	// MetadataKeyActorType stores the actor type derived from moments.ActorRef.Type.
	MetadataKeyActorType = "actor_type"
	// MetadataKeyVerificationID is read from event metadata to address verification records.
	MetadataKeyVerificationID = "verification_id"
)

const (
	defaultChannel    = "moments"
	defaultObjectType = "user"
	defaultActorID    = "system"

	verificationObjectType = "verification"
	verificationVerbPrefix = "auth.verification."
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(moments.ActivityEvent) string
}

// Normalize converts a moments.ActivityEvent into a generic normalized shape.
// Verification events are addressed by their verification record when the
// event carries one, every other event by its user.
func Normalize(event moments.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(event.Actor.ID),
		strings.TrimSpace(event.UserID),
		strings.TrimSpace(options.actorFallback),
	)

	objectType, objectID := resolveObject(event, options)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: objectType,
		ObjectID:   objectID,
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// LogSink returns an ActivitySink that writes normalized records to logger.
func LogSink(logger moments.Logger, opts ...Option) moments.ActivitySink {
	return moments.ActivitySinkFunc(func(ctx context.Context, event moments.ActivityEvent) error {
		if logger == nil {
			return nil
		}
		n := Normalize(event, opts...)
		logger.Info("activity",
			"verb", n.Verb,
			"actor_id", n.ActorID,
			"object", n.ObjectType+":"+n.ObjectID,
			"channel", n.Channel,
			"metadata", n.Metadata,
			"occurred_at", n.OccurredAt.Format(time.RFC3339),
		)
		return nil
	})
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the object type used for non verification events.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object-id extraction from ActivityEvent.
func WithObjectIDResolver(resolver func(moments.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the final actor-id fallback when actor/user ids are empty.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
	}
}

func resolveObject(event moments.ActivityEvent, options normalizeOptions) (string, string) {
	objectType := options.objectType
	objectID := strings.TrimSpace(event.UserID)

	if strings.HasPrefix(string(event.EventType), verificationVerbPrefix) {
		if id, ok := event.Metadata[MetadataKeyVerificationID].(string); ok && strings.TrimSpace(id) != "" {
			objectType = verificationObjectType
			objectID = strings.TrimSpace(id)
		}
	}

	if options.objectIDResolver != nil {
		objectID = strings.TrimSpace(options.objectIDResolver(event))
	}

	return objectType, objectID
}

func normalizeMetadata(event moments.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	if actorType := strings.TrimSpace(event.Actor.Type); actorType != "" {
		if metadata == nil {
			metadata = map[string]any{}
		}
		if _, exists := metadata[MetadataKeyActorType]; !exists {
			metadata[MetadataKeyActorType] = actorType
		}
	}

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}
