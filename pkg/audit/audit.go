// Package audit records admin actions (settings updates, reply deletions,
// logins) in MongoDB.
package audit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/troikatech/call-router/pkg/mongo"
	"github.com/troikatech/call-router/pkg/otel"
	"github.com/troikatech/call-router/pkg/utils"
)

const collection = "audit_log"

type Action string

const (
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionLogin       Action = "login"
	ActionLoginFailed Action = "login_failed"
)

type Entry struct {
	Actor        string                 `json:"actor" bson:"actor"`
	Action       Action                 `json:"action" bson:"action"`
	ResourceType string                 `json:"resource_type" bson:"resource_type"`
	ResourceID   string                 `json:"resource_id,omitempty" bson:"resource_id,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at" bson:"created_at"`
}

// Logger writes audit entries. A nil client turns it into a no-op so the
// file settings backend can run without MongoDB.
type Logger struct {
	client *mongo.Client
	logger *zap.Logger
}

func NewLogger(client *mongo.Client, logger *zap.Logger) *Logger {
	return &Logger{client: client, logger: logger}
}

func (l *Logger) Enabled() bool {
	return l != nil && l.client != nil
}

// Log stores an entry. Failures are logged and returned but callers
// generally carry on.
func (l *Logger) Log(ctx context.Context, actor string, action Action, resourceType, resourceID string, metadata map[string]interface{}) error {
	if !l.Enabled() {
		return nil
	}

	entry := Entry{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    time.Now().UTC(),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := otel.WithDBSpan(ctx, collection, "insert", func(ctx context.Context) error {
		_, err := l.client.NewQuery(collection).Insert(ctx, entry)
		return err
	})
	if err != nil {
		l.logger.Error("Failed to log audit event",
			zap.Error(err),
			zap.String("action", string(action)),
			zap.String("resource_type", resourceType),
		)
		return err
	}
	return nil
}

// List returns one page of entries, newest first.
func (l *Logger) List(ctx context.Context, page utils.PaginationParams) ([]Entry, int64, error) {
	if !l.Enabled() {
		return []Entry{}, 0, nil
	}

	var (
		entries []Entry
		total   int64
	)
	err := otel.WithDBSpan(ctx, collection, "find", func(ctx context.Context) error {
		var err error
		total, err = l.client.NewQuery(collection).Count(ctx)
		if err != nil {
			return err
		}
		return l.client.NewQuery(collection).
			Sort("created_at", false).
			Skip(page.Skip()).
			Limit(int64(page.Limit)).
			Find(ctx, &entries)
	})
	if err != nil {
		return nil, 0, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, total, nil
}
