package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practicehub/internal/platform/querier"
)

type execRecorder struct {
	querier.Querier
	args []any
	err  error
}

func (e *execRecorder) Exec(_ context.Context, _ string, args ...any) (pgconn.CommandTag, error) {
	e.args = args
	return pgconn.NewCommandTag("INSERT 0 1"), e.err
}

func TestRecordMarshalsDetails(t *testing.T) {
	db := &execRecorder{}
	svc := New(db)

	err := svc.Record(context.Background(), Event{
		TenantID:   "t1",
		ActorID:    "u1",
		Action:     ActionCarryoverRun,
		EntityType: "leave_year",
		EntityID:   "2025",
		RequestID:  "req-1",
		Details:    map[string]int{"processed": 3},
	})
	require.NoError(t, err)
	require.Len(t, db.args, 7)
	assert.Equal(t, "u1", db.args[1])

	var details map[string]int
	require.NoError(t, json.Unmarshal(db.args[5].([]byte), &details))
	assert.Equal(t, 3, details["processed"])
}

func TestRecordSystemActor(t *testing.T) {
	db := &execRecorder{}
	require.NoError(t, New(db).Record(context.Background(), Event{TenantID: "t1", Action: ActionCarryoverRun, EntityType: "leave_year"}))
	assert.Nil(t, db.args[1])
	assert.Nil(t, db.args[5].([]byte))
}

func TestRecordPropagatesError(t *testing.T) {
	db := &execRecorder{err: errors.New("insert failed")}
	err := New(db).Record(context.Background(), Event{TenantID: "t1", Action: ActionCarryoverRun})
	require.Error(t, err)
}
