package jobs

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildRunsQueryFilters(t *testing.T) {
	query, args := buildRunsQuery(RunFilter{TenantID: "t1", JobType: JobLeaveCarryover, Status: StatusFailed, Limit: 10})
	assert.Contains(t, query, "tenant_id = $1 OR tenant_id IS NULL")
	assert.Contains(t, query, "CASE WHEN tenant_id IS NULL THEN '{}'::jsonb")
	assert.Contains(t, query, "job_type = $2")
	assert.Contains(t, query, "status = $3")
	assert.True(t, strings.HasSuffix(query, "LIMIT $4"))
	assert.Equal(t, []any{"t1", JobLeaveCarryover, StatusFailed, 10}, args)
}

func TestBuildRunsQueryLimits(t *testing.T) {
	_, args := buildRunsQuery(RunFilter{TenantID: "t1"})
	assert.Equal(t, []any{"t1", DefaultRunsLimit}, args)

	_, args = buildRunsQuery(RunFilter{TenantID: "t1", Limit: 10_000})
	assert.Equal(t, MaxRunsLimit, args[len(args)-1])
}

func TestRunVisibleTo(t *testing.T) {
	own, other := "t1", "t2"
	details := json.RawMessage(`{"tenantResults":[{"tenantId":"t2"}]}`)

	assert.JSONEq(t, `{}`, string(Run{Details: details}.VisibleTo("t1").Details))
	assert.JSONEq(t, `{}`, string(Run{TenantID: &other, Details: details}.VisibleTo("t1").Details))
	assert.JSONEq(t, string(details), string(Run{TenantID: &own, Details: details}.VisibleTo("t1").Details))
}
