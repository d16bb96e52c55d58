package graphclient_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praetorian-inc/rolecall/pkg/m365/graphclient"
	"github.com/praetorian-inc/rolecall/pkg/m365/scope"
	"github.com/praetorian-inc/rolecall/pkg/types"
)

const exchangeExport = `{
  "metadata": {"tenantId": "tenant-1", "collectedAt": "2026-08-01T00:00:00Z"},
  "service": "Exchange",
  "roleDefinitions": [
    {"id": "om", "name": "Organization Management", "builtIn": true},
    {"id": "rm", "name": "Recipient Management", "builtIn": true}
  ],
  "assignments": {
    "active": [
      {"assignmentId": "ex-1", "principalId": "u1", "roleId": "om", "scope": "contoso.onmicrosoft.com"},
      {"principalId": "", "roleId": "om"}
    ],
    "pimEligible": [
      {"assignmentId": "ex-2", "principalId": "u2", "roleId": "rm", "pimEnd": "2026-09-01T00:00:00Z"}
    ]
  }
}`

func TestLoadRawSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exchange.json")
	require.NoError(t, os.WriteFile(path, []byte(exchangeExport), 0644))

	source, err := graphclient.LoadRawSource(path, scope.NewClassifier())
	require.NoError(t, err)
	assert.Equal(t, types.ServiceExchange, source.Service())

	defs, err := source.RoleDefinitions(context.Background())
	require.NoError(t, err)
	require.Len(t, defs, 2)
	assert.Equal(t, types.ScopeServiceSpecific, defs["om"].Scope)

	assignments, skipped, err := source.Assignments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, skipped, "assignment without principal is dropped")
	require.Len(t, assignments, 2)
	assert.Equal(t, types.SourceActive, assignments[0].Source)
	assert.Equal(t, types.SourcePIMEligible, assignments[1].Source)
	require.NotNil(t, assignments[1].PimWindow)
	require.NotNil(t, assignments[1].PimWindow.End)
}

func TestLoadRawSourceMissingServiceTag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"roleDefinitions": []}`), 0644))

	_, err := graphclient.LoadRawSource(path, scope.NewClassifier())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "service tag")
}

func TestLoadRawSourceUnreadableFile(t *testing.T) {
	_, err := graphclient.LoadRawSource(filepath.Join(t.TempDir(), "missing.json"), scope.NewClassifier())
	require.Error(t, err)
}
