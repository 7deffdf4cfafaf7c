package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/fastygo/studio/domain"
)

func TestAuditWorkbook(t *testing.T) {
	events := []domain.AuditEvent{
		{
			ID: 7, Domain: "pages", Action: domain.ActionUpdate, EntityType: "page", EntityID: "p-1",
			ActorID: "u-1", ActorName: "alice", ActorIP: "10.0.0.1", Environment: "staging",
			CreatedAt: time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		},
		{ID: 8, Domain: "promotion", Action: domain.ActionRecord, ActorName: "system", ActorIP: "unknown", Environment: "production"},
	}

	data, err := AuditWorkbook(events)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{auditSheet}, f.GetSheetList())
	rows, err := f.GetRows(auditSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, auditHeader, rows[0])
	assert.Equal(t, []string{"7", "2026-03-04T05:06:07Z", "staging", "pages", "update", "page", "p-1", "u-1", "alice", "10.0.0.1"}, rows[1])
	assert.Equal(t, "promotion", rows[2][3])
	assert.Equal(t, "", rows[2][5])
}

func TestAuditWorkbook_Empty(t *testing.T) {
	data, err := AuditWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(auditSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
