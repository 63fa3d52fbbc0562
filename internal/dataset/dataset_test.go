package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveColumn(t *testing.T) {
	tests := []struct {
		name       string
		columns    []string
		candidates []string
		want       string
		wantOK     bool
	}{
		{"first candidate wins", []string{"ts", "timestamp"}, TimestampCandidates, "timestamp", true},
		{"later candidate", []string{"value", "frame.time_epoch"}, TimestampCandidates, "frame.time_epoch", true},
		{"case sensitive", []string{"TIMESTAMP"}, TimestampCandidates, "", false},
		{"absent", []string{"a", "b"}, MessageTypeCandidates, "", false},
		{"empty schema", nil, MessageTypeCandidates, "", false},
		{"message type", []string{"mqtt.msgtype_str", "mqtt.msgtype"}, MessageTypeCandidates, "mqtt.msgtype", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ResolveColumn(tt.columns, tt.candidates)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, ok)
		})
	}
}

func TestRead(t *testing.T) {
	src := "\ufefftimestamp,mqtt.msgtype,value\n" +
		"1700000000,3,1.5\n" +
		"1700000001,8\n" +
		"1700000002,3,2.5,extra\n"

	table, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, []string{"timestamp", "mqtt.msgtype", "value"}, table.Columns)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, []string{"1700000000", "1700000001", "1700000002"}, table.Column("timestamp"))
	assert.Equal(t, "", table.Cell(1, 2), "short rows are padded")
	assert.Equal(t, "2.5", table.Cell(2, 2), "long rows are truncated")
	assert.Equal(t, "", table.Cell(0, -1))
	assert.Nil(t, table.Column("missing"))

	roles := table.Resolve()
	assert.Equal(t, "timestamp", roles.Timestamp)
	assert.Equal(t, "mqtt.msgtype", roles.MessageType)
	assert.True(t, roles.HasTimestamp())
	assert.True(t, roles.HasMessageType())
}

func TestRead_Errors(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)

	_, err = Read(strings.NewReader("timestamp,value\n"))
	assert.ErrorIs(t, err, ErrNoRows)
}

func TestResolve_NoRoles(t *testing.T) {
	table, err := Read(strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)

	roles := table.Resolve()
	assert.False(t, roles.HasTimestamp())
	assert.False(t, roles.HasMessageType())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "temp.csv")
	require.NoError(t, os.WriteFile(path, []byte("time,value\n2024-01-01 00:00:00,1\n"), 0o644))

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestIsMissing(t *testing.T) {
	for _, cell := range []string{"", "  ", "NaN", "nan", "NULL", "None", "<NA>"} {
		assert.True(t, IsMissing(cell), "cell %q", cell)
	}
	for _, cell := range []string{"0", "3", "publish", "nano"} {
		assert.False(t, IsMissing(cell), "cell %q", cell)
	}
}
