package migrator

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	migrations, err := All()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	for i, m := range migrations {
		require.EqualValues(t, i+1, m.ID)
		require.NotEmpty(t, m.Name)
		require.NotEmpty(t, m.Script)
	}
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		expectedErr string
		expected    []Migration
	}{
		{
			name: "ordered by id, not filename",
			files: map[string]string{
				"0002_second.sql": "select 2;",
				"0001_first.sql":  "select 1;",
			},
			expected: []Migration{
				{ID: 1, Name: "first", Script: "select 1;"},
				{ID: 2, Name: "second", Script: "select 2;"},
			},
		},
		{
			name: "non-sql files are ignored",
			files: map[string]string{
				"0001_first.sql": "select 1;",
				"README.md":      "not a migration",
			},
			expected: []Migration{
				{ID: 1, Name: "first", Script: "select 1;"},
			},
		},
		{
			name: "gap in ids",
			files: map[string]string{
				"0001_first.sql": "select 1;",
				"0003_third.sql": "select 3;",
			},
			expectedErr: "contiguous",
		},
		{
			name: "duplicate ids",
			files: map[string]string{
				"0001_first.sql": "select 1;",
				"001_other.sql":  "select 1;",
			},
			expectedErr: "contiguous",
		},
		{
			name: "must start at 1",
			files: map[string]string{
				"0002_second.sql": "select 2;",
			},
			expectedErr: "contiguous",
		},
		{
			name: "missing name part",
			files: map[string]string{
				"0001.sql": "select 1;",
			},
			expectedErr: "expected NNNN_name.sql",
		},
		{
			name: "non-numeric id",
			files: map[string]string{
				"abc_first.sql": "select 1;",
			},
			expectedErr: "bad ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fsys := fstest.MapFS{}
			for name, content := range tt.files {
				fsys["migrations/"+name] = &fstest.MapFile{Data: []byte(content)}
			}

			migrations, err := loadFrom(fsys, "migrations")
			if tt.expectedErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.expectedErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, migrations)
		})
	}
}

func TestParseFilename(t *testing.T) {
	id, name, err := parseFilename("0042_add_widgets.sql")
	require.NoError(t, err)
	require.EqualValues(t, 42, id)
	require.Equal(t, "add_widgets", name)
}
