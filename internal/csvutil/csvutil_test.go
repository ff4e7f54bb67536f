package csvutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhakala/libris/internal/testutil"
)

func TestFirstColumn(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("isbns.csv",
		"isbn,title\n9780441013593,Dune\n  9780060512804 ,The Dispossessed\n978-951-1-23456-7,Kalevala\n")

	values, err := FirstColumn(env.Path("isbns.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441013593", "9780060512804", "978-951-1-23456-7"}, values)
}

func TestFirstColumn_SkipsBlankCells(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("isbns.csv", "isbn\n9780441013593\n\n   \n9780060512804\n")

	values, err := FirstColumn(env.Path("isbns.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441013593", "9780060512804"}, values)
}

func TestFirstColumn_RaggedRows(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("isbns.csv", "isbn,title\n9780441013593\n9780060512804,The Dispossessed,extra\n")

	values, err := FirstColumn(env.Path("isbns.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"9780441013593", "9780060512804"}, values)
}

func TestFirstColumn_HeaderOnly(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("isbns.csv", "isbn\n")

	values, err := FirstColumn(env.Path("isbns.csv"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestFirstColumn_EmptyFile(t *testing.T) {
	env := testutil.NewTestEnv(t)
	env.WriteFileString("isbns.csv", "")

	_, err := FirstColumn(env.Path("isbns.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "header")
}

func TestFirstColumn_MissingFile(t *testing.T) {
	_, err := FirstColumn("/nonexistent/isbns.csv")
	require.Error(t, err)
}
