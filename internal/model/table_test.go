package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Empty(t *testing.T) {
	var nilTable *Table
	assert.True(t, nilTable.Empty())
	assert.Equal(t, 0, nilTable.NumRows())
	assert.True(t, (&Table{Columns: []string{"a"}}).Empty())
	assert.True(t, (&Table{Rows: [][]string{{}}}).Empty())
	assert.False(t, (&Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}}).Empty())
}

func TestTable_NumRows(t *testing.T) {
	tbl := &Table{
		Columns: []string{"title", "price"},
		Rows:    [][]string{{"a", "1"}, {"b", "2"}},
	}
	assert.Equal(t, 2, tbl.NumRows())
	assert.False(t, tbl.Empty())
}

func TestChatMessage_Constructors(t *testing.T) {
	u := UserMessage("get titles")
	assert.True(t, u.IsUser())
	assert.False(t, u.HasTable())
	assert.False(t, u.CreatedAt.IsZero())

	a := AssistantTable(&Table{Columns: []string{"a"}, Rows: [][]string{{"1"}}})
	assert.False(t, a.IsUser())
	assert.True(t, a.HasTable())

	txt := AssistantText("No data extracted")
	assert.Equal(t, RoleAssistant, txt.Role)
	assert.Equal(t, "No data extracted", txt.Text)
}
