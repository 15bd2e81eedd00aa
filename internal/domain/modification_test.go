package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestModification_Kinds(t *testing.T) {
	assert.True(t, Reset().IsReset())
	assert.True(t, Appended(0, 10).IsAppended())
	assert.True(t, Removed(5, 3).IsRemoved())
	assert.False(t, Appended(0, 10).IsReset())
}

func TestModification_Split(t *testing.T) {
	parts := Appended(0, 25).Split(10)
	assert.Len(t, parts, 3)
	assert.Equal(t, Appended(0, 10), parts[0])
	assert.Equal(t, Appended(10, 10), parts[1])
	assert.Equal(t, Appended(20, 5), parts[2])
}

func TestModification_Split_CoversSameRange(t *testing.T) {
	mod := Appended(7, 100)
	total := 0
	next := mod.Section.Index
	for _, part := range mod.Split(33) {
		assert.Equal(t, next, part.Section.Index)
		next = part.Section.End()
		total += part.Section.Count
	}
	assert.Equal(t, mod.Section.Count, total)
}

func TestModification_Split_SmallEnough(t *testing.T) {
	mod := Appended(3, 5)
	parts := mod.Split(10)
	assert.Equal(t, []Modification{mod}, parts)
}

func TestModification_Split_NonAppend(t *testing.T) {
	assert.Equal(t, []Modification{Reset()}, Reset().Split(10))
	removed := Removed(0, 100)
	assert.Equal(t, []Modification{removed}, removed.Split(10))
}

func TestModification_String(t *testing.T) {
	assert.Equal(t, "Reset", Reset().String())
	assert.Equal(t, "Appended([0, 3))", Appended(0, 3).String())
	assert.Equal(t, "Removed([4, 6))", Removed(4, 2).String())
}

func TestLevel_MarksEntryStart(t *testing.T) {
	assert.False(t, LevelNone.MarksEntryStart())
	assert.False(t, LevelOther.MarksEntryStart())
	assert.True(t, LevelInfo.MarksEntryStart())
	assert.True(t, LevelFatal.MarksEntryStart())
}

func TestParseLevel(t *testing.T) {
	level, ok := ParseLevel("warn")
	assert.True(t, ok)
	assert.Equal(t, LevelWarning, level)

	_, ok = ParseLevel("nonsense")
	assert.False(t, ok)
}
