package properties

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBag_DefaultsFromDescriptors(t *testing.T) {
	bag := NewBag(PercentageProcessed, LogEntryCount)

	assert.Equal(t, float64(0), bag.GetProperty(PercentageProcessed))
	assert.Equal(t, 0, bag.GetProperty(LogEntryCount))
}

func TestBag_UndeclaredReturnsDefault(t *testing.T) {
	bag := NewBag()
	assert.Equal(t, "", bag.GetProperty(Name))
	assert.False(t, bag.Has(Name))
}

func TestBag_SetDeclares(t *testing.T) {
	bag := NewBag()
	bag.SetProperty(LogEntryCount, 42)

	assert.True(t, bag.Has(LogEntryCount))
	assert.Equal(t, 42, bag.GetProperty(LogEntryCount))
	assert.Len(t, bag.Descriptors(), 1)
}

func TestBag_CopyFrom(t *testing.T) {
	src := NewBag()
	src.SetProperty(LogEntryCount, 7)
	src.SetProperty(PercentageProcessed, 0.5)

	dst := NewBag(Name)
	dst.SetProperty(Name, "before")
	dst.CopyFrom(src)

	assert.Equal(t, 7, dst.GetProperty(LogEntryCount))
	assert.Equal(t, 0.5, dst.GetProperty(PercentageProcessed))
	// Values absent from the source stay untouched.
	assert.Equal(t, "before", dst.GetProperty(Name))
}

func TestBag_CopyFromSelfIsNoop(t *testing.T) {
	bag := NewBag(LogEntryCount)
	bag.SetProperty(LogEntryCount, 3)
	bag.CopyFrom(bag)
	assert.Equal(t, 3, bag.GetProperty(LogEntryCount))
}

func TestBag_ConcurrentReadersAndWriters(t *testing.T) {
	bag := NewBag(LogEntryCount, PercentageProcessed)
	staged := NewBag()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = bag.GetProperty(LogEntryCount)
				snapshot := NewBag()
				snapshot.CopyFrom(bag)
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 200; j++ {
			staged.SetProperty(LogEntryCount, j)
			staged.SetProperty(PercentageProcessed, float64(j)/200)
			bag.CopyFrom(staged)
		}
	}()
	wg.Wait()

	assert.Equal(t, 199, bag.GetProperty(LogEntryCount))
}

func TestTypedGetters(t *testing.T) {
	bag := NewBag()
	now := time.Now()
	bag.SetProperty(PercentageProcessed, 0.25)
	bag.SetProperty(LogEntryCount, 12)
	bag.SetProperty(Name, "app.log")
	bag.SetProperty(LastModified, now)

	assert.Equal(t, 0.25, GetFloat(bag, PercentageProcessed))
	assert.Equal(t, 12, GetInt(bag, LogEntryCount))
	assert.Equal(t, "app.log", GetString(bag, Name))
	assert.Equal(t, now, GetTime(bag, LastModified))

	// Mismatched types fall back to the descriptor default.
	bag.SetProperty(LogEntryCount, "not an int")
	assert.Equal(t, 0, GetInt(bag, LogEntryCount))
}
