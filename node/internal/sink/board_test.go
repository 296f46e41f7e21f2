package sink

import (
	"testing"

	"github.com/obsidianstack/sensornode/pkg/types"
)

func TestBoard_PutGet(t *testing.T) {
	b := NewBoard()

	b.Put(record(0, types.Humidity, 40, nil))
	rec, ok := b.Get(types.Humidity)
	if !ok {
		t.Fatal("expected entry for humidity")
	}
	if rec.Reading.Value != 40 || rec.Seq != 0 {
		t.Errorf("record = %+v", rec)
	}
	if _, ok := b.Get(types.Light); ok {
		t.Error("unexpected entry for light")
	}
}

func TestBoard_PutReplaces(t *testing.T) {
	b := NewBoard()
	b.Put(record(0, types.Temperature, 21, nil))
	b.Put(record(1, types.Temperature, 23, nil))

	rec, _ := b.Get(types.Temperature)
	if rec.Reading.Value != 23 || rec.Seq != 1 {
		t.Errorf("record not replaced: %+v", rec)
	}
}
