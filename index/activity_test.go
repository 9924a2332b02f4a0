package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeActivity struct {
	inserts []uint32
	deletes []uint32
}

func (f *fakeActivity) RecordInsert(docID uint32, docKey string, at time.Time) error {
	f.inserts = append(f.inserts, docID)
	return nil
}

func (f *fakeActivity) RecordDelete(docID uint32, docKey string, at time.Time) error {
	f.deletes = append(f.deletes, docID)
	return nil
}

type fakeArchive struct {
	archived map[uint32][]byte
}

func (f *fakeArchive) Archive(docID uint32, docKey string, content []byte, recordedAt int64) error {
	if f.archived == nil {
		f.archived = make(map[uint32][]byte)
	}
	f.archived[docID] = content
	return nil
}

func TestActivityHookRecordsInsertAndDelete(t *testing.T) {
	e := newTestEngine(t)
	fa := &fakeActivity{}
	e.SetActivityHook(fa)

	id, err := e.Insert("a", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, []uint32{id}, fa.inserts)

	require.NoError(t, e.DeleteID(id))
	assert.Equal(t, []uint32{id}, fa.deletes)
}

func TestArchiveHookReceivesRawContent(t *testing.T) {
	e := newTestEngine(t)
	fx := &fakeArchive{}
	e.SetArchiveHook(fx)

	id, err := e.Insert("a", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, []byte("hello world"), fx.archived[id])
}
