package transcription_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lecturenotes/backend/internal/lectures"
	"github.com/lecturenotes/backend/internal/lectures/lecturetest"
	"github.com/lecturenotes/backend/internal/transcription"
	"github.com/lecturenotes/backend/pkg/apperr"
	"github.com/lecturenotes/backend/pkg/storage"
)

type fakeBackend struct {
	out    string
	err    error
	calls  int
	path   string
	ctxErr error
}

func (f *fakeBackend) Transcribe(ctx context.Context, path string) (string, error) {
	f.calls++
	f.path = path
	f.ctxErr = ctx.Err()
	return f.out, f.err
}

type fixture struct {
	store   *lecturetest.Store
	local   *storage.Local
	backend *fakeBackend
	svc     *transcription.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	local, err := storage.NewLocal(t.TempDir(), "", nil)
	require.NoError(t, err)
	f := &fixture{store: lecturetest.NewStore(), local: local, backend: &fakeBackend{}}
	annotations := lectures.NewAnnotations(f.store, nil, nil)
	f.svc = transcription.NewService(f.store, annotations, local, f.backend, nil)
	return f
}

func (f *fixture) lectureWithAudio(t *testing.T) uuid.UUID {
	t.Helper()
	l := f.store.Add("L1", uuid.New())
	ref, err := f.local.Put(context.Background(), "1-audio.mp3", "audio/mpeg", strings.NewReader("0123456789"), 10)
	require.NoError(t, err)
	_, err = f.store.UpdateAudioURL(context.Background(), l.ID, &ref)
	require.NoError(t, err)
	return l.ID
}

func TestTranscribeStoresTrimmedOutput(t *testing.T) {
	f := newFixture(t)
	id := f.lectureWithAudio(t)
	f.backend.out = "  hello world\n"

	text, err := f.svc.Transcribe(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, "hello world", *f.store.Get(id).Transcript)
	assert.True(t, strings.HasSuffix(f.backend.path, "1-audio.mp3"))
}

func TestTranscribeWithoutAudio(t *testing.T) {
	f := newFixture(t)
	l := f.store.Add("L1", uuid.New())

	_, err := f.svc.Transcribe(context.Background(), l.ID)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 0, f.backend.calls)
	assert.Nil(t, f.store.Get(l.ID).Transcript)

	_, err = f.svc.Transcribe(context.Background(), uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestTranscribeBackendFailureKeepsTranscript(t *testing.T) {
	f := newFixture(t)
	id := f.lectureWithAudio(t)
	f.backend.out = "first"
	_, err := f.svc.Transcribe(context.Background(), id)
	require.NoError(t, err)

	f.backend.err = errors.New("exit status 1: CUDA out of memory")
	_, err = f.svc.Transcribe(context.Background(), id)
	require.Error(t, err)
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "CUDA out of memory")
	assert.Equal(t, "first", *f.store.Get(id).Transcript)
}

func TestTranscribeBlankOutputKeepsTranscript(t *testing.T) {
	f := newFixture(t)
	id := f.lectureWithAudio(t)
	f.backend.out = "first"
	_, err := f.svc.Transcribe(context.Background(), id)
	require.NoError(t, err)

	f.backend.out = " \n\t"
	text, err := f.svc.Transcribe(context.Background(), id)
	require.Error(t, err)
	assert.Empty(t, text)
	assert.Equal(t, apperr.KindExternal, apperr.KindOf(err))
	assert.Equal(t, "first", *f.store.Get(id).Transcript)
}

func TestTranscribeMissingFile(t *testing.T) {
	f := newFixture(t)
	id := f.lectureWithAudio(t)
	require.NoError(t, f.local.Delete(context.Background(), *f.store.Get(id).AudioURL))

	_, err := f.svc.Transcribe(context.Background(), id)
	assert.Equal(t, apperr.KindStorage, apperr.KindOf(err))
	assert.Equal(t, 0, f.backend.calls)
}

func TestTranscribeIgnoresCallerCancellation(t *testing.T) {
	f := newFixture(t)
	id := f.lectureWithAudio(t)
	f.backend.out = "done"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	text, err := f.svc.Transcribe(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "done", text)
	assert.NoError(t, f.backend.ctxErr)
}
