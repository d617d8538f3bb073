package queue

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAudioDeleteJobEnvelope(t *testing.T) {
	lectureID := uuid.New()
	job, err := NewAudioDeleteJob(AudioDeletePayload{LectureID: lectureID, AudioURL: "/uploads/1-a.mp3"})
	require.NoError(t, err)

	assert.Equal(t, JobTypeAudioDelete, job.Type)
	assert.Zero(t, job.Attempt)
	_, err = uuid.Parse(job.ID)
	assert.NoError(t, err)

	var payload AudioDeletePayload
	require.NoError(t, json.Unmarshal(job.Payload, &payload))
	assert.Equal(t, lectureID, payload.LectureID)
	assert.Equal(t, "/uploads/1-a.mp3", payload.AudioURL)
}
