package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/robotics-tournament-core/models"
	"github.com/Dosada05/robotics-tournament-core/storage"
)

type fakeUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
	fail    bool
}

func (u *fakeUploader) Upload(ctx context.Context, key, contentType string, r io.Reader) (*storage.UploadResult, error) {
	if u.fail {
		return nil, errors.New("bucket unavailable")
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.objects == nil {
		u.objects = make(map[string][]byte)
	}
	u.objects[key] = body
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://files.example.test/" + key
}

// finishedFinal plays a two-team knockout to completion: A beats B.
func finishedFinal(t *testing.T, env *testEnv) *models.Tournament {
	t.Helper()
	tour := env.start(t, TournamentInput{Format: models.FormatElimination}, teamA, teamB)
	env.play(t, tour.ID, teamA, teamB, 5, 2)
	return env.tournament(t, tour.ID)
}

func TestPublishAndUnpublishResult(t *testing.T) {
	env := newTestEnv(t)
	tour := finishedFinal(t, env)

	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	gold := results[0]
	assert.False(t, gold.IsPublished)

	_, err = env.results.UnpublishResult(env.ctx, gold.ID)
	require.ErrorIs(t, err, ErrInvalidState)

	verifier := 7
	published, err := env.results.PublishResult(env.ctx, gold.ID, &verifier)
	require.NoError(t, err)
	assert.True(t, published.IsPublished)
	require.NotNil(t, published.PublishedAt)
	assert.Equal(t, 7, *published.VerifiedBy)

	_, err = env.results.PublishResult(env.ctx, gold.ID, &verifier)
	require.ErrorIs(t, err, ErrInvalidState)

	unpublished, err := env.results.UnpublishResult(env.ctx, gold.ID)
	require.NoError(t, err)
	assert.False(t, unpublished.IsPublished)
	assert.Nil(t, unpublished.PublishedAt)

	_, err = env.results.PublishResult(env.ctx, 999999, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateResults(t *testing.T) {
	env := newTestEnv(t)
	running := env.start(t, TournamentInput{Format: models.FormatElimination}, teamC, teamD)
	_, err := env.results.GenerateResults(env.ctx, running.ID, nil)
	require.ErrorIs(t, err, ErrInvalidState)

	tour := finishedFinal(t, env)
	first, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)

	again, err := env.results.GenerateResults(env.ctx, tour.ID, nil)
	require.NoError(t, err)
	require.Len(t, again, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, again[i].ID)
	}
}

func TestCertificateIsArchived(t *testing.T) {
	env := newTestEnv(t)
	tour := finishedFinal(t, env)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)

	up := &fakeUploader{}
	svc := NewResultService(env.repos, up, env.notifier, nil)
	res, err := svc.GenerateCertificate(env.ctx, results[1].ID)
	require.NoError(t, err)
	require.NotNil(t, res.CertificateNumber)
	assert.Equal(t, models.CertificateNumber("JLF", 2, results[1].ID), *res.CertificateNumber)

	body, ok := up.objects[storage.CertificateKey(*res.CertificateNumber)]
	require.True(t, ok)
	assert.Contains(t, string(body), `"placement":2`)
	assert.Contains(t, string(body), `"medal_type":"silver"`)
}

func TestCertificateSurvivesFailedUpload(t *testing.T) {
	env := newTestEnv(t)
	tour := finishedFinal(t, env)
	results, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)

	svc := NewResultService(env.repos, &fakeUploader{fail: true}, nil, nil)
	res, err := svc.GenerateCertificate(env.ctx, results[0].ID)
	require.NoError(t, err)
	require.NotNil(t, res.CertificateNumber)

	stored, err := env.results.ListResults(env.ctx, tour.ID)
	require.NoError(t, err)
	assert.Equal(t, *res.CertificateNumber, *stored[0].CertificateNumber)
}
