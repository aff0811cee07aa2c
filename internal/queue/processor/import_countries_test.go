package processor

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibe-gaming/countries/internal/queue/task"
	"github.com/vibe-gaming/countries/internal/service"
)

type fakeImporter struct {
	opts []service.ImportOptions
	err  error
}

func (f *fakeImporter) Import(ctx context.Context, opts service.ImportOptions) (*service.ImportResult, error) {
	f.opts = append(f.opts, opts)
	if f.err != nil {
		return nil, f.err
	}
	return &service.ImportResult{RunID: uuid.New()}, nil
}

func TestImportCountriesProcessor(t *testing.T) {
	importer := &fakeImporter{}
	tsk, err := task.NewImportCountriesTask(task.ImportCountries{BatchSize: 50})
	require.NoError(t, err)

	err = NewImportCountriesProcessor(importer).ProcessTask(context.Background(), tsk)
	require.NoError(t, err)

	require.Len(t, importer.opts, 1)
	assert.Equal(t, 50, importer.opts[0].BatchSize)
	assert.False(t, importer.opts[0].DryRun)
}

func TestImportCountriesProcessorEmptyPayload(t *testing.T) {
	importer := &fakeImporter{}

	err := NewImportCountriesProcessor(importer).ProcessTask(context.Background(), asynq.NewTask(task.ImportCountriesTaskName, nil))
	require.NoError(t, err)
	require.Len(t, importer.opts, 1)
	assert.Zero(t, importer.opts[0].BatchSize)
}

func TestImportCountriesProcessorBadPayload(t *testing.T) {
	importer := &fakeImporter{}

	err := NewImportCountriesProcessor(importer).ProcessTask(context.Background(), asynq.NewTask(task.ImportCountriesTaskName, []byte("{")))
	require.ErrorIs(t, err, asynq.SkipRetry)
	assert.Empty(t, importer.opts)
}

func TestImportCountriesProcessorImportError(t *testing.T) {
	importer := &fakeImporter{err: errors.New("source down")}
	tsk, err := task.NewImportCountriesTask(task.ImportCountries{})
	require.NoError(t, err)

	err = NewImportCountriesProcessor(importer).ProcessTask(context.Background(), tsk)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
