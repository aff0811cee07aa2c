package processor

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/vibe-gaming/countries/internal/queue/task"
	"github.com/vibe-gaming/countries/internal/service"
	"github.com/vibe-gaming/countries/pkg/logger"
)

type importCountriesProcessor struct {
	importer service.Importer
}

func NewImportCountriesProcessor(importer service.Importer) *importCountriesProcessor {
	return &importCountriesProcessor{
		importer: importer,
	}
}

func (p *importCountriesProcessor) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var data task.ImportCountries
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &data); err != nil {
			return fmt.Errorf("process import countries task json unmarshal failed: %v: %w", err, asynq.SkipRetry)
		}
	}

	res, err := p.importer.Import(ctx, service.ImportOptions{
		BatchSize:    data.BatchSize,
		Reset:        data.Reset,
		SaveResponse: data.SaveResponse,
	})
	if err != nil {
		return fmt.Errorf("import countries failed: %w", err)
	}

	logger.Info("scheduled import done",
		zap.String("run_id", res.RunID.String()),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
	)

	return nil
}
