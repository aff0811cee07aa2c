package asynqserver

import (
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/vibe-gaming/countries/internal/cache"
	"github.com/vibe-gaming/countries/internal/config"
	"github.com/vibe-gaming/countries/internal/queue/processor"
	"github.com/vibe-gaming/countries/internal/queue/task"
	"github.com/vibe-gaming/countries/internal/service"
)

func New(cfg config.Cache, services *service.Services) (*asynq.Server, *asynq.ServeMux) {
	mux, queues := getQueues(services)
	srv := asynq.NewServer(
		RedisOptions(cfg),
		asynq.Config{
			// one import at a time, the importer holds a single transaction
			Concurrency: 1,
			LogLevel:    asynq.ErrorLevel,
			Queues:      queues,
		},
	)

	return srv, mux
}

// NewScheduler registers the periodic import under cronspec.
func NewScheduler(cfg config.Cache, cronspec string, batchSize int) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOptions(cfg), &asynq.SchedulerOpts{
		LogLevel: asynq.ErrorLevel,
	})

	t, err := task.NewImportCountriesTask(task.ImportCountries{BatchSize: batchSize})
	if err != nil {
		return nil, err
	}
	if _, err = scheduler.Register(cronspec, t); err != nil {
		return nil, fmt.Errorf("register import schedule %q failed: %w", cronspec, err)
	}

	return scheduler, nil
}

func RedisOptions(cfg config.Cache) asynq.RedisConnOpt {
	var opts asynq.RedisConnOpt
	if cfg.Type == cache.RedisTypeCluster {
		opts = asynq.RedisClusterClientOpt{Addrs: cfg.RedisCluster.Addresses, Password: cfg.RedisCluster.Password}
	} else {
		opts = asynq.RedisClientOpt{Addr: cfg.Redis.Address, Password: cfg.Redis.Password}
	}
	return opts
}

func getQueues(services *service.Services) (*asynq.ServeMux, map[string]int) {
	mux := asynq.NewServeMux()
	mux.Handle(task.ImportCountriesTaskName, processor.NewImportCountriesProcessor(services.Importer))
	queues := map[string]int{
		task.ImportCountriesQueueName: 1,
	}
	return mux, queues
}
