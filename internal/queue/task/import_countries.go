package task

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	ImportCountriesTaskName  = "importCountriesTask"
	ImportCountriesQueueName = "importCountriesQueue"
)

type ImportCountries struct {
	BatchSize    int  `json:"batch_size"`
	Reset        bool `json:"reset"`
	SaveResponse bool `json:"save_response"`
}

func NewImportCountriesTask(data ImportCountries) (*asynq.Task, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("json data marshal failed: %w", err)
	}

	return asynq.NewTask(
		ImportCountriesTaskName,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(ImportCountriesQueueName),
	), nil
}
