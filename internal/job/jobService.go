package job

import (
	"github.com/dkurup/agenticrag/internal/domain/jobModel"
)

// Service carries the shared plumbing of the ingest queue: the channel
// workers pull from, the dispatcher signal, the persisted job records
// and the live progress feed.
type Service struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
	Progress          *Broadcaster
}

type ServiceConfig struct {
	JobChannel        chan jobModel.Job
	RequestCount      int64
	DispatcherChannel chan bool
	JobStore          jobModel.JobStore
}

func InitJobService(cfg ServiceConfig) *Service {
	return &Service{
		JobChannel:        cfg.JobChannel,
		RequestCount:      cfg.RequestCount,
		DispatcherChannel: cfg.DispatcherChannel,
		JobStore:          cfg.JobStore,
		Progress:          NewBroadcaster(),
	}
}
