package app

import (
	"context"

	"github.com/alexanderramin/worktime/internal/domain"
	"github.com/alexanderramin/worktime/internal/engine"
)

type TodayUseCase interface {
	Today(ctx context.Context, req TodayRequest) (*TodayView, error)
}

type ExecuteUseCase interface {
	Execute(ctx context.Context, cmd engine.Command) (engine.Result, error)
}

type HistoryUseCase interface {
	History(ctx context.Context, req HistoryRequest) ([]domain.Session, error)
}

type SyncUseCase interface {
	SyncNow(ctx context.Context) error
}
