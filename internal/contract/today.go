package contract

import "github.com/alexanderramin/worktime/internal/app"

type TodayRequest = app.TodayRequest

func NewTodayRequest() TodayRequest {
	return app.NewTodayRequest()
}

type TodayView = app.TodayView

type SessionView = app.SessionView

type CountdownView = app.CountdownView

type StatisticsView = app.StatisticsView

type HistoryRequest = app.HistoryRequest

var (
	NewSessionView       = app.NewSessionView
	NewSessionViews      = app.NewSessionViews
	NewActiveSessionView = app.NewActiveSessionView
	NewCountdownView     = app.NewCountdownView
)
