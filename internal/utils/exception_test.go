package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
	"github.com/stretchr/testify/mock"
)

type MockHub struct {
	mock.Mock
}

func (m *MockHub) CaptureException(exception error) *sentry.EventID {
	args := m.Called(exception)
	return args.Get(0).(*sentry.EventID)
}

func (m *MockHub) WithScope(callback func(scope *sentry.Scope)) {
	m.Called(callback)
	callback(sentry.NewScope())
}

func TestCaptureSentryException(t *testing.T) {
	type args struct {
		name string
		hub  *MockHub
		err  error
		tags map[string]string
	}
	tests := []struct {
		name string
		args args
	}{
		{
			name: "fetch failure with symbol tag",
			args: args{
				name: "quoteFetchExhausted",
				hub:  new(MockHub),
				err:  errlvl.Wrap(errors.New("all sources exhausted"), errlvl.WARN),
				tags: map[string]string{"symbol": "AAPL"},
			},
		},
		{
			name: "without tags",
			args: args{
				name: "archiveFlush",
				hub:  new(MockHub),
				err:  errors.New("connection refused"),
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args.hub.On("WithScope", mock.Anything)
			tt.args.hub.On("CaptureException", tt.args.err).Return(new(sentry.EventID))

			CaptureSentryException(tt.args.name, tt.args.hub, tt.args.err, tt.args.tags)

			tt.args.hub.AssertExpectations(t)
		})
	}
}

func TestCaptureSentryException_nil(t *testing.T) {
	hub := new(MockHub)
	CaptureSentryException("noop", hub, nil, nil)
	hub.AssertNotCalled(t, "WithScope", mock.Anything)
}

func Test_errorsLevelMatcher(t *testing.T) {
	normalErr := errors.New("normal error")
	joinedErr := errors.Join(errors.New("some other error"), errlvl.Wrap(normalErr, errlvl.INFO))
	formattedErr := fmt.Errorf("[journalist]: %w", joinedErr)

	tests := []struct {
		name string
		err  error
		want sentry.Level
	}{
		{name: "nil error", err: nil, want: sentry.LevelDebug},
		{name: "generic error", err: errors.New("generic error"), want: sentry.LevelError},
		{name: "ErrError", err: errlvl.ErrError, want: sentry.LevelError},
		{name: "ErrFatal", err: errlvl.ErrFatal, want: sentry.LevelFatal},
		{name: "ErrWarn", err: errlvl.ErrWarn, want: sentry.LevelWarning},
		{name: "ErrInfo", err: errlvl.ErrInfo, want: sentry.LevelInfo},
		{name: "ErrDebug", err: errlvl.ErrDebug, want: sentry.LevelDebug},
		{name: "level hidden in a joined chain", err: formattedErr, want: sentry.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorsLevelMatcher(tt.err); got != tt.want {
				t.Errorf("errorsLevelMatcher() = %v, want %v", got, tt.want)
			}
		})
	}
}
