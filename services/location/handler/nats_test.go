package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/piresc/geoquery/internal/pkg/geo"
	"github.com/piresc/geoquery/internal/pkg/models"
	natspkg "github.com/piresc/geoquery/internal/pkg/nats"
	"github.com/piresc/geoquery/internal/pkg/retry"
	"github.com/piresc/geoquery/services/location/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleQueryEvent(t *testing.T) {
	tests := []struct {
		name      string
		data      string
		mockSetup func(*mocks.MockLocationUC)
		wantErr   bool
	}{
		{
			name: "Valid event",
			data: `{"session_id":"s1","key":"driver-1","event":"key_entered","latitude":1.5,"longitude":2.5}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, event models.QueryEvent) error {
						assert.Equal(t, "s1", event.SessionID)
						assert.Equal(t, "driver-1", event.Key)
						require.NotNil(t, event.Latitude)
						assert.Equal(t, 1.5, *event.Latitude)
						return nil
					})
			},
		},
		{
			name:      "Invalid JSON",
			data:      `not json`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {},
			wantErr:   true,
		},
		{
			name:      "Missing session",
			data:      `{"key":"driver-1","event":"key_entered"}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {},
			wantErr:   true,
		},
		{
			name: "Repository failure",
			data: `{"session_id":"s1","key":"driver-1","event":"key_exited"}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).Return(errors.New("db down")).Times(2)
			},
			wantErr: true,
		},
		{
			name: "Transient failure is retried",
			data: `{"session_id":"s1","key":"driver-1","event":"key_exited"}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				gomock.InOrder(
					mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).Return(errors.New("connection reset")),
					mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).Return(nil),
				)
			},
		},
		{
			name: "Invalid event is not retried",
			data: `{"session_id":"s1","key":"a#b","event":"key_exited"}`,
			mockSetup: func(mockUC *mocks.MockLocationUC) {
				mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).Return(geo.ErrInvalidArgument).Times(1)
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockUC := mocks.NewMockLocationUC(ctrl)
			tt.mockSetup(mockUC)
			h := NewEventLogHandler(mockUC, nil)
			h.retrier = newRecordRetrier(retry.Config{MaxRetries: 1, BaseDelay: time.Millisecond, Multiplier: 1})

			err := h.handleQueryEvent("geo.query.s1.key_entered", []byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestInitNATSConsumers(t *testing.T) {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	defer s.Shutdown()

	client, err := natspkg.NewClient(s.ClientURL(), "handler-test")
	require.NoError(t, err)
	defer client.Close()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockUC := mocks.NewMockLocationUC(ctrl)

	recorded := make(chan models.QueryEvent, 1)
	mockUC.EXPECT().RecordQueryEvent(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, event models.QueryEvent) error {
			recorded <- event
			return nil
		})

	h := NewEventLogHandler(mockUC, client)
	require.NoError(t, h.InitNATSConsumers())
	defer h.Stop()
	require.NoError(t, client.Flush())

	require.NoError(t, client.PublishJSON("geo.query.s9.key_moved", models.QueryEvent{
		SessionID: "s9",
		Key:       "driver-9",
		Event:     "key_moved",
	}))

	select {
	case event := <-recorded:
		assert.Equal(t, "s9", event.SessionID)
		assert.Equal(t, "key_moved", event.Event)
	case <-time.After(2 * time.Second):
		t.Fatal("event not recorded")
	}
}

func TestInitNATSConsumers_NilClient(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	h := NewEventLogHandler(mocks.NewMockLocationUC(ctrl), nil)
	assert.Error(t, h.InitNATSConsumers())
}
