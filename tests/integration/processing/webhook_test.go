package processing

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"payment-platform/internal/processing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
)

func TestWebhookSender_Send(t *testing.T) {
	tests := []struct {
		name           string
		mockResponse   func()
		expectedError  bool
		expectedErrMsg string
	}{
		{
			name: "Success",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/webhook").
					Reply(200).
					JSON(map[string]string{"status": "ok"})
			},
			expectedError: false,
		},
		{
			name: "Error",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/webhook").
					Reply(500).
					JSON(map[string]string{"error": "internal server error"})
			},
			expectedError:  true,
			expectedErrMsg: "error response",
		},
		{
			name: "Timeout",
			mockResponse: func() {
				gock.New("http://example.com").
					Post("/webhook").
					Reply(200).
					Delay(2 * time.Second)
			},
			expectedError:  true,
			expectedErrMsg: "Client.Timeout exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer gock.Off()
			tt.mockResponse()

			sender := processing.NewWebhookSender("http://example.com/webhook", 1000, slog.Default())
			payload := `{"requestId":"r1","status":"COMPLETED"}`

			err := sender.Send(context.Background(), payload)
			if tt.expectedError {
				assert.Error(t, err)
				if tt.expectedErrMsg != "" {
					assert.Contains(t, err.Error(), tt.expectedErrMsg)
				}
			} else {
				assert.NoError(t, err)
			}
			assert.True(t, gock.IsDone())
		})
	}
}
