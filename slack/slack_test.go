package slack_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"nutriroutine"
	"nutriroutine/slack"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

type mockDoer struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockDoer) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func TestNewClient(t *testing.T) {
	client := slack.NewClient("http://slack.com/webhook", nil)
	must.NotNil(t, client, "expected non-nil client")
}

func TestPostMessage(t *testing.T) {
	tests := []struct {
		name    string
		doFunc  func(req *http.Request) (*http.Response, error)
		wantErr string
	}{
		{
			name: "success",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
			},
		},
		{
			name: "failure status",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return &http.Response{StatusCode: http.StatusBadRequest, Status: "400 Bad Request", Body: io.NopCloser(bytes.NewBufferString("bad request"))}, nil
			},
			wantErr: "failed to post message: 400 Bad Request",
		},
		{
			name: "do error",
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network error")
			},
			wantErr: "network error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := slack.NewClient("http://slack.com/webhook", &mockDoer{doFunc: tt.doFunc})
			err := client.PostMessage(context.Background(), "#nutribot", "Rutina guardada")
			if tt.wantErr == "" {
				should.NoError(t, err)
				return
			}
			should.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestPostMessagePayload(t *testing.T) {
	var got map[string]string
	doer := &mockDoer{doFunc: func(req *http.Request) (*http.Response, error) {
		should.Equal(t, http.MethodPost, req.Method)
		should.Equal(t, "application/json", req.Header.Get("Content-Type"))
		must.NoError(t, json.NewDecoder(req.Body).Decode(&got))
		return &http.Response{StatusCode: http.StatusOK, Body: io.NopCloser(bytes.NewBufferString("ok"))}, nil
	}}

	must.NoError(t, slack.NewClient("http://slack.com/webhook", doer).PostMessage(context.Background(), "#nutribot", "hola"))
	should.Equal(t, map[string]string{"channel": "#nutribot", "text": "hola"}, got)
}

func TestRoutineSavedMessage(t *testing.T) {
	items := []nutriroutine.RoutineItem{
		{Slot: nutriroutine.SlotBreakfast, FoodName: "Avena"},
		{Slot: nutriroutine.SlotBreakfast, FoodName: "Huevo"},
		{Slot: nutriroutine.SlotSnack, FoodName: "Manzana"},
	}
	msg := slack.RoutineSavedMessage("Ana", time.Date(2025, 10, 5, 0, 0, 0, 0, time.UTC), items)

	should.Equal(t, "✅ *Ana* guardó su rutina del 2025-10-05 (3 alimentos)\n🌅 Desayuno: Avena, Huevo\n🍎 Snack: Manzana", msg)
}
