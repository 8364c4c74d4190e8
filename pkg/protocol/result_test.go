package protocol

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_AnswersOnce(t *testing.T) {
	r := &Result{}
	require.NoError(t, r.Success([]int{1, 2}))
	assert.True(t, r.Answered())
	assert.JSONEq(t, `[1,2]`, string(r.Payload))

	assert.ErrorIs(t, r.Success("again"), errAlreadyAnswered)
	assert.ErrorIs(t, r.Error(NewInvalidRequestError()), errAlreadyAnswered)
}

func TestResult_EncodeFailure(t *testing.T) {
	r := &Result{}
	err := r.Success(func() {})
	require.Error(t, err)
	assert.False(t, r.Answered())
}

func TestRouter_Call(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		method   string
		params   Params
		wantCode int
		wantJSON string
		wantErr  bool
	}{
		{
			name:     "success payload",
			method:   CommandGetTableInfo,
			params:   Params{"databaseId": 1, "table": "a_table"},
			wantJSON: `{"definition":"CREATE TABLE a_table (x)"}`,
		},
		{
			name:     "taxonomy error",
			method:   CommandGetTableInfo,
			params:   Params{"databaseId": 42, "table": "a_table"},
			wantCode: CodeInvalidDatabase,
		},
		{
			name:     "unknown command",
			method:   "dropEverything",
			wantCode: CodeUnsupportedCommand,
		},
		{
			name:    "fault",
			method:  CommandGetTableData,
			params:  Params{"databaseId": 2, "table": "z"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.router.Call(ctx, tt.method, tt.params)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, res)
				return
			}
			require.NoError(t, err)
			if tt.wantCode != 0 {
				require.NotNil(t, res.Err)
				assert.Equal(t, tt.wantCode, res.Err.Code)
				assert.Nil(t, res.Payload)
				return
			}
			assert.Nil(t, res.Err)
			assert.JSONEq(t, tt.wantJSON, string(res.Payload))
		})
	}
}

func TestRouter_CallUnanswered(t *testing.T) {
	r := NewRouter()
	r.Receive("silent", func(context.Context, Params, Responder) error { return nil })

	_, err := r.Call(context.Background(), "silent", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without answering")
}
