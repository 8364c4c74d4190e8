package local

import (
	"context"
	"errors"
	"testing"

	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/driver"
	"github.com/leapstack-labs/dbbridge/pkg/driver/drivertest"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
	"github.com/leapstack-labs/dbbridge/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) *Conn {
	t.Helper()
	fake := &drivertest.SQLDriver{
		Driver: drivertest.New("fake", &drivertest.Database{Label: "main", Tables: map[string]*drivertest.Table{
			"items": {Columns: []string{"id", "name"}, Rows: [][]any{{int64(2), "b"}, {int64(1), "a"}}},
		}}),
		Exec: func(_ context.Context, query string) (*core.ExecuteResult, error) {
			if query == "bad" {
				return nil, errors.New("syntax error")
			}
			return &core.ExecuteResult{Type: core.ExecuteRaw}, nil
		},
	}
	m := manager.New([]driver.Driver{fake})
	return Connect(context.Background(), protocol.NewPlugin(m))
}

func TestConn_Call(t *testing.T) {
	c := connect(t)
	ctx := context.Background()

	payload, err := c.Call(ctx, protocol.CommandDatabaseList, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"name":"main","tables":["items"]}]`, string(payload))
}

func TestConn_CallInto(t *testing.T) {
	c := connect(t)

	var page codec.TableDataResponse
	err := c.CallInto(context.Background(), protocol.CommandGetTableData,
		protocol.Params{"databaseId": 1, "table": "items", "order": "id"}, &page)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, page.Columns)
	assert.Equal(t, 2, page.Count)
	require.Len(t, page.Values, 2)
	assert.Equal(t, codec.MustEncode(int64(1)), page.Values[0][0])
}

func TestConn_Errors(t *testing.T) {
	c := connect(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		method   string
		params   protocol.Params
		wantCode int
	}{
		{name: "invalid request", method: protocol.CommandGetTableInfo, params: protocol.Params{"databaseId": 1}, wantCode: protocol.CodeInvalidRequest},
		{name: "invalid database", method: protocol.CommandGetTableInfo, params: protocol.Params{"databaseId": 5, "table": "items"}, wantCode: protocol.CodeInvalidDatabase},
		{name: "sql error", method: protocol.CommandExecute, params: protocol.Params{"databaseId": 1, "value": "bad"}, wantCode: protocol.CodeSQLExecution},
		{name: "unknown command", method: "nope", wantCode: protocol.CodeUnsupportedCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Call(ctx, tt.method, tt.params)
			var perr *protocol.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantCode, perr.Code)
		})
	}
}
