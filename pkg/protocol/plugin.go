package protocol

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbbridge/pkg/codec"
	"github.com/leapstack-labs/dbbridge/pkg/core"
	"github.com/leapstack-labs/dbbridge/pkg/manager"
)

// PluginID identifies the databases plugin to inspector clients.
const PluginID = "Databases"

// Plugin serves the browse commands for one manager.
type Plugin struct {
	manager  *manager.Manager
	logger   *slog.Logger
	pageSize int
}

// PluginOption configures a Plugin.
type PluginOption func(*Plugin)

// WithLogger sets the plugin logger.
func WithLogger(logger *slog.Logger) PluginOption {
	return func(p *Plugin) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithPageSize sets the window used when getTableData omits count.
func WithPageSize(n int) PluginOption {
	return func(p *Plugin) {
		if n > 0 {
			p.pageSize = n
		}
	}
}

// NewPlugin creates the databases plugin.
func NewPlugin(m *manager.Manager, opts ...PluginOption) *Plugin {
	p := &Plugin{
		manager:  m,
		logger:   slog.New(slog.DiscardHandler),
		pageSize: codec.DefaultPageSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ID returns PluginID.
func (p *Plugin) ID() string { return PluginID }

// RunInBackground reports false: the plugin only works while a client is
// connected.
func (p *Plugin) RunInBackground() bool { return false }

// OnConnect rebuilds the registry, then attaches the command receivers.
// Drivers that fail to enumerate are logged and left out. The registry is
// shared by every open connection: identifiers held by other connections
// keep resolving to the same databases only while the set of databases is
// unchanged.
func (p *Plugin) OnConnect(ctx context.Context, conn Connection) {
	if err := p.manager.Init(ctx); err != nil {
		p.logger.Warn("registry initialized with errors", "error", err)
	}

	conn.Receive(CommandDatabaseList, p.databaseList)
	conn.Receive(CommandGetTableStructure, p.tableStructure)
	conn.Receive(CommandGetTableData, p.tableData)
	conn.Receive(CommandGetTableInfo, p.tableInfo)
	conn.Receive(CommandExecute, p.execute)
}

// OnDisconnect is a no-op: commands hold no per-connection state.
func (p *Plugin) OnDisconnect() {}

func (p *Plugin) databaseList(ctx context.Context, _ Params, r Responder) error {
	holders := p.manager.Databases()
	out := make([]codec.DatabaseEntry, 0, len(holders))
	for _, h := range holders {
		tables, err := h.Driver.TableNames(ctx, h.Descriptor)
		if err != nil {
			p.logger.Warn("failed to list tables", "database", h.Name(), "id", h.ID, "error", err)
			tables = nil
		}
		out = append(out, codec.NewDatabaseEntry(h.ID, h.Name(), tables))
	}
	return r.Success(out)
}

// fail answers a read command failure: taxonomy errors are sent to the
// client, anything else is returned as a fault.
func (p *Plugin) fail(command string, err error, r Responder) error {
	if perr := readError(err); perr != nil {
		p.logger.Debug("command rejected", "command", command, "code", perr.Code, "error", err)
		return r.Error(perr)
	}
	return fmt.Errorf("%s: %w", command, err)
}

func (p *Plugin) tableStructure(ctx context.Context, params Params, r Responder) error {
	req, ok := codec.DecodeTableStructureRequest(params)
	if !ok {
		return r.Error(NewInvalidRequestError())
	}
	s, err := p.manager.TableStructure(ctx, req.DatabaseID, req.Table)
	if err != nil {
		return p.fail(CommandGetTableStructure, err, r)
	}
	payload, err := codec.EncodeTableStructure(s)
	if err != nil {
		return fmt.Errorf("%s: %w", CommandGetTableStructure, err)
	}
	return r.Success(payload)
}

func (p *Plugin) tableData(ctx context.Context, params Params, r Responder) error {
	req, ok := codec.DecodeTableDataRequest(params, p.pageSize)
	if !ok {
		return r.Error(NewInvalidRequestError())
	}
	page, err := p.manager.TableData(ctx, req.DatabaseID, req.Table, req.Order, req.Reverse, req.Start, req.Count)
	if err != nil {
		return p.fail(CommandGetTableData, err, r)
	}
	payload, err := codec.EncodeTableData(page)
	if err != nil {
		return fmt.Errorf("%s: %w", CommandGetTableData, err)
	}
	return r.Success(payload)
}

func (p *Plugin) tableInfo(ctx context.Context, params Params, r Responder) error {
	req, ok := codec.DecodeTableInfoRequest(params)
	if !ok {
		return r.Error(NewInvalidRequestError())
	}
	info, err := p.manager.TableInfo(ctx, req.DatabaseID, req.Table)
	if err != nil {
		return p.fail(CommandGetTableInfo, err, r)
	}
	return r.Success(codec.EncodeTableInfo(info))
}

func (p *Plugin) execute(ctx context.Context, params Params, r Responder) error {
	req, ok := codec.DecodeExecuteRequest(params)
	if !ok {
		return r.Error(NewInvalidRequestError())
	}
	res, err := p.safeExecute(ctx, req)
	if err != nil {
		perr := executeError(CommandExecute, err)
		p.logger.Debug("execute failed", "database", req.DatabaseID, "code", perr.Code, "error", err)
		return r.Error(perr)
	}
	payload, err := codec.EncodeExecuteResult(res)
	if err != nil {
		return fmt.Errorf("%s: %w", CommandExecute, err)
	}
	return r.Success(payload)
}

// safeExecute turns a panic inside the engine into an error.
func (p *Plugin) safeExecute(ctx context.Context, req codec.ExecuteRequest) (res *core.ExecuteResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p.logger.Error("execute panicked", "database", req.DatabaseID, "panic", rec)
			res, err = nil, fmt.Errorf("%v", rec)
		}
	}()
	return p.manager.ExecuteSQL(ctx, req.DatabaseID, req.Value)
}
