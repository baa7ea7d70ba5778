package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/wallboard/internal/config"
)

func (s *Server) handleGetConfig(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	cfg, err := s.ops.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := jsonResult(cfg)
	return res, nil, err
}

func (s *Server) handleSaveConfig(ctx context.Context, req *mcpsdk.CallToolRequest, input SaveConfigInput) (*mcpsdk.CallToolResult, any, error) {
	var cfg config.Config
	if err := json.Unmarshal([]byte(input.Config), &cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config document: %w", err)
	}
	if err := s.ops.SaveConfig(ctx, &cfg); err != nil {
		return nil, nil, err
	}
	return textResult("Config saved and applied."), nil, nil
}

func (s *Server) handleSetView(ctx context.Context, req *mcpsdk.CallToolRequest, input SetViewInput) (*mcpsdk.CallToolResult, any, error) {
	cfg, err := s.ops.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	idx := -1
	for i, v := range cfg.Views {
		if v.ID == input.ViewID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil, fmt.Errorf("no view with id %q", input.ViewID)
	}

	cfg.Views[idx].URL = input.URL
	if input.Profile != nil {
		if *input.Profile == "" {
			cfg.Views[idx].Profile = nil
		} else {
			p := *input.Profile
			cfg.Views[idx].Profile = &p
		}
	}
	if err := s.ops.SaveConfig(ctx, cfg); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("View %s now shows %s.", input.ViewID, input.URL)), nil, nil
}

func (s *Server) handleSetMonitor(ctx context.Context, req *mcpsdk.CallToolRequest, input SetMonitorInput) (*mcpsdk.CallToolResult, any, error) {
	cfg, err := s.ops.GetConfig(ctx)
	if err != nil {
		return nil, nil, err
	}
	cfg.Monitor = config.MonitorSelector{Mode: config.MonitorMode(input.Mode), Value: input.Value}
	if err := s.ops.SaveConfig(ctx, cfg); err != nil {
		return nil, nil, err
	}
	return textResult(fmt.Sprintf("Monitor selector set to %s.", input.Mode)), nil, nil
}

func (s *Server) handleListMonitors(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	monitors, err := s.ops.ListMonitors(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := jsonResult(monitors)
	return res, nil, err
}

func (s *Server) handlePlanLayout(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	plan, err := s.ops.PlanConfig(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	res, err := jsonResult(plan)
	return res, nil, err
}

func (s *Server) handleApply(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.ops.Apply(ctx); err != nil {
		return nil, nil, err
	}
	return textResult("Config applied."), nil, nil
}

func (s *Server) handleRebuild(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	if err := s.ops.Rebuild(ctx); err != nil {
		return nil, nil, err
	}
	return textResult("All views rebuilt."), nil, nil
}

func (s *Server) handleToggle(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	concealed, err := s.ops.ToggleVisibility(ctx)
	if err != nil {
		return nil, nil, err
	}
	if concealed {
		return textResult("Views hidden."), nil, nil
	}
	return textResult("Views shown."), nil, nil
}

func (s *Server) handleStatus(ctx context.Context, req *mcpsdk.CallToolRequest, input EmptyInput) (*mcpsdk.CallToolResult, any, error) {
	st, err := s.ops.Status(ctx)
	if err != nil {
		return nil, nil, err
	}
	res, err := jsonResult(st)
	return res, nil, err
}
