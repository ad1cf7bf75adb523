package provider

import (
	"context"
	"strings"
	"sync"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/logging"
)

// ToolingProvider resolves NC-program tool requirements and live tool
// inventory per machine.
type ToolingProvider struct {
	source ToolSource
	log    *logging.Logger
}

// NewToolingProvider creates a provider over the tool inventory source.
func NewToolingProvider(source ToolSource) *ToolingProvider {
	return &ToolingProvider{
		source: source,
		log:    logging.New("tooling-provider"),
	}
}

// GetToolRequirements looks up the tools a program needs. The exact
// program name is tried first; machine-specific program variants share a
// base name, so an empty result retries with the trailing token stripped.
func (p *ToolingProvider) GetToolRequirements(ctx context.Context, programName string) []domain.ToolRequirement {
	reqs := p.fetchRequirements(ctx, programName)
	if len(reqs) == 0 {
		if base, ok := stripTrailingToken(programName); ok {
			reqs = p.fetchRequirements(ctx, base)
		}
	}
	return reqs
}

func (p *ToolingProvider) fetchRequirements(ctx context.Context, program string) []domain.ToolRequirement {
	rows, err := p.source.GetToolRequirements(ctx, program)
	if err != nil {
		p.log.Warn("tool_requirements_unavailable", map[string]interface{}{"program": program}, err)
		return nil
	}
	reqs := make([]domain.ToolRequirement, 0, len(rows))
	for _, row := range rows {
		id := FirstString(row, "tool_id", "tool", "tool_no")
		if id == "" {
			continue
		}
		reqs = append(reqs, domain.ToolRequirement{
			ToolID:           id,
			UsageTimeSeconds: FirstFloat(row, "usage_time_seconds", "usage_seconds", "cutting_time"),
		})
	}
	return reqs
}

// GetMachineToolStates fetches the live tool inventory of each machine
// concurrently. A failure on one machine yields an empty map for that
// machine only; the other fetches are unaffected.
func (p *ToolingProvider) GetMachineToolStates(ctx context.Context, machineIDs []string) map[string]map[string]domain.ToolState {
	states := make(map[string]map[string]domain.ToolState, len(machineIDs))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, machineID := range machineIDs {
		wg.Add(1)
		go func(machineID string) {
			defer wg.Done()
			tools := p.fetchMachineTools(ctx, machineID)
			mu.Lock()
			states[machineID] = tools
			mu.Unlock()
		}(machineID)
	}
	wg.Wait()

	return states
}

func (p *ToolingProvider) fetchMachineTools(ctx context.Context, machineID string) map[string]domain.ToolState {
	tools := make(map[string]domain.ToolState)
	rows, err := p.source.ListMachineTools(ctx, machineID)
	if err != nil {
		p.log.WithMachine(machineID).Warn("machine_tools_unavailable", nil, err)
		return tools
	}
	for _, row := range rows {
		id := FirstString(row, "tool_id", "tool", "tool_no")
		if id == "" {
			continue
		}
		tools[id] = domain.ToolState{
			ToolID:               id,
			IsPresent:            FirstBool(row, "is_present", "present", "loaded"),
			RemainingLifeSeconds: FirstFloat(row, "remaining_life_seconds", "remaining_life", "life_seconds"),
		}
	}
	return tools
}

// stripTrailingToken removes the final "-token" segment of a program
// name, e.g. "1234-10OP-DMC1" -> "1234-10OP".
func stripTrailingToken(program string) (string, bool) {
	i := strings.LastIndex(program, "-")
	if i <= 0 {
		return "", false
	}
	return program[:i], true
}
