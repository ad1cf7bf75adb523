package suggest

import (
	"fmt"

	"github.com/joss/cellpilot/internal/domain"
	"github.com/joss/cellpilot/internal/provider"
)

// maxHardwareHints caps the fixture-hardware list attached to a plan.
const maxHardwareHints = 3

// BuildActionPlan produces the ordered operator instructions for a
// winning job: unload a finished part if one is on the pallet, align the
// fixture, then load raw material.
func BuildActionPlan(job domain.PlannedJobRow, requiredFixture, currentFixture string, palletFinished bool, hardware []domain.FixtureState) domain.ActionPlan {
	var steps []domain.ActionPlanStep

	if palletFinished && job.MachinePalletID != "" {
		steps = append(steps, domain.ActionPlanStep{
			Step:   domain.StepUnloadFinishedPart,
			Detail: fmt.Sprintf("unload finished part from pallet %s", job.MachinePalletID),
			Pallet: job.MachinePalletID,
		})
	}

	steps = append(steps, fixtureSteps(job, requiredFixture, currentFixture)...)

	steps = append(steps, domain.ActionPlanStep{
		Step: domain.StepLoadRawMaterial,
		Detail: fmt.Sprintf("load raw material for %s / %s from pallet %s",
			job.WorkOrder, job.PartID, orUnknown(job.MaterialPalletID)),
		Pallet: job.MaterialPalletID,
	})

	if len(hardware) > maxHardwareHints {
		hardware = hardware[:maxHardwareHints]
	}

	return domain.ActionPlan{
		Steps:               steps,
		FixtureHardwareList: hardware,
	}
}

// fixtureSteps compares the required fixture against the currently
// mounted one and emits the matching swap/verify sequence.
func fixtureSteps(job domain.PlannedJobRow, required, current string) []domain.ActionPlanStep {
	required = provider.NormalizePlaque(required)
	current = provider.NormalizePlaque(current)

	switch {
	case required != "" && required == current:
		return []domain.ActionPlanStep{{
			Step:    domain.StepVerifyFixture,
			Detail:  fmt.Sprintf("verify fixture %s is mounted and torqued", required),
			Fixture: required,
		}}
	case required != "" && current != "":
		return []domain.ActionPlanStep{
			{
				Step:    domain.StepRemoveFixture,
				Detail:  fmt.Sprintf("remove fixture %s", current),
				Fixture: current,
			},
			{
				Step:    domain.StepInstallFixture,
				Detail:  fmt.Sprintf("install fixture %s", required),
				Fixture: required,
			},
		}
	case required != "":
		return []domain.ActionPlanStep{{
			Step:    domain.StepInstallFixture,
			Detail:  fmt.Sprintf("install fixture %s", required),
			Fixture: required,
		}}
	case current != "":
		return []domain.ActionPlanStep{
			{
				Step:    domain.StepRemoveFixture,
				Detail:  fmt.Sprintf("remove fixture %s", current),
				Fixture: current,
			},
			{
				Step:   domain.StepConfirmFixture,
				Detail: "confirm fixture setup with the supervisor",
			},
		}
	default:
		return []domain.ActionPlanStep{{
			Step:   domain.StepConfirmFixture,
			Detail: "confirm fixture setup with the supervisor",
		}}
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "(unassigned)"
	}
	return s
}
