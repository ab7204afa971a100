package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conclave-ai/conclave/core"
	"github.com/conclave-ai/conclave/model"
	"github.com/conclave-ai/conclave/registry"
)

func TestNewPlannerAgent_RosterInInstructions(t *testing.T) {
	m := model.NewMockModel("mock")
	workers := []core.Agent{
		NewModelAgent("yeller", m, func(o *ModelAgentOptions) {
			o.Description = "Yells things"
		}),
		NewModelAgent("analyst", m, func(o *ModelAgentOptions) {
			o.Description = "Queries the database"
		}),
	}

	planner := NewPlannerAgent(m, workers)
	assert.Equal(t, PlannerName, planner.Name())

	m.EnqueueText("yeller goes first")
	h := core.NewHistory()
	h.Append(core.NewUserMessage("task"))
	_, err := planner.Produce(context.Background(), h)
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Contains(t, reqs[0].Instructions, "yeller: Yells things")
	assert.Contains(t, reqs[0].Instructions, "analyst: Queries the database")
	assert.Contains(t, reqs[0].Instructions, "[TERMINATE_ALL]")
}

func TestNewPlannerAgent_CustomToken(t *testing.T) {
	m := model.NewMockModel("mock")
	planner := NewPlannerAgent(m, nil, func(o *PlannerOptions) {
		o.TerminationToken = "WE_ARE_DONE"
	})

	m.EnqueueText("ok")
	h := core.NewHistory()
	h.Append(core.NewUserMessage("task"))
	_, err := planner.Produce(context.Background(), h)
	require.NoError(t, err)

	assert.Contains(t, m.Requests()[0].Instructions, "WE_ARE_DONE")
}

func TestFormatterFactory(t *testing.T) {
	m := model.NewMockModel("mock")
	deps := registry.Deps{
		Model: m,
		Spec:  registry.Spec{Name: "formatter", Factory: FactoryFormatter, Enabled: true},
	}

	a, err := FormatterFactory(context.Background(), deps)
	require.NoError(t, err)
	assert.Equal(t, "formatter", a.Name())

	ma, ok := a.(*ModelAgent)
	require.True(t, ok)
	assert.Empty(t, ma.Tools())
}

func TestDialogueFactory_MissingServer(t *testing.T) {
	deps := registry.Deps{
		Model: model.NewMockModel("mock"),
		Spec:  registry.Spec{Name: "yeller", Factory: FactoryDialogue, Enabled: true},
	}

	_, err := DialogueFactory(context.Background(), deps)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no tool server configured")
}

func TestRegisterBuiltinFactories(t *testing.T) {
	reg := registry.New(model.NewMockModel("mock"))
	RegisterBuiltinFactories(reg)

	require.NoError(t, reg.Register("formatter", FactoryFormatter))
	a, err := reg.Resolve(context.Background(), "formatter")
	require.NoError(t, err)
	assert.Equal(t, "formatter", a.Name())
}
