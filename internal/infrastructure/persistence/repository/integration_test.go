package repository_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/procurement-flow/internal/application/port"
	appwf "github.com/garyjia/procurement-flow/internal/application/workflow"
	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

var (
	requester = entity.Actor{ID: "u-owner", Role: workflow.RoleEmployee}
	validator = []entity.Actor{
		{ID: "u-ss", Role: workflow.RoleSiteSupervisor},
		{ID: "u-wm", Role: workflow.RoleWorksManager},
		{ID: "u-pm", Role: workflow.RoleProjectManager},
	}
	supplier  = entity.Actor{ID: "u-supply", Role: workflow.RoleSupply}
	deliverer = entity.Actor{ID: "u-carrier", Role: workflow.RoleCarrier}
)

// newIntegrationEngine wires the engine on a migrated in-memory database
func newIntegrationEngine(t *testing.T) (appwf.WorkflowEngine, port.Repositories) {
	t.Helper()
	db, repos := newTestStore(t)
	seedProject(t, repos)
	ctx := context.Background()

	actors := append([]entity.Actor{requester, supplier, deliverer}, validator...)
	for _, a := range actors {
		require.NoError(t, repos.Users.Create(ctx, &entity.User{ID: a.ID, Name: a.ID, Role: a.Role}))
		require.NoError(t, repos.Projects.AddMember(ctx, "p-1", a.ID))
	}
	require.NoError(t, repos.Articles.Create(ctx, &entity.Article{ID: "a-cement", Name: "Cement", Unit: "bag"}))
	require.NoError(t, repos.Articles.Create(ctx, &entity.Article{ID: "a-sand", Name: "Sand", Unit: "t"}))

	n := 0
	clock := baseTime
	engine := appwf.NewEngine(repos, db,
		appwf.WithDecider(appwf.NewDecider(
			appwf.WithIDGenerator(func() string {
				n++
				return fmt.Sprintf("id-%03d", n)
			}),
			appwf.WithSuffixGenerator(func() string { return "AB12" }),
		)),
		appwf.WithClock(func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		}),
	)
	return engine, repos
}

func TestIntegration_PartialReceptionOnSQLite(t *testing.T) {
	engine, repos := newIntegrationEngine(t)
	ctx := context.Background()

	out, err := engine.Create(ctx, requester, appwf.CreateInput{
		Category:  workflow.CategoryMaterial,
		ProjectID: "p-1",
		Items: []appwf.CreateItem{
			{ArticleID: "a-cement", Quantity: 10},
			{ArticleID: "a-sand", Quantity: 4},
		},
		Submit: true,
	})
	require.NoError(t, err)
	req := out.Request
	assert.Equal(t, "PR-000001", req.Number)
	assert.Equal(t, workflow.StateAwaitingSiteSupervisor, out.NewStatus)

	for _, v := range validator {
		_, err := engine.Execute(ctx, req.ID, v, workflow.TriggerValidate, appwf.Payload{})
		require.NoError(t, err, "validate by %s", v.Role)
	}
	steps := []struct {
		actor   entity.Actor
		action  workflow.Trigger
		payload appwf.Payload
	}{
		{supplier, workflow.TriggerPrepareOutgoing, appwf.Payload{DelivererID: deliverer.ID}},
		{deliverer, workflow.TriggerConfirmCarrierReceipt, appwf.Payload{}},
		{deliverer, workflow.TriggerConfirmDelivery, appwf.Payload{}},
	}
	for _, s := range steps {
		_, err := engine.Execute(ctx, req.ID, s.actor, s.action, s.payload)
		require.NoError(t, err, string(s.action))
	}

	items, err := repos.Items.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)

	out, err = engine.Execute(ctx, req.ID, requester, workflow.TriggerClose, appwf.Payload{
		ReceivedQuantities: map[string]float64{items[0].ID: 7, items[1].ID: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, workflow.StateClosed, out.NewStatus)
	require.NotNil(t, out.Child)
	assert.Equal(t, "PR-000001-RAB12", out.Child.Number)

	child, err := repos.Requests.GetByID(ctx, out.Child.ID)
	require.NoError(t, err)
	require.NotNil(t, child)
	assert.EqualValues(t, 2, child.Seq)
	assert.Equal(t, req.ID, child.ParentID)

	childItems, err := repos.Items.GetByRequestID(ctx, child.ID)
	require.NoError(t, err)
	require.Len(t, childItems, 1)
	assert.Equal(t, 3.0, childItems[0].RequestedQty)

	sigs, err := repos.Signatures.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, sigs, 3)

	deliveries, err := repos.Deliveries.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, deliveries, 1)
	assert.Equal(t, entity.DeliveryStatusDelivered, deliveries[0].Status)

	history, err := repos.History.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 9)
	assert.Equal(t, "submit", history[0].Action)
	assert.Equal(t, "close", history[7].Action)
	for i := 1; i < 8; i++ {
		assert.Equal(t, history[i-1].NewStatus, history[i].PreviousStatus)
	}

	// the linking entry repeats the close transition on the parent
	assert.Equal(t, entity.HistoryActionChildCreated, history[8].Action)
	assert.Equal(t, history[7].PreviousStatus, history[8].PreviousStatus)
	assert.Equal(t, workflow.StateClosed, history[8].NewStatus)

	childHistory, err := repos.History.GetByRequestID(ctx, child.ID)
	require.NoError(t, err)
	require.NotEmpty(t, childHistory)
	assert.Equal(t, entity.HistoryActionChildOrigin, childHistory[0].Action)
	assert.Equal(t, workflow.StateAwaitingSupplyPrep, childHistory[0].NewStatus)
}

func TestIntegration_StaleVersionOnSQLite(t *testing.T) {
	engine, repos := newIntegrationEngine(t)
	ctx := context.Background()

	out, err := engine.Create(ctx, requester, appwf.CreateInput{
		Category:  workflow.CategoryMaterial,
		ProjectID: "p-1",
		Items:     []appwf.CreateItem{{ArticleID: "a-cement", Quantity: 2}},
		Submit:    true,
	})
	require.NoError(t, err)

	// a concurrent writer bumps the version behind the engine's back
	stored, err := repos.Requests.GetByID(ctx, out.Request.ID)
	require.NoError(t, err)
	stale := *stored
	require.NoError(t, repos.Requests.Update(ctx, stored))

	err = repos.Requests.Update(ctx, &stale)
	assert.True(t, errors.Is(err, workflow.ErrConflict))

	// the engine reads the fresh version and still succeeds
	_, err = engine.Execute(ctx, out.Request.ID, validator[0], workflow.TriggerValidate, appwf.Payload{})
	require.NoError(t, err)

	history, err := repos.History.GetByRequestID(ctx, out.Request.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
