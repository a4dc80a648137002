package workflow

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/event"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Shortfall is the undelivered part of one line item at closure
type Shortfall struct {
	Item      *entity.LineItem
	Validated float64
	Received  float64
	Quantity  float64
	Comment   string
}

// ChildPlan is the follow-up request carrying shortfall quantities back to preparation
type ChildPlan struct {
	Request *entity.Request
	Items   []*entity.LineItem
	History *entity.RequestHistory
}

// Shortfalls compares validated (not issued) against received quantity per item.
// Items without a recorded reception count as nothing received.
func Shortfalls(parentNumber string, items []*entity.LineItem) []Shortfall {
	var out []Shortfall
	for _, it := range items {
		validated := it.EffectiveValidated()
		received := 0.0
		if it.ReceivedQty != nil {
			received = *it.ReceivedQty
		}
		missing := validated - received
		if missing <= 0 {
			continue
		}
		out = append(out, Shortfall{
			Item:      it,
			Validated: validated,
			Received:  received,
			Quantity:  missing,
			Comment: fmt.Sprintf("shortfall from request %s: validated %s, received %s",
				parentNumber, formatQty(validated), formatQty(received)),
		})
	}
	return out
}

// CommittedCost is the open financial exposure of a request:
// Σ unitPrice × max(0, validated − issued). Goods already issued are not counted.
func CommittedCost(items []*entity.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.OpenExposure())
	}
	return total
}

// spawnChild adds a child request to the plan. The child re-enters the flow at the
// category's preparation stage, keeps the parent's owner and project, and starts unpriced.
func (d *Decider) spawnChild(plan *Plan, shortfalls []Shortfall, actor entity.Actor, now time.Time) {
	parent := plan.Request
	status := domainwf.PreparationState(parent.Category)

	child := &entity.Request{
		ID:                  d.newID(),
		Number:              fmt.Sprintf("%s-R%s", parent.Number, d.newSuffix()),
		Category:            parent.Category,
		Status:              status,
		ProjectID:           parent.ProjectID,
		OwnerID:             parent.OwnerID,
		RequesterRole:       parent.RequesterRole,
		ParentID:            parent.ID,
		DesiredDeliveryDate: parent.DesiredDeliveryDate,
		TotalCost:           decimal.Zero,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	items := make([]*entity.LineItem, 0, len(shortfalls))
	for _, sf := range shortfalls {
		items = append(items, &entity.LineItem{
			ID:           d.newID(),
			RequestID:    child.ID,
			ArticleID:    sf.Item.ArticleID,
			ArticleName:  sf.Item.ArticleName,
			ArticleUnit:  sf.Item.ArticleUnit,
			ArticleRef:   sf.Item.ArticleRef,
			RequestedQty: sf.Quantity,
			ValidatedQty: floatPtr(sf.Quantity),
			Comment:      sf.Comment,
			CreatedAt:    now,
		})
	}

	plan.Child = &ChildPlan{
		Request: child,
		Items:   items,
		History: d.historyEntry(child.ID, actor, entity.HistoryActionChildOrigin, "", status,
			fmt.Sprintf("created from request %s", parent.Number), now),
	}

	plan.History = append(plan.History, d.historyEntry(parent.ID, actor, entity.HistoryActionChildCreated,
		plan.Previous, plan.Next, fmt.Sprintf("shortfall carried to request %s", child.Number), now))

	plan.Events = append(plan.Events, event.NewEvent(event.TypeChildCreated, parent.ID, parent.Number, actor.ID,
		map[string]interface{}{
			event.KeyChildID:     child.ID,
			event.KeyChildNumber: child.Number,
		}))
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', -1, 64)
}
