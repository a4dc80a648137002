package workflow

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Payload carries the action-specific fields of an action call.
// Quantity maps are keyed by line item id.
type Payload struct {
	Comment             string             `json:"comment,omitempty"`
	Reason              string             `json:"reason,omitempty"`
	DelivererID         string             `json:"deliverer_id,omitempty"`
	TargetStatus        domainwf.State     `json:"target_status,omitempty"`
	ValidatedQuantities map[string]float64 `json:"validated_quantities,omitempty"`
	ReceivedQuantities  map[string]float64 `json:"received_quantities,omitempty"`
	ItemEdits           []ItemEdit         `json:"item_edits,omitempty"`
	Pricing             []PricingLine      `json:"pricing,omitempty"`
}

// ItemEdit changes a line item during validation. Nil fields are left alone.
type ItemEdit struct {
	ItemID    string   `json:"item_id"`
	Name      *string  `json:"name,omitempty"`
	Reference *string  `json:"reference,omitempty"`
	Quantity  *float64 `json:"quantity,omitempty"`
}

// PricingLine sets the issued quantity and unit price of a line item
type PricingLine struct {
	ItemID    string           `json:"item_id"`
	IssuedQty float64          `json:"issued_qty"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
}

// CreateInput describes a new request
type CreateInput struct {
	Category            domainwf.Category `json:"category"`
	ProjectID           string            `json:"project_id"`
	Comment             string            `json:"comment,omitempty"`
	DesiredDeliveryDate *time.Time        `json:"desired_delivery_date,omitempty"`
	Items               []CreateItem      `json:"items"`
	Submit              bool              `json:"submit"`
}

// CreateItem is one requested article
type CreateItem struct {
	ArticleID string  `json:"article_id"`
	Quantity  float64 `json:"quantity"`
}

// Outcome reports the effect of an accepted action
type Outcome struct {
	Request        *entity.Request  `json:"request"`
	Action         domainwf.Trigger `json:"action"`
	PreviousStatus domainwf.State   `json:"previous_status"`
	NewStatus      domainwf.State   `json:"new_status"`
	Child          *entity.Request  `json:"child,omitempty"`
}
