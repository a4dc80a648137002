package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// Request represents a procurement request moving through the approval flow
type Request struct {
	ID                  string            `json:"id"`
	Seq                 int64             `json:"seq"`
	Number              string            `json:"number"`
	Category            workflow.Category `json:"category"`
	Status              workflow.State    `json:"status"`
	ProjectID           string            `json:"project_id"`
	OwnerID             string            `json:"owner_id"`
	RequesterRole       workflow.Role     `json:"requester_role"`
	DelivererID         string            `json:"deliverer_id,omitempty"`
	ParentID            string            `json:"parent_id,omitempty"`
	Comment             string            `json:"comment,omitempty"`
	RejectionReason     string            `json:"rejection_reason,omitempty"`
	DesiredDeliveryDate *time.Time        `json:"desired_delivery_date,omitempty"`
	TotalCost           decimal.Decimal   `json:"total_cost"`
	CostCommittedAt     *time.Time        `json:"cost_committed_at,omitempty"`
	CarrierReceivedAt   *time.Time        `json:"carrier_received_at,omitempty"`
	DeliveredAt         *time.Time        `json:"delivered_at,omitempty"`
	Version             int64             `json:"version"`
	CreatedAt           time.Time         `json:"created_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
}

// IsOwner reports whether the user is the original requester
func (r *Request) IsOwner(userID string) bool {
	return userID != "" && r.OwnerID == userID
}

// IsDeliverer reports whether the user is the assigned deliverer
func (r *Request) IsDeliverer(userID string) bool {
	return userID != "" && r.DelivererID == userID
}

// LineItem is one article line of a request
type LineItem struct {
	ID           string           `json:"id"`
	RequestID    string           `json:"request_id"`
	ArticleID    string           `json:"article_id"`
	ArticleName  string           `json:"article_name"`
	ArticleUnit  string           `json:"article_unit"`
	ArticleRef   string           `json:"article_ref"`
	RequestedQty float64          `json:"requested_qty"`
	ValidatedQty *float64         `json:"validated_qty,omitempty"`
	IssuedQty    float64          `json:"issued_qty"`
	ReceivedQty  *float64         `json:"received_qty,omitempty"`
	UnitPrice    *decimal.Decimal `json:"unit_price,omitempty"`
	Comment      string           `json:"comment,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// EffectiveValidated returns the validated quantity, defaulting to the requested quantity
func (i *LineItem) EffectiveValidated() float64 {
	if i.ValidatedQty != nil {
		return *i.ValidatedQty
	}
	return i.RequestedQty
}

// OpenExposure is the priced cost of what is still owed on the line:
// unitPrice × max(0, validated − issued). Unpriced lines contribute zero.
func (i *LineItem) OpenExposure() decimal.Decimal {
	if i.UnitPrice == nil {
		return decimal.Zero
	}
	remaining := i.EffectiveValidated() - i.IssuedQty
	if remaining <= 0 {
		return decimal.Zero
	}
	return i.UnitPrice.Mul(decimal.NewFromFloat(remaining))
}

// Article is a catalog entry referenced by line items
type Article struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Unit      string    `json:"unit"`
	Reference string    `json:"reference"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RequestDetail is a request with its owned aggregates expanded
type RequestDetail struct {
	Request    *Request               `json:"request"`
	Items      []*LineItem            `json:"items"`
	Signatures []*ValidationSignature `json:"signatures"`
	Deliveries []*Delivery            `json:"deliveries"`
	Issuances  []*IssuanceSignature   `json:"issuances,omitempty"`
}

// RequestFilter narrows request listings
type RequestFilter struct {
	Status    workflow.State
	Category  workflow.Category
	ProjectID string
	OwnerID   string
	Limit     int
	Offset    int
}
