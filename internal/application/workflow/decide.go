package workflow

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/procurement-flow/internal/domain/entity"
	"github.com/garyjia/procurement-flow/internal/domain/event"
	domainwf "github.com/garyjia/procurement-flow/internal/domain/workflow"
)

// DefaultIssuanceWindow is how long an issuance signature stays editable
const DefaultIssuanceWindow = 45 * time.Minute

// Snapshot is everything a decision reads. The engine loads it inside the transaction.
type Snapshot struct {
	Request    *entity.Request
	Items      []*entity.LineItem
	Deliveries []*entity.Delivery
	// ActorIsMember is true when the actor belongs to the request's project; the owner always does
	ActorIsMember bool
	// Deliverer is the user named by Payload.DelivererID, nil when unknown
	Deliverer *entity.User
	Now       time.Time
}

// Plan is every write and post-commit event one accepted action produces.
// The engine applies it in a single transaction.
type Plan struct {
	Action           domainwf.Trigger
	Previous         domainwf.State
	Next             domainwf.State
	Request          *entity.Request
	Items            []*entity.LineItem
	Articles         []ArticleEdit
	Signature        *entity.ValidationSignature
	Issuance         *entity.IssuanceSignature
	Delivery         *entity.Delivery
	DeliveryStatuses []DeliveryStatusChange
	Child            *ChildPlan
	History          []*entity.RequestHistory
	Notifications    []*entity.Notification
	Events           []*event.Event
}

// ArticleEdit changes catalog master data; nil fields are kept
type ArticleEdit struct {
	ArticleID string
	Name      *string
	Reference *string
}

// DeliveryStatusChange moves one delivery to a new status
type DeliveryStatusChange struct {
	DeliveryID string
	Status     entity.DeliveryStatus
}

// Decider turns (snapshot, actor, action, payload) into a Plan without touching any store
type Decider struct {
	resolver       *domainwf.Resolver
	issuanceWindow time.Duration
	newID          func() string
	newSuffix      func() string
}

// DeciderOption configures the decider
type DeciderOption func(*Decider)

// WithIssuanceWindow sets the mutability window of issuance signatures
func WithIssuanceWindow(window time.Duration) DeciderOption {
	return func(d *Decider) {
		if window > 0 {
			d.issuanceWindow = window
		}
	}
}

// WithSuffixLength sets the length of the random suffix appended to child request numbers
func WithSuffixLength(n int) DeciderOption {
	return func(d *Decider) {
		if n > 0 {
			d.newSuffix = randomSuffix(n)
		}
	}
}

// WithIDGenerator replaces the id generator, mainly for tests
func WithIDGenerator(fn func() string) DeciderOption {
	return func(d *Decider) {
		d.newID = fn
	}
}

// WithSuffixGenerator replaces the child number suffix generator, mainly for tests
func WithSuffixGenerator(fn func() string) DeciderOption {
	return func(d *Decider) {
		d.newSuffix = fn
	}
}

// NewDecider creates a decider over the fixed flows
func NewDecider(opts ...DeciderOption) *Decider {
	d := &Decider{
		resolver:       domainwf.NewResolver(),
		issuanceWindow: DefaultIssuanceWindow,
		newID:          uuid.NewString,
		newSuffix:      randomSuffix(4),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// maxSuffixLength is the number of hex digits in a uuid
const maxSuffixLength = 32

func randomSuffix(n int) func() string {
	if n > maxSuffixLength {
		n = maxSuffixLength
	}
	return func() string {
		s := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
		return s[:n]
	}
}

// Authorize checks the action table, role, ownership and project membership.
// It does not look at the payload.
func (d *Decider) Authorize(s *Snapshot, actor entity.Actor, action domainwf.Trigger) error {
	req := s.Request
	if !action.IsValid() {
		return domainwf.Invalid("unknown action %q", action)
	}
	if !BuildRequestStateMachine(req.Status).CanFire(action) {
		return domainwf.WrongStatus("%s is not allowed while request %s is %s", action, req.Number, req.Status)
	}

	override := actor.Role.IsOverride()

	switch action {
	case domainwf.TriggerOverride:
		if !override {
			return domainwf.Deny(domainwf.ReasonWrongRole, "only %s may override, not %s", domainwf.RoleAdmin, actor.Role)
		}

	case domainwf.TriggerSubmit,
		domainwf.TriggerCancel,
		domainwf.TriggerResend,
		domainwf.TriggerArchive,
		domainwf.TriggerClose:
		if !override && !req.IsOwner(actor.ID) {
			return domainwf.Deny(domainwf.ReasonNotOwner, "only the requester may %s request %s", action, req.Number)
		}

	case domainwf.TriggerValidate,
		domainwf.TriggerReject,
		domainwf.TriggerUpdateValidated:
		return d.authorizeStage(s, actor)

	case domainwf.TriggerPrepareOutgoing:
		if override {
			return nil
		}
		if req.Status != domainwf.PreparationState(req.Category) {
			return domainwf.WrongStatus("%s requests are prepared at %s, not %s",
				req.Category, domainwf.PreparationState(req.Category), req.Status)
		}
		if want := domainwf.PreparationRole(req.Category); actor.Role != want {
			return domainwf.Deny(domainwf.ReasonWrongRole, "%s requests are prepared by %s, not %s", req.Category, want, actor.Role)
		}
		return requireMember(s, actor)

	case domainwf.TriggerConfirmCarrierReceipt,
		domainwf.TriggerConfirmDelivery:
		if !override && !req.IsDeliverer(actor.ID) {
			return domainwf.Deny(domainwf.ReasonNotDeliverer, "only the assigned deliverer may %s", action)
		}

	case domainwf.TriggerUpdatePricing:
		if override {
			return nil
		}
		if !actor.Role.CanPrice() {
			return domainwf.Deny(domainwf.ReasonWrongRole, "role %s may not price requests", actor.Role)
		}
		return requireMember(s, actor)
	}

	return nil
}

func (d *Decider) authorizeStage(s *Snapshot, actor entity.Actor) error {
	if actor.Role.IsOverride() {
		return nil
	}
	status := s.Request.Status
	auth, ok := domainwf.AuthorityFor(status)
	if !ok {
		return domainwf.WrongStatus("no role acts on status %s", status)
	}
	if actor.Role != auth {
		return domainwf.Deny(domainwf.ReasonWrongRole, "status %s is handled by %s, not %s", status, auth, actor.Role)
	}
	return requireMember(s, actor)
}

func requireMember(s *Snapshot, actor entity.Actor) error {
	if !s.ActorIsMember {
		return domainwf.Deny(domainwf.ReasonNotProjectMember, "user %s is not a member of project %s", actor.ID, s.Request.ProjectID)
	}
	return nil
}

// Decide authorizes the action and computes its plan
func (d *Decider) Decide(s *Snapshot, actor entity.Actor, action domainwf.Trigger, p Payload) (*Plan, error) {
	if s == nil || s.Request == nil {
		return nil, domainwf.Missing("request not found")
	}
	if err := d.Authorize(s, actor, action); err != nil {
		return nil, err
	}

	req := *s.Request
	plan := &Plan{
		Action:   action,
		Previous: req.Status,
		Request:  &req,
	}
	items := newItemSet(s.Items)

	var err error
	switch action {
	case domainwf.TriggerSubmit:
		err = d.submit(plan, actor)
	case domainwf.TriggerValidate:
		err = d.validate(plan, s, items, actor, p)
	case domainwf.TriggerPrepareOutgoing:
		err = d.prepareOutgoing(plan, s, actor, p)
	case domainwf.TriggerConfirmCarrierReceipt:
		err = d.confirmCarrierReceipt(plan, s)
	case domainwf.TriggerConfirmDelivery:
		err = d.confirmDelivery(plan, s)
	case domainwf.TriggerClose:
		err = d.close(plan, s, items, actor, p)
	case domainwf.TriggerCancel:
		plan.Next = domainwf.StateCancelled
	case domainwf.TriggerReject:
		err = d.reject(plan, p)
	case domainwf.TriggerResend:
		plan.Request.RejectionReason = ""
		plan.Next = domainwf.FirstValidationState(req.Category)
	case domainwf.TriggerArchive:
		plan.Next = domainwf.StateArchived
	case domainwf.TriggerOverride:
		err = d.override(plan, actor, p)
	case domainwf.TriggerUpdateValidated:
		err = d.updateValidated(items, p)
	case domainwf.TriggerUpdatePricing:
		err = d.applyPricing(plan, s, items, actor, p)
	}
	if err != nil {
		return nil, err
	}

	plan.Items = items.changed()
	plan.Request.UpdatedAt = s.Now

	if action.ReturnsEarly() {
		plan.Next = plan.Previous
		return plan, nil
	}

	d.conclude(plan, s, actor, p)
	return plan, nil
}

// conclude writes the status, the transition history entry, the requester notification
// and the status event shared by every status-changing action
func (d *Decider) conclude(plan *Plan, s *Snapshot, actor entity.Actor, p Payload) {
	req := plan.Request
	req.Status = plan.Next

	comment := p.Comment
	if comment == "" && plan.Action == domainwf.TriggerReject {
		comment = p.Reason
	}

	entry := d.historyEntry(req.ID, actor, plan.Action.String(), plan.Previous, plan.Next, comment, s.Now)
	plan.History = append([]*entity.RequestHistory{entry}, plan.History...)

	plan.Notifications = append(plan.Notifications, &entity.Notification{
		ID:             d.newID(),
		RecipientID:    req.OwnerID,
		RequestID:      req.ID,
		Kind:           entity.NotificationKindStatusChanged,
		PreviousStatus: plan.Previous,
		NewStatus:      plan.Next,
		ActorID:        actor.ID,
		Message:        fmt.Sprintf("Request %s moved from %s to %s", req.Number, plan.Previous, plan.Next),
		CreatedAt:      s.Now,
	})

	plan.Events = append(plan.Events, event.NewEvent(event.TypeStatusChanged, req.ID, req.Number, actor.ID,
		map[string]interface{}{
			event.KeyPreviousStatus: plan.Previous.String(),
			event.KeyNewStatus:      plan.Next.String(),
			event.KeyRecipientHint:  recipientHint(req),
			event.KeyComment:        comment,
		}))
}

// recipientHint names who acts next: the assigned deliverer while goods are in transit,
// the stage authority during validation and preparation, the requester otherwise
func recipientHint(req *entity.Request) string {
	switch req.Status {
	case domainwf.StateAwaitingCarrierReceipt, domainwf.StateAwaitingDelivery:
		if req.DelivererID != "" {
			return entity.UserHint(req.DelivererID)
		}
	}
	if auth, ok := domainwf.AuthorityFor(req.Status); ok {
		return entity.RoleHint(auth)
	}
	return entity.UserHint(req.OwnerID)
}

func (d *Decider) submit(plan *Plan, actor entity.Actor) error {
	req := plan.Request
	next, ok := d.resolver.Resolve(domainwf.Resolution{
		Current:       domainwf.StateSubmitted,
		ActingRole:    actor.Role,
		Category:      req.Category,
		RequesterRole: req.RequesterRole,
	})
	if !ok {
		return domainwf.WrongStatus("request %s cannot be submitted", req.Number)
	}
	plan.Next = next
	return nil
}

func (d *Decider) validate(plan *Plan, s *Snapshot, items *itemSet, actor entity.Actor, p Payload) error {
	req := plan.Request

	res := domainwf.Resolution{
		Current:       req.Status,
		ActingRole:    actor.Role,
		Category:      req.Category,
		RequesterRole: req.RequesterRole,
	}
	if actor.Role.IsOverride() {
		res.ExplicitTarget = p.TargetStatus
	}
	next, ok := d.resolver.Resolve(res)
	if !ok {
		return domainwf.WrongStatus("no transition from %s for %s request %s", req.Status, req.Category, req.Number)
	}

	for _, edit := range p.ItemEdits {
		if err := d.applyEdit(plan, items, actor, edit); err != nil {
			return err
		}
	}
	if err := items.setValidated(p.ValidatedQuantities); err != nil {
		return err
	}

	stage, ok := domainwf.StageTypeFor(req.Status)
	if !ok {
		return domainwf.WrongStatus("status %s has no validation stage", req.Status)
	}
	plan.Signature = &entity.ValidationSignature{
		ID:        d.newID(),
		RequestID: req.ID,
		StageType: stage,
		SignerID:  actor.ID,
		Role:      actor.Role,
		Comment:   p.Comment,
		SignedAt:  s.Now,
	}
	plan.Next = next
	return nil
}

func (d *Decider) applyEdit(plan *Plan, items *itemSet, actor entity.Actor, edit ItemEdit) error {
	it, err := items.get(edit.ItemID)
	if err != nil {
		return err
	}

	if edit.Name != nil || edit.Reference != nil {
		if !actor.Role.CanEditMasterData() {
			return domainwf.Deny(domainwf.ReasonWrongRole, "role %s may only change quantities", actor.Role)
		}
		if edit.Name != nil {
			if strings.TrimSpace(*edit.Name) == "" {
				return domainwf.Invalid("article name of item %s cannot be empty", edit.ItemID)
			}
			it.ArticleName = *edit.Name
		}
		if edit.Reference != nil {
			it.ArticleRef = *edit.Reference
		}
		plan.Articles = append(plan.Articles, ArticleEdit{
			ArticleID: it.ArticleID,
			Name:      edit.Name,
			Reference: edit.Reference,
		})
	}

	if edit.Quantity != nil {
		q := *edit.Quantity
		if !isQuantity(q) || q <= 0 {
			return domainwf.Invalid("quantity %v of item %s must be positive", q, edit.ItemID)
		}
		it.RequestedQty = q
		if it.ValidatedQty != nil && *it.ValidatedQty > q {
			it.ValidatedQty = floatPtr(q)
		}
	}

	items.touch(edit.ItemID)
	return nil
}

func (d *Decider) prepareOutgoing(plan *Plan, s *Snapshot, actor entity.Actor, p Payload) error {
	req := plan.Request
	if p.DelivererID == "" {
		return domainwf.Invalid("deliverer_id is required")
	}
	if s.Deliverer == nil || s.Deliverer.ID != p.DelivererID {
		return domainwf.Missing("deliverer %s not found", p.DelivererID)
	}

	next, ok := d.resolver.Next(req.Status, req.Category)
	if !ok {
		return domainwf.WrongStatus("no transition from %s for %s request %s", req.Status, req.Category, req.Number)
	}

	req.DelivererID = p.DelivererID

	plan.Issuance = &entity.IssuanceSignature{
		ID:            d.newID(),
		RequestID:     req.ID,
		SignerID:      actor.ID,
		Role:          actor.Role,
		DelivererID:   p.DelivererID,
		SignedAt:      s.Now,
		EditableUntil: s.Now.Add(d.issuanceWindow),
	}

	delivery := &entity.Delivery{
		ID:          d.newID(),
		RequestID:   req.ID,
		DelivererID: p.DelivererID,
		Status:      entity.DeliveryStatusReady,
		CreatedAt:   s.Now,
		UpdatedAt:   s.Now,
	}
	for _, it := range s.Items {
		delivery.Items = append(delivery.Items, &entity.DeliveryItem{
			ID:         d.newID(),
			DeliveryID: delivery.ID,
			LineItemID: it.ID,
			Quantity:   it.EffectiveValidated(),
		})
	}
	plan.Delivery = delivery

	plan.Events = append(plan.Events, event.NewEvent(event.TypeDelivererAssigned, req.ID, req.Number, actor.ID,
		map[string]interface{}{
			event.KeyDelivererID: p.DelivererID,
		}))

	plan.Next = next
	return nil
}

func (d *Decider) confirmCarrierReceipt(plan *Plan, s *Snapshot) error {
	req := plan.Request
	next, ok := d.resolver.Next(req.Status, req.Category)
	if !ok {
		return domainwf.WrongStatus("no transition from %s for %s request %s", req.Status, req.Category, req.Number)
	}
	req.CarrierReceivedAt = timePtr(s.Now)

	for _, dl := range s.Deliveries {
		if dl.Status == entity.DeliveryStatusReady {
			plan.DeliveryStatuses = append(plan.DeliveryStatuses, DeliveryStatusChange{
				DeliveryID: dl.ID,
				Status:     entity.DeliveryStatusInProgress,
			})
		}
	}

	plan.Next = next
	return nil
}

func (d *Decider) confirmDelivery(plan *Plan, s *Snapshot) error {
	req := plan.Request
	next, ok := d.resolver.Next(req.Status, req.Category)
	if !ok {
		return domainwf.WrongStatus("no transition from %s for %s request %s", req.Status, req.Category, req.Number)
	}
	req.DeliveredAt = timePtr(s.Now)
	plan.Next = next
	return nil
}

func (d *Decider) close(plan *Plan, s *Snapshot, items *itemSet, actor entity.Actor, p Payload) error {
	req := plan.Request

	if err := items.setReceived(p.ReceivedQuantities); err != nil {
		return err
	}

	next, ok := d.resolver.Next(req.Status, req.Category)
	if !ok {
		return domainwf.WrongStatus("no transition from %s for %s request %s", req.Status, req.Category, req.Number)
	}
	plan.Next = next

	if shortfalls := Shortfalls(req.Number, items.all()); len(shortfalls) > 0 {
		d.spawnChild(plan, shortfalls, actor, s.Now)
	}

	for _, dl := range s.Deliveries {
		if dl.Status.IsOpen() {
			plan.DeliveryStatuses = append(plan.DeliveryStatuses, DeliveryStatusChange{
				DeliveryID: dl.ID,
				Status:     entity.DeliveryStatusDelivered,
			})
		}
	}
	return nil
}

func (d *Decider) reject(plan *Plan, p Payload) error {
	reason := strings.TrimSpace(p.Reason)
	if reason == "" {
		return domainwf.Invalid("a rejection reason is required")
	}
	plan.Request.RejectionReason = reason
	plan.Next = domainwf.StateRejected
	return nil
}

func (d *Decider) override(plan *Plan, actor entity.Actor, p Payload) error {
	req := plan.Request
	if p.TargetStatus == "" {
		return domainwf.Invalid("target_status is required")
	}
	if !p.TargetStatus.IsValid() {
		return domainwf.Invalid("unknown target status %q", p.TargetStatus)
	}

	next, ok := d.resolver.Resolve(domainwf.Resolution{
		Current:        req.Status,
		ActingRole:     actor.Role,
		Category:       req.Category,
		RequesterRole:  req.RequesterRole,
		ExplicitTarget: p.TargetStatus,
	})
	if !ok {
		return domainwf.WrongStatus("cannot override request %s to %s", req.Number, p.TargetStatus)
	}

	if prevRole, ok := domainwf.AuthorityFor(req.Status); ok {
		plan.Events = append(plan.Events, event.NewEvent(event.TypeOverrideTaken, req.ID, req.Number, actor.ID,
			map[string]interface{}{
				event.KeyPreviousStatus: req.Status.String(),
				event.KeyNewStatus:      next.String(),
				event.KeyPreviousRole:   prevRole.String(),
			}))
	}

	plan.Next = next
	return nil
}

func (d *Decider) updateValidated(items *itemSet, p Payload) error {
	if len(p.ValidatedQuantities) == 0 {
		return domainwf.Invalid("validated_quantities is required")
	}
	return items.setValidated(p.ValidatedQuantities)
}

// applyPricing writes issued quantities and unit prices, then recomputes the committed cost.
// Negative or non-finite issued quantities become 0; negative prices become unpriced.
func (d *Decider) applyPricing(plan *Plan, s *Snapshot, items *itemSet, actor entity.Actor, p Payload) error {
	if len(p.Pricing) == 0 {
		return domainwf.Invalid("pricing is required")
	}

	for _, line := range p.Pricing {
		it, err := items.get(line.ItemID)
		if err != nil {
			return err
		}

		issued := line.IssuedQty
		if !isQuantity(issued) || issued < 0 {
			issued = 0
		}
		it.IssuedQty = issued

		it.UnitPrice = nil
		if line.UnitPrice != nil && !line.UnitPrice.IsNegative() {
			price := *line.UnitPrice
			it.UnitPrice = &price
		}
		items.touch(line.ItemID)
	}

	req := plan.Request
	req.TotalCost = CommittedCost(items.all())
	req.CostCommittedAt = timePtr(s.Now)

	plan.History = append(plan.History, d.historyEntry(req.ID, actor, entity.HistoryActionPricing,
		req.Status, req.Status, fmt.Sprintf("total committed cost: %s", req.TotalCost.StringFixed(2)), s.Now))
	return nil
}

func isQuantity(q float64) bool {
	return !math.IsNaN(q) && !math.IsInf(q, 0)
}

func floatPtr(v float64) *float64 {
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
