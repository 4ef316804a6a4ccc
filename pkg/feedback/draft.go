// Package feedback models the in-progress feedback form: client selection,
// lead classification, product line items, notes and an optional audio
// reference, plus the submission state machine around it.
package feedback

import (
	"context"
	"errors"
	"sync"

	"fieldops/sales-crm/pkg/uploader"
)

// Lead classifies inquiry priority. Opaque to this package beyond the
// fixed value set.
type Lead string

const (
	LeadHot  Lead = "hot"
	LeadWarm Lead = "warm"
	LeadCold Lead = "cold"
)

// SubmitState tracks the draft through submission.
type SubmitState int

const (
	StateDraft SubmitState = iota
	StateSubmitting
	StateSubmitted
	StateFailed
)

// LineItem is one (product, quantity) row on the form.
type LineItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

// Payload is the assembled submission body.
type Payload struct {
	ClientID string                     `json:"client"`
	Lead     Lead                       `json:"lead"`
	Products []LineItem                 `json:"products"`
	Notes    string                     `json:"notes,omitempty"`
	Audio    *uploader.StorageReference `json:"audio,omitempty"`
}

// Submitter persists feedback records. Implemented by the API client.
type Submitter interface {
	CreateFeedback(ctx context.Context, payload Payload) error
	UpdateFeedback(ctx context.Context, id string, payload Payload) error
}

var (
	// ErrInvalidQuantity rejects line items below one unit.
	ErrInvalidQuantity = errors.New("feedback: quantity must be at least 1")
	// ErrNotSubmittable means validation failed or an upload is in flight.
	ErrNotSubmittable = errors.New("feedback: draft is not submittable")
	// ErrSubmitting means a submission is already running.
	ErrSubmitting = errors.New("feedback: submission already in progress")
)

// Draft is the form state for creating or editing one feedback record.
// The zero value is not usable; construct with NewDraft or NewEditDraft.
type Draft struct {
	submitter Submitter
	pipe      *uploader.Pipeline
	editID    string // non-empty when editing an existing record

	mu       sync.Mutex
	clientID string
	lead     Lead
	items    []LineItem
	notes    string
	state    SubmitState
	lastErr  error
}

// NewDraft opens a creation form.
func NewDraft(submitter Submitter, pipe *uploader.Pipeline) *Draft {
	return &Draft{submitter: submitter, pipe: pipe, lead: LeadWarm}
}

// NewEditDraft opens an edit form for an existing record.
func NewEditDraft(id string, submitter Submitter, pipe *uploader.Pipeline) *Draft {
	d := NewDraft(submitter, pipe)
	d.editID = id
	return d
}

func (d *Draft) SetClient(clientID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clientID = clientID
}

func (d *Draft) SetLead(lead Lead) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lead = lead
}

func (d *Draft) SetNotes(notes string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notes = notes
}

// AddItem appends a product line item. Quantities below 1 are rejected.
func (d *Draft) AddItem(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.items = append(d.items, LineItem{ProductID: productID, Quantity: quantity})
	return nil
}

// RemoveItem deletes the line item at index i, preserving order.
func (d *Draft) RemoveItem(i int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.items) {
		return
	}
	d.items = append(d.items[:i], d.items[i+1:]...)
}

// State returns the submission state.
func (d *Draft) State() SubmitState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Err returns the last submission failure, if any.
func (d *Draft) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// CanSubmit reports whether the draft is valid and the audio pipeline is
// settled. An upload in flight (or a staged-but-unuploaded blob) blocks
// submission.
func (d *Draft) CanSubmit() bool {
	d.mu.Lock()
	ok := d.clientID != "" && len(d.items) > 0 && d.state != StateSubmitting
	for _, it := range d.items {
		if it.Quantity < 1 {
			ok = false
		}
	}
	d.mu.Unlock()

	if !ok {
		return false
	}
	if d.pipe != nil && !d.pipe.Settled() {
		return false
	}
	return true
}

// Payload assembles the submission body, embedding the resolved audio
// reference if one exists.
func (d *Draft) Payload() Payload {
	d.mu.Lock()
	items := make([]LineItem, len(d.items))
	copy(items, d.items)
	p := Payload{
		ClientID: d.clientID,
		Lead:     d.lead,
		Products: items,
		Notes:    d.notes,
	}
	d.mu.Unlock()

	if d.pipe != nil {
		p.Audio = d.pipe.Reference()
	}
	return p
}

// Submit sends the draft to the feedback service. On failure the draft is
// retained with the error surfaced through Err; nothing is retried
// automatically.
func (d *Draft) Submit(ctx context.Context) error {
	if !d.CanSubmit() {
		d.mu.Lock()
		if d.state == StateSubmitting {
			d.mu.Unlock()
			return ErrSubmitting
		}
		d.mu.Unlock()
		return ErrNotSubmittable
	}

	d.mu.Lock()
	d.state = StateSubmitting
	d.lastErr = nil
	d.mu.Unlock()

	payload := d.Payload()

	var err error
	if d.editID != "" {
		err = d.submitter.UpdateFeedback(ctx, d.editID, payload)
	} else {
		err = d.submitter.CreateFeedback(ctx, payload)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.state = StateFailed
		d.lastErr = err
		return err
	}
	d.state = StateSubmitted
	return nil
}
