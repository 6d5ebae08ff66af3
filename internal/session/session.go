// Package session holds the donation flow state that survives between steps:
// the frozen record of the completed payment and the page the donor came
// from. Core logic receives the session explicitly; nothing reads ambient
// request state.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// Session is the flow context threaded through the donation steps. The
// upsell, newsletter and thank-you steps all key off CompletedTransaction;
// when it is nil they redirect the donor back to the entry point.
type Session struct {
	ID                   string                              `json:"id"`
	CompletedTransaction *domain.CompletedTransactionDetails `json:"completed_transaction_details,omitempty"`
	SourcePageID         int64                               `json:"source_page_id,omitempty"`
	CreatedAt            time.Time                           `json:"created_at"`
}

// New returns an empty session with a fresh id.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// RecordCompletedTransaction freezes the details into the session, replacing
// any previous record wholesale. A successful upsell therefore leaves only
// the monthly record behind; records are never merged.
func (s *Session) RecordCompletedTransaction(details *domain.CompletedTransactionDetails) {
	s.CompletedTransaction = Freeze(details)
	s.SourcePageID = details.SourcePageID
}

// Freeze deep-copies a completed-transaction record so later mutation of the
// source cannot alter what the session holds.
func Freeze(details *domain.CompletedTransactionDetails) *domain.CompletedTransactionDetails {
	if details == nil {
		return nil
	}
	frozen := *details
	if details.SettlementAmount != nil {
		settlement := details.SettlementAmount.Copy()
		frozen.SettlementAmount = &settlement
	}
	if details.Address != nil {
		addr := *details.Address
		frozen.Address = &addr
	}
	return &frozen
}

// Store persists sessions by id.
type Store interface {
	// Load returns the session for id, or domain.ErrSessionNotFound.
	Load(ctx context.Context, id string) (*Session, error)

	// Save writes the session and refreshes its TTL.
	Save(ctx context.Context, sess *Session) error

	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
