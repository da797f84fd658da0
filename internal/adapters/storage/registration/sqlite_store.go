package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"felicity/internal/adapters/storage"
	eventStore "felicity/internal/adapters/storage/event"
	domain "felicity/internal/domain/registration"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new registration store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

const regColumns = `id, event_id, participant_id, status, payment_status, amount_paid,
	ticket_id, qr_code, form_responses, order_size, order_color, order_quantity,
	order_total, payment_proof_ref, rejection_reason, attended, attendance_marked_at,
	registered_at`

// GetByID retrieves a Registration by its ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+regColumns+" FROM registration WHERE id = ?", id)
	return scanRegistration(row)
}

// GetByTicketID resolves a Registration by its ticket identifier.
func (s *SQLiteStore) GetByTicketID(ctx context.Context, ticketID string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+regColumns+" FROM registration WHERE ticket_id = ?", ticketID)
	return scanRegistration(row)
}

// GetByEventAndParticipant returns the registration for a pair, or ErrNotFound.
func (s *SQLiteStore) GetByEventAndParticipant(ctx context.Context, eventID, participantID string) (domain.Registration, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE event_id = ? AND participant_id = ?",
		eventID, participantID)
	return scanRegistration(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (domain.Registration, error) {
	var r domain.Registration
	var ticketID, qrCode, formResponses, orderSize, orderColor sql.NullString
	var proofRef, rejectionReason, markedAt sql.NullString
	var orderQuantity, orderTotal sql.NullInt64
	var attended int
	var registeredAt string

	err := row.Scan(
		&r.ID, &r.EventID, &r.ParticipantID, &r.Status, &r.PaymentStatus, &r.AmountPaid,
		&ticketID, &qrCode, &formResponses, &orderSize, &orderColor, &orderQuantity,
		&orderTotal, &proofRef, &rejectionReason, &attended, &markedAt, &registeredAt,
	)
	if err == sql.ErrNoRows {
		return domain.Registration{}, ErrNotFound
	}
	if err != nil {
		return domain.Registration{}, err
	}

	r.TicketID = ticketID.String
	r.QRCode = qrCode.String
	r.PaymentProofRef = proofRef.String
	r.RejectionReason = rejectionReason.String
	r.Attended = attended == 1

	if formResponses.Valid && formResponses.String != "" {
		if err := json.Unmarshal([]byte(formResponses.String), &r.FormResponses); err != nil {
			return domain.Registration{}, fmt.Errorf("failed to decode form responses: %w", err)
		}
	}
	if orderQuantity.Valid {
		r.Order = &domain.Order{
			Size:        orderSize.String,
			Color:       orderColor.String,
			Quantity:    int(orderQuantity.Int64),
			TotalAmount: int(orderTotal.Int64),
		}
	}
	if markedAt.Valid {
		if r.AttendanceMarkedAt, err = storage.ParseTime(markedAt.String); err != nil {
			return domain.Registration{}, fmt.Errorf("failed to parse attendance_marked_at: %w", err)
		}
	}
	if r.RegisteredAt, err = storage.ParseTime(registeredAt); err != nil {
		return domain.Registration{}, fmt.Errorf("failed to parse registered_at: %w", err)
	}
	return r, nil
}

func insertArgs(r domain.Registration) ([]any, error) {
	var formResponses any
	if len(r.FormResponses) > 0 {
		encoded, err := json.Marshal(r.FormResponses)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form responses: %w", err)
		}
		formResponses = string(encoded)
	}

	var ticketID, qrCode, orderSize, orderColor, proofRef, rejectionReason, markedAt any
	var orderQuantity, orderTotal any
	if r.TicketID != "" {
		ticketID = r.TicketID
	}
	if r.QRCode != "" {
		qrCode = r.QRCode
	}
	if r.Order != nil {
		orderSize = r.Order.Size
		orderColor = r.Order.Color
		orderQuantity = r.Order.Quantity
		orderTotal = r.Order.TotalAmount
	}
	if r.PaymentProofRef != "" {
		proofRef = r.PaymentProofRef
	}
	if r.RejectionReason != "" {
		rejectionReason = r.RejectionReason
	}
	if !r.AttendanceMarkedAt.IsZero() {
		markedAt = storage.FormatTime(r.AttendanceMarkedAt)
	}
	attended := 0
	if r.Attended {
		attended = 1
	}

	return []any{
		r.ID, r.EventID, r.ParticipantID, r.Status, r.PaymentStatus, r.AmountPaid,
		ticketID, qrCode, formResponses, orderSize, orderColor, orderQuantity,
		orderTotal, proofRef, rejectionReason, attended, markedAt,
		storage.FormatTime(r.RegisteredAt),
	}, nil
}

const insertRegistration = `INSERT INTO registration (` + regColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// mapInsertErr translates unique-index violations into sentinels: the
// (event, participant) pair index enforces at-most-one registration, the
// ticket_id index makes an ID collision a retryable failure instead of an
// overwrite.
func mapInsertErr(err error) error {
	if err == nil || !storage.IsUniqueViolation(err) {
		return err
	}
	if strings.Contains(err.Error(), "ticket_id") {
		return ErrTicketCollision
	}
	return ErrDuplicate
}

// Create inserts a registration row without touching event counters.
func (s *SQLiteStore) Create(ctx context.Context, r domain.Registration) error {
	args, err := insertArgs(r)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, insertRegistration, args...)
	return mapInsertErr(err)
}

// CreateCounted inserts a Confirmed registration and moves the event
// counters in one transaction. Capacity is guarded inside the counter
// update itself, so two registrations racing for the last slot cannot both
// commit.
// POST: On success the row exists and counters reflect it; on failure
// nothing is changed.
func (s *SQLiteStore) CreateCounted(ctx context.Context, r domain.Registration, lockForm bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	args, err := insertArgs(r)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, insertRegistration, args...); err != nil {
		return mapInsertErr(err)
	}

	if err := eventStore.RegistrationTx(ctx, tx, r.EventID, 1, r.AmountPaid); err != nil {
		if err == eventStore.ErrCapacityExceeded {
			return ErrCapacity
		}
		return err
	}

	if lockForm {
		// One-way flag: the form cannot change shape once collection began.
		if _, err := tx.ExecContext(ctx,
			"UPDATE event SET custom_form_locked = 1 WHERE id = ?", r.EventID); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// SumOrderedQuantity totals non-rejected order quantities for the pair.
func (s *SQLiteStore) SumOrderedQuantity(ctx context.Context, eventID, participantID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT SUM(order_quantity) FROM registration
		WHERE event_id = ? AND participant_id = ? AND status != 'Rejected'`,
		eventID, participantID).Scan(&total)
	if err != nil {
		return 0, err
	}
	return int(total.Int64), nil
}

// Reject transitions Pending -> Rejected and records the reason.
func (s *SQLiteStore) Reject(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE registration SET status = 'Rejected', payment_status = 'Failed', rejection_reason = ?
		WHERE id = ? AND status = 'Pending'`,
		reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := s.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrNotPending
	}
	return nil
}

// MarkAttended flips the attended flag exactly once. The conditional update
// makes a duplicate scan observable without a read-check-then-write race:
// only the call that actually flips the flag increments the attendance
// counter.
func (s *SQLiteStore) MarkAttended(ctx context.Context, id string, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE registration SET attended = 1, attendance_marked_at = ?
		WHERE id = ? AND attended = 0`,
		storage.FormatTime(at), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// Already marked; nothing to commit.
		return false, nil
	}

	var eventID string
	if err := tx.QueryRowContext(ctx, "SELECT event_id FROM registration WHERE id = ?", id).Scan(&eventID); err != nil {
		return false, err
	}
	if err := eventStore.AttendanceTx(ctx, tx, eventID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

// ListByParticipant returns all registrations for a participant, newest first.
func (s *SQLiteStore) ListByParticipant(ctx context.Context, participantID string) ([]domain.Registration, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE participant_id = ? ORDER BY registered_at DESC",
		participantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

// ListPendingByEventIDs returns Pending registrations across a set of
// events, newest first.
func (s *SQLiteStore) ListPendingByEventIDs(ctx context.Context, eventIDs []string) ([]domain.Registration, error) {
	if len(eventIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.Repeat("?, ", len(eventIDs)-1) + "?"
	args := make([]any, len(eventIDs))
	for i, id := range eventIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+regColumns+" FROM registration WHERE status = 'Pending' AND event_id IN ("+placeholders+") ORDER BY registered_at DESC",
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRegistrations(rows)
}

func collectRegistrations(rows *sql.Rows) ([]domain.Registration, error) {
	var regs []domain.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, r)
	}
	return regs, rows.Err()
}
