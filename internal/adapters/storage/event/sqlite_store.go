package event

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"felicity/internal/adapters/storage"
	domain "felicity/internal/domain/event"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

const eventColumns = `id, name, description, type, organizer_id, eligibility, venue,
	registration_deadline, start_date, end_date, registration_limit, registration_fee,
	registration_count, status, team_size, custom_form_fields, custom_form_locked,
	merch_item_name, merch_description, merch_purchase_limit, merch_total_stock,
	revenue, attendance, created_at`

// GetByID retrieves an Event, including its variants and custom form.
// PRE: id is non-empty
// POST: Returns the entity or ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+eventColumns+" FROM event WHERE id = ?", id)

	var e domain.Event
	var deadline, start, end, createdAt string
	var formFields, merchItem, merchDesc sql.NullString
	var formLocked int
	var merchPurchaseLimit, merchTotalStock int
	err := row.Scan(
		&e.ID, &e.Name, &e.Description, &e.Type, &e.OrganizerID, &e.Eligibility, &e.Venue,
		&deadline, &start, &end, &e.RegistrationLimit, &e.RegistrationFee,
		&e.RegistrationCount, &e.Status, &e.TeamSize, &formFields, &formLocked,
		&merchItem, &merchDesc, &merchPurchaseLimit, &merchTotalStock,
		&e.Revenue, &e.Attendance, &createdAt,
	)
	if err == sql.ErrNoRows {
		return domain.Event{}, ErrNotFound
	}
	if err != nil {
		return domain.Event{}, err
	}

	if e.RegistrationDeadline, err = storage.ParseTime(deadline); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse registration_deadline: %w", err)
	}
	if e.StartDate, err = storage.ParseTime(start); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse start_date: %w", err)
	}
	if e.EndDate, err = storage.ParseTime(end); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse end_date: %w", err)
	}
	if e.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Event{}, fmt.Errorf("failed to parse created_at: %w", err)
	}

	if formFields.Valid {
		var fields []domain.FormField
		if err := json.Unmarshal([]byte(formFields.String), &fields); err != nil {
			return domain.Event{}, fmt.Errorf("failed to decode custom form: %w", err)
		}
		e.CustomForm = &domain.CustomForm{Fields: fields, Locked: formLocked == 1}
	}

	if e.Type == domain.TypeMerchandise {
		variants, err := s.listVariants(ctx, id)
		if err != nil {
			return domain.Event{}, err
		}
		e.Merchandise = &domain.Merchandise{
			ItemName:      merchItem.String,
			Description:   merchDesc.String,
			Variants:      variants,
			PurchaseLimit: merchPurchaseLimit,
			TotalStock:    merchTotalStock,
		}
	}
	return e, nil
}

func (s *SQLiteStore) listVariants(ctx context.Context, eventID string) ([]domain.Variant, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT size, color, stock_quantity, price FROM event_variant WHERE event_id = ? ORDER BY size, color",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []domain.Variant
	for rows.Next() {
		var v domain.Variant
		if err := rows.Scan(&v.Size, &v.Color, &v.StockQuantity, &v.Price); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// Save persists an Event and its variants.
// PRE: entity has been validated
// POST: Entity is persisted (insert or update)
func (s *SQLiteStore) Save(ctx context.Context, e domain.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var formFields any
	var formLocked int
	if e.CustomForm != nil {
		encoded, err := json.Marshal(e.CustomForm.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode custom form: %w", err)
		}
		formFields = string(encoded)
		if e.CustomForm.Locked {
			formLocked = 1
		}
	}

	var merchItem, merchDesc any
	merchPurchaseLimit := 1
	merchTotalStock := 0
	if e.Merchandise != nil {
		merchItem = e.Merchandise.ItemName
		merchDesc = e.Merchandise.Description
		merchPurchaseLimit = e.Merchandise.PurchaseLimit
		merchTotalStock = e.Merchandise.TotalStock
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO event (`+eventColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name=excluded.name, description=excluded.description,
			eligibility=excluded.eligibility, venue=excluded.venue,
			registration_deadline=excluded.registration_deadline,
			start_date=excluded.start_date, end_date=excluded.end_date,
			registration_limit=excluded.registration_limit,
			registration_fee=excluded.registration_fee,
			status=excluded.status, team_size=excluded.team_size,
			custom_form_fields=excluded.custom_form_fields,
			custom_form_locked=excluded.custom_form_locked,
			merch_item_name=excluded.merch_item_name,
			merch_description=excluded.merch_description,
			merch_purchase_limit=excluded.merch_purchase_limit,
			merch_total_stock=excluded.merch_total_stock`,
		e.ID, e.Name, e.Description, e.Type, e.OrganizerID, e.Eligibility, e.Venue,
		storage.FormatTime(e.RegistrationDeadline), storage.FormatTime(e.StartDate),
		storage.FormatTime(e.EndDate), e.RegistrationLimit, e.RegistrationFee,
		e.RegistrationCount, e.Status, e.TeamSize, formFields, formLocked,
		merchItem, merchDesc, merchPurchaseLimit, merchTotalStock,
		e.Revenue, e.Attendance, storage.FormatTime(e.CreatedAt),
	)
	if err != nil {
		return err
	}

	if e.Merchandise != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM event_variant WHERE event_id = ?", e.ID); err != nil {
			return err
		}
		for _, v := range e.Merchandise.Variants {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO event_variant (event_id, size, color, stock_quantity, price) VALUES (?, ?, ?, ?, ?)",
				e.ID, v.Size, v.Color, v.StockQuantity, v.Price)
			if err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

// ListIDsByOrganizer returns the IDs of all events owned by an organizer.
func (s *SQLiteStore) ListIDsByOrganizer(ctx context.Context, organizerID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id FROM event WHERE organizer_id = ?", organizerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ApproveOrderInventory is the inventory gate. The variant decrement is
// conditional on remaining stock, so two approvals racing on the same
// variant can never jointly overdraw it: the loser matches no row and the
// whole transaction is rolled back.
// POST: On success, stock, counters, and the registration are all updated;
// on failure nothing is changed.
func (s *SQLiteStore) ApproveOrderInventory(ctx context.Context, p ApproveOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE event_variant SET stock_quantity = stock_quantity - ?
		WHERE event_id = ? AND size = ? AND color = ? AND stock_quantity >= ?`,
		p.Quantity, p.EventID, p.Size, p.Color, p.Quantity)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrInsufficientStock
	}

	if err := applyRegistrationDelta(ctx, tx, p.EventID, 1, p.Revenue); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE event SET merch_total_stock = merch_total_stock - ? WHERE id = ?",
		p.Quantity, p.EventID); err != nil {
		return err
	}

	res, err = tx.ExecContext(ctx, `
		UPDATE registration SET status = 'Confirmed', payment_status = 'Completed',
			ticket_id = ?, qr_code = ?
		WHERE id = ? AND status = 'Pending'`,
		p.TicketID, p.QRCode, p.RegistrationID)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrTicketCollision
		}
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrOrderNotPending
	}
	return tx.Commit()
}

// IncrementRegistrations applies one batch counter increment.
func (s *SQLiteStore) IncrementRegistrations(ctx context.Context, eventID string, count, revenue int) error {
	if count == 0 && revenue == 0 {
		return nil
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE event SET registration_count = registration_count + ?, revenue = revenue + ? WHERE id = ?",
		count, revenue, eventID)
	return err
}

// SaveCustomForm replaces the form definition; refused when locked.
func (s *SQLiteStore) SaveCustomForm(ctx context.Context, eventID string, form domain.CustomForm) error {
	encoded, err := json.Marshal(form.Fields)
	if err != nil {
		return fmt.Errorf("failed to encode custom form: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE event SET custom_form_fields = ? WHERE id = ? AND custom_form_locked = 0",
		string(encoded), eventID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either absent or locked; disambiguate for the caller.
		var locked int
		err := s.db.QueryRowContext(ctx, "SELECT custom_form_locked FROM event WHERE id = ?", eventID).Scan(&locked)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return ErrFormLocked
	}
	return nil
}

// applyRegistrationDelta is the single statement that moves the
// registration count and revenue counters. The capacity invariant is guarded
// here: an increment that would exceed the limit matches no row.
func applyRegistrationDelta(ctx context.Context, tx *sql.Tx, eventID string, count, revenue int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE event SET registration_count = registration_count + ?, revenue = revenue + ?
		WHERE id = ? AND registration_count + ? <= registration_limit`,
		count, revenue, eventID, count)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCapacityExceeded
	}
	return nil
}

// RegistrationTx exposes the counter delta for sibling stores that create
// registrations inside their own transactions, keeping counter mutation in
// one place.
func RegistrationTx(ctx context.Context, tx *sql.Tx, eventID string, count, revenue int) error {
	return applyRegistrationDelta(ctx, tx, eventID, count, revenue)
}

// AttendanceTx increments the attendance counter by exactly one inside the
// caller's transaction.
func AttendanceTx(ctx context.Context, tx *sql.Tx, eventID string) error {
	_, err := tx.ExecContext(ctx, "UPDATE event SET attendance = attendance + 1 WHERE id = ?", eventID)
	return err
}
