package team

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"felicity/internal/adapters/storage"
	domain "felicity/internal/domain/team"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new team store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

var _ Store = (*SQLiteStore)(nil)

// GetByID retrieves a Team with its members in join order.
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Team, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, event_id, leader_id, name, size, join_code, status, created_at FROM team WHERE id = ?", id)
	t, err := scanTeam(row)
	if err != nil {
		return domain.Team{}, err
	}
	if t.MemberIDs, err = s.listMemberIDs(ctx, id); err != nil {
		return domain.Team{}, err
	}
	return t, nil
}

func scanTeam(row *sql.Row) (domain.Team, error) {
	var t domain.Team
	var createdAt string
	err := row.Scan(&t.ID, &t.EventID, &t.LeaderID, &t.Name, &t.Size, &t.JoinCode, &t.Status, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Team{}, ErrNotFound
	}
	if err != nil {
		return domain.Team{}, err
	}
	if t.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
		return domain.Team{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	return t, nil
}

func (s *SQLiteStore) listMemberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT participant_id FROM team_member WHERE team_id = ? ORDER BY position", teamID)
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

// Create inserts the team and its initial members (the leader) in one
// transaction.
// PRE: entity has been validated
func (s *SQLiteStore) Create(ctx context.Context, t domain.Team) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO team (id, event_id, leader_id, name, size, join_code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.EventID, t.LeaderID, t.Name, t.Size, t.JoinCode, t.Status,
		storage.FormatTime(t.CreatedAt))
	if err != nil {
		return err
	}
	for i, memberID := range t.MemberIDs {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO team_member (team_id, participant_id, position, joined_at) VALUES (?, ?, ?, ?)",
			t.ID, memberID, i, storage.FormatTime(t.CreatedAt))
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ListByEvent returns all teams for an event with their members.
func (s *SQLiteStore) ListByEvent(ctx context.Context, eventID string) ([]domain.Team, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, event_id, leader_id, name, size, join_code, status, created_at FROM team WHERE event_id = ? ORDER BY created_at",
		eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		var createdAt string
		if err := rows.Scan(&t.ID, &t.EventID, &t.LeaderID, &t.Name, &t.Size, &t.JoinCode, &t.Status, &createdAt); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = storage.ParseTime(createdAt); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range teams {
		if teams[i].MemberIDs, err = s.listMemberIDs(ctx, teams[i].ID); err != nil {
			return nil, err
		}
	}
	return teams, nil
}

// AddMember appends a participant and detects quorum in one transaction.
// The Forming -> Complete flip is guarded on the current status, so with
// two racing final acceptances exactly one caller observes completed=true.
func (s *SQLiteStore) AddMember(ctx context.Context, teamID, participantID string, at time.Time) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var size int
	var status string
	err = tx.QueryRowContext(ctx, "SELECT size, status FROM team WHERE id = ?", teamID).Scan(&size, &status)
	if err == sql.ErrNoRows {
		return false, ErrNotFound
	}
	if err != nil {
		return false, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM team_member WHERE team_id = ?", teamID).Scan(&count); err != nil {
		return false, err
	}
	if count >= size || status != domain.StatusForming {
		return false, ErrTeamFull
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO team_member (team_id, participant_id, position, joined_at) VALUES (?, ?, ?, ?)",
		teamID, participantID, count, storage.FormatTime(at))
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return false, ErrAlreadyMember
		}
		return false, err
	}

	completed := false
	if count+1 == size {
		res, err := tx.ExecContext(ctx,
			"UPDATE team SET status = ? WHERE id = ? AND status = ?",
			domain.StatusComplete, teamID, domain.StatusForming)
		if err != nil {
			return false, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return false, err
		}
		completed = n == 1
	}
	return completed, tx.Commit()
}

// CreateInvite persists a Pending invite.
func (s *SQLiteStore) CreateInvite(ctx context.Context, inv domain.Invite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_invite (id, team_id, invited_email, code, status, invited_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		inv.ID, inv.TeamID, inv.InvitedEmail, inv.Code, inv.Status,
		storage.FormatTime(inv.InvitedAt))
	return err
}

// GetInviteByCode resolves an invite by its single-use code.
func (s *SQLiteStore) GetInviteByCode(ctx context.Context, code string) (domain.Invite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, team_id, invited_email, code, status, invited_at, accepted_by, accepted_at
		FROM team_invite WHERE code = ?`, code)
	return scanInvite(row)
}

func scanInvite(row *sql.Row) (domain.Invite, error) {
	var inv domain.Invite
	var invitedAt string
	var acceptedBy, acceptedAt sql.NullString
	err := row.Scan(&inv.ID, &inv.TeamID, &inv.InvitedEmail, &inv.Code, &inv.Status,
		&invitedAt, &acceptedBy, &acceptedAt)
	if err == sql.ErrNoRows {
		return domain.Invite{}, ErrInviteNotFound
	}
	if err != nil {
		return domain.Invite{}, err
	}
	inv.AcceptedBy = acceptedBy.String
	if inv.InvitedAt, err = storage.ParseTime(invitedAt); err != nil {
		return domain.Invite{}, fmt.Errorf("failed to parse invited_at: %w", err)
	}
	if acceptedAt.Valid {
		if inv.AcceptedAt, err = storage.ParseTime(acceptedAt.String); err != nil {
			return domain.Invite{}, fmt.Errorf("failed to parse accepted_at: %w", err)
		}
	}
	return inv, nil
}

// ListInvitesByTeam returns all invites for a team, oldest first.
func (s *SQLiteStore) ListInvitesByTeam(ctx context.Context, teamID string) ([]domain.Invite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, invited_email, code, status, invited_at, accepted_by, accepted_at
		FROM team_invite WHERE team_id = ? ORDER BY invited_at`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []domain.Invite
	for rows.Next() {
		var inv domain.Invite
		var invitedAt string
		var acceptedBy, acceptedAt sql.NullString
		if err := rows.Scan(&inv.ID, &inv.TeamID, &inv.InvitedEmail, &inv.Code, &inv.Status,
			&invitedAt, &acceptedBy, &acceptedAt); err != nil {
			return nil, err
		}
		inv.AcceptedBy = acceptedBy.String
		if inv.InvitedAt, err = storage.ParseTime(invitedAt); err != nil {
			return nil, fmt.Errorf("failed to parse invited_at: %w", err)
		}
		if acceptedAt.Valid {
			if inv.AcceptedAt, err = storage.ParseTime(acceptedAt.String); err != nil {
				return nil, fmt.Errorf("failed to parse accepted_at: %w", err)
			}
		}
		invites = append(invites, inv)
	}
	return invites, rows.Err()
}

// AcceptInvite consumes the code: the conditional update leaves Pending
// exactly once, so a second acceptance of the same code fails.
func (s *SQLiteStore) AcceptInvite(ctx context.Context, inviteID, participantID string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE team_invite SET status = ?, accepted_by = ?, accepted_at = ?
		WHERE id = ? AND status = ?`,
		domain.InviteStatusAccepted, participantID, storage.FormatTime(at),
		inviteID, domain.InviteStatusPending)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInviteProcessed
	}
	return nil
}
