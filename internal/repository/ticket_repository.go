package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/escalation-service/internal/domain"
	"github.com/spec-kit/escalation-service/internal/policy"
)

// TicketFilter captures listing parameters. Scope carries the role-derived
// visibility predicate and is always applied.
type TicketFilter struct {
	Scope      policy.Scope
	Statuses   []domain.TicketStatus
	Priorities []domain.TicketPriority
	Limit      int
	Offset     int
}

// TicketRepository persists the ticket aggregate, embedded logs included.
// Save is an atomic upsert of the whole aggregate guarded by the version the
// caller loaded; a stale version yields ErrVersionConflict.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Save(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the postgres-backed repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	escalations, actionLogs, err := marshalLogs(ticket)
	if err != nil {
		return err
	}
	const query = `
        INSERT INTO tickets (id, title, description, category, priority, status, current_level, critical_value,
                             created_by, assigned_to, expected_completion_date, escalations, action_logs, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CurrentLevel,
		ticket.CriticalValue,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.ExpectedCompletionDate,
		escalations,
		actionLogs,
		ticket.Version,
	).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Save(ctx context.Context, ticket *domain.Ticket) error {
	escalations, actionLogs, err := marshalLogs(ticket)
	if err != nil {
		return err
	}
	const query = `
        UPDATE tickets SET title=$1, description=$2, category=$3, priority=$4, status=$5, current_level=$6,
            critical_value=$7, assigned_to=$8, expected_completion_date=$9, escalations=$10, action_logs=$11,
            version=version+1, updated_at=NOW()
        WHERE id=$12 AND version=$13
        RETURNING version, updated_at`
	err = r.pool.QueryRow(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CurrentLevel,
		ticket.CriticalValue,
		ticket.AssignedTo,
		ticket.ExpectedCompletionDate,
		escalations,
		actionLogs,
		ticket.ID,
		ticket.Version,
	).Scan(&ticket.Version, &ticket.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrVersionConflict
	}
	return err
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	const query = `
        SELECT id, title, description, category, priority, status, current_level, critical_value,
               created_by, assigned_to, expected_completion_date, escalations, action_logs,
               version, created_at, updated_at
        FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return ticket, err
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := `SELECT id, title, description, category, priority, status, current_level, critical_value,
                    created_by, assigned_to, expected_completion_date, escalations, action_logs,
                    version, created_at, updated_at
             FROM tickets`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.Scope.CreatedBy != nil {
		args = append(args, *filter.Scope.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if len(filter.Scope.Levels) > 0 {
		placeholders := make([]string, len(filter.Scope.Levels))
		for i, level := range filter.Scope.Levels {
			args = append(args, level)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("current_level IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Scope.Criticalities) > 0 {
		placeholders := make([]string, len(filter.Scope.Criticalities))
		for i, crit := range filter.Scope.Criticalities {
			args = append(args, crit)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("critical_value IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		escalations []byte
		actionLogs  []byte
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CurrentLevel,
		&ticket.CriticalValue,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.ExpectedCompletionDate,
		&escalations,
		&actionLogs,
		&ticket.Version,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if len(escalations) > 0 {
		if err := json.Unmarshal(escalations, &ticket.Escalations); err != nil {
			return nil, fmt.Errorf("decode escalations: %w", err)
		}
	}
	if len(actionLogs) > 0 {
		if err := json.Unmarshal(actionLogs, &ticket.ActionLogs); err != nil {
			return nil, fmt.Errorf("decode action logs: %w", err)
		}
	}
	return &ticket, nil
}

func marshalLogs(ticket *domain.Ticket) ([]byte, []byte, error) {
	escalations, err := json.Marshal(ticket.Escalations)
	if err != nil {
		return nil, nil, fmt.Errorf("encode escalations: %w", err)
	}
	actionLogs, err := json.Marshal(ticket.ActionLogs)
	if err != nil {
		return nil, nil, fmt.Errorf("encode action logs: %w", err)
	}
	return escalations, actionLogs, nil
}
