package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/lribeiro-dev/go-auth-api/app/observability/metrics"
	"github.com/lribeiro-dev/go-auth-api/internal/api"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for user credential persistence.
type AuthRepo interface {
	// CreateUser inserts a new active user. A duplicate email is rejected
	// atomically by the unique constraint and surfaces as api.ErrConflict.
	CreateUser(ctx context.Context, email, passwordHash string, firstName, lastName *string) (*api.User, error)

	// GetUserByEmail returns the full record including the password hash.
	// Returns api.ErrNotFound if no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)

	// GetUserByID returns the full record by primary key.
	// Returns api.ErrNotFound if no such user exists.
	GetUserByID(ctx context.Context, userID uuid.UUID) (*api.User, error)

	// UpdateLastLogin sets last_login_at and returns the persisted timestamp.
	UpdateLastLogin(ctx context.Context, userID uuid.UUID) (time.Time, error)
}

// PGXQuerier is the subset of pgxpool.Pool the repository needs. Satisfied by
// *pgxpool.Pool in production and pgxmock in tests.
type PGXQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool PGXQuerier
}

func NewPostgresAuthRepo(pgpool PGXQuerier, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = "id, email, password_hash, first_name, last_name, is_active, last_login_at, created_at, updated_at"

func dbQueryAttrs(operation string) metric.MeasurementOption {
	return metric.WithAttributes(
		attribute.String("db.operation", operation),
		attribute.String("db.sql.table", "users"),
	)
}

func scanUser(row pgx.Row) (*api.User, error) {
	var u api.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.IsActive, &u.LastLoginAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PostgresAuthRepo) CreateUser(ctx context.Context, email, passwordHash string, firstName, lastName *string) (*api.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "INSERT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	l := r.logger.With(slog.String("method", "CreateUser"))
	start := time.Now()

	query := `INSERT INTO users (id, email, password_hash, first_name, last_name)
              VALUES ($1, $2, $3, $4, $5)
              RETURNING ` + userColumns

	user, err := scanUser(r.pgpool.QueryRow(ctx, query, uuid.New(), email, passwordHash, firstName, lastName))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		dbQueryAttrs("INSERT"))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique violation
			l.WarnContext(ctx, "Attempted to register duplicate email")
			span.SetStatus(codes.Error, "Duplicate email")
			return nil, fmt.Errorf("email already registered: %w", api.ErrConflict)
		}
		l.ErrorContext(ctx, "Failed to insert user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB INSERT failed")
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, dbQueryAttrs("INSERT"))
		return nil, fmt.Errorf("database error creating user: %w", err)
	}

	span.SetAttributes(attribute.String("db.user.id", user.ID.String()))
	return user, nil
}

func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByEmail", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
	))
	defer span.End()

	start := time.Now()
	query := "SELECT " + userColumns + " FROM users WHERE email = $1"
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, email))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		dbQueryAttrs("SELECT"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, api.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by email", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, dbQueryAttrs("SELECT"))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	return user, nil
}

func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID uuid.UUID) (*api.User, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "GetUserByID", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "SELECT"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	start := time.Now()
	query := "SELECT " + userColumns + " FROM users WHERE id = $1"
	user, err := scanUser(r.pgpool.QueryRow(ctx, query, userID))
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		dbQueryAttrs("SELECT"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			span.SetStatus(codes.Error, "User not found")
			return nil, api.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query user by id", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB SELECT failed")
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, dbQueryAttrs("SELECT"))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}

	return user, nil
}

func (r *PostgresAuthRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) (time.Time, error) {
	ctx, span := otel.Tracer("AuthRepo").Start(ctx, "UpdateLastLogin", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("db.operation", "UPDATE"),
		attribute.String("db.sql.table", "users"),
		attribute.String("db.user.id", userID.String()),
	))
	defer span.End()

	now := time.Now()
	start := now
	tag, err := r.pgpool.Exec(ctx,
		"UPDATE users SET last_login_at = $1, updated_at = $1 WHERE id = $2",
		now, userID)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
		dbQueryAttrs("UPDATE"))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update last login", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "DB UPDATE failed")
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1, dbQueryAttrs("UPDATE"))
		return time.Time{}, fmt.Errorf("database error updating last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		span.SetStatus(codes.Error, "User not found")
		return time.Time{}, api.ErrNotFound
	}

	return now, nil
}
