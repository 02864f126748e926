package database

import (
	"context"
	"errors"
	"fmt"
	"projtrack/models"

	"github.com/jackc/pgx/v5"
)

const userColumns = `id, username, password_hash, is_staff, is_active, date_joined`

func (db *DB) GetUser(ctx context.Context, userID int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// CreateUser stores an already-hashed password; hashing belongs to the auth package.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, isStaff bool) (*models.User, error) {
	query := `
		INSERT INTO users (username, password_hash, is_staff)
		VALUES ($1, $2, $3)
		RETURNING ` + userColumns

	user, err := scanUser(db.Pool.QueryRow(ctx, query, username, passwordHash, isStaff))
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	db.log.WithField("user_id", user.ID).Infof("Created user: %s", user.Username)
	return user, nil
}

func (db *DB) SetUserStaff(ctx context.Context, username string, isStaff bool) (*models.User, error) {
	query := `
		UPDATE users SET is_staff = $2
		WHERE username = $1
		RETURNING ` + userColumns

	user, err := scanUser(db.Pool.QueryRow(ctx, query, username, isStaff))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

func (db *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY username`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}

// DeleteUser removes a user. Their assignments are cleared and the projects
// they created are removed by the foreign keys.
func (db *DB) DeleteUser(ctx context.Context, userID int64) error {
	result, err := db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.IsStaff,
		&user.IsActive,
		&user.DateJoined,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
