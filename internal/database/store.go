package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrAlreadyExists is returned when creating a row whose id is taken.
var ErrAlreadyExists = errors.New("record already exists")

const maxRecentLimit = 100

// Store defines the persistence operations used by the service.
// Lookups return nil, nil when the row does not exist.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	GetCreator(ctx context.Context, id string) (*Creator, error)
	ListCreators(ctx context.Context) ([]Creator, error)
	CreateCreator(ctx context.Context, creator *Creator) error
	UpdateCreator(ctx context.Context, id string, update CreatorUpdate) (*Creator, error)

	GetFan(ctx context.Context, id string) (*Fan, error)
	ListFans(ctx context.Context) ([]Fan, error)
	CreateFan(ctx context.Context, fan *Fan) error
	UpdateFan(ctx context.Context, id string, update FanUpdate) (*Fan, error)

	GetSystemPrompt(ctx context.Context, id string) (*SystemPrompt, error)
	ListSystemPrompts(ctx context.Context) ([]SystemPrompt, error)
	CreateSystemPrompt(ctx context.Context, prompt *SystemPrompt) error
	UpdateSystemPrompt(ctx context.Context, id string, update SystemPromptUpdate) (*SystemPrompt, error)

	// SaveChatMessage inserts a message, assigning an id and timestamp when unset.
	SaveChatMessage(ctx context.Context, message *ChatMessage) error

	// GetRecentChatMessages returns up to limit messages for the pair, newest first.
	GetRecentChatMessages(ctx context.Context, creatorID, fanID string, limit int) ([]ChatMessage, error)

	// GetChatHistory returns every message for the pair, oldest first.
	GetChatHistory(ctx context.Context, creatorID, fanID string) ([]ChatMessage, error)

	// DeleteChatMessagesBefore removes messages created before cutoff and
	// returns how many were deleted.
	DeleteChatMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a Store backed by a connected sqlx.DB.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success.
func (s *sqlxStore) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
			s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// getOne loads a single row into dest, reporting false when it does not exist.
func getOne(ctx context.Context, q sqlx.QueryerContext, dest any, query string, args ...any) (bool, error) {
	err := sqlx.GetContext(ctx, q, dest, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// --- Creators ---

const creatorColumns = `id, name, niches, persona, emojis_enabled, emojis_used, nsfw, created_at, updated_at`

func (s *sqlxStore) GetCreator(ctx context.Context, id string) (*Creator, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var creator Creator
	found, err := getOne(ctx, s.db, &creator, `SELECT `+creatorColumns+` FROM creators WHERE id = ?`, id)
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching creator", "creator_id", id, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting creator", "creator_id", id, "error", err)
		return nil, fmt.Errorf("failed to get creator %s: %w", id, err)
	case !found:
		s.logger.DebugContext(ctx, "No creator found", "creator_id", id)
		return nil, nil
	}
	return &creator, nil
}

func (s *sqlxStore) ListCreators(ctx context.Context) ([]Creator, error) {
	creators := []Creator{}
	if err := s.db.SelectContext(ctx, &creators, `SELECT `+creatorColumns+` FROM creators ORDER BY created_at, id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing creators", "error", err)
		return nil, fmt.Errorf("failed to list creators: %w", err)
	}
	return creators, nil
}

func (s *sqlxStore) CreateCreator(ctx context.Context, creator *Creator) error {
	if creator == nil {
		return errors.New("cannot save nil creator")
	}
	if creator.ID == "" {
		creator.ID = uuid.NewString()
	}
	now := s.now()
	creator.CreatedAt = now
	creator.UpdatedAt = now

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var existing string
		found, err := getOne(ctx, tx, &existing, `SELECT id FROM creators WHERE id = ?`, creator.ID)
		if err != nil {
			return fmt.Errorf("failed to check creator %s: %w", creator.ID, err)
		}
		if found {
			return fmt.Errorf("creator %s: %w", creator.ID, ErrAlreadyExists)
		}

		query := `
			INSERT INTO creators (` + creatorColumns + `)
			VALUES (:id, :name, :niches, :persona, :emojis_enabled, :emojis_used, :nsfw, :created_at, :updated_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, creator); err != nil {
			s.logger.ErrorContext(ctx, "Error saving creator", "creator_id", creator.ID, "error", err)
			return fmt.Errorf("failed to save creator %s: %w", creator.ID, err)
		}
		s.logger.DebugContext(ctx, "Creator created", "creator_id", creator.ID)
		return nil
	})
}

func (s *sqlxStore) UpdateCreator(ctx context.Context, id string, update CreatorUpdate) (*Creator, error) {
	var updated *Creator
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var creator Creator
		found, err := getOne(ctx, tx, &creator, `SELECT `+creatorColumns+` FROM creators WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to load creator %s: %w", id, err)
		}
		if !found {
			return nil
		}

		if update.Name != nil {
			creator.Name = *update.Name
		}
		if update.Niches != nil {
			creator.Niches = *update.Niches
		}
		if update.Persona != nil {
			creator.Persona = *update.Persona
		}
		if update.EmojisEnabled != nil {
			creator.EmojisEnabled = *update.EmojisEnabled
		}
		if update.EmojisUsed != nil {
			creator.EmojisUsed = *update.EmojisUsed
		}
		if update.NSFW != nil {
			creator.NSFW = *update.NSFW
		}
		creator.UpdatedAt = s.now()

		query := `
			UPDATE creators SET
				name = :name,
				niches = :niches,
				persona = :persona,
				emojis_enabled = :emojis_enabled,
				emojis_used = :emojis_used,
				nsfw = :nsfw,
				updated_at = :updated_at
			WHERE id = :id
		`
		if _, err := tx.NamedExecContext(ctx, query, &creator); err != nil {
			s.logger.ErrorContext(ctx, "Error updating creator", "creator_id", id, "error", err)
			return fmt.Errorf("failed to update creator %s: %w", id, err)
		}
		updated = &creator
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Fans ---

const fanColumns = `id, name, lifetime_spend, created_at, updated_at`

func (s *sqlxStore) GetFan(ctx context.Context, id string) (*Fan, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var fan Fan
	found, err := getOne(ctx, s.db, &fan, `SELECT `+fanColumns+` FROM fans WHERE id = ?`, id)
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching fan", "fan_id", id, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting fan", "fan_id", id, "error", err)
		return nil, fmt.Errorf("failed to get fan %s: %w", id, err)
	case !found:
		s.logger.DebugContext(ctx, "No fan found", "fan_id", id)
		return nil, nil
	}
	return &fan, nil
}

func (s *sqlxStore) ListFans(ctx context.Context) ([]Fan, error) {
	fans := []Fan{}
	if err := s.db.SelectContext(ctx, &fans, `SELECT `+fanColumns+` FROM fans ORDER BY created_at, id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing fans", "error", err)
		return nil, fmt.Errorf("failed to list fans: %w", err)
	}
	return fans, nil
}

func (s *sqlxStore) CreateFan(ctx context.Context, fan *Fan) error {
	if fan == nil {
		return errors.New("cannot save nil fan")
	}
	if fan.LifetimeSpend < 0 {
		return fmt.Errorf("fan lifetime spend must not be negative, got %v", fan.LifetimeSpend)
	}
	if fan.ID == "" {
		fan.ID = uuid.NewString()
	}
	now := s.now()
	fan.CreatedAt = now
	fan.UpdatedAt = now

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var existing string
		found, err := getOne(ctx, tx, &existing, `SELECT id FROM fans WHERE id = ?`, fan.ID)
		if err != nil {
			return fmt.Errorf("failed to check fan %s: %w", fan.ID, err)
		}
		if found {
			return fmt.Errorf("fan %s: %w", fan.ID, ErrAlreadyExists)
		}

		query := `
			INSERT INTO fans (` + fanColumns + `)
			VALUES (:id, :name, :lifetime_spend, :created_at, :updated_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, fan); err != nil {
			s.logger.ErrorContext(ctx, "Error saving fan", "fan_id", fan.ID, "error", err)
			return fmt.Errorf("failed to save fan %s: %w", fan.ID, err)
		}
		s.logger.DebugContext(ctx, "Fan created", "fan_id", fan.ID)
		return nil
	})
}

func (s *sqlxStore) UpdateFan(ctx context.Context, id string, update FanUpdate) (*Fan, error) {
	if update.LifetimeSpend != nil && *update.LifetimeSpend < 0 {
		return nil, fmt.Errorf("fan lifetime spend must not be negative, got %v", *update.LifetimeSpend)
	}

	var updated *Fan
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var fan Fan
		found, err := getOne(ctx, tx, &fan, `SELECT `+fanColumns+` FROM fans WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to load fan %s: %w", id, err)
		}
		if !found {
			return nil
		}

		if update.Name != nil {
			fan.Name = *update.Name
		}
		if update.LifetimeSpend != nil {
			fan.LifetimeSpend = *update.LifetimeSpend
		}
		fan.UpdatedAt = s.now()

		query := `UPDATE fans SET name = :name, lifetime_spend = :lifetime_spend, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, &fan); err != nil {
			s.logger.ErrorContext(ctx, "Error updating fan", "fan_id", id, "error", err)
			return fmt.Errorf("failed to update fan %s: %w", id, err)
		}
		updated = &fan
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- System prompts ---

const promptColumns = `id, name, system_prompt, created_at, updated_at`

func (s *sqlxStore) GetSystemPrompt(ctx context.Context, id string) (*SystemPrompt, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	var prompt SystemPrompt
	found, err := getOne(ctx, s.db, &prompt, `SELECT `+promptColumns+` FROM system_prompts WHERE id = ?`, id)
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching system prompt", "prompt_id", id, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting system prompt", "prompt_id", id, "error", err)
		return nil, fmt.Errorf("failed to get system prompt %s: %w", id, err)
	case !found:
		s.logger.DebugContext(ctx, "No system prompt found", "prompt_id", id)
		return nil, nil
	}
	return &prompt, nil
}

func (s *sqlxStore) ListSystemPrompts(ctx context.Context) ([]SystemPrompt, error) {
	prompts := []SystemPrompt{}
	if err := s.db.SelectContext(ctx, &prompts, `SELECT `+promptColumns+` FROM system_prompts ORDER BY created_at, id`); err != nil {
		s.logger.ErrorContext(ctx, "Error listing system prompts", "error", err)
		return nil, fmt.Errorf("failed to list system prompts: %w", err)
	}
	return prompts, nil
}

func (s *sqlxStore) CreateSystemPrompt(ctx context.Context, prompt *SystemPrompt) error {
	if prompt == nil {
		return errors.New("cannot save nil system prompt")
	}
	if prompt.ID == "" {
		prompt.ID = uuid.NewString()
	}
	now := s.now()
	prompt.CreatedAt = now
	prompt.UpdatedAt = now

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		var existing string
		found, err := getOne(ctx, tx, &existing, `SELECT id FROM system_prompts WHERE id = ?`, prompt.ID)
		if err != nil {
			return fmt.Errorf("failed to check system prompt %s: %w", prompt.ID, err)
		}
		if found {
			return fmt.Errorf("system prompt %s: %w", prompt.ID, ErrAlreadyExists)
		}

		query := `
			INSERT INTO system_prompts (` + promptColumns + `)
			VALUES (:id, :name, :system_prompt, :created_at, :updated_at)
		`
		if _, err := tx.NamedExecContext(ctx, query, prompt); err != nil {
			s.logger.ErrorContext(ctx, "Error saving system prompt", "prompt_id", prompt.ID, "error", err)
			return fmt.Errorf("failed to save system prompt %s: %w", prompt.ID, err)
		}
		s.logger.DebugContext(ctx, "System prompt created", "prompt_id", prompt.ID)
		return nil
	})
}

func (s *sqlxStore) UpdateSystemPrompt(ctx context.Context, id string, update SystemPromptUpdate) (*SystemPrompt, error) {
	var updated *SystemPrompt
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		var prompt SystemPrompt
		found, err := getOne(ctx, tx, &prompt, `SELECT `+promptColumns+` FROM system_prompts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to load system prompt %s: %w", id, err)
		}
		if !found {
			return nil
		}

		if update.Name != nil {
			prompt.Name = *update.Name
		}
		if update.SystemPrompt != nil {
			prompt.SystemPrompt = *update.SystemPrompt
		}
		prompt.UpdatedAt = s.now()

		query := `UPDATE system_prompts SET name = :name, system_prompt = :system_prompt, updated_at = :updated_at WHERE id = :id`
		if _, err := tx.NamedExecContext(ctx, query, &prompt); err != nil {
			s.logger.ErrorContext(ctx, "Error updating system prompt", "prompt_id", id, "error", err)
			return fmt.Errorf("failed to update system prompt %s: %w", id, err)
		}
		updated = &prompt
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// --- Chat messages ---

const messageColumns = `id, fan_id, creator_id, sender, content, metadata, created_at`

func (s *sqlxStore) SaveChatMessage(ctx context.Context, message *ChatMessage) error {
	if message == nil {
		return errors.New("cannot save nil message")
	}
	if message.FanID == "" || message.CreatorID == "" {
		return errors.New("message must have fan_id and creator_id")
	}
	if message.Sender != SenderFan && message.Sender != SenderCreator {
		return fmt.Errorf("message sender must be %q or %q, got %q", SenderFan, SenderCreator, message.Sender)
	}
	if message.Content == "" {
		return errors.New("message must have non-empty content")
	}
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = s.now()
	} else {
		message.CreatedAt = message.CreatedAt.UTC()
	}

	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO chat_messages (` + messageColumns + `)
			VALUES (:id, :fan_id, :creator_id, :sender, :content, :metadata, :created_at)
		`
		result, err := tx.NamedExecContext(ctx, query, message)
		if err != nil {
			s.logger.ErrorContext(ctx, "Error saving chat message",
				"fan_id", message.FanID, "creator_id", message.CreatorID, "error", err)
			return fmt.Errorf("failed to save chat message (fan %s, creator %s): %w", message.FanID, message.CreatorID, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected != 1 {
			s.logger.WarnContext(ctx, "Unexpected number of rows affected when saving chat message",
				"message_id", message.ID, "affected", affected)
		}
		s.logger.DebugContext(ctx, "Chat message saved",
			"message_id", message.ID, "sender", message.Sender, "fan_id", message.FanID, "creator_id", message.CreatorID)
		return nil
	})
}

func (s *sqlxStore) GetRecentChatMessages(ctx context.Context, creatorID, fanID string, limit int) ([]ChatMessage, error) {
	if limit <= 0 {
		return []ChatMessage{}, nil
	}
	if limit > maxRecentLimit {
		s.logger.DebugContext(ctx, "Limit exceeded maximum value, capping", "limit", limit, "capped_limit", maxRecentLimit)
		limit = maxRecentLimit
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	messages := []ChatMessage{}
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE creator_id = ? AND fan_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`
	err := s.db.SelectContext(ctx, &messages, query, creatorID, fanID, limit)
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while fetching recent messages",
			"creator_id", creatorID, "fan_id", fanID, "error", err)
		return nil, err
	case err != nil:
		s.logger.ErrorContext(ctx, "Error getting recent messages", "creator_id", creatorID, "fan_id", fanID, "error", err)
		return nil, fmt.Errorf("failed to get recent messages for creator %s and fan %s: %w", creatorID, fanID, err)
	}

	s.logger.DebugContext(ctx, "Fetched recent messages", "creator_id", creatorID, "fan_id", fanID, "count", len(messages))
	return messages, nil
}

func (s *sqlxStore) GetChatHistory(ctx context.Context, creatorID, fanID string) ([]ChatMessage, error) {
	messages := []ChatMessage{}
	query := `
		SELECT ` + messageColumns + `
		FROM chat_messages
		WHERE creator_id = ? AND fan_id = ?
		ORDER BY created_at ASC, rowid ASC
	`
	if err := s.db.SelectContext(ctx, &messages, query, creatorID, fanID); err != nil {
		s.logger.ErrorContext(ctx, "Error getting chat history", "creator_id", creatorID, "fan_id", fanID, "error", err)
		return nil, fmt.Errorf("failed to get chat history for creator %s and fan %s: %w", creatorID, fanID, err)
	}
	return messages, nil
}

func (s *sqlxStore) DeleteChatMessagesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	var deleted int64
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE created_at < ?`, cutoff.UTC())
		if err != nil {
			s.logger.ErrorContext(ctx, "Error deleting old chat messages", "cutoff", cutoff, "error", err)
			return fmt.Errorf("failed to delete chat messages before %s: %w", cutoff.Format(time.RFC3339), err)
		}
		deleted, err = result.RowsAffected()
		if err != nil {
			s.logger.WarnContext(ctx, "Could not get affected row count when deleting messages", "error", err)
			deleted = 0
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.InfoContext(ctx, "Deleted old chat messages", "cutoff", cutoff, "count", deleted)
	return deleted, nil
}

// RunSQLMaintenance executes VACUUM, which SQLite requires to run outside a transaction.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)")

	_, err := s.db.ExecContext(ctx, "VACUUM;")
	switch {
	case isContextErr(err):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)
	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed")
	return nil
}
