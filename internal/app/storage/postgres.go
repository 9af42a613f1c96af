package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx"
	_ "github.com/jackc/pgx/stdlib"
	"github.com/linklytics/linklytics/internal/app/models"
	"github.com/linklytics/linklytics/internal/middleware/logger"
	"go.uber.org/zap"
)

// PostgresStorage реализует Storage поверх PostgreSQL.
// Списки назначений и событий хранятся в колонках JSONB.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage открывает соединение с базой и проверяет его
func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &PostgresStorage{db: db}, nil
}

// Ping проверяет доступность базы данных
func (s *PostgresStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close закрывает пул соединений
func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pgErr pgx.PgError
	return errors.As(err, &pgErr) && pgerrcode.IsIntegrityConstraintViolation(pgErr.Code)
}

// CreateLink сохраняет новую ссылку. Нарушение уникальности короткого
// кода или алиаса возвращается как ErrConflict.
func (s *PostgresStorage) CreateLink(ctx context.Context, link models.Link) error {
	destinations, err := json.Marshal(link.Destinations)
	if err != nil {
		return err
	}

	query := `
	INSERT INTO links (
	    id,
	    short_code,
	    original_url,
	    custom_alias,
	    title,
	    user_id,
	    is_active,
	    is_ab_test,
	    destinations,
	    expires_at,
	    created_at
	)
	VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, TRUE, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		link.ID, link.ShortCode, link.OriginalURL, link.CustomAlias,
		link.Title, link.UserID, link.IsABTest, destinations,
		link.ExpiresAt, link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func scanLink(row *sql.Row) (models.Link, error) {
	var link models.Link
	var alias sql.NullString
	var destinations []byte

	err := row.Scan(
		&link.ID, &link.ShortCode, &link.OriginalURL, &alias, &link.Title,
		&link.UserID, &link.Clicks, &link.IsActive, &link.IsABTest,
		&destinations, &link.ExpiresAt, &link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Link{}, ErrNotFound
		}
		return models.Link{}, err
	}

	link.CustomAlias = alias.String
	if len(destinations) > 0 {
		if err := json.Unmarshal(destinations, &link.Destinations); err != nil {
			return models.Link{}, err
		}
	}
	return link, nil
}

const linkColumns = `id, short_code, original_url, custom_alias, title, user_id,
	clicks, is_active, is_ab_test, destinations, expires_at, created_at`

// GetLinkByCode возвращает активную ссылку по короткому коду или алиасу
func (s *PostgresStorage) GetLinkByCode(ctx context.Context, code string) (models.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE (short_code = $1 OR custom_alias = $1) AND is_active = TRUE`,
		code,
	)
	return scanLink(row)
}

// GetLinkByID возвращает активную ссылку пользователя по идентификатору
func (s *PostgresStorage) GetLinkByID(ctx context.Context, id, userID string) (models.Link, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE id = $1 AND user_id = $2 AND is_active = TRUE`,
		id, userID,
	)
	return scanLink(row)
}

// GetLinksByUser возвращает все активные ссылки пользователя
func (s *PostgresStorage) GetLinksByUser(ctx context.Context, userID string) ([]models.Link, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+linkColumns+` FROM links
		 WHERE user_id = $1 AND is_active = TRUE
		 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		logger.Log.Info("Failed to get links", zap.String("userID", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var result []models.Link
	for rows.Next() {
		var link models.Link
		var alias sql.NullString
		var destinations []byte
		if err := rows.Scan(
			&link.ID, &link.ShortCode, &link.OriginalURL, &alias, &link.Title,
			&link.UserID, &link.Clicks, &link.IsActive, &link.IsABTest,
			&destinations, &link.ExpiresAt, &link.CreatedAt,
		); err != nil {
			return nil, err
		}
		link.CustomAlias = alias.String
		if len(destinations) > 0 {
			if err := json.Unmarshal(destinations, &link.Destinations); err != nil {
				return nil, err
			}
		}
		result = append(result, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateLinkTitle изменяет заголовок ссылки
func (s *PostgresStorage) UpdateLinkTitle(ctx context.Context, id, userID, title string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE links SET title = $1 WHERE id = $2 AND user_id = $3 AND is_active = TRUE`,
		title, id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteLink выполняет мягкое удаление и возвращает удалённую ссылку,
// чтобы вызывающий мог инвалидировать кеш и отправить событие
func (s *PostgresStorage) DeleteLink(ctx context.Context, id, userID string) (models.Link, error) {
	link, err := s.GetLinkByID(ctx, id, userID)
	if err != nil {
		return models.Link{}, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE links SET is_active = FALSE WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return models.Link{}, err
	}
	return link, nil
}

// IncrementClicks атомарно увеличивает счётчик кликов
func (s *PostgresStorage) IncrementClicks(ctx context.Context, code string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE links SET clicks = clicks + 1
		 WHERE (short_code = $1 OR custom_alias = $1) AND is_active = TRUE`,
		code,
	)
	return err
}

// CodeInUse проверяет занятость кода одновременно в пространстве
// коротких кодов и пользовательских алиасов
func (s *PostgresStorage) CodeInUse(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM links WHERE short_code = $1 OR custom_alias = $1)`,
		code,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// CreateClick сохраняет событие клика
func (s *PostgresStorage) CreateClick(ctx context.Context, click models.ClickEvent) error {
	query := `
	INSERT INTO clicks (
	    id, link_id, ip_address, user_agent, referer,
	    country, country_code, city, region, latitude, longitude,
	    device, browser, browser_version, os, os_version,
	    utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	    is_bot, is_mobile, variant, clicked_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
	        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
	`
	_, err := s.db.ExecContext(ctx, query,
		click.ID, click.LinkID, click.IPAddress, click.UserAgent, click.Referer,
		click.Country, click.CountryCode, click.City, click.Region,
		click.Latitude, click.Longitude,
		click.Device, click.Browser, click.BrowserVersion, click.OS, click.OSVersion,
		click.UTMSource, click.UTMMedium, click.UTMCampaign, click.UTMTerm, click.UTMContent,
		click.IsBot, click.IsMobile, click.Variant, click.ClickedAt,
	)
	return err
}

// CreateWebhook сохраняет новый вебхук
func (s *PostgresStorage) CreateWebhook(ctx context.Context, hook models.Webhook) error {
	events, err := json.Marshal(hook.Events)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO webhooks (id, user_id, url, events, secret, is_active, failure_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hook.ID, hook.UserID, hook.URL, events, hook.Secret,
		hook.IsActive, hook.FailureCount, hook.CreatedAt,
	)
	return err
}

func scanWebhooks(rows *sql.Rows) ([]models.Webhook, error) {
	var result []models.Webhook
	for rows.Next() {
		var hook models.Webhook
		var events []byte
		if err := rows.Scan(
			&hook.ID, &hook.UserID, &hook.URL, &events, &hook.Secret,
			&hook.IsActive, &hook.FailureCount, &hook.LastTriggeredAt, &hook.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(events, &hook.Events); err != nil {
			return nil, err
		}
		result = append(result, hook)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

const webhookColumns = `id, user_id, url, events, secret, is_active,
	failure_count, last_triggered_at, created_at`

// GetWebhooksByUser возвращает все вебхуки пользователя
func (s *PostgresStorage) GetWebhooksByUser(ctx context.Context, userID string) ([]models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE user_id = $1 ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWebhooks(rows)
}

// GetActiveWebhooks возвращает активные вебхуки пользователя
func (s *PostgresStorage) GetActiveWebhooks(ctx context.Context, userID string) ([]models.Webhook, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+webhookColumns+` FROM webhooks WHERE user_id = $1 AND is_active = TRUE`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWebhooks(rows)
}

// UpdateWebhook изменяет адрес, события и активность вебхука
func (s *PostgresStorage) UpdateWebhook(ctx context.Context, hook models.Webhook) error {
	events, err := json.Marshal(hook.Events)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE webhooks SET url = $1, events = $2, is_active = $3, failure_count = $4
		 WHERE id = $5 AND user_id = $6`,
		hook.URL, events, hook.IsActive, hook.FailureCount, hook.ID, hook.UserID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateWebhookDelivery обновляет состояние доставки после попытки отправки
func (s *PostgresStorage) UpdateWebhookDelivery(ctx context.Context, id string, failureCount int, isActive bool, lastTriggeredAt *time.Time) error {
	if lastTriggeredAt != nil {
		_, err := s.db.ExecContext(ctx,
			`UPDATE webhooks SET failure_count = $1, is_active = $2, last_triggered_at = $3 WHERE id = $4`,
			failureCount, isActive, lastTriggeredAt, id,
		)
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE webhooks SET failure_count = $1, is_active = $2 WHERE id = $3`,
		failureCount, isActive, id,
	)
	return err
}

// DeleteWebhook удаляет вебхук пользователя
func (s *PostgresStorage) DeleteWebhook(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM webhooks WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountURLs возвращает количество активных ссылок
func (s *PostgresStorage) CountURLs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM links WHERE is_active = TRUE`).Scan(&count)
	return count, err
}

// CountUsers возвращает количество пользователей, создавших хотя бы одну ссылку
func (s *PostgresStorage) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(DISTINCT user_id) FROM links`).Scan(&count)
	return count, err
}
