package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"import-claim-service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/mmcloughlin/geohash"
)

const propertyColumns = `id, address, city, state, zip_code, price, bedrooms,
	bathrooms_full, bathrooms_half, sqft, lot_size, property_type, year_built,
	description, owner_name, owner_phone, owner_email, owner_address,
	external_id, detail_url, thumbnail_url, latitude, longitude, images,
	geohash, import_source, import_batch_id, claim_token, claim_expires_at,
	claimed_at, claimed_by, is_active, for_sale, approval_status, created_at`

// ExternalIDExists - проверка дедупликации. Вызывается до любых внешних
// запросов за фотографиями, поэтому должна быть дешевой (частичный
// уникальный индекс по (import_source, external_id)).
func (a *PostgresStorageAdapter) ExternalIDExists(ctx context.Context, importSource, externalID string) (bool, error) {
	var exists bool
	err := a.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM imported_properties
			WHERE import_source = $1 AND external_id = $2
		)`,
		importSource, externalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("PostgresStorageAdapter: failed to check external id %s/%s: %w", importSource, externalID, err)
	}
	return exists, nil
}

func (a *PostgresStorageAdapter) SaveProperty(ctx context.Context, property *domain.ImportedProperty) error {
	var lat, lng *float64
	if property.Coordinates != nil {
		lat = &property.Coordinates.Latitude
		lng = &property.Coordinates.Longitude
		if property.Geohash == "" {
			property.Geohash = geohash.Encode(property.Coordinates.Latitude, property.Coordinates.Longitude)
		}
	}

	_, err := a.pool.Exec(ctx, `
		INSERT INTO imported_properties (
			id, address, city, state, zip_code, price, bedrooms,
			bathrooms_full, bathrooms_half, sqft, lot_size, property_type,
			year_built, description, owner_name, owner_phone, owner_email,
			owner_address, external_id, detail_url, thumbnail_url, latitude,
			longitude, images, geohash, import_source, import_batch_id,
			claim_token, claim_expires_at, claimed_at, claimed_by, is_active,
			for_sale, approval_status, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
			$29, $30, $31, $32, $33, $34, $35
		)`,
		property.ID, property.Address, property.City, property.State, property.ZipCode,
		property.Price, property.Bedrooms, property.BathroomsFull, property.BathroomsHalf,
		property.Sqft, property.LotSize, property.PropertyType, property.YearBuilt,
		property.Description, property.OwnerName, property.OwnerPhone, property.OwnerEmail,
		property.OwnerAddress, property.ExternalID, property.DetailURL, property.ThumbnailURL,
		lat, lng, property.Images, property.Geohash, property.ImportSource,
		property.ImportBatchID, property.ClaimToken, property.ClaimExpiresAt,
		property.ClaimedAt, property.ClaimedBy, property.IsActive, property.ForSale,
		property.ApprovalStatus, property.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("PostgresStorageAdapter: failed to insert property: %w", err)
	}
	return nil
}

func (a *PostgresStorageAdapter) FindByClaimToken(ctx context.Context, token string) (*domain.ImportedProperty, error) {
	query := `SELECT ` + propertyColumns + ` FROM imported_properties WHERE claim_token = $1`

	property, err := a.scanProperty(a.pool.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrClaimNotFound
	}
	if err != nil {
		return nil, err
	}
	return property, nil
}

// ClaimProperty - атомарный условный UPDATE. Ноль затронутых строк означает,
// что claimed_at уже не NULL: токен забрала конкурирующая транзакция.
func (a *PostgresStorageAdapter) ClaimProperty(ctx context.Context, token string, claimantID string, now time.Time) (*domain.ImportedProperty, error) {
	tx, err := a.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		UPDATE imported_properties
		SET claimed_at = $2, claimed_by = $3, is_active = true, for_sale = true
		WHERE claim_token = $1 AND claimed_at IS NULL
		RETURNING `+propertyColumns,
		token, now, claimantID,
	)
	property, err := a.scanProperty(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAlreadyClaimed
	}
	if err != nil {
		return nil, err
	}

	// Инкремент счетчика в той же транзакции, чтобы он не разошелся с фактом claim'а
	_, err = tx.Exec(ctx, `
		UPDATE import_batches SET claimed_count = claimed_count + 1 WHERE id = $1`,
		property.ImportBatchID,
	)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to increment claimed count for batch %s: %w", property.ImportBatchID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to commit claim of token: %w", err)
	}
	return property, nil
}

func (a *PostgresStorageAdapter) ListByBatch(ctx context.Context, batchID uuid.UUID) ([]domain.ImportedProperty, error) {
	query := `SELECT ` + propertyColumns + `
	          FROM imported_properties WHERE import_batch_id = $1 ORDER BY created_at ASC`

	rows, err := a.pool.Query(ctx, query, batchID)
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to query properties of batch %s: %w", batchID, err)
	}
	defer rows.Close()

	var properties []domain.ImportedProperty
	for rows.Next() {
		property, err := a.scanProperty(rows)
		if err != nil {
			return nil, err
		}
		properties = append(properties, *property)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: error during rows iteration for batch %s: %w", batchID, err)
	}

	return properties, nil
}

func (a *PostgresStorageAdapter) scanProperty(row pgx.Row) (*domain.ImportedProperty, error) {
	var p domain.ImportedProperty
	var lat, lng *float64

	err := row.Scan(
		&p.ID, &p.Address, &p.City, &p.State, &p.ZipCode, &p.Price, &p.Bedrooms,
		&p.BathroomsFull, &p.BathroomsHalf, &p.Sqft, &p.LotSize, &p.PropertyType,
		&p.YearBuilt, &p.Description, &p.OwnerName, &p.OwnerPhone, &p.OwnerEmail,
		&p.OwnerAddress, &p.ExternalID, &p.DetailURL, &p.ThumbnailURL, &lat, &lng,
		&p.Images, &p.Geohash, &p.ImportSource, &p.ImportBatchID, &p.ClaimToken,
		&p.ClaimExpiresAt, &p.ClaimedAt, &p.ClaimedBy, &p.IsActive, &p.ForSale,
		&p.ApprovalStatus, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("PostgresStorageAdapter: failed to scan property: %w", err)
	}

	if lat != nil && lng != nil {
		p.Coordinates = &domain.GeoPoint{Latitude: *lat, Longitude: *lng}
	}
	return &p, nil
}
