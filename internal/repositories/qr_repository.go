package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"qr_dine_backend/internal/models"
)

// QRCodeRepository defines the interface for table QR code storage.
type QRCodeRepository interface {
	CreateQRCode(ctx context.Context, executor SQLExecutor, qr *models.QRCode) (int64, error)
	GetQRCodeByCode(ctx context.Context, code string) (*models.QRCode, error)
	GetActiveQRCodeForTable(ctx context.Context, tableID int64) (*models.QRCode, error)
	DeactivateQRCodesForTable(ctx context.Context, executor SQLExecutor, tableID int64) (int64, error)
	DeactivateQRCode(ctx context.Context, executor SQLExecutor, restaurantID, qrID int64) error
	RecordScan(ctx context.Context, qrID int64, at time.Time) error
}

type qrCodeRepository struct {
	db *sql.DB
}

// NewQRCodeRepository creates a new instance of QRCodeRepository.
func NewQRCodeRepository(db *sql.DB) QRCodeRepository {
	return &qrCodeRepository{db: db}
}

const qrColumns = `id, restaurant_id, table_id, code, is_active, scan_count, last_scanned_at, created_at, updated_at`

func scanQRCode(s scanner, qr *models.QRCode) error {
	return s.Scan(&qr.ID, &qr.RestaurantID, &qr.TableID, &qr.Code, &qr.IsActive, &qr.ScanCount,
		&qr.LastScannedAt, &qr.CreatedAt, &qr.UpdatedAt)
}

func (r *qrCodeRepository) CreateQRCode(ctx context.Context, executor SQLExecutor, qr *models.QRCode) (int64, error) {
	executor = orDB(executor, r.db)
	query := `INSERT INTO qr_codes (restaurant_id, table_id, code, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id`
	now := time.Now()
	qr.CreatedAt, qr.UpdatedAt = now, now
	err := executor.QueryRowContext(ctx, query,
		qr.RestaurantID, qr.TableID, qr.Code, qr.IsActive, qr.CreatedAt, qr.UpdatedAt,
	).Scan(&qr.ID)
	if err != nil {
		return 0, wrapDBError(err, "creating qr code")
	}
	return qr.ID, nil
}

func (r *qrCodeRepository) GetQRCodeByCode(ctx context.Context, code string) (*models.QRCode, error) {
	qr := &models.QRCode{}
	query := `SELECT ` + qrColumns + ` FROM qr_codes WHERE code = $1`
	if err := scanQRCode(r.db.QueryRowContext(ctx, query, code), qr); err != nil {
		return nil, wrapDBError(err, "getting qr code by code")
	}
	return qr, nil
}

func (r *qrCodeRepository) GetActiveQRCodeForTable(ctx context.Context, tableID int64) (*models.QRCode, error) {
	qr := &models.QRCode{}
	query := `SELECT ` + qrColumns + ` FROM qr_codes WHERE table_id = $1 AND is_active`
	if err := scanQRCode(r.db.QueryRowContext(ctx, query, tableID), qr); err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("getting active qr code for table %d", tableID))
	}
	return qr, nil
}

func (r *qrCodeRepository) DeactivateQRCodesForTable(ctx context.Context, executor SQLExecutor, tableID int64) (int64, error) {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE qr_codes SET is_active = FALSE, updated_at = $1 WHERE table_id = $2 AND is_active`,
		time.Now(), tableID)
	if err != nil {
		return 0, wrapDBError(err, fmt.Sprintf("deactivating qr codes for table %d", tableID))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for qr deactivation: %v", ErrDatabaseError, err)
	}
	return n, nil
}

func (r *qrCodeRepository) DeactivateQRCode(ctx context.Context, executor SQLExecutor, restaurantID, qrID int64) error {
	executor = orDB(executor, r.db)
	result, err := executor.ExecContext(ctx,
		`UPDATE qr_codes SET is_active = FALSE, updated_at = $1 WHERE id = $2 AND restaurant_id = $3`,
		time.Now(), qrID, restaurantID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("deactivating qr code %d", qrID))
	}
	return requireOneRow(result, fmt.Sprintf("qr code %d", qrID))
}

// RecordScan bumps the scan counter. It is a single statement so concurrent
// scans never lose increments.
func (r *qrCodeRepository) RecordScan(ctx context.Context, qrID int64, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE qr_codes SET scan_count = scan_count + 1, last_scanned_at = $1 WHERE id = $2`, at, qrID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("recording scan of qr code %d", qrID))
	}
	return requireOneRow(result, fmt.Sprintf("qr code %d", qrID))
}
