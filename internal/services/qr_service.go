package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"qr_dine_backend/internal/models"
	"qr_dine_backend/internal/qrcode"
	"qr_dine_backend/internal/repositories"
	"qr_dine_backend/internal/session"
	"qr_dine_backend/pkg/utils"

	"github.com/google/uuid"
)

var (
	ErrQRCodeNotFound        = errors.New("qr code not found")
	ErrQRCodeInactive        = errors.New("qr code is no longer active")
	ErrTableInactive         = errors.New("table is not active")
	ErrRestaurantUnavailable = errors.New("restaurant is not accepting orders")
	ErrSessionInvalid        = errors.New("scan session is missing or expired")
)

// TableQR is a QR code together with the link it encodes.
type TableQR struct {
	QRCode *models.QRCode `json:"qr_code"`
	Param  string         `json:"param"`
	URL    string         `json:"url"`
}

// ScanResult is what a customer receives after scanning a table.
type ScanResult struct {
	Session        models.ScanSession `json:"session"`
	RestaurantName string             `json:"restaurant_name"`
	RestaurantSlug string             `json:"restaurant_slug"`
	TableLabel     string             `json:"table_label"`
}

// ScanContext is a validated scan session with the rows it points at.
type ScanContext struct {
	Session    *models.ScanSession
	Restaurant *models.Restaurant
	Table      *models.DiningTable
}

// QRService issues table QR codes and turns scans into ordering sessions.
type QRService interface {
	GenerateTableQR(ctx context.Context, restaurantID, tableID int64) (*TableQR, error)
	GetTableQR(ctx context.Context, restaurantID, tableID int64) (*TableQR, error)
	RenderTableQRPNG(ctx context.Context, restaurantID, tableID int64, size int) ([]byte, error)
	DeactivateQR(ctx context.Context, restaurantID, qrID int64) error
	ScanTable(ctx context.Context, param string) (*ScanResult, error)
	ResolveSession(ctx context.Context, token string) (*ScanContext, error)
}

type qrService struct {
	qrRepo         repositories.QRCodeRepository
	tableRepo      repositories.TableRepository
	restaurantRepo repositories.RestaurantRepository
	sessions       session.Store
	txm            repositories.TxManager
	baseURL        string
	sessionTTL     time.Duration
	now            func() time.Time
}

// NewQRService creates a new instance of QRService.
func NewQRService(
	qr repositories.QRCodeRepository,
	tr repositories.TableRepository,
	rr repositories.RestaurantRepository,
	sessions session.Store,
	txm repositories.TxManager,
	baseURL string,
	sessionTTL time.Duration,
) QRService {
	return &qrService{
		qrRepo:         qr,
		tableRepo:      tr,
		restaurantRepo: rr,
		sessions:       sessions,
		txm:            txm,
		baseURL:        strings.TrimRight(baseURL, "/"),
		sessionTTL:     sessionTTL,
		now:            time.Now,
	}
}

func (s *qrService) tableQR(qr *models.QRCode) *TableQR {
	ref := qrcode.TableRef{RestaurantID: qr.RestaurantID, TableID: qr.TableID, Code: qr.Code}
	return &TableQR{
		QRCode: qr,
		Param:  qrcode.EncodeTableParam(ref),
		URL:    qrcode.OrderURL(s.baseURL, ref),
	}
}

// ownedTable loads a table and checks it belongs to the restaurant.
func (s *qrService) ownedTable(ctx context.Context, exec repositories.SQLExecutor, restaurantID, tableID int64) (*models.DiningTable, error) {
	table, err := s.tableRepo.GetTableByID(ctx, exec, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("failed to get table %d: %w", tableID, err)
	}
	if table.RestaurantID != restaurantID {
		return nil, ErrTableNotFound
	}
	return table, nil
}

// GenerateTableQR issues a fresh code for the table and retires the previous one,
// so printed codes can be invalidated by regenerating.
func (s *qrService) GenerateTableQR(ctx context.Context, restaurantID, tableID int64) (*TableQR, error) {
	var qr *models.QRCode
	err := s.txm.WithTx(ctx, func(exec repositories.SQLExecutor) error {
		table, err := s.ownedTable(ctx, exec, restaurantID, tableID)
		if err != nil {
			return err
		}
		if !table.IsActive {
			return ErrTableInactive
		}
		if _, err := s.qrRepo.DeactivateQRCodesForTable(ctx, exec, tableID); err != nil {
			return fmt.Errorf("failed to retire previous QR codes: %w", err)
		}
		qr = &models.QRCode{
			RestaurantID: restaurantID,
			TableID:      tableID,
			Code:         strings.ReplaceAll(uuid.NewString(), "-", ""),
			IsActive:     true,
		}
		if _, err := s.qrRepo.CreateQRCode(ctx, exec, qr); err != nil {
			return fmt.Errorf("failed to create QR code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	utils.LogInfo("Table QR code generated", map[string]interface{}{
		"restaurant_id": restaurantID, "table_id": tableID, "qr_id": qr.ID,
	})
	return s.tableQR(qr), nil
}

func (s *qrService) GetTableQR(ctx context.Context, restaurantID, tableID int64) (*TableQR, error) {
	if _, err := s.ownedTable(ctx, nil, restaurantID, tableID); err != nil {
		return nil, err
	}
	qr, err := s.qrRepo.GetActiveQRCodeForTable(ctx, tableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get QR code for table %d: %w", tableID, err)
	}
	return s.tableQR(qr), nil
}

func (s *qrService) RenderTableQRPNG(ctx context.Context, restaurantID, tableID int64, size int) ([]byte, error) {
	tq, err := s.GetTableQR(ctx, restaurantID, tableID)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.RenderPNG(tq.URL, size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR image: %w", err)
	}
	return png, nil
}

func (s *qrService) DeactivateQR(ctx context.Context, restaurantID, qrID int64) error {
	if err := s.qrRepo.DeactivateQRCode(ctx, nil, restaurantID, qrID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrQRCodeNotFound
		}
		return fmt.Errorf("failed to deactivate QR code %d: %w", qrID, err)
	}
	return nil
}

// ScanTable validates a scanned table parameter against the stored code, table
// and restaurant, records the scan and opens an ordering session.
func (s *qrService) ScanTable(ctx context.Context, param string) (*ScanResult, error) {
	ref, err := qrcode.DecodeTableParam(param)
	if err != nil {
		return nil, err
	}

	qr, err := s.qrRepo.GetQRCodeByCode(ctx, ref.Code)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown code", qrcode.ErrInvalidTableParam)
		}
		return nil, fmt.Errorf("failed to look up QR code: %w", err)
	}
	if qr.RestaurantID != ref.RestaurantID || qr.TableID != ref.TableID {
		return nil, fmt.Errorf("%w: code does not match table", qrcode.ErrInvalidTableParam)
	}
	if !qr.IsActive {
		return nil, ErrQRCodeInactive
	}

	table, err := s.tableRepo.GetTableByID(ctx, nil, qr.TableID)
	if err != nil {
		return nil, fmt.Errorf("failed to get table %d: %w", qr.TableID, err)
	}
	if !table.IsActive {
		return nil, ErrTableInactive
	}
	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, qr.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant %d: %w", qr.RestaurantID, err)
	}
	if !restaurant.AcceptsOrders() {
		return nil, ErrRestaurantUnavailable
	}

	now := s.now()
	if err := s.qrRepo.RecordScan(ctx, qr.ID, now); err != nil {
		// Scan statistics are not worth refusing the customer over.
		utils.LogWarn("Failed to record QR scan", map[string]interface{}{"qr_id": qr.ID, "error": err.Error()})
	}

	sess := models.ScanSession{
		Token:        uuid.NewString(),
		RestaurantID: restaurant.ID,
		TableID:      table.ID,
		ExpiresAt:    now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store scan session: %w", err)
	}

	return &ScanResult{
		Session:        sess,
		RestaurantName: restaurant.Name,
		RestaurantSlug: restaurant.Slug,
		TableLabel:     table.Label,
	}, nil
}

// ResolveSession loads a scan session and re-checks that its table and
// restaurant can still take orders.
func (s *qrService) ResolveSession(ctx context.Context, token string) (*ScanContext, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrSessionInvalid
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("failed to load scan session: %w", err)
	}

	table, err := s.tableRepo.GetTableByID(ctx, nil, sess.TableID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrTableInactive
		}
		return nil, fmt.Errorf("failed to get table %d: %w", sess.TableID, err)
	}
	if !table.IsActive || table.RestaurantID != sess.RestaurantID {
		return nil, ErrTableInactive
	}
	restaurant, err := s.restaurantRepo.GetRestaurantByID(ctx, sess.RestaurantID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRestaurantUnavailable
		}
		return nil, fmt.Errorf("failed to get restaurant %d: %w", sess.RestaurantID, err)
	}
	if !restaurant.AcceptsOrders() {
		return nil, ErrRestaurantUnavailable
	}
	return &ScanContext{Session: sess, Restaurant: restaurant, Table: table}, nil
}
