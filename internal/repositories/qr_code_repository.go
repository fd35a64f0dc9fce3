package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/qrtist/backend/internal/models"
	"go.uber.org/zap"
)

// mysqlDuplicateEntry is the MySQL error number for unique key violations
const mysqlDuplicateEntry = 1062

const qrCodeColumns = `id, content_type, original_content, source_file_ref, source_file_name, source_file_size,
		artifact_ref, size, fill_color, back_color, ip_address, user_agent,
		created_at, download_count, last_downloaded_at`

type qrCodeRepository struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewQRCodeRepository creates a new QR code repository
func NewQRCodeRepository(db *sql.DB, logger *zap.Logger) *qrCodeRepository {
	return &qrCodeRepository{
		db:     db,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// scanQRCode reads one row selected with qrCodeColumns
func scanQRCode(s rowScanner) (*models.QRCode, error) {
	var (
		q               models.QRCode
		originalContent sql.NullString
		sourceFileRef   sql.NullString
		sourceFileName  sql.NullString
		sourceFileSize  sql.NullInt64
		ipAddress       sql.NullString
		userAgent       sql.NullString
		lastDownloaded  sql.NullTime
	)

	err := s.Scan(
		&q.ID,
		&q.ContentType,
		&originalContent,
		&sourceFileRef,
		&sourceFileName,
		&sourceFileSize,
		&q.ArtifactRef,
		&q.Options.ModuleSize,
		&q.Options.Foreground,
		&q.Options.Background,
		&ipAddress,
		&userAgent,
		&q.CreatedAt,
		&q.DownloadCount,
		&lastDownloaded,
	)
	if err != nil {
		return nil, err
	}

	q.OriginalContent = originalContent.String
	q.SourceFileRef = sourceFileRef.String
	q.SourceFileName = sourceFileName.String
	q.SourceFileSize = sourceFileSize.Int64
	q.Origin.IPAddress = ipAddress.String
	q.Origin.UserAgent = userAgent.String
	if lastDownloaded.Valid {
		t := lastDownloaded.Time
		q.LastDownloadedAt = &t
	}

	return &q, nil
}

// nullString stores empty strings as NULL
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Create inserts a new QR code record.
// Returns ErrConflict if the id or artifact reference already exists.
func (r *qrCodeRepository) Create(ctx context.Context, q *models.QRCode) error {
	query := `
		INSERT INTO qr_codes (` + qrCodeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var sourceFileSize sql.NullInt64
	if q.ContentType.IsFile() {
		sourceFileSize = sql.NullInt64{Int64: q.SourceFileSize, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		q.ID,
		q.ContentType,
		nullString(q.OriginalContent),
		nullString(q.SourceFileRef),
		nullString(q.SourceFileName),
		sourceFileSize,
		q.ArtifactRef,
		q.Options.ModuleSize,
		q.Options.Foreground,
		q.Options.Background,
		nullString(q.Origin.IPAddress),
		nullString(q.Origin.UserAgent),
		q.CreatedAt,
		q.DownloadCount,
		q.LastDownloadedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return fmt.Errorf("%w: qr code %s: %s", models.ErrConflict, q.ID, mysqlErr.Message)
		}
		r.logger.Error("failed to insert qr code", zap.Error(err), zap.String("record_id", q.ID))
		return fmt.Errorf("failed to create qr code: %w", err)
	}

	return nil
}

// GetByID retrieves a QR code record by its ID
func (r *qrCodeRepository) GetByID(ctx context.Context, id string) (*models.QRCode, error) {
	query := `
		SELECT ` + qrCodeColumns + `
		FROM qr_codes
		WHERE id = ?
		LIMIT 1
	`

	q, err := scanQRCode(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: qr code %s", models.ErrNotFound, id)
	}
	if err != nil {
		r.logger.Error("failed to query qr code by id", zap.Error(err), zap.String("record_id", id))
		return nil, fmt.Errorf("failed to get qr code by id: %w", err)
	}

	return q, nil
}

// List retrieves at most limit records, most recent first
func (r *qrCodeRepository) List(ctx context.Context, limit int) ([]models.QRCode, error) {
	query := `
		SELECT ` + qrCodeColumns + `
		FROM qr_codes
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	return r.queryList(ctx, query, limit)
}

// RecentlyDownloaded retrieves at most limit records that were downloaded at least once,
// most recently downloaded first
func (r *qrCodeRepository) RecentlyDownloaded(ctx context.Context, limit int) ([]models.QRCode, error) {
	query := `
		SELECT ` + qrCodeColumns + `
		FROM qr_codes
		WHERE last_downloaded_at IS NOT NULL
		ORDER BY last_downloaded_at DESC, id DESC
		LIMIT ?
	`

	return r.queryList(ctx, query, limit)
}

// queryList runs a select over qrCodeColumns and collects every row
func (r *qrCodeRepository) queryList(ctx context.Context, query string, args ...any) ([]models.QRCode, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query qr codes", zap.Error(err))
		return nil, fmt.Errorf("failed to query qr codes: %w", err)
	}
	defer rows.Close()

	codes := make([]models.QRCode, 0)
	for rows.Next() {
		q, err := scanQRCode(rows)
		if err != nil {
			r.logger.Error("failed to scan qr code", zap.Error(err))
			return nil, fmt.Errorf("failed to scan qr code: %w", err)
		}
		codes = append(codes, *q)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("error iterating rows", zap.Error(err))
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return codes, nil
}

// IncrementDownload atomically increments the download counter of a record, moves its
// last download time forward and returns the updated record.
//
// The increment is a single UPDATE, so concurrent calls on the same id serialize on the
// row lock and none of them is lost. The follow-up SELECT runs in the same transaction
// and therefore observes this call's increment.
func (r *qrCodeRepository) IncrementDownload(ctx context.Context, id string) (*models.QRCode, error) {
	now := r.now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	updateQuery := `
		UPDATE qr_codes
		SET download_count = download_count + 1,
			last_downloaded_at = GREATEST(COALESCE(last_downloaded_at, ?), ?)
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, updateQuery, now, now, id)
	if err != nil {
		r.logger.Error("failed to increment download count", zap.Error(err), zap.String("record_id", id))
		return nil, fmt.Errorf("failed to increment download count: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, fmt.Errorf("%w: qr code %s", models.ErrNotFound, id)
	}

	selectQuery := `
		SELECT ` + qrCodeColumns + `
		FROM qr_codes
		WHERE id = ?
	`

	q, err := scanQRCode(tx.QueryRowContext(ctx, selectQuery, id))
	if err != nil {
		r.logger.Error("failed to read incremented qr code", zap.Error(err), zap.String("record_id", id))
		return nil, fmt.Errorf("failed to read qr code: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return q, nil
}

// CountByType returns the number of records per content type.
// Every known content type is present in the result, absent types count as zero.
func (r *qrCodeRepository) CountByType(ctx context.Context) (map[models.ContentType]int64, error) {
	query := `
		SELECT content_type, COUNT(*)
		FROM qr_codes
		GROUP BY content_type
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to count qr codes by type", zap.Error(err))
		return nil, fmt.Errorf("failed to count qr codes by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.ContentType]int64, len(models.ContentTypes))
	for _, ct := range models.ContentTypes {
		counts[ct] = 0
	}

	for rows.Next() {
		var (
			ct    models.ContentType
			count int64
		)
		if err := rows.Scan(&ct, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[ct] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return counts, nil
}

// Count returns the total number of records
func (r *qrCodeRepository) Count(ctx context.Context) (int64, error) {
	return r.queryInt(ctx, `SELECT COUNT(*) FROM qr_codes`)
}

// CountToday returns the number of records created since the start of the current UTC day
func (r *qrCodeRepository) CountToday(ctx context.Context) (int64, error) {
	now := r.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return r.queryInt(ctx, `SELECT COUNT(*) FROM qr_codes WHERE created_at >= ?`, startOfDay)
}

// TotalDownloads returns the sum of every record's download counter
func (r *qrCodeRepository) TotalDownloads(ctx context.Context) (int64, error) {
	return r.queryInt(ctx, `SELECT COALESCE(SUM(download_count), 0) FROM qr_codes`)
}

// queryInt runs a query that yields a single integer
func (r *qrCodeRepository) queryInt(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		r.logger.Error("failed to run aggregate query", zap.Error(err))
		return 0, fmt.Errorf("failed to run aggregate query: %w", err)
	}
	return n, nil
}

// MostDownloaded returns the record with the highest download counter.
// Returns nil without error when there are no records.
func (r *qrCodeRepository) MostDownloaded(ctx context.Context) (*models.QRCode, error) {
	query := `
		SELECT ` + qrCodeColumns + `
		FROM qr_codes
		ORDER BY download_count DESC, created_at DESC
		LIMIT 1
	`

	q, err := scanQRCode(r.db.QueryRowContext(ctx, query))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to query most downloaded qr code", zap.Error(err))
		return nil, fmt.Errorf("failed to get most downloaded qr code: %w", err)
	}

	return q, nil
}

// ArtifactReferenced reports whether any record points at the given artifact
func (r *qrCodeRepository) ArtifactReferenced(ctx context.Context, artifactRef string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM qr_codes WHERE artifact_ref = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, artifactRef).Scan(&exists); err != nil {
		r.logger.Error("failed to check artifact reference", zap.Error(err), zap.String("artifact_ref", artifactRef))
		return false, fmt.Errorf("failed to check artifact reference: %w", err)
	}

	return exists, nil
}
