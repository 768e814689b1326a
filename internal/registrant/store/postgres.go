package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"gatepass/internal/registrant/models"
	id "gatepass/pkg/domain"
	"gatepass/pkg/platform/sentinel"
	txcontext "gatepass/pkg/platform/tx"
)

// PostgresStore persists registrants in PostgreSQL. Uniqueness of email and
// registration number rides on database constraints; the losing writer of a
// race gets sentinel.ErrAlreadyUsed.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed registrant store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

const registrantColumns = `
	id, name, email, role, password_hash, profession, city, state, designation,
	phone, registration_number, payment_order_id, payment_id, payment_signature,
	payment_amount, payment_status, qr_content, qr_image_path,
	certificate_file, certificate_image, registered_at, updated_at`

// CreateIfEmailAvailable persists the registrant in a single INSERT so readers
// never observe a partial record.
func (s *PostgresStore) CreateIfEmailAvailable(ctx context.Context, r *models.Registrant) error {
	if r == nil {
		return fmt.Errorf("registrant is required")
	}
	query := `
		INSERT INTO registrants (` + registrantColumns + `)
		VALUES ($1, $2, lower($3), $4, $5, $6, $7, $8, $9, $10, $11,
		        $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(r.ID),
		r.Name,
		r.Email,
		string(r.Role),
		r.PasswordHash,
		r.Profession,
		r.City,
		r.State,
		r.Designation,
		r.Phone,
		r.RegistrationNumber.String(),
		r.Payment.OrderID,
		r.Payment.PaymentID,
		r.Payment.Signature,
		r.Payment.Amount,
		string(r.Payment.Status),
		r.QRContent,
		r.QRImagePath,
		r.CertificateFile,
		r.CertificateImage,
		r.RegisteredAt,
		r.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("email or registration number must be unique: %w", sentinel.ErrAlreadyUsed)
		}
		return fmt.Errorf("create registrant: %w", err)
	}
	return nil
}

// FindByID retrieves a registrant by its UUID.
func (s *PostgresStore) FindByID(ctx context.Context, registrantID id.RegistrantID) (*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE id = $1`
	r, err := scanRegistrant(s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(registrantID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registrant by id: %w", err)
	}
	return r, nil
}

// FindByEmail retrieves a registrant by email (case-insensitive).
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE email = lower($1)`
	r, err := scanRegistrant(s.execer(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registrant by email: %w", err)
	}
	return r, nil
}

// ListByRole returns all registrants holding the given role.
func (s *PostgresStore) ListByRole(ctx context.Context, role id.Role) ([]*models.Registrant, error) {
	query := `SELECT ` + registrantColumns + ` FROM registrants WHERE role = $1`
	rows, err := s.execer(ctx).QueryContext(ctx, query, string(role))
	if err != nil {
		return nil, fmt.Errorf("list registrants by role: %w", err)
	}
	defer rows.Close()

	var out []*models.Registrant
	for rows.Next() {
		r, err := scanRegistrant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registrant row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AttachCertificates sets both certificate refs only while either is missing,
// then reads the record back. The conditional UPDATE is the atomicity
// boundary; a concurrent writer that loses simply updates zero rows.
func (s *PostgresStore) AttachCertificates(ctx context.Context, registrantID id.RegistrantID, docPath, imagePath string) (*models.Registrant, error) {
	query := `
		UPDATE registrants
		SET certificate_file = $2, certificate_image = $3, updated_at = $4
		WHERE id = $1 AND (certificate_file = '' OR certificate_image = '')
	`
	if _, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(registrantID), docPath, imagePath, time.Now()); err != nil {
		return nil, fmt.Errorf("attach certificates: %w", err)
	}
	return s.FindByID(ctx, registrantID)
}

// SetQRImagePath repairs the verification image reference.
func (s *PostgresStore) SetQRImagePath(ctx context.Context, registrantID id.RegistrantID, path string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registrants SET qr_image_path = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(registrantID), path, time.Now())
	if err != nil {
		return fmt.Errorf("set qr image path: %w", err)
	}
	return requireRowAffected(res)
}

// UpdatePasswordHash replaces the stored credential hash.
func (s *PostgresStore) UpdatePasswordHash(ctx context.Context, registrantID id.RegistrantID, hash string) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE registrants SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(registrantID), hash, time.Now())
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return requireRowAffected(res)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistrant(row rowScanner) (*models.Registrant, error) {
	var (
		r         models.Registrant
		rawID     uuid.UUID
		role      string
		regNum    string
		payStatus string
	)
	err := row.Scan(
		&rawID, &r.Name, &r.Email, &role, &r.PasswordHash, &r.Profession,
		&r.City, &r.State, &r.Designation, &r.Phone, &regNum,
		&r.Payment.OrderID, &r.Payment.PaymentID, &r.Payment.Signature,
		&r.Payment.Amount, &payStatus, &r.QRContent, &r.QRImagePath,
		&r.CertificateFile, &r.CertificateImage, &r.RegisteredAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ID = id.RegistrantID(rawID)
	r.Role = id.Role(role)
	r.RegistrationNumber = id.RegistrationNumber(regNum)
	r.Payment.Status = models.PaymentStatus(payStatus)
	return &r, nil
}

func requireRowAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
