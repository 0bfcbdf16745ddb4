package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/coursehub/lms/core/certificate"
)

const certificateColumns = `id, user_id, course_id, date_issued`

type certificateRow struct {
	ID         string    `db:"id"`
	UserID     string    `db:"user_id"`
	CourseID   string    `db:"course_id"`
	DateIssued time.Time `db:"date_issued"`
}

func (r certificateRow) certificate() certificate.Certificate {
	return certificate.Certificate{ID: r.ID, UserID: r.UserID, CourseID: r.CourseID, DateIssued: utc(r.DateIssued)}
}

type certificateRepository struct {
	db *sqlx.DB
}

var _ certificate.Repository = (*certificateRepository)(nil)

func NewCertificateRepository(db *sqlx.DB) certificate.Repository {
	return &certificateRepository{db: db}
}

func (repo *certificateRepository) CreateCertificate(ctx context.Context, cert certificate.Certificate) (certificate.Certificate, bool, error) {
	var row certificateRow
	err := repo.db.GetContext(ctx, &row, `
		INSERT INTO certificates (`+certificateColumns+`) VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, course_id) DO NOTHING
		RETURNING `+certificateColumns,
		uuid.NewString(), cert.UserID, cert.CourseID, cert.DateIssued,
	)
	switch {
	case err == sql.ErrNoRows: // already issued
		err = repo.db.GetContext(ctx, &row,
			`SELECT `+certificateColumns+` FROM certificates WHERE user_id = $1 AND course_id = $2`, cert.UserID, cert.CourseID)
		if err != nil {
			return certificate.Certificate{}, false, storageErr(err, "selecting certificate")
		}
		return row.certificate(), false, nil
	case err != nil:
		return certificate.Certificate{}, false, storageErr(err, "inserting certificate")
	}
	return row.certificate(), true, nil
}

func (repo *certificateRepository) GetCertificate(ctx context.Context, id string) (certificate.Certificate, error) {
	if !validUUID(id) {
		return certificate.Certificate{}, certificate.ErrNotFound
	}
	var row certificateRow
	err := repo.db.GetContext(ctx, &row, `SELECT `+certificateColumns+` FROM certificates WHERE id = $1`, id)
	switch {
	case err == sql.ErrNoRows:
		return certificate.Certificate{}, certificate.ErrNotFound
	case err != nil:
		return certificate.Certificate{}, storageErr(err, "selecting certificate")
	}
	return row.certificate(), nil
}

func (repo *certificateRepository) QueryCertificatesByUser(ctx context.Context, userID string) ([]certificate.Certificate, error) {
	res := make([]certificate.Certificate, 0)
	if !validUUID(userID) {
		return res, nil
	}
	var rows []certificateRow
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+certificateColumns+` FROM certificates WHERE user_id = $1 ORDER BY date_issued`, userID)
	if err != nil {
		return nil, storageErr(err, "selecting certificates")
	}
	for _, r := range rows {
		res = append(res, r.certificate())
	}
	return res, nil
}
