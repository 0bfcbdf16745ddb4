package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/coursehub/lms/core/certificate"
)

type certificateRepository struct {
	db *DB
}

var _ certificate.Repository = (*certificateRepository)(nil)

func NewCertificateRepository(db *DB) certificate.Repository {
	return &certificateRepository{db: db}
}

func (repo *certificateRepository) CreateCertificate(_ context.Context, cert certificate.Certificate) (certificate.Certificate, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, c := range repo.db.certificates {
		if c.UserID == cert.UserID && c.CourseID == cert.CourseID {
			return *c, false, nil
		}
	}
	cert.ID = uuid.NewString()
	cert.Code = ""
	repo.db.certificates[cert.ID] = &cert
	return cert, true, nil
}

func (repo *certificateRepository) GetCertificate(_ context.Context, id string) (certificate.Certificate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.certificates[id]; ok {
		return *c, nil
	}
	return certificate.Certificate{}, certificate.ErrNotFound
}

func (repo *certificateRepository) QueryCertificatesByUser(_ context.Context, userID string) ([]certificate.Certificate, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	res := make([]certificate.Certificate, 0)
	for _, c := range repo.db.certificates {
		if c.UserID == userID {
			res = append(res, *c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].DateIssued.Before(res[j].DateIssued) })
	return res, nil
}
