package inmemdb

import (
	"sync"

	"github.com/coursehub/lms/core/certificate"
	"github.com/coursehub/lms/core/course"
	"github.com/coursehub/lms/core/progress"
	"github.com/coursehub/lms/core/user"
)

type progressKey struct {
	userID   string
	courseID string
}

// DB is an in-memory store. Every repository shares its lock, so each call is atomic.
type DB struct {
	mu sync.RWMutex

	users        map[string]*user.User
	courses      map[string]*course.Course
	progress     map[progressKey]*progress.Progress
	records      map[progressKey]*progress.Record
	certificates map[string]*certificate.Certificate
}

func Open() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		courses:      make(map[string]*course.Course),
		progress:     make(map[progressKey]*progress.Progress),
		records:      make(map[progressKey]*progress.Record),
		certificates: make(map[string]*certificate.Certificate),
	}
}

// Flush removes everything.
func (db *DB) Flush() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.courses = make(map[string]*course.Course)
	db.progress = make(map[progressKey]*progress.Progress)
	db.records = make(map[progressKey]*progress.Record)
	db.certificates = make(map[string]*certificate.Certificate)
}

func copyStrings(s []string) []string {
	res := make([]string, len(s))
	copy(res, s)
	return res
}
