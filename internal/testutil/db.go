package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"labreserve/internal/database"
	"labreserve/internal/domain"
)

// OpenDB returns a migrated SQLite database in a temp dir. WAL lets readers
// on other connections see committed rows while a write transaction runs.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := database.Connect(dsn, zap.NewNop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// Fixture is a small catalog shared by service tests: one lab open 08:00-20:00
// with two active workstations and one inactive, a second lab, a manager
// assigned to the first lab, a professor, an admin and a student.
type Fixture struct {
	Lab       domain.Lab
	OtherLab  domain.Lab
	WS1, WS2  domain.Workstation
	Inactive  domain.Workstation
	ForeignWS domain.Workstation

	Admin     domain.User
	Manager   domain.User
	Manager2  domain.User
	Professor domain.User
	Student   domain.User
}

func Seed(t *testing.T, db *gorm.DB) *Fixture {
	t.Helper()

	f := &Fixture{
		Lab:       domain.Lab{Name: "Robotics", DefaultOpenTime: "08:00", DefaultCloseTime: "20:00"},
		OtherLab:  domain.Lab{Name: "Chemistry", DefaultOpenTime: "08:00", DefaultCloseTime: "20:00"},
		Admin:     domain.User{Email: "admin@lab.test", Role: domain.RoleAdmin, Name: "Ada Admin"},
		Manager:   domain.User{Email: "manager@lab.test", Role: domain.RoleLabManager, Name: "Max Manager"},
		Manager2:  domain.User{Email: "manager2@lab.test", Role: domain.RoleLabManager, Name: "Mia Manager"},
		Professor: domain.User{Email: "prof@lab.test", Role: domain.RoleProfessor, Name: "Pat Professor"},
		Student:   domain.User{Email: "student@lab.test", Role: domain.RoleStudent, Name: "Sam Student"},
	}

	mustCreate(t, db, &f.Lab, &f.OtherLab)
	mustCreate(t, db, &f.Admin, &f.Manager, &f.Manager2, &f.Professor, &f.Student)

	f.WS1 = domain.Workstation{LabID: f.Lab.ID, Name: "Bench 1", IsActive: true}
	f.WS2 = domain.Workstation{LabID: f.Lab.ID, Name: "Bench 2", IsActive: true}
	f.Inactive = domain.Workstation{LabID: f.Lab.ID, Name: "Bench 3", IsActive: false}
	f.ForeignWS = domain.Workstation{LabID: f.OtherLab.ID, Name: "Hood 1", IsActive: true}
	mustCreate(t, db, &f.WS1, &f.WS2, &f.Inactive, &f.ForeignWS)

	mustCreate(t, db,
		&domain.LabManager{UserID: f.Manager.ID, LabID: f.Lab.ID, IsActive: true},
		&domain.LabManager{UserID: f.Manager2.ID, LabID: f.OtherLab.ID, IsActive: true},
	)
	return f
}

func mustCreate(t *testing.T, db *gorm.DB, rows ...interface{}) {
	t.Helper()
	for _, r := range rows {
		if err := db.Create(r).Error; err != nil {
			t.Fatalf("seed %T: %v", r, err)
		}
	}
}

// Clock is a settable time source.
type Clock struct {
	T time.Time
}

func (c *Clock) Now() time.Time {
	return c.T
}
