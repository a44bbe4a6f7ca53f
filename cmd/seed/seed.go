package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"labreserve/internal/domain"
	"labreserve/internal/modules/auth"
	"labreserve/internal/pkg/validator"
	"labreserve/internal/repository"
)

type seedFile struct {
	Users []seedUser `yaml:"users" validate:"dive"`
	Labs  []seedLab  `yaml:"labs" validate:"dive"`
}

type seedUser struct {
	Email    string `yaml:"email" validate:"required,email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role" validate:"required,oneof=admin lab_manager professor student"`
	Password string `yaml:"password"`
}

type seedLab struct {
	Name         string            `yaml:"name" validate:"required"`
	Location     string            `yaml:"location"`
	Description  string            `yaml:"description"`
	Open         string            `yaml:"open"`
	Close        string            `yaml:"close"`
	Hours        []seedHours       `yaml:"hours" validate:"dive"`
	ClosedDays   []seedClosedDay   `yaml:"closed_days"`
	Workstations []seedWorkstation `yaml:"workstations" validate:"dive"`
	Managers     []string          `yaml:"managers"`
}

type seedHours struct {
	Day    int    `yaml:"day" validate:"min=0,max=6"`
	Open   string `yaml:"open"`
	Close  string `yaml:"close"`
	Closed bool   `yaml:"closed"`
}

type seedClosedDay struct {
	Date      string `yaml:"date"`
	DayOfWeek *int   `yaml:"day_of_week"`
	Reason    string `yaml:"reason"`
}

type seedWorkstation struct {
	Name     string `yaml:"name" validate:"required"`
	Inactive bool   `yaml:"inactive"`
}

var roles = map[string]domain.UserRole{
	"admin":       domain.RoleAdmin,
	"lab_manager": domain.RoleLabManager,
	"professor":   domain.RoleProfessor,
	"student":     domain.RoleStudent,
}

func parseSeed(r io.Reader) (*seedFile, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	if fields := validator.Validate(f); fields != nil {
		return nil, fmt.Errorf("invalid seed file: %v", fields)
	}
	return &f, nil
}

// seeder applies a seed file idempotently: users match on e-mail, labs on
// name, workstations on name within their lab.
type seeder struct {
	store *repository.Store
	log   *zap.Logger
}

func (s *seeder) apply(ctx context.Context, f *seedFile) error {
	return s.store.WithTx(ctx, func(tx *repository.Store) error {
		byEmail := map[string]int64{}
		for _, su := range f.Users {
			u, err := s.user(ctx, tx, su)
			if err != nil {
				return err
			}
			byEmail[u.Email] = u.ID
		}

		existing, err := tx.Catalog.ListLabs(ctx)
		if err != nil {
			return err
		}
		byName := map[string]domain.Lab{}
		for _, l := range existing {
			byName[l.Name] = l
		}

		for _, sl := range f.Labs {
			lab := byName[sl.Name]
			lab.Name = sl.Name
			lab.Location = sl.Location
			lab.Description = sl.Description
			lab.DefaultOpenTime = sl.Open
			lab.DefaultCloseTime = sl.Close
			if err := tx.Catalog.SaveLab(ctx, &lab); err != nil {
				return fmt.Errorf("lab %s: %w", sl.Name, err)
			}
			if err := s.labDetails(ctx, tx, &lab, sl, byEmail); err != nil {
				return fmt.Errorf("lab %s: %w", sl.Name, err)
			}
			s.log.Info("lab seeded", zap.String("lab", lab.Name), zap.Int64("lab_id", lab.ID))
		}
		return nil
	})
}

func (s *seeder) user(ctx context.Context, tx *repository.Store, su seedUser) (*domain.User, error) {
	u := &domain.User{
		Email: strings.ToLower(strings.TrimSpace(su.Email)),
		Name:  su.Name,
		Role:  roles[strings.ToLower(su.Role)],
	}
	if su.Password != "" {
		hash, err := auth.HashPassword(su.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := tx.Users.Upsert(ctx, u); err != nil {
		return nil, fmt.Errorf("user %s: %w", u.Email, err)
	}
	s.log.Info("user seeded", zap.String("email", u.Email), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *seeder) labDetails(ctx context.Context, tx *repository.Store, lab *domain.Lab, sl seedLab, byEmail map[string]int64) error {
	for _, h := range sl.Hours {
		err := tx.Catalog.SaveOperatingHours(ctx, &domain.LabOperatingHours{
			LabID: lab.ID, DayOfWeek: h.Day, OpenTime: h.Open, CloseTime: h.Close, IsClosed: h.Closed,
		})
		if err != nil {
			return err
		}
	}

	known, err := tx.Catalog.ListClosedDays(ctx, lab.ID)
	if err != nil {
		return err
	}
	for _, sc := range sl.ClosedDays {
		d := domain.LabClosedDay{LabID: lab.ID, DayOfWeek: sc.DayOfWeek, Reason: sc.Reason}
		if sc.Date != "" {
			date, err := time.Parse("2006-01-02", sc.Date)
			if err != nil {
				return fmt.Errorf("closed day %q: %w", sc.Date, err)
			}
			d.Date = &date
		}
		if d.Date == nil && d.DayOfWeek == nil {
			return fmt.Errorf("closed day needs a date or day_of_week")
		}
		if containsClosedDay(known, d) {
			continue
		}
		if err := tx.Catalog.SaveClosedDay(ctx, &d); err != nil {
			return err
		}
	}

	stations, err := tx.Catalog.ListWorkstations(ctx, lab.ID)
	if err != nil {
		return err
	}
	wsByName := map[string]domain.Workstation{}
	for _, ws := range stations {
		wsByName[ws.Name] = ws
	}
	for _, sw := range sl.Workstations {
		ws := wsByName[sw.Name]
		ws.LabID = lab.ID
		ws.Name = sw.Name
		ws.IsActive = !sw.Inactive
		if err := tx.Catalog.SaveWorkstation(ctx, &ws); err != nil {
			return err
		}
	}

	for _, email := range sl.Managers {
		id, ok := byEmail[strings.ToLower(strings.TrimSpace(email))]
		if !ok {
			u, err := tx.Users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("manager %s: %w", email, err)
			}
			id = u.ID
		}
		if err := tx.Catalog.AssignManager(ctx, id, lab.ID); err != nil {
			return err
		}
	}
	return nil
}

func containsClosedDay(known []domain.LabClosedDay, d domain.LabClosedDay) bool {
	for _, k := range known {
		switch {
		case d.DayOfWeek != nil && k.DayOfWeek != nil && *k.DayOfWeek == *d.DayOfWeek:
			return true
		case d.Date != nil && k.Date != nil && k.Date.Format("2006-01-02") == d.Date.Format("2006-01-02"):
			return true
		}
	}
	return false
}
