package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/repo"
)

const (
	maxProfileFieldRunes = 255
	maxClassRunes        = 64
)

var phoneRE = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{5,30}$`)

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	FullName     string `json:"full_name"`
	StudentClass string `json:"student_class"`
	ParentName   string `json:"parent_name"`
	ParentPhone  string `json:"parent_phone"`
	ParentEmail  string `json:"parent_email"`
	TeacherName  string `json:"teacher_name"`
	TeacherPhone string `json:"teacher_phone"`
	TeacherEmail string `json:"teacher_email"`
}

// ProfileService reads and updates the student profile and contacts used by
// alerts.
type ProfileService struct {
	DB *gorm.DB
}

// Get returns the stored profile, or an empty one for ownerID.
func (s *ProfileService) Get(ctx context.Context, ownerID string) (*domain.Profile, error) {
	p, err := repo.GetProfile(ctx, s.DB, ownerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return &domain.Profile{UserID: ownerID}, nil
		}
		return nil, err
	}
	return p, nil
}

// Update validates in and stores it as the owner's profile. Empty fields are
// allowed; non-empty emails and phone numbers must be well-formed.
func (s *ProfileService) Update(ctx context.Context, ownerID string, in ProfileInput) (*domain.Profile, error) {
	in = in.trimmed()
	if err := in.validate(); err != nil {
		return nil, err
	}
	return repo.UpsertProfile(ctx, s.DB, &domain.Profile{
		UserID:       ownerID,
		FullName:     in.FullName,
		StudentClass: in.StudentClass,
		ParentName:   in.ParentName,
		ParentPhone:  in.ParentPhone,
		ParentEmail:  in.ParentEmail,
		TeacherName:  in.TeacherName,
		TeacherPhone: in.TeacherPhone,
		TeacherEmail: in.TeacherEmail,
	})
}

func (in ProfileInput) trimmed() ProfileInput {
	return ProfileInput{
		FullName:     strings.TrimSpace(in.FullName),
		StudentClass: strings.TrimSpace(in.StudentClass),
		ParentName:   strings.TrimSpace(in.ParentName),
		ParentPhone:  strings.TrimSpace(in.ParentPhone),
		ParentEmail:  strings.TrimSpace(in.ParentEmail),
		TeacherName:  strings.TrimSpace(in.TeacherName),
		TeacherPhone: strings.TrimSpace(in.TeacherPhone),
		TeacherEmail: strings.TrimSpace(in.TeacherEmail),
	}
}

func (in ProfileInput) validate() error {
	for name, v := range map[string]string{
		"full_name":    in.FullName,
		"parent_name":  in.ParentName,
		"teacher_name": in.TeacherName,
	} {
		if utf8.RuneCountInString(v) > maxProfileFieldRunes {
			return fmt.Errorf("%w: %s is too long", ErrInvalidProfile, name)
		}
	}
	if utf8.RuneCountInString(in.StudentClass) > maxClassRunes {
		return fmt.Errorf("%w: student_class is too long", ErrInvalidProfile)
	}
	for name, v := range map[string]string{"parent_email": in.ParentEmail, "teacher_email": in.TeacherEmail} {
		if v == "" {
			continue
		}
		if len(v) > maxProfileFieldRunes {
			return fmt.Errorf("%w: %s is too long", ErrInvalidProfile, name)
		}
		addr, err := mail.ParseAddress(v)
		if err != nil || addr.Address != v {
			return fmt.Errorf("%w: %s is not a valid address", ErrInvalidProfile, name)
		}
	}
	for name, v := range map[string]string{"parent_phone": in.ParentPhone, "teacher_phone": in.TeacherPhone} {
		if v != "" && !phoneRE.MatchString(v) {
			return fmt.Errorf("%w: %s is not a valid phone number", ErrInvalidProfile, name)
		}
	}
	return nil
}
