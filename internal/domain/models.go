// Package domain defines the persistence models for uploaded chat screenshots,
// their AI risk analyses, analysis feedback and student profiles. These types
// are mapped with GORM and form the core data layer of the service.
//
// JSON tags are the single naming used on the wire (snake_case); no other
// field naming is carried through the application.
package domain

import (
	"time"
)

// Upload is a screenshot submitted by a student for analysis.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - UserID: owner of the upload; indexed for history queries.
//   - ImageURL: public location of the stored image; never changes.
//   - ObjectKey: key of the image in the object store ({owner}/{millis}.{ext}).
//   - ContentType: sniffed MIME type of the stored image.
//   - Status: lifecycle state (see Status); guarded by a DB check constraint.
//   - UploadedAt: creation time; never changes.
//   - UpdatedAt: last status change.
type Upload struct {
	ID          string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID      string    `json:"user_id"      gorm:"type:varchar(64);not null;index:idx_user_uploads,priority:1"`
	ImageURL    string    `json:"image_url"    gorm:"type:text;not null"`
	ObjectKey   string    `json:"-"            gorm:"type:varchar(255);not null;default:''"`
	ContentType string    `json:"content_type" gorm:"type:varchar(64);not null;default:''"`
	Status      Status    `json:"status"       gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','analyzing','analyzed','error')"`
	UploadedAt  time.Time `json:"uploaded_at"  gorm:"not null;index:idx_user_uploads,priority:2"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for Upload.
func (Upload) TableName() string { return "uploads" }

// Analysis is the normalized model verdict for one upload. At most one row
// exists per upload (unique index); re-analysis overwrites it in place.
type Analysis struct {
	ID              string    `json:"id"               gorm:"type:char(36);primaryKey"`
	UploadID        string    `json:"upload_id"        gorm:"type:char(36);not null;uniqueIndex:ux_analysis_upload"`
	RiskLevel       RiskLevel `json:"risk_level"       gorm:"type:varchar(8);not null;index;check:risk_level IN ('high','medium','low')"`
	RiskType        string    `json:"risk_type"        gorm:"type:varchar(64);not null"`
	ConfidenceScore float64   `json:"confidence_score" gorm:"not null;check:confidence_score >= 0 AND confidence_score <= 100"`
	ExtractedText   string    `json:"extracted_text"   gorm:"type:text;not null"`
	Summary         string    `json:"summary"          gorm:"type:text;not null"`
	Model           string    `json:"model,omitempty"  gorm:"type:varchar(128);not null;default:''"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
	UpdatedAt       time.Time `json:"-"`

	// Upload owns the analysis; deleting it removes the analysis.
	Upload Upload `json:"-" gorm:"foreignKey:UploadID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Analysis.
func (Analysis) TableName() string { return "ai_analysis" }

// Result returns the normalized fields of the analysis.
func (a Analysis) Result() Result {
	return Result{
		RiskLevel:       a.RiskLevel,
		RiskType:        a.RiskType,
		ConfidenceScore: a.ConfidenceScore,
		ExtractedText:   a.ExtractedText,
		Summary:         a.Summary,
	}
}

// Feedback is a student's agreement (+1) or disagreement (-1) with an
// analysis. One entry per (analysis, user); cleared when the analysis is
// replaced by a re-analysis.
type Feedback struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	AnalysisID string    `json:"analysis_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_feedback_analysis_user"`
	UserID     string    `json:"user_id"     gorm:"type:varchar(64);not null;uniqueIndex:ux_feedback_analysis_user"`
	Value      int       `json:"value"       gorm:"not null;check:value IN (-1,1)"`
	CreatedAt  time.Time `json:"created_at"`

	Analysis Analysis `json:"-" gorm:"foreignKey:AnalysisID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Feedback.
func (Feedback) TableName() string { return "analysis_feedback" }

// Profile holds the student identity and the contacts alerted on risky
// analyses.
type Profile struct {
	UserID       string    `json:"user_id"       gorm:"type:varchar(64);primaryKey"`
	FullName     string    `json:"full_name"     gorm:"type:varchar(255);not null;default:''"`
	StudentClass string    `json:"student_class" gorm:"type:varchar(64);not null;default:''"`
	ParentName   string    `json:"parent_name"   gorm:"type:varchar(255);not null;default:''"`
	ParentPhone  string    `json:"parent_phone"  gorm:"type:varchar(32);not null;default:''"`
	ParentEmail  string    `json:"parent_email"  gorm:"type:varchar(255);not null;default:''"`
	TeacherName  string    `json:"teacher_name"  gorm:"type:varchar(255);not null;default:''"`
	TeacherPhone string    `json:"teacher_phone" gorm:"type:varchar(32);not null;default:''"`
	TeacherEmail string    `json:"teacher_email" gorm:"type:varchar(255);not null;default:''"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Entry is one history row: an upload joined with its analysis, if any.
type Entry struct {
	Upload
	Analysis *Analysis `json:"analysis"`
}
