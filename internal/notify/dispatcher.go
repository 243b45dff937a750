// Package notify delivers risk alerts to parents and teachers.
//
// Alerts are posted as JSON to a single webhook (an n8n workflow that fans
// out to Zalo/SMS/email). Delivery is best-effort: failures are logged and
// reported as "not sent", never returned as errors.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/safestudent/safe-student-backend/internal/domain"
	"github.com/safestudent/safe-student-backend/internal/observability"
)

const defaultTimeout = 10 * time.Second

// Contact is one alert recipient.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// Context carries what the alert needs beyond the analysis itself.
type Context struct {
	StudentName  string
	StudentClass string
	ImageURL     string
	Parent       Contact
	Teacher      Contact
}

// ContextFromProfile builds an alert context from a stored profile.
// A nil profile yields empty student and recipient fields.
func ContextFromProfile(p *domain.Profile, imageURL string) Context {
	c := Context{ImageURL: imageURL}
	if p == nil {
		return c
	}
	c.StudentName = p.FullName
	c.StudentClass = p.StudentClass
	c.Parent = Contact{Name: p.ParentName, Phone: p.ParentPhone, Email: p.ParentEmail}
	c.Teacher = Contact{Name: p.TeacherName, Phone: p.TeacherPhone, Email: p.TeacherEmail}
	return c
}

// Payload is the webhook body.
type Payload struct {
	Student    Student    `json:"student"`
	Alert      Alert      `json:"alert"`
	Content    Content    `json:"content"`
	Recipients Recipients `json:"recipients"`
}

// Student identifies who the screenshot came from.
type Student struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// Alert carries the risk assessment; Timestamp is RFC 3339 UTC.
type Alert struct {
	RiskLevel       domain.RiskLevel `json:"riskLevel"`
	RiskLabel       string           `json:"riskLabel"`
	RiskType        string           `json:"riskType"`
	ConfidenceScore float64          `json:"confidenceScore"`
	Timestamp       string           `json:"timestamp"`
}

// Content is what the model read and concluded, plus a link to the image.
type Content struct {
	ExtractedText string `json:"extractedText"`
	Summary       string `json:"summary"`
	ImageURL      string `json:"imageUrl"`
}

// Recipients are the contacts the workflow should notify.
type Recipients struct {
	Parent  Contact `json:"parent"`
	Teacher Contact `json:"teacher"`
}

// ShouldAlert reports whether an analysis at level warrants notifying
// guardians: high and medium do, low does not.
func ShouldAlert(level domain.RiskLevel) bool { return level.Alerting() }

// Dispatcher posts alerts to the configured webhook.
type Dispatcher struct {
	url    string
	client *http.Client
	now    func() time.Time
}

// NewDispatcher creates a dispatcher. An empty url disables delivery.
// timeout <= 0 uses 10s.
func NewDispatcher(url string, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Dispatcher{
		url:    strings.TrimSpace(url),
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Enabled reports whether a webhook URL is configured.
func (d *Dispatcher) Enabled() bool { return d != nil && d.url != "" }

// BuildPayload maps an analysis and its context to the webhook body.
func (d *Dispatcher) BuildPayload(a domain.Analysis, ac Context) Payload {
	ts := a.AnalyzedAt
	if ts.IsZero() {
		ts = d.now()
	}
	return Payload{
		Student: Student{Name: ac.StudentName, Class: ac.StudentClass},
		Alert: Alert{
			RiskLevel:       a.RiskLevel,
			RiskLabel:       a.RiskLevel.Label(),
			RiskType:        a.RiskType,
			ConfidenceScore: a.ConfidenceScore,
			Timestamp:       ts.UTC().Format(time.RFC3339),
		},
		Content: Content{
			ExtractedText: a.ExtractedText,
			Summary:       a.Summary,
			ImageURL:      ac.ImageURL,
		},
		Recipients: Recipients{Parent: ac.Parent, Teacher: ac.Teacher},
	}
}

// MaybeAlert sends an alert when the analysis warrants one and a webhook is
// configured. It returns true only when the webhook answered 2xx.
func (d *Dispatcher) MaybeAlert(ctx context.Context, a domain.Analysis, ac Context) bool {
	log := zerolog.Ctx(ctx).With().
		Str("upload_id", a.UploadID).
		Str("risk_level", string(a.RiskLevel)).
		Logger()

	if !ShouldAlert(a.RiskLevel) {
		observability.AlertsTotal.WithLabelValues(observability.OutcomeSkipped).Inc()
		return false
	}
	if !d.Enabled() {
		log.Warn().Msg("alert webhook not configured; skipping alert")
		observability.AlertsTotal.WithLabelValues(observability.OutcomeSkipped).Inc()
		return false
	}

	if err := d.send(ctx, d.BuildPayload(a, ac)); err != nil {
		log.Error().Err(err).Msg("alert webhook failed")
		observability.AlertsTotal.WithLabelValues(observability.OutcomeError).Inc()
		return false
	}
	log.Info().Msg("alert sent")
	observability.AlertsTotal.WithLabelValues(observability.OutcomeSuccess).Inc()
	return true
}

func (d *Dispatcher) send(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
