// Package activity records and lists the audit log of model changes.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/panelkit/panelkit/internal/db/models"
	"github.com/panelkit/panelkit/internal/pagination"
)

// DefaultLogName is the log name of model events.
const DefaultLogName = "default"

// Model events.
const (
	EventCreated = "created"
	EventUpdated = "updated"
	EventDeleted = "deleted"
)

// SubjectUser is the subject type of user events.
const SubjectUser = "User"

// labelKeys is the priority list used to name a subject from its properties.
var labelKeys = []string{"name", "title", "label", "subject", "heading", "email"} //nolint:gochecknoglobals

// userFields are the user attributes recorded in the log.
var userFields = []string{"name", "email"} //nolint:gochecknoglobals

type causerKey struct{}

// WithCauser returns a context attributing logged changes to userID.
func WithCauser(ctx context.Context, userID uint64) context.Context {
	return context.WithValue(ctx, causerKey{}, userID)
}

// CauserFrom returns the causer stored by WithCauser.
func CauserFrom(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(causerKey{}).(uint64)

	return id, ok && id > 0
}

// Entry is a change to record.
type Entry struct {
	LogName     string
	Description string
	Event       string
	SubjectType string
	SubjectID   uint64
	Properties  map[string]any
}

// Logger writes and reads activity_log rows.
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a Logger.
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// Log records e. The causer is taken from ctx.
func (l *Logger) Log(ctx context.Context, e Entry) error {
	return l.write(l.db.WithContext(ctx), e)
}

// LogTx records e inside tx.
func (l *Logger) LogTx(tx *gorm.DB, e Entry) error {
	return l.write(tx, e)
}

func (l *Logger) write(tx *gorm.DB, e Entry) error {
	if e.LogName == "" {
		e.LogName = DefaultLogName
	}

	if e.Description == "" {
		e.Description = e.Event
	}

	props, err := json.Marshal(e.Properties)
	if err != nil {
		return fmt.Errorf("failed to encode activity properties: %w", err)
	}

	row := models.Activity{
		LogName:     e.LogName,
		Description: e.Description,
		Event:       e.Event,
		SubjectType: e.SubjectType,
		Properties:  datatypes.JSON(props),
	}

	if e.SubjectID > 0 {
		id := e.SubjectID
		row.SubjectID = &id
	}

	if ctx := tx.Statement.Context; ctx != nil {
		if causer, ok := CauserFrom(ctx); ok {
			row.CauserID = &causer
		}
	}

	if err := tx.Omit("Causer").Create(&row).Error; err != nil {
		return fmt.Errorf("failed to write activity: %w", err)
	}

	log.Debug().Str("event", e.Event).Str("subject_type", e.SubjectType).Uint64("subject_id", e.SubjectID).
		Msg("activity recorded")

	return nil
}

// UserAttributes returns the logged attributes of u.
func UserAttributes(u *models.User) map[string]any {
	return map[string]any{
		"name":  u.Name,
		"email": u.Email,
	}
}

// UserCreated records the creation of u inside tx.
func (l *Logger) UserCreated(tx *gorm.DB, u *models.User) error {
	return l.LogTx(tx, Entry{
		Event:       EventCreated,
		SubjectType: SubjectUser,
		SubjectID:   u.ID,
		Properties:  map[string]any{"attributes": UserAttributes(u)},
	})
}

// UserUpdated records the dirty logged fields between before and after. Nothing is written
// when none of them changed.
func (l *Logger) UserUpdated(tx *gorm.DB, before, after *models.User) error {
	attrs, old := Diff(UserAttributes(before), UserAttributes(after), userFields)
	if len(attrs) == 0 {
		return nil
	}

	return l.LogTx(tx, Entry{
		Event:       EventUpdated,
		SubjectType: SubjectUser,
		SubjectID:   after.ID,
		Properties:  map[string]any{"attributes": attrs, "old": old},
	})
}

// UserDeleted records the deletion of u inside tx.
func (l *Logger) UserDeleted(tx *gorm.DB, u *models.User) error {
	return l.LogTx(tx, Entry{
		Event:       EventDeleted,
		SubjectType: SubjectUser,
		SubjectID:   u.ID,
		Properties:  map[string]any{"old": UserAttributes(u)},
	})
}

// Diff returns the new and old values of fields that differ between before and after.
func Diff(before, after map[string]any, fields []string) (map[string]any, map[string]any) {
	attrs := map[string]any{}
	old := map[string]any{}

	for _, f := range fields {
		if reflect.DeepEqual(before[f], after[f]) {
			continue
		}

		attrs[f] = after[f]
		old[f] = before[f]
	}

	return attrs, old
}

// SubjectLabel names the subject of a change from its properties, preferring the new attributes.
func SubjectLabel(props map[string]any) string {
	for _, section := range []string{"attributes", "old"} {
		values, ok := props[section].(map[string]any)
		if !ok {
			continue
		}

		for _, key := range labelKeys {
			if s, ok := values[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}

	return ""
}

// Person is a compact user reference.
type Person struct {
	ID    *uint64 `json:"id"`
	Name  string  `json:"name"`
	Email *string `json:"email"`
}

// View is an activity as shown in lists.
type View struct {
	ID           uint64         `json:"id"`
	LogName      string         `json:"log_name"`
	Description  string         `json:"description"`
	Event        string         `json:"event"`
	SubjectType  string         `json:"subject_type"`
	SubjectID    *uint64        `json:"subject_id"`
	SubjectLabel *string        `json:"subject_label"`
	Causer       Person         `json:"causer"`
	Properties   map[string]any `json:"properties"`
	CreatedAt    time.Time      `json:"created_at"`
	CreatedAgo   string         `json:"created_at_human"`
}

// Present converts a stored row into its list form.
func Present(a models.Activity) View {
	props := map[string]any{}
	if len(a.Properties) > 0 {
		if err := json.Unmarshal(a.Properties, &props); err != nil {
			log.Warn().Err(err).Uint64("activity_id", a.ID).Msg("invalid activity properties")
		}
	}

	v := View{
		ID:          a.ID,
		LogName:     a.LogName,
		Description: a.Description,
		Event:       a.Event,
		SubjectType: a.SubjectType,
		SubjectID:   a.SubjectID,
		Causer:      Person{Name: "System"},
		Properties:  props,
		CreatedAt:   a.CreatedAt,
		CreatedAgo:  humanize.Time(a.CreatedAt),
	}

	if label := SubjectLabel(props); label != "" {
		v.SubjectLabel = &label
	}

	if a.Causer != nil {
		id, email := a.Causer.ID, a.Causer.Email
		v.Causer = Person{ID: &id, Name: a.Causer.Name, Email: &email}
	}

	return v
}

func (l *Logger) listQuery(ctx context.Context) *gorm.DB {
	return l.db.WithContext(ctx).Model(&models.Activity{}).Order("id DESC")
}

// attachCausers loads the causers of rows, including soft deleted users.
func (l *Logger) attachCausers(ctx context.Context, rows []models.Activity) error {
	ids := make([]uint64, 0, len(rows))
	for _, row := range rows {
		if row.CauserID != nil {
			ids = append(ids, *row.CauserID)
		}
	}

	if len(ids) == 0 {
		return nil
	}

	var users []models.User
	if err := l.db.WithContext(ctx).Unscoped().Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load activity causers: %w", err)
	}

	byID := make(map[uint64]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	for i := range rows {
		if rows[i].CauserID != nil {
			rows[i].Causer = byID[*rows[i].CauserID]
		}
	}

	return nil
}

func (l *Logger) page(ctx context.Context, tx *gorm.DB, req pagination.Request) (pagination.Page[View], error) {
	page, err := pagination.Find[models.Activity](tx, req)
	if err != nil {
		return pagination.Page[View]{}, fmt.Errorf("failed to load activities: %w", err)
	}

	if err := l.attachCausers(ctx, page.Data); err != nil {
		return pagination.Page[View]{}, err
	}

	return pagination.Map(page, Present), nil
}

// Recent returns one page of the whole log, newest first.
func (l *Logger) Recent(ctx context.Context, req pagination.Request) (pagination.Page[View], error) {
	return l.page(ctx, l.listQuery(ctx), req)
}

// ForSubject returns one page of the changes made to a subject, newest first.
func (l *Logger) ForSubject(
	ctx context.Context,
	subjectType string,
	subjectID uint64,
	req pagination.Request,
) (pagination.Page[View], error) {
	return l.page(ctx, l.listQuery(ctx).Where("subject_type = ? AND subject_id = ?", subjectType, subjectID), req)
}
