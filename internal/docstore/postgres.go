package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/justsurfingit/career-atlas/internal/models"
	"github.com/justsurfingit/career-atlas/internal/timestamp"
)

type jobRow struct {
	Slug        string `gorm:"primaryKey"`
	Title       string
	CompanyName string
	Description string
	Location    string
	Remote      bool
	JobTypes    pq.StringArray `gorm:"type:text[]"`
	Tags        pq.StringArray `gorm:"type:text[]"`
	Salary      string
	URL         string
	AvatarURL   string
	// nullable: postings imported without a timestamp keep NULL
	CreatedAt *time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime:false"`
}

func (jobRow) TableName() string { return "jobs" }

type favoritesRow struct {
	UID       string         `gorm:"primaryKey;column:uid"`
	JobIDs    pq.StringArray `gorm:"type:text[];column:job_ids"`
	UpdatedAt time.Time
}

func (favoritesRow) TableName() string { return "user_favorites" }

type profileRow struct {
	UID         string `gorm:"primaryKey;column:uid"`
	DisplayName string
	PhotoURL    string
	Phone       string
	ResumeURL   string
	ResumeName  string
	UpdatedAt   time.Time
}

func (profileRow) TableName() string { return "profiles" }

type applicationRow struct {
	UID        string `gorm:"primaryKey;column:uid"`
	JobID      string `gorm:"primaryKey"`
	Comment    string
	ResumeName string
	ResumeURL  string
	CreatedAt  time.Time
}

func (applicationRow) TableName() string { return "applications" }

// PostgresStore implements Store on top of gorm. Array fields live in text[]
// columns; array-contains maps to "value = ANY(column)".
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Capabilities mirrors the hosted document store so the query builder plans
// identically on both backends.
func (s *PostgresStore) Capabilities() Capabilities {
	return Capabilities{MaxArrayContains: 1}
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *PostgresStore) scope(ctx context.Context, q Query) (*gorm.DB, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Model(&jobRow{})
	for _, p := range q.Predicates {
		switch p.Op {
		case OpArrayContains:
			// field names are whitelisted by Validate
			tx = tx.Where(fmt.Sprintf("? = ANY(%s)", p.Field), p.Value)
		case OpEqual:
			value := p.Value
			if p.Field == FieldCreatedAt {
				value = time.UnixMilli(timestamp.Millis(value)).UTC()
			}
			tx = tx.Where(clause.Eq{Column: clause.Column{Name: p.Field}, Value: value})
		}
	}
	return tx, nil
}

func (s *PostgresStore) Find(ctx context.Context, q Query) ([]models.JobDocument, error) {
	tx, err := s.scope(ctx, q)
	if err != nil {
		return nil, err
	}
	if q.OrderBy != nil {
		tx = tx.Order(orderClause(*q.OrderBy))
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []jobRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]models.JobDocument, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.document())
	}
	return docs, nil
}

// orderClause treats NULL as the smallest value, the way MemoryStore reads a
// missing timestamp as zero: last when descending, first when ascending.
func orderClause(o Order) clause.OrderBy {
	sql := "? ASC NULLS FIRST"
	if o.Desc {
		sql = "? DESC NULLS LAST"
	}
	return clause.OrderBy{Expression: clause.Expr{SQL: sql, Vars: []any{clause.Column{Name: o.Field}}}}
}

func (s *PostgresStore) Count(ctx context.Context, q Query) (int64, error) {
	tx, err := s.scope(ctx, q.ForCount())
	if err != nil {
		return 0, err
	}
	var n int64
	if err := tx.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (s *PostgresStore) Get(ctx context.Context, slug string) (models.JobDocument, error) {
	var row jobRow
	err := s.db.WithContext(ctx).First(&row, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.JobDocument{}, ErrNotFound
	}
	if err != nil {
		return models.JobDocument{}, err
	}
	return row.document(), nil
}

func (s *PostgresStore) Upsert(ctx context.Context, doc models.JobDocument) error {
	row := jobRow{
		Slug:        doc.Slug,
		Title:       doc.Title,
		CompanyName: doc.CompanyName,
		Description: doc.Description,
		Location:    doc.Location,
		Remote:      doc.Remote,
		JobTypes:    pq.StringArray(doc.JobTypes),
		Tags:        pq.StringArray(doc.Tags),
		Salary:      doc.Salary,
		URL:         doc.URL,
		AvatarURL:   doc.AvatarURL,
		CreatedAt:   toTimePtr(doc.CreatedAt),
		UpdatedAt:   toTimePtr(doc.UpdatedAt),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "slug"}}, UpdateAll: true}).
		Create(&row).Error
}

func (s *PostgresStore) Companies(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&jobRow{}).
		Distinct("company_name").
		Where("company_name <> ''").
		Order("company_name").
		Pluck("company_name", &names).Error
	return names, err
}

func (s *PostgresStore) GetFavorites(ctx context.Context, uid string) ([]string, error) {
	var row favoritesRow
	err := s.db.WithContext(ctx).First(&row, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return append([]string{}, row.JobIDs...), nil
}

func (s *PostgresStore) SetFavorites(ctx context.Context, uid string, jobIDs []string) error {
	row := favoritesRow{UID: uid, JobIDs: pq.StringArray(jobIDs), UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{"job_ids", "updated_at"}),
		}).
		Create(&row).Error
}

func (s *PostgresStore) GetProfile(ctx context.Context, uid string) (models.Profile, bool, error) {
	var row profileRow
	err := s.db.WithContext(ctx).First(&row, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Profile{}, false, nil
	}
	if err != nil {
		return models.Profile{}, false, err
	}
	return models.Profile{
		DisplayName: row.DisplayName,
		PhotoURL:    row.PhotoURL,
		Phone:       row.Phone,
		ResumeURL:   row.ResumeURL,
		ResumeName:  row.ResumeName,
		UpdatedAt:   timestamp.ISO(row.UpdatedAt),
	}, true, nil
}

// MergeProfile inserts the profile or updates only the columns the patch sets.
func (s *PostgresStore) MergeProfile(ctx context.Context, uid string, patch models.ProfilePatch) error {
	var merged models.Profile
	patch.Apply(&merged)
	row := profileRow{
		UID:         uid,
		DisplayName: merged.DisplayName,
		PhotoURL:    merged.PhotoURL,
		Phone:       merged.Phone,
		ResumeURL:   merged.ResumeURL,
		ResumeName:  merged.ResumeName,
		UpdatedAt:   time.Now().UTC(),
	}

	cols := []string{"updated_at"}
	if patch.DisplayName != nil {
		cols = append(cols, "display_name")
	}
	if patch.PhotoURL != nil {
		cols = append(cols, "photo_url")
	}
	if patch.Phone != nil {
		cols = append(cols, "phone")
	}
	if patch.ResumeURL != nil {
		cols = append(cols, "resume_url")
	}
	if patch.ResumeName != nil {
		cols = append(cols, "resume_name")
	}

	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(&row).Error
}

func (s *PostgresStore) ListApplications(ctx context.Context, uid string) ([]models.Application, error) {
	var rows []applicationRow
	err := s.db.WithContext(ctx).
		Where("uid = ?", uid).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	apps := make([]models.Application, 0, len(rows))
	for _, r := range rows {
		created := ""
		if iso := timestamp.ISO(r.CreatedAt); iso != nil {
			created = *iso
		}
		apps = append(apps, models.Application{
			JobID:      r.JobID,
			Comment:    r.Comment,
			ResumeName: r.ResumeName,
			ResumeURL:  r.ResumeURL,
			CreatedAt:  created,
		})
	}
	return apps, nil
}

func (s *PostgresStore) UpsertApplication(ctx context.Context, uid string, app models.Application) error {
	row := applicationRow{
		UID:        uid,
		JobID:      app.JobID,
		Comment:    app.Comment,
		ResumeName: app.ResumeName,
		ResumeURL:  app.ResumeURL,
		CreatedAt:  toTime(app.CreatedAt),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}, {Name: "job_id"}},
			UpdateAll: true,
		}).
		Create(&row).Error
}

func (s *PostgresStore) DeleteApplication(ctx context.Context, uid, jobID string) error {
	return s.db.WithContext(ctx).
		Where("uid = ? AND job_id = ?", uid, jobID).
		Delete(&applicationRow{}).Error
}

func (r jobRow) document() models.JobDocument {
	d := models.JobDocument{
		Title:       r.Title,
		CompanyName: r.CompanyName,
		Description: r.Description,
		Location:    r.Location,
		Remote:      r.Remote,
		JobTypes:    []string(r.JobTypes),
		Tags:        []string(r.Tags),
		Salary:      r.Salary,
		URL:         r.URL,
		Slug:        r.Slug,
		AvatarURL:   r.AvatarURL,
	}
	if r.CreatedAt != nil {
		d.CreatedAt = timestamp.FromTime(*r.CreatedAt)
	}
	if r.UpdatedAt != nil {
		d.UpdatedAt = timestamp.FromTime(*r.UpdatedAt)
	}
	return d
}

func toTimePtr(v any) *time.Time {
	t := toTime(v)
	if t.IsZero() {
		return nil
	}
	return &t
}

func toTime(v any) time.Time {
	ms := timestamp.Millis(v)
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
