package document

import (
	"context"
	"fmt"
	"time"

	"gridflow/internal/domain"
	"gridflow/internal/schema"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	FindByID(ctx context.Context, id uint64) (*domain.Document, error)
	Mutate(ctx context.Context, id uint64, fn func(doc *domain.Document) error) (*domain.Document, error)
	List(ctx context.Context, q ListQuery) ([]DocumentSummary, DocumentsMeta, error)
	ListByType(ctx context.Context, docType schema.DocType) ([]domain.Document, error)
	Delete(ctx context.Context, id uint64) error
}

type DocumentRepositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) DocumentRepository {
	return &DocumentRepositoryImpl{db: db}
}

func (r *DocumentRepositoryImpl) Create(ctx context.Context, doc *domain.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *DocumentRepositoryImpl) FindByID(ctx context.Context, id uint64) (*domain.Document, error) {
	var doc domain.Document
	if err := r.db.WithContext(ctx).First(&doc, id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Mutate loads the document under a row lock, applies fn and saves the
// result in one transaction. When fn fails nothing is written.
func (r *DocumentRepositoryImpl) Mutate(ctx context.Context, id uint64, fn func(doc *domain.Document) error) (*domain.Document, error) {
	var doc domain.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&doc, id).Error; err != nil {
			return err
		}
		if err := fn(&doc); err != nil {
			return err
		}
		return tx.Save(&doc).Error
	})
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

type DocumentsMeta struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	TotalPage   int   `json:"total_page"`
}

// ListQuery filters and orders the document listing. Empty filters match all.
type ListQuery struct {
	Type    schema.DocType
	Status  domain.Status
	Bucket  string
	Search  string
	Sort    string
	Order   string
	Page    int
	PerPage int
}

var SortColumns = []string{"created_at", "updated_at", "date", "title"}

// DocumentSummary is a listing row; the grid content is not loaded.
type DocumentSummary struct {
	ID            uint64         `json:"id"`
	Type          schema.DocType `json:"type"`
	Title         string         `json:"title"`
	Date          string         `json:"date"`
	Recipient     string         `json:"recipient"`
	Location      string         `json:"location,omitempty"`
	Status        domain.Status  `json:"status"`
	AuthorID      uint64         `json:"authorId"`
	ArchiveBucket string         `json:"archiveBucket,omitempty"`
	IsResubmitted bool           `json:"isResubmitted,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (r *DocumentRepositoryImpl) List(ctx context.Context, q ListQuery) ([]DocumentSummary, DocumentsMeta, error) {
	query := r.db.WithContext(ctx).Model(&domain.Document{})
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Bucket != "" {
		query = query.Where("archive_bucket = ?", q.Bucket)
	}
	if q.Search != "" {
		query = query.Where("title ILIKE ?", "%"+q.Search+"%")
	}

	var totalRecords int64
	if err := query.Count(&totalRecords).Error; err != nil {
		return nil, DocumentsMeta{}, err
	}

	var docs []domain.Document
	offset := (q.Page - 1) * q.PerPage
	err := query.
		Select("id", "type", "title", "date", "recipient", "location", "status", "author_id", "archive_bucket", "is_resubmitted", "created_at", "updated_at").
		Order(clause.OrderByColumn{Column: clause.Column{Name: q.Sort}, Desc: q.Order != "asc"}).
		Order("id").
		Offset(offset).
		Limit(q.PerPage).
		Find(&docs).Error
	if err != nil {
		return nil, DocumentsMeta{}, err
	}

	summaries := make([]DocumentSummary, 0, len(docs))
	for _, d := range docs {
		summaries = append(summaries, toSummary(d))
	}
	totalPages := int((totalRecords + int64(q.PerPage) - 1) / int64(q.PerPage))

	return summaries, DocumentsMeta{
		Total:       totalRecords,
		PerPage:     q.PerPage,
		TotalPage:   totalPages,
		CurrentPage: q.Page,
	}, nil
}

func (r *DocumentRepositoryImpl) ListByType(ctx context.Context, docType schema.DocType) ([]domain.Document, error) {
	var docs []domain.Document
	err := r.db.WithContext(ctx).Where("type = ?", docType).Order("id").Find(&docs).Error
	return docs, err
}

func (r *DocumentRepositoryImpl) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&domain.Document{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("document %d: %w", id, gorm.ErrRecordNotFound)
	}
	return nil
}

func toSummary(d domain.Document) DocumentSummary {
	return DocumentSummary{
		ID:            d.ID,
		Type:          d.Type,
		Title:         d.Title,
		Date:          d.Date,
		Recipient:     d.Recipient,
		Location:      d.Location,
		Status:        d.Status,
		AuthorID:      d.AuthorID,
		ArchiveBucket: d.ArchiveBucket,
		IsResubmitted: d.IsResubmitted,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}
