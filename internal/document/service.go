package document

import (
	"context"
	defError "errors"
	"fmt"
	"io"
	"maps"
	"time"

	"gridflow/internal/approval"
	"gridflow/internal/attachment"
	"gridflow/internal/diff"
	"gridflow/internal/domain"
	"gridflow/internal/editor"
	"gridflow/internal/errors"
	"gridflow/internal/export"
	"gridflow/internal/form"
	"gridflow/internal/grid"
	"gridflow/internal/notify"
	"gridflow/internal/pricing"
	"gridflow/internal/schema"
	"gridflow/internal/sync"
	"gridflow/internal/worker"
	"gridflow/redis"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service interface {
	Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.Document, error)
	Get(ctx context.Context, id uint64) (*DocumentView, error)
	List(ctx context.Context, q ListQuery) (*PaginatedDocuments, error)
	Stamp(ctx context.Context, id uint64, slot domain.Slot, actor domain.Actor) (*domain.Document, error)
	Reject(ctx context.Context, id uint64, reason string, actor domain.Actor) (*domain.Document, error)
	Resubmit(ctx context.Context, id uint64, in ResubmitInput, actor domain.Actor) (*domain.Document, error)
	Archive(ctx context.Context, id uint64, actor domain.Actor) (*domain.Document, error)
	AmendLateRows(ctx context.Context, id uint64, rows []grid.Row, actor domain.Actor) (*domain.Document, error)
	Purge(ctx context.Context, id uint64, actor domain.Actor) error
	Export(ctx context.Context, id uint64, w io.Writer) (*domain.Document, error)
}

// Directory resolves who can stamp a slot, for "waiting on" hints.
type Directory interface {
	InitialsForSlot(ctx context.Context, slot domain.Slot) string
}

// Deps groups the collaborators of DefaultService. Cache, Sync, Notifier,
// Files and Pool are optional.
type Deps struct {
	Repository   DocumentRepository
	Machine      *approval.Machine
	Directory    Directory
	Cache        *redis.Cache
	Sync         sync.Client
	Notifier     notify.Sink
	Files        *attachment.Registry
	Pool         *worker.WorkerPool
	MaxRows      int
	VATPercent   int
	UndoCapacity int
	Log          zerolog.Logger
}

type DefaultService struct {
	Deps
	validate *validator.Validate
}

func NewService(deps Deps) *DefaultService {
	if deps.MaxRows <= 0 {
		deps.MaxRows = editor.DefaultMaxRows
	}
	if deps.VATPercent < 0 {
		deps.VATPercent = pricing.FixedVATPercent
	}
	return &DefaultService{Deps: deps, validate: validator.New()}
}

type SubmitInput struct {
	Type     schema.DocType `json:"type" binding:"required"`
	Location string         `json:"location"`
	Content  form.Content   `json:"content"`
	// Temporary saves the document without entering the approval chain.
	Temporary bool `json:"temporary"`
}

type ResubmitInput struct {
	Content   form.Content `json:"content"`
	Temporary bool         `json:"temporary"`
}

func (s *DefaultService) Submit(ctx context.Context, actor domain.Actor, in SubmitInput) (*domain.Document, error) {
	sc, err := schema.Lookup(in.Type)
	if err != nil {
		return nil, mapError(err)
	}
	c := in.Content.Clone()
	if err := s.prepare(sc, &c, !in.Temporary); err != nil {
		return nil, mapError(err)
	}

	doc := &domain.Document{Type: in.Type, Location: in.Location}
	doc.SetForm(c)
	if in.Temporary {
		doc.AuthorID = actor.ID
		doc.Status = domain.StatusTemporary
		doc.SetStamps(domain.Stamps{})
	} else if err := s.Machine.Submit(doc, actor); err != nil {
		return nil, mapError(err)
	}

	if err := s.Repository.Create(ctx, doc); err != nil {
		return nil, err
	}
	s.Log.Info().Uint64("document_id", doc.ID).Str("type", string(doc.Type)).Str("status", string(doc.Status)).Msg("document submitted")

	s.afterWrite(ctx, doc.Type)
	if doc.Status == domain.StatusPending {
		s.publish(doc, "submitted")
	}
	return doc, nil
}

// prepare checks c against the schema of its type and derives amounts.
// Header requirements apply only to content entering the approval chain.
// Change flags and modification logs sent by the client are dropped; only
// trackChanges sets them.
func (s *DefaultService) prepare(sc schema.Schema, c *form.Content, strict bool) error {
	if strict {
		if err := s.validate.Struct(c.Header); err != nil {
			return err
		}
	}
	if len(c.Sheet.Rows) > s.MaxRows {
		return fmt.Errorf("%w: %d rows, at most %d", editor.ErrRowLimit, len(c.Sheet.Rows), s.MaxRows)
	}
	if sc.VAT != schema.VATPerDocument {
		c.VATPercent = nil
	} else if c.VATPercent != nil && (*c.VATPercent < 0 || *c.VATPercent > 100) {
		return fmt.Errorf("%w: vat %d", editor.ErrIndexOutRange, *c.VATPercent)
	}
	c.Sheet.Overlays = c.Sheet.Overlays.Clone()
	if err := c.Sheet.CheckOverlays(len(sc.Columns)); err != nil {
		return err
	}
	for i := range c.Sheet.Rows {
		r := &c.Sheet.Rows[i]
		if r.ID == "" {
			r.ID = grid.NewRow().ID
		}
		r.ChangedFields = nil
		r.Log = nil
		for f := range r.Values {
			if !sc.Has(f) {
				return fmt.Errorf("%w: %s", editor.ErrUnknownField, f)
			}
		}
		if sc.DerivesAmount {
			pricing.DeriveAmount(r)
		}
	}
	return nil
}

type DocumentView struct {
	*domain.Document
	Slots    []domain.Slot  `json:"slots"`
	NextSlot domain.Slot    `json:"nextSlot,omitempty"`
	Totals   pricing.Totals `json:"totals"`
	// Attachments maps row ids to resolved file URLs.
	Attachments map[string]string `json:"attachments,omitempty"`
}

func (s *DefaultService) Get(ctx context.Context, id uint64) (*DocumentView, error) {
	doc, err := s.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	return s.view(doc)
}

func (s *DefaultService) view(doc *domain.Document) (*DocumentView, error) {
	sc, err := schema.Lookup(doc.Type)
	if err != nil {
		return nil, mapError(err)
	}
	c := doc.Form()
	v := &DocumentView{
		Document: doc,
		Slots:    s.Machine.Slots(doc),
		Totals:   pricing.Compute(c.Sheet.Rows, pricing.RatePercent(sc, c.VATPercent, s.VATPercent)),
	}
	if doc.Status == domain.StatusPending {
		v.NextSlot, _ = s.Machine.NextSlot(doc)
	}
	for _, r := range c.Sheet.Rows {
		if r.FileRef == "" || s.Files == nil {
			continue
		}
		if v.Attachments == nil {
			v.Attachments = map[string]string{}
		}
		v.Attachments[r.ID] = s.Files.Resolve(r.FileRef)
	}
	return v, nil
}

type PaginatedDocuments struct {
	Data []DocumentSummary `json:"data"`
	Meta DocumentsMeta     `json:"meta"`
}

func versionKey(docType schema.DocType) string {
	if docType == "" {
		return "docs:all:version"
	}
	return fmt.Sprintf("docs:%s:version", docType)
}

func (s *DefaultService) List(ctx context.Context, q ListQuery) (*PaginatedDocuments, error) {
	// Get the current data version for this listing scope
	v := s.Cache.GetVersion(ctx, versionKey(q.Type))

	cacheKey := fmt.Sprintf("docs:%s:v:%d:s:%s:b:%s:q:%s:o:%s:%s:p:%d:ps:%d",
		q.Type, v, q.Status, q.Bucket, q.Search, q.Sort, q.Order, q.Page, q.PerPage)

	var result PaginatedDocuments
	found, _ := s.Cache.Get(ctx, cacheKey, &result)
	if found {
		return &result, nil
	}

	docs, meta, err := s.Repository.List(ctx, q)
	if err != nil {
		return nil, err
	}
	result = PaginatedDocuments{Data: docs, Meta: meta}
	_ = s.Cache.Set(ctx, cacheKey, result, 24*time.Hour)

	return &result, nil
}

func (s *DefaultService) Stamp(ctx context.Context, id uint64, slot domain.Slot, actor domain.Actor) (*domain.Document, error) {
	var approved bool
	doc, err := s.Repository.Mutate(ctx, id, func(d *domain.Document) error {
		var err error
		approved, err = s.Machine.Stamp(d, slot, actor)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.Log.Info().Uint64("document_id", id).Str("slot", string(slot)).Uint64("actor_id", actor.ID).Msg("document stamped")

	s.afterWrite(ctx, doc.Type)
	if approved {
		s.publish(doc, "approved")
	}
	return doc, nil
}

func (s *DefaultService) Reject(ctx context.Context, id uint64, reason string, actor domain.Actor) (*domain.Document, error) {
	doc, err := s.Repository.Mutate(ctx, id, func(d *domain.Document) error {
		return s.Machine.Reject(d, reason, actor)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.Log.Info().Uint64("document_id", id).Uint64("actor_id", actor.ID).Msg("document rejected")

	s.afterWrite(ctx, doc.Type)
	return doc, nil
}

// Resubmit stores edited content for a rejected or temporarily saved
// document and sends it back into the chain. For a rejected document every
// difference against the rejected original is flagged and logged, and rows
// of the original must be soft-deleted rather than removed.
func (s *DefaultService) Resubmit(ctx context.Context, id uint64, in ResubmitInput, actor domain.Actor) (*domain.Document, error) {
	doc, err := s.Repository.Mutate(ctx, id, func(d *domain.Document) error {
		if d.AuthorID != 0 && d.AuthorID != actor.ID {
			return fmt.Errorf("%w: %s", approval.ErrNotAuthorized, domain.SlotWriter)
		}
		sc, err := schema.Lookup(d.Type)
		if err != nil {
			return err
		}
		c := in.Content.Clone()

		switch d.Status {
		case domain.StatusTemporary:
			if err := s.prepare(sc, &c, !in.Temporary); err != nil {
				return err
			}
			d.SetForm(c)
			if in.Temporary {
				return nil
			}
			_, err = s.Machine.Resubmit(d, actor)
			return err
		case domain.StatusRejected:
			if in.Temporary {
				return fmt.Errorf("%w: temporary save of a rejected document", approval.ErrInvalidTransition)
			}
			if err := s.prepare(sc, &c, true); err != nil {
				return err
			}
			changed, err := trackChanges(d.Form(), &c, actor.ID)
			if err != nil {
				return err
			}
			d.SetForm(c)
			d.SetChangedHeaders(changed.headers)
			d.SetChangedNotes(changed.notes)
			_, err = s.Machine.Resubmit(d, actor)
			return err
		}
		return fmt.Errorf("%w: resubmit %s document", approval.ErrInvalidTransition, d.Status)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.Log.Info().Uint64("document_id", id).Str("status", string(doc.Status)).Msg("document resubmitted")

	s.afterWrite(ctx, doc.Type)
	if doc.Status == domain.StatusPending {
		s.publish(doc, "resubmitted")
	}
	return doc, nil
}

type changeSet struct {
	headers []form.HeaderField
	notes   []form.NoteChange
}

// trackChanges flags the fields of c that differ from the rejected original
// and appends EDIT or DELETE entries to the log kept by the original rows.
// It returns the header fields and note lines that changed.
func trackChanges(original form.Content, c *form.Content, actorID uint64) (changeSet, error) {
	now := time.Now().UTC()
	byID := make(map[string]grid.Row, len(original.Sheet.Rows))
	for _, r := range original.Sheet.Rows {
		byID[r.ID] = r
	}
	for _, r := range original.Sheet.Rows {
		if c.Sheet.RowIndex(r.ID) < 0 {
			return changeSet{}, fmt.Errorf("%w: row %s of the rejected document must be kept", editor.ErrReadOnly, r.ID)
		}
	}

	for i := range c.Sheet.Rows {
		c.Sheet.Rows[i].ChangedFields = nil
	}
	hl := diff.New(original)
	hl.Apply(c)
	for i := range c.Sheet.Rows {
		r := &c.Sheet.Rows[i]
		orig, ok := byID[r.ID]
		if !ok {
			r.Log = nil
			continue
		}
		r.Log = orig.Log
		if orig.Deleted {
			r.Deleted = true
		}
		switch {
		case r.Deleted && !orig.Deleted:
			r.Record(actorID, grid.ModDelete, now)
		case !maps.Equal(r.Values, orig.Values) || r.FileRef != orig.FileRef:
			r.Record(actorID, grid.ModEdit, now)
		}
	}

	cs := changeSet{headers: hl.ChangedHeaders(c.Header)}
	for i, n := range c.Notes {
		if label, content := hl.NoteChanged(i, n); label || content {
			cs.notes = append(cs.notes, form.NoteChange{Line: i, Label: label, Content: content})
		}
	}
	return cs, nil
}

func (s *DefaultService) Archive(ctx context.Context, id uint64, actor domain.Actor) (*domain.Document, error) {
	doc, err := s.Repository.Mutate(ctx, id, func(d *domain.Document) error {
		return s.Machine.Archive(d, actor)
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.Log.Info().Uint64("document_id", id).Str("bucket", doc.ArchiveBucket).Msg("document archived")

	s.afterWrite(ctx, doc.Type)
	s.publish(doc, "archived")
	return doc, nil
}

// AmendLateRows applies late-row changes to an archived document. Each
// incoming row must carry the late prefix: unknown ids are appended as new
// late rows, known ones are edited, and Deleted soft-deletes them.
func (s *DefaultService) AmendLateRows(ctx context.Context, id uint64, rows []grid.Row, actor domain.Actor) (*domain.Document, error) {
	doc, err := s.Repository.Mutate(ctx, id, func(d *domain.Document) error {
		if d.Status != domain.StatusArchived {
			return fmt.Errorf("%w: late rows on %s document", approval.ErrInvalidTransition, d.Status)
		}
		if actor.ID != d.AuthorID && !actor.Privileged {
			return errors.Forbidden("Only the author can amend an archived document", nil)
		}
		sess, err := editor.New(d.Type, d.Form(), editor.Options{
			Mode:         editor.ModeAmend,
			ActorID:      actor.ID,
			UndoCapacity: s.UndoCapacity,
			MaxRows:      s.MaxRows,
			VATPercent:   s.VATPercent,
			Logger:       s.Log,
		})
		if err != nil {
			return err
		}
		for _, in := range rows {
			if err := amendRow(sess, in); err != nil {
				return err
			}
		}
		d.SetForm(sess.Commit())
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	s.Log.Info().Uint64("document_id", id).Int("rows", len(rows)).Msg("late rows amended")

	s.afterWrite(ctx, doc.Type)
	return doc, nil
}

func amendRow(sess *editor.Session, in grid.Row) error {
	if !in.IsLate() {
		return fmt.Errorf("%w: %s", editor.ErrReadOnly, in.ID)
	}
	sc := sess.Schema()
	for f := range in.Values {
		if !sc.Has(f) {
			return fmt.Errorf("%w: %s", editor.ErrUnknownField, f)
		}
	}

	rowID := in.ID
	if _, err := sess.Row(rowID); defError.Is(err, grid.ErrRowNotFound) {
		created, err := sess.InsertRow(len(sess.Content().Sheet.Rows))
		if err != nil {
			return err
		}
		rowID = created.ID
	} else if err != nil {
		return err
	}

	// Column order puts unit price before amount, so a zero price is in
	// place before a free-text amount is written.
	for _, col := range sc.Columns {
		v, ok := in.Values[col.Field]
		if !ok {
			continue
		}
		if col.Field == schema.FieldAmount && sc.DerivesAmount {
			cur, _ := sess.Row(rowID)
			if !pricing.IsFreeTextAmount(cur) {
				continue
			}
		}
		if _, err := sess.SetField(rowID, col.Field, v); err != nil {
			return err
		}
	}
	if in.FileRef != "" {
		if err := sess.SetFileRef(rowID, in.FileRef); err != nil {
			return err
		}
	}
	if in.Deleted {
		return sess.DeleteRow(rowID)
	}
	return nil
}

func (s *DefaultService) Purge(ctx context.Context, id uint64, actor domain.Actor) error {
	if !actor.Privileged {
		return errors.Forbidden("Only a privileged actor can purge documents", nil)
	}
	doc, err := s.Repository.FindByID(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if err := s.Repository.Delete(ctx, id); err != nil {
		return mapError(err)
	}
	s.Log.Warn().Uint64("document_id", id).Uint64("actor_id", actor.ID).Msg("document purged")

	s.afterWrite(ctx, doc.Type)
	return nil
}

func (s *DefaultService) Export(ctx context.Context, id uint64, w io.Writer) (*domain.Document, error) {
	doc, err := s.Repository.FindByID(ctx, id)
	if err != nil {
		return nil, mapError(err)
	}
	if err := export.WriteXLSX(w, doc, s.VATPercent); err != nil {
		return nil, err
	}
	return doc, nil
}

// afterWrite invalidates cached listings and mirrors the type's documents
// to the remote store.
func (s *DefaultService) afterWrite(ctx context.Context, docType schema.DocType) {
	s.Cache.IncrementVersion(ctx, versionKey(docType))
	s.Cache.IncrementVersion(ctx, versionKey(""))

	if s.Sync == nil {
		return
	}
	s.async(func(ctx context.Context) error {
		docs, err := s.Repository.ListByType(ctx, docType)
		if err != nil {
			return err
		}
		if err := s.Sync.PushDocuments(ctx, docType, docs); err != nil {
			s.Log.Warn().Err(err).Str("type", string(docType)).Msg("sync: push failed (non-fatal)")
		}
		return nil
	})
}

func (s *DefaultService) publish(doc *domain.Document, subcategory string) {
	if s.Notifier == nil {
		return
	}
	e := notify.Event{
		Category:      string(doc.Type),
		Subcategory:   subcategory,
		RecipientHint: doc.Recipient,
		Title:         doc.Title,
		Status:        string(doc.Status),
		DocumentID:    doc.ID,
	}
	next, waiting := s.Machine.NextSlot(doc)
	s.async(func(ctx context.Context) error {
		if waiting && doc.Status == domain.StatusPending && s.Directory != nil {
			e.NextApproverInitials = s.Directory.InitialsForSlot(ctx, next)
		}
		s.Notifier.Notify(ctx, e)
		return nil
	})
}

// async hands t to the worker pool, or runs it inline when there is none.
func (s *DefaultService) async(t worker.Task) {
	if s.Pool != nil {
		s.Pool.Submit(t)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := t(ctx); err != nil {
		s.Log.Warn().Err(err).Msg("background task failed")
	}
}

// mapError turns engine and persistence errors into API errors.
func mapError(err error) error {
	var apiErr *errors.APIError
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return nil
	case defError.As(err, &apiErr):
		return err
	case defError.As(err, &verrs):
		return errors.NewValidationError(err)
	case defError.Is(err, gorm.ErrRecordNotFound):
		return errors.NotFound("Document not found", err)
	case defError.Is(err, approval.ErrNotAuthorized):
		return errors.Forbidden(err.Error(), err)
	case defError.Is(err, approval.ErrOutOfOrder),
		defError.Is(err, approval.ErrAlreadyStamped),
		defError.Is(err, approval.ErrInvalidTransition):
		return errors.Conflict(err.Error(), err)
	case defError.Is(err, approval.ErrUnknownSlot),
		defError.Is(err, approval.ErrEmptyReason),
		defError.Is(err, schema.ErrUnknownType),
		defError.Is(err, grid.ErrRowNotFound),
		defError.Is(err, editor.ErrReadOnly),
		defError.Is(err, editor.ErrUnknownField),
		defError.Is(err, editor.ErrDerivedField),
		defError.Is(err, editor.ErrRowLimit),
		defError.Is(err, editor.ErrIndexOutRange):
		return errors.UnprocessableEntity(err.Error(), err)
	}
	return err
}
