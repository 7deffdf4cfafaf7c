package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
	"github.com/fastygo/studio/usecase"
)

// Definition binds a document kind to the store.
type Definition[T domain.Document] struct {
	New func() T
	// KeyField names the natural key used by published lookups when a blank document
	// reports no keys.
	KeyField string
	// Validate runs after Bind for checks that need storage, such as references.
	Validate func(ctx context.Context, doc T) error
}

// Options tune the save pipeline.
type Options struct {
	// AtomicWrites runs the document write and the version append in one transaction,
	// so a ledger failure fails the save.
	AtomicWrites bool
	HistoryLimit int
}

type Deps struct {
	Documents repository.DocumentRepository
	Versions  repository.VersionRepository
	Tx        repository.Transactor
	Audit     usecase.Auditor
	Buffer    usecase.OperationBuffer
	Cache     repository.DocumentCache
	Clock     func() time.Time
	Logger    *zap.Logger
	Options   Options
}

// Store runs the versioned workflow pipeline for one document kind.
type Store[T domain.Document] struct {
	kind     domain.Kind
	keyField string
	def      Definition[T]
	docs     repository.DocumentRepository
	tx       repository.Transactor
	ledger   *Ledger
	audit    usecase.Auditor
	cache    repository.DocumentCache
	clock    func() time.Time
	logger   *zap.Logger
	opts     Options
}

func NewStore[T domain.Document](def Definition[T], deps Deps) *Store[T] {
	if deps.Clock == nil {
		deps.Clock = Now
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Options.HistoryLimit <= 0 {
		deps.Options.HistoryLimit = 40
	}

	blank := def.New()
	keyField := def.KeyField
	if keys := blank.Keys(); len(keys) > 0 {
		keyField = keys[0].Field
	}

	return &Store[T]{
		kind:     blank.Kind(),
		keyField: keyField,
		def:      def,
		docs:     deps.Documents,
		tx:       deps.Tx,
		ledger:   NewLedger(deps.Versions, deps.Buffer, deps.Clock, deps.Logger),
		audit:    deps.Audit,
		cache:    deps.Cache,
		clock:    deps.Clock,
		logger:   deps.Logger.With(zap.String("kind", blank.Kind().Name)),
		opts:     deps.Options,
	}
}

func (s *Store[T]) Kind() domain.Kind {
	return s.kind
}

func (s *Store[T]) Ledger() *Ledger {
	return s.ledger
}

// SaveInput carries editor input. An empty ID creates a document.
type SaveInput struct {
	ID         string
	Fields     domain.Fields
	ChangeNote string
}

// Save validates input, applies the workflow, persists the document and records a version
// and an audit event. Validation errors leave storage untouched.
func (s *Store[T]) Save(ctx context.Context, actor domain.Actor, in SaveInput) (T, error) {
	var zero T

	doc := s.def.New()
	action := domain.ActionCreate
	var before []byte
	var staleKey string
	if in.ID != "" {
		current, err := s.load(ctx, in.ID)
		if err != nil {
			return zero, err
		}
		doc = current
		action = domain.ActionUpdate
		before = doc.Snapshot().Bytes()
		staleKey = primaryKey(doc)
	}
	prior := *doc.Base()

	if err := doc.Bind(in.Fields); err != nil {
		return zero, err
	}
	if s.def.Validate != nil {
		if err := s.def.Validate(ctx, doc); err != nil {
			return zero, err
		}
	}
	if err := s.reserveKeys(ctx, doc); err != nil {
		return zero, err
	}

	now := s.clock()
	meta := doc.Base()
	if s.kind.Workflow {
		applyWorkflow(meta, in.Fields, now)
	}
	if err := s.authorizePublish(actor, prior, meta); err != nil {
		return zero, err
	}
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	meta.Touch(actor.ID, now)

	note := in.ChangeNote
	if note == "" {
		note = in.Fields.Get("change_note")
	}
	if err := s.commit(ctx, actor, doc, change{action: action, note: note, before: before, staleKey: staleKey, version: true}); err != nil {
		return zero, err
	}
	return doc, nil
}

// Autosave stores editor input on an existing document without recording a version or an
// audit event. The same validation, key and publish rules as Save apply.
func (s *Store[T]) Autosave(ctx context.Context, actor domain.Actor, id string, fields domain.Fields) (T, error) {
	var zero T
	if !s.kind.Autosave {
		return zero, domain.Invalid("id", s.kind.Label+" has no autosave")
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	prior := *doc.Base()
	staleKey := primaryKey(doc)

	if err := doc.Bind(fields); err != nil {
		return zero, err
	}
	if s.def.Validate != nil {
		if err := s.def.Validate(ctx, doc); err != nil {
			return zero, err
		}
	}
	if err := s.reserveKeys(ctx, doc); err != nil {
		return zero, err
	}

	now := s.clock()
	meta := doc.Base()
	if s.kind.Workflow {
		applyWorkflow(meta, fields, now)
	}
	if err := s.authorizePublish(actor, prior, meta); err != nil {
		return zero, err
	}
	meta.Touch(actor.ID, now)

	if err := s.commit(ctx, actor, doc, change{staleKey: staleKey, quiet: true}); err != nil {
		return zero, err
	}
	return doc, nil
}

// TransitionInput moves a document through the workflow. An unknown status keeps the
// current one; the schedule is replaced as given.
type TransitionInput struct {
	Status             string
	ScheduledPublishAt *time.Time
	ChangeNote         string
}

func (s *Store[T]) Transition(ctx context.Context, actor domain.Actor, id string, in TransitionInput) (T, error) {
	var zero T
	if !s.kind.Workflow {
		return zero, domain.Invalid("status", s.kind.Label+" has no workflow")
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	note := in.ChangeNote
	if strings.TrimSpace(note) == "" {
		note = "workflow update"
	}
	if err := s.transition(ctx, actor, doc, in.Status, in.ScheduledPublishAt, note); err != nil {
		return zero, err
	}
	return doc, nil
}

func (s *Store[T]) transition(ctx context.Context, actor domain.Actor, doc T, status string, scheduledAt *time.Time, note string) error {
	before := doc.Snapshot().Bytes()
	meta := doc.Base()
	prior := *meta
	now := s.clock()

	meta.Status = domain.NormalizeStatus(status, meta.Status)
	meta.ScheduledPublishAt = scheduledAt
	if err := s.authorizePublish(actor, prior, meta); err != nil {
		return err
	}
	domain.MaybePublish(meta, meta.Status, meta.ScheduledPublishAt, now)
	meta.Touch(actor.ID, now)

	return s.commit(ctx, actor, doc, change{action: domain.ActionWorkflow, note: note, before: before, version: true})
}

// RecordVersion stores the current state as a new version on request. Unlike the save
// pipeline, a ledger failure is returned.
func (s *Store[T]) RecordVersion(ctx context.Context, actor domain.Actor, id, note string) (*domain.Version, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		note = "manual snapshot"
	}
	snapshot := doc.Snapshot()
	version, err := s.ledger.Append(ctx, id, snapshot, note, actor)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "recording version", err)
	}
	s.record(ctx, actor, domain.ActionSnapshot, id, nil, snapshot.Bytes())
	return version, nil
}

// Versions lists the history of a document newest first.
func (s *Store[T]) Versions(ctx context.Context, id string, limit int) ([]domain.Version, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.opts.HistoryLimit
	}
	versions, err := s.ledger.History(ctx, id, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "listing versions", err)
	}
	return versions, nil
}

// RestoreVersion re-applies the content and workflow stage of version number. Identity,
// ownership and the first-published stamp stay with the document.
func (s *Store[T]) RestoreVersion(ctx context.Context, actor domain.Actor, id string, number int) (T, error) {
	var zero T
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	version, err := s.ledger.Get(ctx, id, number)
	if err != nil {
		if errors.Is(err, domain.ErrVersionNotFound) {
			return zero, err
		}
		return zero, domain.WrapError(domain.ErrCodeInternal, "loading version", err)
	}
	snapshot, err := domain.ParseSnapshot(version.Snapshot)
	if err != nil {
		return zero, domain.WrapError(domain.ErrCodeInternal, "decoding version", err)
	}

	before := doc.Snapshot().Bytes()
	staleKey := primaryKey(doc)
	current := *doc.Base()
	if err := doc.Restore(snapshot); err != nil {
		return zero, domain.WrapError(domain.ErrCodeInternal, "restoring version", err)
	}
	restored := *doc.Base()
	meta := doc.Base()
	*meta = current

	now := s.clock()
	if s.kind.Workflow {
		meta.Status = domain.NormalizeStatus(string(restored.Status), current.Status)
		meta.ScheduledPublishAt = restored.ScheduledPublishAt
		if err := s.authorizePublish(actor, current, meta); err != nil {
			return zero, err
		}
		domain.MaybePublish(meta, meta.Status, meta.ScheduledPublishAt, now)
	}
	if err := s.reserveKeys(ctx, doc); err != nil {
		return zero, err
	}
	meta.Touch(actor.ID, now)

	note := fmt.Sprintf("Restored version %d", number)
	if err := s.commit(ctx, actor, doc, change{action: domain.ActionRestore, note: note, before: before, staleKey: staleKey, version: true}); err != nil {
		return zero, err
	}
	return doc, nil
}

// Clone saves a draft copy of a cloneable document under a fresh, unique slug.
func (s *Store[T]) Clone(ctx context.Context, actor domain.Actor, id string) (T, error) {
	var zero T
	if !s.kind.Cloneable {
		return zero, domain.Invalid("id", s.kind.Label+" cannot be cloned")
	}
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	cloneable, ok := any(doc).(domain.Cloneable)
	if !ok {
		return zero, domain.Invalid("id", s.kind.Label+" cannot be cloned")
	}
	cloneable.PrepareClone()

	if err := s.reserveKeys(ctx, doc); err != nil {
		return zero, err
	}
	meta := doc.Base()
	meta.ID = uuid.NewString()
	meta.Status = domain.StatusDraft
	meta.Touch(actor.ID, s.clock())

	note := "Cloned from existing " + strings.ToLower(s.kind.Label)
	if err := s.commit(ctx, actor, doc, change{action: domain.ActionClone, note: note, version: true}); err != nil {
		return zero, err
	}
	return doc, nil
}

// Trash moves a document to the trash. Trashed documents are never live.
func (s *Store[T]) Trash(ctx context.Context, actor domain.Actor, id string) (T, error) {
	var zero T
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := s.setTrashed(ctx, actor, doc, true); err != nil {
		return zero, err
	}
	return doc, nil
}

func (s *Store[T]) Untrash(ctx context.Context, actor domain.Actor, id string) (T, error) {
	var zero T
	doc, err := s.load(ctx, id)
	if err != nil {
		return zero, err
	}
	if err := s.setTrashed(ctx, actor, doc, false); err != nil {
		return zero, err
	}
	return doc, nil
}

// Delete trashes a live document and permanently removes a trashed one together with its
// versions. It reports whether the document was removed.
func (s *Store[T]) Delete(ctx context.Context, actor domain.Actor, id string) (bool, error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	if !doc.Base().Trashed {
		return false, s.setTrashed(ctx, actor, doc, true)
	}
	if err := s.remove(ctx, actor, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store[T]) remove(ctx context.Context, actor domain.Actor, doc T) error {
	id := doc.Base().ID
	before := doc.Snapshot().Bytes()
	if err := s.docs.Delete(ctx, s.kind.Name, id); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return err
		}
		return domain.WrapError(domain.ErrCodeInternal, "deleting document", err)
	}
	s.invalidate(ctx, primaryKey(doc))
	s.record(ctx, actor, domain.ActionDelete, id, before, nil)
	return nil
}

func (s *Store[T]) setTrashed(ctx context.Context, actor domain.Actor, doc T, trashed bool) error {
	meta := doc.Base()
	if meta.Trashed == trashed {
		return nil
	}
	prior := *meta
	now := s.clock()
	meta.Trashed = trashed
	meta.TrashedAt = nil
	if trashed {
		meta.TrashedAt = &now
	}
	if err := s.authorizePublish(actor, prior, meta); err != nil {
		*meta = prior
		return err
	}
	meta.Touch(actor.ID, now)

	action := domain.ActionUntrash
	if trashed {
		action = domain.ActionTrash
	}
	return s.commit(ctx, actor, doc, change{action: action})
}

// Bulk actions.
const (
	BulkPublish = "publish"
	BulkDraft   = "draft"
	BulkTrash   = "trash"
	BulkDelete  = "delete"
)

type BulkInput struct {
	Action string
	IDs    []string
}

// BulkResult counts outcomes; a failing item does not stop the batch. Trashed counts
// deletes that fell back to the trash and are included in Processed.
type BulkResult struct {
	Action    string   `json:"action"`
	Processed int      `json:"processed"`
	Trashed   int      `json:"trashed,omitempty"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

func (s *Store[T]) Bulk(ctx context.Context, actor domain.Actor, in BulkInput) (BulkResult, error) {
	action := strings.ToLower(strings.TrimSpace(in.Action))
	result := BulkResult{Action: action}
	switch action {
	case BulkPublish, BulkDraft:
		if !s.kind.Workflow {
			return result, domain.Invalid("action", s.kind.Label+" has no workflow")
		}
	case BulkTrash, BulkDelete:
	default:
		return result, domain.Invalid("action", "unknown bulk action")
	}
	if len(in.IDs) == 0 {
		return result, domain.Invalid("ids", "ids are required")
	}

	for _, id := range in.IDs {
		var err error
		switch action {
		case BulkPublish, BulkDraft:
			err = s.bulkTransition(ctx, actor, id, domain.Status(action))
		case BulkTrash:
			_, err = s.Trash(ctx, actor, id)
		case BulkDelete:
			var trashed bool
			trashed, err = s.purge(ctx, actor, id)
			if trashed {
				result.Trashed++
			}
		}
		if err != nil {
			s.logger.Warn("bulk item failed", zap.String("action", action), zap.String("id", id), zap.Error(err))
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Processed++
	}
	return result, nil
}

// purge removes a document permanently whatever its trash state. When the removal fails the
// document is moved to the trash instead and trashed is true.
func (s *Store[T]) purge(ctx context.Context, actor domain.Actor, id string) (trashed bool, err error) {
	doc, err := s.load(ctx, id)
	if err != nil {
		return false, err
	}
	if err := s.remove(ctx, actor, doc); err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return false, err
		}
		s.logger.Warn("permanent delete failed, moving to trash", zap.String("id", id), zap.Error(err))
		if err := s.setTrashed(ctx, actor, doc, true); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

func (s *Store[T]) bulkTransition(ctx context.Context, actor domain.Actor, id string, status domain.Status) error {
	doc, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	return s.transition(ctx, actor, doc, string(status), doc.Base().ScheduledPublishAt, "bulk "+string(status))
}

// ListFilter narrows a listing. A nil Trashed lists both states.
type ListFilter struct {
	Query   string
	Status  string
	Trashed *bool
	Limit   int
	Offset  int
}

func (s *Store[T]) List(ctx context.Context, filter ListFilter) ([]T, error) {
	status := domain.Status(strings.ToLower(strings.TrimSpace(filter.Status)))
	if !status.Valid() {
		status = ""
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := s.docs.List(ctx, repository.DocumentFilter{
		Kind:    s.kind.Name,
		Query:   strings.TrimSpace(filter.Query),
		Status:  status,
		Trashed: filter.Trashed,
		Limit:   filter.Limit,
		Offset:  offset,
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "listing documents", err)
	}

	docs := make([]T, 0, len(records))
	for i := range records {
		doc := s.def.New()
		if err := records[i].Load(doc); err != nil {
			return nil, domain.WrapError(domain.ErrCodeInternal, "decoding document", err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (s *Store[T]) Get(ctx context.Context, id string) (T, error) {
	return s.load(ctx, id)
}

// Published returns the live document addressed by its primary natural key. Reads go
// through the cache when one is configured.
func (s *Store[T]) Published(ctx context.Context, key string) (T, error) {
	var zero T
	key = strings.TrimSpace(key)
	if key == "" || s.keyField == "" {
		return zero, domain.ErrDocumentNotFound
	}

	record, err := s.publishedRecord(ctx, key)
	if err != nil {
		return zero, err
	}
	if !record.Live(s.clock()) {
		return zero, domain.ErrDocumentNotFound
	}
	doc := s.def.New()
	if err := record.Load(doc); err != nil {
		return zero, domain.WrapError(domain.ErrCodeInternal, "decoding document", err)
	}
	return doc, nil
}

func (s *Store[T]) publishedRecord(ctx context.Context, key string) (*domain.Record, error) {
	cacheKey := s.cacheKey(key)
	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
			s.logger.Warn("cache read failed", zap.String("key", cacheKey), zap.Error(err))
		} else if ok {
			var record domain.Record
			if err := json.Unmarshal(cached, &record); err == nil {
				return &record, nil
			}
		}
	}

	record, err := s.docs.FindByKey(ctx, s.kind.Name, s.keyField, key)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return nil, err
		}
		return nil, domain.WrapError(domain.ErrCodeInternal, "loading document", err)
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(record); err == nil {
			if err := s.cache.Set(ctx, cacheKey, encoded); err != nil {
				s.logger.Warn("cache write failed", zap.String("key", cacheKey), zap.Error(err))
			}
		}
	}
	return record, nil
}

type change struct {
	action   string
	note     string
	before   []byte
	staleKey string
	version  bool
	// quiet skips the audit event.
	quiet bool
}

// commit persists doc, appends a version when asked, then invalidates cached reads and
// records the audit event. Only the document write can fail the call, unless atomic writes
// tie the version to it.
func (s *Store[T]) commit(ctx context.Context, actor domain.Actor, doc T, c change) error {
	record := domain.NewRecord(doc)
	snapshot := doc.Snapshot()
	id := record.ID

	write := func(ctx context.Context) error {
		if err := s.docs.Save(ctx, record); err != nil {
			return err
		}
		if c.version && s.opts.AtomicWrites {
			if err := s.ledger.appendInTx(ctx, id, snapshot, c.note, actor); err != nil {
				return fmt.Errorf("appending version: %w", err)
			}
		}
		return nil
	}

	var err error
	if s.opts.AtomicWrites && s.tx != nil {
		err = s.tx.WithinTx(ctx, write)
	} else {
		err = write(ctx)
	}
	if err != nil {
		var conflict *domain.KeyConflict
		if errors.As(err, &conflict) {
			return domain.Duplicate(conflict.Field)
		}
		if errors.Is(err, domain.ErrDuplicateKey) {
			return domain.Duplicate(s.keyField)
		}
		if errors.Is(err, domain.ErrVersionConflict) {
			return domain.ErrVersionConflict
		}
		return domain.WrapError(domain.ErrCodeInternal, "saving document", err)
	}

	if c.version && !s.opts.AtomicWrites {
		s.ledger.Record(ctx, id, snapshot, c.note, actor)
	}
	s.invalidate(ctx, c.staleKey, primaryKey(doc))
	if !c.quiet {
		s.record(ctx, actor, c.action, id, c.before, snapshot.Bytes())
	}
	return nil
}

// reserveKeys rejects natural keys held by another document. Derived keys are suffixed
// -2, -3, ... until free.
func (s *Store[T]) reserveKeys(ctx context.Context, doc T) error {
	self := doc.Base().ID
	for _, key := range doc.Keys() {
		if key.Value == "" {
			continue
		}
		value := key.Value
		for n := 2; ; n++ {
			taken, err := s.docs.KeyTaken(ctx, s.kind.Name, key.Field, value, self)
			if err != nil {
				return domain.WrapError(domain.ErrCodeInternal, "checking "+key.Field, err)
			}
			if !taken {
				break
			}
			if !key.Derived {
				return domain.Duplicate(key.Field)
			}
			value = fmt.Sprintf("%s-%d", key.Value, n)
		}
		if value != key.Value {
			key.Assign(value)
		}
	}
	return nil
}

// authorizePublish requires the kind's publish permission when a change puts a workflow
// document on the published track, brings it back from the trash, or moves the time it goes
// live. Edits to a document that stays published on the same schedule need no extra
// permission.
func (s *Store[T]) authorizePublish(actor domain.Actor, before domain.Meta, after *domain.Meta) error {
	if !s.kind.Workflow || after.Trashed || after.Status != domain.StatusPublished || actor.Can(s.kind.Publish) {
		return nil
	}
	if before.Status == domain.StatusPublished && !before.Trashed &&
		sameInstant(before.ScheduledPublishAt, after.ScheduledPublishAt) {
		return nil
	}
	return domain.ErrForbidden
}

func (s *Store[T]) load(ctx context.Context, id string) (T, error) {
	var zero T
	if strings.TrimSpace(id) == "" {
		return zero, domain.ErrDocumentNotFound
	}
	record, err := s.docs.Get(ctx, s.kind.Name, id)
	if err != nil {
		if errors.Is(err, domain.ErrDocumentNotFound) {
			return zero, err
		}
		return zero, domain.WrapError(domain.ErrCodeInternal, "loading document", err)
	}
	doc := s.def.New()
	if err := record.Load(doc); err != nil {
		return zero, domain.WrapError(domain.ErrCodeInternal, "decoding document", err)
	}
	return doc, nil
}

func (s *Store[T]) record(ctx context.Context, actor domain.Actor, action, id string, before, after []byte) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ctx, actor, domain.AuditEvent{
		Domain:     s.kind.Domain,
		Action:     action,
		EntityType: s.kind.Name,
		EntityID:   id,
		Before:     before,
		After:      after,
	})
}

func (s *Store[T]) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	var cacheKeys []string
	for _, key := range keys {
		if key != "" {
			cacheKeys = append(cacheKeys, s.cacheKey(key))
		}
	}
	if err := s.cache.Invalidate(ctx, cacheKeys...); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Strings("keys", cacheKeys), zap.Error(err))
	}
}

func (s *Store[T]) cacheKey(key string) string {
	return "published:" + s.kind.Name + ":" + key
}

// applyWorkflow normalizes the submitted status (alias workflow_status) and schedule, then
// stamps the first publication. An update without a status keeps the current one.
func applyWorkflow(meta *domain.Meta, f domain.Fields, now time.Time) {
	raw, present := f["status"]
	if !present {
		raw, present = f["workflow_status"]
	}
	if present {
		meta.Status = domain.NormalizeStatus(raw, domain.StatusDraft)
	} else {
		meta.Status = domain.NormalizeStatus(string(meta.Status), domain.StatusDraft)
	}
	if f.Has("scheduled_publish_at") {
		meta.ScheduledPublishAt = domain.ParseSchedule(f.Get("scheduled_publish_at"))
	}
	domain.MaybePublish(meta, meta.Status, meta.ScheduledPublishAt, now)
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func primaryKey(doc domain.Document) string {
	for _, key := range doc.Keys() {
		if key.Value != "" {
			return key.Value
		}
	}
	return ""
}
