package promotion

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/fastygo/studio/domain"
	"github.com/fastygo/studio/repository"
	"github.com/fastygo/studio/usecase"
)

// Promotable resource types.
var resourceTypes = map[string]domain.Kind{
	domain.PageKind.Name:      domain.PageKind,
	domain.DashboardKind.Name: domain.DashboardKind,
}

type UseCase struct {
	events      repository.PromotionRepository
	documents   repository.DocumentRepository
	versions    repository.VersionRepository
	audit       usecase.Auditor
	environment string
	logger      *zap.Logger
}

func New(
	events repository.PromotionRepository,
	documents repository.DocumentRepository,
	versions repository.VersionRepository,
	audit usecase.Auditor,
	environment string,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	if environment == "" {
		environment = "production"
	}
	return &UseCase{
		events:      events,
		documents:   documents,
		versions:    versions,
		audit:       audit,
		environment: environment,
		logger:      logger,
	}
}

type PromoteInput struct {
	ResourceType      string
	ResourceID        string
	VersionNumber     int
	TargetEnvironment string
	Notes             string
}

// Promote records the intent to ship a stored version to another environment. The version
// must exist; delivery itself happens elsewhere.
func (uc *UseCase) Promote(ctx context.Context, actor domain.Actor, in PromoteInput) (*domain.PromotionEvent, error) {
	resourceType := strings.ToLower(strings.TrimSpace(in.ResourceType))
	kind, ok := resourceTypes[resourceType]
	if !ok {
		return nil, domain.Invalid("resource_type", "resource_type must be page or dashboard")
	}
	resourceID := strings.TrimSpace(in.ResourceID)
	target := domain.Clean(in.TargetEnvironment, 40)
	if err := domain.Require(
		domain.Requirement{Field: "resource_id", Value: resourceID},
		domain.Requirement{Field: "target_environment", Value: target},
	); err != nil {
		return nil, err
	}
	if in.VersionNumber < 1 {
		return nil, domain.Invalid("version_number", "version_number must be at least 1")
	}

	if _, err := uc.documents.Get(ctx, kind.Name, resourceID); err != nil {
		return nil, lookupError(err, "loading "+kind.Name)
	}
	if _, err := uc.versions.Get(ctx, resourceID, in.VersionNumber); err != nil {
		return nil, lookupError(err, "loading version")
	}

	event := &domain.PromotionEvent{
		SourceEnvironment: uc.environment,
		TargetEnvironment: target,
		ResourceType:      resourceType,
		ResourceID:        resourceID,
		VersionNumber:     in.VersionNumber,
		Status:            domain.PromotionRecorded,
		Notes:             domain.Clean(in.Notes, 300),
		PromotedBy:        actor.ID,
	}
	if err := uc.events.Create(ctx, event); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "recording promotion", err)
	}
	uc.logger.Info("promotion recorded",
		zap.String("resource_type", resourceType),
		zap.String("resource_id", resourceID),
		zap.Int("version_number", in.VersionNumber),
		zap.String("target", target))

	if uc.audit != nil {
		uc.audit.Record(ctx, actor, domain.AuditEvent{
			Domain:      "promotion",
			Action:      domain.ActionRecord,
			EntityType:  resourceType,
			EntityID:    resourceID + "@v" + strconv.Itoa(in.VersionNumber),
			Environment: target,
		})
	}
	return event, nil
}

func (uc *UseCase) List(ctx context.Context, limit int) ([]domain.PromotionEvent, error) {
	events, err := uc.events.List(ctx, limit)
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "listing promotions", err)
	}
	return events, nil
}

func lookupError(err error, message string) error {
	if errors.Is(err, domain.ErrDocumentNotFound) || errors.Is(err, domain.ErrVersionNotFound) {
		return err
	}
	return domain.WrapError(domain.ErrCodeInternal, message, err)
}
