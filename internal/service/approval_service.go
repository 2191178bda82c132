package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/rfq-pricing-api/internal/auth"
	"github.com/straye-as/rfq-pricing-api/internal/config"
	"github.com/straye-as/rfq-pricing-api/internal/domain"
	"github.com/straye-as/rfq-pricing-api/internal/logger"
	"github.com/straye-as/rfq-pricing-api/internal/mapper"
	"github.com/straye-as/rfq-pricing-api/internal/metrics"
	"github.com/straye-as/rfq-pricing-api/internal/repository"
	"github.com/straye-as/rfq-pricing-api/internal/storage"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// transition is one edge of the approval state machine
type transition struct {
	event      domain.ApprovalEventType
	from       domain.ApprovalStatus
	to         domain.ApprovalStatus
	permission domain.PermissionType
	// decision transitions are subject to the four-eyes rule
	decision bool
	// latestOnly transitions refuse runs superseded by a newer version of the same RFQ
	latestOnly bool
}

var (
	lockTransition = transition{
		event:      domain.ApprovalEventLocked,
		from:       domain.ApprovalStatusDraft,
		to:         domain.ApprovalStatusLocked,
		permission: domain.PermissionPricingWrite,
	}
	submitTransition = transition{
		event:      domain.ApprovalEventSubmitted,
		from:       domain.ApprovalStatusLocked,
		to:         domain.ApprovalStatusPendingApproval,
		permission: domain.PermissionPricingSubmit,
		latestOnly: true,
	}
	approveTransition = transition{
		event:      domain.ApprovalEventApproved,
		from:       domain.ApprovalStatusPendingApproval,
		to:         domain.ApprovalStatusApproved,
		permission: domain.PermissionPricingApprove,
		decision:   true,
		latestOnly: true,
	}
	rejectTransition = transition{
		event:      domain.ApprovalEventRejected,
		from:       domain.ApprovalStatusPendingApproval,
		to:         domain.ApprovalStatusRejected,
		permission: domain.PermissionPricingApprove,
		decision:   true,
	}
)

// RunSnapshot is the archived form of an approved run
type RunSnapshot struct {
	Run        domain.PricingRunDTO      `json:"run"`
	History    []domain.ApprovalEventDTO `json:"history"`
	ArchivedAt string                    `json:"archivedAt"`
}

// ApprovalService drives pricing runs through draft, locked, pending_approval and a final decision
type ApprovalService struct {
	db        *gorm.DB
	runRepo   *repository.PricingRunRepository
	eventRepo *repository.ApprovalEventRepository
	storage   storage.Storage
	cfg       config.ApprovalConfig
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

// NewApprovalService creates the service. A nil store disables snapshot archiving.
func NewApprovalService(
	db *gorm.DB,
	runRepo *repository.PricingRunRepository,
	eventRepo *repository.ApprovalEventRepository,
	store storage.Storage,
	cfg config.ApprovalConfig,
	m *metrics.Metrics,
	logger *zap.Logger,
) *ApprovalService {
	return &ApprovalService{
		db:        db,
		runRepo:   runRepo,
		eventRepo: eventRepo,
		storage:   store,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// Lock freezes a draft run. Item edits fail with ErrLockConflict afterwards.
func (s *ApprovalService) Lock(ctx context.Context, runID uuid.UUID) (*domain.PricingRunDTO, error) {
	return s.apply(ctx, runID, lockTransition, "")
}

// Submit hands a locked run to an approver
func (s *ApprovalService) Submit(ctx context.Context, runID uuid.UUID, req *domain.SubmitPricingRunRequest) (*domain.PricingRunDTO, error) {
	return s.apply(ctx, runID, submitTransition, req.Comment)
}

func (s *ApprovalService) Approve(ctx context.Context, runID uuid.UUID, req *domain.ApprovePricingRunRequest) (*domain.PricingRunDTO, error) {
	dto, err := s.apply(ctx, runID, approveTransition, req.Comment)
	if err != nil {
		return nil, err
	}
	if s.cfg.ArchiveSnapshots && s.storage != nil {
		s.archive(ctx, dto)
	}
	return dto, nil
}

// Reject ends a run. A reason is mandatory and the run cannot be resubmitted.
func (s *ApprovalService) Reject(ctx context.Context, runID uuid.UUID, req *domain.RejectPricingRunRequest) (*domain.PricingRunDTO, error) {
	if strings.TrimSpace(req.Reason) == "" {
		verr := domain.NewValidationError()
		verr.Add("reason", "a reason is required to reject a pricing run")
		return nil, verr
	}
	return s.apply(ctx, runID, rejectTransition, req.Reason)
}

// apply runs one transition while holding the run row lock and appends its event
func (s *ApprovalService) apply(ctx context.Context, runID uuid.UUID, t transition, reason string) (*domain.PricingRunDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	authUser, ok := auth.FromContext(ctx)
	user, err := requirePermission(authUser, ok, t.permission)
	if err != nil {
		return nil, err
	}
	actorID := user.UserID.String()

	var run *domain.PricingRun
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		runRepo := s.runRepo.WithTx(tx)

		run, err = runRepo.GetForUpdate(ctx, scope, runID)
		if err != nil {
			return lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
		}
		if run.ApprovalStatus != t.from {
			return fmt.Errorf("%w: cannot %s a run in status %s", domain.ErrApprovalStateConflict, verbFor(t.event), run.ApprovalStatus)
		}
		if t.latestOnly {
			current, err := runRepo.GetCurrent(ctx, scope, run.RFQID)
			if err != nil {
				return fmt.Errorf("failed to get current pricing run: %w", err)
			}
			if current.ID != run.ID {
				return fmt.Errorf("%w: version %d is superseded by version %d", domain.ErrApprovalStateConflict, run.Version, current.Version)
			}
		}
		if t.decision && s.cfg.RequireFourEyes && run.SubmittedByID == actorID {
			return fmt.Errorf("%w: the submitter cannot decide on their own submission", domain.ErrPermissionDenied)
		}

		now := time.Now().UTC()
		switch t.event {
		case domain.ApprovalEventLocked:
			run.IsLocked = true
			run.LockedAt = &now
		case domain.ApprovalEventSubmitted:
			run.SubmittedByID = actorID
			run.SubmittedAt = &now
		case domain.ApprovalEventApproved, domain.ApprovalEventRejected:
			run.DecidedAt = &now
		}
		run.ApprovalStatus = t.to

		if err := runRepo.UpdateLifecycle(ctx, scope, run); err != nil {
			return fmt.Errorf("failed to update pricing run: %w", err)
		}

		event := &domain.ApprovalEvent{
			PricingRunID: run.ID,
			EventType:    t.event,
			FromStatus:   t.from,
			ToStatus:     t.to,
			ActorID:      actorID,
			ActorName:    user.DisplayName,
			ActorRoles:   strings.Join(user.RolesAsStrings(), ","),
			Reason:       reason,
			CreatedAt:    now,
		}
		if err := s.eventRepo.WithTx(tx).Append(ctx, scope, event); err != nil {
			return fmt.Errorf("failed to record approval event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Transition(string(t.event))
	logger.ForRun(s.logger, scope.TenantID(), run.ID).Info("pricing run transitioned",
		zap.String("event", string(t.event)),
		zap.String("from", string(t.from)),
		zap.String("to", string(t.to)),
		zap.String("actor_id", actorID),
	)

	full, err := s.runRepo.GetByID(ctx, scope, run.ID)
	if err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	dto := mapper.ToPricingRunDTO(full)
	return &dto, nil
}

func verbFor(event domain.ApprovalEventType) string {
	switch event {
	case domain.ApprovalEventLocked:
		return "lock"
	case domain.ApprovalEventSubmitted:
		return "submit"
	case domain.ApprovalEventApproved:
		return "approve"
	default:
		return "reject"
	}
}

// History returns the approval events of a run in the order they happened
func (s *ApprovalService) History(ctx context.Context, runID uuid.UUID) ([]domain.ApprovalEventDTO, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.runRepo.GetByID(ctx, scope, runID); err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	events, err := s.eventRepo.ListByRun(ctx, scope, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to list approval events: %w", err)
	}
	return mapper.ToApprovalEventDTOs(events), nil
}

// archive writes the approved run and its history to file storage.
// Failures are logged and leave snapshot_path empty.
func (s *ApprovalService) archive(ctx context.Context, run *domain.PricingRunDTO) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return
	}
	log := logger.ForRun(s.logger, scope.TenantID(), run.ID)

	history, err := s.History(ctx, run.ID)
	if err != nil {
		log.Warn("failed to load history for snapshot", zap.Error(err))
		return
	}
	body, err := json.Marshal(RunSnapshot{
		Run:        *run,
		History:    history,
		ArchivedAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		log.Warn("failed to encode snapshot", zap.Error(err))
		return
	}

	key := SnapshotKey(scope.TenantID(), run.RFQID, run.Version)
	if _, err := s.storage.Upload(ctx, key, "application/json", bytes.NewReader(body)); err != nil {
		log.Warn("failed to archive snapshot", zap.String("key", key), zap.Error(err))
		return
	}

	stored, err := s.runRepo.GetByID(ctx, scope, run.ID)
	if err != nil {
		log.Warn("failed to reload run after archiving", zap.Error(err))
		return
	}
	stored.SnapshotPath = key
	if err := s.runRepo.UpdateLifecycle(ctx, scope, stored); err != nil {
		log.Warn("failed to record snapshot path", zap.Error(err))
		return
	}
	log.Info("pricing run snapshot archived", zap.String("key", key))
}

// SnapshotKey is the storage key of an approved run version
func SnapshotKey(tenantID, rfqID uuid.UUID, version int) string {
	return fmt.Sprintf("%s/%s/run-v%d.json", tenantID, rfqID, version)
}

// Snapshot opens the archived snapshot of an approved run
func (s *ApprovalService) Snapshot(ctx context.Context, runID uuid.UUID) (io.ReadCloser, error) {
	scope, err := repository.ScopeFromContext(ctx)
	if err != nil {
		return nil, err
	}
	run, err := s.runRepo.GetByID(ctx, scope, runID)
	if err != nil {
		return nil, lookupError(err, domain.ErrPricingRunNotFound, "pricing run")
	}
	if run.SnapshotPath == "" || s.storage == nil {
		return nil, domain.ErrSnapshotNotFound
	}
	rc, err := s.storage.Download(ctx, run.SnapshotPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return rc, nil
}
