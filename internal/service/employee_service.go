package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/cache"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/imageproc"
	"github.com/spec-kit/employee-service/internal/repository"
	"github.com/spec-kit/employee-service/internal/storage"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

const imageURLKeyPrefix = "image_url:"

// EmployeeService coordinates employee workflows: validation, image
// processing and upload, persistence, and signed URL resolution.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	store      storage.ObjectStore
	resolver   *cache.Resolver
	dispatcher events.Dispatcher
	logger     *zap.Logger
	urlTTL     time.Duration
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	ObjectStore  storage.ObjectStore
	Resolver     *cache.Resolver
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	SignedURLTTL time.Duration
}

// EmployeeCreateInput describes employee creation payload.
type EmployeeCreateInput struct {
	FirstName string
	LastName  string
	Email     string
	Address   string
	Gender    domain.Gender
	Mobile    string
	// ImageData holds the raw uploaded image; empty means no image.
	ImageData        []byte
	ImageContentType string
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	ttl := deps.SignedURLTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		store:      deps.ObjectStore,
		resolver:   deps.Resolver,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		urlTTL:     ttl,
	}
}

// randomImageName produces an opaque object key. Never derived from user
// input, so colliding or path-traversing filenames cannot reach the store.
func randomImageName() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Create validates the input, uploads the processed image when present, and
// persists the employee. The upload happens before the insert: an upload
// failure leaves no database row, while an insert failure after a successful
// upload can orphan a blob, which is accepted and logged.
func (s *EmployeeService) Create(ctx context.Context, input EmployeeCreateInput) (*domain.Employee, error) {
	employee := &domain.Employee{
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Email:     input.Email,
		Address:   input.Address,
		Gender:    input.Gender,
		Mobile:    input.Mobile,
	}
	if err := employee.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	// Advisory fast path; the UNIQUE constraint on email settles races.
	existing, err := s.employees.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if existing != nil {
		return nil, apperrors.NewConflict("employee already exists", map[string]any{"email": input.Email})
	}

	if len(input.ImageData) > 0 {
		key, err := s.uploadImage(ctx, input.ImageData, input.ImageContentType)
		if err != nil {
			return nil, err
		}
		employee.Image = key
	}

	if err := s.employees.Create(ctx, employee); err != nil {
		if employee.Image != "" {
			s.logger.Warn("employee insert failed after image upload; blob orphaned",
				zap.String("image_key", employee.Image), zap.Error(err))
		}
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("employee already exists", map[string]any{"email": input.Email})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventEmployeeCreated,
		EmployeeID: employee.ID,
		Payload: events.EmployeeCreatedPayload{
			Email:    employee.Email,
			Gender:   employee.Gender,
			HasImage: employee.Image != "",
		},
	})
	return employee, nil
}

func (s *EmployeeService) uploadImage(ctx context.Context, data []byte, contentType string) (string, error) {
	processed, err := imageproc.Normalize(data)
	if err != nil {
		return "", apperrors.NewValidationError("unsupported or corrupt image", nil)
	}

	key, err := randomImageName()
	if err != nil {
		return "", apperrors.MapError(err)
	}

	if err := s.store.Put(ctx, key, processed, contentType); err != nil {
		return "", apperrors.MapError(err)
	}
	return key, nil
}

// List returns all employees. Records carrying an image key get a signed URL
// resolved through the cache-aside helper; records without one pass through
// unchanged. Get intentionally does not resolve URLs, only List does.
func (s *EmployeeService) List(ctx context.Context) ([]domain.Employee, error) {
	result, err := s.employees.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	for i := range result {
		if result[i].Image == "" {
			continue
		}
		imageKey := result[i].Image
		url, err := s.resolver.GetOrSet(ctx, imageURLKeyPrefix+imageKey, s.urlTTL,
			func(ctx context.Context) (string, error) {
				return s.store.SignedURL(ctx, imageKey, s.urlTTL)
			})
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		result[i].ImageURL = url
	}
	return result, nil
}

// Get returns an employee by id with its raw image key.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return employee, nil
}

// Update applies a partial merge onto the stored record, re-validating the
// merged result before persisting.
func (s *EmployeeService) Update(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error) {
	current, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}

	if update.Empty() {
		return current, nil
	}

	merged := *current
	update.ApplyTo(&merged)
	if err := merged.Validate(); err != nil {
		return nil, apperrors.NewValidationError(err.Error(), nil)
	}

	updated, err := s.employees.Update(ctx, id, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"id": id})
		}
		if repository.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventEmployeeUpdated,
		EmployeeID: id,
		Payload:    events.EmployeeUpdatedPayload{ChangedFields: changedFields(update)},
	})
	return updated, nil
}

// Delete removes the employee if present. Deleting an unknown id is a
// silent no-op that still reports success.
func (s *EmployeeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("id is required", nil)
	}

	// Best-effort lookup so the audit event can carry the image key; its
	// outcome does not gate the delete.
	var imageKey string
	if existing, err := s.employees.GetByID(ctx, id); err == nil {
		imageKey = existing.Image
	}

	removed, err := s.employees.Delete(ctx, id)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !removed {
		// No-op delete: nothing happened, so nothing is audited.
		return nil
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventEmployeeDeleted,
		EmployeeID: id,
		Payload:    events.EmployeeDeletedPayload{ImageKey: imageKey},
	})
	return nil
}

func (s *EmployeeService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	_ = s.dispatcher.Publish(ctx, event)
}

func changedFields(update domain.EmployeeUpdate) []string {
	fields := []string{}
	if update.FirstName != nil {
		fields = append(fields, "firstName")
	}
	if update.LastName != nil {
		fields = append(fields, "lastName")
	}
	if update.Email != nil {
		fields = append(fields, "email")
	}
	if update.Address != nil {
		fields = append(fields, "address")
	}
	if update.Gender != nil {
		fields = append(fields, "gender")
	}
	if update.Mobile != nil {
		fields = append(fields, "mobile")
	}
	return fields
}
