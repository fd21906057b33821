package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-service/internal/cache"
	"github.com/spec-kit/employee-service/internal/domain"
	"github.com/spec-kit/employee-service/internal/events"
	"github.com/spec-kit/employee-service/internal/observability"
	apperrors "github.com/spec-kit/employee-service/pkg/util"
)

// fakeEmployeeRepo is an in-memory repository.EmployeeRepository.
type fakeEmployeeRepo struct {
	byID map[string]domain.Employee
}

func newFakeEmployeeRepo() *fakeEmployeeRepo {
	return &fakeEmployeeRepo{byID: map[string]domain.Employee{}}
}

func (r *fakeEmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	result := make([]domain.Employee, 0, len(r.byID))
	for _, e := range r.byID {
		result = append(result, e)
	}
	return result, nil
}

func (r *fakeEmployeeRepo) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (r *fakeEmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	for _, e := range r.byID {
		if e.Email == email {
			found := e
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeEmployeeRepo) Create(ctx context.Context, employee *domain.Employee) error {
	employee.ID = uuid.NewString()
	employee.CreatedAt = time.Now().UTC()
	employee.UpdatedAt = employee.CreatedAt
	r.byID[employee.ID] = *employee
	return nil
}

func (r *fakeEmployeeRepo) Update(ctx context.Context, id string, update domain.EmployeeUpdate) (*domain.Employee, error) {
	e, ok := r.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	update.ApplyTo(&e)
	e.UpdatedAt = time.Now().UTC()
	r.byID[id] = e
	return &e, nil
}

func (r *fakeEmployeeRepo) Delete(ctx context.Context, id string) (bool, error) {
	_, ok := r.byID[id]
	delete(r.byID, id)
	return ok, nil
}

// fakeObjectStore counts uploads and signings.
type fakeObjectStore struct {
	objects   map[string][]byte
	putErr    error
	putCalls  int
	signCalls int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, body []byte, contentType string) error {
	s.putCalls++
	if s.putErr != nil {
		return s.putErr
	}
	s.objects[key] = body
	return nil
}

func (s *fakeObjectStore) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	s.signCalls++
	return "https://signed.example.com/" + key, nil
}

// memoryBackend is a minimal in-process cache.Backend.
type memoryBackend struct {
	data map[string]string
	down bool
}

func (b *memoryBackend) Get(ctx context.Context, key string) (string, error) {
	if b.down {
		return "", errors.New("backend unreachable")
	}
	val, ok := b.data[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return val, nil
}

func (b *memoryBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if b.down {
		return errors.New("backend unreachable")
	}
	b.data[key] = value
	return nil
}

type captureDispatcher struct {
	published []events.Event
}

func (d *captureDispatcher) Publish(ctx context.Context, event events.Event) error {
	d.published = append(d.published, event)
	return nil
}

func (d *captureDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {}

type serviceFixture struct {
	svc        *EmployeeService
	repo       *fakeEmployeeRepo
	store      *fakeObjectStore
	backend    *memoryBackend
	dispatcher *captureDispatcher
}

func newFixture() *serviceFixture {
	repo := newFakeEmployeeRepo()
	store := newFakeObjectStore()
	backend := &memoryBackend{data: map[string]string{}}
	dispatcher := &captureDispatcher{}

	svc := NewEmployeeService(EmployeeDependencies{
		EmployeeRepo: repo,
		ObjectStore:  store,
		Resolver:     cache.NewResolver(backend, zap.NewNop(), observability.NewMetrics()),
		Dispatcher:   dispatcher,
		Logger:       zap.NewNop(),
		SignedURLTTL: time.Hour,
	})
	return &serviceFixture{svc: svc, repo: repo, store: store, backend: backend, dispatcher: dispatcher}
}

func validInput() EmployeeCreateInput {
	return EmployeeCreateInput{
		FirstName: "A",
		LastName:  "B",
		Email:     "a@b.com",
		Address:   "X",
		Gender:    domain.GenderMale,
		Mobile:    "123",
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func TestCreate_NoImage(t *testing.T) {
	f := newFixture()

	employee, err := f.svc.Create(context.Background(), validInput())

	require.NoError(t, err)
	assert.NotEmpty(t, employee.ID)
	assert.Empty(t, employee.Image)
	assert.Zero(t, f.store.putCalls)

	fetched, err := f.svc.Get(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.Email, fetched.Email)
	assert.Equal(t, employee.FirstName, fetched.FirstName)

	require.Len(t, f.dispatcher.published, 1)
	assert.Equal(t, events.EventEmployeeCreated, f.dispatcher.published[0].Type)
}

func TestCreate_DuplicateEmailRejected(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	second := validInput()
	second.FirstName = "Other"
	second.ImageData = pngBytes(t, 10, 10)

	_, err = f.svc.Create(context.Background(), second)
	require.Error(t, err)
	assert.Equal(t, 409, apperrors.ToDomainError(err).HTTPStatus)
	assert.Len(t, f.repo.byID, 1, "second create must not persist")
	assert.Zero(t, f.store.putCalls, "second create must not upload")
}

func TestCreate_MissingFieldsRejected(t *testing.T) {
	f := newFixture()

	input := validInput()
	input.Email = ""
	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	input = validInput()
	input.Gender = "other"
	_, err = f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	assert.Empty(t, f.repo.byID)
}

func TestCreate_WithImageStoresRandomKey(t *testing.T) {
	f := newFixture()

	input := validInput()
	input.ImageData = pngBytes(t, 10, 10)
	input.ImageContentType = "image/png"

	employee, err := f.svc.Create(context.Background(), input)
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), employee.Image,
		"object key is 32 random bytes hex encoded")
	assert.Equal(t, 1, f.store.putCalls)
	assert.Contains(t, f.store.objects, employee.Image)

	fetched, err := f.svc.Get(context.Background(), employee.ID)
	require.NoError(t, err)
	assert.Equal(t, employee.Image, fetched.Image)
	assert.Empty(t, fetched.ImageURL, "get does not resolve signed URLs")
}

func TestCreate_UploadFailureAbortsCreation(t *testing.T) {
	f := newFixture()
	f.store.putErr = errors.New("bucket unavailable")

	input := validInput()
	input.ImageData = pngBytes(t, 10, 10)

	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Empty(t, f.repo.byID, "no employee row after a failed upload")
	assert.Empty(t, f.dispatcher.published)
}

func TestCreate_CorruptImageRejected(t *testing.T) {
	f := newFixture()

	input := validInput()
	input.ImageData = []byte("not an image")

	_, err := f.svc.Create(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
	assert.Empty(t, f.repo.byID)
}

func TestList_ResolvesURLsThroughCache(t *testing.T) {
	f := newFixture()

	plain, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	withImage := validInput()
	withImage.Email = "c@d.com"
	withImage.ImageData = pngBytes(t, 10, 10)
	created, err := f.svc.Create(context.Background(), withImage)
	require.NoError(t, err)

	result, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 2)

	urls := map[string]string{}
	for _, e := range result {
		urls[e.ID] = e.ImageURL
	}
	assert.Empty(t, urls[plain.ID], "no image key, no URL")
	assert.NotEmpty(t, urls[created.ID])
	assert.Equal(t, 1, f.store.signCalls)

	// Second list within the TTL window is served from the cache.
	_, err = f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, f.store.signCalls, "signed URL generation must be cached")
}

func TestList_CacheDownStillResolvesURLs(t *testing.T) {
	f := newFixture()

	withImage := validInput()
	withImage.ImageData = pngBytes(t, 10, 10)
	_, err := f.svc.Create(context.Background(), withImage)
	require.NoError(t, err)

	f.backend.down = true

	result, err := f.svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.NotEmpty(t, result[0].ImageURL)
	assert.Equal(t, 1, f.store.signCalls)

	_, err = f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.signCalls, "every list re-signs while the cache is down")
}

func TestList_EmptyIsNotAnError(t *testing.T) {
	f := newFixture()

	result, err := f.svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestGet_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Get(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
}

func TestUpdate_PartialMerge(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	mobile := "456"
	updated, err := f.svc.Update(context.Background(), created.ID, domain.EmployeeUpdate{Mobile: &mobile})
	require.NoError(t, err)

	assert.Equal(t, "456", updated.Mobile)
	assert.Equal(t, created.FirstName, updated.FirstName, "unspecified fields stay unchanged")
	assert.Equal(t, created.Email, updated.Email)
}

func TestUpdate_NoFieldsIsANoOp(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	updated, err := f.svc.Update(context.Background(), created.ID, domain.EmployeeUpdate{})
	require.NoError(t, err)
	assert.Equal(t, created.Mobile, updated.Mobile)
	assert.Len(t, f.dispatcher.published, 1, "no update event for an empty patch")
}

func TestUpdate_RevalidatesMergedRecord(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	empty := ""
	_, err = f.svc.Update(context.Background(), created.ID, domain.EmployeeUpdate{FirstName: &empty})
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)

	current, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.FirstName, current.FirstName, "failed update leaves the record untouched")
}

func TestUpdate_UnknownIDIsNotFound(t *testing.T) {
	f := newFixture()

	mobile := "456"
	_, err := f.svc.Update(context.Background(), uuid.NewString(), domain.EmployeeUpdate{Mobile: &mobile})
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.ToDomainError(err).HTTPStatus)
	assert.Empty(t, f.repo.byID)
}

func TestDelete_UnknownIDIsANoOp(t *testing.T) {
	f := newFixture()

	created, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), uuid.NewString()))
	assert.Len(t, f.repo.byID, 1, "unrelated records survive a no-op delete")
	assert.Len(t, f.dispatcher.published, 1, "a no-op delete must not publish an audit event")

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))
	assert.Empty(t, f.repo.byID)
	require.Len(t, f.dispatcher.published, 2)
	assert.Equal(t, events.EventEmployeeDeleted, f.dispatcher.published[1].Type)
}

func TestDelete_EmptyIDRejected(t *testing.T) {
	f := newFixture()

	err := f.svc.Delete(context.Background(), "")
	require.Error(t, err)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}
