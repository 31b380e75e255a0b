package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"pulseid/internal/common"
	"pulseid/internal/common/security"
	"pulseid/internal/domain/model"
	"pulseid/internal/platform/cache"
	"pulseid/internal/platform/config"
)

// --- helpers ---

func initTestJWT(t *testing.T) {
	t.Helper()
	config.AppConfig = &config.Config{
		JWTKey:     []byte("test-secret"),
		JWTExp:     time.Hour,
		BcryptCost: 4, // MinCost, keeps the suite fast
	}
	security.InitJWT()
}

type fakeUserRepo struct {
	byEmail map[string]*model.User
	byID    map[string]*model.User

	created   []*model.User
	createErr error

	listOut  []model.User
	listErr  error
	total    int
	countErr error

	updateErr error
	updated   *model.User

	deleteErr error
	deleted   []string

	listCalls int
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		byEmail: map[string]*model.User{},
		byID:    map[string]*model.User{},
	}
}

func (f *fakeUserRepo) add(u *model.User) {
	f.byEmail[u.Email] = u
	f.byID[u.ID] = u
}

func (f *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.byEmail[user.Email]; exists {
		return fmt.Errorf("user with given email already exists: %w", common.ErrConflict)
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	cp := *user
	f.created = append(f.created, &cp)
	f.add(&cp)
	return nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listOut, nil
}

func (f *fakeUserRepo) Count(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.total, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, user *model.User) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	cp := *user
	f.updated = &cp
	f.add(&cp)
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return nil
}

type fakeDirCache struct {
	page *cache.DirectoryPage
	hit  bool

	lastSet       *cache.DirectoryPage
	sets          int
	invalidations int
}

func (f *fakeDirCache) GetPage(ctx context.Context, page, pageSize int) (*cache.DirectoryPage, bool, error) {
	return f.page, f.hit, nil
}

func (f *fakeDirCache) SetPage(ctx context.Context, page, pageSize int, p *cache.DirectoryPage) error {
	f.lastSet = p
	f.sets++
	return nil
}

func (f *fakeDirCache) Invalidate(ctx context.Context) error {
	f.invalidations++
	return nil
}

// --- tests ---

func TestRegister_Success(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	dc := &fakeDirCache{}
	s := NewAuthService(repo, dc)

	resp, err := s.Register(context.Background(), RegisterRequest{
		Name:     "  Ada Lovelace  ",
		Email:    "Ada.Lovelace@Example.COM",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if resp.Token == "" {
		t.Fatalf("expected a token")
	}
	if resp.User.Name != "Ada Lovelace" {
		t.Fatalf("name not trimmed: %q", resp.User.Name)
	}
	if resp.User.Email != "ada.lovelace@example.com" {
		t.Fatalf("email not normalized: %q", resp.User.Email)
	}
	if resp.User.HashedPassword != "" {
		t.Fatalf("hash must be stripped from the response")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected exactly one write, got %d", len(repo.created))
	}
	if repo.created[0].HashedPassword == "password123" || repo.created[0].HashedPassword == "" {
		t.Fatalf("stored password must be a hash")
	}
	if dc.invalidations != 1 {
		t.Fatalf("expected one directory invalidation, got %d", dc.invalidations)
	}

	gotID, err := security.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("VerifyToken error: %v", err)
	}
	if gotID != resp.User.ID {
		t.Fatalf("token bound to %q, want %q", gotID, resp.User.ID)
	}
}

func TestRegister_MissingFields(t *testing.T) {
	initTestJWT(t)
	s := NewAuthService(newFakeUserRepo(), nil)

	cases := []RegisterRequest{
		{Email: "a@x.com", Password: "pw"},
		{Name: "A", Password: "pw"},
		{Name: "A", Email: "a@x.com"},
		{Name: "   ", Email: "a@x.com", Password: "pw"},
	}
	for _, req := range cases {
		if _, err := s.Register(context.Background(), req); !errors.Is(err, common.ErrValidation) {
			t.Fatalf("req %+v: want ErrValidation, got %v", req, err)
		}
	}
}

func TestRegister_InvalidEmail(t *testing.T) {
	initTestJWT(t)
	s := NewAuthService(newFakeUserRepo(), nil)

	_, err := s.Register(context.Background(), RegisterRequest{
		Name: "A", Email: "not-an-email", Password: "pw",
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestRegister_DuplicateEmail_NoSecondWrite(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	s := NewAuthService(repo, nil)

	first := RegisterRequest{Name: "A", Email: "a@x.com", Password: "pw"}
	if _, err := s.Register(context.Background(), first); err != nil {
		t.Fatalf("first Register error: %v", err)
	}

	_, err := s.Register(context.Background(), RegisterRequest{Name: "B", Email: "a@x.com", Password: "pw2"})
	if !errors.Is(err, common.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("conflict must not write, writes: %d", len(repo.created))
	}
}

func TestLogin_SucceedsOnlyWithMatchingPassword(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	hash, err := security.HashPassword("right-password")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	repo.add(&model.User{ID: "u1", Name: "A", Email: "a@x.com", HashedPassword: hash})
	s := NewAuthService(repo, nil)

	resp, err := s.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "right-password"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}
	if resp.User.ID != "u1" || resp.Token == "" {
		t.Fatalf("unexpected login response: %+v", resp)
	}
	if resp.User.HashedPassword != "" {
		t.Fatalf("hash must be stripped from the response")
	}

	_, err = s.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "wrong-password"})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("wrong password: want ErrUnauthorized, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	initTestJWT(t)
	s := NewAuthService(newFakeUserRepo(), nil)

	_, err := s.Login(context.Background(), LoginRequest{Email: "ghost@x.com", Password: "pw"})
	if !errors.Is(err, common.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestLogin_MissingFields(t *testing.T) {
	initTestJWT(t)
	s := NewAuthService(newFakeUserRepo(), nil)

	if _, err := s.Login(context.Background(), LoginRequest{Email: "a@x.com"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if _, err := s.Login(context.Background(), LoginRequest{Password: "pw"}); !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestRegisterThenLogin_RoundTrip(t *testing.T) {
	initTestJWT(t)
	repo := newFakeUserRepo()
	s := NewAuthService(repo, nil)

	regResp, err := s.Register(context.Background(), RegisterRequest{Name: "A", Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	loginResp, err := s.Login(context.Background(), LoginRequest{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login error: %v", err)
	}

	if regResp.Token == loginResp.Token {
		t.Fatalf("expected two distinct tokens")
	}
	id1, err := security.VerifyToken(regResp.Token)
	if err != nil {
		t.Fatalf("VerifyToken(register) error: %v", err)
	}
	id2, err := security.VerifyToken(loginResp.Token)
	if err != nil {
		t.Fatalf("VerifyToken(login) error: %v", err)
	}
	if id1 != id2 || id1 != regResp.User.ID {
		t.Fatalf("both tokens must verify to the registered user, got %q and %q", id1, id2)
	}
}
