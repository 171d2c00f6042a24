package identity

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	redislib "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	pkgAuth "github.com/GyabaahFelix/lynqed-backend/pkg/auth"
	"github.com/GyabaahFelix/lynqed-backend/pkg/auth/session"
	"github.com/GyabaahFelix/lynqed-backend/pkg/config"
	"github.com/GyabaahFelix/lynqed-backend/pkg/db/models"
	"github.com/GyabaahFelix/lynqed-backend/pkg/enums"
	pkgerrors "github.com/GyabaahFelix/lynqed-backend/pkg/errors"
	"github.com/GyabaahFelix/lynqed-backend/pkg/logger"
	"github.com/GyabaahFelix/lynqed-backend/pkg/security"
)

type fakeUserRepo struct {
	byEmail   map[string]*models.User
	byID      map[uuid.UUID]*models.User
	createErr error
	created   []*models.User
	touched   []uuid.UUID
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{
		byEmail: map[string]*models.User{},
		byID:    map[uuid.UUID]*models.User{},
	}
	for _, user := range users {
		repo.byEmail[user.Email] = user
		repo.byID[user.ID] = user
	}
	return repo
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	r.created = append(r.created, user)
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return nil
}

func (r *fakeUserRepo) TouchLastLogin(_ context.Context, id uuid.UUID, _ time.Time) error {
	r.touched = append(r.touched, id)
	return nil
}

type fakeSessionManager struct {
	rotateErr error
	revoked   []string
	rotations int
}

func (m *fakeSessionManager) Generate(_ context.Context, _, accessID string) (string, error) {
	return "refresh-for-" + accessID, nil
}

func (m *fakeSessionManager) Rotate(_ context.Context, _, _, _ string) (string, string, error) {
	if m.rotateErr != nil {
		return "", "", m.rotateErr
	}
	m.rotations++
	accessID := uuid.NewString()
	return accessID, "refresh-for-" + accessID, nil
}

func (m *fakeSessionManager) Revoke(_ context.Context, userID, accessID string) error {
	m.revoked = append(m.revoked, userID+"/"+accessID)
	return nil
}

type fakeRoleStore struct {
	values map[string]string
	sets   map[string]string
}

func (s *fakeRoleStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return value, nil
}

func (s *fakeRoleStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	if s.sets == nil {
		s.sets = map[string]string{}
	}
	s.sets[key] = value.(string)
	return nil
}

func (s *fakeRoleStore) LastRoleKey(userID string) string {
	return "last_role:" + userID
}

type fakeCartClearer struct {
	cleared  []uuid.UUID
	clearErr error
}

func (c *fakeCartClearer) Clear(_ context.Context, userID uuid.UUID) error {
	if c.clearErr != nil {
		return c.clearErr
	}
	c.cleared = append(c.cleared, userID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "lynqed-test",
		ExpirationMinutes: 15,
	}
}

func newIdentityService(t *testing.T, repo *fakeUserRepo, sessions *fakeSessionManager, roles *fakeRoleStore) Service {
	t.Helper()
	return newIdentityServiceWithCart(t, repo, sessions, roles, &fakeCartClearer{})
}

func newIdentityServiceWithCart(t *testing.T, repo *fakeUserRepo, sessions *fakeSessionManager, roles *fakeRoleStore, cart *fakeCartClearer) Service {
	t.Helper()
	if roles.values == nil {
		roles.values = map[string]string{}
	}
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		RoleStore:      roles,
		Cart:           cart,
		JWTConfig:      testJWTConfig(),
		Logger:         logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func seededUser(t *testing.T, password string, roles ...string) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if len(roles) == 0 {
		roles = []string{enums.RoleBuyer.String()}
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        "ama@knust.edu.gh",
		PasswordHash: hash,
		FullName:     "Ama Mensah",
		Roles:        pq.StringArray(roles),
	}
}

func TestRegisterIssuesBuyerSession(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := newIdentityService(t, repo, &fakeSessionManager{}, &fakeRoleStore{})

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "  Kofi@KNUST.edu.gh ",
		Password: "correct horse",
		FullName: "Kofi Boateng",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.ActiveRole != enums.RoleBuyer {
		t.Fatalf("expected buyer active role, got %s", resp.ActiveRole)
	}
	if resp.AccessToken == "" || resp.RefreshToken == "" {
		t.Fatalf("expected both tokens minted")
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one user created, got %d", len(repo.created))
	}
	if repo.created[0].Email != "kofi@knust.edu.gh" {
		t.Fatalf("expected lowercased trimmed email, got %q", repo.created[0].Email)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_users_email"`)
	svc := newIdentityService(t, repo, &fakeSessionManager{}, &fakeRoleStore{})

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "kofi@knust.edu.gh",
		Password: "correct horse",
		FullName: "Kofi Boateng",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse")
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, &fakeRoleStore{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "wrong horse"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	t.Parallel()

	svc := newIdentityService(t, newFakeUserRepo(), &fakeSessionManager{}, &fakeRoleStore{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: "nobody@knust.edu.gh", Password: "whatever"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginBannedAccount(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse")
	user.Banned = true
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, &fakeRoleStore{})

	_, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if pkgerrors.As(err).Code() != pkgerrors.CodeAccountSuspended {
		t.Fatalf("expected suspended, got %v", err)
	}
}

func TestLoginPrefersLastUsedRole(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleVendor.String())
	repo := newFakeUserRepo(user)
	roles := &fakeRoleStore{values: map[string]string{
		"last_role:" + user.ID.String(): enums.RoleVendor.String(),
	}}
	svc := newIdentityService(t, repo, &fakeSessionManager{}, roles)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ActiveRole != enums.RoleVendor {
		t.Fatalf("expected remembered vendor role, got %s", resp.ActiveRole)
	}
	if len(repo.touched) != 1 {
		t.Fatalf("expected last login touched once, got %d", len(repo.touched))
	}
}

func TestLoginIgnoresStoredRoleNoLongerHeld(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleAdmin.String())
	roles := &fakeRoleStore{values: map[string]string{
		"last_role:" + user.ID.String(): enums.RoleVendor.String(),
	}}
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, roles)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ActiveRole != enums.RoleAdmin {
		t.Fatalf("expected fallback to highest held role, got %s", resp.ActiveRole)
	}
}

func TestLoginAdminOutranksRememberedRole(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse",
		enums.RoleBuyer.String(), enums.RoleVendor.String(), enums.RoleAdmin.String())
	roles := &fakeRoleStore{values: map[string]string{
		"last_role:" + user.ID.String(): enums.RoleVendor.String(),
	}}
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, roles)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.ActiveRole != enums.RoleAdmin {
		t.Fatalf("an admin account must land on admin regardless of preference, got %s", resp.ActiveRole)
	}
	if got := roles.sets["last_role:"+user.ID.String()]; got != enums.RoleAdmin.String() {
		t.Fatalf("expected the forced admin role persisted, got %q", got)
	}
}

func TestLoginPersistsResolvedRole(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleVendor.String())
	roles := &fakeRoleStore{}
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, roles)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: user.Email, Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got := roles.sets["last_role:"+user.ID.String()]; got != resp.ActiveRole.String() {
		t.Fatalf("expected login to remember %s, got %q", resp.ActiveRole, got)
	}
}

func TestGuestSession(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	svc := newIdentityService(t, repo, &fakeSessionManager{}, &fakeRoleStore{})

	resp, err := svc.Guest(context.Background(), GuestRequest{
		Email:    " Walk.In@KNUST.edu.gh ",
		FullName: "Walk In",
		Phone:    "+233201234567",
	})
	if err != nil {
		t.Fatalf("Guest: %v", err)
	}
	if !resp.User.IsGuest {
		t.Fatalf("expected guest flag on profile")
	}
	if resp.ActiveRole != enums.RoleBuyer {
		t.Fatalf("expected buyer role for guest, got %s", resp.ActiveRole)
	}
	if len(repo.created) != 1 || repo.created[0].Email != "walk.in@knust.edu.gh" {
		t.Fatalf("expected the supplied email on the account, got %+v", repo.created)
	}
}

func TestGuestDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newFakeUserRepo()
	repo.createErr = errors.New(`duplicate key value violates unique constraint "ux_users_email"`)
	svc := newIdentityService(t, repo, &fakeSessionManager{}, &fakeRoleStore{})

	_, err := svc.Guest(context.Background(), GuestRequest{
		Email:    "ama@knust.edu.gh",
		FullName: "Ama Mensah",
		Phone:    "+233200000000",
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict for an email that already has an account, got %v", err)
	}
}

func TestSwitchRoleRejectsUnheldRole(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse")
	sessions := &fakeSessionManager{}
	svc := newIdentityService(t, newFakeUserRepo(user), sessions, &fakeRoleStore{})

	_, err := svc.SwitchRole(context.Background(), user.ID, "access-1", "refresh-1", enums.RoleVendor)
	if pkgerrors.As(err).Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if sessions.rotations != 0 {
		t.Fatalf("rejected switch must not rotate the session")
	}
}

func TestSwitchRoleRotatesAndRemembers(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleDeliveryPerson.String())
	sessions := &fakeSessionManager{}
	roles := &fakeRoleStore{}
	svc := newIdentityService(t, newFakeUserRepo(user), sessions, roles)

	resp, err := svc.SwitchRole(context.Background(), user.ID, "access-1", "refresh-1", enums.RoleDeliveryPerson)
	if err != nil {
		t.Fatalf("SwitchRole: %v", err)
	}
	if resp.ActiveRole != enums.RoleDeliveryPerson {
		t.Fatalf("expected delivery role, got %s", resp.ActiveRole)
	}
	if sessions.rotations != 1 {
		t.Fatalf("expected one rotation, got %d", sessions.rotations)
	}
	if got := roles.sets["last_role:"+user.ID.String()]; got != enums.RoleDeliveryPerson.String() {
		t.Fatalf("expected remembered role, got %q", got)
	}
}

func TestSwitchRoleInvalidRefreshToken(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleVendor.String())
	sessions := &fakeSessionManager{rotateErr: session.ErrInvalidRefreshToken}
	svc := newIdentityService(t, newFakeUserRepo(user), sessions, &fakeRoleStore{})

	_, err := svc.SwitchRole(context.Background(), user.ID, "access-1", "stolen", enums.RoleVendor)
	if pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRefreshKeepsActiveRole(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String(), enums.RoleVendor.String())
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, &fakeRoleStore{})

	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:     user.ID,
		Roles:      []enums.Role{enums.RoleBuyer, enums.RoleVendor},
		ActiveRole: enums.RoleVendor,
		JTI:        "access-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "refresh-1"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.ActiveRole != enums.RoleVendor {
		t.Fatalf("expected session to stay on vendor, got %s", resp.ActiveRole)
	}
}

func TestRefreshDropsRoleNoLongerHeld(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse", enums.RoleBuyer.String())
	svc := newIdentityService(t, newFakeUserRepo(user), &fakeSessionManager{}, &fakeRoleStore{})

	accessToken, err := pkgAuth.MintAccessToken(testJWTConfig(), time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:     user.ID,
		Roles:      []enums.Role{enums.RoleBuyer, enums.RoleVendor},
		ActiveRole: enums.RoleVendor,
		JTI:        "access-1",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	resp, err := svc.Refresh(context.Background(), RefreshRequest{AccessToken: accessToken, RefreshToken: "refresh-1"})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if resp.ActiveRole != enums.RoleBuyer {
		t.Fatalf("expected fallback to held role, got %s", resp.ActiveRole)
	}
}

func TestLogoutRevokesSessionAndClearsCart(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse")
	sessions := &fakeSessionManager{}
	cart := &fakeCartClearer{}
	svc := newIdentityServiceWithCart(t, newFakeUserRepo(user), sessions, &fakeRoleStore{}, cart)

	if err := svc.Logout(context.Background(), user.ID, "access-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != user.ID.String()+"/access-1" {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
	if len(cart.cleared) != 1 || cart.cleared[0] != user.ID {
		t.Fatalf("expected the cart emptied on logout, got %v", cart.cleared)
	}
}

func TestLogoutSucceedsWhenCartClearFails(t *testing.T) {
	t.Parallel()

	user := seededUser(t, "correct horse")
	sessions := &fakeSessionManager{}
	cart := &fakeCartClearer{clearErr: errors.New("cart store down")}
	svc := newIdentityServiceWithCart(t, newFakeUserRepo(user), sessions, &fakeRoleStore{}, cart)

	if err := svc.Logout(context.Background(), user.ID, "access-1"); err != nil {
		t.Fatalf("Logout must not fail on a cart cleanup error: %v", err)
	}
	if len(sessions.revoked) != 1 {
		t.Fatalf("expected session revoked, got %v", sessions.revoked)
	}
}
