package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"campusgate/internal/identity/revocation"
	"campusgate/internal/identity/store"
	"campusgate/internal/jwttoken"
	"campusgate/internal/mailer"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// SessionListener observes session changes. It fires with the user and token
// on sign-in and with (nil, "") on sign-out. Listeners run on the calling
// goroutine; relative ordering against explicit state-machine actions is
// whatever the callers produce (last write wins downstream).
type SessionListener func(user *User, token string)

// ProfileProvisioner is the slice of the profile store the provider needs:
// sign-up provisions an admin profile document before returning.
type ProfileProvisioner interface {
	ProvisionAdmin(ctx context.Context, userID, email, name string) error
}

// Provider is the identity service the auth state machine talks to. All
// failures propagate immediately; there is no retry or backoff anywhere in
// this surface.
type Provider interface {
	SignUp(ctx context.Context, email, password, name string) (User, string, error)
	SignIn(ctx context.Context, email, password string) (User, string, error)
	SignOut(ctx context.Context, token string) error
	SendPasswordReset(ctx context.Context, email string) error
	VerifyResetCode(ctx context.Context, code string) (string, error)
	ConfirmReset(ctx context.Context, code, newPassword string) error
	ResendVerificationEmail(ctx context.Context, email string) error
	ConfirmEmail(ctx context.Context, code string) error
	Subscribe(fn SessionListener) func()
}

const (
	actionKindReset       = "password_reset"
	actionKindVerifyEmail = "verify_email"

	actionCodeTTL = time.Hour
)

// actionCode is a single-use out-of-band code (password reset, email
// confirmation). These are provider-internal, mirroring what a hosted
// identity service keeps to itself.
type actionCode struct {
	UserID    string
	Email     string
	Kind      string
	ExpiresAt time.Time
	Used      bool
}

// LocalProvider implements Provider against the credential store, with JWT
// session tokens and a token revocation list for sign-out.
type LocalProvider struct {
	creds    store.CredentialStore
	profiles ProfileProvisioner
	tokens   *jwttoken.Service
	trl      revocation.List
	mail     mailer.Mailer
	logger   *slog.Logger

	sessionTTL time.Duration

	codeMu      sync.Mutex
	actionCodes map[string]actionCode

	listenerMu sync.RWMutex
	listeners  map[int]SessionListener
	nextID     int
}

// LocalProviderOption configures a LocalProvider.
type LocalProviderOption func(*LocalProvider)

func WithLogger(logger *slog.Logger) LocalProviderOption {
	return func(p *LocalProvider) {
		p.logger = logger
	}
}

func WithSessionTTL(ttl time.Duration) LocalProviderOption {
	return func(p *LocalProvider) {
		if ttl > 0 {
			p.sessionTTL = ttl
		}
	}
}

func NewLocalProvider(
	creds store.CredentialStore,
	profiles ProfileProvisioner,
	tokens *jwttoken.Service,
	trl revocation.List,
	mail mailer.Mailer,
	opts ...LocalProviderOption,
) (*LocalProvider, error) {
	if creds == nil {
		return nil, errors.New("credential store is required")
	}
	if profiles == nil {
		return nil, errors.New("profile provisioner is required")
	}
	if tokens == nil {
		return nil, errors.New("token service is required")
	}
	if trl == nil {
		return nil, errors.New("revocation list is required")
	}
	if mail == nil {
		return nil, errors.New("mailer is required")
	}

	p := &LocalProvider{
		creds:       creds,
		profiles:    profiles,
		tokens:      tokens,
		trl:         trl,
		mail:        mail,
		logger:      slog.Default(),
		sessionTTL:  24 * time.Hour,
		actionCodes: make(map[string]actionCode),
		listeners:   make(map[int]SessionListener),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// SignUp registers an admin account. The admin profile document is
// provisioned before this returns so the verification code manager always
// finds a profile to merge into.
func (p *LocalProvider) SignUp(ctx context.Context, email, password, name string) (User, string, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, "", dErrors.New(dErrors.CodeValidation, "a valid email is required")
	}
	if len(password) < 6 {
		return User{}, "", dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}

	now := requestcontext.Now(ctx)
	cred := store.Credential{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    now,
	}
	if err := p.creds.Create(ctx, cred); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return User{}, "", dErrors.New(dErrors.CodeConflict, "email already registered")
		}
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create account")
	}

	if err := p.profiles.ProvisionAdmin(ctx, cred.UserID, email, name); err != nil {
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to provision profile")
	}

	user := User{
		ID:        cred.UserID,
		Email:     email,
		Name:      name,
		Role:      RoleAdmin,
		IsActive:  true,
		LastLogin: now,
	}

	token, err := p.tokens.GenerateSessionToken(user.ID, user.Email, string(user.Role), p.sessionTTL)
	if err != nil {
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	// Confirmation mail is best effort at sign-up; the resend path covers
	// delivery failures.
	if err := p.sendEmailConfirmation(ctx, cred.UserID, email); err != nil {
		p.logger.WarnContext(ctx, "failed to send confirmation mail at sign-up",
			"error", err,
			"user_id", cred.UserID,
		)
	}

	p.notify(&user, token)
	return user, token, nil
}

// SignIn authenticates an email/password pair. The unverified-email gate
// runs here, before any role lookup happens downstream.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (User, string, error) {
	cred, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	if !cred.EmailVerified {
		return User{}, "", ErrUnverifiedEmail
	}

	user := User{
		ID:            cred.UserID,
		Email:         cred.Email,
		Name:          cred.Name,
		IsActive:      true,
		LastLogin:     requestcontext.Now(ctx),
		EmailVerified: true,
	}

	token, err := p.tokens.GenerateSessionToken(user.ID, user.Email, "", p.sessionTTL)
	if err != nil {
		return User{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue session token")
	}

	p.notify(&user, token)
	return user, token, nil
}

// SignOut revokes the session token remotely, then reports the sign-out to
// listeners. A revocation failure propagates without notifying, so callers
// decide what happens to local state.
func (p *LocalProvider) SignOut(ctx context.Context, token string) error {
	if token != "" {
		jti, ttl, err := p.tokens.ExtractRevocationTarget(token)
		if err == nil {
			if err := p.trl.Revoke(ctx, jti, ttl); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke session token")
			}
		}
		// An invalid or already-expired token has no live session to revoke.
	}
	p.notify(nil, "")
	return nil
}

// IsSessionRevoked reports whether the token's JTI sits on the revocation list.
func (p *LocalProvider) IsSessionRevoked(ctx context.Context, token string) (bool, error) {
	claims, err := p.tokens.ValidateToken(token)
	if err != nil {
		return true, nil
	}
	return p.trl.IsRevoked(ctx, claims.ID)
}

func (p *LocalProvider) SendPasswordReset(ctx context.Context, email string) error {
	cred, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no account registered for this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}

	code, err := p.issueActionCode(ctx, cred.UserID, cred.Email, actionKindReset)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("Use this code to reset your password: %s\nIt expires in one hour.", code)
	if err := p.mail.Send(ctx, cred.Email, "Password reset", body); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send password reset mail")
	}
	return nil
}

// VerifyResetCode checks a reset code without consuming it and returns the
// email it was issued for.
func (p *LocalProvider) VerifyResetCode(ctx context.Context, code string) (string, error) {
	ac, err := p.checkActionCode(ctx, code, actionKindReset)
	if err != nil {
		return "", err
	}
	return ac.Email, nil
}

func (p *LocalProvider) ConfirmReset(ctx context.Context, code, newPassword string) error {
	if len(newPassword) < 6 {
		return dErrors.New(dErrors.CodeValidation, "password must be at least 6 characters")
	}
	ac, err := p.consumeActionCode(ctx, code, actionKindReset)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	if err := p.creds.SetPasswordHash(ctx, ac.UserID, string(hash)); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update password")
	}
	return nil
}

func (p *LocalProvider) ResendVerificationEmail(ctx context.Context, email string) error {
	cred, err := p.creds.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "no account registered for this email")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	if cred.EmailVerified {
		return dErrors.New(dErrors.CodeInvalidInput, "email already verified")
	}
	return p.sendEmailConfirmation(ctx, cred.UserID, cred.Email)
}

// ConfirmEmail consumes an email-confirmation code and flips the account's
// verified flag.
func (p *LocalProvider) ConfirmEmail(ctx context.Context, code string) error {
	ac, err := p.consumeActionCode(ctx, code, actionKindVerifyEmail)
	if err != nil {
		return err
	}
	if err := p.creds.SetEmailVerified(ctx, ac.UserID, true); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark email verified")
	}
	return nil
}

// Subscribe registers a session listener and returns its unsubscribe func.
func (p *LocalProvider) Subscribe(fn SessionListener) func() {
	p.listenerMu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.listenerMu.Unlock()

	return func() {
		p.listenerMu.Lock()
		delete(p.listeners, id)
		p.listenerMu.Unlock()
	}
}

func (p *LocalProvider) notify(user *User, token string) {
	p.listenerMu.RLock()
	fns := make([]SessionListener, 0, len(p.listeners))
	for _, fn := range p.listeners {
		fns = append(fns, fn)
	}
	p.listenerMu.RUnlock()

	for _, fn := range fns {
		fn(user, token)
	}
}

func (p *LocalProvider) sendEmailConfirmation(ctx context.Context, userID, email string) error {
	code, err := p.issueActionCode(ctx, userID, email, actionKindVerifyEmail)
	if err != nil {
		return err
	}
	body := fmt.Sprintf("Confirm your email with this code: %s", code)
	if err := p.mail.Send(ctx, email, "Confirm your email", body); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to send confirmation mail")
	}
	return nil
}

func (p *LocalProvider) issueActionCode(ctx context.Context, userID, email, kind string) (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate code")
	}
	code := hex.EncodeToString(buf)

	p.codeMu.Lock()
	defer p.codeMu.Unlock()
	p.actionCodes[code] = actionCode{
		UserID:    userID,
		Email:     email,
		Kind:      kind,
		ExpiresAt: requestcontext.Now(ctx).Add(actionCodeTTL),
	}
	return code, nil
}

func (p *LocalProvider) checkActionCode(ctx context.Context, code, kind string) (actionCode, error) {
	p.codeMu.Lock()
	defer p.codeMu.Unlock()
	return p.checkActionCodeLocked(ctx, code, kind)
}

func (p *LocalProvider) consumeActionCode(ctx context.Context, code, kind string) (actionCode, error) {
	p.codeMu.Lock()
	defer p.codeMu.Unlock()
	ac, err := p.checkActionCodeLocked(ctx, code, kind)
	if err != nil {
		return actionCode{}, err
	}
	ac.Used = true
	p.actionCodes[code] = ac
	return ac, nil
}

func (p *LocalProvider) checkActionCodeLocked(ctx context.Context, code, kind string) (actionCode, error) {
	ac, ok := p.actionCodes[code]
	if !ok || ac.Kind != kind {
		return actionCode{}, dErrors.Wrap(sentinel.ErrNotFound, dErrors.CodeNotFound, "code not recognized")
	}
	if requestcontext.Now(ctx).After(ac.ExpiresAt) {
		return actionCode{}, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeForbidden, "code has expired")
	}
	if ac.Used {
		return actionCode{}, dErrors.Wrap(sentinel.ErrAlreadyUsed, dErrors.CodeForbidden, "code already used")
	}
	return ac, nil
}
