package authstate

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"campusgate/internal/audit"
	"campusgate/internal/identity"
	"campusgate/internal/platform/metrics"
	"campusgate/internal/profile"
	dErrors "campusgate/pkg/domain-errors"
	"campusgate/pkg/platform/sentinel"
	"campusgate/pkg/requestcontext"
)

// ProfileReader is the slice of the profile store the machine needs to attach
// role and verification flags after sign-in.
type ProfileReader interface {
	Get(ctx context.Context, userID string) (profile.Profile, error)
	SetLastLogin(ctx context.Context, userID string, at time.Time) error
}

// Verifier is the admin verification code manager surface the machine calls.
type Verifier interface {
	Generate(ctx context.Context, user identity.User) error
	Verify(ctx context.Context, userID, code string) error
}

// Machine serializes all transitions through one mutex-guarded state. Every
// operation wraps its provider call in LoginStart followed by LoginSuccess or
// LoginFailure; the provider's session listener feeds AuthStateChanged in
// between, last write wins.
type Machine struct {
	provider identity.Provider
	profiles ProfileReader
	verifier Verifier
	parent   Strategy
	teacher  Strategy

	logger  *slog.Logger
	metrics *metrics.Metrics
	audit   audit.Publisher

	// forceLocalLogout clears the local session even when remote sign-out
	// fails. Off by default: the legacy behavior keeps the session visibly
	// authenticated with an error set.
	forceLocalLogout bool

	mu          sync.Mutex
	state       State
	unsubscribe func()

	observerMu sync.RWMutex
	observers  map[int]func(State)
	nextObsID  int
}

type MachineOption func(*Machine)

func WithLogger(l *slog.Logger) MachineOption {
	return func(m *Machine) { m.logger = l }
}

func WithMetrics(mx *metrics.Metrics) MachineOption {
	return func(m *Machine) { m.metrics = mx }
}

func WithAudit(p audit.Publisher) MachineOption {
	return func(m *Machine) { m.audit = p }
}

func WithForceLocalLogout(force bool) MachineOption {
	return func(m *Machine) { m.forceLocalLogout = force }
}

func New(
	provider identity.Provider,
	profiles ProfileReader,
	verifier Verifier,
	parent, teacher Strategy,
	opts ...MachineOption,
) (*Machine, error) {
	if provider == nil {
		return nil, errors.New("identity provider is required")
	}
	if profiles == nil {
		return nil, errors.New("profile reader is required")
	}
	if verifier == nil {
		return nil, errors.New("verifier is required")
	}
	if parent == nil || teacher == nil {
		return nil, errors.New("login strategies are required")
	}

	m := &Machine{
		provider:  provider,
		profiles:  profiles,
		verifier:  verifier,
		parent:    parent,
		teacher:   teacher,
		logger:    slog.Default(),
		audit:     audit.NopPublisher{},
		observers: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.unsubscribe = provider.Subscribe(func(user *identity.User, token string) {
		m.dispatch(AuthStateChanged{User: user, Token: token})
	})
	return m, nil
}

// Close detaches the machine from the provider's session stream.
func (m *Machine) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// State returns a snapshot of the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers an observer called with each new state after every
// transition. Returns the unsubscribe func.
func (m *Machine) Subscribe(fn func(State)) func() {
	m.observerMu.Lock()
	id := m.nextObsID
	m.nextObsID++
	m.observers[id] = fn
	m.observerMu.Unlock()

	return func() {
		m.observerMu.Lock()
		delete(m.observers, id)
		m.observerMu.Unlock()
	}
}

func (m *Machine) dispatch(a Action) {
	m.mu.Lock()
	m.state = Reduce(m.state, a)
	st := m.state
	m.mu.Unlock()

	m.observerMu.RLock()
	fns := make([]func(State), 0, len(m.observers))
	for _, fn := range m.observers {
		fns = append(fns, fn)
	}
	m.observerMu.RUnlock()
	for _, fn := range fns {
		fn(st)
	}
}

// Login authenticates with email and password against the identity provider,
// then attaches role and verification flags from the profile store.
func (m *Machine) Login(ctx context.Context, email, password string) (State, error) {
	m.dispatch(LoginStart{})

	user, token, err := m.provider.SignIn(ctx, email, password)
	if err != nil {
		return m.fail(ctx, audit.KindSignInFailed, email, err)
	}
	if err := m.attachProfile(ctx, &user); err != nil {
		return m.fail(ctx, audit.KindSignInFailed, email, err)
	}
	m.stampLastLogin(ctx, user.ID)

	return m.succeed(ctx, user, token)
}

// ParentLogin validates against the fixed parent demo credential pair. No
// provider session is created.
func (m *Machine) ParentLogin(ctx context.Context, admissionNumber, password string) (State, error) {
	return m.strategyLogin(ctx, m.parent, admissionNumber, password)
}

// TeacherLogin validates against the fixed teacher demo credential pair.
func (m *Machine) TeacherLogin(ctx context.Context, staffID, password string) (State, error) {
	return m.strategyLogin(ctx, m.teacher, staffID, password)
}

func (m *Machine) strategyLogin(ctx context.Context, s Strategy, principal, password string) (State, error) {
	m.dispatch(LoginStart{})

	user, token, err := s.Authenticate(ctx, principal, password)
	if err != nil {
		return m.fail(ctx, audit.KindSignInFailed, principal, err)
	}
	return m.succeed(ctx, user, token)
}

// Signup registers an admin account and immediately issues the admin
// verification code. The session starts unverified.
func (m *Machine) Signup(ctx context.Context, email, password, name string) (State, error) {
	m.dispatch(LoginStart{})

	user, token, err := m.provider.SignUp(ctx, email, password, name)
	if err != nil {
		return m.fail(ctx, audit.KindSignInFailed, email, err)
	}
	if m.metrics != nil {
		m.metrics.UsersCreated.Inc()
	}
	m.publish(ctx, audit.KindSignedUp, user.ID, user.Email, "")

	if err := m.verifier.Generate(ctx, user); err != nil {
		// The account exists; only the verification setup failed. The
		// caller sees the error and the user retries from the
		// verification screen.
		return m.fail(ctx, audit.KindCodeRejected, email, err)
	}
	m.publish(ctx, audit.KindCodeIssued, user.ID, user.Email, "")

	return m.succeed(ctx, user, token)
}

// Logout signs out remotely and resets the local state. When the remote
// sign-out fails, the default behavior surfaces the error through
// LoginFailure and leaves the session fields untouched; with
// forceLocalLogout the local state resets anyway.
func (m *Machine) Logout(ctx context.Context) (State, error) {
	st := m.State()

	if err := m.provider.SignOut(ctx, st.Token); err != nil {
		if m.forceLocalLogout {
			m.dispatch(Logout{})
			m.publish(ctx, audit.KindSignOutFailed, userID(st.User), "", err.Error())
			return m.State(), err
		}
		return m.fail(ctx, audit.KindSignOutFailed, "", err)
	}

	m.dispatch(Logout{})
	if m.metrics != nil {
		m.metrics.SessionsRevoked.Inc()
	}
	m.publish(ctx, audit.KindSignedOut, userID(st.User), "", "")
	return m.State(), nil
}

// VerifyAdminCode checks the submitted code for the current session's user.
// Rejections leave the state authenticated but unverified.
func (m *Machine) VerifyAdminCode(ctx context.Context, code string) (State, error) {
	st := m.State()
	if st.User == nil {
		return st, dErrors.New(dErrors.CodeUnauthorized, "no active session")
	}

	if err := m.verifier.Verify(ctx, st.User.ID, code); err != nil {
		m.publish(ctx, audit.KindCodeRejected, st.User.ID, st.User.Email, failureMessage(err))
		return m.State(), err
	}

	m.dispatch(AdminVerified{})
	m.publish(ctx, audit.KindCodeVerified, st.User.ID, st.User.Email, "")
	return m.State(), nil
}

func (m *Machine) succeed(ctx context.Context, user identity.User, token string) (State, error) {
	m.dispatch(LoginSuccess{User: &user, Token: token})
	if m.metrics != nil {
		m.metrics.LoginsSucceeded.Inc()
	}
	m.publish(ctx, audit.KindSignedIn, user.ID, user.Email, "")
	return m.State(), nil
}

func (m *Machine) fail(ctx context.Context, kind, principal string, err error) (State, error) {
	m.dispatch(LoginFailure{Message: failureMessage(err)})
	if m.metrics != nil {
		m.metrics.LoginsFailed.Inc()
	}
	m.publish(ctx, kind, "", principal, failureMessage(err))
	return m.State(), err
}

// attachProfile overlays role and verification flags from the profile store.
// A missing profile is tolerated; the user keeps zero-value authorization
// fields and the guard treats the role permissively.
func (m *Machine) attachProfile(ctx context.Context, user *identity.User) error {
	p, err := m.profiles.Get(ctx, user.ID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	user.Role = p.Role
	user.AdminVerified = p.AdminVerified
	user.AdmissionNumber = p.AdmissionNumber
	user.StaffID = p.StaffID
	return nil
}

func (m *Machine) stampLastLogin(ctx context.Context, id string) {
	if err := m.profiles.SetLastLogin(ctx, id, requestcontext.Now(ctx)); err != nil {
		m.logger.WarnContext(ctx, "failed to stamp last login",
			"user_id", id,
			"error", err,
		)
	}
}

func (m *Machine) publish(ctx context.Context, kind, uid, email, detail string) {
	m.audit.Publish(ctx, audit.Event{
		At:        requestcontext.Now(ctx),
		Kind:      kind,
		UserID:    uid,
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
		Detail:    detail,
	})
}

func userID(u *identity.User) string {
	if u == nil {
		return ""
	}
	return u.ID
}

func failureMessage(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) {
		return de.Message()
	}
	return err.Error()
}
