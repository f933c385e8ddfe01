package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/stretchr/testify/suite"

	"campusgate/internal/audit"
	"campusgate/internal/authstate"
	"campusgate/internal/identity"
	"campusgate/internal/identity/revocation"
	identitystore "campusgate/internal/identity/store"
	"campusgate/internal/jwttoken"
	"campusgate/internal/platform/config"
	"campusgate/internal/platform/logger"
	profilestore "campusgate/internal/profile/store"
	"campusgate/internal/verification"
	verifstore "campusgate/internal/verification/store"
)

var mailCodePattern = regexp.MustCompile(`: ([0-9a-f]{32}|\d{6})`)

type recordingMailer struct {
	bodies []string
}

func (m *recordingMailer) Send(_ context.Context, _, _, body string) error {
	m.bodies = append(m.bodies, body)
	return nil
}

func (m *recordingMailer) lastCode(t *testing.T) string {
	t.Helper()
	if len(m.bodies) == 0 {
		t.Fatal("no mail sent")
	}
	match := mailCodePattern.FindStringSubmatch(m.bodies[len(m.bodies)-1])
	if match == nil {
		t.Fatalf("no code in mail body: %q", m.bodies[len(m.bodies)-1])
	}
	return match[1]
}

type RouterSuite struct {
	suite.Suite

	mail    *recordingMailer
	machine *authstate.Machine
	server  *httptest.Server
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log := logger.New()
	s.mail = &recordingMailer{}

	creds := identitystore.NewMemory()
	profiles := profilestore.NewMemory()
	tokens := jwttoken.NewService("test-signing-key", "campusgate", "campusgate-portal")
	trl := revocation.NewMemory()

	provider, err := identity.NewLocalProvider(
		creds, profilestore.NewAdminProvisioner(profiles), tokens, trl, s.mail,
		identity.WithLogger(log),
	)
	s.Require().NoError(err)

	codes := verifstore.NewMemory(profiles)
	verifier := verification.New(codes, profiles, s.mail, verification.WithLogger(log))

	machine, err := authstate.New(
		provider, profiles, verifier,
		authstate.NewParentDemoStrategy(config.DemoAccount{Principal: "STD001", Password: "parent123", Name: "Demo Parent"}),
		authstate.NewTeacherDemoStrategy(config.DemoAccount{Principal: "TCH001", Password: "teacher123", Name: "Demo Teacher"}),
		authstate.WithLogger(log),
	)
	s.Require().NoError(err)
	s.machine = machine

	router := NewRouter(Deps{
		Machine:  machine,
		Provider: provider,
		Logger:   log,
		Audit:    audit.NewMemorySink(64),
	})
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
	s.machine.Close()
}

func (s *RouterSuite) post(path string, body any) *http.Response {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) get(path string) *http.Response {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	return resp
}

func (s *RouterSuite) decodeState(resp *http.Response) stateResponse {
	defer resp.Body.Close()
	var st stateResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&st))
	return st
}

// signupAndConfirm drives the full registration flow: sign up, confirm the
// email with the mailed code, sign back in.
func (s *RouterSuite) signupAndConfirm(email, password, name string) stateResponse {
	resp := s.post("/auth/signup", map[string]string{"email": email, "password": password, "name": name})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	s.decodeState(resp)

	// Two mails went out: the email confirmation and the admin code. The
	// confirmation code is the 32-char hex one.
	var confirmCode string
	for _, body := range s.mail.bodies {
		if m := regexp.MustCompile(`: ([0-9a-f]{32})`).FindStringSubmatch(body); m != nil {
			confirmCode = m[1]
		}
	}
	s.Require().NotEmpty(confirmCode, "no confirmation code mailed")

	resp = s.post("/auth/confirm-email", map[string]string{"code": confirmCode})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.post("/auth/login", map[string]string{"email": email, "password": password})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	return s.decodeState(resp)
}

func (s *RouterSuite) TestSignupLoginAndVerifyAdmin() {
	st := s.signupAndConfirm("a@b.com", "secret1", "Ada Admin")
	s.True(st.IsAuthenticated)
	s.Equal("admin", st.User.Role)
	s.False(st.IsAdminVerified)

	// Before verification the dashboard shows the admin challenge.
	resp := s.get("/dashboard")
	s.Equal(http.StatusForbidden, resp.StatusCode)
	var dec decisionResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&dec))
	resp.Body.Close()
	s.Equal("admin_challenge", dec.Outcome)

	var adminCode string
	for _, body := range s.mail.bodies {
		if m := regexp.MustCompile(`code is: (\d{6})`).FindStringSubmatch(body); m != nil {
			adminCode = m[1]
		}
	}
	s.Require().NotEmpty(adminCode, "no admin code mailed")

	resp = s.post("/auth/verify-admin", map[string]string{"code": adminCode})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	st = s.decodeState(resp)
	s.True(st.IsAdminVerified)

	resp = s.get("/dashboard")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *RouterSuite) TestLoginInvalidCredentials() {
	resp := s.post("/auth/login", map[string]string{"email": "nobody@b.com", "password": "x"})
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

func (s *RouterSuite) TestParentLoginAndParentRoute() {
	resp := s.post("/auth/parent-login", map[string]string{"admission_number": "STD001", "password": "parent123"})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	st := s.decodeState(resp)
	s.Equal("parent", st.User.Role)
	s.True(st.IsAdminVerified)

	resp = s.get("/parent")
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Parents are steered away from staff routes.
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	redir, err := client.Get(s.server.URL + "/dashboard")
	s.Require().NoError(err)
	defer redir.Body.Close()
	s.Equal(http.StatusSeeOther, redir.StatusCode)
	s.Equal("/parent", redir.Header.Get("Location"))
}

func (s *RouterSuite) TestAnonymousRedirectedToLogin() {
	client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := client.Get(s.server.URL + "/dashboard")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusSeeOther, resp.StatusCode)
	s.Equal("/auth/login", resp.Header.Get("Location"))

	parent, err := client.Get(s.server.URL + "/parent")
	s.Require().NoError(err)
	defer parent.Body.Close()
	s.Equal("/auth/parent-login", parent.Header.Get("Location"))
}

func (s *RouterSuite) TestGuardDecisionEndpoint() {
	resp := s.get("/guard/decision?path=/dashboard")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var dec decisionResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&dec))
	resp.Body.Close()
	s.Equal("redirect", dec.Outcome)
	s.Equal("/auth/login", dec.Path)

	resp = s.get("/guard/decision?path=/auth/login&public=true")
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&dec))
	resp.Body.Close()
	s.Equal("render", dec.Outcome)
}

func (s *RouterSuite) TestLogout() {
	s.signupAndConfirm("a@b.com", "secret1", "Ada")

	resp := s.post("/auth/logout", nil)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	st := s.decodeState(resp)
	s.False(st.IsAuthenticated)
	s.Nil(st.User)
}

func (s *RouterSuite) TestStateEndpoint() {
	resp := s.get("/auth/state")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	st := s.decodeState(resp)
	s.False(st.IsAuthenticated)
}

func (s *RouterSuite) TestHealthz() {
	resp := s.get("/healthz")
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestPasswordResetFlow() {
	s.signupAndConfirm("a@b.com", "secret1", "Ada")
	s.post("/auth/logout", nil).Body.Close()

	resp := s.post("/auth/password-reset", map[string]string{"email": "a@b.com"})
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)
	resp.Body.Close()
	code := s.mail.lastCode(s.T())

	resp = s.post("/auth/password-reset/verify", map[string]string{"code": code})
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var verify map[string]string
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&verify))
	resp.Body.Close()
	s.Equal("a@b.com", verify["email"])

	resp = s.post("/auth/password-reset/confirm", map[string]string{"code": code, "new_password": "fresh-secret"})
	s.Require().Equal(http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = s.post("/auth/login", map[string]string{"email": "a@b.com", "password": "fresh-secret"})
	s.Equal(http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}

func (s *RouterSuite) TestBadRequestBody() {
	resp, err := http.Post(s.server.URL+"/auth/login", "application/json", bytes.NewReader([]byte("{")))
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}
