package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/sunwoojg/carelink/internal/client/creds"
)

// Credentials is the login form. Validate runs client-side; an invalid
// form never reaches the network.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks the login form fields.
func (c Credentials) Validate() error {
	fe := fieldErrors{}
	if !validEmail(c.Email) {
		fe["email"] = "must be a valid email address"
	}
	if c.Password == "" {
		fe["password"] = "must not be empty"
	}
	return fe.err()
}

// Login exchanges credentials for a token pair. It does not persist the
// pair; the session controller owns that step.
func (c *Client) Login(ctx context.Context, in Credentials) (creds.Pair, error) {
	if err := in.Validate(); err != nil {
		return creds.Pair{}, err
	}
	var pair creds.Pair
	if err := c.postNoAuth(ctx, "/auth/login/", in, &pair); err != nil {
		return creds.Pair{}, err
	}
	return pair, nil
}

// Logout tells the backend to revoke the refresh credential. Best-effort:
// the caller clears local state regardless of the outcome.
func (c *Client) Logout(ctx context.Context, refresh string) error {
	return c.postNoAuth(ctx, "/auth/logout/", map[string]string{"refresh": refresh}, nil)
}

// ClientSignup is the parent-side signup form, collected across the
// multi-step flow and submitted as one request.
type ClientSignup struct {
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	Name           string   `json:"name"`
	Phone          string   `json:"phone"`
	ChildBirthYear int      `json:"child_birth_year"`
	Concerns       []string `json:"concerns"`
}

// Validate checks the client signup form.
func (s ClientSignup) Validate() error {
	fe := fieldErrors{}
	if !validEmail(s.Email) {
		fe["email"] = "must be a valid email address"
	}
	if len(s.Password) < 8 {
		fe["password"] = "must be at least 8 characters"
	}
	if s.Name == "" {
		fe["name"] = "must not be empty"
	}
	if s.ChildBirthYear != 0 && (s.ChildBirthYear < 1990 || s.ChildBirthYear > 2030) {
		fe["child_birth_year"] = "out of range"
	}
	return fe.err()
}

// SignupClient registers a parent account. The backend issues a token
// pair on signup so the new user lands logged in.
func (c *Client) SignupClient(ctx context.Context, in ClientSignup) (creds.Pair, error) {
	if err := in.Validate(); err != nil {
		return creds.Pair{}, err
	}
	var pair creds.Pair
	if err := c.postNoAuth(ctx, "/auth/signup/client/", in, &pair); err != nil {
		return creds.Pair{}, err
	}
	return pair, nil
}

// ExpertSignup is the counselor-side signup form. The certification
// document rides along as a multipart file part, so this flow uses the
// pipeline's multipart encoding rather than JSON.
type ExpertSignup struct {
	Email         string
	Password      string
	Name          string
	LicenseNumber string
	Specialties   []string
	Bio           string

	CertificateName string
	Certificate     []byte
}

// Validate checks the expert signup form.
func (s ExpertSignup) Validate() error {
	fe := fieldErrors{}
	if !validEmail(s.Email) {
		fe["email"] = "must be a valid email address"
	}
	if len(s.Password) < 8 {
		fe["password"] = "must be at least 8 characters"
	}
	if s.Name == "" {
		fe["name"] = "must not be empty"
	}
	if s.LicenseNumber == "" {
		fe["license_number"] = "must not be empty"
	}
	if len(s.Certificate) == 0 {
		fe["certificate"] = "certification document required"
	}
	return fe.err()
}

// SignupExpert registers an expert account pending certification review.
func (c *Client) SignupExpert(ctx context.Context, in ExpertSignup) (creds.Pair, error) {
	if err := in.Validate(); err != nil {
		return creds.Pair{}, err
	}
	fields := map[string]string{
		"email":          in.Email,
		"password":       in.Password,
		"name":           in.Name,
		"license_number": in.LicenseNumber,
		"specialties":    strings.Join(in.Specialties, ","),
		"bio":            in.Bio,
	}
	files := []filePart{{Field: "certificate", Filename: in.CertificateName, Content: in.Certificate}}

	var pair creds.Pair
	req := &request{method: http.MethodPost, path: "/auth/signup/expert/", fields: fields, files: files, noAuth: true}
	if err := c.do(ctx, req, &pair); err != nil {
		return creds.Pair{}, err
	}
	return pair, nil
}

func validEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}
