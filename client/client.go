// Package client is a typed HTTP client of the academia API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

const defaultTimeout = 30 * time.Second

// APIError is a non 2xx answer of the API.
type APIError struct {
	StatusCode int
	Message    string
	Fields     map[string]string // per field messages of a validation failure
}

func (err *APIError) Error() string {
	if len(err.Fields) == 0 {
		return fmt.Sprintf("%d: %s", err.StatusCode, err.Message)
	}
	flds := make([]string, 0, len(err.Fields))
	for f, m := range err.Fields {
		flds = append(flds, f+": "+m)
	}
	return fmt.Sprintf("%d: %s", err.StatusCode, strings.Join(flds, "; "))
}

// Client calls the API as the identity held by its Session.
type Client struct {
	http    *resty.Client
	session *Session
}

// New returns a Client of the API served at baseURL. A nil session starts unauthenticated and memory only.
func New(baseURL string, session *Session) *Client {
	if session == nil {
		session = new(Session)
	}
	c := &Client{session: session}
	c.http = resty.New().
		SetHostURL(strings.TrimSuffix(baseURL, "/")+"/api").
		SetHeader("Accept", "application/json").
		SetTimeout(defaultTimeout).
		OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			if c.session.Authenticated() {
				req.SetAuthToken(c.session.Token)
			}
			return nil
		})
	return c
}

func (c *Client) Session() *Session { return c.session }

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.http.R().SetContext(ctx)
}

// do sends req and decodes a success body into result when non nil.
func (c *Client) do(req *resty.Request, method, path string, result interface{}) error {
	if result != nil {
		req.SetResult(result)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	if resp.IsError() {
		return newAPIError(resp)
	}
	return nil
}

func newAPIError(resp *resty.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode(), Message: http.StatusText(resp.StatusCode())}

	body := make(map[string]string)
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return apiErr
	}
	if msg, ok := body["error"]; ok {
		apiErr.Message = msg
	} else if len(body) > 0 {
		apiErr.Fields = body
	}
	return apiErr
}

// Auth

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, nu user.NewUser) error {
	return c.do(c.request(ctx).SetBody(nu), http.MethodPost, "/auth/register", nil)
}

// Login authenticates and stores the issued token in the Session.
func (c *Client) Login(ctx context.Context, email, pwd string) (user.Profile, error) {
	var res struct {
		Token string       `json:"token"`
		User  user.Profile `json:"user"`
	}
	body := map[string]string{"email": email, "password": pwd}
	if err := c.do(c.request(ctx).SetBody(body), http.MethodPost, "/auth/login", &res); err != nil {
		return user.Profile{}, err
	}

	c.session.set(res.Token, res.User)
	if err := c.session.Save(); err != nil {
		return res.User, err
	}
	return res.User, nil
}

// Logout tears down the Session. The token itself stays valid until it expires.
func (c *Client) Logout() error {
	return c.session.Clear()
}

// Courses

func (c *Client) Courses(ctx context.Context) ([]course.Course, error) {
	var res []course.Course
	err := c.do(c.request(ctx), http.MethodGet, "/courses", &res)
	return res, err
}

func (c *Client) CreateCourse(ctx context.Context, nc course.NewCourse) (course.Course, error) {
	var res course.Course
	err := c.do(c.request(ctx).SetBody(nc), http.MethodPost, "/courses/create", &res)
	return res, err
}

func (c *Client) Course(ctx context.Context, id string) (course.Course, error) {
	var res course.Course
	err := c.do(c.request(ctx).SetPathParam("id", id), http.MethodGet, "/courses/{id}", &res)
	return res, err
}

func (c *Client) Comment(ctx context.Context, courseID, text string) (course.Comment, error) {
	var res course.Comment
	req := c.request(ctx).
		SetPathParam("id", courseID).
		SetBody(course.NewComment{Text: text})
	err := c.do(req, http.MethodPost, "/courses/{id}/comment", &res)
	return res, err
}

func (c *Client) Enroll(ctx context.Context, courseID string) error {
	return c.do(c.request(ctx).SetPathParam("id", courseID), http.MethodPost, "/courses/enroll/{id}", nil)
}

// InstructorCourses lists the courses owned by the session user.
func (c *Client) InstructorCourses(ctx context.Context) ([]course.Course, error) {
	var res []course.Course
	err := c.do(c.request(ctx), http.MethodGet, "/courses/instructor/courses", &res)
	return res, err
}

func (c *Client) AddLiveSession(ctx context.Context, courseID string, ns course.NewLiveSession) (course.LiveSession, error) {
	var res struct {
		Session course.LiveSession `json:"session"`
	}
	req := c.request(ctx).
		SetPathParam("id", courseID).
		SetBody(ns)
	err := c.do(req, http.MethodPost, "/courses/{id}/live", &res)
	return res.Session, err
}

func (c *Client) LiveSessions(ctx context.Context, courseID string) ([]course.LiveSession, error) {
	var res []course.LiveSession
	err := c.do(c.request(ctx).SetPathParam("id", courseID), http.MethodGet, "/courses/{id}/live", &res)
	return res, err
}

// UpdateProgress sends only the fields set in upd.
func (c *Client) UpdateProgress(ctx context.Context, courseID string, upd course.ProgressUpdate) error {
	body := make(map[string]interface{}, 2)
	if upd.Completed != nil {
		body["completed"] = *upd.Completed
	}
	if upd.Percentage != nil {
		body["percentage"] = *upd.Percentage
	}
	req := c.request(ctx).
		SetPathParam("id", courseID).
		SetBody(body)
	return c.do(req, http.MethodPut, "/courses/{id}/progress", nil)
}

// Analytics returns the summary rows of the courses owned by the session user.
func (c *Client) Analytics(ctx context.Context) ([]course.Summary, error) {
	var res []course.Summary
	err := c.do(c.request(ctx), http.MethodGet, "/courses/instructor/analytics/summary", &res)
	return res, err
}
