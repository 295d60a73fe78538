package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"linguaformula/internal/entity"
)

type coursesEnvelope struct {
	Courses []entity.Course `json:"courses"`
}

func (c *Client) Courses(ctx context.Context, creds *Credentials) ([]entity.Course, error) {
	var out coursesEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/courses", nil, creds, &out); err != nil {
		return nil, err
	}
	return out.Courses, nil
}

type courseEnvelope struct {
	Course *entity.Course `json:"course"`
}

func (c *Client) Course(ctx context.Context, id int, creds *Credentials) (*entity.Course, error) {
	var out courseEnvelope
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/courses/%d", id), nil, creds, &out); err != nil {
		return nil, err
	}
	if out.Course == nil {
		return nil, &APIError{Status: http.StatusNotFound, Message: "Course not found."}
	}
	return out.Course, nil
}

func (c *Client) CreateCourse(ctx context.Context, in entity.NewCourse, creds *Credentials) (*entity.Course, error) {
	var out courseEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/courses", in, creds, &out); err != nil {
		return nil, err
	}
	return out.Course, nil
}

func (c *Client) DeleteCourse(ctx context.Context, id int, creds *Credentials) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/api/courses/%d", id), nil, creds, nil)
}

type institutionsEnvelope struct {
	Institutions []entity.Institution `json:"institutions"`
}

func (c *Client) Institutions(ctx context.Context, creds *Credentials) ([]entity.Institution, error) {
	var out institutionsEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/institutions", nil, creds, &out); err != nil {
		return nil, err
	}
	return out.Institutions, nil
}

type institutionEnvelope struct {
	Institution *entity.Institution `json:"institution"`
}

func (c *Client) CreateInstitution(ctx context.Context, in entity.NewInstitution, creds *Credentials) (*entity.Institution, error) {
	var out institutionEnvelope
	if err := c.call(ctx, http.MethodPost, "/api/institutions", in, creds, &out); err != nil {
		return nil, err
	}
	if out.Institution == nil {
		return nil, &DecodeError{Status: http.StatusOK, Err: fmt.Errorf("missing institution")}
	}
	return out.Institution, nil
}

type linksEnvelope struct {
	Formulas []entity.CourseFormula `json:"formulas"`
}

// CourseFormulas lists the formulas linked to one course.
func (c *Client) CourseFormulas(ctx context.Context, courseID int, creds *Credentials) ([]entity.CourseFormula, error) {
	var out linksEnvelope
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/courses/%d/formulas", courseID), nil, creds, &out); err != nil {
		return nil, err
	}
	return out.Formulas, nil
}

// AllCourseFormulas lists links across every course of the user.
func (c *Client) AllCourseFormulas(ctx context.Context, creds *Credentials) ([]entity.CourseFormula, error) {
	var out linksEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/courses/formulas", nil, creds, &out); err != nil {
		return nil, err
	}
	return out.Formulas, nil
}

type linkBody struct {
	FormulaID int `json:"formula_id"`
	entity.Segment
}

func (c *Client) LinkFormula(ctx context.Context, courseID, formulaID int, seg entity.Segment, creds *Credentials) error {
	path := fmt.Sprintf("/api/courses/%d/formulas", courseID)
	return c.call(ctx, http.MethodPost, path, linkBody{FormulaID: formulaID, Segment: seg}, creds, nil)
}

func (c *Client) UpdateCourseFormula(ctx context.Context, courseID, formulaID int, seg entity.Segment, creds *Credentials) error {
	path := fmt.Sprintf("/api/courses/%d/formulas/%d", courseID, formulaID)
	return c.call(ctx, http.MethodPatch, path, seg, creds, nil)
}

func (c *Client) UnlinkFormula(ctx context.Context, courseID, formulaID int, creds *Credentials) error {
	path := fmt.Sprintf("/api/courses/%d/formulas/%d", courseID, formulaID)
	return c.call(ctx, http.MethodDelete, path, nil, creds, nil)
}

// SegmentQuery selects the questions of one course segment. The type is
// only sent when it is a known segment type.
type SegmentQuery struct {
	Type  string
	Label string
}

func (q SegmentQuery) encode() string {
	v := url.Values{}
	if entity.ValidSegmentType(q.Type) {
		v.Set("segment_type", q.Type)
	}
	if label := strings.TrimSpace(q.Label); label != "" {
		v.Set("segment_label", label)
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) CourseQuestions(ctx context.Context, courseID int, seg SegmentQuery, creds *Credentials) (*entity.CourseQuestions, error) {
	var out entity.CourseQuestions
	path := fmt.Sprintf("/api/courses/%d/questions", courseID) + seg.encode()
	if err := c.call(ctx, http.MethodGet, path, nil, creds, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type usersEnvelope struct {
	Users []entity.User `json:"users"`
}

func (c *Client) AdminUsers(ctx context.Context, creds *Credentials) ([]entity.User, error) {
	var out usersEnvelope
	if err := c.call(ctx, http.MethodGet, "/api/admin/users", nil, creds, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

func (c *Client) SetAdmin(ctx context.Context, userID int, isAdmin bool, creds *Credentials) error {
	path := fmt.Sprintf("/api/admin/users/%d", userID)
	return c.call(ctx, http.MethodPatch, path, map[string]bool{"is_admin": isAdmin}, creds, nil)
}
