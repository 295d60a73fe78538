package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"linguaformula/internal/entity"
)

// DisciplineFilter narrows formula and term listings. It only applies when
// at least one discipline is selected.
type DisciplineFilter struct {
	IDs             []int
	IncludeChildren bool
}

func (f DisciplineFilter) query() string {
	if len(f.IDs) == 0 {
		return ""
	}
	v := url.Values{}
	for _, id := range f.IDs {
		v.Add("discipline_id", strconv.Itoa(id))
	}
	v.Set("include_children", strconv.FormatBool(f.IncludeChildren))
	return "?" + v.Encode()
}

func (c *Client) Formulas(ctx context.Context, f DisciplineFilter) ([]entity.Formula, error) {
	var out []entity.Formula
	if err := c.call(ctx, http.MethodGet, "/api/formulas"+f.query(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Formula(ctx context.Context, id int) (*entity.Formula, error) {
	var out entity.Formula
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/formulas/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type questionsEnvelope struct {
	Questions []entity.Question `json:"questions"`
}

func (c *Client) FormulaQuestions(ctx context.Context, id int) ([]entity.Question, error) {
	var out questionsEnvelope
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/formulas/%d/questions", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}

func (c *Client) SearchFormulas(ctx context.Context, q string) ([]entity.Formula, error) {
	var out []entity.Formula
	path := "/api/formulas/search?" + url.Values{"q": {q}}.Encode()
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MatchResult is the reply of POST /api/problems/match.
type MatchResult struct {
	Matches      []entity.ProblemMatch `json:"matches"`
	TotalMatches int                   `json:"total_matches"`
}

func (c *Client) MatchProblem(ctx context.Context, problem string) (*MatchResult, error) {
	var out MatchResult
	body := map[string]string{"problem_text": problem}
	if err := c.call(ctx, http.MethodPost, "/api/problems/match", body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Terms(ctx context.Context, f DisciplineFilter) ([]entity.Term, error) {
	var out []entity.Term
	if err := c.call(ctx, http.MethodGet, "/api/terms"+f.query(), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Term(ctx context.Context, id int) (*entity.Term, error) {
	var out entity.Term
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/api/terms/%d", id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

const disciplinesKey = "linguaformula:disciplines"

// Disciplines returns the discipline tree, served from the cache when one
// is configured. Cache failures fall through to the backend.
func (c *Client) Disciplines(ctx context.Context) ([]entity.Discipline, error) {
	if c.cache != nil {
		data, ok, err := c.cache.Get(ctx, disciplinesKey)
		if err != nil {
			c.logger.Warn("discipline cache read failed", zap.Error(err))
		}
		if ok {
			var out []entity.Discipline
			if err := json.Unmarshal(data, &out); err == nil {
				return out, nil
			}
		}
	}

	resp, err := c.Do(ctx, http.MethodGet, "/api/disciplines", nil, nil)
	if err != nil {
		return nil, err
	}
	if err := statusError(resp); err != nil {
		return nil, err
	}
	var out []entity.Discipline
	if err := decode(resp, &out); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, disciplinesKey, resp.Body, c.disciplinesTTL); err != nil {
			c.logger.Warn("discipline cache write failed", zap.Error(err))
		}
	}
	return out, nil
}

func (c *Client) Applications(ctx context.Context) ([]entity.Application, error) {
	var out []entity.Application
	if err := c.call(ctx, http.MethodGet, "/api/applications", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateApplication(ctx context.Context, in entity.NewApplication) error {
	return c.call(ctx, http.MethodPost, "/api/applications", in, nil, nil)
}
