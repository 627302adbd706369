package theme

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xelth-com/eckdocs/internal/models"
)

// ErrTemplateNotPermitted covers both a missing template and one owned by another business
var ErrTemplateNotPermitted = errors.New("template not found or no permission to use it")

// TemplateFinder loads a template by id. A nil template means not found.
type TemplateFinder interface {
	FindTemplate(ctx context.Context, id uuid.UUID) (*models.Template, error)
}

// Request is the input of Resolve
type Request struct {
	BusinessID uuid.UUID
	TemplateID *uuid.UUID
	Inline     *Theme
}

// Resolution is the theme chosen for a document and the template it came with
type Resolution struct {
	Theme    Theme
	Template *models.Template
}

// Resolver picks a theme: inline, then template, then default
type Resolver struct {
	templates TemplateFinder
}

// NewResolver creates a resolver backed by templates
func NewResolver(templates TemplateFinder) *Resolver {
	return &Resolver{templates: templates}
}

// Resolve checks template ownership and returns the effective theme.
// The returned theme is always fully populated.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Resolution, error) {
	var tpl *models.Template
	if req.TemplateID != nil {
		found, err := r.templates.FindTemplate(ctx, *req.TemplateID)
		if err != nil {
			return Resolution{}, fmt.Errorf("load template %s: %w", req.TemplateID, err)
		}
		if found == nil || !found.UsableBy(req.BusinessID) {
			return Resolution{}, ErrTemplateNotPermitted
		}
		tpl = found
	}
	return Resolution{Theme: Pick(req.Inline, tpl), Template: tpl}, nil
}

// Pick applies the priority rule field by field. It never fails.
func Pick(inline *Theme, tpl *models.Template) Theme {
	base := Default()
	if tpl != nil && len(tpl.Theme) > 0 {
		base = FromJSON(tpl.Theme)
	}
	if inline == nil {
		return base
	}
	return inline.over(base)
}
