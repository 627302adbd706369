package theme

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/xelth-com/eckdocs/internal/models"
)

type finder map[uuid.UUID]*models.Template

func (f finder) FindTemplate(_ context.Context, id uuid.UUID) (*models.Template, error) {
	return f[id], nil
}

func valid(t *testing.T, th Theme) {
	t.Helper()
	assert.True(t, IsHexColor(th.PrimaryColor), "primary %q", th.PrimaryColor)
	assert.True(t, IsHexColor(th.SecondaryColor), "secondary %q", th.SecondaryColor)
	assert.True(t, IsHexColor(th.AccentColor), "accent %q", th.AccentColor)
	assert.NotEmpty(t, th.FontFamily)
}

func TestFromJSONFallsBack(t *testing.T) {
	assert.Equal(t, Default(), FromJSON(nil))
	assert.Equal(t, Default(), FromJSON([]byte("{not json")))

	got := FromJSON([]byte(`{"PrimaryColor":"#abc","accentColor":"nope"}`))
	assert.Equal(t, "#AABBCC", got.PrimaryColor)
	assert.Equal(t, DefaultAccentColor, got.AccentColor)
	assert.Equal(t, DefaultFontFamily, got.FontFamily)
}

func TestPickTotality(t *testing.T) {
	inlines := map[string]*Theme{
		"no inline":      nil,
		"full inline":    {PrimaryColor: "#000000", SecondaryColor: "#111111", AccentColor: "#222222", FontFamily: "Times"},
		"partial inline": {AccentColor: "#00FF00"},
		"broken inline":  {PrimaryColor: "red", SecondaryColor: "#12345", FontFamily: "  "},
	}
	templates := map[string]*models.Template{
		"no template":      nil,
		"template theme":   {Theme: datatypes.JSON(`{"primaryColor":"#0000FF","fontFamily":"Courier"}`)},
		"template invalid": {Theme: datatypes.JSON(`[1,2,3]`)},
		"template empty":   {},
	}

	for in, inline := range inlines {
		for tn, tpl := range templates {
			t.Run(in+"/"+tn, func(t *testing.T) {
				valid(t, Pick(inline, tpl))
			})
		}
	}
}

func TestPickPriority(t *testing.T) {
	tpl := &models.Template{Theme: datatypes.JSON(`{"primaryColor":"#0000FF","accentColor":"#FF0000"}`)}

	got := Pick(&Theme{AccentColor: "#00FF00"}, tpl)
	assert.Equal(t, "#0000FF", got.PrimaryColor)
	assert.Equal(t, "#00FF00", got.AccentColor)
	assert.Equal(t, DefaultSecondaryColor, got.SecondaryColor)

	assert.Equal(t, Default(), Pick(nil, nil))
}

func TestResolveRejectsForeignTemplate(t *testing.T) {
	mine, other := uuid.New(), uuid.New()
	foreignID, globalID, ownID := uuid.New(), uuid.New(), uuid.New()
	r := NewResolver(finder{
		foreignID: {ID: foreignID, BusinessID: &other},
		globalID:  {ID: globalID},
		ownID:     {ID: ownID, BusinessID: &mine, Theme: datatypes.JSON(`{"accentColor":"#123456"}`)},
	})
	ctx := context.Background()

	_, err := r.Resolve(ctx, Request{BusinessID: mine, TemplateID: &foreignID})
	assert.ErrorIs(t, err, ErrTemplateNotPermitted)

	missing := uuid.New()
	_, err = r.Resolve(ctx, Request{BusinessID: mine, TemplateID: &missing})
	assert.ErrorIs(t, err, ErrTemplateNotPermitted)

	res, err := r.Resolve(ctx, Request{BusinessID: mine, TemplateID: &globalID})
	require.NoError(t, err)
	assert.Equal(t, Default(), res.Theme)

	res, err = r.Resolve(ctx, Request{BusinessID: mine, TemplateID: &ownID})
	require.NoError(t, err)
	assert.Equal(t, "#123456", res.Theme.AccentColor)
	assert.Equal(t, ownID, res.Template.ID)
}

func TestColorHelpers(t *testing.T) {
	r, g, b := RGB("#F97316")
	assert.Equal(t, []int{0xF9, 0x73, 0x16}, []int{r, g, b})
	assert.Equal(t, "1F2937", WordColor("#1f2937", "FFFFFF"))
	assert.Equal(t, "FFFFFF", WordColor("blue", "FFFFFF"))
}
