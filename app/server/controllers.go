package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/mahesh-hegde/visualize/app/chartconfig"
	"github.com/mahesh-hegde/visualize/app/common"
	"github.com/mahesh-hegde/visualize/app/config"
	"github.com/mahesh-hegde/visualize/app/configurator"
	"github.com/mahesh-hegde/visualize/app/cube"
	"github.com/mahesh-hegde/visualize/app/persistence"
	"github.com/mahesh-hegde/visualize/app/publish"
)

type VisualizeController struct {
	bridge   *persistence.Bridge
	charts   persistence.ChartStore
	metadata cube.MetadataSource
	index    *cube.CatalogIndex
	sessions *SessionRegistry
	views    *publish.ViewBuilder
	conf     *config.VisualizeConfig
}

func NewVisualizeController(conf *config.VisualizeConfig, bridge *persistence.Bridge, charts persistence.ChartStore,
	metadata cube.MetadataSource, index *cube.CatalogIndex) *VisualizeController {
	return &VisualizeController{
		bridge:   bridge,
		charts:   charts,
		metadata: metadata,
		index:    index,
		sessions: NewSessionRegistry(time.Duration(conf.SessionIdleSeconds) * time.Second),
		views:    publish.NewViewBuilder(),
		conf:     conf,
	}
}

// requestLocale picks an explicitly requested locale, then the browser's
// preference, then the configured default.
func (vc *VisualizeController) requestLocale(c echo.Context, explicit string) common.Locale {
	if l := common.Locale(explicit); l.Valid() {
		return l
	}
	if accept := c.Request().Header.Get("Accept-Language"); accept != "" {
		return common.MatchLocale(accept)
	}
	return vc.conf.DefaultLocale
}

// statusError maps domain errors onto user visible ones.
func statusError(err error) error {
	switch {
	case errors.Is(err, persistence.ErrNotFound), errors.Is(err, persistence.ErrSessionClosed),
		errors.Is(err, cube.ErrUnknownDataset):
		return common.NewNotFound("%v", err)
	case errors.Is(err, configurator.ErrInvalidAction), errors.Is(err, chartconfig.ErrInvalidDocument):
		return common.NewBadRequest("%v", err)
	}
	return err
}

type sessionResponse struct {
	SessionID       string               `json:"sessionId"`
	ChartID         string               `json:"chartId"`
	State           json.RawMessage      `json:"state"`
	CanStepNext     bool                 `json:"canStepNext"`
	MappedFilters   *chartconfig.Filters `json:"mappedFilters,omitempty"`
	UnmappedFilters *chartconfig.Filters `json:"unmappedFilters,omitempty"`
	Changed         bool                 `json:"changed"`
	Redirect        string               `json:"redirect,omitempty"`
	PublishedKey    string               `json:"publishedKey,omitempty"`
	PublishError    string               `json:"publishError,omitempty"`
}

func (vc *VisualizeController) respond(c echo.Context, code int, s *persistence.Session, out *persistence.Outcome) error {
	ctx := c.Request().Context()
	state, chartID := s.Snapshot()
	raw, err := configurator.Encode(state)
	if err != nil {
		return err
	}
	meta, err := s.Metadata(ctx)
	if err != nil {
		slog.Warn("cannot load metadata for session view", "session", s.ID, "err", err)
	}
	resp := sessionResponse{
		SessionID:   s.ID,
		ChartID:     chartID,
		State:       raw,
		CanStepNext: configurator.CanTransitionToNextStep(state, meta),
	}
	if mapped, unmapped, ok := persistence.FiltersOf(state); ok {
		resp.MappedFilters, resp.UnmappedFilters = &mapped, &unmapped
	}
	if out != nil {
		resp.Changed = out.Changed
		resp.Redirect = out.Redirect
		resp.PublishedKey = out.PublishedKey
		if out.PublishErr != nil {
			resp.PublishError = out.PublishErr.Error()
		}
	}
	return c.JSON(code, resp)
}

type createSessionRequest struct {
	ChartID string `json:"chartId"`
	From    string `json:"from"`
	Cube    string `json:"cube"`
	Locale  string `json:"locale"`
}

func (vc *VisualizeController) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return common.NewBadRequest("invalid session request: %v", err)
	}
	s := vc.bridge.NewSession(vc.requestLocale(c, req.Locale))
	vc.sessions.Add(s)
	out, err := s.Start(c.Request().Context(), persistence.InitOptions{
		ChartID: req.ChartID,
		From:    req.From,
		Cube:    req.Cube,
	})
	if err != nil {
		return statusError(err)
	}
	return vc.respond(c, http.StatusCreated, s, &out)
}

func (vc *VisualizeController) session(c echo.Context) (*persistence.Session, error) {
	id := c.Param("id")
	s, ok := vc.sessions.Get(id)
	if !ok {
		return nil, common.NewNotFound("no session %s", id)
	}
	return s, nil
}

func (vc *VisualizeController) GetSession(c echo.Context) error {
	s, err := vc.session(c)
	if err != nil {
		return err
	}
	return vc.respond(c, http.StatusOK, s, nil)
}

func (vc *VisualizeController) DispatchAction(c echo.Context) error {
	s, err := vc.session(c)
	if err != nil {
		return err
	}
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	action, err := configurator.DecodeAction(body)
	if err != nil {
		return statusError(err)
	}
	out, err := s.Dispatch(c.Request().Context(), action)
	if err != nil {
		return statusError(err)
	}
	return vc.respond(c, http.StatusOK, s, &out)
}

type moveFilterRequest struct {
	DimensionIri string `json:"dimensionIri"`
	Delta        int    `json:"delta"`
}

func (vc *VisualizeController) MoveFilter(c echo.Context) error {
	s, err := vc.session(c)
	if err != nil {
		return err
	}
	var req moveFilterRequest
	if err := c.Bind(&req); err != nil {
		return common.NewBadRequest("invalid move request: %v", err)
	}
	if req.DimensionIri == "" || (req.Delta != 1 && req.Delta != -1) {
		return common.NewBadRequest("dimensionIri and a delta of 1 or -1 are required")
	}
	out, err := s.MoveFilter(c.Request().Context(), req.DimensionIri, req.Delta)
	if err != nil {
		return statusError(err)
	}
	return vc.respond(c, http.StatusOK, s, &out)
}

func (vc *VisualizeController) DeleteSession(c echo.Context) error {
	if !vc.sessions.Remove(c.Param("id")) {
		return common.NewNotFound("no session %s", c.Param("id"))
	}
	return c.NoContent(http.StatusNoContent)
}

type datasetResult struct {
	Iri         string `json:"iri"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

func (vc *VisualizeController) SearchDatasets(c echo.Context) error {
	ctx := c.Request().Context()
	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n <= 0 {
			return common.NewBadRequest("invalid limit %q", l)
		}
		limit = n
	}
	iris, err := vc.index.Search(ctx, c.QueryParam("q"), limit)
	if err != nil {
		return err
	}
	locale := vc.requestLocale(c, c.QueryParam("locale"))
	results := make([]datasetResult, 0, len(iris))
	for _, iri := range iris {
		meta, err := vc.metadata.Metadata(ctx, iri, locale)
		if err != nil {
			slog.Warn("search hit without metadata", "dataset", iri, "err", err)
			continue
		}
		results = append(results, datasetResult{Iri: iri, Title: meta.Title, Description: meta.Description})
	}
	return c.JSON(http.StatusOK, results)
}

func (vc *VisualizeController) GetMetadata(c echo.Context) error {
	iri := c.QueryParam("iri")
	if iri == "" {
		return common.NewBadRequest("iri is required")
	}
	meta, err := vc.metadata.Metadata(c.Request().Context(), iri, vc.requestLocale(c, c.QueryParam("locale")))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(http.StatusOK, meta)
}

func (vc *VisualizeController) GetChart(c echo.Context) error {
	chart, err := vc.charts.Fetch(c.Request().Context(), c.Param("key"))
	if err != nil {
		return statusError(err)
	}
	return c.JSON(http.StatusOK, chart)
}

func (vc *VisualizeController) ViewChart(c echo.Context) error {
	key := c.Param("key")
	chart, err := vc.charts.Fetch(c.Request().Context(), key)
	if err != nil {
		return statusError(err)
	}
	view, err := vc.views.Build(key, chart, vc.requestLocale(c, c.QueryParam("locale")))
	if err != nil {
		return err
	}
	view.PublishSuccess = c.QueryParam("publishSuccess") == "true"
	return c.Render(http.StatusOK, "chart", view)
}

func (vc *VisualizeController) GetSchema(c echo.Context) error {
	return c.JSON(http.StatusOK, configurator.Schema())
}

func (vc *VisualizeController) GetHome(c echo.Context) error {
	ctx := c.Request().Context()
	iris, err := vc.index.Search(ctx, "", 100)
	if err != nil {
		return err
	}
	locale := vc.requestLocale(c, c.QueryParam("locale"))
	var datasets []datasetResult
	for _, iri := range iris {
		if meta, err := vc.metadata.Metadata(ctx, iri, locale); err == nil {
			datasets = append(datasets, datasetResult{Iri: iri, Title: meta.Title, Description: meta.Description})
		}
	}
	return c.Render(http.StatusOK, "home", map[string]any{
		"Datasets": datasets,
		"Locale":   locale,
	})
}
