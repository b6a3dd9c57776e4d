package tablestore

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmtrack/internal/config"
	"github.com/mamadbah2/farmtrack/internal/domain/models"
	"github.com/mamadbah2/farmtrack/internal/repository"
)

const pageSize = 200

// Client is a resty-backed quantity store speaking the hosted table database's row API.
type Client struct {
	httpClient *resty.Client
	cfg        config.TablesConfig
	schema     Schema
	logger     *zap.Logger
}

var _ repository.TripStore = (*Client)(nil)

// NewClient builds a table store client using the provided configuration values.
func NewClient(cfg config.TablesConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Authorization", fmt.Sprintf("Token %s", cfg.Token)).
		SetHeader("Content-Type", "application/json").
		SetQueryParam("user_field_names", "true").
		SetTimeout(cfg.Timeout)

	return &Client{
		httpClient: restyClient,
		cfg:        cfg,
		schema:     NewSchema(cfg.Fields),
		logger:     logger,
	}
}

// rowsPage mirrors a paginated list response.
type rowsPage struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []row   `json:"results"`
}

// apiError represents an error payload returned by the row API.
type apiError struct {
	Error  string `json:"error"`
	Detail any    `json:"detail"`
}

// GetOrigin loads a harvest lot or stock unit.
func (c *Client) GetOrigin(ctx context.Context, ref models.OriginRef) (models.Origin, error) {
	tableID, err := c.originTable(ref.Type)
	if err != nil {
		return models.Origin{}, err
	}

	r, err := c.getRow(ctx, tableID, ref.ID)
	if err != nil {
		return models.Origin{}, fmt.Errorf("get origin %s: %w", ref, err)
	}

	origin, hasNominal, err := c.schema.decodeOrigin(ref.Type, r)
	if err != nil {
		c.logger.Error("undecodable origin row", zap.Stringer("origin", ref), zap.Error(err))
		return models.Origin{}, fmt.Errorf("decode origin %s: %w", ref, err)
	}
	if !hasNominal {
		c.logger.Warn("origin has no nominal kg, treating as zero", zap.Stringer("origin", ref))
	}
	return origin, nil
}

// ListOrigins loads every origin of the given type.
func (c *Client) ListOrigins(ctx context.Context, originType models.OriginType) ([]models.Origin, error) {
	tableID, err := c.originTable(originType)
	if err != nil {
		return nil, err
	}

	rows, err := c.listRows(ctx, tableID, nil)
	if err != nil {
		return nil, fmt.Errorf("list %s origins: %w", originType, err)
	}

	origins := make([]models.Origin, 0, len(rows))
	for _, r := range rows {
		o, hasNominal, err := c.schema.decodeOrigin(originType, r)
		if err != nil {
			c.logger.Warn("skip undecodable origin row", zap.String("origin_type", string(originType)), zap.Error(err))
			continue
		}
		if !hasNominal {
			c.logger.Warn("origin has no nominal kg, treating as zero", zap.Stringer("origin", o.Ref))
		}
		origins = append(origins, o)
	}
	return origins, nil
}

// ListApplicableAllocations lists trips linked to the origin. The link filter
// narrows the rows server side; the ledger still checks status and priority.
func (c *Client) ListApplicableAllocations(ctx context.Context, ref models.OriginRef) ([]models.Allocation, error) {
	filters := map[string]string{
		fmt.Sprintf("filter__%s__link_row_has", c.schema.tripLinkColumn(ref.Type)): strconv.Itoa(ref.ID),
	}

	rows, err := c.listRows(ctx, c.cfg.TripTableID, filters)
	if err != nil {
		return nil, fmt.Errorf("list trips for %s: %w", ref, err)
	}

	allocations := make([]models.Allocation, 0, len(rows))
	for _, r := range rows {
		a, err := c.schema.decodeAllocation(r)
		if err != nil {
			return nil, fmt.Errorf("decode trip row: %w", err)
		}
		allocations = append(allocations, a)
	}
	return allocations, nil
}

// GetAllocation loads a single truck trip.
func (c *Client) GetAllocation(ctx context.Context, id int) (models.Allocation, error) {
	r, err := c.getRow(ctx, c.cfg.TripTableID, id)
	if err != nil {
		return models.Allocation{}, fmt.Errorf("get trip %d: %w", id, err)
	}
	return c.schema.decodeAllocation(r)
}

// CreateAllocation inserts a truck trip row.
func (c *Client) CreateAllocation(ctx context.Context, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error) {
	result := make(row)
	if err := c.send(ctx, http.MethodPost, c.rowsPath(c.cfg.TripTableID), c.schema.encodeAllocation(fields, status), &result); err != nil {
		return models.Allocation{}, fmt.Errorf("create trip: %w", err)
	}
	return c.schema.decodeAllocation(result)
}

// UpdateAllocation patches only the provided columns of a truck trip row.
func (c *Client) UpdateAllocation(ctx context.Context, id int, fields models.AllocationFields, status models.AllocationStatus) (models.Allocation, error) {
	result := make(row)
	if err := c.send(ctx, http.MethodPatch, c.rowPath(c.cfg.TripTableID, id), c.schema.encodeAllocation(fields, status), &result); err != nil {
		return models.Allocation{}, fmt.Errorf("update trip %d: %w", id, err)
	}
	return c.schema.decodeAllocation(result)
}

func (c *Client) originTable(t models.OriginType) (int, error) {
	switch t {
	case models.OriginHarvest:
		return c.cfg.HarvestTableID, nil
	case models.OriginStock:
		return c.cfg.StockTableID, nil
	default:
		return 0, fmt.Errorf("%w: unknown origin type %q", models.ErrInvalidInput, t)
	}
}

func (c *Client) rowsPath(tableID int) string {
	return fmt.Sprintf("/api/database/rows/table/%d/", tableID)
}

func (c *Client) rowPath(tableID, rowID int) string {
	return fmt.Sprintf("/api/database/rows/table/%d/%d/", tableID, rowID)
}

func (c *Client) getRow(ctx context.Context, tableID, rowID int) (row, error) {
	result := make(row)
	if err := c.send(ctx, http.MethodGet, c.rowPath(tableID, rowID), nil, &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) listRows(ctx context.Context, tableID int, filters map[string]string) ([]row, error) {
	var rows []row

	for page := 1; ; page++ {
		result := new(rowsPage)
		apiErr := new(apiError)

		resp, err := c.httpClient.R().
			SetContext(ctx).
			SetQueryParams(filters).
			SetQueryParam("page", strconv.Itoa(page)).
			SetQueryParam("size", strconv.Itoa(pageSize)).
			SetResult(result).
			SetError(apiErr).
			Get(c.rowsPath(tableID))
		if err := classify(resp, err, apiErr); err != nil {
			return nil, err
		}

		rows = append(rows, result.Results...)
		if result.Next == nil || *result.Next == "" || len(result.Results) == 0 {
			break
		}
	}

	c.logger.Debug("rows listed", zap.Int("table_id", tableID), zap.Int("rows", len(rows)))
	return rows, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any, result *row) error {
	apiErr := new(apiError)

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetError(apiErr)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	return classify(resp, err, apiErr)
}

// classify maps transport and HTTP failures onto the ledger error taxonomy.
func classify(resp *resty.Response, err error, apiErr *apiError) error {
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrStoreUnavailable, err)
	}

	code := resp.StatusCode()
	switch {
	case code == http.StatusNotFound:
		return models.ErrNotFound
	case code >= http.StatusInternalServerError:
		return fmt.Errorf("%w: tables api status %d", models.ErrStoreUnavailable, code)
	case code >= http.StatusBadRequest:
		message := ""
		if apiErr != nil {
			message = apiErr.Error
		}
		return fmt.Errorf("tables api error: code=%d, message=%s", code, message)
	}
	return nil
}
