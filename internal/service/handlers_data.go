package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/avishiprsd/llm-automation-agent/internal/domain"
	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
	"github.com/avishiprsd/llm-automation-agent/internal/port/media"
)

const ticketSalesQuery = "SELECT SUM(price * units) FROM tickets WHERE type = ?"

// TicketSales sums price * units for one ticket type.
func (h *Handlers) TicketSales(ctx context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	if !exists(input) {
		return fileNotFound(input)
	}
	if h.deps.Querier == nil {
		return notConfigured("Database")
	}

	ticketType := req.Intent.Param("ticket_type", "Gold")
	total, err := h.deps.Querier.QueryFloat(ctx, input, ticketSalesQuery, ticketType)
	if err != nil {
		slog.WarnContext(ctx, "ticket sales query failed", "db", input, "error", err)
		return task.Failed("Unable to calculate %s ticket sales: %v", ticketType, err)
	}

	return finish(req.Intent.OutputPath, []byte(strconv.FormatFloat(total, 'f', -1, 64)),
		ticketType+" ticket sales calculated.")
}

// SQLQuery runs the SELECT statement found in the task text against the
// input database and writes the rows as a JSON array of arrays.
func (h *Handlers) SQLQuery(ctx context.Context, req Request) task.Result {
	query := sqlPattern.FindString(req.Text)
	if query == "" {
		return task.Failed("No valid SQL query found in task description.")
	}
	if h.deps.Querier == nil {
		return notConfigured("Database")
	}

	rows, err := h.deps.Querier.QueryRows(ctx, req.Intent.InputPath, query)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return fileNotFound(req.Intent.InputPath)
	case err != nil:
		return task.Failure(fmt.Sprintf("Error executing SQL query: %v", err))
	}
	if rows == nil {
		rows = [][]any{}
	}

	out, err := json.Marshal(rows)
	if err != nil {
		return task.Failure(fmt.Sprintf("Error executing SQL query: %v", err))
	}
	return finish(req.Intent.OutputPath, out, "SQL query executed and result saved.")
}

// FetchAPI downloads the JSON document at the URL found in the task text.
func (h *Handlers) FetchAPI(ctx context.Context, req Request) task.Result {
	url := firstURL(req.Text)
	if url == "" {
		return task.Failed("No valid API URL found in task description.")
	}
	if h.deps.Fetcher == nil {
		return notConfigured("Fetcher")
	}

	resp, err := h.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return task.Failure(fmt.Sprintf("Error fetching API data: %v", err))
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, resp.Body); err != nil {
		return task.Failure(fmt.Sprintf("Error fetching API data: response is not JSON: %v", err))
	}
	return finish(req.Intent.OutputPath, buf.Bytes(), "API data fetched and saved.")
}

// Scrape saves the page at the URL found in the task text. With
// parameters.text_only the markup is reduced to visible text.
func (h *Handlers) Scrape(ctx context.Context, req Request) task.Result {
	url := firstURL(req.Text)
	if url == "" {
		return task.Failed("No valid URL found in task description.")
	}
	if h.deps.Fetcher == nil {
		return notConfigured("Fetcher")
	}

	resp, err := h.deps.Fetcher.Get(ctx, url)
	if err != nil {
		return task.Failure(fmt.Sprintf("Error scraping website: %v", err))
	}

	body := resp.Body
	if req.Intent.BoolParam("text_only") && h.deps.Text != nil {
		text, err := h.deps.Text.ExtractText(body)
		if err != nil {
			return task.Failure(fmt.Sprintf("Error scraping website: %v", err))
		}
		body = []byte(text)
	}
	return finish(req.Intent.OutputPath, body, "Website data scraped and saved.")
}

// ImageResize scales the input image and re-encodes it by the output
// file's extension.
func (h *Handlers) ImageResize(ctx context.Context, req Request) task.Result {
	input := req.Intent.InputPath
	if !exists(input) {
		return fileNotFound(input)
	}
	if h.deps.Resizer == nil {
		return notConfigured("Image resizer")
	}

	opts := media.ResizeOptions{
		Width:   req.Intent.IntParam("width", 100),
		Height:  req.Intent.IntParam("height", 100),
		Quality: req.Intent.IntParam("quality", 85),
	}
	if opts.Width <= 0 || opts.Height <= 0 || opts.Width > media.MaxDimension || opts.Height > media.MaxDimension {
		return task.Failure(fmt.Sprintf("Error processing image: size %dx%d must be within 1..%d per side",
			opts.Width, opts.Height, media.MaxDimension))
	}
	if err := ensureParent(req.Intent.OutputPath); err != nil {
		return task.Failure(fmt.Sprintf("Error processing image: %v", err))
	}
	if err := h.deps.Resizer.Resize(ctx, input, req.Intent.OutputPath, opts); err != nil {
		return task.Failure(fmt.Sprintf("Error processing image: %v", err))
	}
	return task.Succeeded("Image compressed and resized.")
}
