package service

import (
	"context"
	"strings"

	"github.com/avishiprsd/llm-automation-agent/internal/domain/task"
)

// Request is what a handler receives: the extracted intent plus the raw task
// text for handlers that pattern-match URLs or SQL.
type Request struct {
	Intent task.Intent
	Text   string
}

// Handler performs one operation. Handlers report every failure through the
// returned Result.
type Handler func(ctx context.Context, req Request) task.Result

// Match is a keyword predicate over a lower-cased action. Every All keyword
// must occur; when Any is non-empty at least one of its keywords must occur.
type Match struct {
	All []string `json:"all,omitempty"`
	Any []string `json:"any,omitempty"`
}

// Matches reports whether action satisfies m. action must already be lower-cased.
func (m Match) Matches(action string) bool {
	for _, kw := range m.All {
		if !strings.Contains(action, kw) {
			return false
		}
	}
	if len(m.Any) == 0 {
		return len(m.All) > 0
	}
	for _, kw := range m.Any {
		if strings.Contains(action, kw) {
			return true
		}
	}
	return false
}

// Route binds a Match to a Handler.
type Route struct {
	Name   string  `json:"name"`
	Match  Match   `json:"match"`
	Handle Handler `json:"-"`
}

// Dispatcher selects a handler from an ordered route table. The first
// matching route wins; later routes are never evaluated.
type Dispatcher struct {
	routes []Route
}

// NewDispatcher creates a Dispatcher over routes, kept in the given order.
func NewDispatcher(routes []Route) *Dispatcher {
	return &Dispatcher{routes: append([]Route(nil), routes...)}
}

// Select returns the first route whose Match accepts action. The action is
// lower-cased before matching. The index is -1 when nothing matches.
func (d *Dispatcher) Select(action string) (Route, int) {
	action = strings.ToLower(action)
	for i := range d.routes {
		if d.routes[i].Match.Matches(action) {
			return d.routes[i], i
		}
	}
	return Route{}, -1
}

// Dispatch runs the selected handler, or returns the unknown-task result.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) task.Result {
	route, idx := d.Select(req.Intent.Action)
	if idx < 0 {
		return task.Unhandled()
	}
	res := route.Handle(ctx, req)
	res.Route = route.Name
	return res
}

// Routes returns a copy of the route table in evaluation order.
func (d *Dispatcher) Routes() []Route {
	return append([]Route(nil), d.routes...)
}

// Route names in evaluation order.
const (
	RouteInstallRun        = "install_run"
	RouteFormat            = "format"
	RouteCountWeekday      = "count_weekday"
	RouteSortRecords       = "sort_records"
	RouteLogFirstLines     = "log_first_lines"
	RouteMarkdownTitles    = "markdown_titles"
	RouteExtractEmail      = "extract_email"
	RouteExtractCreditCard = "extract_credit_card"
	RouteSimilarPair       = "similar_pair"
	RouteTicketSales       = "ticket_sales"
	RouteAccessData        = "access_data"
	RouteDelete            = "delete"
	RouteFetchAPI          = "fetch_api"
	RouteGitClone          = "git_clone"
	RouteSQLQuery          = "sql_query"
	RouteScrape            = "scrape"
	RouteImageResize       = "image_resize"
	RouteTranscribeAudio   = "transcribe_audio"
	RouteMarkdownHTML      = "markdown_html"
	RouteCSVFilter         = "csv_filter"
)

func matchAll(kw ...string) Match { return Match{All: kw} }
func matchAny(kw ...string) Match { return Match{Any: kw} }

// StandardRoutes returns the canonical route table bound to h.
// Overlapping keywords are resolved by position, so the order is part of
// the observable behavior.
func StandardRoutes(h *Handlers) []Route {
	return []Route{
		{Name: RouteInstallRun, Match: matchAll("install", "run"), Handle: h.InstallAndRun},
		{Name: RouteFormat, Match: matchAll("format"), Handle: h.Format},
		{Name: RouteCountWeekday, Match: matchAll("count"), Handle: h.CountWeekday},
		{Name: RouteSortRecords, Match: matchAll("sort"), Handle: h.SortRecords},
		{Name: RouteLogFirstLines, Match: matchAll("extract", "log"), Handle: h.LogFirstLines},
		{Name: RouteMarkdownTitles, Match: matchAll("extract", "markdown"), Handle: h.MarkdownTitles},
		{Name: RouteExtractEmail, Match: matchAll("extract", "email"), Handle: h.ExtractEmail},
		{Name: RouteExtractCreditCard, Match: matchAll("extract", "credit card"), Handle: h.ExtractCreditCard},
		{Name: RouteSimilarPair, Match: matchAll("find", "similar"), Handle: h.SimilarPair},
		{Name: RouteTicketSales, Match: matchAll("calculate", "sales"), Handle: h.TicketSales},
		{Name: RouteAccessData, Match: matchAll("access", "data"), Handle: h.AccessData},
		{Name: RouteDelete, Match: matchAll("delete"), Handle: h.Delete},
		{Name: RouteFetchAPI, Match: matchAll("fetch", "api"), Handle: h.FetchAPI},
		{Name: RouteGitClone, Match: matchAll("clone", "git"), Handle: h.GitClone},
		{Name: RouteSQLQuery, Match: matchAll("sql", "query"), Handle: h.SQLQuery},
		{Name: RouteScrape, Match: matchAny("scrape", "extract"), Handle: h.Scrape},
		{Name: RouteImageResize, Match: matchAny("compress", "resize"), Handle: h.ImageResize},
		{Name: RouteTranscribeAudio, Match: matchAll("transcribe", "mp3"), Handle: h.TranscribeAudio},
		{Name: RouteMarkdownHTML, Match: matchAll("markdown", "html"), Handle: h.MarkdownHTML},
		{Name: RouteCSVFilter, Match: matchAll("csv", "filter"), Handle: h.CSVFilter},
	}
}
