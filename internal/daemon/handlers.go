package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/jcdickinson/apiref/internal/db"
	"github.com/jcdickinson/apiref/internal/docmodel"
	"github.com/jcdickinson/apiref/internal/markdown"
	"github.com/jcdickinson/apiref/internal/render"
	"github.com/jcdickinson/apiref/internal/rpc"
)

// diagnosticsLogger reports render diagnostics to the log and metrics.
type diagnosticsLogger struct {
	s *Server
}

func (d diagnosticsLogger) Report(diag render.Diagnostic) {
	d.s.logger.Warn("render diagnostic",
		zap.String("kind", diag.Kind),
		zap.String("package", diag.Package),
		zap.String("page", diag.Page),
		zap.String("message", diag.Message),
	)
	d.s.metrics.IncRenderDiagnostic(diag.Kind)
}

func (s *Server) renderer(site *docmodel.Site) *render.Renderer {
	opts := []render.Option{render.WithDiagnostics(diagnosticsLogger{s})}
	if s.highlighter != nil {
		opts = append(opts, render.WithHighlighter(s.highlighter, s.cfg.Highlight.Language))
	}
	return render.New(site, opts...)
}

// page loads the package and renders one of its pages.
func (s *Server) page(ctx context.Context, id, path string) (*render.PageData, error) {
	site, err := s.registry.Site(ctx, id)
	if err != nil {
		return nil, err
	}
	page, err := site.Page(path)
	if err != nil {
		return nil, err
	}
	data := s.renderer(site).PageData(page)
	s.metrics.IncPageRendered()
	return data, nil
}

// pageMarkdown serialises a page with front matter naming its package.
func pageMarkdown(id string, data *render.PageData) string {
	md := markdown.View(data.DocViewProps)
	fields := []markdown.Field{
		{Key: "title", Value: data.Title},
		{Key: "package", Value: id},
		{Key: "route", Value: data.BaseURL + "/" + data.Slug},
	}
	if info := data.PackageInfo; info != nil {
		fields = append(fields,
			markdown.Field{Key: "name", Value: info.Name},
			markdown.Field{Key: "version", Value: info.Version},
			markdown.Field{Key: "homepage", Value: info.Homepage},
		)
	}
	return markdown.AddFrontMatter(md, fields...)
}

func pageHTML(data *render.PageData) string {
	body := markdown.ToHTML(markdown.View(data.DocViewProps))
	return string(markdown.Document(data.Title, body))
}

func validFormat(format string) bool {
	switch format {
	case "", rpc.FormatJSON, rpc.FormatMarkdown, rpc.FormatHTML:
		return true
	}
	return false
}

func (s *Server) handlePackagePage(w http.ResponseWriter, r *http.Request) {
	id, path, err := rpc.ParsePackagePath(chi.URLParam(r, "*"))
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	format := r.URL.Query().Get("format")
	if !validFormat(format) {
		s.writeFailure(w, r, fmt.Errorf("%w: unknown format %q", rpc.ErrBadRequest, format))
		return
	}

	data, err := s.page(r.Context(), id, path)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", s.cfg.Web.CacheControl)
	switch format {
	case rpc.FormatMarkdown:
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(pageMarkdown(id, data)))
	case rpc.FormatHTML:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(pageHTML(data)))
	default:
		writeJSON(w, http.StatusOK, data)
	}
}

func (s *Server) handleGetPage(w http.ResponseWriter, r *http.Request) {
	var req rpc.GetPageRequest
	if err := decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if req.Package == "" {
		s.writeFailure(w, r, fmt.Errorf("%w: missing package", rpc.ErrBadRequest))
		return
	}
	if !validFormat(req.Format) {
		s.writeFailure(w, r, fmt.Errorf("%w: unknown format %q", rpc.ErrBadRequest, req.Format))
		return
	}

	data, err := s.page(r.Context(), req.Package, req.Path)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	resp := rpc.GetPageResponse{Page: data}
	switch req.Format {
	case rpc.FormatMarkdown:
		resp.Markdown = pageMarkdown(req.Package, data)
	case rpc.FormatHTML:
		resp.HTML = pageHTML(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddPackages(w http.ResponseWriter, r *http.Request) {
	var req rpc.AddPackagesRequest
	if err := decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.WriteHeader(http.StatusOK)

	enc := json.NewEncoder(w)
	send := func(line rpc.ProgressLine) bool {
		if err := enc.Encode(line); err != nil {
			s.logger.Info("client disconnected", zap.Error(err))
			return false
		}
		if flusher != nil {
			flusher.Flush()
		}
		return true
	}

	for _, id := range req.Packages {
		id = strings.TrimSpace(id)
		if !send(rpc.ProgressLine{Type: "progress", Message: "loading " + id}) {
			return
		}
		result := s.addPackage(r.Context(), id)
		if !send(rpc.ProgressLine{Type: "result", Result: &result}) {
			return
		}
	}
}

func (s *Server) addPackage(ctx context.Context, id string) rpc.PackageResult {
	result := rpc.PackageResult{ID: id}
	site, err := s.registry.Site(ctx, id)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	result.Name = site.Info.Name
	result.Version = site.Info.Version
	result.Pages = site.Pages.Len()
	result.Symbols = len(site.Symbols())
	return result
}

func (s *Server) handleNavigation(w http.ResponseWriter, r *http.Request) {
	var req rpc.NavigationRequest
	if err := decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	site, err := s.registry.Site(r.Context(), req.Package)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.NavigationResponse{Navigation: site.Navigation()})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req rpc.ResolveRequest
	if err := decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if strings.TrimSpace(req.Reference) == "" {
		s.writeFailure(w, r, fmt.Errorf("%w: missing reference", rpc.ErrBadRequest))
		return
	}
	site, err := s.registry.Site(r.Context(), req.Package)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	route, found := site.Resolve(strings.TrimSpace(req.Reference))
	writeJSON(w, http.StatusOK, rpc.ResolveResponse{Route: route, Found: found})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req rpc.SearchRequest
	if err := decode(r, &req); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	results, err := s.searcher.Search(r.Context(), req)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.SearchResponse{Results: results})
}

func (s *Server) packageStatuses(ctx context.Context, limit int) ([]rpc.PackageStatus, error) {
	pkgs, err := s.catalog.ListPackages(ctx, limit)
	if err != nil {
		return nil, err
	}
	loaded := s.registry.Loaded()
	out := make([]rpc.PackageStatus, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, statusOf(p, slices.Contains(loaded, p.ID)))
	}
	return out, nil
}

func statusOf(p db.Package, loaded bool) rpc.PackageStatus {
	return rpc.PackageStatus{
		ID:          p.ID,
		Name:        p.Name,
		Version:     p.Version,
		Homepage:    p.Homepage,
		Pages:       p.Pages,
		ProcessedAt: p.ProcessedAt.UTC().Truncate(time.Second),
		Loaded:      loaded,
	}
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packageStatuses(r.Context(), recentLimit)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.RecentResponse{Packages: pkgs})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	pkgs, err := s.packageStatuses(r.Context(), 0)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rpc.StatusResponse{Packages: pkgs, Loaded: s.registry.Loaded()})
}

func (s *Server) handleClearCache(w http.ResponseWriter, r *http.Request) {
	s.registry.Clear()
	if err := s.store.Clear(); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if err := s.catalog.Clear(r.Context()); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	s.logger.Info("caches cleared")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "shutting down"})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.Stop(ctx)
		s.exit(0)
	}()
}
