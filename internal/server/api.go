package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/desertthunder/songlinks/internal/links"
	"github.com/desertthunder/songlinks/internal/models"
	"github.com/desertthunder/songlinks/internal/repositories"
	"github.com/desertthunder/songlinks/internal/tasks"
)

const (
	defaultPlaylistName        = "API Created Playlist"
	defaultPlaylistDescription = "Playlist created through API"
	maxUploadBytes             = 10 << 20
)

// APIConfig holds the dependencies of [API].
//
// Reader, Engine and Builder may be nil when the server runs without credentials; the
// endpoints that need them then answer 503.
type APIConfig struct {
	Reader  tasks.MetadataReader
	Engine  *tasks.ConversionEngine
	Builder *tasks.PlaylistBuilder
	History *repositories.History
	Logger  *log.Logger
}

// API serves the JSON endpoints.
type API struct {
	reader  tasks.MetadataReader
	engine  *tasks.ConversionEngine
	builder *tasks.PlaylistBuilder
	history *repositories.History
	logger  *log.Logger
}

// NewAPI creates the API handlers.
func NewAPI(cfg APIConfig) *API {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &API{
		reader:  cfg.Reader,
		engine:  cfg.Engine,
		builder: cfg.Builder,
		history: cfg.History,
		logger:  logger,
	}
}

// Register adds every endpoint to r.
func (a *API) Register(r Router) {
	r.Handle(http.MethodGet, "/health", http.HandlerFunc(a.Health))
	r.Handle(http.MethodGet, "/metrics", promhttp.Handler())

	r.Handle(http.MethodPost, "/api/extract-links", http.HandlerFunc(a.ExtractLinks))
	r.Handle(http.MethodPost, "/api/extract-links-from-file", http.HandlerFunc(a.ExtractLinksFromFile))
	r.Handle(http.MethodPost, "/api/extract-ids", http.HandlerFunc(a.ExtractIDs))
	r.Handle(http.MethodPost, "/api/parse-apple-music", http.HandlerFunc(a.ParseAppleMusic))
	r.Handle(http.MethodPost, "/api/convert-apple-to-spotify", http.HandlerFunc(a.Convert))
	r.Handle(http.MethodPost, "/api/process-music-links", http.HandlerFunc(a.ProcessLinks))
	r.Handle(http.MethodPost, "/api/create-spotify-playlist", http.HandlerFunc(a.CreatePlaylist))
	r.Handle(http.MethodPost, "/api/create-playlist-from-links", http.HandlerFunc(a.CreatePlaylistFromLinks))
	r.Handle(http.MethodGet, "/api/history", http.HandlerFunc(a.History))
}

// NewHandler builds a router with the standard middleware stack and every API route.
func NewHandler(cfg APIConfig, corsOrigin string) http.Handler {
	api := NewAPI(cfg)

	router := NewBasicRouter()
	router.Use(Recover(api.logger), Logging(api.logger), Metrics(), CORS(corsOrigin))
	api.Register(router)
	return router
}

// Health reports that the API is up.
func (a *API) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "message": "API is running"})
}

// linksRequest accepts either an explicit list of links or free text to extract them from.
type linksRequest struct {
	Content *string  `json:"content"`
	Links   []string `json:"links"`
}

type extractResponse struct {
	AppleMusic []string `json:"apple_music"`
	Spotify    []string `json:"spotify"`
	Total      int      `json:"total"`
}

func newExtractResponse(e links.Extraction) extractResponse {
	return extractResponse{
		AppleMusic: links.URLs(e.Apple),
		Spotify:    links.URLs(e.Spotify),
		Total:      e.Total(),
	}
}

// ExtractLinks returns the unique Apple Music and Spotify links in {content}.
func (a *API) ExtractLinks(w http.ResponseWriter, r *http.Request) {
	var req linksRequest
	if err := decodeJSON(r, &req); err != nil || req.Content == nil {
		writeError(w, http.StatusBadRequest, "No content provided")
		return
	}
	writeJSON(w, http.StatusOK, newExtractResponse(links.Extract(*req.Content)))
}

// ExtractLinksFromFile is [API.ExtractLinks] for a multipart upload in the "file" field.
func (a *API) ExtractLinksFromFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file part in the request")
		return
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No selected file")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Could not read file")
		return
	}
	writeJSON(w, http.StatusOK, newExtractResponse(links.Extract(string(data))))
}

type linkError struct {
	Link   string `json:"link"`
	Reason string `json:"reason"`
}

type idsResponse struct {
	IDs    []models.ParsedID `json:"ids"`
	Errors []linkError       `json:"errors"`
}

// ExtractIDs parses each link into its platform identifier. Unparseable links are reported
// in errors rather than failing the request.
func (a *API) ExtractIDs(w http.ResponseWriter, r *http.Request) {
	urls, ok := requestLinks(w, r, false)
	if !ok {
		return
	}

	resp := idsResponse{IDs: []models.ParsedID{}, Errors: []linkError{}}
	for _, u := range urls {
		id, err := links.ParseURL(u)
		if err != nil {
			resp.Errors = append(resp.Errors, linkError{Link: u, Reason: err.Error()})
			continue
		}
		resp.IDs = append(resp.IDs, id)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ParseAppleMusic reads the metadata of one Apple Music page.
func (a *API) ParseAppleMusic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL string `json:"url"`
	}
	if err := decodeJSON(r, &req); err != nil || req.URL == "" {
		writeError(w, http.StatusBadRequest, "No url provided")
		return
	}
	if a.reader == nil {
		writeError(w, http.StatusServiceUnavailable, "Apple Music reader not configured")
		return
	}
	if links.DetectPlatform(req.URL) != models.PlatformAppleMusic {
		writeError(w, http.StatusBadRequest, "Not an Apple Music link")
		return
	}

	meta, err := a.reader.Read(r.Context(), req.URL)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

type convertResponse struct {
	Results []models.Outcome `json:"results"`
	models.Summary
}

// Convert matches Apple Music links on Spotify. One result is returned per link, in order.
func (a *API) Convert(w http.ResponseWriter, r *http.Request) {
	urls, ok := requestLinks(w, r, true)
	if !ok {
		return
	}
	if a.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "Spotify is not configured")
		return
	}

	outcomes := a.engine.Convert(r.Context(), urls, nil)
	a.record(func(h *repositories.History) error {
		_, err := h.RecordConversion("api", outcomes)
		return err
	})
	writeJSON(w, http.StatusOK, convertResponse{Results: outcomes, Summary: models.Summarize(outcomes)})
}

type processResponse struct {
	Results []models.ProcessedLink `json:"results"`
	Total   int                    `json:"total"`
}

// ProcessLinks resolves a mixed list of links, matching Apple Music links on Spotify.
func (a *API) ProcessLinks(w http.ResponseWriter, r *http.Request) {
	var req linksRequest
	if err := decodeJSON(r, &req); err != nil || (req.Content == nil && req.Links == nil) {
		writeError(w, http.StatusBadRequest, "No content provided")
		return
	}
	if a.engine == nil {
		writeError(w, http.StatusServiceUnavailable, "Spotify is not configured")
		return
	}

	urls := req.Links
	if req.Content != nil {
		urls = links.URLs(links.Extract(*req.Content).All())
	}

	results := a.engine.ProcessLinks(r.Context(), urls, nil)
	writeJSON(w, http.StatusOK, processResponse{Results: results, Total: len(results)})
}

type createPlaylistRequest struct {
	TrackIDs    []string `json:"track_ids"`
	AlbumIDs    []string `json:"album_ids"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Public      *bool    `json:"public"`
}

type createPlaylistResponse struct {
	*models.PlaylistOutcome
	Success bool `json:"success"`
}

// CreatePlaylist builds a playlist from Spotify track and album ids.
//
// Failed items are listed in errors; only a failure to create the playlist itself is a 500.
func (a *API) CreatePlaylist(w http.ResponseWriter, r *http.Request) {
	var req createPlaylistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if len(req.TrackIDs) == 0 && len(req.AlbumIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No track or album IDs provided")
		return
	}
	if a.builder == nil {
		writeError(w, http.StatusInternalServerError, "Spotify is not configured")
		return
	}

	build := tasks.BuildRequest{
		TrackIDs:    req.TrackIDs,
		AlbumIDs:    req.AlbumIDs,
		Name:        orDefault(req.Name, defaultPlaylistName),
		Description: defaultPlaylistDescription,
		Private:     req.Public != nil && !*req.Public,
	}
	if req.Description != nil {
		build.Description = *req.Description
	}

	outcome, err := a.builder.Build(r.Context(), build, nil)
	if err != nil {
		a.logger.Error("create playlist failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, createPlaylistResponse{PlaylistOutcome: outcome, Success: true})
}

type playlistFromLinksRequest struct {
	Links       []string `json:"links"`
	Name        string   `json:"name"`
	Description *string  `json:"description"`
}

type playlistFromLinksResponse struct {
	PlaylistID  string               `json:"playlist_id"`
	PlaylistURL string               `json:"playlist_url"`
	Success     bool                 `json:"success"`
	Stats       models.PlaylistStats `json:"stats"`
	Errors      []models.ItemError   `json:"errors"`
}

// CreatePlaylistFromLinks processes {links} and builds a playlist from everything that
// resolves to Spotify.
func (a *API) CreatePlaylistFromLinks(w http.ResponseWriter, r *http.Request) {
	var req playlistFromLinksRequest
	if err := decodeJSON(r, &req); err != nil || req.Links == nil {
		writeError(w, http.StatusBadRequest, "No links provided")
		return
	}
	if a.engine == nil || a.builder == nil {
		writeError(w, http.StatusInternalServerError, "Spotify is not configured")
		return
	}

	lr := tasks.LinksRequest{
		Links:       req.Links,
		Name:        orDefault(req.Name, defaultPlaylistName),
		Description: defaultPlaylistDescription,
	}
	if req.Description != nil {
		lr.Description = *req.Description
	}

	res, err := a.builder.FromLinks(r.Context(), a.engine, lr, nil)
	if err != nil {
		a.logger.Error("create playlist from links failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, playlistFromLinksResponse{
		PlaylistID:  res.Playlist.PlaylistID,
		PlaylistURL: res.Playlist.PlaylistURL,
		Success:     true,
		Stats:       res.Stats,
		Errors:      res.Playlist.Errors,
	})
}

// History lists recent recorded runs, newest first. ?limit= defaults to 20.
func (a *API) History(w http.ResponseWriter, r *http.Request) {
	if a.history == nil {
		writeError(w, http.StatusServiceUnavailable, "History is not enabled")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	runs, err := a.history.Recent(limit)
	if err != nil {
		writeErr(w, err)
		return
	}

	resp := make([]models.RunRecord, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, run.Record())
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": resp, "total": len(resp)})
}

// requestLinks reads {links} or {content}. It writes a 400 and returns false when neither is
// present. With appleOnly, links extracted from content are limited to Apple Music.
func requestLinks(w http.ResponseWriter, r *http.Request, appleOnly bool) ([]string, bool) {
	var req linksRequest
	if err := decodeJSON(r, &req); err != nil || (req.Content == nil && req.Links == nil) {
		writeError(w, http.StatusBadRequest, "No links or content provided")
		return nil, false
	}
	if req.Content == nil {
		return req.Links, true
	}

	e := links.Extract(*req.Content)
	if appleOnly {
		return links.URLs(e.Apple), true
	}
	return links.URLs(e.All()), true
}

func (a *API) record(fn func(h *repositories.History) error) {
	if a.history == nil {
		return
	}
	if err := fn(a.history); err != nil {
		a.logger.Warn("failed to record history", "error", err)
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
