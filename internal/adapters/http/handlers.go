package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"github.com/Abichu1/gym-members/internal/adapters/assets"
	memberStore "github.com/Abichu1/gym-members/internal/adapters/storage/member"
	"github.com/Abichu1/gym-members/internal/application/orchestrators"
	"github.com/Abichu1/gym-members/internal/application/projections"
	"github.com/Abichu1/gym-members/internal/domain/member"
)

// requestTimeout bounds every mutating handler so storage or asset I/O
// cannot hang a request.
const requestTimeout = 10 * time.Second

// maxUploadBytes caps multipart bodies. Photos beyond this are rejected.
const maxUploadBytes = 10 << 20

func contextWithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, requestTimeout)
}

// Stable error kinds of the JSON envelope.
const (
	kindValidation       = "validation"
	kindDuplicateID      = "duplicate_id"
	kindNotFound         = "not_found"
	kindStorageFailed    = "storage_failed"
	kindAssetStoreFailed = "asset_store_failed"
	kindBadRequest       = "bad_request"
)

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// internalError logs the real error and returns a generic envelope to the
// client. This prevents leaking internal details per OWASP A05.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	writeError(w, http.StatusInternalServerError, kindStorageFailed, "internal server error")
}

// writeError emits the JSON error envelope: {"error":{"kind":...,"message":...}}.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{"kind": kind, "message": message},
	})
}

// strictDecode decodes JSON from the request body, rejecting unknown fields.
func strictDecode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const templatesDir = "internal/adapters/http/templates"

func isHTMLRequest(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/html") || strings.Contains(accept, "application/xhtml+xml")
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
	}

	layoutPath := filepath.Join(templatesDir, "layout.html")
	pagePath := filepath.Join(templatesDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// renderNotFound writes a minimal HTML 404 page for browser clients. It is
// self-contained so it works even when the template files are unavailable.
func renderNotFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	io.WriteString(w, `<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Member not found</title></head>
<body><h1>Member not found</h1><p><a href="/members">Back to members</a></p></body>
</html>
`)
}

// handleMembers handles both GET (list) and POST (register) for /members
func handleMembers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	isHTML := isHTMLRequest(r)

	if r.Method == "GET" {
		query := projections.GetMemberListQuery{}
		if r.URL.Query().Get("order") == "newest" {
			query.Order = memberStore.OrderNewest
		}
		deps := projections.GetMemberListDeps{MemberStore: stores.MemberStore}

		result, err := projections.QueryGetMemberList(ctx, query, deps)
		if err != nil {
			internalError(w, err)
			return
		}

		if isHTML {
			renderTemplate(w, r, "get_member_list.html", map[string]any{
				"Members": result.Members,
				"Total":   result.Total,
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
		return
	}

	if r.Method == "POST" {
		ctx, cancel := contextWithTimeout(ctx)
		defer cancel()

		input, decodeErr := decodeCreateMember(r)
		if decodeErr != nil {
			writeError(w, http.StatusBadRequest, kindBadRequest, decodeErr.Error())
			return
		}

		deps := orchestrators.CreateMemberDeps{
			MemberStore: stores.MemberStore,
			AssetStore:  stores.AssetStore,
		}
		created, err := orchestrators.ExecuteCreateMember(ctx, input, deps)
		if err != nil {
			var verr *member.ValidationError
			switch {
			case errors.As(err, &verr):
				writeError(w, http.StatusBadRequest, kindValidation, verr.Error())
			case errors.Is(err, memberStore.ErrDuplicateMembership),
				errors.Is(err, memberStore.ErrDuplicateID):
				writeError(w, http.StatusConflict, kindDuplicateID, "id already in use")
			case errors.Is(err, assets.ErrWrite):
				slog.Error("internal_error", "error", err.Error())
				writeError(w, http.StatusInternalServerError, kindAssetStoreFailed, "could not store photo")
			default:
				internalError(w, err)
			}
			return
		}

		if isHTML {
			http.Redirect(w, r, "/members", http.StatusSeeOther)
			return
		}

		view, err := projections.QueryGetMemberProfile(ctx,
			projections.GetMemberProfileQuery{MemberID: created.ID},
			projections.GetMemberProfileDeps{MemberStore: stores.MemberStore})
		if err != nil {
			internalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(view.Member)
		return
	}

	w.WriteHeader(http.StatusMethodNotAllowed)
}

// decodeCreateMember builds the orchestrator input from either a multipart
// form (photo supported) or a JSON body (no photo).
func decodeCreateMember(r *http.Request) (orchestrators.CreateMemberInput, error) {
	input := orchestrators.CreateMemberInput{}
	contentType := r.Header.Get("Content-Type")

	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return input, errors.New("invalid multipart form")
		}
		input.Name = r.FormValue("name")
		input.MembershipID = r.FormValue("membership_id")
		input.Email = r.FormValue("email")
		input.Phone = r.FormValue("phone")
		input.Expiry = r.FormValue("expiry")
		input.Notes = r.FormValue("notes")
		if file, header, err := r.FormFile("photo"); err == nil {
			input.Photo = file
			input.PhotoName = header.Filename
		}
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		if err := r.ParseForm(); err != nil {
			return input, errors.New("invalid form submission")
		}
		input.Name = r.FormValue("name")
		input.MembershipID = r.FormValue("membership_id")
		input.Email = r.FormValue("email")
		input.Phone = r.FormValue("phone")
		input.Expiry = r.FormValue("expiry")
		input.Notes = r.FormValue("notes")
	default:
		var body struct {
			Name         string `json:"name"`
			MembershipID string `json:"membership_id"`
			Email        string `json:"email"`
			Phone        string `json:"phone"`
			Expiry       string `json:"expiry"`
			Notes        string `json:"notes"`
		}
		if err := strictDecode(r, &body); err != nil {
			return input, errors.New("invalid request body")
		}
		input.Name = body.Name
		input.MembershipID = body.MembershipID
		input.Email = body.Email
		input.Phone = body.Phone
		input.Expiry = body.Expiry
		input.Notes = body.Notes
	}
	return input, nil
}

// handleMemberByID handles GET and DELETE for /members/{id}
func handleMemberByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	switch r.Method {
	case "GET":
		result, err := projections.QueryGetMemberProfile(ctx,
			projections.GetMemberProfileQuery{MemberID: id},
			projections.GetMemberProfileDeps{MemberStore: stores.MemberStore})
		if errors.Is(err, memberStore.ErrNotFound) {
			if isHTMLRequest(r) {
				renderNotFound(w)
				return
			}
			writeError(w, http.StatusNotFound, kindNotFound, "member not found")
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}

		if isHTMLRequest(r) {
			renderTemplate(w, r, "get_member_profile.html", map[string]any{
				"Member": result.Member,
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result.Member)

	case "DELETE":
		ctx, cancel := contextWithTimeout(ctx)
		defer cancel()

		err := orchestrators.ExecuteDeleteMember(ctx,
			orchestrators.DeleteMemberInput{MemberID: id},
			orchestrators.DeleteMemberDeps{
				MemberStore: stores.MemberStore,
				AssetStore:  stores.AssetStore,
			})
		if errors.Is(err, memberStore.ErrNotFound) {
			writeError(w, http.StatusNotFound, kindNotFound, "member not found")
			return
		}
		if err != nil {
			internalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"deleted": true})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleMemberDeleteForm handles POST /members/{id}/delete, the HTML-form
// variant of member deletion. Redirects back to the listing.
func handleMemberDeleteForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	id := r.PathValue("id")
	err := orchestrators.ExecuteDeleteMember(ctx,
		orchestrators.DeleteMemberInput{MemberID: id},
		orchestrators.DeleteMemberDeps{
			MemberStore: stores.MemberStore,
			AssetStore:  stores.AssetStore,
		})
	if err != nil && !errors.Is(err, memberStore.ErrNotFound) {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/members", http.StatusSeeOther)
}

// handleHealthz reports liveness. The member count doubles as a DB ping.
func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if _, err := stores.MemberStore.Count(r.Context()); err != nil {
		slog.Error("internal_error", "error", err.Error())
		writeError(w, http.StatusServiceUnavailable, kindStorageFailed, "database unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handlePerfStats returns aggregated request/query timings from the ring
// collector. since_minutes bounds the window; top bounds the path list.
func handlePerfStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != "GET" {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		writeError(w, http.StatusNotFound, kindNotFound, "stats collection disabled")
		return
	}

	sinceMinutes := 60
	if v := r.URL.Query().Get("since_minutes"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			sinceMinutes = n
		}
	}
	topN := 10
	if v := r.URL.Query().Get("top"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			topN = n
		}
	}

	snap := perfCollector.Snapshot(time.Now().Add(-time.Duration(sinceMinutes)*time.Minute), topN)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}
