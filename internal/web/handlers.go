package web

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/extract-chat/internal/export"
	"github.com/sells-group/extract-chat/internal/extract"
	"github.com/sells-group/extract-chat/internal/model"
	"github.com/sells-group/extract-chat/internal/session"
)

// Messages shown in banners.
const (
	MsgURLScheme = "URL must start with http:// or https://"
	MsgBusy      = "An extraction is already running for this session."
)

// errBusy is returned when the session already has an extraction in flight.
var errBusy = eris.New(MsgBusy)

// statsURLLimit is the display width of the website in the stats panel.
const statsURLLimit = 30

// loadingMessages cycle while an extraction runs.
var loadingMessages = []string{
	"Analyzing website structure...",
	"Identifying relevant elements...",
	"Extracting requested data...",
	"Processing information...",
	"Formatting results...",
	"Almost there...",
}

type pageData struct {
	Session         session.Snapshot
	Notice          *session.Notice
	URLWarning      bool
	StatsURL        string
	FieldTypes      []model.FieldType
	LoadingMessages []string
	Placeholder     string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())
	notice := st.TakeNotice()
	snap := st.Snapshot()

	placeholder := "Ask about the website... (e.g., 'Extract all product names and prices')"
	if snap.ExamplePrompt != "" {
		placeholder = snap.ExamplePrompt
	}

	data := pageData{
		Session:         snap,
		Notice:          notice,
		URLWarning:      snap.WebsiteURL != "" && !extract.HasHTTPScheme(snap.WebsiteURL),
		StatsURL:        truncate(snap.WebsiteURL, statsURLLimit),
		FieldTypes:      model.FieldTypes,
		LoadingMessages: loadingMessages,
		Placeholder:     placeholder,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		zap.L().Error("render index", zap.Error(err))
	}
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).DismissIntro()
	redirectHome(w, r)
}

func (s *Server) handleURL(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())
	url := strings.TrimSpace(r.FormValue("url"))
	st.SetWebsiteURL(url)
	if url != "" && !extract.HasHTTPScheme(url) {
		st.SetNotice(session.NoticeWarning, MsgURLScheme, "")
	}
	redirectHome(w, r)
}

// handleFields saves the submitted rows and then applies the action button
// that was pressed: add, remove, reset or save.
func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}

	fields, err := parseFieldRows(r.PostForm["name"], r.PostForm["type"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	st.SetFields(fields)

	switch r.PostFormValue("action") {
	case "add":
		st.AddField()
	case "remove":
		st.RemoveField()
	case "reset":
		st.ResetSchema()
	}
	redirectHome(w, r)
}

func parseFieldRows(names, types []string) ([]model.SchemaField, error) {
	fields := make([]model.SchemaField, 0, len(names))
	for i, name := range names {
		ft := model.FieldString
		if i < len(types) {
			t, err := model.ParseFieldType(types[i])
			if err != nil {
				return nil, eris.Wrapf(err, "field %d", i+1)
			}
			ft = t
		}
		fields = append(fields, model.SchemaField{Name: name, Type: ft})
	}
	return fields, nil
}

func (s *Server) handleExample(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).PickExamplePrompt()
	redirectHome(w, r)
}

func (s *Server) handleResetChat(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r.Context()).ResetChat()
	redirectHome(w, r)
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())
	prompt := strings.TrimSpace(r.FormValue("prompt"))
	if prompt == "" {
		redirectHome(w, r)
		return
	}

	st.Append(model.UserMessage(prompt))
	// The job runs to completion even if the browser goes away.
	s.runExtraction(context.WithoutCancel(r.Context()), st, prompt)

	http.Redirect(w, r, "/#chat-end", http.StatusSeeOther)
}

// runExtraction executes one turn for st and records the outcome as an
// assistant message plus a banner.
func (s *Server) runExtraction(ctx context.Context, st *session.State, prompt string) (*extract.Outcome, error) {
	release, ok := st.TryBeginExtraction()
	if !ok {
		st.SetNotice(session.NoticeWarning, MsgBusy, "")
		return nil, errBusy
	}
	defer release()

	out, err := s.extractor.Submit(ctx, st.WebsiteURL(), prompt, st.Fields())
	if err != nil {
		if extract.IsRemote(err) {
			st.SetNotice(session.NoticeError, "An error occurred: "+err.Error(), extract.Detail(err))
		} else {
			st.SetNotice(session.NoticeError, err.Error(), "")
		}
		return nil, err
	}

	st.Append(out.Result.Message())
	n := st.RecordExtraction()
	st.SetNotice(session.NoticeSuccess, fmt.Sprintf("Extraction #%d completed successfully!", n), "")
	return out, nil
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st := sessionFrom(r.Context())

	idx, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	msg, ok := st.Message(idx)
	if !ok || msg.Table.Empty() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="extraction-%d.%s"`, idx, format))
	if err := export.Write(w, format, msg.Table); err != nil {
		zap.L().Error("export table", zap.Error(err), zap.Int("index", idx))
	}
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// truncate shortens s to limit runes followed by "...". Empty reads "None".
func truncate(s string, limit int) string {
	if s == "" {
		return "None"
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
