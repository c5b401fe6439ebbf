package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/twhitfield/addrcheck/internal/middleware"
	"github.com/twhitfield/addrcheck/internal/pipeline"
	"github.com/twhitfield/addrcheck/internal/tabular"
)

const maxUploadMemory = 32 << 20

// ValidateHandler accepts a spreadsheet upload, runs the validation batch
// against the USPS API, and responds with the augmented spreadsheet.
type ValidateHandler struct {
	runner   *pipeline.Runner
	token    string
	logger   *slog.Logger
	validate *validator.Validate
}

// validateOptions are the optional form fields accompanying the upload.
type validateOptions struct {
	// Format overrides the output format; defaults to the input format.
	Format string `validate:"omitempty,oneof=csv xlsx"`
}

// NewValidateHandler creates the upload endpoint handler. token is the
// batch bearer credential acquired at startup; it is forwarded per request
// and never included in any response or log line.
func NewValidateHandler(runner *pipeline.Runner, token string, logger *slog.Logger) *ValidateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ValidateHandler{
		runner:   runner,
		token:    token,
		logger:   logger,
		validate: validator.New(),
	}
}

// ServeHTTP handles POST /api/validate.
//
// Request: multipart form with a "file" part (.csv or .xlsx) and an optional
// "format" field overriding the output format.
//
// Response: the validated spreadsheet as an attachment. Batch counts are
// reported in X-Validation-Total, X-Validation-Valid,
// X-Validation-Errors, and X-Validation-Service-Errors headers so clients
// get the summary without parsing the file.
func (h *ValidateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context(), h.logger)

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	opts := validateOptions{Format: strings.ToLower(strings.TrimSpace(r.FormValue("format")))}
	if err := h.validate.Struct(opts); err != nil {
		http.Error(w, "format must be csv or xlsx", http.StatusBadRequest)
		return
	}

	input, err := tabular.Read(header.Filename, file)
	if err != nil {
		http.Error(w, fmt.Sprintf("could not read spreadsheet: %v", err), http.StatusBadRequest)
		return
	}

	logger.Info("starting validation batch",
		"file", header.Filename,
		"rows", input.Len(),
	)

	output, summary := h.runner.Run(r.Context(), input, h.token)

	format := opts.Format
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
	}

	outName := outputFileName(header.Filename, format)
	w.Header().Set("X-Validation-Total", strconv.Itoa(summary.Total))
	w.Header().Set("X-Validation-Valid", strconv.Itoa(summary.Valid))
	w.Header().Set("X-Validation-Errors", strconv.Itoa(summary.ValidationErrors))
	w.Header().Set("X-Validation-Service-Errors", strconv.Itoa(summary.ServiceErrors))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", outName))

	switch format {
	case "xlsx":
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		err = tabular.WriteXLSX(w, output)
	default:
		w.Header().Set("Content-Type", "text/csv")
		err = tabular.WriteCSV(w, output)
	}
	if err != nil {
		// Headers are already gone; all we can do is log.
		logger.Error("failed to stream validated spreadsheet", "error", err)
	}
}

func outputFileName(inputName, format string) string {
	ext := filepath.Ext(inputName)
	base := strings.TrimSuffix(filepath.Base(inputName), ext)
	return fmt.Sprintf("%s_validated.%s", base, format)
}
