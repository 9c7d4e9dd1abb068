package internal

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rm-hull/strip-slicer/internal/config"
	"github.com/rm-hull/strip-slicer/internal/errors"
)

const jobsPath = "/v1/jobs"

// JobResponse is returned when a slicing job completes.
type JobResponse struct {
	ID    string   `json:"id"`
	Files []string `json:"files"`
}

type ErrorResponse struct {
	Code  errors.Code `json:"code,omitempty"`
	Error string      `json:"error"`
}

type jobsHandler struct {
	rootDir string
	cfg     *config.Config
	logger  *log.Logger
}

// RegisterJobRoutes mounts the slicing API on r. Every job writes into its own
// directory under rootDir, which is also served read-only under /v1/jobs/.
func RegisterJobRoutes(r gin.IRoutes, rootDir string, cfg *config.Config, logger *log.Logger) {
	h := &jobsHandler{rootDir: rootDir, cfg: cfg, logger: logger}
	r.POST(jobsPath, h.create)
	r.Static(jobsPath, rootDir)
}

// create accepts a multipart form with one or more "images" parts, in order, and
// optional width, height, format, filter, sequence and start fields.
func (h *jobsHandler) create(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.fail(c, errors.Wrap(errors.ErrCodeInvalidInput, err, "expected multipart form"))
		return
	}
	uploads := form.File["images"]
	if len(uploads) == 0 {
		h.fail(c, errors.New(errors.ErrCodeInvalidInput, "no images uploaded"))
		return
	}

	names := make([]string, len(uploads))
	for i, fh := range uploads {
		if names[i], err = uploadName(fh.Filename); err != nil {
			h.fail(c, err)
			return
		}
	}

	cfg, err := h.jobConfig(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	proc, err := NewProcessor(cfg, h.logger)
	if err != nil {
		h.fail(c, err)
		return
	}

	stagingDir, err := os.MkdirTemp("", "strip-upload-*")
	if err != nil {
		h.fail(c, errors.Wrap(errors.ErrCodeIO, err, "failed to create staging directory"))
		return
	}
	defer func() {
		_ = os.RemoveAll(stagingDir)
	}()

	// One sub-directory per upload keeps the original base names, which per-image mode uses.
	images := make([]string, len(uploads))
	for i, fh := range uploads {
		dst := filepath.Join(stagingDir, fmt.Sprintf("%03d", i), names[i])
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			h.fail(c, errors.Wrap(errors.ErrCodeIO, err, "failed to stage upload").WithPath(fh.Filename))
			return
		}
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			h.fail(c, errors.Wrap(errors.ErrCodeIO, err, "failed to stage upload").WithPath(fh.Filename))
			return
		}
		images[i] = dst
	}

	id := uuid.NewString()
	outputDir := filepath.Join(h.rootDir, id)
	files, err := h.run(c.Request.Context(), proc, cfg, images, outputDir)
	if err != nil {
		h.fail(c, err)
		return
	}

	urls := make([]string, len(files))
	for i, f := range files {
		urls[i] = path.Join(jobsPath, id, filepath.Base(f))
	}
	h.logger.Info("Job complete", "id", id, "images", len(images), "tiles", len(files))
	c.JSON(http.StatusCreated, JobResponse{ID: id, Files: urls})
}

// uploadName reduces a client-supplied file name to a base name that can be staged as a
// regular file.
func uploadName(filename string) (string, error) {
	name := filepath.Base(filepath.Clean(filename))
	switch name {
	case ".", "..", string(filepath.Separator):
		return "", errors.New(errors.ErrCodeInvalidInput, "upload file name %q is not a file name", filename)
	}
	return name, nil
}

func (h *jobsHandler) run(ctx context.Context, proc *Processor, cfg *config.Config, images []string, outputDir string) ([]string, error) {
	if cfg.Processing.Sequence {
		return proc.ProcessSequenceList(ctx, images, outputDir, cfg.Processing.StartPostfix)
	}
	return proc.ProcessImageList(ctx, images, outputDir, cfg.Processing.StartPostfix)
}

func (h *jobsHandler) jobConfig(c *gin.Context) (*config.Config, error) {
	cfg := h.cfg.Clone()

	ints := map[string]*int{
		"width":  &cfg.Output.Width,
		"height": &cfg.Output.Height,
		"start":  &cfg.Processing.StartPostfix,
	}
	for key, dst := range ints {
		if v := c.PostForm(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "%s must be an integer", key)
			}
			*dst = n
		}
	}
	if v := c.PostForm("sequence"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "sequence must be a boolean")
		}
		cfg.Processing.Sequence = b
	}
	if v := c.PostForm("format"); v != "" {
		cfg.Output.Format = v
	}
	if v := c.PostForm("filter"); v != "" {
		cfg.Processing.Filter = v
	}
	return cfg, cfg.Validate()
}

func (h *jobsHandler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Job failed", "err", err)
	} else {
		h.logger.Warn("Job rejected", "err", err)
	}
	c.JSON(status, ErrorResponse{Code: errors.GetCode(err), Error: errors.UserMessage(err)})
}

func statusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrCodeDecode, errors.ErrCodeInvalidDimension:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
